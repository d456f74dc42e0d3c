package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasklogger/internal/task"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDeadline
	fieldNotes
	fieldCount
)

// form edits one task. editingID is empty when adding.
type form struct {
	editingID string
	title     textinput.Model
	deadline  textinput.Model
	notes     textarea.Model
	focus     formField
}

func newForm(t *task.Task, width int) *form {
	title := textinput.New()
	title.Placeholder = "Title (required)"
	title.CharLimit = 256

	deadline := textinput.New()
	deadline.Placeholder = "Deadline: YYYY-MM-DD or Jan 2, 2006 (optional)"
	deadline.CharLimit = 32

	notes := textarea.New()
	notes.Placeholder = "Notes (optional)"
	notes.ShowLineNumbers = false
	notes.CharLimit = 2000
	notes.SetHeight(4)

	f := &form{title: title, deadline: deadline, notes: notes}
	if t != nil {
		f.editingID = t.ID
		f.title.SetValue(t.Title)
		f.deadline.SetValue(t.Deadline)
		f.notes.SetValue(t.Notes)
	}
	f.setWidth(width)
	f.focusField(fieldTitle)
	return f
}

func (f *form) editing() bool {
	return f.editingID != ""
}

func (f *form) setWidth(width int) {
	if width <= 0 {
		width = 60
	}
	w := width - 14
	if w < 20 {
		w = 20
	}
	f.title.Width = w
	f.deadline.Width = w
	f.notes.SetWidth(w)
}

func (f *form) focusField(field formField) tea.Cmd {
	f.focus = field
	f.title.Blur()
	f.deadline.Blur()
	f.notes.Blur()
	switch field {
	case fieldDeadline:
		return f.deadline.Focus()
	case fieldNotes:
		return f.notes.Focus()
	default:
		return f.title.Focus()
	}
}

func (f *form) next() tea.Cmd {
	return f.focusField((f.focus + 1) % fieldCount)
}

func (f *form) prev() tea.Cmd {
	return f.focusField((f.focus + fieldCount - 1) % fieldCount)
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDeadline:
		f.deadline, cmd = f.deadline.Update(msg)
	case fieldNotes:
		f.notes, cmd = f.notes.Update(msg)
	}
	return cmd
}

func (f *form) values() task.Fields {
	return task.Fields{
		Title:    f.title.Value(),
		Deadline: f.deadline.Value(),
		Notes:    f.notes.Value(),
	}
}

func (f *form) view() string {
	var b strings.Builder
	heading := "Add Task"
	if f.editing() {
		heading = "Edit Task"
	}
	b.WriteString(titleStyle.Render(heading))
	b.WriteString("\n\n")
	b.WriteString(f.row("Title", fieldTitle, f.title.View()))
	b.WriteString(f.row("Deadline", fieldDeadline, f.deadline.View()))
	b.WriteString(f.row("Notes", fieldNotes, ""))
	b.WriteString(f.notes.View())
	b.WriteString("\n")
	return b.String()
}

func (f *form) row(label string, field formField, input string) string {
	style := labelStyle
	if f.focus == field {
		style = style.Foreground(accentColor)
	}
	return style.Render(label) + input + "\n"
}
