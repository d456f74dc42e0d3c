package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"tasklogger/internal/config"
	"tasklogger/internal/persist"
	"tasklogger/internal/task"
	"tasklogger/internal/tasklist"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeDetail
)

// appliedMsg carries the result of an intent back to the model.
type appliedMsg struct {
	intent tasklist.Intent
	snap   tasklist.Snapshot
	err    error
}

type Model struct {
	list       *tasklist.List
	cfg        config.Config
	tasks      []task.Task
	backend    persist.Mode
	cursor     int
	mode       mode
	form       *form
	status     string
	confirmDel bool
	pendingDel *task.Task
	busy       bool
	width      int
}

// Run loads the configured backend and starts the program.
func Run(list *tasklist.List, cfg config.Config) error {
	snap, err := list.Apply(context.Background(), tasklist.SwitchBackend{Mode: cfg.Mode()})
	if err != nil {
		return err
	}

	program := tea.NewProgram(NewModel(list, cfg, snap), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func NewModel(list *tasklist.List, cfg config.Config, snap tasklist.Snapshot) Model {
	return Model{
		list:    list,
		cfg:     cfg,
		tasks:   snap.Tasks,
		backend: snap.Mode,
		cursor:  clampCursor(0, len(snap.Tasks)),
		mode:    modeList,
		status:  fmt.Sprintf("Using %s. Press '%s' to add a task.", snap.Mode.Label(), cfg.Keys.Add),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appliedMsg:
		return m.applied(msg), nil
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		switch m.mode {
		case modeForm:
			return m.updateFormMode(msg)
		case modeDetail:
			return m.updateDetailMode(msg.String())
		default:
			return m.updateListMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.form != nil {
			m.form.setWidth(msg.Width)
		}
	}
	return m, nil
}

// apply runs an intent off the update loop and reports back with an appliedMsg.
func (m Model) apply(in tasklist.Intent) tea.Cmd {
	list := m.list
	return func() tea.Msg {
		snap, err := list.Apply(context.Background(), in)
		return appliedMsg{intent: in, snap: snap, err: err}
	}
}

func (m Model) applied(msg appliedMsg) Model {
	m.busy = false
	before := m.tasks
	m.tasks = msg.snap.Tasks
	m.backend = msg.snap.Mode
	m.cursor = clampCursor(m.cursor, len(m.tasks))

	if msg.err != nil {
		slog.Error("intent failed", "intent", fmt.Sprintf("%T", msg.intent), "err", msg.err)
		switch {
		case errors.Is(msg.err, tasklist.ErrPersist):
			m.status = fmt.Sprintf("save failed: %v", msg.err)
		case errors.Is(msg.err, task.ErrEmptyTitle):
			m.status = "Title is required"
		default:
			m.status = fmt.Sprintf("%s failed: %v", intentName(msg.intent), msg.err)
		}
		return m
	}

	switch in := msg.intent.(type) {
	case tasklist.Add:
		if i := firstNew(before, m.tasks); i >= 0 {
			m.cursor = i
		}
		m.status = "Task saved"
	case tasklist.Edit:
		if i := msg.snap.Index(in.ID); i >= 0 {
			m.cursor = i
		}
		m.status = "Task updated"
	case tasklist.Delete:
		m.status = "Task deleted"
	case tasklist.ToggleStatus:
		if i := msg.snap.Index(in.ID); i >= 0 {
			m.cursor = i
			m.status = fmt.Sprintf("Marked %q %s", m.tasks[i].Title, m.tasks[i].Status)
		}
	case tasklist.SwitchBackend:
		m.cursor = 0
		m.status = "Using " + m.backend.Label()
	case tasklist.Reload:
		m.cursor = 0
		m.status = fmt.Sprintf("Reloaded %d tasks from %s", len(m.tasks), m.backend.Label())
	}
	return m
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		if len(m.tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case k.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.tasks))
		}
	case k.Add:
		m.form = newForm(nil, m.width)
		m.mode = modeForm
		m.status = "Add task: tab to move, " + k.Save + " to save, " + k.Cancel + " to cancel"
	case k.Edit:
		if len(m.tasks) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.form = newForm(&t, m.width)
		m.mode = modeForm
		m.status = "Edit task: tab to move, " + k.Save + " to save, " + k.Cancel + " to cancel"
	case k.Detail:
		if len(m.tasks) == 0 {
			m.status = "No tasks"
			return m, nil
		}
		m.mode = modeDetail
	case k.Toggle:
		if len(m.tasks) == 0 || m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.apply(tasklist.ToggleStatus{ID: m.tasks[m.cursor].ID})
	case k.Delete:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete %q? This cannot be undone. y/n", t.Title)
	case k.SwitchBackend:
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.apply(tasklist.SwitchBackend{Mode: m.backend.Other()})
	case k.Reload:
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.apply(tasklist.Reload{})
	}
	return m, nil
}

func (m Model) updateFormMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	f := m.form
	switch key := msg.String(); key {
	case k.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.status = "Cancelled"
		return m, nil
	case k.Save:
		return m.submitForm()
	case k.NextField:
		return m, f.next()
	case k.PrevField:
		return m, f.prev()
	case k.Confirm:
		if f.focus == fieldNotes {
			return m, f.update(msg)
		}
		if f.focus == fieldDeadline {
			return m.submitForm()
		}
		return m, f.next()
	default:
		return m, f.update(msg)
	}
}

// submitForm validates in the UI so invalid input never reaches the list.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	v := f.values()
	if strings.TrimSpace(v.Title) == "" {
		m.status = "Title is required"
		return m, f.focusField(fieldTitle)
	}
	if _, err := task.NormalizeDeadline(v.Deadline); err != nil {
		m.status = "Invalid deadline: use YYYY-MM-DD or Jan 2, 2006"
		return m, f.focusField(fieldDeadline)
	}

	var in tasklist.Intent = tasklist.Add{Title: v.Title, Deadline: v.Deadline, Notes: v.Notes}
	if f.editing() {
		in = tasklist.Edit{ID: f.editingID, Title: v.Title, Deadline: v.Deadline, Notes: v.Notes}
	}
	m.form = nil
	m.mode = modeList
	m.busy = true
	m.status = "Saving…"
	return m, m.apply(in)
}

func (m Model) updateDetailMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case k.Edit:
		m.mode = modeList
		return m.updateListMode(key)
	case k.Cancel, k.Detail, k.Quit, "esc", "backspace":
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		id := m.pendingDel.ID
		m.confirmDel = false
		m.pendingDel = nil
		m.busy = true
		return m, m.apply(tasklist.Delete{ID: id})
	default:
		return m, nil
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Task Logger"))
	b.WriteString(backendStyle.Render(m.backend.Label()))
	b.WriteString("\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.form.view())
	case modeDetail:
		b.WriteString(m.renderDetail())
	default:
		if len(m.tasks) == 0 {
			b.WriteString(subtleStyle.Render(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add)))
			b.WriteString("\n")
		} else {
			b.WriteString(m.renderTaskList())
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(m.renderHelp()))

	return b.String()
}

func (m Model) renderStatus() string {
	switch {
	case strings.Contains(m.status, "failed"), m.status == "Title is required", strings.HasPrefix(m.status, "Invalid"):
		return errorStyle.Render(m.status)
	default:
		return m.status
	}
}

func (m Model) renderHelp() string {
	k := m.cfg.Keys
	switch m.mode {
	case modeForm:
		return fmt.Sprintf("%s/%s field • %s save • %s cancel", k.NextField, k.PrevField, k.Save, k.Cancel)
	case modeDetail:
		return fmt.Sprintf("%s edit • %s back", k.Edit, k.Cancel)
	default:
		return fmt.Sprintf("%s/%s move • %s add • %s detail • %s edit • space toggle • %s delete • %s backend • %s reload • %s quit",
			k.Up, k.Down, k.Add, k.Detail, k.Edit, k.Delete, k.SwitchBackend, k.Reload, k.Quit)
	}
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.tasks {
		cursor := "  "
		title := t.Title
		if m.cursor == i {
			cursor = "> "
			title = selectedStyle.Render(title)
		}
		b.WriteString(cursor + title + "\n")
		b.WriteString("    " + subtleStyle.Render(deadlineLine(t)+" • ") + renderStatusText(t.Status) + "\n")
	}
	return b.String()
}

func (m Model) renderDetail() string {
	if len(m.tasks) == 0 {
		return "No task selected\n"
	}
	t := m.tasks[clampCursor(m.cursor, len(m.tasks))]
	width := m.width - 16
	if width < 20 {
		width = 60
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Title") + dash(t.Title) + "\n")
	b.WriteString(labelStyle.Render("Deadline") + dash(t.Deadline) + "\n")
	b.WriteString(labelStyle.Render("Status") + renderStatusText(t.Status) + "\n")
	b.WriteString(labelStyle.Render("Notes") + "\n")
	b.WriteString(wordwrap.String(dash(t.Notes), width))
	return boxStyle.Render(b.String()) + "\n"
}

func renderStatusText(s task.Status) string {
	if s == task.StatusDone {
		return doneStyle.Render(string(s))
	}
	return string(s)
}

func deadlineLine(t task.Task) string {
	if !t.HasDeadline() {
		return "No deadline"
	}
	return t.Deadline
}

func dash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "—"
	}
	return v
}

func intentName(in tasklist.Intent) string {
	switch in.(type) {
	case tasklist.Add:
		return "add"
	case tasklist.Edit:
		return "edit"
	case tasklist.Delete:
		return "delete"
	case tasklist.ToggleStatus:
		return "toggle"
	case tasklist.SwitchBackend:
		return "switch"
	default:
		return "reload"
	}
}

// firstNew returns the index of the first task in after whose ID is not in before.
func firstNew(before, after []task.Task) int {
	seen := make(map[string]struct{}, len(before))
	for _, t := range before {
		seen[t.ID] = struct{}{}
	}
	for i, t := range after {
		if _, ok := seen[t.ID]; !ok {
			return i
		}
	}
	return -1
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
