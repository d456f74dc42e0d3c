package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklogger/internal/config"
	"tasklogger/internal/persist"
	"tasklogger/internal/storage"
	"tasklogger/internal/task"
	"tasklogger/internal/tasklist"
)

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.Open(context.Background(), filepath.Join(dir, storage.DefaultDBName))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv, err := storage.OpenPrefs(filepath.Join(dir, storage.PrefsName))
	require.NoError(t, err)

	list := tasklist.New(persist.New(db, kv))
	snap, err := list.Apply(context.Background(), tasklist.Reload{})
	require.NoError(t, err)
	return NewModel(list, config.Default(dir), snap)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

// applyCmd runs a command expected to come from Model.apply and feeds the result back.
func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, appliedMsg{}, msg)
	m, _ = update(t, m, msg)
	return m
}

func addTask(t *testing.T, m Model, title, deadline, notes string) Model {
	t.Helper()
	m, _ = update(t, m, runes("a"))
	require.Equal(t, modeForm, m.mode)
	m, _ = update(t, m, runes(title))
	m, _ = update(t, m, keyTab)
	if deadline != "" {
		m, _ = update(t, m, runes(deadline))
	}
	m, _ = update(t, m, keyTab)
	if notes != "" {
		m, _ = update(t, m, runes(notes))
	}
	m, cmd := update(t, m, keySave)
	return applyCmd(t, m, cmd)
}

func TestNewModel_EmptyList(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, persist.ModeRelational, m.backend)
	assert.Contains(t, m.View(), "No tasks yet")
	assert.Contains(t, m.View(), "SQLite")
	assert.Nil(t, m.Init())
}

func TestAddTask(t *testing.T) {
	m := newTestModel(t)

	m = addTask(t, m, "Buy milk", "2026-10-20", "two litres")

	require.Len(t, m.tasks, 1)
	assert.Equal(t, "Buy milk", m.tasks[0].Title)
	assert.Equal(t, "Oct 20, 2026", m.tasks[0].Deadline)
	assert.Equal(t, "two litres", m.tasks[0].Notes)
	assert.Equal(t, task.StatusPending, m.tasks[0].Status)
	assert.Equal(t, "Task saved", m.status)
	assert.Equal(t, modeList, m.mode)

	view := m.View()
	assert.Contains(t, view, "Buy milk")
	assert.Contains(t, view, "Oct 20, 2026")
}

func TestAddTask_CursorFollowsNewTask(t *testing.T) {
	m := newTestModel(t)

	m = addTask(t, m, "first", "", "")
	m = addTask(t, m, "second", "", "")

	require.Len(t, m.tasks, 2)
	assert.Equal(t, "second", m.tasks[m.cursor].Title)
}

func TestAddTask_EmptyTitleRejected(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("   "))
	m, _ = update(t, m, keySave)

	assert.Equal(t, modeForm, m.mode, "form stays open")
	assert.Equal(t, "Title is required", m.status)
	assert.Empty(t, m.tasks)
}

func TestAddTask_BadDeadlineRejected(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("title"))
	m, _ = update(t, m, keyEnter)
	m, _ = update(t, m, runes("whenever"))
	m, _ = update(t, m, keyEnter)

	assert.Equal(t, modeForm, m.mode)
	assert.True(t, strings.HasPrefix(m.status, "Invalid deadline"))
	assert.Equal(t, fieldDeadline, m.form.focus)
}

func TestCancelForm(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("never saved"))
	m, _ = update(t, m, keyEsc)

	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.form)
	assert.Equal(t, "Cancelled", m.status)
	assert.Empty(t, m.tasks)
}

func TestEditTask_KeepsStatus(t *testing.T) {
	m := newTestModel(t)
	m = addTask(t, m, "draft", "", "")

	m, cmd := update(t, m, keySpace)
	m = applyCmd(t, m, cmd)
	require.Equal(t, task.StatusDone, m.tasks[0].Status)

	m, _ = update(t, m, runes("e"))
	require.Equal(t, modeForm, m.mode)
	require.True(t, m.form.editing())
	assert.Equal(t, "draft", m.form.title.Value())

	m.form.title.SetValue("final")
	m, cmd = update(t, m, keySave)
	m = applyCmd(t, m, cmd)

	require.Len(t, m.tasks, 1)
	assert.Equal(t, "final", m.tasks[0].Title)
	assert.Equal(t, task.StatusDone, m.tasks[0].Status)
	assert.Equal(t, "Task updated", m.status)
}

func TestDeleteTask_Confirm(t *testing.T) {
	m := newTestModel(t)
	m = addTask(t, m, "keep", "", "")
	m = addTask(t, m, "remove", "", "")
	require.Equal(t, "remove", m.tasks[m.cursor].Title)

	m, _ = update(t, m, runes("d"))
	assert.True(t, m.confirmDel)
	assert.Contains(t, m.status, "cannot be undone")

	m, _ = update(t, m, runes("n"))
	assert.False(t, m.confirmDel)
	assert.Len(t, m.tasks, 2)

	m, _ = update(t, m, runes("d"))
	m, cmd := update(t, m, runes("y"))
	m = applyCmd(t, m, cmd)

	require.Len(t, m.tasks, 1)
	assert.Equal(t, "keep", m.tasks[0].Title)
	assert.Equal(t, "Task deleted", m.status)
}

func TestSwitchBackend(t *testing.T) {
	m := newTestModel(t)
	m = addTask(t, m, "in sqlite", "", "")

	m, cmd := update(t, m, runes("b"))
	m = applyCmd(t, m, cmd)
	assert.Equal(t, persist.ModePreferences, m.backend)
	assert.Equal(t, "Using preferences", m.status)
	assert.Empty(t, m.tasks, "backends are independent")

	m = addTask(t, m, "in prefs", "", "")

	m, cmd = update(t, m, runes("b"))
	m = applyCmd(t, m, cmd)
	assert.Equal(t, persist.ModeRelational, m.backend)
	require.Len(t, m.tasks, 1)
	assert.Equal(t, "in sqlite", m.tasks[0].Title)
}

func TestDetailView(t *testing.T) {
	m := newTestModel(t)
	m = addTask(t, m, "with notes", "", "remember the receipt")

	m, _ = update(t, m, keyEnter)
	require.Equal(t, modeDetail, m.mode)

	view := m.View()
	assert.Contains(t, view, "with notes")
	assert.Contains(t, view, "remember the receipt")
	assert.Contains(t, view, "—", "missing deadline shows a dash")

	m, _ = update(t, m, keyEsc)
	assert.Equal(t, modeList, m.mode)
}

func TestNavigation(t *testing.T) {
	m := newTestModel(t)
	m = addTask(t, m, "one", "", "")
	m = addTask(t, m, "two", "", "")
	m = addTask(t, m, "three", "", "")

	m.cursor = 0
	m, _ = update(t, m, keyDown)
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))
	assert.Equal(t, 2, m.cursor, "cursor stops at the last task")
	m, _ = update(t, m, runes("k"))
	assert.Equal(t, 1, m.cursor)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWindowSize(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, m.width)
	assert.Equal(t, 86, m.form.title.Width)
}

func TestClampCursor(t *testing.T) {
	assert.Equal(t, 0, clampCursor(5, 0))
	assert.Equal(t, 0, clampCursor(-1, 3))
	assert.Equal(t, 2, clampCursor(9, 3))
	assert.Equal(t, 1, clampCursor(1, 3))
}
