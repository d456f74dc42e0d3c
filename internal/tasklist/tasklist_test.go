package tasklist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklogger/internal/persist"
	"tasklogger/internal/storage"
	"tasklogger/internal/task"
)

type memBackend struct {
	tasks   []task.Task
	saves   int
	saveErr error
	loadErr error
}

func (m *memBackend) Load(context.Context) ([]task.Task, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return task.Clone(m.tasks), nil
}

func (m *memBackend) Save(_ context.Context, tasks []task.Task) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.tasks = task.Clone(tasks)
	return nil
}

func newStoredList(t *testing.T) *List {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.Open(context.Background(), filepath.Join(dir, storage.DefaultDBName))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv, err := storage.OpenPrefs(filepath.Join(dir, storage.PrefsName))
	require.NoError(t, err)

	l := New(persist.New(db, kv))
	_, err = l.Apply(context.Background(), Reload{})
	require.NoError(t, err)
	return l
}

func titles(s Snapshot) []string {
	out := make([]string, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestAdd_ValidatesBeforeMutation(t *testing.T) {
	mem := &memBackend{}
	l := New(persist.New(mem, &memBackend{}))

	snap, err := l.Apply(context.Background(), Add{Title: "   ", Notes: "ignored"})
	assert.ErrorIs(t, err, task.ErrEmptyTitle)
	assert.Empty(t, snap.Tasks)
	assert.Zero(t, mem.saves, "invalid input must not reach storage")

	_, err = l.Apply(context.Background(), Add{Title: "ok", Deadline: "someday"})
	assert.ErrorIs(t, err, task.ErrInvalidDeadline)
	assert.Zero(t, mem.saves)
}

func TestAdd_CreatesPendingTask(t *testing.T) {
	mem := &memBackend{}
	l := New(persist.New(mem, &memBackend{}))

	snap, err := l.Apply(context.Background(), Add{Title: " Buy milk ", Deadline: "2026-10-20", Notes: " 2l "})
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)

	got := snap.Tasks[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "Oct 20, 2026", got.Deadline)
	assert.Equal(t, "2l", got.Notes)
	assert.Equal(t, task.StatusPending, got.Status)
	assert.Equal(t, 1, mem.saves)
}

func TestRelational_NewestFirstSurvivesReload(t *testing.T) {
	ctx := context.Background()
	l := newStoredList(t)

	for _, title := range []string{"a", "b", "c"} {
		_, err := l.Apply(ctx, Add{Title: title})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"c", "b", "a"}, titles(l.Snapshot()))

	for i := 0; i < 2; i++ {
		snap, err := l.Apply(ctx, Reload{})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, titles(snap), "reload %d", i)

		_, err = l.Apply(ctx, ToggleStatus{ID: snap.Tasks[0].ID})
		require.NoError(t, err)
	}
}

func TestPreferences_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	l := newStoredList(t)

	_, err := l.Apply(ctx, SwitchBackend{Mode: persist.ModePreferences})
	require.NoError(t, err)

	for _, title := range []string{"a", "b", "c"} {
		_, err := l.Apply(ctx, Add{Title: title})
		require.NoError(t, err)
	}
	snap, err := l.Apply(ctx, Reload{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(snap))
}

func TestEditDeleteToggle_ByID(t *testing.T) {
	ctx := context.Background()
	l := newStoredList(t)

	_, err := l.Apply(ctx, Add{Title: "same"})
	require.NoError(t, err)
	snap, err := l.Apply(ctx, Add{Title: "same"})
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)

	target := snap.Tasks[1]
	other := snap.Tasks[0]

	snap, err = l.Apply(ctx, Edit{ID: target.ID, Title: "renamed", Deadline: "", Notes: "n"})
	require.NoError(t, err)
	i := snap.Index(target.ID)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "renamed", snap.Tasks[i].Title)
	assert.Equal(t, "n", snap.Tasks[i].Notes)
	assert.Equal(t, "same", snap.Tasks[snap.Index(other.ID)].Title)

	snap, err = l.Apply(ctx, ToggleStatus{ID: target.ID})
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, snap.Tasks[snap.Index(target.ID)].Status)

	snap, err = l.Apply(ctx, Edit{ID: target.ID, Title: "renamed again"})
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, snap.Tasks[snap.Index(target.ID)].Status, "edit keeps status")

	snap, err = l.Apply(ctx, Delete{ID: target.ID})
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, other.ID, snap.Tasks[0].ID)

	snap, err = l.Apply(ctx, Reload{})
	require.NoError(t, err)
	assert.Equal(t, []string{"same"}, titles(snap))
}

func TestEdit_RejectsEmptyTitle(t *testing.T) {
	ctx := context.Background()
	mem := &memBackend{}
	l := New(persist.New(mem, &memBackend{}))

	snap, err := l.Apply(ctx, Add{Title: "keep"})
	require.NoError(t, err)

	snap, err = l.Apply(ctx, Edit{ID: snap.Tasks[0].ID, Title: ""})
	assert.ErrorIs(t, err, task.ErrEmptyTitle)
	assert.Equal(t, "keep", snap.Tasks[0].Title)
	assert.Equal(t, 1, mem.saves)
}

func TestUnknownID(t *testing.T) {
	l := New(persist.New(&memBackend{}, &memBackend{}))
	ctx := context.Background()

	for _, in := range []Intent{Edit{ID: "nope", Title: "x"}, Delete{ID: "nope"}, ToggleStatus{ID: "nope"}} {
		_, err := l.Apply(ctx, in)
		assert.ErrorIs(t, err, ErrNotFound, "%T", in)
	}
}

func TestSwitchBackend_DoesNotMigrate(t *testing.T) {
	ctx := context.Background()
	l := newStoredList(t)

	_, err := l.Apply(ctx, Add{Title: "sqlite only"})
	require.NoError(t, err)

	snap, err := l.Apply(ctx, SwitchBackend{Mode: persist.ModePreferences})
	require.NoError(t, err)
	assert.Equal(t, persist.ModePreferences, snap.Mode)
	assert.Empty(t, snap.Tasks)

	_, err = l.Apply(ctx, Add{Title: "prefs only"})
	require.NoError(t, err)

	snap, err = l.Apply(ctx, SwitchBackend{Mode: persist.ModeRelational})
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlite only"}, titles(snap))

	snap, err = l.Apply(ctx, SwitchBackend{Mode: persist.ModePreferences})
	require.NoError(t, err)
	assert.Equal(t, []string{"prefs only"}, titles(snap))
}

func TestPersistFailure_KeepsMemory(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	mem := &memBackend{saveErr: boom}
	l := New(persist.New(mem, &memBackend{}))

	snap, err := l.Apply(ctx, Add{Title: "unsaved"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"unsaved"}, titles(snap), "in-memory list stays authoritative")

	mem.saveErr = nil
	_, err = l.Apply(ctx, ToggleStatus{ID: snap.Tasks[0].ID})
	require.NoError(t, err)
	require.Len(t, mem.tasks, 1)
	assert.Equal(t, task.StatusDone, mem.tasks[0].Status)
}

func TestReloadFailure_LeavesListEmpty(t *testing.T) {
	ctx := context.Background()
	mem := &memBackend{}
	l := New(persist.New(mem, &memBackend{}))

	_, err := l.Apply(ctx, Add{Title: "x"})
	require.NoError(t, err)

	mem.loadErr = errors.New("locked")
	snap, err := l.Apply(ctx, Reload{})
	assert.Error(t, err)
	assert.ErrorIs(t, err, mem.loadErr)
	assert.Empty(t, snap.Tasks)
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	l := New(persist.New(&memBackend{}, &memBackend{}))

	snap, err := l.Apply(ctx, Add{Title: "original"})
	require.NoError(t, err)
	snap.Tasks[0].Title = "mutated"

	assert.Equal(t, "original", l.Snapshot().Tasks[0].Title)
}
