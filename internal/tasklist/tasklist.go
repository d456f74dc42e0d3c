// Package tasklist owns the in-memory task list. Callers send intents; the
// list applies each one, persists the full list through the facade, and
// returns a snapshot of the new state.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tasklogger/internal/persist"
	"tasklogger/internal/task"
)

var (
	// ErrNotFound is returned when an intent names a task ID that is not in the list.
	ErrNotFound = errors.New("task not found")

	// ErrPersist wraps storage failures. The in-memory change is kept.
	ErrPersist = errors.New("persist failed")
)

// Intent is a requested change to the list.
type Intent interface {
	intent()
}

// Add creates a Pending task.
type Add struct {
	Title    string
	Deadline string
	Notes    string
}

// Edit replaces the title, deadline and notes of a task. Status is kept.
type Edit struct {
	ID       string
	Title    string
	Deadline string
	Notes    string
}

// Delete removes a task.
type Delete struct {
	ID string
}

// ToggleStatus flips a task between Pending and Done.
type ToggleStatus struct {
	ID string
}

// SwitchBackend makes mode active and reloads from it. No data is copied.
type SwitchBackend struct {
	Mode persist.Mode
}

// Reload replaces the list with the active backend's contents.
type Reload struct{}

func (Add) intent()           {}
func (Edit) intent()          {}
func (Delete) intent()        {}
func (ToggleStatus) intent()  {}
func (SwitchBackend) intent() {}
func (Reload) intent()        {}

// Snapshot is a copy of the list state.
type Snapshot struct {
	Tasks []task.Task
	Mode  persist.Mode
}

// Index returns the position of the task with id, or -1.
func (s Snapshot) Index(id string) int {
	for i, t := range s.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// List is the single owner of the task list.
type List struct {
	mu     sync.Mutex
	facade *persist.Facade
	tasks  []task.Task
}

func New(facade *persist.Facade) *List {
	return &List{facade: facade}
}

// Snapshot returns the current state without touching storage.
func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Apply performs one intent. Validation errors leave the list unchanged.
func (l *List) Apply(ctx context.Context, in Intent) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch in := in.(type) {
	case Add:
		f, err := task.Validate(task.Fields{Title: in.Title, Deadline: in.Deadline, Notes: in.Notes})
		if err != nil {
			return l.snapshot(), err
		}
		t := task.New(f.Title, f.Deadline, f.Notes, task.StatusPending)
		if newestFirst(l.facade.Mode()) {
			l.tasks = append([]task.Task{t}, l.tasks...)
		} else {
			l.tasks = append(l.tasks, t)
		}
		return l.persist(ctx)

	case Edit:
		i, err := l.index(in.ID)
		if err != nil {
			return l.snapshot(), err
		}
		f, err := task.Validate(task.Fields{Title: in.Title, Deadline: in.Deadline, Notes: in.Notes})
		if err != nil {
			return l.snapshot(), err
		}
		l.tasks[i].Title = f.Title
		l.tasks[i].Deadline = f.Deadline
		l.tasks[i].Notes = f.Notes
		return l.persist(ctx)

	case Delete:
		i, err := l.index(in.ID)
		if err != nil {
			return l.snapshot(), err
		}
		l.tasks = append(l.tasks[:i:i], l.tasks[i+1:]...)
		return l.persist(ctx)

	case ToggleStatus:
		i, err := l.index(in.ID)
		if err != nil {
			return l.snapshot(), err
		}
		l.tasks[i].Status = l.tasks[i].Status.Toggle()
		return l.persist(ctx)

	case SwitchBackend:
		if err := l.facade.SetMode(in.Mode); err != nil {
			return l.snapshot(), err
		}
		return l.reload(ctx)

	case Reload:
		return l.reload(ctx)

	default:
		return l.snapshot(), fmt.Errorf("unsupported intent %T", in)
	}
}

func (l *List) index(id string) (int, error) {
	for i, t := range l.tasks {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// reload clears the list first, so a failed load leaves it empty.
func (l *List) reload(ctx context.Context) (Snapshot, error) {
	l.tasks = nil
	tasks, err := l.facade.Reload(ctx)
	if err != nil {
		return l.snapshot(), fmt.Errorf("reload: %w", err)
	}
	l.tasks = tasks
	return l.snapshot(), nil
}

func (l *List) persist(ctx context.Context) (Snapshot, error) {
	mode := l.facade.Mode()
	out := task.Clone(l.tasks)
	if newestFirst(mode) {
		out = task.Reverse(l.tasks)
	}
	if err := l.facade.PersistMode(ctx, mode, out); err != nil {
		return l.snapshot(), fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return l.snapshot(), nil
}

func (l *List) snapshot() Snapshot {
	return Snapshot{Tasks: task.Clone(l.tasks), Mode: l.facade.Mode()}
}

// newestFirst reports whether mode reads rows back newest first. Such lists
// are kept newest first in memory and written oldest first, so a save and
// reload cycle keeps the order.
func newestFirst(mode persist.Mode) bool {
	return mode == persist.ModeRelational
}
