// Package persist selects which backend the task list is loaded from and
// saved to. The backends are independent: switching mode never copies data.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tasklogger/internal/task"
)

// ErrUnknownMode is returned for a mode that names no backend.
var ErrUnknownMode = errors.New("unknown storage mode")

// Mode names the active backend.
type Mode int

const (
	// ModeRelational stores tasks in the sqlite table. It is the default.
	ModeRelational Mode = iota
	// ModePreferences stores tasks as one encoded preference slot.
	ModePreferences
)

func (m Mode) String() string {
	switch m {
	case ModeRelational:
		return "sqlite"
	case ModePreferences:
		return "prefs"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Label is the human name shown when the mode changes.
func (m Mode) Label() string {
	switch m {
	case ModePreferences:
		return "preferences"
	default:
		return "SQLite"
	}
}

// Other returns the mode a toggle switches to.
func (m Mode) Other() Mode {
	if m == ModePreferences {
		return ModeRelational
	}
	return ModePreferences
}

// ParseMode reads a mode name as written in config files and flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "relational", "db":
		return ModeRelational, nil
	case "prefs", "preferences", "kv":
		return ModePreferences, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Backend loads and saves the full task list.
type Backend interface {
	Load(ctx context.Context) ([]task.Task, error)
	Save(ctx context.Context, tasks []task.Task) error
}

// Facade routes loads and saves to the backend for the active mode. All
// backend calls are serialized.
type Facade struct {
	mu       sync.Mutex
	mode     Mode
	backends map[Mode]Backend
}

// New returns a facade in ModeRelational.
func New(relational, preferences Backend) *Facade {
	return &Facade{
		mode: ModeRelational,
		backends: map[Mode]Backend{
			ModeRelational:  relational,
			ModePreferences: preferences,
		},
	}
}

// Mode returns the active mode.
func (f *Facade) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode changes which backend later Reload and Persist calls use.
func (f *Facade) SetMode(m Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.backends[m]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownMode, m)
	}
	if f.mode != m {
		slog.Info("storage mode changed", "from", f.mode.String(), "to", m.String())
	}
	f.mode = m
	return nil
}

// Reload loads the full list from the active backend.
func (f *Facade) Reload(ctx context.Context) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx, f.mode)
}

// Persist overwrites the active backend with tasks.
func (f *Facade) Persist(ctx context.Context, tasks []task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(ctx, f.mode, tasks)
}

// ReloadMode loads the full list from the backend for mode.
func (f *Facade) ReloadMode(ctx context.Context, mode Mode) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx, mode)
}

// PersistMode overwrites the backend for mode with tasks.
func (f *Facade) PersistMode(ctx context.Context, mode Mode, tasks []task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(ctx, mode, tasks)
}

func (f *Facade) load(ctx context.Context, mode Mode) ([]task.Task, error) {
	b, ok := f.backends[mode]
	if !ok || b == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
	tasks, err := b.Load(ctx)
	if err != nil {
		slog.Error("reload failed", "backend", mode.String(), "err", err)
		return nil, err
	}
	slog.Debug("reloaded tasks", "backend", mode.String(), "count", len(tasks))
	return tasks, nil
}

func (f *Facade) save(ctx context.Context, mode Mode, tasks []task.Task) error {
	b, ok := f.backends[mode]
	if !ok || b == nil {
		return fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
	if err := b.Save(ctx, tasks); err != nil {
		slog.Error("persist failed", "backend", mode.String(), "count", len(tasks), "err", err)
		return err
	}
	slog.Debug("persisted tasks", "backend", mode.String(), "count", len(tasks))
	return nil
}
