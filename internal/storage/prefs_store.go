package storage

import (
	"context"
	"fmt"
	"log/slog"

	"tasklogger/internal/codec"
	"tasklogger/internal/prefs"
	"tasklogger/internal/task"
)

const (
	// PrefsName is the preference file holding the task slot.
	PrefsName = "tasks_prefs"

	// PrefsKey is the slot holding the encoded task list.
	PrefsKey = "tasks_json"
)

// PrefsStore keeps the task list as one encoded string in a preference slot.
type PrefsStore struct {
	file *prefs.File
	key  string
}

func NewPrefsStore(file *prefs.File) *PrefsStore {
	return &PrefsStore{file: file, key: PrefsKey}
}

// OpenPrefs opens the preference file at path.
func OpenPrefs(path string) (*PrefsStore, error) {
	f, err := prefs.Open(path)
	if err != nil {
		return nil, err
	}
	return NewPrefsStore(f), nil
}

// Path is the preference file location.
func (p *PrefsStore) Path() string {
	return p.file.Path()
}

// Load decodes the slot. A corrupt slot reads as an empty list.
func (p *PrefsStore) Load(ctx context.Context) ([]task.Task, error) {
	text, err := p.file.GetString(p.key, codec.EmptyList)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	tasks, err := codec.DecodeStrict(text)
	if err != nil {
		slog.Warn("discarding unreadable task list", "path", p.file.Path(), "key", p.key, "err", err)
		return []task.Task{}, nil
	}
	return tasks, nil
}

// Save writes the whole encoded list back to the slot.
func (p *PrefsStore) Save(ctx context.Context, tasks []task.Task) error {
	text, err := codec.Encode(tasks)
	if err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	if err := p.file.PutString(p.key, text); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Count returns the number of tasks in the slot.
func (p *PrefsStore) Count(ctx context.Context) (int, error) {
	tasks, err := p.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// Raw returns the undecoded slot text.
func (p *PrefsStore) Raw() (string, error) {
	return p.file.GetString(p.key, codec.EmptyList)
}
