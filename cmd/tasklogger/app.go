package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"tasklogger/internal/config"
	"tasklogger/internal/persist"
	"tasklogger/internal/storage"
	"tasklogger/internal/tasklist"
)

// app is everything a command needs, opened from the config file.
type app struct {
	cfg    config.Config
	db     *storage.SQLiteStore
	kv     *storage.PrefsStore
	facade *persist.Facade
	list   *tasklist.List
	logs   io.Closer
}

func openApp(ctx context.Context) (*app, error) {
	path := configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if backendFlag != "" {
		if _, err := persist.ParseMode(backendFlag); err != nil {
			return nil, err
		}
		cfg.Backend = backendFlag
	}

	logs, err := setupLogging(cfg.ResolvedLogPath())
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	db, err := storage.Open(ctx, cfg.ResolvedDBPath())
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	kv, err := storage.OpenPrefs(cfg.ResolvedPrefsPath())
	if err != nil {
		db.Close()
		logs.Close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	facade := persist.New(db, kv)
	return &app{
		cfg:    cfg,
		db:     db,
		kv:     kv,
		facade: facade,
		list:   tasklist.New(facade),
		logs:   logs,
	}, nil
}

// load switches to the configured backend and reads it.
func (a *app) load(ctx context.Context) (tasklist.Snapshot, error) {
	return a.list.Apply(ctx, tasklist.SwitchBackend{Mode: a.cfg.Mode()})
}

func (a *app) Close() error {
	err := a.db.Close()
	a.logs.Close()
	return err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogging sends the standard logger, and slog with it, to path.
// The terminal belongs to the UI, so nothing is logged to stderr.
func setupLogging(path string) (io.Closer, error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := tea.LogToFile(path, "tasklogger")
	if err != nil {
		return nil, err
	}
	return f, nil
}
