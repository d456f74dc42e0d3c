package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"tasklogger/internal/task"
)

const (
	// DefaultDBName is the file identity of the relational store.
	DefaultDBName = "tasks.db"

	// SchemaVersion is stored in PRAGMA user_version.
	SchemaVersion = 1
)

// ErrSchemaTooNew is returned when the database was written by a newer schema.
var ErrSchemaTooNew = errors.New("database schema is newer than supported")

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	_id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	deadline TEXT,
	notes TEXT,
	status TEXT
);`

var taskColumns = []string{"_id", "title", "deadline", "notes", "status"}

// SQLiteStore keeps the task list in a single sqlite table. Every Save
// replaces the whole table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func Open(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path is the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ensureSchema creates the tasks table on first use. A table from an older or
// unknown schema is dropped and recreated, losing its rows.
func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	version, err := s.userVersion(ctx)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrSchemaTooNew, version, SchemaVersion)
	}
	if version == SchemaVersion {
		_, err := s.db.ExecContext(ctx, createTasksTable)
		return err
	}

	existing, err := s.tableColumns(ctx)
	if err != nil {
		return err
	}
	if version == 0 && (len(existing) == 0 || sameColumns(existing, taskColumns)) {
		if _, err := s.db.ExecContext(ctx, createTasksTable); err != nil {
			return err
		}
		return s.setUserVersion(ctx, s.db, SchemaVersion)
	}
	return s.recreate(ctx, version)
}

func (s *SQLiteStore) recreate(ctx context.Context, from int) error {
	slog.Warn("dropping tasks table for schema upgrade", "path", s.path, "from", from, "to", SchemaVersion)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS tasks;`); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, createTasksTable); err != nil {
		tx.Rollback()
		return err
	}
	if err := s.setUserVersion(ctx, tx, SchemaVersion); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) userVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *SQLiteStore) setUserVersion(ctx context.Context, e execer, v int) error {
	_, err := e.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, v))
	return err
}

func (s *SQLiteStore) tableColumns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(tasks);`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func sameColumns(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]struct{}, len(got))
	for _, c := range got {
		seen[c] = struct{}{}
	}
	for _, c := range want {
		if _, ok := seen[c]; !ok {
			return false
		}
	}
	return true
}

// Load returns the stored tasks, most recently inserted first.
func (s *SQLiteStore) Load(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, deadline, notes, status FROM tasks ORDER BY _id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var title, deadline, notes, status sql.NullString
		if err := rows.Scan(&title, &deadline, &notes, &status); err != nil {
			return nil, fmt.Errorf("load tasks: %w", err)
		}
		tasks = append(tasks, task.New(title.String, deadline.String, notes.String, task.Status(status.String)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}

// Save replaces every row with tasks, inserted in list order. Nothing is
// committed unless every insert succeeds.
func (s *SQLiteStore) Save(ctx context.Context, tasks []task.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks;`); err != nil {
		tx.Rollback()
		return fmt.Errorf("save tasks: clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks (title, deadline, notes, status) VALUES (?, ?, ?, ?);`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("save tasks: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		if _, err := stmt.ExecContext(ctx, t.Title, t.Deadline, t.Notes, string(t.Status)); err != nil {
			tx.Rollback()
			return fmt.Errorf("save tasks: insert %d (%q): %w", i, t.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save tasks: commit: %w", err)
	}
	return nil
}

// Count returns the number of stored rows.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks;`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
