// Package prefs is a small named key-value preference file. Each file holds
// string slots encoded as TOML; every write rewrites the whole file.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Ext is appended to preference names that have no extension.
const Ext = ".toml"

// File is a preference file on disk.
type File struct {
	mu   sync.Mutex
	path string
}

// Open returns the preference file at path. The file is created on the first write.
func Open(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("prefs path is empty")
	}
	if filepath.Ext(path) == "" {
		path += Ext
	}
	return &File{path: path}, nil
}

// Path is the file location.
func (f *File) Path() string {
	return f.path
}

// GetString returns the value stored under key, or def when the key or the
// file does not exist.
func (f *File) GetString(key, def string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return def, err
	}
	v, ok := values[key]
	if !ok {
		return def, nil
	}
	return v, nil
}

// PutString stores value under key, keeping the other slots.
func (f *File) PutString(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

// Remove deletes key. Removing a missing key is not an error.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *File) read() (map[string]string, error) {
	values := map[string]string{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs %s: %w", f.path, err)
	}
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse prefs %s: %w", f.path, err)
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
