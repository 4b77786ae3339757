package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/regtime/regtime/internal/util"
)

// File keeps every key in a single JSON object of string values on disk,
// the same shape a browser's localStorage has. Each mutation rewrites the
// file atomically.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// DefaultFilePath returns ~/.local/state/regtime/store.json, honoring
// XDG_STATE_HOME.
func DefaultFilePath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "regtime", "store.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".regtime", "store.json")
	}
	return filepath.Join(home, ".local", "state", "regtime", "store.json")
}

// OpenFile loads the store at path, creating its directory if needed. A
// missing file is an empty store; an unreadable one is an error.
func OpenFile(path string) (*File, error) {
	if path == "" {
		path = DefaultFilePath()
	}
	if err := util.EnsureParentDir(path); err != nil {
		return nil, err
	}

	f := &File{path: path, data: make(map[string]string)}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (f *File) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	f.data[key] = string(value)
	if err := f.flushLocked(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.flushLocked()
}

func (f *File) Close() error { return nil }

func (f *File) flushLocked() error {
	out, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := util.AtomicWriteFile(f.path, out, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
