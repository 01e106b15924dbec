package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store reads and replaces the snapshot file at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store for the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file path.
func (st *Store) Path() string {
	return st.path
}

// Load returns the saved snapshot, or an empty one if the file does not exist yet.
func (st *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(st.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", st.path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", st.path, err)
	}
	return s, nil
}

// Save replaces the file with s. The data is written to a temp file in the
// same directory and renamed into place, so a failed save leaves the
// previous file untouched.
func (st *Store) Save(s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(st.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("snapshot: chmod temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), st.path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}
