// Package local implements statestore.Store against a plain file on disk,
// the default backend when no object-store backend is configured.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/statestore"
)

// Store persists state as JSON in a single file. Optimistic concurrency is
// implemented with an mtime+size fingerprint rather than a real lock, since
// the local filesystem offers no compare-and-swap primitive.
type Store struct {
	Path string
}

// New returns a Store writing to path.
func New(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) fingerprint() (string, error) {
	info, err := os.Stat(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

// Load reads and decodes the state file. A missing file is reported as
// statestore.ErrNotFound, not a hard error.
func (s *Store) Load() (statestore.State, string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return statestore.Empty(""), "", statestore.ErrNotFound
	}
	if err != nil {
		return statestore.State{}, "", &macrotine.IOError{Op: fmt.Sprintf("reading %s", s.Path), Err: err}
	}

	var st statestore.State
	if err := json.Unmarshal(data, &st); err != nil {
		return statestore.State{}, "", &macrotine.IOError{Op: fmt.Sprintf("decoding %s", s.Path), Err: err}
	}

	version, err := s.fingerprint()
	if err != nil {
		return statestore.State{}, "", &macrotine.IOError{Op: fmt.Sprintf("stat %s", s.Path), Err: err}
	}
	return st, version, nil
}

// Save atomically rewrites the state file, refusing to clobber a concurrent
// writer's change when expectedVersion no longer matches what's on disk.
func (s *Store) Save(st statestore.State, expectedVersion string) (string, error) {
	current, err := s.fingerprint()
	if err != nil {
		return "", &macrotine.IOError{Op: fmt.Sprintf("stat %s", s.Path), Err: err}
	}
	if current != expectedVersion {
		return "", &macrotine.ConflictError{Reason: fmt.Sprintf("statefile %s changed since last load", s.Path)}
	}

	data, err := json.Marshal(st)
	if err != nil {
		return "", &macrotine.IOError{Op: "encoding state", Err: err}
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".macrotine-state-*")
	if err != nil {
		return "", &macrotine.IOError{Op: fmt.Sprintf("creating temp file in %s", dir), Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", &macrotine.IOError{Op: "writing state", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &macrotine.IOError{Op: "closing temp state file", Err: err}
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return "", &macrotine.IOError{Op: fmt.Sprintf("renaming into %s", s.Path), Err: err}
	}

	return s.fingerprint()
}
