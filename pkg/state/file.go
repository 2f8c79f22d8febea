package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

// FileStore keeps the cursor in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the cursor. A missing file is an empty state.
func (f *FileStore) Load(_ context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, errors.Wrap(err, errors.ErrorTypeState, "failed to read state file").
			WithDetail("path", f.path)
	}

	var s State
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, errors.Wrap(err, errors.ErrorTypeState, "failed to parse state file").
			WithDetail("path", f.path)
	}
	return s, nil
}

// Save writes the cursor, creating parent directories.
func (f *FileStore) Save(_ context.Context, s State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeState, "failed to create state directory").
			WithDetail("path", dir)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeState, "failed to encode state")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // state is not secret
		return errors.Wrap(err, errors.ErrorTypeState, "failed to write state file").
			WithDetail("path", tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeState, "failed to replace state file").
			WithDetail("path", f.path)
	}
	return nil
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }
