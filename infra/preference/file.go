package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps slots in a small JSON object on disk. Writes go to a
// temporary file that is renamed over the original.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore backed by path. The file is created on
// the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	slots := map[string]string{}
	if len(data) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return slots, nil
}

// Load returns the value stored under key.
func (s *FileStore) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := slots[key]
	return v, ok, nil
}

// Save writes key=value, keeping other slots in the file intact.
func (s *FileStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots, err := s.read()
	if err != nil {
		return err
	}
	slots[key] = value
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Close is a no-op; the file is not held open.
func (s *FileStore) Close() error { return nil }
