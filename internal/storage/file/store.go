// Package file keeps session values as JSON object in a single file,
// so the session survives process restarts.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const fileMode = 0o600

type Store struct {
	fs   afero.Fs
	path string

	// Guards read-modify-write of the file within the process
	mu sync.Mutex
}

// New creates store at path, creating parent directories if needed.
// fs may be nil, than OS filesystem is used.
func New(fs afero.Fs, path string) (*Store, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("can't create storage directory. Err: %w", err)
	}

	return &Store{fs: fs, path: path}, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", false, err
	}

	value, ok := data[key]
	return value, ok, nil
}

func (s *Store) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	data[key] = value
	return s.save(data)
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := data[key]; !ok {
		return nil
	}

	delete(data, key)
	return s.save(data)
}

// load returns empty map if file not exists yet
func (s *Store) load() (map[string]string, error) {
	data := make(map[string]string)

	raw, err := afero.ReadFile(s.fs, s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return data, nil
	case err != nil:
		return nil, fmt.Errorf("can't read storage file. Err: %w", err)
	}

	if len(raw) == 0 {
		return data, nil
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("storage file %s is corrupted. Err: %w", s.path, err)
	}

	return data, nil
}

// save writes temporary file and renames it over the storage file
func (s *Store) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, fileMode); err != nil {
		return fmt.Errorf("can't write storage file. Err: %w", err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("can't replace storage file. Err: %w", err)
	}

	return nil
}
