package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileEntry struct {
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// FileStore persists entries as a single JSON document on disk.
// Every write rewrites the file through a temp file and rename.
type FileStore struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]fileEntry
}

// OpenFileStore loads path, creating parent directories as needed.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &FileStore{path: path, now: time.Now, entries: make(map[string]fileEntry)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if e.ExpiresAt != nil && !s.now().Before(*e.ExpiresAt) {
		delete(s.entries, key)
		return "", ErrNotFound
	}
	return e.Value, nil
}

func (s *FileStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := fileEntry{Value: value}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		e.ExpiresAt = &exp
	}
	prev, had := s.entries[key]
	s.entries[key] = e
	if err := s.flush(); err != nil {
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]fileEntry, len(keys))
	for _, k := range keys {
		if e, ok := s.entries[k]; ok {
			removed[k] = e
			delete(s.entries, k)
		}
	}
	if err := s.flush(); err != nil {
		for k, e := range removed {
			s.entries[k] = e
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// flush drops expired entries and writes the rest. Caller holds mu and
// restores its own change when flush fails.
func (s *FileStore) flush() error {
	now := s.now()
	for k, e := range s.entries {
		if e.ExpiresAt != nil && !now.Before(*e.ExpiresAt) {
			delete(s.entries, k)
		}
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
