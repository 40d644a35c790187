// Package jsonfile persists engine state as JSON files.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DedupFile is the root JSON structure stored on disk.
type DedupFile struct {
	Version   int                  `json:"version"`
	Processed map[string]time.Time `json:"processed"`
}

const dedupVersion = 1

// DedupStore keeps the set of processed item keys in a JSON file.
type DedupStore struct {
	path string
	mu   sync.RWMutex
}

// NewDedupStore creates a new JSON file dedup store at the given path.
func NewDedupStore(path string) *DedupStore {
	return &DedupStore{path: path}
}

// Path returns the backing file path.
func (s *DedupStore) Path() string { return s.path }

// Load returns the persisted keys with the time each was recorded.
// A missing or empty file yields an empty map.
func (s *DedupStore) Load(ctx context.Context) (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	if file.Processed == nil {
		file.Processed = map[string]time.Time{}
	}
	return file.Processed, nil
}

// Save replaces the persisted keys.
func (s *DedupStore) Save(ctx context.Context, keys map[string]time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keys == nil {
		keys = map[string]time.Time{}
	}
	return s.save(DedupFile{Version: dedupVersion, Processed: keys})
}

func (s *DedupStore) load() (DedupFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DedupFile{}, nil
		}
		return DedupFile{}, err
	}

	if len(data) == 0 {
		return DedupFile{}, nil
	}

	var file DedupFile
	if err := json.Unmarshal(data, &file); err != nil {
		return DedupFile{}, fmt.Errorf("decode %s: %w", s.path, err)
	}

	return file, nil
}

// save writes the file atomically via a sibling temp file.
func (s *DedupStore) save(file DedupFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
