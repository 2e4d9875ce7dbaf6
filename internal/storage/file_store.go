package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"xoso/internal/models"

	"github.com/google/logger"
)

// FileName is the name of the results document inside the data directory.
const FileName = "results.json"

// FileStore keeps the results document as one JSON file. Writes replace the
// file wholesale; there is no merge and no version check.
type FileStore struct {
	mu   sync.Mutex
	dir  string
	path string
}

// NewFileStore creates a store rooted at dir. Nothing touches the disk until
// the first Read or Write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:  dir,
		path: filepath.Join(dir, FileName),
	}
}

// Path returns the location of the results file.
func (s *FileStore) Path() string {
	return s.path
}

// ensureFile creates the data directory and an empty document if missing.
// Callers must hold s.mu.
func (s *FileStore) ensureFile() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat results file: %w", err)
	}
	logger.Infof("Creating empty results file at %s", s.path)
	return s.writeLocked(models.EmptyResults())
}

func (s *FileStore) writeLocked(results models.Results) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}

// Read returns the stored document, creating an empty one on first access.
// Tiers missing from the file come back as nil slices; callers normalize.
func (s *FileStore) Read() (models.Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(); err != nil {
		return models.Results{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return models.Results{}, fmt.Errorf("read results file: %w", err)
	}
	var results models.Results
	if err := json.Unmarshal(data, &results); err != nil {
		return models.Results{}, fmt.Errorf("decode results file: %w", err)
	}
	return results, nil
}

// Write overwrites the stored document with results.
func (s *FileStore) Write(results models.Results) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(); err != nil {
		return err
	}
	return s.writeLocked(results)
}

// Reset overwrites the stored document with an empty one.
func (s *FileStore) Reset() error {
	return s.Write(models.EmptyResults())
}
