package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		files: make(map[string][]byte),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ReadFile(ctx context.Context, kind storage.FileKind, name string) ([]byte, error) {
	path, err := storage.Filename(kind, name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	if !ok {
		return nil, model.ErrFileNotFound
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (s *Storage) WriteFile(ctx context.Context, kind storage.FileKind, name string, data []byte) error {
	path, err := storage.Filename(kind, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.files[path] = stored
	return nil
}

func (s *Storage) RemoveFile(ctx context.Context, kind storage.FileKind, name string) error {
	path, err := storage.Filename(kind, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// Paths returns the stored file paths in sorted order (useful for testing)
func (s *Storage) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
