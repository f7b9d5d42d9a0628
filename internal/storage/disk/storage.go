package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/storage"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// Storage keeps each account file as a plain file under the root directory
type Storage struct {
	cfg Config
}

// New creates a flat-file storage rooted at cfg.Root, creating it if needed
func New(cfg Config) (*Storage, error) {
	if cfg.Root == "" {
		return nil, errors.New("disk storage root is required")
	}
	if err := os.MkdirAll(cfg.Root, dirPerm); err != nil {
		return nil, fmt.Errorf("create accounts dir %s: %w", cfg.Root, err)
	}
	return &Storage{cfg: cfg}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Root returns the accounts directory
func (s *Storage) Root() string {
	return s.cfg.Root
}

func (s *Storage) path(kind storage.FileKind, name string) (string, error) {
	rel, err := storage.Filename(kind, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.Root, filepath.FromSlash(rel)), nil
}

func (s *Storage) ReadFile(ctx context.Context, kind storage.FileKind, name string) ([]byte, error) {
	p, err := s.path(kind, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrFileNotFound, p)
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

func (s *Storage) WriteFile(ctx context.Context, kind storage.FileKind, name string, data []byte) error {
	p, err := s.path(kind, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return fmt.Errorf("create dir for %s: %w", p, err)
	}

	if !s.cfg.AtomicWrites {
		if err := os.WriteFile(p, data, filePerm); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
		return nil
	}
	return writeAtomic(p, data)
}

// writeAtomic writes to path+".tmp", syncs it and renames it into place
func writeAtomic(p string, data []byte) error {
	tmp := p + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("replace %s: %w", p, err)
	}
	return nil
}

func (s *Storage) RemoveFile(ctx context.Context, kind storage.FileKind, name string) error {
	p, err := s.path(kind, name)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}
