package storage

import "context"

// Storage defines the interface for account file persistence.
// Every file is addressed by its kind and the owning account name, and is
// always read and written whole.
type Storage interface {
	// ReadFile returns the file contents, or model.ErrFileNotFound
	ReadFile(ctx context.Context, kind FileKind, name string) ([]byte, error)

	// WriteFile replaces the file contents entirely
	WriteFile(ctx context.Context, kind FileKind, name string, data []byte) error

	// RemoveFile deletes the file. Removing a missing file is not an error.
	RemoveFile(ctx context.Context, kind FileKind, name string) error
}
