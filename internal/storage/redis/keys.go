package redis

import (
	"fmt"

	"github.com/mcoot/mudaccounts/internal/storage"
)

// fileKey returns the Redis key holding the bytes of one account file.
// The relative file path is reused so keys mirror the on-disk layout.
func fileKey(prefix string, kind storage.FileKind, name string) (string, error) {
	rel, err := storage.Filename(kind, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:file:%s", prefix, rel), nil
}
