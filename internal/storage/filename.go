package storage

import (
	"fmt"
	"path"

	"github.com/mcoot/mudaccounts/internal/model"
)

// FileKind identifies a category of account-owned file
type FileKind string

const (
	KindIndex   FileKind = "index"
	KindAccount FileKind = "account"
	KindObjects FileKind = "objects"
	KindAliases FileKind = "aliases"
	KindText    FileKind = "text"
)

// IndexFileName is the fixed name of the account index file
const IndexFileName = "index"

var kindSuffix = map[FileKind]string{
	KindAccount: "acct",
	KindObjects: "objs",
	KindAliases: "alias",
	KindText:    "text",
}

// AccountKinds lists every per-account file kind. Deleting an account
// removes one file of each.
func AccountKinds() []FileKind {
	return []FileKind{KindAccount, KindObjects, KindAliases, KindText}
}

// ValidateName checks that a name can be mapped to a filename
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", model.ErrInvalidName)
	}
	for _, c := range model.NormalizeName(name) {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return fmt.Errorf("%w: %q", model.ErrInvalidName, name)
		}
	}
	return nil
}

// Filename derives the relative path of a file. Account files are bucketed
// into directories by the first letter of the lower-cased name, e.g.
// "A-E/alice.acct".
func Filename(kind FileKind, name string) (string, error) {
	if kind == KindIndex {
		return IndexFileName, nil
	}

	suffix, ok := kindSuffix[kind]
	if !ok {
		return "", fmt.Errorf("unknown file kind %q", kind)
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}

	lower := model.NormalizeName(name)
	return path.Join(bucket(lower[0]), lower+"."+suffix), nil
}

func bucket(c byte) string {
	switch {
	case c >= 'a' && c <= 'e':
		return "A-E"
	case c >= 'f' && c <= 'j':
		return "F-J"
	case c >= 'k' && c <= 'o':
		return "K-O"
	case c >= 'p' && c <= 't':
		return "P-T"
	case c >= 'u' && c <= 'z':
		return "U-Z"
	default:
		return "ZZZ"
	}
}
