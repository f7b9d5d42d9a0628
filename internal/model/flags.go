package model

import (
	"fmt"
	"strconv"
	"strings"
)

// IndexFlags are the flag bits cached in the account index
type IndexFlags uint32

const (
	IndexDeleted IndexFlags = 1 << iota
	IndexNoDelete
	IndexNoWizlist
)

// Has reports whether all bits in f are set
func (x IndexFlags) Has(f IndexFlags) bool {
	return x&f == f
}

// String renders the flags in their ASCII form
func (x IndexFlags) String() string {
	return FormatFlags(uint32(x))
}

// AccountFlags are the flag bits persisted in an account record
type AccountFlags uint32

const (
	AccountDeleted AccountFlags = 1 << iota
	AccountNoDelete
	AccountCryo
	AccountFrozen
	AccountNoWizlist
)

// Has reports whether all bits in f are set
func (x AccountFlags) Has(f AccountFlags) bool {
	return x&f == f
}

// String renders the flags in their ASCII form
func (x AccountFlags) String() string {
	return FormatFlags(uint32(x))
}

// FormatFlags renders a bit-set as letters: bit 0 is 'a', bit 26 is 'A'.
// The empty set renders as "0".
func FormatFlags(bits uint32) string {
	if bits == 0 {
		return "0"
	}
	var sb strings.Builder
	for i := 0; i < 32; i++ {
		if bits&(1<<i) == 0 {
			continue
		}
		if i < 26 {
			sb.WriteByte(byte('a' + i))
		} else {
			sb.WriteByte(byte('A' + i - 26))
		}
	}
	return sb.String()
}

// ParseFlags is the inverse of FormatFlags. A purely numeric string is read
// as the raw bit value.
func ParseFlags(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("empty flag string")
	}
	if isDigits(s) {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("flag value %q: %w", s, err)
		}
		return uint32(v), nil
	}

	var bits uint32
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
			bits |= 1 << (c - 'a')
		case c >= 'A' && c <= 'F':
			bits |= 1 << (26 + c - 'A')
		default:
			return 0, fmt.Errorf("invalid flag character %q in %q", c, s)
		}
	}
	return bits, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
