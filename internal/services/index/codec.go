package index

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/mudaccounts/internal/model"
)

// terminator ends the table in the index file
const terminator = "~"

// formatEntry renders one index line: "<id> <name> <level> <flags> <lastLogin>"
func formatEntry(e model.IndexEntry) string {
	return fmt.Sprintf("%d %s %d %s %d", e.ID, e.Name, e.Level, e.Flags, unixOrZero(e.LastLogin))
}

// parseEntry parses one index line. Only the five-field layout is accepted.
func parseEntry(line string) (model.IndexEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return model.IndexEntry{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return model.IndexEntry{}, fmt.Errorf("id: %w", err)
	}
	level, err := strconv.Atoi(fields[2])
	if err != nil {
		return model.IndexEntry{}, fmt.Errorf("level: %w", err)
	}
	flags, err := model.ParseFlags(fields[3])
	if err != nil {
		return model.IndexEntry{}, fmt.Errorf("flags: %w", err)
	}
	last, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return model.IndexEntry{}, fmt.Errorf("last login: %w", err)
	}

	return model.IndexEntry{
		ID:        id,
		Name:      model.NormalizeName(fields[1]),
		Level:     level,
		Flags:     model.IndexFlags(flags),
		LastLogin: fromUnix(last),
	}, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}
