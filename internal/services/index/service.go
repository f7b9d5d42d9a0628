// Package index maintains the in-memory account index and its on-disk
// mirror.
//
// An Index is not safe for concurrent use. Callers serialise access and must
// not mutate the index while a cleanup sweep is iterating over it.
package index

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/storage"
)

// Index is the ordered table of account index entries
type Index struct {
	storage storage.Storage
	logger  *slog.Logger

	entries  []model.IndexEntry
	topID    int64
	dirty    bool
	firstRun bool
}

// New creates an empty Index backed by the given storage
func New(storage storage.Storage, logger *slog.Logger) *Index {
	return &Index{
		storage: storage,
		logger:  logger,
	}
}

// Build replaces the table with the contents of the index file. A missing
// file means a fresh installation and leaves the table empty.
func (x *Index) Build(ctx context.Context) error {
	x.entries = nil
	x.topID = 0
	x.dirty = false
	x.firstRun = false

	data, err := x.storage.ReadFile(ctx, storage.KindIndex, "")
	if err != nil {
		if errors.Is(err, model.ErrFileNotFound) {
			x.firstRun = true
			x.logger.Info("no account index file, first new account will be admin")
			return nil
		}
		x.logger.Error("could not read account index",
			slog.String("op", "build"),
			slog.String("error", err.Error()),
		)
		return err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == terminator {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseEntry(line)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", model.ErrCorruptIndex, lineNo, err)
		}
		if _, exists := x.FindByName(entry.Name); exists {
			x.logger.Warn("duplicate account in index, keeping first",
				slog.String("account", entry.Name),
				slog.Int("line", lineNo),
			)
			continue
		}

		x.entries = append(x.entries, entry)
		x.topID = max(x.topID, entry.ID)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrCorruptIndex, err)
	}

	x.logger.Info("account index loaded", slog.Int("accounts", len(x.entries)))
	return nil
}

// FirstRun reports whether the last Build found no index file
func (x *Index) FirstRun() bool {
	return x.firstRun
}

// Len returns the number of entries in the table
func (x *Index) Len() int {
	return len(x.entries)
}

// TopID returns the highest account ID allocated so far
func (x *Index) TopID() int64 {
	return x.topID
}

// Dirty reports whether the table has changes not yet saved
func (x *Index) Dirty() bool {
	return x.dirty
}

// Entry returns a copy of the entry at pos
func (x *Index) Entry(pos int) (model.IndexEntry, bool) {
	if pos < 0 || pos >= len(x.entries) {
		return model.IndexEntry{}, false
	}
	return x.entries[pos], true
}

// Entries returns a copy of the whole table
func (x *Index) Entries() []model.IndexEntry {
	result := make([]model.IndexEntry, len(x.entries))
	copy(result, x.entries)
	return result
}

// FindByName returns the position of the named account. The match ignores case.
func (x *Index) FindByName(name string) (int, bool) {
	if name == "" {
		return -1, false
	}
	for i := range x.entries {
		if strings.EqualFold(x.entries[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

// IDForName returns the ID of the named account
func (x *Index) IDForName(name string) (int64, bool) {
	pos, ok := x.FindByName(name)
	if !ok {
		return -1, false
	}
	return x.entries[pos].ID, true
}

// NameForID returns the name of the account with the given ID
func (x *Index) NameForID(id int64) (string, bool) {
	for i := range x.entries {
		if x.entries[i].ID == id && x.entries[i].Name != "" {
			return x.entries[i].Name, true
		}
	}
	return "", false
}

// CreateEntry registers name in the table and returns its position. An
// existing entry for the name is reused in place. The entry always starts
// out reset with a freshly allocated ID.
func (x *Index) CreateEntry(name string) int {
	pos, ok := x.FindByName(name)
	if !ok {
		x.entries = append(x.entries, model.IndexEntry{})
		pos = len(x.entries) - 1
	}

	x.topID++
	x.entries[pos] = model.IndexEntry{
		ID:   x.topID,
		Name: model.NormalizeName(name),
	}
	x.dirty = true
	return pos
}

// Update applies fn to the entry at pos and reports whether it changed
func (x *Index) Update(pos int, fn func(e *model.IndexEntry)) bool {
	if pos < 0 || pos >= len(x.entries) {
		return false
	}
	before := x.entries[pos]
	fn(&x.entries[pos])
	after := x.entries[pos]

	changed := before.ID != after.ID ||
		before.Name != after.Name ||
		before.Level != after.Level ||
		before.Flags != after.Flags ||
		!before.LastLogin.Equal(after.LastLogin)
	if changed {
		x.dirty = true
	}
	return changed
}

// Tombstone clears the name at pos. The slot stays until RemoveAt compacts it.
func (x *Index) Tombstone(pos int) {
	if pos < 0 || pos >= len(x.entries) {
		return
	}
	x.entries[pos].Name = ""
	x.dirty = true
}

// RemoveAt deletes the entry at pos and shifts later entries down. An
// out-of-range pos is ignored.
func (x *Index) RemoveAt(pos int) {
	if pos < 0 || pos >= len(x.entries) {
		return
	}
	x.entries = append(x.entries[:pos], x.entries[pos+1:]...)
	x.dirty = true
}

// Save overwrites the index file with every named entry followed by the
// terminator line.
func (x *Index) Save(ctx context.Context) error {
	var buf bytes.Buffer
	for _, e := range x.entries {
		if e.Name == "" {
			continue
		}
		buf.WriteString(formatEntry(e))
		buf.WriteByte('\n')
	}
	buf.WriteString(terminator + "\n")

	if err := x.storage.WriteFile(ctx, storage.KindIndex, "", buf.Bytes()); err != nil {
		x.logger.Error("could not write account index",
			slog.String("op", "save"),
			slog.String("error", err.Error()),
		)
		return err
	}
	x.dirty = false
	return nil
}

// SaveIfDirty saves the index only when it has unsaved changes
func (x *Index) SaveIfDirty(ctx context.Context) error {
	if !x.dirty {
		return nil
	}
	return x.Save(ctx)
}

// Close flushes pending changes and empties the table
func (x *Index) Close(ctx context.Context) error {
	err := x.SaveIfDirty(ctx)
	x.entries = nil
	return err
}
