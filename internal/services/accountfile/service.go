// Package accountfile reads and writes the tagged ASCII account record files
// and keeps the account index in step with them.
package accountfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/services/index"
	"github.com/mcoot/mudaccounts/internal/storage"
)

// Store loads and saves account records
type Store struct {
	storage storage.Storage
	index   *index.Index
	logger  *slog.Logger
}

// New creates a Store over the given storage and index
func New(storage storage.Storage, index *index.Index, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		index:   index,
		logger:  logger,
	}
}

// Load reads the named account's record. It also returns the account's
// position in the index.
func (s *Store) Load(ctx context.Context, name string) (*model.AccountRecord, int, error) {
	pos, ok := s.index.FindByName(name)
	if !ok {
		return nil, -1, model.ErrAccountNotFound
	}
	entry, _ := s.index.Entry(pos)

	path, err := storage.Filename(storage.KindAccount, entry.Name)
	if err != nil {
		return nil, -1, err
	}

	data, err := s.storage.ReadFile(ctx, storage.KindAccount, entry.Name)
	if err != nil {
		s.logger.Error("couldn't open account file",
			slog.String("op", "load"),
			slog.String("account", entry.Name),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, -1, fmt.Errorf("load account %s: %w", entry.Name, err)
	}

	rec, err := s.decode(entry.Name, data)
	if err != nil {
		s.logger.Error("couldn't parse account file",
			slog.String("op", "load"),
			slog.String("account", entry.Name),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, -1, fmt.Errorf("load account %s: %w", entry.Name, err)
	}

	return rec, pos, nil
}

// Save rewrites the record's file, then copies the cached fields into the
// index. The index is only written when one of them changed.
func (s *Store) Save(ctx context.Context, rec *model.AccountRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", model.ErrInvalidName)
	}
	rec.Name = model.NormalizeName(rec.Name)

	path, err := storage.Filename(storage.KindAccount, rec.Name)
	if err != nil {
		return err
	}

	data, err := encode(rec)
	if err != nil {
		return fmt.Errorf("save account %s: %w", rec.Name, err)
	}

	if err := s.storage.WriteFile(ctx, storage.KindAccount, rec.Name, data); err != nil {
		s.logger.Error("couldn't write account file",
			slog.String("op", "save"),
			slog.String("account", rec.Name),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("save account %s: %w", rec.Name, err)
	}

	pos, ok := s.index.FindByName(rec.Name)
	if !ok {
		s.logger.Warn("saved account has no index entry", slog.String("account", rec.Name))
		return nil
	}

	changed := s.index.Update(pos, func(e *model.IndexEntry) {
		e.LastLogin = rec.LastLogon
		e.Level = rec.Level
		e.Flags = rec.IndexFlags()
	})
	if !changed {
		return nil
	}
	return s.index.Save(ctx)
}

// Remove deletes the named account's record file. A missing file is not an
// error.
func (s *Store) Remove(ctx context.Context, name string) error {
	return s.storage.RemoveFile(ctx, storage.KindAccount, name)
}

// decode parses a whole record. Unknown tags and unparseable values are
// logged and skipped; structural damage fails the load.
func (s *Store) decode(name string, data []byte) (*model.AccountRecord, error) {
	rec := &model.AccountRecord{}
	r := newLineReader(data)

	for {
		line, ok, err := r.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if line == "" {
			continue
		}

		tag, value := tagArgument(line)
		handler, known := tagHandlers[tag]
		if !known {
			s.logger.Warn("unknown tag in account file",
				slog.String("account", name),
				slog.String("tag", tag),
				slog.Int("line", r.lineNo),
			)
			continue
		}

		if err := handler(rec, value, r); err != nil {
			if errors.Is(err, model.ErrMalformedRecord) || errors.Is(err, model.ErrLineTooLong) {
				return nil, err
			}
			s.logger.Warn("invalid value in account file",
				slog.String("account", name),
				slog.String("tag", tag),
				slog.Int("line", r.lineNo),
				slog.String("error", err.Error()),
			)
		}
	}

	if rec.Name == "" {
		rec.Name = name
	}
	rec.Name = model.NormalizeName(rec.Name)
	return rec, nil
}
