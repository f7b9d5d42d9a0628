// Package cleanup purges soft-deleted and idle accounts from the index and
// the account file store.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/mudaccounts/internal/dependencies/clock"
	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/services/index"
	"github.com/mcoot/mudaccounts/internal/storage"
)

// Result summarises one sweep
type Result struct {
	Scanned int
	Deleted []string
}

// Service runs retention sweeps and explicit purges
type Service struct {
	index   *index.Index
	storage storage.Storage
	clock   clock.Clock
	rules   []model.RetentionRule
	logger  *slog.Logger
}

// NewService creates a cleanup service. Rules are consulted in the order given.
func NewService(
	index *index.Index,
	storage storage.Storage,
	clock clock.Clock,
	rules []model.RetentionRule,
	logger *slog.Logger,
) *Service {
	return &Service{
		index:   index,
		storage: storage,
		clock:   clock,
		rules:   rules,
		logger:  logger,
	}
}

// Rules returns the retention rules in effect
func (s *Service) Rules() []model.RetentionRule {
	result := make([]model.RetentionRule, len(s.rules))
	copy(result, s.rules)
	return result
}

// Sweep makes one pass over the index, purging every account that is
// flagged deleted or has been idle longer than its retention rule allows.
func (s *Service) Sweep(ctx context.Context) (*Result, error) {
	result := &Result{Deleted: []string{}}
	now := s.clock.Now()

	for i := 0; i < s.index.Len(); {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entry, _ := s.index.Entry(i)
		result.Scanned++
		if !s.expired(entry, now) {
			i++
			continue
		}

		// Delete compacts the table, so the next entry is now at i
		if err := s.Delete(ctx, i); err != nil {
			return result, err
		}
		result.Deleted = append(result.Deleted, entry.Name)
	}

	if len(result.Deleted) > 0 {
		s.logger.Info("cleanup sweep complete",
			slog.Int("scanned", result.Scanned),
			slog.Int("deleted", len(result.Deleted)),
		)
	}
	return result, nil
}

func (s *Service) expired(entry model.IndexEntry, now time.Time) bool {
	if entry.Tombstoned() || entry.Flags.Has(model.IndexNoDelete) {
		return false
	}
	if entry.Flags.Has(model.IndexDeleted) {
		return true
	}

	idle := now.Sub(entry.LastLogin)
	for _, rule := range s.rules {
		if entry.Level <= rule.Level && idle > rule.IdleLimit() {
			return true
		}
	}
	return false
}

// Delete purges the account at pos: every per-account file is removed, then
// the entry is tombstoned, compacted away and the index saved. Out-of-range
// positions and tombstones are ignored.
func (s *Service) Delete(ctx context.Context, pos int) error {
	entry, ok := s.index.Entry(pos)
	if !ok || entry.Tombstoned() {
		return nil
	}

	for _, kind := range storage.AccountKinds() {
		if err := s.storage.RemoveFile(ctx, kind, entry.Name); err != nil {
			s.logger.Error("couldn't remove account file",
				slog.String("account", entry.Name),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("account purged",
		slog.String("account", entry.Name),
		slog.Int("level", entry.Level),
		slog.Time("last_login", entry.LastLogin),
	)

	s.index.Tombstone(pos)
	s.index.RemoveAt(pos)
	if err := s.index.Save(ctx); err != nil {
		return fmt.Errorf("purge %s: %w", entry.Name, err)
	}
	return nil
}

// DeleteByName purges the named account
func (s *Service) DeleteByName(ctx context.Context, name string) error {
	pos, ok := s.index.FindByName(name)
	if !ok {
		return model.ErrAccountNotFound
	}
	return s.Delete(ctx, pos)
}
