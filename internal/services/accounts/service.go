// Package accounts is the entry point the command layer uses for account
// lifecycle operations. It serialises every index mutation and file rewrite.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/mudaccounts/internal/dependencies/clock"
	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/services/accountfile"
	"github.com/mcoot/mudaccounts/internal/services/cleanup"
	"github.com/mcoot/mudaccounts/internal/services/index"
	"github.com/mcoot/mudaccounts/internal/storage"
)

// Config holds configuration for the accounts service
type Config struct {
	BcryptCost        int
	MinPasswordLength int
	MaxNameLength     int
	MaxEmailLength    int
}

// maxEmailLength is the longest address that still fits on one record line
const maxEmailLength = accountfile.MaxInputLength - len("Mail: ")

// DefaultConfig returns default accounts configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost:        bcrypt.DefaultCost,
		MinPasswordLength: 4,
		MaxNameLength:     20,
		MaxEmailLength:    100,
	}
}

// RegisterParams describes a new account
type RegisterParams struct {
	Name     string
	Password string
	Email    string
	Host     string
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Account *model.AccountRecord
	// FailedAttempts counts bad passwords since the previous successful login
	FailedAttempts int
}

// Service coordinates the index, the file store and cleanup
type Service struct {
	mu sync.Mutex

	index   *index.Index
	files   *accountfile.Store
	cleanup *cleanup.Service
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// New creates a new accounts service
func New(
	index *index.Index,
	files *accountfile.Store,
	cleanup *cleanup.Service,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Service {
	defaults := DefaultConfig()
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	if cfg.MinPasswordLength == 0 {
		cfg.MinPasswordLength = defaults.MinPasswordLength
	}
	if cfg.MaxNameLength == 0 {
		cfg.MaxNameLength = defaults.MaxNameLength
	}
	if cfg.MaxEmailLength == 0 {
		cfg.MaxEmailLength = defaults.MaxEmailLength
	}
	cfg.MaxEmailLength = min(cfg.MaxEmailLength, maxEmailLength)
	return &Service{
		index:   index,
		files:   files,
		cleanup: cleanup,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Load builds the index from storage
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Build(ctx)
}

// Register creates a new account. The first account on an empty index is
// made an administrator.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*model.AccountRecord, error) {
	if err := storage.ValidateName(params.Name); err != nil {
		return nil, err
	}
	if len(params.Name) > s.cfg.MaxNameLength {
		return nil, fmt.Errorf("%w: longer than %d characters", model.ErrInvalidName, s.cfg.MaxNameLength)
	}
	if len(params.Password) < s.cfg.MinPasswordLength {
		return nil, model.ErrWeakPassword
	}
	if err := s.validateEmail(params.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index.FindByName(params.Name); exists {
		return nil, model.ErrAccountExists
	}

	level := model.LevelMortal
	if s.index.Len() == 0 {
		level = model.LevelAdmin
	}

	pos := s.index.CreateEntry(params.Name)
	entry, _ := s.index.Entry(pos)

	rec := &model.AccountRecord{
		Name:         entry.Name,
		PasswordHash: string(hash),
		Email:        params.Email,
		Host:         params.Host,
		ID:           entry.ID,
		Level:        level,
		LastLogon:    s.clock.Now(),
	}
	if err := s.files.Save(ctx, rec); err != nil {
		// The record may already be on disk if only the index write failed
		s.index.RemoveAt(pos)
		if rmErr := s.files.Remove(ctx, rec.Name); rmErr != nil {
			s.logger.Error("couldn't remove record of failed registration",
				slog.String("account", rec.Name),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("account registered",
		slog.String("account", rec.Name),
		slog.Int64("id", rec.ID),
		slog.Int("level", rec.Level),
	)
	return rec, nil
}

// validateEmail accepts an empty address or a single-line one within the
// configured length
func (s *Service) validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > s.cfg.MaxEmailLength {
		return fmt.Errorf("%w: longer than %d characters", model.ErrInvalidEmail, s.cfg.MaxEmailLength)
	}
	if strings.ContainsFunc(email, unicode.IsControl) || strings.ContainsFunc(email, unicode.IsSpace) {
		return fmt.Errorf("%w: contains whitespace or control characters", model.ErrInvalidEmail)
	}
	if strings.HasPrefix(email, ":") || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: %q", model.ErrInvalidEmail, email)
	}
	return nil
}

// Login checks a password. A wrong password is counted against the account.
func (s *Service) Login(ctx context.Context, name, password, host string) (*LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _, err := s.files.Load(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		rec.BadPasswords++
		if err := s.files.Save(ctx, rec); err != nil {
			return nil, err
		}
		s.logger.Warn("bad password",
			slog.String("account", rec.Name),
			slog.String("host", host),
			slog.Int("failures", rec.BadPasswords),
		)
		return nil, model.ErrInvalidCredentials
	}

	if rec.Flags.Has(model.AccountFrozen) {
		return nil, model.ErrAccountFrozen
	}

	result := &LoginResult{FailedAttempts: rec.BadPasswords}
	rec.BadPasswords = 0
	rec.LastLogon = s.clock.Now()
	if host != "" {
		rec.Host = host
	}
	if err := s.files.Save(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("account login",
		slog.String("account", rec.Name),
		slog.String("host", rec.Host),
	)
	result.Account = rec
	return result, nil
}

// Get loads the named account
func (s *Service) Get(ctx context.Context, name string) (*model.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _, err := s.files.Load(ctx, name)
	return rec, err
}

// List returns every live index entry
func (s *Service) List() []model.IndexEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.index.Entries()
	result := make([]model.IndexEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Tombstoned() {
			result = append(result, e)
		}
	}
	return result
}

// MarkDeleted flags an account for removal on the next sweep
func (s *Service) MarkDeleted(ctx context.Context, name string) error {
	return s.modify(ctx, name, func(rec *model.AccountRecord) {
		rec.Flags |= model.AccountDeleted
	})
}

// DeleteSelf marks an account deleted after checking its password
func (s *Service) DeleteSelf(ctx context.Context, name, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _, err := s.files.Load(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.ErrInvalidCredentials
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return model.ErrInvalidCredentials
	}

	rec.Flags |= model.AccountDeleted
	if err := s.files.Save(ctx, rec); err != nil {
		return err
	}
	s.logger.Info("account marked for deletion", slog.String("account", rec.Name))
	return nil
}

// SetProtected sets or clears an account's exemption from cleanup
func (s *Service) SetProtected(ctx context.Context, name string, protected bool) error {
	return s.modify(ctx, name, func(rec *model.AccountRecord) {
		if protected {
			rec.Flags |= model.AccountNoDelete
		} else {
			rec.Flags &^= model.AccountNoDelete
		}
	})
}

func (s *Service) modify(ctx context.Context, name string, fn func(rec *model.AccountRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _, err := s.files.Load(ctx, name)
	if err != nil {
		return err
	}
	fn(rec)
	return s.files.Save(ctx, rec)
}

// Purge deletes the named account and all of its files immediately
func (s *Service) Purge(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanup.DeleteByName(ctx, name)
}

// Sweep runs a cleanup pass while holding the lock for its whole duration
func (s *Service) Sweep(ctx context.Context) (*cleanup.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanup.Sweep(ctx)
}

// Close flushes the index
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close(ctx)
}
