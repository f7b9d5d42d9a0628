package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/mudaccounts/internal/dependencies/clock"
	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/services/accountfile"
	"github.com/mcoot/mudaccounts/internal/services/accounts"
	"github.com/mcoot/mudaccounts/internal/services/cleanup"
	"github.com/mcoot/mudaccounts/internal/services/index"
	"github.com/mcoot/mudaccounts/internal/storage"
	"github.com/mcoot/mudaccounts/internal/storage/disk"
	"github.com/mcoot/mudaccounts/internal/storage/memory"
	redisstorage "github.com/mcoot/mudaccounts/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeDisk   = "disk"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	Index        *index.Index
	AccountFiles *accountfile.Store
	Cleanup      *cleanup.Service
	Accounts     *accounts.Service

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "disk" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// DiskConfig holds flat-file settings (required if StorageType is "disk")
	DiskConfig *disk.Config
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RetentionRules drives the cleanup sweep
	// If empty, model.DefaultRetentionRules() is used
	RetentionRules []model.RetentionRule
	// AccountsConfig tunes registration (optional)
	AccountsConfig accounts.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	var closers []io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeDisk:
		if cfg.DiskConfig == nil {
			return nil, errors.New("DiskConfig required when StorageType is disk")
		}
		diskStore, err := disk.New(*cfg.DiskConfig)
		if err != nil {
			return nil, err
		}
		store = diskStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'disk' or 'redis'")
	}

	rules := cfg.RetentionRules
	if len(rules) == 0 {
		rules = model.DefaultRetentionRules()
	}

	app := newWithDependencies(store, clock.New(), rules, cfg.AccountsConfig, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rules []model.RetentionRule,
	accountsCfg accounts.Config,
	logger *slog.Logger,
) *App {
	idx := index.New(store, logger)
	files := accountfile.New(store, idx, logger)
	cleanupService := cleanup.NewService(idx, store, clk, rules, logger)
	accountsService := accounts.New(idx, files, cleanupService, clk, accountsCfg, logger)

	return &App{
		Storage:      store,
		Clock:        clk,
		Index:        idx,
		AccountFiles: files,
		Cleanup:      cleanupService,
		Accounts:     accountsService,
	}
}

// Close releases backend connections. It does not flush the index; call
// Accounts.Close first.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
