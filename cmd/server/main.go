package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/mudaccounts/internal/api"
	"github.com/mcoot/mudaccounts/internal/config"
	"github.com/mcoot/mudaccounts/internal/factory"
	"github.com/mcoot/mudaccounts/internal/services/accounts"
	"github.com/mcoot/mudaccounts/internal/services/cleanup"
	"github.com/mcoot/mudaccounts/internal/storage/disk"
)

func main() {
	configPath := flag.String("config", os.Getenv("ACCTD_CONFIG"), "Path to YAML config file")
	flag.Parse()

	// Load configuration before logging so the level can be applied
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, _ := cfg.LogLevel()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Build factory config
	factoryCfg := factory.Config{
		Logger:         logger,
		StorageType:    cfg.Storage.Type,
		RetentionRules: cfg.Cleanup.Rules,
		AccountsConfig: accounts.Config{
			BcryptCost:        cfg.Accounts.BcryptCost,
			MinPasswordLength: cfg.Accounts.MinPasswordLength,
			MaxNameLength:     cfg.Accounts.MaxNameLength,
			MaxEmailLength:    cfg.Accounts.MaxEmailLength,
		},
	}
	switch cfg.Storage.Type {
	case config.StorageTypeDisk:
		factoryCfg.DiskConfig = &disk.Config{
			Root:         cfg.Storage.Dir,
			AtomicWrites: cfg.Storage.AtomicWrites,
		}
	case config.StorageTypeRedis:
		factoryCfg.RedisConfig = &cfg.Redis
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	// Build the account index
	if err := app.Accounts.Load(context.Background()); err != nil {
		logger.Error("failed to build account index", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.AdminToken == "" {
		logger.Warn("no admin token configured, admin routes are disabled")
	}

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AccountsService: app.Accounts,
		AdminToken:      cfg.AdminToken,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	// Create server
	server := api.NewServer(mux, api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start the cleanup scheduler
	scheduler := cleanup.NewScheduler(app.Accounts, cfg.Cleanup.Interval, logger)
	schedulerDone := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(schedulerDone)
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
		cancel()
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}
	<-schedulerDone

	// Flush the index before exiting
	if err := app.Accounts.Close(context.Background()); err != nil {
		logger.Error("failed to flush account index", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		_ = app.Close()
		os.Exit(exitCode)
	}
}
