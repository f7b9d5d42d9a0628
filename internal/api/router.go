package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/mudaccounts/internal/api/handler"
	"github.com/mcoot/mudaccounts/internal/api/middleware"
	"github.com/mcoot/mudaccounts/internal/services/accounts"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AccountsService *accounts.Service
	// AdminToken guards the purge, protect and cleanup routes.
	// If empty, those routes are refused.
	AdminToken string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.AccountsService)
	cleanupHandler := handler.NewCleanupHandler(cfg.AccountsService)

	// Create middleware
	adminMiddleware := middleware.AdminToken(cfg.AdminToken)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", cleanupHandler.Health).Methods(http.MethodGet)

	// Account routes (password-checked where they act on an account)
	api.HandleFunc("/accounts", accountHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/accounts", accountHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{name}", accountHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{name}/login", accountHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{name}/delete", accountHandler.Delete).Methods(http.MethodPost)

	// Admin routes
	admin := api.NewRoute().Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/accounts/{name}", accountHandler.Purge).Methods(http.MethodDelete)
	admin.HandleFunc("/accounts/{name}/protect", accountHandler.Protect).Methods(http.MethodPut)
	admin.HandleFunc("/cleanup", cleanupHandler.Run).Methods(http.MethodPost)

	return r
}
