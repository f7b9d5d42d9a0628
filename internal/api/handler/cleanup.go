package handler

import (
	"net/http"

	"github.com/mcoot/mudaccounts/internal/api/response"
	"github.com/mcoot/mudaccounts/internal/services/accounts"
)

// CleanupHandler handles maintenance endpoints
type CleanupHandler struct {
	accounts *accounts.Service
}

// NewCleanupHandler creates a new cleanup handler
func NewCleanupHandler(accounts *accounts.Service) *CleanupHandler {
	return &CleanupHandler{
		accounts: accounts,
	}
}

// Run handles POST /api/v1/cleanup
func (h *CleanupHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.accounts.Sweep(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CleanupResultFromModel(result))
}

// Health handles GET /api/v1/health
func (h *CleanupHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:   "ok",
		Accounts: len(h.accounts.List()),
	})
}
