package handler

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/mudaccounts/internal/api/request"
	"github.com/mcoot/mudaccounts/internal/api/response"
	"github.com/mcoot/mudaccounts/internal/services/accounts"
)

// AccountHandler handles account-related endpoints
type AccountHandler struct {
	accounts *accounts.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *accounts.Service) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
	}
}

// List handles GET /api/v1/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.AccountListFromEntries(h.accounts.List()))
}

// Register handles POST /api/v1/accounts
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	rec, err := h.accounts.Register(r.Context(), accounts.RegisterParams{
		Name:     req.Name,
		Password: req.Password,
		Email:    req.Email,
		Host:     remoteHost(r),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AccountFromRecord(rec))
}

// Get handles GET /api/v1/accounts/{name}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.accounts.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromRecord(rec))
}

// Login handles POST /api/v1/accounts/{name}/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	result, err := h.accounts.Login(r.Context(), mux.Vars(r)["name"], req.Password, remoteHost(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginResponseFromResult(result))
}

// Delete handles POST /api/v1/accounts/{name}/delete
// The account is only flagged; the next sweep removes it.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.accounts.DeleteSelf(r.Context(), mux.Vars(r)["name"], req.Password); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Purge handles DELETE /api/v1/accounts/{name}
func (h *AccountHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Purge(r.Context(), mux.Vars(r)["name"]); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Protect handles PUT /api/v1/accounts/{name}/protect
func (h *AccountHandler) Protect(w http.ResponseWriter, r *http.Request) {
	var req request.ProtectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	name := mux.Vars(r)["name"]
	if err := h.accounts.SetProtected(r.Context(), name, req.Protected); err != nil {
		WriteError(w, err)
		return
	}

	rec, err := h.accounts.Get(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromRecord(rec))
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
