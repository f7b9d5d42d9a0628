package handler

import (
	"net/http"

	"github.com/mcoot/mudaccounts/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeInvalidName        = apierr.CodeInvalidName
	CodeWeakPassword       = apierr.CodeWeakPassword
	CodeInvalidEmail       = apierr.CodeInvalidEmail
	CodeUnauthorized       = apierr.CodeUnauthorized
	CodeForbidden          = apierr.CodeForbidden
	CodeAccountNotFound    = apierr.CodeAccountNotFound
	CodeAccountExists      = apierr.CodeAccountExists
	CodeAccountFrozen      = apierr.CodeAccountFrozen
	CodeInvalidCredentials = apierr.CodeInvalidCredentials
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
