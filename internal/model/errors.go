package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidName        = errors.New("invalid account name")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountFrozen      = errors.New("account is frozen")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidEmail       = errors.New("invalid email address")

	// File errors
	ErrFileNotFound    = errors.New("file not found")
	ErrLineTooLong     = errors.New("line exceeds maximum input length")
	ErrMalformedRecord = errors.New("malformed account record")
	ErrInvalidVariable = errors.New("invalid account variable")

	// Index errors
	ErrCorruptIndex = errors.New("corrupt account index")
)
