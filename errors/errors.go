// Package errors provides error handling for hevymcp.
//
// This package re-exports github.com/cockroachdb/errors, so every error
// created here carries a stack trace and can hold user-facing hints:
//
//	// Wrap with context
//	if err := store.Load(); err != nil {
//	    return errors.Wrap(err, "failed to load exercise catalog")
//	}
//
//	// Add hints the MCP client can show to the user
//	return errors.WithHint(err, "run `hevymcp catalog update` first")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors shared by the catalog, search and Hevy client packages.
// Wrap them with errors.Wrap() to add context while keeping errors.Is() working.
var (
	// ErrNotFound indicates the requested exercise template or file does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates caller input failed validation (blank query, bad limit, bad id)
	ErrInvalidRequest = New("invalid request")

	// ErrUnauthorized indicates the Hevy API rejected the API key
	ErrUnauthorized = New("unauthorized")

	// ErrRateLimited indicates the Hevy API answered 429
	ErrRateLimited = New("rate limited")

	// ErrServiceUnavailable indicates the Hevy API or a local data source is not reachable
	ErrServiceUnavailable = New("service unavailable")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsUnauthorizedError checks if an error is or wraps ErrUnauthorized
func IsUnauthorizedError(err error) bool {
	return err != nil && Is(err, ErrUnauthorized)
}

// IsRateLimitedError checks if an error is or wraps ErrRateLimited
func IsRateLimitedError(err error) bool {
	return err != nil && Is(err, ErrRateLimited)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
