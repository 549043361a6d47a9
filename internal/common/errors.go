// Package common defines shared constants and sentinel errors used across
// client and server layers of possync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrOwnerMismatch is returned when a row belongs to a different tenant
	// than the authenticated session.
	ErrOwnerMismatch = errors.New("owner mismatch")

	// ErrUnknownTable is returned for table names outside the synced set.
	ErrUnknownTable = errors.New("unknown table")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
