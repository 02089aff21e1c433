// Package common defines the error taxonomy and small helpers shared by the
// Nocturne access-control core. Callers should match errors with errors.Is;
// concrete failures are wrapped around these sentinels.
package common

import "errors"

var (
	// Validation errors (rejected before touching storage, never audited).
	ErrInvalidInput = errors.New("invalid input")

	// Lookup errors.
	ErrUnknownUser = errors.New("unknown user")
	ErrNotFound    = errors.New("not found")

	// Credential errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrCryptoUnavailable = errors.New("cryptographic subsystem unavailable")

	// Directory constraint errors.
	ErrDuplicateUsername       = errors.New("username already exists")
	ErrSelfRoleChangeForbidden = errors.New("cannot change own role")
	ErrSelfDeleteForbidden     = errors.New("cannot delete own account")

	// Session / permission errors.
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionLocked    = errors.New("session locked")
	ErrAlreadyLoggedIn  = errors.New("already logged in")
	ErrNotConfirmed     = errors.New("operation not confirmed")

	// Persistence errors (transaction/commit failures from the store).
	ErrStorageFailure = errors.New("storage failure")
)
