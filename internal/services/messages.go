package services

import (
	"errors"

	"github.com/josermendez0896/Nocturne-web/internal/common"
)

// UserMessage turns an error from this package into text for the operator.
// A nil error yields "".
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrInvalidInput):
		return "Invalid input: required fields are empty or malformed."
	case errors.Is(err, common.ErrUnknownUser), errors.Is(err, common.ErrInvalidCredential):
		return "Access denied: unknown operator or wrong password."
	case errors.Is(err, common.ErrDuplicateUsername):
		return "Error: username already exists."
	case errors.Is(err, common.ErrNotFound):
		return "Error: operator not found."
	case errors.Is(err, common.ErrSelfRoleChangeForbidden):
		return "You cannot change your own role."
	case errors.Is(err, common.ErrSelfDeleteForbidden):
		return "You cannot delete your own account."
	case errors.Is(err, common.ErrPermissionDenied):
		return "Permission denied: administrator role required."
	case errors.Is(err, common.ErrNotAuthenticated):
		return "Not logged in."
	case errors.Is(err, common.ErrAlreadyLoggedIn):
		return "Already logged in. Log out first."
	case errors.Is(err, common.ErrSessionLocked):
		return "Session is locked. Unlock it or log out first."
	case errors.Is(err, common.ErrNotConfirmed):
		return "Operation cancelled."
	case errors.Is(err, common.ErrCryptoUnavailable):
		return "Cryptographic error: the operation could not be completed."
	case errors.Is(err, common.ErrStorageFailure):
		return "Storage error: the operation was not saved."
	}
	return "Unexpected error."
}
