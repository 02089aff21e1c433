// Package models defines the records handled by the access-control core:
// operators (User), their roles, audit entries and live sessions.
package models

import (
	"fmt"
	"time"

	"github.com/josermendez0896/Nocturne-web/internal/common"
)

// Role is the permission level of an operator.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleUploader Role = "uploader"
	RoleAdmin    Role = "admin"
)

// Roles lists every role, lowest privilege first.
var Roles = []Role{RoleViewer, RoleUploader, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleUploader, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", common.ErrInvalidInput, s)
	}
	return r, nil
}

// User is a persisted operator record.
type User struct {
	// ID is assigned by the store on creation and never changes.
	ID string

	// Username is unique and case-sensitive. There is no rename.
	Username string

	// PasswordHash is the derived key; Salt, Iterations and KDF are the
	// parameters it was derived with.
	PasswordHash []byte
	Salt         []byte
	Iterations   int
	KDF          string

	Role Role

	CreatedAt time.Time
	UpdatedAt time.Time
}
