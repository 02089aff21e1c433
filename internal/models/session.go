package models

import "time"

// Session is the identity of the operator currently using the application.
// It is created on successful login and never persisted; its role is fixed
// at login time.
type Session struct {
	UserID    string
	Username  string
	Role      Role
	StartedAt time.Time
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
