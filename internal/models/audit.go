package models

import (
	"strings"
	"time"
)

// EventType tags an audit entry with a fixed category.
type EventType string

const (
	EventRegisterSuccess       EventType = "REGISTER_SUCCESS"
	EventLoginSuccess          EventType = "LOGIN_SUCCESS"
	EventLoginFail             EventType = "LOGIN_FAIL"
	EventLogout                EventType = "LOGOUT"
	EventUserCreateSuccess     EventType = "USER_CREATE_SUCCESS"
	EventUserCreateFail        EventType = "USER_CREATE_FAIL"
	EventUserRoleChange        EventType = "USER_ROLE_CHANGE"
	EventUserRoleChangeFail    EventType = "USER_ROLE_CHANGE_FAIL"
	EventUserDeleteSuccess     EventType = "USER_DELETE_SUCCESS"
	EventUserDeleteFail        EventType = "USER_DELETE_FAIL"
	EventPasswordChangeSuccess EventType = "PASSWORD_CHANGE_SUCCESS"
	EventPasswordChangeFail    EventType = "PASSWORD_CHANGE_FAIL"
	EventLogCleanupSuccess     EventType = "LOG_CLEANUP_SUCCESS"
	EventPanic                 EventType = "PANIC"
	EventLock                  EventType = "LOCK"
	EventUnlock                EventType = "UNLOCK"
)

// AffectsUsers reports whether an event of this type follows a change to the
// user directory, so that views listing operators should reload.
func (t EventType) AffectsUsers() bool {
	s := string(t)
	return strings.HasPrefix(s, "USER_") || strings.HasPrefix(s, "REGISTER_")
}

// AuditEntry is one append-only record of a security-relevant event.
type AuditEntry struct {
	// ID is the store-assigned insertion sequence number.
	ID int64

	Timestamp time.Time
	Type      EventType
	Message   string
	Success   bool

	// Data holds forensic context such as the acting and target operators.
	Data map[string]string
}

// Well-known keys of AuditEntry.Data.
const (
	DataUser       = "user"
	DataAdmin      = "admin"
	DataTargetUser = "targetUser"
	DataNewUser    = "newUser"
	DataDeleted    = "deletedUser"
	DataAttempted  = "attemptedUser"
	DataRole       = "role"
	DataOldRole    = "oldRole"
	DataNewRole    = "newRole"
	DataReason     = "reason"
	DataMode       = "mode"
)
