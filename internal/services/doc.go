// Package services implements the access-control core of Nocturne.
//
// Components, leaf first:
//
//   - AuditLog records security events and notifies subscribers.
//   - UserDirectory owns operator records. Every mutation commits together
//     with its audit entry in one transaction.
//   - AccessController turns credentials into a Session and tracks the
//     login, lock and logout state.
//   - AdminConsole gates administrative operations on the current session's
//     role and keeps an attached View in sync with the audit log.
//
// None of these types are global. The host constructs one of each and wires
// them together explicitly.
package services
