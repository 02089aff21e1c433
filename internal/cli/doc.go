// Package cli is the interactive Nocturne terminal host.
//
// It wires configuration, storage and the access-control services into a
// read-eval-print loop. An operator logs in (the first login on an empty
// database creates the administrator), and administrators manage operators
// and the audit trail. The package holds no security rules of its own: every
// command is gated again inside the services package.
//
// Typical flow: NewApp builds the services, App.Run starts the idle watcher
// and blocks in the REPL until the operator exits.
package cli
