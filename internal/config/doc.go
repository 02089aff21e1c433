// Package config loads runtime configuration for the nocturne binary.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables prefixed with NOCTURNE_.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-d string     path of the SQLite database file (or ":memory:")
//	-i duration   idle time before the session is locked, 0 disables
//	-l string     log level: debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "60s" or
// integer nanoseconds. Absent keys keep the value from the previous layer:
//
//	{
//	  "database_path": "data/nocturne.db",
//	  "kdf": "pbkdf2-sha512",
//	  "iterations": 200000,
//	  "audit_view_limit": 50,
//	  "audit_failed_logins": true,
//	  "idle_timeout": "60s",
//	  "log_level": "info"
//	}
//
// # Environment
//
//	NOCTURNE_DB_PATH, NOCTURNE_KDF, NOCTURNE_ITERATIONS,
//	NOCTURNE_AUDIT_VIEW_LIMIT, NOCTURNE_AUDIT_FAILED_LOGINS,
//	NOCTURNE_IDLE_TIMEOUT, NOCTURNE_LOG_LEVEL
package config
