// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/josermendez0896/Nocturne-web/internal/migrations"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// NewDB returns a migrated in-memory SQLite database closed at test cleanup.
// The pool is pinned to one connection: every connection to ":memory:" would
// otherwise see its own empty database.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}
