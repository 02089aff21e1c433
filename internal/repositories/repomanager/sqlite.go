// Package repomanager provides the SQLite RepositoryManager, wiring together
// repository constructors and the embedded schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/josermendez0896/Nocturne-web/internal/dbx"
	"github.com/josermendez0896/Nocturne-web/internal/migrations"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/audit"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/users"
)

type SQLiteRepositoryManager struct{}

// NewSQLiteRepositoryManager constructs a SQLite-backed RepositoryManager.
func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

// Audit returns an audit.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Audit(db dbx.DBTX) audit.Repository {
	return audit.NewSQLiteRepository(db)
}

// RunMigrations brings the schema up to date.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrations.Up(ctx, db)
}
