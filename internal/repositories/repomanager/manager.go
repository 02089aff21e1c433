package repomanager

import (
	"context"
	"database/sql"

	"github.com/josermendez0896/Nocturne-web/internal/dbx"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/audit"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code path
// serves both plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Audit(db dbx.DBTX) audit.Repository
}
