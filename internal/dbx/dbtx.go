// Package dbx holds the small database abstractions shared by repositories:
// DBTX, satisfied by both *sql.DB and *sql.Tx, and WithTx, which runs a unit
// of work atomically.
package dbx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josermendez0896/Nocturne-web/internal/common"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with it, and commits when fn returns
// nil. Any error from fn, or a panic, rolls the transaction back; panics are
// rethrown. Begin and commit failures are wrapped in common.ErrStorageFailure,
// errors returned by fn are passed through unchanged.
//
// Everything fn does must go through tx: with a single-connection pool, a
// query on db from inside fn would wait for the transaction forever.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := users.Insert(ctx, tx, u); err != nil {
//	        return err
//	    }
//	    return audit.Insert(ctx, tx, entry)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", common.ErrStorageFailure, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("%w: commit: %w", common.ErrStorageFailure, cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}
