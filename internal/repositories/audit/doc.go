// Package audit provides persistence for the append-only audit trail.
//
// Entries are stored in the audit_log table with a store-assigned,
// monotonically increasing id. Listing is newest first by that id, which is
// the insertion order; the recorded timestamp is informational. Data is kept
// as a JSON object in a TEXT column.
//
// The SQLite implementation works over dbx.DBTX, so an entry can be inserted
// in the same transaction as the user mutation it describes:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := users.NewSQLiteRepository(tx).Delete(ctx, id); err != nil {
//	        return err
//	    }
//	    _, err := audit.NewSQLiteRepository(tx).Insert(ctx, &entry)
//	    return err
//	})
package audit
