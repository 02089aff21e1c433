// Package users provides persistence for operator records.
//
// The SQLite implementation works over a dbx.DBTX, so the same repository
// code runs either directly on *sql.DB or inside a transaction that also
// writes the matching audit entry. Usernames are protected by a UNIQUE index;
// the driver's constraint error is translated to common.ErrDuplicateUsername.
//
//	repo := users.NewSQLiteRepository(tx)
//	u, err := repo.Create(ctx, &models.User{Username: "alice", ...})
//	if errors.Is(err, common.ErrDuplicateUsername) { ... }
package users
