package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/dbx"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const userColumns = `id, username, password_hash, salt, iterations, kdf, role, created_at, updated_at`

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, storageErr("failed to count users", err)
	}
	return n, nil
}

// Create inserts user, assigning a fresh ID and timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.Salt, u.Iterations, u.KDF, string(u.Role),
		now.UnixNano(), now.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrDuplicateUsername, u.Username)
		}
		return nil, storageErr("failed to insert user", err)
	}
	return &u, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user id %s", common.ErrNotFound, id)
		}
		return nil, storageErr("failed to get user by id", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, username)
		}
		return nil, storageErr("failed to get user by username", err)
	}
	return u, nil
}

// List returns all users ordered by creation time.
func (r *SQLiteRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, username`)
	if err != nil {
		return nil, storageErr("failed to list users", err)
	}
	defer rows.Close()

	result := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storageErr("failed to scan user row", err)
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to iterate user rows", err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC().UnixNano(), id)
	if err != nil {
		return storageErr("failed to update role", err)
	}
	return expectOneRow(res, id)
}

func (r *SQLiteRepository) UpdateCredential(ctx context.Context, id string, c Credential) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, salt = ?, iterations = ?, kdf = ?, updated_at = ? WHERE id = ?`,
		c.PasswordHash, c.Salt, c.Iterations, c.KDF, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return storageErr("failed to update credential", err)
	}
	return expectOneRow(res, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return storageErr("failed to delete user", err)
	}
	return expectOneRow(res, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u                models.User
		role             string
		created, updated int64
	)
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.Iterations, &u.KDF, &role, &created, &updated)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.CreatedAt = time.Unix(0, created).UTC()
	u.UpdatedAt = time.Unix(0, updated).UTC()
	return &u, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("failed to get rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user id %s", common.ErrNotFound, id)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageFailure, err)
}

// isUniqueViolation recognizes a UNIQUE constraint failure from the driver.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE")
		}
	}
	return false
}
