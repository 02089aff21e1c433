package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"time"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/dbx"
	"github.com/josermendez0896/Nocturne-web/internal/models"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.AuditEntry) (int64, error) {
	data := e.Data
	if data == nil {
		data = map[string]string{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("failed to encode audit data: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (ts, type, message, success, data) VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp.UTC().UnixNano(), string(e.Type), e.Message, e.Success, string(raw))
	if err != nil {
		return 0, storageErr("failed to insert audit entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("failed to get audit entry id", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) iter.Seq2[models.AuditEntry, error] {
	return func(yield func(models.AuditEntry, error) bool) {
		if limit <= 0 {
			return
		}

		rows, err := r.db.QueryContext(ctx,
			`SELECT id, ts, type, message, success, data FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
		if err != nil {
			yield(models.AuditEntry{}, storageErr("failed to list audit entries", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e       models.AuditEntry
				ts      int64
				typ     string
				success bool
				raw     string
			)
			if err := rows.Scan(&e.ID, &ts, &typ, &e.Message, &success, &raw); err != nil {
				yield(models.AuditEntry{}, storageErr("failed to scan audit entry", err))
				return
			}
			e.Timestamp = time.Unix(0, ts).UTC()
			e.Type = models.EventType(typ)
			e.Success = success
			e.Data = map[string]string{}
			if raw != "" {
				if err := json.Unmarshal([]byte(raw), &e.Data); err != nil {
					yield(models.AuditEntry{}, fmt.Errorf("failed to decode audit data of entry %d: %w", e.ID, err))
					return
				}
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.AuditEntry{}, storageErr("failed to iterate audit entries", err))
		}
	}
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n); err != nil {
		return 0, storageErr("failed to count audit entries", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audit_log`); err != nil {
		return storageErr("failed to clear audit log", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageFailure, err)
}
