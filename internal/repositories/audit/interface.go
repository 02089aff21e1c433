package audit

import (
	"context"
	"iter"

	"github.com/josermendez0896/Nocturne-web/internal/models"
)

type Repository interface {
	// Insert appends e and returns the id assigned to it.
	Insert(ctx context.Context, e *models.AuditEntry) (int64, error)

	// Recent yields at most limit entries, newest first. The query runs each
	// time the sequence is ranged over.
	Recent(ctx context.Context, limit int) iter.Seq2[models.AuditEntry, error]

	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
