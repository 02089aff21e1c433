package services

import (
	"context"
	"database/sql"
	"iter"
	"maps"
	"sync"
	"time"

	"github.com/josermendez0896/Nocturne-web/internal/dbx"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/repomanager"
)

// AuditListener is notified after an entry has been committed.
type AuditListener func(ctx context.Context, entry models.AuditEntry)

// AuditLog is the append-only recorder of security events.
//
// Recording is best effort: a failed write is reported to the diagnostic
// logger and never to the caller, so auditing cannot block the action it
// describes. Writes that must be atomic with a user mutation go through
// Append inside the caller's transaction, followed by Publish after commit.
type AuditLog struct {
	db  *sql.DB
	rm  repomanager.RepositoryManager
	log logging.Logger
	now func() time.Time

	clockMu sync.Mutex
	last    time.Time

	subMu     sync.Mutex
	listeners map[int]AuditListener
	nextSub   int
}

func NewAuditLog(db *sql.DB, rm repomanager.RepositoryManager, log logging.Logger) *AuditLog {
	return &AuditLog{
		db:        db,
		rm:        rm,
		log:       log.With("component", "audit"),
		now:       time.Now,
		listeners: make(map[int]AuditListener),
	}
}

// stamp returns the current time, never earlier than the previous stamp.
func (a *AuditLog) stamp() time.Time {
	a.clockMu.Lock()
	defer a.clockMu.Unlock()

	t := a.now().UTC()
	if t.Before(a.last) {
		t = a.last
	}
	a.last = t
	return t
}

// NewEntry builds a timestamped entry. data is copied.
func (a *AuditLog) NewEntry(typ models.EventType, message string, success bool, data map[string]string) models.AuditEntry {
	d := make(map[string]string, len(data))
	maps.Copy(d, data)
	return models.AuditEntry{
		Timestamp: a.stamp(),
		Type:      typ,
		Message:   message,
		Success:   success,
		Data:      d,
	}
}

// Record appends one entry and notifies listeners. It never fails from the
// caller's point of view.
func (a *AuditLog) Record(ctx context.Context, typ models.EventType, message string, success bool, data map[string]string) {
	e := a.NewEntry(typ, message, success, data)
	if err := a.Append(ctx, a.db, &e); err != nil {
		a.log.Error(ctx, "failed to record audit entry", "type", typ, "error", err)
		return
	}
	a.Publish(ctx, e)
}

// Append writes e through db, which may be a transaction owned by the
// caller, and sets e.ID. Listeners are not notified; call Publish once the
// transaction has committed.
func (a *AuditLog) Append(ctx context.Context, db dbx.DBTX, e *models.AuditEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = a.stamp()
	}
	id, err := a.rm.Audit(db).Insert(ctx, e)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// Publish notifies every listener of a committed entry, synchronously and in
// no particular order.
func (a *AuditLog) Publish(ctx context.Context, e models.AuditEntry) {
	a.subMu.Lock()
	fns := make([]AuditListener, 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(ctx, e)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (a *AuditLog) Subscribe(fn AuditListener) (cancel func()) {
	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.listeners[id] = fn
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.listeners, id)
			a.subMu.Unlock()
		})
	}
}

// ListRecent returns the limit newest entries, newest first. Nothing is read
// until the sequence is ranged over, and each ranging queries again.
//
// The sequence holds the database connection while it runs: the loop body
// must not write to the store.
func (a *AuditLog) ListRecent(ctx context.Context, limit int) iter.Seq2[models.AuditEntry, error] {
	return a.rm.Audit(a.db).Recent(ctx, limit)
}

// Collect drains ListRecent into a slice.
func (a *AuditLog) Collect(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	out := make([]models.AuditEntry, 0)
	for e, err := range a.ListRecent(ctx, limit) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear deletes every entry and appends LOG_CLEANUP_SUCCESS for actor in
// one transaction. If either step fails nothing is erased.
func (a *AuditLog) Clear(ctx context.Context, actor string) error {
	var entry models.AuditEntry
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := a.rm.Audit(tx).Clear(ctx); err != nil {
			return err
		}
		entry = a.NewEntry(models.EventLogCleanupSuccess, "Audit log erased.", true,
			map[string]string{models.DataUser: actor})
		return a.Append(ctx, tx, &entry)
	})
	if err != nil {
		a.log.Error(ctx, "failed to clear audit log", "error", err)
		return err
	}
	a.Publish(ctx, entry)
	return nil
}
