package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"github.com/josermendez0896/Nocturne-web/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r *SQLiteRepository, limit int) []models.AuditEntry {
	t.Helper()
	var out []models.AuditEntry
	for e, err := range r.Recent(context.Background(), limit) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func insert(t *testing.T, r *SQLiteRepository, typ models.EventType, msg string) int64 {
	t.Helper()
	id, err := r.Insert(context.Background(), &models.AuditEntry{
		Timestamp: time.Now(),
		Type:      typ,
		Message:   msg,
		Success:   true,
		Data:      map[string]string{models.DataUser: "alice"},
	})
	require.NoError(t, err)
	return id
}

func TestInsert_RoundTrip(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))
	ts := time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)

	id, err := r.Insert(context.Background(), &models.AuditEntry{
		Timestamp: ts,
		Type:      models.EventUserRoleChange,
		Message:   "role changed",
		Success:   true,
		Data: map[string]string{
			models.DataAdmin:      "root",
			models.DataTargetUser: "bob",
			models.DataOldRole:    "viewer",
			models.DataNewRole:    "uploader",
		},
	})
	require.NoError(t, err)
	require.Positive(t, id)

	got := collect(t, r, 10)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.True(t, ts.Equal(got[0].Timestamp))
	assert.Equal(t, models.EventUserRoleChange, got[0].Type)
	assert.Equal(t, "role changed", got[0].Message)
	assert.True(t, got[0].Success)
	assert.Equal(t, "uploader", got[0].Data[models.DataNewRole])
	assert.Len(t, got[0].Data, 4)
}

func TestInsert_NilDataStoredAsEmptyObject(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))

	_, err := r.Insert(context.Background(), &models.AuditEntry{
		Timestamp: time.Now(), Type: models.EventLogout, Message: "bye",
	})
	require.NoError(t, err)

	got := collect(t, r, 1)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Data)
	assert.Empty(t, got[0].Data)
	assert.False(t, got[0].Success)
}

func TestRecent_NewestFirstAndLimited(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))
	for _, m := range []string{"m1", "m2", "m3", "m4"} {
		insert(t, r, models.EventLoginSuccess, m)
	}

	got := collect(t, r, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "m4", got[0].Message)
	assert.Equal(t, "m3", got[1].Message)
	assert.Equal(t, "m2", got[2].Message)

	assert.Empty(t, collect(t, r, 0))
	assert.Len(t, collect(t, r, 100), 4)
}

func TestRecent_OrderIsInsertionNotTimestamp(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))
	ctx := context.Background()
	later := time.Now()
	earlier := later.Add(-time.Hour)

	_, err := r.Insert(ctx, &models.AuditEntry{Timestamp: later, Type: models.EventLock, Message: "first"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, &models.AuditEntry{Timestamp: earlier, Type: models.EventUnlock, Message: "second"})
	require.NoError(t, err)

	got := collect(t, r, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Message)
}

func TestRecent_IsLazyAndRestartable(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))
	insert(t, r, models.EventLoginSuccess, "a")

	seq := r.Recent(context.Background(), 10)

	insert(t, r, models.EventLoginSuccess, "b")

	var first []string
	for e, err := range seq {
		require.NoError(t, err)
		first = append(first, e.Message)
	}
	assert.Equal(t, []string{"b", "a"}, first, "query runs when ranged, not when built")

	insert(t, r, models.EventLoginSuccess, "c")

	var second []string
	for e, err := range seq {
		require.NoError(t, err)
		second = append(second, e.Message)
	}
	assert.Equal(t, []string{"c", "b", "a"}, second)
}

func TestRecent_EarlyBreakReleasesConnection(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))
	for range 5 {
		insert(t, r, models.EventLoginSuccess, "x")
	}

	for range r.Recent(context.Background(), 5) {
		break
	}

	// with a single-connection pool this would block if rows were left open
	n, err := r.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestClearAndCount(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))
	ctx := context.Background()
	insert(t, r, models.EventLoginSuccess, "a")
	insert(t, r, models.EventLogout, "b")

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.Clear(ctx))
	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, collect(t, r, 10))

	// ids keep increasing after a clear
	id := insert(t, r, models.EventLogCleanupSuccess, "cleared")
	assert.Greater(t, id, int64(2))
}

func TestInsert_RollsBackWithTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = NewSQLiteRepository(tx).Insert(ctx, &models.AuditEntry{Timestamp: time.Now(), Type: models.EventPanic})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	n, err := NewSQLiteRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDriverErrors_WrappedAsStorageFailure(t *testing.T) {
	ctx := context.Background()
	driverErr := errors.New("database is locked")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewSQLiteRepository(db)

	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(driverErr)
	_, err = r.Insert(ctx, &models.AuditEntry{Timestamp: time.Now(), Type: models.EventLogout})
	require.ErrorIs(t, err, common.ErrStorageFailure)
	require.ErrorIs(t, err, driverErr)

	mock.ExpectQuery(`SELECT id, ts, type, message, success, data FROM audit_log`).WillReturnError(driverErr)
	var errs int
	for _, err := range r.Recent(ctx, 5) {
		require.ErrorIs(t, err, common.ErrStorageFailure)
		errs++
	}
	assert.Equal(t, 1, errs)

	mock.ExpectExec(`DELETE FROM audit_log`).WillReturnError(driverErr)
	require.ErrorIs(t, r.Clear(ctx), common.ErrStorageFailure)

	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(sql.ErrConnDone)
	_, err = r.Count(ctx)
	require.ErrorIs(t, err, common.ErrStorageFailure)

	require.NoError(t, mock.ExpectationsWereMet())
}
