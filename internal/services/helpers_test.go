package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/josermendez0896/Nocturne-web/internal/config"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/repomanager"
	"github.com/josermendez0896/Nocturne-web/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db     *sql.DB
	cfg    *config.Config
	audit  *AuditLog
	dir    *UserDirectory
	access *AccessController
	admin  *AdminConsole
}

// newTestEnv wires the services over a fresh in-memory database. The work
// factor is lowered to keep tests fast.
func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	return newTestEnvWith(t, repomanager.NewSQLiteRepositoryManager(), opts...)
}

func newTestEnvWith(t *testing.T, rm repomanager.RepositoryManager, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Iterations = 10
	for _, o := range opts {
		o(cfg)
	}

	db := testutil.NewDB(t)
	log := logging.NewNop()

	audit := NewAuditLog(db, rm, log)
	dir := NewUserDirectory(db, rm, audit, log, cfg)
	access := NewAccessController(dir, audit, log, cfg)
	admin := NewAdminConsole(access, dir, audit, log, cfg)

	return &testEnv{db: db, cfg: cfg, audit: audit, dir: dir, access: access, admin: admin}
}

// entries returns the whole audit trail, oldest first.
func (e *testEnv) entries(t *testing.T) []models.AuditEntry {
	t.Helper()
	newest, err := e.audit.Collect(context.Background(), 1000)
	require.NoError(t, err)
	out := make([]models.AuditEntry, len(newest))
	for i, en := range newest {
		out[len(newest)-1-i] = en
	}
	return out
}

func (e *testEnv) types(t *testing.T) []models.EventType {
	t.Helper()
	var out []models.EventType
	for _, en := range e.entries(t) {
		out = append(out, en.Type)
	}
	return out
}

func (e *testEnv) last(t *testing.T) models.AuditEntry {
	t.Helper()
	all := e.entries(t)
	require.NotEmpty(t, all)
	return all[len(all)-1]
}

func (e *testEnv) count(t *testing.T) int {
	t.Helper()
	n, err := e.dir.Count(context.Background())
	require.NoError(t, err)
	return n
}

// loginAdmin bootstraps "root" as the first administrator.
func (e *testEnv) loginAdmin(t *testing.T) models.Session {
	t.Helper()
	s, err := e.access.Login(context.Background(), "root", []byte("pw1"))
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, s.Role)
	return s
}

func (e *testEnv) mustUser(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.dir.FindByUsername(context.Background(), name)
	require.NoError(t, err)
	return u
}

type fakeSession struct {
	s  models.Session
	ok bool
}

func (f fakeSession) Current() (models.Session, bool) { return f.s, f.ok }

type fakeView struct {
	mu     sync.Mutex
	users  [][]UserRow
	audits [][]models.AuditEntry
}

func (v *fakeView) ShowUsers(rows []UserRow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.users = append(v.users, rows)
}

func (v *fakeView) ShowAudit(entries []models.AuditEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.audits = append(v.audits, entries)
}

func (v *fakeView) counts() (users, audits int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.users), len(v.audits)
}

func (v *fakeView) lastUsers() []UserRow {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.users) == 0 {
		return nil
	}
	return v.users[len(v.users)-1]
}

func (v *fakeView) lastAudit() []models.AuditEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.audits) == 0 {
		return nil
	}
	return v.audits[len(v.audits)-1]
}
