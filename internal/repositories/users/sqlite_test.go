package users

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"github.com/josermendez0896/Nocturne-web/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(name string, role models.Role) *models.User {
	return &models.User{
		Username:     name,
		PasswordHash: []byte("hash-" + name),
		Salt:         []byte("salt-" + name),
		Iterations:   1000,
		KDF:          "pbkdf2-sha512",
		Role:         role,
	}
}

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	return NewSQLiteRepository(testutil.NewDB(t))
}

func TestCreate_AssignsIDAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.Create(ctx, newUser("alice", models.RoleAdmin))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, []byte("hash-alice"), byName.PasswordHash)
	assert.Equal(t, []byte("salt-alice"), byName.Salt)
	assert.Equal(t, 1000, byName.Iterations)
	assert.Equal(t, "pbkdf2-sha512", byName.KDF)
	assert.Equal(t, models.RoleAdmin, byName.Role)
	assert.True(t, created.CreatedAt.Equal(byName.CreatedAt))

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestCreate_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Create(ctx, newUser("alice", models.RoleViewer))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("alice", models.RoleAdmin))
	require.ErrorIs(t, err, common.ErrDuplicateUsername)
	require.NotErrorIs(t, err, common.ErrStorageFailure)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreate_UsernameIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Create(ctx, newUser("alice", models.RoleViewer))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newUser("Alice", models.RoleViewer))
	require.NoError(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.GetByUsername(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing-id")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestList_OrderedAndEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := repo.Create(ctx, newUser(name, models.RoleViewer))
		require.NoError(t, err)
	}

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)
	assert.Equal(t, "carol", list[2].Username)
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.Create(ctx, newUser("bob", models.RoleViewer))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateRole(ctx, u.ID, models.RoleUploader))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUploader, got.Role)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	err = repo.UpdateRole(ctx, "missing", models.RoleAdmin)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateRole_RejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.Create(ctx, newUser("bob", models.RoleViewer))
	require.NoError(t, err)

	err = repo.UpdateRole(ctx, u.ID, models.Role("root"))
	require.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestUpdateCredential(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.Create(ctx, newUser("bob", models.RoleViewer))
	require.NoError(t, err)

	c := Credential{PasswordHash: []byte("new-hash"), Salt: []byte("new-salt"), Iterations: 5, KDF: "argon2id"}
	require.NoError(t, repo.UpdateCredential(ctx, u.ID, c))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, c.PasswordHash, got.PasswordHash)
	assert.Equal(t, c.Salt, got.Salt)
	assert.Equal(t, 5, got.Iterations)
	assert.Equal(t, "argon2id", got.KDF)
	assert.Equal(t, models.RoleViewer, got.Role)

	err = repo.UpdateCredential(ctx, "missing", c)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.Create(ctx, newUser("bob", models.RoleViewer))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.GetByID(ctx, u.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	err = repo.Delete(ctx, u.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	// the name is free again
	_, err = repo.Create(ctx, newUser("bob", models.RoleAdmin))
	require.NoError(t, err)
}

func TestDriverErrors_WrappedAsStorageFailure(t *testing.T) {
	ctx := context.Background()
	driverErr := errors.New("disk I/O error")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLiteRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).WillReturnError(driverErr)
	_, err = repo.Count(ctx)
	require.ErrorIs(t, err, common.ErrStorageFailure)
	require.ErrorIs(t, err, driverErr)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(driverErr)
	_, err = repo.Create(ctx, newUser("alice", models.RoleViewer))
	require.ErrorIs(t, err, common.ErrStorageFailure)
	require.NotErrorIs(t, err, common.ErrDuplicateUsername)

	mock.ExpectQuery(`SELECT .* FROM users WHERE username = \?`).WillReturnError(driverErr)
	_, err = repo.GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, common.ErrStorageFailure)
	require.NotErrorIs(t, err, common.ErrNotFound)

	mock.ExpectQuery(`SELECT .* FROM users ORDER BY`).WillReturnError(driverErr)
	_, err = repo.List(ctx)
	require.ErrorIs(t, err, common.ErrStorageFailure)

	mock.ExpectExec(`DELETE FROM users`).WillReturnError(driverErr)
	err = repo.Delete(ctx, "id")
	require.ErrorIs(t, err, common.ErrStorageFailure)

	mock.ExpectExec(`UPDATE users SET role`).WillReturnResult(sqlmock.NewErrorResult(driverErr))
	err = repo.UpdateRole(ctx, "id", models.RoleAdmin)
	require.ErrorIs(t, err, common.ErrStorageFailure)

	require.NoError(t, mock.ExpectationsWereMet())
}
