package users

import (
	"context"

	"github.com/josermendez0896/Nocturne-web/internal/models"
)

// Repository is the persistence contract for operator records.
//
// Lookups that miss return common.ErrNotFound, a username collision returns
// common.ErrDuplicateUsername, and every other driver failure is wrapped in
// common.ErrStorageFailure.
type Repository interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
	UpdateCredential(ctx context.Context, id string, c Credential) error
	Delete(ctx context.Context, id string) error
}

// Credential is the password material written by UpdateCredential.
type Credential struct {
	PasswordHash []byte
	Salt         []byte
	Iterations   int
	KDF          string
}
