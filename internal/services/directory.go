package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/config"
	"github.com/josermendez0896/Nocturne-web/internal/cryptox"
	"github.com/josermendez0896/Nocturne-web/internal/dbx"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/repomanager"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/users"
)

// PasswordMode tells a user's own password change from an administrator
// resetting someone else's.
type PasswordMode string

const (
	PasswordSelf   PasswordMode = "self"
	PasswordForced PasswordMode = "forced"
)

// UserDirectory owns operator records.
//
// Each mutation runs its read-check-write sequence under the directory mutex
// and inside one transaction that also appends the success audit entry, so a
// user change is never committed without its trail. Failures are recorded as
// *_FAIL entries after the rollback.
type UserDirectory struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	audit *AuditLog
	log   logging.Logger

	kdf        cryptox.KDF
	iterations int

	mu sync.Mutex
}

func NewUserDirectory(db *sql.DB, rm repomanager.RepositoryManager, audit *AuditLog, log logging.Logger, cfg *config.Config) *UserDirectory {
	return &UserDirectory{
		db:         db,
		rm:         rm,
		audit:      audit,
		log:        log.With("component", "directory"),
		kdf:        cryptox.KDF(cfg.KDF),
		iterations: cfg.Iterations,
	}
}

func (d *UserDirectory) Count(ctx context.Context) (int, error) {
	return d.rm.Users(d.db).Count(ctx)
}

// FindByUsername returns common.ErrNotFound when no record matches.
func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return d.rm.Users(d.db).GetByUsername(ctx, username)
}

func (d *UserDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	return d.rm.Users(d.db).GetByID(ctx, id)
}

// List returns every record, oldest first.
func (d *UserDirectory) List(ctx context.Context) ([]models.User, error) {
	return d.rm.Users(d.db).List(ctx)
}

// VerifyPassword reports whether password matches the credential stored in u.
// A failing primitive is an error, never a mismatch.
func (d *UserDirectory) VerifyPassword(u *models.User, password []byte) (bool, error) {
	candidate, err := cryptox.DeriveKey(password, u.Salt, u.Iterations, cryptox.KDF(u.KDF))
	if err != nil {
		return false, err
	}
	defer common.WipeByteArray(candidate)
	return cryptox.Verify(candidate, u.PasswordHash), nil
}

func (d *UserDirectory) newCredential(password []byte) (users.Credential, error) {
	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return users.Credential{}, err
	}
	hash, err := cryptox.DeriveKey(password, salt, d.iterations, d.kdf)
	if err != nil {
		return users.Credential{}, err
	}
	return users.Credential{PasswordHash: hash, Salt: salt, Iterations: d.iterations, KDF: string(d.kdf)}, nil
}

// Create adds an operator on behalf of actor.
func (d *UserDirectory) Create(ctx context.Context, actor, username string, password []byte, role models.Role) (*models.User, error) {
	if username == "" || len(password) == 0 || !role.Valid() {
		return nil, fmt.Errorf("%w: username, password and a valid role are required", common.ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		created *models.User
		entry   models.AuditEntry
	)
	c, err := d.newCredential(password)
	if err == nil {
		err = dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			u, err := d.rm.Users(tx).Create(ctx, &models.User{
				Username:     username,
				PasswordHash: c.PasswordHash,
				Salt:         c.Salt,
				Iterations:   c.Iterations,
				KDF:          c.KDF,
				Role:         role,
			})
			if err != nil {
				return err
			}
			entry = d.audit.NewEntry(models.EventUserCreateSuccess,
				fmt.Sprintf("New user %s created with role %s.", username, role), true,
				map[string]string{models.DataAdmin: actor, models.DataNewUser: username, models.DataRole: string(role)})
			if err := d.audit.Append(ctx, tx, &entry); err != nil {
				return err
			}
			created = u
			return nil
		})
	}
	if err != nil {
		msg := "Error creating user."
		if errors.Is(err, common.ErrDuplicateUsername) {
			msg = "Error: username already exists."
		}
		d.audit.Record(ctx, models.EventUserCreateFail, msg, false, map[string]string{
			models.DataAdmin:     actor,
			models.DataAttempted: username,
			models.DataReason:    failureReason(err),
		})
		return nil, err
	}

	d.audit.Publish(ctx, entry)
	return created, nil
}

// Bootstrap resolves a login for a username that was not found.
//
// On an empty directory it creates username as the first admin, records
// REGISTER_SUCCESS and returns created=true. Otherwise it looks username up
// again inside the same transaction, since a concurrent bootstrap may have
// just created it; the caller must then verify the password against the
// returned record. When the name is still absent the error is
// common.ErrUnknownUser.
func (d *UserDirectory) Bootstrap(ctx context.Context, username string, password []byte) (u *models.User, created bool, err error) {
	if username == "" || len(password) == 0 {
		return nil, false, fmt.Errorf("%w: username and password are required", common.ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var entry models.AuditEntry
	c, err := d.newCredential(password)
	if err == nil {
		err = dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := d.rm.Users(tx)
			n, err := repo.Count(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				u, err = repo.GetByUsername(ctx, username)
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("%w: %s", common.ErrUnknownUser, username)
				}
				return err
			}

			u, err = repo.Create(ctx, &models.User{
				Username:     username,
				PasswordHash: c.PasswordHash,
				Salt:         c.Salt,
				Iterations:   c.Iterations,
				KDF:          c.KDF,
				Role:         models.RoleAdmin,
			})
			if err != nil {
				return err
			}
			entry = d.audit.NewEntry(models.EventRegisterSuccess,
				fmt.Sprintf("Initial admin user %s created.", username), true,
				map[string]string{models.DataUser: username, models.DataRole: string(models.RoleAdmin)})
			if err := d.audit.Append(ctx, tx, &entry); err != nil {
				return err
			}
			created = true
			return nil
		})
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		d.log.Info(ctx, "bootstrap administrator created", "user", username)
		d.audit.Publish(ctx, entry)
	}
	return u, created, nil
}

// UpdateRole sets the role of the record id. An actor cannot change their
// own role.
func (d *UserDirectory) UpdateRole(ctx context.Context, actor, id string, role models.Role) error {
	if id == "" || !role.Valid() {
		return fmt.Errorf("%w: user id and a valid role are required", common.ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		target string
		entry  models.AuditEntry
	)
	err := dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := d.rm.Users(tx)
		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		target = u.Username
		if u.Username == actor {
			return common.ErrSelfRoleChangeForbidden
		}
		if err := repo.UpdateRole(ctx, id, role); err != nil {
			return err
		}
		entry = d.audit.NewEntry(models.EventUserRoleChange,
			fmt.Sprintf("User %s role changed to %s.", u.Username, role), true,
			map[string]string{
				models.DataAdmin:      actor,
				models.DataTargetUser: u.Username,
				models.DataOldRole:    string(u.Role),
				models.DataNewRole:    string(role),
			})
		return d.audit.Append(ctx, tx, &entry)
	})
	if err != nil {
		d.audit.Record(ctx, models.EventUserRoleChangeFail,
			fmt.Sprintf("Attempt to change role of user %s to %s failed.", targetName(target, id), role), false,
			map[string]string{
				models.DataAdmin:      actor,
				models.DataTargetUser: targetName(target, id),
				models.DataNewRole:    string(role),
				models.DataReason:     failureReason(err),
			})
		return err
	}

	d.audit.Publish(ctx, entry)
	return nil
}

// Delete removes the record id. An actor cannot delete themselves.
func (d *UserDirectory) Delete(ctx context.Context, actor, id string) error {
	if id == "" {
		return fmt.Errorf("%w: user id is required", common.ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		target string
		entry  models.AuditEntry
	)
	err := dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := d.rm.Users(tx)
		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		target = u.Username
		if u.Username == actor {
			return common.ErrSelfDeleteForbidden
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		entry = d.audit.NewEntry(models.EventUserDeleteSuccess,
			fmt.Sprintf("User %s deleted.", u.Username), true,
			map[string]string{models.DataAdmin: actor, models.DataDeleted: u.Username})
		return d.audit.Append(ctx, tx, &entry)
	})
	if err != nil {
		d.audit.Record(ctx, models.EventUserDeleteFail,
			fmt.Sprintf("Attempt to delete user %s failed.", targetName(target, id)), false,
			map[string]string{
				models.DataAdmin:      actor,
				models.DataTargetUser: targetName(target, id),
				models.DataReason:     failureReason(err),
			})
		return err
	}

	d.audit.Publish(ctx, entry)
	return nil
}

// SetCredential replaces the password of username with a fresh salt and hash.
func (d *UserDirectory) SetCredential(ctx context.Context, actor, username string, password []byte, mode PasswordMode) error {
	if username == "" || len(password) == 0 {
		return fmt.Errorf("%w: username and password are required", common.ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	actorKey := models.DataUser
	action := "Password change"
	if mode == PasswordForced {
		actorKey = models.DataAdmin
		action = "Forced password reset"
	}

	var entry models.AuditEntry
	c, err := d.newCredential(password)
	if err == nil {
		err = dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := d.rm.Users(tx)
			u, err := repo.GetByUsername(ctx, username)
			if err != nil {
				return err
			}
			if err := repo.UpdateCredential(ctx, u.ID, c); err != nil {
				return err
			}
			entry = d.audit.NewEntry(models.EventPasswordChangeSuccess,
				fmt.Sprintf("%s success for user %s.", action, username), true,
				map[string]string{actorKey: actor, models.DataTargetUser: username, models.DataMode: string(mode)})
			return d.audit.Append(ctx, tx, &entry)
		})
	}
	if err != nil {
		msg := fmt.Sprintf("%s for user %s failed.", action, username)
		if errors.Is(err, common.ErrNotFound) {
			msg = fmt.Sprintf("Attempt to reset password for non-existent user %s.", username)
		}
		d.audit.Record(ctx, models.EventPasswordChangeFail, msg, false, map[string]string{
			actorKey:              actor,
			models.DataTargetUser: username,
			models.DataMode:       string(mode),
			models.DataReason:     failureReason(err),
		})
		return err
	}

	d.audit.Publish(ctx, entry)
	return nil
}

func targetName(username, id string) string {
	if username != "" {
		return username
	}
	return id
}

// failureReason is the short machine-readable cause stored in audit data.
func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	case errors.Is(err, common.ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, common.ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, common.ErrSelfRoleChangeForbidden), errors.Is(err, common.ErrSelfDeleteForbidden):
		return "self_protection"
	case errors.Is(err, common.ErrCryptoUnavailable):
		return "crypto"
	case errors.Is(err, common.ErrStorageFailure):
		return "storage"
	default:
		return "internal"
	}
}
