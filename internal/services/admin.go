package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/config"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
	"github.com/josermendez0896/Nocturne-web/internal/models"
)

// SessionProvider exposes the current session. AccessController implements it.
type SessionProvider interface {
	Current() (models.Session, bool)
}

// View is an attached admin screen kept in sync by AdminConsole.
type View interface {
	ShowUsers(rows []UserRow)
	ShowAudit(entries []models.AuditEntry)
}

// UserRow is a user as listed to an administrator. The Can* flags are false
// on the administrator's own row.
type UserRow struct {
	ID        string
	Username  string
	Role      models.Role
	CreatedAt time.Time

	CanChangeRole bool
	CanDelete     bool
}

// PasswordChange is a request to AdminConsole.ChangePassword.
//
// PasswordSelf uses NewPassword and Confirmation for the caller's own
// account. PasswordForced resets Username to NewPassword and needs Confirmed.
type PasswordChange struct {
	Mode         PasswordMode
	Username     string
	NewPassword  []byte
	Confirmation []byte
	Confirmed    bool
}

// AdminConsole runs administrative operations for the current session.
// Every call first checks that the session exists, is unlocked and carries
// the admin role; a denied call returns common.ErrPermissionDenied, changes
// nothing and is not audited.
type AdminConsole struct {
	sessions  SessionProvider
	dir       *UserDirectory
	audit     *AuditLog
	log       logging.Logger
	viewLimit int

	viewMu  sync.Mutex
	view    View
	unsubFn func()
}

func NewAdminConsole(sessions SessionProvider, dir *UserDirectory, audit *AuditLog, log logging.Logger, cfg *config.Config) *AdminConsole {
	return &AdminConsole{
		sessions:  sessions,
		dir:       dir,
		audit:     audit,
		log:       log.With("component", "admin"),
		viewLimit: cfg.AuditViewLimit,
	}
}

func (c *AdminConsole) requireAdmin() (models.Session, error) {
	s, ok := c.sessions.Current()
	if !ok || !s.IsAdmin() {
		return models.Session{}, common.ErrPermissionDenied
	}
	return s, nil
}

func (c *AdminConsole) ListUsers(ctx context.Context) ([]UserRow, error) {
	s, err := c.requireAdmin()
	if err != nil {
		return nil, err
	}
	return c.rows(ctx, s)
}

func (c *AdminConsole) rows(ctx context.Context, s models.Session) ([]UserRow, error) {
	list, err := c.dir.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]UserRow, 0, len(list))
	for _, u := range list {
		self := u.Username == s.Username
		rows = append(rows, UserRow{
			ID:            u.ID,
			Username:      u.Username,
			Role:          u.Role,
			CreatedAt:     u.CreatedAt,
			CanChangeRole: !self,
			CanDelete:     !self,
		})
	}
	return rows, nil
}

// CreateUser adds an operator. Surrounding whitespace is trimmed from the
// username.
func (c *AdminConsole) CreateUser(ctx context.Context, username string, password []byte, role models.Role) (*models.User, error) {
	s, err := c.requireAdmin()
	if err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrInvalidInput, role)
	}
	return c.dir.Create(ctx, s.Username, username, password, role)
}

// ChangeRole sets the role of user id. Without confirmation nothing changes,
// the attached view is reset to the stored list and common.ErrNotConfirmed
// is returned.
func (c *AdminConsole) ChangeRole(ctx context.Context, id string, role models.Role, confirmed bool) error {
	s, err := c.requireAdmin()
	if err != nil {
		return err
	}
	if id == "" || !role.Valid() {
		return fmt.Errorf("%w: user id and a valid role are required", common.ErrInvalidInput)
	}
	if !confirmed {
		c.refresh(ctx, true)
		return common.ErrNotConfirmed
	}
	if err := c.dir.UpdateRole(ctx, s.Username, id, role); err != nil {
		c.refresh(ctx, true)
		return err
	}
	return nil
}

// DeleteUser removes user id, with the same confirmation rule as ChangeRole.
func (c *AdminConsole) DeleteUser(ctx context.Context, id string, confirmed bool) error {
	s, err := c.requireAdmin()
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: user id is required", common.ErrInvalidInput)
	}
	if !confirmed {
		c.refresh(ctx, true)
		return common.ErrNotConfirmed
	}
	if err := c.dir.Delete(ctx, s.Username, id); err != nil {
		c.refresh(ctx, true)
		return err
	}
	return nil
}

func (c *AdminConsole) ChangePassword(ctx context.Context, req PasswordChange) error {
	s, err := c.requireAdmin()
	if err != nil {
		return err
	}

	var target string
	switch req.Mode {
	case PasswordSelf:
		if len(req.NewPassword) == 0 || !bytes.Equal(req.NewPassword, req.Confirmation) {
			return fmt.Errorf("%w: passwords are empty or do not match", common.ErrInvalidInput)
		}
		target = s.Username
	case PasswordForced:
		target = strings.TrimSpace(req.Username)
		if target == "" || len(req.NewPassword) == 0 {
			return fmt.Errorf("%w: username and new password are required", common.ErrInvalidInput)
		}
		if target == s.Username {
			return fmt.Errorf("%w: use a self password change for your own account", common.ErrInvalidInput)
		}
		if !req.Confirmed {
			return common.ErrNotConfirmed
		}
	default:
		return fmt.Errorf("%w: unknown password change mode %q", common.ErrInvalidInput, req.Mode)
	}

	return c.dir.SetCredential(ctx, s.Username, target, req.NewPassword, req.Mode)
}

// ViewAuditLog returns the newest entries, newest first. A non-positive
// limit uses the configured default.
func (c *AdminConsole) ViewAuditLog(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if _, err := c.requireAdmin(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = c.viewLimit
	}
	return c.audit.Collect(ctx, limit)
}

// ClearAuditLog erases the audit trail. The erase itself is then recorded.
func (c *AdminConsole) ClearAuditLog(ctx context.Context, confirmed bool) error {
	s, err := c.requireAdmin()
	if err != nil {
		return err
	}
	if !confirmed {
		return common.ErrNotConfirmed
	}
	return c.audit.Clear(ctx, s.Username)
}

// Open attaches view, fills it, and refreshes it after every audit entry
// until close is called. The user list is reloaded only for entries about
// users. Opening again replaces the previous view.
func (c *AdminConsole) Open(ctx context.Context, view View) (closeFn func(), err error) {
	if _, err := c.requireAdmin(); err != nil {
		return nil, err
	}

	c.viewMu.Lock()
	if c.unsubFn != nil {
		c.unsubFn()
	}
	c.view = view
	unsub := c.audit.Subscribe(func(ctx context.Context, e models.AuditEntry) {
		c.refresh(ctx, e.Type.AffectsUsers())
	})
	c.unsubFn = unsub
	c.viewMu.Unlock()

	c.refresh(ctx, true)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.viewMu.Lock()
			defer c.viewMu.Unlock()
			unsub()
			if c.view == view {
				c.view = nil
				c.unsubFn = nil
			}
		})
	}, nil
}

// refresh pushes the stored state to the attached view. It does nothing when
// no view is attached or the session is no longer an admin one.
func (c *AdminConsole) refresh(ctx context.Context, users bool) {
	c.viewMu.Lock()
	view := c.view
	c.viewMu.Unlock()
	if view == nil {
		return
	}

	s, err := c.requireAdmin()
	if err != nil {
		return
	}

	if users {
		rows, err := c.rows(ctx, s)
		if err != nil {
			c.log.Error(ctx, "failed to reload users for admin view", "error", err)
		} else {
			view.ShowUsers(rows)
		}
	}

	entries, err := c.audit.Collect(ctx, c.viewLimit)
	if err != nil {
		c.log.Error(ctx, "failed to reload audit log for admin view", "error", err)
		return
	}
	view.ShowAudit(entries)
}
