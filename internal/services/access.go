package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/config"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
	"github.com/josermendez0896/Nocturne-web/internal/models"
)

// State is the authentication state of an AccessController.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	// StateLocked keeps the session but hides it until Unlock.
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateLocked:
		return "locked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// AccessController owns the current session.
//
// Logins and unlocks are serialized by authMu. mu guards the state and is
// never held while audit entries are recorded, since audit listeners may
// call back into Current.
type AccessController struct {
	dir   *UserDirectory
	audit *AuditLog
	log   logging.Logger

	auditFailedLogins bool
	now               func() time.Time

	authMu sync.Mutex

	mu         sync.Mutex
	state      State
	session    models.Session
	lastActive time.Time
}

func NewAccessController(dir *UserDirectory, audit *AuditLog, log logging.Logger, cfg *config.Config) *AccessController {
	return &AccessController{
		dir:               dir,
		audit:             audit,
		log:               log.With("component", "access"),
		auditFailedLogins: cfg.AuditFailedLogins,
		now:               time.Now,
	}
}

func (a *AccessController) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Current returns the active session. A locked session is not returned.
func (a *AccessController) Current() (models.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAuthenticated {
		return models.Session{}, false
	}
	return a.session, true
}

// Login authenticates username with password.
//
// An unknown username on an empty directory creates the first administrator.
// Empty input is rejected before any lookup and leaves no audit trace. Other
// failures record LOGIN_FAIL when failed-login auditing is enabled. Only one
// session exists at a time: an active session must be logged out first
// (common.ErrAlreadyLoggedIn) and a locked one unlocked or ended first
// (common.ErrSessionLocked). Neither rejection is audited.
func (a *AccessController) Login(ctx context.Context, username string, password []byte) (models.Session, error) {
	if username == "" || len(password) == 0 {
		return models.Session{}, fmt.Errorf("%w: username and password are required", common.ErrInvalidInput)
	}

	a.authMu.Lock()
	defer a.authMu.Unlock()

	a.mu.Lock()
	switch a.state {
	case StateLocked:
		a.mu.Unlock()
		return models.Session{}, common.ErrSessionLocked
	case StateAuthenticated:
		a.mu.Unlock()
		return models.Session{}, common.ErrAlreadyLoggedIn
	}
	a.state = StateAuthenticating
	a.mu.Unlock()

	u, err := a.authenticate(ctx, username, password)
	if err != nil {
		a.mu.Lock()
		if a.state == StateAuthenticating {
			a.state = StateUnauthenticated
		}
		a.mu.Unlock()

		a.log.Warn(ctx, "login failed", "user", username, "error", err)
		if a.auditFailedLogins {
			a.audit.Record(ctx, models.EventLoginFail,
				fmt.Sprintf("Failed login for user %s.", username), false,
				map[string]string{models.DataAttempted: username, models.DataReason: failureReason(err)})
		}
		return models.Session{}, err
	}

	a.mu.Lock()
	now := a.now()
	a.session = models.Session{UserID: u.ID, Username: u.Username, Role: u.Role, StartedAt: now.UTC()}
	a.state = StateAuthenticated
	a.lastActive = now
	s := a.session
	a.mu.Unlock()

	a.audit.Record(ctx, models.EventLoginSuccess,
		fmt.Sprintf("User %s logged in with role %s.", u.Username, u.Role), true,
		map[string]string{models.DataUser: u.Username, models.DataRole: string(u.Role)})

	return s, nil
}

func (a *AccessController) authenticate(ctx context.Context, username string, password []byte) (*models.User, error) {
	u, err := a.dir.FindByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		var created bool
		u, created, err = a.dir.Bootstrap(ctx, username, password)
		if err != nil {
			return nil, err
		}
		if created {
			return u, nil
		}
	} else if err != nil {
		return nil, err
	}

	ok, err := a.dir.VerifyPassword(u, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredential
	}
	return u, nil
}

// Logout ends the session, locked or not.
func (a *AccessController) Logout(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateAuthenticated && a.state != StateLocked {
		a.mu.Unlock()
		return common.ErrNotAuthenticated
	}
	name := a.reset()
	a.mu.Unlock()

	a.audit.Record(ctx, models.EventLogout, fmt.Sprintf("User %s logged out.", name), true,
		map[string]string{models.DataUser: name})
	return nil
}

// Panic destroys the session immediately. It is allowed from any state.
func (a *AccessController) Panic(ctx context.Context) {
	a.mu.Lock()
	name := a.reset()
	a.mu.Unlock()

	a.audit.Record(ctx, models.EventPanic, "Panic mode triggered.", true,
		map[string]string{models.DataUser: name})
}

// Lock hides the session until Unlock succeeds. Locking a locked session is
// a no-op.
func (a *AccessController) Lock(ctx context.Context) error {
	a.mu.Lock()
	name, locked, err := a.lock()
	a.mu.Unlock()
	if err != nil || !locked {
		return err
	}

	a.audit.Record(ctx, models.EventLock, "Session locked.", true,
		map[string]string{models.DataUser: name})
	return nil
}

// lock moves an authenticated session to StateLocked. Callers hold mu.
func (a *AccessController) lock() (name string, locked bool, err error) {
	switch a.state {
	case StateLocked:
		return a.session.Username, false, nil
	case StateAuthenticated:
		a.state = StateLocked
		return a.session.Username, true, nil
	}
	return "", false, common.ErrNotAuthenticated
}

// Unlock restores a locked session after re-checking the password of its
// owner. A wrong password keeps the session locked.
func (a *AccessController) Unlock(ctx context.Context, password []byte) (models.Session, error) {
	if len(password) == 0 {
		return models.Session{}, fmt.Errorf("%w: password is required", common.ErrInvalidInput)
	}

	a.authMu.Lock()
	defer a.authMu.Unlock()

	a.mu.Lock()
	if a.state != StateLocked {
		a.mu.Unlock()
		return models.Session{}, common.ErrNotAuthenticated
	}
	name := a.session.Username
	a.mu.Unlock()

	u, err := a.dir.FindByUsername(ctx, name)
	if err == nil {
		var ok bool
		ok, err = a.dir.VerifyPassword(u, password)
		if err == nil && !ok {
			err = common.ErrInvalidCredential
		}
	}
	if err != nil {
		a.audit.Record(ctx, models.EventUnlock, fmt.Sprintf("Failed unlock for user %s.", name), false,
			map[string]string{models.DataUser: name, models.DataReason: failureReason(err)})
		return models.Session{}, err
	}

	a.mu.Lock()
	if a.state != StateLocked || a.session.Username != name {
		a.mu.Unlock()
		return models.Session{}, common.ErrNotAuthenticated
	}
	a.state = StateAuthenticated
	a.lastActive = a.now()
	s := a.session
	a.mu.Unlock()

	a.audit.Record(ctx, models.EventUnlock, fmt.Sprintf("User %s unlocked the session.", name), true,
		map[string]string{models.DataUser: name})
	return s, nil
}

// Touch marks user activity for the idle lock.
func (a *AccessController) Touch() {
	a.mu.Lock()
	a.lastActive = a.now()
	a.mu.Unlock()
}

// CheckIdle locks an authenticated session that has been idle for at least
// timeout. It reports whether it locked.
func (a *AccessController) CheckIdle(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}

	a.mu.Lock()
	if a.state != StateAuthenticated || a.now().Sub(a.lastActive) < timeout {
		a.mu.Unlock()
		return false
	}
	name, locked, _ := a.lock()
	a.mu.Unlock()

	if locked {
		a.audit.Record(ctx, models.EventLock, fmt.Sprintf("Auto-lock activated (%s idle).", timeout), true,
			map[string]string{models.DataUser: name})
	}
	return locked
}

// WatchIdle runs CheckIdle periodically until ctx is done. A non-positive
// timeout disables it.
func (a *AccessController) WatchIdle(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		return
	}

	interval := timeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.CheckIdle(ctx, timeout) {
				a.log.Info(ctx, "session locked after inactivity", "timeout", timeout)
			}
		}
	}
}

// reset drops the session and returns the name it belonged to. Callers hold mu.
func (a *AccessController) reset() string {
	name := a.session.Username
	a.state = StateUnauthenticated
	a.session = models.Session{}
	a.lastActive = time.Time{}
	return name
}
