package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/josermendez0896/Nocturne-web/internal/config"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/repomanager"
	"github.com/josermendez0896/Nocturne-web/internal/services"
)

// App owns the services of one running Nocturne instance.
type App struct {
	config *config.Config
	log    logging.Logger

	audit  *services.AuditLog
	access *services.AccessController
	admin  *services.AdminConsole

	reader *bufio.Reader
	out    io.Writer

	viewMu    sync.Mutex
	closeView func()
}

// NewApp builds the service graph over db. Input is read from stdin and
// output goes to stdout.
func NewApp(c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, log logging.Logger) *App {
	audit := services.NewAuditLog(db, rm, log)
	dir := services.NewUserDirectory(db, rm, audit, log, c)
	access := services.NewAccessController(dir, audit, log, c)
	admin := services.NewAdminConsole(access, dir, audit, log, c)

	return &App{
		config: c,
		log:    log.With("component", "cli"),
		audit:  audit,
		access: access,
		admin:  admin,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run starts the idle watcher and blocks in the REPL until the operator
// leaves or input ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.detachView()

	fmt.Fprintln(a.out, titleStyle.Render("Nocturne")+" access console (type 'help' for commands)")

	go a.access.WatchIdle(ctx, a.config.IdleTimeout)

	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) isLoggedIn() bool {
	_, ok := a.access.Current()
	return ok
}

func (a *App) isLocked() bool {
	return a.access.State() == services.StateLocked
}

func (a *App) isAdmin() bool {
	s, ok := a.access.Current()
	return ok && s.IsAdmin()
}

func (a *App) touch() {
	a.access.Touch()
}

// status is the prompt decoration: the operator and role, or the lock.
func (a *App) status() string {
	if a.isLocked() {
		return lockedStyle.Render("(locked)")
	}
	s, ok := a.access.Current()
	if !ok {
		return ""
	}
	return statusStyle.Render(fmt.Sprintf("(%s %s)", s.Username, s.Role))
}

func (a *App) attachView(closeFn func()) {
	a.viewMu.Lock()
	prev := a.closeView
	a.closeView = closeFn
	a.viewMu.Unlock()
	if prev != nil {
		prev()
	}
}

func (a *App) detachView() bool {
	a.viewMu.Lock()
	closeFn := a.closeView
	a.closeView = nil
	a.viewMu.Unlock()
	if closeFn == nil {
		return false
	}
	closeFn()
	return true
}
