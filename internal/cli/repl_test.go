package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn, locked, admin bool

	touches int
	calls   []string
	err     error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) isLocked() bool   { return f.locked }
func (f *fakeExec) isAdmin() bool    { return f.admin }
func (f *fakeExec) touch()           { f.touches++ }

func (f *fakeExec) call(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeExec) Login(context.Context) error {
	f.loggedIn, f.admin = true, true
	return f.call("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn, f.admin = false, false
	return f.call("logout")
}
func (f *fakeExec) WhoAmI(context.Context) error        { return f.call("whoami") }
func (f *fakeExec) Passwd(context.Context) error        { return f.call("passwd") }
func (f *fakeExec) Lock(context.Context) error          { return f.call("lock") }
func (f *fakeExec) Unlock(context.Context) error        { return f.call("unlock") }
func (f *fakeExec) Panic(context.Context) error         { return f.call("panic") }
func (f *fakeExec) Users(context.Context) error         { return f.call("users") }
func (f *fakeExec) AddUser(context.Context) error       { return f.call("adduser") }
func (f *fakeExec) SetRole(context.Context) error       { return f.call("setrole") }
func (f *fakeExec) DelUser(context.Context) error       { return f.call("deluser") }
func (f *fakeExec) ResetPassword(context.Context) error { return f.call("resetpw") }
func (f *fakeExec) ClearAudit(context.Context) error    { return f.call("clearaudit") }
func (f *fakeExec) AdminOpen(context.Context) error     { return f.call("admin open") }
func (f *fakeExec) AdminClose(context.Context) error    { return f.call("admin close") }
func (f *fakeExec) Audit(_ context.Context, limit int) error {
	return f.call(fmt.Sprintf("audit %d", limit))
}

// captureREPL silences the REPL seams and returns everything printed.
func captureREPL(t *testing.T) *strings.Builder {
	t.Helper()
	origPrintln, origPrint := printlnFn, printFn
	t.Cleanup(func() { printlnFn, printFn = origPrintln, origPrint })

	var sb strings.Builder
	printlnFn = func(a ...any) (int, error) { return fmt.Fprintln(&sb, a...) }
	printFn = func(a ...any) (int, error) { return fmt.Fprint(&sb, a...) }
	return &sb
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureREPL(t)

	input := strings.Join([]string{
		"login",
		"",
		"whoami",
		"users",
		"adduser",
		"setrole",
		"deluser",
		"resetpw",
		"passwd",
		"audit",
		"audit 5",
		"clearaudit",
		"admin open",
		"admin close",
		"lock",
		"unlock",
		"panic",
		"logout",
		"exit",
		"users",
	}, "\n")

	f := &fakeExec{}
	runREPL(context.Background(), f, func() string { return "" }, rdr(input))

	assert.Equal(t, []string{
		"login", "whoami", "users", "adduser", "setrole", "deluser", "resetpw", "passwd",
		"audit 0", "audit 5", "clearaudit", "admin open", "admin close",
		"lock", "unlock", "panic", "logout",
	}, f.calls)
	assert.Equal(t, 18, f.touches, "every non-empty line marks activity")
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	out := captureREPL(t)

	f := &fakeExec{loggedIn: true, admin: true}
	runREPL(context.Background(), f, func() string { return "(root admin)" },
		rdr("audit x\naudit -1\nadmin\nadmin reboot\nfrobnicate\nquit\n"))

	assert.Empty(t, f.calls)
	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "Usage: audit [count]"))
	assert.Equal(t, 2, strings.Count(got, "Usage: admin open|close"))
	assert.Contains(t, got, "Unknown command: frobnicate")
	assert.Contains(t, got, "nocturne (root admin)> ")
	assert.Contains(t, got, "Bye!")
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	captureREPL(t)

	f := &fakeExec{}
	runREPL(context.Background(), f, func() string { return "" }, rdr("login"))
	assert.Equal(t, []string{"login"}, f.calls, "last line without newline still runs")
}

func TestRunREPL_ReportsErrors(t *testing.T) {
	out := captureREPL(t)

	f := &fakeExec{err: fmt.Errorf("wrapped: %w", common.ErrPermissionDenied)}
	runREPL(context.Background(), f, func() string { return "" }, rdr("users\nexit\n"))

	assert.Contains(t, out.String(), "Permission denied: administrator role required.")
	assert.NotContains(t, out.String(), "wrapped")
}

func TestHelpText(t *testing.T) {
	assert.Equal(t, "Available commands: login, exit", helpText(&fakeExec{}))
	assert.Contains(t, helpText(&fakeExec{locked: true, loggedIn: true}), "unlock")
	assert.NotContains(t, helpText(&fakeExec{loggedIn: true}), "adduser")
	assert.Contains(t, helpText(&fakeExec{loggedIn: true, admin: true}), "adduser")
}
