package cli

import (
	"context"
	"fmt"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/services"
)

// Login prompts for credentials and opens a session. On an empty database
// the first login creates the administrator account.
//
// The password is wiped before returning. Nothing is prompted while a
// session is active or locked.
func (a *App) Login(ctx context.Context) error {
	if a.isLocked() {
		return common.ErrSessionLocked
	}
	if a.isLoggedIn() {
		return common.ErrAlreadyLoggedIn
	}

	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.access.Login(ctx, userName, password)
	if err != nil {
		a.log.Debug(ctx, "login rejected", "user", userName, "error", err)
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s (%s).\n", s.Username, s.Role)
	return nil
}

// Logout ends the session and detaches the admin view.
func (a *App) Logout(ctx context.Context) error {
	if err := a.access.Logout(ctx); err != nil {
		return err
	}
	a.detachView()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if a.isLocked() {
		return common.ErrSessionLocked
	}
	s, ok := a.access.Current()
	if !ok {
		return common.ErrNotAuthenticated
	}
	fmt.Fprintf(a.out, "%s (%s), logged in since %s\n", s.Username, s.Role, s.StartedAt.Local().Format(timeLayout))
	return nil
}

// Passwd changes the password of the logged-in administrator.
func (a *App) Passwd(ctx context.Context) error {
	if !a.isAdmin() {
		return common.ErrPermissionDenied
	}

	pw, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	again, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	err = a.admin.ChangePassword(ctx, services.PasswordChange{
		Mode:         services.PasswordSelf,
		NewPassword:  pw,
		Confirmation: again,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed.")
	return nil
}

func (a *App) Lock(ctx context.Context) error {
	if err := a.access.Lock(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Session locked.")
	return nil
}

// Unlock asks for the password of the locked session's operator.
func (a *App) Unlock(ctx context.Context) error {
	if !a.isLocked() {
		return common.ErrNotAuthenticated
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.access.Unlock(ctx, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s.\n", s.Username)
	return nil
}

// Panic drops the session at once, whatever its state, and clears the
// screen.
func (a *App) Panic(ctx context.Context) error {
	a.access.Panic(ctx)
	a.detachView()
	fmt.Fprint(a.out, "\033[H\033[2J")
	fmt.Fprintln(a.out, "Panic mode triggered.")
	return nil
}
