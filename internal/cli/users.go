package cli

import (
	"context"
	"fmt"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"github.com/josermendez0896/Nocturne-web/internal/services"
)

// Users prints the operator table.
func (a *App) Users(ctx context.Context) error {
	rows, err := a.admin.ListUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderUsers(rows))
	return nil
}

// AddUser prompts for a username, password and role and creates the
// operator.
func (a *App) AddUser(ctx context.Context) error {
	if !a.isAdmin() {
		return common.ErrPermissionDenied
	}

	name, err := getSimpleText(a.reader, "Enter new username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password for "+name, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	role, err := a.promptRole()
	if err != nil {
		return err
	}

	u, err := a.admin.CreateUser(ctx, name, password, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s created with role %s.\n", u.Username, u.Role)
	return nil
}

// SetRole changes the role of another operator after confirmation.
func (a *App) SetRole(ctx context.Context) error {
	row, err := a.promptUser(ctx, "Change role of which user?")
	if err != nil {
		return err
	}
	role, err := a.promptRole()
	if err != nil {
		return err
	}
	ok, err := confirm(a.reader, fmt.Sprintf("Change role of %s from %s to %s?", row.Username, row.Role, role), a.out)
	if err != nil {
		return err
	}
	if err := a.admin.ChangeRole(ctx, row.ID, role, ok); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s is now %s.\n", row.Username, role)
	return nil
}

// DelUser removes another operator after confirmation.
func (a *App) DelUser(ctx context.Context) error {
	row, err := a.promptUser(ctx, "Delete which user?")
	if err != nil {
		return err
	}
	ok, err := confirm(a.reader, fmt.Sprintf("Delete user %s? This cannot be undone.", row.Username), a.out)
	if err != nil {
		return err
	}
	if err := a.admin.DeleteUser(ctx, row.ID, ok); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s deleted.\n", row.Username)
	return nil
}

// ResetPassword sets a new password for another operator.
func (a *App) ResetPassword(ctx context.Context) error {
	if !a.isAdmin() {
		return common.ErrPermissionDenied
	}

	name, err := getSimpleText(a.reader, "Reset password of which user?", a.out)
	if err != nil {
		return err
	}
	pw, err := getPassword("New password for "+name, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	ok, err := confirm(a.reader, fmt.Sprintf("Force a new password on %s?", name), a.out)
	if err != nil {
		return err
	}

	err = a.admin.ChangePassword(ctx, services.PasswordChange{
		Mode:        services.PasswordForced,
		Username:    name,
		NewPassword: pw,
		Confirmed:   ok,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password of %s reset.\n", name)
	return nil
}

func (a *App) promptRole() (models.Role, error) {
	s, err := getSimpleText(a.reader, "Enter role (viewer, uploader, admin)", a.out)
	if err != nil {
		return "", err
	}
	return models.ParseRole(s)
}

// promptUser asks for a username and resolves it against the listing the
// administrator is allowed to see.
func (a *App) promptUser(ctx context.Context, prompt string) (services.UserRow, error) {
	rows, err := a.admin.ListUsers(ctx)
	if err != nil {
		return services.UserRow{}, err
	}
	name, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return services.UserRow{}, err
	}
	for _, r := range rows {
		if r.Username == name {
			return r, nil
		}
	}
	return services.UserRow{}, fmt.Errorf("%w: user %q", common.ErrNotFound, name)
}
