package cli

import (
	"context"
	"fmt"

	"github.com/josermendez0896/Nocturne-web/internal/common"
)

// Audit prints the newest audit entries. A non-positive limit uses the
// configured default.
func (a *App) Audit(ctx context.Context, limit int) error {
	entries, err := a.admin.ViewAuditLog(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderAudit(entries))
	return nil
}

// ClearAudit erases the audit trail after confirmation.
func (a *App) ClearAudit(ctx context.Context) error {
	if !a.isAdmin() {
		return common.ErrPermissionDenied
	}
	ok, err := confirm(a.reader, "Erase the whole audit log?", a.out)
	if err != nil {
		return err
	}
	if err := a.admin.ClearAuditLog(ctx, ok); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Audit log erased.")
	return nil
}
