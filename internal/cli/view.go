package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/josermendez0896/Nocturne-web/internal/models"
	"github.com/josermendez0896/Nocturne-web/internal/services"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	lockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = cellStyle.Foreground(lipgloss.Color("196"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderUsers draws the operator list sorted by username. The caller's own
// row is marked and offers no actions.
func renderUsers(rows []services.UserRow) string {
	sorted := append([]services.UserRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Username < sorted[j].Username })

	t := newTable("USERNAME", "ROLE", "CREATED", "ACTIONS")
	for _, r := range sorted {
		name, actions := r.Username, "-"
		if r.CanChangeRole || r.CanDelete {
			actions = "setrole, deluser, resetpw"
		} else {
			name += " (you)"
		}
		t.Row(name, string(r.Role), r.CreatedAt.Local().Format(timeLayout), actions)
	}
	return t.Render()
}

// renderAudit draws entries in the order given, newest first as returned by
// the audit log. Failed events are highlighted.
func renderAudit(entries []models.AuditEntry) string {
	failed := make(map[int]bool)
	t := newTable("TIME", "EVENT", "RESULT", "MESSAGE")
	for i, e := range entries {
		result := "ok"
		if !e.Success {
			result = "failed"
			failed[i] = true
		}
		t.Row(e.Timestamp.Local().Format(timeLayout), string(e.Type), result, e.Message)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case failed[row]:
			return failStyle
		}
		return cellStyle
	})
	return t.Render()
}

// tableView renders the admin screen to a writer each time the console
// refreshes it.
type tableView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *tableView) ShowUsers(rows []services.UserRow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, titleStyle.Render(fmt.Sprintf("Operators (%d)", len(rows))))
	fmt.Fprintln(v.out, renderUsers(rows))
}

func (v *tableView) ShowAudit(entries []models.AuditEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, titleStyle.Render(fmt.Sprintf("Audit log (%d newest)", len(entries))))
	fmt.Fprintln(v.out, renderAudit(entries))
}

// AdminOpen attaches the live admin screen. It is redrawn after every
// audited event until closed.
func (a *App) AdminOpen(ctx context.Context) error {
	closeFn, err := a.admin.Open(ctx, &tableView{out: a.out})
	if err != nil {
		return err
	}
	a.attachView(closeFn)
	return nil
}

func (a *App) AdminClose(ctx context.Context) error {
	if a.detachView() {
		fmt.Fprintln(a.out, "Admin view closed.")
	}
	return nil
}
