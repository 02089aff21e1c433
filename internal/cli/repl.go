package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/josermendez0896/Nocturne-web/internal/services"
)

// printlnFn and printFn are test seams for REPL output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface is the command surface the REPL drives. App implements it.
type execIface interface {
	isLoggedIn() bool
	isLocked() bool
	isAdmin() bool
	touch()

	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Passwd(ctx context.Context) error
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	Panic(ctx context.Context) error

	Users(ctx context.Context) error
	AddUser(ctx context.Context) error
	SetRole(ctx context.Context) error
	DelUser(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Audit(ctx context.Context, limit int) error
	ClearAudit(ctx context.Context) error
	AdminOpen(ctx context.Context) error
	AdminClose(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF, "exit" or "quit".
//
//	Not logged in:  login, help, exit
//	Locked:         unlock, logout, panic, help, exit
//	Logged in:      whoami, lock, logout, panic, help, exit
//	Administrator:  passwd, users, adduser, setrole, deluser, resetpw,
//	                audit [n], clearaudit, admin open|close
//
// Every dispatched command first marks the session active. A failing
// command prints a short message; the detail is left to the log.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("nocturne %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			printlnFn()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		a.touch()

		switch cmd {
		case "help":
			printlnFn(helpText(a))

		case "login":
			report(a.Login(ctx))
		case "logout":
			report(a.Logout(ctx))
		case "whoami":
			report(a.WhoAmI(ctx))
		case "passwd":
			report(a.Passwd(ctx))
		case "lock":
			report(a.Lock(ctx))
		case "unlock":
			report(a.Unlock(ctx))
		case "panic":
			report(a.Panic(ctx))

		case "users":
			report(a.Users(ctx))
		case "adduser":
			report(a.AddUser(ctx))
		case "setrole":
			report(a.SetRole(ctx))
		case "deluser":
			report(a.DelUser(ctx))
		case "resetpw":
			report(a.ResetPassword(ctx))
		case "audit":
			limit := 0
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					printlnFn("Usage: audit [count]")
					continue
				}
				limit = n
			}
			report(a.Audit(ctx, limit))
		case "clearaudit":
			report(a.ClearAudit(ctx))
		case "admin":
			switch {
			case len(args) == 1 && args[0] == "open":
				report(a.AdminOpen(ctx))
			case len(args) == 1 && args[0] == "close":
				report(a.AdminClose(ctx))
			default:
				printlnFn("Usage: admin open|close")
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func helpText(a execIface) string {
	switch {
	case a.isLocked():
		return "Available commands: unlock, logout, panic, exit"
	case !a.isLoggedIn():
		return "Available commands: login, exit"
	case a.isAdmin():
		return "Available commands: whoami, passwd, users, adduser, setrole, deluser, resetpw, " +
			"audit [n], clearaudit, admin open|close, lock, logout, panic, exit"
	default:
		return "Available commands: whoami, lock, logout, panic, exit"
	}
}

func report(err error) {
	if err != nil {
		printlnFn(errorStyle.Render(services.UserMessage(err)))
	}
}
