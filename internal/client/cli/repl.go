package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Create(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Approve(ctx context.Context, args []string) error
	Reject(ctx context.Context, args []string) error
	Receipt(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the procurement CLI.
//
// It reads a line from r, parses the first token as the command and passes
// the rest as arguments. Command prompts read from the same r, so r must be
// the App's reader and nothing else may buffer it. Unknown commands are
// reported back to the user on w. The loop exits on EOF or when the user
// types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help                  show available commands
//	  - login                 authenticate
//	  - exit | quit           leave the program
//
//	Logged in:
//	  - (l)ist [status]       show the dashboard, optionally filtered
//	  - filter <status>       change the dashboard filter
//	  - refresh               reload the request list
//	  - show <id>             request details (id or unique id prefix)
//	  - create [reset]        fill in and submit a new request
//	  - edit <id>             change a pending request
//	  - approve <id>          approve a pending request
//	  - reject <id>           reject a pending request
//	  - receipt <id> [path]   attach a receipt to an approved request
//	  - whoami                show the signed-in user
//	  - logout                end the session
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "procura %s> ", statusFn())
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: (l)ist, filter, refresh, show, create, edit, approve, reject, receipt, whoami, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		case "logout", "whoami", "l", "list", "filter", "refresh", "show",
			"create", "edit", "approve", "reject", "receipt":
			if !a.isLoggedIn() {
				fmt.Fprintln(w, "Please log in first.")
				continue
			}
			dispatch(ctx, a, cmd, args, w)

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string, w io.Writer) {
	switch cmd {
	case "logout":
		_ = a.Logout(ctx)
	case "whoami":
		_ = a.Whoami(ctx)
	case "l", "list":
		_ = a.List(ctx, args)
	case "filter":
		if len(args) == 0 {
			fmt.Fprintln(w, "Usage: filter <all|pending|approved|rejected>")
			return
		}
		_ = a.List(ctx, args)
	case "refresh":
		_ = a.Refresh(ctx)
	case "show":
		_ = a.Show(ctx, args)
	case "create":
		_ = a.Create(ctx, args)
	case "edit":
		_ = a.Edit(ctx, args)
	case "approve":
		_ = a.Approve(ctx, args)
	case "reject":
		_ = a.Reject(ctx, args)
	case "receipt":
		_ = a.Receipt(ctx, args)
	}
}
