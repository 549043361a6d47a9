package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Status(ctx context.Context) error
	Pending(ctx context.Context) error
	Backup(ctx context.Context) error
	Restore(ctx context.Context) error
	Sync(ctx context.Context, initial bool) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF or exit/quit.
//
//	Not logged in: help, register, login, exit | quit
//	Logged in:     help, status, pending, backup, restore,
//	               sync [--initial], logout, exit | quit
//
// Handler errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pos> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, pending, backup, restore, sync [--initial], logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "status":
			err = a.Status(ctx)

		case "pending":
			err = a.Pending(ctx)

		case "backup":
			err = a.Backup(ctx)

		case "restore":
			err = a.Restore(ctx)

		case "sync":
			initial := len(args) > 0 && args[0] == "--initial"
			err = a.Sync(ctx, initial)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
