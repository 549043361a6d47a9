package cli

import (
	"bufio"
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if sess := a.currentSession(); sess != nil {
		s = sess.Username + " "
	}
	s += string(a.getMode())
	return fmt.Sprintf("(%s)", s)
}

// Root prompts for a sign-in, starts the connectivity watcher and runs the
// REPL until the user leaves or ctx ends.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "POS sync client (type 'help' for commands)")

	if err := a.Login(ctx); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
