package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/syncer"
)

// Status prints who is signed in, the mode and the pending change count.
func (a *App) Status(ctx context.Context) error {
	s := a.currentSession()
	if s == nil {
		return errNotLoggedIn
	}

	p, err := a.orch.Pending(ctx, s.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User:    %s\n", s.Username)
	fmt.Fprintf(a.out, "Mode:    %s\n", a.getMode())
	fmt.Fprintf(a.out, "Pending: %d\n", p.Total())

	marks, err := a.orch.Watermarks(ctx, s.UserID)
	if err != nil {
		return err
	}
	if len(marks) == 0 {
		fmt.Fprintln(a.out, "Last pull: never")
		return nil
	}
	var last time.Time
	for _, t := range marks {
		if t.After(last) {
			last = t
		}
	}
	fmt.Fprintf(a.out, "Last pull: %s\n", last.Format(time.RFC3339))
	return nil
}

// Pending lists the tables with changes not yet pushed.
func (a *App) Pending(ctx context.Context) error {
	s := a.currentSession()
	if s == nil {
		return errNotLoggedIn
	}

	p, err := a.orch.Pending(ctx, s.UserID)
	if err != nil {
		return err
	}
	if !p.HasPending() {
		fmt.Fprintln(a.out, "Everything is synced")
		return nil
	}

	for _, t := range p.Tables {
		if n := p.Counts[t]; n > 0 {
			fmt.Fprintf(a.out, "%-22s %d\n", t, n)
		}
	}
	fmt.Fprintf(a.out, "%-22s %d\n", "total", p.Total())
	return nil
}

func (a *App) Backup(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	stats, err := a.orch.Backup(ctx)
	a.report("Backup", stats)
	return err
}

func (a *App) Restore(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	stats, err := a.orch.Restore(ctx)
	a.report("Restore", stats)
	return err
}

func (a *App) Sync(ctx context.Context, initial bool) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	stats, err := a.orch.FullSync(ctx, syncer.SyncOptions{Initial: initial})
	a.report("Sync", stats)
	return err
}

func (a *App) report(op string, stats syncer.Stats) {
	if stats.IsZero() {
		fmt.Fprintf(a.out, "%s: nothing to do\n", op)
		return
	}
	fmt.Fprintf(a.out, "%s: %s\n", op, stats)
}
