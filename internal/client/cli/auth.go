package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("not logged in")

// Register prompts for the account details and creates the account on the
// server. It does not sign in.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	displayName, err := getSimpleText(a.reader, "Display name (optional)", a.out)
	if err != nil {
		return err
	}
	storeName, err := getSimpleText(a.reader, "Store name (optional)", a.out)
	if err != nil {
		return err
	}

	id, err := a.auth.Register(ctx, syncrpc.Credentials{
		Username:    username,
		Password:    string(password),
		DisplayName: displayName,
		StoreName:   storeName,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s, you can log in now\n", id.Username)
	return nil
}

// Login signs in online, or offline when the server is unreachable. A live
// sign-in on a device that has never pulled anything restores the owner's
// data right away.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, live, err := a.auth.Login(ctx, username, password)
	if err != nil {
		a.setMode(ModeDisabled)
		if errors.Is(err, client.ErrLocalDataNotAvailable) {
			return fmt.Errorf("server unreachable and no offline data for %s", username)
		}
		return fmt.Errorf("login unsuccessful: %w", err)
	}

	a.setSession(s)
	if !live {
		a.setMode(ModeOffline)
		fmt.Fprintln(a.out, "Logged in offline")
		return nil
	}
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Login successful")

	marks, err := a.orch.Watermarks(ctx, s.UserID)
	if err != nil {
		return err
	}
	if len(marks) > 0 {
		return nil
	}

	fmt.Fprintln(a.out, "First sign-in on this device, restoring data...")
	return a.Restore(ctx)
}

// Logout pushes pending changes first when the server is reachable, then
// forgets the session. A failed flush is reported but does not block.
func (a *App) Logout(ctx context.Context) error {
	s := a.currentSession()
	if s == nil {
		return errNotLoggedIn
	}

	p, err := a.orch.Pending(ctx, s.UserID)
	if err != nil {
		return err
	}
	if p.HasPending() {
		if a.prober.Online(ctx) {
			if _, err := a.orch.Backup(ctx); err != nil {
				fmt.Fprintf(a.out, "Warning: backup before logout failed: %v\n", err)
			}
		} else {
			fmt.Fprintf(a.out, "Warning: %d changes were not uploaded, they stay on this device\n", p.Total())
		}
	}

	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.setSession(nil)
	a.setMode(ModeDisabled)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
