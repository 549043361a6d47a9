// Package services contains the application services of the POS client:
// sign-in and session resolution, local POS mutations and catalog seeding.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/possync/internal/client/repositories/profile"
	"github.com/dmitrijs2005/possync/internal/cryptox"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
)

const offlineCredentialsKey = "offline_credentials"

// offlineCredentials lets the cashier sign in again while the server is
// unreachable. Only the verifier is kept, never the password.
type offlineCredentials struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

// AuthService signs the cashier in and out.
type AuthService struct {
	client client.Client
	db     *sql.DB
	gate   *SessionGate
	log    logging.Logger
}

func NewAuthService(c client.Client, db *sql.DB, gate *SessionGate, log logging.Logger) *AuthService {
	return &AuthService{client: c, db: db, gate: gate, log: log}
}

// Register creates the account on the server. It does not sign in.
func (a *AuthService) Register(ctx context.Context, creds syncrpc.Credentials) (*syncrpc.Identity, error) {
	id, err := a.client.Register(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return id, nil
}

// Login tries the server first and falls back to the locally cached
// verifier when the server is unreachable. live reports which path won.
func (a *AuthService) Login(ctx context.Context, username string, password []byte) (s *Session, live bool, err error) {
	s, err = a.OnlineLogin(ctx, username, password)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, client.ErrUnavailable) {
		return nil, false, err
	}
	a.log.Info(ctx, "server unreachable, signing in offline", "username", username)
	s, err = a.OfflineLogin(ctx, username, password)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// OnlineLogin authenticates against the server and caches what is needed to
// sign in offline later: the session descriptor, the verifier and the profile.
func (a *AuthService) OnlineLogin(ctx context.Context, username string, password []byte) (*Session, error) {
	if _, err := a.client.Login(ctx, username, string(password)); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	id, err := a.client.WhoAmI(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s, err := a.gate.confirm(ctx, id)
	if err != nil {
		return nil, err
	}

	salt, verifier := cryptox.NewVerifier(password)
	creds := offlineCredentials{Username: username, Salt: salt, Verifier: verifier}
	if err := metadata.SetJSON(ctx, metadata.NewSQLiteRepository(a.db), offlineCredentialsKey, creds); err != nil {
		return nil, fmt.Errorf("save offline credentials: %w", err)
	}
	return s, nil
}

// OfflineLogin verifies the password against the cached verifier and
// resumes the cached session. It returns client.ErrLocalDataNotAvailable
// when this device has never signed in online, and client.ErrUnauthorized
// for a wrong password or an expired session.
func (a *AuthService) OfflineLogin(ctx context.Context, username string, password []byte) (*Session, error) {
	var creds offlineCredentials
	ok, err := metadata.GetJSON(ctx, metadata.NewSQLiteRepository(a.db), offlineCredentialsKey, &creds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, client.ErrLocalDataNotAvailable
	}
	if creds.Username != username || !cryptox.CheckVerifier(password, creds.Salt, creds.Verifier) {
		return nil, client.ErrUnauthorized
	}

	s, err := a.gate.Cached(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Username != username {
		return nil, client.ErrLocalDataNotAvailable
	}
	if !s.Valid(a.gate.now()) {
		return nil, client.ErrUnauthorized
	}
	a.client.SetTokens(s.AccessToken, s.RefreshToken)
	return s, nil
}

// Logout forgets the session, the offline verifier and the profile. Pull
// watermarks are kept because they are scoped per owner.
func (a *AuthService) Logout(ctx context.Context) error {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, key := range []string{sessionKey, offlineCredentialsKey} {
			if err := repo.Delete(ctx, key); err != nil {
				return err
			}
		}
		return profile.NewSQLiteRepository(tx).Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.client.SetTokens("", "")
	return nil
}
