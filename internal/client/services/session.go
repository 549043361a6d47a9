package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/possync/internal/client/repositories/profile"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
)

const (
	sessionKey = "session"

	// DefaultOfflineSessionTTL bounds how long a cached session stays usable
	// without talking to the server.
	DefaultOfflineSessionTTL = 72 * time.Hour
	// DefaultProbeTimeout bounds a single reachability probe.
	DefaultProbeTimeout = 2 * time.Second
)

// Session is the descriptor of the last session the server confirmed.
type Session struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ValidatedAt  time.Time `json:"validatedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Valid reports whether the cached descriptor may still be used at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserID != "" && now.Before(s.ExpiresAt)
}

// Resolution is the outcome of SessionGate.Resolve. Live is false when the
// session comes from the local cache because the server was unreachable.
type Resolution struct {
	Session Session
	Live    bool
}

// SessionGate decides who the device is acting for.
type SessionGate struct {
	client client.Client
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	log    logging.Logger
}

func NewSessionGate(c client.Client, db *sql.DB, ttl time.Duration, log logging.Logger) *SessionGate {
	if ttl <= 0 {
		ttl = DefaultOfflineSessionTTL
	}
	return &SessionGate{client: c, db: db, ttl: ttl, now: time.Now, log: log}
}

// WithClock replaces the gate's time source.
func (g *SessionGate) WithClock(now func() time.Time) *SessionGate {
	c := *g
	c.now = now
	return &c
}

// Resolve checks the session with the server first. When the server cannot
// be reached the cached descriptor is used if it has not expired. Any other
// case yields client.ErrUnauthorized.
func (g *SessionGate) Resolve(ctx context.Context) (*Resolution, error) {
	cached, err := g.Cached(ctx)
	if err != nil {
		return nil, err
	}

	access, _ := g.client.Tokens()
	if access == "" {
		if cached == nil {
			return nil, client.ErrUnauthorized
		}
		g.client.SetTokens(cached.AccessToken, cached.RefreshToken)
	}

	id, err := g.client.WhoAmI(ctx)
	switch {
	case err == nil:
		s, err := g.confirm(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Resolution{Session: *s, Live: true}, nil
	case errors.Is(err, client.ErrUnavailable):
		if cached.Valid(g.now()) {
			g.log.Debug(ctx, "server unreachable, using cached session", "owner", cached.UserID)
			return &Resolution{Session: *cached, Live: false}, nil
		}
		return nil, client.ErrUnauthorized
	case errors.Is(err, client.ErrUnauthorized):
		return nil, client.ErrUnauthorized
	default:
		return nil, fmt.Errorf("resolve session: %w", err)
	}
}

// Cached returns the stored descriptor, or nil when there is none.
func (g *SessionGate) Cached(ctx context.Context) (*Session, error) {
	var s Session
	ok, err := metadata.GetJSON(ctx, metadata.NewSQLiteRepository(g.db), sessionKey, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// confirm caches a server-confirmed identity along with the client's
// current tokens and refreshes the user profile.
func (g *SessionGate) confirm(ctx context.Context, id *syncrpc.Identity) (*Session, error) {
	now := g.now().UTC()
	access, refresh := g.client.Tokens()
	s := &Session{
		UserID:       id.UserID,
		Username:     id.Username,
		AccessToken:  access,
		RefreshToken: refresh,
		ValidatedAt:  now,
		ExpiresAt:    now.Add(g.ttl),
	}

	err := dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.SetJSON(ctx, metadata.NewSQLiteRepository(tx), sessionKey, s); err != nil {
			return err
		}
		return profile.NewSQLiteRepository(tx).Save(ctx, profileOf(id, now))
	})
	if err != nil {
		return nil, fmt.Errorf("cache session: %w", err)
	}
	return s, nil
}

func profileOf(id *syncrpc.Identity, now time.Time) *models.UserProfile {
	p := &models.UserProfile{ID: id.UserID, Username: id.Username, UpdatedAt: models.Now(now)}
	if id.DisplayName != "" {
		p.DisplayName = &id.DisplayName
	}
	if id.StoreName != "" {
		p.StoreName = &id.StoreName
	}
	return p
}

// PingProber reports reachability of the server with a bounded Ping.
type PingProber struct {
	client  client.Client
	timeout time.Duration
}

func NewPingProber(c client.Client, timeout time.Duration) *PingProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &PingProber{client: c, timeout: timeout}
}

func (p *PingProber) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.Ping(ctx) == nil
}
