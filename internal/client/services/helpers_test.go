package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client/clienttest"
	"github.com/dmitrijs2005/possync/internal/client/storage"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type authFixture struct {
	db     *sql.DB
	remote *clienttest.Remote
	clock  *clock
	gate   *SessionGate
	auth   *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := setupDB(t)
	remote := clienttest.NewRemote(uuid.NewString(), "cashier")
	remote.Password = "secret"
	c := &clock{t: base}
	gate := NewSessionGate(remote, db, time.Hour, logging.Discard()).WithClock(c.now)
	return &authFixture{
		db:     db,
		remote: remote,
		clock:  c,
		gate:   gate,
		auth:   NewAuthService(remote, db, gate, logging.Discard()),
	}
}
