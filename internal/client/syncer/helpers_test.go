package syncer

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/client/clienttest"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/entities"
	"github.com/dmitrijs2005/possync/internal/client/services"
	"github.com/dmitrijs2005/possync/internal/client/storage"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/transcode"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type connectivity struct {
	online bool
	calls  int
}

func (c *connectivity) Online(context.Context) bool {
	c.calls++
	return c.online
}

type session struct {
	owner string
	live  bool
	err   error
}

func (s *session) Resolve(context.Context) (*services.Resolution, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.Resolution{Session: services.Session{UserID: s.owner}, Live: s.live}, nil
}

type device struct {
	db      *sql.DB
	tables  *entities.Set
	clock   *clock
	net     *connectivity
	session *session
	orch    *Orchestrator
}

func newDevice(t *testing.T, remote *clienttest.Remote, opts ...Option) *device {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	set, err := entities.NewSet(db)
	require.NoError(t, err)
	d := &device{
		db:      db,
		clock:   &clock{t: base},
		net:     &connectivity{online: true},
		session: &session{owner: remote.Identity.UserID, live: true},
	}
	d.tables = set.WithClock(d.clock.now)

	var c client.Client = remote
	opts = append([]Option{WithClock(d.clock.now)}, opts...)
	d.orch, err = New(db, c, d.net, d.session, logging.Discard(), opts...)
	require.NoError(t, err)
	return d
}

func newRemote() *clienttest.Remote {
	return clienttest.NewRemote(uuid.NewString(), "cashier")
}

func (d *device) category(t *testing.T, owner, name string) *models.Category {
	t.Helper()
	c := &models.Category{Base: models.NewBase(owner, d.clock.now()), Name: name, Color: "#fff"}
	require.NoError(t, d.tables.Categories.Save(context.Background(), c))
	return c
}

func (d *device) product(t *testing.T, owner, name string) *models.Product {
	t.Helper()
	p := &models.Product{Base: models.NewBase(owner, d.clock.now()), Name: name, Price: decimal.RequireFromString("1.50"), StockQuantity: 5}
	require.NoError(t, d.tables.Products.Save(context.Background(), p))
	return p
}

func (d *device) customer(t *testing.T, owner, name string) *models.Customer {
	t.Helper()
	c := &models.Customer{Base: models.NewBase(owner, d.clock.now()), Name: name, RunningBalance: decimal.Zero}
	require.NoError(t, d.tables.Customers.Save(context.Background(), c))
	return c
}

// remoteRow renders an entity the way a peer device would have pushed it.
func remoteRow(t *testing.T, e any) map[string]any {
	t.Helper()
	row, err := transcode.ToRow(e)
	require.NoError(t, err)
	r := transcode.ToRemote(row)
	delete(r, "synced_at")
	return r
}

// dump reads a table verbatim, column values as stored.
func dump(t *testing.T, db *sql.DB, table string) [][]any {
	t.Helper()
	rows, err := db.Query(`SELECT * FROM "` + table + `" ORDER BY "id"`)
	require.NoError(t, err)
	defer rows.Close()
	cols, err := rows.Columns()
	require.NoError(t, err)

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		out = append(out, vals)
	}
	require.NoError(t, rows.Err())
	return out
}
