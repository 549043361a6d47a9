// Package clienttest provides an in-memory remote store implementing
// client.Client for tests of the sync engine and its callers.
package clienttest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
)

// ReceiveEpoch is the receive time of the first row a Remote accepts. Each
// later write is stamped one millisecond after the previous one.
var ReceiveEpoch = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// Remote keeps remote-shape rows per table. Rows pass through the same
// structpb encoding the real transport uses, and every write is stamped with
// a receive time the way the server's received_at column is.
type Remote struct {
	mu sync.Mutex

	rows     map[string]map[string]map[string]any
	received map[string]map[string]time.Time
	lastRecv time.Time
	catalog []map[string]any
	calls   map[string]int

	// Identity is returned by WhoAmI and used for row-level checks.
	Identity syncrpc.Identity
	// Unavailable makes every call fail with client.ErrUnavailable.
	Unavailable bool
	// Password is accepted by Login for Identity.Username.
	Password string

	// SnapshotBaseURL prefixes the upload URL handed out by SnapshotURL.
	SnapshotBaseURL string

	// WhoAmIErr, when set, is returned by WhoAmI.
	WhoAmIErr error
	// UpsertErr, when set, can fail individual upserts.
	UpsertErr func(table string, row map[string]any) error
	// SelectErr, when set, can fail whole selects.
	SelectErr func(table string) error

	access, refresh string
}

func NewRemote(userID, username string) *Remote {
	return &Remote{
		rows:     map[string]map[string]map[string]any{},
		received: map[string]map[string]time.Time{},
		calls:    map[string]int{},
		Identity: syncrpc.Identity{UserID: userID, Username: username},
	}
}

// Calls returns how many times method was invoked.
func (r *Remote) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// TotalCalls counts every invocation except Close and token accessors.
func (r *Remote) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

// Rows returns a copy of the remote rows of table keyed by id.
func (r *Remote) Rows(table string) map[string]map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]map[string]any{}
	for id, row := range r.rows[table] {
		out[id] = clone(row)
	}
	return out
}

// ReceivedAt returns when the row with id was last written to table.
func (r *Remote) ReceivedAt(table, id string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received[table][id]
}

// Seed stores a remote-shape row directly, as if a peer device had pushed it.
func (r *Remote) Seed(table string, row map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(table, wire(row))
}

// SeedCatalog sets the shared catalog.
func (r *Remote) SeedCatalog(items ...map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = append(r.catalog, items...)
}

func (r *Remote) put(table string, row map[string]any) {
	delete(row, common.ReceivedAtField)
	if r.rows[table] == nil {
		r.rows[table] = map[string]map[string]any{}
		r.received[table] = map[string]time.Time{}
	}
	if r.lastRecv.IsZero() {
		r.lastRecv = ReceiveEpoch
	} else {
		r.lastRecv = r.lastRecv.Add(time.Millisecond)
	}
	id := fmt.Sprint(row["id"])
	r.rows[table][id] = row
	r.received[table][id] = r.lastRecv
}

func (r *Remote) enter(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
	if r.Unavailable {
		return client.ErrUnavailable
	}
	return nil
}

func (r *Remote) Close() error { return nil }

func (r *Remote) Ping(ctx context.Context) error {
	return r.enter("Ping")
}

func (r *Remote) Register(ctx context.Context, creds syncrpc.Credentials) (*syncrpc.Identity, error) {
	if err := r.enter("Register"); err != nil {
		return nil, err
	}
	id := r.Identity
	return &id, nil
}

func (r *Remote) Login(ctx context.Context, username, password string) (*syncrpc.Tokens, error) {
	if err := r.enter("Login"); err != nil {
		return nil, err
	}
	if username != r.Identity.Username || password != r.Password {
		return nil, client.ErrUnauthorized
	}
	t := &syncrpc.Tokens{AccessToken: "access-" + username, RefreshToken: "refresh-" + username, UserID: r.Identity.UserID}
	r.SetTokens(t.AccessToken, t.RefreshToken)
	return t, nil
}

func (r *Remote) WhoAmI(ctx context.Context) (*syncrpc.Identity, error) {
	if err := r.enter("WhoAmI"); err != nil {
		return nil, err
	}
	if r.WhoAmIErr != nil {
		return nil, r.WhoAmIErr
	}
	access, _ := r.Tokens()
	if access == "" {
		return nil, client.ErrUnauthorized
	}
	id := r.Identity
	return &id, nil
}

func (r *Remote) Upsert(ctx context.Context, table string, row map[string]any) error {
	if err := r.enter("Upsert"); err != nil {
		return err
	}
	if r.UpsertErr != nil {
		if err := r.UpsertErr(table, row); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if row["owner_id"] != r.Identity.UserID {
		return client.ErrUnauthorized
	}
	if existing, ok := r.rows[table][fmt.Sprint(row["id"])]; ok && existing["owner_id"] != r.Identity.UserID {
		return client.ErrUnauthorized
	}
	r.put(table, wire(row))
	return nil
}

func (r *Remote) Select(ctx context.Context, table, ownerID string, since *time.Time) ([]map[string]any, error) {
	if err := r.enter("Select"); err != nil {
		return nil, err
	}
	if r.SelectErr != nil {
		if err := r.SelectErr(table); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ownerID != r.Identity.UserID {
		return nil, client.ErrUnauthorized
	}
	var out []map[string]any
	for id, row := range r.rows[table] {
		if row["owner_id"] != ownerID {
			continue
		}
		recv := r.received[table][id]
		if since != nil && !recv.After(*since) {
			continue
		}
		w := wire(row)
		w[common.ReceivedAtField] = dbx.FormatTime(recv)
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		return fmt.Sprint(out[i][common.ReceivedAtField]) < fmt.Sprint(out[j][common.ReceivedAtField])
	})
	return out, nil
}

func (r *Remote) Catalog(ctx context.Context) ([]map[string]any, error) {
	if err := r.enter("Catalog"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[string]any, 0, len(r.catalog))
	for _, it := range r.catalog {
		out = append(out, wire(it))
	}
	return out, nil
}

func (r *Remote) SnapshotURL(ctx context.Context) (*syncrpc.SnapshotTarget, error) {
	if err := r.enter("SnapshotURL"); err != nil {
		return nil, err
	}
	key := "owners/" + r.Identity.UserID + "/snapshots/test.db"
	return &syncrpc.SnapshotTarget{Key: key, URL: r.SnapshotBaseURL + "/" + key}, nil
}

func (r *Remote) SetTokens(access, refresh string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.access, r.refresh = access, refresh
}

func (r *Remote) Tokens() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.access, r.refresh
}

// wire passes row through the structpb encoding.
func wire(row map[string]any) map[string]any {
	l, err := syncrpc.EncodeRows([]map[string]any{row})
	if err != nil {
		panic(err)
	}
	rows, err := syncrpc.DecodeRows(l)
	if err != nil {
		panic(err)
	}
	return rows[0]
}

func clone(row map[string]any) map[string]any {
	return wire(row)
}

var _ client.Client = (*Remote)(nil)
