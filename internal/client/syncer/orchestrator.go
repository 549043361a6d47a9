package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/repositories/entities"
	"github.com/dmitrijs2005/possync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/possync/internal/client/services"
	"github.com/dmitrijs2005/possync/internal/logging"
)

// Connectivity reports whether the remote store can be reached right now.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// SessionResolver tells who the device is acting for.
type SessionResolver interface {
	Resolve(ctx context.Context) (*services.Resolution, error)
}

// CatalogSeeder fills the shared catalog after a restore.
type CatalogSeeder interface {
	SeedIfEmpty(ctx context.Context) (int, error)
}

// SnapshotUploader ships a copy of the local database after a backup.
type SnapshotUploader interface {
	Upload(ctx context.Context) (string, error)
}

// SyncOptions tunes FullSync. Initial ignores the stored watermarks and
// considers every remote row.
type SyncOptions struct {
	Initial bool
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithCatalog(c CatalogSeeder) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

func WithSnapshots(s SnapshotUploader) Option {
	return func(o *Orchestrator) { o.snapshots = s }
}

// Orchestrator runs the table adapters. Watermarks live in the metadata
// table, so separate instances over separate stores never share state.
type Orchestrator struct {
	online    Connectivity
	session   SessionResolver
	catalog   CatalogSeeder
	snapshots SnapshotUploader
	marks     *metadata.Watermarks
	adapters  []tableSyncer
	now       func() time.Time
	log       logging.Logger

	running sync.Mutex
}

func New(db *sql.DB, remote client.Client, online Connectivity, session SessionResolver, log logging.Logger, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		online:  online,
		session: session,
		marks:   metadata.NewWatermarks(metadata.NewSQLiteRepository(db)),
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(o)
	}

	set, err := entities.NewSet(db)
	if err != nil {
		return nil, err
	}
	o.adapters = newAdapters(set, remote, o.now, log)
	return o, nil
}

// newAdapters lists one adapter per table in dependency order. Customers and
// the credit ledger carry money, so their push stops at the first failure.
func newAdapters(set *entities.Set, remote client.Client, now func() time.Time, log logging.Logger) []tableSyncer {
	categories := NewAdapter(set.Categories, remote, ContinueOnError, log)
	customers := NewAdapter(set.Customers, remote, FailFast, log)
	products := NewAdapter(set.Products, remote, ContinueOnError, log)
	sales := NewAdapter(set.Sales, remote, ContinueOnError, log)
	ledger := NewAdapter(set.CreditLedgerEntries, remote, FailFast, log)
	movements := NewAdapter(set.InventoryMovements, remote, ContinueOnError, log)

	categories.now = now
	customers.now = now
	products.now = now
	sales.now = now
	ledger.now = now
	movements.now = now

	return []tableSyncer{categories, customers, products, sales, ledger, movements}
}

func (o *Orchestrator) acquire() (func(), error) {
	if !o.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	return o.running.Unlock, nil
}

// owner resolves the acting owner. live demands a server-confirmed session.
// ok is false when the operation should quietly do nothing.
func (o *Orchestrator) owner(ctx context.Context, op string, live bool) (owner string, ok bool, err error) {
	if !o.online.Online(ctx) {
		o.log.Info(ctx, "offline, skipping", "op", op)
		return "", false, nil
	}
	res, err := o.session.Resolve(ctx)
	if err != nil {
		if live && errors.Is(err, client.ErrUnauthorized) {
			o.log.Warn(ctx, "no live session, skipping", "op", op)
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s: resolve session: %w", op, err)
	}
	if live && !res.Live {
		o.log.Warn(ctx, "session is not confirmed by the server, skipping", "op", op, "owner", res.Session.UserID)
		return "", false, nil
	}
	return res.Session.UserID, true, nil
}

// Backup pushes every pending row, table by table. A cached session is
// enough. It returns zero stats when the device is offline.
func (o *Orchestrator) Backup(ctx context.Context) (Stats, error) {
	unlock, err := o.acquire()
	if err != nil {
		return Stats{}, err
	}
	defer unlock()

	var total Stats
	owner, ok, err := o.owner(ctx, "backup", false)
	if err != nil || !ok {
		return total, err
	}

	for _, a := range o.adapters {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		st, err := a.Push(ctx, owner)
		total.add(st)
		if err != nil {
			return total, err
		}
	}
	o.log.Info(ctx, "backup finished", "op", "backup", "owner", owner,
		"pushed", total.Pushed, "failed", total.Failed)

	if o.snapshots != nil {
		if key, err := o.snapshots.Upload(ctx); err != nil {
			o.log.Error(ctx, "snapshot upload failed", "op", "backup", "owner", owner, "error", err)
		} else {
			o.log.Info(ctx, "snapshot uploaded", "op", "backup", "owner", owner, "key", key)
		}
	}
	return total, nil
}

// Restore pulls every remote row of the owner regardless of watermarks.
// It needs a live session and returns zero stats without one.
func (o *Orchestrator) Restore(ctx context.Context) (Stats, error) {
	unlock, err := o.acquire()
	if err != nil {
		return Stats{}, err
	}
	defer unlock()

	var total Stats
	owner, ok, err := o.owner(ctx, "restore", true)
	if err != nil || !ok {
		return total, err
	}

	for _, a := range o.adapters {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		st, err := o.pull(ctx, a, owner, nil)
		total.add(st)
		if err != nil {
			return total, err
		}
	}
	o.log.Info(ctx, "restore finished", "op", "restore", "owner", owner,
		"pulled", total.Pulled, "skipped", total.Skipped, "failed", total.Failed)

	if o.catalog != nil {
		if _, err := o.catalog.SeedIfEmpty(ctx); err != nil {
			o.log.Error(ctx, "catalog seeding failed", "op", "restore", "error", err)
		}
	}
	return total, nil
}

// FullSync pushes then pulls each table before moving on to the next one.
// Pulls start from the table's watermark unless opts.Initial is set.
func (o *Orchestrator) FullSync(ctx context.Context, opts SyncOptions) (Stats, error) {
	unlock, err := o.acquire()
	if err != nil {
		return Stats{}, err
	}
	defer unlock()

	var total Stats
	owner, ok, err := o.owner(ctx, "sync", true)
	if err != nil || !ok {
		return total, err
	}

	for _, a := range o.adapters {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		st, err := a.Push(ctx, owner)
		total.add(st)
		if err != nil {
			return total, err
		}

		var since *time.Time
		if !opts.Initial {
			if since, err = o.watermark(ctx, owner, a.Table()); err != nil {
				return total, err
			}
		}
		st, err = o.pull(ctx, a, owner, since)
		total.add(st)
		if err != nil {
			return total, err
		}
	}
	o.log.Info(ctx, "sync finished", "op", "sync", "owner", owner, "initial", opts.Initial,
		"pushed", total.Pushed, "pulled", total.Pulled, "skipped", total.Skipped, "failed", total.Failed)
	return total, nil
}

// pull runs one table's pull and advances its watermark. A failed remote
// select is counted and logged; only cancellation and local storage errors
// stop the caller.
func (o *Orchestrator) pull(ctx context.Context, a tableSyncer, owner string, since *time.Time) (Stats, error) {
	st, high, err := a.Pull(ctx, owner, since)
	if err != nil {
		if ctx.Err() != nil {
			return st, ctx.Err()
		}
		st.Failed++
		o.log.Error(ctx, "pull failed", "op", "pull", "owner", owner, "table", a.Table(), "error", err)
		return st, nil
	}
	if err := o.marks.Advance(ctx, owner, a.Table(), high); err != nil {
		return st, err
	}
	return st, nil
}

// Pending counts the owner's unsynced rows per table. It works offline.
func (o *Orchestrator) Pending(ctx context.Context, owner string) (PendingSummary, error) {
	return pending(ctx, o.adapters, owner)
}
