package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/entities"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/transcode"
)

// tableSyncer is what the orchestrator needs from an Adapter regardless of
// its entity type.
type tableSyncer interface {
	Table() string
	Policy() Policy
	Push(ctx context.Context, owner string) (Stats, error)
	Pull(ctx context.Context, owner string, since *time.Time) (Stats, time.Time, error)
	Pending(ctx context.Context, owner string) (int, error)
}

// Adapter syncs one local table with its remote counterpart.
type Adapter[E any, P entities.Entity[E]] struct {
	table  *entities.Table[E, P]
	remote client.Client
	policy Policy
	now    func() time.Time
	log    logging.Logger
}

func NewAdapter[E any, P entities.Entity[E]](table *entities.Table[E, P], remote client.Client, policy Policy, log logging.Logger) *Adapter[E, P] {
	return &Adapter[E, P]{
		table:  table,
		remote: remote,
		policy: policy,
		now:    time.Now,
		log:    log.With("table", table.Name()),
	}
}

func (a *Adapter[E, P]) Table() string  { return a.table.Name() }
func (a *Adapter[E, P]) Policy() Policy { return a.policy }

func (a *Adapter[E, P]) Pending(ctx context.Context, owner string) (int, error) {
	return a.table.CountUnsynced(ctx, owner)
}

// Push uploads the owner's pending rows, soft-deleted ones included, and
// stamps each acknowledged row. A row edited while its push was in flight
// stays pending.
func (a *Adapter[E, P]) Push(ctx context.Context, owner string) (Stats, error) {
	var st Stats
	rows, err := a.table.ListUnsynced(ctx, owner)
	if err != nil {
		return st, err
	}

	for _, e := range rows {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		meta := e.Meta()

		if err := a.upsert(ctx, e); err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			st.Failed++
			a.log.Error(ctx, "push failed", "op", "push", "owner", owner, "id", meta.ID, "error", err)
			if a.policy == FailFast {
				return st, fmt.Errorf("%w: %s[%s]: %w", ErrFatalPush, a.table.Name(), meta.ID, err)
			}
			continue
		}

		stamped, err := a.table.MarkSynced(ctx, meta.ID, meta.UpdatedAt, models.Now(a.now()))
		if err != nil {
			return st, err
		}
		if !stamped {
			a.log.Debug(ctx, "row changed during push, left pending", "op", "push", "owner", owner, "id", meta.ID)
		}
		st.Pushed++
	}

	if st.Pushed > 0 || st.Failed > 0 {
		a.log.Info(ctx, "push finished", "op", "push", "owner", owner, "pushed", st.Pushed, "failed", st.Failed)
	}
	return st, nil
}

func (a *Adapter[E, P]) upsert(ctx context.Context, e P) error {
	row, err := transcode.ToRow(e)
	if err != nil {
		return err
	}
	remote := transcode.ToRemote(row)
	delete(remote, "synced_at")
	return a.remote.Upsert(ctx, a.table.Name(), remote)
}

// Pull downloads the owner's remote rows, tombstones included, received by
// the remote store after since (all of them when since is nil). A remote row
// replaces the local one when the local row is missing or strictly older.
// The returned time is the newest remote receive time seen, so a peer's row
// uploaded late is still picked up even when its updatedAt is old. It is
// zero when any row failed so that the caller does not move its watermark
// past the failure.
func (a *Adapter[E, P]) Pull(ctx context.Context, owner string, since *time.Time) (Stats, time.Time, error) {
	var (
		st   Stats
		high time.Time
	)
	rows, err := a.remote.Select(ctx, a.table.Name(), owner, since)
	if err != nil {
		return st, high, err
	}

	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return st, time.Time{}, err
		}
		received := receivedAt(r)
		pulled, err := a.pullRow(ctx, owner, r)
		switch {
		case err != nil:
			st.Failed++
			a.log.Error(ctx, "pull failed", "op", "pull", "owner", owner, "id", r["id"], "error", err)
		case pulled:
			st.Pulled++
		default:
			st.Skipped++
		}
		if err == nil && received.After(high) {
			high = received
		}
	}

	if st.Failed > 0 {
		high = time.Time{}
	}
	if len(rows) > 0 {
		a.log.Info(ctx, "pull finished", "op", "pull", "owner", owner,
			"pulled", st.Pulled, "skipped", st.Skipped, "failed", st.Failed)
	}
	return st, high, nil
}

// receivedAt removes the remote receive time from row and returns it. A row
// without one yields the zero time and does not move the watermark.
func receivedAt(row map[string]any) time.Time {
	v, ok := row[common.ReceivedAtField]
	if !ok {
		return time.Time{}
	}
	delete(row, common.ReceivedAtField)
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := dbx.ParseTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (a *Adapter[E, P]) pullRow(ctx context.Context, owner string, remote map[string]any) (bool, error) {
	local := transcode.ToLocal(remote)
	if err := transcode.Check(a.table.Name(), local); err != nil {
		a.log.Warn(ctx, "remote row has unregistered fields", "op", "pull", "owner", owner, "id", remote["id"], "error", err)
	}
	delete(local, "syncedAt")

	e, err := transcode.FromRow[E](local)
	if err != nil {
		return false, err
	}
	incoming := P(e)
	meta := incoming.Meta()
	if meta.OwnerID != owner {
		return false, fmt.Errorf("%w: row %s", common.ErrOwnerMismatch, meta.ID)
	}

	existing, err := a.table.GetByID(ctx, meta.ID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
	case err != nil:
		return false, err
	case !meta.UpdatedAt.After(existing.Meta().UpdatedAt):
		return false, nil
	}

	at := models.Now(a.now())
	if at.Before(meta.UpdatedAt) {
		at = meta.UpdatedAt
	}
	meta.SyncedAt = &at
	if err := a.table.Put(ctx, incoming); err != nil {
		return false, err
	}
	return true, nil
}
