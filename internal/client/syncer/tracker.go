package syncer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/repositories/entities"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
)

// PendingSummary holds unsynced row counts per table.
type PendingSummary struct {
	Tables []string
	Counts map[string]int
}

func (p PendingSummary) Total() int {
	n := 0
	for _, c := range p.Counts {
		n += c
	}
	return n
}

func (p PendingSummary) HasPending() bool {
	return p.Total() > 0
}

// Tracker answers "is anything waiting to be pushed" without touching the
// network. The counts use the pending partial indexes.
type Tracker struct {
	adapters []tableSyncer
}

func NewTracker(db dbx.DBTX) (*Tracker, error) {
	set, err := entities.NewSet(db)
	if err != nil {
		return nil, err
	}
	return &Tracker{adapters: newAdapters(set, nil, time.Now, logging.Discard())}, nil
}

func (t *Tracker) Pending(ctx context.Context, owner string) (PendingSummary, error) {
	return pending(ctx, t.adapters, owner)
}

func pending(ctx context.Context, adapters []tableSyncer, owner string) (PendingSummary, error) {
	s := PendingSummary{Counts: make(map[string]int, len(adapters))}
	for _, a := range adapters {
		n, err := a.Pending(ctx, owner)
		if err != nil {
			return PendingSummary{}, err
		}
		s.Tables = append(s.Tables, a.Table())
		s.Counts[a.Table()] = n
	}
	return s, nil
}
