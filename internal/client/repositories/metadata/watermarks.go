package metadata

import (
	"context"
	"strings"
	"time"
)

// watermarkPrefix namespaces pull positions. Positions are remote receive
// times; values written under the earlier "watermark:" keys held device
// updatedAt values and are ignored.
const watermarkPrefix = "pull:"

// Watermarks stores, per owner and table, the newest remote receive time
// already pulled.
type Watermarks struct {
	r Repository
}

func NewWatermarks(r Repository) *Watermarks {
	return &Watermarks{r: r}
}

func ownerPrefix(owner string) string {
	return watermarkPrefix + owner + ":"
}

func watermarkKey(owner, table string) string {
	return ownerPrefix(owner) + table
}

// Get returns the table's position, or nil before the first pull.
func (w *Watermarks) Get(ctx context.Context, owner, table string) (*time.Time, error) {
	t, err := GetTime(ctx, w.r, watermarkKey(owner, table))
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

// Advance moves the table's position to t. A position never moves back.
func (w *Watermarks) Advance(ctx context.Context, owner, table string, t time.Time) error {
	if t.IsZero() {
		return nil
	}
	cur, err := w.Get(ctx, owner, table)
	if err != nil {
		return err
	}
	if cur != nil && !t.After(*cur) {
		return nil
	}
	return SetTime(ctx, w.r, watermarkKey(owner, table), t)
}

// All returns the owner's positions keyed by table.
func (w *Watermarks) All(ctx context.Context, owner string) (map[string]time.Time, error) {
	pairs, err := w.r.List(ctx, ownerPrefix(owner))
	if err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(pairs))
	for key := range pairs {
		table := strings.TrimPrefix(key, ownerPrefix(owner))
		t, err := w.Get(ctx, owner, table)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out[table] = *t
		}
	}
	return out, nil
}

// Reset forgets the owner's positions so the next pull starts from scratch.
func (w *Watermarks) Reset(ctx context.Context, owner string) error {
	return w.r.DeletePrefix(ctx, ownerPrefix(owner))
}
