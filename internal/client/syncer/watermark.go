package syncer

import (
	"context"
	"time"
)

// watermark returns the newest remote receive time already pulled for the
// table, or nil before the first pull.
func (o *Orchestrator) watermark(ctx context.Context, owner, table string) (*time.Time, error) {
	return o.marks.Get(ctx, owner, table)
}

// Watermarks lists the stored watermark of every table that has one.
func (o *Orchestrator) Watermarks(ctx context.Context, owner string) (map[string]time.Time, error) {
	return o.marks.All(ctx, owner)
}

// ResetWatermarks forgets the owner's watermarks so the next sync pulls
// everything again.
func (o *Orchestrator) ResetWatermarks(ctx context.Context, owner string) error {
	return o.marks.Reset(ctx, owner)
}
