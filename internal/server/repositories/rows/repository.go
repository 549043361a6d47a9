// Package rows stores the owner-partitioned POS rows of the remote store.
// Each synced table keeps the full remote-shape row as JSONB next to the
// columns used for ownership and incremental reads.
package rows

import (
	"context"
	"time"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

type Repository interface {
	// Upsert inserts r or replaces the stored row with the same id and
	// stamps it with the current database time. A row owned by someone else
	// is left untouched and common.ErrOwnerMismatch is returned.
	Upsert(ctx context.Context, table string, r *models.Row) error

	// Select returns the owner's rows, soft-deleted ones included, ordered by
	// received_at. A non-nil since keeps only rows received strictly after it.
	Select(ctx context.Context, table, ownerID string, since *time.Time) ([]*models.Row, error)
}
