// Package catalog stores the shared product catalog. It is not
// owner-partitioned and devices only ever read it.
package catalog

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.CatalogItem, error)
	// InsertMissing adds items whose barcode is not known yet and reports
	// how many were added. Existing entries are left as they are.
	InsertMissing(ctx context.Context, items []*models.CatalogItem) (int, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.CatalogItem, error) {
	rs, err := r.db.QueryContext(ctx, `SELECT barcode, name, category FROM catalog ORDER BY barcode`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rs.Close()

	var out []*models.CatalogItem
	for rs.Next() {
		it := &models.CatalogItem{}
		if err := rs.Scan(&it.Barcode, &it.Name, &it.Category); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, it)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) InsertMissing(ctx context.Context, items []*models.CatalogItem) (int, error) {
	query := `INSERT INTO catalog (barcode, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (barcode) DO NOTHING`

	added := 0
	for _, it := range items {
		res, err := r.db.ExecContext(ctx, query, it.Barcode, it.Name, it.Category)
		if err != nil {
			return added, fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("db error: %w", err)
		}
		added += int(n)
	}
	return added, nil
}
