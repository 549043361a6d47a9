// Package catalog stores the shared barcode reference data on the device.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
)

type Repository interface {
	Lookup(ctx context.Context, barcode string) (*models.CatalogItem, error)
	Count(ctx context.Context) (int, error)
	ReplaceAll(ctx context.Context, items []models.CatalogItem) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Lookup returns common.ErrorNotFound for an unknown barcode.
func (r *SQLiteRepository) Lookup(ctx context.Context, barcode string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	var category sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT barcode, name, category FROM catalog WHERE barcode = ?`, barcode).
		Scan(&item.Barcode, &item.Name, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up catalog[%s]: %w", barcode, err)
	}
	if category.Valid {
		item.Category = &category.String
	}
	return &item, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	return n, nil
}

// ReplaceAll swaps the whole catalog. Run it inside a transaction so readers
// never observe a partial catalog.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, items []models.CatalogItem) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM catalog`); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	for _, it := range items {
		var category sql.NullString
		if it.Category != nil {
			category = sql.NullString{String: *it.Category, Valid: true}
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO catalog (barcode, name, category) VALUES (?, ?, ?)
			ON CONFLICT(barcode) DO UPDATE SET name = excluded.name, category = excluded.category
		`, it.Barcode, it.Name, category)
		if err != nil {
			return fmt.Errorf("failed to insert catalog[%s]: %w", it.Barcode, err)
		}
	}
	return nil
}
