package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/transcode"
)

// CatalogService keeps the shared barcode catalog on the device.
type CatalogService struct {
	client client.Client
	db     *sql.DB
	log    logging.Logger
}

func NewCatalogService(c client.Client, db *sql.DB, log logging.Logger) *CatalogService {
	return &CatalogService{client: c, db: db, log: log}
}

// SeedIfEmpty downloads the catalog when the local copy is empty. It reports
// how many items were stored.
func (s *CatalogService) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := catalog.NewSQLiteRepository(s.db).Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	rows, err := s.client.Catalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("download catalog: %w", err)
	}
	items := make([]models.CatalogItem, 0, len(rows))
	for _, r := range rows {
		local := transcode.ToLocal(r)
		if err := transcode.Check(transcode.TableCatalog, local); err != nil {
			s.log.Warn(ctx, "catalog item has unregistered fields", "error", err)
		}
		it, err := transcode.FromRow[models.CatalogItem](local)
		if err != nil {
			return 0, err
		}
		if err := models.Validate(it); err != nil {
			s.log.Warn(ctx, "skipping invalid catalog item", "error", err)
			continue
		}
		items = append(items, *it)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return catalog.NewSQLiteRepository(tx).ReplaceAll(ctx, items)
	})
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "catalog seeded", "items", len(items))
	return len(items), nil
}

// Lookup finds a catalog item by barcode.
func (s *CatalogService) Lookup(ctx context.Context, barcode string) (*models.CatalogItem, error) {
	return catalog.NewSQLiteRepository(s.db).Lookup(ctx, barcode)
}
