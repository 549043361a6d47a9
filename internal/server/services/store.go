package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// StoreService is the owner-scoped row store behind Upsert and Select, plus
// the shared catalog.
type StoreService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
	log         logging.Logger
}

func NewStoreService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *StoreService {
	return &StoreService{
		db:          db,
		repomanager: m,
		validate:    validator.New(),
		log:         log,
	}
}

// Upsert stores a remote-shape row on behalf of userID. The row must name
// userID as its owner. A received_at sent by the device is dropped; the
// store sets its own.
func (s *StoreService) Upsert(ctx context.Context, userID, table string, row map[string]any) error {
	if !common.IsSyncedTable(table) {
		return fmt.Errorf("%w: %q", common.ErrUnknownTable, table)
	}
	delete(row, common.ReceivedAtField)

	h, err := readHeader(row)
	if err != nil {
		return err
	}
	if err := s.validate.Struct(h); err != nil {
		return fmt.Errorf("%w: %s[%v]: %v", common.ErrorValidation, table, row["id"], err)
	}
	if h.OwnerID != userID {
		return fmt.Errorf("%w: %s[%s]", common.ErrOwnerMismatch, table, h.ID)
	}

	r := &models.Row{
		ID:        h.ID,
		OwnerID:   h.OwnerID,
		UpdatedAt: h.UpdatedAt,
		IsDeleted: h.IsDeleted,
		Data:      row,
	}
	if err := s.repomanager.Rows(s.db).Upsert(ctx, table, r); err != nil {
		s.log.Warn(ctx, "upsert rejected", "table", table, "id", h.ID, "owner", userID, "error", err)
		return err
	}
	s.log.Debug(ctx, "row stored", "table", table, "id", h.ID, "owner", userID)
	return nil
}

// Select returns ownerID's rows of table received after since, each carrying
// its received_at. Callers may only read their own rows.
func (s *StoreService) Select(ctx context.Context, userID, table, ownerID string, since *time.Time) ([]map[string]any, error) {
	if !common.IsSyncedTable(table) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownTable, table)
	}
	if ownerID != userID {
		return nil, fmt.Errorf("%w: select %s", common.ErrOwnerMismatch, table)
	}

	rs, err := s.repomanager.Rows(s.db).Select(ctx, table, ownerID, since)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rs))
	for _, r := range rs {
		m := maps.Clone(r.Data)
		if m == nil {
			m = map[string]any{}
		}
		m[common.ReceivedAtField] = dbx.FormatTime(r.ReceivedAt)
		out = append(out, m)
	}
	return out, nil
}

// Catalog returns every catalog item.
func (s *StoreService) Catalog(ctx context.Context) ([]map[string]any, error) {
	items, err := s.repomanager.Catalog(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		m := map[string]any{"barcode": it.Barcode, "name": it.Name}
		if it.Category != nil {
			m["category"] = *it.Category
		}
		out = append(out, m)
	}
	return out, nil
}

// SeedCatalog loads a JSON array of catalog items from path and adds the
// ones whose barcode is not stored yet. Invalid items fail the whole seed.
func (s *StoreService) SeedCatalog(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog seed: %w", err)
	}
	var items []*models.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("parse catalog seed: %w", err)
	}
	for i, it := range items {
		if err := s.validate.Struct(it); err != nil {
			return 0, fmt.Errorf("%w: catalog item %d: %v", common.ErrorValidation, i, err)
		}
	}

	var added int
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Catalog(tx).InsertMissing(ctx, items)
		added = n
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "catalog seeded", "file", path, "items", len(items), "added", added)
	return added, nil
}

func readHeader(row map[string]any) (models.RowHeader, error) {
	var h models.RowHeader
	var err error

	if h.ID, err = stringField(row, "id"); err != nil {
		return h, err
	}
	if h.OwnerID, err = stringField(row, "owner_id"); err != nil {
		return h, err
	}
	if h.CreatedAt, err = timeField(row, "created_at"); err != nil {
		return h, err
	}
	if h.UpdatedAt, err = timeField(row, "updated_at"); err != nil {
		return h, err
	}
	switch v := row["is_deleted"].(type) {
	case nil:
	case bool:
		h.IsDeleted = v
	default:
		return h, fmt.Errorf("%w: is_deleted must be a boolean", common.ErrorValidation)
	}
	return h, nil
}

func stringField(row map[string]any, key string) (string, error) {
	switch v := row[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s must be a string", common.ErrorValidation, key)
	}
}

func timeField(row map[string]any, key string) (time.Time, error) {
	s, err := stringField(row, key)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := dbx.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", common.ErrorValidation, key, err)
	}
	return t, nil
}
