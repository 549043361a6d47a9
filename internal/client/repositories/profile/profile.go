// Package profile keeps the single cached profile of the signed-in user.
package profile

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
	Get(ctx context.Context) (*models.UserProfile, error)
	Save(ctx context.Context, p *models.UserProfile) error
	Clear(ctx context.Context) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns common.ErrorNotFound when nobody has signed in yet.
func (r *SQLiteRepository) Get(ctx context.Context) (*models.UserProfile, error) {
	var (
		p              models.UserProfile
		display, store sql.NullString
		updatedAt      string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, store_name, updated_at FROM user_profile LIMIT 1`).
		Scan(&p.ID, &p.Username, &display, &store, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	if display.Valid {
		p.DisplayName = &display.String
	}
	if store.Valid {
		p.StoreName = &store.String
	}
	if p.UpdatedAt, err = dbx.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return &p, nil
}

// Save replaces the cached profile; at most one row is ever kept.
func (r *SQLiteRepository) Save(ctx context.Context, p *models.UserProfile) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_profile WHERE id <> ?`, p.ID); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profile (id, username, display_name, store_name, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			store_name = excluded.store_name,
			updated_at = excluded.updated_at
	`, p.ID, p.Username, nullString(p.DisplayName), nullString(p.StoreName), dbx.FormatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_profile`); err != nil {
		return fmt.Errorf("failed to clear user profile: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
