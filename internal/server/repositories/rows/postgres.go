package rows

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func tableIdent(table string) (string, error) {
	if !common.IsSyncedTable(table) {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownTable, table)
	}
	return pgx.Identifier{table}.Sanitize(), nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, table string, row *models.Row) error {
	t, err := tableIdent(table)
	if err != nil {
		return err
	}
	data, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	query := `INSERT INTO ` + t + ` (id, owner_id, updated_at, is_deleted, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET updated_at = EXCLUDED.updated_at, is_deleted = EXCLUDED.is_deleted, data = EXCLUDED.data,
			received_at = clock_timestamp()
		WHERE ` + t + `.owner_id = EXCLUDED.owner_id`

	res, err := r.db.ExecContext(ctx, query, row.ID, row.OwnerID, row.UpdatedAt, row.IsDeleted, string(data))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s[%s]", common.ErrOwnerMismatch, table, row.ID)
	}
	return nil
}

func (r *PostgresRepository) Select(ctx context.Context, table, ownerID string, since *time.Time) ([]*models.Row, error) {
	t, err := tableIdent(table)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, owner_id, updated_at, is_deleted, received_at, data FROM ` + t + ` WHERE owner_id = $1`
	args := []any{ownerID}
	if since != nil {
		query += ` AND received_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY received_at, id`

	rs, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rs.Close()

	var out []*models.Row
	for rs.Next() {
		var (
			row  models.Row
			data []byte
		)
		if err := rs.Scan(&row.ID, &row.OwnerID, &row.UpdatedAt, &row.IsDeleted, &row.ReceivedAt, &data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(data, &row.Data); err != nil {
			return nil, fmt.Errorf("decode %s[%s]: %w", table, row.ID, err)
		}
		out = append(out, &row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
