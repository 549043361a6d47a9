// Package entities stores the owner-partitioned POS tables on the device.
//
// One generic Table serves every entity; the column set comes from the
// transcode field registry, so the local SQL columns are exactly the remote
// field names.
package entities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/transcode"
)

// Entity is satisfied by a pointer to a model embedding models.Base.
type Entity[E any] interface {
	*E
	models.Syncable
}

type Table[E any, P Entity[E]] struct {
	db     dbx.DBTX
	name   string
	fields []transcode.Field
	now    func() time.Time

	columns   string
	selectSQL string
	upsertSQL string
}

// NewTable binds a model type to one of the synchronised tables.
func NewTable[E any, P Entity[E]](db dbx.DBTX, name string) (*Table[E, P], error) {
	if !common.IsSyncedTable(name) {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownTable, name)
	}
	fields, err := transcode.Fields(name)
	if err != nil {
		return nil, err
	}

	t := &Table[E, P]{db: db, name: name, fields: fields, now: time.Now}

	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	sets := make([]string, 0, len(fields)-1)
	for i, f := range fields {
		c := quote(f.Column())
		cols[i] = c
		marks[i] = "?"
		if f.Name != "id" {
			sets = append(sets, c+" = excluded."+c)
		}
	}
	t.columns = strings.Join(cols, ", ")
	t.selectSQL = "SELECT " + t.columns + " FROM " + quote(name)
	t.upsertSQL = "INSERT INTO " + quote(name) + " (" + t.columns + ") VALUES (" + strings.Join(marks, ", ") +
		") ON CONFLICT(\"id\") DO UPDATE SET " + strings.Join(sets, ", ")
	return t, nil
}

func quote(ident string) string {
	return `"` + ident + `"`
}

// Name returns the table name.
func (t *Table[E, P]) Name() string { return t.name }

// WithTx returns a copy of the table bound to tx.
func (t *Table[E, P]) WithTx(tx dbx.DBTX) *Table[E, P] {
	c := *t
	c.db = tx
	return &c
}

// WithClock returns a copy of the table that stamps mutations using now.
func (t *Table[E, P]) WithClock(now func() time.Time) *Table[E, P] {
	c := *t
	c.now = now
	return &c
}

// Save records a local mutation: updatedAt moves to now and syncedAt is
// cleared so the row is picked up by the next push.
func (t *Table[E, P]) Save(ctx context.Context, e P) error {
	e.Meta().Touch(t.now())
	return t.write(ctx, e)
}

// Put stores e exactly as given. It is used when the remote version of a
// row replaces the local one.
func (t *Table[E, P]) Put(ctx context.Context, e P) error {
	return t.write(ctx, e)
}

func (t *Table[E, P]) write(ctx context.Context, e P) error {
	if err := models.Validate(e); err != nil {
		return err
	}
	row, err := transcode.ToRow(e)
	if err != nil {
		return err
	}
	args := make([]any, len(t.fields))
	for i, f := range t.fields {
		if args[i], err = encodeValue(f, row[f.Name]); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
	}
	if _, err := t.db.ExecContext(ctx, t.upsertSQL, args...); err != nil {
		return fmt.Errorf("failed to write %s[%s]: %w", t.name, e.Meta().ID, err)
	}
	return nil
}

func (t *Table[E, P]) scan(s interface{ Scan(...any) error }) (P, error) {
	raw := make([]any, len(t.fields))
	dest := make([]any, len(t.fields))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(transcode.Row, len(t.fields))
	for i, f := range t.fields {
		v, err := decodeValue(f, raw[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.name, err)
		}
		row[f.Name] = v
	}
	e, err := transcode.FromRow[E](row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.name, err)
	}
	return P(e), nil
}

func (t *Table[E, P]) query(ctx context.Context, where string, args ...any) ([]P, error) {
	rows, err := t.db.QueryContext(ctx, t.selectSQL+" WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	var out []P
	for rows.Next() {
		e, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.name, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", t.name, err)
	}
	return out, nil
}

// GetByID returns common.ErrorNotFound when no row has the id.
func (t *Table[E, P]) GetByID(ctx context.Context, id string) (P, error) {
	e, err := t.scan(t.db.QueryRowContext(ctx, t.selectSQL+` WHERE "id" = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", t.name, id, err)
	}
	return e, nil
}

// ListByOwner returns the owner's rows, optionally including soft-deleted ones.
func (t *Table[E, P]) ListByOwner(ctx context.Context, ownerID string, includeDeleted bool) ([]P, error) {
	if includeDeleted {
		return t.query(ctx, `"owner_id" = ? ORDER BY "created_at", "id"`, ownerID)
	}
	return t.query(ctx, `"owner_id" = ? AND "is_deleted" = 0 ORDER BY "created_at", "id"`, ownerID)
}

// ListUnsynced returns the owner's rows the remote store has not
// acknowledged. Soft-deleted rows are included so deletions propagate.
func (t *Table[E, P]) ListUnsynced(ctx context.Context, ownerID string) ([]P, error) {
	return t.query(ctx, `"owner_id" = ? AND "synced_at" IS NULL ORDER BY "updated_at", "id"`, ownerID)
}

// CountUnsynced counts what ListUnsynced would return.
func (t *Table[E, P]) CountUnsynced(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+quote(t.name)+` WHERE "owner_id" = ? AND "synced_at" IS NULL`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced %s: %w", t.name, err)
	}
	return n, nil
}

// MarkSynced stamps syncedAt on the row only if it still holds the version
// identified by updatedAt. It reports whether the row was stamped; a row
// edited after it was pushed stays pending.
func (t *Table[E, P]) MarkSynced(ctx context.Context, id string, updatedAt, at time.Time) (bool, error) {
	if at.Before(updatedAt) {
		at = updatedAt
	}
	res, err := t.db.ExecContext(ctx,
		`UPDATE `+quote(t.name)+` SET "synced_at" = ? WHERE "id" = ? AND "updated_at" = ?`,
		dbx.FormatTime(at), id, dbx.FormatTime(updatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to mark %s[%s] synced: %w", t.name, id, err)
	}
	if err := dbx.ExpectRowsAffected(res, 1); err != nil {
		if errors.Is(err, dbx.ErrUnexpectedRowsAffected) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SoftDelete flags the row as deleted. The deletion is a regular mutation
// and is pushed like any other change.
func (t *Table[E, P]) SoftDelete(ctx context.Context, id string) error {
	e, err := t.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Meta().IsDeleted {
		return nil
	}
	e.Meta().IsDeleted = true
	return t.Save(ctx, e)
}
