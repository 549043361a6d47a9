package rows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	upsertQ      = `(?s)^INSERT\s+INTO\s+"products"\s+\(id,\s*owner_id,\s*updated_at,\s*is_deleted,\s*data\).*ON\s+CONFLICT\s+\(id\)\s+DO\s+UPDATE.*received_at\s*=\s*clock_timestamp\(\)\s+WHERE\s+"products"\.owner_id\s*=\s*EXCLUDED\.owner_id$`
	selectAllQ   = `(?s)^SELECT\s+id,\s*owner_id,\s*updated_at,\s*is_deleted,\s*received_at,\s*data\s+FROM\s+"sales"\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+received_at,\s*id$`
	selectSinceQ = `(?s)^SELECT\s+.*FROM\s+"sales"\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+received_at\s*>\s*\$2\s+ORDER\s+BY\s+received_at,\s*id$`
)

var (
	owner = "5f0c2a4e-5a0b-4d8e-9d6b-0b9c1e2f3a4b"
	at    = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestUpsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	row := &models.Row{ID: "p1", OwnerID: owner, UpdatedAt: at, Data: map[string]any{"id": "p1", "name": "Cola"}}

	mock.ExpectExec(upsertQ).
		WithArgs("p1", owner, at, false, `{"id":"p1","name":"Cola"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), "products", row))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_ForeignOwnerRowUntouched(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	row := &models.Row{ID: "p1", OwnerID: owner, UpdatedAt: at, Data: map[string]any{}}

	mock.ExpectExec(upsertQ).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Upsert(context.Background(), "products", row)
	assert.ErrorIs(t, err, common.ErrOwnerMismatch)
}

func TestUpsert_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	row := &models.Row{ID: "p1", OwnerID: owner, UpdatedAt: at, Data: map[string]any{}}

	err := repo.Upsert(context.Background(), "users", row)
	assert.ErrorIs(t, err, common.ErrUnknownTable)

	mock.ExpectExec(upsertQ).WillReturnError(errors.New("db down"))
	err = repo.Upsert(context.Background(), "products", row)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestSelect(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	cols := []string{"id", "owner_id", "updated_at", "is_deleted", "received_at", "data"}
	received := at.Add(time.Hour)

	mock.ExpectQuery(selectAllQ).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", owner, at, false, received, []byte(`{"id":"s1","total":"3.00"}`)).
			AddRow("s2", owner, at.Add(time.Second), true, received.Add(time.Second), []byte(`{"id":"s2","is_deleted":true}`)))

	got, err := repo.Select(context.Background(), "sales", owner, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3.00", got[0].Data["total"])
	assert.Equal(t, received, got[0].ReceivedAt)
	assert.NotContains(t, got[0].Data, common.ReceivedAtField)
	assert.True(t, got[1].IsDeleted)

	since := at
	mock.ExpectQuery(selectSinceQ).
		WithArgs(owner, since).
		WillReturnRows(sqlmock.NewRows(cols))

	got, err = repo.Select(context.Background(), "sales", owner, &since)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.Select(context.Background(), "nope", owner, nil)
	assert.ErrorIs(t, err, common.ErrUnknownTable)

	mock.ExpectQuery(selectAllQ).WithArgs(owner).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "updated_at", "is_deleted", "received_at", "data"}).
			AddRow("s1", owner, at, false, at, []byte(`not json`)))

	_, err = repo.Select(context.Background(), "sales", owner, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode sales[s1]")
}
