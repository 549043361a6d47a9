package transcode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID        string     `json:"id"`
	SortOrder int        `json:"sortOrder"`
	SyncedAt  *time.Time `json:"syncedAt"`
	IsDeleted bool       `json:"isDeleted"`
}

func TestToRowFromRow(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := sample{ID: "a", SortOrder: 3, SyncedAt: &ts, IsDeleted: true}

	row, err := ToRow(in)
	require.NoError(t, err)
	assert.Equal(t, "a", row["id"])
	assert.Equal(t, float64(3), row["sortOrder"])
	assert.Equal(t, true, row["isDeleted"])

	out, err := FromRow[sample](row)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.SortOrder, out.SortOrder)
	require.NotNil(t, out.SyncedAt)
	assert.True(t, ts.Equal(*out.SyncedAt))
}

func TestFromRow_NullTime(t *testing.T) {
	out, err := FromRow[sample](Row{"id": "b", "syncedAt": nil})
	require.NoError(t, err)
	assert.Nil(t, out.SyncedAt)
}

func TestFromRow_TypeMismatch(t *testing.T) {
	_, err := FromRow[sample](Row{"sortOrder": "three"})
	require.Error(t, err)
}
