package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/config"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/possync/internal/server/repositories/rows"
	"github.com/dmitrijs2005/possync/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "possync",
	}
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User

	createErr error
	getErr    error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byName == nil {
		f.byName = map[string]*models.User{}
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.byName[u.UserName] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byName[login]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken

	findErr   error
	delErr    error
	createErr error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = map[string]*models.RefreshToken{}
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(f.tokens, token)
	return nil
}

type fakeRowsRepo struct {
	mu    sync.Mutex
	data  map[string]map[string]*models.Row
	clock time.Time

	upsertErr error
	selectErr error
}

func (f *fakeRowsRepo) Upsert(ctx context.Context, table string, r *models.Row) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		f.data = map[string]map[string]*models.Row{}
	}
	if f.data[table] == nil {
		f.data[table] = map[string]*models.Row{}
	}
	if old, ok := f.data[table][r.ID]; ok && old.OwnerID != r.OwnerID {
		return common.ErrOwnerMismatch
	}
	f.clock = f.clock.Add(time.Millisecond)
	stored := *r
	stored.ReceivedAt = f.clock
	f.data[table][r.ID] = &stored
	return nil
}

func (f *fakeRowsRepo) Select(ctx context.Context, table, ownerID string, since *time.Time) ([]*models.Row, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Row
	for _, r := range f.data[table] {
		if r.OwnerID != ownerID {
			continue
		}
		if since != nil && !r.ReceivedAt.After(*since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

type fakeCatalogRepo struct {
	items []*models.CatalogItem

	listErr error
}

func (f *fakeCatalogRepo) List(ctx context.Context) ([]*models.CatalogItem, error) {
	return f.items, f.listErr
}

func (f *fakeCatalogRepo) InsertMissing(ctx context.Context, items []*models.CatalogItem) (int, error) {
	added := 0
	for _, it := range items {
		found := false
		for _, have := range f.items {
			if have.Barcode == it.Barcode {
				found = true
				break
			}
		}
		if !found {
			f.items = append(f.items, it)
			added++
		}
	}
	return added, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	w *fakeRowsRepo
	c *fakeCatalogRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}, w: &fakeRowsRepo{}, c: &fakeCatalogRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Rows(db dbx.DBTX) rows.Repository                   { return m.w }
func (m *fakeRepoManager) Catalog(db dbx.DBTX) catalog.Repository             { return m.c }
