package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/auth"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/services"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
	"github.com/google/uuid"
)

const testSecret = "secret"

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeUsers struct {
	mu        sync.Mutex
	accessTTL time.Duration
	byName    map[string]*models.User
	passwords map[string]string
	refresh   map[string]string

	refreshCalls int
	err          error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		accessTTL: time.Hour,
		byName:    map[string]*models.User{},
		passwords: map[string]string{},
		refresh:   map[string]string{},
	}
}

func (f *fakeUsers) issue(userID string) (*services.TokenPair, error) {
	access, err := auth.GenerateToken(userID, []byte(testSecret), f.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh := uuid.NewString()
	f.refresh[refresh] = userID
	return &services.TokenPair{AccessToken: access, RefreshToken: refresh, UserID: userID}, nil
}

func (f *fakeUsers) Register(ctx context.Context, r services.Registration) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if r.Username == "" {
		return nil, fmt.Errorf("%w: username", common.ErrorValidation)
	}
	if _, ok := f.byName[r.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u := &models.User{ID: uuid.NewString(), UserName: r.Username, DisplayName: r.DisplayName, StoreName: r.StoreName}
	f.byName[r.Username] = u
	f.passwords[r.Username] = r.Password
	return u, nil
}

func (f *fakeUsers) Login(ctx context.Context, userName, password string) (*services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[userName]
	if !ok || f.passwords[userName] != password {
		return nil, common.ErrorUnauthorized
	}
	return f.issue(u.ID)
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	userID, ok := f.refresh[refreshToken]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	delete(f.refresh, refreshToken)
	f.accessTTL = time.Hour
	return f.issue(userID)
}

func (f *fakeUsers) WhoAmI(ctx context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, common.ErrorUnauthorized
}

type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]map[string]map[string]any
	catalog []map[string]any
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]map[string]map[string]any{}}
}

func (f *fakeStore) Upsert(ctx context.Context, userID, table string, row map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if !common.IsSyncedTable(table) {
		return common.ErrUnknownTable
	}
	if row["owner_id"] != userID {
		return common.ErrOwnerMismatch
	}
	if f.rows[table] == nil {
		f.rows[table] = map[string]map[string]any{}
	}
	f.rows[table][fmt.Sprint(row["id"])] = row
	return nil
}

func (f *fakeStore) Select(ctx context.Context, userID, table, ownerID string, since *time.Time) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if ownerID != userID {
		return nil, common.ErrOwnerMismatch
	}
	var out []map[string]any
	for _, r := range f.rows[table] {
		if r["owner_id"] != ownerID {
			continue
		}
		if since != nil {
			ts, err := dbx.ParseTime(fmt.Sprint(r["updated_at"]))
			if err != nil || !ts.After(*since) {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Catalog(ctx context.Context) ([]map[string]any, error) {
	return f.catalog, f.err
}

type fakeSnapshots struct {
	err error
}

func (f *fakeSnapshots) SnapshotURL(ctx context.Context, ownerID string) (*syncrpc.SnapshotTarget, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := services.SnapshotKey(ownerID, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return &syncrpc.SnapshotTarget{Key: key, URL: "http://s3.local/" + key}, nil
}

func newTestServer() (*GRPCServer, *fakeUsers, *fakeStore) {
	us, st := newFakeUsers(), newFakeStore()
	return NewGRPCServer("127.0.0.1:0", nopLogger{}, us, st, &fakeSnapshots{}, testSecret), us, st
}

func authed(userID string) context.Context {
	return context.WithValue(context.Background(), userIDKey, userID)
}
