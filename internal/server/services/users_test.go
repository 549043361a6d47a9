package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/auth"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T, rm *fakeRepoManager) (*UserService, *fakeRepoManager) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	s := NewUserService(db, rm, testConfig())
	s.bcryptCost = bcrypt.MinCost
	return s, rm
}

func register(t *testing.T, s *UserService, name, password string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), Registration{Username: name, Password: password, StoreName: "Corner Shop"})
	require.NoError(t, err)
	return u
}

func TestRegister_HashesPassword(t *testing.T) {
	s, rm := newUserService(t, newFakeRepoManager())

	u := register(t, s, "cashier", "secret")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Corner Shop", u.StoreName)

	stored := rm.u.byName["cashier"]
	require.NotNil(t, stored)
	assert.NotEqual(t, []byte("secret"), stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("secret")))
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newUserService(t, newFakeRepoManager())

	_, err := s.Register(context.Background(), Registration{Username: "cashier", Password: "123"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Register(context.Background(), Registration{Password: "secret"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestRegister_Duplicate(t *testing.T) {
	s, _ := newUserService(t, newFakeRepoManager())
	register(t, s, "cashier", "secret")

	_, err := s.Register(context.Background(), Registration{Username: "cashier", Password: "secret"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestLogin_Flows(t *testing.T) {
	s, rm := newUserService(t, newFakeRepoManager())
	u := register(t, s, "cashier", "secret")
	ctx := context.Background()

	_, err := s.Login(ctx, "ghost", "secret")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "cashier", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	pair, err := s.Login(ctx, "cashier", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, pair.UserID)
	assert.Len(t, rm.r.tokens, 1)

	got, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, got)

	rm.u.getErr = errBoom
	_, err = s.Login(ctx, "cashier", "secret")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefreshToken_RotatesOnce(t *testing.T) {
	rm := newFakeRepoManager()
	db, mock := newSQLMockDB(t)
	s := NewUserService(db, rm, testConfig())
	s.bcryptCost = bcrypt.MinCost
	register(t, s, "cashier", "secret")

	pair, err := s.Login(context.Background(), "cashier", "secret")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	next, err := s.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.Equal(t, pair.UserID, next.UserID)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = s.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshToken_Expired(t *testing.T) {
	rm := newFakeRepoManager()
	rm.r.tokens = map[string]*models.RefreshToken{
		"r": {UserID: "u1", Token: "r", Expires: time.Now().Add(-time.Minute)},
	}
	s, _ := newUserService(t, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestRefreshToken_FindErr(t *testing.T) {
	rm := newFakeRepoManager()
	rm.r.findErr = errBoom
	s, _ := newUserService(t, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "error searching refresh token")
}

func TestRefreshToken_DeleteErrRollsBack(t *testing.T) {
	rm := newFakeRepoManager()
	rm.r.tokens = map[string]*models.RefreshToken{
		"r": {UserID: "u1", Token: "r", Expires: time.Now().Add(time.Minute)},
	}
	rm.r.delErr = errBoom
	db, mock := newSQLMockDB(t)
	s := NewUserService(db, rm, testConfig())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.RefreshToken(context.Background(), "r")
	assert.ErrorIs(t, err, errBoom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_CreateErrRollsBack(t *testing.T) {
	rm := newFakeRepoManager()
	rm.r.tokens = map[string]*models.RefreshToken{
		"r": {UserID: "u1", Token: "r", Expires: time.Now().Add(time.Minute)},
	}
	rm.r.createErr = errBoom
	db, mock := newSQLMockDB(t)
	s := NewUserService(db, rm, testConfig())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.RefreshToken(context.Background(), "r")
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWhoAmI(t *testing.T) {
	s, rm := newUserService(t, newFakeRepoManager())
	u := register(t, s, "cashier", "secret")

	got, err := s.WhoAmI(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "cashier", got.UserName)

	_, err = s.WhoAmI(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	rm.u.getErr = errBoom
	_, err = s.WhoAmI(context.Background(), u.ID)
	assert.ErrorIs(t, err, errBoom)
}
