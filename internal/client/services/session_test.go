package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/repositories/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_NoSessionAtAll(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.gate.Resolve(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, 0, f.remote.Calls("WhoAmI"))
}

func TestResolve_LiveRefreshesCache(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.remote.Identity.StoreName = "Corner Shop"
	f.remote.SetTokens("a1", "r1")

	f.clock.advance(time.Minute)
	res, err := f.gate.Resolve(ctx)
	require.NoError(t, err)
	assert.True(t, res.Live)
	assert.Equal(t, f.remote.Identity.UserID, res.Session.UserID)
	assert.Equal(t, "a1", res.Session.AccessToken)
	assert.Equal(t, base.Add(time.Minute), res.Session.ValidatedAt)

	p, err := profile.NewSQLiteRepository(f.db).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, p.StoreName)
	assert.Equal(t, "Corner Shop", *p.StoreName)
	assert.Nil(t, p.DisplayName)
}

func TestResolve_UsesCachedTokensWhenClientHasNone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.OnlineLogin(ctx, "cashier", []byte("secret"))
	require.NoError(t, err)
	f.remote.SetTokens("", "")

	res, err := f.gate.Resolve(ctx)
	require.NoError(t, err)
	assert.True(t, res.Live)
	access, _ := f.remote.Tokens()
	assert.Equal(t, "access-cashier", access)
}

func TestResolve_OfflineFallsBackToCache(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.OnlineLogin(ctx, "cashier", []byte("secret"))
	require.NoError(t, err)
	f.remote.Unavailable = true
	f.clock.advance(30 * time.Minute)

	res, err := f.gate.Resolve(ctx)
	require.NoError(t, err)
	assert.False(t, res.Live)
	assert.Equal(t, f.remote.Identity.UserID, res.Session.UserID)
	assert.Equal(t, base, res.Session.ValidatedAt)
}

func TestResolve_OfflineWithExpiredCache(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.OnlineLogin(ctx, "cashier", []byte("secret"))
	require.NoError(t, err)
	f.remote.Unavailable = true
	f.clock.advance(2 * time.Hour)

	_, err = f.gate.Resolve(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestResolve_ServerRejects(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.OnlineLogin(ctx, "cashier", []byte("secret"))
	require.NoError(t, err)
	f.remote.WhoAmIErr = client.ErrUnauthorized

	_, err = f.gate.Resolve(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestResolve_OtherErrorsAreWrapped(t *testing.T) {
	f := newAuthFixture(t)
	boom := errors.New("boom")
	f.remote.SetTokens("a", "r")
	f.remote.WhoAmIErr = boom

	_, err := f.gate.Resolve(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestSession_Valid(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Valid(base))
	s := &Session{UserID: "u", ExpiresAt: base.Add(time.Second)}
	assert.True(t, s.Valid(base))
	assert.False(t, s.Valid(base.Add(time.Second)))
	assert.False(t, (&Session{ExpiresAt: base.Add(time.Hour)}).Valid(base))
}

func TestPingProber(t *testing.T) {
	f := newAuthFixture(t)
	p := NewPingProber(f.remote, 0)
	assert.Equal(t, DefaultProbeTimeout, p.timeout)
	assert.True(t, p.Online(context.Background()))

	f.remote.Unavailable = true
	assert.False(t, p.Online(context.Background()))
}
