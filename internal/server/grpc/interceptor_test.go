package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/auth"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func callInterceptor(t *testing.T, ctx context.Context, method string) (string, error) {
	t.Helper()
	s, _, _ := newTestServer()
	var seen string
	h := func(ctx context.Context, req any) (any, error) {
		seen, _ = ctx.Value(userIDKey).(string)
		return "ok", nil
	}
	_, err := s.accessTokenInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, h)
	return seen, err
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, token))
}

func TestInterceptor_PublicMethodsPassThrough(t *testing.T) {
	for method := range syncrpc.PublicMethods {
		_, err := callInterceptor(t, context.Background(), method)
		assert.NoError(t, err, method)
	}
}

func TestInterceptor_MissingToken(t *testing.T) {
	_, err := callInterceptor(t, context.Background(), syncrpc.SyncService_Upsert_FullMethodName)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "missing token", st.Message())
}

func TestInterceptor_ValidToken(t *testing.T) {
	tok, err := auth.GenerateToken("u1", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	seen, err := callInterceptor(t, withToken(tok), syncrpc.SyncService_Select_FullMethodName)
	require.NoError(t, err)
	assert.Equal(t, "u1", seen)
}

func TestInterceptor_ExpiredToken(t *testing.T) {
	tok, err := auth.GenerateToken("u1", []byte(testSecret), -time.Second)
	require.NoError(t, err)

	_, err = callInterceptor(t, withToken(tok), syncrpc.SyncService_WhoAmI_FullMethodName)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, common.ErrTokenExpired.Error(), st.Message())
}

func TestInterceptor_BadSignature(t *testing.T) {
	tok, err := auth.GenerateToken("u1", []byte("other"), time.Hour)
	require.NoError(t, err)

	_, err = callInterceptor(t, withToken(tok), syncrpc.SyncService_Catalog_FullMethodName)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, common.ErrInvalidToken.Error(), st.Message())
}
