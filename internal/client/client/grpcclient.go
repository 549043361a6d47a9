package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sethvargo/go-retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	DefaultRPCTimeout    = 10 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryBase     = 200 * time.Millisecond
)

type Options struct {
	RPCTimeout    time.Duration
	RetryAttempts uint64
	RetryBase     time.Duration
	DialOptions   []grpc.DialOption
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      syncrpc.SyncServiceClient

	rpcTimeout    time.Duration
	retryAttempts uint64
	retryBase     time.Duration
	now           func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// accessTokenExpired reads exp from the cached token without verifying it;
// only the server can verify the signature.
func (s *GRPCClient) accessTokenExpired(token string) bool {
	if token == "" {
		return false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(s.clock())
}

func (s *GRPCClient) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) error {
	resp, err := s.client.RefreshToken(ctx, wrapperspb.String(refreshToken))
	if err != nil {
		return err
	}
	var tokens syncrpc.Tokens
	if err := syncrpc.Decode(resp, &tokens); err != nil {
		return err
	}
	s.SetTokens(tokens.AccessToken, tokens.RefreshToken)
	return nil
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if syncrpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.Tokens()
	if refresh != "" && s.accessTokenExpired(access) {
		if err := s.refresh(ctx, refresh); err != nil {
			return err
		}
		access, refresh = s.Tokens()
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	if err := s.refresh(ctx, refresh); err != nil {
		return err
	}

	access, _ = s.Tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// NewPosSyncClient dials endpointURL lazily; no network traffic happens
// until the first call.
func NewPosSyncClient(endpointURL string, o Options) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL:   endpointURL,
		rpcTimeout:    o.RPCTimeout,
		retryAttempts: o.RetryAttempts,
		retryBase:     o.RetryBase,
	}
	if c.rpcTimeout <= 0 {
		c.rpcTimeout = DefaultRPCTimeout
	}
	if c.retryBase <= 0 {
		c.retryBase = DefaultRetryBase
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, o.DialOptions...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = syncrpc.NewSyncServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// call runs fn with a per-attempt timeout, retrying while the server is
// unavailable. The returned error is already mapped.
func (s *GRPCClient) call(ctx context.Context, fn func(ctx context.Context) error) error {
	timeout := s.rpcTimeout
	if timeout <= 0 {
		timeout = DefaultRPCTimeout
	}
	base := s.retryBase
	if base <= 0 {
		base = DefaultRetryBase
	}
	b := retry.WithMaxRetries(s.retryAttempts, retry.NewExponential(base))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := s.mapError(fn(cctx))
		if errors.Is(err, ErrUnavailable) && ctx.Err() == nil {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp *wrapperspb.StringValue
	err := s.call(ctx, func(ctx context.Context) (err error) {
		resp, err = s.client.Ping(ctx, &emptypb.Empty{})
		return err
	})
	if err != nil {
		return err
	}
	if resp.GetValue() != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, creds syncrpc.Credentials) (*syncrpc.Identity, error) {
	req, err := syncrpc.Encode(creds)
	if err != nil {
		return nil, err
	}
	var id syncrpc.Identity
	err = s.call(ctx, func(ctx context.Context) error {
		resp, err := s.client.Register(ctx, req)
		if err != nil {
			return err
		}
		return syncrpc.Decode(resp, &id)
	})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *GRPCClient) Login(ctx context.Context, username, password string) (*syncrpc.Tokens, error) {
	req, err := syncrpc.Encode(syncrpc.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var tokens syncrpc.Tokens
	err = s.call(ctx, func(ctx context.Context) error {
		resp, err := s.client.Login(ctx, req)
		if err != nil {
			return err
		}
		return syncrpc.Decode(resp, &tokens)
	})
	if err != nil {
		return nil, err
	}
	s.SetTokens(tokens.AccessToken, tokens.RefreshToken)
	return &tokens, nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*syncrpc.Identity, error) {
	var id syncrpc.Identity
	err := s.call(ctx, func(ctx context.Context) error {
		resp, err := s.client.WhoAmI(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		return syncrpc.Decode(resp, &id)
	})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *GRPCClient) Upsert(ctx context.Context, table string, row map[string]any) error {
	req, err := syncrpc.Encode(syncrpc.UpsertRequest{Table: table, Row: row})
	if err != nil {
		return err
	}
	return s.call(ctx, func(ctx context.Context) error {
		_, err := s.client.Upsert(ctx, req)
		return err
	})
}

func (s *GRPCClient) Select(ctx context.Context, table, ownerID string, since *time.Time) ([]map[string]any, error) {
	req, err := syncrpc.Encode(syncrpc.SelectRequest{Table: table, OwnerID: ownerID, Since: since})
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	err = s.call(ctx, func(ctx context.Context) error {
		resp, err := s.client.Select(ctx, req)
		if err != nil {
			return err
		}
		rows, err = syncrpc.DecodeRows(resp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GRPCClient) Catalog(ctx context.Context) ([]map[string]any, error) {
	var rows []map[string]any
	err := s.call(ctx, func(ctx context.Context) error {
		resp, err := s.client.Catalog(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		rows, err = syncrpc.DecodeRows(resp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GRPCClient) SnapshotURL(ctx context.Context) (*syncrpc.SnapshotTarget, error) {
	var target syncrpc.SnapshotTarget
	err := s.call(ctx, func(ctx context.Context) error {
		resp, err := s.client.SnapshotURL(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		return syncrpc.Decode(resp, &target)
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrUnavailable
		}
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
