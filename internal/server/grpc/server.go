// Package grpc exposes the sync service over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/services"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
	"google.golang.org/grpc"
)

// UserService is the account side of the server.
type UserService interface {
	Register(ctx context.Context, r services.Registration) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	WhoAmI(ctx context.Context, userID string) (*models.User, error)
}

// RowStore is the owner-scoped row store and the catalog.
type RowStore interface {
	Upsert(ctx context.Context, userID, table string, row map[string]any) error
	Select(ctx context.Context, userID, table, ownerID string, since *time.Time) ([]map[string]any, error)
	Catalog(ctx context.Context) ([]map[string]any, error)
}

// SnapshotIssuer hands out upload targets for database snapshots.
type SnapshotIssuer interface {
	SnapshotURL(ctx context.Context, ownerID string) (*syncrpc.SnapshotTarget, error)
}

type GRPCServer struct {
	syncrpc.UnimplementedSyncServiceServer
	address   string
	users     UserService
	store     RowStore
	snapshots SnapshotIssuer
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us UserService, rs RowStore, si SnapshotIssuer, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		store:     rs,
		snapshots: si,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	syncrpc.RegisterSyncServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
