package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/services"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// toStatus maps service errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrOwnerMismatch):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrUnknownTable):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func identity(u *models.User) *syncrpc.Identity {
	return &syncrpc.Identity{
		UserID:      u.ID,
		Username:    u.UserName,
		DisplayName: u.DisplayName,
		StoreName:   u.StoreName,
	}
}

func tokens(p *services.TokenPair) *syncrpc.Tokens {
	return &syncrpc.Tokens{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, UserID: p.UserID}
}

func encode(v any) (*structpb.Struct, error) {
	s, err := syncrpc.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return s, nil
}

func decode(in *structpb.Struct, v any) error {
	if err := syncrpc.Decode(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encodeRows(rows []map[string]any) (*structpb.ListValue, error) {
	l, err := syncrpc.EncodeRows(rows)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return l, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("OK"), nil
}

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req syncrpc.Credentials
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	u, err := s.users.Register(ctx, services.Registration{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		StoreName:   req.StoreName,
	})
	if err != nil {
		s.logger.Warn(ctx, "Registration failed", "username", req.Username, "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", u.UserName, "owner", u.ID)
	return encode(identity(u))
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req syncrpc.Credentials
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	pair, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Error(ctx, "Login failed", "username", req.Username, "error", err)
		}
		return nil, toStatus(err)
	}
	return encode(tokens(pair))
}

func (s *GRPCServer) RefreshToken(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	pair, err := s.users.RefreshToken(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(tokens(pair))
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.users.WhoAmI(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(identity(u))
}

func (s *GRPCServer) Upsert(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req syncrpc.UpsertRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.Row == nil {
		return nil, status.Error(codes.InvalidArgument, "row is required")
	}

	if err := s.store.Upsert(ctx, userID, req.Table, req.Row); err != nil {
		s.logger.Warn(ctx, "Upsert failed", "table", req.Table, "id", req.Row["id"], "owner", userID, "error", err)
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Select(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req syncrpc.SelectRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	rows, err := s.store.Select(ctx, userID, req.Table, req.OwnerID, req.Since)
	if err != nil {
		s.logger.Warn(ctx, "Select failed", "table", req.Table, "owner", userID, "error", err)
		return nil, toStatus(err)
	}
	return encodeRows(rows)
}

func (s *GRPCServer) Catalog(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	items, err := s.store.Catalog(ctx)
	if err != nil {
		s.logger.Error(ctx, "Catalog failed", "error", err)
		return nil, toStatus(err)
	}
	return encodeRows(items)
}

func (s *GRPCServer) SnapshotURL(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.snapshots.SnapshotURL(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "Snapshot URL failed", "owner", userID, "error", err)
		return nil, toStatus(err)
	}
	return encode(target)
}
