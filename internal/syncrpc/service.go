// Package syncrpc defines the gRPC contract between POS devices and the
// remote store. Messages are protobuf well-known types so no code generation
// step is needed; typed views over them live in messages.go.
package syncrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "possync.v1.SyncService"

const (
	SyncService_Ping_FullMethodName         = "/" + ServiceName + "/Ping"
	SyncService_Register_FullMethodName     = "/" + ServiceName + "/Register"
	SyncService_Login_FullMethodName        = "/" + ServiceName + "/Login"
	SyncService_RefreshToken_FullMethodName = "/" + ServiceName + "/RefreshToken"
	SyncService_WhoAmI_FullMethodName       = "/" + ServiceName + "/WhoAmI"
	SyncService_Upsert_FullMethodName       = "/" + ServiceName + "/Upsert"
	SyncService_Select_FullMethodName       = "/" + ServiceName + "/Select"
	SyncService_Catalog_FullMethodName      = "/" + ServiceName + "/Catalog"
	SyncService_SnapshotURL_FullMethodName  = "/" + ServiceName + "/SnapshotURL"
)

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	SyncService_Ping_FullMethodName:         true,
	SyncService_Register_FullMethodName:     true,
	SyncService_Login_FullMethodName:        true,
	SyncService_RefreshToken_FullMethodName: true,
}

// SyncServiceClient is the client API for the sync service.
type SyncServiceClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RefreshToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	WhoAmI(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Select(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Catalog(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	SnapshotURL(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type syncServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSyncServiceClient(cc grpc.ClientConnInterface) SyncServiceClient {
	return &syncServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *syncServiceClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, SyncService_Ping_FullMethodName, in, opts)
}

func (c *syncServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_Register_FullMethodName, in, opts)
}

func (c *syncServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_Login_FullMethodName, in, opts)
}

func (c *syncServiceClient) RefreshToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_RefreshToken_FullMethodName, in, opts)
}

func (c *syncServiceClient) WhoAmI(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_WhoAmI_FullMethodName, in, opts)
}

func (c *syncServiceClient) Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, SyncService_Upsert_FullMethodName, in, opts)
}

func (c *syncServiceClient) Select(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, SyncService_Select_FullMethodName, in, opts)
}

func (c *syncServiceClient) Catalog(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, SyncService_Catalog_FullMethodName, in, opts)
}

func (c *syncServiceClient) SnapshotURL(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, SyncService_SnapshotURL_FullMethodName, in, opts)
}

// SyncServiceServer is the server API for the sync service.
type SyncServiceServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Upsert(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Select(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	Catalog(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	SnapshotURL(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedSyncServiceServer can be embedded to have forward compatible implementations.
type UnimplementedSyncServiceServer struct{}

func (UnimplementedSyncServiceServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedSyncServiceServer) Register(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedSyncServiceServer) Login(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedSyncServiceServer) RefreshToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedSyncServiceServer) WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method WhoAmI not implemented")
}
func (UnimplementedSyncServiceServer) Upsert(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Upsert not implemented")
}
func (UnimplementedSyncServiceServer) Select(context.Context, *structpb.Struct) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Select not implemented")
}
func (UnimplementedSyncServiceServer) Catalog(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Catalog not implemented")
}
func (UnimplementedSyncServiceServer) SnapshotURL(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SnapshotURL not implemented")
}

// RegisterSyncServiceServer attaches srv to s.
func RegisterSyncServiceServer(s grpc.ServiceRegistrar, srv SyncServiceServer) {
	s.RegisterService(&SyncService_ServiceDesc, srv)
}

// unary adapts a typed server method to a grpc.MethodHandler.
func unary[Req proto.Message, Resp any](fullMethod string, call func(SyncServiceServer, context.Context, Req) (Resp, error), newReq func() Req) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SyncServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SyncServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// SyncService_ServiceDesc is the grpc.ServiceDesc for the sync service.
var SyncService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SyncServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(SyncService_Ping_FullMethodName, SyncServiceServer.Ping, newEmpty)},
		{MethodName: "Register", Handler: unary(SyncService_Register_FullMethodName, SyncServiceServer.Register, newStruct)},
		{MethodName: "Login", Handler: unary(SyncService_Login_FullMethodName, SyncServiceServer.Login, newStruct)},
		{MethodName: "RefreshToken", Handler: unary(SyncService_RefreshToken_FullMethodName, SyncServiceServer.RefreshToken, newString)},
		{MethodName: "WhoAmI", Handler: unary(SyncService_WhoAmI_FullMethodName, SyncServiceServer.WhoAmI, newEmpty)},
		{MethodName: "Upsert", Handler: unary(SyncService_Upsert_FullMethodName, SyncServiceServer.Upsert, newStruct)},
		{MethodName: "Select", Handler: unary(SyncService_Select_FullMethodName, SyncServiceServer.Select, newStruct)},
		{MethodName: "Catalog", Handler: unary(SyncService_Catalog_FullMethodName, SyncServiceServer.Catalog, newEmpty)},
		{MethodName: "SnapshotURL", Handler: unary(SyncService_SnapshotURL_FullMethodName, SyncServiceServer.SnapshotURL, newEmpty)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "possync/v1/sync.proto",
}
