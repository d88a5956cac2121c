package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/guard"
)

// CredentialServiceName is the gRPC service exposing session checks.
// Messages are protobuf well-known types, so no generated code is needed.
const CredentialServiceName = "rh360.credential.v1.CredentialService"

// Full method names.
const (
	MethodValidate       = "/" + CredentialServiceName + "/Validate"
	MethodWhoAmI         = "/" + CredentialServiceName + "/WhoAmI"
	MethodRevokeSessions = "/" + CredentialServiceName + "/RevokeSessions"
)

// Sessions is the part of the session authority the gRPC surface needs.
type Sessions interface {
	Validate(ctx context.Context, token string) (credservice.Result, error)
	RevokeAll(ctx context.Context, principalID string) (int64, error)
}

// CredentialServiceServer is the server API for CredentialService.
type CredentialServiceServer interface {
	// Validate reports whether the session token in the request is valid. Public.
	Validate(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	// WhoAmI returns the caller's principal as {userId, email, role}.
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// RevokeSessions deactivates every credential of the caller and returns how many were active.
	RevokeSessions(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
}

// CredentialServer implements CredentialServiceServer over a session authority.
type CredentialServer struct {
	sessions Sessions
}

// NewCredentialServer returns a CredentialServer. If sessions is nil, every RPC returns Unimplemented.
func NewCredentialServer(sessions Sessions) *CredentialServer {
	return &CredentialServer{sessions: sessions}
}

func (s *CredentialServer) Validate(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s.sessions == nil {
		return nil, status.Error(codes.Unimplemented, "method Validate not implemented")
	}
	if req.GetValue() == "" {
		return wrapperspb.Bool(false), nil
	}
	res, err := s.sessions.Validate(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(res.OK()), nil
}

func (s *CredentialServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, ok := guard.PrincipalFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, guard.GenericMessage)
	}
	return structpb.NewStruct(map[string]interface{}{
		"userId": p.ID,
		"email":  p.Email,
		"role":   p.Role,
	})
}

func (s *CredentialServer) RevokeSessions(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	if s.sessions == nil {
		return nil, status.Error(codes.Unimplemented, "method RevokeSessions not implemented")
	}
	p, ok := guard.PrincipalFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, guard.GenericMessage)
	}
	n, err := s.sessions.RevokeAll(ctx, p.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(n), nil
}

func toStatus(err error) error {
	if errors.Is(err, credservice.ErrUnavailable) {
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	}
	return status.Error(codes.Internal, "internal error")
}

func _CredentialService_Validate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CredentialServiceServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodValidate}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CredentialServiceServer).Validate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _CredentialService_WhoAmI_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CredentialServiceServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodWhoAmI}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CredentialServiceServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _CredentialService_RevokeSessions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CredentialServiceServer).RevokeSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRevokeSessions}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CredentialServiceServer).RevokeSessions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// CredentialServiceDesc is the grpc.ServiceDesc for CredentialService.
var CredentialServiceDesc = grpc.ServiceDesc{
	ServiceName: CredentialServiceName,
	HandlerType: (*CredentialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: _CredentialService_Validate_Handler},
		{MethodName: "WhoAmI", Handler: _CredentialService_WhoAmI_Handler},
		{MethodName: "RevokeSessions", Handler: _CredentialService_RevokeSessions_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rh360/credential/v1/credential.proto",
}
