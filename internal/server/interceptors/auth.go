package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/yuriscavalcante/rh360/internal/guard"
)

const bearerPrefix = "bearer "

// AuthUnary returns a unary server interceptor that checks the Bearer token from gRPC metadata
// with g and puts the principal in context for protected RPCs.
// publicMethods is the set of full method names that do not require a Bearer token
// (e.g. the grpc.health.v1 methods).
func AuthUnary(g *guard.Guard, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		p, err := g.Check(ctx, extractBearer(ctx))
		if err != nil {
			return nil, statusFor(err)
		}
		return handler(guard.WithPrincipal(ctx, p), req)
	}
}

// AuthStream is AuthUnary for streaming RPCs.
func AuthStream(g *guard.Guard, publicMethods map[string]bool) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if publicMethods[info.FullMethod] {
			return handler(srv, ss)
		}
		p, err := g.Check(ss.Context(), extractBearer(ss.Context()))
		if err != nil {
			return statusFor(err)
		}
		return handler(srv, &principalStream{ServerStream: ss, ctx: guard.WithPrincipal(ss.Context(), p)})
	}
}

type principalStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *principalStream) Context() context.Context { return s.ctx }

func statusFor(err error) error {
	if errors.Is(err, guard.ErrUnavailable) {
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	}
	return status.Error(codes.Unauthenticated, guard.GenericMessage)
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
