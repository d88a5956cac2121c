package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/yuriscavalcante/rh360/internal/audit"
	"github.com/yuriscavalcante/rh360/internal/guard"
)

// ClientIPUnary stores the caller address in context so audit entries written further down carry it.
func ClientIPUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(audit.WithClientIP(ctx, ClientIP(ctx)), req)
	}
}

// AuditUnary returns a unary server interceptor that records an audit entry after each authenticated RPC.
// skipMethods is the set of full method names to not audit (e.g. health checks).
// Best-effort: the logger swallows failures. Only writes when a principal is in context.
func AuditUnary(logger audit.AuditLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if logger == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		p, ok := guard.PrincipalFrom(ctx)
		if !ok {
			return resp, err
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		logger.LogEvent(ctx, p.ID, ar.Action, ar.Resource, "")
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return audit.UnknownIP
}
