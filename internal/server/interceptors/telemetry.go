package interceptors

import (
	"context"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/yuriscavalcante/rh360/internal/guard"
	"github.com/yuriscavalcante/rh360/internal/telemetry"
	"github.com/yuriscavalcante/rh360/internal/telemetry/domain"
)

// EventGRPCRequest is emitted once per RPC.
const EventGRPCRequest = "grpc.request"

// TelemetryUnary returns a unary server interceptor that emits a security event after each RPC.
// Best-effort: failures are logged and do not fail the RPC. If emitter is nil, the interceptor no-ops.
// skipMethods is the set of full method names to not emit (e.g. health checks).
func TelemetryUnary(emitter telemetry.EventEmitter, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if emitter == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		event := &domain.SecurityEvent{
			Type:   EventGRPCRequest,
			Source: "grpc_interceptor",
			Attributes: map[string]string{
				"full_method": info.FullMethod,
				"status_code": status.Code(err).String(),
				"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
				"client_ip":   ClientIP(ctx),
			},
			CreatedAt: time.Now().UTC(),
		}
		if p, ok := guard.PrincipalFrom(ctx); ok {
			event.PrincipalID = p.ID
		}
		telemetry.EmitAsync(emitter, event)
		return resp, err
	}
}
