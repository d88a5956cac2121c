// Package server wires the gRPC surface: the standard health service and the credential service,
// behind the auth, audit, and telemetry interceptors.
package server

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/yuriscavalcante/rh360/internal/audit"
	"github.com/yuriscavalcante/rh360/internal/credential/domain"
	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/guard"
	healthhandler "github.com/yuriscavalcante/rh360/internal/health/handler"
	"github.com/yuriscavalcante/rh360/internal/server/interceptors"
	"github.com/yuriscavalcante/rh360/internal/telemetry"
)

// HealthInterval is how often the health service status is refreshed.
const HealthInterval = 10 * time.Second

// Deps holds optional dependencies for the gRPC server.
type Deps struct {
	// Sessions backs CredentialService and the auth interceptor. If nil, CredentialService RPCs return Unimplemented
	// and protected methods are rejected.
	Sessions Sessions
	// Audit records authenticated RPCs. If nil, no RPCs are audited.
	Audit audit.AuditLogger
	// Events receives one event per RPC. If nil, none are emitted.
	Events telemetry.EventEmitter
	// Health drives the grpc.health.v1 status. If nil, the server always reports SERVING.
	Health *healthhandler.Checker
}

// PublicMethods are the full method names that need no bearer credential.
func PublicMethods() map[string]bool {
	return map[string]bool{
		"/grpc.health.v1.Health/Check": true,
		"/grpc.health.v1.Health/Watch": true,
		"/grpc.health.v1.Health/List":  true,
		MethodValidate:                 true,
	}
}

// NewServer builds a *grpc.Server with otelgrpc instrumentation, the interceptor chain, and all services registered.
// The returned health server is updated by RunHealth; callers may also set statuses directly.
func NewServer(deps Deps) (*grpc.Server, *health.Server) {
	public := PublicMethods()
	skip := map[string]bool{
		"/grpc.health.v1.Health/Check": true,
		"/grpc.health.v1.Health/Watch": true,
		"/grpc.health.v1.Health/List":  true,
	}
	var sessionGuard *guard.Guard
	if deps.Sessions != nil {
		sessionGuard = guard.Session(deps.Sessions)
	} else {
		sessionGuard = guard.Session(unconfigured{})
	}
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.ClientIPUnary(),
			interceptors.AuthUnary(sessionGuard, public),
			interceptors.AuditUnary(deps.Audit, skip),
			interceptors.TelemetryUnary(deps.Events, skip),
		),
		grpc.ChainStreamInterceptor(
			interceptors.AuthStream(sessionGuard, public),
		),
	)
	hs := RegisterServices(s, deps)
	return s, hs
}

// RegisterServices registers the health and credential services with s and returns the health server.
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) *health.Server {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	s.RegisterService(&CredentialServiceDesc, NewCredentialServer(deps.Sessions))
	hs.SetServingStatus(CredentialServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// RunHealth refreshes hs from checker until ctx is done. Without a checker it returns immediately.
func RunHealth(ctx context.Context, hs *health.Server, checker *healthhandler.Checker) {
	if checker == nil {
		return
	}
	checker.Watch(ctx, hs, HealthInterval, CredentialServiceName)
}

// unconfigured rejects every credential when no session authority is wired.
type unconfigured struct{}

func (unconfigured) Validate(context.Context, string) (credservice.Result, error) {
	return credservice.Result{Reason: domain.ReasonNotFound}, nil
}
