package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StatusSetter is the part of *health.Server the checker drives.
type StatusSetter interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

var _ StatusSetter = (*health.Server)(nil)

// Sync runs one probe and publishes the result for the overall server ("") and each named service.
func (c *Checker) Sync(ctx context.Context, s StatusSetter, services ...string) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if err := c.Check(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.SetServingStatus("", st)
	for _, name := range services {
		s.SetServingStatus(name, st)
	}
	return st
}

// Watch calls Sync every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, s StatusSetter, interval time.Duration, services ...string) {
	c.Sync(ctx, s, services...)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sync(ctx, s, services...)
		}
	}
}
