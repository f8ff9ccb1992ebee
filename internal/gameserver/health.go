package gameserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/holdout/internal/server"
)

// HealthServiceName is the service name reported on the gRPC health endpoint.
const HealthServiceName = "holdout.Session"

// HealthReporter publishes the session phase as gRPC serving status: SERVING while a
// session is running, NOT_SERVING before Begin and after victory.
type HealthReporter struct {
	srv   *health.Server
	phase func() Phase

	mu   sync.Mutex
	last healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthReporter creates a reporter that reads phase on every Tick.
//
// Precondition: srv and phase must be non-nil.
func NewHealthReporter(srv *health.Server, phase func() Phase) *HealthReporter {
	h := &HealthReporter{srv: srv, phase: phase, last: healthpb.HealthCheckResponse_UNKNOWN}
	h.Tick(time.Time{})
	return h
}

func servingStatus(p Phase) healthpb.HealthCheckResponse_ServingStatus {
	switch p {
	case PhaseIdle, PhaseVictory:
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// Tick updates the serving status when the phase maps to a new one.
func (h *HealthReporter) Tick(time.Time) {
	status := servingStatus(h.phase())
	h.mu.Lock()
	defer h.mu.Unlock()
	if status == h.last {
		return
	}
	h.last = status
	h.srv.SetServingStatus(HealthServiceName, status)
}

// NewGRPCService wraps srv as a lifecycle service listening on addr.
//
// Precondition: srv and logger must be non-nil.
func NewGRPCService(addr string, srv *grpc.Server, logger *zap.Logger) *server.FuncService {
	return &server.FuncService{
		StartFn: func(context.Context) error {
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			logger.Info("gRPC health endpoint listening", zap.String("addr", lis.Addr().String()))
			return srv.Serve(lis)
		},
		StopFn: srv.GracefulStop,
	}
}
