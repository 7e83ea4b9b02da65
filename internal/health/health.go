// Package health exposes the standard gRPC health service so process
// supervisors can probe the coach without speaking HTTP.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the coach.
const ServiceName = "coach.v1.Coach"

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves grpc.health.v1 and mirrors the store's reachability into the
// reported status.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	store  Pinger
	logger *slog.Logger
}

// NewServer creates a health server. Status starts NOT_SERVING until the
// first check passes.
func NewServer(store Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{grpc: gs, health: hs, store: store, logger: logger}
}

// Check pings the store and updates the reported status.
func (s *Server) Check(ctx context.Context) bool {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("gRPC health: store unreachable", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status == healthpb.HealthCheckResponse_SERVING
}

// Run checks the store every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	s.Check(ctx)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Check(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("serve grpc health: %w", err)
	}
	return nil
}

// Stop marks the service as shutting down and stops the server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
