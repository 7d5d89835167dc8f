// Package grpcapi serves the standard grpc.health.v1 service so
// orchestrators can probe the process over gRPC.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/zhank48/ultfpeb-sub004/internal/logging"
)

// Service names reported by the health server. The empty name is the
// overall process status.
const (
	ServiceOverall     = ""
	ServiceStore       = "frontdesk.store"
	ServiceConsistency = "frontdesk.consistency"
)

type Server struct {
	addr   string
	grpc   *grpc.Server
	health *health.Server
	logger logrus.FieldLogger
}

// NewServer registers the health service. Every service starts NOT_SERVING
// until a probe reports otherwise.
func NewServer(addr string, logger logrus.FieldLogger) *Server {
	s := &Server{
		addr:   addr,
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		logger: logging.OrDiscard(logger),
	}
	for _, svc := range []string{ServiceOverall, ServiceStore, ServiceConsistency} {
		s.health.SetServingStatus(svc, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// SetServing updates one service and recomputes the overall status, which
// follows the store.
func (s *Server) SetServing(service string, ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
	if service == ServiceStore {
		s.health.SetServingStatus(ServiceOverall, st)
	}
}

// Status returns the current status of service.
func (s *Server) Status(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_SERVICE_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.WithField("addr", lis.Addr().String()).Info("grpc listening")
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown marks everything NOT_SERVING and stops gracefully, forcing the
// stop if ctx expires first.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}
