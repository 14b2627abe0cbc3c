// Package grpc exposes the gRPC health and reflection services used by
// orchestrators to monitor the widget backend.
package grpc

import (
	"context"
	"sort"
	"sync"
	"time"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Belphemur/DoubanRecommend/internal/config"
)

// ServiceName is the health service name reported for the whole backend.
const ServiceName = "douban.v1.Recommend"

const checkTimeout = 3 * time.Second

var (
	grpcServerMetrics         *grpcprom.ServerMetrics
	registerServerMetricsOnce sync.Once
)

// HealthCheck reports whether a dependency is usable. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Server is a gRPC server whose health status follows a set of checks.
// Each check is exposed as its own health service, and ServiceName and the
// empty service reflect all of them.
type Server struct {
	*grpc.Server
	health *health.Server
	checks map[string]HealthCheck
	logger zerolog.Logger
}

// NewGRPCServer creates a gRPC server with Prometheus metrics, health checking
// and reflection. Statuses start as SERVING until the first check.
func NewGRPCServer(checks map[string]HealthCheck) *Server {
	registerServerMetricsOnce.Do(func() {
		grpcServerMetrics = grpcprom.NewServerMetrics(
			grpcprom.WithServerHandlingTimeHistogram(),
		)
		prometheus.MustRegister(grpcServerMetrics)
	})
	srvMetrics := grpcServerMetrics

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(srvMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(srvMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	for name := range checks {
		healthServer.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	// For tools like grpcurl
	reflection.Register(grpcServer)

	srvMetrics.InitializeMetrics(grpcServer)

	return &Server{
		Server: grpcServer,
		health: healthServer,
		checks: checks,
		logger: config.GetLogger(),
	}
}

// Check runs every check once and updates the health statuses. It returns
// the names of the failing checks, sorted.
func (s *Server) Check(ctx context.Context) []string {
	var failing []string
	for name, check := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(checkCtx)
		cancel()

		status := grpc_health_v1.HealthCheckResponse_SERVING
		if err != nil {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			failing = append(failing, name)
			s.logger.Warn().Err(err).Str("check", name).Msg("Health check failed")
		}
		s.health.SetServingStatus(name, status)
	}
	sort.Strings(failing)

	overall := grpc_health_v1.HealthCheckResponse_SERVING
	if len(failing) > 0 {
		overall = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(ServiceName, overall)
	return failing
}

// Watch re-runs the checks every interval until ctx is done, then marks every
// service NOT_SERVING so clients drain before the listener closes.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
