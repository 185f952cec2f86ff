package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const DefaultProbeInterval = 10 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	GRPC     *grpc.Server
	Health   *health.Server
	Store    Pinger
	Interval time.Duration
}

func NewServer(store Pinger) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	return &Server{
		GRPC:     gs,
		Health:   hs,
		Store:    store,
		Interval: DefaultProbeInterval,
	}
}

// Probe pings the store once and records the result as the overall status.
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.Store.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("grpc health: store ping failed")
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.Health.SetServingStatus("", st)
	return st
}

// Serve probes immediately, then every Interval, while serving on lis.
// It returns when ctx is cancelled or the server stops.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Probe(ctx)

	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.Health.Shutdown()
				s.GRPC.GracefulStop()
				return
			case <-ticker.C:
				s.Probe(ctx)
			}
		}
	}()

	log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health listening")
	return s.GRPC.Serve(lis)
}
