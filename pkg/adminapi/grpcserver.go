package adminapi

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/therealutkarshpriyadarshi/ringknn/pkg/config"
	"github.com/therealutkarshpriyadarshi/ringknn/pkg/observability"
)

// GRPCServer hosts the hand-declared ClusterStatus RPC, one per rank.
// Its Start/Stop lifecycle mirrors pkg/api/grpc.Server: keepalive
// parameters, reflection for grpcurl, goroutine-served, and a
// timeout-bounded graceful stop.
type GRPCServer struct {
	cfg        config.AdminConfig
	status     *Status
	logger     *observability.Logger
	grpcServer *grpc.Server
	listener   net.Listener

	shutdownMu sync.Mutex
	isShutdown bool
}

// NewGRPCServer builds the gRPC admin server for one rank.
func NewGRPCServer(cfg config.AdminConfig, status *Status, logger *observability.Logger) *GRPCServer {
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	return &GRPCServer{cfg: cfg, status: status, logger: logger}
}

// Start configures keepalive and reflection, binds the listener, and
// serves in a background goroutine.
func (s *GRPCServer) Start() error {
	kaParams := keepalive.ServerParameters{
		MaxConnectionIdle: 15 * time.Second,
		MaxConnectionAge:  30 * time.Second,
		Time:              5 * time.Second,
		Timeout:           1 * time.Second,
	}
	opts := []grpc.ServerOption{grpc.KeepaliveParams(kaParams)}

	s.grpcServer = grpc.NewServer(opts...)
	RegisterClusterStatusServer(s.grpcServer, &statusRPC{status: s.status})
	reflection.Register(s.grpcServer)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.GRPCPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("adminapi.GRPCServer.Start: listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.logger.Infof("admin gRPC server listening on %s", addr)

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			s.logger.Errorf("admin gRPC server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down, falling back to a hard stop if
// cfg.ShutdownTimeout elapses first.
func (s *GRPCServer) Stop() error {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	if s.isShutdown {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("admin gRPC server stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("admin gRPC shutdown timeout exceeded, forcing stop")
		s.grpcServer.Stop()
	}

	s.isShutdown = true
	return nil
}
