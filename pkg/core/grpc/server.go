// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     grpc
// Description: gRPC server wrapper with keepalive, interceptors, health
//              reporting and reflection
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
	"github.com/msto63/structlint/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

var serverLogger = logging.New("grpc-server")

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	Host              string
	Port              int
	MaxMsgSize        int
	EnableReflection  bool
	KeepaliveInterval time.Duration
	KeepaliveTimeout  time.Duration
}

// DefaultServerConfig listens on the loopback interface only
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              7411,
		MaxMsgSize:        16 << 20,
		EnableReflection:  true,
		KeepaliveInterval: 30 * time.Second,
		KeepaliveTimeout:  10 * time.Second,
	}
}

// Server is a grpc.Server with the standard health service attached
type Server struct {
	server *grpc.Server
	health *health.Server
	config ServerConfig

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server. All services start out NOT_SERVING until
// Serve or StartAsync runs.
func NewServer(cfg ServerConfig, opts ...grpc.ServerOption) *Server {
	serverOpts := append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxMsgSize),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.KeepaliveInterval,
			Timeout: cfg.KeepaliveTimeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(),
			RequestIDInterceptor(),
			LoggingInterceptor(),
			ErrorInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			StreamRecoveryInterceptor(),
			StreamLoggingInterceptor(),
		),
	}, opts...)

	server := grpc.NewServer(serverOpts...)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	if cfg.EnableReflection {
		reflection.Register(server)
	}

	return &Server{server: server, health: hs, config: cfg}
}

// GRPCServer returns the underlying server for service registration
func (s *Server) GRPCServer() *grpc.Server {
	return s.server
}

// SetServing reports a service, or the whole server for "", as serving or not
func (s *Server) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
}

// Serve marks the server as serving and accepts connections on lis until
// it is shut down.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	s.SetServing("", true)
	err := s.server.Serve(lis)
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return mdwerrors.Wrap(err, "gRPC server stopped").
			WithCode(mdwerrors.CodeTransportError).
			WithOperation("grpc.Serve")
	}
	return nil
}

// StartAsync binds the configured address and serves in a goroutine
func (s *Server) StartAsync() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return mdwerrors.Wrap(err, "listen failed").
			WithCode(mdwerrors.CodeTransportError).
			WithOperation("grpc.StartAsync").
			WithDetail("address", addr)
	}

	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	go func() {
		if err := s.Serve(lis); err != nil {
			serverLogger.Error("gRPC server error", "error", err)
		}
	}()
	return nil
}

// Shutdown reports every service NOT_SERVING, then drains in-flight calls.
// Calls still running when ctx is done are cancelled.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
		<-done
	}
}

// Address returns the bound address, or the configured one before binding
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
