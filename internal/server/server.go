// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     server
// Description: Language server hosting the WebSocket endpoint, the gRPC
//              Linter service and the /healthz endpoint
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/msto63/structlint/internal/service"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
	coregrpc "github.com/msto63/structlint/pkg/core/grpc"
	"github.com/msto63/structlint/pkg/core/health"
	"github.com/msto63/structlint/pkg/core/logging"
	"github.com/msto63/structlint/pkg/core/version"
)

// Config holds server configuration
type Config struct {
	Host        string
	WSPort      int
	GRPCPort    int
	ReadTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:        "127.0.0.1",
		WSPort:      7410,
		GRPCPort:    7411,
		ReadTimeout: 30 * time.Second,
	}
}

// Server is the structlint language server
type Server struct {
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *coregrpc.Server
	health       *health.Registry
	logger       *logging.Logger
	config       Config
}

// New creates a new server around svc
func New(cfg Config, svc *service.Service) *Server {
	logger := logging.New("server")

	grpcCfg := coregrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.GRPCPort
	grpcServer := coregrpc.NewServer(grpcCfg)
	RegisterLinterServer(grpcServer.GRPCServer(), &linterService{svc: svc})

	healthRegistry := health.NewRegistry("structlint", version.Server, 0)
	healthRegistry.Add("analysis", false, analysisProbe(svc))
	if st := svc.Store(); st != nil {
		healthRegistry.Add("store", true, st.Ping)
	}

	s := &Server{
		grpcServer: grpcServer,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", NewWebSocketHandler(svc))
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.WSPort),
		Handler:     loggingMiddleware(logger, mux),
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Handler returns the HTTP handler serving /ws and /healthz
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// canary is outlined by the analysis probe
const canary = "health : struct.begin\n  ok = 1\nstruct.end\n"

// analysisProbe fails unless the service pairs the blocks of a minimal
// document
func analysisProbe(svc *service.Service) health.Probe {
	return func(ctx context.Context) error {
		nodes, err := svc.Outline(ctx, service.Document{URI: "<healthz>", Text: canary})
		if err != nil {
			return err
		}
		if len(nodes) != 1 || !nodes[0].Closed {
			return mdwerrors.New("canary document did not outline to one closed block").
				WithCode(mdwerrors.CodeInternal)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report := s.health.Check(ctx)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(report.HTTPStatus())
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Warn("Failed to write health report", "error", err)
	}
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// StartAsync binds both listeners and serves in the background. Either
// listener failing to bind is returned and nothing keeps running.
func (s *Server) StartAsync() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return mdwerrors.Wrap(err, "listen failed").
			WithCode(mdwerrors.CodeTransportError).
			WithOperation("server.StartAsync").
			WithDetail("address", s.httpServer.Addr)
	}
	if err := s.grpcServer.StartAsync(); err != nil {
		listener.Close()
		return err
	}
	s.httpListener = listener
	s.grpcServer.SetServing(LinterServiceName, true)

	s.logger.Info("Starting structlint server",
		"ws", s.WSAddress(),
		"grpc", s.GRPCAddress(),
	)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop reports the Linter service NOT_SERVING, then gracefully stops both
// servers
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping structlint server")

	s.grpcServer.SetServing(LinterServiceName, false)
	s.grpcServer.Shutdown(ctx)
	return s.httpServer.Shutdown(ctx)
}

// WSAddress returns the HTTP/WebSocket address, the bound one once started
func (s *Server) WSAddress() string {
	if s.httpListener != nil {
		return s.httpListener.Addr().String()
	}
	return s.httpServer.Addr
}

// GRPCAddress returns the gRPC address, the bound one once started
func (s *Server) GRPCAddress() string {
	return s.grpcServer.Address()
}
