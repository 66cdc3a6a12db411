package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/structlint/internal/server"
	"github.com/msto63/structlint/pkg/core/logging"
)

var (
	serveHost     string
	serveWSPort   int
	serveGRPCPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sprachdienst starten",
	Long: `Startet den Sprachdienst für Editoren und Werkzeuge.

Endpunkte:
  ws://host:ws-port/ws      - lint, format, outline (JSON)
  http://host:ws-port/healthz
  host:grpc-port            - structlint.v1.Linter, Health, Reflection

Beispiele:
  structlint serve
  structlint serve --ws-port 8410 --grpc-port 8411`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host (default aus Config)")
	serveCmd.Flags().IntVar(&serveWSPort, "ws-port", 0, "WebSocket/HTTP-Port (default aus Config)")
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 0, "gRPC-Port (default aus Config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := logging.New("structlint")

	svc, closeService, err := newService()
	if err != nil {
		return failure(err)
	}
	defer closeService()

	srv := server.New(serverConfig(), svc)
	if err := srv.StartAsync(); err != nil {
		return failure(err)
	}
	logger.Info("structlint server started", "ws", srv.WSAddress(), "grpc", srv.GRPCAddress())

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutdown signal received, stopping server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}
	logger.Info("structlint server stopped")
	return nil
}

// serverConfig merges the [server] section with command line flags
func serverConfig() server.Config {
	sc := server.DefaultConfig()
	sc.Host = cfg.Server.Host
	sc.WSPort = cfg.Server.WSPort
	sc.GRPCPort = cfg.Server.GRPCPort

	if serveHost != "" {
		sc.Host = serveHost
	}
	if serveWSPort != 0 {
		sc.WSPort = serveWSPort
	}
	if serveGRPCPort != 0 {
		sc.GRPCPort = serveGRPCPort
	}
	return sc
}
