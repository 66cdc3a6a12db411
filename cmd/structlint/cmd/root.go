package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/msto63/structlint/internal/server"
	"github.com/msto63/structlint/internal/service"
	"github.com/msto63/structlint/internal/store"
	"github.com/msto63/structlint/internal/workspace"
	"github.com/msto63/structlint/pkg/core/config"
	coregrpc "github.com/msto63/structlint/pkg/core/grpc"
	"github.com/msto63/structlint/pkg/core/logging"
)

// Exit codes
const (
	ExitOK          = 0
	ExitDiagnostics = 1
	ExitFailure     = 2
)

var (
	cfgFile string
	verbose bool
	noColor bool

	// appFs is the filesystem every command reads and writes through
	appFs afero.Fs = afero.NewOsFs()
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "structlint",
	Short: "structlint - Werkzeuge für struct.begin / struct.end Konfigurationen",
	Long: `structlint prüft und formatiert Konfigurationsdateien im
struct.begin / struct.end Format.

Befehle:
  lint     - Dateien prüfen
  fmt      - Einrückung korrigieren
  serve    - Sprachdienst (WebSocket + gRPC) starten
  watch    - Dateien bei Änderung neu prüfen
  history  - Gespeicherte Läufe anzeigen
  view     - Diagnosen interaktiv durchsuchen

Exit-Codes:
  0  keine Fehler
  1  Fehler gefunden bzw. Dateien nicht formatiert
  2  Bedienungs- oder Laufzeitfehler`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	return execute(context.Background(), nil)
}

func execute(ctx context.Context, args []string) int {
	if args != nil {
		rootCmd.SetArgs(args)
	}
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			printError(rootCmd.ErrOrStderr(), exit.err)
		}
		return exit.code
	}
	printError(rootCmd.ErrOrStderr(), err)
	return ExitFailure
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-Datei (default: ./structlint.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Farbausgabe abschalten")
}

// loadConfig resolves the configuration and sets up logging for every
// subcommand
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Resolve(appFs, cfgFile)
	if err != nil {
		return failure(err)
	}
	level := c.Log.Level
	if verbose {
		level = "debug"
	}
	logging.Configure(level, c.Log.Format, cmd.ErrOrStderr())
	cfg = c
	return nil
}

// exitError carries an exit code through cobra. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func failure(err error) error {
	return &exitError{code: ExitFailure, err: err}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Fehler: %v\n", err)
}

// linter is implemented by the local service and the remote gRPC client
type linter interface {
	Lint(ctx context.Context, doc service.Document) (*service.LintResult, error)
	Format(ctx context.Context, doc service.Document) (*service.FormatResult, error)
}

// remoteTimeout bounds the wait for a --remote server to accept the connection
var remoteTimeout time.Duration

// openLinter returns the remote client when addr is set, the local service
// otherwise. The returned func releases the connection or store.
func openLinter(ctx context.Context, addr string) (linter, func(), error) {
	if addr != "" {
		dialCfg := coregrpc.DefaultClientConfig(addr)
		dialCfg.ConnectTimeout = remoteTimeout
		conn, err := coregrpc.Dial(ctx, dialCfg)
		if err != nil {
			return nil, nil, err
		}
		return server.NewLinterClient(conn), func() { conn.Close() }, nil
	}
	return newService()
}

// newService creates the local service, recording runs when the store is
// enabled
func newService() (*service.Service, func(), error) {
	svcCfg := service.Config{Options: cfg.AnalysisOptions()}
	if !cfg.Store.Enabled {
		return service.NewService(svcCfg), func() {}, nil
	}
	st, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return nil, nil, err
	}
	svcCfg.Store = st
	return service.NewService(svcCfg), func() { st.Close() }, nil
}

func newWorkspace() *workspace.Workspace {
	return workspace.New(appFs, cfg.Lint.Extensions)
}

// stdinURI names documents read from standard input
const stdinURI = "<stdin>"

// loadDocuments reads the files below paths, or standard input when no
// path is given
func loadDocuments(cmd *cobra.Command, paths []string) ([]service.Document, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("konnte Eingabe nicht lesen: %w", err)
		}
		return []service.Document{{URI: stdinURI, Text: string(data)}}, nil
	}

	ws := newWorkspace()
	files, err := ws.Collect(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("keine Dateien mit Endung %s gefunden", strings.Join(cfg.Lint.Extensions, ", "))
	}

	docs := make([]service.Document, 0, len(files))
	for _, f := range files {
		text, err := ws.Read(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, service.Document{URI: f, Text: text})
	}
	return docs, nil
}
