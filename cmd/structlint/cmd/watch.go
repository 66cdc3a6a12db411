package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/structlint/internal/report"
	"github.com/msto63/structlint/internal/service"
	"github.com/msto63/structlint/internal/watch"
	"github.com/msto63/structlint/pkg/core/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch <pfade...>",
	Short: "Dateien bei Änderung neu prüfen",
	Long: `Beobachtet Dateien und Verzeichnisse und prüft jede geänderte
Datei erneut. Beenden mit Strg+C.

Beispiele:
  structlint watch app.cfg
  structlint watch configs/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := logging.New("watch")

	svc, closeService, err := newService()
	if err != nil {
		return failure(err)
	}
	defer closeService()

	ws := newWorkspace()
	w, err := watch.New(watch.Config{
		Debounce: cfg.Watch.Debounce.Duration,
		Match:    cfg.HasExtension,
	})
	if err != nil {
		return failure(err)
	}
	if err := w.Add(args...); err != nil {
		w.Close()
		return failure(err)
	}

	out := cmd.OutOrStdout()
	rw := report.NewWriter(out, report.FormatText, report.ColorEnabled(out, noColor))

	lintFile := func(ctx context.Context, path string) {
		text, err := ws.Read(path)
		if err != nil {
			logger.Warn("Cannot read changed file", "path", path, "error", err)
			return
		}
		res, err := svc.Lint(ctx, service.Document{URI: path, Text: text})
		if err != nil {
			logger.Warn("Lint failed", "path", path, "error", err)
			return
		}
		fmt.Fprintf(out, "[%s] %s\n", time.Now().Format("15:04:05"), path)
		rep := &report.Report{}
		rep.Add(report.File{Path: path, Diagnostics: res.Diagnostics, Faults: res.Faults})
		if err := rw.Write(rep); err != nil {
			logger.Warn("Cannot write report", "error", err)
		}
	}

	// initial pass over everything being watched
	files, err := ws.Collect(args)
	if err != nil {
		w.Close()
		return failure(err)
	}
	for _, f := range files {
		lintFile(cmd.Context(), f)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Watching for changes", "paths", args)
	if err := w.Run(ctx, lintFile); err != nil {
		return failure(err)
	}
	return nil
}
