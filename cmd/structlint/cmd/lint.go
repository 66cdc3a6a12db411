package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/structlint/internal/report"
)

var (
	lintOutput string
	lintRemote string
)

var lintCmd = &cobra.Command{
	Use:   "lint [pfade...]",
	Short: "Dateien prüfen",
	Long: `Prüft Dateien auf Struktur-, Einrückungs- und Stilfehler.

Verzeichnisse werden rekursiv nach Dateien mit den konfigurierten
Endungen durchsucht. Ohne Pfad wird von stdin gelesen.

Beispiele:
  structlint lint app.cfg
  structlint lint configs/
  structlint lint --output json configs/ > report.json
  structlint lint --remote 127.0.0.1:7411 app.cfg
  cat app.cfg | structlint lint`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintOutput, "output", "o", "text", "Ausgabeformat (text, json, yaml)")
	lintCmd.Flags().StringVar(&lintRemote, "remote", "", "Über den gRPC-Dienst prüfen (host:port)")
	lintCmd.Flags().DurationVar(&remoteTimeout, "remote-timeout", 5*time.Second, "Max. Wartezeit auf den gRPC-Dienst")
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(lintOutput)
	if err != nil {
		return failure(err)
	}

	docs, err := loadDocuments(cmd, args)
	if err != nil {
		return failure(err)
	}

	l, closeLinter, err := openLinter(cmd.Context(), lintRemote)
	if err != nil {
		return failure(err)
	}
	defer closeLinter()

	rep := &report.Report{}
	for _, doc := range docs {
		res, err := l.Lint(cmd.Context(), doc)
		if err != nil {
			return failure(err)
		}
		rep.Add(report.File{Path: doc.URI, Diagnostics: res.Diagnostics, Faults: res.Faults})
	}

	out := cmd.OutOrStdout()
	if err := report.NewWriter(out, format, report.ColorEnabled(out, noColor)).Write(rep); err != nil {
		return failure(err)
	}
	if rep.HasErrors() {
		return &exitError{code: ExitDiagnostics}
	}
	return nil
}
