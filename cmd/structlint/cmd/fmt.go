package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/structlint/internal/report"
	"github.com/msto63/structlint/internal/service"
	"github.com/msto63/structlint/internal/validator"
)

var (
	fmtWrite  bool
	fmtCheck  bool
	fmtRemote string
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [pfade...]",
	Short: "Einrückung korrigieren",
	Long: `Korrigiert die Einrückung von Blöcken und Inhalten.

Dateien mit Fehlern werden nicht verändert. Ohne --write wird das
Ergebnis auf stdout ausgegeben, mit --check werden nur die Dateien
aufgelistet, die nicht formatiert sind.

Beispiele:
  structlint fmt app.cfg
  structlint fmt --write configs/
  structlint fmt --check configs/
  cat app.cfg | structlint fmt`,
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Dateien überschreiben")
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "Nur prüfen, ob Dateien formatiert sind")
	fmtCmd.Flags().StringVar(&fmtRemote, "remote", "", "Über den gRPC-Dienst formatieren (host:port)")
	fmtCmd.Flags().DurationVar(&remoteTimeout, "remote-timeout", 5*time.Second, "Max. Wartezeit auf den gRPC-Dienst")
}

func runFmt(cmd *cobra.Command, args []string) error {
	if fmtWrite && fmtCheck {
		return failure(fmt.Errorf("--write und --check schließen sich aus"))
	}
	if fmtWrite && len(args) == 0 {
		return failure(fmt.Errorf("--write braucht mindestens einen Pfad"))
	}

	docs, err := loadDocuments(cmd, args)
	if err != nil {
		return failure(err)
	}

	l, closeLinter, err := openLinter(cmd.Context(), fmtRemote)
	if err != nil {
		return failure(err)
	}
	defer closeLinter()

	out := cmd.OutOrStdout()
	diagOut := report.NewWriter(cmd.ErrOrStderr(), report.FormatText, report.ColorEnabled(cmd.ErrOrStderr(), noColor))
	ws := newWorkspace()

	dirty := false
	for _, doc := range docs {
		res, err := l.Format(cmd.Context(), doc)
		if err != nil {
			return failure(err)
		}
		if res.Blocked {
			reportBlocked(cmd.ErrOrStderr(), diagOut, doc, res)
			dirty = true
			continue
		}

		switch {
		case fmtCheck:
			if res.Changed() {
				fmt.Fprintln(out, doc.URI)
				dirty = true
			}
		case fmtWrite:
			if !res.Changed() {
				continue
			}
			if err := ws.Write(doc.URI, res.Formatted); err != nil {
				return failure(err)
			}
			fmt.Fprintln(out, doc.URI)
		default:
			if _, err := io.WriteString(out, res.Formatted); err != nil {
				return failure(err)
			}
		}
	}

	if dirty {
		return &exitError{code: ExitDiagnostics}
	}
	return nil
}

// reportBlocked explains why a document was left untouched
func reportBlocked(w io.Writer, rw *report.Writer, doc service.Document, res *service.FormatResult) {
	fmt.Fprintf(w, "%s: nicht formatiert, Fehler beheben:\n", doc.URI)
	for _, d := range res.Diagnostics {
		if d.Severity == validator.SeverityError {
			fmt.Fprintf(w, "  %s\n", rw.Diagnostic(doc.URI, d))
		}
	}
}
