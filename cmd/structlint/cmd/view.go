package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/structlint/internal/service"
	"github.com/msto63/structlint/internal/tui/diagview"
	"github.com/msto63/structlint/internal/validator"
)

var viewCmd = &cobra.Command{
	Use:   "view <datei>",
	Short: "Diagnosen interaktiv durchsuchen",
	Long: `Öffnet eine Terminal-Oberfläche mit allen Diagnosen einer Datei
und der jeweils betroffenen Zeile.

Tastenkürzel:
  ↑/↓      Auswahl
  e        nur Fehler
  w        nur Warnungen
  a        alle
  r        Datei neu prüfen
  q        Beenden`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	svc, closeService, err := newService()
	if err != nil {
		return failure(err)
	}
	defer closeService()

	path := args[0]
	ws := newWorkspace()
	load := func() ([]string, []validator.Diagnostic, error) {
		text, err := ws.Read(path)
		if err != nil {
			return nil, nil, err
		}
		res, err := svc.Lint(cmd.Context(), service.Document{URI: path, Text: text})
		if err != nil {
			return nil, nil, err
		}
		return strings.Split(text, "\n"), res.Diagnostics, nil
	}

	lines, diags, err := load()
	if err != nil {
		return failure(err)
	}
	if err := diagview.Run(diagview.Config{
		Path:        path,
		Lines:       lines,
		Diagnostics: diags,
		Reload:      load,
	}); err != nil {
		return failure(err)
	}
	return nil
}
