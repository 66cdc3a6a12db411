package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msto63/structlint/internal/report"
	"github.com/msto63/structlint/internal/store"
)

var (
	historyURI    string
	historyLimit  int
	historyRules  bool
	historyPrune  time.Duration
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Gespeicherte Läufe anzeigen",
	Long: `Zeigt die in der Verlaufsdatenbank gespeicherten Läufe.

Läufe werden nur gespeichert, wenn [store] enabled = true gesetzt ist.

Beispiele:
  structlint history
  structlint history --uri configs/app.cfg --limit 5
  structlint history --rules
  structlint history --prune 720h`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyURI, "uri", "", "Nur Läufe dieser Datei")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Max. Anzahl Läufe")
	historyCmd.Flags().BoolVar(&historyRules, "rules", false, "Häufigkeit je Regel anzeigen")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Läufe löschen, die älter sind als diese Dauer")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "text", "Ausgabeformat (text, json, yaml)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(historyOutput)
	if err != nil {
		return failure(err)
	}

	st, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return failure(err)
	}
	defer st.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if historyPrune > 0 {
		n, err := st.Prune(ctx, historyPrune)
		if err != nil {
			return failure(err)
		}
		fmt.Fprintf(out, "%d Läufe gelöscht\n", n)
		return nil
	}

	if historyRules {
		counts, err := st.RuleCounts(ctx)
		if err != nil {
			return failure(err)
		}
		if format != report.FormatText {
			if err := encode(out, format, counts); err != nil {
				return failure(err)
			}
			return nil
		}
		printRuleCounts(out, counts)
		return nil
	}

	runs, err := st.ListRuns(ctx, store.RunFilter{URI: historyURI, Limit: historyLimit})
	if err != nil {
		return failure(err)
	}
	if format != report.FormatText {
		if runs == nil {
			runs = []*store.Run{}
		}
		if err := encode(out, format, runs); err != nil {
			return failure(err)
		}
		return nil
	}
	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []*store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "Keine Läufe gespeichert.")
		return
	}
	fmt.Fprintf(w, "%-19s  %-6s  %6s  %8s  %5s  %8s  %s\n", "ZEIT", "ART", "FEHLER", "WARNUNG", "EDITS", "DAUER", "DATEI")
	for _, r := range runs {
		fmt.Fprintf(w, "%-19s  %-6s  %6d  %8d  %5d  %8s  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind, r.Errors, r.Warnings, r.Edits,
			r.Duration.Round(time.Microsecond), r.URI)
	}
}

func printRuleCounts(w io.Writer, counts []store.RuleCount) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "Keine Diagnosen gespeichert.")
		return
	}
	fmt.Fprintf(w, "%-20s  %-8s  %s\n", "REGEL", "STUFE", "ANZAHL")
	for _, c := range counts {
		fmt.Fprintf(w, "%-20s  %-8s  %d\n", c.Rule, c.Severity, c.Count)
	}
}

// encode writes v as JSON or YAML
func encode(w io.Writer, format report.Format, v interface{}) error {
	if format == report.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
