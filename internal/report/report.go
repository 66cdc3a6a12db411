// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     report
// Description: Renders lint results as colored text, JSON or YAML
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/msto63/structlint/internal/validator"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

// Format is an output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", mdwerrors.Newf("unknown output format %q (text, json, yaml)", name).
			WithCode(mdwerrors.CodeInvalidInput)
	}
}

// File is the lint outcome for one file
type File struct {
	Path        string                 `json:"path" yaml:"path"`
	Diagnostics []validator.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Faults      []validator.RuleFault  `json:"faults,omitempty" yaml:"faults,omitempty"`
}

// Summary totals a report
type Summary struct {
	Files    int `json:"files" yaml:"files"`
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
}

// Report is the outcome of linting a set of files
type Report struct {
	Files   []File  `json:"files" yaml:"files"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// Add appends a file and updates the summary
func (r *Report) Add(f File) {
	if f.Diagnostics == nil {
		f.Diagnostics = []validator.Diagnostic{}
	}
	r.Files = append(r.Files, f)
	r.Summary.Files++
	for _, d := range f.Diagnostics {
		if d.Severity == validator.SeverityError {
			r.Summary.Errors++
		} else {
			r.Summary.Warnings++
		}
	}
}

// HasErrors reports whether any file has an error diagnostic
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// Writer renders reports
type Writer struct {
	out    io.Writer
	format Format
	color  bool
	styles styles
}

type styles struct {
	path, position, err, warn, rule, summary lipgloss.Style
}

// NewWriter creates a writer. Color only applies to the text format.
func NewWriter(out io.Writer, format Format, color bool) *Writer {
	w := &Writer{out: out, format: format, color: color}
	if color {
		r := lipgloss.NewRenderer(out)
		w.styles = styles{
			path:     r.NewStyle().Bold(true),
			position: r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
			err:      r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
			warn:     r.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
			rule:     r.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true),
			summary:  r.NewStyle().Bold(true),
		}
	}
	return w
}

// ColorEnabled reports whether colored output makes sense for out
func ColorEnabled(out io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write renders the report in the writer's format
func (w *Writer) Write(r *Report) error {
	var err error
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err = enc.Encode(r); err == nil {
			err = enc.Close()
		}
	default:
		err = w.text(r)
	}
	if err != nil {
		return mdwerrors.Wrap(err, "failed to write report").WithCode(mdwerrors.CodeIOError).WithOperation("report.write")
	}
	return nil
}

func (w *Writer) text(r *Report) error {
	var b strings.Builder
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			b.WriteString(w.Diagnostic(f.Path, d))
			b.WriteByte('\n')
		}
		for _, fault := range f.Faults {
			fmt.Fprintf(&b, "%s: %s rule %q failed: %s\n",
				w.style(w.styles.path, f.Path), w.style(w.styles.err, "internal"), fault.Rule, fault.Message)
		}
	}
	b.WriteString(w.style(w.styles.summary, summaryLine(r.Summary)))
	b.WriteByte('\n')
	_, err := io.WriteString(w.out, b.String())
	return err
}

// Diagnostic renders one diagnostic as path:line:col: severity: message [rule]
// with 1-based positions
func (w *Writer) Diagnostic(path string, d validator.Diagnostic) string {
	sev := w.styles.warn
	if d.Severity == validator.SeverityError {
		sev = w.styles.err
	}
	return fmt.Sprintf("%s:%s: %s: %s %s",
		w.style(w.styles.path, path),
		w.style(w.styles.position, fmt.Sprintf("%d:%d", d.Line+1, d.StartCol+1)),
		w.style(sev, d.Severity.String()),
		d.Message,
		w.style(w.styles.rule, "["+d.Rule+"]"),
	)
}

func (w *Writer) style(s lipgloss.Style, text string) string {
	if !w.color {
		return text
	}
	return s.Render(text)
}

func summaryLine(s Summary) string {
	return fmt.Sprintf("%d %s, %d %s in %d %s",
		s.Errors, plural(s.Errors, "error"),
		s.Warnings, plural(s.Warnings, "warning"),
		s.Files, plural(s.Files, "file"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
