// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     validator
// Description: Diagnostic model and validation options
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package validator

import (
	"fmt"
	"sort"

	"github.com/msto63/structlint/internal/parser"
)

// DefaultIndentStep is the number of columns added per nesting level
const DefaultIndentStep = 2

// Severity of a diagnostic
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns the lower-case severity name
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so reports carry the name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	v, ok := ParseSeverity(string(text))
	if !ok {
		return fmt.Errorf("unknown severity %q", text)
	}
	*s = v
	return nil
}

// ParseSeverity converts a severity name back into a Severity
func ParseSeverity(name string) (Severity, bool) {
	switch name {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	default:
		return SeverityError, false
	}
}

// Diagnostic is one finding. Line and columns are zero-based, EndCol is
// exclusive.
type Diagnostic struct {
	Line     int      `json:"line" yaml:"line"`
	StartCol int      `json:"start_col" yaml:"start_col"`
	EndCol   int      `json:"end_col" yaml:"end_col"`
	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`
	// Rule names the check that produced the diagnostic
	Rule string `json:"rule" yaml:"rule"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s [%s]", d.Line+1, d.StartCol+1, d.Severity, d.Message, d.Rule)
}

// RuleFault records a rule that panicked while inspecting the tree. The
// other rules still run.
type RuleFault struct {
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// Result is the outcome of one validation run
type Result struct {
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Faults      []RuleFault  `json:"faults,omitempty" yaml:"faults,omitempty"`
}

// HasErrors reports whether any diagnostic has error severity
func (r *Result) HasErrors() bool {
	return r.Errors() > 0
}

// Errors returns the number of error diagnostics
func (r *Result) Errors() int {
	return r.count(SeverityError)
}

// Warnings returns the number of warning diagnostics
func (r *Result) Warnings() int {
	return r.count(SeverityWarning)
}

func (r *Result) count(s Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Options configures a validation run
type Options struct {
	Parser parser.Options
	// IndentStep is the number of columns each nesting level adds
	IndentStep int
}

// DefaultOptions returns the default validation options
func DefaultOptions() Options {
	return Options{
		Parser:     parser.DefaultOptions(),
		IndentStep: DefaultIndentStep,
	}
}

func (o Options) withDefaults() Options {
	if o.IndentStep <= 0 {
		o.IndentStep = DefaultIndentStep
	}
	return o
}

// sortDiagnostics orders by position, errors before warnings on ties
func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		return a.Severity < b.Severity
	})
}
