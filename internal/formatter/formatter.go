// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     formatter
// Description: Indentation formatter. Rewrites the leading whitespace of
//              headers, closes and content lines to depth-derived widths.
//              Documents with error diagnostics are never touched.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package formatter

import (
	"sort"
	"strings"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/parser"
	"github.com/msto63/structlint/internal/validator"
)

// TextEdit replaces columns [StartCol, EndCol) of Line with NewText. The
// formatter only emits edits over a line's leading whitespace.
type TextEdit struct {
	Line     int    `json:"line" yaml:"line"`
	StartCol int    `json:"start_col" yaml:"start_col"`
	EndCol   int    `json:"end_col" yaml:"end_col"`
	NewText  string `json:"new_text" yaml:"new_text"`
}

// Result is the outcome of one formatting run
type Result struct {
	Edits      []TextEdit
	Validation *validator.Result
	// Blocked is set when error diagnostics suppressed all edits
	Blocked bool
}

// Format parses and validates text and computes its indentation edits
func Format(text string, opts validator.Options) *Result {
	return Check(parser.ParseText(text, opts.Parser), opts)
}

// Check formats an already parsed document. It validates first and returns
// no edits if any error diagnostic exists.
func Check(parsed *parser.Result, opts validator.Options) *Result {
	vres := validator.Check(parsed, opts)
	if vres.HasErrors() {
		return &Result{Validation: vres, Blocked: true}
	}
	step := opts.IndentStep
	if step <= 0 {
		step = validator.DefaultIndentStep
	}
	return &Result{
		Edits:      Document(parsed.Document, parsed.Lines, step),
		Validation: vres,
	}
}

// Document computes the edits for a tree without validating it. Each
// block's RequiredContentIndent is recomputed from its rewritten header
// indent plus step.
func Document(doc *ast.Document, lines []string, step int) []TextEdit {
	v := &indentVisitor{lines: lines, step: step}
	v.Self = v
	doc.Accept(v)
	sort.SliceStable(v.edits, func(i, j int) bool { return v.edits[i].Line < v.edits[j].Line })
	return v.edits
}

// indentVisitor walks the tree top-down carrying the indent the current
// children must have
type indentVisitor struct {
	ast.BaseVisitor
	lines   []string
	step    int
	content int
	edits   []TextEdit
}

func (v *indentVisitor) VisitBlock(b *ast.Block) any {
	indent := v.content
	v.rewrite(b.Header.Line, indent)
	b.HeaderIndent = indent
	b.Header.Indent = indent
	b.RequiredContentIndent = indent + v.step

	v.content = b.RequiredContentIndent
	v.BaseVisitor.VisitBlock(b)
	v.content = indent

	if b.Closed() {
		v.rewrite(b.End, indent)
		b.EndIndent = indent
	}
	return nil
}

func (v *indentVisitor) VisitProperty(p *ast.Property) any {
	v.rewrite(p.Line, v.content)
	p.Indent = v.content
	return nil
}

func (v *indentVisitor) VisitInvalid(n *ast.Invalid) any {
	v.rewrite(n.Line, v.content)
	n.Indent = v.content
	return nil
}

func (v *indentVisitor) VisitMalformedHeader(n *ast.MalformedHeader) any {
	v.rewrite(n.Line, v.content)
	n.Indent = v.content
	return nil
}

// VisitEnd leaves orphan closes alone; a document holding one never gets
// this far through Check.
func (v *indentVisitor) VisitEnd(*ast.End) any { return nil }

// rewrite emits an edit unless the line already starts with exactly width
// spaces
func (v *indentVisitor) rewrite(line, width int) {
	text := v.lines[line]
	ws := parser.LeadingWhitespace(text)
	if ws == width && strings.TrimLeft(text[:ws], " ") == "" {
		return
	}
	v.edits = append(v.edits, TextEdit{
		Line:     line,
		StartCol: 0,
		EndCol:   ws,
		NewText:  strings.Repeat(" ", width),
	})
}

// Apply returns a copy of lines with the edits applied. Edits must not
// overlap; columns refer to the original lines.
func Apply(lines []string, edits []TextEdit) []string {
	out := make([]string, len(lines))
	copy(out, lines)

	sorted := make([]TextEdit, len(edits))
	copy(sorted, edits)
	// right to left within a line keeps earlier columns valid
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].StartCol > sorted[j].StartCol
	})
	for _, e := range sorted {
		if e.Line < 0 || e.Line >= len(out) {
			continue
		}
		line := out[e.Line]
		if e.StartCol > len(line) || e.EndCol > len(line) || e.StartCol > e.EndCol {
			continue
		}
		out[e.Line] = line[:e.StartCol] + e.NewText + line[e.EndCol:]
	}
	return out
}

// ApplyText applies edits to a whole document. Line endings are kept as
// they are, so CRLF input stays CRLF.
func ApplyText(text string, edits []TextEdit) string {
	return strings.Join(Apply(strings.Split(text, "\n"), edits), "\n")
}
