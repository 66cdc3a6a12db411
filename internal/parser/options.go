// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     parser
// Description: Parser options and line/indent helpers shared by the resolver
//              and the builder
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package parser

import (
	"strings"
)

// Default window sizes. These are recovery policies, not grammar.
const (
	DefaultTabWidth        = 4
	DefaultParamLookahead  = 3
	DefaultParamBlockLines = 10
	DefaultRecoveryWindow  = 50
)

// Options tunes indentation measurement and the look-ahead windows
type Options struct {
	// TabWidth is the number of columns a tab counts for when measuring indent
	TabWidth int
	// ParamLookahead is how many lines after a header or property are searched
	// for a {...} parameter line
	ParamLookahead int
	// ParamBlockLines caps the number of lines a multi-line {...} block may span
	ParamBlockLines int
	// RecoveryWindow is the maximum line distance between an orphan close and
	// an unclosed header it may be re-paired with
	RecoveryWindow int
}

// DefaultOptions returns the default parser options
func DefaultOptions() Options {
	return Options{
		TabWidth:        DefaultTabWidth,
		ParamLookahead:  DefaultParamLookahead,
		ParamBlockLines: DefaultParamBlockLines,
		RecoveryWindow:  DefaultRecoveryWindow,
	}
}

// withDefaults replaces non-positive values by their defaults
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TabWidth <= 0 {
		o.TabWidth = d.TabWidth
	}
	if o.ParamLookahead <= 0 {
		o.ParamLookahead = d.ParamLookahead
	}
	if o.ParamBlockLines <= 0 {
		o.ParamBlockLines = d.ParamBlockLines
	}
	if o.RecoveryWindow <= 0 {
		o.RecoveryWindow = d.RecoveryWindow
	}
	return o
}

// SplitLines splits document text into lines. A trailing "\r" is removed
// from every line so CRLF documents measure the same as LF documents.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// LeadingWhitespace returns the byte length of the space/tab prefix of line
func LeadingWhitespace(line string) int {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}

// MeasureIndent returns the indent width of line, counting a tab as tabWidth
// columns
func MeasureIndent(line string, tabWidth int) int {
	width := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			width++
		case '\t':
			width += tabWidth
		default:
			return width
		}
	}
	return width
}
