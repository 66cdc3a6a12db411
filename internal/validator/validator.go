// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     validator
// Description: Runs every lint rule over a freshly parsed document and
//              collects the diagnostics in position order. Rules are
//              independent: a rule that faults is recorded and skipped while
//              the others keep running.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package validator

import (
	"fmt"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/parser"
)

// Rule names, also used as Diagnostic.Rule
const (
	RuleBrackets      = "brackets"
	RuleUnclosed      = "unclosed-block"
	RuleOrphan        = "orphan-end"
	RuleHeaderIndent  = "header-indent"
	RuleParams        = "params"
	RuleContentIndent = "content-indent"
	RuleArrayOrder    = "array-order"
	RuleNaming        = "naming"
	RuleDuplicateKey  = "duplicate-key"
	RuleUnterminated  = "unterminated-string"
	RuleInvalid       = "invalid-syntax"
)

// check is one lint rule
type check struct {
	name string
	run  func(c *context)
}

// checks lists the rules in evaluation order. Output order does not depend
// on it because diagnostics are sorted afterwards.
var checks = []check{
	{RuleBrackets, checkBrackets},
	{RuleUnclosed, checkUnclosed},
	{RuleOrphan, checkOrphans},
	{RuleHeaderIndent, checkHeaderIndent},
	{RuleParams, checkParams},
	{RuleContentIndent, checkContentIndent},
	{RuleArrayOrder, checkArrayOrder},
	{RuleNaming, checkNaming},
	{RuleDuplicateKey, checkDuplicateKeys},
	{RuleUnterminated, checkUnterminated},
	{RuleInvalid, checkInvalid},
}

// Rules returns the names of all rules in evaluation order
func Rules() []string {
	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.name
	}
	return names
}

// context is the read-only input shared by the rules of one run plus the
// diagnostic sink
type context struct {
	parsed *parser.Result
	opts   Options
	rule   string
	diags  []Diagnostic
}

func (c *context) report(sev Severity, line, start, end int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Line:     line,
		StartCol: start,
		EndCol:   end,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
		Rule:     c.rule,
	})
}

func (c *context) errorf(line, start, end int, format string, args ...any) {
	c.report(SeverityError, line, start, end, format, args...)
}

func (c *context) warnf(line, start, end int, format string, args ...any) {
	c.report(SeverityWarning, line, start, end, format, args...)
}

// lineSpan returns the columns of the trimmed content of a line
func (c *context) lineSpan(line int) (int, int) {
	if line < 0 || line >= len(c.parsed.Lines) {
		return 0, 0
	}
	text := c.parsed.Lines[line]
	start := parser.LeadingWhitespace(text)
	end := len(text)
	for end > start && (text[end-1] == ' ' || text[end-1] == '\t') {
		end--
	}
	return start, end
}

// Validate parses text and lints it
func Validate(text string, opts Options) *Result {
	opts = opts.withDefaults()
	return Check(parser.ParseText(text, opts.Parser), opts)
}

// Check lints an already parsed document
func Check(parsed *parser.Result, opts Options) *Result {
	opts = opts.withDefaults()
	res := &Result{}
	for _, chk := range checks {
		c := &context{parsed: parsed, opts: opts, rule: chk.name}
		if fault := runCheck(chk, c); fault != nil {
			res.Faults = append(res.Faults, *fault)
		}
		res.Diagnostics = append(res.Diagnostics, c.diags...)
	}
	sortDiagnostics(res.Diagnostics)
	return res
}

func runCheck(chk check, c *context) (fault *RuleFault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &RuleFault{Rule: chk.name, Message: fmt.Sprint(r)}
		}
	}()
	chk.run(c)
	return nil
}

// eachBlock calls fn for every block of the document in source order
func (c *context) eachBlock(fn func(b *ast.Block)) {
	for _, b := range ast.Blocks(c.parsed.Document) {
		fn(b)
	}
}

// eachParent calls fn for the document and every block
func (c *context) eachParent(fn func(p ast.Parent)) {
	fn(c.parsed.Document)
	c.eachBlock(func(b *ast.Block) { fn(b) })
}
