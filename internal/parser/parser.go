// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     parser
// Description: Entry point chaining tokenizer, block resolver and AST builder
//              into one full-document parse
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package parser

import (
	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/lexer"
)

// Result holds the artefacts of one parse. Everything is freshly built per
// call and never shared between calls.
type Result struct {
	Lines      []string
	Tokens     [][]lexer.Token
	Resolution *Resolution
	Document   *ast.Document
}

// Parse tokenizes, resolves and builds the tree for the given lines
func Parse(lines []string, opts Options) *Result {
	opts = opts.withDefaults()
	tokens := lexer.TokenizeLines(lines)
	res := Resolve(lines, tokens, opts)
	return &Result{
		Lines:      lines,
		Tokens:     tokens,
		Resolution: res,
		Document:   Build(lines, tokens, res, opts),
	}
}

// ParseText splits text into lines and parses it
func ParseText(text string, opts Options) *Result {
	return Parse(SplitLines(text), opts)
}
