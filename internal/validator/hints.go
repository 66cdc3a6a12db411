// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     validator
// Description: Explanations for lines the parser could not classify:
//              floating literals, keyword typos and broken block headers
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package validator

import (
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/lexer"
)

const keywordBegin = "struct.begin"

var (
	keywords = []string{keywordBegin, keywordEnd}

	// index placeholders such as "[0]" or "[*]" on their own line
	placeholderPattern = regexp.MustCompile(`^\[(\d+|\*)\]$`)
)

// minTypoLength keeps short words like "str" from matching a keyword
const minTypoLength = 6

// suggestKeyword returns the keyword word is most likely a misspelling of.
// A case-only difference always matches; otherwise one of the two must be a
// subsequence of the other and their lengths may differ by at most two.
func suggestKeyword(word string) (string, bool) {
	if len(word) < minTypoLength {
		return "", false
	}
	for _, kw := range keywords {
		if word == kw {
			return "", false
		}
		if strings.EqualFold(word, kw) {
			return kw, true
		}
	}

	// dropped characters: the word is a subsequence of the keyword
	for _, m := range fuzzy.Find(word, keywords) {
		if len(m.Str)-len(word) <= 2 {
			return m.Str, true
		}
	}
	// extra characters: the keyword is a subsequence of the word
	for _, kw := range keywords {
		if len(word)-len(kw) <= 2 && len(fuzzy.Find(kw, []string{word})) > 0 {
			return kw, true
		}
	}
	return "", false
}

// invalidVisitor explains Invalid and MalformedHeader nodes
type invalidVisitor struct {
	ast.BaseVisitor
	ctx *context
}

func (v *invalidVisitor) VisitInvalid(n *ast.Invalid) any {
	c := v.ctx
	if c.lineHasUnterminated(n.Line) || placeholderPattern.MatchString(n.Text) {
		return nil
	}
	start, end := c.lineSpan(n.Line)
	tokens := lexer.Code(c.parsed.Tokens[n.Line])

	switch {
	case len(tokens) == 1 && tokens[0].IsString():
		c.warnf(n.Line, start, end, "Floating string literal %s; expected key = value.", n.Text)
	case len(tokens) == 1 && tokens[0].IsNumber():
		c.warnf(n.Line, start, end, "Floating numeric literal %s; expected key = value.", n.Text)
	case strings.Contains(n.Text, keywordBegin):
		c.warnf(n.Line, start, end, "Block header needs \"<name> :\" before %q.", keywordBegin)
	default:
		if kw, ok := suggestKeyword(n.Text); ok {
			c.warnf(n.Line, start, end, "Unknown statement %q; did you mean %q?", n.Text, kw)
			return nil
		}
		c.warnf(n.Line, start, end, "Invalid syntax %q; expected key = value, a block header or %q.", n.Text, keywordEnd)
	}
	return nil
}

func (v *invalidVisitor) VisitMalformedHeader(n *ast.MalformedHeader) any {
	c := v.ctx
	if c.lineHasUnterminated(n.Line) {
		return nil
	}
	start, end := c.lineSpan(n.Line)

	colon := strings.IndexByte(n.Text, ':')
	name := strings.TrimSpace(n.Text[:colon])
	rest := strings.TrimSpace(n.Text[colon+1:])
	word := rest
	if i := strings.IndexAny(rest, " \t{"); i >= 0 {
		word = rest[:i]
	}

	switch {
	case word == keywordBegin && name == "":
		c.warnf(n.Line, start, end, "Block header is missing a name before \":\".")
	case word == keywordBegin:
		c.warnf(n.Line, start, end, "Block name %q must not contain whitespace.", name)
	case word == "":
		c.warnf(n.Line, start, end, "Missing %q after \":\".", keywordBegin)
	default:
		if kw, ok := suggestKeyword(word); ok {
			c.warnf(n.Line, start, end, "%q looks like a typo of %q.", word, kw)
			return nil
		}
		c.warnf(n.Line, start, end, "Missing %q after \":\"; found %q.", keywordBegin, word)
	}
	return nil
}
