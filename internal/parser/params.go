// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     parser
// Description: {...} parameter segments: shape detection, pair extraction
//              and brace helpers
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package parser

import (
	"strings"
	"unicode"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/lexer"
)

// ParseParams parses a {...} parameter segment into key/value pairs. The
// segment is a comma separated list of key=value or bare key items; a bare
// key means "true". Segments that fit neither form are kept in Malformed, a
// missing or misplaced brace is recorded in Shape. Pairs are still extracted
// from a badly shaped segment so later checks can look at them.
func ParseParams(raw string) *ast.ParamSet {
	ps := &ast.ParamSet{Raw: raw}
	text := strings.TrimSpace(raw)

	body := text
	switch {
	case strings.HasPrefix(text, "{"):
		closeAt := matchingBrace(text)
		switch {
		case closeAt < 0:
			ps.Shape = ast.ShapeMissingClose
			body = text[1:]
		case closeAt != len(text)-1:
			ps.Shape = ast.ShapeMalformed
			body = text[1:closeAt]
		default:
			body = text[1:closeAt]
		}
	case strings.HasSuffix(text, "}"):
		ps.Shape = ast.ShapeMissingOpen
		body = text[:len(text)-1]
	default:
		ps.Shape = ast.ShapeMalformed
	}

	for _, seg := range splitSegments(body) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if idx := strings.IndexByte(seg, '='); idx >= 0 {
			key := strings.TrimSpace(seg[:idx])
			if key == "" {
				ps.Malformed = append(ps.Malformed, seg)
				continue
			}
			ps.Pairs = append(ps.Pairs, ast.Param{Key: key, Value: strings.TrimSpace(seg[idx+1:])})
			continue
		}
		if strings.IndexFunc(seg, unicode.IsSpace) >= 0 {
			ps.Malformed = append(ps.Malformed, seg)
			continue
		}
		ps.Pairs = append(ps.Pairs, ast.Param{Key: seg, Value: "true", Bare: true})
	}

	return ps
}

// matchingBrace returns the offset of the brace closing the one at text[0],
// or -1. Quoted literals are skipped.
func matchingBrace(text string) int {
	depth := 0
	for _, tok := range lexer.Tokenize(text, 0) {
		switch tok.Kind {
		case lexer.OpenBrace:
			depth++
		case lexer.CloseBrace:
			depth--
			if depth == 0 {
				return tok.Start
			}
		}
	}
	return -1
}

// splitSegments splits on commas outside quotes and nested braces/brackets
func splitSegments(body string) []string {
	var (
		segments []string
		depth    int
		quote    byte
		start    int
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '{', '[':
			depth++
		case '}', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				segments = append(segments, body[start:i])
				start = i + 1
			}
		}
	}
	return append(segments, body[start:])
}

// braceDelta returns the change in brace depth over the code tokens of a line
func braceDelta(tokens []lexer.Token) int {
	delta := 0
	for _, tok := range lexer.Code(tokens) {
		switch tok.Kind {
		case lexer.OpenBrace:
			delta++
		case lexer.CloseBrace:
			delta--
		}
	}
	return delta
}

// splitTrailingParams separates a trailing {...} segment from a property
// value. It returns the value, the parameter text and the parameter offset
// within value; ok is false when there is no such segment or nothing
// precedes it.
func splitTrailingParams(value string) (string, string, int, bool) {
	tokens := lexer.Code(lexer.Tokenize(value, 0))
	if len(tokens) == 0 {
		return value, "", 0, false
	}

	open := -1
	last := tokens[len(tokens)-1]
	if last.Kind == lexer.CloseBrace {
		// walk back to the brace that opens the trailing group
		depth := 0
		for i := len(tokens) - 1; i >= 0; i-- {
			switch tokens[i].Kind {
			case lexer.CloseBrace:
				depth++
			case lexer.OpenBrace:
				depth--
			}
			if depth == 0 {
				open = tokens[i].Start
				break
			}
		}
	} else {
		// an unclosed group: the first brace that never returns to depth 0
		depth := 0
		for _, tok := range tokens {
			switch tok.Kind {
			case lexer.OpenBrace:
				if depth == 0 {
					open = tok.Start
				}
				depth++
			case lexer.CloseBrace:
				depth--
				if depth <= 0 {
					depth = 0
					open = -1
				}
			}
		}
	}

	if open <= 0 {
		return value, "", 0, false
	}
	head := strings.TrimSpace(value[:open])
	if head == "" {
		return value, "", 0, false
	}
	return head, strings.TrimSpace(value[open:]), open, true
}

// isBraceOnly reports whether a trimmed code line is a single {...} group
func isBraceOnly(code string) bool {
	return strings.HasPrefix(code, "{") && matchingBrace(code) == len(code)-1
}
