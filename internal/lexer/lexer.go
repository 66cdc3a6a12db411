// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     lexer
// Description: Line tokenizer. Splits one line of text into typed tokens,
//              honoring // comments and quoted/numeric literals. Whitespace
//              separates tokens but is never emitted.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package lexer

import (
	"unicode/utf8"
)

// Tokenize splits a single line into tokens. The result covers every
// non-whitespace byte of the line; a trailing // comment becomes one Comment
// token. The same input always yields the same tokens.
func Tokenize(line string, lineIndex int) []Token {
	l := &lineLexer{input: line, line: lineIndex}
	return l.run()
}

// TokenizeLines tokenizes every line of a document.
func TokenizeLines(lines []string) [][]Token {
	out := make([][]Token, len(lines))
	for i, line := range lines {
		out[i] = Tokenize(line, i)
	}
	return out
}

// Code returns the tokens of a line without its trailing comment.
func Code(tokens []Token) []Token {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == Comment {
		return tokens[:n-1]
	}
	return tokens
}

// CodeEnd returns the byte offset where the comment of a line starts, or the
// line length if it has none.
func CodeEnd(line string, tokens []Token) int {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == Comment {
		return tokens[n-1].Start
	}
	return len(line)
}

// lineLexer holds the scan state of one Tokenize call
type lineLexer struct {
	input  string
	line   int
	pos    int
	tokens []Token
}

func (l *lineLexer) run() []Token {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			return l.tokens
		}
		if l.hasPrefix("//") {
			l.emit(Comment, len(l.input))
			return l.tokens
		}
		l.next()
	}
}

// next recognizes one token at the current position; first match wins.
func (l *lineLexer) next() {
	ch := l.input[l.pos]

	if kind, ok := punctuation[ch]; ok {
		l.emit(kind, l.pos+1)
		return
	}

	switch {
	case ch == '\'':
		l.emit(SingleString, l.scanQuoted('\''))
	case ch == '"':
		l.emit(DoubleString, l.scanQuoted('"'))
	case isDigit(ch) || (ch == '-' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		end, isFloat := l.scanNumber()
		if isFloat {
			l.emit(Float, end)
		} else {
			l.emit(Integer, end)
		}
	case isIdentStart(ch):
		end := l.pos + 1
		for end < len(l.input) && isIdentPart(l.input[end]) {
			end++
		}
		l.emit(Identifier, end)
	default:
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		l.emit(Other, l.pos+size)
	}
}

var punctuation = map[byte]Kind{
	'{': OpenBrace,
	'}': CloseBrace,
	':': Colon,
	'=': Equals,
	'.': Dot,
	'[': OpenBracket,
	']': CloseBracket,
}

// scanQuoted returns the end offset of a quoted literal starting at pos. A
// doubled quote is an escaped quote. Without a closing quote the literal runs
// to the end of the line.
func (l *lineLexer) scanQuoted(quote byte) int {
	i := l.pos + 1
	for i < len(l.input) {
		if l.input[i] == quote {
			if i+1 < len(l.input) && l.input[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(l.input)
}

// scanNumber reads -?digits(.digits)?f? and reports whether it is a float.
func (l *lineLexer) scanNumber() (int, bool) {
	i := l.pos
	if l.input[i] == '-' {
		i++
	}
	for i < len(l.input) && isDigit(l.input[i]) {
		i++
	}
	isFloat := false
	if i+1 < len(l.input) && l.input[i] == '.' && isDigit(l.input[i+1]) {
		isFloat = true
		i++
		for i < len(l.input) && isDigit(l.input[i]) {
			i++
		}
	}
	if i < len(l.input) && l.input[i] == 'f' {
		isFloat = true
		i++
	}
	return i, isFloat
}

func (l *lineLexer) emit(kind Kind, end int) {
	l.tokens = append(l.tokens, Token{
		Kind:  kind,
		Text:  l.input[l.pos:end],
		Line:  l.line,
		Start: l.pos,
		End:   end,
	})
	l.pos = end
}

func (l *lineLexer) skipWhitespace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lineLexer) hasPrefix(s string) bool {
	return len(l.input)-l.pos >= len(s) && l.input[l.pos:l.pos+len(s)] == s
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}

// IsIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_-]*.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
