// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     lexer
// Description: Token kinds and the immutable Token value produced per line
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package lexer

import "fmt"

// Kind identifies the lexical class of a token
type Kind int

const (
	Identifier   Kind = iota // name, key_2, foo-bar
	OpenBrace                // {
	CloseBrace               // }
	Colon                    // :
	Equals                   // =
	Dot                      // .
	OpenBracket              // [
	CloseBracket             // ]
	Comment                  // // to end of line
	SingleString             // 'text'
	DoubleString             // "text"
	Integer                  // 12, -3
	Float                    // 1.5, -2.0f, 3f
	Other                    // any other single character
)

// String returns the name of the token kind
func (k Kind) String() string {
	switch k {
	case Identifier:
		return "IDENTIFIER"
	case OpenBrace:
		return "OPEN_BRACE"
	case CloseBrace:
		return "CLOSE_BRACE"
	case Colon:
		return "COLON"
	case Equals:
		return "EQUALS"
	case Dot:
		return "DOT"
	case OpenBracket:
		return "OPEN_BRACKET"
	case CloseBracket:
		return "CLOSE_BRACKET"
	case Comment:
		return "COMMENT"
	case SingleString:
		return "SINGLE_STRING"
	case DoubleString:
		return "DOUBLE_STRING"
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case Other:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexical token of one line. Columns are byte offsets, End is exclusive.
type Token struct {
	Kind  Kind
	Text  string
	Line  int // zero-based line index
	Start int
	End   int
}

// String returns a debug representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d-%d", t.Kind, t.Text, t.Line, t.Start, t.End)
}

// IsString reports whether the token is a quoted literal
func (t Token) IsString() bool {
	return t.Kind == SingleString || t.Kind == DoubleString
}

// IsNumber reports whether the token is a numeric literal
func (t Token) IsNumber() bool {
	return t.Kind == Integer || t.Kind == Float
}

// Unterminated reports whether a quoted literal is missing its closing quote.
func (t Token) Unterminated() bool {
	if !t.IsString() {
		return false
	}
	quote := t.Text[0]
	if len(t.Text) < 2 || t.Text[len(t.Text)-1] != quote {
		return true
	}
	// A run of quotes at the end may be doubled escapes: 'it''' ends with an
	// escaped quote followed by the closer, 'it'' does not close.
	body := t.Text[1:]
	closed := false
	for i := 0; i < len(body); i++ {
		if body[i] != quote {
			continue
		}
		if i+1 < len(body) && body[i+1] == quote {
			i++
			continue
		}
		closed = i == len(body)-1
		break
	}
	return !closed
}
