package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []Kind
		texts []string
	}{
		{
			name:  "block header with params",
			input: "Name : struct.begin {a=1, flag}",
			kinds: []Kind{Identifier, Colon, Identifier, Dot, Identifier, OpenBrace, Identifier, Equals, Integer, Other, Identifier, CloseBrace},
			texts: []string{"Name", ":", "struct", ".", "begin", "{", "a", "=", "1", ",", "flag", "}"},
		},
		{
			name:  "array property",
			input: "  arr[0] = value",
			kinds: []Kind{Identifier, OpenBracket, Integer, CloseBracket, Equals, Identifier},
			texts: []string{"arr", "[", "0", "]", "=", "value"},
		},
		{
			name:  "wildcard index",
			input: "arr[*] = x",
			kinds: []Kind{Identifier, OpenBracket, Other, CloseBracket, Equals, Identifier},
		},
		{
			name:  "comment after code",
			input: "x = 1 // trailing note",
			kinds: []Kind{Identifier, Equals, Integer, Comment},
			texts: []string{"x", "=", "1", "// trailing note"},
		},
		{
			name:  "comment only",
			input: "\t// whole line",
			kinds: []Kind{Comment},
		},
		{
			name:  "numbers",
			input: "-3 1.5 2f -0.25f 7",
			kinds: []Kind{Integer, Float, Float, Float, Integer},
			texts: []string{"-3", "1.5", "2f", "-0.25f", "7"},
		},
		{
			name:  "strings with doubled quote escape",
			input: `'it''s' "say ""hi"""`,
			kinds: []Kind{SingleString, DoubleString},
			texts: []string{`'it''s'`, `"say ""hi"""`},
		},
		{
			name:  "comment marker inside string",
			input: `url = "http://host"`,
			kinds: []Kind{Identifier, Equals, DoubleString},
		},
		{
			name:  "unterminated string runs to end of line",
			input: `'hello // not a comment`,
			kinds: []Kind{SingleString},
			texts: []string{`'hello // not a comment`},
		},
		{
			name:  "identifier with dash and underscore",
			input: "_my-key2",
			kinds: []Kind{Identifier},
		},
		{
			name:  "dash without digit is other",
			input: "- x",
			kinds: []Kind{Other, Identifier},
		},
		{
			name:  "multibyte fallback",
			input: "ä",
			kinds: []Kind{Other},
			texts: []string{"ä"},
		},
		{
			name:  "empty",
			input: "   \t ",
			kinds: []Kind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.input, 0)
			assert.Equal(t, tt.kinds, kinds(tokens))
			if tt.texts != nil {
				assert.Equal(t, tt.texts, texts(tokens))
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	tokens := Tokenize("  key = 'v'", 7)
	require.Len(t, tokens, 3)

	assert.Equal(t, Token{Kind: Identifier, Text: "key", Line: 7, Start: 2, End: 5}, tokens[0])
	assert.Equal(t, Token{Kind: Equals, Text: "=", Line: 7, Start: 6, End: 7}, tokens[1])
	assert.Equal(t, Token{Kind: SingleString, Text: "'v'", Line: 7, Start: 8, End: 11}, tokens[2])
}

// Re-joining token text with the original gaps reproduces the line exactly.
func TestTokenize_RoundTrip(t *testing.T) {
	lines := []string{
		"Vehicle : struct.begin {mass=1200, armored}",
		"\t\tarr[1] = 'x''y' {p=2} // note",
		`  name = "unterminated`,
		"struct.end",
		"  ?? ~ @@ 12.5f -4",
		"",
	}

	for _, line := range lines {
		tokens := Tokenize(line, 0)
		var b strings.Builder
		prev := 0
		for _, tok := range tokens {
			gap := line[prev:tok.Start]
			assert.Empty(t, strings.Trim(gap, " \t"), "gap must be whitespace only")
			b.WriteString(gap)
			b.WriteString(tok.Text)
			prev = tok.End
		}
		b.WriteString(line[prev:])
		assert.Equal(t, line, b.String())
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	line := `A : struct.begin {x="1", y} // c`
	assert.Equal(t, Tokenize(line, 3), Tokenize(line, 3))
}

func TestToken_Unterminated(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`'hello'`, false},
		{`'hello`, true},
		{`''`, false},
		{`'`, true},
		{`'it''`, true},
		{`'it'''`, false},
		{`"a""b"`, false},
		{`"abc`, true},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.input, 0)
		require.Len(t, tokens, 1, tt.input)
		assert.Equal(t, tt.want, tokens[0].Unterminated(), tt.input)
	}
}

func TestCodeHelpers(t *testing.T) {
	line := "x = 1 // c"
	tokens := Tokenize(line, 0)

	assert.Len(t, Code(tokens), 3)
	assert.Equal(t, 6, CodeEnd(line, tokens))
	assert.Equal(t, 3, CodeEnd("abc", Tokenize("abc", 0)))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("abc_1-x"))
	assert.True(t, IsIdentifier("_x"))
	assert.False(t, IsIdentifier("1abc"))
	assert.False(t, IsIdentifier("a b"))
	assert.False(t, IsIdentifier(""))
}
