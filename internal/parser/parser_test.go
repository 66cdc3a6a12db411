package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/msto63/structlint/internal/ast"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func parse(t *testing.T, text string) *Result {
	t.Helper()
	res := ParseText(text, DefaultOptions())
	require.NotNil(t, res)
	require.NotNil(t, res.Document)
	return res
}

func block(t *testing.T, n ast.Node) *ast.Block {
	t.Helper()
	b, ok := n.(*ast.Block)
	require.True(t, ok, "expected *ast.Block, got %T", n)
	return b
}

func property(t *testing.T, n ast.Node) *ast.Property {
	t.Helper()
	p, ok := n.(*ast.Property)
	require.True(t, ok, "expected *ast.Property, got %T", n)
	return p
}

func TestParse_WellFormed(t *testing.T) {
	text := "Name : struct.begin {param=value, flag}\n" +
		"    key = value\n" +
		"    arr[0] = value\n" +
		"    arr[1] = value {param2=val}\n" +
		"    Nested : struct.begin\n" +
		"    struct.end\n" +
		"struct.end"

	res := parse(t, text)
	assert.Empty(t, res.Resolution.Orphans)
	assert.Empty(t, res.Resolution.Unclosed())

	require.Len(t, res.Document.Children, 1)
	root := block(t, res.Document.Children[0])
	assert.Equal(t, "Name", root.Name())
	assert.Equal(t, 0, root.Start)
	assert.Equal(t, 6, root.End)
	assert.Equal(t, map[string]string{"param": "value", "flag": "true"}, root.Header.Params.Map())
	assert.True(t, root.Header.Params.OK())

	require.Len(t, root.Children, 4)
	assert.Equal(t, "key", property(t, root.Children[0]).Key)
	assert.Equal(t, "arr[0]", property(t, root.Children[1]).Key)

	arr1 := property(t, root.Children[2])
	assert.Equal(t, "arr[1]", arr1.Key)
	assert.Equal(t, "value", arr1.Value)
	require.NotNil(t, arr1.Params)
	assert.Equal(t, map[string]string{"param2": "val"}, arr1.Params.Map())
	assert.Equal(t, 3, arr1.Params.Line)
	assert.Equal(t, "{param2=val}", res.Lines[3][arr1.Params.StartCol:arr1.Params.EndCol])

	nested := block(t, root.Children[3])
	assert.Equal(t, "Nested", nested.Name())
	assert.Equal(t, 4, nested.HeaderIndent)
	assert.Equal(t, 5, nested.End)
	assert.Empty(t, nested.Children)
}

func TestParse_RequiredContentIndentEqualsHeaderIndent(t *testing.T) {
	res := parse(t, "  A : struct.begin\nx = 1\n  struct.end")
	b := block(t, res.Document.Children[0])
	assert.Equal(t, 2, b.HeaderIndent)
	assert.Equal(t, b.HeaderIndent, b.RequiredContentIndent)
}

func TestParse_HeaderParams(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		params   map[string]string
		consumed []int
		line     int
	}{
		{
			name:   "inline",
			text:   "A : struct.begin {x=1,y}\nstruct.end",
			params: map[string]string{"x": "1", "y": "true"},
			line:   0,
		},
		{
			name:     "inline continued on next lines",
			text:     "A : struct.begin {a=1,\n  b=2}\nstruct.end",
			params:   map[string]string{"a": "1", "b": "2"},
			consumed: []int{1},
			line:     0,
		},
		{
			name:     "multi-line block",
			text:     "A : struct.begin\n{\n  x=1,\n  y=2\n}\n  k = v\nstruct.end",
			params:   map[string]string{"x": "1", "y": "2"},
			consumed: []int{1, 2, 3, 4},
			line:     1,
		},
		{
			name:     "brace-only line after blank",
			text:     "A : struct.begin\n\n{a=1}\nstruct.end",
			params:   map[string]string{"a": "1"},
			consumed: []int{2},
			line:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.text)
			require.NotEmpty(t, res.Document.Children)
			b := block(t, res.Document.Children[0])
			require.NotNil(t, b.Header.Params)
			assert.Equal(t, tt.params, b.Header.Params.Map())
			assert.True(t, b.Header.Params.OK())
			assert.Equal(t, tt.line, b.Header.Params.Line)
			assert.Equal(t, len(tt.consumed), res.Resolution.Consumed.Len())
			for _, l := range tt.consumed {
				assert.True(t, res.Resolution.Consumed.Has(l), "line %d not consumed", l)
			}
			assert.True(t, b.Closed())
		})
	}
}

func TestParse_MultiLineParamsDoNotSwallowMarkers(t *testing.T) {
	res := parse(t, "A : struct.begin {a=1,\nstruct.end")
	b := block(t, res.Document.Children[0])
	assert.True(t, b.Closed())
	assert.Equal(t, ast.ShapeMissingClose, b.Header.Params.Shape)
	assert.Zero(t, res.Resolution.Consumed.Len())
}

func TestParse_PropertyLookaheadParams(t *testing.T) {
	res := parse(t, "A : struct.begin\n  x = 1\n  {p=v}\nstruct.end")
	b := block(t, res.Document.Children[0])
	require.Len(t, b.Children, 1)
	p := property(t, b.Children[0])
	assert.Equal(t, "1", p.Value)
	require.NotNil(t, p.Params)
	assert.Equal(t, 2, p.Params.Line)
	assert.Equal(t, 2, p.Params.StartCol)
	assert.Equal(t, 7, p.Params.EndCol)
	assert.Equal(t, map[string]string{"p": "v"}, p.Params.Map())
}

func TestParse_Classification(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind ast.Kind
	}{
		{"assignment", "x = 1", ast.KindProperty},
		{"key joined without spaces", "arr [ 2 ] = v", ast.KindProperty},
		{"colon without keyword", "foo : bar", ast.KindMalformedHeader},
		{"misspelled opener", "A : struct.begn", ast.KindMalformedHeader},
		{"floating string", "'hello'", ast.KindInvalid},
		{"floating number", "42", ast.KindInvalid},
		{"stray punctuation", "}", ast.KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, "A : struct.begin\n"+tt.line+"\nstruct.end")
			b := block(t, res.Document.Children[0])
			require.Len(t, b.Children, 1)
			assert.Equal(t, tt.kind, b.Children[0].Kind())
			assert.Equal(t, 1, b.Children[0].StartLine())
		})
	}

	res := parse(t, "A : struct.begin\narr [ 2 ] = v\nstruct.end")
	assert.Equal(t, "arr[2]", property(t, block(t, res.Document.Children[0]).Children[0]).Key)
}

func TestParse_AssignmentWithOpenerInValue(t *testing.T) {
	res := parse(t, "key=a:struct.begin\nx = 1")
	require.Len(t, res.Document.Children, 2)
	p := property(t, res.Document.Children[0])
	assert.Equal(t, "key", p.Key)
	assert.Equal(t, "a:struct.begin", p.Value)
	assert.Empty(t, res.Resolution.Opens)
}

func TestParse_BlankAndCommentLinesProduceNoNodes(t *testing.T) {
	res := parse(t, "A : struct.begin // opener\n\n  // note\n  x = 1 // trailing\nstruct.end // closer")
	b := block(t, res.Document.Children[0])
	assert.True(t, b.Closed())
	require.Len(t, b.Children, 1)
	assert.Equal(t, "1", property(t, b.Children[0]).Value)
}

func TestParse_Unclosed(t *testing.T) {
	res := parse(t, "A : struct.begin\nx = 1")
	require.Len(t, res.Resolution.Unclosed(), 1)
	b := block(t, res.Document.Children[0])
	assert.False(t, b.Closed())
	assert.Equal(t, ast.NoLine, b.End)
	require.Len(t, b.Children, 1)
	assert.Equal(t, "x", property(t, b.Children[0]).Key)
}

func TestParse_Orphans(t *testing.T) {
	res := parse(t, "struct.end")
	require.Len(t, res.Resolution.Orphans, 1)
	require.Len(t, res.Document.Children, 1)
	end, ok := res.Document.Children[0].(*ast.End)
	require.True(t, ok)
	assert.Equal(t, 0, end.Line)

	res = parse(t, "A : struct.begin\nstruct.end\n  struct.end")
	require.Len(t, res.Resolution.Orphans, 1)
	assert.Equal(t, CloseMarker{Line: 2, Indent: 2}, res.Resolution.Orphans[0])
	require.Len(t, res.Document.Children, 2)
	assert.Equal(t, ast.KindEnd, res.Document.Children[1].Kind())
}

func TestParse_Containment(t *testing.T) {
	text := "A : struct.begin\n" +
		"  a = 1\n" +
		"  B : struct.begin\n" +
		"    b = 2\n" +
		"    C : struct.begin\n" +
		"      c = 3\n" +
		"    struct.end\n" +
		"    b2 = 4\n" +
		"  struct.end\n" +
		"  a2 = 5\n" +
		"struct.end\n" +
		"top = 6"

	res := parse(t, text)
	require.Len(t, res.Document.Children, 2)
	a := block(t, res.Document.Children[0])
	assert.Equal(t, "top", property(t, res.Document.Children[1]).Key)

	require.Len(t, a.Children, 3)
	assert.Equal(t, "a", property(t, a.Children[0]).Key)
	bb := block(t, a.Children[1])
	assert.Equal(t, "a2", property(t, a.Children[2]).Key)

	require.Len(t, bb.Children, 3)
	assert.Equal(t, "b", property(t, bb.Children[0]).Key)
	c := block(t, bb.Children[1])
	assert.Equal(t, "b2", property(t, bb.Children[2]).Key)

	require.Len(t, c.Children, 1)
	assert.Equal(t, "c", property(t, c.Children[0]).Key)

	// every child lies strictly inside its parent
	ast.Walk(res.Document, func(n ast.Node, parent *ast.Block, _ int) bool {
		if parent != nil {
			assert.True(t, parent.Contains(n.StartLine()), "%v not inside %v", n.StartLine(), parent)
		}
		return true
	})

	counter := ast.NewCounter()
	res.Document.Accept(counter)
	assert.Equal(t, 3, counter.Counts[ast.KindBlock])
	assert.Equal(t, 6, counter.Counts[ast.KindProperty])
}

func TestParse_TabsAndCRLF(t *testing.T) {
	res := parse(t, "A : struct.begin\r\n\tx = 1\r\nstruct.end\r\n")
	b := block(t, res.Document.Children[0])
	assert.True(t, b.Closed())
	p := property(t, b.Children[0])
	assert.Equal(t, DefaultTabWidth, p.Indent)
	assert.Equal(t, "1", p.Value)

	res = ParseText("A : struct.begin\n\tx = 1\nstruct.end", Options{TabWidth: 8})
	assert.Equal(t, 8, property(t, block(t, res.Document.Children[0]).Children[0]).Indent)
}

func TestParse_Deterministic(t *testing.T) {
	text := "A : struct.begin {x=1}\n  y = 2\n  B : struct.begin\nstruct.end\nstruct.end\nstruct.end"
	first := parse(t, text)
	second := parse(t, text)
	assert.Equal(t, first.Document, second.Document)
	assert.Equal(t, first.Resolution.Orphans, second.Resolution.Orphans)
}

func TestRecoverOrphans(t *testing.T) {
	t.Run("prefers header indented no deeper than the close", func(t *testing.T) {
		opens := []*OpenMarker{
			{Line: 0, Indent: 0, Close: ast.NoLine},
			{Line: 5, Indent: 4, Close: ast.NoLine},
		}
		left := recoverOrphans(opens, []CloseMarker{{Line: 8, Indent: 0}}, DefaultRecoveryWindow)
		assert.Empty(t, left)
		assert.Equal(t, 8, opens[0].Close)
		assert.Equal(t, ast.NoLine, opens[1].Close)
	})

	t.Run("falls back to the nearest header", func(t *testing.T) {
		opens := []*OpenMarker{
			{Line: 1, Indent: 6, Close: ast.NoLine},
			{Line: 3, Indent: 4, Close: ast.NoLine},
		}
		left := recoverOrphans(opens, []CloseMarker{{Line: 6, Indent: 0}}, DefaultRecoveryWindow)
		assert.Empty(t, left)
		assert.Equal(t, 6, opens[1].Close)
		assert.Equal(t, ast.NoLine, opens[0].Close)
	})

	t.Run("respects the window", func(t *testing.T) {
		opens := []*OpenMarker{{Line: 0, Indent: 0, Close: ast.NoLine}}
		orphan := CloseMarker{Line: 100, Indent: 0}
		left := recoverOrphans(opens, []CloseMarker{orphan}, DefaultRecoveryWindow)
		assert.Equal(t, []CloseMarker{orphan}, left)
		assert.Equal(t, ast.NoLine, opens[0].Close)
	})

	t.Run("ignores closed and later headers", func(t *testing.T) {
		opens := []*OpenMarker{
			{Line: 0, Indent: 0, Close: 2},
			{Line: 9, Indent: 0, Close: ast.NoLine},
		}
		orphan := CloseMarker{Line: 4, Indent: 0}
		left := recoverOrphans(opens, []CloseMarker{orphan}, DefaultRecoveryWindow)
		assert.Equal(t, []CloseMarker{orphan}, left)
	})
}

func TestAssignParents(t *testing.T) {
	opens := []*OpenMarker{
		{Line: 0, Close: 10},
		{Line: 1, Close: 4},
		{Line: 2, Close: 3},
		{Line: 5, Close: ast.NoLine},
	}
	assignParents(opens)
	assert.Equal(t, -1, opens[0].Parent)
	assert.Equal(t, 0, opens[1].Parent)
	assert.Equal(t, 1, opens[2].Parent)
	// an unclosed span is never contained by a closed one
	assert.Equal(t, -1, opens[3].Parent)
}

func TestMatchHeader(t *testing.T) {
	tests := []struct {
		code string
		ok   bool
		name string
		rest string
	}{
		{"A : struct.begin", true, "A", ""},
		{"  A:struct.begin{x=1}", true, "A", "{x=1}"},
		{"A : struct.begin   {x=1} ", true, "A", "{x=1}"},
		{"A B : struct.begin", false, "", ""},
		{" : struct.begin", false, "", ""},
		{"A : struct.beginning", false, "", ""},
		{"A : Struct.begin", false, "", ""},
		{"A = struct.begin", false, "", ""},
		{"key=a:struct.begin", false, "", ""},
		{"a=b : struct.begin", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			m, ok := matchHeader(tt.code)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.name, m.name)
				assert.Equal(t, tt.rest, m.rest)
			}
		})
	}
}
