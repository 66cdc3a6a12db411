// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     parser
// Description: AST builder. Second pass over the lines: turns resolved
//              markers into Block/End nodes, classifies every other code line
//              as Property, MalformedHeader or Invalid, and attaches each node
//              to the innermost block whose span contains it.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package parser

import (
	"strings"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/lexer"
)

// builder holds the state of one Build call. taken collects brace-only lines
// claimed by property look-ahead; the resolver's sets are only read.
type builder struct {
	lines  []string
	tokens [][]lexer.Token
	res    *Resolution
	opts   Options
	taken  map[int]struct{}
}

// Build constructs the syntax tree from the lines, their tokens and the
// resolver output
func Build(lines []string, tokens [][]lexer.Token, res *Resolution, opts Options) *ast.Document {
	b := &builder{
		lines:  lines,
		tokens: tokens,
		res:    res,
		opts:   opts.withDefaults(),
		taken:  make(map[int]struct{}),
	}
	return b.run()
}

func (b *builder) run() *ast.Document {
	doc := &ast.Document{Lines: len(b.lines)}

	blocks := make([]*ast.Block, len(b.res.Opens))
	for i, open := range b.res.Opens {
		blocks[i] = &ast.Block{
			Header: ast.Header{
				Name:    open.Name,
				NameCol: open.NameCol,
				Params:  open.Params,
				Indent:  open.Indent,
				Line:    open.Line,
			},
			Start:                 open.Line,
			End:                   open.Close,
			EndIndent:             open.CloseIndent,
			HeaderIndent:          open.Indent,
			RequiredContentIndent: open.Indent,
		}
	}

	var leaves []ast.Node
	for _, orphan := range b.res.Orphans {
		leaves = append(leaves, &ast.End{Line: orphan.Line, Indent: orphan.Indent})
	}
	for i := range b.lines {
		if b.skip(i) {
			continue
		}
		if n := b.classify(i); n != nil {
			leaves = append(leaves, n)
		}
	}

	// blocks nest by the parents computed from final spans
	for i, open := range b.res.Opens {
		if open.Parent >= 0 {
			parent := blocks[open.Parent]
			parent.Children = append(parent.Children, blocks[i])
		} else {
			doc.Children = append(doc.Children, blocks[i])
		}
	}

	for _, leaf := range leaves {
		if parent := innermost(blocks, leaf.StartLine()); parent != nil {
			parent.Children = append(parent.Children, leaf)
		} else {
			doc.Children = append(doc.Children, leaf)
		}
	}

	ast.SortChildren(doc.Children)
	for _, blk := range blocks {
		ast.SortChildren(blk.Children)
	}
	return doc
}

func (b *builder) skip(i int) bool {
	if b.res.Markers.Has(i) || b.res.Consumed.Has(i) {
		return true
	}
	_, taken := b.taken[i]
	return taken
}

func (b *builder) code(i int) string {
	return b.lines[i][:lexer.CodeEnd(b.lines[i], b.tokens[i])]
}

// classify turns a non-marker line into a leaf node; blank and comment-only
// lines yield nil
func (b *builder) classify(i int) ast.Node {
	code := b.code(i)
	text := strings.TrimSpace(code)
	if text == "" {
		return nil
	}
	indent := MeasureIndent(b.lines[i], b.opts.TabWidth)
	tokens := lexer.Code(b.tokens[i])

	if eq := topLevel(tokens, lexer.Equals); eq >= 0 {
		return b.property(i, indent, code, tokens, eq)
	}
	if topLevel(tokens, lexer.Colon) >= 0 {
		return &ast.MalformedHeader{Text: text, Indent: indent, Line: i}
	}
	return &ast.Invalid{Text: text, Indent: indent, Line: i}
}

func (b *builder) property(i, indent int, code string, tokens []lexer.Token, eq int) *ast.Property {
	var key strings.Builder
	for _, tok := range tokens[:eq] {
		key.WriteString(tok.Text)
	}

	p := &ast.Property{
		Key:    key.String(),
		KeyCol: tokens[eq].Start,
		KeyEnd: tokens[eq].Start,
		Indent: indent,
		Line:   i,
	}
	if eq > 0 {
		p.KeyCol = tokens[0].Start
		p.KeyEnd = tokens[eq-1].End
	}

	after := code[tokens[eq].End:]
	valueCol := tokens[eq].End + LeadingWhitespace(after)
	value := strings.TrimSpace(after)

	if head, raw, offset, ok := splitTrailingParams(value); ok {
		p.Value = head
		p.Params = ParseParams(raw)
		p.Params.Line = i
		p.Params.StartCol = valueCol + offset
		p.Params.EndCol = valueCol + len(value)
		return p
	}

	p.Value = value
	if j, ok := b.lookahead(i); ok {
		b.taken[j] = struct{}{}
		line := b.lines[j]
		p.Params = ParseParams(strings.TrimSpace(b.code(j)))
		p.Params.Line = j
		p.Params.StartCol = LeadingWhitespace(line)
		p.Params.EndCol = len(strings.TrimRight(b.code(j), " \t"))
	}
	return p
}

// lookahead finds a brace-only line following a property within the window
func (b *builder) lookahead(i int) (int, bool) {
	for j := i + 1; j < len(b.lines) && j <= i+b.opts.ParamLookahead; j++ {
		if b.skip(j) {
			return 0, false
		}
		code := strings.TrimSpace(b.code(j))
		if code == "" {
			continue
		}
		return j, isBraceOnly(code)
	}
	return 0, false
}

// topLevel returns the index of the first token of kind outside braces and
// brackets, or -1
func topLevel(tokens []lexer.Token, kind lexer.Kind) int {
	depth := 0
	for i, tok := range tokens {
		switch tok.Kind {
		case lexer.OpenBrace, lexer.OpenBracket:
			depth++
		case lexer.CloseBrace, lexer.CloseBracket:
			if depth > 0 {
				depth--
			}
		case kind:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// innermost returns the smallest block whose span strictly contains line
func innermost(blocks []*ast.Block, line int) *ast.Block {
	var best *ast.Block
	for _, blk := range blocks {
		if !blk.Contains(line) {
			continue
		}
		if best == nil || smallerBlock(blk, best) {
			best = blk
		}
	}
	return best
}

func smallerBlock(a, b *ast.Block) bool {
	ea, eb := blockEnd(a), blockEnd(b)
	if ea-a.Start != eb-b.Start {
		return ea-a.Start < eb-b.Start
	}
	return a.Start > b.Start
}

func blockEnd(b *ast.Block) int {
	if !b.Closed() {
		return int(^uint(0) >> 1)
	}
	return b.End
}
