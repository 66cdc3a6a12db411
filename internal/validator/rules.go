// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     validator
// Description: Structural, lexical and style rules
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package validator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/lexer"
)

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z0-9_.\-\[\]*]+$`)
	paramKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	arrayKeyPattern = regexp.MustCompile(`^(.*)\[(\d+)\]$`)
)

const keywordEnd = "struct.end"

// checkBrackets scans every brace and bracket of the document with one stack
func checkBrackets(c *context) {
	var stack []lexer.Token
	for _, line := range c.parsed.Tokens {
		for _, tok := range lexer.Code(line) {
			switch tok.Kind {
			case lexer.OpenBrace, lexer.OpenBracket:
				stack = append(stack, tok)
			case lexer.CloseBrace, lexer.CloseBracket:
				n := len(stack)
				if n == 0 {
					c.errorf(tok.Line, tok.Start, tok.End, "Unmatched closing %s %q.", bracketWord(tok.Kind), tok.Text)
					continue
				}
				top := stack[n-1]
				stack = stack[:n-1]
				if !pairs(top.Kind, tok.Kind) {
					c.errorf(tok.Line, tok.Start, tok.End, "Closing %s %q does not match the %s %q opened on line %d.",
						bracketWord(tok.Kind), tok.Text, bracketWord(top.Kind), top.Text, top.Line+1)
				}
			}
		}
	}
	for _, tok := range stack {
		c.errorf(tok.Line, tok.Start, tok.End, "Unclosed %s %q.", bracketWord(tok.Kind), tok.Text)
	}
}

func bracketWord(k lexer.Kind) string {
	if k == lexer.OpenBrace || k == lexer.CloseBrace {
		return "brace"
	}
	return "bracket"
}

func pairs(open, closing lexer.Kind) bool {
	return (open == lexer.OpenBrace && closing == lexer.CloseBrace) ||
		(open == lexer.OpenBracket && closing == lexer.CloseBracket)
}

func checkUnclosed(c *context) {
	c.eachBlock(func(b *ast.Block) {
		if b.Closed() {
			return
		}
		h := b.Header
		c.errorf(h.Line, h.NameCol, h.NameCol+len(h.Name),
			"Block %q was not closed. Add a matching %q.", h.Name, keywordEnd)
	})
}

// checkOrphans reports unmatched struct.end lines. A close directly after
// another orphan is not reported, nor is one followed only by a header or
// the end of the file once an earlier orphan has been reported: both are
// echoes of a single broken region.
func checkOrphans(c *context) {
	res := c.parsed.Resolution
	orphan := make(map[int]bool, len(res.Orphans))
	for _, o := range res.Orphans {
		orphan[o.Line] = true
	}
	header := make(map[int]bool, len(res.Opens))
	for _, o := range res.Opens {
		header[o.Line] = true
	}

	reported := false
	for _, o := range res.Orphans {
		if prev, ok := c.prevCodeLine(o.Line); ok && orphan[prev] {
			continue
		}
		next, ok := c.nextCodeLine(o.Line)
		if reported && (!ok || header[next]) {
			continue
		}
		start, end := c.lineSpan(o.Line)
		c.errorf(o.Line, start, end, "Found %q without a matching %q.", keywordEnd, "struct.begin")
		reported = true
	}
}

func (c *context) hasCode(i int) bool {
	return len(lexer.Code(c.parsed.Tokens[i])) > 0
}

func (c *context) prevCodeLine(i int) (int, bool) {
	for j := i - 1; j >= 0; j-- {
		if c.hasCode(j) {
			return j, true
		}
	}
	return 0, false
}

func (c *context) nextCodeLine(i int) (int, bool) {
	for j := i + 1; j < len(c.parsed.Lines); j++ {
		if c.hasCode(j) {
			return j, true
		}
	}
	return 0, false
}

// checkHeaderIndent requires nested headers to sit at least one step deeper
// than their parent header
func checkHeaderIndent(c *context) {
	ast.Walk(c.parsed.Document, func(n ast.Node, parent *ast.Block, _ int) bool {
		b, ok := n.(*ast.Block)
		if !ok || parent == nil {
			return true
		}
		required := parent.HeaderIndent + c.opts.IndentStep
		if b.HeaderIndent < required {
			h := b.Header
			c.errorf(h.Line, h.NameCol, h.NameCol+len(h.Name),
				"Block %q is indented %d columns; inside %q it needs at least %d.",
				h.Name, b.HeaderIndent, parent.Name(), required)
		}
		return true
	})
}

func checkParams(c *context) {
	ast.Walk(c.parsed.Document, func(n ast.Node, _ *ast.Block, _ int) bool {
		switch n := n.(type) {
		case *ast.Block:
			c.paramSet(n.Header.Params)
		case *ast.Property:
			c.paramSet(n.Params)
		}
		return true
	})
}

func (c *context) paramSet(ps *ast.ParamSet) {
	if ps == nil {
		return
	}
	line, start, end := ps.Line, ps.StartCol, ps.EndCol

	switch ps.Shape {
	case ast.ShapeMissingOpen:
		c.warnf(line, start, end, "Parameter block is missing its opening brace \"{\".")
	case ast.ShapeMissingClose:
		c.warnf(line, start, end, "Parameter block is missing its closing brace \"}\".")
	case ast.ShapeMalformed:
		c.warnf(line, start, end, "Malformed parameter block; expected {key=value, ...}.")
	}
	for _, seg := range ps.Malformed {
		c.warnf(line, start, end, "Parameter %q is neither key=value nor a bare key.", seg)
	}
	for _, p := range ps.Pairs {
		if !paramKeyPattern.MatchString(p.Key) {
			c.warnf(line, start, end, "Parameter key %q may only contain letters, digits, \"_\" and \"-\".", p.Key)
		}
		if !p.Bare && p.Value == "" {
			c.warnf(line, start, end, "Parameter %q has an empty value.", p.Key)
		}
	}
}

// checkContentIndent flags children less indented than their block allows
func checkContentIndent(c *context) {
	c.eachBlock(func(b *ast.Block) {
		for _, child := range b.Children {
			if _, nested := child.(*ast.Block); nested {
				continue
			}
			indent := ast.Indent(child)
			if indent >= b.RequiredContentIndent {
				continue
			}
			start, end := c.lineSpan(child.StartLine())
			c.warnf(child.StartLine(), start, end,
				"Expected indentation of at least %d columns inside %q, found %d.",
				b.RequiredContentIndent, b.Name(), indent)
		}
	})
}

// checkArrayOrder requires numeric indices of one array to count up by one
// among siblings
func checkArrayOrder(c *context) {
	c.eachParent(func(p ast.Parent) {
		last := make(map[string]int)
		for _, n := range p.Nodes() {
			prop, ok := n.(*ast.Property)
			if !ok {
				continue
			}
			m := arrayKeyPattern.FindStringSubmatch(prop.Key)
			if m == nil {
				continue
			}
			base := m[1]
			idx, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			prev, seen := last[base]
			last[base] = idx
			switch {
			case !seen:
			case idx <= prev:
				c.warnf(prop.Line, prop.KeyCol, prop.KeyEnd,
					"Array index %s is out of order; it follows %s[%d].", prop.Key, base, prev)
			case idx > prev+1:
				c.warnf(prop.Line, prop.KeyCol, prop.KeyEnd,
					"Array index %s skips ahead; expected %s[%d].", prop.Key, base, prev+1)
			}
		}
	})
}

func checkNaming(c *context) {
	ast.Walk(c.parsed.Document, func(n ast.Node, _ *ast.Block, _ int) bool {
		switch n := n.(type) {
		case *ast.Block:
			h := n.Header
			if !namePattern.MatchString(h.Name) {
				c.warnf(h.Line, h.NameCol, h.NameCol+len(h.Name), "Block name %q contains invalid characters.", h.Name)
			}
		case *ast.Property:
			if n.Key == "" {
				start, end := c.lineSpan(n.Line)
				c.warnf(n.Line, start, end, "Property has no key before \"=\".")
				break
			}
			if !namePattern.MatchString(n.Key) {
				c.warnf(n.Line, n.KeyCol, n.KeyEnd, "Property key %q contains invalid characters.", n.Key)
			}
		}
		return true
	})
}

// checkDuplicateKeys flags a key set twice among the same siblings. The [*]
// wildcard may repeat.
func checkDuplicateKeys(c *context) {
	c.eachParent(func(p ast.Parent) {
		first := make(map[string]int)
		for _, n := range p.Nodes() {
			prop, ok := n.(*ast.Property)
			if !ok || prop.Key == "" || strings.HasSuffix(prop.Key, "[*]") {
				continue
			}
			if line, dup := first[prop.Key]; dup {
				c.warnf(prop.Line, prop.KeyCol, prop.KeyEnd,
					"Duplicate key %q; first set on line %d.", prop.Key, line+1)
				continue
			}
			first[prop.Key] = prop.Line
		}
	})
}

func checkUnterminated(c *context) {
	for _, line := range c.parsed.Tokens {
		for _, tok := range line {
			if tok.IsString() && tok.Unterminated() {
				c.errorf(tok.Line, tok.Start, tok.End, "Unterminated string literal.")
			}
		}
	}
}

func checkInvalid(c *context) {
	v := &invalidVisitor{ctx: c}
	v.Self = v
	c.parsed.Document.Accept(v)
}

// lineHasUnterminated reports whether a line already carries a lexical error
func (c *context) lineHasUnterminated(line int) bool {
	for _, tok := range c.parsed.Tokens[line] {
		if tok.IsString() && tok.Unterminated() {
			return true
		}
	}
	return false
}
