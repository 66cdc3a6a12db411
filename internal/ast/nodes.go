// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     ast
// Description: Syntax tree of a configuration document. The node set is
//              closed: every node implements the unexported node() marker and
//              is dispatched through Visitor, so adding a kind breaks every
//              visitor at compile time.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package ast

import (
	"fmt"
	"sort"
)

// NoLine marks an unset line, e.g. the end line of an unclosed block
const NoLine = -1

// Kind is the discriminant of a node
type Kind int

const (
	KindDocument Kind = iota
	KindBlock
	KindProperty
	KindEnd
	KindInvalid
	KindMalformedHeader
)

// String returns the name of the node kind
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "Document"
	case KindBlock:
		return "Block"
	case KindProperty:
		return "Property"
	case KindEnd:
		return "End"
	case KindInvalid:
		return "Invalid"
	case KindMalformedHeader:
		return "MalformedHeader"
	default:
		return "Unknown"
	}
}

// Node is implemented by every tree node
type Node interface {
	Kind() Kind
	// StartLine is the zero-based line the node begins on
	StartLine() int
	// Accept dispatches to the matching Visitor method
	Accept(v Visitor) any
	node()
}

// Parent is implemented by nodes that own children (Document and Block)
type Parent interface {
	Node
	Nodes() []Node
}

// Param is one key/value pair of a {...} segment
type Param struct {
	Key   string
	Value string
	// Bare is set for a key written without "=value"; Value is then "true"
	Bare bool
}

// ShapeError classifies why a parameter segment could not be read
type ShapeError int

const (
	ShapeOK ShapeError = iota
	ShapeMissingOpen
	ShapeMissingClose
	ShapeMalformed
)

// ParamSet is the parsed form of a {...} parameter segment
type ParamSet struct {
	Raw       string
	Line      int
	StartCol  int
	EndCol    int
	Pairs     []Param
	Shape     ShapeError
	Malformed []string // segments that are neither key=value nor key
}

// Map returns the pairs as a map; later keys win
func (p *ParamSet) Map() map[string]string {
	if p == nil {
		return nil
	}
	m := make(map[string]string, len(p.Pairs))
	for _, pair := range p.Pairs {
		m[pair.Key] = pair.Value
	}
	return m
}

// OK reports whether the segment parsed cleanly
func (p *ParamSet) OK() bool {
	return p == nil || (p.Shape == ShapeOK && len(p.Malformed) == 0)
}

// Header is the opening line of a block
type Header struct {
	Name    string
	NameCol int
	Params  *ParamSet // nil when the header has no parameters
	Indent  int
	Line    int
}

// Document is the root of the tree
type Document struct {
	Children []Node
	Lines    int
}

// Block is a struct.begin ... struct.end region
type Block struct {
	Header   Header
	Children []Node

	Start int
	// End is the line of the matching struct.end, NoLine while unclosed
	End       int
	EndIndent int

	HeaderIndent int
	// RequiredContentIndent is the indent direct children must meet. The
	// parser sets it to HeaderIndent; the formatter recomputes it as
	// HeaderIndent plus the indent step.
	RequiredContentIndent int
}

// Property is a key = value line
type Property struct {
	Key    string
	KeyCol int
	KeyEnd int
	Value  string
	Params *ParamSet
	Indent int
	Line   int
}

// End is a struct.end that no block absorbed
type End struct {
	Line   int
	Indent int
}

// Invalid is a line that is neither header, close marker nor assignment
type Invalid struct {
	Text   string
	Indent int
	Line   int
}

// MalformedHeader is an invalid line containing ':' (likely a broken opener)
type MalformedHeader struct {
	Text   string
	Indent int
	Line   int
}

func (*Document) node()        {}
func (*Block) node()           {}
func (*Property) node()        {}
func (*End) node()             {}
func (*Invalid) node()         {}
func (*MalformedHeader) node() {}

func (*Document) Kind() Kind        { return KindDocument }
func (*Block) Kind() Kind           { return KindBlock }
func (*Property) Kind() Kind        { return KindProperty }
func (*End) Kind() Kind             { return KindEnd }
func (*Invalid) Kind() Kind         { return KindInvalid }
func (*MalformedHeader) Kind() Kind { return KindMalformedHeader }

func (*Document) StartLine() int          { return 0 }
func (b *Block) StartLine() int           { return b.Start }
func (p *Property) StartLine() int        { return p.Line }
func (e *End) StartLine() int             { return e.Line }
func (n *Invalid) StartLine() int         { return n.Line }
func (n *MalformedHeader) StartLine() int { return n.Line }

func (d *Document) Nodes() []Node { return d.Children }
func (b *Block) Nodes() []Node    { return b.Children }

// Closed reports whether a matching struct.end was found
func (b *Block) Closed() bool {
	return b.End != NoLine
}

// Name returns the block name
func (b *Block) Name() string {
	return b.Header.Name
}

// Contains reports whether line lies strictly inside the block span. An
// unclosed block extends to infinity.
func (b *Block) Contains(line int) bool {
	return line > b.Start && (!b.Closed() || line < b.End)
}

func (b *Block) String() string {
	if b.Closed() {
		return fmt.Sprintf("Block(%s %d-%d)", b.Header.Name, b.Start, b.End)
	}
	return fmt.Sprintf("Block(%s %d-open)", b.Header.Name, b.Start)
}

// Indent returns the leading indent of a node's own line. Documents have none.
func Indent(n Node) int {
	switch n := n.(type) {
	case *Block:
		return n.HeaderIndent
	case *Property:
		return n.Indent
	case *End:
		return n.Indent
	case *Invalid:
		return n.Indent
	case *MalformedHeader:
		return n.Indent
	default:
		return 0
	}
}

// SortChildren orders children by start line
func SortChildren(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].StartLine() < nodes[j].StartLine()
	})
}
