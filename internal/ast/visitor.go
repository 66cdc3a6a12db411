// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     ast
// Description: Visitor dispatch and depth-first traversal helpers
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package ast

// Visitor has one method per node kind. Implementations must handle every
// kind; embed BaseVisitor to inherit plain descent.
type Visitor interface {
	VisitDocument(d *Document) any
	VisitBlock(b *Block) any
	VisitProperty(p *Property) any
	VisitEnd(e *End) any
	VisitInvalid(n *Invalid) any
	VisitMalformedHeader(n *MalformedHeader) any
}

func (d *Document) Accept(v Visitor) any        { return v.VisitDocument(d) }
func (b *Block) Accept(v Visitor) any           { return v.VisitBlock(b) }
func (p *Property) Accept(v Visitor) any        { return v.VisitProperty(p) }
func (e *End) Accept(v Visitor) any             { return v.VisitEnd(e) }
func (n *Invalid) Accept(v Visitor) any         { return v.VisitInvalid(n) }
func (n *MalformedHeader) Accept(v Visitor) any { return v.VisitMalformedHeader(n) }

// BaseVisitor descends into containers and ignores leaves
type BaseVisitor struct {
	// Self is the visitor that children are dispatched to. Set it to the
	// embedding visitor so overridden methods are reached; nil means the
	// BaseVisitor itself.
	Self Visitor
}

func (bv *BaseVisitor) self() Visitor {
	if bv.Self != nil {
		return bv.Self
	}
	return bv
}

func (bv *BaseVisitor) VisitDocument(d *Document) any {
	for _, child := range d.Children {
		child.Accept(bv.self())
	}
	return nil
}

func (bv *BaseVisitor) VisitBlock(b *Block) any {
	for _, child := range b.Children {
		child.Accept(bv.self())
	}
	return nil
}

func (bv *BaseVisitor) VisitProperty(*Property) any               { return nil }
func (bv *BaseVisitor) VisitEnd(*End) any                         { return nil }
func (bv *BaseVisitor) VisitInvalid(*Invalid) any                 { return nil }
func (bv *BaseVisitor) VisitMalformedHeader(*MalformedHeader) any { return nil }

// WalkFunc is called for each node with the enclosing block (nil at root)
// and nesting depth. Returning false skips the node's children.
type WalkFunc func(n Node, parent *Block, depth int) bool

// Walk traverses the tree depth-first in source order
func Walk(root Parent, fn WalkFunc) {
	var parent *Block
	if b, ok := root.(*Block); ok {
		parent = b
	}
	walk(root.Nodes(), parent, 0, fn)
}

func walk(nodes []Node, parent *Block, depth int, fn WalkFunc) {
	for _, n := range nodes {
		if !fn(n, parent, depth) {
			continue
		}
		if b, ok := n.(*Block); ok {
			walk(b.Children, b, depth+1, fn)
		}
	}
}

// Blocks returns every block of the tree in source order
func Blocks(root Parent) []*Block {
	var out []*Block
	Walk(root, func(n Node, _ *Block, _ int) bool {
		if b, ok := n.(*Block); ok {
			out = append(out, b)
		}
		return true
	})
	return out
}

// Counter tallies nodes per kind
type Counter struct {
	BaseVisitor
	Counts map[Kind]int
}

// NewCounter returns a Counter wired to itself
func NewCounter() *Counter {
	c := &Counter{Counts: make(map[Kind]int)}
	c.Self = c
	return c
}

func (c *Counter) VisitDocument(d *Document) any {
	c.Counts[KindDocument]++
	return c.BaseVisitor.VisitDocument(d)
}

func (c *Counter) VisitBlock(b *Block) any {
	c.Counts[KindBlock]++
	return c.BaseVisitor.VisitBlock(b)
}

func (c *Counter) VisitProperty(*Property) any {
	c.Counts[KindProperty]++
	return nil
}

func (c *Counter) VisitEnd(*End) any {
	c.Counts[KindEnd]++
	return nil
}

func (c *Counter) VisitInvalid(*Invalid) any {
	c.Counts[KindInvalid]++
	return nil
}

func (c *Counter) VisitMalformedHeader(*MalformedHeader) any {
	c.Counts[KindMalformedHeader]++
	return nil
}
