// Package ast provides a typed, trivia-suppressed view over the concrete
// syntax tree. Nodes are thin wrappers around cst IDs; they are cheap to
// construct and only valid while the backing tree is alive.
package ast

import (
	"ramc/internal/cst"
	"ramc/internal/source"
	"ramc/internal/token"
)

// Program is the root of the typed view.
type Program struct {
	Tree *cst.Tree
}

// NewProgram wraps a parsed tree.
func NewProgram(tree *cst.Tree) Program {
	return Program{Tree: tree}
}

// Lines returns every LINE of the program in source order.
func (p Program) Lines() []Line {
	ids := p.Tree.ChildNodesOfKind(p.Tree.Root(), cst.KindLine)
	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, Line{tree: p.Tree, id: id})
	}
	return lines
}

// Line is one source line holding optional labels and an instruction.
type Line struct {
	tree *cst.Tree
	id   cst.NodeID
}

func (l Line) Span() source.Span {
	return l.tree.Node(l.id).Span
}

// Labels returns the label definitions preceding the instruction.
func (l Line) Labels() []LabelDef {
	ids := l.tree.ChildNodesOfKind(l.id, cst.KindLabelDef)
	out := make([]LabelDef, 0, len(ids))
	for _, id := range ids {
		out = append(out, LabelDef{tree: l.tree, id: id})
	}
	return out
}

// Instruction returns the instruction on this line, if any.
func (l Line) Instruction() (Instruction, bool) {
	id := l.tree.FirstChildOfKind(l.id, cst.KindInstruction)
	if !id.IsValid() {
		return Instruction{}, false
	}
	return Instruction{tree: l.tree, id: id}, true
}

// LabelDef is `IDENT ':'`.
type LabelDef struct {
	tree *cst.Tree
	id   cst.NodeID
}

// Name returns the label identifier text.
func (d LabelDef) Name() string {
	tok := d.tree.FirstTokenOfKind(d.id, token.Ident)
	if !tok.IsValid() {
		return ""
	}
	return d.tree.Token(tok).Text
}

func (d LabelDef) Span() source.Span {
	return d.tree.Node(d.id).Span
}

// Instruction is `IDENT [operand]`.
type Instruction struct {
	tree *cst.Tree
	id   cst.NodeID
}

// Opcode returns the mnemonic exactly as written (case preserved).
func (i Instruction) Opcode() string {
	tok := i.tree.FirstTokenOfKind(i.id, token.Ident)
	if !tok.IsValid() {
		return ""
	}
	return i.tree.Token(tok).Text
}

// OpcodeSpan returns the span of the mnemonic token.
func (i Instruction) OpcodeSpan() source.Span {
	tok := i.tree.FirstTokenOfKind(i.id, token.Ident)
	if !tok.IsValid() {
		return i.Span()
	}
	return i.tree.Token(tok).Span
}

func (i Instruction) Span() source.Span {
	return i.tree.Node(i.id).Span
}

// Operand returns the operand, if present.
func (i Instruction) Operand() (Operand, bool) {
	id := i.tree.FirstChildOfKind(i.id, cst.KindOperand)
	if !id.IsValid() {
		return Operand{}, false
	}
	return Operand{tree: i.tree, id: id}, true
}

// OperandKind discriminates the four operand shapes.
type OperandKind uint8

const (
	// OperandInvalid marks an operand whose body failed to parse.
	OperandInvalid OperandKind = iota
	// OperandImmediate is `'=' NUMBER`.
	OperandImmediate
	// OperandDirect is `NUMBER [accessor]`.
	OperandDirect
	// OperandIndirect is `'*' NUMBER`.
	OperandIndirect
	// OperandLabelRef is a bare identifier.
	OperandLabelRef
)

// Operand is a tagged view over the operand shapes.
type Operand struct {
	tree *cst.Tree
	id   cst.NodeID
}

func (o Operand) Span() source.Span {
	return o.tree.Node(o.id).Span
}

// Kind inspects the wrapped shape node.
func (o Operand) Kind() OperandKind {
	switch {
	case o.tree.FirstChildOfKind(o.id, cst.KindImmediate).IsValid():
		return OperandImmediate
	case o.tree.FirstChildOfKind(o.id, cst.KindDirect).IsValid():
		return OperandDirect
	case o.tree.FirstChildOfKind(o.id, cst.KindIndirect).IsValid():
		return OperandIndirect
	case o.tree.FirstChildOfKind(o.id, cst.KindLabelRef).IsValid():
		return OperandLabelRef
	default:
		return OperandInvalid
	}
}

// NumberText returns the digits of the shape's NUMBER token.
func (o Operand) NumberText() (string, bool) {
	return numberOf(o.tree, o.shapeNode())
}

// LabelName returns the identifier of a label reference operand.
func (o Operand) LabelName() (string, bool) {
	ref := o.tree.FirstChildOfKind(o.id, cst.KindLabelRef)
	if !ref.IsValid() {
		return "", false
	}
	tok := o.tree.FirstTokenOfKind(ref, token.Ident)
	if !tok.IsValid() {
		return "", false
	}
	return o.tree.Token(tok).Text, true
}

// Accessor returns the array accessor of a direct operand, if present.
func (o Operand) Accessor() (Accessor, bool) {
	direct := o.tree.FirstChildOfKind(o.id, cst.KindDirect)
	if !direct.IsValid() {
		return Accessor{}, false
	}
	acc := o.tree.FirstChildOfKind(direct, cst.KindAccessor)
	if !acc.IsValid() {
		return Accessor{}, false
	}
	return Accessor{tree: o.tree, id: acc}, true
}

func (o Operand) shapeNode() cst.NodeID {
	n := o.tree.Node(o.id)
	for _, c := range n.Children {
		if c.Node.IsValid() {
			return c.Node
		}
	}
	return cst.NoNodeID
}

// Accessor is `'[' index ']'`.
type Accessor struct {
	tree *cst.Tree
	id   cst.NodeID
}

func (a Accessor) Span() source.Span {
	return a.tree.Node(a.id).Span
}

// Index returns the operand between the brackets.
func (a Accessor) Index() (Index, bool) {
	id := a.tree.FirstChildOfKind(a.id, cst.KindIndex)
	if !id.IsValid() {
		return Index{}, false
	}
	return Index{tree: a.tree, id: id}, true
}

// Index is the restricted operand inside an accessor: immediate, direct
// (no nested accessor), or indirect.
type Index struct {
	tree *cst.Tree
	id   cst.NodeID
}

func (ix Index) Span() source.Span {
	return ix.tree.Node(ix.id).Span
}

// Kind discriminates the index shape.
func (ix Index) Kind() OperandKind {
	switch {
	case ix.tree.FirstChildOfKind(ix.id, cst.KindImmediate).IsValid():
		return OperandImmediate
	case ix.tree.FirstChildOfKind(ix.id, cst.KindDirect).IsValid():
		return OperandDirect
	case ix.tree.FirstChildOfKind(ix.id, cst.KindIndirect).IsValid():
		return OperandIndirect
	default:
		return OperandInvalid
	}
}

// NumberText returns the digits of the index's NUMBER token.
func (ix Index) NumberText() (string, bool) {
	n := ix.tree.Node(ix.id)
	for _, c := range n.Children {
		if c.Node.IsValid() {
			return numberOf(ix.tree, c.Node)
		}
	}
	return "", false
}

func numberOf(tree *cst.Tree, shape cst.NodeID) (string, bool) {
	if !shape.IsValid() {
		return "", false
	}
	tok := tree.FirstTokenOfKind(shape, token.Number)
	if !tok.IsValid() {
		return "", false
	}
	return tree.Token(tok).Text, true
}
