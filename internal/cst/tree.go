package cst

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"ramc/internal/source"
	"ramc/internal/token"
)

type (
	// NodeID identifies a node within a Tree (1-based, 0 = none).
	NodeID uint32
	// TokenID identifies a leaf token within a Tree (1-based, 0 = none).
	TokenID uint32
)

const (
	NoNodeID  NodeID  = 0
	NoTokenID TokenID = 0
)

func (id NodeID) IsValid() bool  { return id != NoNodeID }
func (id TokenID) IsValid() bool { return id != NoTokenID }

// Child points at either a nested node or a leaf token, never both.
type Child struct {
	Node  NodeID
	Token TokenID
}

// IsToken reports whether the child is a leaf.
func (c Child) IsToken() bool { return c.Token.IsValid() }

// Node is one interior node of the tree. Children appear in source order;
// the concatenation of a node's leaves reproduces the covered text exactly.
type Node struct {
	Kind     NodeKind
	Span     source.Span
	Children []Child
}

// Tree is a lossless concrete syntax tree. The tree exclusively owns its
// nodes and tokens in contiguous arenas; parent links are not stored and
// are recovered by traversal.
type Tree struct {
	File   source.FileID
	nodes  []Node
	tokens []token.Token
	root   NodeID
}

// Root returns the ROOT node ID.
func (t *Tree) Root() NodeID {
	return t.root
}

// Node returns the node for an ID, or nil for NoNodeID.
func (t *Tree) Node(id NodeID) *Node {
	if !id.IsValid() {
		return nil
	}
	return &t.nodes[id-1]
}

// Token returns the leaf token for an ID.
func (t *Tree) Token(id TokenID) *token.Token {
	if !id.IsValid() {
		return nil
	}
	return &t.tokens[id-1]
}

// NumNodes returns the node count.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// FirstChildOfKind returns the first nested node of the given kind.
func (t *Tree) FirstChildOfKind(id NodeID, kind NodeKind) NodeID {
	n := t.Node(id)
	if n == nil {
		return NoNodeID
	}
	for _, c := range n.Children {
		if c.Node.IsValid() && t.Node(c.Node).Kind == kind {
			return c.Node
		}
	}
	return NoNodeID
}

// ChildNodesOfKind returns all nested nodes of the given kind, in order.
func (t *Tree) ChildNodesOfKind(id NodeID, kind NodeKind) []NodeID {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	for _, c := range n.Children {
		if c.Node.IsValid() && t.Node(c.Node).Kind == kind {
			out = append(out, c.Node)
		}
	}
	return out
}

// FirstTokenOfKind returns the first direct leaf of the given kind.
func (t *Tree) FirstTokenOfKind(id NodeID, kind token.Kind) TokenID {
	n := t.Node(id)
	if n == nil {
		return NoTokenID
	}
	for _, c := range n.Children {
		if c.Token.IsValid() && t.Token(c.Token).Kind == kind {
			return c.Token
		}
	}
	return NoTokenID
}

// Text reconstructs the source text covered by a node by concatenating its
// leaves. Text(Root()) equals the original input byte for byte.
func (t *Tree) Text(id NodeID) string {
	var sb strings.Builder
	t.writeText(&sb, id)
	return sb.String()
}

func (t *Tree) writeText(sb *strings.Builder, id NodeID) {
	n := t.Node(id)
	if n == nil {
		return
	}
	for _, c := range n.Children {
		if c.IsToken() {
			sb.WriteString(t.Token(c.Token).Text)
		} else {
			t.writeText(sb, c.Node)
		}
	}
}

// Dump renders the tree structure for debugging and golden tests.
func (t *Tree) Dump() string {
	var sb strings.Builder
	t.dumpNode(&sb, t.root, 0)
	return sb.String()
}

func (t *Tree) dumpNode(sb *strings.Builder, id NodeID, depth int) {
	n := t.Node(id)
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s@%d..%d\n", indent, n.Kind, n.Span.Start, n.Span.End)
	for _, c := range n.Children {
		if c.IsToken() {
			tok := t.Token(c.Token)
			fmt.Fprintf(sb, "%s  %s@%d..%d %q\n",
				indent, tok.Kind, tok.Span.Start, tok.Span.End, tok.Text)
		} else {
			t.dumpNode(sb, c.Node, depth+1)
		}
	}
}

// Builder assembles a Tree with an open/close node stack. Tokens pushed
// between Open and Close become children of the innermost open node;
// trivia is materialized before its owning token so the tree stays lossless.
type Builder struct {
	tree  *Tree
	stack []NodeID
}

// NewBuilder starts a tree for the given file.
func NewBuilder(file source.FileID) *Builder {
	b := &Builder{
		tree: &Tree{
			File:   file,
			nodes:  make([]Node, 0, 128),
			tokens: make([]token.Token, 0, 256),
		},
	}
	b.tree.root = b.Open(KindRoot)
	return b
}

// Open starts a node of the given kind and makes it current.
func (b *Builder) Open(kind NodeKind) NodeID {
	b.tree.nodes = append(b.tree.nodes, Node{Kind: kind})
	n, err := safecast.Conv[uint32](len(b.tree.nodes))
	if err != nil {
		panic(fmt.Errorf("node count overflow: %w", err))
	}
	id := NodeID(n)
	if len(b.stack) > 0 {
		parent := b.current()
		b.tree.nodes[parent-1].Children = append(b.tree.nodes[parent-1].Children, Child{Node: id})
	}
	b.stack = append(b.stack, id)
	return id
}

// Close finishes the current node, computing its span from its children.
// Trivia leaves stay in the tree for losslessness but do not widen the
// span, so diagnostics underline exactly the significant text.
func (b *Builder) Close() {
	id := b.current()
	b.stack = b.stack[:len(b.stack)-1]
	node := &b.tree.nodes[id-1]
	first := true
	for _, c := range node.Children {
		var sp source.Span
		if c.IsToken() {
			leaf := &b.tree.tokens[c.Token-1]
			if leaf.Kind.IsTrivia() {
				continue
			}
			sp = leaf.Span
		} else {
			sp = b.tree.nodes[c.Node-1].Span
		}
		if first {
			node.Span = sp
			first = false
		} else {
			node.Span = node.Span.Cover(sp)
		}
	}
	if first {
		node.Span = source.Span{File: b.tree.File}
	}
}

// PushToken appends a significant token, materializing its leading trivia
// as leaves first. The trivia lands in the current node.
func (b *Builder) PushToken(tok token.Token) {
	for _, tr := range tok.Leading {
		b.pushLeaf(tr)
	}
	if tok.Kind != token.EOF {
		stripped := tok
		stripped.Leading = nil
		b.pushLeaf(stripped)
	}
}

func (b *Builder) pushLeaf(tok token.Token) {
	b.tree.tokens = append(b.tree.tokens, tok)
	n, err := safecast.Conv[uint32](len(b.tree.tokens))
	if err != nil {
		panic(fmt.Errorf("token count overflow: %w", err))
	}
	id := TokenID(n)
	parent := b.current()
	b.tree.nodes[parent-1].Children = append(b.tree.nodes[parent-1].Children, Child{Token: id})
}

// Finish closes the root and returns the completed tree.
func (b *Builder) Finish() *Tree {
	for len(b.stack) > 0 {
		b.Close()
	}
	return b.tree
}

func (b *Builder) current() NodeID {
	return b.stack[len(b.stack)-1]
}
