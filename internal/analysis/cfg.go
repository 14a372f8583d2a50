package analysis

import (
	"fmt"
	"sort"

	"ramc/internal/diag"
	"ramc/internal/hir"
)

// PassCFG is the tag of the control-flow graph pass.
const PassCFG PassID = "cfg"

// BlockID identifies a basic block. The entry block is 0.
type BlockID uint32

// EdgeKind labels a successor edge.
type EdgeKind uint8

const (
	// EdgeFallthrough continues to the next instruction.
	EdgeFallthrough EdgeKind = iota
	// EdgeJump is an unconditional transfer.
	EdgeJump
	// EdgeJumpTrue is the taken edge of a conditional jump.
	EdgeJumpTrue
	// EdgeJumpFalse is the not-taken edge of a conditional jump.
	EdgeJumpFalse
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeFallthrough:
		return "fallthrough"
	case EdgeJump:
		return "jump"
	case EdgeJumpTrue:
		return "jump-true"
	case EdgeJumpFalse:
		return "jump-false"
	}
	return "unknown"
}

// Edge is one successor of a block.
type Edge struct {
	To   BlockID
	Kind EdgeKind
}

// Block owns a contiguous range of instructions [First, Last].
type Block struct {
	ID    BlockID
	First hir.InstrID
	Last  hir.InstrID
	Succs []Edge
}

// CFG is the control-flow graph of a program. Every instruction belongs
// to exactly one block; BlockOf maps instruction index to its block.
type CFG struct {
	Blocks  []Block
	BlockOf []BlockID
}

// Succs returns the successor instruction IDs of an instruction, derived
// from block structure: interior instructions fall through; terminators
// follow the block edges.
func (g *CFG) Succs(id hir.InstrID) []hir.InstrID {
	b := &g.Blocks[g.BlockOf[id]]
	if id != b.Last {
		return []hir.InstrID{id + 1}
	}
	out := make([]hir.InstrID, 0, len(b.Succs))
	for _, e := range b.Succs {
		out = append(out, g.Blocks[e.To].First)
	}
	return out
}

// Dump renders the graph for --show-cfg and golden tests.
func (g *CFG) Dump() string {
	out := ""
	for i := range g.Blocks {
		b := &g.Blocks[i]
		out += fmt.Sprintf("B%d: %d..%d ->", b.ID, b.First, b.Last)
		if len(b.Succs) == 0 {
			out += " (exit)"
		}
		for _, e := range b.Succs {
			out += fmt.Sprintf(" B%d(%s)", e.To, e.Kind)
		}
		out += "\n"
	}
	return out
}

// CFGPass splits the program into basic blocks. Boundaries start at the
// entry, at every jump target, and after every jump or HALT. Jump targets
// outside the program (other than the synthetic halt position, which
// labels at end of file resolve to) produce E050.
type CFGPass struct{}

func (CFGPass) ID() PassID     { return PassCFG }
func (CFGPass) Deps() []PassID { return []PassID{PassValidation} }
func (CFGPass) Critical() bool { return false }

func (CFGPass) Run(ctx *Context) (any, error) {
	p := ctx.Program
	n := len(p.Instrs)
	g := &CFG{BlockOf: make([]BlockID, n)}
	if n == 0 {
		return g, nil
	}
	syntheticHalt := hir.InstrID(n)

	// Collect leaders.
	leader := make([]bool, n)
	leader[0] = true
	for i := range p.Instrs {
		in := &p.Instrs[i]
		if hir.IsJump(in.Opcode) {
			if op, ok := in.Operand(); ok && op.Kind == hir.OperandLabel && op.Target.IsValid() {
				if op.Target > syntheticHalt {
					report(ctx, diag.SchemaJumpOutOfBounds, op.Span,
						fmt.Sprintf("jump target %d is outside the program (0..%d)", op.Target, n),
						"")
				} else if op.Target < syntheticHalt {
					leader[op.Target] = true
				}
			}
			if i+1 < n {
				leader[i+1] = true
			}
		}
		if in.Opcode == hir.OpHalt && i+1 < n {
			leader[i+1] = true
		}
	}

	// Build blocks from leader boundaries.
	starts := make([]int, 0, 8)
	for i, l := range leader {
		if l {
			starts = append(starts, i)
		}
	}
	sort.Ints(starts)
	blockAt := make(map[hir.InstrID]BlockID, len(starts))
	for bi, s := range starts {
		last := n - 1
		if bi+1 < len(starts) {
			last = starts[bi+1] - 1
		}
		id := BlockID(bi)
		g.Blocks = append(g.Blocks, Block{
			ID:    id,
			First: hir.InstrID(s),
			Last:  hir.InstrID(last),
		})
		blockAt[hir.InstrID(s)] = id
		for i := s; i <= last; i++ {
			g.BlockOf[i] = id
		}
	}

	// Wire successor edges from each terminator.
	for bi := range g.Blocks {
		b := &g.Blocks[bi]
		term := &p.Instrs[b.Last]
		next, hasNext := blockAt[b.Last+1]

		addJump := func(kind EdgeKind) bool {
			op, ok := term.Operand()
			if !ok || op.Kind != hir.OperandLabel || !op.Target.IsValid() || op.Target >= syntheticHalt {
				// Unresolved or synthetic-halt target: no edge.
				return false
			}
			b.Succs = append(b.Succs, Edge{To: blockAt[op.Target], Kind: kind})
			return true
		}

		switch {
		case term.Opcode == hir.OpHalt:
			// No successors.
		case term.Opcode == hir.OpJump:
			addJump(EdgeJump)
		case hir.IsConditionalJump(term.Opcode):
			addJump(EdgeJumpTrue)
			if hasNext {
				b.Succs = append(b.Succs, Edge{To: next, Kind: EdgeJumpFalse})
			}
		default:
			if hasNext {
				b.Succs = append(b.Succs, Edge{To: next, Kind: EdgeFallthrough})
			}
		}
	}
	return g, nil
}

// CFGOf fetches the CFG pass output.
func CFGOf(ctx *Context) (*CFG, bool) {
	return OutputOf[*CFG](ctx, PassCFG)
}
