package analysis

import (
	"fmt"

	"ramc/internal/diag"
	"ramc/internal/hir"
	"ramc/internal/source"
)

// PassReachability is the tag of the reachability pass.
const PassReachability PassID = "reach"

// Reachability is a bitset over instruction IDs: true when some path from
// the entry reaches the instruction.
type Reachability struct {
	Reachable []bool
}

// IsReachable reports whether the instruction can execute.
func (r *Reachability) IsReachable(id hir.InstrID) bool {
	return int(id) < len(r.Reachable) && r.Reachable[id]
}

// ReachabilityPass walks the CFG depth-first from the entry block and
// warns (W001) about every block no walk can reach.
type ReachabilityPass struct{}

func (ReachabilityPass) ID() PassID     { return PassReachability }
func (ReachabilityPass) Deps() []PassID { return []PassID{PassCFG} }
func (ReachabilityPass) Critical() bool { return false }

func (ReachabilityPass) Run(ctx *Context) (any, error) {
	g, ok := CFGOf(ctx)
	if !ok {
		return &Reachability{}, nil
	}
	n := len(ctx.Program.Instrs)
	out := &Reachability{Reachable: make([]bool, n)}
	if n == 0 {
		return out, nil
	}

	visited := make([]bool, len(g.Blocks))
	stack := []BlockID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		b := &g.Blocks[id]
		for i := b.First; i <= b.Last; i++ {
			out.Reachable[i] = true
		}
		for _, e := range b.Succs {
			if !visited[e.To] {
				stack = append(stack, e.To)
			}
		}
	}

	// One warning per unreachable block, covering its whole span.
	for bi, seen := range visited {
		if seen {
			continue
		}
		b := &g.Blocks[bi]
		sp := blockSpan(ctx.Program, b)
		if ctx.Reporter != nil {
			count := int(b.Last-b.First) + 1
			msg := "unreachable code"
			if count > 1 {
				msg = fmt.Sprintf("unreachable code (block of %d instructions)", count)
			}
			ctx.Reporter.Report(diag.New(diag.SevWarning, diag.WarnUnreachable, sp, msg).
				WithHelp("no execution path from the program entry reaches this point"))
		}
	}
	return out, nil
}

func blockSpan(p *hir.Program, b *Block) source.Span {
	sp := p.Instrs[b.First].Span
	return sp.Cover(p.Instrs[b.Last].Span)
}

// ReachabilityOf fetches the reachability pass output.
func ReachabilityOf(ctx *Context) (*Reachability, bool) {
	return OutputOf[*Reachability](ctx, PassReachability)
}
