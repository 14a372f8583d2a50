package analysis

import (
	"fmt"

	"ramc/internal/diag"
	"ramc/internal/hir"
	"ramc/internal/source"
)

// PassOptimize is the tag of the optimization discovery pass.
const PassOptimize PassID = "optimize"

// FindingKind classifies an optimization opportunity.
type FindingKind uint8

const (
	// FindingDeadCode flags an unreachable block.
	FindingDeadCode FindingKind = iota
	// FindingConstFold flags arithmetic whose result is known statically.
	FindingConstFold
	// FindingJumpToNext flags a conditional whose taken edge is the
	// fall-through.
	FindingJumpToNext
	// FindingRedundantStore flags a store into a register that already
	// holds the value.
	FindingRedundantStore
)

// Finding is one discovered opportunity. The pass only reports; it never
// rewrites code.
type Finding struct {
	Kind  FindingKind
	Instr hir.InstrID
	Span  source.Span
}

// Findings is the optimization discovery output.
type Findings struct {
	All []Finding
}

// OptimizePass inspects reachability, the CFG, and propagated constants
// and emits one info diagnostic per opportunity.
type OptimizePass struct{}

func (OptimizePass) ID() PassID { return PassOptimize }
func (OptimizePass) Deps() []PassID {
	return []PassID{PassCFG, PassReachability, PassConstProp}
}
func (OptimizePass) Critical() bool { return false }

func (o OptimizePass) Run(ctx *Context) (any, error) {
	g, okG := CFGOf(ctx)
	reach, okR := ReachabilityOf(ctx)
	consts, okC := ConstPropOf(ctx)
	if !okG || !okR || !okC {
		return &Findings{}, nil
	}
	out := &Findings{}
	o.deadCode(ctx, g, reach, out)
	o.constFold(ctx, reach, consts, out)
	o.jumpToNext(ctx, reach, out)
	o.redundantStores(ctx, g, reach, consts, out)
	return out, nil
}

func (OptimizePass) deadCode(ctx *Context, g *CFG, reach *Reachability, out *Findings) {
	for bi := range g.Blocks {
		b := &g.Blocks[bi]
		if reach.IsReachable(b.First) {
			continue
		}
		sp := blockSpan(ctx.Program, b)
		out.All = append(out.All, Finding{Kind: FindingDeadCode, Instr: b.First, Span: sp})
		emit(ctx, diag.OptDeadCode, sp, "this code can be removed",
			"it is unreachable from the program entry")
	}
}

func (OptimizePass) constFold(ctx *Context, reach *Reachability, consts *ConstProp, out *Findings) {
	for i := range ctx.Program.Instrs {
		in := &ctx.Program.Instrs[i]
		if !hir.IsArithmetic(in.Opcode) || !reach.IsReachable(in.ID) {
			continue
		}
		acc, known := consts.AccOnEntry(in.ID)
		if !known {
			continue
		}
		op, ok := in.Operand()
		if !ok || op.Kind != hir.OperandImmediate {
			continue
		}
		folded, ok := fold(in.Opcode, acc, op.Value)
		if !ok {
			continue
		}
		out.All = append(out.All, Finding{Kind: FindingConstFold, Instr: in.ID, Span: in.Span})
		emit(ctx, diag.OptConstFold, in.Span,
			fmt.Sprintf("this always computes %d", folded),
			fmt.Sprintf("the accumulator is %d here; LOAD =%d is equivalent", acc, folded))
	}
}

func (OptimizePass) jumpToNext(ctx *Context, reach *Reachability, out *Findings) {
	for i := range ctx.Program.Instrs {
		in := &ctx.Program.Instrs[i]
		if !hir.IsConditionalJump(in.Opcode) || !reach.IsReachable(in.ID) {
			continue
		}
		op, ok := in.Operand()
		if !ok || op.Kind != hir.OperandLabel || !op.Target.IsValid() {
			continue
		}
		if op.Target == in.ID+1 {
			out.All = append(out.All, Finding{Kind: FindingJumpToNext, Instr: in.ID, Span: in.Span})
			emit(ctx, diag.OptJumpToNext, in.Span,
				"conditional jump to the next instruction has no effect",
				"both outcomes continue at the same place; the jump can be removed")
		}
	}
}

// redundantStores tracks, within each reachable block, registers whose
// content is known, and flags stores that write back the same value.
func (OptimizePass) redundantStores(ctx *Context, g *CFG, reach *Reachability, consts *ConstProp, out *Findings) {
	p := ctx.Program
	for bi := range g.Blocks {
		b := &g.Blocks[bi]
		if !reach.IsReachable(b.First) {
			continue
		}
		cells := make(map[int64]int64)
		for i := b.First; i <= b.Last; i++ {
			in := &p.Instrs[i]
			op, hasOp := in.Operand()
			switch in.Opcode {
			case hir.OpStore:
				acc, known := consts.AccOnEntry(i)
				if !hasOp || op.Kind != hir.OperandDirect || op.Index != nil {
					// A computed target invalidates everything tracked.
					cells = make(map[int64]int64)
					continue
				}
				if !known {
					delete(cells, op.Value)
					continue
				}
				if held, ok := cells[op.Value]; ok && held == acc {
					out.All = append(out.All, Finding{Kind: FindingRedundantStore, Instr: i, Span: in.Span})
					emit(ctx, diag.OptRedundantStore, in.Span,
						fmt.Sprintf("register %d already holds %d", op.Value, acc),
						"this store writes back the value that is already there")
					continue
				}
				cells[op.Value] = acc
			case hir.OpRead:
				if hasOp && op.Kind == hir.OperandDirect && op.Index == nil {
					delete(cells, op.Value)
				} else {
					cells = make(map[int64]int64)
				}
			}
		}
	}
}

func emit(ctx *Context, code diag.Code, sp source.Span, msg, help string) {
	if ctx.Reporter == nil {
		return
	}
	ctx.Reporter.Report(diag.New(diag.SevInfo, code, sp, msg).WithHelp(help))
}

// FindingsOf fetches the optimization discovery output.
func FindingsOf(ctx *Context) (*Findings, bool) {
	return OutputOf[*Findings](ctx, PassOptimize)
}
