package analysis

import (
	"ramc/internal/hir"
)

// PassConstProp is the tag of the constant propagation pass.
const PassConstProp PassID = "constprop"

// Const is a lattice value for the accumulator: unknown (top) or a known
// constant.
type Const struct {
	Known bool
	Value int64
}

func known(v int64) Const { return Const{Known: true, Value: v} }

var top = Const{}

func meet(a, b Const) Const {
	if a.Known && b.Known && a.Value == b.Value {
		return a
	}
	return top
}

// ConstProp maps every instruction to the accumulator value on entry,
// where known. Unreached instructions stay unknown.
type ConstProp struct {
	AccIn []Const
}

// AccOnEntry returns the accumulator constant entering the instruction.
func (c *ConstProp) AccOnEntry(id hir.InstrID) (int64, bool) {
	if int(id) >= len(c.AccIn) {
		return 0, false
	}
	v := c.AccIn[id]
	return v.Value, v.Known
}

// ConstPropPass propagates known accumulator values forward along CFG
// edges, meeting at joins. The machine starts with every register at 0,
// so the entry value is a known 0.
type ConstPropPass struct{}

func (ConstPropPass) ID() PassID     { return PassConstProp }
func (ConstPropPass) Deps() []PassID { return []PassID{PassCFG, PassReachability} }
func (ConstPropPass) Critical() bool { return false }

func (ConstPropPass) Run(ctx *Context) (any, error) {
	g, ok := CFGOf(ctx)
	if !ok {
		return &ConstProp{}, nil
	}
	p := ctx.Program
	n := len(p.Instrs)
	out := &ConstProp{AccIn: make([]Const, n)}
	if n == 0 {
		return out, nil
	}

	visited := make([]bool, n)
	out.AccIn[0] = known(0)
	visited[0] = true
	worklist := []hir.InstrID{0}

	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		after := transfer(&p.Instrs[id], out.AccIn[id])
		for _, succ := range g.Succs(id) {
			if int(succ) >= n {
				continue
			}
			var merged Const
			if !visited[succ] {
				merged = after
			} else {
				merged = meet(out.AccIn[succ], after)
			}
			if !visited[succ] || merged != out.AccIn[succ] {
				out.AccIn[succ] = merged
				visited[succ] = true
				worklist = append(worklist, succ)
			}
		}
	}
	return out, nil
}

// transfer computes the accumulator value after executing one instruction.
func transfer(in *hir.Instr, acc Const) Const {
	op, hasOp := in.Operand()
	switch in.Opcode {
	case hir.OpLoad:
		if hasOp && op.Kind == hir.OperandImmediate {
			return known(op.Value)
		}
		return top
	case hir.OpAdd, hir.OpSub, hir.OpMul, hir.OpDiv, hir.OpMod:
		if !acc.Known || !hasOp || op.Kind != hir.OperandImmediate {
			return top
		}
		if v, ok := fold(in.Opcode, acc.Value, op.Value); ok {
			return known(v)
		}
		return top
	case hir.OpRead, hir.OpStore:
		// A write that may land in register 0 clobbers the accumulator.
		if mayWriteAccumulator(op, hasOp) {
			return top
		}
		return acc
	default:
		return acc
	}
}

// fold evaluates acc ⊕ v with the VM's wrapping semantics. Division and
// remainder by zero do not fold; the error surfaces at runtime.
func fold(opcode string, acc, v int64) (int64, bool) {
	switch opcode {
	case hir.OpAdd:
		return wrapAdd(acc, v), true
	case hir.OpSub:
		return wrapSub(acc, v), true
	case hir.OpMul:
		return wrapMul(acc, v), true
	case hir.OpDiv:
		if v == 0 {
			return 0, false
		}
		return acc / v, true
	case hir.OpMod:
		if v == 0 {
			return 0, false
		}
		return acc % v, true
	}
	return 0, false
}

// Two's-complement wrapping, same as the VM.
func wrapAdd(a, b int64) int64 { return int64(uint64(a) + uint64(b)) }
func wrapSub(a, b int64) int64 { return int64(uint64(a) - uint64(b)) }
func wrapMul(a, b int64) int64 { return int64(uint64(a) * uint64(b)) }

// mayWriteAccumulator reports whether a STORE/READ target could be
// register 0. Computed targets (indexed or indirect) are assumed able to.
func mayWriteAccumulator(op hir.Operand, hasOp bool) bool {
	if !hasOp {
		return false
	}
	switch op.Kind {
	case hir.OperandDirect:
		if op.Index != nil {
			return true
		}
		return op.Value == 0
	case hir.OperandIndirect:
		return true
	}
	return false
}

// ConstPropOf fetches the constant propagation output.
func ConstPropOf(ctx *Context) (*ConstProp, bool) {
	return OutputOf[*ConstProp](ctx, PassConstProp)
}
