package analysis

import (
	"ramc/internal/hir"
)

// PassDataFlow is the tag of the def/use + liveness pass.
const PassDataFlow PassID = "dataflow"

// RegSet is a set of register numbers.
type RegSet map[int64]struct{}

func (s RegSet) add(r int64) {
	s[r] = struct{}{}
}

// Has reports membership.
func (s RegSet) Has(r int64) bool {
	_, ok := s[r]
	return ok
}

func (s RegSet) clone() RegSet {
	out := make(RegSet, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

// equal reports set equality.
func (s RegSet) equal(other RegSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Has(r) {
			return false
		}
	}
	return true
}

// DataFlow holds, per instruction, the syntactic def/use register sets and
// the live-in/live-out sets from the backward fixed point.
type DataFlow struct {
	Def     []RegSet
	Use     []RegSet
	LiveIn  []RegSet
	LiveOut []RegSet
}

// DataFlowPass computes def/use per instruction and iterates liveness to
// stability. Registers are tracked syntactically: an indirect or indexed
// access uses its pointer/base register, and a write through a computed
// address defines nothing trackable.
type DataFlowPass struct{}

func (DataFlowPass) ID() PassID     { return PassDataFlow }
func (DataFlowPass) Deps() []PassID { return []PassID{PassCFG} }
func (DataFlowPass) Critical() bool { return false }

func (DataFlowPass) Run(ctx *Context) (any, error) {
	g, ok := CFGOf(ctx)
	if !ok {
		return &DataFlow{}, nil
	}
	p := ctx.Program
	n := len(p.Instrs)
	df := &DataFlow{
		Def:     make([]RegSet, n),
		Use:     make([]RegSet, n),
		LiveIn:  make([]RegSet, n),
		LiveOut: make([]RegSet, n),
	}
	for i := range p.Instrs {
		df.Def[i], df.Use[i] = defUse(&p.Instrs[i])
		df.LiveIn[i] = make(RegSet)
		df.LiveOut[i] = make(RegSet)
	}
	if n == 0 {
		return df, nil
	}

	// Backward iterative liveness: in = use ∪ (out \ def); out = ∪ in(succ).
	changed := true
	for changed {
		changed = false
		for i := n - 1; i >= 0; i-- {
			id := hir.InstrID(i)
			out := make(RegSet)
			for _, succ := range g.Succs(id) {
				if int(succ) >= n {
					continue
				}
				for r := range df.LiveIn[succ] {
					out.add(r)
				}
			}
			in := df.Use[i].clone()
			for r := range out {
				if !df.Def[i].Has(r) {
					in.add(r)
				}
			}
			if !out.equal(df.LiveOut[i]) {
				df.LiveOut[i] = out
				changed = true
			}
			if !in.equal(df.LiveIn[i]) {
				df.LiveIn[i] = in
				changed = true
			}
		}
	}
	return df, nil
}

// defUse derives the syntactic def and use sets of one instruction.
// The accumulator is register 0.
func defUse(in *hir.Instr) (def, use RegSet) {
	def = make(RegSet)
	use = make(RegSet)
	op, hasOp := in.Operand()

	useOperandValue := func() {
		if !hasOp {
			return
		}
		switch op.Kind {
		case hir.OperandDirect:
			use.add(op.Value)
			if op.Index != nil && op.Index.Kind != hir.OperandImmediate {
				use.add(op.Index.Value)
			}
		case hir.OperandIndirect:
			use.add(op.Value)
		}
	}

	switch in.Opcode {
	case hir.OpLoad:
		useOperandValue()
		def.add(0)
	case hir.OpAdd, hir.OpSub, hir.OpMul, hir.OpDiv, hir.OpMod:
		useOperandValue()
		use.add(0)
		def.add(0)
	case hir.OpStore:
		use.add(0)
		if hasOp {
			switch op.Kind {
			case hir.OperandDirect:
				if op.Index == nil {
					def.add(op.Value)
				} else {
					// Computed target; only the index register is used.
					if op.Index.Kind != hir.OperandImmediate {
						use.add(op.Index.Value)
					}
				}
			case hir.OperandIndirect:
				use.add(op.Value)
			}
		}
	case hir.OpRead:
		if hasOp {
			switch op.Kind {
			case hir.OperandDirect:
				if op.Index == nil {
					def.add(op.Value)
				} else if op.Index.Kind != hir.OperandImmediate {
					use.add(op.Index.Value)
				}
			case hir.OperandIndirect:
				use.add(op.Value)
			}
		}
	case hir.OpWrite:
		useOperandValue()
	case hir.OpJgtz, hir.OpJzero, hir.OpJneg:
		use.add(0)
	}
	return def, use
}

// DataFlowOf fetches the dataflow pass output.
func DataFlowOf(ctx *Context) (*DataFlow, bool) {
	return OutputOf[*DataFlow](ctx, PassDataFlow)
}
