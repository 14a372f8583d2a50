// Package hir holds the lowered, flat representation of a program:
// a dense sequence of instructions with canonical opcodes, kind-tagged
// operands, and label references replaced by instruction indices.
package hir

import "math"

// InstrID is the dense index of a lowered instruction (0-based).
type InstrID uint32

// InvalidInstrID marks an unresolved label target.
const InvalidInstrID InstrID = math.MaxUint32

// IsValid reports whether the ID refers to a real instruction.
func (id InstrID) IsValid() bool { return id != InvalidInstrID }
