package hir

import (
	"fmt"
	"strconv"
	"strings"

	"ramc/internal/ast"
	"ramc/internal/diag"
	"ramc/internal/items"
	"ramc/internal/source"
)

// Lower flattens the typed view into a Program. Opcodes are canonicalized
// to upper case; label references are resolved through the table; every
// instruction receives a dense ID in source order.
//
// Lowering never fails: unknown opcodes become OpUnknown (E030) and
// unresolved labels become placeholder operands (E020), so later passes
// and dumps always have a complete program to work with.
func Lower(program ast.Program, table *items.Table, reporter diag.Reporter) *Program {
	l := &lowerer{table: table, reporter: reporter}
	out := &Program{File: program.Tree.File}
	for _, line := range program.Lines() {
		instr, ok := line.Instruction()
		if !ok {
			continue
		}
		out.Instrs = append(out.Instrs, l.lowerInstr(instr, InstrID(len(out.Instrs))))
	}
	return out
}

type lowerer struct {
	table    *items.Table
	reporter diag.Reporter
}

func (l *lowerer) lowerInstr(instr ast.Instruction, id InstrID) Instr {
	opcode := strings.ToUpper(instr.Opcode())
	if !IsKnownOpcode(opcode) {
		l.report(diag.SchemaUnknownInstruction, instr.OpcodeSpan(),
			fmt.Sprintf("unknown instruction %q", instr.Opcode()),
			"supported instructions: LOAD, STORE, READ, WRITE, ADD, SUB, MUL, DIV, MOD, JUMP, JGTZ, JZERO, JNEG, HALT")
		opcode = OpUnknown
	}

	out := Instr{Opcode: opcode, ID: id, Span: instr.Span()}
	if op, ok := instr.Operand(); ok {
		if lowered, ok := l.lowerOperand(op); ok {
			out.Operands = append(out.Operands, lowered)
		}
	}
	return out
}

func (l *lowerer) lowerOperand(op ast.Operand) (Operand, bool) {
	sp := op.Span()
	switch op.Kind() {
	case ast.OperandImmediate:
		v, ok := l.numberValue(op)
		if !ok {
			return Operand{}, false
		}
		return Operand{Kind: OperandImmediate, Value: v, Span: sp}, true

	case ast.OperandIndirect:
		v, ok := l.numberValue(op)
		if !ok {
			return Operand{}, false
		}
		return Operand{Kind: OperandIndirect, Value: v, Span: sp}, true

	case ast.OperandDirect:
		v, ok := l.numberValue(op)
		if !ok {
			return Operand{}, false
		}
		out := Operand{Kind: OperandDirect, Value: v, Span: sp}
		if acc, ok := op.Accessor(); ok {
			if index, ok := l.lowerIndex(acc); ok {
				out.Index = &index
			}
		}
		return out, true

	case ast.OperandLabelRef:
		name, _ := op.LabelName()
		target := InvalidInstrID
		if t, ok := l.table.Lookup(name); ok {
			target = InstrID(t)
		} else {
			l.report(diag.ResUnknownLabel, sp,
				fmt.Sprintf("unknown label %q", name),
				fmt.Sprintf("define it with %q on some line", name+":"))
		}
		return Operand{Kind: OperandLabel, Target: target, Span: sp}, true

	default:
		// The parser already reported the malformed operand body.
		return Operand{}, false
	}
}

func (l *lowerer) lowerIndex(acc ast.Accessor) (Operand, bool) {
	ix, ok := acc.Index()
	if !ok {
		return Operand{}, false
	}
	sp := ix.Span()
	text, ok := ix.NumberText()
	if !ok {
		return Operand{}, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Operand{}, false
	}
	switch ix.Kind() {
	case ast.OperandImmediate:
		return Operand{Kind: OperandImmediate, Value: v, Span: sp}, true
	case ast.OperandDirect:
		return Operand{Kind: OperandDirect, Value: v, Span: sp}, true
	case ast.OperandIndirect:
		return Operand{Kind: OperandIndirect, Value: v, Span: sp}, true
	default:
		return Operand{}, false
	}
}

func (l *lowerer) numberValue(op ast.Operand) (int64, bool) {
	text, ok := op.NumberText()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// The lexer rejects overflowing numbers before they get here.
		return 0, false
	}
	return v, true
}

func (l *lowerer) report(code diag.Code, sp source.Span, msg, help string) {
	if l.reporter == nil {
		return
	}
	l.reporter.Report(diag.New(diag.SevError, code, sp, msg).WithHelp(help))
}
