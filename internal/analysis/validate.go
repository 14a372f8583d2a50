package analysis

import (
	"fmt"

	"ramc/internal/diag"
	"ramc/internal/hir"
	"ramc/internal/source"
)

// PassValidation is the tag of the instruction validation pass.
const PassValidation PassID = "validate"

// ValidationPass enforces the operand shape table:
//
//	LOAD, ADD, SUB, MUL, DIV, MOD  one value operand (imm/direct/indirect)
//	STORE, READ                    one writable operand (direct/indirect)
//	WRITE                          one value operand
//	JUMP, JGTZ, JZERO, JNEG        one label operand
//	HALT                           no operand
type ValidationPass struct{}

// ValidationResult reports whether every instruction passed the shape check.
type ValidationResult struct {
	OK bool
}

func (ValidationPass) ID() PassID     { return PassValidation }
func (ValidationPass) Deps() []PassID { return nil }
func (ValidationPass) Critical() bool { return false }

func (v ValidationPass) Run(ctx *Context) (any, error) {
	ok := true
	for i := range ctx.Program.Instrs {
		if !v.check(ctx, &ctx.Program.Instrs[i]) {
			ok = false
		}
	}
	return ValidationResult{OK: ok}, nil
}

func (v ValidationPass) check(ctx *Context, in *hir.Instr) bool {
	op, hasOp := in.Operand()

	switch in.Opcode {
	case hir.OpHalt:
		if hasOp {
			report(ctx, diag.SchemaUnexpectedOperand, op.Span,
				"HALT takes no operand", "")
			return false
		}
		return true

	case hir.OpUnknown:
		// Already reported as E030 during lowering.
		return false

	case hir.OpLoad, hir.OpAdd, hir.OpSub, hir.OpMul, hir.OpDiv, hir.OpMod, hir.OpWrite:
		if !hasOp {
			report(ctx, diag.SchemaMissingOperand, in.Span,
				fmt.Sprintf("%s requires an operand", in.Opcode), "")
			return false
		}
		if op.Kind == hir.OperandLabel {
			report(ctx, diag.SchemaOperandShape, op.Span,
				fmt.Sprintf("%s takes a value operand, not a label", in.Opcode),
				"use =n for a literal, n for a register, or *n for indirection")
			return false
		}
		return true

	case hir.OpStore, hir.OpRead:
		if !hasOp {
			report(ctx, diag.SchemaMissingOperand, in.Span,
				fmt.Sprintf("%s requires an operand", in.Opcode), "")
			return false
		}
		switch op.Kind {
		case hir.OperandImmediate:
			report(ctx, diag.SchemaImmediateTarget, op.Span,
				fmt.Sprintf("%s cannot target an immediate value", in.Opcode),
				"the operand names the destination; use n or *n")
			return false
		case hir.OperandLabel:
			report(ctx, diag.SchemaOperandShape, op.Span,
				fmt.Sprintf("%s takes a register operand, not a label", in.Opcode), "")
			return false
		}
		return true

	case hir.OpJump, hir.OpJgtz, hir.OpJzero, hir.OpJneg:
		if !hasOp {
			report(ctx, diag.SchemaMissingOperand, in.Span,
				fmt.Sprintf("%s requires a label operand", in.Opcode), "")
			return false
		}
		if op.Kind != hir.OperandLabel {
			report(ctx, diag.SchemaOperandShape, op.Span,
				fmt.Sprintf("%s target must be a label", in.Opcode),
				"jump targets are written as bare label names")
			return false
		}
		return true
	}
	return true
}

func report(ctx *Context, code diag.Code, sp source.Span, msg, help string) {
	if ctx.Reporter == nil {
		return
	}
	d := diag.New(diag.SevError, code, sp, msg)
	if help != "" {
		d = d.WithHelp(help)
	}
	ctx.Reporter.Report(d)
}
