package ast_test

import (
	"testing"

	"ramc/internal/ast"
	"ramc/internal/diag"
	"ramc/internal/parser"
	"ramc/internal/source"
)

func program(t *testing.T, input string) ast.Program {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ram", []byte(input))
	tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.NopReporter{}})
	return ast.NewProgram(tree)
}

func TestProgramLines(t *testing.T) {
	p := program(t, "loop: LOAD 1 # comment\nJUMP loop\n\nHALT\n")
	lines := p.Lines()
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3 (blank lines are not LINE nodes)", len(lines))
	}

	labels := lines[0].Labels()
	if len(labels) != 1 || labels[0].Name() != "loop" {
		t.Errorf("labels = %v", labels)
	}

	instr, ok := lines[0].Instruction()
	if !ok || instr.Opcode() != "LOAD" {
		t.Fatalf("instruction = %v, ok=%v", instr, ok)
	}
	op, ok := instr.Operand()
	if !ok || op.Kind() != ast.OperandDirect {
		t.Fatalf("operand kind = %v", op.Kind())
	}
	if num, ok := op.NumberText(); !ok || num != "1" {
		t.Errorf("NumberText = %q, %v", num, ok)
	}
}

func TestOperandKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  ast.OperandKind
	}{
		{"LOAD =9", ast.OperandImmediate},
		{"LOAD *4", ast.OperandIndirect},
		{"LOAD 11", ast.OperandDirect},
		{"JUMP out", ast.OperandLabelRef},
	}
	for _, tt := range tests {
		p := program(t, tt.input)
		instr, _ := p.Lines()[0].Instruction()
		op, ok := instr.Operand()
		if !ok {
			t.Fatalf("%q: no operand", tt.input)
		}
		if op.Kind() != tt.kind {
			t.Errorf("%q: kind = %v, want %v", tt.input, op.Kind(), tt.kind)
		}
	}
}

func TestLabelRefName(t *testing.T) {
	p := program(t, "JGTZ target")
	instr, _ := p.Lines()[0].Instruction()
	op, _ := instr.Operand()
	name, ok := op.LabelName()
	if !ok || name != "target" {
		t.Errorf("LabelName = %q, %v", name, ok)
	}
}

func TestAccessorIndex(t *testing.T) {
	tests := []struct {
		input string
		kind  ast.OperandKind
		num   string
	}{
		{"LOAD 22[0]", ast.OperandDirect, "0"},
		{"LOAD 22[=3]", ast.OperandImmediate, "3"},
		{"LOAD 22[*7]", ast.OperandIndirect, "7"},
	}
	for _, tt := range tests {
		p := program(t, tt.input)
		instr, _ := p.Lines()[0].Instruction()
		op, _ := instr.Operand()
		acc, ok := op.Accessor()
		if !ok {
			t.Fatalf("%q: no accessor", tt.input)
		}
		ix, ok := acc.Index()
		if !ok {
			t.Fatalf("%q: no index", tt.input)
		}
		if ix.Kind() != tt.kind {
			t.Errorf("%q: index kind = %v, want %v", tt.input, ix.Kind(), tt.kind)
		}
		if num, _ := ix.NumberText(); num != tt.num {
			t.Errorf("%q: index number = %q, want %q", tt.input, num, tt.num)
		}
	}
}

func TestNoOperand(t *testing.T) {
	p := program(t, "HALT")
	instr, _ := p.Lines()[0].Instruction()
	if _, ok := instr.Operand(); ok {
		t.Error("HALT should have no operand")
	}
}
