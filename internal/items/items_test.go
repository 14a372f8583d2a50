package items_test

import (
	"testing"

	"ramc/internal/ast"
	"ramc/internal/diag"
	"ramc/internal/items"
	"ramc/internal/parser"
	"ramc/internal/source"
)

func collect(t *testing.T, input string) (*items.Table, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ram", []byte(input))
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: rep})
	return items.Collect(ast.NewProgram(tree), rep), bag
}

func TestBasicBinding(t *testing.T) {
	table, bag := collect(t, "start: LOAD 1\nloop: ADD 2\nJUMP loop\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if target, ok := table.Lookup("start"); !ok || target != 0 {
		t.Errorf("start -> %d, %v", target, ok)
	}
	if target, ok := table.Lookup("loop"); !ok || target != 1 {
		t.Errorf("loop -> %d, %v", target, ok)
	}
	if _, ok := table.Lookup("missing"); ok {
		t.Error("missing label should not resolve")
	}
}

func TestLabelOnOwnLineBindsForward(t *testing.T) {
	table, _ := collect(t, "loop:\n\nLOAD 1\n")
	if target, ok := table.Lookup("loop"); !ok || target != 0 {
		t.Errorf("loop -> %d, %v; should bind to first following instruction", target, ok)
	}
}

func TestMultipleLabelsSameInstruction(t *testing.T) {
	table, bag := collect(t, "a:\nb: c: HALT\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	for _, name := range []string{"a", "b", "c"} {
		if target, ok := table.Lookup(name); !ok || target != 0 {
			t.Errorf("%s -> %d, %v", name, target, ok)
		}
	}
}

func TestTrailingLabelSyntheticHalt(t *testing.T) {
	table, _ := collect(t, "LOAD 1\nHALT\nend:\n")
	if target, ok := table.Lookup("end"); !ok || target != 2 {
		t.Errorf("end -> %d, %v; want synthetic position 2", target, ok)
	}
	if table.NumInstructions != 2 {
		t.Errorf("NumInstructions = %d, want 2", table.NumInstructions)
	}
}

func TestDuplicateLabelFirstWins(t *testing.T) {
	table, bag := collect(t, "x: LOAD 1\nx: HALT\n")
	if target, _ := table.Lookup("x"); target != 0 {
		t.Errorf("x -> %d, want 0 (first definition wins)", target)
	}
	var dup int
	for _, d := range bag.Items() {
		if d.Code == diag.ResDuplicateLabel {
			dup++
			if d.Severity != diag.SevError {
				t.Errorf("duplicate label severity = %v", d.Severity)
			}
		}
	}
	if dup != 1 {
		t.Errorf("E010 count = %d, want 1", dup)
	}
}
