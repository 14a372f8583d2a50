package analysis_test

import (
	"testing"

	"ramc/internal/analysis"
	"ramc/internal/ast"
	"ramc/internal/diag"
	"ramc/internal/hir"
	"ramc/internal/items"
	"ramc/internal/parser"
	"ramc/internal/source"
)

func analyze(t *testing.T, input string) (*analysis.Context, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ram", []byte(input))
	bag := diag.NewBag(32)
	rep := diag.BagReporter{Bag: bag}
	tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: rep})
	program := ast.NewProgram(tree)
	table := items.Collect(program, rep)
	lowered := hir.Lower(program, table, rep)
	ctx := analysis.NewContext(lowered, rep)
	if err := analysis.Default().Run(ctx); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return ctx, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestValidationShapes(t *testing.T) {
	tests := []struct {
		input string
		code  diag.Code
	}{
		{"STORE =5\n", diag.SchemaImmediateTarget},
		{"READ =1\n", diag.SchemaImmediateTarget},
		{"HALT 3\n", diag.SchemaUnexpectedOperand},
		{"ADD\n", diag.SchemaMissingOperand},
		{"JUMP\n", diag.SchemaMissingOperand},
		{"x: JUMP 3\n", diag.SchemaOperandShape},
		{"x: LOAD x\n", diag.SchemaOperandShape},
	}
	for _, tt := range tests {
		_, bag := analyze(t, tt.input)
		if !hasCode(bag, tt.code) {
			t.Errorf("%q: expected %s, got %v", tt.input, tt.code.ID(), bag.Items())
		}
	}
}

func TestValidationAccepts(t *testing.T) {
	inputs := []string{
		"LOAD =1\nADD 2\nSUB *3\nMUL 4[=1]\nHALT\n",
		"READ 1\nSTORE *2\nWRITE =7\nWRITE 1\nWRITE *2\nHALT\n",
		"loop: JGTZ loop\nJZERO loop\nJNEG loop\nJUMP loop\n",
	}
	for _, input := range inputs {
		_, bag := analyze(t, input)
		if bag.HasErrors() {
			t.Errorf("%q: unexpected errors %v", input, bag.Items())
		}
	}
}

func TestCFGBlocks(t *testing.T) {
	// 0: READ 1        B0 (falls through)
	// 1: loop: LOAD 1  B1 (jump target)
	// 2: JZERO end     B1 terminator, two edges
	// 3: ADD 1         B2
	// 4: JUMP loop     B2 terminator, one edge
	// 5: end: HALT     B3, no successors
	ctx, bag := analyze(t, "READ 1\nloop: LOAD 1\nJZERO end\nADD 1\nJUMP loop\nend: HALT\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	g, ok := analysis.CFGOf(ctx)
	if !ok {
		t.Fatal("missing CFG output")
	}
	if len(g.Blocks) != 4 {
		t.Fatalf("block count = %d, want 4\n%s", len(g.Blocks), g.Dump())
	}
	// Every instruction belongs to exactly one block.
	for i, bid := range g.BlockOf {
		b := g.Blocks[bid]
		if hir.InstrID(i) < b.First || hir.InstrID(i) > b.Last {
			t.Errorf("instr %d not inside its block %d..%d", i, b.First, b.Last)
		}
	}
	if len(g.Blocks[1].Succs) != 2 {
		t.Errorf("conditional block successors = %v", g.Blocks[1].Succs)
	}
	if len(g.Blocks[3].Succs) != 0 {
		t.Errorf("HALT block has successors: %v", g.Blocks[3].Succs)
	}
}

func TestCFGJumpToSyntheticHalt(t *testing.T) {
	// "end" binds past the last instruction; the jump exits the program.
	_, bag := analyze(t, "JUMP end\nend:\n")
	if bag.HasErrors() {
		t.Errorf("jump to synthetic halt should be legal, got %v", bag.Items())
	}
}

func TestReachabilityWarning(t *testing.T) {
	ctx, bag := analyze(t, "HALT\nLOAD =1\nWRITE 0\nHALT\n")
	if !hasCode(bag, diag.WarnUnreachable) {
		t.Errorf("expected W001, got %v", bag.Items())
	}
	if bag.HasErrors() {
		t.Errorf("unreachable code is a warning, not an error: %v", bag.Items())
	}
	reach, ok := analysis.ReachabilityOf(ctx)
	if !ok {
		t.Fatal("missing reachability output")
	}
	if !reach.IsReachable(0) {
		t.Error("entry must be reachable")
	}
	for i := hir.InstrID(1); i <= 3; i++ {
		if reach.IsReachable(i) {
			t.Errorf("instr %d should be unreachable", i)
		}
	}
}

func TestReachabilityThroughJumps(t *testing.T) {
	ctx, _ := analyze(t, "JUMP skip\nWRITE =1\nskip: HALT\n")
	reach, _ := analysis.ReachabilityOf(ctx)
	if reach.IsReachable(1) {
		t.Error("instr 1 is jumped over and unreachable")
	}
	if !reach.IsReachable(2) {
		t.Error("jump target must be reachable")
	}
}

func TestDataFlowDefUse(t *testing.T) {
	ctx, _ := analyze(t, "READ 1\nLOAD 1\nADD 2\nSTORE 3\nWRITE 3\nHALT\n")
	df, ok := analysis.DataFlowOf(ctx)
	if !ok {
		t.Fatal("missing dataflow output")
	}
	if !df.Def[0].Has(1) {
		t.Error("READ 1 defines register 1")
	}
	if !df.Def[1].Has(0) || !df.Use[1].Has(1) {
		t.Error("LOAD 1 defines acc, uses register 1")
	}
	if !df.Use[2].Has(0) || !df.Use[2].Has(2) || !df.Def[2].Has(0) {
		t.Error("ADD 2 uses acc and register 2, defines acc")
	}
	if !df.Use[3].Has(0) || !df.Def[3].Has(3) {
		t.Error("STORE 3 uses acc, defines register 3")
	}
	if !df.Use[4].Has(3) {
		t.Error("WRITE 3 uses register 3")
	}
}

func TestDataFlowLiveness(t *testing.T) {
	// Register 2 is written at 0 and read at 2: live across instr 1.
	ctx, _ := analyze(t, "READ 2\nLOAD =1\nADD 2\nHALT\n")
	df, _ := analysis.DataFlowOf(ctx)
	if !df.LiveOut[0].Has(2) {
		t.Error("register 2 should be live out of READ 2")
	}
	if !df.LiveIn[1].Has(2) {
		t.Error("register 2 should be live into LOAD =1")
	}
	if df.LiveOut[2].Has(2) {
		t.Error("register 2 dies after its last use")
	}
}

func TestConstProp(t *testing.T) {
	ctx, _ := analyze(t, "LOAD =5\nADD =7\nSTORE 3\nHALT\n")
	consts, ok := analysis.ConstPropOf(ctx)
	if !ok {
		t.Fatal("missing constprop output")
	}
	// Entry: registers start at zero.
	if v, known := consts.AccOnEntry(0); !known || v != 0 {
		t.Errorf("entry acc = %d, %v; want known 0", v, known)
	}
	if v, known := consts.AccOnEntry(1); !known || v != 5 {
		t.Errorf("acc before ADD = %d, %v; want known 5", v, known)
	}
	if v, known := consts.AccOnEntry(2); !known || v != 12 {
		t.Errorf("acc before STORE = %d, %v; want known 12", v, known)
	}
}

func TestConstPropMeetAtJoin(t *testing.T) {
	// Two paths reach "join" with different accumulator values.
	input := "READ 1\nLOAD 1\nJZERO zero\nLOAD =1\nJUMP join\nzero: LOAD =2\njoin: STORE 5\nHALT\n"
	ctx, _ := analyze(t, input)
	consts, _ := analysis.ConstPropOf(ctx)
	if _, known := consts.AccOnEntry(6); known {
		t.Error("join of 1 and 2 must be unknown")
	}
}

func TestConstPropKilledByRead(t *testing.T) {
	ctx, _ := analyze(t, "LOAD =5\nREAD 0\nADD =1\nHALT\n")
	consts, _ := analysis.ConstPropOf(ctx)
	if _, known := consts.AccOnEntry(2); known {
		t.Error("READ 0 writes the accumulator; the constant must be dropped")
	}
}

func TestOptimizationFindings(t *testing.T) {
	ctx, bag := analyze(t, "LOAD =5\nADD =7\nJZERO next\nnext: STORE 1\nSTORE 1\nHALT\nWRITE 0\n")
	findings, ok := analysis.FindingsOf(ctx)
	if !ok {
		t.Fatal("missing findings output")
	}
	var kinds []analysis.FindingKind
	for _, f := range findings.All {
		kinds = append(kinds, f.Kind)
	}
	wantKind := func(k analysis.FindingKind, code diag.Code) {
		found := false
		for _, got := range kinds {
			if got == k {
				found = true
			}
		}
		if !found {
			t.Errorf("missing finding %d; findings=%v diags=%v", k, kinds, bag.Items())
		}
		if !hasCode(bag, code) {
			t.Errorf("missing info diagnostic %s", code.ID())
		}
	}
	wantKind(analysis.FindingConstFold, diag.OptConstFold)
	wantKind(analysis.FindingJumpToNext, diag.OptJumpToNext)
	wantKind(analysis.FindingRedundantStore, diag.OptRedundantStore)
	wantKind(analysis.FindingDeadCode, diag.OptDeadCode)
	// Findings are info, never errors.
	for _, d := range bag.Items() {
		switch d.Code {
		case diag.OptConstFold, diag.OptJumpToNext, diag.OptRedundantStore, diag.OptDeadCode:
			if d.Severity != diag.SevInfo {
				t.Errorf("%s severity = %v, want info", d.Code.ID(), d.Severity)
			}
		}
	}
}
