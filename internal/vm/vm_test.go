package vm_test

import (
	"testing"

	"ramc/internal/ast"
	"ramc/internal/diag"
	"ramc/internal/hir"
	"ramc/internal/items"
	"ramc/internal/parser"
	"ramc/internal/source"
	"ramc/internal/vm"
)

func compile(t *testing.T, input string) *hir.Program {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ram", []byte(input))
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: rep})
	program := ast.NewProgram(tree)
	table := items.Collect(program, rep)
	lowered := hir.Lower(program, table, rep)
	if bag.HasErrors() {
		t.Fatalf("compile errors: %v", bag.Items())
	}
	return lowered
}

func run(t *testing.T, input string, stdin []int64, memory map[uint32]int64) *vm.Machine {
	t.Helper()
	m := vm.New()
	m.Load(compile(t, input))
	m.SeedInput(stdin)
	m.SeedMemory(memory)
	m.Run()
	return m
}

func expectOutput(t *testing.T, m *vm.Machine, want []int64) {
	t.Helper()
	got := m.Output()
	if len(got) != len(want) {
		t.Fatalf("output = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output = %v, want %v", got, want)
		}
	}
}

// Scenario: load, add, store with seeded memory.
func TestAddition(t *testing.T) {
	m := run(t, "LOAD 1\nADD 2\nSTORE 3\nHALT\n", nil, map[uint32]int64{1: 5, 2: 7})
	if !m.Halted() || m.Err() != nil {
		t.Fatalf("halted=%v err=%v", m.Halted(), m.Err())
	}
	expectOutput(t, m, nil)
	if got := m.Register(3); got != 12 {
		t.Errorf("R3 = %d, want 12", got)
	}
	if m.Steps() != 4 {
		t.Errorf("steps = %d, want 4", m.Steps())
	}
}

// Scenario: sum the input until a zero arrives.
func TestInputSumLoop(t *testing.T) {
	src := `        READ 1
        LOAD =0
        STORE 2
loop:   LOAD 1
        JZERO end
        LOAD 2
        ADD 1
        STORE 2
        READ 1
        JUMP loop
end:    WRITE 2
        HALT
`
	m := run(t, src, []int64{1, 2, 3, 0, 4, 5}, nil)
	if !m.Halted() || m.Err() != nil {
		t.Fatalf("halted=%v err=%v", m.Halted(), m.Err())
	}
	expectOutput(t, m, []int64{6})
}

// Scenario: indirection built from an array accessor.
func TestIndirectViaAccessor(t *testing.T) {
	src := `LOAD =5
STORE 10
LOAD =7
STORE 11
LOAD =1
STORE 21
LOAD =10
ADD 21
STORE 22
LOAD 22[0]
WRITE 0
HALT
`
	m := run(t, src, nil, nil)
	if m.Err() != nil {
		t.Fatalf("err = %v", m.Err())
	}
	expectOutput(t, m, []int64{7})
}

func TestAccessorAddressing(t *testing.T) {
	// base + index, reads and writes hit the same cell.
	src := "LOAD =3\nSTORE 5\nLOAD =99\nSTORE 10[5]\nLOAD 13\nWRITE 0\nHALT\n"
	m := run(t, src, nil, nil)
	if m.Err() != nil {
		t.Fatalf("err = %v", m.Err())
	}
	expectOutput(t, m, []int64{99})
}

func TestDivisionByZero(t *testing.T) {
	m := run(t, "LOAD =10\nDIV =0\nHALT\n", nil, nil)
	err := m.Err()
	if err == nil || err.Code != diag.RunDivByZero {
		t.Fatalf("err = %v, want R020", err)
	}
	if err.PC != 1 {
		t.Errorf("err.PC = %d, want 1", err.PC)
	}
}

func TestNegativeIndirect(t *testing.T) {
	// R1 holds -4; *1 dereferences a negative pointer.
	m := run(t, "LOAD *1\nHALT\n", nil, map[uint32]int64{1: -4})
	err := m.Err()
	if err == nil || err.Code != diag.RunNegIndirect {
		t.Fatalf("err = %v, want R010", err)
	}
}

func TestNegativeComputedAddress(t *testing.T) {
	m := run(t, "LOAD =7\nSTORE 2[1]\nHALT\n", nil, map[uint32]int64{1: -10})
	err := m.Err()
	if err == nil || err.Code != diag.RunNegIndirect {
		t.Fatalf("err = %v, want R010", err)
	}
}

func TestArithmeticSemantics(t *testing.T) {
	tests := []struct {
		src    string
		memory map[uint32]int64
		want   int64
	}{
		// Wrapping two's complement.
		{"LOAD =9223372036854775807\nADD =1\nSTORE 9\nHALT\n", nil, -9223372036854775808},
		{"LOAD 1\nSUB =1\nSTORE 9\nHALT\n", map[uint32]int64{1: -9223372036854775808}, 9223372036854775807},
		{"LOAD =4611686018427387904\nMUL =2\nSTORE 9\nHALT\n", nil, -9223372036854775808},
		// DIV truncates toward zero.
		{"LOAD 1\nDIV =2\nSTORE 9\nHALT\n", map[uint32]int64{1: -7}, -3},
		{"LOAD =7\nDIV 1\nSTORE 9\nHALT\n", map[uint32]int64{1: -2}, -3},
		// MOD has the sign of the dividend.
		{"LOAD 1\nMOD =3\nSTORE 9\nHALT\n", map[uint32]int64{1: -7}, -1},
		{"LOAD =7\nMOD 1\nSTORE 9\nHALT\n", map[uint32]int64{1: -3}, 1},
	}
	for _, tt := range tests {
		m := run(t, tt.src, nil, tt.memory)
		if m.Err() != nil {
			t.Errorf("%q: err = %v", tt.src, m.Err())
			continue
		}
		if got := m.Register(9); got != tt.want {
			t.Errorf("%q: R9 = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestReadEmptyInputYieldsZero(t *testing.T) {
	m := run(t, "READ 1\nLOAD 1\nWRITE 0\nHALT\n", nil, nil)
	if m.Err() != nil {
		t.Fatalf("err = %v", m.Err())
	}
	expectOutput(t, m, []int64{0})
	if m.EmptyReads() != 1 {
		t.Errorf("EmptyReads = %d, want 1", m.EmptyReads())
	}
}

func TestJumpConditions(t *testing.T) {
	src := `READ 1
LOAD 1
JGTZ pos
JNEG neg
WRITE =0
HALT
pos: WRITE =1
HALT
neg: WRITE =2
HALT
`
	tests := []struct {
		input int64
		want  int64
	}{
		{5, 1},
		{-5, 2},
		{0, 0},
	}
	for _, tt := range tests {
		m := run(t, src, []int64{tt.input}, nil)
		expectOutput(t, m, []int64{tt.want})
	}
}

func TestJumpToSyntheticHalt(t *testing.T) {
	m := run(t, "JUMP end\nWRITE =1\nend:\n", nil, nil)
	if !m.Halted() || m.Err() != nil {
		t.Fatalf("halted=%v err=%v", m.Halted(), m.Err())
	}
	expectOutput(t, m, nil)
}

func TestProgramEndsWithoutHalt(t *testing.T) {
	m := run(t, "LOAD =1\nSTORE 2\n", nil, nil)
	if !m.Halted() {
		t.Error("running off the end must halt")
	}
	if m.Steps() != 2 {
		t.Errorf("steps = %d, want 2", m.Steps())
	}
}

func TestWriteAccumulatorByNumber(t *testing.T) {
	// WRITE 0 writes the accumulator; they are the same register.
	m := run(t, "LOAD =42\nWRITE 0\nHALT\n", nil, nil)
	expectOutput(t, m, []int64{42})
}

func TestDeterminism(t *testing.T) {
	src := "READ 1\nloop: LOAD 1\nJZERO end\nLOAD 2\nADD 1\nSTORE 2\nREAD 1\nJUMP loop\nend: WRITE 2\nHALT\n"
	input := []int64{3, 9, 27, 0}
	p := compile(t, src)

	runOnce := func() (out []int64, steps uint64, regs map[uint32]int64) {
		m := vm.New()
		m.Load(p)
		m.SeedInput(input)
		m.Run()
		return m.Output(), m.Steps(), m.Registers()
	}

	out1, steps1, regs1 := runOnce()
	out2, steps2, regs2 := runOnce()
	if steps1 != steps2 {
		t.Errorf("steps differ: %d vs %d", steps1, steps2)
	}
	if len(out1) != len(out2) || out1[0] != out2[0] {
		t.Errorf("outputs differ: %v vs %v", out1, out2)
	}
	if len(regs1) != len(regs2) {
		t.Errorf("register files differ: %v vs %v", regs1, regs2)
	}
	for k, v := range regs1 {
		if regs2[k] != v {
			t.Errorf("R%d differs: %d vs %d", k, v, regs2[k])
		}
	}
}

func TestStepOutcomes(t *testing.T) {
	m := vm.New()
	m.Load(compile(t, "LOAD =1\nHALT\n"))
	if got := m.Step(); got != vm.Continued {
		t.Errorf("first step = %v, want Continued", got)
	}
	if got := m.Step(); got != vm.Halted {
		t.Errorf("second step = %v, want Halted", got)
	}
	if got := m.Step(); got != vm.Halted {
		t.Errorf("step after halt = %v, want Halted", got)
	}
}

func TestBreakpoints(t *testing.T) {
	m := vm.New()
	m.Load(compile(t, "LOAD =1\nADD =1\nADD =1\nHALT\n"))
	m.AddBreakpoint(2)

	if got := m.RunUntilBreak(); got != vm.BreakpointHit {
		t.Fatalf("outcome = %v, want BreakpointHit", got)
	}
	if m.PC() != 2 {
		t.Errorf("paused at pc %d, want 2", m.PC())
	}
	if m.Register(0) != 2 {
		t.Errorf("acc = %d, want 2 (instruction at breakpoint not yet executed)", m.Register(0))
	}
	// Resuming makes progress past the breakpoint.
	if got := m.RunUntilBreak(); got != vm.Halted {
		t.Fatalf("outcome = %v, want Halted", got)
	}
	if m.Register(0) != 3 {
		t.Errorf("acc = %d, want 3", m.Register(0))
	}
}

func TestStopFlag(t *testing.T) {
	m := vm.New()
	m.Load(compile(t, "loop: JUMP loop\n"))
	m.Stop()
	if got := m.Run(); got != vm.Stopped {
		t.Fatalf("outcome = %v, want Stopped", got)
	}
	if m.Halted() {
		t.Error("stop preserves state; the machine is not halted")
	}
}

func TestStepLimit(t *testing.T) {
	m := vm.New()
	m.Load(compile(t, "loop: JUMP loop\n"))
	m.SetMaxSteps(100)
	if got := m.Run(); got != vm.Errored {
		t.Fatalf("outcome = %v, want Errored", got)
	}
	if m.Err().Code != diag.RunStepLimit {
		t.Errorf("err = %v, want R040", m.Err())
	}
}

func TestResetKeepsProgram(t *testing.T) {
	m := vm.New()
	m.Load(compile(t, "READ 1\nLOAD 1\nWRITE 0\nHALT\n"))
	m.SeedInput([]int64{7})
	m.Run()
	expectOutput(t, m, []int64{7})

	m.Reset()
	m.SeedInput([]int64{8})
	if got := m.Run(); got != vm.Halted {
		t.Fatalf("outcome after reset = %v", got)
	}
	expectOutput(t, m, []int64{8})
}
