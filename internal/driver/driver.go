// Package driver orchestrates the pipeline from source text to analysis
// results and VM execution. A Session memoizes per-file artifacts keyed by
// (FileID, Revision): replacing a file's content invalidates everything
// derived from it and nothing else.
package driver

import (
	"fmt"

	"ramc/internal/analysis"
	"ramc/internal/ast"
	"ramc/internal/diag"
	"ramc/internal/hir"
	"ramc/internal/items"
	"ramc/internal/parser"
	"ramc/internal/source"
	"ramc/internal/vm"
)

// Artifacts bundles everything derived from one revision of a file.
type Artifacts struct {
	Tree    ast.Program
	Table   *items.Table
	Program *hir.Program
	Context *analysis.Context
	// Bag holds the diagnostics accumulated while producing the above.
	// It belongs to the cache; callers receive merged copies.
	Bag *diag.Bag
}

type cacheKey struct {
	file source.FileID
	rev  source.Revision
}

// Session drives compilation over one FileSet.
type Session struct {
	FS       *source.FileSet
	Pipeline *analysis.Pipeline
	cache    map[cacheKey]*Artifacts
}

// NewSession creates a session with the default analysis pipeline.
func NewSession(fs *source.FileSet) *Session {
	return &Session{
		FS:       fs,
		Pipeline: analysis.Default(),
		cache:    make(map[cacheKey]*Artifacts),
	}
}

// Compile lexes, parses, resolves, lowers, and analyzes a file. The result
// is cached; compiling the same revision again is free.
func (s *Session) Compile(id source.FileID) *Artifacts {
	file := s.FS.Get(id)
	key := cacheKey{file: id, rev: file.Revision}
	if art, ok := s.cache[key]; ok {
		return art
	}

	bag := diag.NewBag(32)
	rep := diag.BagReporter{Bag: bag}

	tree := parser.ParseFile(file, parser.Options{Reporter: rep})
	program := ast.NewProgram(tree)
	table := items.Collect(program, rep)
	lowered := hir.Lower(program, table, rep)

	ctx := analysis.NewContext(lowered, rep)
	// A scheduler failure is a configuration bug; it lands in the bag as
	// E100 and the artifacts simply carry no pass outputs.
	_ = s.Pipeline.Run(ctx)

	art := &Artifacts{
		Tree:    program,
		Table:   table,
		Program: lowered,
		Context: ctx,
		Bag:     bag,
	}
	s.cache[key] = art
	return art
}

// Validate runs the full pipeline and returns the accumulated diagnostics.
// The returned bag is owned by the caller.
func (s *Session) Validate(id source.FileID) *diag.Bag {
	art := s.Compile(id)
	out := diag.NewBag(art.Bag.Len())
	out.Merge(art.Bag)
	return out
}

// RunResult is the outcome of executing a program.
type RunResult struct {
	Output      []int64
	Diagnostics *diag.Bag
	Halted      bool
	Steps       uint64
	// RuntimeErr is set when execution failed; its code is also in the
	// diagnostics.
	RuntimeErr *vm.Error
}

// RunOptions configures an execution.
type RunOptions struct {
	Input    []int64
	Memory   map[uint32]int64
	MaxSteps uint64
}

// Run validates the file and, when no error diagnostic remains, executes
// it. Compile-time errors return with Halted=false and no output.
func (s *Session) Run(id source.FileID, opts RunOptions) RunResult {
	art := s.Compile(id)
	bag := diag.NewBag(art.Bag.Len())
	bag.Merge(art.Bag)
	if bag.HasErrors() {
		return RunResult{Diagnostics: bag}
	}
	return s.execute(art.Program, bag, opts)
}

// RunProgram executes an already-lowered program (for compiled artifacts).
func (s *Session) RunProgram(p *hir.Program, opts RunOptions) RunResult {
	return s.execute(p, diag.NewBag(4), opts)
}

func (s *Session) execute(p *hir.Program, bag *diag.Bag, opts RunOptions) RunResult {
	m := vm.New()
	m.Load(p)
	m.SeedInput(opts.Input)
	m.SeedMemory(opts.Memory)
	m.SetMaxSteps(opts.MaxSteps)
	m.Run()

	if runErr := m.Err(); runErr != nil {
		sp := source.Span{File: p.File}
		if int(runErr.PC) < p.Len() {
			sp = p.Instrs[runErr.PC].Span
		}
		bag.Add(diag.New(diag.SevError, runErr.Code, sp,
			fmt.Sprintf("%s (pc %d)", runErr.Msg, runErr.PC)))
		return RunResult{
			Output:      m.Output(),
			Diagnostics: bag,
			Halted:      m.Halted(),
			Steps:       m.Steps(),
			RuntimeErr:  runErr,
		}
	}

	if m.EmptyReads() > 0 {
		bag.Add(diag.New(diag.SevWarning, diag.WarnReadEmpty, source.Span{File: p.File},
			fmt.Sprintf("READ found the input queue empty %d time(s); it yields 0", m.EmptyReads())))
	}
	return RunResult{
		Output:      m.Output(),
		Diagnostics: bag,
		Halted:      m.Halted(),
		Steps:       m.Steps(),
	}
}
