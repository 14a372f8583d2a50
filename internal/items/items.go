// Package items collects label definitions from the typed syntax view and
// builds the symbol table used by lowering.
package items

import (
	"fmt"

	"ramc/internal/ast"
	"ramc/internal/diag"
	"ramc/internal/source"
)

// Binding records one label definition.
type Binding struct {
	Name string
	Span source.Span
	// Target is the index of the instruction the label precedes. A label
	// with no following instruction points one past the last instruction
	// (a synthetic halt).
	Target uint32
}

// Table maps label names to instruction indices. Names are unique; on
// redefinition the first definition wins.
type Table struct {
	byName map[string]Binding
	defs   []Binding // in source order, duplicates excluded
	// NumInstructions is the total instruction count observed while
	// walking, which is also the synthetic halt position.
	NumInstructions uint32
}

// Lookup resolves a label name to its instruction index.
func (t *Table) Lookup(name string) (uint32, bool) {
	b, ok := t.byName[name]
	if !ok {
		return 0, false
	}
	return b.Target, true
}

// Defs returns the recorded bindings in source order.
func (t *Table) Defs() []Binding {
	return t.defs
}

// Collect walks the program lines in source order and records a binding
// for every label definition. Duplicate names produce E010; the first
// definition wins.
func Collect(program ast.Program, reporter diag.Reporter) *Table {
	t := &Table{byName: make(map[string]Binding)}

	var pending []Binding
	var count uint32
	for _, line := range program.Lines() {
		for _, def := range line.Labels() {
			pending = append(pending, Binding{Name: def.Name(), Span: def.Span()})
		}
		if _, ok := line.Instruction(); ok {
			for i := range pending {
				pending[i].Target = count
				t.record(pending[i], reporter)
			}
			pending = pending[:0]
			count++
		}
	}
	// Labels with nothing after them resolve past the last instruction.
	for i := range pending {
		pending[i].Target = count
		t.record(pending[i], reporter)
	}
	t.NumInstructions = count
	return t
}

func (t *Table) record(b Binding, reporter diag.Reporter) {
	if first, ok := t.byName[b.Name]; ok {
		if reporter != nil {
			reporter.Report(diag.New(diag.SevError, diag.ResDuplicateLabel, b.Span,
				fmt.Sprintf("label %q is already defined", b.Name)).
				WithNote(first.Span, "first definition here").
				WithHelp("the first definition wins; rename or remove this one"))
		}
		return
	}
	t.defs = append(t.defs, b)
	t.byName[b.Name] = b
}
