// Package analysis runs a pluggable pipeline of passes over a lowered
// program. Passes declare dependencies by tag; the scheduler resolves an
// execution order and hands each pass the outputs it asked for.
package analysis

import (
	"ramc/internal/diag"
	"ramc/internal/hir"
)

// PassID is the stable tag identifying a pass.
type PassID string

// Pass is one analysis over HIR. Run receives a read-only program and a
// reporter; the typed output is stored in the context under the pass ID.
// A failing pass aborts the pipeline only when Critical is true.
type Pass interface {
	ID() PassID
	Deps() []PassID
	Critical() bool
	Run(ctx *Context) (any, error)
}

// Context carries the shared state of one pipeline execution. Only the
// scheduler mutates it; passes read the program and dependency outputs
// and write diagnostics.
type Context struct {
	Program  *hir.Program
	Reporter diag.Reporter
	outputs  map[PassID]any
}

// NewContext prepares a context for one program.
func NewContext(program *hir.Program, reporter diag.Reporter) *Context {
	return &Context{
		Program:  program,
		Reporter: reporter,
		outputs:  make(map[PassID]any),
	}
}

// Output returns the raw output of a completed pass.
func (ctx *Context) Output(id PassID) (any, bool) {
	out, ok := ctx.outputs[id]
	return out, ok
}

// OutputOf fetches a pass output under its concrete type. The cast stays
// inside this package; passes expose typed accessors built on top of it.
func OutputOf[T any](ctx *Context, id PassID) (T, bool) {
	var zero T
	raw, ok := ctx.outputs[id]
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (ctx *Context) setOutput(id PassID, out any) {
	ctx.outputs[id] = out
}
