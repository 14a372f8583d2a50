package analysis

import (
	"fmt"
	"sort"

	"ramc/internal/diag"
	"ramc/internal/source"
)

// Pipeline is an ordered registry of passes.
type Pipeline struct {
	passes []Pass
	byID   map[PassID]Pass
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{byID: make(map[PassID]Pass)}
}

// Default returns the pipeline with all built-in passes registered.
func Default() *Pipeline {
	p := NewPipeline()
	p.Register(ValidationPass{})
	p.Register(CFGPass{})
	p.Register(ReachabilityPass{})
	p.Register(DataFlowPass{})
	p.Register(ConstPropPass{})
	p.Register(OptimizePass{})
	return p
}

// Register adds a pass. Registering the same ID twice replaces the
// earlier pass.
func (p *Pipeline) Register(pass Pass) {
	if _, ok := p.byID[pass.ID()]; ok {
		for i, existing := range p.passes {
			if existing.ID() == pass.ID() {
				p.passes[i] = pass
				break
			}
		}
	} else {
		p.passes = append(p.passes, pass)
	}
	p.byID[pass.ID()] = pass
}

// Run executes every registered pass in dependency order. A dependency
// cycle is a configuration bug: it reports E100 and aborts. A failing
// critical pass aborts; a failing non-critical pass only skips its output.
func (p *Pipeline) Run(ctx *Context) error {
	order, err := p.schedule()
	if err != nil {
		if ctx.Reporter != nil {
			ctx.Reporter.Report(diag.New(diag.SevError, diag.PipePassCycle,
				source.Span{File: ctx.Program.File}, err.Error()))
		}
		return err
	}
	for _, pass := range order {
		out, err := pass.Run(ctx)
		if err != nil {
			if pass.Critical() {
				return fmt.Errorf("pass %s: %w", pass.ID(), err)
			}
			continue
		}
		ctx.setOutput(pass.ID(), out)
	}
	return nil
}

// schedule resolves a topological order with Kahn's algorithm. Ties are
// broken by registration order so scheduling is deterministic.
func (p *Pipeline) schedule() ([]Pass, error) {
	regOrder := make(map[PassID]int, len(p.passes))
	for i, pass := range p.passes {
		regOrder[pass.ID()] = i
	}

	indegree := make(map[PassID]int, len(p.passes))
	dependents := make(map[PassID][]PassID, len(p.passes))
	for _, pass := range p.passes {
		indegree[pass.ID()] += 0
		for _, dep := range pass.Deps() {
			if _, ok := p.byID[dep]; !ok {
				return nil, fmt.Errorf("pass %s depends on unregistered pass %s", pass.ID(), dep)
			}
			indegree[pass.ID()]++
			dependents[dep] = append(dependents[dep], pass.ID())
		}
	}

	ready := make([]PassID, 0, len(p.passes))
	for _, pass := range p.passes {
		if indegree[pass.ID()] == 0 {
			ready = append(ready, pass.ID())
		}
	}
	sortByRegistration(ready, regOrder)

	order := make([]Pass, 0, len(p.passes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, p.byID[id])
		released := false
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
				released = true
			}
		}
		if released {
			sortByRegistration(ready, regOrder)
		}
	}

	if len(order) != len(p.passes) {
		cycle := make([]string, 0)
		for id, deg := range indegree {
			if deg > 0 {
				cycle = append(cycle, string(id))
			}
		}
		sort.Strings(cycle)
		return nil, fmt.Errorf("pass dependency cycle involving: %v", cycle)
	}
	return order, nil
}

func sortByRegistration(ids []PassID, regOrder map[PassID]int) {
	sort.SliceStable(ids, func(i, j int) bool {
		return regOrder[ids[i]] < regOrder[ids[j]]
	})
}
