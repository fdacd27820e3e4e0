// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import (
	"github.com/Emamatcyber90/escapeopt/internal/diagnostics"
	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

// Engine is the escape analysis fixed-point dataflow engine (spec.md §2):
// alias assignment, virtual-state propagation, replacement resolution,
// and escape-status propagation over a graph of internal/ir nodes. The
// zero value is not usable; construct with NewEngine.
type Engine struct {
	g      *ir.Graph
	tracer *diagnostics.Tracer

	alias      []Alias
	aliasCount int

	status       []StatusFlags
	replacement  []ir.NodeID
	virtualState []*VirtualState
	statusStack  []ir.NodeID

	cache *mergeCache
}

// NewEngine returns an Engine bound to g. tracer may be nil (or
// diagnostics.NewNopTracer()) to disable trace output entirely.
func NewEngine(g *ir.Graph, tracer *diagnostics.Tracer) *Engine {
	return &Engine{g: g, tracer: tracer, cache: &mergeCache{}}
}

// Run is the compute-all entry point (spec.md §6): C1 assigns aliases;
// if any tracked alias exists, C2 runs to completion (driving C3 inline
// on loads), then C4 runs to completion. Run is idempotent — every
// side-table is rebuilt from scratch, so repeated calls on an unchanged
// graph always reach the same fixed point (spec.md §8 property 8).
//
// A precondition violation anywhere in the engine panics with
// *InternalError (spec.md §7); Run recovers it here and returns it as a
// plain error — a library-appropriate analogue of the teacher's own
// Fatalf calls (ssa/prove.go, ssa/phielim.go), which log and abort the
// compilation process outright rather than return to a caller.
func (e *Engine) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	e.alias = nil
	e.aliasCount = 0
	e.status = nil
	e.replacement = nil
	e.virtualState = nil
	e.statusStack = nil
	e.cache.reset()

	e.assignAliases()
	if e.aliasCount > 0 {
		e.runStatePropagation()
		e.runEscapeStatus()
	}
	return nil
}

// ExistsVirtualAllocate is a fast check for downstream pass scheduling
// (spec.md §6): does any candidate allocation remain virtual.
func (e *Engine) ExistsVirtualAllocate() bool {
	for id := 0; id < len(e.status); id++ {
		n := ir.NodeID(id)
		if e.isAllocation(n) && e.IsVirtual(n) {
			return true
		}
	}
	return false
}

// stateAt is the grow-safe VirtualState lookup every C2/C3/C5 path uses:
// a node id beyond the table's current bounds has no attached state.
func (e *Engine) stateAt(id ir.NodeID) *VirtualState {
	if int(id) < 0 || int(id) >= len(e.virtualState) {
		return nil
	}
	return e.virtualState[id]
}

func (e *Engine) setState(id ir.NodeID, s *VirtualState) {
	if int(id) >= len(e.virtualState) {
		grown := make([]*VirtualState, id+1)
		copy(grown, e.virtualState)
		e.virtualState = grown
	}
	e.virtualState[id] = s
}
