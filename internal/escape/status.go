// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// --- shared status-table bit helpers -------------------------------
//
// The same flags table backs C2's InQueue bookkeeping and the
// Dangling/BranchPoint memoization as well as C4's
// Tracked/Escaped/OnStack/Visited bits (spec.md §3).

func (e *Engine) ensureStatus(id ir.NodeID) {
	if int(id) < len(e.status) {
		return
	}
	grown := make([]StatusFlags, id+1)
	copy(grown, e.status)
	e.status = grown
}

func (e *Engine) statusAt(id ir.NodeID) StatusFlags {
	if int(id) < 0 || int(id) >= len(e.status) {
		return 0
	}
	return e.status[id]
}

func (e *Engine) setStatus(id ir.NodeID, f StatusFlags) {
	e.ensureStatus(id)
	e.status[id] |= f
}

func (e *Engine) clearStatus(id ir.NodeID, f StatusFlags) {
	e.ensureStatus(id)
	e.status[id] &^= f
}

func (e *Engine) isInQueue(id ir.NodeID) bool { return e.statusAt(id)&StatusInQueue != 0 }
func (e *Engine) setInQueue(id ir.NodeID, on bool) {
	if on {
		e.setStatus(id, StatusInQueue)
	} else {
		e.clearStatus(id, StatusInQueue)
	}
}

func (e *Engine) hasEntry(id ir.NodeID) bool {
	return e.statusAt(id)&(StatusTracked|StatusEscaped) != 0
}

// IsVirtual reports whether id is a tracked, non-escaped allocation:
// eligible for elimination by the downstream reducer.
func (e *Engine) IsVirtual(id ir.NodeID) bool {
	s := e.statusAt(id)
	return s&StatusTracked != 0 && s&StatusEscaped == 0
}

// IsEscaped reports whether id has been proven reachable by
// unanalyzable code.
func (e *Engine) IsEscaped(id ir.NodeID) bool {
	return e.statusAt(id)&StatusEscaped != 0
}

func (e *Engine) setTracked(id ir.NodeID) { e.setStatus(id, StatusTracked) }

// setEscaped marks id Escaped (and Tracked, since only tracked nodes
// carry an escape status), returning whether this is a transition.
// Escape is monotone: once set it is never cleared (spec.md §8,
// invariant 3), which is what makes the C4 fixed point terminate.
func (e *Engine) setEscaped(id ir.NodeID) bool {
	changed := e.statusAt(id)&StatusEscaped == 0
	e.setStatus(id, StatusEscaped|StatusTracked)
	return changed
}

func (e *Engine) isOnStack(id ir.NodeID) bool { return e.statusAt(id)&StatusOnStack != 0 }

// enqueueForStatus pushes id onto the C4 worklist unless it is already
// there.
func (e *Engine) enqueueForStatus(id ir.NodeID) {
	if e.isOnStack(id) {
		return
	}
	e.statusStack = append(e.statusStack, id)
	e.setStatus(id, StatusOnStack)
}

func (e *Engine) revisitInputs(id ir.NodeID) {
	for _, edge := range e.g.InputEdges(e.g.Node(id)) {
		if !e.isOnStack(edge.To) {
			e.enqueueForStatus(edge.To)
		}
	}
}

func (e *Engine) revisitUses(id ir.NodeID) {
	for _, edge := range e.g.UseEdges(id) {
		if !e.isOnStack(edge.From) && !e.isNotReachable(edge.From) {
			e.enqueueForStatus(edge.From)
		}
	}
}

// --- C4: escape-status propagation ---------------------------------

// runEscapeStatus drains the status worklist C1 seeded with every
// candidate allocation to a fixed point (spec.md §4.4).
func (e *Engine) runEscapeStatus() {
	for len(e.statusStack) > 0 {
		n := len(e.statusStack) - 1
		id := e.statusStack[n]
		e.statusStack = e.statusStack[:n]
		e.clearStatus(id, StatusOnStack)
		e.processStatus(id)
		e.setStatus(id, StatusVisited)
	}
}

func (e *Engine) processStatus(id ir.NodeID) {
	node := e.g.Node(id)
	switch node.Op {
	case ir.OpAllocate:
		e.processStatusAllocate(id)
	case ir.OpFinishRegion:
		e.processStatusFinishRegion(id)
	case ir.OpStoreField:
		e.processStatusStoreField(id)
	case ir.OpStoreElement:
		e.processStatusStoreElement(id)
	case ir.OpLoadField, ir.OpLoadElement:
		if rep := e.GetReplacement(id); rep != NoNode && e.isAllocation(rep) {
			if e.checkUsesForEscape(id, rep, false) {
				e.revisitInputs(rep)
				e.revisitUses(rep)
			}
		}
		e.revisitUses(id)
	case ir.OpPhi:
		if !e.hasEntry(id) {
			e.setTracked(id)
			e.revisitUses(id)
		}
		if !e.isAllocationPhi(id) && e.setEscaped(id) {
			e.revisitInputs(id)
			e.revisitUses(id)
		}
		e.checkUsesForEscape(id, id, false)
	}
}

func (e *Engine) isAllocation(id ir.NodeID) bool {
	op := e.g.Node(id).Op
	return op == ir.OpAllocate || op == ir.OpFinishRegion
}

// isAllocationPhi reports whether every value input of the phi id is
// itself an allocation, or a non-escaped phi. spec.md §4.4 describes
// this over the phi's inputs; the value-input restriction (rather than
// the node's unfiltered input set, which would also sweep in the
// phi's control predecessor) is this implementation's reading of that
// description — see DESIGN.md.
func (e *Engine) isAllocationPhi(id ir.NodeID) bool {
	for _, in := range e.g.Node(id).ValueIn {
		if e.g.Node(in).Op == ir.OpPhi && !e.IsEscaped(in) {
			continue
		}
		if e.isAllocation(in) {
			continue
		}
		return false
	}
	return true
}

func (e *Engine) processStatusAllocate(id ir.NodeID) {
	if !e.hasEntry(id) {
		e.setTracked(id)
		sizeNode := e.g.Node(id).ValueIn[0]
		if e.g.IsRawMachineWordLiteral(sizeNode) {
			panic(fatal(id, "allocation size is a raw machine-word literal"))
		}
		e.revisitUses(id)
		if _, ok := e.g.ConstantSize(sizeNode); !ok {
			if e.setEscaped(id) {
				e.tracer.Escape(int32(id), e.g.Node(id).Op.String(), "non-constant allocation size")
				return
			}
		}
	}
	if e.checkUsesForEscape(id, id, true) {
		e.revisitUses(id)
	}
}

func (e *Engine) processStatusFinishRegion(id ir.NodeID) {
	if !e.hasEntry(id) {
		e.setTracked(id)
		e.revisitUses(id)
	}
	if e.checkUsesForEscape(id, id, true) {
		e.revisitInputs(id)
	}
}

func (e *Engine) processStatusStoreField(id ir.NodeID) {
	node := e.g.Node(id)
	to, val := node.ValueIn[0], node.ValueIn[1]
	if (e.IsEscaped(to) || !e.isAllocation(to)) && e.setEscaped(val) {
		e.revisitUses(val)
		e.revisitInputs(val)
		e.tracer.Escape(int32(val), e.g.Node(val).Op.String(), "stored into escaping field")
	}
}

func (e *Engine) processStatusStoreElement(id ir.NodeID) {
	node := e.g.Node(id)
	to, val := node.ValueIn[0], node.ValueIn[2]
	if (e.IsEscaped(to) || !e.isAllocation(to)) && e.setEscaped(val) {
		e.revisitUses(val)
		e.revisitInputs(val)
		e.tracer.Escape(int32(val), e.g.Node(val).Op.String(), "stored into escaping element")
	}
}

// checkUsesForEscape is the uniform use-pattern check (spec.md §4.4):
// walks every value-use of uses and escalates rep according to the use
// opcode's policy. phi_escaping mirrors the original's per-call-site
// argument: Allocate/FinishRegion dispatch pass true, Load and Phi
// dispatch pass false (escape-analysis.cc:584,601,660,741) — see
// DESIGN.md. A phi use additionally never escapes rep when the phi
// itself is an allocation-phi (every input an allocation or a
// non-escaped phi): that is exactly the merge this engine is meant to
// keep virtual (spec.md §8 scenario S4), so unconditionally escaping
// on any phi use would defeat the one mechanism (processLoadFromPhi)
// built to resolve loads through it.
func (e *Engine) checkUsesForEscape(uses, rep ir.NodeID, phiEscaping bool) bool {
	producerEffectful := e.g.Node(uses).EffectInputCount() > 0
	for _, edge := range e.g.UseEdges(uses) {
		if edge.Kind != ir.ValueEdge {
			continue
		}
		consumer := edge.From
		if e.isNotReachable(consumer) {
			continue
		}
		use := e.g.Node(consumer)
		switch use.Op {
		case ir.OpPhi:
			if phiEscaping && !e.isAllocationPhi(consumer) && e.setEscaped(rep) {
				e.tracer.Escape(int32(rep), e.g.Node(rep).Op.String(), "merged by phi")
				return true
			}
			if e.IsEscaped(consumer) && e.setEscaped(rep) {
				return true
			}
		case ir.OpStoreField, ir.OpLoadField, ir.OpStoreElement, ir.OpLoadElement,
			ir.OpFrameState, ir.OpStateValues, ir.OpReferenceEqual, ir.OpFinishRegion:
			if e.IsEscaped(consumer) && e.setEscaped(rep) {
				return true
			}
		case ir.OpObjectIsSmi:
			if !e.isAllocation(rep) && e.setEscaped(rep) {
				e.tracer.Escape(int32(rep), e.g.Node(rep).Op.String(), "smi-tested but not an allocation")
				return true
			}
		case ir.OpSelect:
			if e.setEscaped(rep) {
				e.tracer.Escape(int32(rep), e.g.Node(rep).Op.String(), "used by select")
				return true
			}
		default:
			if use.EffectInputCount() == 0 && producerEffectful {
				// spec.md §9's flagged UNREACHABLE default case: this
				// implementation deliberately escapes conservatively
				// and logs instead of treating it as fatal
				// (SPEC_FULL.md §7(3)).
				e.tracer.Fatal(int32(consumer), "unhandled effectful use; escaping conservatively")
			}
			if e.setEscaped(rep) {
				e.tracer.Escape(int32(rep), e.g.Node(rep).Op.String(), "used by unrecognized operator")
				return true
			}
		}
	}
	return false
}
