// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// replacementAt is the grow-safe raw (single-level) replacement lookup;
// an id beyond the table's bounds has no replacement installed.
func (e *Engine) replacementAt(id ir.NodeID) ir.NodeID {
	if int(id) < 0 || int(id) >= len(e.replacement) {
		return NoNode
	}
	return e.replacement[id]
}

func (e *Engine) ensureReplacement(id ir.NodeID) {
	if int(id) < len(e.replacement) {
		return
	}
	grown := make([]ir.NodeID, id+1)
	copy(grown, e.replacement)
	for i := len(e.replacement); i <= int(id); i++ {
		grown[i] = NoNode
	}
	e.replacement = grown
}

// setReplacement installs rep as id's one-step replacement, reporting
// whether the table entry actually changed so C2 can decide whether to
// re-enqueue id's uses.
func (e *Engine) setReplacement(id, rep ir.NodeID) bool {
	e.ensureReplacement(id)
	if e.replacement[id] == rep {
		return false
	}
	e.replacement[id] = rep
	e.tracer.Replacement(int32(id), int32(rep), rep == NoNode)
	return true
}

func (e *Engine) clearReplacement(id ir.NodeID) bool {
	return e.setReplacement(id, NoNode)
}

// resolve walks the replacement chain to its fixed point (spec.md §3,
// §4.3). A node with no replacement installed resolves to itself — this
// is what makes resolve usable directly as "the current value of id",
// distinct from the public GetReplacement, which reports "no
// replacement at all" as NoNode rather than as id.
func (e *Engine) resolve(id ir.NodeID) ir.NodeID {
	cur := id
	for {
		rep := e.replacementAt(cur)
		if rep == NoNode || rep == cur {
			return cur
		}
		cur = rep
	}
}

// GetReplacement is the public transitive replacement query (spec.md
// §6): the fully resolved replacement for id, or NoNode if id never had
// one installed.
func (e *Engine) GetReplacement(id ir.NodeID) ir.NodeID {
	if resolved := e.resolve(id); resolved != id {
		return resolved
	}
	return NoNode
}

// GetReplacementIfSame reports the common resolved value shared by every
// id in ids, or NoNode if the set is empty or they disagree. This is the
// ported GetReplacementIfSame helper (SPEC_FULL.md §6): a downstream
// consumer checking whether several virtual objects all collapse to one
// value.
func (e *Engine) GetReplacementIfSame(ids ...ir.NodeID) ir.NodeID {
	if len(ids) == 0 {
		return NoNode
	}
	rep := e.resolve(ids[0])
	for _, id := range ids[1:] {
		if e.resolve(id) != rep {
			return NoNode
		}
	}
	return rep
}

// isEquivalentPhi is the structural congruence spec.md §4.3 defines:
// identical node, or both phis of equal value-input count with
// pairwise-equivalent inputs.
func (e *Engine) isEquivalentPhi(a, b ir.NodeID) bool {
	if a == b {
		return true
	}
	na, nb := e.g.Node(a), e.g.Node(b)
	if na.Op != ir.OpPhi || nb.Op != ir.OpPhi {
		return false
	}
	if len(na.ValueIn) != len(nb.ValueIn) {
		return false
	}
	for i := range na.ValueIn {
		if !e.isEquivalentPhi(na.ValueIn[i], nb.ValueIn[i]) {
			return false
		}
	}
	return true
}

// CompareVirtualObjects is the public equivalence query (spec.md §6):
// true iff resolve(a) and resolve(b) are equivalent phis or identical.
func (e *Engine) CompareVirtualObjects(a, b ir.NodeID) bool {
	return e.isEquivalentPhi(e.resolve(a), e.resolve(b))
}

func (e *Engine) phiInputsEquivalent(phi ir.NodeID, values []ir.NodeID) bool {
	node := e.g.Node(phi)
	if len(node.ValueIn) != len(values) {
		return false
	}
	for i, v := range node.ValueIn {
		if !e.isEquivalentPhi(v, values[i]) {
			return false
		}
	}
	return true
}

// processLoadFromPhi is C3's load-from-phi routine (spec.md §4.3). The
// load's base is a Phi; when every one of the phi's own branch values
// is itself a tracked virtual object with a known field at offset, a
// new value-phi is synthesized over those per-branch field values
// (reusing a prior structurally-equivalent phi already standing as the
// load's replacement rather than reallocating). If any branch is
// missing an object or the field slot is unknown there, no replacement
// is installed.
//
// Using the phi's own branches as the per-predecessor object set — not
// the load node's own input list, which a load against a phi base
// never has more than one of — is this implementation's resolution of
// the ambiguity spec.md §9 leaves open about the retrieved original's
// load-from-phi wiring; see DESIGN.md.
func (e *Engine) processLoadFromPhi(load, phi ir.NodeID, state *VirtualState, offset int) {
	phiNode := e.g.Node(phi)
	branches := phiNode.ValueIn

	e.cache.reset()
	e.cache.fields = append(e.cache.fields, branches...)
	e.cache.loadObjectsForFieldsFrom(state, e.aliasOf)

	if len(e.cache.objects) != len(branches) {
		e.clearReplacement(load)
		return
	}

	values := make([]ir.NodeID, len(branches))
	for i, obj := range e.cache.objects {
		if offset >= obj.FieldCount() {
			e.clearReplacement(load)
			return
		}
		v := obj.Field(offset)
		if v == NoNode {
			e.clearReplacement(load)
			return
		}
		values[i] = e.resolve(v)
	}

	if existing := e.GetReplacement(load); existing != NoNode && e.g.Node(existing).Op == ir.OpPhi {
		if e.phiInputsEquivalent(existing, values) {
			return
		}
	}

	control := phiNode.ControlIn[0]
	newPhi := e.g.NewPhi(control, values...)
	e.setReplacement(load, newPhi)
}
