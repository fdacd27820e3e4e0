// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// log2PointerSize is log2(ir.PointerSize); element accesses must have an
// ElemSizeLog2 at least this large (spec.md §6/§7).
const log2PointerSize = 3

// runStatePropagation is C2: a worklist over effect edges seeded with
// Start. Ordinary effect successors are pushed to the back of the
// deque; EffectPhi successors are pushed to the front to delay them
// relative to the rest of the current frontier (spec.md §4.2,
// "Ordering guarantees"). Dangling effect nodes — effect-consuming
// nodes with no effect consumer of their own — have no successor to
// retrigger them, so they are collected into a same-sweep batch and
// processed inline instead of going through the deque at all.
func (e *Engine) runStatePropagation() {
	q := &effectDeque{}
	var danglers []ir.NodeID

	q.pushBack(e.g.Start)
	e.setInQueue(e.g.Start, true)

	for !q.empty() {
		id := q.popBack()
		e.setInQueue(id, false)
		danglers = e.processEffectNode(id, q, danglers)
		for len(danglers) > 0 {
			n := len(danglers) - 1
			id := danglers[n]
			danglers = danglers[:n]
			danglers = e.processEffectNode(id, q, danglers)
		}
	}
}

// processEffectNode dispatches id, then pushes its effect successors
// (or, for a dangling successor, appends it to the dangler batch)
// unless the dispatch reported no change — only EffectPhi can report
// "no change" and thereby withhold re-enqueuing its successors; every
// other handler always propagates forward on a visit.
func (e *Engine) processEffectNode(id ir.NodeID, q *effectDeque, danglers []ir.NodeID) []ir.NodeID {
	if !e.process(id) {
		return danglers
	}
	for _, edge := range e.g.UseEdges(id) {
		if edge.Kind != ir.EffectEdge {
			continue
		}
		succ := edge.From
		if e.isDanglingEffectNode(succ) {
			danglers = append(danglers, succ)
			continue
		}
		if e.isInQueue(succ) {
			continue
		}
		e.setInQueue(succ, true)
		if e.g.Node(succ).Op == ir.OpEffectPhi {
			q.pushFront(succ)
		} else {
			q.pushBack(succ)
		}
	}
	return danglers
}

func (e *Engine) process(id ir.NodeID) bool {
	node := e.g.Node(id)
	switch node.Op {
	case ir.OpStart:
		e.processStart(id)
	case ir.OpAllocate:
		e.processAllocate(id)
	case ir.OpFinishRegion:
		e.processFinishRegion(id)
	case ir.OpStoreField:
		e.processStoreField(id)
	case ir.OpLoadField:
		e.processLoadField(id)
	case ir.OpStoreElement:
		e.processStoreElement(id)
	case ir.OpLoadElement:
		e.processLoadElement(id)
	case ir.OpEffectPhi:
		return e.processEffectPhi(id)
	default:
		e.processGeneric(id)
	}
	return true
}

func (e *Engine) processStart(id ir.NodeID) {
	if e.stateAt(id) == nil {
		e.setState(id, newVirtualState(id, e.aliasCount))
	}
}

// isDanglingEffectNode and isEffectBranchPoint are memoized per-node
// predicates (spec.md §3's Dangling/BranchPoint status bits; SPEC_FULL
// §6's ported IsDanglingEffectNode/IsEffectBranchPoint).
func (e *Engine) isDanglingEffectNode(id ir.NodeID) bool {
	if e.statusAt(id)&StatusDanglingComputed != 0 {
		return e.statusAt(id)&StatusDangling != 0
	}
	n := e.g.Node(id)
	dangling := n.EffectOutputCount() > 0 && len(e.effectUses(id)) == 0
	e.setStatus(id, StatusDanglingComputed)
	if dangling {
		e.setStatus(id, StatusDangling)
	}
	return dangling
}

func (e *Engine) isEffectBranchPoint(id ir.NodeID) bool {
	if e.statusAt(id)&StatusBranchPointComputed != 0 {
		return e.statusAt(id)&StatusBranchPoint != 0
	}
	count := 0
	for _, edge := range e.effectUses(id) {
		if !e.isDanglingEffectNode(edge.From) {
			count++
		}
	}
	branch := count > 1
	e.setStatus(id, StatusBranchPointComputed)
	if branch {
		e.setStatus(id, StatusBranchPoint)
	}
	return branch
}

func (e *Engine) effectUses(id ir.NodeID) []ir.Edge {
	var out []ir.Edge
	for _, edge := range e.g.UseEdges(id) {
		if edge.Kind == ir.EffectEdge {
			out = append(out, edge)
		}
	}
	return out
}

// forwardVirtualState implements the "Forward" step shared by every
// non-phi effect handler (spec.md §4.2): the out-state is the in-state,
// by pointer, marked CopyRequired when it might be written through more
// than one path without a clone in between.
func (e *Engine) forwardVirtualState(id ir.NodeID) *VirtualState {
	node := e.g.Node(id)
	effectIn := node.EffectIn[0]
	in := e.stateAt(effectIn)
	if in == nil {
		in = newVirtualState(effectIn, e.aliasCount)
		e.setState(effectIn, in)
	}
	needsCopyRequired := e.g.Node(in.Owner()).Op == ir.OpEffectPhi ||
		node.FrameStateInputCount() > 0 ||
		e.isEffectBranchPoint(effectIn)
	if needsCopyRequired {
		in.setCopyRequired()
	}
	e.tracer.StateForward(int32(effectIn), int32(id), needsCopyRequired)
	e.setState(id, in)
	return in
}

// cloneOnWrite implements clone-on-write(obj, state, node) (spec.md
// §4.2): clone state if node doesn't already own it, then clone obj
// into the (possibly new) state unless it is already exclusively
// owned there and doesn't carry a pending CopyRequired.
func (e *Engine) cloneOnWrite(node ir.NodeID, state *VirtualState, obj *VirtualObject, alias Alias) (*VirtualState, *VirtualObject) {
	if !obj.NeedsCopyForModification() && obj.owner == state {
		return state, obj
	}
	if state.Owner() != node {
		state = state.clone(node)
		e.setState(node, state)
		e.tracer.CloneOnWrite("state", uint32(alias), int32(node))
	}
	clone := state.copyObject(obj, alias)
	clone.copyRequired = false
	e.tracer.CloneOnWrite("object", uint32(alias), int32(node))
	return state, clone
}

func (e *Engine) copyStateForModification(owner ir.NodeID, state *VirtualState) *VirtualState {
	if state.Owner() == owner {
		return state
	}
	clone := state.clone(owner)
	e.setState(owner, clone)
	e.tracer.CloneOnWrite("state", 0, int32(owner))
	return clone
}

// processAllocate is C2's Allocate handler (spec.md §4.2).
func (e *Engine) processAllocate(id ir.NodeID) {
	state := e.forwardVirtualState(id)
	alias := e.aliasOf(id)
	if state.ObjectAt(alias) != nil {
		return
	}
	if e.g.Node(state.Owner()).Op == ir.OpEffectPhi {
		state = e.copyStateForModification(id, state)
	}

	node := e.g.Node(id)
	sizeNode := node.ValueIn[0]
	if sz, ok := e.g.ConstantSize(sizeNode); ok {
		fieldCount := int(sz) / ir.PointerSize
		state.SetObject(alias, newTrackedVirtualObject(state, id, fieldCount, false))
		return
	}
	state.SetObject(alias, newDegenerateVirtualObject(state, id))
}

// processFinishRegion is C2's FinishRegion handler (spec.md §4.2).
func (e *Engine) processFinishRegion(id ir.NodeID) {
	state := e.forwardVirtualState(id)
	alias := e.aliasOf(id)
	obj := state.ObjectAt(alias)
	if obj == nil {
		return
	}
	_, obj = e.cloneOnWrite(id, state, obj, alias)
	obj.SetInitialized()
}

// processStoreField is C2's StoreField handler (spec.md §4.2).
func (e *Engine) processStoreField(id ir.NodeID) {
	state := e.forwardVirtualState(id)
	node := e.g.Node(id)
	access := node.Aux.(ir.FieldAccess)

	base := e.resolve(node.ValueIn[0])
	value := e.resolve(node.ValueIn[1])
	alias := e.aliasOf(base)
	obj := state.ObjectAt(alias)
	if obj == nil || !obj.IsTracked() {
		return
	}

	offset := access.Offset / ir.PointerSize
	if offset < 0 || offset >= obj.FieldCount() || obj.Field(offset) == value {
		return
	}
	_, obj = e.cloneOnWrite(id, state, obj, alias)
	obj.SetField(offset, value, false)
}

// processLoadField is C2's LoadField handler, driving C3 inline (spec.md
// §4.2/§4.3).
func (e *Engine) processLoadField(id ir.NodeID) {
	state := e.forwardVirtualState(id)
	node := e.g.Node(id)
	access := node.Aux.(ir.FieldAccess)

	base := e.resolve(node.ValueIn[0])
	alias := e.aliasOf(base)
	obj := state.ObjectAt(alias)
	if obj != nil && obj.IsTracked() {
		offset := access.Offset / ir.PointerSize
		rep := obj.Field(offset)
		if rep != NoNode {
			rep = e.resolve(rep)
		}
		e.setReplacement(id, rep)
		return
	}
	if e.g.Node(base).Op == ir.OpPhi && access.Offset%ir.PointerSize == 0 {
		e.processLoadFromPhi(id, base, state, access.Offset/ir.PointerSize)
		return
	}
	e.clearReplacement(id)
}

func (e *Engine) validateElementAccess(id ir.NodeID, access ir.ElementAccess) {
	if access.HeaderSize%ir.PointerSize != 0 {
		panic(fatal(id, "element header size is not a pointer-size multiple"))
	}
	if access.ElemSizeLog2 < log2PointerSize {
		panic(fatal(id, "element representation is smaller than pointer size"))
	}
}

func elementFieldOffset(access ir.ElementAccess, index int64) int {
	return int(index) + access.HeaderSize/ir.PointerSize
}

// escapeDuringPropagation lets C2 escalate a candidate allocation to
// Escaped directly, for the one case spec.md §4.2 calls out explicitly
// rather than leaving to C4: a dynamic element index on an otherwise
// tracked object. The status table is shared with C4, which hasn't
// started yet, so this is simply an early write to the same table C4
// will read.
func (e *Engine) escapeDuringPropagation(id ir.NodeID, reason string) {
	if id == NoNode || !e.isAllocation(id) {
		return
	}
	if e.setEscaped(id) {
		e.tracer.Escape(int32(id), e.g.Node(id).Op.String(), reason)
	}
}

// processStoreElement is C2's StoreElement handler (spec.md §4.2).
func (e *Engine) processStoreElement(id ir.NodeID) {
	state := e.forwardVirtualState(id)
	node := e.g.Node(id)
	access := node.Aux.(ir.ElementAccess)
	e.validateElementAccess(id, access)

	base := e.resolve(node.ValueIn[0])
	indexNode := node.ValueIn[1]
	value := e.resolve(node.ValueIn[2])
	alias := e.aliasOf(base)
	obj := state.ObjectAt(alias)
	if obj == nil || !obj.IsTracked() {
		return
	}

	idx, ok := e.g.ConstantIndex(indexNode)
	if !ok {
		e.escapeDuringPropagation(base, "stored at non-constant element index")
		_, obj = e.cloneOnWrite(id, state, obj, alias)
		obj.ClearAllFields()
		return
	}

	offset := elementFieldOffset(access, idx)
	if offset < 0 || offset >= obj.FieldCount() || obj.Field(offset) == value {
		return
	}
	_, obj = e.cloneOnWrite(id, state, obj, alias)
	obj.SetField(offset, value, false)
}

// processLoadElement is C2's LoadElement handler (spec.md §4.2).
func (e *Engine) processLoadElement(id ir.NodeID) {
	state := e.forwardVirtualState(id)
	node := e.g.Node(id)
	access := node.Aux.(ir.ElementAccess)
	e.validateElementAccess(id, access)

	base := e.resolve(node.ValueIn[0])
	indexNode := node.ValueIn[1]
	alias := e.aliasOf(base)
	obj := state.ObjectAt(alias)

	idx, ok := e.g.ConstantIndex(indexNode)
	if obj != nil && obj.IsTracked() && ok {
		offset := elementFieldOffset(access, idx)
		rep := obj.Field(offset)
		if rep != NoNode {
			rep = e.resolve(rep)
		}
		e.setReplacement(id, rep)
		return
	}
	if obj != nil && obj.IsTracked() && !ok {
		e.escapeDuringPropagation(base, "loaded at non-constant element index")
	}
	e.clearReplacement(id)
}

// processGeneric is C2's handler for every effectful opcode outside the
// recognized allow-list (spec.md §4.2, "Generic operators"): any value
// input that resolves to a tracked object has its fields cleared,
// conservatively erasing the snapshot since the object may now flow
// into code this engine cannot interpret.
func (e *Engine) processGeneric(id ir.NodeID) {
	state := e.forwardVirtualState(id)
	node := e.g.Node(id)
	for _, in := range node.ValueIn {
		resolved := e.resolve(in)
		alias := e.aliasOf(resolved)
		if !alias.IsReal() {
			continue
		}
		obj := state.ObjectAt(alias)
		if obj == nil || !obj.IsTracked() || obj.AllFieldsClear() {
			continue
		}
		_, obj = e.cloneOnWrite(id, state, obj, alias)
		obj.ClearAllFields()
	}
}

// processEffectPhi is C2's MergeFrom (spec.md §4.2).
func (e *Engine) processEffectPhi(id ir.NodeID) bool {
	node := e.g.Node(id)

	e.cache.reset()
	for _, in := range node.EffectIn {
		e.cache.states = append(e.cache.states, e.stateAt(in))
	}
	for _, s := range e.cache.states {
		if s == nil {
			// A predecessor hasn't been visited yet; it will push this
			// phi again once it is.
			return false
		}
	}

	merged := e.stateAt(id)
	if merged == nil {
		merged = newVirtualState(id, e.aliasCount)
		e.setState(id, merged)
	}

	changed := false
	for alias := 0; alias < e.aliasCount; alias++ {
		if e.mergeEffectPhiAlias(id, merged, Alias(alias)) {
			changed = true
		}
	}
	e.tracer.Merge(int32(id), changed)
	return changed
}

// mergeEffectPhiAlias merges one alias's contribution across every
// effect predecessor's in-state into merged, per field, synthesizing or
// updating-in-place a value-phi at any slot where the contributors
// disagree (spec.md §4.2, step 2; §9 "Phi synthesis with
// update-in-place").
func (e *Engine) mergeEffectPhiAlias(phi ir.NodeID, merged *VirtualState, alias Alias) bool {
	minCount := e.cache.loadObjectsFromStatesFor(alias)
	if len(e.cache.objects) != len(e.cache.states) {
		if merged.ObjectAt(alias) != nil {
			merged.SetObject(alias, nil)
			return true
		}
		return false
	}

	prev := merged.ObjectAt(alias)
	allInit := true
	for _, o := range e.cache.objects {
		if !o.IsInitialized() {
			allInit = false
		}
	}
	next := newTrackedVirtualObject(merged, e.cache.objects[0].ID(), minCount, allInit)
	merged.SetObject(alias, next)
	changed := prev == nil || prev.FieldCount() != minCount || prev.IsInitialized() != allInit

	for i := 0; i < minCount; i++ {
		rep := e.cache.getFields(i)
		switch {
		case rep != NoNode:
			next.SetField(i, rep, false)
			if prev == nil || i >= prev.FieldCount() || prev.Field(i) != rep {
				changed = true
			}
		case len(e.cache.fields) < len(e.cache.objects):
			next.SetField(i, NoNode, false)
			if prev == nil || i >= prev.FieldCount() || prev.Field(i) != NoNode {
				changed = true
			}
		case prev != nil && i < prev.FieldCount() && prev.IsCreatedPhi(i):
			phiID := prev.Field(i)
			for j, v := range e.cache.fields {
				e.g.ReplaceValueInput(e.g.Node(phiID), j, v)
			}
			next.SetField(i, phiID, true)
		default:
			control := e.g.Node(phi).ControlIn[0]
			newPhiID := e.g.NewPhi(control, e.cache.fields...)
			next.SetField(i, newPhiID, true)
			changed = true
		}
	}
	return changed
}
