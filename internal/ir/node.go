// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// NodeID is a dense identifier assigned in creation order. The escape
// analysis engine's side-tables are flat slices indexed by NodeID.
type NodeID int32

// PointerSize is the width in bytes of one pointer-sized field slot.
// Every FieldAccess offset and ElementAccess header size must be a
// multiple of it.
const PointerSize = 8

// FieldAccess parameterizes StoreField/LoadField: Offset is in bytes and
// must be a multiple of PointerSize.
type FieldAccess struct {
	Offset int
}

// ElementAccess parameterizes StoreElement/LoadElement. HeaderSize is in
// bytes and must be a multiple of PointerSize; ElemSizeLog2 is the log2 of
// the element's machine size and must be at least log2(PointerSize).
type ElementAccess struct {
	HeaderSize   int
	ElemSizeLog2 uint
}

// Node is one vertex of the Sea-of-Nodes graph: value, effect, and control
// inputs are kept in separate slices so the engine can enumerate exactly
// the edge kind it cares about without filtering a combined input list.
type Node struct {
	id NodeID
	Op Opcode

	ValueIn   []NodeID
	EffectIn  []NodeID
	ControlIn []NodeID

	// FrameState is the optional deoptimization frame-state input some
	// nodes (notably Call) carry; its presence forces CopyRequired on
	// forwarded virtual states (spec.md §4.2, "Forward").
	FrameState *NodeID

	// AuxInt carries small integer parameters: the constant value for
	// ConstInt64/ConstWord, or (unused) 0 otherwise.
	AuxInt int64

	// Aux carries opcode-specific parameters: a FieldAccess value for
	// StoreField/LoadField, an ElementAccess value for StoreElement/LoadElement,
	// NodeID for FinishRegion's originating Allocate is just ValueIn[0].
	Aux interface{}

	// objectID is the NodeID an ObjectState node (opcode OpObjectState)
	// records itself as describing; see graph.NewObjectState.
	objectID NodeID
}

func (n *Node) ID() NodeID { return n.id }

// ValueInputCount, EffectInputCount, EffectOutputCount, and
// FrameStateInputCount mirror the operator metadata spec.md §6 requires
// the engine be able to query. ContextInputCount is always zero: this IR
// has no notion of a JS-style context value.
func (n *Node) ValueInputCount() int { return len(n.ValueIn) }
func (n *Node) EffectInputCount() int {
	if n.Op == OpEffectPhi {
		return len(n.EffectIn)
	}
	if n.Op.hasEffect() {
		return 1
	}
	return 0
}
func (n *Node) EffectOutputCount() int {
	if n.Op == OpEffectPhi || n.Op.hasEffect() || n.Op == OpStart {
		return 1
	}
	return 0
}
func (n *Node) FrameStateInputCount() int {
	if n.FrameState != nil {
		return 1
	}
	return 0
}
func (n *Node) ContextInputCount() int { return 0 }

// ObjectID returns the NodeID an OpObjectState node records a snapshot
// for.
func (n *Node) ObjectID() NodeID { return n.objectID }
