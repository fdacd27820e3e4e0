// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// newNode allocates a node and links its declared inputs into the use
// index in one step; every other constructor in this file bottoms out
// here.
func (g *Graph) newNode(op Opcode, valueIn, effectIn, controlIn []NodeID, frameState *NodeID) *Node {
	n := g.nodes[g.newNodeID(op)]
	n.ValueIn = valueIn
	n.EffectIn = effectIn
	n.ControlIn = controlIn
	n.FrameState = frameState
	g.link(n)
	return n
}

func (g *Graph) NewMerge(controls ...NodeID) NodeID {
	n := g.newNode(OpMerge, nil, nil, controls, nil)
	return n.id
}

func (g *Graph) NewParameter() NodeID {
	return g.newNode(OpParameter, nil, nil, nil, nil).id
}

func (g *Graph) NewConstInt64(v int64) NodeID {
	n := g.newNode(OpConstInt64, nil, nil, nil, nil)
	n.AuxInt = v
	return n.id
}

// NewConstWord creates a raw machine-word literal: valid as an ordinary
// value but, per spec.md §6/§7, never a legal allocation size.
func (g *Graph) NewConstWord(v int64) NodeID {
	n := g.newNode(OpConstWord, nil, nil, nil, nil)
	n.AuxInt = v
	return n.id
}

func (g *Graph) NewAllocate(effect, size NodeID) NodeID {
	return g.newNode(OpAllocate, []NodeID{size}, []NodeID{effect}, nil, nil).id
}

func (g *Graph) NewBeginRegion(effect NodeID) NodeID {
	return g.newNode(OpBeginRegion, nil, []NodeID{effect}, nil, nil).id
}

func (g *Graph) NewFinishRegion(alloc, effect NodeID) NodeID {
	return g.newNode(OpFinishRegion, []NodeID{alloc}, []NodeID{effect}, nil, nil).id
}

func (g *Graph) NewStoreField(effect, base, value NodeID, access FieldAccess) NodeID {
	n := g.newNode(OpStoreField, []NodeID{base, value}, []NodeID{effect}, nil, nil)
	n.Aux = access
	return n.id
}

func (g *Graph) NewLoadField(effect, base NodeID, access FieldAccess) NodeID {
	n := g.newNode(OpLoadField, []NodeID{base}, []NodeID{effect}, nil, nil)
	n.Aux = access
	return n.id
}

func (g *Graph) NewStoreElement(effect, base, index, value NodeID, access ElementAccess) NodeID {
	n := g.newNode(OpStoreElement, []NodeID{base, index, value}, []NodeID{effect}, nil, nil)
	n.Aux = access
	return n.id
}

func (g *Graph) NewLoadElement(effect, base, index NodeID, access ElementAccess) NodeID {
	n := g.newNode(OpLoadElement, []NodeID{base, index}, []NodeID{effect}, nil, nil)
	n.Aux = access
	return n.id
}

func (g *Graph) NewEffectPhi(control NodeID, effectIn ...NodeID) NodeID {
	return g.newNode(OpEffectPhi, nil, effectIn, []NodeID{control}, nil).id
}

// NewPhi is part of the "node factory" interface the engine itself uses
// (spec.md §6) to synthesize value-phis during state merges and phi-from-phi
// load resolution. representation is always pointer-tagged for the values
// this engine phis (object/field references), so it isn't parameterized.
func (g *Graph) NewPhi(control NodeID, valueIn ...NodeID) NodeID {
	return g.newNode(OpPhi, valueIn, nil, []NodeID{control}, nil).id
}

// NewObjectState is the other factory entry point the engine uses, for C5.
func (g *Graph) NewObjectState(forObject NodeID, fields ...NodeID) NodeID {
	n := g.newNode(OpObjectState, fields, nil, nil, nil)
	n.objectID = forObject
	return n.id
}

func (g *Graph) NewReferenceEqual(a, b NodeID) NodeID {
	return g.newNode(OpReferenceEqual, []NodeID{a, b}, nil, nil, nil).id
}

func (g *Graph) NewObjectIsSmi(a NodeID) NodeID {
	return g.newNode(OpObjectIsSmi, []NodeID{a}, nil, nil, nil).id
}

func (g *Graph) NewSelect(cond, ifTrue, ifFalse NodeID) NodeID {
	return g.newNode(OpSelect, []NodeID{cond, ifTrue, ifFalse}, nil, nil, nil).id
}

func (g *Graph) NewFrameState(values ...NodeID) NodeID {
	return g.newNode(OpFrameState, values, nil, nil, nil).id
}

func (g *Graph) NewStateValues(values ...NodeID) NodeID {
	return g.newNode(OpStateValues, values, nil, nil, nil).id
}

// NewCall models an opaque, effectful operator: any virtual allocation
// flowing into one must escape (spec.md §8 scenario S2). frameState may
// be nil to mean "none".
func (g *Graph) NewCall(effect NodeID, args []NodeID, frameState *NodeID) NodeID {
	return g.newNode(OpCall, args, []NodeID{effect}, nil, frameState).id
}

func (g *Graph) NewReturn(effect, control, value NodeID) NodeID {
	return g.newNode(OpReturn, []NodeID{value}, []NodeID{effect}, []NodeID{control}, nil).id
}

// ConstantSize returns the compile-time value of id if it is a numeric
// literal suitable as an allocation size, and false otherwise. A
// ConstWord literal is deliberately excluded: spec.md §6 requires that
// "machine-word literals... must not appear as allocation sizes", and
// spec.md §7 treats that shape as a fatal precondition violation rather
// than a soft escape.
func (g *Graph) ConstantSize(id NodeID) (int64, bool) {
	n := g.Node(id)
	if n.Op == OpConstInt64 {
		return n.AuxInt, true
	}
	return 0, false
}

// IsRawMachineWordLiteral reports whether id is the shape spec.md §7
// forbids as an allocation size.
func (g *Graph) IsRawMachineWordLiteral(id NodeID) bool {
	return g.Node(id).Op == OpConstWord
}

// ConstantIndex returns the compile-time value of id if it is a numeric
// literal suitable as an element index, mirroring ConstantSize.
func (g *Graph) ConstantIndex(id NodeID) (int64, bool) {
	return g.ConstantSize(id)
}
