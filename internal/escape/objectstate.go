// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// GetOrCreateObjectState is C5 (spec.md §4.5/§6): the lazy ObjectState
// materializer invoked on demand for a deoptimization frame state
// describing alloc's value at effect. Returns NoNode if alloc has no
// tracked object in the state attached to effect.
func (e *Engine) GetOrCreateObjectState(effect, alloc ir.NodeID) ir.NodeID {
	state := e.stateAt(effect)
	if state == nil {
		return NoNode
	}
	alias := e.aliasOf(alloc)
	obj := state.ObjectAt(alias)
	if obj == nil || !obj.IsTracked() {
		return NoNode
	}
	return e.materialize(state, obj)
}

// materialize builds (and caches, on obj) an ObjectState IR node
// recording obj's current field snapshot, recursively materializing
// any field that is itself a tracked virtual object rather than
// substituting its allocation node directly — a deopt reading that
// field must see the nested object's own snapshot, not its identity
// (spec.md §4.5).
//
// The node is created and cached on obj with its replacement-resolved
// but not yet materialized field values *before* the nested-object
// recursion, then its inputs
// are fixed up in place afterward (escape-analysis.cc:1456-1474). A
// virtual object can reach itself through a field (e.g. StoreField
// writing an allocation back into one of its own fields) — caching
// first means a self-referencing field's recursive materialize call
// finds the already-cached node instead of recursing again.
func (e *Engine) materialize(state *VirtualState, obj *VirtualObject) ir.NodeID {
	if existing := obj.ObjectState(); existing != NoNode {
		return existing
	}

	values := make([]ir.NodeID, 0, obj.FieldCount())
	for i := 0; i < obj.FieldCount(); i++ {
		field := obj.Field(i)
		if field == NoNode {
			continue
		}
		values = append(values, e.resolve(field))
	}

	node := e.g.NewObjectState(obj.ID(), values...)
	obj.setObjectState(node)

	idx := 0
	for i := 0; i < obj.FieldCount(); i++ {
		field := obj.Field(i)
		if field == NoNode {
			continue
		}
		if alias := e.aliasOf(field); alias.IsReal() {
			if nested := state.ObjectAt(alias); nested != nil && nested.IsTracked() {
				e.g.ReplaceValueInput(e.g.Node(node), idx, e.materialize(state, nested))
			}
		}
		idx++
	}
	return node
}
