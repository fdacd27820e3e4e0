// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Emamatcyber90/escapeopt/internal/escape"
	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

// A StoreField into a field of a tracked virtual object with another
// tracked virtual object as the stored value: GetOrCreateObjectState
// must recursively materialize the nested object rather than
// substituting its allocation node's identity directly.
func TestGetOrCreateObjectStateMaterializesNestedObject(t *testing.T) {
	e, g, names := run(t, "testdata/s7_nested_object_state.yaml")

	require.True(t, e.IsVirtual(names["outerFinish"]))
	require.True(t, e.IsVirtual(names["innerFinish"]))

	outer := e.GetOrCreateObjectState(names["store"], names["outerFinish"])
	require.NotEqual(t, escape.NoNode, outer)

	outerNode := g.Node(outer)
	require.Equal(t, ir.OpObjectState, outerNode.Op)
	require.Equal(t, names["outerAlloc"], outerNode.ObjectID())
	require.Len(t, outerNode.ValueIn, 1)

	nested := outerNode.ValueIn[0]
	require.NotEqual(t, names["innerFinish"], nested, "field 0 must hold the nested object's own materialized snapshot, not innerFinish's identity")
	nestedNode := g.Node(nested)
	require.Equal(t, ir.OpObjectState, nestedNode.Op)
	require.Equal(t, names["innerAlloc"], nestedNode.ObjectID())

	// Calling it again returns the cached node rather than building a
	// second one (materialize's early obj.ObjectState() check).
	again := e.GetOrCreateObjectState(names["store"], names["outerFinish"])
	require.Equal(t, outer, again)
}

// A virtual object that stores an allocation into one of its own
// fields (StoreField(finish, finish, 0)) is valid IR. materialize must
// terminate by caching the ObjectState node on the object before
// recursing into its fields, not after — otherwise this is unbounded
// recursion on input the engine must not crash on (spec.md §7).
func TestGetOrCreateObjectStateTerminatesOnSelfReference(t *testing.T) {
	e, g, names := run(t, "testdata/s8_self_referencing_object_state.yaml")

	require.True(t, e.IsVirtual(names["finish"]))

	var node ir.NodeID
	require.NotPanics(t, func() {
		node = e.GetOrCreateObjectState(names["store"], names["finish"])
	})
	require.NotEqual(t, escape.NoNode, node)

	n := g.Node(node)
	require.Equal(t, ir.OpObjectState, n.Op)
	require.Len(t, n.ValueIn, 1)
	require.Equal(t, node, n.ValueIn[0], "field 0 closes the cycle back onto the cached node itself")
}

// An allocation whose size is not a compile-time constant gets only an
// untracked placeholder object in the state attached to effect, so
// GetOrCreateObjectState reports NoNode rather than fabricating one.
func TestGetOrCreateObjectStateNoNodeWhenUntracked(t *testing.T) {
	e, _, names := run(t, "testdata/s3_nonconstant_size.yaml")

	node := e.GetOrCreateObjectState(names["alloc"], names["alloc"])
	require.Equal(t, escape.NoNode, node)
}
