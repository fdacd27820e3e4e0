// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

func TestNewTrackedVirtualObjectFieldsStartUnknown(t *testing.T) {
	obj := newTrackedVirtualObject(nil, ir.NodeID(5), 3, false)

	for i := 0; i < obj.FieldCount(); i++ {
		require.Equal(t, NoNode, obj.Field(i))
	}
}

func TestVirtualObjectCloneIsIndependent(t *testing.T) {
	owner := newVirtualState(ir.NodeID(0), 1)
	obj := newTrackedVirtualObject(owner, ir.NodeID(1), 2, true)
	obj.SetField(0, ir.NodeID(42), false)

	other := newVirtualState(ir.NodeID(1), 1)
	clone := obj.clone(other)
	clone.SetField(0, ir.NodeID(99), false)

	require.Equal(t, ir.NodeID(42), obj.Field(0))
	require.Equal(t, ir.NodeID(99), clone.Field(0))
	require.Equal(t, other, clone.owner)
}

func TestVirtualStateObjectAtIsGrowSafe(t *testing.T) {
	s := newVirtualState(ir.NodeID(0), 1)

	require.Nil(t, s.ObjectAt(Alias(5)))
	require.Nil(t, s.ObjectAt(AliasUntrackable))
	require.Nil(t, s.ObjectAt(AliasNotReachable))
}

func TestMergeCacheGetFieldsAgreement(t *testing.T) {
	c := &mergeCache{}
	s1 := newVirtualState(ir.NodeID(0), 1)
	o1 := newTrackedVirtualObject(s1, ir.NodeID(1), 1, true)
	o1.SetField(0, ir.NodeID(7), false)
	s2 := newVirtualState(ir.NodeID(1), 1)
	o2 := newTrackedVirtualObject(s2, ir.NodeID(2), 1, true)
	o2.SetField(0, ir.NodeID(7), false)

	c.objects = []*VirtualObject{o1, o2}
	require.Equal(t, ir.NodeID(7), c.getFields(0))

	o2.SetField(0, ir.NodeID(11), false)
	c.objects = []*VirtualObject{o1, o2}
	require.Equal(t, NoNode, c.getFields(0))
}

func TestAliasIsReal(t *testing.T) {
	require.True(t, Alias(0).IsReal())
	require.False(t, AliasUntrackable.IsReal())
	require.False(t, AliasNotReachable.IsReal())
}
