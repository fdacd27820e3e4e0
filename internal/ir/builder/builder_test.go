// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Emamatcyber90/escapeopt/internal/ir"
	"github.com/Emamatcyber90/escapeopt/internal/ir/builder"
)

func TestBuilderThreadsEffectThroughAChain(t *testing.T) {
	g := ir.NewGraph()
	b := builder.New(g)

	size := g.NewConstInt64(8)
	alloc := b.Alloc(size)
	finish := b.FinishRegion(alloc)
	val := g.NewConstInt64(42)
	store := b.StoreField(finish, val, 0)
	load := b.LoadField(finish, 0)

	require.Equal(t, []ir.NodeID{g.Start}, g.Node(alloc).EffectIn)
	require.Equal(t, []ir.NodeID{alloc}, g.Node(finish).EffectIn)
	require.Equal(t, []ir.NodeID{finish}, g.Node(store).EffectIn)
	require.Equal(t, []ir.NodeID{store}, g.Node(load).EffectIn)
	require.Equal(t, load, b.Effect)
}

func TestBuilderJoinSynthesizesMergeAndEffectPhi(t *testing.T) {
	g := ir.NewGraph()
	b := builder.New(g)
	size := g.NewConstInt64(8)
	allocA := b.Alloc(size)

	other := b.Fork()
	allocB := other.Alloc(size)

	merge := b.Join(other)

	require.Equal(t, ir.OpMerge, g.Node(merge).Op)
	require.Equal(t, []ir.NodeID{g.Start, g.Start}, g.Node(merge).ControlIn)
	require.Equal(t, ir.OpEffectPhi, g.Node(b.Effect).Op)
	require.Equal(t, []ir.NodeID{allocA, allocB}, g.Node(b.Effect).EffectIn)
	require.Equal(t, merge, b.Control)
}
