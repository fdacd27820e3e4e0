// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

func TestAssignAliasesSharesFinishRegionAlias(t *testing.T) {
	g := ir.NewGraph()
	size := g.NewConstInt64(8)
	alloc := g.NewAllocate(g.Start, size)
	finish := g.NewFinishRegion(alloc, alloc)
	g.SetEnd(finish)

	e := NewEngine(g, nil)
	e.assignAliases()

	require.True(t, e.alias[alloc].IsReal())
	require.Equal(t, e.alias[alloc], e.alias[finish])
	require.Equal(t, 1, e.aliasCount)
}

func TestAssignAliasesLeavesUnreachableNodesSentinel(t *testing.T) {
	g := ir.NewGraph()
	size := g.NewConstInt64(8)
	alloc := g.NewAllocate(g.Start, size)
	unreachable := g.NewConstInt64(99)
	g.SetEnd(alloc)

	e := NewEngine(g, nil)
	e.assignAliases()

	require.Equal(t, AliasNotReachable, e.alias[unreachable])
}

func TestAliasOfIsGrowSafeForSyntheticNodes(t *testing.T) {
	g := ir.NewGraph()
	e := NewEngine(g, nil)
	e.alias = []Alias{AliasUntrackable}

	require.Equal(t, AliasUntrackable, e.aliasOf(ir.NodeID(50)))
}
