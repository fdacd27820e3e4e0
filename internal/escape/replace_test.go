// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

func TestResolveFollowsChainToFixedPoint(t *testing.T) {
	g := ir.NewGraph()
	a := g.NewConstInt64(1)
	b := g.NewConstInt64(2)
	c := g.NewConstInt64(3)
	e := NewEngine(g, nil)

	e.setReplacement(a, b)
	e.setReplacement(b, c)

	require.Equal(t, c, e.resolve(a))
	require.Equal(t, c, e.GetReplacement(a))
	require.Equal(t, NoNode, e.GetReplacement(c))
}

func TestGetReplacementIfSameRequiresUnanimity(t *testing.T) {
	g := ir.NewGraph()
	a := g.NewConstInt64(1)
	b := g.NewConstInt64(2)
	rep := g.NewConstInt64(3)
	e := NewEngine(g, nil)

	e.setReplacement(a, rep)
	e.setReplacement(b, rep)
	require.Equal(t, rep, e.GetReplacementIfSame(a, b))

	other := g.NewConstInt64(4)
	e.setReplacement(b, other)
	require.Equal(t, NoNode, e.GetReplacementIfSame(a, b))
}

func TestIsEquivalentPhiStructuralCongruence(t *testing.T) {
	g := ir.NewGraph()
	merge := g.NewMerge(g.Start)
	v1 := g.NewConstInt64(7)
	v2 := g.NewConstInt64(11)
	phiA := g.NewPhi(merge, v1, v2)
	phiB := g.NewPhi(merge, v1, v2)
	phiC := g.NewPhi(merge, v2, v1)
	e := NewEngine(g, nil)

	require.True(t, e.isEquivalentPhi(phiA, phiB))
	require.False(t, e.isEquivalentPhi(phiA, phiC))
	require.True(t, e.isEquivalentPhi(v1, v1))
	require.False(t, e.isEquivalentPhi(v1, v2))
}
