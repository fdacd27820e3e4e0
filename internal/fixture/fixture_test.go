// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Emamatcyber90/escapeopt/internal/fixture"
	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

func TestLoadS1BuildsExpectedShape(t *testing.T) {
	g, names, err := fixture.Load("testdata/s1_no_escape.yaml")
	require.NoError(t, err)

	require.Equal(t, ir.OpAllocate, g.Node(names["alloc"]).Op)
	require.Equal(t, ir.OpFinishRegion, g.Node(names["finish"]).Op)
	require.Equal(t, names["alloc"], g.Node(names["finish"]).ValueIn[0])
	require.Equal(t, names["ret"], g.End)
}

func TestBuildRejectsUndefinedReference(t *testing.T) {
	_, _, err := fixture.Build(&fixture.Graph{
		Nodes: []fixture.NodeSpec{
			{Name: "alloc", Op: "Allocate", Size: "missing"},
		},
	})
	require.Error(t, err)
}

func TestBuildRejectsDuplicateName(t *testing.T) {
	_, _, err := fixture.Build(&fixture.Graph{
		Nodes: []fixture.NodeSpec{
			{Name: "x", Op: "ConstInt64", IntValue: 1},
			{Name: "x", Op: "ConstInt64", IntValue: 2},
		},
	})
	require.Error(t, err)
}

func TestBuildRejectsUnknownOp(t *testing.T) {
	_, _, err := fixture.Build(&fixture.Graph{
		Nodes: []fixture.NodeSpec{
			{Name: "x", Op: "NotARealOp"},
		},
	})
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := fixture.Load("testdata/does_not_exist.yaml")
	require.Error(t, err)
}
