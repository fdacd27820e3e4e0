// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCommandReportsVirtualAllocation(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "testdata/s1_no_escape.yaml"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "exists_virtual_allocate=true")
	require.Contains(t, out.String(), "alloc")
}

func TestRunCommandRejectsMissingFixture(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "testdata/does_not_exist.yaml"})

	require.Error(t, cmd.Execute())
}

func TestRunCommandRequiresExactlyOneArg(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})

	require.Error(t, cmd.Execute())
}
