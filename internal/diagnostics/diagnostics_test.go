// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Emamatcyber90/escapeopt/internal/diagnostics"
)

func TestNilTracerMethodsAreNoOps(t *testing.T) {
	var tr *diagnostics.Tracer
	require.NotPanics(t, func() {
		tr.Alias(0, "Allocate", 1)
		tr.Escape(1, "Allocate", "reason")
		tr.Fatal(1, "boom")
		tr.Dump("state", "anything")
	})
}

func TestNewNopTracerIsNil(t *testing.T) {
	require.Nil(t, diagnostics.NewNopTracer())
}

func TestTracerEmitsStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := diagnostics.NewTracer(zap.New(core))

	tr.Escape(7, "Allocate", "merged by phi")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "escaped", entry.Message)
	require.EqualValues(t, 7, entry.ContextMap()["node"])
	require.Equal(t, "merged by phi", entry.ContextMap()["reason"])
	require.NotEmpty(t, entry.ContextMap()["run_id"])
}

func TestNewTracerNilLoggerIsNilTracer(t *testing.T) {
	require.Nil(t, diagnostics.NewTracer(nil))
}
