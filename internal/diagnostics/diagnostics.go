// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diagnostics carries the escape analysis engine's optional trace
// output (spec.md §6: "output is a human-readable log of state
// transitions"). It mirrors the host compiler's -m/-trace_turbo_escape
// style of terse, single-line diagnostics, just routed through a
// structured logger instead of fmt.Fprintf so a caller embedding the
// engine can redirect, filter, or sample it.
package diagnostics

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracer wraps a *zap.Logger and a per-Run identifier. A nil *Tracer is
// valid and every method on it is a no-op, so the engine can carry one
// unconditionally instead of branching on a global trace flag everywhere.
type Tracer struct {
	log   *zap.Logger
	runID string
}

// NewTracer returns a Tracer that writes through log, tagged with a fresh
// run id so interleaved trace lines from repeated Run() calls (spec.md §8
// property 8, idempotence) can be told apart.
func NewTracer(log *zap.Logger) *Tracer {
	if log == nil {
		return nil
	}
	return &Tracer{log: log, runID: uuid.NewString()}
}

// NewNopTracer returns a Tracer equivalent to a nil *Tracer but safe to
// store directly without a nil check at the call site.
func NewNopTracer() *Tracer { return nil }

func (t *Tracer) enabled() bool { return t != nil && t.log != nil }

func (t *Tracer) field() zap.Field { return zap.String("run_id", t.runID) }

// Alias logs alias assignment for one node (C1).
func (t *Tracer) Alias(alias uint32, opcode string, id int32) {
	if !t.enabled() {
		return
	}
	t.log.Debug("assigned alias",
		t.field(), zap.Uint32("alias", alias), zap.String("op", opcode), zap.Int32("node", id))
}

// StateForward logs C2 forwarding a virtual state by pointer or by copy.
func (t *Tracer) StateForward(from, to int32, copyRequired bool) {
	if !t.enabled() {
		return
	}
	t.log.Debug("forwarded virtual state",
		t.field(), zap.Int32("from", from), zap.Int32("to", to), zap.Bool("copy_required", copyRequired))
}

// Merge logs the outcome of an EffectPhi merge (C2).
func (t *Tracer) Merge(node int32, changed bool) {
	if !t.enabled() {
		return
	}
	t.log.Debug("merged virtual states", t.field(), zap.Int32("node", node), zap.Bool("changed", changed))
}

// CloneOnWrite logs a copy-on-write clone of a VirtualObject or
// VirtualState (C2).
func (t *Tracer) CloneOnWrite(kind string, alias uint32, node int32) {
	if !t.enabled() {
		return
	}
	t.log.Debug("cloned on write", t.field(), zap.String("kind", kind), zap.Uint32("alias", alias), zap.Int32("at", node))
}

// Replacement logs a replacement edge installed by C3.
func (t *Tracer) Replacement(node int32, rep int32, cleared bool) {
	if !t.enabled() {
		return
	}
	if cleared {
		t.log.Debug("cleared replacement", t.field(), zap.Int32("node", node))
		return
	}
	t.log.Debug("installed replacement", t.field(), zap.Int32("node", node), zap.Int32("replacement", rep))
}

// Escape logs a node transitioning to escaped status (C4).
func (t *Tracer) Escape(node int32, opcode string, reason string) {
	if !t.enabled() {
		return
	}
	t.log.Info("escaped", t.field(), zap.Int32("node", node), zap.String("op", opcode), zap.String("reason", reason))
}

// Fatal logs a precondition violation at error level. It does not
// panic; the engine calls it only for an unhandled use during
// escape-status propagation, which it then escapes conservatively.
func (t *Tracer) Fatal(node int32, msg string) {
	if !t.enabled() {
		return
	}
	t.log.Error("internal error", t.field(), zap.Int32("node", node), zap.String("message", msg))
}

// Dump writes a pre-formatted debug line, the ported DebugPrint family
// (SPEC_FULL.md §6) routed through the structured logger instead of a
// direct printf.
func (t *Tracer) Dump(kind string, msg string) {
	if !t.enabled() {
		return
	}
	t.log.Debug(msg, t.field(), zap.String("kind", kind))
}
