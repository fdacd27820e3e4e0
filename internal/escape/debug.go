// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import (
	"fmt"
	"strings"

	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

// DebugPrintObject renders one alias's VirtualObject as a terse,
// single-line dump (ported from the original analysis's DebugPrint
// family, SPEC_FULL.md §6).
func (e *Engine) DebugPrintObject(alias Alias, obj *VirtualObject) string {
	if obj == nil {
		return fmt.Sprintf("alias#%d <none>", alias)
	}
	fields := make([]string, obj.FieldCount())
	for i := range fields {
		if f := obj.Field(i); f != NoNode {
			fields[i] = fmt.Sprintf("#%d", f)
		} else {
			fields[i] = "?"
		}
	}
	tag := ""
	switch {
	case !obj.tracked:
		tag = " untracked"
	case e.IsEscaped(obj.id):
		tag = " escaped"
	}
	return fmt.Sprintf("alias#%d id#%d [%s]%s", alias, obj.id, strings.Join(fields, " "), tag)
}

// DebugPrintState renders every live object attached to state.
func (e *Engine) DebugPrintState(state *VirtualState) string {
	if state == nil {
		return "<nil state>"
	}
	var lines []string
	for alias := 0; alias < state.Size(); alias++ {
		if obj := state.ObjectAt(Alias(alias)); obj != nil {
			lines = append(lines, e.DebugPrintObject(Alias(alias), obj))
		}
	}
	return strings.Join(lines, "; ")
}

// DebugPrint dumps the virtual state attached to node through the
// configured tracer; a no-op when tracing is disabled.
func (e *Engine) DebugPrint(node ir.NodeID) {
	e.tracer.Dump("state", fmt.Sprintf("node#%d: %s", node, e.DebugPrintState(e.stateAt(node))))
}
