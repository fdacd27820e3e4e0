// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// assignAliases is C1: a single depth-first walk backward from the
// graph's end node over input edges, numbering every Allocate (and its
// FinishRegion, which shares the alias) with a dense small integer,
// and marking every other reachable node Untrackable. Nodes never
// visited keep the AliasNotReachable sentinel they start with
// (spec.md §4.1).
func (e *Engine) assignAliases() {
	n := e.g.NumNodes()
	e.alias = make([]Alias, n)
	for i := range e.alias {
		e.alias[i] = AliasNotReachable
	}

	stack := make([]ir.NodeID, 0, n)
	stack = append(stack, e.g.End)
	e.alias[e.g.End] = AliasUntrackable

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := e.g.Node(id)

		switch node.Op {
		case ir.OpAllocate:
			if !e.alias[id].IsReal() {
				e.alias[id] = e.nextAlias()
				e.enqueueForStatus(id)
				e.tracer.Alias(uint32(e.alias[id]), node.Op.String(), int32(id))
			}
		case ir.OpFinishRegion:
			alloc := node.ValueIn[0]
			if e.g.Node(alloc).Op == ir.OpAllocate {
				if !e.alias[alloc].IsReal() {
					if e.alias[alloc] == AliasNotReachable {
						stack = append(stack, alloc)
					}
					e.alias[alloc] = e.nextAlias()
					e.enqueueForStatus(alloc)
					e.tracer.Alias(uint32(e.alias[alloc]), e.g.Node(alloc).Op.String(), int32(alloc))
				}
				e.alias[id] = e.alias[alloc]
				e.tracer.Alias(uint32(e.alias[id]), node.Op.String(), int32(id))
			}
		}

		for _, edge := range e.g.InputEdges(node) {
			if e.alias[edge.To] == AliasNotReachable {
				stack = append(stack, edge.To)
				e.alias[edge.To] = AliasUntrackable
			}
		}
	}
}

func (e *Engine) nextAlias() Alias {
	a := e.aliasCount
	e.aliasCount++
	return Alias(a)
}

// aliasOf is the grow-safe alias lookup every other component uses: a
// node id beyond the table's bounds (created mid-pass, e.g. a
// synthesized phi) is treated as Untrackable rather than
// NotReachable, since the engine itself never allocates a node it
// should track as an escaping candidate, but such nodes must still
// participate normally in revisit/use-walking (spec.md §5).
func (e *Engine) aliasOf(id ir.NodeID) Alias {
	if int(id) < 0 || int(id) >= len(e.alias) {
		return AliasUntrackable
	}
	return e.alias[id]
}

func (e *Engine) isNotReachable(id ir.NodeID) bool {
	return e.aliasOf(id) == AliasNotReachable
}
