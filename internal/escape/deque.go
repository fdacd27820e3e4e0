// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// effectDeque is the C2 worklist: nodes are popped from the back
// (depth-first), ordinary effect successors are pushed back to the
// same end, and EffectPhi successors are pushed to the front instead
// to delay them until everything else on the current frontier has
// drained (spec.md §4.2, "Ordering guarantees").
type effectDeque struct {
	items []ir.NodeID
}

func (q *effectDeque) empty() bool { return len(q.items) == 0 }

func (q *effectDeque) pushBack(id ir.NodeID) {
	q.items = append(q.items, id)
}

func (q *effectDeque) pushFront(id ir.NodeID) {
	q.items = append(q.items, NoNode)
	copy(q.items[1:], q.items)
	q.items[0] = id
}

func (q *effectDeque) popBack() ir.NodeID {
	n := len(q.items) - 1
	id := q.items[n]
	q.items = q.items[:n]
	return id
}
