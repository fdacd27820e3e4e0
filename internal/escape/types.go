// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package escape implements the escape analysis fixed-point dataflow
// engine: alias assignment, virtual-state propagation, replacement
// resolution, and escape-status propagation over a Sea-of-Nodes IR
// graph (internal/ir). See DESIGN.md for the grounding of each piece
// against the original analysis this package generalizes.
package escape

import (
	"fmt"

	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

// NoNode is the "no replacement"/"no node" sentinel used throughout the
// engine's side-tables. Node id 0 is Start, a legitimate node, so the
// zero value of ir.NodeID cannot double as "absent" the way a nil
// pointer would in a pointer-based representation.
const NoNode ir.NodeID = -1

// Alias is a dense small integer identifying one tracked allocation
// (and its FinishRegion) across all virtual states. Two sentinels
// occupy negative values rather than the top of the unsigned range the
// original analysis uses, so that "is this a real alias" is a single
// sign check.
type Alias int32

const (
	// AliasUntrackable marks a node that is reachable but is not itself
	// a candidate allocation (or its FinishRegion wrapper).
	AliasUntrackable Alias = -1
	// AliasNotReachable marks a node never seen walking backward from
	// the graph's end node during alias assignment.
	AliasNotReachable Alias = -2
)

// IsReal reports whether a holds an assigned dense alias rather than
// one of the two sentinels.
func (a Alias) IsReal() bool { return a >= 0 }

// StatusFlags is a bitset over one node's escape-status bookkeeping.
// The same table backs both the C2 worklist's InQueue bit and C4's
// Tracked/Escaped/visitation bits, mirroring the single shared status
// vector the original analysis keeps for both concerns.
type StatusFlags uint16

const (
	StatusTracked StatusFlags = 1 << iota
	StatusEscaped
	StatusInQueue
	StatusOnStack
	StatusVisited
	StatusDanglingComputed
	StatusDangling
	StatusBranchPointComputed
	StatusBranchPoint
)

// InternalError is the fatal, unrecoverable-by-design condition spec'd
// for precondition violations: shapes of IR the engine cannot safely
// reason about (spec.md §7). Run recovers it at the package boundary
// and returns it as a plain error.
type InternalError struct {
	Node ir.NodeID
	Msg  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("escape: internal error at node %d: %s", e.Node, e.Msg)
}

func fatal(node ir.NodeID, msg string) *InternalError {
	return &InternalError{Node: node, Msg: msg}
}
