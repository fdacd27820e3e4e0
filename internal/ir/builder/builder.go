// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package builder provides a linear-chain convenience layer over
// internal/ir.Graph so tests and fixtures can describe a straight-line
// sequence of effectful operations without hand-threading effect edges.
package builder

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// Builder threads a single current effect value through a sequence of
// effectful node constructions, the way a single basic block's statement
// list would in a real front end.
type Builder struct {
	G      *ir.Graph
	Effect ir.NodeID
	// Control is the control node (typically Start, or a Merge at a join
	// point) new phis should be anchored to.
	Control ir.NodeID
}

// New starts a builder whose initial effect value is the graph's Start
// node.
func New(g *ir.Graph) *Builder {
	return &Builder{G: g, Effect: g.Start, Control: g.Start}
}

// Fork returns an independent builder sharing the same graph and current
// effect/control, for constructing diverging branches before a merge.
func (b *Builder) Fork() *Builder {
	return &Builder{G: b.G, Effect: b.Effect, Control: b.Control}
}

func (b *Builder) Alloc(size ir.NodeID) ir.NodeID {
	id := b.G.NewAllocate(b.Effect, size)
	b.Effect = id
	return id
}

func (b *Builder) FinishRegion(alloc ir.NodeID) ir.NodeID {
	id := b.G.NewFinishRegion(alloc, b.Effect)
	b.Effect = id
	return id
}

func (b *Builder) StoreField(base, value ir.NodeID, offset int) ir.NodeID {
	id := b.G.NewStoreField(b.Effect, base, value, ir.FieldAccess{Offset: offset})
	b.Effect = id
	return id
}

func (b *Builder) LoadField(base ir.NodeID, offset int) ir.NodeID {
	id := b.G.NewLoadField(b.Effect, base, ir.FieldAccess{Offset: offset})
	b.Effect = id
	return id
}

func (b *Builder) StoreElement(base, index, value ir.NodeID, access ir.ElementAccess) ir.NodeID {
	id := b.G.NewStoreElement(b.Effect, base, index, value, access)
	b.Effect = id
	return id
}

func (b *Builder) LoadElement(base, index ir.NodeID, access ir.ElementAccess) ir.NodeID {
	id := b.G.NewLoadElement(b.Effect, base, index, access)
	b.Effect = id
	return id
}

func (b *Builder) Call(args ...ir.NodeID) ir.NodeID {
	id := b.G.NewCall(b.Effect, args, nil)
	b.Effect = id
	return id
}

func (b *Builder) Return(value ir.NodeID) ir.NodeID {
	return b.G.NewReturn(b.Effect, b.Control, value)
}

// Join merges this builder with others at a fresh Merge/EffectPhi pair and
// points this builder's current effect/control at the join.
func (b *Builder) Join(others ...*Builder) (merge ir.NodeID) {
	controls := []ir.NodeID{b.Control}
	effects := []ir.NodeID{b.Effect}
	for _, o := range others {
		controls = append(controls, o.Control)
		effects = append(effects, o.Effect)
	}
	merge = b.G.NewMerge(controls...)
	ephi := b.G.NewEffectPhi(merge, effects...)
	b.Control = merge
	b.Effect = ephi
	return merge
}
