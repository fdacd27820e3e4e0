// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "github.com/Emamatcyber90/escapeopt/internal/ir"

// VirtualObject is a snapshot of one heap object's field contents at a
// program point (spec.md §3). It is owned by exactly one VirtualState
// at a time; the owner pointer plus copyRequired implement
// copy-on-write (spec.md §9, "Copy-on-write lattices").
type VirtualObject struct {
	id ir.NodeID

	tracked      bool
	initialized  bool
	copyRequired bool

	fields   []ir.NodeID
	phiMarks []bool

	objectState ir.NodeID
	owner       *VirtualState
}

// newTrackedVirtualObject constructs a concrete, Tracked object for a
// constant-size allocation. This is the standardized constructor
// contract decided in SPEC_FULL.md §7(2): the owning state comes
// first, and the field count precedes the boolean flag.
func newTrackedVirtualObject(owner *VirtualState, id ir.NodeID, fieldCount int, initialized bool) *VirtualObject {
	fields := make([]ir.NodeID, fieldCount)
	for i := range fields {
		fields[i] = NoNode
	}
	return &VirtualObject{
		id:          id,
		tracked:     true,
		initialized: initialized,
		fields:      fields,
		phiMarks:    make([]bool, fieldCount),
		objectState: NoNode,
		owner:       owner,
	}
}

// newDegenerateVirtualObject installs a placeholder for an allocation
// whose size isn't a compile-time constant: present (so later lookups
// don't crash), but never Tracked, so every field access on it falls
// through as "no object" and C4 escapes the allocation outright.
func newDegenerateVirtualObject(owner *VirtualState, id ir.NodeID) *VirtualObject {
	return &VirtualObject{id: id, objectState: NoNode, owner: owner}
}

func (o *VirtualObject) clone(owner *VirtualState) *VirtualObject {
	clone := *o
	clone.owner = owner
	clone.copyRequired = false
	clone.fields = append([]ir.NodeID(nil), o.fields...)
	clone.phiMarks = append([]bool(nil), o.phiMarks...)
	return &clone
}

func (o *VirtualObject) ID() ir.NodeID        { return o.id }
func (o *VirtualObject) IsTracked() bool      { return o.tracked }
func (o *VirtualObject) IsInitialized() bool  { return o.initialized }
func (o *VirtualObject) SetInitialized()      { o.initialized = true }
func (o *VirtualObject) FieldCount() int      { return len(o.fields) }
func (o *VirtualObject) IsCopyRequired() bool { return o.copyRequired }
func (o *VirtualObject) SetCopyRequired()     { o.copyRequired = true }

func (o *VirtualObject) NeedsCopyForModification() bool {
	return o.copyRequired && o.initialized
}

// Field returns the value currently recorded at offset, or NoNode if
// the slot is unknown (clobbered or never written) or out of range.
func (o *VirtualObject) Field(offset int) ir.NodeID {
	if offset < 0 || offset >= len(o.fields) {
		return NoNode
	}
	return o.fields[offset]
}

func (o *VirtualObject) IsCreatedPhi(offset int) bool {
	return offset >= 0 && offset < len(o.phiMarks) && o.phiMarks[offset]
}

func (o *VirtualObject) SetField(offset int, v ir.NodeID, createdPhi bool) {
	o.fields[offset] = v
	o.phiMarks[offset] = createdPhi
}

// ResizeFields grows the field/phi-mark vectors to count, per spec.md
// §3's invariant that an object's field count "grows monotonically
// within a single pass." Reports whether it actually grew.
func (o *VirtualObject) ResizeFields(count int) bool {
	if count <= len(o.fields) {
		return false
	}
	grown := make([]ir.NodeID, count)
	copy(grown, o.fields)
	for i := range grown {
		if i >= len(o.fields) {
			grown[i] = NoNode
		}
	}
	o.fields = grown
	marks := make([]bool, count)
	copy(marks, o.phiMarks)
	o.phiMarks = marks
	return true
}

func (o *VirtualObject) ClearAllFields() {
	for i := range o.fields {
		o.fields[i] = NoNode
		o.phiMarks[i] = false
	}
}

func (o *VirtualObject) AllFieldsClear() bool {
	for _, f := range o.fields {
		if f != NoNode {
			return false
		}
	}
	return true
}

func (o *VirtualObject) ObjectState() ir.NodeID    { return o.objectState }
func (o *VirtualObject) setObjectState(n ir.NodeID) { o.objectState = n }

// updateFrom overwrites o's shape and contents from other, reporting
// whether anything actually changed. Its only caller is
// VirtualState.updateFrom, which folds the result into its own.
func (o *VirtualObject) updateFrom(other *VirtualObject) bool {
	changed := o.tracked != other.tracked ||
		o.initialized != other.initialized ||
		o.copyRequired != other.copyRequired
	o.tracked, o.initialized, o.copyRequired = other.tracked, other.initialized, other.copyRequired
	o.phiMarks = append([]bool(nil), other.phiMarks...)
	if len(o.fields) != len(other.fields) {
		o.fields = append([]ir.NodeID(nil), other.fields...)
		return true
	}
	for i := range o.fields {
		if o.fields[i] != other.fields[i] {
			changed = true
			o.fields[i] = other.fields[i]
		}
	}
	return changed
}

// VirtualState is the alias-indexed map of live VirtualObjects at one
// effect-producing node (spec.md §3). States are shared by pointer
// across nodes whenever no modification is needed; owner names the
// node whose out-state this is, used by copy-on-write to decide
// whether a mutator may write in place.
type VirtualState struct {
	owner   ir.NodeID
	objects []*VirtualObject // indexed by Alias
}

func newVirtualState(owner ir.NodeID, size int) *VirtualState {
	return &VirtualState{owner: owner, objects: make([]*VirtualObject, size)}
}

func (s *VirtualState) clone(owner ir.NodeID) *VirtualState {
	return &VirtualState{owner: owner, objects: append([]*VirtualObject(nil), s.objects...)}
}

func (s *VirtualState) Size() int { return len(s.objects) }
func (s *VirtualState) Owner() ir.NodeID { return s.owner }

// ObjectAt is grow-safe: an alias beyond the state's current size (or
// a sentinel alias) is treated as absent rather than a bounds error,
// per spec.md §5's grow-safety requirement for side-tables.
func (s *VirtualState) ObjectAt(alias Alias) *VirtualObject {
	if !alias.IsReal() || int(alias) >= len(s.objects) {
		return nil
	}
	return s.objects[alias]
}

func (s *VirtualState) SetObject(alias Alias, obj *VirtualObject) {
	if int(alias) >= len(s.objects) {
		grown := make([]*VirtualObject, alias+1)
		copy(grown, s.objects)
		s.objects = grown
	}
	s.objects[alias] = obj
}

// getOrCreateTracked returns the existing object at alias unless
// forceCopy is set or none exists, in which case it installs a fresh
// Tracked object and returns that instead.
func (s *VirtualState) getOrCreateTracked(alias Alias, id ir.NodeID, fieldCount int, initialized bool, forceCopy bool) *VirtualObject {
	if !forceCopy {
		if obj := s.ObjectAt(alias); obj != nil {
			return obj
		}
	}
	obj := newTrackedVirtualObject(s, id, fieldCount, initialized)
	s.SetObject(alias, obj)
	return obj
}

// updateFrom merges missing/newer object entries from other into s in
// place and reports whether anything changed. Nothing in the engine
// currently calls it (SPEC_FULL.md §7(1)).
func (s *VirtualState) updateFrom(other *VirtualState) bool {
	if other == s {
		return false
	}
	changed := false
	for alias := 0; alias < s.Size(); alias++ {
		ls := s.ObjectAt(Alias(alias))
		rs := other.ObjectAt(Alias(alias))
		if ls == rs || rs == nil {
			continue
		}
		if ls == nil {
			s.SetObject(Alias(alias), rs.clone(s))
			changed = true
			continue
		}
		changed = ls.updateFrom(rs) || changed
	}
	return changed
}

// setCopyRequired marks every live object in s as requiring a clone
// before the next mutation — the mechanism ForwardVirtualState uses to
// protect a freshly-shared state from cross-contamination between
// effect-sibling writers (spec.md §4.2).
func (s *VirtualState) setCopyRequired() {
	for _, obj := range s.objects {
		if obj != nil {
			obj.SetCopyRequired()
		}
	}
}

// copyObject implements VirtualState::Copy: clone obj into s (claiming
// ownership) unless it is already owned by s.
func (s *VirtualState) copyObject(obj *VirtualObject, alias Alias) *VirtualObject {
	if obj.owner == s {
		return obj
	}
	clone := obj.clone(s)
	s.SetObject(alias, clone)
	return clone
}

// mergeCache is scratch space reused across EffectPhi merges and
// load-from-phi resolutions, mirroring the original analysis's
// MergeCache (one cache reused instead of allocating per merge).
type mergeCache struct {
	states  []*VirtualState
	objects []*VirtualObject
	fields  []ir.NodeID
}

func (c *mergeCache) reset() {
	c.states = c.states[:0]
	c.objects = c.objects[:0]
	c.fields = c.fields[:0]
}

// loadObjectsFromStatesFor collects, into c.objects, the object at
// alias from every state in c.states that has one, and returns the
// minimum field count among them.
func (c *mergeCache) loadObjectsFromStatesFor(alias Alias) int {
	c.objects = c.objects[:0]
	min := -1
	for _, state := range c.states {
		if obj := state.ObjectAt(alias); obj != nil {
			c.objects = append(c.objects, obj)
			if min == -1 || obj.FieldCount() < min {
				min = obj.FieldCount()
			}
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

// loadObjectsForFieldsFrom collects, into c.objects, the virtual
// object for each node currently in c.fields (treated as raw
// unresolved node references, matching the branch values of a value
// phi) that has one in state, via aliasOf.
func (c *mergeCache) loadObjectsForFieldsFrom(state *VirtualState, aliasOf func(ir.NodeID) Alias) {
	c.objects = c.objects[:0]
	for _, field := range c.fields {
		alias := aliasOf(field)
		if !alias.IsReal() || int(alias) >= state.Size() {
			continue
		}
		if obj := state.ObjectAt(alias); obj != nil {
			c.objects = append(c.objects, obj)
		}
	}
}

// getFields re-fills c.fields with the non-unknown field value at pos
// from each object in c.objects (objects missing that many fields are
// skipped entirely), and returns that value iff every contributing
// object agrees on the exact same node there.
func (c *mergeCache) getFields(pos int) ir.NodeID {
	if len(c.objects) == 0 {
		c.fields = c.fields[:0]
		return NoNode
	}
	rep := NoNode
	if pos < c.objects[0].FieldCount() {
		rep = c.objects[0].Field(pos)
	}
	c.fields = c.fields[:0]
	for _, obj := range c.objects {
		if pos >= obj.FieldCount() {
			continue
		}
		field := obj.Field(pos)
		if field != NoNode {
			c.fields = append(c.fields, field)
		}
		if field != rep {
			rep = NoNode
		}
	}
	return rep
}
