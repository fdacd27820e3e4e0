// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fixture loads Sea-of-Nodes test graphs from YAML documents
// (spec.md §8's scenario list), so the scenarios the engine is judged
// against live as data rather than as hand-assembled Go in every test
// file that needs one.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

// Graph is the decoded form of one YAML fixture document: a flat list
// of named node declarations, built in file order. A node may refer to
// any earlier node by its name; forward references are rejected, the
// same restriction a linear SSA text format would impose.
type Graph struct {
	Nodes []NodeSpec `yaml:"nodes"`
	// End names the node the built graph's End pointer is set to. If
	// empty, the last node in Nodes is used.
	End string `yaml:"end"`
}

// NodeSpec is one node declaration. Op selects the constructor; the
// remaining fields are interpreted according to Op, with unused ones
// ignored (Inputs/Args/Effect/Control/Index/Offset/HeaderSize/ElemSizeLog2/
// Value).
type NodeSpec struct {
	Name   string   `yaml:"name"`
	Op     string   `yaml:"op"`
	Effect string   `yaml:"effect"`
	Base   string   `yaml:"base"`
	Value  string   `yaml:"value"`
	Index  string   `yaml:"index"`
	Size   string   `yaml:"size"`
	Args   []string `yaml:"args"`
	Inputs []string `yaml:"inputs"` // Phi/EffectPhi branch values, Select branches, FrameState/StateValues values
	Control string  `yaml:"control"`
	Controls []string `yaml:"controls"` // Merge predecessors

	// Literal values for Parameter/ConstInt64/ConstWord.
	IntValue int64 `yaml:"int_value"`

	Offset       int  `yaml:"offset"`        // FieldAccess
	HeaderSize   int  `yaml:"header_size"`   // ElementAccess
	ElemSizeLog2 uint `yaml:"elem_size_log2"` // ElementAccess
}

// Load reads and decodes the YAML fixture at path, then builds it into
// a fresh *ir.Graph, returning the graph plus a name->id table for
// callers (usually tests) that need to refer back into it by the
// fixture's own names.
func Load(path string) (*ir.Graph, map[string]ir.NodeID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fixture: %w", err)
	}
	var spec Graph
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, nil, fmt.Errorf("fixture: decoding %s: %w", path, err)
	}
	return Build(&spec)
}

// Build constructs spec into a graph without touching the filesystem,
// exposed separately so callers can synthesize a Graph value directly
// (e.g. table-driven tests that would rather not carry a YAML file per
// case).
func Build(spec *Graph) (*ir.Graph, map[string]ir.NodeID, error) {
	g := ir.NewGraph()
	names := map[string]ir.NodeID{"start": g.Start}

	resolve := func(name string) (ir.NodeID, error) {
		if name == "" {
			return ir.NodeID(0), fmt.Errorf("empty node reference")
		}
		id, ok := names[name]
		if !ok {
			return ir.NodeID(0), fmt.Errorf("undefined node reference %q", name)
		}
		return id, nil
	}
	resolveAll := func(ns []string) ([]ir.NodeID, error) {
		ids := make([]ir.NodeID, len(ns))
		for i, n := range ns {
			id, err := resolve(n)
			if err != nil {
				return nil, err
			}
			ids[i] = id
		}
		return ids, nil
	}
	// effectOf defaults an unset effect reference to the most recently
	// declared node with an effect output, the fixture-file analogue of
	// a builder's implicit "current effect" thread.
	var lastEffect = g.Start
	effectOf := func(n NodeSpec) (ir.NodeID, error) {
		if n.Effect == "" {
			return lastEffect, nil
		}
		return resolve(n.Effect)
	}

	for _, n := range spec.Nodes {
		if n.Name == "" {
			return nil, nil, fmt.Errorf("fixture: node with empty name")
		}
		if _, exists := names[n.Name]; exists {
			return nil, nil, fmt.Errorf("fixture: duplicate node name %q", n.Name)
		}

		var id ir.NodeID
		var err error
		switch n.Op {
		case "Parameter":
			id = g.NewParameter()
		case "ConstInt64":
			id = g.NewConstInt64(n.IntValue)
		case "ConstWord":
			id = g.NewConstWord(n.IntValue)
		case "Allocate":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			size, e := resolve(n.Size)
			if e != nil {
				err = e
				break
			}
			id = g.NewAllocate(eff, size)
		case "BeginRegion":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			id = g.NewBeginRegion(eff)
		case "FinishRegion":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			alloc, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			id = g.NewFinishRegion(alloc, eff)
		case "StoreField":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			base, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			val, e := resolve(n.Value)
			if e != nil {
				err = e
				break
			}
			id = g.NewStoreField(eff, base, val, ir.FieldAccess{Offset: n.Offset})
		case "LoadField":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			base, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			id = g.NewLoadField(eff, base, ir.FieldAccess{Offset: n.Offset})
		case "StoreElement":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			base, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			idx, e := resolve(n.Index)
			if e != nil {
				err = e
				break
			}
			val, e := resolve(n.Value)
			if e != nil {
				err = e
				break
			}
			id = g.NewStoreElement(eff, base, idx, val, ir.ElementAccess{HeaderSize: n.HeaderSize, ElemSizeLog2: n.ElemSizeLog2})
		case "LoadElement":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			base, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			idx, e := resolve(n.Index)
			if e != nil {
				err = e
				break
			}
			id = g.NewLoadElement(eff, base, idx, ir.ElementAccess{HeaderSize: n.HeaderSize, ElemSizeLog2: n.ElemSizeLog2})
		case "Merge":
			controls, e := resolveAll(n.Controls)
			if e != nil {
				err = e
				break
			}
			id = g.NewMerge(controls...)
		case "EffectPhi":
			ctrl, e := resolve(n.Control)
			if e != nil {
				err = e
				break
			}
			effects, e := resolveAll(n.Inputs)
			if e != nil {
				err = e
				break
			}
			id = g.NewEffectPhi(ctrl, effects...)
			lastEffect = id
		case "Phi":
			ctrl, e := resolve(n.Control)
			if e != nil {
				err = e
				break
			}
			values, e := resolveAll(n.Inputs)
			if e != nil {
				err = e
				break
			}
			id = g.NewPhi(ctrl, values...)
		case "ReferenceEqual":
			a, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			b, e := resolve(n.Value)
			if e != nil {
				err = e
				break
			}
			id = g.NewReferenceEqual(a, b)
		case "ObjectIsSmi":
			a, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			id = g.NewObjectIsSmi(a)
		case "Select":
			cond, e := resolve(n.Base)
			if e != nil {
				err = e
				break
			}
			if len(n.Inputs) != 2 {
				err = fmt.Errorf("fixture: Select %q needs exactly two inputs", n.Name)
				break
			}
			branches, e := resolveAll(n.Inputs)
			if e != nil {
				err = e
				break
			}
			id = g.NewSelect(cond, branches[0], branches[1])
		case "FrameState":
			values, e := resolveAll(n.Inputs)
			if e != nil {
				err = e
				break
			}
			id = g.NewFrameState(values...)
		case "StateValues":
			values, e := resolveAll(n.Inputs)
			if e != nil {
				err = e
				break
			}
			id = g.NewStateValues(values...)
		case "Call":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			args, e := resolveAll(n.Args)
			if e != nil {
				err = e
				break
			}
			id = g.NewCall(eff, args, nil)
			lastEffect = id
		case "Return":
			eff, e := effectOf(n)
			if e != nil {
				err = e
				break
			}
			ctrl, e := resolve(n.Control)
			if e != nil {
				err = e
				break
			}
			val, e := resolve(n.Value)
			if e != nil {
				err = e
				break
			}
			id = g.NewReturn(eff, ctrl, val)
		default:
			err = fmt.Errorf("fixture: node %q: unknown op %q", n.Name, n.Op)
		}
		if err != nil {
			return nil, nil, err
		}

		names[n.Name] = id
		if g.Node(id).EffectOutputCount() > 0 {
			lastEffect = id
		}
	}

	if spec.End != "" {
		id, err := resolve(spec.End)
		if err != nil {
			return nil, nil, err
		}
		g.SetEnd(id)
	} else if len(spec.Nodes) > 0 {
		g.SetEnd(names[spec.Nodes[len(spec.Nodes)-1].Name])
	}

	return g, names, nil
}
