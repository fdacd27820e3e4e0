// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Emamatcyber90/escapeopt/internal/diagnostics"
	"github.com/Emamatcyber90/escapeopt/internal/escape"
	"github.com/Emamatcyber90/escapeopt/internal/fixture"
	"github.com/Emamatcyber90/escapeopt/internal/ir"
)

type runFlags struct {
	trace bool
	out   io.Writer
}

// NewCmdRun returns the `escapecheck run <fixture.yaml>` command.
func NewCmdRun() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <fixture.yaml>",
		Short: "Load a graph fixture, run escape analysis, and print the per-node result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.out = cmd.OutOrStdout()
			return runEscapeCheck(flags, args[0])
		},
	}
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "emit structured trace logging of every state transition")
	return cmd
}

func runEscapeCheck(flags *runFlags, path string) error {
	g, names, err := fixture.Load(path)
	if err != nil {
		return err
	}

	var tracer *diagnostics.Tracer
	if flags.trace {
		log, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("escapecheck: building trace logger: %w", err)
		}
		defer log.Sync()
		tracer = diagnostics.NewTracer(log)
	}

	engine := escape.NewEngine(g, tracer)
	if err := engine.Run(); err != nil {
		return fmt.Errorf("escapecheck: %w", err)
	}

	byID := make(map[ir.NodeID]string, len(names))
	for name, id := range names {
		byID[id] = name
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	fmt.Fprintf(flags.out, "exists_virtual_allocate=%t\n", engine.ExistsVirtualAllocate())
	for _, name := range ordered {
		id := names[name]
		fmt.Fprintf(flags.out, "%-12s virtual=%-5t escaped=%-5t replacement=%s\n",
			name, engine.IsVirtual(id), engine.IsEscaped(id), replacementLabel(engine, byID, id))
	}
	return nil
}

// replacementLabel renders a node's replacement by fixture name when the
// replacement resolves to a node present in the fixture (the common case
// for constants and loads), falling back to its raw id for nodes the
// pass synthesized (e.g. a merged phi).
func replacementLabel(engine *escape.Engine, byID map[ir.NodeID]string, id ir.NodeID) string {
	rep := engine.GetReplacement(id)
	if rep == escape.NoNode {
		return "-"
	}
	if name, ok := byID[rep]; ok {
		return name
	}
	return fmt.Sprintf("#%d", rep)
}
