// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/kos-lang/kos-sub002/instance"
)

// newWatchCmd is the ambient CLI's interactive shell: load a module,
// then drop into a line-edited loop for polling a running Instance's
// GC statistics and heap breakdown on demand, one command per line.
// This is the direct analogue of ogle's interactive live-process
// debugger shell (SPEC_FULL.md's AMBIENT STACK entry for
// chzyer/readline), built on a real line editor instead of the
// teacher's own vestigial, unused import of the same package.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <module.kbc>",
		Short: "Load a module, then interactively poll GC stats and heap breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, ctx := instance.New(instanceFlags(), fileCompiler{})
			inst.SetArgs(args)
			defer inst.UnregisterThread(ctx)

			if _, err := inst.Modules.LoadFromPath(ctx, args[0]); err != nil {
				return err
			}
			if instance.IsPending(ctx) {
				exc := instance.Get(ctx)
				instance.Clear(ctx)
				fmt.Fprintln(os.Stderr, "uncaught exception:", instance.FormatException(exc))
			}

			rl, err := readline.New("kosdump> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			fmt.Fprintln(os.Stdout, "commands: gc, stats, breakdown, quit")
			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				switch strings.TrimSpace(line) {
				case "":
					continue
				case "gc":
					printStats(inst.CollectGarbage(ctx))
				case "stats":
					printStats(inst.CollectGarbage(ctx))
					fmt.Println()
					printBreakdown(inst.Heap.Breakdown(), "")
				case "breakdown":
					printBreakdown(inst.Heap.Breakdown(), "")
				case "quit", "exit":
					return nil
				default:
					fmt.Fprintln(os.Stdout, "unknown command; try: gc, stats, breakdown, quit")
				}
			}
		},
	}
}
