// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kos-lang/kos-sub002/instance"
	"github.com/kos-lang/kos-sub002/internal/heap"
)

// printStats renders collect_garbage's statistics struct (§6.2) in the
// teacher's own tabular overview style (cmd/viewcore's "overview"
// command prints a similarly flat list of named counters).
func printStats(s heap.Stats) {
	fmt.Printf("objects evacuated  %d\n", s.NumObjsEvacuated)
	fmt.Printf("objects freed      %d\n", s.NumObjsFreed)
	fmt.Printf("objects finalized  %d\n", s.NumObjsFinalized)
	fmt.Printf("pages kept         %d\n", s.NumPagesKept)
	fmt.Printf("pages freed        %d\n", s.NumPagesFreed)
	fmt.Printf("bytes evacuated    %d\n", s.BytesEvacuated)
	fmt.Printf("bytes freed        %d\n", s.BytesFreed)
	fmt.Printf("bytes kept         %d\n", s.BytesKept)
	fmt.Printf("heap size before   %d\n", s.HeapSizeBefore)
	fmt.Printf("heap size after    %d\n", s.HeapSizeAfter)
	fmt.Printf("malloc size before %d\n", s.MallocSizeBefore)
	fmt.Printf("malloc size after  %d\n", s.MallocSizeAfter)
	fmt.Printf("phase stop     %6d us\n", s.TimeStopUs)
	fmt.Printf("phase mark     %6d us\n", s.TimeMarkUs)
	fmt.Printf("phase evacuate %6d us\n", s.TimeEvacuateUs)
	fmt.Printf("phase update   %6d us\n", s.TimeUpdateUs)
	fmt.Printf("phase finish   %6d us\n", s.TimeFinishUs)
	fmt.Printf("phase total    %6d us\n", s.TimeTotalUs)
}

func printBreakdown(node *heap.Statistic, indent string) {
	if node == nil {
		return
	}
	fmt.Printf("%s%-10s %d\n", indent, node.Name, node.Value)
	for _, child := range node.Children() {
		printBreakdown(child, indent+"  ")
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <module.kbc>",
		Short: "Load a module, run it, force a GC cycle, and print statistics and a heap breakdown",
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

			printStats(inst.CollectGarbage(ctx))
			fmt.Println()
			printBreakdown(inst.Heap.Breakdown(), "")
			return nil
		},
	}
}
