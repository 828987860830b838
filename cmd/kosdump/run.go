// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kos-lang/kos-sub002/instance"
)

func newRunCmd() *cobra.Command {
	var showStats bool
	cmd := &cobra.Command{
		Use:   "run <module.kbc>",
		Short: "Load and execute a compiled module's top-level code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, ctx := instance.New(instanceFlags(), fileCompiler{})
			inst.SetArgs(args)
			defer inst.UnregisterThread(ctx)

			mod, err := inst.Modules.LoadFromPath(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "loaded module %q (%d bytes bytecode, %d constants)\n",
				mod.Name, len(mod.Bytecode), len(mod.Consts))

			if instance.IsPending(ctx) {
				exc := instance.Get(ctx)
				instance.Clear(ctx)
				fmt.Fprintln(os.Stderr, "uncaught exception:", instance.FormatException(exc))
				if showStats {
					printStats(inst.CollectGarbage(ctx))
				}
				os.Exit(1)
			}

			if showStats {
				printStats(inst.CollectGarbage(ctx))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showStats, "gc-stats", false, "force a collection and print its statistics after running")
	return cmd
}
