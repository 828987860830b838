// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instance

import (
	"github.com/kos-lang/kos-sub002/internal/heap"
	"github.com/kos-lang/kos-sub002/internal/vmctx"
)

// CollectGarbage implements collect_garbage(ctx, &stats) (§6.2, §4.4):
// runs one full mark-and-evacuate cycle and returns its statistics. ctx
// identifies the calling (already-registered) thread; Collect's engage
// phase waits for every registered context to be parked or suspended,
// and the calling thread can't safepoint its way there on its own
// since it's blocked here rather than back in the interpreter loop, so
// CollectGarbage suspends ctx itself around the call, same as
// MaybeCollect.
func (inst *Instance) CollectGarbage(ctx *vmctx.Context) heap.Stats {
	ctx.Suspend()
	defer ctx.Resume()
	return inst.GC.Collect()
}

// HelpGC implements help_gc(ctx) (§6.2, §4.4: "optionally joins the
// marker/updater as a helper"). In this port the collector's mark
// phase is already fully parallelized over its own fixed worker pool
// (internal/gc's numWorkers goroutines), independent of any parked
// mutator thread, so there is no additional grey-queue work for a
// parked thread to pull — unlike a from-scratch implementation where
// the parked native thread would itself execute worklist pops. HelpGC
// is kept as a named, callable no-op rather than removed, since it is
// part of §6.2's named surface and a future marking strategy might
// reintroduce real helper work.
func (inst *Instance) HelpGC(ctx *vmctx.Context) {
	ctx.SetHelper(func() {})
}

// SuspendContext implements suspend_context(ctx) (§6.2, §5
// "Suspension points"): brackets a blocking native call so the
// collector doesn't wait on it.
func SuspendContext(ctx *vmctx.Context) { ctx.Suspend() }

// ResumeContext implements resume_context(ctx) (§6.2).
func ResumeContext(ctx *vmctx.Context) { ctx.Resume() }
