// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package instance implements §6.2's Instance surface: the embedding
// entry point that owns one heap, one collector, one module manager,
// one interpreter, and the registered set of OS-thread contexts
// running against them. It is the thing a host program (cmd/kosdump,
// or any other embedder) constructs once and drives through the rest
// of the embedding API — Exception, Call, Locals, GC — all of which
// are thin wrappers here over the lower packages' own typed methods,
// gathered into one place because §6.2 specifies them as a single
// surface.
//
// This is the generalization of the teacher's internal/gocore.Process
// (process.go): where Process bundled together a read-only core dump,
// its heap layout, and its goroutine table for inspection, Instance
// bundles together a live heap, live collector, and live thread set
// for execution.
package instance

import (
	"runtime"
	"sync"

	"github.com/kos-lang/kos-sub002/internal/gc"
	"github.com/kos-lang/kos-sub002/internal/heap"
	"github.com/kos-lang/kos-sub002/internal/interp"
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/module"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// defaultGCThreshold is the used-heap-bytes level an Instance starts
// auto-collecting at when FlagManualGC isn't set (§4.2, §6.3).
const defaultGCThreshold = 16 << 20

// Instance is one self-contained runtime (§4.1's top-level unit: "the
// Instance owns one Heap, one GC Collector, ... and the registered set
// of Contexts currently running against it").
type Instance struct {
	Flags value.InstanceFlags

	Heap    *heap.Heap
	GC      *gc.Collector
	Machine *interp.Machine
	Modules *module.Manager

	args []string

	// spawnMu is the mutex Open Question #1 resolves thread-spawn-vs-
	// GC-engagement contention with: RegisterThread takes it for the
	// whole registration and appends to contexts while also holding
	// coord.Mu, the lock the collector's engage() holds while it checks
	// allQuiescent() (see RegisterThread's comment).
	spawnMu sync.Mutex

	mu             sync.Mutex
	contexts       []*vmctx.Context
	prototypeRoots []value.Value
}

// New implements init(flags) -> (instance, ctx) (§6.2): constructs an
// Instance and registers its first Context, the one the calling OS
// thread will run on.
func New(flags value.InstanceFlags, compiler module.Compiler) (*Instance, *vmctx.Context) {
	h := heap.New(heap.Limits{
		GCThreshold: defaultGCThreshold,
	})
	inst := &Instance{
		Flags: flags,
		Heap:  h,
	}
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	inst.GC = gc.NewCollector(h, inst, workers)
	inst.Machine = interp.NewMachine()
	inst.Modules = module.NewManager(compiler, inst.Machine)

	// gc.NewCollector just installed object.TrackAllocation as its own
	// liveness-registry hook (object/finalize.go); wrap it so every
	// object construction also actually routes through §4.2's page/
	// large-object allocator instead of only being recorded for
	// GC-stats purposes. Without this, Heap.usedBytes never moves,
	// internal/heap's pages and internal/core's mmap'd arena are never
	// touched outside their own tests, and OverThreshold never fires.
	trackForLiveness := object.TrackAllocation
	object.TrackAllocation = func(v value.Value, size int64) {
		trackForLiveness(v, size)
		h.Alloc(size)
	}

	ctx := inst.RegisterThread()
	return inst, ctx
}

// Destroy releases an Instance. Every Context it registered must
// already be unregistered (§4.5: unregistering is the embedder's
// responsibility, mirroring the teacher's explicit process-close
// discipline rather than relying on a finalizer).
func (inst *Instance) Destroy() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.contexts = nil
	inst.prototypeRoots = nil
}

// AddSearchPath implements add_search_path (§6.2, §4.7).
func (inst *Instance) AddSearchPath(path string) { inst.Modules.AddSearchPath(path) }

// AddDefaultPath implements add_default_path (§6.2, §4.7).
func (inst *Instance) AddDefaultPath(argv0 string) { inst.Modules.AddDefaultPath(argv0) }

// SetArgs implements set_args(argv) (§6.2): the argument vector script
// code retrieves through whatever builtin module exposes process
// arguments.
func (inst *Instance) SetArgs(argv []string) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.args = append([]string{}, argv...)
}

// Args returns the vector set by SetArgs.
func (inst *Instance) Args() []string {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return append([]string{}, inst.args...)
}

// RegisterBuiltinModule implements register_builtin_module(name,
// init_fn, flags) (§6.2, §4.7). The flags parameter in spec.md's
// signature is the per-module variant spec.md leaves unspecified in
// detail beyond "flags" (no further semantics are named for it
// anywhere in spec.md or original_source's kos_instance.h beyond the
// top-level instance flags already modeled as value.InstanceFlags);
// this port omits a redundant second flags parameter rather than
// invent unspecified semantics for it, matching module.Manager's own
// (name, init) registration shape.
func (inst *Instance) RegisterBuiltinModule(name string, init module.BuiltinInit) {
	inst.Modules.RegisterBuiltinModule(name, init)
}

// AddPrototypeRoot records a builtin-registered prototype as a GC root
// independent of whether any module global happens to reference it
// (§4.4: "the instance's built-in prototype table"). Called by the
// builtin package's registration helpers' callers once per
// constructor/prototype they hand out.
func (inst *Instance) AddPrototypeRoot(proto value.Value) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.prototypeRoots = append(inst.prototypeRoots, proto)
}

// RegisterThread implements register_thread (§6.2, §4.5): allocates
// and registers a new Context for the calling OS thread. Takes spawnMu
// for the whole registration, and appends to inst.contexts while
// holding the collector's coord.Mu — a thread can't complete
// registration (and start running, accumulating roots the collector
// doesn't yet know about) concurrently with the collector deciding
// allQuiescent() over inst.Contexts().
func (inst *Instance) RegisterThread() *vmctx.Context {
	inst.spawnMu.Lock()
	defer inst.spawnMu.Unlock()

	inst.mu.Lock()
	id := int64(len(inst.contexts)) + 1
	inst.mu.Unlock()

	coord := inst.GC.Coordination()
	ctx := vmctx.New(id, coord)
	ctx.SetGCCheck(func() { inst.MaybeCollect(ctx) })

	coord.Mu.Lock()
	inst.mu.Lock()
	inst.contexts = append(inst.contexts, ctx)
	inst.mu.Unlock()
	coord.Mu.Unlock()
	return ctx
}

// UnregisterThread implements unregister_thread (§6.2, §4.5). ctx must
// have no locals still pushed and no frames still on its stack.
func (inst *Instance) UnregisterThread(ctx *vmctx.Context) {
	inst.spawnMu.Lock()
	defer inst.spawnMu.Unlock()

	inst.mu.Lock()
	defer inst.mu.Unlock()
	for i, c := range inst.contexts {
		if c == ctx {
			inst.contexts = append(inst.contexts[:i], inst.contexts[i+1:]...)
			return
		}
	}
}

// Contexts implements gc.RootSource.
func (inst *Instance) Contexts() []*vmctx.Context {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	out := make([]*vmctx.Context, len(inst.contexts))
	copy(out, inst.contexts)
	return out
}

// ModuleRoots implements gc.RootSource (§4.4: "the instance's module
// list, which transitively roots constants and globals").
func (inst *Instance) ModuleRoots() []value.Value {
	mods := inst.Modules.Modules()
	out := make([]value.Value, len(mods))
	for i, m := range mods {
		out[i] = m
	}
	return out
}

// PrototypeRoots implements gc.RootSource.
func (inst *Instance) PrototypeRoots() []value.Value {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return append([]value.Value{}, inst.prototypeRoots...)
}

// MaybeCollect triggers a collection if the heap is over threshold and
// FlagManualGC isn't set (§6.3: "ManualGC: suppress auto-collection";
// §4.2: "allocation that crosses [the threshold] triggers a
// collection"). Wired as ctx's gc-check hook (vmctx.Context.SetGCCheck)
// at RegisterThread time, so it runs at every safepoint — the nearest
// practical granularity to "on allocation" without re-checking the
// threshold on every single bump, given object construction doesn't
// carry ctx through to the heap (see DESIGN.md).
//
// ctx is the calling thread's own context, which Collect's engage
// phase will otherwise wait on forever: Collect requires every
// registered context to be parked or suspended before it proceeds, and
// a thread driving its own collection is by definition still Running.
// Suspending ctx first — exactly like any other blocking native call
// (§4.4 "Suspension") — lets engage() see it as already quiescent.
func (inst *Instance) MaybeCollect(ctx *vmctx.Context) {
	if inst.Flags.Has(value.FlagManualGC) {
		return
	}
	if !inst.Heap.OverThreshold() {
		return
	}
	ctx.Suspend()
	inst.GC.Collect()
	ctx.Resume()
}
