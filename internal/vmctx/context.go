// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vmctx implements §4.5: the per-OS-thread context that roots
// a thread's live state for the garbage collector and carries its
// pending-exception slot, its active call-frame chain, and its
// suspend/resume state for blocking native calls.
//
// This is the live-mutator analogue of the teacher's
// internal/core.Thread (thread.go): where Thread described a captured
// register snapshot of somebody else's OS thread from a core file,
// Context *is* this OS thread's live register/root state, continuously
// updated as the interpreter runs.
package vmctx

import (
	"sync"
	"sync/atomic"

	"github.com/kos-lang/kos-sub002/internal/core"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// State is a thread's GC-visible run state (§4.4 "Safepoints",
// §4.4 "Suspension").
type State int32

const (
	StateRunning State = iota
	StateParked           // parked at a safepoint, waiting for a GC cycle to finish
	StateSuspended        // in blocking native I/O; implicitly parked
)

// Context is per-OS-thread runtime state (§4.5).
type Context struct {
	id int64

	// Page is reserved for a future per-thread bump-allocation fast
	// path. heap.Heap.Alloc currently bumps a single heap-wide current
	// page shared by every allocating goroutine (Page.Bump already
	// guards its own bump pointer, so this is race-free) rather than
	// this field, to avoid threading ctx through every object
	// constructor call site; see DESIGN.md.
	Page *core.Page

	mu        sync.Mutex
	exception value.Value // nil means Bad: no exception pending (§3.4 invariant 5)

	// Top is the Stack frame currently executing on this thread.
	Top *object.Stack

	locals *localLists

	state atomic.Int32

	// gcFlag and the two condition variables are shared with every
	// other registered Context and the collector that owns them
	// (wired up by the instance that registers this Context); they
	// implement the engagement protocol of §4.4 without vmctx
	// importing the gc package. engageCond is waited on by a parked
	// thread and broadcast by the collector on release; quiescentCond
	// is signaled by a thread as it parks/suspends and waited on by
	// the collector while engaging.
	gcFlag        *atomic.Bool
	gcMu          *sync.Mutex
	engageCond    *sync.Cond
	quiescentCond *sync.Cond

	// helpGC, if set, lets this thread contribute to an in-progress
	// mark/update phase instead of just waiting it out (§4.4:
	// "optionally joins the marker/updater as a helper").
	helpGC func()

	// gcCheck, if set, is consulted on every Safepoint call: the
	// instance layer installs it at RegisterThread time to trigger an
	// auto-collection once the heap crosses its threshold (§4.2, §4.4;
	// instance.Instance.MaybeCollect). Kept as a hook, like helpGC, so
	// vmctx never needs to import the instance or gc packages.
	gcCheck func()
}

// Coordination bundles the shared engagement primitives a collector
// hands every Context it registers.
type Coordination struct {
	Flag          *atomic.Bool
	Mu            *sync.Mutex
	EngageCond    *sync.Cond
	QuiescentCond *sync.Cond
}

// New creates a context not yet registered with any instance. Callers
// normally get a Context back from Instance.RegisterThread instead of
// calling this directly; it is exported for tests that don't need a
// full instance.
func New(id int64, coord Coordination) *Context {
	return &Context{
		id:            id,
		locals:        newLocalLists(),
		gcFlag:        coord.Flag,
		gcMu:          coord.Mu,
		engageCond:    coord.EngageCond,
		quiescentCond: coord.QuiescentCond,
	}
}

func (c *Context) ID() int64 { return c.id }

// SetHelper installs the callback Safepoint uses to let this thread
// help with an in-progress mark/update phase.
func (c *Context) SetHelper(fn func()) { c.helpGC = fn }

// SetGCCheck installs the callback Safepoint consults to decide
// whether this thread should trigger an auto-collection.
func (c *Context) SetGCCheck(fn func()) { c.gcCheck = fn }

func (c *Context) State() State { return State(c.state.Load()) }

func (c *Context) setState(s State) { c.state.Store(int32(s)) }

// Raise sets the pending exception (§7). Setting a new exception while
// one is pending overwrites it ("no double-throw").
func (c *Context) Raise(v value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exception = v
}

// Clear clears the pending exception.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exception = nil
}

// IsPending reports whether an exception is pending.
func (c *Context) IsPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exception != nil
}

// Exception returns the pending exception, or object.Void if none.
func (c *Context) Exception() value.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exception == nil {
		return object.Void
	}
	return c.exception
}

// PushFrame makes fr the thread's active frame, linking it to the
// previous top as its caller.
func (c *Context) PushFrame(fr *object.Stack) {
	fr.Parent = c.Top
	c.Top = fr
}

// PopFrame pops the active frame and returns it.
func (c *Context) PopFrame() *object.Stack {
	fr := c.Top
	if fr != nil {
		c.Top = fr.Parent
	}
	return fr
}

// WalkRoots visits every value.Value this context roots directly:
// the exception slot, the active Stack chain's registers, and both
// local-root lists (§4.4 "Roots for marking").
func (c *Context) WalkRoots(fn func(value.Value)) {
	c.mu.Lock()
	exc := c.exception
	c.mu.Unlock()
	if exc != nil {
		fn(exc)
	}
	if c.Top != nil {
		c.Top.Walk(fn)
	}
	c.locals.walk(fn)
}
