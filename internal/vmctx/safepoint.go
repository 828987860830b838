// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vmctx

// Safepoint is called by the interpreter before every instruction it
// dispatches, which covers backward branches, calls, and entry from
// native code into bytecode (§4.4). Heap allocation does not call it:
// an allocation that needs a fresh page reaches no safepoint. If a
// GC has been requested, the thread parks on the shared engagement
// condition variable until the collector releases it, optionally
// helping with the in-progress phase first.
func (c *Context) Safepoint() {
	if c.gcFlag.Load() {
		c.park()
	}
	if c.gcCheck != nil {
		c.gcCheck()
	}
}

func (c *Context) park() {
	c.gcMu.Lock()
	c.setState(StateParked)
	c.quiescentCond.Signal()
	for c.gcFlag.Load() {
		c.gcMu.Unlock()
		if c.helpGC != nil {
			c.helpGC()
		}
		c.gcMu.Lock()
		if !c.gcFlag.Load() {
			break
		}
		c.engageCond.Wait()
	}
	c.setState(StateRunning)
	c.gcMu.Unlock()
}

// Suspend transitions the thread to Suspended before a blocking native
// call (§4.4 "Suspension", §5 "Suspension points"). A suspended thread
// is implicitly parked: its registers are already settled in its
// Context, so the collector needs no further cooperation from it.
func (c *Context) Suspend() {
	c.gcMu.Lock()
	c.setState(StateSuspended)
	c.quiescentCond.Signal()
	c.gcMu.Unlock()
}

// Resume transitions the thread back to Running. If a GC cycle that
// needs thread quiescence is in progress, Resume blocks until it
// finishes (§4.4: "resume blocks until phases that need thread
// quiescence are complete").
func (c *Context) Resume() {
	c.gcMu.Lock()
	for c.gcFlag.Load() {
		c.engageCond.Wait()
	}
	c.setState(StateRunning)
	c.gcMu.Unlock()
}
