// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// TrackFinalizable is a hook the gc package installs at instance
// start-up (avoiding an import cycle between object and gc): whenever
// an object acquires a finalizer, this is called so the collector
// knows to check it for liveness every cycle and run the finalizer
// exactly once if the object turns out to be garbage (§4.4 phase 5,
// §3.4 invariant 3).
var TrackFinalizable func(v value.Value)

func track(v value.Value) {
	if TrackFinalizable != nil {
		TrackFinalizable(v)
	}
}

// TrackAllocation is a hook the gc package installs at instance
// start-up: every heap-allocated object (everything but the
// process-wide Void/True/False singletons, which are never garbage)
// reports itself here so the collector can report accurate
// evacuated/freed object counts and byte totals (§6.2, §8 scenario 6)
// instead of only tracking the subset of objects that happen to carry
// a native finalizer.
var TrackAllocation func(v value.Value, size int64)

func trackAlloc(v value.Value, size int64) {
	if TrackAllocation != nil {
		TrackAllocation(v, size)
	}
}
