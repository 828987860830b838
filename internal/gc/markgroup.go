// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"sync"

	"github.com/kos-lang/kos-sub002/value"
)

// groupSize bounds a single mark group, the bounded batch of pending
// references transferred between mark workers (§4.4, GLOSSARY "Mark
// group").
const groupSize = 256

// markQueue is the two-tier structure mark workers push grey objects
// into and drain from (§4.4: "a lock-free quick-access slot array of
// fixed size, plus a mutex-protected overflow stack"). The "quick"
// tier is a single fixed-capacity group kept available for
// uncontended push/pop; anything beyond groupSize spills to the
// mutex-protected overflow stack of further groups. Go has no
// standard wait-free MPMC structure general enough for heterogeneous
// value.Value references, so both tiers are guarded here by the one
// mutex that push and pop take; the two-tier split bounds each group
// at groupSize but does not give either tier its own critical section.
type markQueue struct {
	mu    sync.Mutex
	quick []value.Value // capacity groupSize; the fast path
	over  [][]value.Value
	err   error // set if a worker failed to grow a mark group (OOM)
}

func newMarkQueue() *markQueue {
	return &markQueue{quick: make([]value.Value, 0, groupSize)}
}

// push adds v to the queue, spilling the quick tier to the overflow
// stack as a new group once it's full.
func (q *markQueue) push(v value.Value) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.quick) == cap(q.quick) {
		full := q.quick
		q.over = append(q.over, full)
		q.quick = make([]value.Value, 0, groupSize)
	}
	q.quick = append(q.quick, v)
}

// pop removes and returns one reference, or ok=false if the queue is
// drained.
func (q *markQueue) pop() (value.Value, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.quick) == 0 {
		if len(q.over) == 0 {
			return nil, false
		}
		q.quick = q.over[len(q.over)-1]
		q.over = q.over[:len(q.over)-1]
	}
	v := q.quick[len(q.quick)-1]
	q.quick = q.quick[:len(q.quick)-1]
	return v, true
}

func (q *markQueue) setErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err == nil {
		q.err = err
	}
}

func (q *markQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
