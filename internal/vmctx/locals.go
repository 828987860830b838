// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vmctx

import (
	"sync"

	"github.com/kos-lang/kos-sub002/value"
)

// localLists holds a thread's two local-root registrations (§4.5):
// an ordered, LIFO list for scoped native acquisitions (init_local /
// destroy_top_local), and an unordered set keyed by handle for
// long-lived native state (init_ulocal / destroy_ulocal).
type localLists struct {
	mu      sync.Mutex
	ordered []*value.Value

	// unordered maps a handle id to its slot, since release order is
	// arbitrary and a plain append/pop-last discipline doesn't apply.
	// Ids come from nextID, increase monotonically and are not reused.
	unordered map[int]*value.Value
	nextID    int
}

func newLocalLists() *localLists {
	return &localLists{unordered: make(map[int]*value.Value)}
}

// PushLocal registers a new LIFO local root: it allocates a fresh
// slot, initialized to Bad, and returns it for the caller to store into.
func (c *Context) PushLocal() *value.Value {
	c.locals.mu.Lock()
	defer c.locals.mu.Unlock()
	slot := new(value.Value)
	*slot = value.Bad
	c.locals.ordered = append(c.locals.ordered, slot)
	return slot
}

// PushLocalWith registers a LIFO local root initialized to v.
func (c *Context) PushLocalWith(v value.Value) *value.Value {
	slot := c.PushLocal()
	*slot = v
	return slot
}

// PopLocal releases the most recently pushed LIFO local. Panics (a
// programmer error, not a runtime one) if the list is empty, matching
// the embedding contract that locals must be balanced.
func (c *Context) PopLocal() {
	c.locals.mu.Lock()
	defer c.locals.mu.Unlock()
	n := len(c.locals.ordered)
	if n == 0 {
		panic("vmctx: destroy_top_local with no locals pushed")
	}
	c.locals.ordered = c.locals.ordered[:n-1]
}

// PopLocals releases the n most recently pushed LIFO locals.
func (c *Context) PopLocals(n int) {
	for i := 0; i < n; i++ {
		c.PopLocal()
	}
}

// ULocalHandle identifies an unordered local for release in any order.
type ULocalHandle int

// PushULocal registers an unordered local root, released in any order
// via PopULocal.
func (c *Context) PushULocal(v value.Value) ULocalHandle {
	c.locals.mu.Lock()
	defer c.locals.mu.Unlock()
	id := c.locals.nextID
	c.locals.nextID++
	slot := new(value.Value)
	*slot = v
	c.locals.unordered[id] = slot
	return ULocalHandle(id)
}

// ULocalSlot returns the slot for h so native code can read/update it.
func (c *Context) ULocalSlot(h ULocalHandle) *value.Value {
	c.locals.mu.Lock()
	defer c.locals.mu.Unlock()
	return c.locals.unordered[int(h)]
}

// PopULocal releases an unordered local.
func (c *Context) PopULocal(h ULocalHandle) {
	c.locals.mu.Lock()
	defer c.locals.mu.Unlock()
	delete(c.locals.unordered, int(h))
}

// NumLocals reports how many locals (of both kinds) are still live,
// used by tests to assert "all locals released"; UnregisterThread does
// not check it.
func (c *Context) NumLocals() int {
	c.locals.mu.Lock()
	defer c.locals.mu.Unlock()
	return len(c.locals.ordered) + len(c.locals.unordered)
}

func (l *localLists) walk(fn func(value.Value)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, slot := range l.ordered {
		if *slot != nil && !value.IsBad(*slot) {
			fn(*slot)
		}
	}
	for _, slot := range l.unordered {
		if *slot != nil && !value.IsBad(*slot) {
			fn(*slot)
		}
	}
}
