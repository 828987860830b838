// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heap implements §4.2: a page-based allocator with a
// side table for objects too large to fit on a page, a used/off-heap
// byte budget, and the GC-threshold bookkeeping that decides when an
// allocation should trigger a collection.
//
// This is the generalization of the teacher's internal/gocore heapInfo
// bitmap/span bookkeeping (process.go, object.go's markObjects) from
// "index an already-built foreign heap" to "decide where the next
// allocation goes and when we've grown too big".
package heap

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kos-lang/kos-sub002/internal/core"
)

// ErrOutOfMemory is returned when an allocation would exceed the
// heap's configured caps (§4.2, §7 "OutOfMemory").
var ErrOutOfMemory = errors.New("heap: out of memory")

// Limits configures the heap's byte caps (§4.2).
type Limits struct {
	MaxHeapBytes    int64 // 0 means unlimited
	MaxOffHeapBytes int64 // 0 means unlimited
	GCThreshold     int64 // used-heap-bytes threshold that triggers a cycle
	MadGC           bool  // mprotect freed pages instead of unmapping (§4.2)
}

// largeObject is a side-table entry for an allocation too big to fit
// on a single page (§4.2: "allocated off-heap and tracked in a side
// list; their headers mirror page-object headers so GC treats them
// uniformly").
type largeObject struct {
	addr core.Address
	size int64
	mem  []byte
}

// Heap owns the arena, the page pool, and the large-object side table.
// Allocation bumps a single current page shared by every allocating
// goroutine; there is no per-thread page. The heap mutex only guards
// the global page/large-object lists and the swap of the current page
// (§4.2: "thread-safe via a heap mutex for global page lists").
type Heap struct {
	arena  *core.Arena
	limits Limits

	mu         sync.Mutex
	pages      []*core.Page
	current    *core.Page // fast-path bump target shared by every allocating goroutine
	large      map[core.Address]*largeObject
	usedBytes  atomic.Int64
	offHeap    atomic.Int64
	collecting atomic.Bool
}

// largeObjectThreshold is the size above which an allocation bypasses
// page bump allocation entirely and goes straight to the side table
// (§4.2: "objects too large to fit on a page").
const largeObjectThreshold = core.PageSize / 4

func New(limits Limits) *Heap {
	return &Heap{
		arena: core.NewArena(limits.MadGC),
		large: make(map[core.Address]*largeObject),
		limits: limits,
	}
}

// UsedBytes returns the number of bytes handed out from on-heap pages.
func (h *Heap) UsedBytes() int64 { return h.usedBytes.Load() }

// OffHeapBytes returns the number of bytes allocated in the
// large-object side table.
func (h *Heap) OffHeapBytes() int64 { return h.offHeap.Load() }

// OverThreshold reports whether used-heap bytes have crossed the GC
// threshold, i.e. whether the next allocation should trigger a cycle
// (§4.2: "allocation that crosses it triggers a collection").
func (h *Heap) OverThreshold() bool {
	if h.limits.GCThreshold <= 0 {
		return false
	}
	return h.usedBytes.Load() >= h.limits.GCThreshold
}

// NewPage carves a fresh page for Alloc's shared bump allocator,
// failing with ErrOutOfMemory if the heap's byte cap would be
// exceeded.
func (h *Heap) NewPage() (*core.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.limits.MaxHeapBytes > 0 && h.usedBytes.Load()+core.PageSize > h.limits.MaxHeapBytes {
		return nil, ErrOutOfMemory
	}
	p, err := h.arena.NewPage()
	if err != nil {
		return nil, err
	}
	h.pages = append(h.pages, p)
	return p, nil
}

// AccountAlloc records n newly bump-allocated bytes against the
// used-heap budget. Called by Alloc after a successful Page.Bump.
func (h *Heap) AccountAlloc(n int64) {
	h.usedBytes.Add(n)
}

// AllocLarge allocates an object too big for a page, off-heap, and
// tracks it in the side table (§4.2).
func (h *Heap) AllocLarge(size int64) ([]byte, core.Address, error) {
	if h.limits.MaxOffHeapBytes > 0 && h.offHeap.Load()+size > h.limits.MaxOffHeapBytes {
		return nil, 0, ErrOutOfMemory
	}
	mem := make([]byte, size)
	addr := core.Address(addressOfSlice(mem))
	h.mu.Lock()
	h.large[addr] = &largeObject{addr: addr, size: size, mem: mem}
	h.mu.Unlock()
	h.offHeap.Add(size)
	return mem, addr, nil
}

// FreeLarge releases a large-object side-table entry, e.g. during the
// GC's finish phase.
func (h *Heap) FreeLarge(addr core.Address) {
	h.mu.Lock()
	lo, ok := h.large[addr]
	if ok {
		delete(h.large, addr)
	}
	h.mu.Unlock()
	if ok {
		h.offHeap.Add(-lo.size)
	}
}

// Alloc is the single entry point every object constructor reports an
// allocation through (wired up via object.TrackAllocation at instance
// start-up, object/finalize.go): it bump-allocates size bytes off the
// heap's current page, refilling via NewPage when the page is full or
// doesn't exist yet, or routes to AllocLarge when size alone rules out
// ever fitting on a page. Page.Bump already guards its own bump
// pointer with a mutex, so many goroutines can safely race to bump the
// same current page without heap.mu being held across the bump itself
// — only swapping in a freshly minted page is serialized.
//
// The returned Address is bookkeeping only: the object's real storage
// is wherever Go's own allocator and GC already put it (see
// internal/gc's evacuate for why no relocation of that memory is
// needed). Callers that don't care about the address, most of them,
// may discard it.
func (h *Heap) Alloc(size int64) (core.Address, error) {
	if size <= 0 {
		size = 1
	}
	if size > largeObjectThreshold {
		_, addr, err := h.AllocLarge(size)
		return addr, err
	}

	h.mu.Lock()
	page := h.current
	h.mu.Unlock()

	if page != nil {
		if addr, ok := page.Bump(size, 8); ok {
			h.AccountAlloc(size)
			return addr, nil
		}
	}

	p, err := h.NewPage()
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	h.current = p
	h.mu.Unlock()

	addr, ok := p.Bump(size, 8)
	if !ok {
		// Shouldn't happen given largeObjectThreshold < PageSize, but
		// fall back to the side table rather than loop forever handing
		// out pages this allocation can never fit on.
		_, addr, err := h.AllocLarge(size)
		return addr, err
	}
	h.AccountAlloc(size)
	return addr, nil
}

// Pages returns a snapshot of every page currently owned by the heap,
// for the GC's evacuation phase to walk.
func (h *Heap) Pages() []*core.Page {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*core.Page, len(h.pages))
	copy(out, h.pages)
	return out
}

// FreePage returns an emptied page to the arena (§4.4 phase 5).
func (h *Heap) FreePage(p *core.Page) error {
	h.mu.Lock()
	for i, pg := range h.pages {
		if pg == p {
			h.pages = append(h.pages[:i], h.pages[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
	h.usedBytes.Add(-p.Used())
	return h.arena.Free(p)
}

// TryBeginCollection reports whether the caller is the one that should
// drive a new GC cycle (true), or whether a cycle is already in
// progress and the caller should just join/wait on it (false). This
// implements §4.4's "a collection triggered while another is in
// progress joins the in-progress one rather than starting a new one".
func (h *Heap) TryBeginCollection() bool {
	return h.collecting.CompareAndSwap(false, true)
}

func (h *Heap) EndCollection() {
	h.collecting.Store(false)
}

func (h *Heap) Collecting() bool { return h.collecting.Load() }
