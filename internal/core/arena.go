// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// PageSize is the size in bytes of one heap page (§4.2: "fixed-size pages").
const PageSize = 64 * 1024

// A Page is one fixed-size slab of heap memory, bump-allocated from its
// Base up to Size. Pages are carved out of anonymous mmap regions so
// that, in mad-GC debug mode, a freed page can be re-protected with
// mprotect and turn any further access into a hardware fault instead of
// silent corruption.
type Page struct {
	Base Address
	Size int64

	mu   sync.Mutex
	next int64 // bump pointer, relative to Base
	mem  []byte
	// madGC, if true, makes Free mprotect the page to PROT_NONE and keep
	// it mapped instead of unmapping it.
	madGC bool
}

// Bump reserves n bytes at the current bump pointer and returns their
// address, or ok=false if the page has no room left.
func (p *Page) Bump(n int64, align int64) (Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := (p.next + align - 1) &^ (align - 1)
	if start+n > p.Size {
		return 0, false
	}
	p.next = start + n
	return p.Base.Add(start), true
}

// Used reports how many bytes of the page have been handed out.
func (p *Page) Used() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// Bytes returns the raw backing memory for the page, for direct reads
// and writes by the object layer.
func (p *Page) Bytes() []byte { return p.mem }

// Arena owns a set of mmap'd pages and is the allocation source for the
// heap package. It never itself decides *when* to allocate a new page
// (that's heap policy) — it only carves anonymous memory.
type Arena struct {
	mu      sync.Mutex
	pages   map[Address]*Page
	madGC   bool
	mmapped int64 // total bytes mapped, for Heap.Stats
}

func NewArena(madGC bool) *Arena {
	return &Arena{pages: make(map[Address]*Page), madGC: madGC}
}

// NewPage maps a fresh zeroed page and returns it.
func (a *Arena) NewPage() (*Page, error) {
	mem, err := unix.Mmap(-1, 0, PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("core: mmap page: %w", err)
	}
	base := Address(uintptr(addressOf(mem)))
	p := &Page{Base: base, Size: PageSize, mem: mem, madGC: a.madGC}
	a.mu.Lock()
	a.pages[base] = p
	a.mmapped += PageSize
	a.mu.Unlock()
	return p, nil
}

// Free releases a page. In mad-GC mode the page is mprotect'd to
// PROT_NONE and kept mapped (so any further access faults); otherwise
// it is unmapped outright and its address may be reused by the OS.
func (a *Arena) Free(p *Page) error {
	a.mu.Lock()
	delete(a.pages, p.Base)
	a.mmapped -= PageSize
	a.mu.Unlock()

	if p.madGC {
		return unix.Mprotect(p.mem, unix.PROT_NONE)
	}
	return unix.Munmap(p.mem)
}

// Mapped returns the total bytes of the pages this arena currently
// owns. A page freed in mad-GC mode stays mapped but is no longer
// counted.
func (a *Arena) Mapped() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mmapped
}

// PageAt returns the page that owns address a, if any.
func (a *Arena) PageAt(addr Address) (*Page, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for base, p := range a.pages {
		if addr >= base && addr < base.Add(p.Size) {
			return p, true
		}
	}
	return nil, false
}
