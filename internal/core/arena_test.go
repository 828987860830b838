// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import "testing"

func TestArenaBump(t *testing.T) {
	a := NewArena(false)
	p, err := a.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if a.Mapped() != PageSize {
		t.Fatalf("Mapped = %d, want %d", a.Mapped(), PageSize)
	}

	addr1, ok := p.Bump(16, 8)
	if !ok {
		t.Fatal("Bump(16) failed on fresh page")
	}
	addr2, ok := p.Bump(16, 8)
	if !ok {
		t.Fatal("Bump(16) failed on second call")
	}
	if addr2.Sub(addr1) != 16 {
		t.Fatalf("addr2-addr1 = %d, want 16", addr2.Sub(addr1))
	}

	if _, ok := p.Bump(PageSize, 8); ok {
		t.Fatal("Bump(PageSize) should fail, not enough room left on the page")
	}

	if err := a.Free(p); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if a.Mapped() != 0 {
		t.Fatalf("Mapped after Free = %d, want 0", a.Mapped())
	}
}

func TestArenaPageAt(t *testing.T) {
	a := NewArena(false)
	p, err := a.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	got, ok := a.PageAt(p.Base.Add(10))
	if !ok || got != p {
		t.Fatalf("PageAt(base+10) = %v, %v; want %v, true", got, ok, p)
	}
	a.Free(p)
}

func TestMadGCProtectsFreedPage(t *testing.T) {
	a := NewArena(true)
	p, err := a.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if err := a.Free(p); err != nil {
		t.Fatalf("Free: %v", err)
	}
	// The page stays mapped (mad-GC keeps it reserved) but is no longer
	// tracked by the arena.
	if _, ok := a.PageAt(p.Base); ok {
		t.Fatal("freed page should no longer be tracked")
	}
}
