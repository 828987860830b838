// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

// Stats is the statistics struct §6.2 says collect_garbage fills in:
// counts of objects evacuated/freed/finalized, pages kept/freed, bytes
// evacuated/freed/kept, heap sizes before/after, malloc sizes
// before/after, and per-phase microsecond timings.
//
// The shape (a flat struct of named counters rather than the
// teacher's generic name->Statistic tree) matches what
// modules/kos_mod_gc.c's three operations (collect_garbage, stats,
// help) expect to report on, per SPEC_FULL.md; the teacher's
// Statistic tree idiom (process.go's groupStat/leafStat) is kept for
// Heap's own free-form report instead, in Statistic and Heap.Breakdown
// below.
type Stats struct {
	NumObjsEvacuated int64
	NumObjsFreed     int64
	NumObjsFinalized int64

	NumPagesKept int64
	NumPagesFreed int64

	BytesEvacuated int64
	BytesFreed     int64
	BytesKept      int64

	HeapSizeBefore int64
	HeapSizeAfter  int64

	MallocSizeBefore int64
	MallocSizeAfter  int64

	// Phase timings, microseconds.
	TimeStopUs     int64
	TimeMarkUs     int64
	TimeEvacuateUs int64
	TimeUpdateUs   int64
	TimeFinishUs   int64
	TimeTotalUs    int64
}

// Statistic is a named node in a breakdown tree, exactly the teacher's
// internal/gocore.Statistic shape (process.go), used by Heap.Breakdown
// for free-form "memory use by category" reporting (the
// cmd/kosdump `stats` subcommand's `breakdown`-style output).
type Statistic struct {
	Name     string
	Value    int64
	children map[string]*Statistic
}

func LeafStat(name string, value int64) *Statistic {
	return &Statistic{Name: name, Value: value}
}

func GroupStat(name string, children ...*Statistic) *Statistic {
	var cmap map[string]*Statistic
	var value int64
	if len(children) != 0 {
		cmap = make(map[string]*Statistic)
		for _, c := range children {
			cmap[c.Name] = c
			value += c.Value
		}
	}
	return &Statistic{Name: name, Value: value, children: cmap}
}

func (s *Statistic) Sub(chain ...string) *Statistic {
	for _, name := range chain {
		if s == nil {
			return nil
		}
		s = s.children[name]
	}
	return s
}

func (s *Statistic) Children() map[string]*Statistic { return s.children }

// Breakdown reports the heap's current memory use by category: pages
// (used vs free bytes) and the large-object side table.
func (h *Heap) Breakdown() *Statistic {
	pages := h.Pages()
	var used, free int64
	for _, p := range pages {
		u := p.Used()
		used += u
		free += p.Size - u
	}
	h.mu.Lock()
	var large int64
	for _, lo := range h.large {
		large += lo.size
	}
	h.mu.Unlock()
	return GroupStat("heap",
		GroupStat("pages", LeafStat("used", used), LeafStat("free", free)),
		LeafStat("large", large),
	)
}
