// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"sync"

	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// Generators are implemented as a goroutine per live Iterator,
// handed off to and from the resumer over a pair of unbuffered
// channels (§4.6 YIELD, §9 "Generators and yield"). Go gives no way
// to literally detach and reattach a call-stack region the way a
// from-scratch VM can; an idiomatic Go port gets the same externally
// observable behavior — a reentrant, heap-resident suspended frame —
// by running the generator body on its own goroutine and blocking it
// on a channel receive at each YIELD instead. Because only one side
// of the handoff is ever runnable at a time, there is no true
// parallelism and every shared mutation (ctx.Top, the pending
// exception slot) is already serialized by the channel operations'
// happens-before edges; see DESIGN.md for the full writeup.
type genRuntime struct {
	started  bool
	resumeCh chan value.Value
	outCh    chan genOutcome
	abortCh  chan struct{}
}

type genOutcomeKind int

const (
	genYielded genOutcomeKind = iota
	genReturned
	genThrew
)

type genOutcome struct {
	kind genOutcomeKind
	val  value.Value
}

func newGenRuntime() *genRuntime {
	return &genRuntime{
		resumeCh: make(chan value.Value),
		outCh:    make(chan genOutcome),
		abortCh:  make(chan struct{}),
	}
}

// generators maps a live Iterator to its goroutine's channels. Guarded
// by its own mutex since it's touched from whichever goroutine calls
// CallGenerator next, which may be a different OS thread each time.
type generators struct {
	mu sync.Mutex
	m  map[*object.Iterator]*genRuntime
}

func newGenerators() *generators {
	return &generators{m: make(map[*object.Iterator]*genRuntime)}
}

func (g *generators) get(it *object.Iterator) (*genRuntime, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gr, ok := g.m[it]
	return gr, ok
}

func (g *generators) getOrCreate(it *object.Iterator) (*genRuntime, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gr, ok := g.m[it]; ok {
		return gr, true
	}
	gr := newGenRuntime()
	g.m[it] = gr
	return gr, false
}

func (g *generators) delete(it *object.Iterator) {
	g.mu.Lock()
	delete(g.m, it)
	g.mu.Unlock()
}

// CallGenerator implements call_generator (§6.2): resumes a suspended
// Iterator, running it until its next YIELD, its completion, or an
// unhandled exception. A finished Iterator raises a dedicated
// "generator end" exception on resume, per SPEC_FULL's resolution of
// spec.md §9's open question about RETURN from an unfinished
// generator frame.
func (m *Machine) CallGenerator(ctx *vmctx.Context, iterVal value.Value, resumeArg value.Value) value.Value {
	it, ok := iterVal.(*object.Iterator)
	if !ok {
		ctx.Raise(mustErrValue(&object.TypeError{Got: iterVal.Kind()}))
		return value.Bad
	}
	if it.Done {
		ctx.Raise(GeneratorEndMarker)
		return value.Bad
	}

	if it.NativeResume != nil {
		val, threw := it.NativeResume(resumeArg)
		if threw {
			it.Done = true
			ctx.Raise(val)
			return value.Bad
		}
		if value.IsBad(val) {
			it.Done = true
			ctx.Raise(GeneratorEndMarker)
			return value.Bad
		}
		return val
	}

	gr, existed := m.gens.getOrCreate(it)
	if !existed {
		gr.started = true
		go func() {
			result := m.execFrame(ctx, it.Suspended, gr)
			// execFrame returning directly (rather than via a
			// gr.outCh send from OpYield) means the frame ended:
			// either a normal RETURN, or an uncaught THROW (including
			// the bad-bytecode exception raised when the frame runs
			// past the end of its code), which leaves ctx with a
			// pending exception and result == value.Bad. Check which one
			// actually happened instead of always reporting
			// genReturned, or a generator body THROW silently turns
			// into a plain "generator end" for its resumer.
			if ctx.IsPending() {
				exc := ctx.Exception()
				ctx.Clear()
				gr.outCh <- genOutcome{kind: genThrew, val: exc}
				return
			}
			gr.outCh <- genOutcome{kind: genReturned, val: result}
		}()
	} else {
		select {
		case gr.resumeCh <- resumeArg:
		case <-gr.abortCh:
			return value.Bad
		}
	}

	out := <-gr.outCh
	switch out.kind {
	case genYielded:
		return out.val
	case genReturned:
		it.Done = true
		m.gens.delete(it)
		ctx.Raise(GeneratorEndMarker)
		return value.Bad
	case genThrew:
		it.Done = true
		m.gens.delete(it)
		ctx.Raise(out.val)
		return value.Bad
	}
	return value.Bad
}

// AbandonGenerator releases a generator's goroutine if it is parked
// waiting on a resume that will never come (e.g. the Iterator became
// unreachable). Nothing in this module calls it: collecting an
// Iterator does not invoke it, so the goroutine of an unfinished
// generator stays blocked until AbandonGenerator is called for it.
func (m *Machine) AbandonGenerator(it *object.Iterator) {
	gr, ok := m.gens.get(it)
	if !ok {
		return
	}
	close(gr.abortCh)
	m.gens.delete(it)
}

func mustErrValue(err error) value.Value {
	s, _ := object.NewString(err.Error())
	return s
}
