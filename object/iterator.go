// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// Iterator is the state carrier a generator function produces on its
// first call (§3.3): a suspended reentrant Stack, the register a
// resumed YIELD should receive its resume argument into, and whether
// the generator has run to completion.
type Iterator struct {
	Header

	Suspended *Stack
	YieldReg  uint8
	Done      bool

	// NativeResume, when set, marks this Iterator as backed by a
	// builtin (native) generator rather than a bytecode frame (§4.8):
	// resuming it calls this instead of re-entering the interpreter's
	// own goroutine/channel protocol. Set once by the builtin package's
	// generator registration helper; never touched by this package.
	NativeResume func(resumeArg value.Value) (val value.Value, threw bool)
}

func NewIterator(suspended *Stack) *Iterator {
	it := &Iterator{Header: Header{Type: value.KindIterator}, Suspended: suspended}
	trackAlloc(it, 32)
	return it
}

func (it *Iterator) Walk(fn func(value.Value)) {
	if it.Suspended != nil {
		it.Suspended.Walk(fn)
	}
}
