// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// NoRegister is the "no register" sentinel register operand (§6.1:
// register byte 255 means no register), reused here for "no catch
// handler installed in this frame".
const NoRegister = 255

// Stack is a single call-frame record (§3.3), chained to its caller
// via Parent to form the thread's call stack. A frame that has been
// detached from its thread to support a generator yield/resume becomes
// a "reentrant" Stack: a first-class heap object an Iterator points
// to, per §4.6/§9's generator design.
type Stack struct {
	Header

	Function *Function
	PC       int64

	// This is the receiver bound for this call (§4.8's native handler
	// signature "fn(ctx, this, args_array)"; bytecode functions see
	// the same receiver via register 0, the interpreter's calling
	// convention).
	This value.Value

	// CatchPC/CatchReg/HasCatch describe the exception handler active
	// in this frame, if any (§4.6: "every frame records a catch-PC and
	// catch-register").
	CatchPC  int64
	CatchReg uint8
	HasCatch bool

	Registers []value.Value

	Parent *Stack // caller's frame; nil at the bottom of a call chain

	Reentrant bool // true once detached for a generator yield (§9)
}

func NewStack(fn *Function, parent *Stack) *Stack {
	s := &Stack{
		Header:    Header{Type: value.KindStack},
		Function:  fn,
		Registers: make([]value.Value, fn.NumRegs),
		Parent:    parent,
	}
	trackAlloc(s, int64(fn.NumRegs)*8)
	return s
}

// Walk visits every root reachable directly from this frame: its own
// registers, and transitively its parent chain (§4.4: "the whole
// active Stack chain").
func (s *Stack) Walk(fn func(value.Value)) {
	for f := s; f != nil; f = f.Parent {
		if f.Function != nil {
			fn(f.Function)
		}
		if f.This != nil {
			fn(f.This)
		}
		for _, r := range f.Registers {
			if r != nil {
				fn(r)
			}
		}
	}
}
