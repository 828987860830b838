// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// asm is a tiny hand-rolled assembler used only by this package's own
// tests, to build well-formed bytecode for a single function body
// without depending on a compiler.
type asm struct {
	buf []byte
}

func (a *asm) op(op Opcode)            { a.buf = append(a.buf, byte(op)) }
func (a *asm) reg(r byte)              { a.buf = append(a.buf, r) }
func (a *asm) s8(v int64)              { a.buf = append(a.buf, byte(int8(v))) }
func (a *asm) uimm(v int64)            { a.buf = append(a.buf, encodeUimm(uint64(v))...) }
func (a *asm) jump(from int, to int) int {
	// placeholder two bytes patched by patchJump
	pos := len(a.buf)
	a.buf = append(a.buf, 0, 0)
	return pos
}
func (a *asm) patchJump(pos, instrStart, target int) {
	delta := int16((target - instrStart) / 2)
	a.buf[pos] = byte(delta)
	a.buf[pos+1] = byte(delta >> 8)
}

func encodeUimm(v uint64) []byte {
	out := []byte{}
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func newCtx() *vmctx.Context {
	return vmctx.New(1, vmctx.Coordination{
		Flag:          new(atomic.Bool),
		Mu:            new(sync.Mutex),
		EngageCond:    sync.NewCond(new(sync.Mutex)),
		QuiescentCond: sync.NewCond(new(sync.Mutex)),
	})
}

// TestAddAndReturn builds: r3 = r1 + r2; return r3, for a function
// called with two integer arguments (bound to r1 and r2, since r0 is
// this), and checks the sum comes back.
func TestAddAndReturn(t *testing.T) {
	var a asm
	a.op(OpAdd)
	a.reg(3)
	a.reg(1)
	a.reg(2)
	a.op(OpReturn)
	a.reg(3)

	mod := object.NewModule("m", "m", a.buf, nil)
	fn := &object.Function{
		Header:  object.Header{Type: value.KindFunction},
		Module:  mod,
		NumRegs: 4,
		Args:    []object.ArgDescriptor{{Name: "a"}, {Name: "b"}},
	}

	m := NewMachine()
	ctx := newCtx()
	args, _ := object.NewArray(2)
	args.Write(0, value.SmallInt(3))
	args.Write(1, value.SmallInt(4))

	result := m.Call(ctx, fn, object.Void, args)
	if result != value.SmallInt(7) {
		t.Fatalf("Call = %v; want 7", result)
	}
	if ctx.IsPending() {
		t.Fatalf("unexpected pending exception: %v", ctx.Exception())
	}
}

// TestDivisionByZeroCaughtLocally builds a function that divides by
// zero inside a CATCH-guarded region and returns the caught
// exception's "kind" property, checking THROW/CATCH unwinding and
// object.ToException's tagging end to end.
func TestDivisionByZeroCaughtLocally(t *testing.T) {
	var a asm
	a.op(OpCatch)
	a.reg(2) // catch target register
	catchJumpPos := len(a.buf)
	a.jump(0, 0)
	catchInstrStart := catchJumpPos - 2 // position of the CATCH opcode byte itself

	a.op(OpLoadInt8)
	a.reg(0)
	a.s8(1)
	a.op(OpLoadInt8)
	a.reg(1)
	a.s8(0)
	a.op(OpDiv)
	a.reg(3)
	a.reg(0)
	a.reg(1)
	a.op(OpReturn)
	a.reg(3)

	target := len(a.buf)
	a.patchJump(catchJumpPos, catchInstrStart, target)

	a.op(OpGetProp8)
	a.reg(4)
	a.reg(2)
	a.uimm(0) // const 0 == "kind"
	a.op(OpReturn)
	a.reg(4)

	kindName, _ := object.NewString("kind")
	mod := object.NewModule("m", "m", a.buf, []value.Value{kindName})
	fn := &object.Function{
		Header:  object.Header{Type: value.KindFunction},
		Module:  mod,
		NumRegs: 5,
	}

	m := NewMachine()
	ctx := newCtx()
	args, _ := object.NewArray(0)
	result := m.Call(ctx, fn, object.Void, args)
	if ctx.IsPending() {
		t.Fatalf("exception escaped the CATCH: %v", ctx.Exception())
	}
	s, ok := result.(*object.String)
	if !ok || s.String() != "DivisionByZero" {
		t.Fatalf("Call = %v; want string DivisionByZero", result)
	}
}
