// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interp implements §4.6: the register-based bytecode
// interpreter. A Machine decodes and dispatches one instruction at a
// time out of a Module's bytecode, maintaining the calling convention
// register 0 == this, 1..N == bound positional arguments, and
// everything above that a Void-initialized local — a convention the
// spec's instruction encoding leaves to the implementation, the same
// way the teacher's internal/core ABI decoders
// (amd64.go, arm64.go) each pick their own register-window layout
// without the core format mandating one.
package interp

import (
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// Machine runs compiled bytecode. One Machine is shared by every
// thread in an instance; all of its state is either immutable after
// construction or, like the generator table, independently
// synchronized.
type Machine struct {
	gens *generators
}

func NewMachine() *Machine {
	return &Machine{gens: newGenerators()}
}

// GeneratorEndMarker is the catchable exception value a finished
// generator's resume raises (§9's resolution of the open question
// about RETURN from an unfinished generator body: an explicit RETURN
// is reported to call_generator as this marker, rather than as a
// normal return value that callers would need to distinguish from a
// yielded one). Running past the end of a generator's code is not a
// return: it raises a bad-bytecode exception, which the resumer
// receives instead of this marker.
var GeneratorEndMarker value.Value = object.ToException(&object.GeneratorEndError{})

// bindFrame allocates a new Stack for fn and binds its registers per
// the calling convention: register 0 is this; registers 1..len(Args)
// are positional arguments, defaulted from fn.Args when the caller
// passed fewer than the parameter count; everything beyond that is
// left at its zero value, which NewStack already initializes to nil
// and this function fills with object.Void.
func (m *Machine) bindFrame(fn *object.Function, this value.Value, args *object.Array) *object.Stack {
	frame := object.NewStack(fn, nil)
	frame.This = this
	if len(frame.Registers) > 0 {
		frame.Registers[0] = this
	}
	n := int64(0)
	if args != nil {
		n = args.Len()
	}
	for i, a := range fn.Args {
		reg := i + 1
		if reg >= len(frame.Registers) {
			break
		}
		if int64(i) < n {
			v, _ := args.Read(int64(i))
			frame.Registers[reg] = v
			continue
		}
		if a.Default != nil {
			frame.Registers[reg] = a.Default
		} else {
			frame.Registers[reg] = object.Void
		}
	}
	for i, r := range frame.Registers {
		if r == nil {
			frame.Registers[i] = object.Void
		}
	}
	return frame
}

// Call implements §4.8/§6.2's invocation entry point: apply_function
// and every bytecode CALL/TAIL.CALL both funnel through this. A
// native function's handler runs directly; a bytecode function gets a
// fresh frame and an interpreter dispatch loop; a generator-init call
// returns a fresh, not-yet-run Iterator instead of executing the body
// (§9). The convention throughout is the native-handler one (§7):
// the return value is value.Bad exactly when ctx now has a pending
// exception.
func (m *Machine) Call(ctx *vmctx.Context, fn value.Value, this value.Value, args *object.Array) value.Value {
	var f *object.Function
	constructing := false
	switch v := fn.(type) {
	case *object.Function:
		f = v
	case *object.Class:
		f = &v.Function
		this = object.NewObject(v.Prototype)
		constructing = true
	default:
		ctx.Raise(mustErrValue(&object.TypeError{Got: fn.Kind()}))
		return value.Bad
	}

	if f.IsNative() {
		result := f.Native(ctx, this, args)
		if constructing && !value.IsBad(result) {
			return this
		}
		return result
	}

	frame := m.bindFrame(f, this, args)
	if f.Flags&object.FuncGeneratorInit != 0 {
		return object.NewIterator(frame)
	}

	ctx.PushFrame(frame)
	result := m.execFrame(ctx, frame, nil)
	ctx.PopFrame()
	if constructing && !value.IsBad(result) {
		return this
	}
	return result
}

// raiseAndReturn centralizes "this frame failed with err, and has no
// catch handler of its own to try": set ctx's pending exception and
// hand back the Bad sentinel for the caller (another execFrame level,
// or Call's caller) to notice and unwind further.
func raiseAndReturn(ctx *vmctx.Context, err error) value.Value {
	ctx.Raise(object.ToException(err))
	return value.Bad
}

// handleFailure applies a frame's catch handler to a pending
// exception, if it has one installed, rewriting the instruction
// pointer and stashing the exception value in the catch register;
// returns true if the frame should keep running (exception consumed)
// or false if it must propagate the failure to its own caller
// (leaving ctx's pending-exception slot set, or val already being the
// Bad sentinel with ctx pending, as the signal).
func handleFailure(ctx *vmctx.Context, frame *object.Stack, excVal value.Value) (pc int64, caught bool) {
	if !frame.HasCatch {
		return 0, false
	}
	frame.HasCatch = false
	if int(frame.CatchReg) < len(frame.Registers) {
		frame.Registers[frame.CatchReg] = excVal
	}
	ctx.Clear()
	return frame.CatchPC, true
}

// execFrame runs frame to completion: a normal RETURN, an uncaught
// THROW/propagated-callee-exception (in which case the result is
// value.Bad and ctx carries the pending exception), or — when gr is
// non-nil, meaning this frame is a generator body running on its own
// goroutine (§9) — a YIELD, which blocks inline on gr's channels
// without returning from this function at all.
func (m *Machine) execFrame(ctx *vmctx.Context, frame *object.Stack, gr *genRuntime) value.Value {
	code := frame.Function.Module.Bytecode
	regs := frame.Registers

	for {
		ctx.Safepoint()

		if frame.PC < 0 || frame.PC >= int64(len(code)) {
			return raiseAndReturn(ctx, errBadBytecode)
		}
		op := Opcode(code[frame.PC])
		start := frame.PC
		d := &decoder{code: code, pos: frame.PC + 1}

		var err error
		fail := func(e error) { err = e }

		switch op {
		case OpLoadVoid:
			dst := d.reg()
			regs[dst] = object.Void

		case OpLoadFalse:
			dst := d.reg()
			regs[dst] = object.False

		case OpLoadTrue:
			dst := d.reg()
			regs[dst] = object.True

		case OpLoadInt8:
			dst := d.reg()
			regs[dst] = value.SmallInt(d.s8())

		case OpLoadConst:
			dst := d.reg()
			idx := d.uimm()
			if idx < 0 || idx >= int64(len(frame.Function.Module.Consts)) {
				fail(errBadBytecode)
				break
			}
			regs[dst] = frame.Function.Module.Consts[idx]

		case OpNewArray8:
			dst := d.reg()
			n := d.uimm()
			a, e := object.NewArray(n)
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = a

		case OpNewObj:
			dst := d.reg()
			regs[dst] = object.NewObject(nil)

		case OpGet:
			dst, recv, key := d.reg(), d.reg(), d.reg()
			v, e := doGet(ctx, regs[recv], regs[key])
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpGetOpt:
			dst, recv, key := d.reg(), d.reg(), d.reg()
			v, e := doGet(ctx, regs[recv], regs[key])
			if e != nil {
				regs[dst] = object.Void
				break
			}
			regs[dst] = v

		case OpGetElem8:
			dst, recv := d.reg(), d.reg()
			idx := d.s8()
			v, e := doElemGet(regs[recv], idx)
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpGetElem8Opt:
			dst, recv := d.reg(), d.reg()
			idx := d.s8()
			v, e := doElemGet(regs[recv], idx)
			if e != nil {
				regs[dst] = object.Void
				break
			}
			regs[dst] = v

		case OpGetRange:
			dst, recv, beginR, endR := d.reg(), d.reg(), d.reg(), d.reg()
			v, e := doSlice(regs[recv], regAsRangeEnd(regs, beginR), regAsRangeEnd(regs, endR))
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpGetProp8:
			dst, recv := d.reg(), d.reg()
			name, e := constName(frame, d.uimm())
			if e != nil {
				fail(e)
				break
			}
			v, e := doPropGet(ctx, regs[recv], name)
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpGetProp8Opt:
			dst, recv := d.reg(), d.reg()
			name, e := constName(frame, d.uimm())
			if e != nil {
				fail(e)
				break
			}
			v, e := doPropGet(ctx, regs[recv], name)
			if e != nil {
				regs[dst] = object.Void
				break
			}
			regs[dst] = v

		case OpGetProto:
			dst, recv := d.reg(), d.reg()
			o, ok := regs[recv].(*object.Object)
			if !ok {
				fail(&object.TypeError{Got: regs[recv].Kind()})
				break
			}
			regs[dst] = o.GetPrototype()

		case OpSet:
			recv, key, val := d.reg(), d.reg(), d.reg()
			if e := doSet(ctx, regs[recv], regs[key], regs[val]); e != nil {
				fail(e)
			}

		case OpSetElem8:
			recv := d.reg()
			idx := d.s8()
			val := d.reg()
			if e := doElemSet(regs[recv], idx, regs[val]); e != nil {
				fail(e)
			}

		case OpSetProp8:
			recv := d.reg()
			name, e := constName(frame, d.uimm())
			if e != nil {
				fail(e)
				break
			}
			val := d.reg()
			if e := doPropSet(ctx, regs[recv], name, regs[val]); e != nil {
				fail(e)
			}

		case OpDel:
			recv, key := d.reg(), d.reg()
			if e := doDel(regs[recv], regs[key]); e != nil {
				fail(e)
			}

		case OpPush:
			recv, val := d.reg(), d.reg()
			a, ok := regs[recv].(*object.Array)
			if !ok {
				fail(&object.TypeError{Got: regs[recv].Kind()})
				break
			}
			if _, e := a.Push(regs[val]); e != nil {
				fail(e)
			}

		case OpPushEx:
			recv, src := d.reg(), d.reg()
			a, ok := regs[recv].(*object.Array)
			if !ok {
				fail(&object.TypeError{Got: regs[recv].Kind()})
				break
			}
			sa, ok := regs[src].(*object.Array)
			if !ok {
				fail(&object.TypeError{Got: regs[src].Kind()})
				break
			}
			n := sa.Len()
			if e := object.Insert(a, a.Len(), a.Len(), sa, 0, n); e != nil {
				fail(e)
			}

		case OpGetMod:
			dst := d.reg()
			idx := d.uimm()
			mod, e := resolveImport(frame, idx)
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = mod

		case OpGetModElem:
			dst := d.reg()
			modIdx, slotIdx := d.uimm(), d.uimm()
			mod, e := resolveImport(frame, modIdx)
			if e != nil {
				fail(e)
				break
			}
			v, ok := mod.GlobalAt(int(slotIdx))
			if !ok {
				fail(errBadBytecode)
				break
			}
			regs[dst] = v

		case OpGetModGlobal:
			dst := d.reg()
			modIdx, nameIdx := d.uimm(), d.uimm()
			v, e := doModGlobal(frame, modIdx, nameIdx)
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpGetModGlobalOpt:
			dst := d.reg()
			modIdx, nameIdx := d.uimm(), d.uimm()
			v, e := doModGlobal(frame, modIdx, nameIdx)
			if e != nil {
				regs[dst] = object.Void
				break
			}
			regs[dst] = v

		case OpGetGlobal:
			dst := d.reg()
			idx := d.uimm()
			v, ok := frame.Function.Module.GlobalAt(int(idx))
			if !ok {
				fail(errBadBytecode)
				break
			}
			regs[dst] = v

		case OpType:
			dst, src := d.reg(), d.reg()
			regs[dst] = value.SmallInt(int64(regs[src].Kind()))

		case OpHasDP:
			dst, recv, key := d.reg(), d.reg(), d.reg()
			regs[dst] = object.Bool(doHas(regs[recv], regs[key], false))

		case OpHasSH:
			dst, recv, key := d.reg(), d.reg(), d.reg()
			regs[dst] = object.Bool(doHas(regs[recv], regs[key], true))

		case OpHasDPProp8:
			dst, recv := d.reg(), d.reg()
			name, e := constName(frame, d.uimm())
			if e != nil {
				fail(e)
				break
			}
			s, _ := object.NewString(name)
			regs[dst] = object.Bool(doHas(regs[recv], s, false))

		case OpHasSHProp8:
			dst, recv := d.reg(), d.reg()
			name, e := constName(frame, d.uimm())
			if e != nil {
				fail(e)
				break
			}
			s, _ := object.NewString(name)
			regs[dst] = object.Bool(doHas(regs[recv], s, true))

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			dst, a, b := d.reg(), d.reg(), d.reg()
			v, e := arith(op, regs[a], regs[b])
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpAnd, OpOr, OpXor, OpShl, OpShr, OpShrU:
			dst, a, b := d.reg(), d.reg(), d.reg()
			v, e := bitwise(op, regs[a], regs[b])
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpNot:
			dst, a := d.reg(), d.reg()
			v, e := bitwiseNot(regs[a])
			if e != nil {
				fail(e)
				break
			}
			regs[dst] = v

		case OpCmpEq:
			dst, a, b := d.reg(), d.reg(), d.reg()
			regs[dst] = object.Bool(cmpEq(regs[a], regs[b]))

		case OpCmpNe:
			dst, a, b := d.reg(), d.reg(), d.reg()
			regs[dst] = object.Bool(!cmpEq(regs[a], regs[b]))

		case OpCmpLe:
			dst, a, b := d.reg(), d.reg(), d.reg()
			regs[dst] = object.Bool(cmpOrder(regs[a], regs[b]) <= 0)

		case OpCmpLt:
			dst, a, b := d.reg(), d.reg(), d.reg()
			regs[dst] = object.Bool(cmpOrder(regs[a], regs[b]) < 0)

		case OpJump:
			off := d.jumpOffset()
			frame.PC = start + off
			continue

		case OpJumpCond:
			cond := d.reg()
			off := d.jumpOffset()
			if object.Truthy(regs[cond]) {
				frame.PC = start + off
				continue
			}

		case OpJumpNotCond:
			cond := d.reg()
			off := d.jumpOffset()
			if !object.Truthy(regs[cond]) {
				frame.PC = start + off
				continue
			}

		case OpCall, OpTailCall:
			// OpTailCall always goes through the same m.Call as a plain
			// CALL and then returns its result, rather than reusing
			// frame's register window the way a real tail call would
			// (§6.3's DisableTailCall flag has nothing to disable
			// here). CALL-then-RETURN is observably identical except
			// for stack depth, which is the accepted §9 safe default
			// for this port rather than a bug — true frame reuse would
			// need execFrame to splice a callee's frame in place of the
			// caller's, which no code path here does yet.
			var dst byte
			if op == OpCall {
				dst = d.reg()
			}
			fnReg, thisReg, argsReg := d.reg(), d.reg(), d.reg()
			argsArr, ok := regs[argsReg].(*object.Array)
			if !ok {
				fail(&object.TypeError{Got: regs[argsReg].Kind()})
				break
			}
			ret := m.Call(ctx, regs[fnReg], regs[thisReg], argsArr)
			if value.IsBad(ret) && ctx.IsPending() {
				exc := ctx.Exception()
				if pc, caught := handleFailure(ctx, frame, exc); caught {
					frame.PC = pc
					continue
				}
				return value.Bad
			}
			if op == OpCall {
				regs[dst] = ret
			} else {
				return ret
			}

		case OpReturn:
			src := d.reg()
			if src == NoReg {
				return object.Void
			}
			return regs[src]

		case OpYield:
			if gr == nil {
				return raiseAndReturn(ctx, errYieldOutsideGenerator)
			}
			dst, val := d.reg(), d.reg()
			ctx.PopFrame()
			select {
			case gr.outCh <- genOutcome{kind: genYielded, val: regs[val]}:
			case <-gr.abortCh:
				return object.Void
			}
			var resume value.Value
			select {
			case resume = <-gr.resumeCh:
			case <-gr.abortCh:
				return object.Void
			}
			ctx.PushFrame(frame)
			regs[dst] = resume

		case OpThrow:
			val := d.reg()
			exc := regs[val]
			if pc, caught := handleFailure(ctx, frame, exc); caught {
				frame.PC = pc
				continue
			}
			ctx.Raise(exc)
			return value.Bad

		case OpCatch:
			catchReg := d.reg()
			off := d.jumpOffset()
			frame.HasCatch = true
			frame.CatchReg = catchReg
			frame.CatchPC = start + off

		default:
			return raiseAndReturn(ctx, errBadBytecode)
		}

		if err != nil {
			if pc, caught := handleFailure(ctx, frame, object.ToException(err)); caught {
				frame.PC = pc
				continue
			}
			return raiseAndReturn(ctx, err)
		}
		frame.PC = d.pos
	}
}

// regAsRangeEnd turns a GET.RANGE endpoint register into the *int64
// clampRange expects: NoReg means the open/Void endpoint, anything
// else must hold a numeric index.
func regAsRangeEnd(regs []value.Value, reg byte) *int64 {
	if reg == NoReg {
		return nil
	}
	n, err := asInt(regs[reg])
	if err != nil {
		return nil
	}
	return &n
}

func constName(frame *object.Stack, idx int64) (string, error) {
	consts := frame.Function.Module.Consts
	if idx < 0 || idx >= int64(len(consts)) {
		return "", errBadBytecode
	}
	s, ok := consts[idx].(*object.String)
	if !ok {
		return "", errBadBytecode
	}
	return s.String(), nil
}

func resolveImport(frame *object.Stack, idx int64) (*object.Module, error) {
	imports := frame.Function.Module.Imports
	if idx < 0 || idx >= int64(len(imports)) {
		return nil, errBadBytecode
	}
	return imports[idx], nil
}

func doModGlobal(frame *object.Stack, modIdx, nameIdx int64) (value.Value, error) {
	mod, err := resolveImport(frame, modIdx)
	if err != nil {
		return nil, err
	}
	name, err := constName(frame, nameIdx)
	if err != nil {
		return nil, err
	}
	slot, ok := mod.GlobalIndex(name)
	if !ok {
		return nil, &object.NotFoundError{Key: name}
	}
	v, ok := mod.GlobalAt(slot)
	if !ok {
		return nil, &object.NotFoundError{Key: name}
	}
	return v, nil
}
