// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kos-lang/kos-sub002/internal/interp"
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

func newCtx() *vmctx.Context {
	return vmctx.New(1, vmctx.Coordination{
		Flag:          new(atomic.Bool),
		Mu:            new(sync.Mutex),
		EngageCond:    sync.NewCond(new(sync.Mutex)),
		QuiescentCond: sync.NewCond(new(sync.Mutex)),
	})
}

func TestRegisterFunctionCall(t *testing.T) {
	fn := RegisterFunction(
		[]object.ArgDescriptor{{Name: "x"}, {Name: "y", Default: value.SmallInt(10)}},
		func(ctx *vmctx.Context, this value.Value, args *object.Array) value.Value {
			x, _ := args.Read(0)
			y, _ := args.Read(1)
			return value.SmallInt(int64(x.(value.SmallInt)) + int64(y.(value.SmallInt)))
		},
	)

	m := interp.NewMachine()
	ctx := newCtx()
	args, _ := object.NewArray(1)
	args.Write(0, value.SmallInt(5))

	ret := m.Call(ctx, fn, object.Void, args)
	if ctx.IsPending() {
		t.Fatalf("unexpected pending exception: %v", ctx.Exception())
	}
	got, ok := ret.(value.SmallInt)
	if !ok || got != 15 {
		t.Fatalf("got %v, want 15", ret)
	}
}

func TestRegisterFunctionRaises(t *testing.T) {
	fn := RegisterFunction(nil, func(ctx *vmctx.Context, this value.Value, args *object.Array) value.Value {
		return Raise(ctx, &object.InvalidValueError{Msg: "boom"})
	})

	m := interp.NewMachine()
	ctx := newCtx()
	args, _ := object.NewArray(0)
	ret := m.Call(ctx, fn, object.Void, args)
	if !value.IsBad(ret) {
		t.Fatalf("expected Bad sentinel, got %v", ret)
	}
	if !ctx.IsPending() {
		t.Fatal("expected pending exception")
	}
	exc := ctx.Exception().(*object.Object)
	kind, _ := exc.Get("kind")
	if kind.(*object.String).String() != "InvalidValue" {
		t.Fatalf("got kind %v", kind)
	}
}

func TestRegisterConstructorAndMemberFunction(t *testing.T) {
	class, proto := RegisterConstructor(nil, object.Void, func(ctx *vmctx.Context, this value.Value, args *object.Array) value.Value {
		this.(*object.Object).Set("count", value.SmallInt(0))
		return object.Void
	})
	err := RegisterMemberFunction(proto, "bump", nil, func(ctx *vmctx.Context, this value.Value, args *object.Array) value.Value {
		o := this.(*object.Object)
		cur, _ := o.Get("count")
		next := value.SmallInt(int64(cur.(value.SmallInt)) + 1)
		o.Set("count", next)
		return next
	})
	if err != nil {
		t.Fatalf("RegisterMemberFunction: %v", err)
	}

	m := interp.NewMachine()
	ctx := newCtx()
	args, _ := object.NewArray(0)
	inst := m.Call(ctx, class, object.Void, args)
	if ctx.IsPending() {
		t.Fatalf("unexpected pending exception: %v", ctx.Exception())
	}
	o, ok := inst.(*object.Object)
	if !ok {
		t.Fatalf("got %T, want *object.Object", inst)
	}

	method, err := object.GetProto(o, "bump")
	if err != nil {
		t.Fatalf("GetProto(bump): %v", err)
	}
	ret := m.Call(ctx, method, o, args)
	if ret.(value.SmallInt) != 1 {
		t.Fatalf("got %v, want 1", ret)
	}
}

func TestRegisterDynamicProperty(t *testing.T) {
	proto := object.NewObject(nil)
	backing := value.SmallInt(0)
	err := RegisterDynamicProperty(proto, "value",
		func(ctx *vmctx.Context, this value.Value) value.Value { return backing },
		func(ctx *vmctx.Context, this value.Value, val value.Value) error {
			backing = val.(value.SmallInt)
			return nil
		},
	)
	if err != nil {
		t.Fatalf("RegisterDynamicProperty: %v", err)
	}

	v, err := proto.Get("value")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	acc, ok := v.(*object.Accessor)
	if !ok {
		t.Fatalf("got %T, want *object.Accessor", v)
	}
	ctx := newCtx()
	if acc.Get(ctx, proto).(value.SmallInt) != 0 {
		t.Fatal("getter should read initial backing value")
	}
	if err := acc.Set(ctx, proto, value.SmallInt(42)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if backing != 42 {
		t.Fatalf("backing = %v, want 42", backing)
	}
}

func TestRegisterDynamicPropertyReadOnly(t *testing.T) {
	proto := object.NewObject(nil)
	if err := RegisterDynamicProperty(proto, "ro",
		func(ctx *vmctx.Context, this value.Value) value.Value { return value.SmallInt(7) },
		nil,
	); err != nil {
		t.Fatalf("RegisterDynamicProperty: %v", err)
	}
	v, _ := proto.Get("ro")
	acc := v.(*object.Accessor)
	if acc.Set != nil {
		t.Fatal("expected nil setter for read-only property")
	}
}

func TestRegisterGenerator(t *testing.T) {
	fn := RegisterGenerator(nil, func(ctx *vmctx.Context, this value.Value, args *object.Array, yield Yield) value.Value {
		resumed := yield(value.SmallInt(1))
		yield(value.SmallInt(int64(resumed.(value.SmallInt)) + 1))
		return object.Void
	})

	m := interp.NewMachine()
	ctx := newCtx()
	args, _ := object.NewArray(0)
	iter := m.Call(ctx, fn, object.Void, args)
	it, ok := iter.(*object.Iterator)
	if !ok {
		t.Fatalf("got %T, want *object.Iterator", iter)
	}

	first := m.CallGenerator(ctx, it, object.Void)
	if first.(value.SmallInt) != 1 {
		t.Fatalf("first yield = %v, want 1", first)
	}

	second := m.CallGenerator(ctx, it, value.SmallInt(9))
	if second.(value.SmallInt) != 10 {
		t.Fatalf("second yield = %v, want 10", second)
	}

	third := m.CallGenerator(ctx, it, object.Void)
	if !value.IsBad(third) {
		t.Fatalf("expected Bad sentinel after generator end, got %v", third)
	}
	if !ctx.IsPending() {
		t.Fatal("expected GeneratorEndMarker pending")
	}
	ctx.Clear()
}
