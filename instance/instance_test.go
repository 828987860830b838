// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instance

import (
	"testing"

	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/module"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// stubCompiler implements module.Compiler with no actual compilation:
// every module it "compiles" has no top-level bytecode and no
// imports, exercising only the built-in-init half of Manager.load.
type stubCompiler struct{}

func (stubCompiler) Compile(name, path string, src []byte) (module.CompileResult, error) {
	return module.CompileResult{NumRegs: 1}, nil
}

func TestNewRegistersFirstContext(t *testing.T) {
	inst, ctx := New(0, stubCompiler{})
	if ctx == nil {
		t.Fatal("expected a registered context")
	}
	if len(inst.Contexts()) != 1 {
		t.Fatalf("got %d contexts, want 1", len(inst.Contexts()))
	}
}

func TestRegisterAndUnregisterThread(t *testing.T) {
	inst, ctx0 := New(0, stubCompiler{})
	ctx1 := inst.RegisterThread()
	if len(inst.Contexts()) != 2 {
		t.Fatalf("got %d contexts, want 2", len(inst.Contexts()))
	}
	inst.UnregisterThread(ctx0)
	if len(inst.Contexts()) != 1 {
		t.Fatalf("got %d contexts after unregister, want 1", len(inst.Contexts()))
	}
	inst.UnregisterThread(ctx1)
	if len(inst.Contexts()) != 0 {
		t.Fatalf("got %d contexts after second unregister, want 0", len(inst.Contexts()))
	}
}

func TestRegisterBuiltinModuleRunsInit(t *testing.T) {
	inst, ctx := New(0, stubCompiler{})
	ran := false
	inst.RegisterBuiltinModule("sys", func(ctx *vmctx.Context, mod *object.Module) error {
		ran = true
		mod.DeclareGlobal("args", value.Void)
		return nil
	})
	mod, err := inst.Modules.LoadFromMemory(ctx, "sys", nil)
	if err != nil {
		t.Fatalf("LoadFromMemory: %v", err)
	}
	if !ran {
		t.Fatal("builtin init did not run")
	}
	if _, ok := mod.GlobalIndex("args"); !ok {
		t.Fatal("expected 'args' global declared by builtin init")
	}
}

func TestCollectGarbageRuns(t *testing.T) {
	inst, ctx := New(0, stubCompiler{})
	stats := inst.CollectGarbage(ctx)
	if stats.TimeTotalUs < 0 {
		t.Fatalf("unexpected negative timing: %d", stats.TimeTotalUs)
	}
}

func TestSuspendResume(t *testing.T) {
	_, ctx := New(0, stubCompiler{})
	SuspendContext(ctx)
	if ctx.State() != vmctx.StateSuspended {
		t.Fatalf("state = %v, want Suspended", ctx.State())
	}
	ResumeContext(ctx)
	if ctx.State() != vmctx.StateRunning {
		t.Fatalf("state = %v, want Running", ctx.State())
	}
}

func TestLocalsRoundTrip(t *testing.T) {
	_, ctx := New(0, stubCompiler{})
	slot := InitLocalWith(ctx, value.SmallInt(42))
	if *slot != value.SmallInt(42) {
		t.Fatalf("got %v, want 42", *slot)
	}
	if ctx.NumLocals() != 1 {
		t.Fatalf("NumLocals = %d, want 1", ctx.NumLocals())
	}
	DestroyTopLocal(ctx)
	if ctx.NumLocals() != 0 {
		t.Fatalf("NumLocals = %d, want 0", ctx.NumLocals())
	}

	h := InitULocal(ctx, value.SmallInt(7))
	if *ULocalSlot(ctx, h) != value.SmallInt(7) {
		t.Fatal("ULocalSlot mismatch")
	}
	DestroyULocal(ctx, h)
	if ctx.NumLocals() != 0 {
		t.Fatalf("NumLocals = %d after DestroyULocal, want 0", ctx.NumLocals())
	}
}

func TestExceptionAPI(t *testing.T) {
	_, ctx := New(0, stubCompiler{})
	if IsPending(ctx) {
		t.Fatal("expected no pending exception initially")
	}
	RaiseCString(ctx, "boom")
	if !IsPending(ctx) {
		t.Fatal("expected pending exception after RaiseCString")
	}
	msg := FormatException(Get(ctx))
	if msg != "InvalidValue: object: invalid value: boom" {
		t.Fatalf("got %q", msg)
	}
	Clear(ctx)
	if IsPending(ctx) {
		t.Fatal("expected no pending exception after Clear")
	}
}
