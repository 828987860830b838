// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instance

import (
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/value"
)

// InitLocal implements init_local(ctx, &slot) (§6.2, §4.5): registers
// a new LIFO root initialized to the Bad sentinel, for native code
// that's about to assign into it piecemeal.
func InitLocal(ctx *vmctx.Context) *value.Value { return ctx.PushLocal() }

// InitLocalWith implements init_local_with(ctx, &slot, value) (§6.2).
func InitLocalWith(ctx *vmctx.Context, v value.Value) *value.Value { return ctx.PushLocalWith(v) }

// InitLocals implements init_locals(ctx, &slot1, ..., end) (§6.2): a
// variadic batch of InitLocal, returned in push order so the matching
// DestroyTopLocals(ctx, len(slots)) releases them in the same call.
func InitLocals(ctx *vmctx.Context, n int) []*value.Value {
	slots := make([]*value.Value, n)
	for i := 0; i < n; i++ {
		slots[i] = ctx.PushLocal()
	}
	return slots
}

// DestroyTopLocal implements destroy_top_local (§6.2).
func DestroyTopLocal(ctx *vmctx.Context) { ctx.PopLocal() }

// DestroyTopLocals implements destroy_top_locals (§6.2): releases the
// n most recently pushed LIFO locals, in the order InitLocals's
// variadic form expects to be unwound.
func DestroyTopLocals(ctx *vmctx.Context, n int) { ctx.PopLocals(n) }

// ULocal identifies an unordered local registered via InitULocal.
type ULocal = vmctx.ULocalHandle

// InitULocal implements init_ulocal (§6.2): a root released in any
// order, for native state with no natural nesting discipline.
func InitULocal(ctx *vmctx.Context, v value.Value) ULocal { return ctx.PushULocal(v) }

// ULocalSlot returns the slot backing h, for native code to read or
// update the rooted value.
func ULocalSlot(ctx *vmctx.Context, h ULocal) *value.Value { return ctx.ULocalSlot(h) }

// DestroyULocal implements destroy_ulocal (§6.2).
func DestroyULocal(ctx *vmctx.Context, h ULocal) { ctx.PopULocal(h) }
