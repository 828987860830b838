// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package builtin implements §4.8: the Builtin Registration API a
// host program uses to expose native functionality to script code —
// plain functions, constructors, member functions on a prototype,
// generators, and dynamic properties — each backed by a Handler with
// the native-function shape `fn(ctx, this, args_array) -> value`
// (§6.2, §9).
//
// This is the generalization of the teacher's cmd/viewcore command
// registration (each cobra.Command wraps a Go func and a flag set)
// to runtime-level registration: here the "commands" are script-
// callable natives and the "flags" are ArgDescriptors, but the shape
// of "name + handler + arg metadata -> one entry in a dispatch table"
// is the same idiom.
package builtin

import (
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// Handler is the typed native-function shape this package's callers
// write against. object.NativeHandler's ctx parameter is interface{}
// purely to keep package object free of a vmctx import; every
// registration helper below re-wraps a Handler into a NativeHandler
// once and for all at registration time so call sites never see the
// untyped form.
type Handler func(ctx *vmctx.Context, this value.Value, args *object.Array) value.Value

func wrap(h Handler) object.NativeHandler {
	return func(ctx interface{}, this value.Value, args *object.Array) value.Value {
		return h(ctx.(*vmctx.Context), this, args)
	}
}

// Raise sets ctx's pending exception from a Go error and returns the
// Bad sentinel, for a Handler body to use as `return builtin.Raise(ctx, err)`
// (§7: "native functions return a sentinel value AND set the pending
// exception").
func Raise(ctx *vmctx.Context, err error) value.Value {
	ctx.Raise(object.ToException(err))
	return value.Bad
}

// RegisterFunction builds a plain native Function (§4.8) with the
// given argument descriptors. The caller is responsible for installing
// it wherever script code should see it (a module global, an object
// property, …).
func RegisterFunction(args []object.ArgDescriptor, h Handler) *object.Function {
	return &object.Function{
		Header: object.Header{Type: value.KindFunction},
		Native: wrap(h),
		Args:   args,
		Flags:  object.FuncPlain,
	}
}

// RegisterConstructor builds a native Class (§4.8: "constructors which
// additionally return a prototype handle"): calling it constructs an
// Object inheriting from the returned prototype, which the caller
// populates via RegisterMemberFunction/RegisterDynamicProperty before
// handing the Class out to script code. protoParent is the prototype's
// own parent in the chain (object.Void for none).
func RegisterConstructor(args []object.ArgDescriptor, protoParent value.Value, h Handler) (*object.Class, *object.Object) {
	proto := object.NewObject(protoParent)
	fn := object.Function{
		Header: object.Header{Type: value.KindFunction},
		Native: wrap(h),
		Args:   args,
	}
	return object.NewClass(fn, proto), proto
}

// RegisterMemberFunction installs a native method under name on proto
// (§4.8: "member functions on a given prototype"), reachable from any
// instance via the usual GET.PROP8 prototype-chain walk.
func RegisterMemberFunction(proto *object.Object, name string, args []object.ArgDescriptor, h Handler) error {
	fn := RegisterFunction(args, h)
	return proto.Set(name, fn)
}

// RegisterDynamicProperty installs a getter/optional-setter pair under
// name on proto as an object.Accessor (§4.8: "dynamic properties:
// getter and optional setter pair"). A nil set makes the property
// read-only from script code; GET.PROP8/SET.PROP8 recognize the
// Accessor through the interpreter's readProp/writeProp helpers
// (internal/interp/accessors.go) rather than ever exposing it as a
// plain value.
func RegisterDynamicProperty(
	proto *object.Object,
	name string,
	get func(ctx *vmctx.Context, this value.Value) value.Value,
	set func(ctx *vmctx.Context, this value.Value, val value.Value) error,
) error {
	var nget object.NativeGetter = func(ctx interface{}, this value.Value) value.Value {
		return get(ctx.(*vmctx.Context), this)
	}
	var nset object.NativeSetter
	if set != nil {
		nset = func(ctx interface{}, this value.Value, val value.Value) error {
			return set(ctx.(*vmctx.Context), this, val)
		}
	}
	return proto.Set(name, object.NewAccessor(nget, nset))
}
