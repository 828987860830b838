// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// FuncFlags distinguishes the several invocation disciplines a
// Function can have (§3.3).
type FuncFlags uint8

const (
	FuncPlain FuncFlags = 1 << iota
	FuncConstructor
	FuncGeneratorInit // first call: builds and returns an Iterator
	FuncGeneratorResumable
)

// NativeHandler is the opaque native-function callback signature of
// §6.2/§6.4/§9: "fn(ctx, this, args_array) -> value". ctx is an
// interface{} here (and not internal/vmctx.Context) purely to avoid an
// import cycle between object and vmctx; the interpreter and builtin
// packages cast it to *vmctx.Context before use.
type NativeHandler func(ctx interface{}, this value.Value, args *Array) value.Value

// ArgDescriptor names one formal parameter for a Function, its default
// value (nil meaning "mandatory"), and an optional native-ABI
// extraction hint (§4.8).
type ArgDescriptor struct {
	Name     string
	Default  value.Value // nil => mandatory
	ABIHint  string      // e.g. "int", "string", "" for none
}

// Function bundles everything needed to invoke either compiled
// bytecode or a native handler (§3.3).
type Function struct {
	Header

	Module  *Module // nil for a native-only function with no owning module
	Entry   int64   // bytecode offset; unused if Native != nil
	Native  NativeHandler

	NumRegs int
	Args    []ArgDescriptor
	Flags   FuncFlags

	// Prototype is set for constructors/classes: the Object newly
	// constructed instances inherit from.
	Prototype value.Value
}

func (f *Function) IsNative() bool { return f.Native != nil }

func (f *Function) IsGenerator() bool {
	return f.Flags&(FuncGeneratorInit|FuncGeneratorResumable) != 0
}

func (f *Function) IsConstructor() bool { return f.Flags&FuncConstructor != 0 }

// Class is a Function whose invocation constructs an Object with a
// given prototype (§3.3). It embeds Function rather than wrapping it
// so that a Class value is usable anywhere a Function is (CALL treats
// them identically save for the "construct, don't just invoke" step).
type Class struct {
	Function
}

func NewClass(fn Function, proto value.Value) *Class {
	fn.Flags |= FuncConstructor
	fn.Prototype = proto
	c := &Class{Function: fn}
	c.Type = value.KindClass
	trackAlloc(c, 64)
	return c
}
