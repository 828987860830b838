// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package object implements the core entities of §3.3: String, Array,
// Buffer, Object, Function, Class, Module, Stack, and Iterator, plus
// the boxed Integer/Float and the Void/Boolean singletons. Every type
// here embeds Header and implements value.Value.
//
// This package is the generalization of the teacher's
// internal/gocore.Type/Kind/Field model (type.go) from "describe the
// layout of a value living in someone else's heap" to "be the value,
// mutably, in this process's heap".
package object

import (
	"sync/atomic"

	"github.com/kos-lang/kos-sub002/internal/core"
	"github.com/kos-lang/kos-sub002/value"
)

// Flag bits live in Header.Flags (§3.2).
const (
	FlagReadOnly uint8 = 1 << 0 // object is frozen; all mutations fail
	// FlagColorGrey/FlagColorBlack occupy the next two bits; white is
	// the absence of both, per the tri-color invariant the GC
	// package relies on (internal/gc).
	FlagColorGrey  uint8 = 1 << 1
	FlagColorBlack uint8 = 1 << 2
)

// Header begins every heap object (§3.2): a type tag, mutation/GC
// flags, the object's size in bytes, and a forwarding slot used only
// during a GC evacuation cycle.
type Header struct {
	Type    value.Kind
	flags   atomic.Uint32 // only the low byte is used; atomics let GC color bits toggle concurrently with mutators
	Size    int64
	Forward core.Address // valid only during a GC cycle; §4.4 phase 3
}

func (h *Header) Kind() value.Kind { return h.Type }

// SizeOf returns the object's recorded byte size, for GC accounting.
func (h *Header) SizeOf() int64 { return h.Size }

func (h *Header) flagsByte() uint8 { return uint8(h.flags.Load()) }

func (h *Header) IsReadOnly() bool { return h.flagsByte()&FlagReadOnly != 0 }

// Freeze sets the read-only flag. Frozen is irreversible (§3.3: "may be
// frozen"; nothing in the spec unfreezes).
func (h *Header) Freeze() { h.setFlag(FlagReadOnly) }

func (h *Header) setFlag(bit uint8) {
	for {
		old := h.flags.Load()
		nv := old | uint32(bit)
		if h.flags.CompareAndSwap(old, nv) {
			return
		}
	}
}

func (h *Header) clearFlag(bit uint8) {
	for {
		old := h.flags.Load()
		nv := old &^ uint32(bit)
		if h.flags.CompareAndSwap(old, nv) {
			return
		}
	}
}

// Color returns the GC tri-color state, encoded in the flags byte
// alongside read-only (§4.4 "Marking is color-based").
type Color uint8

const (
	ColorWhite Color = iota
	ColorGrey
	ColorBlack
)

func (h *Header) Color() Color {
	f := h.flagsByte()
	switch {
	case f&FlagColorBlack != 0:
		return ColorBlack
	case f&FlagColorGrey != 0:
		return ColorGrey
	default:
		return ColorWhite
	}
}

func (h *Header) SetColor(c Color) {
	switch c {
	case ColorWhite:
		h.clearFlag(FlagColorGrey)
		h.clearFlag(FlagColorBlack)
	case ColorGrey:
		h.setFlag(FlagColorGrey)
		h.clearFlag(FlagColorBlack)
	case ColorBlack:
		h.clearFlag(FlagColorGrey)
		h.setFlag(FlagColorBlack)
	}
}

// ReadOnlyError is returned by any mutating operation on a frozen
// object (§8: "leaves o unchanged byte-for-byte").
type ReadOnlyError struct{ Kind value.Kind }

func (e *ReadOnlyError) Error() string { return "object: " + e.Kind.String() + " is read-only" }

// OutOfRangeError is returned for index/slice bounds violations.
type OutOfRangeError struct {
	Index int64
}

func (e *OutOfRangeError) Error() string { return "object: index out of range" }

// NotFoundError is returned by Object.Get on a missing property.
type NotFoundError struct{ Key string }

func (e *NotFoundError) Error() string { return "object: property not found: " + e.Key }

// TypeError is returned when an operation is applied to a value of the
// wrong Kind.
type TypeError struct{ Got value.Kind }

func (e *TypeError) Error() string { return "object: unexpected type: " + e.Got.String() }

// InvalidValueError flags a malformed argument, e.g. invalid UTF-8
// passed where valid UTF-8 is required (§7).
type InvalidValueError struct{ Msg string }

func (e *InvalidValueError) Error() string { return "object: invalid value: " + e.Msg }

// DivisionByZeroError is raised by DIV/MOD with a zero divisor (§7).
type DivisionByZeroError struct{}

func (e *DivisionByZeroError) Error() string { return "object: division by zero" }

// OutOfMemoryError is raised when a heap or off-heap cap is exceeded,
// or a GC mark-group allocation fails mid-cycle (§7, §4.4).
type OutOfMemoryError struct{}

func (e *OutOfMemoryError) Error() string { return "object: out of memory" }

// ImportCycleError is raised by the Module Manager when loading a
// module would form an import cycle (§4.7, §7).
type ImportCycleError struct{ Name string }

func (e *ImportCycleError) Error() string { return "object: import cycle at " + e.Name }

// ModuleNotFoundError is raised when a module cannot be resolved
// against any configured search path (§4.7, §7).
type ModuleNotFoundError struct{ Name string }

func (e *ModuleNotFoundError) Error() string { return "object: module not found: " + e.Name }

// ModuleInitFailedError wraps a failure from a module's registered
// built-in initializer or its compiled top-level code (§4.7, §7).
type ModuleInitFailedError struct {
	Name string
	Err  error
}

func (e *ModuleInitFailedError) Error() string {
	return "object: module init failed: " + e.Name + ": " + e.Err.Error()
}
func (e *ModuleInitFailedError) Unwrap() error { return e.Err }

// InterruptedError is raised only by line-editing (§7); the core never
// raises it itself but recognizes it as a distinct kind for embedders
// that wire it through from a REPL.
type InterruptedError struct{}

func (e *InterruptedError) Error() string { return "object: interrupted" }

// GeneratorEndError backs the dedicated "generator end" marker
// exception (§9 Open Question resolution #3): RETURN from an
// unfinished generator frame unwinds to the call_generator caller as
// this exception rather than as a normal return value.
type GeneratorEndError struct{}

func (e *GeneratorEndError) Error() string { return "object: generator end" }

// ExceptionKind returns the §7 string tag for a Go error produced by
// this package's operations, or "Error" for anything else (a
// user-thrown value never reaches this function: THROW raises the
// thrown value directly, not a wrapped Go error).
func ExceptionKind(err error) string {
	switch err.(type) {
	case *TypeError:
		return "TypeError"
	case *OutOfRangeError:
		return "OutOfRange"
	case *ReadOnlyError:
		return "ReadOnly"
	case *NotFoundError:
		return "NotFound"
	case *DivisionByZeroError:
		return "DivisionByZero"
	case *OutOfMemoryError:
		return "OutOfMemory"
	case *InvalidValueError:
		return "InvalidValue"
	case *ImportCycleError:
		return "ImportCycle"
	case *ModuleNotFoundError:
		return "ModuleNotFound"
	case *ModuleInitFailedError:
		return "ModuleInitFailed"
	case *InterruptedError:
		return "Interrupted"
	case *GeneratorEndError:
		return "GeneratorEnd"
	default:
		return "Error"
	}
}

// ToException converts a Go error raised by this runtime's own
// operations into the catchable value a THROW/CATCH pair or a native
// caller's pending-exception slot carries (§7: "native functions
// return a sentinel value AND set the pending exception"). The result
// is a plain Object with "kind" and "message" string properties, so
// script-level catch handlers can inspect it like any other value.
func ToException(err error) *Object {
	o := NewObject(nil)
	kind, _ := NewString(ExceptionKind(err))
	msg, _ := NewString(err.Error())
	o.Set("kind", kind)
	o.Set("message", msg)
	o.Freeze()
	return o
}
