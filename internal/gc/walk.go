// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gc implements §4.4: the multi-threaded mark-and-evacuate
// collector. Marking is a grey-worklist walk generalized directly from
// the teacher's internal/gocore.markObjects (object.go) — that
// function drains a worklist of core.Address into a mark bitmap by
// repeatedly popping an object, scanning its pointer fields, and
// pushing anything newly discovered. This package does the same thing
// over live, mutable Go heap objects instead of a read-only core-dump
// snapshot, and does the draining from multiple goroutines at once.
package gc

import (
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// walkEdges calls fn for every value.Value directly reachable from v
// (one level of pointer fields, not transitive). This is the
// per-Kind analogue of the teacher's walkRootTypePtrs (root.go),
// generalized from "walk a typed region description" to "walk a live
// object's own fields", dispatched with a type switch per §9's
// guidance to avoid vtable dispatch on the hot marking path.
func walkEdges(v value.Value, fn func(value.Value)) {
	switch x := v.(type) {
	case *object.Object:
		x.Walk(fn)
	case *object.Array:
		n := x.Len()
		for i := int64(0); i < n; i++ {
			if e, err := x.Read(i); err == nil && e != nil {
				fn(e)
			}
		}
	case *object.Module:
		x.Walk(fn)
	case *object.Stack:
		x.Walk(fn)
	case *object.Iterator:
		x.Walk(fn)
	case *object.Function:
		if x.Module != nil {
			fn(x.Module)
		}
		if x.Prototype != nil {
			fn(x.Prototype)
		}
		for _, a := range x.Args {
			if a.Default != nil {
				fn(a.Default)
			}
		}
	case *object.Class:
		if x.Module != nil {
			fn(x.Module)
		}
		if x.Prototype != nil {
			fn(x.Prototype)
		}
	// String, Buffer, Integer, Float, Void, Boolean, Opaque, and
	// SmallInt have no outgoing pointer edges.
	default:
	}
}

// header is implemented by every heap object type (via embedded
// object.Header) and lets the collector manipulate tri-color state and
// forwarding generically.
type header interface {
	value.Value
	Color() object.Color
	SetColor(object.Color)
	SizeOf() int64
}

func headerOf(v value.Value) (header, bool) {
	h, ok := v.(header)
	return h, ok
}
