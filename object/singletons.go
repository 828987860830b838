// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// Void, False, and True are the three process-wide singletons of §3.1:
// "stored at fixed global addresses and compared by identity". Go gives
// us that identity for free via pointer equality on these package-level
// vars, without needing to pin them to literal fixed addresses.
type VoidValue struct{ Header }
type BoolValue struct {
	Header
	True bool
}

var (
	Void  = &VoidValue{Header: Header{Type: value.KindVoid}}
	False = &BoolValue{Header: Header{Type: value.KindBoolean}, True: false}
	True  = &BoolValue{Header: Header{Type: value.KindBoolean}, True: true}
)

// Bool returns the canonical True or False singleton for b.
func Bool(b bool) *BoolValue {
	if b {
		return True
	}
	return False
}

// Truthy implements JUMP.COND's truthiness test (§4.6): void, false,
// and numeric zero (of any tag) are falsy; everything else, including
// NaN, empty string and empty array, is truthy.
func Truthy(v value.Value) bool {
	switch x := v.(type) {
	case value.SmallInt:
		return x != 0
	case *VoidValue:
		return false
	case *BoolValue:
		return x.True
	case *Integer:
		return x.V != 0
	case *Float:
		return x.V != 0 // NaN != 0, so NaN is truthy, matching the spec
	default:
		return true
	}
}
