// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// Integer is the boxed 64-bit integer heap type (§3.1), used whenever a
// value does not fit in a SmallInt immediate.
type Integer struct {
	Header
	V int64
}

func NewInteger(v int64) *Integer {
	i := &Integer{Header: Header{Type: value.KindInteger, Size: 8}, V: v}
	trackAlloc(i, 8)
	return i
}

func (i *Integer) Numeric() value.Numeric { return value.Numeric{I: i.V} }

// Float is the boxed 64-bit IEEE float heap type (§3.1). Unlike
// Integer, Float values are always heap-allocated; there is no
// small-float immediate encoding.
type Float struct {
	Header
	V float64
}

func NewFloat(v float64) *Float {
	f := &Float{Header: Header{Type: value.KindFloat, Size: 8}, V: v}
	trackAlloc(f, 8)
	return f
}

func (f *Float) Numeric() value.Numeric { return value.Numeric{IsFloat: true, F: f.V} }
