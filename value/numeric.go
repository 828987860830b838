// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "errors"

// ErrNotNumeric is returned by ExtractNumeric when v is neither a
// small integer, a boxed Integer/Float heap object, nor anything else
// implementing NumericLike. Callers translate this into a TypeError
// exception (§4.1: "string arguments are rejected for arithmetic").
var ErrNotNumeric = errors.New("value: not numeric")

// Numeric is the sum type `Integer(i64) | Float(f64)` that arithmetic
// and explicit numeric conversions extract from a Value (§4.1).
type Numeric struct {
	IsFloat bool
	I       int64
	F       float64
}

// AsFloat returns the numeric's value widened to float64, regardless
// of which arm is populated. Used to evaluate mixed int/float
// arithmetic, which always promotes to float (§4.6).
func (n Numeric) AsFloat() float64 {
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}

// NumericLike is implemented by heap objects that box a number:
// object.Integer and object.Float. It lets ExtractNumeric handle boxed
// numbers without package value importing package object.
type NumericLike interface {
	Value
	Numeric() Numeric
}

// ExtractNumeric accepts a small integer, a boxed integer or float, or
// any other NumericLike value, and yields the Integer(i64)|Float(f64)
// sum type. Strings and every other Kind are rejected: arithmetic must
// not silently coerce strings, though explicit conversion helpers are
// free to use ExtractNumeric's result more loosely.
func ExtractNumeric(v Value) (Numeric, error) {
	switch x := v.(type) {
	case SmallInt:
		return Numeric{I: int64(x)}, nil
	case NumericLike:
		return x.Numeric(), nil
	default:
		return Numeric{}, ErrNotNumeric
	}
}
