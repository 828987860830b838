// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"math"
	"testing"

	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// TestComparisonTotalOrder exercises CMP.LT/CMP.EQ/CMP.NE's total
// order across unlike kinds (§4.6): void ranks below boolean, boolean
// below numeric (false < true), numeric below string, and NaN compares
// unequal to itself under CMP.EQ/CMP.NE the way IEEE 754 requires even
// though cmpOrder still needs a total order to return from.
func TestComparisonTotalOrder(t *testing.T) {
	str0, err := object.NewString("0")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}

	cases := []struct {
		name string
		a, b value.Value
	}{
		{"void < false", object.Void, object.False},
		{"false < true", object.False, object.True},
		{"true < 0", object.True, value.SmallInt(0)},
		{"1 < \"0\"", value.SmallInt(1), str0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := cmpOrder(c.a, c.b); got >= 0 {
				t.Fatalf("cmpOrder(%v, %v) = %d, want < 0", c.a, c.b, got)
			}
		})
	}

	nan := object.NewFloat(math.NaN())
	if cmpEq(nan, nan) {
		t.Fatal("cmpEq(NaN, NaN) = true, want false")
	}
	if !(!cmpEq(nan, nan)) {
		t.Fatal("CMP.NE(NaN, NaN) should be true")
	}
}

// TestArithPromotionAndIntegerDivision exercises §4.1/§4.6's numeric
// tower: an integer operand mixed with a float promotes the whole op
// to float, two small-ints stay integer (truncating division), and
// MOD follows math.Mod's sign-of-dividend rule for floats.
func TestArithPromotionAndIntegerDivision(t *testing.T) {
	sum, err := arith(OpAdd, value.SmallInt(1), object.NewFloat(1.0))
	if err != nil {
		t.Fatalf("arith(ADD): %v", err)
	}
	if f, ok := sum.(*object.Float); !ok || f.V != 2.0 {
		t.Fatalf("1 + 1.0 = %v, want float 2.0", sum)
	}

	quot, err := arith(OpDiv, value.SmallInt(6), value.SmallInt(4))
	if err != nil {
		t.Fatalf("arith(DIV): %v", err)
	}
	if quot != value.SmallInt(1) {
		t.Fatalf("6 / 4 = %v, want integer 1", quot)
	}

	half, err := arith(OpDiv, object.NewFloat(1.0), value.SmallInt(2))
	if err != nil {
		t.Fatalf("arith(DIV): %v", err)
	}
	if f, ok := half.(*object.Float); !ok || f.V != 0.5 {
		t.Fatalf("1.0 / 2 = %v, want float 0.5", half)
	}

	mod, err := arith(OpMod, object.NewFloat(2.0), object.NewFloat(-3.0))
	if err != nil {
		t.Fatalf("arith(MOD): %v", err)
	}
	if f, ok := mod.(*object.Float); !ok || f.V != 2.0 {
		t.Fatalf("2.0 %% -3.0 = %v, want float 2.0", mod)
	}
}
