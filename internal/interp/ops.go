// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"math"

	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// arith implements ADD/SUB/MUL/DIV/MOD (§4.1, §4.6): integer+integer
// wraps and stays integer; any float operand promotes the whole
// operation to float; anything non-numeric is a TypeError; division
// and modulo by zero are DivisionByZero.
func arith(op Opcode, a, b value.Value) (value.Value, error) {
	na, err := value.ExtractNumeric(a)
	if err != nil {
		return nil, &object.TypeError{Got: a.Kind()}
	}
	nb, err := value.ExtractNumeric(b)
	if err != nil {
		return nil, &object.TypeError{Got: b.Kind()}
	}

	if !na.IsFloat && !nb.IsFloat {
		x, y := na.I, nb.I
		switch op {
		case OpAdd:
			return value.SmallInt(x + y), nil // two's-complement wrap, per Go int64 semantics
		case OpSub:
			return value.SmallInt(x - y), nil
		case OpMul:
			return value.SmallInt(x * y), nil
		case OpDiv:
			if y == 0 {
				return nil, &object.DivisionByZeroError{}
			}
			return value.SmallInt(x / y), nil
		case OpMod:
			if y == 0 {
				return nil, &object.DivisionByZeroError{}
			}
			return value.SmallInt(x % y), nil
		}
	}

	x, y := na.AsFloat(), nb.AsFloat()
	switch op {
	case OpAdd:
		return object.NewFloat(x + y), nil
	case OpSub:
		return object.NewFloat(x - y), nil
	case OpMul:
		return object.NewFloat(x * y), nil
	case OpDiv:
		return object.NewFloat(x / y), nil
	case OpMod:
		return object.NewFloat(math.Mod(x, y)), nil
	}
	panic("interp: unreachable arith op")
}

func asInt(v value.Value) (int64, error) {
	n, err := value.ExtractNumeric(v)
	if err != nil || n.IsFloat {
		return 0, &object.TypeError{Got: v.Kind()}
	}
	return n.I, nil
}

// bitwise implements AND/OR/XOR/SHL/SHR/SHRU (§4.6): both operands
// must be integers (no float promotion for bit operations).
func bitwise(op Opcode, a, b value.Value) (value.Value, error) {
	x, err := asInt(a)
	if err != nil {
		return nil, err
	}
	y, err := asInt(b)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAnd:
		return value.SmallInt(x & y), nil
	case OpOr:
		return value.SmallInt(x | y), nil
	case OpXor:
		return value.SmallInt(x ^ y), nil
	case OpShl:
		return value.SmallInt(x << (uint(y) & 63)), nil
	case OpShr:
		return value.SmallInt(x >> (uint(y) & 63)), nil
	case OpShrU:
		return value.SmallInt(int64(uint64(x) >> (uint(y) & 63))), nil
	}
	panic("interp: unreachable bitwise op")
}

func bitwiseNot(a value.Value) (value.Value, error) {
	x, err := asInt(a)
	if err != nil {
		return nil, err
	}
	return value.SmallInt(^x), nil
}

// kindRank assigns each Kind its slot in the fixed total order of
// §4.6: "void < boolean < numeric < string < array < object". Kinds
// the spec doesn't explicitly place (buffer, function, class, module,
// stack, iterator, opaque) are ranked after object, in Kind
// declaration order — an implementation choice, since the spec only
// pins down the first six tiers.
func kindRank(k value.Kind) int {
	switch k {
	case value.KindVoid:
		return 0
	case value.KindBoolean:
		return 1
	case value.KindInteger, value.KindFloat:
		return 2
	case value.KindString:
		return 3
	case value.KindArray:
		return 4
	case value.KindObject:
		return 5
	default:
		return 6 + int(k)
	}
}

func rankOf(v value.Value) int { return kindRank(v.Kind()) }

// cmpEq implements CMP.EQ/CMP.NE's equality rule (§4.6): numerics
// compare by mathematical value (NaN != NaN); strings structurally;
// other heap values by identity; unlike kinds are always unequal.
func cmpEq(a, b value.Value) bool {
	na, aErr := value.ExtractNumeric(a)
	nb, bErr := value.ExtractNumeric(b)
	if aErr == nil && bErr == nil {
		return na.AsFloat() == nb.AsFloat() && !(na.IsFloat && math.IsNaN(na.F)) && !(nb.IsFloat && math.IsNaN(nb.F))
	}
	if as, ok := a.(*object.String); ok {
		bs, ok := b.(*object.String)
		return ok && as.Compare(bs) == 0
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a == b
}

// cmpOrder implements CMP.LE/CMP.LT's total order (§4.6). It returns
// -1, 0, or 1 the way a Compare method would; callers derive LE/LT
// from the sign.
func cmpOrder(a, b value.Value) int {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 2: // numeric
		na, _ := value.ExtractNumeric(a)
		nb, _ := value.ExtractNumeric(b)
		x, y := na.AsFloat(), nb.AsFloat()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case 3: // string
		return a.(*object.String).Compare(b.(*object.String))
	case 1: // boolean: false < true
		ab, bb := a.(*object.BoolValue).True, b.(*object.BoolValue).True
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	default:
		// void/array/object/etc of the same kind have no defined
		// intra-kind order; treat as equal for ordering purposes.
		return 0
	}
}
