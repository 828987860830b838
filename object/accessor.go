// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// NativeGetter/NativeSetter are the native callback shapes a dynamic
// property's getter/setter pair installs (§4.8). ctx is an interface{}
// for the same reason NativeHandler's is: avoiding an import cycle
// with vmctx.
type NativeGetter func(ctx interface{}, this value.Value) value.Value
type NativeSetter func(ctx interface{}, this value.Value, val value.Value) error

// Accessor is the dynamic-property descriptor a builtin registers on a
// prototype in place of a plain stored value (§4.8: "dynamic
// properties: getter and optional setter pair"). GET.PROP8/SET.PROP8
// recognize one reached through an object's prototype chain and call
// through it instead of treating it as an ordinary property value; a
// nil Set makes the property read-only from script code.
type Accessor struct {
	Header
	Get NativeGetter
	Set NativeSetter
}

func NewAccessor(get NativeGetter, set NativeSetter) *Accessor {
	return &Accessor{Header: Header{Type: value.KindAccessor}, Get: get, Set: set}
}
