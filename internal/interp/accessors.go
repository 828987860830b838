// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// stringKey converts a GET/SET/DEL key register to the property name
// it must hold when recv is an Object (§4.3: object keys are always
// strings).
func stringKey(v value.Value) (string, bool) {
	s, ok := v.(*object.String)
	if !ok {
		return "", false
	}
	return s.String(), true
}

// doGet implements the polymorphic GET instruction (§4.6): numeric
// keys index Array/Buffer/String, string keys look up a property on
// Object walking its prototype chain.
func doGet(ctx interface{}, recv, key value.Value) (value.Value, error) {
	switch r := recv.(type) {
	case *object.Array:
		idx, err := asInt(key)
		if err != nil {
			return nil, err
		}
		return r.Read(idx)
	case *object.Buffer:
		idx, err := asInt(key)
		if err != nil {
			return nil, err
		}
		return r.Read(idx)
	case *object.String:
		idx, err := asInt(key)
		if err != nil {
			return nil, err
		}
		return r.Get(idx)
	case *object.Object:
		name, ok := stringKey(key)
		if !ok {
			return nil, &object.TypeError{Got: key.Kind()}
		}
		return readProp(ctx, r, name)
	default:
		return nil, &object.TypeError{Got: recv.Kind()}
	}
}

func doElemGet(recv value.Value, idx int64) (value.Value, error) {
	switch r := recv.(type) {
	case *object.Array:
		return r.Read(idx)
	case *object.Buffer:
		return r.Read(idx)
	case *object.String:
		return r.Get(idx)
	default:
		return nil, &object.TypeError{Got: recv.Kind()}
	}
}

// doPropGet implements GET.PROP8 (§4.6): a compile-time-constant name
// looked up on an Object's own properties and prototype chain. Other
// receiver kinds have no named properties in this runtime.
func doPropGet(ctx interface{}, recv value.Value, name string) (value.Value, error) {
	o, ok := recv.(*object.Object)
	if !ok {
		return nil, &object.TypeError{Got: recv.Kind()}
	}
	return readProp(ctx, o, name)
}

// readProp resolves name on o's prototype chain and, if the result is
// a dynamic-property Accessor (§4.8), calls its getter instead of
// returning the descriptor itself.
func readProp(ctx interface{}, o *object.Object, name string) (value.Value, error) {
	v, err := object.GetProto(o, name)
	if err != nil {
		return nil, err
	}
	if acc, ok := v.(*object.Accessor); ok {
		return acc.Get(ctx, o), nil
	}
	return v, nil
}

func doSet(ctx interface{}, recv, key, val value.Value) error {
	switch r := recv.(type) {
	case *object.Array:
		idx, err := asInt(key)
		if err != nil {
			return err
		}
		return r.Write(idx, val)
	case *object.Buffer:
		idx, err := asInt(key)
		if err != nil {
			return err
		}
		return r.Write(idx, val)
	case *object.Object:
		name, ok := stringKey(key)
		if !ok {
			return &object.TypeError{Got: key.Kind()}
		}
		return writeProp(ctx, r, name, val)
	default:
		return &object.TypeError{Got: recv.Kind()}
	}
}

// writeProp mirrors readProp for the write side: an Accessor reached
// via the prototype chain is called through its setter rather than
// overwritten as a plain value; one with no setter makes the property
// read-only from script code regardless of where it was found.
func writeProp(ctx interface{}, o *object.Object, name string, val value.Value) error {
	if v, err := object.GetProto(o, name); err == nil {
		if acc, ok := v.(*object.Accessor); ok {
			if acc.Set == nil {
				return &object.ReadOnlyError{Kind: value.KindAccessor}
			}
			return acc.Set(ctx, o, val)
		}
	}
	return o.Set(name, val)
}

func doElemSet(recv value.Value, idx int64, val value.Value) error {
	switch r := recv.(type) {
	case *object.Array:
		return r.Write(idx, val)
	case *object.Buffer:
		return r.Write(idx, val)
	default:
		return &object.TypeError{Got: recv.Kind()}
	}
}

func doPropSet(ctx interface{}, recv value.Value, name string, val value.Value) error {
	o, ok := recv.(*object.Object)
	if !ok {
		return &object.TypeError{Got: recv.Kind()}
	}
	return writeProp(ctx, o, name, val)
}

func doDel(recv, key value.Value) error {
	o, ok := recv.(*object.Object)
	if !ok {
		return &object.TypeError{Got: recv.Kind()}
	}
	name, ok := stringKey(key)
	if !ok {
		return &object.TypeError{Got: key.Kind()}
	}
	return o.Delete(name)
}

// doHas implements HAS.DP (own-property only) and HAS.SH (walks the
// prototype chain) for both the register-key and constant-name
// variants (§4.6).
func doHas(recv, key value.Value, shallowProto bool) bool {
	o, ok := recv.(*object.Object)
	if !ok {
		return false
	}
	name, ok := stringKey(key)
	if !ok {
		return false
	}
	if shallowProto {
		return object.HasProto(o, name)
	}
	return o.Has(name)
}

// doSlice implements GET.RANGE (§4.6) across the three sliceable
// kinds.
func doSlice(recv value.Value, begin, end *int64) (value.Value, error) {
	switch r := recv.(type) {
	case *object.Array:
		return r.Slice(begin, end), nil
	case *object.Buffer:
		return r.Slice(begin, end), nil
	case *object.String:
		return r.Slice(begin, end), nil
	default:
		return nil, &object.TypeError{Got: recv.Kind()}
	}
}
