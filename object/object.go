// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"sync"

	"github.com/kos-lang/kos-sub002/value"
)

// Finalizer releases an Object's private native state. It runs at or
// after the object is collected, exactly once, never while the heap
// lock is held, and never re-enters the interpreter (§4.4, §9).
type Finalizer func(priv interface{})

// privateSlot holds an Object's private native state, keyed by the
// type key used at Set (§4.3: "retrieval requires the same type key
// used at set").
type privateSlot struct {
	key       interface{}
	ptr       interface{}
	finalizer Finalizer
}

// Object is a mutable property map from string keys to values, with an
// optional prototype and optional private native state (§3.3).
type Object struct {
	Header
	mu        sync.Mutex
	props     map[string]value.Value
	order     []string // insertion order, for shallow iteration
	prototype value.Value
	private   *privateSlot
}

func NewObject(prototype value.Value) *Object {
	if prototype == nil {
		prototype = Void
	}
	o := &Object{
		Header:    Header{Type: value.KindObject},
		props:     make(map[string]value.Value),
		prototype: prototype,
	}
	trackAlloc(o, 64)
	return o
}

// Get returns the value at key. A missing key is a NotFoundError; keys
// on non-object-family receivers are out of scope for this type (the
// interpreter's GET.* handlers apply the "TypeError on property-less
// receivers" rule from §4.3 before ever calling Object.Get).
func (o *Object) Get(key string) (value.Value, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v, ok := o.props[key]; ok {
		return v, nil
	}
	return nil, &NotFoundError{Key: key}
}

// GetOpt is Get's total counterpart: a missing key yields Void instead
// of an error (§4.3's get_opt).
func (o *Object) GetOpt(key string) value.Value {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v, ok := o.props[key]; ok {
		return v
	}
	return Void
}

// GetProto walks the prototype chain looking for key.
func GetProto(start value.Value, key string) (value.Value, error) {
	cur := start
	for {
		o, ok := cur.(*Object)
		if !ok {
			break
		}
		if v, ok := o.props[key]; ok {
			return v, nil
		}
		cur = o.prototype
	}
	return nil, &NotFoundError{Key: key}
}

func (o *Object) Set(key string, v value.Value) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindObject}
	}
	if _, exists := o.props[key]; !exists {
		o.order = append(o.order, key)
	}
	o.props[key] = v
	return nil
}

func (o *Object) Has(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.props[key]
	return ok
}

func HasProto(start value.Value, key string) bool {
	_, err := GetProto(start, key)
	return err == nil
}

func (o *Object) Delete(key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindObject}
	}
	if _, ok := o.props[key]; !ok {
		return nil // no-op if missing
	}
	delete(o.props, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return nil
}

func (o *Object) SetPrototype(p value.Value) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindObject}
	}
	o.prototype = p
	return nil
}

func (o *Object) GetPrototype() value.Value {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prototype
}

// SetPrivate installs native state behind a type key and a finalizer
// to release it on collection.
func (o *Object) SetPrivate(key interface{}, ptr interface{}, fin Finalizer) {
	o.mu.Lock()
	o.private = &privateSlot{key: key, ptr: ptr, finalizer: fin}
	o.mu.Unlock()
	if fin != nil {
		track(o)
	}
}

// GetPrivate retrieves native state set under the same type key, or
// (nil, false) if absent or the key doesn't match.
func (o *Object) GetPrivate(key interface{}) (interface{}, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.private == nil || o.private.key != key {
		return nil, false
	}
	return o.private.ptr, true
}

// RunFinalizer invokes and clears the private-state finalizer, if any.
// Called by the GC's finish phase (§4.4) for unmarked objects; never
// called more than once per object.
func (o *Object) RunFinalizer() {
	o.mu.Lock()
	p := o.private
	o.private = nil
	o.mu.Unlock()
	if p != nil && p.finalizer != nil {
		p.finalizer(p.ptr)
	}
}

// Keys returns property keys in insertion order (shallow).
func (o *Object) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// KeysProto returns keys walking the prototype chain, outer object's
// keys first, skipping names already seen on a more derived object.
func KeysProto(start value.Value) []string {
	seen := make(map[string]bool)
	var out []string
	cur := start
	for {
		o, ok := cur.(*Object)
		if !ok {
			break
		}
		for _, k := range o.Keys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
		cur = o.prototype
	}
	return out
}

// Walk calls fn on every value o references directly: its prototype
// and each property value — used by the GC's mark phase to walk an
// Object's edges.
func (o *Object) Walk(fn func(value.Value)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.prototype)
	for _, v := range o.props {
		fn(v)
	}
}
