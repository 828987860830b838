// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/kos-lang/kos-sub002/value"

// Opaque wraps private native state as a first-class value (§3.1),
// for native APIs that want to hand a handle back to script code
// without exposing it through an Object's property map.
type Opaque struct {
	Header
	Ptr       interface{}
	finalizer Finalizer
}

func NewOpaque(ptr interface{}, fin Finalizer) *Opaque {
	o := &Opaque{Header: Header{Type: value.KindOpaque}, Ptr: ptr, finalizer: fin}
	trackAlloc(o, 16)
	if fin != nil {
		track(o)
	}
	return o
}

func (o *Opaque) RunFinalizer() {
	fin := o.finalizer
	o.finalizer = nil
	if fin != nil {
		fin(o.Ptr)
	}
}
