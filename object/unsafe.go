// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "unsafe"

// uintptrOf gives a stable, comparable identity for lock-ordering two
// distinct Array pointers in Insert. It is never used to dereference
// memory directly.
func uintptrOf(p *Array) uintptr {
	return uintptr(unsafe.Pointer(p))
}
