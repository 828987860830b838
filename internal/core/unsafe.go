// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import "unsafe"

// addressOf returns the address of the first byte of b's backing array.
// b must be non-empty and, for our purposes, mmap-backed so its address
// is stable for the lifetime of the mapping.
func addressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}
