// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package core provides the lowest-level memory primitives the rest of
// the runtime is built on: an Address type and a page arena that carves
// the process's own heap out of mmap'd anonymous memory.
//
// There's nothing value- or object-specific about this package; it
// could back any bump-allocated, page-organized heap. See ../../internal/heap
// for the next layer up, which turns pages into a GC'd object heap.
package core

import "fmt"

// Address is a byte address in this process's own address space, taken
// from a page the heap arena owns. Unlike the teacher's Address (which
// named a byte offset into a foreign, core-dumped process), this one
// names real addressable memory, but the arithmetic is identical.
type Address uintptr

func (a Address) Add(n int64) Address {
	return Address(int64(a) + n)
}

// Sub returns a-b.
func (a Address) Sub(b Address) int64 {
	return int64(a) - int64(b)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}

// Align rounds a up to the next multiple of n, n a power of two.
func (a Address) Align(n int64) Address {
	return Address((int64(a) + n - 1) &^ (n - 1))
}

const MinAddress Address = 0
