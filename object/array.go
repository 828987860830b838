// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"sync"

	"github.com/kos-lang/kos-sub002/value"
)

// MaxArraySize bounds array/buffer sizes to §4.3's "~2^31-1".
const MaxArraySize = 1<<31 - 1

// Array is a resizable, ordered sequence of values (§3.3). Indexed
// reads/writes and push/pop/insert/cas share a single mutex; the spec
// allows finer-grained locking (a per-slot atomic cell plus a resize
// lock) but a single mutex is observably equivalent for every
// operation this package exposes and is the simpler, still entirely
// idiomatic choice given Go's lack of a heterogeneous atomic cell.
type Array struct {
	Header
	mu   sync.Mutex
	data []value.Value
}

// NewArray allocates an array of size n, initialized to Void (§4.3).
func NewArray(n int64) (*Array, error) {
	if n < 0 || n > MaxArraySize {
		return nil, &InvalidValueError{Msg: "array size out of bounds"}
	}
	data := make([]value.Value, n)
	for i := range data {
		data[i] = Void
	}
	a := &Array{Header: Header{Type: value.KindArray, Size: n}, data: data}
	trackAlloc(a, n*8)
	return a, nil
}

func newArrayFrom(data []value.Value) *Array {
	a := &Array{Header: Header{Type: value.KindArray, Size: int64(len(data))}, data: data}
	trackAlloc(a, int64(len(data))*8)
	return a
}

func (a *Array) Len() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.data))
}

// Read returns the element at index i, supporting negative from-end
// indices.
func (a *Array) Read(i int64) (value.Value, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := normIndex(i, int64(len(a.data)))
	if idx < 0 || idx >= int64(len(a.data)) {
		return nil, &OutOfRangeError{Index: i}
	}
	return a.data[idx], nil
}

// Write stores v at index i.
func (a *Array) Write(i int64, v value.Value) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindArray}
	}
	idx := normIndex(i, int64(len(a.data)))
	if idx < 0 || idx >= int64(len(a.data)) {
		return &OutOfRangeError{Index: i}
	}
	a.data[idx] = v
	return nil
}

// Resize truncates (if n is smaller) or grows filling with Void (if n
// is larger).
func (a *Array) Resize(n int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindArray}
	}
	if n < 0 || n > MaxArraySize {
		return &InvalidValueError{Msg: "array size out of bounds"}
	}
	switch {
	case n <= int64(len(a.data)):
		a.data = a.data[:n]
	default:
		grown := make([]value.Value, n)
		copy(grown, a.data)
		for i := len(a.data); i < len(grown); i++ {
			grown[i] = Void
		}
		a.data = grown
	}
	a.Size = int64(len(a.data))
	return nil
}

// Reserve ensures capacity for at least cap elements without changing
// the visible length.
func (a *Array) Reserve(cap int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindArray}
	}
	if int64(len(a.data)) >= cap {
		return nil
	}
	grown := make([]value.Value, len(a.data), cap)
	copy(grown, a.data)
	a.data = grown
	return nil
}

// Slice returns a new, independent array over [begin,end). Per §3.3
// the result is always an independent copy (there is no borrowing
// variant for arrays the way String has one), since arrays are
// mutable and a borrowed slice view would violate the "write changes
// only the slice" expectation.
func (a *Array) Slice(begin, end *int64) *Array {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, e := clampRange(begin, end, int64(len(a.data)))
	out := make([]value.Value, e-b)
	copy(out, a.data[b:e])
	return newArrayFrom(out)
}

// Insert splices src[srcBegin:srcEnd] into dest[destBegin:destEnd],
// replacing that destination range (§4.3). dest == src (self-splice)
// is explicitly supported and requires staging the source slice before
// mutating in place, since the source and destination ranges may
// overlap.
func Insert(dest *Array, destBegin, destEnd int64, src *Array, srcBegin, srcEnd int64) error {
	if dest == src {
		dest.mu.Lock()
		defer dest.mu.Unlock()
		return spliceLocked(dest, destBegin, destEnd, dest, srcBegin, srcEnd)
	}
	// Lock in a stable order (by pointer identity) to avoid deadlock
	// against a concurrent insert the other way around.
	first, second := dest, src
	if uintptrOf(src) < uintptrOf(dest) {
		first, second = src, dest
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()
	return spliceLocked(dest, destBegin, destEnd, src, srcBegin, srcEnd)
}

// spliceLocked assumes dest and src (which may be identical) are
// already locked by the caller.
func spliceLocked(dest *Array, destBegin, destEnd int64, src *Array, srcBegin, srcEnd int64) error {
	if dest.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindArray}
	}
	db, de := clampRange(&destBegin, &destEnd, int64(len(dest.data)))
	sb, se := clampRange(&srcBegin, &srcEnd, int64(len(src.data)))

	// Stage the source slice: if dest == src this is mandatory because
	// the splice below may overwrite the very region we're reading.
	staged := make([]value.Value, se-sb)
	copy(staged, src.data[sb:se])

	head := dest.data[:db]
	tail := append([]value.Value{}, dest.data[de:]...)
	out := append(append(append([]value.Value{}, head...), staged...), tail...)
	dest.data = out
	dest.Size = int64(len(out))
	return nil
}

// Push appends v and returns its new index.
func (a *Array) Push(v value.Value) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.IsReadOnly() {
		return 0, &ReadOnlyError{Kind: value.KindArray}
	}
	a.data = append(a.data, v)
	a.Size = int64(len(a.data))
	return int64(len(a.data) - 1), nil
}

// Pop removes and returns the last element.
func (a *Array) Pop() (value.Value, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.IsReadOnly() {
		return nil, &ReadOnlyError{Kind: value.KindArray}
	}
	if len(a.data) == 0 {
		return nil, &OutOfRangeError{}
	}
	v := a.data[len(a.data)-1]
	a.data = a.data[:len(a.data)-1]
	a.Size = int64(len(a.data))
	return v, nil
}

// Fill sets every slot in [begin,end) to v.
func (a *Array) Fill(begin, end *int64, v value.Value) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindArray}
	}
	b, e := clampRange(begin, end, int64(len(a.data)))
	for i := b; i < e; i++ {
		a.data[i] = v
	}
	return nil
}

// CAS atomically compares slot i to expected and, if equal, stores
// newVal, returning the slot's prior value either way (§4.3, §8).
func (a *Array) CAS(i int64, expected, newVal value.Value) (value.Value, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.IsReadOnly() {
		return value.Bad, &ReadOnlyError{Kind: value.KindArray}
	}
	idx := normIndex(i, int64(len(a.data)))
	if idx < 0 || idx >= int64(len(a.data)) {
		return value.Bad, &OutOfRangeError{Index: i}
	}
	prev := a.data[idx]
	if sameValue(prev, expected) {
		a.data[idx] = newVal
	}
	return prev, nil
}

// sameValue is an identity/primitive-equality test suitable for CAS's
// "expected" comparison: small ints and booleans compare by value,
// everything else (including boxed numbers) by pointer identity. This
// mirrors CMP.EQ's heap-identity rule for non-primitive kinds.
func sameValue(a, b value.Value) bool {
	if a == b {
		return true
	}
	ai, aok := a.(value.SmallInt)
	bi, bok := b.(value.SmallInt)
	if aok && bok {
		return ai == bi
	}
	return false
}
