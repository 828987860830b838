// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"sync"

	"github.com/kos-lang/kos-sub002/value"
)

// Buffer is a resizable byte sequence (§3.3) with the same mutability
// discipline as Array: reads/writes traffic in small integers 0..=255.
type Buffer struct {
	Header
	mu   sync.Mutex
	data []byte
}

func NewBuffer(n int64) (*Buffer, error) {
	if n < 0 || n > MaxArraySize {
		return nil, &InvalidValueError{Msg: "buffer size out of bounds"}
	}
	b := &Buffer{Header: Header{Type: value.KindBuffer, Size: n}, data: make([]byte, n)}
	trackAlloc(b, n)
	return b, nil
}

func (b *Buffer) Len() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.data))
}

func (b *Buffer) Read(i int64) (value.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := normIndex(i, int64(len(b.data)))
	if idx < 0 || idx >= int64(len(b.data)) {
		return nil, &OutOfRangeError{Index: i}
	}
	return value.SmallInt(b.data[idx]), nil
}

func (b *Buffer) Write(i int64, v value.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindBuffer}
	}
	idx := normIndex(i, int64(len(b.data)))
	if idx < 0 || idx >= int64(len(b.data)) {
		return &OutOfRangeError{Index: i}
	}
	n, err := byteOf(v)
	if err != nil {
		return err
	}
	b.data[idx] = n
	return nil
}

func byteOf(v value.Value) (byte, error) {
	num, err := value.ExtractNumeric(v)
	if err != nil {
		return 0, &TypeError{Got: v.Kind()}
	}
	n := num.I
	if num.IsFloat {
		n = int64(num.F)
	}
	if n < 0 || n > 255 {
		return 0, &InvalidValueError{Msg: "byte value out of range"}
	}
	return byte(n), nil
}

func (b *Buffer) Resize(n int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindBuffer}
	}
	if n < 0 || n > MaxArraySize {
		return &InvalidValueError{Msg: "buffer size out of bounds"}
	}
	switch {
	case n <= int64(len(b.data)):
		b.data = b.data[:n]
	default:
		grown := make([]byte, n)
		copy(grown, b.data)
		b.data = grown
	}
	b.Size = int64(len(b.data))
	return nil
}

func (b *Buffer) Slice(begin, end *int64) *Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	lo, hi := clampRange(begin, end, int64(len(b.data)))
	out := make([]byte, hi-lo)
	copy(out, b.data[lo:hi])
	return &Buffer{Header: Header{Type: value.KindBuffer, Size: int64(len(out))}, data: out}
}

func (b *Buffer) Fill(begin, end *int64, v value.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.IsReadOnly() {
		return &ReadOnlyError{Kind: value.KindBuffer}
	}
	n, err := byteOf(v)
	if err != nil {
		return err
	}
	lo, hi := clampRange(begin, end, int64(len(b.data)))
	for i := lo; i < hi; i++ {
		b.data[i] = n
	}
	return nil
}

// Bytes returns a copy of the buffer's contents.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}
