// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import "testing"

func TestLoadUimm(t *testing.T) {
	cases := []struct {
		buf  []byte
		want uint64
		size int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x7f}, 0x7f, 1},
		{[]byte{0x80, 0x01}, 0x80, 2},
		{[]byte{0xff, 0x01}, 0xff, 2},
	}
	for _, c := range cases {
		got, n := LoadUimm(c.buf)
		if got != c.want || n != c.size {
			t.Errorf("LoadUimm(%v) = %d, %d; want %d, %d", c.buf, got, n, c.want, c.size)
		}
	}
}

func TestLoadSimm(t *testing.T) {
	cases := []struct {
		buf  []byte
		want int64
		size int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x01}, -1, 1},
		{[]byte{0x7e}, 63, 1},
		{[]byte{0x7f}, -64, 1},
		{[]byte{0x80, 0x01}, 64, 2},
		{[]byte{0x81, 0x01}, -65, 2},
	}
	for _, c := range cases {
		got, n := LoadSimm(c.buf)
		if got != c.want || n != c.size {
			t.Errorf("LoadSimm(%v) = %d, %d; want %d, %d", c.buf, got, n, c.want, c.size)
		}
	}
}

func TestEncodeSimmRoundTrip(t *testing.T) {
	for _, v := range []int64{0, -1, 63, -64, 64, -65, 1000, -1000, 1 << 20, -(1 << 20)} {
		buf := encodeSimm(v)
		got, n := LoadSimm(buf)
		if got != v || n != len(buf) {
			t.Errorf("round trip %d: got %d (read %d of %d bytes)", v, got, n, len(buf))
		}
	}
}
