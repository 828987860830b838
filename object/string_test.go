// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "testing"

func TestStringUTF8RoundTrip(t *testing.T) {
	cases := []string{"", "hello", "héllo wörld", "日本語", "\U0001F600"}
	for _, c := range cases {
		s, err := NewString(c)
		if err != nil {
			t.Fatalf("NewString(%q): %v", c, err)
		}
		b, ok := s.ToUTF8()
		if !ok {
			t.Fatalf("ToUTF8(%q) reported invalid", c)
		}
		s2, err := FromUTF8([]byte(b), false)
		if err != nil {
			t.Fatalf("FromUTF8: %v", err)
		}
		if s2.Compare(s) != 0 {
			t.Fatalf("round trip mismatch for %q: got %q", c, s2.String())
		}
	}
}

func TestStringGetNegativeIndex(t *testing.T) {
	s, _ := NewString("abcde")
	c, err := s.Get(-1)
	if err != nil || c.String() != "e" {
		t.Fatalf("Get(-1) = %v, %v; want e, nil", c, err)
	}
	if _, err := s.Get(5); err == nil {
		t.Fatal("Get(5) should be out of range")
	}
}

func TestStringSlice(t *testing.T) {
	s, _ := NewString("abcdef")
	two := int64(2)
	four := int64(4)
	sub := s.Slice(&two, &four)
	if sub.String() != "cd" {
		t.Fatalf("Slice(2,4) = %q, want cd", sub.String())
	}
}

func TestStringEscapes(t *testing.T) {
	s, err := FromUTF8([]byte(`a\tb\n\x41B`), true)
	if err != nil {
		t.Fatal(err)
	}
	if s.String() != "a\tb\nAB" {
		t.Fatalf("escaped = %q", s.String())
	}
}
