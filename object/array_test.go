// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"testing"

	"github.com/kos-lang/kos-sub002/value"
)

func TestArrayBoundsWraparound(t *testing.T) {
	a, err := NewArray(5)
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(0); i < 5; i++ {
		if err := a.Write(i, value.SmallInt(i)); err != nil {
			t.Fatal(err)
		}
	}

	if v, err := a.Read(-1); err != nil || v != value.SmallInt(4) {
		t.Fatalf("Read(-1) = %v, %v; want 4, nil", v, err)
	}
	if v, err := a.Read(-5); err != nil || v != value.SmallInt(0) {
		t.Fatalf("Read(-5) = %v, %v; want 0, nil", v, err)
	}
	if _, err := a.Read(5); err == nil {
		t.Fatal("Read(5) should be OutOfRange")
	}
	if _, err := a.Read(-6); err == nil {
		t.Fatal("Read(-6) should be OutOfRange")
	}
}

func TestArraySelfSplice(t *testing.T) {
	a, _ := NewArray(10)
	for i := int64(0); i < 10; i++ {
		a.Write(i, value.SmallInt(i))
	}
	if err := Insert(a, 3, 8, a, 5, 7); err != nil {
		t.Fatal(err)
	}
	want := []int64{0, 1, 2, 5, 6, 8, 9}
	if a.Len() != int64(len(want)) {
		t.Fatalf("len = %d, want %d", a.Len(), len(want))
	}
	for i, w := range want {
		v, err := a.Read(int64(i))
		if err != nil {
			t.Fatal(err)
		}
		if v != value.SmallInt(w) {
			t.Fatalf("a[%d] = %v, want %d", i, v, w)
		}
	}
}

func TestArrayFrozen(t *testing.T) {
	a, _ := NewArray(2)
	a.Write(0, value.SmallInt(10))
	a.Write(1, value.SmallInt(20))
	a.Freeze()

	if err := a.Write(0, Void); err == nil {
		t.Fatal("Write on frozen array should fail")
	}
	if _, err := a.Push(value.SmallInt(42)); err == nil {
		t.Fatal("Push on frozen array should fail")
	}
	if prev, err := a.CAS(0, value.SmallInt(10), value.SmallInt(30)); err == nil || prev != value.Bad {
		t.Fatalf("CAS on frozen array = %v, %v; want Bad, ReadOnly error", prev, err)
	}
	if v, _ := a.Read(0); v != value.SmallInt(10) {
		t.Fatalf("a[0] = %v, want 10 (unchanged)", v)
	}
	if v, _ := a.Read(1); v != value.SmallInt(20) {
		t.Fatalf("a[1] = %v, want 20 (unchanged)", v)
	}
}

func TestArrayCAS(t *testing.T) {
	a, _ := NewArray(1)
	a.Write(0, value.SmallInt(5))
	prev, err := a.CAS(0, value.SmallInt(5), value.SmallInt(5))
	if err != nil || prev != value.SmallInt(5) {
		t.Fatalf("CAS(5,5) = %v, %v; want 5, nil", prev, err)
	}
	v, _ := a.Read(0)
	if v != value.SmallInt(5) {
		t.Fatalf("a[0] = %v, want unchanged 5", v)
	}
}

func TestArrayPopEmpty(t *testing.T) {
	a, _ := NewArray(0)
	if _, err := a.Pop(); err == nil {
		t.Fatal("Pop on empty array should be OutOfRange")
	}
}
