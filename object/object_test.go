// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"testing"

	"github.com/kos-lang/kos-sub002/value"
)

func TestObjectGetSetHasDelete(t *testing.T) {
	o := NewObject(nil)
	if _, err := o.Get("x"); err == nil {
		t.Fatal("Get on missing key should fail")
	}
	if v := o.GetOpt("x"); v != Void {
		t.Fatalf("GetOpt on missing key = %v, want Void", v)
	}
	if err := o.Set("x", value.SmallInt(1)); err != nil {
		t.Fatal(err)
	}
	if !o.Has("x") {
		t.Fatal("Has(x) should be true")
	}
	if err := o.Delete("x"); err != nil {
		t.Fatal(err)
	}
	if o.Has("x") {
		t.Fatal("Has(x) should be false after delete")
	}
	if err := o.Delete("x"); err != nil {
		t.Fatal("Delete on missing key should be a no-op, not an error")
	}
}

func TestObjectFrozen(t *testing.T) {
	o := NewObject(nil)
	o.Set("x", value.SmallInt(1))
	o.Freeze()
	if err := o.Set("x", value.SmallInt(2)); err == nil {
		t.Fatal("Set on frozen object should fail")
	}
	if err := o.Delete("x"); err == nil {
		t.Fatal("Delete on frozen object should fail")
	}
}

func TestObjectPrototypeChain(t *testing.T) {
	base := NewObject(nil)
	base.Set("greeting", value.SmallInt(1))
	derived := NewObject(base)

	if derived.Has("greeting") {
		t.Fatal("shallow Has should not see prototype properties")
	}
	if !HasProto(derived, "greeting") {
		t.Fatal("HasProto should see prototype properties")
	}
	v, err := GetProto(derived, "greeting")
	if err != nil || v != value.SmallInt(1) {
		t.Fatalf("GetProto = %v, %v", v, err)
	}
}

func TestObjectPrivateState(t *testing.T) {
	type keyA struct{}
	type keyB struct{}
	o := NewObject(nil)
	released := false
	o.SetPrivate(keyA{}, 42, func(p interface{}) { released = true })

	if _, ok := o.GetPrivate(keyB{}); ok {
		t.Fatal("GetPrivate with wrong key should fail")
	}
	p, ok := o.GetPrivate(keyA{})
	if !ok || p.(int) != 42 {
		t.Fatalf("GetPrivate = %v, %v", p, ok)
	}
	o.RunFinalizer()
	if !released {
		t.Fatal("finalizer should have run")
	}
	o.RunFinalizer() // must be safe to call again; must not re-run
	if _, ok := o.GetPrivate(keyA{}); ok {
		t.Fatal("private state should be cleared after finalizer runs")
	}
}
