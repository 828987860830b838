// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"sync"

	"github.com/kos-lang/kos-sub002/value"
)

// LineEntry maps a bytecode offset to a source line, for error
// messages and disassembly (§3.3: "address-to-source-line map").
type LineEntry struct {
	Offset int64
	Line   int32
}

// Module is the heap-resident record for one loaded compilation unit
// (§3.3). The Module Manager (package module) is responsible for
// building, installing, and indexing these; this type only holds the
// data a Module value carries once loaded.
type Module struct {
	Header

	Name string
	Path string

	Bytecode []byte
	Consts   []value.Value

	mu          sync.Mutex
	globalNames map[string]int
	globals     []value.Value

	SearchPaths []string
	Lines       []LineEntry

	// Imports is the table GET.MOD/GET.MOD.ELEM/GET.MOD.GLOBAL index
	// into (§4.6): the modules this one imported, in import order,
	// populated by the Module Manager at load time.
	Imports []*Module

	private   *privateSlot
	finalizer Finalizer
}

func NewModule(name, path string, bytecode []byte, consts []value.Value) *Module {
	m := &Module{
		Header:      Header{Type: value.KindModule},
		Name:        name,
		Path:        path,
		Bytecode:    bytecode,
		Consts:      consts,
		globalNames: make(map[string]int),
	}
	trackAlloc(m, int64(len(bytecode)))
	return m
}

// DeclareGlobal registers a new global name, acquiring the module's
// lock (§5: "registration of a new global acquires a per-module
// lock"). Returns the global's slot index.
func (m *Module) DeclareGlobal(name string, initial value.Value) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.globalNames[name]; ok {
		m.globals[idx] = initial
		return idx
	}
	idx := len(m.globals)
	m.globalNames[name] = idx
	m.globals = append(m.globals, initial)
	return idx
}

// GlobalIndex resolves name to a slot index without locking beyond the
// map read; reads of existing globals are lock-free per §5, so this
// only takes the lock for the name lookup itself, consistent with the
// teacher's module.go pattern of a single guarded index plus lock-free
// array reads.
func (m *Module) GlobalIndex(name string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.globalNames[name]
	return idx, ok
}

// GlobalAt reads global slot idx directly (GET.MOD.ELEM, §4.6).
func (m *Module) GlobalAt(idx int) (value.Value, bool) {
	if idx < 0 || idx >= len(m.globals) {
		return nil, false
	}
	return m.globals[idx], true
}

// SetGlobalAt writes global slot idx directly.
func (m *Module) SetGlobalAt(idx int, v value.Value) bool {
	if idx < 0 || idx >= len(m.globals) {
		return false
	}
	m.globals[idx] = v
	return true
}

func (m *Module) SetPrivate(ptr interface{}, fin Finalizer) {
	m.mu.Lock()
	m.private = &privateSlot{ptr: ptr, finalizer: fin}
	m.mu.Unlock()
	if fin != nil {
		track(m)
	}
}

func (m *Module) RunFinalizer() {
	m.mu.Lock()
	p := m.private
	m.private = nil
	m.mu.Unlock()
	if p != nil && p.finalizer != nil {
		p.finalizer(p.ptr)
	}
}

// Walk visits every value this module roots: its constant pool and
// its global-value array (§4.4: "the instance's module list ...
// transitively roots constants/globals").
func (m *Module) Walk(fn func(value.Value)) {
	for _, c := range m.Consts {
		fn(c)
	}
	m.mu.Lock()
	globals := append([]value.Value{}, m.globals...)
	m.mu.Unlock()
	for _, g := range globals {
		fn(g)
	}
}
