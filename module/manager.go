// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package module implements §4.7: the Module Manager. It keeps the
// vector of loaded modules, a name-to-index map, the registered
// built-in module initializers, and the search-path list, and drives
// the load/install/run sequence for both filesystem and in-memory
// sources.
//
// This is the generalization of the teacher's internal/gocore
// readModules (module.go): where readModules walks a foreign
// process's already-built runtime.moduledata slice into a read-only
// []*module plus a function table, Manager builds that vector itself,
// one compile-and-run at a time, as this process's own modules load.
package module

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/kos-lang/kos-sub002/internal/interp"
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// CompileResult is what an external compiler hands back for one
// source file (§4.7: "delegates to the compiler (external) to produce
// bytecode + constants"). Imports names every module this one's
// top-level code references via GET.MOD*, in the order the bytecode's
// import-table indices expect; NumRegs sizes the register window the
// Module Manager binds for running the compiled top-level code.
type CompileResult struct {
	Bytecode []byte
	Consts   []value.Value
	Imports  []string
	NumRegs  int
}

// Compiler is the external dependency the Module Manager delegates
// compilation to; not part of this package's scope (§1: "the compiler
// itself... is out of scope").
type Compiler interface {
	Compile(name, path string, src []byte) (CompileResult, error)
}

// BuiltinInit is a registered built-in module's native initializer: it
// populates mod's globals directly (via mod.DeclareGlobal) before the
// module's own compiled top-level code, if any, runs.
type BuiltinInit func(ctx *vmctx.Context, mod *object.Module) error

// Manager is the Module Manager (§4.7).
type Manager struct {
	compiler Compiler
	machine  *interp.Machine

	mu          sync.Mutex
	modules     []*object.Module
	byName      map[string]int
	searchPaths []string
	builtins    map[string]BuiltinInit
	loadChain   []string // per-load chain for import-cycle detection
}

func NewManager(compiler Compiler, machine *interp.Machine) *Manager {
	return &Manager{
		compiler: compiler,
		machine:  machine,
		byName:   make(map[string]int),
		builtins: make(map[string]BuiltinInit),
	}
}

// AddSearchPath appends a directory to search for bare module names
// (§4.7).
func (m *Manager) AddSearchPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchPaths = append(m.searchPaths, path)
}

// AddDefaultPath derives a search path from the embedding program's own
// location, the way a script interpreter locates modules installed
// alongside its own binary (§4.7).
func (m *Manager) AddDefaultPath(argv0 string) {
	m.AddSearchPath(filepath.Dir(argv0))
}

// RegisterBuiltinModule installs a native initializer under name,
// invoked the first time a module of that name is loaded, before its
// own compiled top-level code (§4.7, §6.2).
func (m *Manager) RegisterBuiltinModule(name string, init BuiltinInit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builtins[name] = init
}

// Modules returns a snapshot of every loaded module, for the GC's
// ModuleRoots (§4.4).
func (m *Manager) Modules() []*object.Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*object.Module, len(m.modules))
	copy(out, m.modules)
	return out
}

// GetModule returns the module currently executing on ctx (§4.7): the
// owning module of ctx's innermost call frame.
func (m *Manager) GetModule(ctx *vmctx.Context) *object.Module {
	fr := ctx.Top
	if fr == nil || fr.Function == nil {
		return nil
	}
	return fr.Function.Module
}

func (m *Manager) lookup(name string) (*object.Module, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.modules[idx], true
}

func (m *Manager) install(name string, mod *object.Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byName[name] = len(m.modules)
	m.modules = append(m.modules, mod)
}

// resolvePath turns a bare name or path into a readable file, trying
// the name literally first, then each registered search path joined
// with name (§4.7).
func (m *Manager) resolvePath(name string) (string, []byte, error) {
	if src, err := os.ReadFile(name); err == nil {
		return name, src, nil
	}
	m.mu.Lock()
	paths := append([]string{}, m.searchPaths...)
	m.mu.Unlock()
	for _, dir := range paths {
		full := filepath.Join(dir, name)
		if src, err := os.ReadFile(full); err == nil {
			return full, src, nil
		}
	}
	return "", nil, &object.ModuleNotFoundError{Name: name}
}

// LoadFromPath implements load_from_path (§4.7).
func (m *Manager) LoadFromPath(ctx *vmctx.Context, name string) (*object.Module, error) {
	if mod, ok := m.lookup(name); ok {
		return mod, nil
	}
	path, src, err := m.resolvePath(name)
	if err != nil {
		return nil, err
	}
	return m.load(ctx, name, path, src)
}

// LoadFromMemory implements load_from_memory (§4.7).
func (m *Manager) LoadFromMemory(ctx *vmctx.Context, name string, src []byte) (*object.Module, error) {
	if mod, ok := m.lookup(name); ok {
		return mod, nil
	}
	return m.load(ctx, name, "", src)
}

func (m *Manager) inChain(name string) bool {
	for _, n := range m.loadChain {
		if n == name {
			return true
		}
	}
	return false
}

// load drives the full install sequence: cycle check, compile,
// recursively load imports, install, run the built-in initializer,
// then the compiled top-level code (§4.7).
func (m *Manager) load(ctx *vmctx.Context, name, path string, src []byte) (*object.Module, error) {
	m.mu.Lock()
	if m.inChain(name) {
		m.mu.Unlock()
		return nil, &object.ImportCycleError{Name: name}
	}
	m.loadChain = append(m.loadChain, name)
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.loadChain = m.loadChain[:len(m.loadChain)-1]
		m.mu.Unlock()
	}()

	result, err := m.compiler.Compile(name, path, src)
	if err != nil {
		return nil, &object.ModuleInitFailedError{Name: name, Err: err}
	}

	mod := object.NewModule(name, path, result.Bytecode, result.Consts)
	for _, dep := range result.Imports {
		depMod, err := m.LoadFromPath(ctx, dep)
		if err != nil {
			return nil, err
		}
		mod.Imports = append(mod.Imports, depMod)
	}

	m.install(name, mod)

	m.mu.Lock()
	init, hasInit := m.builtins[name]
	m.mu.Unlock()
	if hasInit {
		if err := init(ctx, mod); err != nil {
			return nil, &object.ModuleInitFailedError{Name: name, Err: err}
		}
	}

	if len(result.Bytecode) > 0 {
		numRegs := result.NumRegs
		if numRegs < 1 {
			numRegs = 1
		}
		top := &object.Function{
			Header:  object.Header{Type: value.KindFunction},
			Module:  mod,
			NumRegs: numRegs,
		}
		args, _ := object.NewArray(0)
		ret := m.machine.Call(ctx, top, object.Void, args)
		if value.IsBad(ret) && ctx.IsPending() {
			exc := ctx.Exception()
			ctx.Clear()
			return nil, &object.ModuleInitFailedError{Name: name, Err: errors.New(excString(exc))}
		}
	}

	return mod, nil
}

func excString(v value.Value) string {
	if s, ok := v.(*object.String); ok {
		return s.String()
	}
	return "exception"
}
