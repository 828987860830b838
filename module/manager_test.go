// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package module

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kos-lang/kos-sub002/internal/interp"
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
)

func newCtx() *vmctx.Context {
	return vmctx.New(1, vmctx.Coordination{
		Flag:          new(atomic.Bool),
		Mu:            new(sync.Mutex),
		EngageCond:    sync.NewCond(new(sync.Mutex)),
		QuiescentCond: sync.NewCond(new(sync.Mutex)),
	})
}

// mapCompiler resolves a module name to a preset CompileResult the way
// a real compiler would turn source text into bytecode plus an import
// table (§1: "the compiler itself is out of scope" — tests stand in
// for it with a fixed name-to-result table, ignoring the source bytes
// LoadFromPath actually reads off disk).
type mapCompiler map[string]CompileResult

func (c mapCompiler) Compile(name, path string, src []byte) (CompileResult, error) {
	r, ok := c[name]
	if !ok {
		return CompileResult{}, &object.ModuleNotFoundError{Name: name}
	}
	return r, nil
}

// writeStub creates an empty file named name under dir: LoadFromPath
// needs something real to read, even though mapCompiler ignores its
// contents and dispatches purely on module name.
func writeStub(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
}

func TestLoadFromMemoryCachesByName(t *testing.T) {
	m := NewManager(mapCompiler{"a": {NumRegs: 1}}, interp.NewMachine())
	ctx := newCtx()

	first, err := m.LoadFromMemory(ctx, "a", nil)
	if err != nil {
		t.Fatalf("LoadFromMemory: %v", err)
	}
	second, err := m.LoadFromMemory(ctx, "a", nil)
	if err != nil {
		t.Fatalf("LoadFromMemory (cached): %v", err)
	}
	if first != second {
		t.Fatal("expected the second load to return the already-installed module")
	}
	if len(m.Modules()) != 1 {
		t.Fatalf("got %d modules, want 1", len(m.Modules()))
	}
}

func TestLoadResolvesImportsInOrder(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "main.kos")
	writeStub(t, dir, "left.kos")
	writeStub(t, dir, "right.kos")

	m := NewManager(mapCompiler{
		"main.kos":  {NumRegs: 1, Imports: []string{"left.kos", "right.kos"}},
		"left.kos":  {NumRegs: 1},
		"right.kos": {NumRegs: 1},
	}, interp.NewMachine())
	m.AddSearchPath(dir)
	ctx := newCtx()

	mod, err := m.LoadFromPath(ctx, "main.kos")
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if len(mod.Imports) != 2 {
		t.Fatalf("got %d imports, want 2", len(mod.Imports))
	}
	if mod.Imports[0].Name != "left.kos" || mod.Imports[1].Name != "right.kos" {
		t.Fatalf("imports out of order: %v", mod.Imports)
	}
	if len(m.Modules()) != 3 {
		t.Fatalf("got %d installed modules, want 3 (main + 2 imports)", len(m.Modules()))
	}
}

func TestLoadDetectsImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "a.kos")
	writeStub(t, dir, "b.kos")

	m := NewManager(mapCompiler{
		"a.kos": {NumRegs: 1, Imports: []string{"b.kos"}},
		"b.kos": {NumRegs: 1, Imports: []string{"a.kos"}},
	}, interp.NewMachine())
	m.AddSearchPath(dir)
	ctx := newCtx()

	_, err := m.LoadFromPath(ctx, "a.kos")
	if err == nil {
		t.Fatal("expected an import-cycle error")
	}
	if _, ok := err.(*object.ImportCycleError); !ok {
		t.Fatalf("got %T (%v), want *object.ImportCycleError", err, err)
	}
}

func TestRegisterBuiltinModuleRunsBeforeBytecode(t *testing.T) {
	m := NewManager(mapCompiler{"sys": {NumRegs: 1}}, interp.NewMachine())
	ctx := newCtx()

	var declaredIdx int
	m.RegisterBuiltinModule("sys", func(ctx *vmctx.Context, mod *object.Module) error {
		declaredIdx = mod.DeclareGlobal("ready", object.Void)
		return nil
	})

	mod, err := m.LoadFromMemory(ctx, "sys", nil)
	if err != nil {
		t.Fatalf("LoadFromMemory: %v", err)
	}
	idx, ok := mod.GlobalIndex("ready")
	if !ok || idx != declaredIdx {
		t.Fatalf("global 'ready' not declared by builtin init as expected")
	}
}
