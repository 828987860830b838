// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"github.com/kos-lang/kos-sub002/internal/vmctx"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// Yield is the callback a GeneratorBody calls once per value it
// produces; it blocks until the next call_generator resumption and
// returns that resumption's argument, mirroring YIELD's semantics
// for bytecode generators (§4.6).
type Yield func(val value.Value) value.Value

// GeneratorBody is a native generator's body (§4.8: "generators
// ... handler returns one value per resumption"). It runs once per
// Iterator, to completion; its own return value is discarded the same
// way a bytecode generator's RETURN is — both just mean "the
// generator is now done" (§9's resolution of what resuming a finished
// generator raises).
type GeneratorBody func(ctx *vmctx.Context, this value.Value, args *object.Array, yield Yield) value.Value

type genOutcomeKind int

const (
	genYielded genOutcomeKind = iota
	genReturned
	genThrew
)

type genOutcome struct {
	kind genOutcomeKind
	val  value.Value
}

// RegisterGenerator builds a native generator Function (§4.8). Calling
// it produces an Iterator whose resumption runs body on its own
// goroutine, handing values back and forth over a pair of unbuffered
// channels — the same handoff internal/interp/generator.go uses for
// bytecode generator bodies, reused here via Iterator.NativeResume so
// call_generator treats both origins identically without knowing which
// one it's talking to.
func RegisterGenerator(args []object.ArgDescriptor, body GeneratorBody) *object.Function {
	handler := func(ctx *vmctx.Context, this value.Value, callArgs *object.Array) value.Value {
		resumeCh := make(chan value.Value)
		outCh := make(chan genOutcome)
		started := false

		it := object.NewIterator(nil)
		it.NativeResume = func(resumeArg value.Value) (value.Value, bool) {
			if it.Done {
				return value.Bad, false
			}
			if !started {
				started = true
				go func() {
					yield := func(val value.Value) value.Value {
						outCh <- genOutcome{kind: genYielded, val: val}
						return <-resumeCh
					}
					result := body(ctx, this, callArgs, yield)
					if ctx.IsPending() {
						exc := ctx.Exception()
						ctx.Clear()
						outCh <- genOutcome{kind: genThrew, val: exc}
						return
					}
					outCh <- genOutcome{kind: genReturned, val: result}
				}()
			} else {
				resumeCh <- resumeArg
			}

			out := <-outCh
			switch out.kind {
			case genYielded:
				return out.val, false
			case genThrew:
				it.Done = true
				return out.val, true
			default: // genReturned
				it.Done = true
				return value.Bad, false
			}
		}
		return it
	}

	return &object.Function{
		Header: object.Header{Type: value.KindFunction},
		Native: wrap(handler),
		Args:   args,
		Flags:  object.FuncPlain | object.FuncGeneratorInit,
	}
}
