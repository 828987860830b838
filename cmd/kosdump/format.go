// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kos-lang/kos-sub002/module"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// kosdump reads a ".kbc" container: the one concrete stand-in this
// ambient CLI needs for the external compiler's output (§4.7:
// "delegates to the compiler (external) to produce bytecode +
// constants" — the compiler itself is explicitly out of spec.md §1's
// scope, so no real one exists in this tree). The layout is:
//
//	u32le numConsts, then that many entries:
//	  u8 tag (0=int, 1=float, 2=string), followed by:
//	    tag 0: i64le
//	    tag 1: f64 bits as u64le
//	    tag 2: u32le length, then that many UTF-8 bytes
//	u32le numImports, then that many u32le-length-prefixed names
//	u32le numRegs
//	u32le bytecodeLen, then that many bytes
//
// This mirrors the teacher's own reading idiom in
// internal/gocore/module.go's readModule: fixed-width length-prefixed
// fields read off a flat byte stream, no self-describing schema.
type container struct {
	Consts   []value.Value
	Imports  []string
	NumRegs  int
	Bytecode []byte
}

func readU32(buf []byte, pos *int) (uint32, error) {
	if *pos+4 > len(buf) {
		return 0, fmt.Errorf("kosdump: truncated u32 field")
	}
	v := binary.LittleEndian.Uint32(buf[*pos:])
	*pos += 4
	return v, nil
}

func decodeContainer(buf []byte) (*container, error) {
	pos := 0
	numConsts, err := readU32(buf, &pos)
	if err != nil {
		return nil, err
	}
	consts := make([]value.Value, 0, numConsts)
	for i := uint32(0); i < numConsts; i++ {
		if pos >= len(buf) {
			return nil, fmt.Errorf("kosdump: truncated constant tag")
		}
		tag := buf[pos]
		pos++
		switch tag {
		case 0:
			if pos+8 > len(buf) {
				return nil, fmt.Errorf("kosdump: truncated integer constant")
			}
			bits := binary.LittleEndian.Uint64(buf[pos:])
			pos += 8
			consts = append(consts, object.NewInteger(int64(bits)))
		case 1:
			if pos+8 > len(buf) {
				return nil, fmt.Errorf("kosdump: truncated float constant")
			}
			bits := binary.LittleEndian.Uint64(buf[pos:])
			pos += 8
			consts = append(consts, object.NewFloat(math.Float64frombits(bits)))
		case 2:
			n, err := readU32(buf, &pos)
			if err != nil {
				return nil, err
			}
			if pos+int(n) > len(buf) {
				return nil, fmt.Errorf("kosdump: truncated string constant")
			}
			s, err := object.NewString(string(buf[pos : pos+int(n)]))
			if err != nil {
				return nil, err
			}
			pos += int(n)
			consts = append(consts, s)
		default:
			return nil, fmt.Errorf("kosdump: unknown constant tag %d", tag)
		}
	}

	numImports, err := readU32(buf, &pos)
	if err != nil {
		return nil, err
	}
	imports := make([]string, 0, numImports)
	for i := uint32(0); i < numImports; i++ {
		n, err := readU32(buf, &pos)
		if err != nil {
			return nil, err
		}
		if pos+int(n) > len(buf) {
			return nil, fmt.Errorf("kosdump: truncated import name")
		}
		imports = append(imports, string(buf[pos:pos+int(n)]))
		pos += int(n)
	}

	numRegs, err := readU32(buf, &pos)
	if err != nil {
		return nil, err
	}

	codeLen, err := readU32(buf, &pos)
	if err != nil {
		return nil, err
	}
	if pos+int(codeLen) > len(buf) {
		return nil, fmt.Errorf("kosdump: truncated bytecode")
	}
	code := append([]byte{}, buf[pos:pos+int(codeLen)]...)
	pos += int(codeLen)

	return &container{
		Consts:   consts,
		Imports:  imports,
		NumRegs:  int(numRegs),
		Bytecode: code,
	}, nil
}

// fileCompiler implements module.Compiler (§4.7's external-compiler
// interface) by treating src as an already-compiled container rather
// than source text, since the lexer/parser/bytecode compiler is
// explicitly out of spec.md §1's scope for this repo.
type fileCompiler struct{}

var _ module.Compiler = fileCompiler{}

func (fileCompiler) Compile(name, path string, src []byte) (module.CompileResult, error) {
	c, err := decodeContainer(src)
	if err != nil {
		return module.CompileResult{}, err
	}
	return module.CompileResult{
		Bytecode: c.Bytecode,
		Consts:   c.Consts,
		Imports:  c.Imports,
		NumRegs:  c.NumRegs,
	}, nil
}
