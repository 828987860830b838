// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kos-lang/kos-sub002/internal/interp"
	"github.com/kos-lang/kos-sub002/object"
	"github.com/kos-lang/kos-sub002/value"
)

// operandKind tags how disassemble reads one operand following the
// opcode byte (§6.1's fixed per-opcode operand order).
type operandKind int

const (
	opReg     operandKind = iota // one register byte (255 = none, printed "-")
	opS8                         // one signed immediate byte (LOAD.INT8, *.ELEM8 index)
	opUimm                       // variable-length unsigned IMM (§6.1)
	opJump                       // two-byte little-endian signed, pre-scaled by 2
)

// instrSpec names the fixed operand sequence for one opcode, in the
// order interp.execFrame's decoder reads them. Table-driven the same
// way the teacher's own DWARF op-decoding tables are (grounded on
// third_party/delve/dwarf/op's opcode table shape, per SPEC_FULL.md).
var instrSpecs = map[interp.Opcode][]operandKind{
	interp.OpLoadVoid:  {opReg},
	interp.OpLoadFalse: {opReg},
	interp.OpLoadTrue:  {opReg},
	interp.OpLoadInt8:  {opReg, opS8},
	interp.OpLoadConst: {opReg, opUimm},
	interp.OpNewArray8: {opReg, opUimm},
	interp.OpNewObj:    {opReg},

	interp.OpGet:          {opReg, opReg, opReg},
	interp.OpGetOpt:       {opReg, opReg, opReg},
	interp.OpGetElem8:     {opReg, opReg, opS8},
	interp.OpGetElem8Opt:  {opReg, opReg, opS8},
	interp.OpGetRange:     {opReg, opReg, opReg, opReg},
	interp.OpGetProp8:     {opReg, opReg, opUimm},
	interp.OpGetProp8Opt:  {opReg, opReg, opUimm},
	interp.OpGetProto:     {opReg, opReg},
	interp.OpSet:          {opReg, opReg, opReg},
	interp.OpSetElem8:     {opReg, opS8, opReg},
	interp.OpSetProp8:     {opReg, opUimm, opReg},
	interp.OpDel:          {opReg, opReg},
	interp.OpPush:         {opReg, opReg},
	interp.OpPushEx:       {opReg, opReg},

	interp.OpGetMod:          {opReg, opUimm},
	interp.OpGetModElem:      {opReg, opUimm, opUimm},
	interp.OpGetModGlobal:    {opReg, opUimm, opUimm},
	interp.OpGetModGlobalOpt: {opReg, opUimm, opUimm},
	interp.OpGetGlobal:       {opReg, opUimm},

	interp.OpType:       {opReg, opReg},
	interp.OpHasDP:      {opReg, opReg, opReg},
	interp.OpHasSH:      {opReg, opReg, opReg},
	interp.OpHasDPProp8: {opReg, opReg, opUimm},
	interp.OpHasSHProp8: {opReg, opReg, opUimm},

	interp.OpAdd: {opReg, opReg, opReg},
	interp.OpSub: {opReg, opReg, opReg},
	interp.OpMul: {opReg, opReg, opReg},
	interp.OpDiv: {opReg, opReg, opReg},
	interp.OpMod: {opReg, opReg, opReg},

	interp.OpAnd:  {opReg, opReg, opReg},
	interp.OpOr:   {opReg, opReg, opReg},
	interp.OpXor:  {opReg, opReg, opReg},
	interp.OpShl:  {opReg, opReg, opReg},
	interp.OpShr:  {opReg, opReg, opReg},
	interp.OpShrU: {opReg, opReg, opReg},
	interp.OpNot:  {opReg, opReg},

	interp.OpCmpEq: {opReg, opReg, opReg},
	interp.OpCmpNe: {opReg, opReg, opReg},
	interp.OpCmpLe: {opReg, opReg, opReg},
	interp.OpCmpLt: {opReg, opReg, opReg},

	interp.OpJump:        {opJump},
	interp.OpJumpCond:    {opReg, opJump},
	interp.OpJumpNotCond: {opReg, opJump},
	interp.OpCall:        {opReg, opReg, opReg, opReg},
	interp.OpTailCall:    {opReg, opReg, opReg},
	interp.OpReturn:      {opReg},
	interp.OpYield:       {opReg, opReg},
	interp.OpThrow:       {opReg},
	interp.OpCatch:       {opReg, opJump},
}

// disassembleOne decodes one instruction starting at code[pc] and
// returns its printable text plus the offset of the following
// instruction. Mirrors interp's own decoder exactly (§6.1) rather than
// reimplementing instruction semantics: this is read-only, disassembly
// never executes anything.
func disassembleOne(code []byte, pc int64) (string, int64) {
	if pc < 0 || pc >= int64(len(code)) {
		return "<out of range>", int64(len(code))
	}
	op := interp.Opcode(code[pc])
	spec, ok := instrSpecs[op]
	text := op.String()
	pos := pc + 1
	if !ok {
		return fmt.Sprintf("%s <unknown operand layout>", text), pos
	}
	for _, kind := range spec {
		switch kind {
		case opReg:
			if pos >= int64(len(code)) {
				return text + " <truncated>", int64(len(code))
			}
			r := code[pos]
			pos++
			if r == interp.NoReg {
				text += " -"
			} else {
				text += fmt.Sprintf(" r%d", r)
			}
		case opS8:
			if pos >= int64(len(code)) {
				return text + " <truncated>", int64(len(code))
			}
			v := int64(int8(code[pos]))
			pos++
			text += fmt.Sprintf(" #%d", v)
		case opUimm:
			v, n := interp.LoadUimm(code[pos:])
			pos += int64(n)
			text += fmt.Sprintf(" #%d", v)
		case opJump:
			if pos+2 > int64(len(code)) {
				return text + " <truncated>", int64(len(code))
			}
			raw := int16(uint16(code[pos]) | uint16(code[pos+1])<<8)
			pos += 2
			target := pc + int64(raw)*2
			text += fmt.Sprintf(" ->%d", target)
		}
	}
	return text, pos
}

// disassemble writes a full linear disassembly of code to w, one
// instruction per line prefixed with its byte offset (the teacher's
// own viewcore disasm-style output, adapted from a read-only heap
// report to a read-only bytecode report).
func disassemble(w io.Writer, code []byte) {
	for pc := int64(0); pc < int64(len(code)); {
		text, next := disassembleOne(code, pc)
		fmt.Fprintf(w, "%6d  %s\n", pc, text)
		if next <= pc {
			break
		}
		pc = next
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <module.kbc>",
		Short: "Disassemble a compiled module's bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c, err := decodeContainer(buf)
			if err != nil {
				return err
			}
			disassemble(os.Stdout, c.Bytecode)
			return nil
		},
	}
}

func newConstantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "constants <module.kbc>",
		Short: "List a compiled module's constant pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c, err := decodeContainer(buf)
			if err != nil {
				return err
			}
			for i, v := range c.Consts {
				fmt.Printf("%4d  %-10s %s\n", i, value.TypeOf(v), formatConst(v))
			}
			return nil
		},
	}
}

// formatConst renders one constant-pool entry for the constants
// subcommand's listing, the disassembly-adjacent counterpart to
// instance.FormatException's exception rendering.
func formatConst(v value.Value) string {
	switch c := v.(type) {
	case *object.Integer:
		return fmt.Sprintf("%d", c.V)
	case *object.Float:
		return fmt.Sprintf("%g", c.V)
	case *object.String:
		return c.String()
	case value.SmallInt:
		return fmt.Sprintf("%d", int64(c))
	default:
		return fmt.Sprintf("%v", v)
	}
}
