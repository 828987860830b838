// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

// decoder reads operands for one instruction out of a module's
// bytecode, starting right after the opcode byte (§6.1).
type decoder struct {
	code []byte
	pos  int64
}

func (d *decoder) reg() byte {
	b := d.code[d.pos]
	d.pos++
	return b
}

// s8 reads a fixed one-byte signed immediate (§6.1: "8-bit immediates
// are 1 signed byte"), used by LOAD.INT8.
func (d *decoder) s8() int64 {
	b := d.code[d.pos]
	d.pos++
	return int64(int8(b))
}

// u16 reads a fixed two-byte little-endian unsigned field.
func (d *decoder) u16() int64 {
	lo := int64(d.code[d.pos])
	hi := int64(d.code[d.pos+1])
	d.pos += 2
	return lo | hi<<8
}

// jumpOffset reads a fixed two-byte little-endian signed field,
// pre-scaled by 2 (§6.1: "decode multiplies by 2 to yield byte offset
// from the start of the instruction").
func (d *decoder) jumpOffset() int64 {
	raw := int16(uint16(d.code[d.pos]) | uint16(d.code[d.pos+1])<<8)
	d.pos += 2
	return int64(raw) * 2
}

// uimm reads a variable-length unsigned IMM operand (§6.1), used
// anywhere an operand's range isn't bounded to a byte (constant pool
// indices, module indices, array sizes).
func (d *decoder) uimm() int64 {
	v, n := LoadUimm(d.code[d.pos:])
	d.pos += int64(n)
	return int64(v)
}

// simm reads a variable-length signed IMM operand (§6.1). No opcode
// handler calls it: element-access indices are decoded as signed bytes.
func (d *decoder) simm() int64 {
	v, n := LoadSimm(d.code[d.pos:])
	d.pos += int64(n)
	return v
}
