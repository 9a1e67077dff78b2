// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package encode packs a single resolved CASM instruction into a 63-bit
// field-packed word plus an optional immediate.
package encode

import (
	"fmt"

	"github.com/gael-bigot/czc/casm"
	"github.com/gael-bigot/czc/utils"
)

// Prime is the field modulus negative offsets are re-mapped against: a
// negative relative offset k is encoded as Prime + k rather than as Go's
// native two's-complement representation.
const Prime = 0x7FFFFFFF

// InvalidOperandShapeError is raised when an operand violates a
// per-opcode constraint, most commonly an Int where the instruction
// requires a deref.
type InvalidOperandShapeError struct {
	Instr   string
	Problem string
}

func (e *InvalidOperandShapeError) Error() string {
	return fmt.Sprintf("invalid operand shape in %s: %s", e.Instr, e.Problem)
}

// fields is the ten-field intermediate the packed word's bit layout is
// built from, kept separate from the final packing arithmetic so each
// instruction's encode_* function reads like a plain field table.
type fields struct {
	offdst, offop0, offop1     int32
	dst, op0, op1, res         uint64
	pcUpdate, apUpdate, opcode uint64
}

func (f fields) pack() uint64 {
	word := biasOffset(f.offdst)
	word |= biasOffset(f.offop0) << 16
	word |= biasOffset(f.offop1) << 32
	word |= f.dst << 48
	word |= f.op0 << 49
	word |= f.op1 << 50
	word |= f.res << 53
	word |= f.pcUpdate << 55
	word |= f.apUpdate << 58
	word |= f.opcode << 60
	return word
}

func biasOffset(off int32) uint64 {
	biased := int64(off) + 0x8000
	utils.Assert(biased >= 0 && biased <= 0xffff, "offset %d does not fit in i16 once biased", off)
	return uint64(uint16(biased))
}

// biasImmediate applies the prime-relative negative-offset convention to
// a signed relative offset destined for the immediate word.
func biasImmediate(off int32) uint64 {
	if off < 0 {
		return uint64(Prime + int64(off))
	}
	return uint64(off)
}

// derefOffsetAndFlag returns the deref's offset and the 1-bit (DerefFp) /
// 0-bit (DerefAp) flag shared by dst and the op0-in-Add/Mul position; it
// rejects Int, which has no fp/ap offset to report.
func derefOffsetAndFlag(instr string, o casm.Operand) (int32, uint64, error) {
	switch o := o.(type) {
	case casm.DerefFp:
		return o.Offset, 1, nil
	case casm.DerefAp:
		return o.Offset, 0, nil
	default:
		return 0, 0, &InvalidOperandShapeError{Instr: instr, Problem: "expected a deref operand, got an immediate"}
	}
}

// opEncoding returns (offop1, op1 flag, immediate) for an operand in the
// "op" position of Set/Add/Mul:
// DerefFp(k) -> (k, 2, nil); DerefAp(k) -> (k, 4, nil); Int(n) -> (1, 1, &n).
func opEncoding(o casm.Operand) (int32, uint64, *uint64) {
	switch o := o.(type) {
	case casm.DerefFp:
		return o.Offset, 2, nil
	case casm.DerefAp:
		return o.Offset, 4, nil
	case casm.Int:
		v := o.Value
		return 1, 1, &v
	}
	utils.ShouldNotReachHere()
	return 0, 0, nil
}

// Encode packs a single resolved CASM instruction. instr must already
// have passed through resolve.Resolve: Label, Call, Jmp, and JmpIfNeq
// have no encoding of their own.
func Encode(instr casm.Instr) (uint64, *uint64, error) {
	switch instr := instr.(type) {
	case *casm.Ret:
		return encodeRet(), nil, nil
	case *casm.CallAbs:
		return encodeCallAbs(instr)
	case *casm.CallRel:
		return encodeCallRel(instr)
	case *casm.IncrAp:
		return encodeIncrAp(instr)
	case *casm.Set:
		return encodeSet(instr)
	case *casm.Add:
		return encodeAddMul("Add", instr.Dst, instr.Op0, instr.Op1, 1)
	case *casm.Mul:
		return encodeAddMul("Mul", instr.Dst, instr.Op0, instr.Op1, 2)
	case *casm.JmpRel:
		return encodeJmpRel(instr)
	case *casm.JmpIfNeqRel:
		return encodeJmpIfNeqRel(instr)
	case *casm.Label, *casm.Call, *casm.Jmp, *casm.JmpIfNeq:
		return 0, nil, &InvalidOperandShapeError{Instr: fmt.Sprintf("%T", instr), Problem: "unresolved instruction reached the encoder"}
	default:
		return 0, nil, &InvalidOperandShapeError{Instr: fmt.Sprintf("%T", instr), Problem: "unknown instruction form"}
	}
}

func encodeRet() uint64 {
	return fields{
		offdst: -2, offop0: -1, offop1: -1,
		dst: 1, op0: 1, op1: 2, res: 0,
		pcUpdate: 1, apUpdate: 0, opcode: 2,
	}.pack()
}

func encodeCallAbs(i *casm.CallAbs) (uint64, *uint64, error) {
	w := fields{
		offdst: 0, offop0: 1, offop1: 1,
		dst: 0, op0: 0, op1: 1, res: 0,
		pcUpdate: 1, apUpdate: 0, opcode: 1,
	}.pack()
	imm := uint64(i.Target)
	return w, &imm, nil
}

func encodeCallRel(i *casm.CallRel) (uint64, *uint64, error) {
	w := fields{
		offdst: 0, offop0: 1, offop1: 1,
		dst: 0, op0: 0, op1: 1, res: 0,
		pcUpdate: 2, apUpdate: 0, opcode: 1,
	}.pack()
	imm := biasImmediate(i.Offset)
	return w, &imm, nil
}

func encodeIncrAp(i *casm.IncrAp) (uint64, *uint64, error) {
	w := fields{
		offdst: -1, offop0: -1, offop1: 1,
		dst: 1, op0: 1, op1: 1, res: 0,
		pcUpdate: 0, apUpdate: 1, opcode: 0,
	}.pack()
	imm := uint64(i.Amount)
	return w, &imm, nil
}

func encodeSet(i *casm.Set) (uint64, *uint64, error) {
	offdst, dst, err := derefOffsetAndFlag("Set", i.Dst)
	if err != nil {
		return 0, nil, err
	}
	offop1, op1, imm := opEncoding(i.Src)
	apUpdate := uint64(0)
	if i.ApBump {
		apUpdate = 2
	}
	w := fields{
		offdst: offdst, offop0: -1, offop1: offop1,
		dst: dst, op0: 1, op1: op1, res: 0,
		pcUpdate: 0, apUpdate: apUpdate, opcode: 4,
	}.pack()
	return w, imm, nil
}

func encodeAddMul(name string, dstOperand, op0Operand, op1Operand casm.Operand, res uint64) (uint64, *uint64, error) {
	offdst, dst, err := derefOffsetAndFlag(name, dstOperand)
	if err != nil {
		return 0, nil, err
	}
	offop0, op0, err := derefOffsetAndFlag(name, op0Operand)
	if err != nil {
		return 0, nil, err
	}
	offop1, op1, imm := opEncoding(op1Operand)
	w := fields{
		offdst: offdst, offop0: offop0, offop1: offop1,
		dst: dst, op0: op0, op1: op1, res: res,
		pcUpdate: 0, apUpdate: 2, opcode: 4,
	}.pack()
	return w, imm, nil
}

// encodeJmpRel and encodeJmpIfNeqRel are derived by analogy with CallRel.
// JmpRel reuses CallRel's "jump relative" pc_update family with opcode 0
// instead of 1, since it is not a call. JmpIfNeqRel claims pc_update=4,
// the one jump/call pc_update code point otherwise left unused.
func encodeJmpRel(i *casm.JmpRel) (uint64, *uint64, error) {
	w := fields{
		offdst: -1, offop0: -1, offop1: 1,
		dst: 0, op0: 0, op1: 1, res: 0,
		pcUpdate: 2, apUpdate: 0, opcode: 0,
	}.pack()
	imm := biasImmediate(i.Offset)
	return w, &imm, nil
}

func encodeJmpIfNeqRel(i *casm.JmpIfNeqRel) (uint64, *uint64, error) {
	offop1, op1, err := derefOffsetAndFlag("JmpIfNeqRel", i.Cond)
	if err != nil {
		return 0, nil, err
	}
	// derefOffsetAndFlag's flag convention (1=DerefFp, 0=DerefAp) doesn't
	// match the op1 field's own convention (2=DerefFp, 4=DerefAp); remap.
	if op1 == 1 {
		op1 = 2
	} else {
		op1 = 4
	}
	w := fields{
		offdst: -1, offop0: -1, offop1: offop1,
		dst: 0, op0: 0, op1: op1, res: 0,
		pcUpdate: 4, apUpdate: 0, opcode: 0,
	}.pack()
	imm := biasImmediate(i.Offset)
	return w, &imm, nil
}
