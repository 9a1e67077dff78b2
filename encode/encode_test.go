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
package encode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gael-bigot/czc/casm"
)

func TestEncodeRet(t *testing.T) {
	word, imm, err := Encode(&casm.Ret{})
	require.NoError(t, err)
	require.Nil(t, imm)
	require.Equal(t, uint64(0x208b7fff7fff7ffe), word)
}

func TestEncodeSetReturnValue(t *testing.T) {
	// `return 7;` lowers to Set{DerefAp(0), Int(7), incr_ap:true}.
	word, imm, err := Encode(&casm.Set{
		Dst:    casm.DerefAp{Offset: 0},
		Src:    casm.Int{Value: 7},
		ApBump: true,
	})
	require.NoError(t, err)
	require.NotNil(t, imm)
	require.Equal(t, uint64(7), *imm)

	offdst := decodeOffset(word, 0)
	offop0 := decodeOffset(word, 16)
	offop1 := decodeOffset(word, 32)
	require.Equal(t, int32(0), offdst)
	require.Equal(t, int32(-1), offop0)
	require.Equal(t, int32(1), offop1)
	require.Equal(t, uint64(0), (word>>48)&1)  // dst
	require.Equal(t, uint64(1), (word>>49)&1)  // op0
	require.Equal(t, uint64(1), (word>>50)&7)  // op1
	require.Equal(t, uint64(0), (word>>53)&3)  // res
	require.Equal(t, uint64(0), (word>>55)&7)  // pc_update
	require.Equal(t, uint64(2), (word>>58)&3)  // ap_update
	require.Equal(t, uint64(4), (word>>60)&7)  // opcode
}

func TestEncodeCallRelNegativeOffset(t *testing.T) {
	word, imm, err := Encode(&casm.CallRel{Offset: -3})
	require.NoError(t, err)
	require.NotNil(t, imm)
	require.Equal(t, uint64(Prime-3), *imm)
	require.Equal(t, uint64(1), (word>>60)&7) // opcode
	require.Equal(t, uint64(2), (word>>55)&7) // pc_update
}

func TestEncodeSetRejectsIntDst(t *testing.T) {
	_, _, err := Encode(&casm.Set{Dst: casm.Int{Value: 1}, Src: casm.Int{Value: 2}})
	require.Error(t, err)
	var shapeErr *InvalidOperandShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestEncodeAddResFieldDistinguishesMul(t *testing.T) {
	addWord, _, err := Encode(&casm.Add{
		Dst: casm.DerefFp{Offset: 0},
		Op0: casm.DerefFp{Offset: 1},
		Op1: casm.DerefFp{Offset: 2},
	})
	require.NoError(t, err)
	mulWord, _, err := Encode(&casm.Mul{
		Dst: casm.DerefFp{Offset: 0},
		Op0: casm.DerefFp{Offset: 1},
		Op1: casm.DerefFp{Offset: 2},
	})
	require.NoError(t, err)

	require.Equal(t, uint64(1), (addWord>>53)&3)
	require.Equal(t, uint64(2), (mulWord>>53)&3)
	require.Equal(t, addWord&^(uint64(3)<<53), mulWord&^(uint64(3)<<53))
}

func decodeOffset(word uint64, shift uint) int32 {
	biased := (word >> shift) & 0xFFFF
	return int32(int64(biased) - 0x8000)
}
