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
package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gael-bigot/czc/casm"
)

func TestResolveDropsLabelsAndRewritesCalls(t *testing.T) {
	prog := &casm.Program{Functions: []*casm.Function{
		{Name: "f", Body: []casm.Instr{
			&casm.Label{Name: "f"},
			&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: casm.DerefFp{Offset: -3}, ApBump: true},
			&casm.Ret{},
		}},
		{Name: "g", Body: []casm.Instr{
			&casm.Label{Name: "g"},
			&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: casm.Int{Value: 3}, ApBump: true},
			&casm.Call{Target: "f"},
			&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: casm.DerefAp{Offset: -1}, ApBump: true},
			&casm.Ret{},
		}},
	}}

	stream, addrs, err := Resolve(prog)
	require.NoError(t, err)

	for _, instr := range stream {
		_, isLabel := instr.(*casm.Label)
		_, isCall := instr.(*casm.Call)
		require.False(t, isLabel, "resolved stream must not contain Label")
		require.False(t, isCall, "resolved stream must not contain Call")
	}

	// f's label sits at address 0 (nothing precedes it).
	require.Equal(t, int32(0), addrs["f"])

	var callRel *casm.CallRel
	callSiteAddr := int32(0)
	addr := int32(0)
	for _, instr := range stream {
		if cr, ok := instr.(*casm.CallRel); ok {
			callRel = cr
			callSiteAddr = addr
			break
		}
		w, _ := instructionWidth(instr)
		addr += w
	}
	require.NotNil(t, callRel)
	require.Equal(t, addrs["f"]-callSiteAddr, callRel.Offset)
}

func TestResolveUnknownTarget(t *testing.T) {
	prog := &casm.Program{Functions: []*casm.Function{
		{Name: "g", Body: []casm.Instr{
			&casm.Label{Name: "g"},
			&casm.Call{Target: "missing"},
			&casm.Ret{},
		}},
	}}

	_, _, err := Resolve(prog)
	require.Error(t, err)
	var target *UnresolvedTargetError
	require.ErrorAs(t, err, &target)
}
