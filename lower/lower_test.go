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
package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gael-bigot/czc/ast"
	"github.com/gael-bigot/czc/casm"
)

func mustParse(t *testing.T, source string) *ast.Root {
	t.Helper()
	root, diags := ast.ParseRoot("test.cas", source)
	require.False(t, diags.HasErrors(), "unexpected parse errors: %v", diags.Diags)
	return root
}

func TestLowerBareRet(t *testing.T) {
	root := mustParse(t, "func f() { ret; }")
	prog, err := New(nil).Lower(root)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)
	body := prog.Functions[0].Body
	require.Equal(t, []casm.Instr{&casm.Label{Name: "f"}, &casm.Ret{}}, body)
}

func TestLowerReturnLiteral(t *testing.T) {
	root := mustParse(t, "func f() { return 7; }")
	prog, err := New(nil).Lower(root)
	require.NoError(t, err)
	body := prog.Functions[0].Body
	require.Equal(t, []casm.Instr{
		&casm.Label{Name: "f"},
		&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: casm.Int{Value: 7}, ApBump: true},
		&casm.Ret{},
	}, body)
}

func TestLowerConstantFolding(t *testing.T) {
	root := mustParse(t, "func f() { let x = 2 + 3 * 4; ret; }")
	prog, err := New(nil).Lower(root)
	require.NoError(t, err)
	body := prog.Functions[0].Body
	require.Equal(t, []casm.Instr{
		&casm.Label{Name: "f"},
		&casm.Set{Dst: casm.DerefFp{Offset: 0}, Src: casm.Int{Value: 14}, ApBump: false},
		&casm.Ret{},
	}, body)
}

func TestLowerCallWithLiteralArgument(t *testing.T) {
	root := mustParse(t, "func f(x) { return x; } func g() { return f(3); }")
	prog, err := New(nil).Lower(root)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 2)

	f := prog.Functions[0]
	require.Equal(t, []casm.Instr{
		&casm.Label{Name: "f"},
		&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: casm.DerefFp{Offset: -3}, ApBump: true},
		&casm.Ret{},
	}, f.Body)

	g := prog.Functions[1]
	require.Equal(t, []casm.Instr{
		&casm.Label{Name: "g"},
		&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: casm.Int{Value: 3}, ApBump: true},
		&casm.Call{Target: "f"},
		&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: casm.DerefAp{Offset: -1}, ApBump: true},
		&casm.Ret{},
	}, g.Body)
}

func TestLowerIfEmitsSingleConditionalJump(t *testing.T) {
	root := mustParse(t, `func f(a, b) {
		local c;
		if a != b {
			c = 1;
		} else {
			c = 2;
		}
		ret;
	}`)
	prog, err := New(nil).Lower(root)
	require.NoError(t, err)
	body := prog.Functions[0].Body

	var condJumps, uncondJumps int
	for _, instr := range body {
		switch instr.(type) {
		case *casm.JmpIfNeqRel:
			condJumps++
		case *casm.JmpRel:
			uncondJumps++
		}
	}
	require.Equal(t, 1, condJumps)
	require.Equal(t, 1, uncondJumps)
}

func TestLowerUnknownIdentifier(t *testing.T) {
	root := mustParse(t, "func f() { return y; }")
	_, err := New(nil).Lower(root)
	require.Error(t, err)
}

func TestLowerDivisionUnsupported(t *testing.T) {
	root := mustParse(t, "func f() { let x = 4 / 2; ret; }")
	_, err := New(nil).Lower(root)
	require.Error(t, err)
}
