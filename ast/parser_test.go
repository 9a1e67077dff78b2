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
package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBareRet(t *testing.T) {
	root, diags := ParseRoot("t.cas", "func f() { ret; }")
	require.False(t, diags.HasErrors())
	require.Len(t, root.Funcs, 1)
	require.Equal(t, "f", root.Funcs[0].Name)
	require.IsType(t, &RetInstr{}, root.Funcs[0].Body[0])
}

func TestParseArithmeticPrecedence(t *testing.T) {
	root, diags := ParseRoot("t.cas", "func f() { let x = 2 + 3 * 4; ret; }")
	require.False(t, diags.HasErrors())
	local := root.Funcs[0].Body[0].(*LocalVar)
	top := local.Init.(*Binary)
	require.Equal(t, TK_PLUS, top.Op)
	require.IsType(t, &IntLit{}, top.Left)
	mul := top.Right.(*Binary)
	require.Equal(t, TK_TIMES, mul.Op)
}

func TestParseIfElse(t *testing.T) {
	root, diags := ParseRoot("t.cas", `func f(a, b) {
		if a != b {
			return 1;
		} else {
			return 2;
		}
	}`)
	require.False(t, diags.HasErrors())
	ifStmt := root.Funcs[0].Body[0].(*If)
	require.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.Else, 1)
}

func TestParseCallWithNamedArgument(t *testing.T) {
	root, diags := ParseRoot("t.cas", "func f() { return g(x = 1); }")
	require.False(t, diags.HasErrors())
	ret := root.Funcs[0].Body[0].(*Return)
	call := ret.Expr.(*Call)
	require.True(t, call.NamedArgs)
}

func TestParseRecoversAfterMissingSemicolon(t *testing.T) {
	_, diags := ParseRoot("t.cas", "func f() { let x = 1 ret; }")
	require.True(t, diags.HasErrors())
}

func TestParseImportIsIgnoredButRecorded(t *testing.T) {
	root, diags := ParseRoot("t.cas", "from starkware.cairo.common.math import assert_not_zero; func f() { ret; }")
	require.False(t, diags.HasErrors())
	require.Len(t, root.Imports, 1)
	require.Equal(t, "starkware.cairo.common.math", root.Imports[0].From)
	require.Equal(t, []string{"assert_not_zero"}, root.Imports[0].Names)
}
