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

// Package lower turns a parsed Root into a casm.Program: one CASM function
// body per source function, each lowered in isolation against a fresh
// compile-time stack model (local_variables/size_of_locals/current_local_offset).
package lower

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gael-bigot/czc/ast"
	"github.com/gael-bigot/czc/casm"
)

// UnsupportedConstructError is raised when the lowerer meets an AST shape
// outside its supported subset (division, pointer operators, casts, calls
// with named arguments, struct/const/with_attr/static_assert/tempvar/using
// declarations, bare register references).
type UnsupportedConstructError struct {
	What string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("unsupported construct: %s", e.What)
}

// UnknownIdentifierError is raised when an Ident refers to a name absent
// from the current function's local_variables table.
type UnknownIdentifierError struct {
	Name string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier: %s", e.Name)
}

// Lowerer holds the compile-time stack model for the function currently
// being lowered. A fresh Lowerer (or a reset one, see reset) is used for
// every function body, so each function is lowered in isolation with its
// own stack model.
type Lowerer struct {
	log *logrus.Entry

	localVariables     map[string]int32
	sizeOfLocals       int32
	currentLocalOffset int32

	body *[]casm.Instr
}

// New builds a Lowerer that logs through the given logger, or through
// logrus's standard logger if nil.
func New(log *logrus.Logger) *Lowerer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Lowerer{log: log.WithField("stage", "lower")}
}

// Lower lowers every function declaration in root, in source order.
// Imports are accepted by the parser but contribute nothing here, because
// this compiler never links across files. Unsupported elements (the
// struct/const/with_attr/static_assert/tempvar/using keywords), whether at
// top level or inside a function body, have no lowering and are rejected
// with an UnsupportedConstructError naming the keyword.
func (l *Lowerer) Lower(root *ast.Root) (*casm.Program, error) {
	if len(root.Unsupported) > 0 {
		return nil, &UnsupportedConstructError{What: root.Unsupported[0].Keyword + " declaration"}
	}
	prog := &casm.Program{}
	for _, fn := range root.Funcs {
		l.log.WithField("function", fn.Name).Debug("lowering function")
		casmFn, err := l.lowerFunction(fn)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
		prog.Functions = append(prog.Functions, casmFn)
	}
	return prog, nil
}

func (l *Lowerer) reset() {
	l.localVariables = make(map[string]int32)
	l.currentLocalOffset = 0
	l.sizeOfLocals = 0
}

func (l *Lowerer) lowerFunction(fn *ast.FuncDecl) (*casm.Function, error) {
	l.reset()
	l.sizeOfLocals = countLocals(fn.Body)

	casmFn := &casm.Function{Name: fn.Name}
	body := []casm.Instr{&casm.Label{Name: fn.Name}}
	l.body = &body

	// Arguments live at negative fp-offsets: slot -1 holds the return pc,
	// slot -2 the saved fp, so the first argument sits at
	// -(len(args)+2), the last at -3.
	for i, name := range fn.Params {
		l.localVariables[name] = -(int32(len(fn.Params)) + 2) + int32(i)
	}

	for _, stmt := range fn.Body {
		if err := l.lowerStmt(stmt); err != nil {
			return nil, err
		}
	}

	casmFn.Body = *l.body
	return casmFn, nil
}

// countLocals pre-scans a function body for LocalVar declarations,
// including ones nested under if/else, so alloc_locals can reserve the
// right amount of stack space no matter where in the body it appears.
// A single pass over the function body before emitting is the simplest
// way to get this count right.
func countLocals(stmts []ast.Stmt) int32 {
	var n int32
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.LocalVar:
			n++
		case *ast.If:
			n += countLocals(s.Then)
			n += countLocals(s.Else)
		}
	}
	return n
}

func (l *Lowerer) emit(i casm.Instr) {
	*l.body = append(*l.body, i)
}

func (l *Lowerer) lowerStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.LocalVar:
		return l.lowerLocalVar(s)
	case *ast.AllocLocals:
		l.emit(&casm.IncrAp{Amount: l.sizeOfLocals})
		return nil
	case *ast.Return:
		v, err := l.lowerExpr(s.Expr)
		if err != nil {
			return err
		}
		l.emit(&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: v, ApBump: true})
		l.emit(&casm.Ret{})
		return nil
	case *ast.AssertEqual:
		a, err := l.lowerExpr(s.Left)
		if err != nil {
			return err
		}
		b, err := l.lowerExpr(s.Right)
		if err != nil {
			return err
		}
		l.emit(&casm.Set{Dst: a, Src: b, ApBump: false})
		return nil
	case *ast.If:
		return l.lowerIf(s)
	case *ast.RetInstr:
		l.emit(&casm.Ret{})
		return nil
	case *ast.Import:
		return nil
	case *ast.Unsupported:
		return &UnsupportedConstructError{What: s.Keyword + " declaration"}
	default:
		return &UnsupportedConstructError{What: fmt.Sprintf("statement %T", s)}
	}
}

func (l *Lowerer) lowerLocalVar(s *ast.LocalVar) error {
	offset := l.currentLocalOffset
	l.localVariables[s.Name] = offset
	l.currentLocalOffset++
	if s.Init == nil {
		return nil
	}
	v, err := l.lowerExpr(s.Init)
	if err != nil {
		return err
	}
	l.emit(&casm.Set{Dst: casm.DerefFp{Offset: offset}, Src: v, ApBump: false})
	return nil
}

// lowerIf lowers `if a != b { then } else { else }`. The layout emitted is
// `[cond jump][else body][unconditional jump][then body]`. The
// unconditional jump exists purely to stop the false path (which falls
// out of the else body with the cond jump untaken) from running straight
// into the then body too.
func (l *Lowerer) lowerIf(s *ast.If) error {
	t, err := l.lowerSub(s.CondLeft, s.CondRight)
	if err != nil {
		return err
	}

	condJumpIdx := len(*l.body)
	l.emit(&casm.JmpIfNeqRel{Offset: 0, Cond: t})
	instructionNumber := len(*l.body)

	for _, stmt := range s.Else {
		if err := l.lowerStmt(stmt); err != nil {
			return err
		}
	}
	elseBodySize := int32(len(*l.body) - instructionNumber)

	trailingJumpIdx := len(*l.body)
	l.emit(&casm.JmpRel{Offset: 0})
	thenStart := len(*l.body)

	for _, stmt := range s.Then {
		if err := l.lowerStmt(stmt); err != nil {
			return err
		}
	}
	thenBodySize := int32(len(*l.body) - thenStart)

	(*l.body)[condJumpIdx] = &casm.JmpIfNeqRel{Offset: elseBodySize + 2, Cond: t}
	(*l.body)[trailingJumpIdx] = &casm.JmpRel{Offset: thenBodySize + 1}
	return nil
}

// lowerSub lowers `Sub(l, r)` as "find x such that l = r + x": the VM's
// ALU has no subtractor, so subtraction is expressed as an Add assertion.
func (l *Lowerer) lowerSub(lExpr, rExpr ast.Expr) (casm.Operand, error) {
	lv, err := l.lowerExpr(lExpr)
	if err != nil {
		return nil, err
	}
	rv, err := l.lowerExpr(rExpr)
	if err != nil {
		return nil, err
	}
	l.emit(&casm.Add{Dst: lv, Op0: casm.DerefAp{Offset: 0}, Op1: rv})
	return casm.DerefAp{Offset: -1}, nil
}

func (l *Lowerer) lowerExpr(e ast.Expr) (casm.Operand, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return casm.Int{Value: e.Value}, nil
	case *ast.Ident:
		offset, ok := l.localVariables[e.Name]
		if !ok {
			return nil, &UnknownIdentifierError{Name: e.Name}
		}
		return casm.DerefFp{Offset: offset}, nil
	case *ast.Binary:
		return l.lowerBinary(e)
	case *ast.Call:
		return l.lowerCall(e)
	case *ast.Deref:
		return nil, &UnsupportedConstructError{What: "pointer dereference"}
	case *ast.AddressOf:
		return nil, &UnsupportedConstructError{What: "address-of operator"}
	case *ast.NewExpr:
		return nil, &UnsupportedConstructError{What: "new expression"}
	case *ast.CastExpr:
		return nil, &UnsupportedConstructError{What: "cast expression"}
	case *ast.Register:
		return nil, &UnsupportedConstructError{What: "bare ap/fp reference"}
	default:
		return nil, &UnsupportedConstructError{What: fmt.Sprintf("expression %T", e)}
	}
}

func (l *Lowerer) lowerBinary(e *ast.Binary) (casm.Operand, error) {
	switch e.Op {
	case ast.TK_PLUS:
		return l.lowerAddMul(e.Left, e.Right, true)
	case ast.TK_TIMES:
		return l.lowerAddMul(e.Left, e.Right, false)
	case ast.TK_MINUS:
		return l.lowerSub(e.Left, e.Right)
	case ast.TK_DIV:
		return nil, &UnsupportedConstructError{What: "division"}
	case ast.TK_NE:
		return nil, &UnsupportedConstructError{What: "!= outside of an if condition"}
	default:
		return nil, &UnsupportedConstructError{What: fmt.Sprintf("binary operator %s", e.Op)}
	}
}

// lowerAddMul lowers Add and Mul: constant-fold two literal operands,
// otherwise swap so a lone Int operand lands on the right (the encoder can
// only place an immediate in the op1 position) and emit the arithmetic
// instruction.
func (l *Lowerer) lowerAddMul(lExpr, rExpr ast.Expr, isAdd bool) (casm.Operand, error) {
	lv, err := l.lowerExpr(lExpr)
	if err != nil {
		return nil, err
	}
	rv, err := l.lowerExpr(rExpr)
	if err != nil {
		return nil, err
	}

	if li, ok := lv.(casm.Int); ok {
		if ri, ok := rv.(casm.Int); ok {
			if isAdd {
				return casm.Int{Value: li.Value + ri.Value}, nil
			}
			return casm.Int{Value: li.Value * ri.Value}, nil
		}
	}

	if _, ok := lv.(casm.Int); ok {
		lv, rv = rv, lv
	}

	dst := casm.DerefAp{Offset: 0}
	if isAdd {
		l.emit(&casm.Add{Dst: dst, Op0: lv, Op1: rv})
	} else {
		l.emit(&casm.Mul{Dst: dst, Op0: lv, Op1: rv})
	}
	return casm.DerefAp{Offset: -1}, nil
}

func (l *Lowerer) lowerCall(c *ast.Call) (casm.Operand, error) {
	if c.NamedArgs {
		return nil, &UnsupportedConstructError{What: "calls with named arguments"}
	}
	for _, arg := range c.Args {
		v, err := l.lowerExpr(arg)
		if err != nil {
			return nil, err
		}
		l.emit(&casm.Set{Dst: casm.DerefAp{Offset: 0}, Src: v, ApBump: true})
	}
	l.emit(&casm.Call{Target: c.Name})
	return casm.DerefAp{Offset: -1}, nil
}
