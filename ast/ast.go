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

import "fmt"

// -----------------------------------------------------------------------------
// Expressions
//
// The lowerer's expression contract only knows how to turn a subset of
// these into an Operand: IntLit, Ident, Binary{+,-,*}, Call. The rest
// parse successfully (so the pipeline can produce a single, batched
// UnsupportedConstruct diagnostic instead of failing at parse time) but are
// rejected by the lowerer.

type Expr interface {
	fmt.Stringer
	exprNode()
}

type IntLit struct {
	Value uint64
}

type Ident struct {
	Name string
}

// Binary covers Add, Sub, Mul (TK_PLUS/TK_MINUS/TK_TIMES, all supported)
// and Div/Neq (TK_DIV/TK_NE, both rejected by the lowerer: division has no
// CASM form, and Neq is only legal as the top-level condition of an If).
type Binary struct {
	Op    TokenKind
	Left  Expr
	Right Expr
}

type Call struct {
	Name      string
	Args      []Expr
	NamedArgs bool // true if any argument used `name = expr` form
}

// Deref is `[expr]`, pointer dereference. Unsupported.
type Deref struct {
	Inner Expr
}

// AddressOf is `&expr`. Unsupported.
type AddressOf struct {
	Inner Expr
}

// NewExpr is `new expr`. Unsupported (no allocator in this VM).
type NewExpr struct {
	Inner Expr
}

// CastExpr is `cast(expr, type)`. Unsupported (no type system).
type CastExpr struct {
	Inner    Expr
	TypeName string
}

// Register is a bare `ap` or `fp` reference used as an expression.
// Unsupported as a standalone value (ap/fp only appear implicitly via
// DerefAp/DerefFp operands produced by the lowerer itself).
type Register struct {
	Which TokenKind
}

func (*IntLit) exprNode()    {}
func (*Ident) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Call) exprNode()      {}
func (*Deref) exprNode()     {}
func (*AddressOf) exprNode() {}
func (*NewExpr) exprNode()   {}
func (*CastExpr) exprNode()  {}
func (*Register) exprNode()  {}

func (e *IntLit) String() string { return fmt.Sprintf("IntLit{%d}", e.Value) }
func (e *Ident) String() string  { return fmt.Sprintf("Ident{%s}", e.Name) }
func (e *Binary) String() string { return fmt.Sprintf("Binary{%s}", e.Op.String()) }
func (e *Call) String() string   { return fmt.Sprintf("Call{%s}", e.Name) }
func (e *Deref) String() string  { return "Deref" }
func (e *AddressOf) String() string {
	return "AddressOf"
}
func (e *NewExpr) String() string  { return "New" }
func (e *CastExpr) String() string { return fmt.Sprintf("Cast{%s}", e.TypeName) }
func (e *Register) String() string { return fmt.Sprintf("Register{%s}", e.Which.String()) }

// -----------------------------------------------------------------------------
// Statements (called "code elements" in the surface grammar)

type Stmt interface {
	fmt.Stringer
	stmtNode()
}

// LocalVar declares a name addressable via an fp-relative offset, with an
// optional initializer, e.g. `let x = 2 + 3 * 4;`.
type LocalVar struct {
	Name string
	Init Expr // nil if no initializer
}

// AllocLocals corresponds to the `alloc_locals;` code element.
type AllocLocals struct{}

type Return struct {
	Expr Expr
}

// AssertEqual is the bare `a = b;` code element (no let/local prefix).
type AssertEqual struct {
	Left  Expr
	Right Expr
}

// If's condition is constrained to the Neq(a, b) shape; it is stored
// pre-split rather than as a generic Expr so the lowerer never has to
// re-discover the Neq shape.
type If struct {
	CondLeft  Expr
	CondRight Expr
	Then      []Stmt
	Else      []Stmt
}

// RetInstr is the bare `ret;` code element, distinct from the
// `return expr;` statement.
type RetInstr struct{}

// Import records `from X import A, B;`; lexed and parsed, never lowered:
// this compiler never links across files.
type Import struct {
	From  string
	Names []string
}

// Unsupported wraps a code element whose keyword the parser recognizes
// (struct/const/with_attr/static_assert/tempvar/using) but that has no
// lowering: the parser records enough to name it in a later diagnostic
// without needing a dedicated grammar.
type Unsupported struct {
	Keyword string
}

func (*LocalVar) stmtNode()    {}
func (*AllocLocals) stmtNode() {}
func (*Return) stmtNode()      {}
func (*AssertEqual) stmtNode() {}
func (*If) stmtNode()          {}
func (*RetInstr) stmtNode()    {}
func (*Import) stmtNode()      {}
func (*Unsupported) stmtNode() {}

func (s *LocalVar) String() string {
	if s.Init == nil {
		return fmt.Sprintf("LocalVar{%s}", s.Name)
	}
	return fmt.Sprintf("LocalVar{%s = %s}", s.Name, s.Init)
}
func (s *AllocLocals) String() string { return "AllocLocals" }
func (s *Return) String() string      { return "Return" }
func (s *AssertEqual) String() string { return "AssertEqual" }
func (s *If) String() string          { return "If" }
func (s *RetInstr) String() string    { return "RetInstr" }
func (s *Import) String() string      { return fmt.Sprintf("Import{%s}", s.From) }
func (s *Unsupported) String() string { return fmt.Sprintf("Unsupported{%s}", s.Keyword) }

// -----------------------------------------------------------------------------
// Declarations

type FuncDecl struct {
	Name   string
	Params []string
	Body   []Stmt
}

func (f *FuncDecl) String() string { return fmt.Sprintf("FuncDecl{%s}", f.Name) }

// Root is the parse result for one source file: an ordered list of function
// declarations plus whatever top-level imports/unsupported elements
// appeared alongside them.
type Root struct {
	Funcs       []*FuncDecl
	Imports     []*Import
	Unsupported []*Unsupported
}
