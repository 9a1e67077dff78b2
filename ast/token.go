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

import "github.com/gael-bigot/czc/utils"

type TokenKind int

const (
	INVALID TokenKind = iota
	TK_IDENT
	TK_EOF
	LIT_INT

	// keywords
	KW_FUNC
	KW_RETURN
	KW_LET
	KW_LOCAL
	KW_CONST
	KW_STRUCT
	KW_IF
	KW_ELSE
	KW_WITH_ATTR
	KW_ALLOC_LOCALS
	KW_FROM
	KW_IMPORT
	KW_CALL
	KW_JMP
	KW_ABS
	KW_REL
	KW_RET
	KW_AP
	KW_FP
	KW_FELT
	KW_CODEOFFSET
	KW_CAST
	KW_ASSERT
	KW_STATIC_ASSERT
	KW_NEW
	KW_AND
	KW_NONDET
	KW_TEMPVAR
	KW_USING

	// punctuation and operators
	TK_LPAREN
	TK_RPAREN
	TK_LBRACE
	TK_RBRACE
	TK_LBRACKET
	TK_RBRACKET
	TK_COMMA
	TK_SEMICOLON
	TK_COLON
	TK_DOT
	TK_ASSIGN
	TK_PLUS
	TK_MINUS
	TK_TIMES
	TK_DIV
	TK_AMP
	TK_EQ
	TK_NE
)

var Keywords = map[string]TokenKind{
	"func":          KW_FUNC,
	"return":        KW_RETURN,
	"let":           KW_LET,
	"local":         KW_LOCAL,
	"const":         KW_CONST,
	"struct":        KW_STRUCT,
	"if":            KW_IF,
	"else":          KW_ELSE,
	"with_attr":     KW_WITH_ATTR,
	"alloc_locals":  KW_ALLOC_LOCALS,
	"from":          KW_FROM,
	"import":        KW_IMPORT,
	"call":          KW_CALL,
	"jmp":           KW_JMP,
	"abs":           KW_ABS,
	"rel":           KW_REL,
	"ret":           KW_RET,
	"ap":            KW_AP,
	"fp":            KW_FP,
	"felt":          KW_FELT,
	"codeoffset":    KW_CODEOFFSET,
	"cast":          KW_CAST,
	"assert":        KW_ASSERT,
	"static_assert": KW_STATIC_ASSERT,
	"new":           KW_NEW,
	"and":           KW_AND,
	"nondet":        KW_NONDET,
	"tempvar":       KW_TEMPVAR,
	"using":         KW_USING,
}

func (t TokenKind) String() string {
	switch t {
	case INVALID:
		return "<invalid>"
	case TK_IDENT:
		return "<identifier>"
	case TK_EOF:
		return "<eof>"
	case LIT_INT:
		return "<integer>"
	case TK_LPAREN:
		return "("
	case TK_RPAREN:
		return ")"
	case TK_LBRACE:
		return "{"
	case TK_RBRACE:
		return "}"
	case TK_LBRACKET:
		return "["
	case TK_RBRACKET:
		return "]"
	case TK_COMMA:
		return ","
	case TK_SEMICOLON:
		return ";"
	case TK_COLON:
		return ":"
	case TK_DOT:
		return "."
	case TK_ASSIGN:
		return "="
	case TK_PLUS:
		return "+"
	case TK_MINUS:
		return "-"
	case TK_TIMES:
		return "*"
	case TK_DIV:
		return "/"
	case TK_AMP:
		return "&"
	case TK_EQ:
		return "=="
	case TK_NE:
		return "!="
	}
	for lexeme, kind := range Keywords {
		if kind == t {
			return lexeme
		}
	}
	utils.Unimplement("TokenKind.String for unknown kind")
	return ""
}
