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
	"fmt"
	"strings"
)

// DiagKind separates lexer and parser diagnostics; both render the same way.
type DiagKind int

const (
	DiagLexError DiagKind = iota
	DiagParseError
)

// Diagnostic is a single reported lex or parse error, anchored to a byte
// span within the source file. Diagnostics are collected rather than
// raised immediately so the parser can recover and keep reporting further
// errors instead of stopping at the first one.
type Diagnostic struct {
	Kind     DiagKind
	FileName string
	Line     int
	Column   int
	Message  string
}

const (
	ansiRed   = "\x1b[31;1m"
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
	ansiBold  = "\x1b[1m"
)

func (d Diagnostic) String() string {
	kind := "LexError"
	if d.Kind == DiagParseError {
		kind = "ParseError"
	}
	return fmt.Sprintf("%s%s%s: %s%s:%d:%d%s %s",
		ansiRed, kind, ansiReset,
		ansiBold, d.FileName, d.Line, d.Column, ansiReset,
		d.Message)
}

// Render prints the diagnostic together with a colored excerpt of the
// offending source line, e.g.:
//
//	ParseError: foo.cas:3:11 expected ';', got "}"
//	    3 | let x = 1 }
//	                  ^
func (d Diagnostic) Render(source string) string {
	var b strings.Builder
	b.WriteString(d.String())
	b.WriteByte('\n')

	lines := strings.Split(source, "\n")
	if d.Line >= 1 && d.Line <= len(lines) {
		line := lines[d.Line-1]
		b.WriteString(fmt.Sprintf("%s%5d |%s %s\n", ansiDim, d.Line, ansiReset, line))
		col := d.Column
		if col < 1 {
			col = 1
		}
		pad := strings.Repeat(" ", 8+col-1)
		b.WriteString(fmt.Sprintf("%s%s%s^%s\n", pad, ansiRed, ansiBold, ansiReset))
	}
	return b.String()
}

// DiagnosticList accumulates diagnostics across a single file's lex+parse
// pass and refuses to continue to lowering if any were reported.
type DiagnosticList struct {
	Diags []Diagnostic
}

func (dl *DiagnosticList) Add(d Diagnostic) {
	dl.Diags = append(dl.Diags, d)
}

func (dl *DiagnosticList) HasErrors() bool {
	return len(dl.Diags) > 0
}

func (dl *DiagnosticList) Render(source string) string {
	var b strings.Builder
	for _, d := range dl.Diags {
		b.WriteString(d.Render(source))
	}
	return b.String()
}
