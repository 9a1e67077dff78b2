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

// Package compile wires the front end and the three core subsystems
// (lower, resolve, encode) plus the artifact serializer into a single
// linear pipeline: AST -> CASM -> resolved CASM -> packed words -> JSON
// artifact.
package compile

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gael-bigot/czc/artifact"
	"github.com/gael-bigot/czc/ast"
	"github.com/gael-bigot/czc/casm"
	"github.com/gael-bigot/czc/lower"
	"github.com/gael-bigot/czc/resolve"
)

// Options controls the optional debug dumps compileY produced in falcon by
// bare fmt.Printf; here they go through structured logging instead.
type Options struct {
	Debug bool
	Log   *logrus.Logger
}

// Result is everything a successful compilation produced, kept around so
// callers (tests, the CLI) can inspect intermediate stages without
// recompiling.
type Result struct {
	Root    *ast.Root
	Program *artifact.Artifact
	Addrs   resolve.FunctionAddresses
}

func getLibNameFromPath(filePath string) string {
	filenameWithExt := filepath.Base(filePath)
	return filenameWithExt[:len(filenameWithExt)-len(filepath.Ext(filenameWithExt))]
}

// CompileFile parses, lowers, resolves, and encodes the source file at
// filePath, producing the JSON program artifact. Lex/parse errors are
// collected and rendered together to stdout, and the returned error
// reports how many there were; lowering, resolution, and encoding errors
// are fatal on first occurrence.
func CompileFile(filePath string, source string, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	libName := getLibNameFromPath(filePath)
	entry := log.WithField("file", libName)

	entry.Debug("parsing")
	root, diags := ast.ParseRoot(filePath, source)
	if diags.HasErrors() {
		fmt.Print(diags.Render(source))
		return nil, fmt.Errorf("%s: %d lex/parse error(s)", filePath, len(diags.Diags))
	}

	if opts.Debug {
		entry.WithField("functions", len(root.Funcs)).Debug("parsed")
		for _, fn := range root.Funcs {
			var dump string
			for _, s := range fn.Body {
				dump += s.String() + "\n"
			}
			entry.WithField("function", fn.Name).Debugf("== AST ==\n%s", dump)
		}
	}

	entry.Debug("lowering")
	prog, err := lower.New(log).Lower(root)
	if err != nil {
		return nil, fmt.Errorf("%s: lowering: %w", filePath, err)
	}
	if opts.Debug {
		for _, fn := range prog.Functions {
			entry.WithField("function", fn.Name).Debugf("== CASM ==\n%s", formatBody(fn.Body))
		}
	}

	entry.Debug("resolving labels and calls")
	stream, addrs, err := resolve.Resolve(prog)
	if err != nil {
		return nil, fmt.Errorf("%s: resolving: %w", filePath, err)
	}

	entry.Debug("encoding and serializing artifact")
	art, err := artifact.Build(stream, addrs)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding: %w", filePath, err)
	}

	return &Result{Root: root, Program: art, Addrs: addrs}, nil
}

func formatBody(body []casm.Instr) string {
	var out string
	for _, instr := range body {
		out += instr.String() + "\n"
	}
	return out
}
