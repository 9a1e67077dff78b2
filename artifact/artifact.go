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

// Package artifact serializes an encoded CASM stream into the JSON
// program artifact format a Cairo-family VM loader expects.
package artifact

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gael-bigot/czc/casm"
	"github.com/gael-bigot/czc/encode"
	"github.com/gael-bigot/czc/resolve"
)

// Identifier describes one named program entry point.
type Identifier struct {
	Decorators []string `json:"decorators"`
	PC         int32    `json:"pc"`
	Type       string   `json:"type"`
}

type referenceManager struct {
	References []interface{} `json:"references"`
}

// Artifact is the top-level JSON document produced for a compiled source
// file.
type Artifact struct {
	Attributes       []interface{}          `json:"attributes"`
	Builtins         []interface{}          `json:"builtins"`
	CompilerVersion  string                 `json:"compiler_version"`
	Data             []string               `json:"data"`
	Hints            map[string]interface{} `json:"hints"`
	Identifiers      map[string]Identifier  `json:"identifiers"`
	MainScope        string                 `json:"main_scope"`
	Prime            string                 `json:"prime"`
	ReferenceManager referenceManager       `json:"reference_manager"`
}

// Build encodes every instruction in stream, in order, and assembles the
// JSON artifact around the resulting hex words plus the label table.
func Build(stream []casm.Instr, addrs resolve.FunctionAddresses) (*Artifact, error) {
	art := &Artifact{
		Attributes:      []interface{}{},
		Builtins:        []interface{}{},
		CompilerVersion: "0.1",
		Data:            []string{},
		Hints:           map[string]interface{}{},
		Identifiers:     map[string]Identifier{},
		MainScope:       "__main__",
		Prime:           "0x7fffffff",
	}
	art.ReferenceManager.References = []interface{}{}

	for i, instr := range stream {
		word, imm, err := encode.Encode(instr)
		if err != nil {
			return nil, fmt.Errorf("encoding instruction %d (%s): %w", i, instr, err)
		}
		art.Data = append(art.Data, hexWord(word))
		if imm != nil {
			art.Data = append(art.Data, hexWord(*imm))
		}
	}

	for name, addr := range addrs {
		art.Identifiers["__main__."+name] = Identifier{
			Decorators: []string{},
			PC:         addr,
			Type:       "function",
		}
	}

	return art, nil
}

func hexWord(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}

// WriteIndent renders the artifact as indented JSON text, the form the
// CLI writes to disk.
func (a *Artifact) WriteIndent() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}
