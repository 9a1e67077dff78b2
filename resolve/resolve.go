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

// Package resolve assigns byte addresses to labels and rewrites every
// symbolic Call/Jmp/JmpIfNeq into its *Rel form, two passes over the
// flattened CASM stream.
package resolve

import (
	"fmt"

	"github.com/gael-bigot/czc/casm"
	"github.com/gael-bigot/czc/encode"
)

// FunctionAddresses maps a function's Label name to the byte address of
// the instruction immediately following that label.
type FunctionAddresses map[string]int32

// UnresolvedTargetError is raised when a Call/Jmp/JmpIfNeq names a
// function absent from the program.
type UnresolvedTargetError struct {
	Target string
}

func (e *UnresolvedTargetError) Error() string {
	return fmt.Sprintf("unresolved call/jump target: %s", e.Target)
}

// Resolve flattens every function body in prog into a single CASM stream
// (in function order) and resolves all symbolic references within it. The
// returned stream contains no Label and no symbolic Call/Jmp/JmpIfNeq,
// only CallRel/CallAbs/JmpRel/JmpIfNeqRel and the rest of the IR
// unchanged. Multi-function programs are resolved together so calls
// between functions land on the right address.
func Resolve(prog *casm.Program) ([]casm.Instr, FunctionAddresses, error) {
	var stream []casm.Instr
	for _, fn := range prog.Functions {
		stream = append(stream, fn.Body...)
	}

	addrs, err := passOne(stream)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := passTwo(stream, addrs)
	if err != nil {
		return nil, nil, err
	}
	return resolved, addrs, nil
}

// passOne assigns a byte address to every Label by walking the stream and
// tallying each instruction's width (1 word, or 2 if it carries an
// immediate). Call/Jmp/JmpIfNeq always carry an immediate. The label they
// reference isn't known yet, so their width can't be queried through the
// encoder the way other instructions are; they're hard-coded to width 2.
func passOne(stream []casm.Instr) (FunctionAddresses, error) {
	addrs := FunctionAddresses{}
	addr := int32(0)
	for _, instr := range stream {
		switch instr := instr.(type) {
		case *casm.Label:
			addrs[instr.Name] = addr
		case *casm.Call, *casm.Jmp, *casm.JmpIfNeq:
			addr += 2
		default:
			w, err := instructionWidth(instr)
			if err != nil {
				return nil, err
			}
			addr += w
		}
	}
	return addrs, nil
}

// instructionWidth queries the encoder for whether instr carries an
// immediate, read only for that fact.
func instructionWidth(instr casm.Instr) (int32, error) {
	_, imm, err := encode.Encode(instr)
	if err != nil {
		return 0, err
	}
	if imm == nil {
		return 1, nil
	}
	return 2, nil
}

// passTwo rewrites Call/Jmp/JmpIfNeq into their resolved forms using a
// fresh address counter, dropping every Label.
func passTwo(stream []casm.Instr, addrs FunctionAddresses) ([]casm.Instr, error) {
	var out []casm.Instr
	addr := int32(0)
	for _, instr := range stream {
		switch instr := instr.(type) {
		case *casm.Label:
			// erased
		case *casm.Call:
			target, ok := addrs[instr.Target]
			if !ok {
				return nil, &UnresolvedTargetError{Target: instr.Target}
			}
			out = append(out, &casm.CallRel{Offset: target - addr})
			addr += 2
		case *casm.Jmp:
			target, ok := addrs[instr.Target]
			if !ok {
				return nil, &UnresolvedTargetError{Target: instr.Target}
			}
			out = append(out, &casm.JmpRel{Offset: target - addr})
			addr += 2
		case *casm.JmpIfNeq:
			target, ok := addrs[instr.Target]
			if !ok {
				return nil, &UnresolvedTargetError{Target: instr.Target}
			}
			out = append(out, &casm.JmpIfNeqRel{Offset: target - addr, Cond: instr.Cond})
			addr += 2
		default:
			w, err := instructionWidth(instr)
			if err != nil {
				return nil, err
			}
			out = append(out, instr)
			addr += w
		}
	}
	return out, nil
}
