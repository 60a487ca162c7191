// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of algo-builder-sub005
//
// algo-builder-sub005 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// algo-builder-sub005 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with algo-builder-sub005.  If not, see <https://www.gnu.org/licenses/>.

package logic

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// assemblerDefaultVersion is the version a program gets without a
// `#pragma version` line.
const assemblerDefaultVersion = 1

// Instruction is one assembled operation with its decoded immediates.
type Instruction struct {
	Spec *OpSpec
	Line int
	Text string

	// Uints holds byte, int8, int and field immediates in source order.
	Uints []uint64
	// Bytes holds byte-string immediates.
	Bytes [][]byte
	// Targets holds resolved branch destinations as instruction indexes.
	Targets []int
}

// Program is an assembled TEAL program, ready for evaluation.
type Program struct {
	Version      uint64
	Instructions []Instruction
	Labels       map[string]int

	size int
}

// Size is the estimated size of the program's bytecode, the figure compared
// against the program length limits.
func (p *Program) Size() int {
	return p.size
}

// AssembleError reports a failure on a specific source line.
type AssembleError struct {
	Line int
	Err  error
}

func (le *AssembleError) Error() string {
	return fmt.Sprintf("%d: %s", le.Line, le.Err.Error())
}

func (le *AssembleError) Unwrap() error {
	return le.Err
}

// labelReference represents a label and its usage
type labelReference struct {
	line  int
	label string
	instr int
	slot  int
}

type assembler struct {
	version      uint64
	pragmaSeen   bool
	instructions []Instruction
	labels       map[string]int
	labelRefs    []labelReference
	size         int
	currentLine  int
}

// AssembleString takes an entire program in a string and assembles it.
// The version comes from the `#pragma version` line, or defaults to 1.
func AssembleString(text string) (*Program, error) {
	return AssembleStringWithVersion(text, 0)
}

// AssembleStringWithVersion assembles text, using version unless the program
// carries its own `#pragma version`. A version of 0 means the default.
func AssembleStringWithVersion(text string, version uint64) (*Program, error) {
	if version == 0 {
		version = assemblerDefaultVersion
	}
	asm := assembler{version: version, labels: make(map[string]int)}
	if err := asm.assemble(text); err != nil {
		return nil, ledgercore.WithCode(ledgercore.CodeAssemble, err)
	}
	return &Program{
		Version:      asm.version,
		Instructions: asm.instructions,
		Labels:       asm.labels,
		size:         asm.size,
	}, nil
}

func (asm *assembler) errorf(format string, a ...interface{}) error {
	return &AssembleError{Line: asm.currentLine, Err: fmt.Errorf(format, a...)}
}

func (asm *assembler) assemble(text string) error {
	if strings.TrimSpace(text) == "" {
		return &AssembleError{Line: 0, Err: errors.New("cannot assemble empty program text")}
	}
	asm.size = 1 // version byte
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		asm.currentLine = i + 1
		fields, err := fieldsFromLine(strings.TrimRight(line, "\r"))
		if err != nil {
			return asm.errorf("%v", err)
		}
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "#pragma" {
			if err := asm.pragma(fields); err != nil {
				return err
			}
			continue
		}
		if strings.HasSuffix(fields[0], ":") {
			label := strings.TrimSuffix(fields[0], ":")
			if label == "" {
				return asm.errorf("empty label")
			}
			if _, ok := asm.labels[label]; ok {
				return asm.errorf("duplicate label %#v", label)
			}
			asm.labels[label] = len(asm.instructions)
			fields = fields[1:]
			if len(fields) == 0 {
				continue
			}
		}
		if err := asm.instruction(fields); err != nil {
			return err
		}
	}
	return asm.resolveLabels()
}

func (asm *assembler) pragma(fields []string) error {
	if len(fields) < 2 {
		return asm.errorf("empty pragma")
	}
	if fields[1] != "version" {
		return asm.errorf("unsupported pragma directive: %#v", fields[1])
	}
	if len(fields) != 3 {
		return asm.errorf("no version value")
	}
	if asm.pragmaSeen {
		return asm.errorf("duplicate #pragma version")
	}
	if len(asm.instructions) > 0 || len(asm.labels) > 0 {
		return asm.errorf("#pragma version is only allowed before instructions")
	}
	ver, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return asm.errorf("bad #pragma version: %#v", fields[2])
	}
	if ver < 1 || ver > LogicVersion {
		return asm.errorf("unsupported version: %d", ver)
	}
	asm.version = ver
	asm.pragmaSeen = true
	return nil
}

// arrayForms are the ops that, given one more immediate than usual, mean
// their array-accessing sibling.
var arrayForms = map[string]string{
	"txn":   "txna",
	"gtxn":  "gtxna",
	"gtxns": "gtxnsa",
	"itxn":  "itxna",
	"gitxn": "gitxna",
}

func (asm *assembler) lookup(name string) (*OpSpec, error) {
	switch name {
	case "int":
		return &pseudoInt, nil
	case "byte", "addr", "method":
		return &pseudoBytes, nil
	}
	if spec, ok := opsByName[asm.version][name]; ok {
		return spec, nil
	}
	if spec, ok := opsByName[LogicVersion][name]; ok {
		return nil, asm.errorf("%s opcode was introduced in TEAL v%d", name, spec.Version)
	}
	return nil, asm.errorf("unknown opcode: %s", name)
}

func (asm *assembler) instruction(fields []string) error {
	name, args := fields[0], fields[1:]
	spec, err := asm.lookup(name)
	if err != nil {
		return err
	}
	if alt, ok := arrayForms[name]; ok && len(args) == len(spec.Immediates)+1 {
		if spec, err = asm.lookup(alt); err != nil {
			return err
		}
	}

	ins := Instruction{Spec: spec, Line: asm.currentLine, Text: strings.Join(fields, " ")}
	size := 1
	switch name {
	case "int":
		if len(args) != 1 {
			return asm.errorf("int needs one argument")
		}
		val, err := parseIntImm(args[0])
		if err != nil {
			return asm.errorf("%v", err)
		}
		ins.Uints = []uint64{val}
		asm.append(ins, 1+varintSize(val))
		return nil
	case "byte":
		val, consumed, err := parseBinaryArgs(args)
		if err != nil {
			return asm.errorf("%v", err)
		}
		if consumed != len(args) {
			return asm.errorf("byte with extra argument")
		}
		ins.Bytes = [][]byte{val}
		asm.append(ins, constBytesSize(ins.Bytes[0]))
		return nil
	case "addr":
		if len(args) != 1 {
			return asm.errorf("addr operation needs one argument")
		}
		addr, err := basics.UnmarshalChecksumAddress(args[0])
		if err != nil {
			return asm.errorf("%v", err)
		}
		ins.Bytes = [][]byte{addr[:]}
		asm.append(ins, constBytesSize(ins.Bytes[0]))
		return nil
	case "method":
		if len(args) != 1 {
			return asm.errorf("method expects exactly one argument")
		}
		sig, err := parseStringLiteral(args[0])
		if err != nil {
			return asm.errorf("%v", err)
		}
		h := crypto.Hash(sig)
		ins.Bytes = [][]byte{h[:4]}
		asm.append(ins, constBytesSize(ins.Bytes[0]))
		return nil
	}

	pos := 0
	for _, im := range spec.Immediates {
		switch im.kind {
		case immByte:
			if pos >= len(args) {
				return asm.errorf("%s expects %d immediate arguments", spec.Name, len(spec.Immediates))
			}
			if im.Group != nil {
				fs, ok := im.Group.SpecByName(args[pos])
				if !ok {
					return asm.errorf("%s unknown field: %#v", spec.Name, args[pos])
				}
				if fs.Version() > asm.version {
					return asm.errorf("%s %s field was introduced in TEAL v%d", spec.Name, args[pos], fs.Version())
				}
				ins.Uints = append(ins.Uints, uint64(fs.Field()))
			} else {
				v, err := strconv.ParseUint(args[pos], 0, 64)
				if err != nil || v > math.MaxUint8 {
					return asm.errorf("%s %s immediate beyond 255: %s", spec.Name, im.Name, args[pos])
				}
				ins.Uints = append(ins.Uints, v)
			}
			pos++
			size++
		case immInt8:
			if pos >= len(args) {
				return asm.errorf("%s expects 1 immediate argument", spec.Name)
			}
			v, err := strconv.ParseInt(args[pos], 0, 8)
			if err != nil {
				return asm.errorf("%s unable to parse %#v as int8", spec.Name, args[pos])
			}
			ins.Uints = append(ins.Uints, uint64(v))
			pos++
			size++
		case immInt:
			if pos >= len(args) {
				return asm.errorf("%s expects 1 immediate argument", spec.Name)
			}
			v, err := parseIntImm(args[pos])
			if err != nil {
				return asm.errorf("%v", err)
			}
			ins.Uints = append(ins.Uints, v)
			pos++
			size += varintSize(v)
		case immBytes:
			val, consumed, err := parseBinaryArgs(args[pos:])
			if err != nil {
				return asm.errorf("%v", err)
			}
			ins.Bytes = append(ins.Bytes, val)
			pos += consumed
			size += varintSize(uint64(len(val))) + len(val)
		case immInts:
			size += varintSize(uint64(len(args) - pos))
			for ; pos < len(args); pos++ {
				v, err := parseIntImm(args[pos])
				if err != nil {
					return asm.errorf("%v", err)
				}
				ins.Uints = append(ins.Uints, v)
				size += varintSize(v)
			}
		case immBytess:
			for pos < len(args) {
				val, consumed, err := parseBinaryArgs(args[pos:])
				if err != nil {
					return asm.errorf("%v", err)
				}
				ins.Bytes = append(ins.Bytes, val)
				pos += consumed
				size += varintSize(uint64(len(val))) + len(val)
			}
			size += varintSize(uint64(len(ins.Bytes)))
		case immLabel:
			if pos >= len(args) {
				return asm.errorf("%s needs a single label argument", spec.Name)
			}
			asm.labelRefs = append(asm.labelRefs, labelReference{asm.currentLine, args[pos], len(asm.instructions), len(ins.Targets)})
			ins.Targets = append(ins.Targets, -1)
			pos++
			size += 2
		case immLabels:
			if len(args)-pos > math.MaxUint8 {
				return asm.errorf("%s cannot take more than 255 labels", spec.Name)
			}
			for ; pos < len(args); pos++ {
				asm.labelRefs = append(asm.labelRefs, labelReference{asm.currentLine, args[pos], len(asm.instructions), len(ins.Targets)})
				ins.Targets = append(ins.Targets, -1)
				size += 2
			}
			size++
		}
	}
	if pos != len(args) {
		return asm.errorf("%s expects %d immediate arguments", spec.Name, len(spec.Immediates))
	}
	asm.append(ins, size)
	return nil
}

func (asm *assembler) append(ins Instruction, size int) {
	asm.instructions = append(asm.instructions, ins)
	asm.size += size
}

func (asm *assembler) resolveLabels() error {
	for _, ref := range asm.labelRefs {
		dest, ok := asm.labels[ref.label]
		if !ok {
			return &AssembleError{Line: ref.line, Err: fmt.Errorf("reference to undefined label %#v", ref.label)}
		}
		if dest <= ref.instr && asm.version < backBranchEnabledVersion {
			return &AssembleError{Line: ref.line, Err: fmt.Errorf("label %#v is a back reference, back jump support was introduced in TEAL v%d", ref.label, backBranchEnabledVersion)}
		}
		asm.instructions[ref.instr].Targets[ref.slot] = dest
	}
	return nil
}

// constBytesSize is the encoded size of a byte constant pushed inline: the
// opcode, a length varint and the bytes themselves.
func constBytesSize(b []byte) int {
	return 1 + varintSize(uint64(len(b))) + len(b)
}

func varintSize(v uint64) int {
	var buf [binary.MaxVarintLen64]byte
	return binary.PutUvarint(buf[:], v)
}

// fieldsFromLine splits a line into whitespace separated fields, keeping
// quoted strings whole and dropping `//` comments.
func fieldsFromLine(line string) ([]string, error) {
	var fields []string
	var current strings.Builder
	inString := false
	escaped := false
	flush := func() {
		if current.Len() > 0 {
			fields = append(fields, current.String())
			current.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inString {
			current.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch {
		case ch == '"':
			inString = true
			current.WriteByte(ch)
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			flush()
			return fields, nil
		case ch == ' ' || ch == '\t':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	if inString {
		return nil, errors.New("unterminated string literal")
	}
	flush()
	return fields, nil
}

var namedIntConstants = map[string]uint64{
	string(protocol.UnknownTx):         0,
	string(protocol.PaymentTx):         1,
	string(protocol.KeyRegistrationTx): 2,
	string(protocol.AssetConfigTx):     3,
	string(protocol.AssetTransferTx):   4,
	string(protocol.AssetFreezeTx):     5,
	string(protocol.ApplicationCallTx): 6,
}

func init() {
	for oc := transactions.NoOpOC; oc <= transactions.DeleteApplicationOC; oc++ {
		namedIntConstants[oc.String()] = uint64(oc)
	}
}

func parseIntImm(arg string) (uint64, error) {
	if v, ok := namedIntConstants[arg]; ok {
		return v, nil
	}
	v, err := strconv.ParseUint(arg, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse %#v as integer", arg)
	}
	return v, nil
}

// parseBinaryArgs decodes one byte-string literal from the head of args and
// reports how many fields it consumed.
func parseBinaryArgs(args []string) ([]byte, int, error) {
	if len(args) == 0 {
		return nil, 0, errors.New("byte literal is missing")
	}
	arg := args[0]
	if strings.HasPrefix(arg, "base32(") || strings.HasPrefix(arg, "b32(") {
		open := strings.IndexRune(arg, '(')
		if !strings.HasSuffix(arg, ")") {
			return nil, 0, errors.New("byte base32 arg lacks close paren")
		}
		val, err := decodeBase32(arg[open+1 : len(arg)-1])
		return val, 1, err
	}
	if strings.HasPrefix(arg, "base64(") || strings.HasPrefix(arg, "b64(") {
		open := strings.IndexRune(arg, '(')
		if !strings.HasSuffix(arg, ")") {
			return nil, 0, errors.New("byte base64 arg lacks close paren")
		}
		val, err := base64.StdEncoding.DecodeString(arg[open+1 : len(arg)-1])
		return val, 1, err
	}
	if strings.HasPrefix(arg, "0x") {
		val, err := hex.DecodeString(arg[2:])
		return val, 1, err
	}
	switch arg {
	case "base32", "b32":
		if len(args) < 2 {
			return nil, 0, fmt.Errorf("need literal after 'byte %s'", arg)
		}
		val, err := decodeBase32(args[1])
		return val, 2, err
	case "base64", "b64":
		if len(args) < 2 {
			return nil, 0, fmt.Errorf("need literal after 'byte %s'", arg)
		}
		val, err := base64.StdEncoding.DecodeString(args[1])
		return val, 2, err
	}
	if strings.HasPrefix(arg, "\"") {
		val, err := parseStringLiteral(arg)
		return val, 1, err
	}
	return nil, 0, fmt.Errorf("byte arg did not parse: %v", arg)
}

func decodeBase32(s string) ([]byte, error) {
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(s, "="))
}

func parseStringLiteral(input string) ([]byte, error) {
	if len(input) < 2 || input[0] != '"' || input[len(input)-1] != '"' {
		return nil, fmt.Errorf("expected string literal, got %s", input)
	}
	input = input[1 : len(input)-1]
	result := make([]byte, 0, len(input))
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if ch != '\\' {
			result = append(result, ch)
			continue
		}
		i++
		if i >= len(input) {
			return nil, errors.New("non-terminated escape sequence")
		}
		switch input[i] {
		case 'n':
			result = append(result, '\n')
		case 'r':
			result = append(result, '\r')
		case 't':
			result = append(result, '\t')
		case '0':
			result = append(result, 0)
		case '\\':
			result = append(result, '\\')
		case '"':
			result = append(result, '"')
		case 'x':
			if i+2 >= len(input) {
				return nil, errors.New("escape sequence \\x needs two hex digits")
			}
			b, err := hex.DecodeString(input[i+1 : i+3])
			if err != nil {
				return nil, err
			}
			result = append(result, b[0])
			i += 2
		default:
			return nil, fmt.Errorf("invalid escape sequence \\%c", input[i])
		}
	}
	return result, nil
}
