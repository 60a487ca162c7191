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
	"fmt"
	"strings"
)

// LogicVersion defines default assembler and max eval versions
const LogicVersion = 8

// appsEnabledVersion is the version of TEAL where ApplicationCall
// functionality was enabled. We use this to disallow v0 and v1 TEAL programs
// from being used with applications. Do not edit!
const appsEnabledVersion = 2

// backBranchEnabledVersion is the first version of TEAL where branches could
// go back (and cost accounting was done during execution)
const backBranchEnabledVersion = 4

// directRefEnabledVersion is the version of TEAL where opcodes
// that reference accounts, asas, and apps may do so directly, not requiring
// using an index into arrays.
const directRefEnabledVersion = 4

// innerAppsEnabledVersion is the version that allowed inner app calls.
const innerAppsEnabledVersion = 6

// txnEffectsVersion is first version that allowed txn opcode to access
// "effects" (ApplyData info)
const txnEffectsVersion = 6

// createdResourcesVersion is the first version that allows access to assets
// and applications that were created in the same group, despite them not
// being in the Foreign arrays.
const createdResourcesVersion = 6

// boxVersion is the first version that can use box opcodes.
const boxVersion = 8

// StackType describes the type of a value on the operand stack
type StackType byte

const (
	// StackNone in an OpSpec shows that the op pops or yields nothing
	StackNone StackType = iota

	// StackAny in an OpSpec shows that the op pops or yield any type
	StackAny

	// StackUint64 in an OpSpec shows that the op pops or yields a uint64
	StackUint64

	// StackBytes in an OpSpec shows that the op pops or yields a []byte
	StackBytes
)

func (st StackType) String() string {
	switch st {
	case StackNone:
		return "None"
	case StackAny:
		return "any"
	case StackUint64:
		return "uint64"
	case StackBytes:
		return "[]byte"
	}
	return "internal error, unknown type"
}

// StackTypes is an alias for a list of StackType with syntactic sugar
type StackTypes []StackType

func parseStackTypes(spec string) StackTypes {
	if spec == "" {
		return nil
	}
	types := make(StackTypes, len(spec))
	for i, letter := range spec {
		switch letter {
		case 'a':
			types[i] = StackAny
		case 'b':
			types[i] = StackBytes
		case 'i':
			types[i] = StackUint64
		case 'x':
			types[i] = StackNone
		default:
			panic(spec)
		}
	}
	return types
}

func opCompat(expected, got StackType) bool {
	if expected == StackAny {
		return true
	}
	return expected == got
}

// Proto describes the "stack behavior" of an opcode, what it pops as arguments
// and pushes onto the stack as return values.
type Proto struct {
	Args    StackTypes
	Returns StackTypes
	exits   bool
}

func proto(signature string) Proto {
	parts := strings.Split(signature, ":")
	if len(parts) != 2 {
		panic(signature)
	}
	p := Proto{Args: parseStackTypes(parts[0])}
	if parts[1] == "x" {
		p.exits = true
	} else {
		p.Returns = parseStackTypes(parts[1])
	}
	return p
}

type immKind byte

const (
	immByte immKind = iota
	immInt8
	immLabel
	immInt
	immBytes
	immInts
	immBytess // "ss" not a typo.  Multiple "bytes"
	immLabels
)

type immediate struct {
	Name  string
	kind  immKind
	Group *FieldGroup
}

func imm(name string, kind immKind) immediate {
	return immediate{name, kind, nil}
}

// linearCost charges a base cost plus chunkCost for each chunkSize bytes of
// the value depth below the top of the stack.
type linearCost struct {
	baseCost  int
	chunkCost int
	chunkSize int
	depth     int
}

func (lc *linearCost) compute(stack []stackValue) int {
	cost := lc.baseCost
	if lc.chunkCost != 0 && lc.chunkSize != 0 {
		idx := len(stack) - 1 - lc.depth
		if idx >= 0 {
			cost += lc.chunkCost * ((len(stack[idx].Bytes) + lc.chunkSize - 1) / lc.chunkSize)
		}
	}
	return cost
}

// OpDetails records details such as non-standard costs, immediate arguments,
// and the modes an opcode runs in.
type OpDetails struct {
	Modes      RunMode // all modes that opcode can run in. i.e. (cx.mode & Modes) != 0 allows
	FullCost   linearCost
	Immediates []immediate

	// varStack marks opcodes whose stack effect depends on their immediates
	// or on the frame they run in.
	varStack bool
}

func opDefault() OpDetails {
	return OpDetails{Modes: ModeAny, FullCost: linearCost{baseCost: 1}}
}

func constants(kind immKind) OpDetails {
	d := opDefault()
	d.Immediates = []immediate{imm("", kind)}
	return d
}

func costly(cost int) OpDetails {
	d := opDefault()
	d.FullCost.baseCost = cost
	return d
}

func (d OpDetails) costs(cost int) OpDetails {
	clone := d
	clone.FullCost = linearCost{baseCost: cost}
	return clone
}

func only(m RunMode) OpDetails {
	d := opDefault()
	d.Modes = m
	return d
}

func (d OpDetails) only(m RunMode) OpDetails {
	clone := d
	clone.Modes = m
	return clone
}

func (d OpDetails) dynamic() OpDetails {
	clone := d
	clone.varStack = true
	return clone
}

func (d OpDetails) costByLength(initial, perChunk, chunkSize, depth int) OpDetails {
	clone := d
	clone.FullCost = linearCost{initial, perChunk, chunkSize, depth}
	return clone
}

func immediates(names ...string) OpDetails {
	d := opDefault()
	d.Immediates = make([]immediate, len(names))
	for i, name := range names {
		d.Immediates[i] = imm(name, immByte)
	}
	return d
}

func (d OpDetails) field(name string, group *FieldGroup) OpDetails {
	clone := d
	clone.Immediates = append([]immediate(nil), d.Immediates...)
	for i := range clone.Immediates {
		if clone.Immediates[i].Name == name {
			clone.Immediates[i].Group = group
			return clone
		}
	}
	panic(name)
}

func field(name string, group *FieldGroup) OpDetails {
	return immediates(name).field(name, group)
}

func branchTarget() OpDetails {
	d := opDefault()
	d.Immediates = []immediate{imm("target", immLabel)}
	return d
}

// OpSpec defines an opcode
type OpSpec struct {
	Opcode byte
	Name   string
	op     evalFunc // evaluate the op
	Proto
	Version   uint64 // TEAL version opcode introduced
	OpDetails        // Special cost or bytecode layout considerations
}

// AlwaysExits is true iff the opcode always ends the program.
func (spec *OpSpec) AlwaysExits() bool {
	return spec.exits
}

type evalFunc func(cx *EvalContext) error

// OpSpecs is the table of operations that can be assembled and evaluated.
var OpSpecs = []OpSpec{
	{0x00, "err", opErr, proto(":x"), 1, opDefault()},
	{0x01, "sha256", opSHA256, proto("b:b"), 1, costly(7)},
	{0x02, "keccak256", opKeccak256, proto("b:b"), 1, costly(26)},
	{0x03, "sha512_256", opSHA512_256, proto("b:b"), 1, costly(9)},

	// Cost of these opcodes increases in TEAL version 2 based on measured
	// performance.
	{0x01, "sha256", opSHA256, proto("b:b"), 2, costly(35)},
	{0x02, "keccak256", opKeccak256, proto("b:b"), 2, costly(130)},
	{0x03, "sha512_256", opSHA512_256, proto("b:b"), 2, costly(45)},

	{0x04, "ed25519verify", opEd25519Verify, proto("bbb:i"), 1, costly(1900).only(ModeSig)},
	{0x04, "ed25519verify", opEd25519Verify, proto("bbb:i"), 5, costly(1900)},

	{0x08, "+", opPlus, proto("ii:i"), 1, opDefault()},
	{0x09, "-", opMinus, proto("ii:i"), 1, opDefault()},
	{0x0a, "/", opDiv, proto("ii:i"), 1, opDefault()},
	{0x0b, "*", opMul, proto("ii:i"), 1, opDefault()},
	{0x0c, "<", opLt, proto("ii:i"), 1, opDefault()},
	{0x0d, ">", opGt, proto("ii:i"), 1, opDefault()},
	{0x0e, "<=", opLe, proto("ii:i"), 1, opDefault()},
	{0x0f, ">=", opGe, proto("ii:i"), 1, opDefault()},
	{0x10, "&&", opAnd, proto("ii:i"), 1, opDefault()},
	{0x11, "||", opOr, proto("ii:i"), 1, opDefault()},
	{0x12, "==", opEq, proto("aa:i"), 1, opDefault()},
	{0x13, "!=", opNeq, proto("aa:i"), 1, opDefault()},
	{0x14, "!", opNot, proto("i:i"), 1, opDefault()},
	{0x15, "len", opLen, proto("b:i"), 1, opDefault()},
	{0x16, "itob", opItob, proto("i:b"), 1, opDefault()},
	{0x17, "btoi", opBtoi, proto("b:i"), 1, opDefault()},
	{0x18, "%", opModulo, proto("ii:i"), 1, opDefault()},
	{0x19, "|", opBitOr, proto("ii:i"), 1, opDefault()},
	{0x1a, "&", opBitAnd, proto("ii:i"), 1, opDefault()},
	{0x1b, "^", opBitXor, proto("ii:i"), 1, opDefault()},
	{0x1c, "~", opBitNot, proto("i:i"), 1, opDefault()},
	{0x1d, "mulw", opMulw, proto("ii:ii"), 1, opDefault()},
	{0x1e, "addw", opAddw, proto("ii:ii"), 2, opDefault()},
	{0x1f, "divmodw", opDivModw, proto("iiii:iiii"), 4, costly(20)},

	{0x20, "intcblock", opIntConstBlock, proto(":"), 1, constants(immInts)},
	{0x21, "intc", opIntConstLoad, proto(":i"), 1, immediates("i")},
	{0x22, "intc_0", opIntConst0, proto(":i"), 1, opDefault()},
	{0x23, "intc_1", opIntConst1, proto(":i"), 1, opDefault()},
	{0x24, "intc_2", opIntConst2, proto(":i"), 1, opDefault()},
	{0x25, "intc_3", opIntConst3, proto(":i"), 1, opDefault()},
	{0x26, "bytecblock", opByteConstBlock, proto(":"), 1, constants(immBytess)},
	{0x27, "bytec", opByteConstLoad, proto(":b"), 1, immediates("i")},
	{0x28, "bytec_0", opByteConst0, proto(":b"), 1, opDefault()},
	{0x29, "bytec_1", opByteConst1, proto(":b"), 1, opDefault()},
	{0x2a, "bytec_2", opByteConst2, proto(":b"), 1, opDefault()},
	{0x2b, "bytec_3", opByteConst3, proto(":b"), 1, opDefault()},
	{0x2c, "arg", opArg, proto(":b"), 1, immediates("n").only(ModeSig)},
	{0x2d, "arg_0", opArg0, proto(":b"), 1, only(ModeSig)},
	{0x2e, "arg_1", opArg1, proto(":b"), 1, only(ModeSig)},
	{0x2f, "arg_2", opArg2, proto(":b"), 1, only(ModeSig)},
	{0x30, "arg_3", opArg3, proto(":b"), 1, only(ModeSig)},
	{0x31, "txn", opTxn, proto(":a"), 1, field("f", &TxnScalarFields)},
	{0x32, "global", opGlobal, proto(":a"), 1, field("f", &GlobalFields)},
	{0x33, "gtxn", opGtxn, proto(":a"), 1, immediates("t", "f").field("f", &TxnScalarFields)},
	{0x34, "load", opLoad, proto(":a"), 1, immediates("i")},
	{0x35, "store", opStore, proto("a:"), 1, immediates("i")},
	{0x36, "txna", opTxna, proto(":a"), 2, immediates("f", "i").field("f", &TxnArrayFields)},
	{0x37, "gtxna", opGtxna, proto(":a"), 2, immediates("t", "f", "i").field("f", &TxnArrayFields)},
	{0x38, "gtxns", opGtxns, proto("i:a"), 3, field("f", &TxnScalarFields)},
	{0x39, "gtxnsa", opGtxnsa, proto("i:a"), 3, immediates("f", "i").field("f", &TxnArrayFields)},
	{0x3a, "gload", opGload, proto(":a"), 4, immediates("t", "i").only(ModeApp)},
	{0x3b, "gloads", opGloads, proto("i:a"), 4, immediates("i").only(ModeApp)},
	{0x3c, "gaid", opGaid, proto(":i"), 4, immediates("t").only(ModeApp)},
	{0x3d, "gaids", opGaids, proto("i:i"), 4, only(ModeApp)},
	{0x3e, "loads", opLoads, proto("i:a"), 5, opDefault()},
	{0x3f, "stores", opStores, proto("ia:"), 5, opDefault()},

	{0x40, "bnz", opBnz, proto("i:"), 1, branchTarget()},
	{0x41, "bz", opBz, proto("i:"), 2, branchTarget()},
	{0x42, "b", opB, proto(":"), 2, branchTarget()},
	{0x43, "return", opReturn, proto("i:x"), 2, opDefault()},
	{0x44, "assert", opAssert, proto("i:"), 3, opDefault()},
	{0x45, "bury", opBury, proto("a:"), 8, immediates("n")},
	{0x46, "popn", opPopN, proto(":"), 8, immediates("n").dynamic()},
	{0x47, "dupn", opDupN, proto("a:"), 8, immediates("n").dynamic()},
	{0x48, "pop", opPop, proto("a:"), 1, opDefault()},
	{0x49, "dup", opDup, proto("a:aa"), 1, opDefault()},
	{0x4a, "dup2", opDup2, proto("aa:aaaa"), 2, opDefault()},
	{0x4b, "dig", opDig, proto("a:aa"), 3, immediates("n")},
	{0x4c, "swap", opSwap, proto("aa:aa"), 3, opDefault()},
	{0x4d, "select", opSelect, proto("aai:a"), 3, opDefault()},
	{0x4e, "cover", opCover, proto("a:a"), 5, immediates("n")},
	{0x4f, "uncover", opUncover, proto("a:a"), 5, immediates("n")},

	{0x50, "concat", opConcat, proto("bb:b"), 2, opDefault()},
	{0x51, "substring", opSubstring, proto("b:b"), 2, immediates("s", "e")},
	{0x52, "substring3", opSubstring3, proto("bii:b"), 2, opDefault()},
	{0x53, "getbit", opGetBit, proto("ai:i"), 3, opDefault()},
	{0x54, "setbit", opSetBit, proto("aii:a"), 3, opDefault()},
	{0x55, "getbyte", opGetByte, proto("bi:i"), 3, opDefault()},
	{0x56, "setbyte", opSetByte, proto("bii:b"), 3, opDefault()},
	{0x57, "extract", opExtract, proto("b:b"), 5, immediates("s", "l")},
	{0x58, "extract3", opExtract3, proto("bii:b"), 5, opDefault()},
	{0x59, "extract_uint16", opExtract16Bits, proto("bi:i"), 5, opDefault()},
	{0x5a, "extract_uint32", opExtract32Bits, proto("bi:i"), 5, opDefault()},
	{0x5b, "extract_uint64", opExtract64Bits, proto("bi:i"), 5, opDefault()},
	{0x5c, "replace2", opReplace2, proto("bb:b"), 7, immediates("s")},
	{0x5d, "replace3", opReplace3, proto("bib:b"), 7, opDefault()},
	{0x5e, "base64_decode", opBase64Decode, proto("b:b"), 7, field("e", &Base64Encodings).costByLength(1, 1, 16, 0)},

	{0x60, "balance", opBalance, proto("a:i"), 2, only(ModeApp)},
	{0x61, "app_opted_in", opAppOptedIn, proto("ai:i"), 2, only(ModeApp)},
	{0x62, "app_local_get", opAppLocalGet, proto("ab:a"), 2, only(ModeApp)},
	{0x63, "app_local_get_ex", opAppLocalGetEx, proto("aib:ai"), 2, only(ModeApp)},
	{0x64, "app_global_get", opAppGlobalGet, proto("b:a"), 2, only(ModeApp)},
	{0x65, "app_global_get_ex", opAppGlobalGetEx, proto("ib:ai"), 2, only(ModeApp)},
	{0x66, "app_local_put", opAppLocalPut, proto("aba:"), 2, only(ModeApp)},
	{0x67, "app_global_put", opAppGlobalPut, proto("ba:"), 2, only(ModeApp)},
	{0x68, "app_local_del", opAppLocalDel, proto("ab:"), 2, only(ModeApp)},
	{0x69, "app_global_del", opAppGlobalDel, proto("b:"), 2, only(ModeApp)},
	{0x70, "asset_holding_get", opAssetHoldingGet, proto("ai:ai"), 2, field("f", &AssetHoldingFields).only(ModeApp)},
	{0x71, "asset_params_get", opAssetParamsGet, proto("i:ai"), 2, field("f", &AssetParamsFields).only(ModeApp)},
	{0x72, "app_params_get", opAppParamsGet, proto("i:ai"), 5, field("f", &AppParamsFields).only(ModeApp)},
	{0x73, "acct_params_get", opAcctParamsGet, proto("a:ai"), 6, field("f", &AcctParamsFields).only(ModeApp)},

	{0x78, "min_balance", opMinBalance, proto("a:i"), 3, only(ModeApp)},

	// Immediate bytes and ints. Smaller code size for single use of constant.
	{0x80, "pushbytes", opPushBytes, proto(":b"), 3, constants(immBytes)},
	{0x81, "pushint", opPushInt, proto(":i"), 3, constants(immInt)},
	{0x82, "pushbytess", opPushBytess, proto(":"), 8, constants(immBytess).dynamic()},
	{0x83, "pushints", opPushInts, proto(":"), 8, constants(immInts).dynamic()},

	{0x84, "ed25519verify_bare", opEd25519VerifyBare, proto("bbb:i"), 7, costly(1900)},

	// "Function oriented"
	{0x88, "callsub", opCallSub, proto(":"), 4, branchTarget()},
	{0x89, "retsub", opRetSub, proto(":"), 4, opDefault().dynamic()},
	{0x8a, "proto", opProto, proto(":"), 8, immediates("a", "r")},
	{0x8b, "frame_dig", opFrameDig, proto(":a"), 8, constants(immInt8)},
	{0x8c, "frame_bury", opFrameBury, proto("a:"), 8, constants(immInt8)},
	{0x8d, "switch", opSwitch, proto("i:"), 8, constants(immLabels)},
	{0x8e, "match", opMatch, proto(":"), 8, constants(immLabels).dynamic()},

	// More math
	{0x90, "shl", opShiftLeft, proto("ii:i"), 4, opDefault()},
	{0x91, "shr", opShiftRight, proto("ii:i"), 4, opDefault()},
	{0x92, "sqrt", opSqrt, proto("i:i"), 4, costly(4)},
	{0x93, "bitlen", opBitLen, proto("a:i"), 4, opDefault()},
	{0x94, "exp", opExp, proto("ii:i"), 4, opDefault()},
	{0x95, "expw", opExpw, proto("ii:ii"), 4, costly(10)},
	{0x96, "bsqrt", opBytesSqrt, proto("b:b"), 6, costly(40)},
	{0x97, "divw", opDivw, proto("iii:i"), 6, opDefault()},
	{0x98, "sha3_256", opSHA3_256, proto("b:b"), 7, costly(130)},

	// Byteslice math.
	{0xa0, "b+", opBytesPlus, proto("bb:b"), 4, costly(10)},
	{0xa1, "b-", opBytesMinus, proto("bb:b"), 4, costly(10)},
	{0xa2, "b/", opBytesDiv, proto("bb:b"), 4, costly(20)},
	{0xa3, "b*", opBytesMul, proto("bb:b"), 4, costly(20)},
	{0xa4, "b<", opBytesLt, proto("bb:i"), 4, opDefault()},
	{0xa5, "b>", opBytesGt, proto("bb:i"), 4, opDefault()},
	{0xa6, "b<=", opBytesLe, proto("bb:i"), 4, opDefault()},
	{0xa7, "b>=", opBytesGe, proto("bb:i"), 4, opDefault()},
	{0xa8, "b==", opBytesEq, proto("bb:i"), 4, opDefault()},
	{0xa9, "b!=", opBytesNeq, proto("bb:i"), 4, opDefault()},
	{0xaa, "b%", opBytesModulo, proto("bb:b"), 4, costly(20)},
	{0xab, "b|", opBytesBitOr, proto("bb:b"), 4, costly(6)},
	{0xac, "b&", opBytesBitAnd, proto("bb:b"), 4, costly(6)},
	{0xad, "b^", opBytesBitXor, proto("bb:b"), 4, costly(6)},
	{0xae, "b~", opBytesBitNot, proto("b:b"), 4, costly(4)},
	{0xaf, "bzero", opBytesZero, proto("i:b"), 4, opDefault()},

	// AVM "effects"
	{0xb0, "log", opLog, proto("b:"), 5, only(ModeApp)},
	{0xb1, "itxn_begin", opTxBegin, proto(":"), 5, only(ModeApp)},
	{0xb2, "itxn_field", opItxnField, proto("a:"), 5, field("f", &ItxnSettableFields).only(ModeApp)},
	{0xb3, "itxn_submit", opItxnSubmit, proto(":"), 5, only(ModeApp)},
	{0xb4, "itxn", opItxn, proto(":a"), 5, field("f", &TxnScalarFields).only(ModeApp)},
	{0xb5, "itxna", opItxna, proto(":a"), 5, immediates("f", "i").field("f", &TxnArrayFields).only(ModeApp)},
	{0xb6, "itxn_next", opItxnNext, proto(":"), 6, only(ModeApp)},
	{0xb7, "gitxn", opGitxn, proto(":a"), 6, immediates("t", "f").field("f", &TxnScalarFields).only(ModeApp)},
	{0xb8, "gitxna", opGitxna, proto(":a"), 6, immediates("t", "f", "i").field("f", &TxnArrayFields).only(ModeApp)},

	// Unlimited Global Storage - Boxes
	{0xb9, "box_create", opBoxCreate, proto("bi:i"), boxVersion, only(ModeApp)},
	{0xba, "box_extract", opBoxExtract, proto("bii:b"), boxVersion, only(ModeApp)},
	{0xbb, "box_replace", opBoxReplace, proto("bib:"), boxVersion, only(ModeApp)},
	{0xbc, "box_del", opBoxDel, proto("b:i"), boxVersion, only(ModeApp)},
	{0xbd, "box_len", opBoxLen, proto("b:ii"), boxVersion, only(ModeApp)},
	{0xbe, "box_get", opBoxGet, proto("b:bi"), boxVersion, only(ModeApp)},
	{0xbf, "box_put", opBoxPut, proto("bb:"), boxVersion, only(ModeApp)},

	// Dynamic indexing
	{0xc0, "txnas", opTxnas, proto("i:a"), 5, field("f", &TxnArrayFields)},
	{0xc1, "gtxnas", opGtxnas, proto("i:a"), 5, immediates("t", "f").field("f", &TxnArrayFields)},
	{0xc2, "gtxnsas", opGtxnsas, proto("ii:a"), 5, field("f", &TxnArrayFields)},
	{0xc3, "args", opArgs, proto("i:b"), 5, only(ModeSig)},
	{0xc4, "gloadss", opGloadss, proto("ii:a"), 6, only(ModeApp)},
	{0xc5, "itxnas", opItxnas, proto("i:a"), 6, field("f", &TxnArrayFields).only(ModeApp)},
	{0xc6, "gitxnas", opGitxnas, proto("i:a"), 6, immediates("t", "f").field("f", &TxnArrayFields).only(ModeApp)},
}

// pseudo ops are assembler conveniences that evaluate like their push
// counterparts but are available in every version.
var (
	pseudoInt   = OpSpec{0x81, "int", opPushInt, proto(":i"), 1, constants(immInt)}
	pseudoBytes = OpSpec{0x80, "byte", opPushBytes, proto(":b"), 1, constants(immBytes)}
)

// opsByName map for each version, mapping opcode name to OpSpec
var opsByName [LogicVersion + 1]map[string]*OpSpec

// OpsByName returns the ops available in the given version, keyed by name.
func OpsByName(version uint64) map[string]*OpSpec {
	if version > LogicVersion {
		return nil
	}
	return opsByName[version]
}

func init() {
	for v := uint64(1); v <= LogicVersion; v++ {
		opsByName[v] = make(map[string]*OpSpec, len(OpSpecs))
		for i := range OpSpecs {
			spec := &OpSpecs[i]
			if spec.Version <= v {
				// later entries override: they are version bumps of the same op
				opsByName[v][spec.Name] = spec
			}
		}
	}
	for _, spec := range OpSpecs {
		for _, im := range spec.Immediates {
			if im.Group != nil && im.kind != immByte {
				panic(fmt.Sprintf("%s has a field immediate of kind %d", spec.Name, im.kind))
			}
		}
	}
}
