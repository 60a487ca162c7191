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
	"encoding/base64"
	"encoding/binary"
	"math"
	"math/big"
	"math/bits"

	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

// MaxByteMathSize is the limit of byte strings supplied as input to byte math opcodes
const MaxByteMathSize = 64

func opPlus(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	sum, carry := bits.Add64(cx.stack[prev].Uint, cx.stack[last].Uint, 0)
	if carry > 0 {
		return ledgercore.Reject(ledgercore.CodeUint64Overflow, "+ overflowed")
	}
	cx.stack[prev].Uint = sum
	cx.stack = cx.stack[:last]
	return nil
}

func opAddw(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	sum, carry := bits.Add64(cx.stack[prev].Uint, cx.stack[last].Uint, 0)
	cx.stack[prev].Uint = carry
	cx.stack[last].Uint = sum
	return nil
}

func opMinus(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	if cx.stack[last].Uint > cx.stack[prev].Uint {
		return ledgercore.Reject(ledgercore.CodeUint64Underflow, "- would result negative")
	}
	cx.stack[prev].Uint -= cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opDiv(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	if cx.stack[last].Uint == 0 {
		return ledgercore.Reject(ledgercore.CodeZeroDiv, "/ 0")
	}
	cx.stack[prev].Uint /= cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opModulo(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	if cx.stack[last].Uint == 0 {
		return ledgercore.Reject(ledgercore.CodeZeroDiv, "% 0")
	}
	cx.stack[prev].Uint = cx.stack[prev].Uint % cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opMul(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	high, low := bits.Mul64(cx.stack[prev].Uint, cx.stack[last].Uint)
	if high > 0 {
		return ledgercore.Reject(ledgercore.CodeUint64Overflow, "* overflowed")
	}
	cx.stack[prev].Uint = low
	cx.stack = cx.stack[:last]
	return nil
}

func opMulw(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	high, low := bits.Mul64(cx.stack[prev].Uint, cx.stack[last].Uint)
	cx.stack[prev].Uint = high
	cx.stack[last].Uint = low
	return nil
}

func opDivw(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	pprev := prev - 1
	hi := cx.stack[pprev].Uint
	lo := cx.stack[prev].Uint
	y := cx.stack[last].Uint
	// These two clauses catch what will cause panics in bits.Div64, so we get
	// nicer errors.
	if y == 0 {
		return ledgercore.Reject(ledgercore.CodeZeroDiv, "divw 0")
	}
	if y <= hi {
		return ledgercore.Rejectf(ledgercore.CodeUint64Overflow, "divw overflow: %d <= %d", y, hi)
	}
	quo, _ := bits.Div64(hi, lo, y)
	cx.stack = cx.stack[:prev] // pop 2
	cx.stack[pprev].Uint = quo
	return nil
}

func opDivModw(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	pprev := prev - 1
	ppprev := pprev - 1

	if cx.stack[prev].Uint == 0 && cx.stack[last].Uint == 0 {
		return ledgercore.Reject(ledgercore.CodeZeroDiv, "/ 0")
	}
	var a, b, q, r big.Int
	a.SetUint64(cx.stack[ppprev].Uint)
	a.Lsh(&a, 64)
	a.Or(&a, new(big.Int).SetUint64(cx.stack[pprev].Uint))
	b.SetUint64(cx.stack[prev].Uint)
	b.Lsh(&b, 64)
	b.Or(&b, new(big.Int).SetUint64(cx.stack[last].Uint))
	q.QuoRem(&a, &b, &r)

	cx.stack[ppprev].Uint, cx.stack[pprev].Uint = splitBig(&q)
	cx.stack[prev].Uint, cx.stack[last].Uint = splitBig(&r)
	return nil
}

// splitBig breaks a value below 2^128 into its high and low words.
func splitBig(x *big.Int) (hi uint64, lo uint64) {
	var buf [16]byte
	x.FillBytes(buf[:])
	return binary.BigEndian.Uint64(buf[:8]), binary.BigEndian.Uint64(buf[8:])
}

func opLt(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cond := cx.stack[prev].Uint < cx.stack[last].Uint
	cx.stack[prev] = boolToSV(cond)
	cx.stack = cx.stack[:last]
	return nil
}

// opSwap, opLt, and opNot always succeed (return nil). So error checking elided in Gt,Le,Ge

func opGt(cx *EvalContext) error {
	opSwap(cx)
	return opLt(cx)
}

func opLe(cx *EvalContext) error {
	opGt(cx)
	return opNot(cx)
}

func opGe(cx *EvalContext) error {
	opLt(cx)
	return opNot(cx)
}

func opAnd(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cond := (cx.stack[prev].Uint != 0) && (cx.stack[last].Uint != 0)
	cx.stack[prev] = boolToSV(cond)
	cx.stack = cx.stack[:last]
	return nil
}

func opOr(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cond := (cx.stack[prev].Uint != 0) || (cx.stack[last].Uint != 0)
	cx.stack[prev] = boolToSV(cond)
	cx.stack = cx.stack[:last]
	return nil
}

func opEq(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	ta := cx.stack[prev].argType()
	tb := cx.stack[last].argType()
	if ta != tb {
		return ledgercore.Rejectf(ledgercore.CodeInvalidType, "cannot compare (%s to %s)", cx.stack[prev].typeName(), cx.stack[last].typeName())
	}
	var cond bool
	if ta == StackBytes {
		cond = string(cx.stack[prev].Bytes) == string(cx.stack[last].Bytes)
	} else {
		cond = cx.stack[prev].Uint == cx.stack[last].Uint
	}
	cx.stack[prev] = boolToSV(cond)
	cx.stack = cx.stack[:last]
	return nil
}

func opNeq(cx *EvalContext) error {
	if err := opEq(cx); err != nil {
		return err
	}
	return opNot(cx)
}

func opNot(cx *EvalContext) error {
	last := len(cx.stack) - 1
	cx.stack[last] = boolToSV(cx.stack[last].Uint == 0)
	return nil
}

func boolToSV(x bool) stackValue {
	return stackValue{Uint: boolToUint(x)}
}

func opLen(cx *EvalContext) error {
	last := len(cx.stack) - 1
	cx.stack[last] = stackValue{Uint: uint64(len(cx.stack[last].Bytes))}
	return nil
}

func opItob(cx *EvalContext) error {
	last := len(cx.stack) - 1
	ibytes := make([]byte, 8)
	binary.BigEndian.PutUint64(ibytes, cx.stack[last].Uint)
	// cx.stack[last].Uint is not cleared out as optimization
	// stackValue.argType() checks Bytes field first
	cx.stack[last].Bytes = ibytes
	return nil
}

func opBtoi(cx *EvalContext) error {
	last := len(cx.stack) - 1
	ibytes := cx.stack[last].Bytes
	if len(ibytes) > 8 {
		return ledgercore.Rejectf(ledgercore.CodeLongInput, "btoi arg too long, got [%d]bytes", len(ibytes))
	}
	value := uint64(0)
	for _, b := range ibytes {
		value = value << 8
		value = value | (uint64(b) & 0x0ff)
	}
	cx.stack[last] = stackValue{Uint: value}
	return nil
}

func opBitOr(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cx.stack[prev].Uint = cx.stack[prev].Uint | cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opBitAnd(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cx.stack[prev].Uint = cx.stack[prev].Uint & cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opBitXor(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cx.stack[prev].Uint = cx.stack[prev].Uint ^ cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opBitNot(cx *EvalContext) error {
	last := len(cx.stack) - 1
	cx.stack[last].Uint = cx.stack[last].Uint ^ 0xffffffffffffffff
	return nil
}

func opShiftLeft(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	if cx.stack[last].Uint > 63 {
		return ledgercore.Rejectf(ledgercore.CodeInvalidOpArg, "shl arg too big, (%d)", cx.stack[last].Uint)
	}
	cx.stack[prev].Uint = cx.stack[prev].Uint << cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opShiftRight(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	if cx.stack[last].Uint > 63 {
		return ledgercore.Rejectf(ledgercore.CodeInvalidOpArg, "shr arg too big, (%d)", cx.stack[last].Uint)
	}
	cx.stack[prev].Uint = cx.stack[prev].Uint >> cx.stack[last].Uint
	cx.stack = cx.stack[:last]
	return nil
}

func opSqrt(cx *EvalContext) error {
	/*
		        It would not be safe to use math.Sqrt, because we would have to
			convert our u64 to an f64, but f64 cannot represent all u64s exactly.

			This algorithm comes from Jack W. Crenshaw's 1998 article in Embedded:
			http://www.embedded.com/electronics-blogs/programmer-s-toolbox/4219659/Integer-Square-Roots
	*/

	last := len(cx.stack) - 1

	sq := cx.stack[last].Uint
	var rem uint64 = 0
	var root uint64 = 0

	for i := 0; i < 32; i++ {
		root <<= 1
		rem = (rem << 2) | (sq >> (64 - 2))
		sq <<= 2
		if root < rem {
			rem -= root | 1
			root += 2
		}
	}
	cx.stack[last].Uint = root >> 1
	return nil
}

func opBitLen(cx *EvalContext) error {
	last := len(cx.stack) - 1
	if cx.stack[last].argType() == StackUint64 {
		cx.stack[last].Uint = uint64(bits.Len64(cx.stack[last].Uint))
		return nil
	}
	length := len(cx.stack[last].Bytes)
	idx := 0
	for i, b := range cx.stack[last].Bytes {
		if b != 0 {
			idx = bits.Len8(b) + (8 * (length - i - 1))
			break
		}

	}
	cx.stack[last] = stackValue{Uint: uint64(idx)}
	return nil
}

func opExpImpl(base uint64, exp uint64) (uint64, error) {
	// These checks are slightly repetive but the clarity of
	// avoiding nested checks seems worth it.
	if exp == 0 && base == 0 {
		return 0, ledgercore.Reject(ledgercore.CodeInvalidOpArg, "0^0 is undefined")
	}
	if base == 0 {
		return 0, nil
	}
	if exp == 0 || base == 1 {
		return 1, nil
	}
	// base is now at least 2, so exp can not be 64
	if exp >= 64 {
		return 0, ledgercore.Rejectf(ledgercore.CodeUint64Overflow, "%d^%d overflow", base, exp)
	}
	answer := base
	// safe to cast exp, because it is known to fit in int (it's < 64)
	for i := 1; i < int(exp); i++ {
		next := answer * base
		if next/answer != base {
			return 0, ledgercore.Rejectf(ledgercore.CodeUint64Overflow, "%d^%d overflow", base, exp)
		}
		answer = next
	}
	return answer, nil
}

func opExp(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1

	exp := cx.stack[last].Uint
	base := cx.stack[prev].Uint
	val, err := opExpImpl(base, exp)
	if err != nil {
		return err
	}
	cx.stack[prev].Uint = val
	cx.stack = cx.stack[:last]
	return nil
}

func opExpwImpl(base uint64, exp uint64) (*big.Int, error) {
	// These checks are slightly repetive but the clarity of
	// avoiding nested checks seems worth it.
	if exp == 0 && base == 0 {
		return &big.Int{}, ledgercore.Reject(ledgercore.CodeInvalidOpArg, "0^0 is undefined")
	}
	if base == 0 {
		return &big.Int{}, nil
	}
	if exp == 0 || base == 1 {
		return new(big.Int).SetUint64(1), nil
	}
	// base is now at least 2, so exp can not be 128
	if exp >= 128 {
		return &big.Int{}, ledgercore.Rejectf(ledgercore.CodeUint64Overflow, "%d^%d overflow", base, exp)
	}

	answer := new(big.Int).SetUint64(base)
	bigbase := new(big.Int).SetUint64(base)
	// safe to cast exp, because it is known to fit in int (it's < 128)
	for i := 1; i < int(exp); i++ {
		next := answer.Mul(answer, bigbase)
		answer = next
		if answer.BitLen() > 128 {
			return &big.Int{}, ledgercore.Rejectf(ledgercore.CodeUint64Overflow, "%d^%d overflow", base, exp)
		}
	}
	return answer, nil

}

func opExpw(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1

	exp := cx.stack[last].Uint
	base := cx.stack[prev].Uint
	val, err := opExpwImpl(base, exp)
	if err != nil {
		return err
	}
	hi, lo := splitBig(val)
	cx.stack[prev].Uint = hi
	cx.stack[last].Uint = lo
	return nil
}

func opBytesBinOp(cx *EvalContext, result *big.Int, op func(x, y *big.Int) *big.Int) error {
	last := len(cx.stack) - 1
	prev := last - 1

	if len(cx.stack[last].Bytes) > MaxByteMathSize || len(cx.stack[prev].Bytes) > MaxByteMathSize {
		return ledgercore.Reject(ledgercore.CodeLongInput, "math attempted on large byte-array")
	}

	rhs := new(big.Int).SetBytes(cx.stack[last].Bytes)
	lhs := new(big.Int).SetBytes(cx.stack[prev].Bytes)
	op(lhs, rhs) // op's receiver has already been bound to result
	if result.Sign() < 0 {
		return ledgercore.Reject(ledgercore.CodeUint64Underflow, "byte math would have negative result")
	}
	cx.stack[prev].Bytes = nonNil(result.Bytes())
	cx.stack = cx.stack[:last]
	return nil
}

func opBytesPlus(cx *EvalContext) error {
	result := new(big.Int)
	return opBytesBinOp(cx, result, result.Add)
}

func opBytesMinus(cx *EvalContext) error {
	result := new(big.Int)
	return opBytesBinOp(cx, result, result.Sub)
}

func opBytesDiv(cx *EvalContext) error {
	result := new(big.Int)
	var inner error
	checkDiv := func(x, y *big.Int) *big.Int {
		if y.BitLen() == 0 {
			inner = ledgercore.Reject(ledgercore.CodeZeroDiv, "division by zero")
			return new(big.Int)
		}
		return result.Div(x, y)
	}
	err := opBytesBinOp(cx, result, checkDiv)
	if err != nil {
		return err
	}
	return inner
}

func opBytesMul(cx *EvalContext) error {
	result := new(big.Int)
	return opBytesBinOp(cx, result, result.Mul)
}

func opBytesSqrt(cx *EvalContext) error {
	last := len(cx.stack) - 1

	if len(cx.stack[last].Bytes) > MaxByteMathSize {
		return ledgercore.Reject(ledgercore.CodeLongInput, "math attempted on large byte-array")
	}

	val := new(big.Int).SetBytes(cx.stack[last].Bytes)
	val.Sqrt(val)
	cx.stack[last].Bytes = nonNil(val.Bytes())
	return nil
}

func nonzero(b []byte) []byte {
	for i := range b {
		if b[i] != 0 {
			return b[i:]
		}
	}
	return nil
}

func opBytesLt(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1

	if len(cx.stack[last].Bytes) > MaxByteMathSize || len(cx.stack[prev].Bytes) > MaxByteMathSize {
		return ledgercore.Reject(ledgercore.CodeLongInput, "math attempted on large byte-array")
	}

	rhs := nonzero(cx.stack[last].Bytes)
	lhs := nonzero(cx.stack[prev].Bytes)

	switch {
	case len(lhs) < len(rhs):
		cx.stack[prev] = boolToSV(true)
	case len(lhs) > len(rhs):
		cx.stack[prev] = boolToSV(false)
	default:
		cx.stack[prev] = boolToSV(string(lhs) < string(rhs))
	}

	cx.stack = cx.stack[:last]
	return nil
}

func opBytesGt(cx *EvalContext) error {
	opSwap(cx)
	return opBytesLt(cx)
}

func opBytesLe(cx *EvalContext) error {
	if err := opBytesGt(cx); err != nil {
		return err
	}
	return opNot(cx)
}

func opBytesGe(cx *EvalContext) error {
	if err := opBytesLt(cx); err != nil {
		return err
	}
	return opNot(cx)
}

func opBytesEq(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1

	if len(cx.stack[last].Bytes) > MaxByteMathSize || len(cx.stack[prev].Bytes) > MaxByteMathSize {
		return ledgercore.Reject(ledgercore.CodeLongInput, "math attempted on large byte-array")
	}

	rhs := nonzero(cx.stack[last].Bytes)
	lhs := nonzero(cx.stack[prev].Bytes)

	cx.stack[prev] = boolToSV(string(lhs) == string(rhs))
	cx.stack = cx.stack[:last]
	return nil
}

func opBytesNeq(cx *EvalContext) error {
	if err := opBytesEq(cx); err != nil {
		return err
	}
	return opNot(cx)
}

func opBytesModulo(cx *EvalContext) error {
	result := new(big.Int)
	var inner error
	checkMod := func(x, y *big.Int) *big.Int {
		if y.BitLen() == 0 {
			inner = ledgercore.Reject(ledgercore.CodeZeroDiv, "modulo by zero")
			return new(big.Int)
		}
		return result.Mod(x, y)
	}
	err := opBytesBinOp(cx, result, checkMod)
	if err != nil {
		return err
	}
	return inner
}

func zpad(smaller []byte, size int) []byte {
	padded := make([]byte, size)
	extra := size - len(smaller)  // how much was added?
	copy(padded[extra:], smaller) // front pad
	return padded
}

// Return two slices, representing the top two slices on the stack.
// They can be returned in either order, but the first slice returned
// must be newly allocated, and already in place at the top of stack.
// (the original top of stack is dropped.)
func opBytesBinaryLogicPrep(cx *EvalContext) ([]byte, []byte) {
	last := len(cx.stack) - 1
	prev := last - 1

	llen := len(cx.stack[last].Bytes)
	plen := len(cx.stack[prev].Bytes)

	var fresh, other []byte
	if llen > plen {
		fresh, other = zpad(cx.stack[prev].Bytes, llen), cx.stack[last].Bytes
	} else {
		fresh, other = zpad(cx.stack[last].Bytes, plen), cx.stack[prev].Bytes
	}
	cx.stack[prev].Bytes = fresh
	cx.stack = cx.stack[:last]
	return fresh, other
}

func opBytesBitOr(cx *EvalContext) error {
	a, b := opBytesBinaryLogicPrep(cx)
	for i := range a {
		a[i] = a[i] | b[i]
	}
	return nil
}

func opBytesBitAnd(cx *EvalContext) error {
	a, b := opBytesBinaryLogicPrep(cx)
	for i := range a {
		a[i] = a[i] & b[i]
	}
	return nil
}

func opBytesBitXor(cx *EvalContext) error {
	a, b := opBytesBinaryLogicPrep(cx)
	for i := range a {
		a[i] = a[i] ^ b[i]
	}
	return nil
}

func opBytesBitNot(cx *EvalContext) error {
	last := len(cx.stack) - 1

	fresh := make([]byte, len(cx.stack[last].Bytes))
	for i, b := range cx.stack[last].Bytes {
		fresh[i] = ^b
	}
	cx.stack[last].Bytes = fresh
	return nil
}

func opBytesZero(cx *EvalContext) error {
	last := len(cx.stack) - 1
	length := cx.stack[last].Uint
	if length > MaxStringSize {
		return ledgercore.Rejectf(ledgercore.CodeMaxLenExceeded, "bzero attempted to create a too large string")
	}
	cx.stack[last].Bytes = make([]byte, length)
	return nil
}

func opConcat(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	a := cx.stack[prev].Bytes
	b := cx.stack[last].Bytes
	newlen := len(a) + len(b)
	newvalue := make([]byte, newlen)
	copy(newvalue, a)
	copy(newvalue[len(a):], b)
	cx.stack[prev].Bytes = newvalue
	cx.stack = cx.stack[:last]
	return nil
}

func substring(x []byte, start, end int) ([]byte, error) {
	if end < start {
		return nil, ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "substring end before start")
	}
	if start > len(x) || end > len(x) {
		return nil, ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "substring range beyond length of string")
	}
	return x[start:end], nil
}

func opSubstring(cx *EvalContext) error {
	last := len(cx.stack) - 1
	start := cx.instr().Uints[0]
	end := cx.instr().Uints[1]
	bytes, err := substring(cx.stack[last].Bytes, int(start), int(end))
	cx.stack[last].Bytes = bytes
	return err
}

func opSubstring3(cx *EvalContext) error {
	last := len(cx.stack) - 1 // end
	prev := last - 1          // start
	pprev := prev - 1         // bytes
	start := cx.stack[prev].Uint
	end := cx.stack[last].Uint
	if start > math.MaxInt32 || end > math.MaxInt32 {
		return ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "substring range beyond length of string")
	}
	bytes, err := substring(cx.stack[pprev].Bytes, int(start), int(end))
	cx.stack[pprev].Bytes = bytes
	cx.stack = cx.stack[:prev]
	return err
}

func opGetBit(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	idx := cx.stack[last].Uint
	target := cx.stack[prev]

	var bit uint64
	if target.argType() == StackUint64 {
		if idx > 63 {
			return ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "getbit index > 63 with with Uint")
		}
		mask := uint64(1) << idx
		bit = (target.Uint & mask) >> idx
	} else {
		// indexing into a byteslice
		byteIdx := idx / 8
		if byteIdx >= uint64(len(target.Bytes)) {
			return ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "getbit index beyond byteslice")
		}
		byteVal := target.Bytes[byteIdx]

		bitIdx := idx % 8
		// We saying that bit 9 (the 10th bit), for example,
		// is the 2nd bit in the second byte, and that "2nd
		// bit" here means almost-highest-order bit, because
		// we're thinking of the bits in the byte itself as
		// being big endian. So this looks "reversed"
		mask := byte(0x80) >> bitIdx
		bit = uint64((byteVal & mask) >> (7 - bitIdx))
	}
	cx.stack[prev] = stackValue{Uint: bit}
	cx.stack = cx.stack[:last]
	return nil
}

func opSetBit(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	pprev := prev - 1

	bit := cx.stack[last].Uint
	idx := cx.stack[prev].Uint
	target := cx.stack[pprev]

	if bit > 1 {
		return ledgercore.Reject(ledgercore.CodeInvalidOpArg, "setbit value > 1")
	}

	if target.argType() == StackUint64 {
		if idx > 63 {
			return ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "setbit index > 63 with Uint")
		}
		mask := uint64(1) << idx
		if bit == uint64(1) {
			cx.stack[pprev].Uint |= mask // manipulate stack in place
		} else {
			cx.stack[pprev].Uint &^= mask // manipulate stack in place
		}
	} else {
		// indexing into a byteslice
		byteIdx := idx / 8
		if byteIdx >= uint64(len(target.Bytes)) {
			return ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "setbit index beyond byteslice")
		}

		bitIdx := idx % 8
		// We saying that bit 9 (the 10th bit), for example,
		// is the 2nd bit in the second byte, and that "2nd
		// bit" here means almost-highest-order bit, because
		// we're thinking of the bits in the byte itself as
		// being big endian. So this looks "reversed"
		mask := byte(0x80) >> bitIdx
		// Copy to avoid modifying shared slice
		scratch := append([]byte(nil), target.Bytes...)
		if bit == uint64(1) {
			scratch[byteIdx] |= mask
		} else {
			scratch[byteIdx] &^= mask
		}
		cx.stack[pprev].Bytes = scratch
	}
	cx.stack = cx.stack[:prev]
	return nil
}

func opGetByte(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1

	idx := cx.stack[last].Uint
	target := cx.stack[prev]

	if idx >= uint64(len(target.Bytes)) {
		return ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "getbyte index beyond array length")
	}
	cx.stack[prev] = stackValue{Uint: uint64(target.Bytes[idx])}
	cx.stack = cx.stack[:last]
	return nil
}

func opSetByte(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	pprev := prev - 1
	if cx.stack[last].Uint > 255 {
		return ledgercore.Reject(ledgercore.CodeInvalidOpArg, "setbyte value > 255")
	}
	if cx.stack[prev].Uint >= uint64(len(cx.stack[pprev].Bytes)) {
		return ledgercore.Reject(ledgercore.CodeIndexOutOfBound, "setbyte index beyond array length")
	}
	// Copy to avoid modifying shared slice
	cx.stack[pprev].Bytes = append([]byte(nil), cx.stack[pprev].Bytes...)
	cx.stack[pprev].Bytes[cx.stack[prev].Uint] = byte(cx.stack[last].Uint)
	cx.stack = cx.stack[:prev]
	return nil
}

func extractCarefully(x []byte, start, length uint64) ([]byte, error) {
	if start > uint64(len(x)) {
		return nil, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "extraction start %d is beyond length: %d", start, len(x))
	}
	end := start + length
	if end < start {
		return nil, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "extraction end exceeds uint64")
	}
	if end > uint64(len(x)) {
		return nil, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "extraction end %d is beyond length: %d", end, len(x))
	}
	return x[start:end], nil
}

func opExtract(cx *EvalContext) error {
	last := len(cx.stack) - 1
	startIdx := cx.instr().Uints[0]
	lengthIdx := cx.instr().Uints[1]
	// Shortcut: if length is 0, take bytes from start index to the end
	length := lengthIdx
	if length == 0 {
		// If startIdx is out of bounds, we will compute a negative length and fail
		if startIdx > uint64(len(cx.stack[last].Bytes)) {
			return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "extraction start %d is beyond length: %d", startIdx, len(cx.stack[last].Bytes))
		}
		length = uint64(len(cx.stack[last].Bytes)) - startIdx
	}
	bytes, err := extractCarefully(cx.stack[last].Bytes, startIdx, length)
	cx.stack[last].Bytes = bytes
	return err
}

func opExtract3(cx *EvalContext) error {
	last := len(cx.stack) - 1 // length
	prev := last - 1          // start
	byteArrayIdx := prev - 1  // bytes
	startIdx := cx.stack[prev].Uint
	lengthIdx := cx.stack[last].Uint
	bytes, err := extractCarefully(cx.stack[byteArrayIdx].Bytes, startIdx, lengthIdx)
	cx.stack[byteArrayIdx].Bytes = bytes
	cx.stack = cx.stack[:prev]
	return err
}

func replaceCarefully(original []byte, replacement []byte, start uint64) ([]byte, error) {
	if start > uint64(len(original)) {
		return nil, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "replacement start %d beyond length: %d", start, len(original))
	}
	end := start + uint64(len(replacement))
	if end < start { // impossible because it is sum of two avm value (or box) lengths
		return nil, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "replacement end exceeds uint64")
	}

	if end > uint64(len(original)) {
		return nil, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "replacement end %d beyond original length: %d", end, len(original))
	}

	// Do NOT use the append trick to make a copy here.
	// append(nil, []byte{}...) would return a nil, which means "not a bytearray" to AVM.
	clone := make([]byte, len(original))
	copy(clone[:start], original)
	copy(clone[start:end], replacement)
	copy(clone[end:], original[end:])
	return clone, nil
}

func opReplace2(cx *EvalContext) error {
	last := len(cx.stack) - 1 // replacement
	prev := last - 1          // original

	replacement := cx.stack[last].Bytes
	start := cx.instr().Uints[0]
	original := cx.stack[prev].Bytes

	bytes, err := replaceCarefully(original, replacement, start)
	if err != nil {
		return err
	}
	cx.stack[prev].Bytes = bytes
	cx.stack = cx.stack[:last]
	return err
}

func opReplace3(cx *EvalContext) error {
	last := len(cx.stack) - 1 // replacement
	prev := last - 1          // start
	pprev := prev - 1         // original

	replacement := cx.stack[last].Bytes
	start := cx.stack[prev].Uint
	original := cx.stack[pprev].Bytes

	bytes, err := replaceCarefully(original, replacement, start)
	if err != nil {
		return err
	}
	cx.stack[pprev].Bytes = bytes
	cx.stack = cx.stack[:prev]
	return err
}

// We convert the bytes manually here because we need to accept "short" byte arrays.
// A single byte is a legal uint64 decoded this way.
func convertBytesToInt(x []byte) uint64 {
	out := uint64(0)
	for _, b := range x {
		out = out << 8
		out = out | (uint64(b) & 0x0ff)
	}
	return out
}

func opExtractNBytes(cx *EvalContext, n uint64) error {
	last := len(cx.stack) - 1 // start
	prev := last - 1          // bytes
	startIdx := cx.stack[last].Uint
	bytes, err := extractCarefully(cx.stack[prev].Bytes, startIdx, n) // extract n bytes
	if err != nil {
		return err
	}
	cx.stack[prev] = stackValue{Uint: convertBytesToInt(bytes)}
	cx.stack = cx.stack[:last]
	return nil
}

func opExtract16Bits(cx *EvalContext) error {
	return opExtractNBytes(cx, 2) // extract 2 bytes
}

func opExtract32Bits(cx *EvalContext) error {
	return opExtractNBytes(cx, 4) // extract 4 bytes
}

func opExtract64Bits(cx *EvalContext) error {
	return opExtractNBytes(cx, 8) // extract 8 bytes
}

// base64Decode decodes a byte slice, ignoring CR and LF, and using padding
// only if the input length is a multiple of 4.
func base64Decode(encoded []byte, encoding *base64.Encoding) ([]byte, error) {
	clean := make([]byte, 0, len(encoded))
	for _, b := range encoded {
		if b != '\n' && b != '\r' {
			clean = append(clean, b)
		}
	}
	if len(clean)%4 != 0 {
		encoding = encoding.WithPadding(base64.NoPadding)
	}
	decoded := make([]byte, encoding.DecodedLen(len(clean)))
	n, err := encoding.Strict().Decode(decoded, clean)
	if err != nil {
		return decoded[:0], err
	}
	return decoded[:n], err
}

func opBase64Decode(cx *EvalContext) error {
	last := len(cx.stack) - 1
	encodingField := Base64Encoding(cx.instr().Uints[0])
	fs, ok := simpleSpecByField(base64EncodingSpecs[:], int(encodingField))
	if !ok || fs.version > cx.version {
		return ledgercore.Rejectf(ledgercore.CodeInvalidOpArg, "invalid base64_decode encoding %d", encodingField)
	}

	encoding := base64.URLEncoding
	if encodingField == StdEncoding {
		encoding = base64.StdEncoding
	}
	bytes, err := base64Decode(cx.stack[last].Bytes, encoding)
	if err != nil {
		return ledgercore.WithCode(ledgercore.CodeInvalidOpArg, err)
	}
	cx.stack[last].Bytes = bytes
	return nil
}
