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
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

func makeTestProto() *config.ConsensusParams {
	proto := config.Simulator()
	return &proto
}

func defaultSigTxn(src string, args ...[]byte) transactions.SignedTxn {
	var stxn transactions.SignedTxn
	stxn.Txn.Type = protocol.PaymentTx
	stxn.Txn.Sender = basics.Address{0x01}
	stxn.Txn.Receiver = basics.Address{0x02}
	stxn.Txn.Amount = basics.MicroAlgos{Raw: 5}
	stxn.Txn.Fee = basics.MicroAlgos{Raw: 1000}
	stxn.Txn.FirstValid = 10
	stxn.Txn.LastValid = 1010
	stxn.Lsig.Logic = []byte(src)
	stxn.Lsig.Args = args
	return stxn
}

func evalSig(t *testing.T, src string, args ...[]byte) (bool, error) {
	t.Helper()
	ep := NewEvalParams(transactions.WrapSignedTxnsWithAD([]transactions.SignedTxn{defaultSigTxn(src, args...)}), makeTestProto())
	var trace strings.Builder
	ep.Trace = &trace
	pass, err := EvalSignature(0, ep)
	if err != nil || !pass {
		t.Log(trace.String())
	}
	return pass, err
}

func testAccepts(t *testing.T, src string, args ...[]byte) {
	t.Helper()
	pass, err := evalSig(t, src, args...)
	require.NoError(t, err)
	require.True(t, pass)
}

func testRejects(t *testing.T, src string, args ...[]byte) {
	t.Helper()
	pass, err := evalSig(t, src, args...)
	require.NoError(t, err)
	require.False(t, pass)
}

func testPanics(t *testing.T, src string, code ledgercore.RejectCode) error {
	t.Helper()
	pass, err := evalSig(t, src)
	require.False(t, pass)
	require.Error(t, err)
	require.Equal(t, code, ledgercore.CodeOf(err), "%v", err)
	return err
}

func TestTrivialMath(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testAccepts(t, "int 2\nint 3\n+\nint 5\n==")
	testAccepts(t, "int 0x1234567812345678\nint 0x100000000\n/\nint 0x12345678\n==")
	testAccepts(t, "int 7\nint 3\n%\nint 1\n==")
	testAccepts(t, "int 6\nint 7\n*\nint 42\n==")
	testAccepts(t, "int 9\nint 4\n-\nint 5\n==")
}

func TestStackResult(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testRejects(t, "int 0")
	testRejects(t, "int 1\nint 1")
	testRejects(t, "byte 0x01")
	testRejects(t, "#pragma version 2\nint 1\npop")
	testAccepts(t, "#pragma version 2\nint 0\nint 2\nreturn\nerr")
}

func TestArithmeticErrors(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	tests := []struct {
		src  string
		code ledgercore.RejectCode
	}{
		{"int 0xFFFFFFFFFFFFFFFF\nint 1\n+", ledgercore.CodeUint64Overflow},
		{"int 0x100000000\nint 0x100000000\n*", ledgercore.CodeUint64Overflow},
		{"int 1\nint 2\n-", ledgercore.CodeUint64Underflow},
		{"int 1\nint 0\n/", ledgercore.CodeZeroDiv},
		{"int 1\nint 0\n%", ledgercore.CodeZeroDiv},
		{"err", ledgercore.CodeTealEncounteredErr},
		{"#pragma version 3\nint 0\nassert\nint 1", ledgercore.CodeTealEncounteredErr},
		{"byte 0x010203040506070809\nbtoi", ledgercore.CodeLongInput},
		{"+", ledgercore.CodeStackUnderflow},
		{"int 1\nbyte 0x01\n+", ledgercore.CodeInvalidType},
		{"int 1\nbyte 0x01\n==", ledgercore.CodeInvalidType},
		{"#pragma version 4\nint 1\nint 64\nshl", ledgercore.CodeInvalidOpArg},
		{"#pragma version 4\nint 0\nint 0\nexp", ledgercore.CodeInvalidOpArg},
		{"#pragma version 4\nint 2\nint 64\nexp", ledgercore.CodeUint64Overflow},
		{"#pragma version 5\nbyte 0x01\nint 2\nint 3\nextract3", ledgercore.CodeIndexOutOfBound},
		{"#pragma version 2\nbyte 0x0102\nsubstring 1 5", ledgercore.CodeIndexOutOfBound},
		{"#pragma version 4\nint 4097\nbzero\nlen", ledgercore.CodeMaxLenExceeded},
		{"#pragma version 4\nbyte 0x01\nbyte 0x02\nb-", ledgercore.CodeUint64Underflow},
	}
	for i, test := range tests {
		test := test
		t.Run(fmt.Sprintf("i=%d", i), func(t *testing.T) {
			t.Parallel()
			testPanics(t, test.src, test.code)
		})
	}
}

func TestEvalErrorDetails(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	err := testPanics(t, "int 1\nint 2\nint 3\n-\n+", ledgercore.CodeUint64Underflow)
	var ee EvalError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, 0, ee.GroupIndex())
	require.Contains(t, err.Error(), "rejected by logic")
	require.Contains(t, err.Error(), "line=4")
}

func TestWideMath(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testAccepts(t, `#pragma version 3
int 0xFFFFFFFFFFFFFFFF
int 2
addw
int 1
==
assert
int 1
==`)
	testAccepts(t, `#pragma version 3
int 0x100000000
int 0x100000000
mulw
int 0
==
assert
int 1
==`)
	testAccepts(t, `#pragma version 4
int 1
int 0
int 0
int 2
divmodw
// remainder
int 0
==
assert
int 0
==
assert
// quotient low
int 0x8000000000000000
==
assert
int 0
==`)
	testAccepts(t, "#pragma version 4\nint 2\nint 10\nexp\nint 1024\n==")
	testAccepts(t, "#pragma version 4\nint 17\nsqrt\nint 4\n==")
	testAccepts(t, "#pragma version 4\nint 1024\nbitlen\nint 11\n==")
}

func TestByteMath(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testAccepts(t, `#pragma version 4
byte 0xFFFFFFFFFFFFFFFFFF
byte 0x01
b+
byte 0x01000000000000000000
b==`)
	testAccepts(t, "#pragma version 4\nbyte 0x0100\nbyte 0x02\nb/\nbyte 0x80\nb==")
	testAccepts(t, "#pragma version 4\nbyte 0x0f\nbyte 0xf0\nb|\nbyte 0xff\n==")
	testAccepts(t, "#pragma version 4\nbyte 0x00ff\nb~\nbyte 0xff00\n==")
	testPanics(t, "#pragma version 4\nbyte 0x01\nbyte 0x00\nb/", ledgercore.CodeZeroDiv)
}

func TestByteOps(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testAccepts(t, "#pragma version 2\nbyte \"abc\"\nbyte \"def\"\nconcat\nbyte \"abcdef\"\n==")
	testAccepts(t, "#pragma version 2\nbyte \"abcdef\"\nsubstring 2 4\nbyte \"cd\"\n==")
	testAccepts(t, "#pragma version 5\nbyte \"abcdef\"\nextract 1 2\nbyte \"bc\"\n==")
	testAccepts(t, "#pragma version 5\nbyte \"abcdef\"\nextract 3 0\nbyte \"def\"\n==")
	testAccepts(t, "#pragma version 5\nbyte 0x00000000000000ff\nint 0\nextract_uint64\nint 255\n==")
	testAccepts(t, "#pragma version 7\nbyte \"abcdef\"\nbyte \"XY\"\nreplace2 1\nbyte \"aXYdef\"\n==")
	testAccepts(t, "#pragma version 3\nbyte 0x00\nint 7\nint 1\nsetbit\nbyte 0x01\n==")
	testAccepts(t, "#pragma version 3\nbyte 0x80\nint 0\ngetbit")
	testAccepts(t, "#pragma version 3\nbyte 0x0102\nint 1\ngetbyte\nint 2\n==")
	testAccepts(t, "int 258\nitob\nbtoi\nint 258\n==")
	testAccepts(t, "#pragma version 7\nbyte \"aGVsbG8=\"\nbase64_decode StdEncoding\nbyte \"hello\"\n==")
}

func TestHashOps(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	data := []byte("algorand")
	sum := sha256.Sum256(data)
	testAccepts(t, fmt.Sprintf("arg 0\nsha256\nbyte 0x%x\n==", sum[:]), data)
	testRejects(t, fmt.Sprintf("arg 0\nsha256\nbyte 0x%x\n==", sum[:]), []byte("other"))
	digest := crypto.Hash(data)
	testAccepts(t, fmt.Sprintf("arg 0\nsha512_256\nbyte 0x%x\n==", digest[:]), data)
	testAccepts(t, "#pragma version 7\narg 0\nsha3_256\nlen\nint 32\n==", data)
	testAccepts(t, "arg 0\nkeccak256\nlen\nint 32\n==", data)
}

func TestEd25519Verify(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	var seed crypto.Seed
	crypto.RandBytes(seed[:])
	secrets := crypto.GenerateSignatureSecrets(seed)
	pk := basics.Address(secrets.SignatureVerifier)

	src := fmt.Sprintf("#pragma version 5\narg 0\narg 1\naddr %s\ned25519verify", pk.String())
	data := []byte("data to sign")
	sig := secrets.Sign(Msg{ProgramHash: crypto.HashObj(transactions.Program(src)), Data: data})
	testAccepts(t, src, data, sig[:])
	testRejects(t, src, []byte("other data"), sig[:])

	bare := fmt.Sprintf("#pragma version 7\narg 0\narg 1\naddr %s\ned25519verify_bare", pk.String())
	bareSig := secrets.SignBytes(data)
	testAccepts(t, bare, data, bareSig[:])
	testRejects(t, bare, data, sig[:])
}

func TestBudget(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testPanics(t, "#pragma version 4\nloop:\nint 1\nbnz loop\nint 1", ledgercore.CodeMaxCostExceeded)

	// without back branches the static cost is checked up front
	var sb strings.Builder
	sb.WriteString("#pragma version 2\n")
	for i := 0; i < 700; i++ {
		sb.WriteString("byte 0x00\nsha256\npop\n")
	}
	sb.WriteString("int 1")
	testPanics(t, sb.String(), ledgercore.CodeMaxCostExceeded)
}

func TestSubroutines(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testAccepts(t, `#pragma version 4
int 5
callsub double
int 10
==
return
double:
dup
+
retsub`)

	testAccepts(t, `#pragma version 8
int 3
int 4
callsub add
int 7
==
return
add:
proto 2 1
frame_dig -2
frame_dig -1
+
retsub`)

	testPanics(t, "#pragma version 8\nint 1\nretsub", ledgercore.CodeInvalidOpArg)
	testPanics(t, `#pragma version 8
callsub sub
int 1
return
sub:
proto 1 0
retsub`, ledgercore.CodeStackUnderflow)
	testPanics(t, `#pragma version 8
int 5
int 1
callsub sub
return
sub:
proto 1 1
frame_dig -2
retsub`, ledgercore.CodeIndexOutOfBound)
}

func TestSwitchMatch(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	src := `#pragma version 8
arg 0
btoi
switch zero one
int 0
return
zero:
int 1
return
one:
int 1
return`
	testAccepts(t, src, uint64Bytes(0))
	testAccepts(t, src, uint64Bytes(1))
	testRejects(t, src, uint64Bytes(2))

	testAccepts(t, `#pragma version 8
byte "x"
byte "y"
byte "y"
match ax ay
err
ax:
err
ay:
int 1`)
}

func TestStackOps(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testAccepts(t, "#pragma version 3\nint 1\nint 2\nswap\nint 1\n==\nassert\nint 2\n==")
	testAccepts(t, "#pragma version 3\nint 1\nint 2\nint 3\ndig 2\nint 1\n==\nassert\npop\npop\nint 1\n==")
	testAccepts(t, "#pragma version 3\nint 7\nint 8\nint 0\nselect\nint 7\n==")
	testAccepts(t, "#pragma version 5\nint 1\nint 2\nint 3\ncover 2\nint 2\n==\nassert\npop\nint 3\n==")
	testAccepts(t, "#pragma version 5\nint 1\nint 2\nint 3\nuncover 2\nint 1\n==\nassert\npop\nint 2\n==")
	testAccepts(t, "#pragma version 8\nint 9\ndupn 3\npopn 3")
	testAccepts(t, "#pragma version 8\nint 0\nint 5\nbury 1")
	testAccepts(t, "#pragma version 8\npushints 1 2 3\npopn 2")
	testAccepts(t, "#pragma version 3\nint 2\nint 3\ndup2\n+\nint 5\n==\nassert\npop\npop\nint 1")
	testPanics(t, "#pragma version 3\nint 1\ndig 1", ledgercore.CodeStackUnderflow)
}

func TestScratch(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	testAccepts(t, "int 7\nstore 3\nload 3\nint 7\n==")
	testAccepts(t, "load 200\nint 0\n==")
	testAccepts(t, "#pragma version 5\nint 4\nbyte \"v\"\nstores\nint 4\nloads\nbyte \"v\"\n==")
}

func TestTxnFields(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	sender := basics.Address{0x01}
	testAccepts(t, fmt.Sprintf("txn Sender\naddr %s\n==", sender.String()))
	testAccepts(t, "txn Fee\nint 1000\n==\ntxn Amount\nint 5\n==\n&&")
	testAccepts(t, "txn TypeEnum\nint pay\n==")
	testAccepts(t, "#pragma version 2\ntxn Type\nbyte \"pay\"\n==")
	testAccepts(t, "txn FirstValid\nint 10\n==")
	testAccepts(t, "global GroupSize\nint 1\n==\ntxn GroupIndex\nint 0\n==\n&&")
	testAccepts(t, "global MinTxnFee\nint 1000\n==")
	testAccepts(t, "#pragma version 2\nglobal ZeroAddress\nlen\nint 32\n==")
	testAccepts(t, "arg 0\nlen\nint 3\n==\narg_1\nbtoi\nint 9\n==\n&&", []byte("abc"), uint64Bytes(9))
	testPanics(t, "#pragma version 2\ntxna ApplicationArgs 0\nlen", ledgercore.CodeIndexOutOfBound)
	// app-only ops are not available to signatures
	testPanics(t, "#pragma version 2\nint 0\nbalance", ledgercore.CodeInvalidOpArg)
}

func TestGroupAccess(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	src := `#pragma version 3
gtxn 1 Amount
int 5
==
gtxn 0 Fee
int 1000
==
&&
int 1
gtxns Receiver
gtxn 0 Receiver
==
&&`
	t0 := defaultSigTxn(src)
	t1 := defaultSigTxn(src)
	txns := []transactions.Transaction{t0.Txn, t1.Txn}
	transactions.AssignGroupID(txns)
	t0.Txn, t1.Txn = txns[0], txns[1]
	ep := NewEvalParams(transactions.WrapSignedTxnsWithAD([]transactions.SignedTxn{t0, t1}), makeTestProto())
	for gi := range ep.TxnGroup {
		pass, err := EvalSignature(gi, ep)
		require.NoError(t, err)
		require.True(t, pass)
	}

	_, err := EvalSignature(0, NewEvalParams(transactions.WrapSignedTxnsWithAD([]transactions.SignedTxn{t0}), makeTestProto()))
	require.Error(t, err)
	require.Equal(t, ledgercore.CodeIndexOutOfBound, ledgercore.CodeOf(err))
}

func TestLogicSigArgs(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	stxn := defaultSigTxn("int 1")
	stxn.Lsig.Logic = nil
	_, err := EvalSignature(0, NewEvalParams(transactions.WrapSignedTxnsWithAD([]transactions.SignedTxn{stxn}), makeTestProto()))
	require.ErrorIs(t, err, errLogicSigNotSupported)

	testPanics(t, "int 1\narg 3", ledgercore.CodeIndexOutOfBound)
}

func TestVersionLimits(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := makeTestProto()
	proto.LogicSigVersion = 3
	stxn := defaultSigTxn("#pragma version 4\nint 1")
	_, err := EvalSignature(0, NewEvalParams(transactions.WrapSignedTxnsWithAD([]transactions.SignedTxn{stxn}), proto))
	require.Error(t, err)
	require.Equal(t, ledgercore.CodeVersionMismatch, ledgercore.CodeOf(err))
}

func TestPanicRecovered(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	// a nil Proto panics on first use; eval turns it into an error
	stxn := defaultSigTxn("int 1")
	ep := NewEvalParams(transactions.WrapSignedTxnsWithAD([]transactions.SignedTxn{stxn}), makeTestProto())
	ep.Proto = nil
	pass, err := EvalSignature(0, ep)
	require.False(t, pass)
	var pe PanicError
	require.ErrorAs(t, err, &pe)
}

func uint64Bytes(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}
