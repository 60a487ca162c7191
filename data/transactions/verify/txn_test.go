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

package verify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/data/txntest"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

func keypair() *crypto.SignatureSecrets {
	var seed crypto.Seed
	crypto.RandBytes(seed[:])
	return crypto.GenerateSignatureSecrets(seed)
}

func payment(sender, receiver basics.Address) transactions.Transaction {
	tx := txntest.Txn{
		Type:       protocol.PaymentTx,
		Sender:     sender,
		Receiver:   receiver,
		Amount:     100,
		FirstValid: 1,
	}
	tx.FillDefaults(config.Simulator())
	return tx.Txn()
}

func requireGroupError(t *testing.T, err error, gi int, code ledgercore.RejectCode) *TxGroupError {
	t.Helper()
	require.Error(t, err)
	var tge *TxGroupError
	require.True(t, errors.As(err, &tge), "%T %v", err, err)
	require.Equal(t, gi, tge.GroupIndex)
	require.Equal(t, code, ledgercore.CodeOf(err), "%v", err)
	return tge
}

func TestSignedPayment(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	secret := keypair()
	addr := basics.Address(secret.SignatureVerifier)
	tx := payment(addr, basics.Address{0x01})
	stxn := tx.Sign(secret)

	_, err := TxnGroup([]transactions.SignedTxn{stxn}, proto)
	require.NoError(t, err)

	stxn2 := tx.Sign(secret)
	require.Equal(t, stxn.Sig, stxn2.Sig, "signing is deterministic")

	stxn2.Sig[0]++
	require.Equal(t, stxn.ID(), stxn2.ID(), "changing sig caused txid to change")
	_, err = TxnGroup([]transactions.SignedTxn{stxn2}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeInvalidSignature)

	require.True(t, crypto.SignatureVerifier(addr).Verify(tx, stxn.Sig))
}

func TestTxnValidationEncodeDecode(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	for i := 0; i < 10; i++ {
		secret := keypair()
		stxn := payment(basics.Address(secret.SignatureVerifier), basics.Address{byte(i)}).Sign(secret)

		var decoded transactions.SignedTxn
		require.NoError(t, protocol.Decode(protocol.Encode(&stxn), &decoded))
		_, err := TxnGroup([]transactions.SignedTxn{decoded}, proto)
		require.NoError(t, err)
	}
}

func TestTxnValidationEmptySig(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	secret := keypair()
	stxn := payment(basics.Address(secret.SignatureVerifier), basics.Address{0x01}).Sign(secret)
	stxn.Sig = crypto.Signature{}
	_, err := TxnGroup([]transactions.SignedTxn{stxn}, proto)
	tge := requireGroupError(t, err, 0, ledgercore.CodeInvalidSignature)
	require.Equal(t, TxGroupErrorReasonHasNoSig, tge.Reason)

	stxn = payment(basics.Address(secret.SignatureVerifier), basics.Address{0x01}).Sign(secret)
	stxn.Lsig.Logic = []byte("int 1")
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	tge = requireGroupError(t, err, 0, ledgercore.CodeInvalidSignature)
	require.Equal(t, TxGroupErrorReasonSigNotWellFormed, tge.Reason)
}

func TestRekeyedAuthorizer(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	owner := keypair()
	delegate := keypair()
	tx := payment(basics.Address(owner.SignatureVerifier), basics.Address{0x01})

	stxn := tx.Sign(delegate)
	require.Equal(t, basics.Address(delegate.SignatureVerifier), stxn.AuthAddr)
	_, err := TxnGroup([]transactions.SignedTxn{stxn}, proto)
	require.NoError(t, err)

	// claiming the owner signed it does not work
	stxn.AuthAddr = basics.Address{}
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeInvalidSignature)
}

func TestMultisigTxn(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	keys := []*crypto.SignatureSecrets{keypair(), keypair(), keypair()}
	pks := []crypto.PublicKey{keys[0].SignatureVerifier, keys[1].SignatureVerifier, keys[2].SignatureVerifier}
	builder, err := crypto.MakeMultisigBuilder(1, 2, pks)
	require.NoError(t, err)

	tx := payment(basics.Address(builder.Address()), basics.Address{0x01})
	require.NoError(t, builder.Sign(tx, keys[0]))
	_, err = builder.Finalize()
	require.ErrorIs(t, err, crypto.ErrThresholdNotMet)

	require.NoError(t, builder.Sign(tx, keys[2]))
	msig, err := builder.Finalize()
	require.NoError(t, err)

	stxn := transactions.SignedTxn{Txn: tx, Msig: msig}
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	require.NoError(t, err)

	// below threshold
	partial := msig
	partial.Subsigs = append([]crypto.MultisigSubsig(nil), msig.Subsigs...)
	partial.Subsigs[2].Sig = crypto.Signature{}
	stxn.Msig = partial
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	tge := requireGroupError(t, err, 0, ledgercore.CodeInvalidSignature)
	require.Equal(t, TxGroupErrorReasonMsigNotWellFormed, tge.Reason)

	// for someone else's address
	stxn.Msig = msig
	stxn.Txn = payment(basics.Address{0x09}, basics.Address{0x01})
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeInvalidSignature)
}

func TestLogicSigContractAccount(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	src := "#pragma version 4\narg 0\nbyte \"open sesame\"\n=="
	contract := transactions.Program(src).Address()

	stxn := transactions.SignedTxn{Txn: payment(contract, basics.Address{0x01})}
	stxn.Lsig.Logic = []byte(src)
	stxn.Lsig.Args = [][]byte{[]byte("open sesame")}
	groupCtx, err := TxnGroup([]transactions.SignedTxn{stxn}, proto)
	require.NoError(t, err)
	require.NotNil(t, groupCtx.EvalParams())

	stxn.Lsig.Args = [][]byte{[]byte("wrong")}
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	tge := requireGroupError(t, err, 0, ledgercore.CodeRejectedByLogic)
	require.Equal(t, TxGroupErrorReasonLogicSigFailed, tge.Reason)

	// the program does not hash to the sender
	stxn.Txn = payment(basics.Address{0x05}, basics.Address{0x01})
	stxn.Lsig.Args = [][]byte{[]byte("open sesame")}
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeLogicSignatureValidationFailed)
}

func TestLogicSigDelegated(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	secret := keypair()
	sender := basics.Address(secret.SignatureVerifier)

	stxn := transactions.SignedTxn{Txn: payment(sender, basics.Address{0x01})}
	stxn.Lsig.Logic = []byte("#pragma version 2\ntxn Amount\nint 1000\n<")
	stxn.Lsig.Sign(secret)
	_, err := TxnGroup([]transactions.SignedTxn{stxn}, proto)
	require.NoError(t, err)

	// signed by someone else
	stxn.Lsig.Sign(keypair())
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeLogicSignatureValidationFailed)

	// the program fails with an error code of its own
	stxn.Lsig.Logic = []byte("int 1\nint 0\n/")
	stxn.Lsig.Sign(secret)
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeZeroDiv)
}

func TestLogicSigMultisigDelegated(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	keys := []*crypto.SignatureSecrets{keypair(), keypair()}
	pks := []crypto.PublicKey{keys[0].SignatureVerifier, keys[1].SignatureVerifier}
	builder, err := crypto.MakeMultisigBuilder(1, 2, pks)
	require.NoError(t, err)

	src := []byte("int 1")
	stxn := transactions.SignedTxn{Txn: payment(basics.Address(builder.Address()), basics.Address{0x01})}
	stxn.Lsig.Logic = src
	require.NoError(t, builder.SignProgram(src, keys[0]))
	require.Error(t, stxn.Lsig.SetMultisig(builder))
	require.NoError(t, builder.SignProgram(src, keys[1]))
	require.NoError(t, stxn.Lsig.SetMultisig(builder))

	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	require.NoError(t, err)

	stxn.Lsig.Sig = keys[0].Sign(transactions.Program(src))
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeLogicSignatureValidationFailed)
}

func TestLogicSigLimits(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	src := "#pragma version 4\n" + strings.Repeat("int 1\npop\n", 600) + "int 1"
	stxn := transactions.SignedTxn{Txn: payment(transactions.Program(src).Address(), basics.Address{0x01})}
	stxn.Lsig.Logic = []byte(src)
	_, err := TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeLogicSignatureValidationFailed)

	// args count towards the size
	small := "int 1"
	stxn = transactions.SignedTxn{Txn: payment(transactions.Program(small).Address(), basics.Address{0x01})}
	stxn.Lsig.Logic = []byte(small)
	stxn.Lsig.Args = [][]byte{make([]byte, 1000)}
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeLogicSignatureValidationFailed)

	proto.LogicSigVersion = 3
	stxn.Lsig.Args = nil
	stxn.Lsig.Logic = []byte("#pragma version 4\nint 1")
	stxn.Txn = payment(transactions.Program(stxn.Lsig.Logic).Address(), basics.Address{0x01})
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeVersionMismatch)

	stxn.Lsig.Logic = []byte("#pragma version 2\nnot_an_op")
	stxn.Txn = payment(transactions.Program(stxn.Lsig.Logic).Address(), basics.Address{0x01})
	_, err = TxnGroup([]transactions.SignedTxn{stxn}, proto)
	requireGroupError(t, err, 0, ledgercore.CodeAssemble)
}

func TestGroupReportsFirstFailure(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	proto := config.Simulator()
	var stxns []transactions.SignedTxn
	var txns []transactions.Transaction
	keys := make([]*crypto.SignatureSecrets, 4)
	for i := range keys {
		keys[i] = keypair()
		txns = append(txns, payment(basics.Address(keys[i].SignatureVerifier), basics.Address{0x01}))
	}
	transactions.AssignGroupID(txns)
	for i := range txns {
		stxns = append(stxns, txns[i].Sign(keys[i]))
	}
	_, err := TxnGroup(stxns, proto)
	require.NoError(t, err)

	stxns[1].Sig[5]++
	stxns[3].Sig[5]++
	_, err = TxnGroup(stxns, proto)
	requireGroupError(t, err, 1, ledgercore.CodeInvalidSignature)

	// a later logic sig does not mask an earlier bad signature
	stxns[3] = transactions.SignedTxn{Txn: stxns[3].Txn}
	stxns[3].Lsig.Logic = []byte("int 0")
	_, err = TxnGroup(stxns, proto)
	requireGroupError(t, err, 1, ledgercore.CodeInvalidSignature)

	g, err := TxnGroup(nil, proto)
	require.NoError(t, err)
	require.Nil(t, g)
}
