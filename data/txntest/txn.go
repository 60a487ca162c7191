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

package txntest

import (
	"fmt"
	"strings"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// Txn exists to simplify writing tests where transaction.Transaction might be unwieldy.
// Txn simplifies testing in these ways:
// * Provides a flat structure to simplify object construction.
// * Defines convenience methods to help setup test state.
type Txn struct {
	Type protocol.TxType

	Sender      basics.Address
	Fee         interface{} // basics.MicroAlgos, uint64, int, or nil
	FirstValid  basics.Round
	LastValid   basics.Round
	Note        []byte
	GenesisID   string
	GenesisHash crypto.Digest
	Group       crypto.Digest
	Lease       [32]byte
	RekeyTo     basics.Address

	VotePK           [32]byte
	SelectionPK      [32]byte
	VoteFirst        basics.Round
	VoteLast         basics.Round
	VoteKeyDilution  uint64
	Nonparticipation bool

	Receiver         basics.Address
	Amount           uint64
	CloseRemainderTo basics.Address

	ConfigAsset basics.AssetIndex
	AssetParams basics.AssetParams

	XferAsset     basics.AssetIndex
	AssetAmount   uint64
	AssetSender   basics.Address
	AssetReceiver basics.Address
	AssetCloseTo  basics.Address

	FreezeAccount basics.Address
	FreezeAsset   basics.AssetIndex
	AssetFrozen   bool

	ApplicationID     basics.AppIndex
	OnCompletion      transactions.OnCompletion
	ApplicationArgs   [][]byte
	Accounts          []basics.Address
	ForeignApps       []basics.AppIndex
	ForeignAssets     []basics.AssetIndex
	Boxes             []transactions.BoxRef
	LocalStateSchema  basics.StateSchema
	GlobalStateSchema basics.StateSchema
	ApprovalProgram   string // TEAL source
	ClearStateProgram string // TEAL source
	ExtraProgramPages uint32
}

// internalCopy "finishes" a shallow copy done by a simple Go assignment by
// copying all of the slice fields
func (tx *Txn) internalCopy() {
	tx.Note = append([]byte(nil), tx.Note...)
	if tx.ApplicationArgs != nil {
		tx.ApplicationArgs = append([][]byte(nil), tx.ApplicationArgs...)
		for i := range tx.ApplicationArgs {
			tx.ApplicationArgs[i] = append([]byte(nil), tx.ApplicationArgs[i]...)
		}
	}
	tx.Accounts = append([]basics.Address(nil), tx.Accounts...)
	tx.ForeignApps = append([]basics.AppIndex(nil), tx.ForeignApps...)
	tx.ForeignAssets = append([]basics.AssetIndex(nil), tx.ForeignAssets...)
	tx.Boxes = append([]transactions.BoxRef(nil), tx.Boxes...)
	for i := 0; i < len(tx.Boxes); i++ {
		tx.Boxes[i].Name = append([]byte(nil), tx.Boxes[i].Name...)
	}
}

// Noted returns a new Txn with the given note field.
func (tx Txn) Noted(note string) *Txn {
	tx.internalCopy()
	tx.Note = []byte(note)
	return &tx
}

// Args returns a new Txn with the given strings as app args
func (tx Txn) Args(strings ...string) *Txn {
	tx.internalCopy()
	bytes := make([][]byte, len(strings))
	for i, s := range strings {
		bytes[i] = []byte(s)
	}
	tx.ApplicationArgs = bytes
	return &tx
}

// FillDefaults populates some obvious defaults from config params,
// unless they have already been set.
func (tx *Txn) FillDefaults(params config.ConsensusParams) {
	if tx.Fee == nil {
		tx.Fee = params.MinTxnFee
	}
	if tx.LastValid == 0 {
		tx.LastValid = tx.FirstValid + basics.Round(params.MaxTxnLife)
	}

	if tx.Type == protocol.ApplicationCallTx &&
		(tx.ApplicationID == 0 || tx.OnCompletion == transactions.UpdateApplicationOC) {
		pragma := fmt.Sprintf("#pragma version %d\n", params.LogicSigVersion)
		switch {
		case tx.ApprovalProgram == "":
			tx.ApprovalProgram = pragma + "int 1"
		case !strings.Contains(tx.ApprovalProgram, "#pragma version"):
			tx.ApprovalProgram = pragma + tx.ApprovalProgram
		}
		switch {
		case tx.ClearStateProgram == "":
			tx.ClearStateProgram = tx.ApprovalProgram
		case !strings.Contains(tx.ClearStateProgram, "#pragma version"):
			tx.ClearStateProgram = pragma + tx.ClearStateProgram
		}
	}
}

func source(program string) []byte {
	if program == "" {
		return nil
	}
	return []byte(program)
}

// Txn produces a transactions.Transaction from the fields in this Txn
func (tx Txn) Txn() transactions.Transaction {
	var fee basics.MicroAlgos
	switch f := tx.Fee.(type) {
	case basics.MicroAlgos:
		fee = f
	case uint64:
		fee = basics.MicroAlgos{Raw: f}
	case int:
		if f >= 0 {
			fee = basics.MicroAlgos{Raw: uint64(f)}
		}
	}

	return transactions.Transaction{
		Type: tx.Type,
		Header: transactions.Header{
			Sender:      tx.Sender,
			Fee:         fee,
			FirstValid:  tx.FirstValid,
			LastValid:   tx.LastValid,
			Note:        tx.Note,
			GenesisID:   tx.GenesisID,
			GenesisHash: tx.GenesisHash,
			Group:       tx.Group,
			Lease:       tx.Lease,
			RekeyTo:     tx.RekeyTo,
		},
		KeyregTxnFields: transactions.KeyregTxnFields{
			VotePK:           tx.VotePK,
			SelectionPK:      tx.SelectionPK,
			VoteFirst:        tx.VoteFirst,
			VoteLast:         tx.VoteLast,
			VoteKeyDilution:  tx.VoteKeyDilution,
			Nonparticipation: tx.Nonparticipation,
		},
		PaymentTxnFields: transactions.PaymentTxnFields{
			Receiver:         tx.Receiver,
			Amount:           basics.MicroAlgos{Raw: tx.Amount},
			CloseRemainderTo: tx.CloseRemainderTo,
		},
		AssetConfigTxnFields: transactions.AssetConfigTxnFields{
			ConfigAsset: tx.ConfigAsset,
			AssetParams: tx.AssetParams,
		},
		AssetTransferTxnFields: transactions.AssetTransferTxnFields{
			XferAsset:     tx.XferAsset,
			AssetAmount:   tx.AssetAmount,
			AssetSender:   tx.AssetSender,
			AssetReceiver: tx.AssetReceiver,
			AssetCloseTo:  tx.AssetCloseTo,
		},
		AssetFreezeTxnFields: transactions.AssetFreezeTxnFields{
			FreezeAccount: tx.FreezeAccount,
			FreezeAsset:   tx.FreezeAsset,
			AssetFrozen:   tx.AssetFrozen,
		},
		ApplicationCallTxnFields: transactions.ApplicationCallTxnFields{
			ApplicationID:     tx.ApplicationID,
			OnCompletion:      tx.OnCompletion,
			ApplicationArgs:   tx.ApplicationArgs,
			Accounts:          tx.Accounts,
			ForeignApps:       tx.ForeignApps,
			ForeignAssets:     tx.ForeignAssets,
			Boxes:             tx.Boxes,
			LocalStateSchema:  tx.LocalStateSchema,
			GlobalStateSchema: tx.GlobalStateSchema,
			ApprovalProgram:   source(tx.ApprovalProgram),
			ClearStateProgram: source(tx.ClearStateProgram),
			ExtraProgramPages: tx.ExtraProgramPages,
		},
	}
}

// SignedTxn produces a unsigned, transactions.SignedTransaction from
// the fields in this Txn.  This seemingly pointless operation exists,
// again, for convenience when driving tests.
func (tx Txn) SignedTxn() transactions.SignedTxn {
	return transactions.SignedTxn{Txn: tx.Txn()}
}

// SignedTxnWithAD produces unsigned, transactions.SignedTxnWithAD
// from the fields in this Txn.
func (tx Txn) SignedTxnWithAD() transactions.SignedTxnWithAD {
	return transactions.SignedTxnWithAD{SignedTxn: tx.SignedTxn()}
}

// Group turns a list of Txns into a slice of SignedTxns with
// GroupIDs set properly to make them a transaction group. The input
// Txns are modified with the calculated GroupID.
func Group(txns ...*Txn) []transactions.SignedTxn {
	plain := make([]transactions.Transaction, len(txns))
	for i, txn := range txns {
		plain[i] = txn.Txn()
	}
	group := transactions.ComputeGroup(plain)
	stxns := make([]transactions.SignedTxn, len(txns))
	for i, txn := range txns {
		txn.Group = group
		stxns[i] = txn.SignedTxn()
	}
	return stxns
}
