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

package runtime

import (
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// Receipt reports the outcome of one committed transaction.
type Receipt struct {
	TxID           transactions.Txid
	Type           protocol.TxType
	Sender         basics.Address
	ConfirmedRound basics.Round
	Fee            uint64

	// set only by the transaction that created the asset or app
	CreatedAssetID basics.AssetIndex
	CreatedAppID   basics.AppIndex

	ClosingAmount      uint64
	AssetClosingAmount uint64

	GlobalDelta basics.StateDelta
	LocalDeltas map[uint64]basics.StateDelta
	Logs        [][]byte
	Inner       []Receipt

	// Cost is the opcode cost of the app programs this transaction ran,
	// inner app calls included. Inner receipts carry no cost of their own.
	Cost int

	// ClearStateRejected is set when a clear program failed. The local
	// state was removed anyway.
	ClearStateRejected bool
}

func makeReceipt(stxn *transactions.SignedTxnWithAD, txid transactions.Txid, rnd basics.Round, cost int) Receipt {
	ad := &stxn.ApplyData
	rc := Receipt{
		TxID:               txid,
		Type:               stxn.Txn.Type,
		Sender:             stxn.Txn.Sender,
		ConfirmedRound:     rnd,
		Fee:                stxn.Txn.Fee.Raw,
		CreatedAssetID:     ad.ConfigAsset,
		CreatedAppID:       ad.ApplicationID,
		ClosingAmount:      ad.ClosingAmount.Raw,
		AssetClosingAmount: ad.AssetClosingAmount,
		GlobalDelta:        ad.EvalDelta.GlobalDelta,
		LocalDeltas:        ad.EvalDelta.LocalDeltas,
		Cost:               cost,
		ClearStateRejected: ad.ClearStateRejected,
	}
	for _, l := range ad.EvalDelta.Logs {
		rc.Logs = append(rc.Logs, []byte(l))
	}
	for i := range ad.EvalDelta.InnerTxns {
		inner := &ad.EvalDelta.InnerTxns[i]
		rc.Inner = append(rc.Inner, makeReceipt(inner, inner.Txn.InnerID(txid, i), rnd, 0))
	}
	return rc
}
