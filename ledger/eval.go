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

package ledger

import (
	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/data/transactions/logic"
	"github.com/scale-it/algo-builder-sub005/ledger/apply"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

func txnError(gi int, stxn *transactions.SignedTxn, err error) error {
	return &TxnEvalError{GroupIndex: gi, Txid: stxn.ID(), Err: err}
}

// CheckGroup runs the checks that need no ledger state beyond the round:
// group size and ids, well-formedness, pooled fees and validity windows.
func CheckGroup(group []transactions.SignedTxn, proto config.ConsensusParams, rnd basics.Round) error {
	if len(group) == 0 {
		return ledgercore.Reject(ledgercore.CodeInvalidGroup, "empty transaction group")
	}
	if len(group) > proto.MaxTxGroupSize {
		return ledgercore.Reject(ledgercore.CodeGroupTooLarge, "transaction group too large",
			"size", len(group), "max", proto.MaxTxGroupSize)
	}

	txns := make([]transactions.Transaction, len(group))
	for gi := range group {
		txns[gi] = group[gi].Txn
	}
	gid := transactions.ComputeGroup(txns)
	for gi := range group {
		g := group[gi].Txn.Group
		if len(group) == 1 && g.IsZero() {
			continue
		}
		if g != gid {
			return txnError(gi, &group[gi], ledgercore.Reject(ledgercore.CodeInvalidGroup,
				"transaction group id does not match the group", "have", g, "want", gid))
		}
	}

	for gi := range group {
		tx := &group[gi].Txn
		if tx.Type == protocol.PaymentTx && !tx.CloseRemainderTo.IsZero() && tx.CloseRemainderTo == tx.Sender {
			return txnError(gi, &group[gi], ledgercore.Reject(ledgercore.CodeInvalidCloseRemainderTo,
				"cannot close account to its sender", "sender", tx.Sender))
		}
		if err := tx.WellFormed(proto); err != nil {
			return txnError(gi, &group[gi], ledgercore.WithCode(ledgercore.CodeInvalidTransactionParams, err))
		}
		if err := tx.Alive(rnd); err != nil {
			return txnError(gi, &group[gi], ledgercore.WithCode(ledgercore.CodeInvalidRound, err))
		}
	}

	// Fees are pooled: any transaction may pay for the others.
	var paid uint64
	for gi := range group {
		paid = basics.AddSaturate(paid, group[gi].Txn.Fee.Raw)
	}
	needed := basics.MulSaturate(proto.MinTxnFee, uint64(len(group)))
	if paid < needed {
		gi := 0
		for i := range group {
			if group[i].Txn.Fee.Raw < proto.MinTxnFee {
				gi = i
				break
			}
		}
		return txnError(gi, &group[gi], ledgercore.Reject(ledgercore.CodeFeesNotEnough,
			"group fees too small", "paid", paid, "needed", needed))
	}
	return nil
}

// ValidatedGroup is a group whose evaluation succeeded against a Store but
// has not been committed yet.
type ValidatedGroup struct {
	txns    []transactions.SignedTxnWithAD
	costs   []int
	state   *roundCowState
	touched map[basics.Address]int
	version uint64
}

// Txns returns the group with ApplyData filled in, inner transactions
// included.
func (vg *ValidatedGroup) Txns() []transactions.SignedTxnWithAD {
	return vg.txns
}

// Cost returns the opcode cost of the app programs run by the gi'th
// transaction, inner calls included.
func (vg *ValidatedGroup) Cost(gi int) int {
	return vg.costs[gi]
}

// Evaluate applies the group in ep against a fresh layer over the store.
// Signatures must already have been verified; Evaluate checks that each
// signer is still the sender's authorizer. Nothing is written to the store.
func (s *Store) Evaluate(ep *logic.EvalParams) (*ValidatedGroup, error) {
	vg, err := s.evaluate(ep)
	if err != nil {
		s.metrics.rejected(err)
		return nil, err
	}
	return vg, nil
}

func (s *Store) evaluate(ep *logic.EvalParams) (*ValidatedGroup, error) {
	state := makeRoundCowState(s, s.proto)
	vg := &ValidatedGroup{
		txns:    ep.TxnGroup,
		costs:   make([]int, len(ep.TxnGroup)),
		state:   state,
		touched: make(map[basics.Address]int),
		version: s.version,
	}

	for gi := range ep.TxnGroup {
		stxn := &ep.TxnGroup[gi]
		cow := state.child()
		cow.cost = &vg.costs[gi]

		auth, err := cow.Authorizer(stxn.Txn.Sender)
		if err != nil {
			return nil, txnError(gi, &stxn.SignedTxn, err)
		}
		if signer := stxn.Authorizer(); signer != auth {
			return nil, txnError(gi, &stxn.SignedTxn, ledgercore.Reject(ledgercore.CodeInvalidSignature,
				"transaction signed by the wrong account", "signer", signer, "authorizer", auth))
		}
		if err := cow.payFee(stxn.Txn.Sender, stxn.Txn.Fee); err != nil {
			return nil, txnError(gi, &stxn.SignedTxn, err)
		}
		if err := cow.applyTransaction(gi, ep, &stxn.ApplyData); err != nil {
			return nil, txnError(gi, &stxn.SignedTxn, err)
		}
		for _, addr := range cow.modifiedAccounts() {
			vg.touched[addr] = gi
		}
		cow.commitToParent()
		ep.RecordAD(gi, stxn.ApplyData)
	}

	// Accounts may dip below their minimum balance inside the group as long
	// as they recover by its end. Empty accounts are deleted instead.
	for _, addr := range state.modifiedAccounts() {
		data, err := state.lookup(addr)
		if err != nil {
			return nil, err
		}
		if data.IsZero() {
			continue
		}
		if mb := s.proto.MinBalanceReq(data); data.MicroAlgos.LessThan(mb) {
			gi := vg.touched[addr]
			return nil, txnError(gi, &ep.TxnGroup[gi].SignedTxn, ledgercore.Reject(ledgercore.CodeInsufficientBalance,
				"account balance below minimum", "addr", addr, "balance", data.MicroAlgos.Raw, "min", mb.Raw))
		}
	}
	return vg, nil
}

// AddValidatedGroup commits a group returned by Evaluate. It fails with
// ErrStaleGroup if the store changed in between.
func (s *Store) AddValidatedGroup(vg *ValidatedGroup) error {
	if vg.version != s.version {
		return ErrStaleGroup
	}
	s.commit(vg.state)
	s.metrics.committed(len(vg.txns), len(vg.state.mods.accts))
	return nil
}

// payFee burns the fee of a transaction from its sender.
func (cb *roundCowState) payFee(sender basics.Address, fee basics.MicroAlgos) error {
	if fee.IsZero() {
		return nil
	}
	data, err := cb.lookup(sender)
	if err != nil {
		return err
	}
	rest, overflowed := basics.OSubA(data.MicroAlgos, fee)
	if overflowed {
		return ledgercore.Reject(ledgercore.CodeInsufficientBalance, "balance too low to pay fee",
			"addr", sender, "balance", data.MicroAlgos.Raw, "fee", fee.Raw)
	}
	data.MicroAlgos = rest
	cb.put(sender, data)
	return nil
}

// applyTransaction performs the state transition of the gi'th transaction of
// ep, recording its results in ad.
func (cb *roundCowState) applyTransaction(gi int, ep *logic.EvalParams, ad *transactions.ApplyData) error {
	tx := &ep.TxnGroup[gi].Txn
	var err error
	switch tx.Type {
	case protocol.PaymentTx:
		err = apply.Payment(tx.PaymentTxnFields, tx.Header, cb, ad)

	case protocol.KeyRegistrationTx:
		err = apply.Keyreg(tx.KeyregTxnFields, tx.Header, cb, cb.round())

	case protocol.AssetConfigTx:
		err = apply.AssetConfig(tx.AssetConfigTxnFields, tx.Header, cb, ad)

	case protocol.AssetTransferTx:
		err = apply.AssetTransfer(tx.AssetTransferTxnFields, tx.Header, cb, ad)

	case protocol.AssetFreezeTx:
		err = apply.AssetFreeze(tx.AssetFreezeTxnFields, tx.Header, cb, ad)

	case protocol.ApplicationCallTx:
		err = apply.ApplicationCall(tx.ApplicationCallTxnFields, tx.Header, cb, ad, gi, ep)

	default:
		err = ledgercore.Reject(ledgercore.CodeUnsupportedTransactionType, "unknown transaction type", "type", tx.Type)
	}
	if err != nil {
		return err
	}

	// rekeying happens last, so a transaction may use the old key one final time
	return apply.Rekey(cb, tx)
}
