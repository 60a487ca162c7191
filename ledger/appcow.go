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
	"fmt"
	"maps"
	"slices"

	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/data/transactions/logic"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

// StatefulEval runs program as app aidx for the gi'th transaction of
// params. Writes land in a child layer that is merged only if the program
// approves; the returned EvalDelta describes them.
func (cb *roundCowState) StatefulEval(gi int, params *logic.EvalParams, aidx basics.AppIndex, program []byte) (pass bool, evalDelta transactions.EvalDelta, err error) {
	// Make a child cow to eval our program in
	calf := cb.child()
	defer func() {
		params.Ledger = cb
	}()
	params.Ledger = calf

	stxn := &params.TxnGroup[gi]
	pass, cx, err := logic.EvalContract(program, gi, aidx, params)
	if cx != nil && cb.cost != nil {
		*cb.cost += cx.Cost()
	}
	if err != nil {
		stxn.EvalDelta = transactions.EvalDelta{}
		var details string
		if cx != nil {
			details = fmt.Sprintf("app=%d, pc=%d", aidx, cx.PC())
		}
		return false, transactions.EvalDelta{}, ledgercore.LogicEvalError{Err: err, Details: details}
	}
	if !pass {
		stxn.EvalDelta = transactions.EvalDelta{}
		return false, transactions.EvalDelta{}, nil
	}

	// If program passed, build our eval delta and commit to state changes
	evalDelta, err = calf.buildEvalDelta(aidx, &stxn.Txn)
	if err != nil {
		return false, transactions.EvalDelta{}, err
	}
	evalDelta.Logs = stxn.EvalDelta.Logs
	evalDelta.InnerTxns = stxn.EvalDelta.InnerTxns
	calf.commitToParent()
	return true, evalDelta, nil
}

// buildEvalDelta reports the key/value writes made to aidx's stores in this
// layer. Local deltas are indexed by position in [Sender, Accounts...];
// other accounts go to SharedAccts and are indexed past the end of that list.
func (cb *roundCowState) buildEvalDelta(aidx basics.AppIndex, txn *transactions.Transaction) (evalDelta transactions.EvalDelta, err error) {
	addrs := slices.Collect(maps.Keys(cb.sdeltas))
	slices.SortFunc(addrs, compareAddr)
	for _, addr := range addrs {
		for aapp, sdelta := range cb.sdeltas[addr] {
			if aapp.aidx != aidx || len(sdelta) == 0 {
				continue
			}
			if aapp.global {
				evalDelta.GlobalDelta = maps.Clone(sdelta)
				continue
			}
			if evalDelta.LocalDeltas == nil {
				evalDelta.LocalDeltas = make(map[uint64]basics.StateDelta)
			}
			offset, ierr := txn.IndexByAddress(addr, txn.Sender)
			if ierr != nil {
				idx := slices.Index(evalDelta.SharedAccts, addr)
				if idx == -1 {
					evalDelta.SharedAccts = append(evalDelta.SharedAccts, addr)
					idx = len(evalDelta.SharedAccts) - 1
				}
				offset = uint64(len(txn.Accounts)) + 1 + uint64(idx)
			}
			evalDelta.LocalDeltas[offset] = maps.Clone(sdelta)
		}
	}
	return evalDelta, nil
}

// Perform applies the gi'th inner transaction of ep, submitted by the app
// whose program is running against this layer.
func (cb *roundCowState) Perform(gi int, ep *logic.EvalParams) error {
	stxn := &ep.TxnGroup[gi]
	caller := ep.Caller()
	if caller == nil {
		return fmt.Errorf("inner transaction %d submitted without a calling app", gi)
	}
	auth, err := cb.Authorizer(stxn.Txn.Sender)
	if err != nil {
		return err
	}
	if appAddr := caller.AppID().Address(); auth != appAddr {
		return ledgercore.Reject(ledgercore.CodeInvalidSignature, "inner transaction sender not controlled by app",
			"sender", stxn.Txn.Sender, "app", uint64(caller.AppID()))
	}
	if err := cb.payFee(stxn.Txn.Sender, stxn.Txn.Fee); err != nil {
		return err
	}
	return cb.applyTransaction(gi, ep, &stxn.ApplyData)
}
