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

package apply

import (
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

// Keyreg applies a KeyRegistration transaction using the Balances interface.
// Participation is not simulated: a well-formed registration only checks the
// key validity window against round, and costs the fee.
func Keyreg(keyreg transactions.KeyregTxnFields, header transactions.Header, balances Balances, round basics.Round) error {
	record, err := balances.Get(header.Sender)
	if err != nil {
		return err
	}
	if record.IsZero() {
		return ledgercore.Reject(ledgercore.CodeAccountNotFound, "cannot register keys of an empty account", "addr", header.Sender)
	}

	if keyreg.VotePK == [32]byte{} || keyreg.SelectionPK == [32]byte{} {
		// going offline
		return nil
	}
	if keyreg.VoteLast <= round {
		return ledgercore.Rejectf(ledgercore.CodeInvalidTransactionParams,
			"transaction tries to mark an account as online with last voting round in the past (%d <= %d)", keyreg.VoteLast, round)
	}
	if keyreg.VoteFirst > round+1 {
		return ledgercore.Rejectf(ledgercore.CodeInvalidTransactionParams,
			"transaction tries to mark an account as online with first voting round beyond the next voting round (%d > %d)", keyreg.VoteFirst, round+1)
	}
	return nil
}
