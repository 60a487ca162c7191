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

// Payment changes the balances according to this transaction.
func Payment(payment transactions.PaymentTxnFields, header transactions.Header, balances Balances, ad *transactions.ApplyData) error {
	// move tx money
	if !payment.Amount.IsZero() || payment.Receiver != (basics.Address{}) {
		err := balances.Move(header.Sender, payment.Receiver, payment.Amount)
		if err != nil {
			return err
		}
	}

	if payment.CloseRemainderTo != (basics.Address{}) {
		rec, err := balances.Get(header.Sender)
		if err != nil {
			return err
		}

		closeAmount := rec.MicroAlgos
		ad.ClosingAmount = closeAmount
		err = balances.Move(header.Sender, payment.CloseRemainderTo, closeAmount)
		if err != nil {
			return err
		}

		// Confirm that we have no balance remaining
		rec, err = balances.Get(header.Sender)
		if err != nil {
			return err
		}
		if !rec.MicroAlgos.IsZero() {
			return ledgercore.Rejectf(ledgercore.CodeCannotCloseAccount, "balance %d still not zero after CloseRemainderTo", rec.MicroAlgos.Raw)
		}

		// Confirm that there is no asset-related state in the account
		if len(rec.Assets) > 0 {
			return ledgercore.Reject(ledgercore.CodeCannotCloseAccount, "cannot close account with assets", "count", len(rec.Assets))
		}
		if len(rec.AssetParams) > 0 {
			return ledgercore.Reject(ledgercore.CodeCannotCloseAccount, "cannot close account that created assets", "count", len(rec.AssetParams))
		}

		// Confirm that there is no application-related state remaining
		if len(rec.AppLocalStates) > 0 {
			return ledgercore.Reject(ledgercore.CodeCannotCloseAccount, "cannot close account that is opted in to applications", "count", len(rec.AppLocalStates))
		}
		if len(rec.AppParams) > 0 {
			return ledgercore.Reject(ledgercore.CodeCannotCloseAccount, "cannot close account that created applications", "count", len(rec.AppParams))
		}
		if rec.TotalBoxes > 0 {
			return ledgercore.Reject(ledgercore.CodeCannotCloseAccount, "cannot close account holding boxes", "boxes", rec.TotalBoxes)
		}

		// Clear out entire account record, to allow the DB to GC it
		err = balances.CloseAccount(header.Sender)
		if err != nil {
			return err
		}
	}

	return nil
}
