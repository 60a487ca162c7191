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

package transactions

import (
	"fmt"

	"github.com/scale-it/algo-builder-sub005/data/basics"
)

// PaymentTxnFields captures the fields used by payment transactions.
type PaymentTxnFields struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Receiver basics.Address    `codec:"rcv"`
	Amount   basics.MicroAlgos `codec:"amt"`

	// When CloseRemainderTo is set, it indicates that the
	// transaction is requesting that the account should be
	// closed, and all remaining funds be transferred to this
	// address.
	CloseRemainderTo basics.Address `codec:"close"`
}

func (payment PaymentTxnFields) wellFormed(header Header) error {
	if !payment.CloseRemainderTo.IsZero() && payment.CloseRemainderTo == header.Sender {
		return fmt.Errorf("transaction cannot close account to its sender %v", header.Sender)
	}
	return nil
}

// KeyregTxnFields captures the fields used for key registration transactions.
// The simulator only records them.
type KeyregTxnFields struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	VotePK           [32]byte     `codec:"votekey"`
	SelectionPK      [32]byte     `codec:"selkey"`
	VoteFirst        basics.Round `codec:"votefst"`
	VoteLast         basics.Round `codec:"votelst"`
	VoteKeyDilution  uint64       `codec:"votekd"`
	Nonparticipation bool         `codec:"nonpart"`
}

func (keyreg KeyregTxnFields) wellFormed() error {
	if keyreg.VoteLast < keyreg.VoteFirst {
		return fmt.Errorf("transaction invalid vote range (%v--%v)", keyreg.VoteFirst, keyreg.VoteLast)
	}
	if keyreg.Nonparticipation && keyreg.VotePK != [32]byte{} {
		return fmt.Errorf("transaction tries to register keys to go online, but nonparticipatory flag is set")
	}
	return nil
}
