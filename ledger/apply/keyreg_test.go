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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

func TestKeyreg(t *testing.T) {
	partitiontest.PartitionTest(t)

	sender := randomAddress()
	balances := makeMockBalancesWithAccounts(map[basics.Address]basics.AccountData{
		sender: {MicroAlgos: basics.MicroAlgos{Raw: 1_000_000}},
	})
	before := balances.b[sender]
	header := transactions.Header{Sender: sender}
	rnd := basics.Round(100)

	online := transactions.KeyregTxnFields{
		VotePK:      [32]byte{1},
		SelectionPK: [32]byte{2},
		VoteFirst:   50,
		VoteLast:    1000,
	}
	require.NoError(t, Keyreg(online, header, balances, rnd))
	require.Equal(t, before, balances.b[sender])

	expired := online
	expired.VoteLast = rnd
	err := Keyreg(expired, header, balances, rnd)
	require.Equal(t, ledgercore.CodeInvalidTransactionParams, ledgercore.CodeOf(err))

	future := online
	future.VoteFirst = rnd + 2
	err = Keyreg(future, header, balances, rnd)
	require.Equal(t, ledgercore.CodeInvalidTransactionParams, ledgercore.CodeOf(err))

	// going offline is always fine
	require.NoError(t, Keyreg(transactions.KeyregTxnFields{}, header, balances, rnd))

	err = Keyreg(online, transactions.Header{Sender: randomAddress()}, balances, rnd)
	require.Equal(t, ledgercore.CodeAccountNotFound, ledgercore.CodeOf(err))
}
