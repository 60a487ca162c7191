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

func goldParams(manager basics.Address) basics.AssetParams {
	return basics.AssetParams{
		Total:     1_000_000,
		UnitName:  "GLD",
		AssetName: "gold",
		Manager:   manager,
		Reserve:   manager,
		Freeze:    manager,
		Clawback:  manager,
	}
}

func optIn(t *testing.T, balances *mockBalances, addr basics.Address, aidx basics.AssetIndex) {
	t.Helper()
	ax := transactions.AssetTransferTxnFields{XferAsset: aidx, AssetReceiver: addr}
	require.NoError(t, AssetTransfer(ax, transactions.Header{Sender: addr}, balances, &transactions.ApplyData{}))
}

func TestAssetCreate(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	balances := makeMockBalances()

	var ad transactions.ApplyData
	cc := transactions.AssetConfigTxnFields{AssetParams: goldParams(creator)}
	err := AssetConfig(cc, transactions.Header{Sender: creator}, balances, &ad)
	require.NoError(t, err)
	require.NotZero(t, ad.ConfigAsset)

	params := balances.b[creator].AssetParams[ad.ConfigAsset]
	require.Equal(t, "gold", params.AssetName)
	h, ok := balances.holding(creator, ad.ConfigAsset)
	require.True(t, ok)
	require.Equal(t, uint64(1_000_000), h.Amount)

	addr, ok, err := balances.GetCreator(basics.CreatableIndex(ad.ConfigAsset), basics.AssetCreatable)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, creator, addr)
}

func TestAssetOptIn(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	holder := randomAddress()
	balances := makeMockBalances()
	params := goldParams(creator)
	params.DefaultFrozen = true
	aidx := balances.newAsset(creator, params)

	optIn(t, balances, holder, aidx)
	h, ok := balances.holding(holder, aidx)
	require.True(t, ok)
	require.Equal(t, basics.AssetHolding{Frozen: true}, h)

	// a second opt-in is refused
	ax := transactions.AssetTransferTxnFields{XferAsset: aidx, AssetReceiver: holder}
	err := AssetTransfer(ax, transactions.Header{Sender: holder}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeAlreadyOptedIn, ledgercore.CodeOf(err))

	// unknown asset
	ax.XferAsset = aidx + 100
	err = AssetTransfer(ax, transactions.Header{Sender: holder}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeAssetNotFound, ledgercore.CodeOf(err))
}

func TestAssetTransfer(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	alice := randomAddress()
	bob := randomAddress()
	balances := makeMockBalances()
	aidx := balances.newAsset(creator, goldParams(creator))
	optIn(t, balances, alice, aidx)

	send := func(from, to basics.Address, amt uint64) error {
		ax := transactions.AssetTransferTxnFields{XferAsset: aidx, AssetReceiver: to, AssetAmount: amt}
		return AssetTransfer(ax, transactions.Header{Sender: from}, balances, &transactions.ApplyData{})
	}

	require.NoError(t, send(creator, alice, 400))
	h, _ := balances.holding(alice, aidx)
	require.Equal(t, uint64(400), h.Amount)

	err := send(creator, bob, 1)
	require.Equal(t, ledgercore.CodeAssetNotOptedIn, ledgercore.CodeOf(err))

	err = send(alice, creator, 401)
	require.Equal(t, ledgercore.CodeInsufficientAssets, ledgercore.CodeOf(err))

	// frozen holdings can neither send nor receive
	ff := transactions.AssetFreezeTxnFields{FreezeAccount: alice, FreezeAsset: aidx, AssetFrozen: true}
	require.NoError(t, AssetFreeze(ff, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{}))
	err = send(alice, creator, 1)
	require.Equal(t, ledgercore.CodeAssetFrozen, ledgercore.CodeOf(err))
	err = send(creator, alice, 1)
	require.Equal(t, ledgercore.CodeAssetFrozen, ledgercore.CodeOf(err))
}

func TestAssetClawback(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	bob := randomAddress()
	balances := makeMockBalances()
	aidx := balances.newAsset(creator, goldParams(creator))
	optIn(t, balances, bob, aidx)

	// the clawback moves units out of any holding, even the creator's
	ax := transactions.AssetTransferTxnFields{XferAsset: aidx, AssetAmount: 1000, AssetSender: creator, AssetReceiver: bob}
	err := AssetTransfer(ax, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{})
	require.NoError(t, err)

	h, _ := balances.holding(bob, aidx)
	require.Equal(t, uint64(1000), h.Amount)
	h, _ = balances.holding(creator, aidx)
	require.Equal(t, uint64(999_000), h.Amount)

	// only the clawback address may revoke
	ax = transactions.AssetTransferTxnFields{XferAsset: aidx, AssetAmount: 1, AssetSender: creator, AssetReceiver: bob}
	err = AssetTransfer(ax, transactions.Header{Sender: bob}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeClawbackError, ledgercore.CodeOf(err))

	// frozen holdings do not stop a clawback
	ff := transactions.AssetFreezeTxnFields{FreezeAccount: bob, FreezeAsset: aidx, AssetFrozen: true}
	require.NoError(t, AssetFreeze(ff, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{}))
	ax = transactions.AssetTransferTxnFields{XferAsset: aidx, AssetAmount: 500, AssetSender: bob, AssetReceiver: creator}
	require.NoError(t, AssetTransfer(ax, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{}))
	h, _ = balances.holding(bob, aidx)
	require.Equal(t, uint64(500), h.Amount)
}

func TestAssetClose(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	alice := randomAddress()
	bob := randomAddress()
	balances := makeMockBalances()
	aidx := balances.newAsset(creator, goldParams(creator))
	optIn(t, balances, alice, aidx)
	optIn(t, balances, bob, aidx)

	ax := transactions.AssetTransferTxnFields{XferAsset: aidx, AssetAmount: 300, AssetReceiver: alice}
	require.NoError(t, AssetTransfer(ax, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{}))

	var ad transactions.ApplyData
	ax = transactions.AssetTransferTxnFields{XferAsset: aidx, AssetAmount: 100, AssetReceiver: creator, AssetCloseTo: bob}
	require.NoError(t, AssetTransfer(ax, transactions.Header{Sender: alice}, balances, &ad))
	require.Equal(t, uint64(200), ad.AssetClosingAmount)

	_, ok := balances.holding(alice, aidx)
	require.False(t, ok)
	h, _ := balances.holding(bob, aidx)
	require.Equal(t, uint64(200), h.Amount)

	// creators destroy rather than close
	ax = transactions.AssetTransferTxnFields{XferAsset: aidx, AssetReceiver: creator, AssetCloseTo: bob}
	err := AssetTransfer(ax, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeCannotCloseCreator, ledgercore.CodeOf(err))
}

func TestAssetReconfigure(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	manager := randomAddress()
	balances := makeMockBalances()
	params := goldParams(creator)
	params.Manager = manager
	aidx := balances.newAsset(creator, params)

	newParams := params
	newParams.Freeze = basics.Address{}
	newParams.Reserve = manager
	cc := transactions.AssetConfigTxnFields{ConfigAsset: aidx, AssetParams: newParams}

	err := AssetConfig(cc, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeManagerError, ledgercore.CodeOf(err))

	require.NoError(t, AssetConfig(cc, transactions.Header{Sender: manager}, balances, &transactions.ApplyData{}))
	got := balances.b[creator].AssetParams[aidx]
	require.True(t, got.Freeze.IsZero())
	require.Equal(t, manager, got.Reserve)
	require.Equal(t, uint64(1_000_000), got.Total, "only addresses change")

	// with the freeze role cleared nobody can freeze
	ff := transactions.AssetFreezeTxnFields{FreezeAccount: creator, FreezeAsset: aidx, AssetFrozen: true}
	err = AssetFreeze(ff, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeFreezeError, ledgercore.CodeOf(err))

	// clearing the manager locks the asset for good
	locked := newParams
	locked.Manager = basics.Address{}
	cc.AssetParams = locked
	require.NoError(t, AssetConfig(cc, transactions.Header{Sender: manager}, balances, &transactions.ApplyData{}))
	err = AssetConfig(cc, transactions.Header{Sender: manager}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeManagerError, ledgercore.CodeOf(err))
}

func TestAssetDestroy(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	alice := randomAddress()
	balances := makeMockBalances()
	aidx := balances.newAsset(creator, goldParams(creator))
	optIn(t, balances, alice, aidx)

	ax := transactions.AssetTransferTxnFields{XferAsset: aidx, AssetAmount: 1, AssetReceiver: alice}
	require.NoError(t, AssetTransfer(ax, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{}))

	destroy := transactions.AssetConfigTxnFields{ConfigAsset: aidx}
	err := AssetConfig(destroy, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeCannotDestroyAsset, ledgercore.CodeOf(err))

	ax = transactions.AssetTransferTxnFields{XferAsset: aidx, AssetAmount: 1, AssetReceiver: creator}
	require.NoError(t, AssetTransfer(ax, transactions.Header{Sender: alice}, balances, &transactions.ApplyData{}))
	require.NoError(t, AssetConfig(destroy, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{}))

	require.Empty(t, balances.b[creator].AssetParams)
	_, ok := balances.holding(creator, aidx)
	require.False(t, ok)
	_, ok = balances.holding(alice, aidx)
	require.False(t, ok, "empty slots go with the asset")
	_, ok, _ = balances.GetCreator(basics.CreatableIndex(aidx), basics.AssetCreatable)
	require.False(t, ok)
}

func TestAssetLimits(t *testing.T) {
	partitiontest.PartitionTest(t)

	creator := randomAddress()
	balances := makeMockBalances()
	balances.proto.MaxAssetsPerAccount = 2

	for i := 0; i < 2; i++ {
		cc := transactions.AssetConfigTxnFields{AssetParams: goldParams(creator)}
		require.NoError(t, AssetConfig(cc, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{}))
	}
	cc := transactions.AssetConfigTxnFields{AssetParams: goldParams(creator)}
	err := AssetConfig(cc, transactions.Header{Sender: creator}, balances, &transactions.ApplyData{})
	require.Equal(t, ledgercore.CodeMaxAssetsExceeded, ledgercore.CodeOf(err))
}
