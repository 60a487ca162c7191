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
	"fmt"
	"maps"

	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

func cloneAssetHoldings(m map[basics.AssetIndex]basics.AssetHolding) map[basics.AssetIndex]basics.AssetHolding {
	if m == nil {
		return make(map[basics.AssetIndex]basics.AssetHolding, 1)
	}
	return maps.Clone(m)
}

func cloneAssetParams(m map[basics.AssetIndex]basics.AssetParams) map[basics.AssetIndex]basics.AssetParams {
	if m == nil {
		return make(map[basics.AssetIndex]basics.AssetParams, 1)
	}
	return maps.Clone(m)
}

func getParams(balances Balances, aidx basics.AssetIndex) (params basics.AssetParams, creator basics.Address, err error) {
	creator, exists, err := balances.GetCreator(basics.CreatableIndex(aidx), basics.AssetCreatable)
	if err != nil {
		return
	}

	// For assets, anywhere we're attempting to fetch parameters, we are
	// assuming that the asset should exist.
	if !exists {
		err = ledgercore.Reject(ledgercore.CodeAssetNotFound, "asset does not exist or has been deleted", "asset", uint64(aidx))
		return
	}

	creatorRecord, err := balances.Get(creator)
	if err != nil {
		return
	}

	params, ok := creatorRecord.AssetParams[aidx]
	if !ok {
		err = fmt.Errorf("asset index %d not found in account %s", aidx, creator)
		return
	}

	return
}

// AssetConfig applies an AssetConfig transaction using the Balances interface.
func AssetConfig(cc transactions.AssetConfigTxnFields, header transactions.Header, balances Balances, ad *transactions.ApplyData) error {
	if cc.ConfigAsset == 0 {
		// Allocating an asset.
		record, err := balances.Get(header.Sender)
		if err != nil {
			return err
		}
		proto := balances.ConsensusParams()
		if len(record.Assets) >= proto.MaxAssetsPerAccount {
			return ledgercore.Reject(ledgercore.CodeMaxAssetsExceeded, "too many assets in account", "max", proto.MaxAssetsPerAccount)
		}

		cidx, err := balances.AllocateCreatable(header.Sender, basics.AssetCreatable)
		if err != nil {
			return err
		}
		aidx := basics.AssetIndex(cidx)

		record.AssetParams = cloneAssetParams(record.AssetParams)
		record.AssetParams[aidx] = cc.AssetParams

		// Tell the cow about the creator's holding, which starts with
		// every unit minted.
		record.Assets = cloneAssetHoldings(record.Assets)
		record.Assets[aidx] = basics.AssetHolding{Amount: cc.AssetParams.Total}

		ad.ConfigAsset = aidx
		return balances.Put(header.Sender, record)
	}

	// Re-configuration and destroying must be done by the manager key.
	params, creator, err := getParams(balances, cc.ConfigAsset)
	if err != nil {
		return err
	}

	if params.Manager.IsZero() || (header.Sender != params.Manager) {
		return ledgercore.Reject(ledgercore.CodeManagerError, "this transaction should be issued by the manager",
			"manager", params.Manager, "sender", header.Sender)
	}

	record, err := balances.Get(creator)
	if err != nil {
		return err
	}

	if cc.AssetParams == (basics.AssetParams{}) {
		// Destroying an asset.  The creator account must hold
		// the entire outstanding asset amount.
		if record.Assets[cc.ConfigAsset].Amount != params.Total {
			return ledgercore.Reject(ledgercore.CodeCannotDestroyAsset, "cannot destroy asset: creator is holding only part of the total",
				"held", record.Assets[cc.ConfigAsset].Amount, "total", params.Total)
		}

		record.Assets = cloneAssetHoldings(record.Assets)
		record.AssetParams = cloneAssetParams(record.AssetParams)
		delete(record.Assets, cc.ConfigAsset)
		delete(record.AssetParams, cc.ConfigAsset)
		err = balances.Put(creator, record)
		if err != nil {
			return err
		}
		err = balances.DeallocateCreatable(basics.CreatableIndex(cc.ConfigAsset), basics.AssetCreatable)
		if err != nil {
			return err
		}

		// Every other slot of the asset is empty; drop them too.
		holders, err := balances.AssetHolders(cc.ConfigAsset)
		if err != nil {
			return err
		}
		for _, addr := range holders {
			holder, err := balances.Get(addr)
			if err != nil {
				return err
			}
			holder.Assets = cloneAssetHoldings(holder.Assets)
			delete(holder.Assets, cc.ConfigAsset)
			err = balances.Put(addr, holder)
			if err != nil {
				return err
			}
		}
		return nil
	}

	// Changing keys in an asset.  A zero address clears the role for good.
	params.Manager = cc.AssetParams.Manager
	params.Reserve = cc.AssetParams.Reserve
	params.Freeze = cc.AssetParams.Freeze
	params.Clawback = cc.AssetParams.Clawback

	record.AssetParams = cloneAssetParams(record.AssetParams)
	record.AssetParams[cc.ConfigAsset] = params
	return balances.Put(creator, record)
}

func takeOut(balances Balances, addr basics.Address, asset basics.AssetIndex, amount uint64, bypassFreeze bool) error {
	if amount == 0 {
		return nil
	}

	snd, err := balances.Get(addr)
	if err != nil {
		return err
	}

	sndHolding, ok := snd.Assets[asset]
	if !ok {
		return ledgercore.Reject(ledgercore.CodeAssetNotOptedIn, "asset missing from sender", "asset", uint64(asset), "addr", addr)
	}

	if sndHolding.Frozen && !bypassFreeze {
		return ledgercore.Reject(ledgercore.CodeAssetFrozen, "asset frozen in sender", "asset", uint64(asset), "addr", addr)
	}

	newAmount, overflowed := basics.OSub(sndHolding.Amount, amount)
	if overflowed {
		return ledgercore.Reject(ledgercore.CodeInsufficientAssets, "underflow on subtracting from sender amount",
			"amount", amount, "held", sndHolding.Amount, "addr", addr)
	}
	sndHolding.Amount = newAmount

	snd.Assets = cloneAssetHoldings(snd.Assets)
	snd.Assets[asset] = sndHolding
	return balances.Put(addr, snd)
}

func putIn(balances Balances, addr basics.Address, asset basics.AssetIndex, amount uint64, bypassFreeze bool) error {
	if amount == 0 {
		return nil
	}

	rcv, err := balances.Get(addr)
	if err != nil {
		return err
	}

	rcvHolding, ok := rcv.Assets[asset]
	if !ok {
		return ledgercore.Reject(ledgercore.CodeAssetNotOptedIn, "asset missing from receiver", "asset", uint64(asset), "addr", addr)
	}

	if rcvHolding.Frozen && !bypassFreeze {
		return ledgercore.Reject(ledgercore.CodeAssetFrozen, "asset frozen in recipient", "asset", uint64(asset), "addr", addr)
	}

	var overflowed bool
	rcvHolding.Amount, overflowed = basics.OAdd(rcvHolding.Amount, amount)
	if overflowed {
		return ledgercore.Reject(ledgercore.CodeLedgerOverflow, "overflow on adding to receiver amount",
			"amount", amount, "held", rcvHolding.Amount, "addr", addr)
	}

	rcv.Assets = cloneAssetHoldings(rcv.Assets)
	rcv.Assets[asset] = rcvHolding
	return balances.Put(addr, rcv)
}

// AssetTransfer applies an AssetTransfer transaction using the Balances interface.
func AssetTransfer(ct transactions.AssetTransferTxnFields, header transactions.Header, balances Balances, ad *transactions.ApplyData) error {
	// Default to sending from the transaction sender's account.
	source := header.Sender
	clawback := false

	if !ct.AssetSender.IsZero() {
		// Clawback transaction.  Check that the transaction sender
		// is the Clawback address for this asset.
		params, _, err := getParams(balances, ct.XferAsset)
		if err != nil {
			return err
		}

		if params.Clawback.IsZero() || (header.Sender != params.Clawback) {
			return ledgercore.Reject(ledgercore.CodeClawbackError, "clawback not allowed",
				"sender", header.Sender, "clawback", params.Clawback)
		}

		// Transaction sent from the correct clawback address,
		// execute asset transfer from specified source.
		source = ct.AssetSender
		clawback = true
	}

	// Allocate a slot for asset (self-transfer of zero amount).
	if ct.AssetAmount == 0 && ct.AssetReceiver == source && !clawback && ct.AssetCloseTo.IsZero() {
		snd, err := balances.Get(source)
		if err != nil {
			return err
		}

		if _, ok := snd.Assets[ct.XferAsset]; ok {
			return ledgercore.Reject(ledgercore.CodeAlreadyOptedIn, "account already opted in to asset",
				"asset", uint64(ct.XferAsset), "addr", source)
		}

		// Initialize holding with default Frozen value.
		params, _, err := getParams(balances, ct.XferAsset)
		if err != nil {
			return err
		}

		proto := balances.ConsensusParams()
		if len(snd.Assets) >= proto.MaxAssetsPerAccount {
			return ledgercore.Reject(ledgercore.CodeMaxAssetsExceeded, "too many assets in account", "max", proto.MaxAssetsPerAccount)
		}

		snd.Assets = cloneAssetHoldings(snd.Assets)
		snd.Assets[ct.XferAsset] = basics.AssetHolding{Frozen: params.DefaultFrozen}
		return balances.Put(source, snd)
	}

	// Actually move the asset.  Zero transfers return right away
	// without looking up accounts, so it's fine to have a zero transfer
	// to an all-zero address (e.g., when the only meaningful part of
	// the transaction is the close-to address). Similarly, takeOut and
	// putIn will succeed for zero transfers on frozen asset holdings
	err := takeOut(balances, source, ct.XferAsset, ct.AssetAmount, clawback)
	if err != nil {
		return err
	}

	err = putIn(balances, ct.AssetReceiver, ct.XferAsset, ct.AssetAmount, clawback)
	if err != nil {
		return err
	}

	if !ct.AssetCloseTo.IsZero() {
		// Cannot close by clawback
		if clawback {
			return ledgercore.Reject(ledgercore.CodeClawbackError, "cannot close asset by clawback")
		}

		// Cannot close asset ID allocated by this account; must use destroy.
		_, creator, err := getParams(balances, ct.XferAsset)
		if err != nil {
			return err
		}
		if creator == source {
			return ledgercore.Reject(ledgercore.CodeCannotCloseCreator, "cannot close asset by its creator; destroy it instead",
				"asset", uint64(ct.XferAsset))
		}

		// Fetch the sender balance record. We will use this to ensure
		// that the sender is not the creator of the asset, and to
		// figure out how much of the asset to move.
		snd, err := balances.Get(source)
		if err != nil {
			return err
		}

		sndHolding, ok := snd.Assets[ct.XferAsset]
		if !ok {
			return ledgercore.Reject(ledgercore.CodeAssetNotOptedIn, "asset missing from sender", "asset", uint64(ct.XferAsset), "addr", source)
		}

		// Move the balance out.
		ad.AssetClosingAmount = sndHolding.Amount
		err = takeOut(balances, source, ct.XferAsset, sndHolding.Amount, clawback)
		if err != nil {
			return err
		}

		// Put the balance in.
		err = putIn(balances, ct.AssetCloseTo, ct.XferAsset, sndHolding.Amount, clawback)
		if err != nil {
			return err
		}

		// Delete the slot from the account.
		snd, err = balances.Get(source)
		if err != nil {
			return err
		}

		sndHolding = snd.Assets[ct.XferAsset]
		if sndHolding.Amount != 0 {
			return fmt.Errorf("asset %d not zero (%d) after closing", ct.XferAsset, sndHolding.Amount)
		}

		snd.Assets = cloneAssetHoldings(snd.Assets)
		delete(snd.Assets, ct.XferAsset)
		err = balances.Put(source, snd)
		if err != nil {
			return err
		}
	}

	return nil
}

// AssetFreeze applies an AssetFreeze transaction using the Balances interface.
func AssetFreeze(cf transactions.AssetFreezeTxnFields, header transactions.Header, balances Balances, ad *transactions.ApplyData) error {
	// Only the Freeze address can change the freeze value.
	params, _, err := getParams(balances, cf.FreezeAsset)
	if err != nil {
		return err
	}

	if params.Freeze.IsZero() || (header.Sender != params.Freeze) {
		return ledgercore.Reject(ledgercore.CodeFreezeError, "freeze not allowed", "sender", header.Sender, "freeze", params.Freeze)
	}

	// Get the account to be frozen/unfrozen.
	record, err := balances.Get(cf.FreezeAccount)
	if err != nil {
		return err
	}

	holding, ok := record.Assets[cf.FreezeAsset]
	if !ok {
		return ledgercore.Reject(ledgercore.CodeAssetNotOptedIn, "asset not found in account", "asset", uint64(cf.FreezeAsset), "addr", cf.FreezeAccount)
	}

	holding.Frozen = cf.AssetFrozen
	record.Assets = cloneAssetHoldings(record.Assets)
	record.Assets[cf.FreezeAsset] = holding
	return balances.Put(cf.FreezeAccount, record)
}
