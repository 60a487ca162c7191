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

package logic

import (
	"fmt"

	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

type boxRef struct {
	app  basics.AppIndex
	name string
}

// resources contains a catalog of available resources. It's used to track the
// apps, assets, and boxes that are available to a transaction, outside the
// direct foreign array mechanism.
type resources struct {
	createdAsas []basics.AssetIndex
	createdApps []basics.AppIndex

	// boxes are all of the top-level box refs from the txgroup. Most are added
	// during NewEvalParams(). refs using 0 on an appl create are resolved and
	// added when the appl executes.
	boxes map[boxRef]bool
}

func newResources(txgroup []transactions.SignedTxnWithAD) *resources {
	r := &resources{boxes: make(map[boxRef]bool)}
	for _, tx := range txgroup {
		if tx.Txn.Type != protocol.ApplicationCallTx {
			continue
		}
		for _, br := range tx.Txn.Boxes {
			var app basics.AppIndex
			if br.Index == 0 {
				// "current app": Ignore if this is a create, else use ApplicationID
				if tx.Txn.ApplicationID == 0 {
					continue
				}
				app = tx.Txn.ApplicationID
			} else {
				// Bounds check will already have been done by
				// WellFormed. For testing purposes, it's better to panic
				// now than after returning a nil.
				app = tx.Txn.ForeignApps[br.Index-1] // shift for the 0=this convention
			}
			r.boxes[boxRef{app, string(br.Name)}] = true
		}
	}
	return r
}

// addCreatedAppBoxes makes the boxes named by an app creation's 0 refs
// available once the new app id is known.
func (r *resources) addCreatedAppBoxes(stxn *transactions.SignedTxnWithAD, aid basics.AppIndex) {
	if stxn.Txn.ApplicationID != 0 {
		return
	}
	for _, br := range stxn.Txn.Boxes {
		if br.Index == 0 {
			r.boxes[boxRef{aid, string(br.Name)}] = true
		}
	}
}

func (r *resources) createdApp(aid basics.AppIndex) bool {
	for _, id := range r.createdApps {
		if id == aid {
			return true
		}
	}
	return false
}

func (r *resources) createdAsa(aid basics.AssetIndex) bool {
	for _, id := range r.createdAsas {
		if id == aid {
			return true
		}
	}
	return false
}

// availableAccount is used instead of accountReference for more recent opcodes
// that don't need (or want!) to allow low numbers to represent the account at
// that index in Accounts array.
func (cx *EvalContext) availableAccount(addrBytes []byte) (basics.Address, error) {
	if cx.version < directRefEnabledVersion {
		return basics.Address{}, ledgercore.Rejectf(ledgercore.CodeInvalidType, "address required before v%d", directRefEnabledVersion)
	}
	addr, err := stackValue{Bytes: addrBytes}.address()
	if err != nil {
		return addr, err
	}
	if !cx.accountAvailable(addr) {
		return addr, ledgercore.Rejectf(ledgercore.CodeUnavailableResource, "invalid Account reference %s", addr)
	}
	return addr, nil
}

func (cx *EvalContext) accountAvailable(addr basics.Address) bool {
	if _, err := cx.txn.Txn.IndexByAddress(addr, cx.txn.Txn.Sender); err == nil {
		return true
	}
	// Allow an address for an app that was created in group
	if cx.version >= createdResourcesVersion {
		for _, appID := range cx.available.createdApps {
			if addr == appID.Address() {
				return true
			}
		}
	}
	// or some other app mentioned in the txn
	if addr == cx.appID.Address() {
		return true
	}
	for _, appID := range cx.txn.Txn.ForeignApps {
		if addr == appID.Address() {
			return true
		}
	}
	return false
}

// accountReference yields the address for an account argument, which may be
// an offset into the Accounts array (0 is the sender) or, since v4, an
// address.
func (cx *EvalContext) accountReference(account stackValue) (basics.Address, error) {
	if account.argType() == StackUint64 {
		addr, err := cx.txn.Txn.AddressByIndex(account.Uint, cx.txn.Txn.Sender)
		if err != nil {
			return addr, ledgercore.WithCode(ledgercore.CodeIndexOutOfBound, err)
		}
		return addr, nil
	}
	return cx.availableAccount(account.Bytes)
}

func (cx *EvalContext) appAvailable(aid basics.AppIndex) bool {
	if aid == cx.appID {
		return true
	}
	for _, appID := range cx.txn.Txn.ForeignApps {
		if appID == aid {
			return true
		}
	}
	// or was created in group
	return cx.version >= createdResourcesVersion && cx.available.createdApp(aid)
}

// appReference resolves an app argument. If foreign, 0 or a small offset
// refers into ForeignApps.
func (cx *EvalContext) appReference(ref uint64, foreign bool) (basics.AppIndex, error) {
	if cx.version >= directRefEnabledVersion {
		if ref == 0 || basics.AppIndex(ref) == cx.appID {
			return cx.appID, nil
		}
		if ref <= uint64(len(cx.txn.Txn.ForeignApps)) {
			return cx.txn.Txn.ForeignApps[ref-1], nil
		}
		aid := basics.AppIndex(ref)
		if cx.appAvailable(aid) {
			return aid, nil
		}
		return 0, ledgercore.Rejectf(ledgercore.CodeUnavailableResource, "unavailable App %d", ref)
	}
	// Old rules
	if ref == 0 {
		return cx.appID, nil
	}
	if foreign {
		// In old versions, a foreign reference must be an index in ForeignApps
		if ref <= uint64(len(cx.txn.Txn.ForeignApps)) {
			return cx.txn.Txn.ForeignApps[ref-1], nil
		}
		return 0, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "App index %d beyond txn.ForeignApps", ref)
	}
	return basics.AppIndex(ref), nil
}

func (cx *EvalContext) assetAvailable(aid basics.AssetIndex) bool {
	for _, assetID := range cx.txn.Txn.ForeignAssets {
		if assetID == aid {
			return true
		}
	}
	// or was created in group
	return cx.version >= createdResourcesVersion && cx.available.createdAsa(aid)
}

// assetReference resolves an asset argument. If foreign, a small value is an
// offset into ForeignAssets.
func (cx *EvalContext) assetReference(ref uint64, foreign bool) (basics.AssetIndex, error) {
	if cx.version >= directRefEnabledVersion {
		if ref < uint64(len(cx.txn.Txn.ForeignAssets)) {
			return cx.txn.Txn.ForeignAssets[ref], nil
		}
		aid := basics.AssetIndex(ref)
		if cx.assetAvailable(aid) {
			return aid, nil
		}
		return 0, ledgercore.Rejectf(ledgercore.CodeUnavailableResource, "unavailable Asset %d", ref)
	}
	// Old rules
	if foreign {
		// In old versions, a foreign reference must be an index in ForeignAssets
		if ref < uint64(len(cx.txn.Txn.ForeignAssets)) {
			return cx.txn.Txn.ForeignAssets[ref], nil
		}
		return 0, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "Asset index %d beyond txn.ForeignAssets", ref)
	}
	return basics.AssetIndex(ref), nil
}

// availableBox reports whether the named box of app may be touched by the
// running program.
func (cx *EvalContext) availableBox(name string) error {
	if cx.available.boxes[boxRef{cx.appID, name}] {
		return nil
	}
	return ledgercore.Reject(ledgercore.CodeUnavailableResource, fmt.Sprintf("invalid Box reference %#x", name), "app", uint64(cx.appID))
}
