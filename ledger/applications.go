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
	"bytes"
	"slices"

	"github.com/algorand/avm-abi/apps"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

// The methods below let a roundCowState serve as the logic.LedgerForLogic
// of the programs evaluated against it.

// AccountData returns the account as seen by this layer.
func (cb *roundCowState) AccountData(addr basics.Address) (basics.AccountData, error) {
	return cb.lookup(addr)
}

// Authorizer returns the address allowed to sign for addr.
func (cb *roundCowState) Authorizer(addr basics.Address) (basics.Address, error) {
	data, err := cb.lookup(addr)
	if err != nil {
		return basics.Address{}, err
	}
	if !data.AuthAddr.IsZero() {
		return data.AuthAddr, nil
	}
	return addr, nil
}

// MinBalance computes the minimum balance of addr under proto.
func (cb *roundCowState) MinBalance(addr basics.Address, proto *config.ConsensusParams) (basics.MicroAlgos, error) {
	data, err := cb.lookup(addr)
	if err != nil {
		return basics.MicroAlgos{}, err
	}
	return proto.MinBalanceReq(data), nil
}

// Round returns the current round.
func (cb *roundCowState) Round() basics.Round {
	return cb.round()
}

// LatestTimestamp returns the latest block timestamp.
func (cb *roundCowState) LatestTimestamp() int64 {
	return cb.timestamp()
}

// AssetHolding returns addr's holding of aidx, or an error if there is none.
func (cb *roundCowState) AssetHolding(addr basics.Address, aidx basics.AssetIndex) (basics.AssetHolding, error) {
	data, err := cb.lookup(addr)
	if err != nil {
		return basics.AssetHolding{}, err
	}
	holding, ok := data.Assets[aidx]
	if !ok {
		return basics.AssetHolding{}, ledgercore.Reject(ledgercore.CodeAssetNotOptedIn, "account has not opted in to asset", "addr", addr, "asset", uint64(aidx))
	}
	return holding, nil
}

// AssetParams returns the params and creator of aidx.
func (cb *roundCowState) AssetParams(aidx basics.AssetIndex) (basics.AssetParams, basics.Address, error) {
	creator, ok, err := cb.getCreator(basics.CreatableIndex(aidx), basics.AssetCreatable)
	if err != nil {
		return basics.AssetParams{}, basics.Address{}, err
	}
	if !ok {
		return basics.AssetParams{}, basics.Address{}, ledgercore.Reject(ledgercore.CodeAssetNotFound, "asset not found", "asset", uint64(aidx))
	}
	data, err := cb.lookup(creator)
	if err != nil {
		return basics.AssetParams{}, basics.Address{}, err
	}
	params, ok := data.AssetParams[aidx]
	if !ok {
		return basics.AssetParams{}, basics.Address{}, ledgercore.Reject(ledgercore.CodeAssetNotFound, "asset params missing from creator", "asset", uint64(aidx), "creator", creator)
	}
	return params, creator, nil
}

// AppParams returns the params and creator of aidx.
func (cb *roundCowState) AppParams(aidx basics.AppIndex) (basics.AppParams, basics.Address, error) {
	creator, ok, err := cb.getCreator(basics.CreatableIndex(aidx), basics.AppCreatable)
	if err != nil {
		return basics.AppParams{}, basics.Address{}, err
	}
	if !ok {
		return basics.AppParams{}, basics.Address{}, ledgercore.Reject(ledgercore.CodeAppNotFound, "app not found", "app", uint64(aidx))
	}
	data, err := cb.lookup(creator)
	if err != nil {
		return basics.AppParams{}, basics.Address{}, err
	}
	params, ok := data.AppParams[aidx]
	if !ok {
		return basics.AppParams{}, basics.Address{}, ledgercore.Reject(ledgercore.CodeAppNotFound, "app params missing from creator", "app", uint64(aidx), "creator", creator)
	}
	return params, creator, nil
}

// OptedIn reports whether addr holds local state for aidx.
func (cb *roundCowState) OptedIn(addr basics.Address, aidx basics.AppIndex) (bool, error) {
	data, err := cb.lookup(addr)
	if err != nil {
		return false, err
	}
	_, ok := data.AppLocalStates[aidx]
	return ok, nil
}

func errNotOptedIn(addr basics.Address, aidx basics.AppIndex) error {
	return ledgercore.Reject(ledgercore.CodeAppNotOptedIn, "account has not opted in to app", "addr", addr, "app", uint64(aidx))
}

// GetLocal reads a local key of addr for aidx.
func (cb *roundCowState) GetLocal(addr basics.Address, aidx basics.AppIndex, key string) (basics.TealValue, bool, error) {
	data, err := cb.lookup(addr)
	if err != nil {
		return basics.TealValue{}, false, err
	}
	ls, ok := data.AppLocalStates[aidx]
	if !ok {
		return basics.TealValue{}, false, errNotOptedIn(addr, aidx)
	}
	tv, ok := ls.KeyValue[key]
	return tv, ok, nil
}

// SetLocal writes a local key of addr for aidx, enforcing the local schema.
func (cb *roundCowState) SetLocal(addr basics.Address, aidx basics.AppIndex, key string, value basics.TealValue) error {
	return cb.writeLocal(addr, aidx, key, &value)
}

// DelLocal deletes a local key of addr for aidx.
func (cb *roundCowState) DelLocal(addr basics.Address, aidx basics.AppIndex, key string) error {
	return cb.writeLocal(addr, aidx, key, nil)
}

func (cb *roundCowState) writeLocal(addr basics.Address, aidx basics.AppIndex, key string, value *basics.TealValue) error {
	data, err := cb.lookup(addr)
	if err != nil {
		return err
	}
	if _, ok := data.AppLocalStates[aidx]; !ok {
		return errNotOptedIn(addr, aidx)
	}
	data = data.Clone()
	ls := data.AppLocalStates[aidx]
	kv, err := writeKey(ls.KeyValue, key, value, ls.Schema)
	if err != nil {
		return err
	}
	ls.KeyValue = kv
	data.AppLocalStates[aidx] = ls
	cb.put(addr, data)
	cb.recordWrite(addr, storagePtr{aidx: aidx, global: false}, key, value)
	return nil
}

// GetGlobal reads a global key of aidx.
func (cb *roundCowState) GetGlobal(aidx basics.AppIndex, key string) (basics.TealValue, bool, error) {
	params, _, err := cb.AppParams(aidx)
	if err != nil {
		return basics.TealValue{}, false, err
	}
	tv, ok := params.GlobalState[key]
	return tv, ok, nil
}

// SetGlobal writes a global key of aidx, enforcing the global schema.
func (cb *roundCowState) SetGlobal(aidx basics.AppIndex, key string, value basics.TealValue) error {
	return cb.writeGlobal(aidx, key, &value)
}

// DelGlobal deletes a global key of aidx.
func (cb *roundCowState) DelGlobal(aidx basics.AppIndex, key string) error {
	return cb.writeGlobal(aidx, key, nil)
}

func (cb *roundCowState) writeGlobal(aidx basics.AppIndex, key string, value *basics.TealValue) error {
	_, creator, err := cb.AppParams(aidx)
	if err != nil {
		return err
	}
	data, err := cb.lookup(creator)
	if err != nil {
		return err
	}
	data = data.Clone()
	params := data.AppParams[aidx]
	kv, err := writeKey(params.GlobalState, key, value, params.GlobalStateSchema)
	if err != nil {
		return err
	}
	params.GlobalState = kv
	data.AppParams[aidx] = params
	cb.put(creator, data)
	cb.recordWrite(creator, storagePtr{aidx: aidx, global: true}, key, value)
	return nil
}

// writeKey sets (value != nil) or deletes key in kv, failing if the result
// does not fit schema. kv must already be a private copy.
func writeKey(kv basics.TealKeyValue, key string, value *basics.TealValue, schema basics.StateSchema) (basics.TealKeyValue, error) {
	if value == nil {
		delete(kv, key)
		return kv, nil
	}
	if kv == nil {
		kv = make(basics.TealKeyValue)
	}
	kv[key] = *value
	counts, err := kv.ToStateSchema()
	if err != nil {
		return nil, err
	}
	if counts.NumUint > schema.NumUint || counts.NumByteSlice > schema.NumByteSlice {
		return nil, ledgercore.Reject(ledgercore.CodeSchemaExceeded, "store schema exceeded",
			"key", key, "uints", counts.NumUint, "bytes", counts.NumByteSlice,
			"maxUints", schema.NumUint, "maxBytes", schema.NumByteSlice)
	}
	return kv, nil
}

func (cb *roundCowState) recordWrite(addr basics.Address, aapp storagePtr, key string, value *basics.TealValue) {
	sd := cb.storageDelta(addr, aapp)
	if value == nil {
		sd[key] = basics.ValueDelta{Action: basics.DeleteAction}
		return
	}
	sd[key] = value.ToValueDelta()
}

func boxError(msg string, aidx basics.AppIndex, name string) error {
	return ledgercore.Reject(ledgercore.CodeBoxError, msg, "app", uint64(aidx), "box", name)
}

// NewBox creates a box and charges its storage to the app account.
func (cb *roundCowState) NewBox(aidx basics.AppIndex, name string, value []byte, appAddr basics.Address) error {
	if uint64(len(value)) > cb.proto.MaxBoxSize {
		return boxError("box is too large", aidx, name)
	}
	key := apps.MakeBoxKey(uint64(aidx), name)
	if _, exists, err := cb.getBox(key); err != nil {
		return err
	} else if exists {
		return boxError("box already exists", aidx, name)
	}
	data, err := cb.lookup(appAddr)
	if err != nil {
		return err
	}
	data.TotalBoxes++
	data.TotalBoxBytes += uint64(len(name)) + uint64(len(value))
	cb.put(appAddr, data)
	cb.mods.kvs[key] = append([]byte{}, value...)
	return nil
}

// GetBox returns the contents of a box.
func (cb *roundCowState) GetBox(aidx basics.AppIndex, name string) ([]byte, bool, error) {
	return cb.getBox(apps.MakeBoxKey(uint64(aidx), name))
}

// SetBox replaces the contents of an existing box; the size may not change.
func (cb *roundCowState) SetBox(aidx basics.AppIndex, name string, value []byte) error {
	key := apps.MakeBoxKey(uint64(aidx), name)
	old, exists, err := cb.getBox(key)
	if err != nil {
		return err
	}
	if !exists {
		return boxError("no such box", aidx, name)
	}
	if len(old) != len(value) {
		return boxError("box size may not change", aidx, name)
	}
	if bytes.Equal(old, value) {
		return nil
	}
	cb.mods.kvs[key] = slices.Clone(value)
	return nil
}

// DelBox deletes a box, reporting whether it existed, and releases its
// storage from the app account.
func (cb *roundCowState) DelBox(aidx basics.AppIndex, name string, appAddr basics.Address) (bool, error) {
	key := apps.MakeBoxKey(uint64(aidx), name)
	old, exists, err := cb.getBox(key)
	if err != nil || !exists {
		return false, err
	}
	data, err := cb.lookup(appAddr)
	if err != nil {
		return false, err
	}
	data.TotalBoxes--
	data.TotalBoxBytes -= uint64(len(name)) + uint64(len(old))
	cb.put(appAddr, data)
	cb.mods.kvs[key] = nil
	return true, nil
}
