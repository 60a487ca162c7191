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
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

func opBalance(cx *EvalContext) error {
	last := len(cx.stack) - 1 // account (index or actual address)

	addr, err := cx.accountReference(cx.stack[last])
	if err != nil {
		return err
	}

	account, err := cx.Ledger.AccountData(addr)
	if err != nil {
		return err
	}

	cx.stack[last] = stackValue{Uint: account.MicroAlgos.Raw}
	return nil
}

func opMinBalance(cx *EvalContext) error {
	last := len(cx.stack) - 1 // account (index or actual address)

	addr, err := cx.accountReference(cx.stack[last])
	if err != nil {
		return err
	}

	microAlgos, err := cx.Ledger.MinBalance(addr, cx.Proto)
	if err != nil {
		return err
	}

	cx.stack[last] = stackValue{Uint: microAlgos.Raw}
	return nil
}

func opAppOptedIn(cx *EvalContext) error {
	last := len(cx.stack) - 1 // app
	prev := last - 1          // account

	addr, err := cx.accountReference(cx.stack[prev])
	if err != nil {
		return err
	}

	app, err := cx.appReference(cx.stack[last].Uint, false)
	if err != nil {
		return err
	}

	optedIn, err := cx.Ledger.OptedIn(addr, app)
	if err != nil {
		return err
	}

	cx.stack[prev] = boolToSV(optedIn)
	cx.stack = cx.stack[:last]
	return nil
}

func opAppLocalGet(cx *EvalContext) error {
	last := len(cx.stack) - 1 // state key
	prev := last - 1          // account

	key := cx.stack[last].Bytes

	result, _, err := opAppLocalGetImpl(cx, 0, key, cx.stack[prev])
	if err != nil {
		return err
	}

	cx.stack[prev] = result
	cx.stack = cx.stack[:last]
	return nil
}

func opAppLocalGetEx(cx *EvalContext) error {
	last := len(cx.stack) - 1 // state key
	prev := last - 1          // app id
	pprev := prev - 1         // account

	key := cx.stack[last].Bytes
	appID := cx.stack[prev].Uint

	result, ok, err := opAppLocalGetImpl(cx, appID, key, cx.stack[pprev])
	if err != nil {
		return err
	}

	cx.stack[pprev] = result
	cx.stack[prev] = boolToSV(ok)
	cx.stack = cx.stack[:last]
	return nil
}

func opAppLocalGetImpl(cx *EvalContext, appID uint64, key []byte, acct stackValue) (result stackValue, ok bool, err error) {
	addr, err := cx.accountReference(acct)
	if err != nil {
		return
	}

	app, err := cx.appReference(appID, false)
	if err != nil {
		return
	}

	tv, ok, err := cx.Ledger.GetLocal(addr, app, string(key))
	if err != nil {
		return
	}

	if ok {
		result, err = stackValueFromTealValue(tv)
	}
	return
}

func opAppGetGlobalStateImpl(cx *EvalContext, appIndex uint64, key []byte) (result stackValue, ok bool, err error) {
	app, err := cx.appReference(appIndex, true)
	if err != nil {
		return
	}

	tv, ok, err := cx.Ledger.GetGlobal(app, string(key))
	if err != nil {
		return
	}

	if ok {
		result, err = stackValueFromTealValue(tv)
	}
	return
}

func opAppGlobalGet(cx *EvalContext) error {
	last := len(cx.stack) - 1 // state key

	key := cx.stack[last].Bytes

	result, _, err := opAppGetGlobalStateImpl(cx, 0, key)
	if err != nil {
		return err
	}

	cx.stack[last] = result
	return nil
}

func opAppGlobalGetEx(cx *EvalContext) error {
	last := len(cx.stack) - 1 // state key
	prev := last - 1          // app

	key := cx.stack[last].Bytes

	result, ok, err := opAppGetGlobalStateImpl(cx, cx.stack[prev].Uint, key)
	if err != nil {
		return err
	}

	cx.stack[prev] = result
	cx.stack[last] = boolToSV(ok)
	return nil
}

// checkKeyValue enforces the key and value length limits of app state.
func (cx *EvalContext) checkKeyValue(key string, sv stackValue) error {
	if len(key) > cx.Proto.MaxAppKeyLen {
		return ledgercore.Rejectf(ledgercore.CodeMaxLenExceeded, "key too long: length was %d, maximum is %d", len(key), cx.Proto.MaxAppKeyLen)
	}
	if sv.Bytes == nil {
		return nil
	}
	if len(sv.Bytes) > cx.Proto.MaxAppBytesValueLen {
		return ledgercore.Rejectf(ledgercore.CodeMaxLenExceeded, "value too long for key 0x%x: length was %d", key, len(sv.Bytes))
	}
	if sum := len(key) + len(sv.Bytes); sum > cx.Proto.MaxAppSumKeyValueLens {
		return ledgercore.Rejectf(ledgercore.CodeMaxLenExceeded, "key/value total too long for key 0x%x: sum was %d", key, sum)
	}
	return nil
}

func opAppLocalPut(cx *EvalContext) error {
	last := len(cx.stack) - 1 // value
	prev := last - 1          // state key
	pprev := prev - 1         // account

	sv := cx.stack[last]
	key := string(cx.stack[prev].Bytes)

	if err := cx.checkKeyValue(key, sv); err != nil {
		return err
	}

	addr, err := cx.accountReference(cx.stack[pprev])
	if err != nil {
		return err
	}

	// if writing the same value, don't record in EvalDelta, matching ledger
	// behavior with previous BuildEvalDelta mechanism
	etv, ok, err := cx.Ledger.GetLocal(addr, cx.appID, key)
	if err != nil {
		return err
	}

	tv := sv.toTealValue()
	if !ok || tv != etv {
		if err := cx.Ledger.SetLocal(addr, cx.appID, key, tv); err != nil {
			return err
		}
	}

	cx.stack = cx.stack[:pprev]
	return nil
}

func opAppGlobalPut(cx *EvalContext) error {
	last := len(cx.stack) - 1 // value
	prev := last - 1          // state key

	sv := cx.stack[last]
	key := string(cx.stack[prev].Bytes)

	if err := cx.checkKeyValue(key, sv); err != nil {
		return err
	}

	// if writing the same value, don't record in EvalDelta, matching ledger
	// behavior with previous BuildEvalDelta mechanism
	etv, ok, err := cx.Ledger.GetGlobal(cx.appID, key)
	if err != nil {
		return err
	}
	tv := sv.toTealValue()
	if !ok || tv != etv {
		if err := cx.Ledger.SetGlobal(cx.appID, key, tv); err != nil {
			return err
		}
	}

	cx.stack = cx.stack[:prev]
	return nil
}

func opAppLocalDel(cx *EvalContext) error {
	last := len(cx.stack) - 1 // key
	prev := last - 1          // account

	key := string(cx.stack[last].Bytes)

	addr, err := cx.accountReference(cx.stack[prev])
	if err != nil {
		return err
	}

	// if deleting a non-existent value, don't record in EvalDelta, matching
	// ledger behavior with previous BuildEvalDelta mechanism
	if _, ok, err := cx.Ledger.GetLocal(addr, cx.appID, key); ok {
		if err != nil {
			return err
		}
		if err := cx.Ledger.DelLocal(addr, cx.appID, key); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	cx.stack = cx.stack[:prev]
	return nil
}

func opAppGlobalDel(cx *EvalContext) error {
	last := len(cx.stack) - 1 // key

	key := string(cx.stack[last].Bytes)

	// if deleting a non-existent value, don't record in EvalDelta, matching
	// ledger behavior with previous BuildEvalDelta mechanism
	if _, ok, err := cx.Ledger.GetGlobal(cx.appID, key); ok {
		if err != nil {
			return err
		}
		if err := cx.Ledger.DelGlobal(cx.appID, key); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	cx.stack = cx.stack[:last]
	return nil
}

func (cx *EvalContext) assetHoldingToValue(holding *basics.AssetHolding, fs simpleFieldSpec) (sv stackValue, err error) {
	switch AssetHoldingField(fs.field) {
	case AssetBalance:
		sv.Uint = holding.Amount
	case AssetFrozen:
		sv.Uint = boolToUint(holding.Frozen)
	default:
		return sv, fmt.Errorf("invalid asset_holding_get field %d", fs.field)
	}

	if fs.ftype != sv.argType() {
		return sv, fmt.Errorf("%s expected field type is %s but got %s", AssetHoldingField(fs.field), fs.ftype, sv.argType())
	}
	return sv, nil
}

func (cx *EvalContext) assetParamsToValue(params *basics.AssetParams, creator basics.Address, fs simpleFieldSpec) (sv stackValue, err error) {
	switch AssetParamsField(fs.field) {
	case AssetTotal:
		sv.Uint = params.Total
	case AssetDecimals:
		sv.Uint = uint64(params.Decimals)
	case AssetDefaultFrozen:
		sv.Uint = boolToUint(params.DefaultFrozen)
	case AssetUnitName:
		sv.Bytes = []byte(params.UnitName)
	case AssetName:
		sv.Bytes = []byte(params.AssetName)
	case AssetURL:
		sv.Bytes = []byte(params.URL)
	case AssetMetadataHash:
		sv.Bytes = params.MetadataHash[:]
	case AssetManager:
		sv.Bytes = params.Manager[:]
	case AssetReserve:
		sv.Bytes = params.Reserve[:]
	case AssetFreeze:
		sv.Bytes = params.Freeze[:]
	case AssetClawback:
		sv.Bytes = params.Clawback[:]
	case AssetCreator:
		sv.Bytes = creator[:]
	default:
		return sv, fmt.Errorf("invalid asset_params_get field %d", fs.field)
	}

	if fs.ftype != sv.argType() {
		return sv, fmt.Errorf("%s expected field type is %s but got %s", AssetParamsField(fs.field), fs.ftype, sv.argType())
	}
	return sv, nil
}

func (cx *EvalContext) appParamsToValue(params *basics.AppParams, appID basics.AppIndex, creator basics.Address, fs simpleFieldSpec) (sv stackValue, err error) {
	switch AppParamsField(fs.field) {
	case AppApprovalProgram:
		sv.Bytes = nonNil(params.ApprovalProgram)
	case AppClearStateProgram:
		sv.Bytes = nonNil(params.ClearStateProgram)
	case AppGlobalNumUint:
		sv.Uint = params.GlobalStateSchema.NumUint
	case AppGlobalNumByteSlice:
		sv.Uint = params.GlobalStateSchema.NumByteSlice
	case AppLocalNumUint:
		sv.Uint = params.LocalStateSchema.NumUint
	case AppLocalNumByteSlice:
		sv.Uint = params.LocalStateSchema.NumByteSlice
	case AppExtraProgramPages:
		sv.Uint = uint64(params.ExtraProgramPages)
	case AppCreator:
		sv.Bytes = creator[:]
	case AppAddress:
		address := appID.Address()
		sv.Bytes = address[:]
	default:
		return sv, fmt.Errorf("invalid app_params_get field %d", fs.field)
	}

	if fs.ftype != sv.argType() {
		return sv, fmt.Errorf("%s expected field type is %s but got %s", AppParamsField(fs.field), fs.ftype, sv.argType())
	}
	return sv, nil
}

func (cx *EvalContext) fieldSpec(specs []simpleFieldSpec, op string) (simpleFieldSpec, error) {
	field := int(cx.instr().Uints[0])
	fs, ok := simpleSpecByField(specs, field)
	if !ok || fs.version > cx.version {
		return fs, fmt.Errorf("invalid %s field %d", op, field)
	}
	return fs, nil
}

func opAssetHoldingGet(cx *EvalContext) error {
	last := len(cx.stack) - 1 // asset
	prev := last - 1          // account

	fs, err := cx.fieldSpec(assetHoldingFieldSpecs[:], "asset_holding_get")
	if err != nil {
		return err
	}

	addr, err := cx.accountReference(cx.stack[prev])
	if err != nil {
		return err
	}

	asset, err := cx.assetReference(cx.stack[last].Uint, false)
	if err != nil {
		return err
	}

	var exist uint64 = 0
	var value stackValue
	if holding, err := cx.Ledger.AssetHolding(addr, asset); err == nil {
		// the holding exists, read the value
		exist = 1
		value, err = cx.assetHoldingToValue(&holding, fs)
		if err != nil {
			return err
		}
	}

	cx.stack[prev] = value
	cx.stack[last].Uint = exist
	return nil
}

func opAssetParamsGet(cx *EvalContext) error {
	last := len(cx.stack) - 1 // asset

	fs, err := cx.fieldSpec(assetParamsFieldSpecs[:], "asset_params_get")
	if err != nil {
		return err
	}

	asset, err := cx.assetReference(cx.stack[last].Uint, true)
	if err != nil {
		return err
	}

	var exist uint64 = 0
	var value stackValue
	if params, creator, err := cx.Ledger.AssetParams(asset); err == nil {
		// params exist, read the value
		exist = 1
		value, err = cx.assetParamsToValue(&params, creator, fs)
		if err != nil {
			return err
		}
	}

	cx.stack[last] = value
	cx.stack = append(cx.stack, stackValue{Uint: exist})
	return nil
}

func opAppParamsGet(cx *EvalContext) error {
	last := len(cx.stack) - 1 // app

	fs, err := cx.fieldSpec(appParamsFieldSpecs[:], "app_params_get")
	if err != nil {
		return err
	}

	app, err := cx.appReference(cx.stack[last].Uint, true)
	if err != nil {
		return err
	}

	var exist uint64 = 0
	var value stackValue
	if params, creator, err := cx.Ledger.AppParams(app); err == nil {
		// params exist, read the value
		exist = 1
		value, err = cx.appParamsToValue(&params, app, creator, fs)
		if err != nil {
			return err
		}
	}

	cx.stack[last] = value
	cx.stack = append(cx.stack, stackValue{Uint: exist})
	return nil
}

func opAcctParamsGet(cx *EvalContext) error {
	last := len(cx.stack) - 1 // acct

	fs, err := cx.fieldSpec(acctParamsFieldSpecs[:], "acct_params_get")
	if err != nil {
		return err
	}

	addr, err := cx.accountReference(cx.stack[last])
	if err != nil {
		return err
	}

	account, err := cx.Ledger.AccountData(addr)
	if err != nil {
		return err
	}

	exist := boolToSV(account.MicroAlgos.Raw > 0)

	var value stackValue

	switch AcctParamsField(fs.field) {
	case AcctBalance:
		value.Uint = account.MicroAlgos.Raw
	case AcctMinBalance:
		value.Uint = cx.Proto.MinBalanceReq(account).Raw
	case AcctAuthAddr:
		value.Bytes = account.AuthAddr[:]

	case AcctTotalNumUint:
		value.Uint = account.TotalAppSchema.NumUint
	case AcctTotalNumByteSlice:
		value.Uint = account.TotalAppSchema.NumByteSlice
	case AcctTotalExtraAppPages:
		value.Uint = uint64(account.TotalExtraAppPages)

	case AcctTotalAppsCreated:
		value.Uint = uint64(len(account.AppParams))
	case AcctTotalAppsOptedIn:
		value.Uint = uint64(len(account.AppLocalStates))
	case AcctTotalAssetsCreated:
		value.Uint = uint64(len(account.AssetParams))
	case AcctTotalAssets:
		value.Uint = uint64(len(account.Assets))
	case AcctTotalBoxes:
		value.Uint = account.TotalBoxes
	case AcctTotalBoxBytes:
		value.Uint = account.TotalBoxBytes
	default:
		return fmt.Errorf("invalid acct_params_get field %d", fs.field)
	}
	cx.stack[last] = value
	cx.stack = append(cx.stack, exist)
	return nil
}

func opLog(cx *EvalContext) error {
	last := len(cx.stack) - 1

	if len(cx.txn.EvalDelta.Logs) >= cx.Proto.MaxLogCalls {
		return ledgercore.Rejectf(ledgercore.CodeLogLimit, "too many log calls in program. up to %d is allowed", cx.Proto.MaxLogCalls)
	}
	log := cx.stack[last]
	cx.logSize += len(log.Bytes)
	if cx.logSize > cx.Proto.MaxLogSize {
		return ledgercore.Rejectf(ledgercore.CodeLogLimit, "program logs too large. %d bytes >  %d bytes limit", cx.logSize, cx.Proto.MaxLogSize)
	}
	cx.txn.EvalDelta.Logs = append(cx.txn.EvalDelta.Logs, string(log.Bytes))
	cx.stack = cx.stack[:last]
	return nil
}
