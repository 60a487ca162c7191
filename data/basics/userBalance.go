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

package basics

import (
	"maps"
	"slices"
)

// AccountData contains the data associated with a given address.
//
// An account is fully "hydrated" here: created assets and apps, opted-in
// holdings and local states all live in the same record. AccountData has
// copy-by-value semantics; use Clone before mutating any of its maps.
type AccountData struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	MicroAlgos MicroAlgos `codec:"algo"`

	// AssetParams holds the definitions of assets created by this account.
	// An account with any asset in AssetParams cannot be closed until the
	// asset is destroyed.
	AssetParams map[AssetIndex]AssetParams `codec:"apar"`

	// Assets is the set of assets that can be held by this account.
	Assets map[AssetIndex]AssetHolding `codec:"asset"`

	// AuthAddr is the address against which signatures/multisigs/logicsigs should be checked.
	// If empty, the address of the account whose AccountData this is is used.
	AuthAddr Address `codec:"spend"`

	// AppLocalStates stores the local states associated with any applications
	// that this account has opted in to.
	AppLocalStates map[AppIndex]AppLocalState `codec:"appl"`

	// AppParams stores the global parameters and state associated with any
	// applications that this account has created.
	AppParams map[AppIndex]AppParams `codec:"appp"`

	// TotalAppSchema stores the sum of all of the LocalStateSchemas
	// and GlobalStateSchemas in this account (global for applications
	// we created local for applications we opted in to), so that we don't
	// have to iterate over all of them to compute MinBalance.
	TotalAppSchema StateSchema `codec:"tsch"`

	TotalExtraAppPages uint32 `codec:"teap"`

	TotalBoxes    uint64 `codec:"tbx"`
	TotalBoxBytes uint64 `codec:"tbxb"`
}

// IsZero checks if an AccountData value is the same as its zero value.
func (u AccountData) IsZero() bool {
	return u.MicroAlgos.IsZero() && u.AuthAddr.IsZero() &&
		len(u.AssetParams) == 0 && len(u.Assets) == 0 &&
		len(u.AppLocalStates) == 0 && len(u.AppParams) == 0 &&
		u.TotalAppSchema == StateSchema{} && u.TotalExtraAppPages == 0 &&
		u.TotalBoxes == 0 && u.TotalBoxBytes == 0
}

// Clone returns a deep copy of the account; the result may be modified
// without affecting the original.
func (u AccountData) Clone() AccountData {
	res := u
	if u.AssetParams != nil {
		res.AssetParams = maps.Clone(u.AssetParams)
	}
	if u.Assets != nil {
		res.Assets = maps.Clone(u.Assets)
	}
	if u.AppLocalStates != nil {
		res.AppLocalStates = make(map[AppIndex]AppLocalState, len(u.AppLocalStates))
		for k, v := range u.AppLocalStates {
			res.AppLocalStates[k] = v.Clone()
		}
	}
	if u.AppParams != nil {
		res.AppParams = make(map[AppIndex]AppParams, len(u.AppParams))
		for k, v := range u.AppParams {
			res.AppParams[k] = v.Clone()
		}
	}
	return res
}

// AppLocalState stores the LocalState associated with an application. It also
// stores a cached copy of the application's LocalStateSchema so that
// MinBalance requirements may be computed 1. without looking up the
// AppParams and 2. even if the application has been deleted
type AppLocalState struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Schema   StateSchema  `codec:"hsch"`
	KeyValue TealKeyValue `codec:"tkv"`
}

// AppParams stores the global information associated with an application
type AppParams struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	ApprovalProgram   []byte       `codec:"approv"`
	ClearStateProgram []byte       `codec:"clearp"`
	GlobalState       TealKeyValue `codec:"gs"`
	StateSchemas
	ExtraProgramPages uint32 `codec:"epp"`
}

// StateSchemas is a thin wrapper around the LocalStateSchema and the
// GlobalStateSchema, since they are often needed together
type StateSchemas struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	LocalStateSchema  StateSchema `codec:"lsch"`
	GlobalStateSchema StateSchema `codec:"gsch"`
}

// Clone returns a copy of some AppParams that may be modified without
// affecting the original
func (ap *AppParams) Clone() (res AppParams) {
	res = *ap
	res.ApprovalProgram = slices.Clone(ap.ApprovalProgram)
	res.ClearStateProgram = slices.Clone(ap.ClearStateProgram)
	res.GlobalState = ap.GlobalState.Clone()
	return
}

// Clone returns a copy of some AppLocalState that may be modified without
// affecting the original
func (al *AppLocalState) Clone() (res AppLocalState) {
	res = *al
	res.KeyValue = al.KeyValue.Clone()
	return
}

// AssetHolding describes an asset held by an account.
type AssetHolding struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Amount uint64 `codec:"a"`
	Frozen bool   `codec:"f"`
}

// AssetParams describes the parameters of an asset.
type AssetParams struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	// Total specifies the total number of units of this asset
	// created.
	Total uint64 `codec:"t"`

	// Decimals specifies the number of digits to display after the decimal
	// place when displaying this asset. Must be between 0 and 19 (inclusive).
	Decimals uint32 `codec:"dc"`

	// DefaultFrozen specifies whether slots for this asset
	// in user accounts are frozen by default or not.
	DefaultFrozen bool `codec:"df"`

	UnitName     string   `codec:"un"`
	AssetName    string   `codec:"an"`
	URL          string   `codec:"au"`
	MetadataHash [32]byte `codec:"am"`

	// Manager specifies an account that is allowed to change the
	// non-zero addresses in this AssetParams.
	Manager Address `codec:"m"`

	// Reserve specifies an account whose holdings of this asset
	// should be reported as "not minted".
	Reserve Address `codec:"r"`

	// Freeze specifies an account that is allowed to change the
	// frozen state of holdings of this asset.
	Freeze Address `codec:"f"`

	// Clawback specifies an account that is allowed to take units
	// of this asset from any account.
	Clawback Address `codec:"c"`
}

// BalanceRequirements collects the consensus parameters MinBalance needs.
type BalanceRequirements struct {
	MinBalance              uint64
	AppFlatParamsMinBalance uint64
	AppFlatOptInMinBalance  uint64
	BoxFlatMinBalance       uint64
	BoxByteMinBalance       uint64

	SchemaMinBalancePerEntry uint64
	SchemaUintMinBalance     uint64
	SchemaBytesMinBalance    uint64
}

// MinBalance computes the minimum balance requirements for an account based on
// some consensus parameters. MinBalance should correspond roughly to how much
// storage the account is allowed to store.
func (u AccountData) MinBalance(reqs BalanceRequirements) MicroAlgos {
	return MinBalance(
		reqs,
		uint64(len(u.Assets)),
		u.TotalAppSchema,
		uint64(len(u.AppParams)), uint64(len(u.AppLocalStates)),
		uint64(u.TotalExtraAppPages),
		u.TotalBoxes, u.TotalBoxBytes,
	)
}

// MinBalance computes the minimum balance requirements for an account based on
// some consensus parameters.
func MinBalance(
	reqs BalanceRequirements,
	totalAssets uint64,
	totalAppSchema StateSchema,
	totalAppParams uint64, totalAppLocalStates uint64,
	totalExtraAppPages uint64,
	totalBoxes uint64, totalBoxBytes uint64,
) MicroAlgos {
	// First, base MinBalance
	min := reqs.MinBalance

	// MinBalance for each Asset
	min = AddSaturate(min, MulSaturate(reqs.MinBalance, totalAssets))

	// Base MinBalance for each created application
	min = AddSaturate(min, MulSaturate(reqs.AppFlatParamsMinBalance, totalAppParams))

	// Base MinBalance for each opted in application
	min = AddSaturate(min, MulSaturate(reqs.AppFlatOptInMinBalance, totalAppLocalStates))

	// MinBalance for state usage measured by LocalStateSchemas and
	// GlobalStateSchemas
	min = AddSaturate(min, totalAppSchema.MinBalance(reqs).Raw)

	// MinBalance for each extra app program page
	min = AddSaturate(min, MulSaturate(reqs.AppFlatParamsMinBalance, totalExtraAppPages))

	// Boxes
	min = AddSaturate(min, MulSaturate(reqs.BoxFlatMinBalance, totalBoxes))
	min = AddSaturate(min, MulSaturate(reqs.BoxByteMinBalance, totalBoxBytes))

	return MicroAlgos{Raw: min}
}
