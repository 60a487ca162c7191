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
)

// FieldSpec describes one named field of an opcode family (txn, global,
// asset_params_get, ...).
type FieldSpec interface {
	Field() byte
	Type() StackType
	Version() uint64
}

// FieldGroup binds the field specs of one immediate kind to a name used by
// the assembler and in error messages.
type FieldGroup struct {
	Name   string
	Names  []string
	lookup func(name string) (FieldSpec, bool)
}

// SpecByName returns the spec of the named field.
func (fg *FieldGroup) SpecByName(name string) (FieldSpec, bool) {
	return fg.lookup(name)
}

// TxnField is an enum type for `txn` and `gtxn`
type TxnField int

const (
	// Sender Transaction.Sender
	Sender TxnField = iota
	// Fee Transaction.Fee
	Fee
	// FirstValid Transaction.FirstValid
	FirstValid
	// FirstValidTime is not available in the simulator
	FirstValidTime
	// LastValid Transaction.LastValid
	LastValid
	// Note Transaction.Note
	Note
	// Lease Transaction.Lease
	Lease
	// Receiver Transaction.Receiver
	Receiver
	// Amount Transaction.Amount
	Amount
	// CloseRemainderTo Transaction.CloseRemainderTo
	CloseRemainderTo
	// VotePK Transaction.VotePK
	VotePK
	// SelectionPK Transaction.SelectionPK
	SelectionPK
	// VoteFirst Transaction.VoteFirst
	VoteFirst
	// VoteLast Transaction.VoteLast
	VoteLast
	// VoteKeyDilution Transaction.VoteKeyDilution
	VoteKeyDilution
	// Type Transaction.Type
	Type
	// TypeEnum int(Transaction.Type)
	TypeEnum
	// XferAsset Transaction.XferAsset
	XferAsset
	// AssetAmount Transaction.AssetAmount
	AssetAmount
	// AssetSender Transaction.AssetSender
	AssetSender
	// AssetReceiver Transaction.AssetReceiver
	AssetReceiver
	// AssetCloseTo Transaction.AssetCloseTo
	AssetCloseTo
	// GroupIndex i for txngroup[i] == Txn
	GroupIndex
	// TxID Transaction.ID()
	TxID
	// ApplicationID basics.AppIndex
	ApplicationID
	// OnCompletion OnCompletion
	OnCompletion
	// ApplicationArgs  [][]byte
	ApplicationArgs
	// NumAppArgs len(ApplicationArgs)
	NumAppArgs
	// Accounts []basics.Address
	Accounts
	// NumAccounts len(Accounts)
	NumAccounts
	// ApprovalProgram []byte
	ApprovalProgram
	// ClearStateProgram []byte
	ClearStateProgram
	// RekeyTo basics.Address
	RekeyTo
	// ConfigAsset basics.AssetIndex
	ConfigAsset
	// ConfigAssetTotal AssetParams.Total
	ConfigAssetTotal
	// ConfigAssetDecimals AssetParams.Decimals
	ConfigAssetDecimals
	// ConfigAssetDefaultFrozen AssetParams.AssetDefaultFrozen
	ConfigAssetDefaultFrozen
	// ConfigAssetUnitName AssetParams.UnitName
	ConfigAssetUnitName
	// ConfigAssetName AssetParams.AssetName
	ConfigAssetName
	// ConfigAssetURL AssetParams.URL
	ConfigAssetURL
	// ConfigAssetMetadataHash AssetParams.MetadataHash
	ConfigAssetMetadataHash
	// ConfigAssetManager AssetParams.Manager
	ConfigAssetManager
	// ConfigAssetReserve AssetParams.Reserve
	ConfigAssetReserve
	// ConfigAssetFreeze AssetParams.Freeze
	ConfigAssetFreeze
	// ConfigAssetClawback AssetParams.Clawback
	ConfigAssetClawback
	// FreezeAsset AssetFreezeTxnFields.FreezeAsset
	FreezeAsset
	// FreezeAssetAccount AssetFreezeTxnFields.FreezeAccount
	FreezeAssetAccount
	// FreezeAssetFrozen AssetFreezeTxnFields.AssetFrozen
	FreezeAssetFrozen
	// Assets []basics.AssetIndex
	Assets
	// NumAssets len(ForeignAssets)
	NumAssets
	// Applications []basics.AppIndex
	Applications
	// NumApplications len(ForeignApps)
	NumApplications
	// GlobalNumUint uint64
	GlobalNumUint
	// GlobalNumByteSlice uint64
	GlobalNumByteSlice
	// LocalNumUint uint64
	LocalNumUint
	// LocalNumByteSlice uint64
	LocalNumByteSlice
	// ExtraProgramPages AppParams.ExtraProgramPages
	ExtraProgramPages
	// Nonparticipation Transaction.Nonparticipation
	Nonparticipation
	// Logs Transaction.ApplyData.EvalDelta.Logs
	Logs
	// NumLogs len(Logs)
	NumLogs
	// CreatedAssetID Transaction.ApplyData.EvalDelta.ConfigAsset
	CreatedAssetID
	// CreatedApplicationID Transaction.ApplyData.EvalDelta.ApplicationID
	CreatedApplicationID
	// LastLog Logs[len(Logs)-1]
	LastLog
	// ApprovalProgramPages [][]byte
	ApprovalProgramPages
	// NumApprovalProgramPages = len(ApprovalProgramPages)
	NumApprovalProgramPages
	// ClearStateProgramPages [][]byte
	ClearStateProgramPages
	// NumClearStateProgramPages = len(ClearStateProgramPages)
	NumClearStateProgramPages

	invalidTxnField // compile-time constant for number of fields
)

var txnFieldNames = [...]string{
	"Sender", "Fee", "FirstValid", "FirstValidTime", "LastValid", "Note", "Lease",
	"Receiver", "Amount", "CloseRemainderTo", "VotePK", "SelectionPK", "VoteFirst",
	"VoteLast", "VoteKeyDilution", "Type", "TypeEnum", "XferAsset", "AssetAmount",
	"AssetSender", "AssetReceiver", "AssetCloseTo", "GroupIndex", "TxID",
	"ApplicationID", "OnCompletion", "ApplicationArgs", "NumAppArgs", "Accounts",
	"NumAccounts", "ApprovalProgram", "ClearStateProgram", "RekeyTo", "ConfigAsset",
	"ConfigAssetTotal", "ConfigAssetDecimals", "ConfigAssetDefaultFrozen",
	"ConfigAssetUnitName", "ConfigAssetName", "ConfigAssetURL",
	"ConfigAssetMetadataHash", "ConfigAssetManager", "ConfigAssetReserve",
	"ConfigAssetFreeze", "ConfigAssetClawback", "FreezeAsset", "FreezeAssetAccount",
	"FreezeAssetFrozen", "Assets", "NumAssets", "Applications", "NumApplications",
	"GlobalNumUint", "GlobalNumByteSlice", "LocalNumUint", "LocalNumByteSlice",
	"ExtraProgramPages", "Nonparticipation", "Logs", "NumLogs", "CreatedAssetID",
	"CreatedApplicationID", "LastLog", "ApprovalProgramPages",
	"NumApprovalProgramPages", "ClearStateProgramPages", "NumClearStateProgramPages",
}

func (f TxnField) String() string {
	if f >= 0 && f < invalidTxnField {
		return txnFieldNames[f]
	}
	return fmt.Sprintf("TxnField(%d)", int(f))
}

type txnFieldSpec struct {
	field      TxnField
	ftype      StackType
	array      bool   // Is this an array field?
	version    uint64 // When this field become available to txn/gtxn.
	itxVersion uint64 // When this field become available to itxn_field. 0=never
	effects    bool   // Is this a field on the "effects"? That is, something in ApplyData
}

func (fs txnFieldSpec) Field() byte {
	return byte(fs.field)
}
func (fs txnFieldSpec) Type() StackType {
	return fs.ftype
}
func (fs txnFieldSpec) Version() uint64 {
	return fs.version
}

var txnFieldSpecs = [...]txnFieldSpec{
	{Sender, StackBytes, false, 1, 5, false},
	{Fee, StackUint64, false, 1, 5, false},
	{FirstValid, StackUint64, false, 1, 0, false},
	{FirstValidTime, StackUint64, false, 7, 0, false},
	{LastValid, StackUint64, false, 1, 0, false},
	{Note, StackBytes, false, 1, 6, false},
	{Lease, StackBytes, false, 1, 0, false},
	{Receiver, StackBytes, false, 1, 5, false},
	{Amount, StackUint64, false, 1, 5, false},
	{CloseRemainderTo, StackBytes, false, 1, 5, false},
	{VotePK, StackBytes, false, 1, 6, false},
	{SelectionPK, StackBytes, false, 1, 6, false},
	{VoteFirst, StackUint64, false, 1, 6, false},
	{VoteLast, StackUint64, false, 1, 6, false},
	{VoteKeyDilution, StackUint64, false, 1, 6, false},
	{Type, StackBytes, false, 1, 5, false},
	{TypeEnum, StackUint64, false, 1, 5, false},
	{XferAsset, StackUint64, false, 1, 5, false},
	{AssetAmount, StackUint64, false, 1, 5, false},
	{AssetSender, StackBytes, false, 1, 5, false},
	{AssetReceiver, StackBytes, false, 1, 5, false},
	{AssetCloseTo, StackBytes, false, 1, 5, false},
	{GroupIndex, StackUint64, false, 1, 0, false},
	{TxID, StackBytes, false, 1, 0, false},
	{ApplicationID, StackUint64, false, 2, 6, false},
	{OnCompletion, StackUint64, false, 2, 6, false},
	{ApplicationArgs, StackBytes, true, 2, 6, false},
	{NumAppArgs, StackUint64, false, 2, 0, false},
	{Accounts, StackBytes, true, 2, 6, false},
	{NumAccounts, StackUint64, false, 2, 0, false},
	{ApprovalProgram, StackBytes, false, 2, 6, false},
	{ClearStateProgram, StackBytes, false, 2, 6, false},
	{RekeyTo, StackBytes, false, 2, 6, false},
	{ConfigAsset, StackUint64, false, 2, 5, false},
	{ConfigAssetTotal, StackUint64, false, 2, 5, false},
	{ConfigAssetDecimals, StackUint64, false, 2, 5, false},
	{ConfigAssetDefaultFrozen, StackUint64, false, 2, 5, false},
	{ConfigAssetUnitName, StackBytes, false, 2, 5, false},
	{ConfigAssetName, StackBytes, false, 2, 5, false},
	{ConfigAssetURL, StackBytes, false, 2, 5, false},
	{ConfigAssetMetadataHash, StackBytes, false, 2, 5, false},
	{ConfigAssetManager, StackBytes, false, 2, 5, false},
	{ConfigAssetReserve, StackBytes, false, 2, 5, false},
	{ConfigAssetFreeze, StackBytes, false, 2, 5, false},
	{ConfigAssetClawback, StackBytes, false, 2, 5, false},
	{FreezeAsset, StackUint64, false, 2, 5, false},
	{FreezeAssetAccount, StackBytes, false, 2, 5, false},
	{FreezeAssetFrozen, StackUint64, false, 2, 5, false},
	{Assets, StackUint64, true, 3, 6, false},
	{NumAssets, StackUint64, false, 3, 0, false},
	{Applications, StackUint64, true, 3, 6, false},
	{NumApplications, StackUint64, false, 3, 0, false},
	{GlobalNumUint, StackUint64, false, 3, 6, false},
	{GlobalNumByteSlice, StackUint64, false, 3, 6, false},
	{LocalNumUint, StackUint64, false, 3, 6, false},
	{LocalNumByteSlice, StackUint64, false, 3, 6, false},
	{ExtraProgramPages, StackUint64, false, 4, 6, false},
	{Nonparticipation, StackUint64, false, 5, 6, false},
	{Logs, StackBytes, true, 5, 0, true},
	{NumLogs, StackUint64, false, 5, 0, true},
	{CreatedAssetID, StackUint64, false, 5, 0, true},
	{CreatedApplicationID, StackUint64, false, 5, 0, true},
	{LastLog, StackBytes, false, 6, 0, true},
	{ApprovalProgramPages, StackBytes, true, 7, 7, false},
	{NumApprovalProgramPages, StackUint64, false, 7, 0, false},
	{ClearStateProgramPages, StackBytes, true, 7, 7, false},
	{NumClearStateProgramPages, StackUint64, false, 7, 0, false},
}

var txnFieldSpecByName = make(map[string]txnFieldSpec, len(txnFieldSpecs))

func txnFieldSpecByField(f TxnField) (txnFieldSpec, bool) {
	if f < 0 || f >= invalidTxnField {
		return txnFieldSpec{}, false
	}
	return txnFieldSpecs[f], true
}

// TxnFields contains info on the arguments to the txn* family of opcodes
var TxnFields = FieldGroup{
	Name:  "txn",
	Names: txnFieldNames[:],
	lookup: func(name string) (FieldSpec, bool) {
		fs, ok := txnFieldSpecByName[name]
		return fs, ok
	},
}

// TxnScalarFields narrows TxnFields to the non-array fields
var TxnScalarFields = FieldGroup{
	Name:  "txn",
	Names: txnFieldNames[:],
	lookup: func(name string) (FieldSpec, bool) {
		fs, ok := txnFieldSpecByName[name]
		if !ok || fs.array {
			return nil, false
		}
		return fs, true
	},
}

// TxnArrayFields narrows TxnFields to the array fields
var TxnArrayFields = FieldGroup{
	Name:  "txna",
	Names: txnFieldNames[:],
	lookup: func(name string) (FieldSpec, bool) {
		fs, ok := txnFieldSpecByName[name]
		if !ok || !fs.array {
			return nil, false
		}
		return fs, true
	},
}

// ItxnSettableFields narrows TxnFields to those itxn_field may set
var ItxnSettableFields = FieldGroup{
	Name:  "itxn_field",
	Names: txnFieldNames[:],
	lookup: func(name string) (FieldSpec, bool) {
		fs, ok := txnFieldSpecByName[name]
		if !ok || fs.itxVersion == 0 {
			return nil, false
		}
		return itxnFieldSpec{fs}, true
	},
}

// itxnFieldSpec reports the version a field became settable instead of the
// version it became readable.
type itxnFieldSpec struct {
	txnFieldSpec
}

func (fs itxnFieldSpec) Version() uint64 {
	return fs.itxVersion
}

// GlobalField is an enum for `global` opcode
type GlobalField uint64

const (
	// MinTxnFee ConsensusParams.MinTxnFee
	MinTxnFee GlobalField = iota
	// MinBalance ConsensusParams.MinBalance
	MinBalance
	// MaxTxnLife ConsensusParams.MaxTxnLife
	MaxTxnLife
	// ZeroAddress [32]byte{0...}
	ZeroAddress
	// GroupSize len(txn group)
	GroupSize

	// v2

	// LogicSigVersion ConsensusParams.LogicSigVersion
	LogicSigVersion
	// Round basics.Round
	Round
	// LatestTimestamp uint64
	LatestTimestamp
	// CurrentApplicationID uint64
	CurrentApplicationID

	// v3

	// CreatorAddress [32]byte
	CreatorAddress

	// v5

	// CurrentApplicationAddress [32]byte
	CurrentApplicationAddress
	// GroupID [32]byte
	GroupID

	// v6

	// OpcodeBudget The remaining budget available for execution
	OpcodeBudget

	// CallerApplicationID The ID of the caller app, else 0
	CallerApplicationID

	// CallerApplicationAddress The Address of the caller app, else ZeroAddress
	CallerApplicationAddress

	invalidGlobalField // compile-time constant for number of fields
)

var globalFieldNames = [...]string{
	"MinTxnFee", "MinBalance", "MaxTxnLife", "ZeroAddress", "GroupSize",
	"LogicSigVersion", "Round", "LatestTimestamp", "CurrentApplicationID",
	"CreatorAddress", "CurrentApplicationAddress", "GroupID", "OpcodeBudget",
	"CallerApplicationID", "CallerApplicationAddress",
}

func (f GlobalField) String() string {
	if f < invalidGlobalField {
		return globalFieldNames[f]
	}
	return fmt.Sprintf("GlobalField(%d)", uint64(f))
}

type globalFieldSpec struct {
	field   GlobalField
	ftype   StackType
	mode    RunMode
	version uint64
}

func (fs globalFieldSpec) Field() byte {
	return byte(fs.field)
}
func (fs globalFieldSpec) Type() StackType {
	return fs.ftype
}
func (fs globalFieldSpec) Version() uint64 {
	return fs.version
}

var globalFieldSpecs = [...]globalFieldSpec{
	{MinTxnFee, StackUint64, ModeAny, 1},
	{MinBalance, StackUint64, ModeAny, 1},
	{MaxTxnLife, StackUint64, ModeAny, 1},
	{ZeroAddress, StackBytes, ModeAny, 1},
	{GroupSize, StackUint64, ModeAny, 1},
	{LogicSigVersion, StackUint64, ModeAny, 2},
	{Round, StackUint64, ModeApp, 2},
	{LatestTimestamp, StackUint64, ModeApp, 2},
	{CurrentApplicationID, StackUint64, ModeApp, 2},
	{CreatorAddress, StackBytes, ModeApp, 3},
	{CurrentApplicationAddress, StackBytes, ModeApp, 5},
	{GroupID, StackBytes, ModeAny, 5},
	{OpcodeBudget, StackUint64, ModeAny, 6},
	{CallerApplicationID, StackUint64, ModeApp, 6},
	{CallerApplicationAddress, StackBytes, ModeApp, 6},
}

var globalFieldSpecByName = make(map[string]globalFieldSpec, len(globalFieldSpecs))

func globalFieldSpecByField(f GlobalField) (globalFieldSpec, bool) {
	if f >= invalidGlobalField {
		return globalFieldSpec{}, false
	}
	return globalFieldSpecs[f], true
}

// GlobalFields has info on the global opcode's immediate
var GlobalFields = FieldGroup{
	Name:  "global",
	Names: globalFieldNames[:],
	lookup: func(name string) (FieldSpec, bool) {
		fs, ok := globalFieldSpecByName[name]
		return fs, ok
	},
}

// AssetHoldingField is an enum for `asset_holding_get` opcode
type AssetHoldingField int

const (
	// AssetBalance AssetHolding.Amount
	AssetBalance AssetHoldingField = iota
	// AssetFrozen AssetHolding.Frozen
	AssetFrozen
	invalidAssetHoldingField // compile-time constant for number of fields
)

var assetHoldingFieldNames = [...]string{"AssetBalance", "AssetFrozen"}

func (f AssetHoldingField) String() string {
	if f >= 0 && f < invalidAssetHoldingField {
		return assetHoldingFieldNames[f]
	}
	return fmt.Sprintf("AssetHoldingField(%d)", int(f))
}

// AssetParamsField is an enum for `asset_params_get` opcode
type AssetParamsField int

const (
	// AssetTotal AssetParams.Total
	AssetTotal AssetParamsField = iota
	// AssetDecimals AssetParams.Decimals
	AssetDecimals
	// AssetDefaultFrozen AssetParams.AssetDefaultFrozen
	AssetDefaultFrozen
	// AssetUnitName AssetParams.UnitName
	AssetUnitName
	// AssetName AssetParams.AssetName
	AssetName
	// AssetURL AssetParams.URL
	AssetURL
	// AssetMetadataHash AssetParams.MetadataHash
	AssetMetadataHash
	// AssetManager AssetParams.Manager
	AssetManager
	// AssetReserve AssetParams.Reserve
	AssetReserve
	// AssetFreeze AssetParams.Freeze
	AssetFreeze
	// AssetClawback AssetParams.Clawback
	AssetClawback

	// AssetCreator is not *in* the Params, but it is uniquely determined.
	AssetCreator

	invalidAssetParamsField // compile-time constant for number of fields
)

var assetParamsFieldNames = [...]string{
	"AssetTotal", "AssetDecimals", "AssetDefaultFrozen", "AssetUnitName",
	"AssetName", "AssetURL", "AssetMetadataHash", "AssetManager", "AssetReserve",
	"AssetFreeze", "AssetClawback", "AssetCreator",
}

func (f AssetParamsField) String() string {
	if f >= 0 && f < invalidAssetParamsField {
		return assetParamsFieldNames[f]
	}
	return fmt.Sprintf("AssetParamsField(%d)", int(f))
}

// AppParamsField is an enum for `app_params_get` opcode
type AppParamsField int

const (
	// AppApprovalProgram AppParams.ApprovalProgram
	AppApprovalProgram AppParamsField = iota
	// AppClearStateProgram AppParams.ClearStateProgram
	AppClearStateProgram
	// AppGlobalNumUint AppParams.StateSchemas.GlobalStateSchema.NumUint
	AppGlobalNumUint
	// AppGlobalNumByteSlice AppParams.StateSchemas.GlobalStateSchema.NumByteSlice
	AppGlobalNumByteSlice
	// AppLocalNumUint AppParams.StateSchemas.LocalStateSchema.NumUint
	AppLocalNumUint
	// AppLocalNumByteSlice AppParams.StateSchemas.LocalStateSchema.NumByteSlice
	AppLocalNumByteSlice
	// AppExtraProgramPages AppParams.ExtraProgramPages
	AppExtraProgramPages

	// AppCreator is not *in* the Params, but it is uniquely determined.
	AppCreator

	// AppAddress is also not *in* the Params, but can be derived
	AppAddress

	invalidAppParamsField // compile-time constant for number of fields
)

var appParamsFieldNames = [...]string{
	"AppApprovalProgram", "AppClearStateProgram", "AppGlobalNumUint",
	"AppGlobalNumByteSlice", "AppLocalNumUint", "AppLocalNumByteSlice",
	"AppExtraProgramPages", "AppCreator", "AppAddress",
}

func (f AppParamsField) String() string {
	if f >= 0 && f < invalidAppParamsField {
		return appParamsFieldNames[f]
	}
	return fmt.Sprintf("AppParamsField(%d)", int(f))
}

// AcctParamsField is an enum for `acct_params_get` opcode
type AcctParamsField int

const (
	// AcctBalance is the balance, with pending rewards
	AcctBalance AcctParamsField = iota
	// AcctMinBalance is algos needed for this accounts apps and assets
	AcctMinBalance
	// AcctAuthAddr is the rekeyed address if any, else ZeroAddress
	AcctAuthAddr

	// AcctTotalNumUint is the count of all uints from created global apps or opted in locals
	AcctTotalNumUint
	// AcctTotalNumByteSlice is the count of all byte slices from created global apps or opted in locals
	AcctTotalNumByteSlice
	// AcctTotalExtraAppPages is the extra code pages across all apps
	AcctTotalExtraAppPages
	// AcctTotalAppsCreated is the number of apps created by this account
	AcctTotalAppsCreated
	// AcctTotalAppsOptedIn is the number of apps opted in by this account
	AcctTotalAppsOptedIn
	// AcctTotalAssetsCreated is the number of ASAs created by this account
	AcctTotalAssetsCreated
	// AcctTotalAssets is the number of ASAs opted in by this account (always includes AcctTotalAssetsCreated)
	AcctTotalAssets
	// AcctTotalBoxes is the number of boxes created by the app this account is associated with
	AcctTotalBoxes
	// AcctTotalBoxBytes is the number of bytes in all boxes of this app account
	AcctTotalBoxBytes

	invalidAcctParamsField // compile-time constant for number of fields
)

var acctParamsFieldNames = [...]string{
	"AcctBalance", "AcctMinBalance", "AcctAuthAddr", "AcctTotalNumUint",
	"AcctTotalNumByteSlice", "AcctTotalExtraAppPages", "AcctTotalAppsCreated",
	"AcctTotalAppsOptedIn", "AcctTotalAssetsCreated", "AcctTotalAssets",
	"AcctTotalBoxes", "AcctTotalBoxBytes",
}

func (f AcctParamsField) String() string {
	if f >= 0 && f < invalidAcctParamsField {
		return acctParamsFieldNames[f]
	}
	return fmt.Sprintf("AcctParamsField(%d)", int(f))
}

// simpleFieldSpec serves the small field families, which only differ in
// type and introduction version.
type simpleFieldSpec struct {
	field   int
	ftype   StackType
	version uint64
}

func (fs simpleFieldSpec) Field() byte {
	return byte(fs.field)
}
func (fs simpleFieldSpec) Type() StackType {
	return fs.ftype
}
func (fs simpleFieldSpec) Version() uint64 {
	return fs.version
}

var assetHoldingFieldSpecs = [...]simpleFieldSpec{
	{int(AssetBalance), StackUint64, 2},
	{int(AssetFrozen), StackUint64, 2},
}

var assetParamsFieldSpecs = [...]simpleFieldSpec{
	{int(AssetTotal), StackUint64, 2},
	{int(AssetDecimals), StackUint64, 2},
	{int(AssetDefaultFrozen), StackUint64, 2},
	{int(AssetUnitName), StackBytes, 2},
	{int(AssetName), StackBytes, 2},
	{int(AssetURL), StackBytes, 2},
	{int(AssetMetadataHash), StackBytes, 2},
	{int(AssetManager), StackBytes, 2},
	{int(AssetReserve), StackBytes, 2},
	{int(AssetFreeze), StackBytes, 2},
	{int(AssetClawback), StackBytes, 2},
	{int(AssetCreator), StackBytes, 5},
}

var appParamsFieldSpecs = [...]simpleFieldSpec{
	{int(AppApprovalProgram), StackBytes, 5},
	{int(AppClearStateProgram), StackBytes, 5},
	{int(AppGlobalNumUint), StackUint64, 5},
	{int(AppGlobalNumByteSlice), StackUint64, 5},
	{int(AppLocalNumUint), StackUint64, 5},
	{int(AppLocalNumByteSlice), StackUint64, 5},
	{int(AppExtraProgramPages), StackUint64, 5},
	{int(AppCreator), StackBytes, 5},
	{int(AppAddress), StackBytes, 5},
}

var acctParamsFieldSpecs = [...]simpleFieldSpec{
	{int(AcctBalance), StackUint64, 6},
	{int(AcctMinBalance), StackUint64, 6},
	{int(AcctAuthAddr), StackBytes, 6},
	{int(AcctTotalNumUint), StackUint64, 8},
	{int(AcctTotalNumByteSlice), StackUint64, 8},
	{int(AcctTotalExtraAppPages), StackUint64, 8},
	{int(AcctTotalAppsCreated), StackUint64, 8},
	{int(AcctTotalAppsOptedIn), StackUint64, 8},
	{int(AcctTotalAssetsCreated), StackUint64, 8},
	{int(AcctTotalAssets), StackUint64, 8},
	{int(AcctTotalBoxes), StackUint64, 8},
	{int(AcctTotalBoxBytes), StackUint64, 8},
}

// Base64Encoding is an enum for the `base64decode` opcode
type Base64Encoding int

const (
	// URLEncoding represents the base64url encoding defined in https://www.rfc-editor.org/rfc/rfc4648.html
	URLEncoding Base64Encoding = iota
	// StdEncoding represents the standard encoding of the RFC
	StdEncoding
	invalidBase64Encoding // compile-time constant for number of fields
)

var base64EncodingNames = [...]string{"URLEncoding", "StdEncoding"}

var base64EncodingSpecs = [...]simpleFieldSpec{
	{int(URLEncoding), StackBytes, 6},
	{int(StdEncoding), StackBytes, 6},
}

func simpleSpecByField(specs []simpleFieldSpec, field int) (simpleFieldSpec, bool) {
	if field < 0 || field >= len(specs) {
		return simpleFieldSpec{}, false
	}
	return specs[field], true
}

func simpleGroup(name string, names []string, specs []simpleFieldSpec) FieldGroup {
	byName := make(map[string]simpleFieldSpec, len(specs))
	for i, fs := range specs {
		byName[names[i]] = fs
	}
	return FieldGroup{
		Name:  name,
		Names: names,
		lookup: func(n string) (FieldSpec, bool) {
			fs, ok := byName[n]
			return fs, ok
		},
	}
}

// AssetHoldingFields has info on asset_holding_get's immediate
var AssetHoldingFields = simpleGroup("asset_holding", assetHoldingFieldNames[:], assetHoldingFieldSpecs[:])

// AssetParamsFields has info on asset_params_get's immediate
var AssetParamsFields = simpleGroup("asset_params", assetParamsFieldNames[:], assetParamsFieldSpecs[:])

// AppParamsFields has info on app_params_get's immediate
var AppParamsFields = simpleGroup("app_params", appParamsFieldNames[:], appParamsFieldSpecs[:])

// AcctParamsFields has info on acct_params_get's immediate
var AcctParamsFields = simpleGroup("acct_params", acctParamsFieldNames[:], acctParamsFieldSpecs[:])

// Base64Encodings describes the base64_encode immediate
var Base64Encodings = simpleGroup("base64", base64EncodingNames[:], base64EncodingSpecs[:])

func init() {
	for i, fs := range txnFieldSpecs {
		if int(fs.field) != i {
			panic(fmt.Sprintf("txnFieldSpecs disjoint with TxnField enum %d != %d", i, fs.field))
		}
		txnFieldSpecByName[fs.field.String()] = fs
	}
	for i, fs := range globalFieldSpecs {
		if int(fs.field) != i {
			panic(fmt.Sprintf("globalFieldSpecs disjoint with GlobalField enum %d != %d", i, fs.field))
		}
		globalFieldSpecByName[fs.field.String()] = fs
	}
}
