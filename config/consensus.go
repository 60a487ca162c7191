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

package config

// ConsensusParams specifies settings that might vary based on the
// particular version of the consensus protocol. The simulator runs a single
// protocol, so there is only one set of values, returned by Simulator().
type ConsensusParams struct {
	// MaxTxnLife is how long a transaction can be live for:
	// the maximum difference between LastValid and FirstValid.
	MaxTxnLife uint64

	// MaxTxnNoteBytes is the maximum size of a transaction's Note field.
	MaxTxnNoteBytes int

	// MinTxnFee is the minimum fee of a transaction; with fee pooling a
	// group only needs MinTxnFee * len(group) in total.
	MinTxnFee uint64

	// MinBalance specifies the minimum balance that can appear in
	// an account.  To spend money below MinBalance requires
	// closing the account, which transfers all of the money.
	MinBalance uint64

	// MaxTxGroupSize is the maximum number of transactions in an atomic group.
	MaxTxGroupSize int

	// MaxAssetsPerAccount is the maximum number of assets an account may
	// create or hold.
	MaxAssetsPerAccount   int
	MaxAssetNameBytes     int
	MaxAssetUnitNameBytes int
	MaxAssetURLBytes      int
	MaxAssetDecimals      uint32

	// MaxAppsCreated and MaxAppsOptedIn bound the per-account app slots.
	MaxAppsCreated int
	MaxAppsOptedIn int

	// application program limits
	MaxAppProgramLen         int
	MaxExtraAppProgramPages  int
	MaxAppArgs               int
	MaxAppTotalArgLen        int
	MaxAppTxnAccounts        int
	MaxAppTxnForeignApps     int
	MaxAppTxnForeignAssets   int
	MaxAppTotalTxnReferences int
	MaxAppKeyLen             int
	MaxAppBytesValueLen      int
	MaxAppSumKeyValueLens    int

	// MaxGlobalSchemaEntries / MaxLocalSchemaEntries cap the declared schemas.
	MaxGlobalSchemaEntries uint64
	MaxLocalSchemaEntries  uint64

	// min-balance costs of applications and their state
	AppFlatParamsMinBalance  uint64
	AppFlatOptInMinBalance   uint64
	SchemaMinBalancePerEntry uint64
	SchemaUintMinBalance     uint64
	SchemaBytesMinBalance    uint64

	// box storage
	BoxFlatMinBalance uint64
	BoxByteMinBalance uint64
	MaxBoxSize        uint64

	// LogicSigMaxCost is the budget of a logic signature program.
	LogicSigMaxCost uint64
	// LogicSigMaxSize is the maximum size of a logic program plus its args.
	LogicSigMaxSize uint64
	// MaxAppProgramCost is the budget of one app call; app calls in a group
	// pool their budgets.
	MaxAppProgramCost int

	// LogicSigVersion is the highest supported TEAL version.
	LogicSigVersion uint64

	// MaxInnerTransactions is the number of inner transactions a single
	// top-level group may issue in total.
	MaxInnerTransactions int
	// MaxAppTxnDepth bounds nested app-to-app calls.
	MaxAppTxnDepth int

	// MaxLogCalls and MaxLogSize bound the "log" opcode per app call.
	MaxLogCalls int
	MaxLogSize  int
}

// Simulator returns the consensus parameters enforced by the in-memory runtime.
func Simulator() ConsensusParams {
	return ConsensusParams{
		MaxTxnLife:      1000,
		MaxTxnNoteBytes: 1024,
		MinTxnFee:       1000,
		MinBalance:      100000,
		MaxTxGroupSize:  16,

		MaxAssetsPerAccount:   1000,
		MaxAssetNameBytes:     32,
		MaxAssetUnitNameBytes: 8,
		MaxAssetURLBytes:      96,
		MaxAssetDecimals:      19,

		MaxAppsCreated: 10,
		MaxAppsOptedIn: 10,

		MaxAppProgramLen:         1024,
		MaxExtraAppProgramPages:  3,
		MaxAppArgs:               16,
		MaxAppTotalArgLen:        2048,
		MaxAppTxnAccounts:        4,
		MaxAppTxnForeignApps:     8,
		MaxAppTxnForeignAssets:   8,
		MaxAppTotalTxnReferences: 8,
		MaxAppKeyLen:             64,
		MaxAppBytesValueLen:      128,
		MaxAppSumKeyValueLens:    128,

		MaxGlobalSchemaEntries: 64,
		MaxLocalSchemaEntries:  16,

		AppFlatParamsMinBalance:  100000,
		AppFlatOptInMinBalance:   100000,
		SchemaMinBalancePerEntry: 25000,
		SchemaUintMinBalance:     3500,
		SchemaBytesMinBalance:    25000,

		BoxFlatMinBalance: 2500,
		BoxByteMinBalance: 400,
		MaxBoxSize:        32768,

		LogicSigMaxCost:   20000,
		LogicSigMaxSize:   1000,
		MaxAppProgramCost: 700,
		LogicSigVersion:   8,

		MaxInnerTransactions: 256,
		MaxAppTxnDepth:       8,

		MaxLogCalls: 32,
		MaxLogSize:  1024,
	}
}
