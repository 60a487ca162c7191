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

import (
	"github.com/scale-it/algo-builder-sub005/data/basics"
)

/* Functions that simplify the ways that ConsensusParams affect minimum balance
   requirements. */

// BalanceRequirements returns the subset of the parameters basics.MinBalance needs.
func (proto *ConsensusParams) BalanceRequirements() basics.BalanceRequirements {
	return basics.BalanceRequirements{
		MinBalance:               proto.MinBalance,
		AppFlatParamsMinBalance:  proto.AppFlatParamsMinBalance,
		AppFlatOptInMinBalance:   proto.AppFlatOptInMinBalance,
		BoxFlatMinBalance:        proto.BoxFlatMinBalance,
		BoxByteMinBalance:        proto.BoxByteMinBalance,
		SchemaMinBalancePerEntry: proto.SchemaMinBalancePerEntry,
		SchemaUintMinBalance:     proto.SchemaUintMinBalance,
		SchemaBytesMinBalance:    proto.SchemaBytesMinBalance,
	}
}

// MinBalanceReq computes the minimum balance requirements for an account based on
// some consensus parameters.
func (proto *ConsensusParams) MinBalanceReq(u basics.AccountData) basics.MicroAlgos {
	return u.MinBalance(proto.BalanceRequirements())
}

// MinBalanceForSchema computes the MinBalance requirements for a StateSchema
// based on the consensus parameters
func (proto *ConsensusParams) MinBalanceForSchema(sm basics.StateSchema) basics.MicroAlgos {
	return sm.MinBalance(proto.BalanceRequirements())
}

// BoxMinBalance computes the min balance requirement of a single box.
func (proto *ConsensusParams) BoxMinBalance(nameLen, size uint64) uint64 {
	return basics.AddSaturate(proto.BoxFlatMinBalance,
		basics.MulSaturate(proto.BoxByteMinBalance, basics.AddSaturate(nameLen, size)))
}
