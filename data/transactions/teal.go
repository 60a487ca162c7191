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

package transactions

import (
	"github.com/scale-it/algo-builder-sub005/data/basics"
)

// EvalDelta stores StateDeltas for an application's global key/value store, as
// well as StateDeltas for some number of accounts holding local state for that
// application
type EvalDelta struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	GlobalDelta basics.StateDelta `codec:"gd"`

	// The integer key represents an offset into
	// [txn.Sender, txn.Accounts[0], txn.Accounts[1], ...]. Accounts that are
	// not in that list are appended to SharedAccts and indexed past its end.
	LocalDeltas map[uint64]basics.StateDelta `codec:"ld"`

	SharedAccts []basics.Address `codec:"sa"`

	Logs []string `codec:"lg"`

	InnerTxns []SignedTxnWithAD `codec:"itx"`
}

// Equal compares two EvalDeltas and returns whether or not they are
// equivalent. It does not care about nilness equality of LocalDeltas,
// because the msgpack codec will encode/decode an empty map as nil.
func (ed EvalDelta) Equal(o EvalDelta) bool {
	if len(ed.LocalDeltas) != len(o.LocalDeltas) {
		return false
	}
	for k, v := range ed.LocalDeltas {
		ov, ok := o.LocalDeltas[k]
		if !ok || !ov.Equal(v) {
			return false
		}
	}
	if !ed.GlobalDelta.Equal(o.GlobalDelta) {
		return false
	}
	if len(ed.Logs) != len(o.Logs) {
		return false
	}
	for i := range ed.Logs {
		if ed.Logs[i] != o.Logs[i] {
			return false
		}
	}
	return len(ed.InnerTxns) == len(o.InnerTxns)
}
