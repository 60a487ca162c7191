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
	"errors"
	"fmt"

	"github.com/scale-it/algo-builder-sub005/data/transactions"
)

// TxnEvalError is returned when the transaction at GroupIndex of a group
// could not be applied. The group as a whole is rejected.
type TxnEvalError struct {
	GroupIndex int
	Txid       transactions.Txid
	Err        error
}

// Error satisfies builtin interface `error`
func (err *TxnEvalError) Error() string {
	return fmt.Sprintf("transaction %v (group index %d): %v", err.Txid, err.GroupIndex, err.Err)
}

// Unwrap returns the cause.
func (err *TxnEvalError) Unwrap() error {
	return err.Err
}

// GroupIndexOf returns the group index carried by err, or -1.
func GroupIndexOf(err error) int {
	var te *TxnEvalError
	if errors.As(err, &te) {
		return te.GroupIndex
	}
	return -1
}

// ErrStaleGroup is returned when a validated group is committed to a store
// that changed after the group was evaluated.
var ErrStaleGroup = errors.New("store changed since the group was evaluated")
