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

package ledgercore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scale-it/algo-builder-sub005/serr"
	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

func TestRejectErrorText(t *testing.T) {
	partitiontest.PartitionTest(t)

	err := Reject(CodeAssetNotOptedIn, "asset not opted in", "asset", 5)
	require.Equal(t, "RUNTIME_ERR1315: ASA_NOT_OPTIN: asset not opted in asset=5", err.Error())

	err = Rejectf(CodeZeroDiv, "/ 0")
	require.Equal(t, "TEAL_ERR1006: ZERO_DIV: / 0", err.Error())
	require.True(t, CodeZeroDiv.IsProgramError())
	require.False(t, CodeFeesNotEnough.IsProgramError())

	err = Reject(CodeLedgerOverflow, "balance overflow")
	require.Equal(t, "RUNTIME_ERR1328: LEDGER_UINT64_OVERFLOW: balance overflow", err.Error())
	require.False(t, CodeLedgerOverflow.IsProgramError())
}

func TestCodeOf(t *testing.T) {
	partitiontest.PartitionTest(t)

	err := fmt.Errorf("txn 2: %w", Reject(CodeClawbackError, "not clawback"))
	require.Equal(t, CodeClawbackError, CodeOf(err))
	require.Equal(t, RejectCode(0), CodeOf(errors.New("x")))

	v, ok := serr.Attr(Reject(CodeFreezeError, "f", "addr", "A"), "addr")
	require.True(t, ok)
	require.Equal(t, "A", v)
}

func TestWithCodeKeepsInner(t *testing.T) {
	partitiontest.PartitionTest(t)

	inner := Rejectf(CodeUint64Overflow, "+ overflowed")
	require.Equal(t, CodeUint64Overflow, CodeOf(WithCode(CodeRejectedByLogic, inner)))
	require.Equal(t, CodeRejectedByLogic, CodeOf(WithCode(CodeRejectedByLogic, errors.New("no"))))
	require.NoError(t, WithCode(CodeRejectedByLogic, nil))
}

func TestAllCodesNamed(t *testing.T) {
	partitiontest.PartitionTest(t)

	for c := CodeStackUnderflow; c <= CodeBoxError; c++ {
		require.NotContains(t, c.String(), "RejectCode(", "code %d", int(c))
	}
	for c := CodeUnsupportedTransactionType; c <= CodeLedgerOverflow; c++ {
		require.NotContains(t, c.String(), "RejectCode(", "code %d", int(c))
	}
}

func TestLogicEvalErrorUnwraps(t *testing.T) {
	partitiontest.PartitionTest(t)

	err := error(LogicEvalError{Err: Rejectf(CodeZeroDiv, "/ 0"), Details: "pc=3"})
	require.Equal(t, CodeZeroDiv, CodeOf(err))
	require.Contains(t, err.Error(), "Details: pc=3")

	var lerr LogicEvalError
	require.True(t, errors.As(fmt.Errorf("app 5: %w", err), &lerr))
}
