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

	"github.com/scale-it/algo-builder-sub005/serr"
)

// RejectCode is the stable number attached to every way a transaction group
// can be turned down. Codes below 1300 come from program assembly and
// evaluation; the rest come from transaction and ledger checks.
type RejectCode int

// Program errors.
const (
	CodeStackUnderflow RejectCode = 1001 + iota
	CodeInvalidOpArg
	CodeInvalidType
	CodeUint64Overflow
	CodeUint64Underflow
	CodeZeroDiv
	CodeRejectedByLogic
	CodeIndexOutOfBound
	CodeTealEncounteredErr
	CodeLongInput
	CodeAssemble
	CodeMaxCostExceeded
	CodeMaxLenExceeded
	CodeStackOverflow
	CodeSchemaExceeded
	CodeVersionMismatch
	CodeUnavailableResource
	CodeTooManyInnerTxn
	CodeInnerAppDepthExceeded
	CodeInnerAppSelfCall
	CodeLogLimit
	CodeBoxError
)

// Transaction and ledger errors.
const (
	CodeUnsupportedTransactionType RejectCode = 1301 + iota
	CodeASADefinitionMissing
	CodeInvalidTransactionParams
	CodeGroupTooLarge
	CodeInvalidGroup
	CodeInvalidSignature
	CodeLogicSignatureValidationFailed
	CodeFeesNotEnough
	CodeInvalidRound
	CodeInvalidCloseRemainderTo
	CodeInsufficientBalance
	CodeAccountNotFound
	CodeAssetNotFound
	CodeAppNotFound
	CodeAssetNotOptedIn
	CodeAppNotOptedIn
	CodeAlreadyOptedIn
	CodeInsufficientAssets
	CodeAssetFrozen
	CodeClawbackError
	CodeFreezeError
	CodeManagerError
	CodeCannotCloseCreator
	CodeCannotDestroyAsset
	CodeCannotCloseAccount
	CodeMaxAssetsExceeded
	CodeMaxAppsExceeded
	CodeLedgerOverflow
)

var codeNames = map[RejectCode]string{
	CodeStackUnderflow:        "STACK_UNDERFLOW",
	CodeInvalidOpArg:          "INVALID_OP_ARG",
	CodeInvalidType:           "INVALID_TYPE",
	CodeUint64Overflow:        "UINT64_OVERFLOW",
	CodeUint64Underflow:       "UINT64_UNDERFLOW",
	CodeZeroDiv:               "ZERO_DIV",
	CodeRejectedByLogic:       "REJECTED_BY_LOGIC",
	CodeIndexOutOfBound:       "INDEX_OUT_OF_BOUND",
	CodeTealEncounteredErr:    "TEAL_ENCOUNTERED_ERR",
	CodeLongInput:             "LONG_INPUT_ERROR",
	CodeAssemble:              "ASSEMBLE_ERROR",
	CodeMaxCostExceeded:       "MAX_COST_EXCEEDED",
	CodeMaxLenExceeded:        "MAX_LEN_EXCEEDED",
	CodeStackOverflow:         "STACK_OVERFLOW",
	CodeSchemaExceeded:        "SCHEMA_EXCEEDED",
	CodeVersionMismatch:       "PROGRAM_VERSION_MISMATCH",
	CodeUnavailableResource:   "UNAVAILABLE_RESOURCE",
	CodeTooManyInnerTxn:       "TOO_MANY_INNER_TXN",
	CodeInnerAppDepthExceeded: "INNER_APP_DEPTH_EXCEEDED",
	CodeInnerAppSelfCall:      "INNER_APP_SELF_CALL",
	CodeLogLimit:              "LOG_LIMIT_EXCEEDED",
	CodeBoxError:              "BOX_ERROR",

	CodeUnsupportedTransactionType:     "UNSUPPORTED_TRANSACTION_TYPE",
	CodeASADefinitionMissing:           "ASA_DEFINITION_MISSING",
	CodeInvalidTransactionParams:       "INVALID_TRANSACTION_PARAMS",
	CodeGroupTooLarge:                  "GROUP_TOO_LARGE",
	CodeInvalidGroup:                   "INVALID_GROUP",
	CodeInvalidSignature:               "INVALID_SIGNATURE",
	CodeLogicSignatureValidationFailed: "LOGIC_SIGNATURE_VALIDATION_FAILED",
	CodeFeesNotEnough:                  "FEES_NOT_ENOUGH",
	CodeInvalidRound:                   "INVALID_ROUND",
	CodeInvalidCloseRemainderTo:        "INVALID_CLOSE_REMAINDER_TO",
	CodeInsufficientBalance:            "INSUFFICIENT_ACCOUNT_BALANCE",
	CodeAccountNotFound:                "ACCOUNT_DOES_NOT_EXIST",
	CodeAssetNotFound:                  "ASSET_NOT_FOUND",
	CodeAppNotFound:                    "APP_NOT_FOUND",
	CodeAssetNotOptedIn:                "ASA_NOT_OPTIN",
	CodeAppNotOptedIn:                  "APP_NOT_OPTIN",
	CodeAlreadyOptedIn:                 "ALREADY_OPTED_IN",
	CodeInsufficientAssets:             "INSUFFICIENT_ACCOUNT_ASSETS",
	CodeAssetFrozen:                    "ACCOUNT_ASSET_FROZEN",
	CodeClawbackError:                  "CLAWBACK_ERROR",
	CodeFreezeError:                    "FREEZE_ERROR",
	CodeManagerError:                   "MANAGER_ERROR",
	CodeCannotCloseCreator:             "CANNOT_CLOSE_ASSET_BY_CREATOR",
	CodeCannotDestroyAsset:             "ASSET_TOTAL_NOT_HELD_BY_CREATOR",
	CodeCannotCloseAccount:             "CANNOT_CLOSE_ACCOUNT",
	CodeMaxAssetsExceeded:              "MAX_ASSETS_EXCEEDED",
	CodeMaxAppsExceeded:                "MAX_APPS_EXCEEDED",
	CodeLedgerOverflow:                 "LEDGER_UINT64_OVERFLOW",
}

func (c RejectCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("RejectCode(%d)", int(c))
}

// IsProgramError reports whether the code comes from program evaluation.
func (c RejectCode) IsProgramError() bool {
	return c > 1000 && c < 1300
}

// RejectError pairs a RejectCode with the underlying cause.
type RejectError struct {
	Code RejectCode
	Err  error
}

// Error satisfies builtin interface `error`
func (e *RejectError) Error() string {
	prefix := "RUNTIME_ERR"
	if e.Code.IsProgramError() {
		prefix = "TEAL_ERR"
	}
	return fmt.Sprintf("%s%d: %s: %v", prefix, int(e.Code), e.Code, e.Err)
}

// Unwrap returns the cause.
func (e *RejectError) Unwrap() error {
	return e.Err
}

// Reject builds a RejectError whose cause is a structured error with the given
// attributes.
func Reject(code RejectCode, msg string, pairs ...any) error {
	return &RejectError{Code: code, Err: serr.New(msg, pairs...)}
}

// Rejectf is Reject with a formatted message and no attributes.
func Rejectf(code RejectCode, format string, args ...any) error {
	return &RejectError{Code: code, Err: fmt.Errorf(format, args...)}
}

// WithCode attaches code to err unless err already carries one.
func WithCode(code RejectCode, err error) error {
	if err == nil {
		return nil
	}
	var re *RejectError
	if errors.As(err, &re) {
		return err
	}
	return &RejectError{Code: code, Err: err}
}

// CodeOf returns the RejectCode carried by err, or 0.
func CodeOf(err error) RejectCode {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Code
	}
	return 0
}

// LogicEvalError indicates TEAL evaluation failure of an application program.
// It lets callers tell a failed program apart from a failing ledger.
type LogicEvalError struct {
	Err     error
	Details string
}

// Error satisfies builtin interface `error`
func (err LogicEvalError) Error() string {
	msg := fmt.Sprintf("logic eval error: %v", err.Err)
	if len(err.Details) > 0 {
		msg = fmt.Sprintf("%s. Details: %s", msg, err.Details)
	}
	return msg
}

// Unwrap returns the evaluator's error.
func (err LogicEvalError) Unwrap() error {
	return err.Err
}
