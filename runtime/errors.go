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

package runtime

import (
	"errors"
	"fmt"

	"github.com/scale-it/algo-builder-sub005/data/transactions/verify"
	"github.com/scale-it/algo-builder-sub005/ledger"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

// Stage is a step of the pipeline every submitted group goes through.
type Stage int

const (
	// Received groups have been built and signed.
	Received Stage = iota
	// SignatureVerified groups carry a valid signature, multisig or logic sig
	// on every transaction.
	SignatureVerified
	// GroupConstraintsChecked groups are well formed, pay enough fees and are
	// valid in the current round.
	GroupConstraintsChecked
	// ProgramsEvaluated groups have been applied to a scratch layer.
	ProgramsEvaluated
	// StateCommitted groups are part of the ledger.
	StateCommitted
)

var stageNames = [...]string{"Received", "SignatureVerified", "GroupConstraintsChecked", "ProgramsEvaluated", "StateCommitted"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Error is returned by ExecuteTx when a group is rejected. Stage is the
// stage the group failed to reach. GroupIndex is -1 when the failure is not
// tied to one transaction.
type Error struct {
	Code       ledgercore.RejectCode
	GroupIndex int
	Stage      Stage
	Err        error
}

// Error satisfies builtin interface `error`
func (e *Error) Error() string {
	if e.GroupIndex < 0 {
		return fmt.Sprintf("%v (stage %s)", e.Err, e.Stage)
	}
	return fmt.Sprintf("%v (stage %s, group index %d)", e.Err, e.Stage, e.GroupIndex)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Sentinels carried by a BuildError.
var (
	ErrUnsupportedTransactionType = errors.New("unsupported transaction type")
	ErrASADefinitionMissing       = errors.New("ASA definition missing")
	ErrMissingSigner              = errors.New("transaction has no signer")
	ErrMissingSender              = errors.New("transaction has no sender")
	ErrSecretKeyMissing           = errors.New("account has no secret key")
	ErrUnknownAsset               = errors.New("asset name not deployed")
	ErrUnknownApp                 = errors.New("app name not deployed")
)

// BuildError is a malformed ExecParams, reported before any state is read.
type BuildError struct {
	Code ledgercore.RejectCode
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("RUNTIME_ERR%d: %s: %v", int(e.Code), e.Code, e.Err)
}

// Unwrap returns the sentinel or the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

func buildErr(code ledgercore.RejectCode, err error) error {
	return &BuildError{Code: code, Err: err}
}

// CodeOf returns the RejectCode carried by err, or 0.
func CodeOf(err error) ledgercore.RejectCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return ledgercore.CodeOf(err)
}

// reject classifies err, which stopped a group from reaching stage.
func reject(stage Stage, err error) *Error {
	gi := -1
	var tge *verify.TxGroupError
	if errors.As(err, &tge) {
		gi = tge.GroupIndex
	} else {
		gi = ledger.GroupIndexOf(err)
	}

	code := CodeOf(err)
	if code == 0 {
		var lee ledgercore.LogicEvalError
		switch {
		case errors.As(err, &lee):
			code = ledgercore.CodeRejectedByLogic
		case stage == SignatureVerified:
			code = ledgercore.CodeInvalidSignature
		default:
			code = ledgercore.CodeInvalidTransactionParams
		}
		err = &ledgercore.RejectError{Code: code, Err: err}
	}
	return &Error{Code: code, GroupIndex: gi, Stage: stage, Err: err}
}
