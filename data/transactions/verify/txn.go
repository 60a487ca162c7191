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

package verify

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/data/transactions/logic"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

var (
	logicGoodTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "tealsim_verify_logic_ok_total", Help: "Total transaction scripts executed and accepted"})
	logicRejTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "tealsim_verify_logic_rej_total", Help: "Total transaction scripts executed and rejected"})
	logicErrTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "tealsim_verify_logic_err_total", Help: "Total transaction scripts executed and errored"})
	logicCostTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "tealsim_verify_logic_cost_total", Help: "Total cost of transaction scripts executed"})
	msigTotal      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tealsim_verify_msig_total", Help: "Total multisig verifications by kind"}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(logicGoodTotal, logicRejTotal, logicErrTotal, logicCostTotal, msigTotal)
}

// GroupContext holds values used to evaluate the LogicSigs in a group.
type GroupContext struct {
	consensusParams config.ConsensusParams
	signedGroupTxns []transactions.SignedTxn
	evalParams      *logic.EvalParams
}

var errTxnSigHasNoSig = errors.New("signedtxn has no sig")
var errTxnSigNotWellFormed = errors.New("signedtxn should only have one of Sig or Msig or LogicSig")
var errUnknownSignature = errors.New("has one mystery sig. WAT?")

// TxGroupErrorReason is reason code for ErrTxGroupError
type TxGroupErrorReason int

const (
	// TxGroupErrorReasonGeneric is a generic (not tracked) reason code
	TxGroupErrorReasonGeneric TxGroupErrorReason = iota
	// TxGroupErrorReasonHasNoSig is for transaction without any signature
	TxGroupErrorReasonHasNoSig
	// TxGroupErrorReasonSigNotWellFormed defines signature format errors
	TxGroupErrorReasonSigNotWellFormed
	// TxGroupErrorReasonMsigNotWellFormed defines multisig format errors
	TxGroupErrorReasonMsigNotWellFormed
	// TxGroupErrorReasonLogicSigFailed defines logic sig validation errors
	TxGroupErrorReasonLogicSigFailed

	// TxGroupErrorReasonNumValues is number of enum values
	TxGroupErrorReasonNumValues
)

// TxGroupError is an error from txn pre-validation (signature format and
// validity, logic sig evaluation). It unwraps into the underlying error, which
// carries a ledgercore.RejectCode.
type TxGroupError struct {
	err error
	// GroupIndex is the index of the transaction in the group that failed.
	GroupIndex int
	Reason     TxGroupErrorReason
}

// Error returns an error message from the underlying error
func (e *TxGroupError) Error() string {
	return e.err.Error()
}

// Unwrap returns an underlying error
func (e *TxGroupError) Unwrap() error {
	return e.err
}

// PrepareGroupContext prepares a GroupCtx for a given transaction group.
func PrepareGroupContext(group []transactions.SignedTxn, proto config.ConsensusParams) *GroupContext {
	if len(group) == 0 {
		return nil
	}
	groupCtx := &GroupContext{
		consensusParams: proto,
		signedGroupTxns: group,
	}
	groupCtx.evalParams = logic.NewEvalParams(transactions.WrapSignedTxnsWithAD(group), &groupCtx.consensusParams)
	return groupCtx
}

// EvalParams exposes the parameters the group's logic sigs ran with.
func (g *GroupContext) EvalParams() *logic.EvalParams {
	return g.evalParams
}

// TxnGroup verifies the authorization of every transaction in stxs: a
// signature, multisig, or logic sig against the transaction's authorizer.
// Whether the authorizer is the right one for the sender is a ledger question
// and is checked during evaluation. The first failing index is reported.
func TxnGroup(stxs []transactions.SignedTxn, proto config.ConsensusParams) (*GroupContext, error) {
	groupCtx := PrepareGroupContext(stxs, proto)
	if groupCtx == nil {
		return nil, nil
	}

	sigTypes := make([]sigOrTxnType, len(stxs))
	failures := make([]*TxGroupError, len(stxs))
	for gi := range stxs {
		sigTypes[gi], failures[gi] = checkTxnSigTypeCounts(&stxs[gi], gi)
	}

	// plain and multi signatures are independent of each other, so check
	// them concurrently; logic sigs share the group's EvalParams
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for gi := range stxs {
		if failures[gi] != nil || sigTypes[gi] == logicSig {
			continue
		}
		gi := gi
		g.Go(func() error {
			failures[gi] = stxnCoreChecks(gi, sigTypes[gi], groupCtx)
			return nil
		})
	}
	_ = g.Wait()

	for gi := range stxs {
		if failures[gi] == nil && sigTypes[gi] == logicSig {
			failures[gi] = stxnCoreChecks(gi, logicSig, groupCtx)
		}
		if failures[gi] != nil {
			return nil, failures[gi]
		}
	}
	return groupCtx, nil
}

type sigOrTxnType int

const regularSig sigOrTxnType = 1
const multiSig sigOrTxnType = 2
const logicSig sigOrTxnType = 3

// checkTxnSigTypeCounts checks the number of signature types and reports an error in case of a violation
func checkTxnSigTypeCounts(s *transactions.SignedTxn, groupIndex int) (sigType sigOrTxnType, err *TxGroupError) {
	numSigCategories := 0
	if !s.Sig.Blank() {
		numSigCategories++
		sigType = regularSig
	}
	if !s.Msig.Blank() {
		numSigCategories++
		sigType = multiSig
	}
	if !s.Lsig.Blank() {
		numSigCategories++
		sigType = logicSig
	}
	if numSigCategories == 0 {
		return 0, &TxGroupError{err: ledgercore.WithCode(ledgercore.CodeInvalidSignature, errTxnSigHasNoSig), GroupIndex: groupIndex, Reason: TxGroupErrorReasonHasNoSig}
	}
	if numSigCategories > 1 {
		return 0, &TxGroupError{err: ledgercore.WithCode(ledgercore.CodeInvalidSignature, errTxnSigNotWellFormed), GroupIndex: groupIndex, Reason: TxGroupErrorReasonSigNotWellFormed}
	}
	return sigType, nil
}

// stxnCoreChecks checks the authorization of the gi'th transaction.
func stxnCoreChecks(gi int, sigType sigOrTxnType, groupCtx *GroupContext) *TxGroupError {
	s := &groupCtx.signedGroupTxns[gi]

	switch sigType {
	case regularSig:
		if !crypto.SignatureVerifier(s.Authorizer()).Verify(s.Txn, s.Sig) {
			return &TxGroupError{
				err:        ledgercore.Reject(ledgercore.CodeInvalidSignature, "signature validation failed", "txid", s.ID().String(), "authorizer", s.Authorizer().String()),
				GroupIndex: gi,
				Reason:     TxGroupErrorReasonSigNotWellFormed,
			}
		}
		return nil
	case multiSig:
		if err := crypto.MultisigVerify(s.Txn, crypto.Digest(s.Authorizer()), s.Msig); err != nil {
			return &TxGroupError{
				err:        ledgercore.WithCode(ledgercore.CodeInvalidSignature, fmt.Errorf("multisig validation failed: %w", err)),
				GroupIndex: gi,
				Reason:     TxGroupErrorReasonMsigNotWellFormed,
			}
		}
		msigTotal.WithLabelValues("txn").Inc()
		return nil

	case logicSig:
		if err := logicSigVerify(gi, groupCtx); err != nil {
			return &TxGroupError{err: err, GroupIndex: gi, Reason: TxGroupErrorReasonLogicSigFailed}
		}
		return nil

	default:
		return &TxGroupError{err: errUnknownSignature, GroupIndex: gi, Reason: TxGroupErrorReasonGeneric}
	}
}

func lsigFailure(format string, args ...interface{}) error {
	return ledgercore.Rejectf(ledgercore.CodeLogicSignatureValidationFailed, format, args...)
}

// LogicSigSanityCheck checks that the signature is valid and that the program is basically well formed.
// It does not evaluate the logic.
func LogicSigSanityCheck(gi int, groupCtx *GroupContext) error {
	if groupCtx.consensusParams.LogicSigVersion == 0 {
		return lsigFailure("LogicSig not enabled")
	}
	if gi < 0 {
		return errors.New("negative group index")
	}
	txn := &groupCtx.signedGroupTxns[gi]
	lsig := txn.Lsig

	if len(lsig.Logic) == 0 {
		return lsigFailure("LogicSig.Logic empty")
	}
	program, err := groupCtx.evalParams.Assemble(lsig.Logic)
	if err != nil {
		return err
	}
	if program.Version > groupCtx.consensusParams.LogicSigVersion {
		return ledgercore.Rejectf(ledgercore.CodeVersionMismatch, "LogicSig.Logic version %d too new", program.Version)
	}
	size := program.Size()
	for _, arg := range lsig.Args {
		size += len(arg)
	}
	if uint64(size) > groupCtx.consensusParams.LogicSigMaxSize {
		return lsigFailure("LogicSig too long: %d > %d", size, groupCtx.consensusParams.LogicSigMaxSize)
	}

	hasMsig := false
	numSigs := 0
	if !lsig.Sig.Blank() {
		numSigs++
	}
	if !lsig.Msig.Blank() {
		hasMsig = true
		numSigs++
	}
	if numSigs == 0 {
		// if the txn.Authorizer() == hash(Logic) then this is a (potentially) valid operation on a contract-only account
		if lsig.Address() == txn.Authorizer() {
			return nil
		}
		return lsigFailure("LogicNot signed and not a Logic-only account: %s", txn.Authorizer())
	}
	if numSigs > 1 {
		return lsigFailure("LogicSig should only have one of Sig or Msig but has more than one")
	}

	prog := transactions.Program(lsig.Logic)
	if !hasMsig {
		if !crypto.SignatureVerifier(txn.Authorizer()).Verify(prog, lsig.Sig) {
			return lsigFailure("logic signature by %s failed to verify", txn.Authorizer())
		}
		return nil
	}
	if err := crypto.MultisigVerify(prog, crypto.Digest(txn.Authorizer()), lsig.Msig); err != nil {
		return ledgercore.WithCode(ledgercore.CodeLogicSignatureValidationFailed, fmt.Errorf("logic multisig validation failed: %w", err))
	}
	msigTotal.WithLabelValues("lsig").Inc()
	return nil
}

// logicSigVerify checks that the signature is valid, executing the program.
func logicSigVerify(gi int, groupCtx *GroupContext) error {
	err := LogicSigSanityCheck(gi, groupCtx)
	if err != nil {
		return err
	}

	pass, cx, err := logic.EvalSignatureFull(gi, groupCtx.evalParams)
	if err != nil {
		logicErrTotal.Inc()
		return fmt.Errorf("transaction %v: %w", groupCtx.signedGroupTxns[gi].ID(), err)
	}
	if !pass {
		logicRejTotal.Inc()
		return ledgercore.Rejectf(ledgercore.CodeRejectedByLogic, "transaction %v: rejected by logic", groupCtx.signedGroupTxns[gi].ID())
	}
	logicGoodTotal.Inc()
	logicCostTotal.Add(float64(cx.Cost()))
	return nil
}
