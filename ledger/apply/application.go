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

package apply

import (
	"errors"
	"fmt"
	"maps"

	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/data/transactions/logic"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

func cloneAppLocalStates(m map[basics.AppIndex]basics.AppLocalState) map[basics.AppIndex]basics.AppLocalState {
	if m == nil {
		return make(map[basics.AppIndex]basics.AppLocalState, 1)
	}
	return maps.Clone(m)
}

func cloneAppParams(m map[basics.AppIndex]basics.AppParams) map[basics.AppIndex]basics.AppParams {
	if m == nil {
		return make(map[basics.AppIndex]basics.AppParams, 1)
	}
	return maps.Clone(m)
}

// getAppParams fetches the creator address and AppParams for the app index,
// if they exist. It does NOT return an error if the app does not exist.
func getAppParams(balances Balances, aidx basics.AppIndex) (params basics.AppParams, creator basics.Address, exists bool, err error) {
	creator, exists, err = balances.GetCreator(basics.CreatableIndex(aidx), basics.AppCreatable)
	if err != nil || !exists {
		return
	}

	record, err := balances.Get(creator)
	if err != nil {
		return
	}

	params, exists = record.AppParams[aidx]
	if !exists {
		// This should never happen. If app exists then we should have
		// found the creator successfully.
		err = fmt.Errorf("app %d not found in account %s", aidx, creator)
	}
	return
}

// checkPrograms assembles the programs an appl is about to install and
// checks their size against the pages the app pays for.
func checkPrograms(ac *transactions.ApplicationCallTxnFields, evalParams *logic.EvalParams, extraPages uint32, previous basics.AppParams) error {
	err := transactions.CheckContractVersions(ac.ApprovalProgram, ac.ClearStateProgram, previous)
	if err != nil {
		return ledgercore.WithCode(ledgercore.CodeVersionMismatch, err)
	}
	approval, err := evalParams.Assemble(ac.ApprovalProgram)
	if err != nil {
		return fmt.Errorf("approval program: %w", err)
	}
	clearProg, err := evalParams.Assemble(ac.ClearStateProgram)
	if err != nil {
		return fmt.Errorf("clear state program: %w", err)
	}

	maxLen := evalParams.Proto.MaxAppProgramLen * (1 + int(extraPages))
	if approval.Size()+clearProg.Size() > maxLen {
		return ledgercore.Reject(ledgercore.CodeMaxLenExceeded, "app programs too long",
			"total", approval.Size()+clearProg.Size(), "max", maxLen)
	}
	return nil
}

func createApplication(ac *transactions.ApplicationCallTxnFields, balances Balances, creator basics.Address) (appIdx basics.AppIndex, err error) {
	// Fetch the creator's (sender's) balance record
	record, err := balances.Get(creator)
	if err != nil {
		return
	}

	// Make sure the creator isn't already at the app creation max
	maxAppsCreated := balances.ConsensusParams().MaxAppsCreated
	if len(record.AppParams) >= maxAppsCreated {
		err = ledgercore.Reject(ledgercore.CodeMaxAppsExceeded, "cannot create application: too many apps created", "max", maxAppsCreated)
		return
	}

	cidx, err := balances.AllocateCreatable(creator, basics.AppCreatable)
	if err != nil {
		return
	}
	appIdx = basics.AppIndex(cidx)

	// Write the application params
	record.AppParams = cloneAppParams(record.AppParams)
	record.AppParams[appIdx] = basics.AppParams{
		ApprovalProgram:   ac.ApprovalProgram,
		ClearStateProgram: ac.ClearStateProgram,
		StateSchemas: basics.StateSchemas{
			LocalStateSchema:  ac.LocalStateSchema,
			GlobalStateSchema: ac.GlobalStateSchema,
		},
		ExtraProgramPages: ac.ExtraProgramPages,
	}

	// Update the cached TotalStateSchema for this account, used
	// when computing MinBalance, since the creator has to store
	// the global state
	record.TotalAppSchema = record.TotalAppSchema.AddSchema(ac.GlobalStateSchema)
	record.TotalExtraAppPages += ac.ExtraProgramPages

	err = balances.Put(creator, record)
	return
}

func deleteApplication(balances Balances, creator basics.Address, appIdx basics.AppIndex) error {
	record, err := balances.Get(creator)
	if err != nil {
		return err
	}

	// Update the TotalAppSchema used for MinBalance calculation,
	// since the creator no longer has to store the GlobalState
	params := record.AppParams[appIdx]
	record.TotalAppSchema = record.TotalAppSchema.SubSchema(params.GlobalStateSchema)
	record.TotalExtraAppPages -= params.ExtraProgramPages

	record.AppParams = cloneAppParams(record.AppParams)
	delete(record.AppParams, appIdx)
	err = balances.Put(creator, record)
	if err != nil {
		return err
	}
	return balances.DeallocateCreatable(basics.CreatableIndex(appIdx), basics.AppCreatable)
}

func updateApplication(ac *transactions.ApplicationCallTxnFields, balances Balances, creator basics.Address, appIdx basics.AppIndex) error {
	record, err := balances.Get(creator)
	if err != nil {
		return err
	}

	// Fill in the new programs
	record.AppParams = cloneAppParams(record.AppParams)
	params := record.AppParams[appIdx]
	params.ApprovalProgram = ac.ApprovalProgram
	params.ClearStateProgram = ac.ClearStateProgram
	record.AppParams[appIdx] = params
	return balances.Put(creator, record)
}

func optInApplication(balances Balances, sender basics.Address, appIdx basics.AppIndex, params basics.AppParams) error {
	record, err := balances.Get(sender)
	if err != nil {
		return err
	}

	// If the user has already opted in, fail
	if _, ok := record.AppLocalStates[appIdx]; ok {
		return ledgercore.Reject(ledgercore.CodeAlreadyOptedIn, "account has already opted in to app", "addr", sender, "app", uint64(appIdx))
	}

	// Make sure the user isn't already at the app opt-in max
	maxAppsOptedIn := balances.ConsensusParams().MaxAppsOptedIn
	if len(record.AppLocalStates) >= maxAppsOptedIn {
		return ledgercore.Reject(ledgercore.CodeMaxAppsExceeded, "cannot opt in app: too many apps opted in", "max", maxAppsOptedIn)
	}

	// Write an empty local state; the schema is cached so that MinBalance
	// can be computed even after the app is deleted.
	record.AppLocalStates = cloneAppLocalStates(record.AppLocalStates)
	record.AppLocalStates[appIdx] = basics.AppLocalState{Schema: params.LocalStateSchema}
	record.TotalAppSchema = record.TotalAppSchema.AddSchema(params.LocalStateSchema)
	return balances.Put(sender, record)
}

func closeOutApplication(balances Balances, sender basics.Address, appIdx basics.AppIndex) error {
	record, err := balances.Get(sender)
	if err != nil {
		return err
	}

	// If they haven't opted in, that's an error
	localState, ok := record.AppLocalStates[appIdx]
	if !ok {
		return ledgercore.Reject(ledgercore.CodeAppNotOptedIn, "account is not opted in to app", "addr", sender, "app", uint64(appIdx))
	}

	// Update the TotalAppSchema used for MinBalance calculation,
	// since the sender no longer has to store LocalState
	record.TotalAppSchema = record.TotalAppSchema.SubSchema(localState.Schema)

	record.AppLocalStates = cloneAppLocalStates(record.AppLocalStates)
	delete(record.AppLocalStates, appIdx)
	return balances.Put(sender, record)
}

// ApplicationCall is an "Apply" function that runs the programs of an app
// call and moves its local state, global state and programs accordingly.
func ApplicationCall(ac transactions.ApplicationCallTxnFields, header transactions.Header, balances Balances, ad *transactions.ApplyData, gi int, evalParams *logic.EvalParams) (err error) {
	defer func() {
		// If we are returning a non-nil error, then don't return a
		// non-empty EvalDelta. Not required for correctness.
		if err != nil && ad != nil {
			ad.EvalDelta = transactions.EvalDelta{}
		}
	}()

	// this is not the case in the current code but still probably better to check
	if ad == nil {
		err = fmt.Errorf("cannot use empty ApplyData")
		return
	}

	// Keep track of the application ID we're working on
	appIdx := ac.ApplicationID

	// If this txn is going to set new programs (either for creation or
	// update), check that the programs are valid and not too expensive
	if ac.ApplicationID == 0 {
		err = checkPrograms(&ac, evalParams, ac.ExtraProgramPages, basics.AppParams{})
		if err != nil {
			return err
		}
	}

	// Specifying an application ID of 0 indicates application creation
	if ac.ApplicationID == 0 {
		appIdx, err = createApplication(&ac, balances, header.Sender)
		if err != nil {
			return
		}
		ad.ApplicationID = appIdx
	}

	// Fetch the application parameters, if they exist
	params, creator, exists, err := getAppParams(balances, appIdx)
	if err != nil {
		return err
	}

	// Ensure that the only operation we can do is ClearState if the application
	// does not exist
	if !exists && ac.OnCompletion != transactions.ClearStateOC {
		return ledgercore.Reject(ledgercore.CodeAppNotFound, "only ClearState is supported for an application that does not exist",
			"app", uint64(appIdx))
	}

	if ac.OnCompletion == transactions.UpdateApplicationOC {
		err = checkPrograms(&ac, evalParams, params.ExtraProgramPages, params)
		if err != nil {
			return err
		}
	}

	// Clear out our LocalState. In this case, we don't execute the
	// ApprovalProgram, since clearing out is always allowed. We only
	// execute the ClearStateProgram, whose failures are ignored.
	if ac.OnCompletion == transactions.ClearStateOC {
		// Ensure that the user is already opted in
		record, err := balances.Get(header.Sender)
		if err != nil {
			return err
		}
		if _, ok := record.AppLocalStates[appIdx]; !ok {
			return ledgercore.Reject(ledgercore.CodeAppNotOptedIn, "cannot clear state: account is not currently opted in to app",
				"addr", header.Sender, "app", uint64(appIdx))
		}

		// If the application still exists...
		if exists {
			// Execute the ClearStateProgram before we've deleted the LocalState
			// for this account. If the ClearStateProgram does not fail, apply any
			// state deltas it generated.
			pass, evalDelta, err := balances.StatefulEval(gi, evalParams, appIdx, params.ClearStateProgram)
			if err != nil {
				// Fail on non-logic eval errors and ignore LogicEvalError errors
				var lerr ledgercore.LogicEvalError
				if !errors.As(err, &lerr) {
					return err
				}
			}

			// We will have applied any changes if and only if we passed
			if err == nil && pass {
				// Fill in applyData, so that consumers don't have to implement a
				// stateful TEAL interpreter to apply state changes
				ad.EvalDelta = evalDelta
			} else {
				ad.ClearStateRejected = true
			}
		}

		return closeOutApplication(balances, header.Sender, appIdx)
	}

	// If this is an OptIn transaction, ensure that the sender has
	// LocalState allocated prior to TEAL execution, so that it may be
	// initialized in the same transaction.
	if ac.OnCompletion == transactions.OptInOC {
		err = optInApplication(balances, header.Sender, appIdx, params)
		if err != nil {
			return err
		}
	}

	// Execute the Approval program
	approved, evalDelta, err := balances.StatefulEval(gi, evalParams, appIdx, params.ApprovalProgram)
	if err != nil {
		return err
	}

	if !approved {
		return ledgercore.Reject(ledgercore.CodeRejectedByLogic, "transaction rejected by ApprovalProgram", "app", uint64(appIdx))
	}

	// Fill in applyData, so that consumers don't have to implement a
	// stateful TEAL interpreter to apply state changes
	ad.EvalDelta = evalDelta

	switch ac.OnCompletion {
	case transactions.NoOpOC:
		// Nothing to do

	case transactions.OptInOC:
		// Handled above

	case transactions.CloseOutOC:
		// Closing out of the application. Delete the LocalState
		err = closeOutApplication(balances, header.Sender, appIdx)

	case transactions.DeleteApplicationOC:
		// Deleting the application. Delete the AppParams
		err = deleteApplication(balances, creator, appIdx)

	case transactions.UpdateApplicationOC:
		// Updating the application. Update the programs
		err = updateApplication(&ac, balances, creator, appIdx)

	default:
		return fmt.Errorf("invalid application action")
	}

	return err
}
