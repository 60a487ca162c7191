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
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/logging"
	"github.com/scale-it/algo-builder-sub005/protocol"
	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

func newTestRuntime(t *testing.T, balances ...uint64) (*Runtime, []*Account) {
	accts := make([]*Account, len(balances))
	for i, b := range balances {
		accts[i] = NewAccount(b)
	}
	r := New(config.GetDefaultLocal(), accts...)
	r.SetLogger(logging.TestingLog(t))
	return r, accts
}

func signedBy(a *Account) TxnBase {
	return TxnBase{Sign: SignSecretKey{a}}
}

func requireRejected(t *testing.T, err error, code ledgercore.RejectCode, stage Stage, gi int) {
	t.Helper()
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, code, rerr.Code, "%v", err)
	require.Equal(t, stage, rerr.Stage, "%v", err)
	require.Equal(t, gi, rerr.GroupIndex, "%v", err)
}

func deployGold(t *testing.T, r *Runtime, creator *Account, defaultFrozen bool) basics.AssetIndex {
	rc, err := r.DeployASA("gold", &ASADef{
		Total:         1_000_000,
		DefaultFrozen: defaultFrozen,
		UnitName:      "GLD",
		Manager:       creator.Address(),
		Reserve:       creator.Address(),
		Freeze:        creator.Address(),
		Clawback:      creator.Address(),
	}, creator, TxParams{})
	require.NoError(t, err)
	require.NotZero(t, rc.CreatedAssetID)
	return rc.CreatedAssetID
}

func holding(t *testing.T, r *Runtime, aidx basics.AssetIndex, addr basics.Address) uint64 {
	h, err := r.GetAssetHolding(aidx, addr)
	require.NoError(t, err)
	return h.Amount
}

func TestAlgoTransfer(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 5_000_000, 1_000_000)
	alice, bob := accts[0], accts[1]

	stale := r.GetAccount(alice.Address())
	receipts, err := r.ExecuteTx(AlgoTransferParam{TxnBase: signedBy(alice), To: bob.Address(), Amount: 1_500_000})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	require.Equal(t, protocol.PaymentTx, receipts[0].Type)
	require.Equal(t, uint64(1000), receipts[0].Fee)
	require.Equal(t, r.Round(), receipts[0].ConfirmedRound)

	require.Equal(t, uint64(5_000_000-1_500_000-1000), r.GetAccount(alice.Address()).Balance)
	require.Equal(t, uint64(2_500_000), r.GetAccount(bob.Address()).Balance)
	// snapshots do not follow the ledger
	require.Equal(t, uint64(5_000_000), stale.Balance)

	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: signedBy(bob), To: alice.Address(), Amount: 2_500_000})
	requireRejected(t, err, ledgercore.CodeInsufficientBalance, ProgramsEvaluated, 0)

	// closing moves everything that is left
	receipts, err = r.ExecuteTx(AlgoTransferParam{
		TxnBase: TxnBase{Sign: SignSecretKey{bob}, Params: TxParams{CloseRemainderTo: alice.Address()}},
		To:      alice.Address(),
		Amount:  500_000,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2_500_000-500_000-1000), receipts[0].ClosingAmount)
	require.Zero(t, r.GetAccount(bob.Address()).Balance)
}

func TestBalanceOverflowIsLedgerError(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, math.MaxUint64-10)
	alice, whale := accts[0], accts[1]

	_, err := r.ExecuteTx(AlgoTransferParam{TxnBase: signedBy(alice), To: whale.Address(), Amount: 11})
	requireRejected(t, err, ledgercore.CodeLedgerOverflow, ProgramsEvaluated, 0)
	require.Contains(t, err.Error(), "RUNTIME_ERR1328")
	require.NotContains(t, err.Error(), "TEAL_ERR")
	require.Equal(t, uint64(10_000_000), r.GetAccount(alice.Address()).Balance)

	err = r.Fund(whale.Address(), 11)
	require.Equal(t, ledgercore.CodeLedgerOverflow, CodeOf(err))
	require.Equal(t, uint64(math.MaxUint64-10), r.GetAccount(whale.Address()).Balance)
}

func TestGoldClawback(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
	creator, bob := accts[0], accts[1]
	gold := deployGold(t, r, creator, true)

	id, err := r.GetAssetByName("gold")
	require.NoError(t, err)
	require.Equal(t, gold, id)
	def, err := r.GetAssetDef(gold)
	require.NoError(t, err)
	require.Equal(t, "gold", def.AssetName)
	require.True(t, def.DefaultFrozen)

	_, err = r.OptInToASA(gold, bob, TxParams{})
	require.NoError(t, err)
	h, err := r.GetAssetHolding(gold, bob.Address())
	require.NoError(t, err)
	require.True(t, h.Frozen)
	require.Zero(t, h.Amount)

	_, err = r.OptInToASA(gold, bob, TxParams{})
	requireRejected(t, err, ledgercore.CodeAlreadyOptedIn, ProgramsEvaluated, 0)

	// a frozen holding only moves by clawback
	_, err = r.ExecuteTx(AssetTransferParam{TxnBase: signedBy(creator), AssetID: gold, To: bob.Address(), Amount: 1000})
	requireRejected(t, err, ledgercore.CodeAssetFrozen, ProgramsEvaluated, 0)

	_, err = r.ExecuteTx(RevokeAssetParam{
		TxnBase:    signedBy(creator),
		AssetID:    gold,
		RevokeFrom: creator.Address(),
		To:         bob.Address(),
		Amount:     1000,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1000), holding(t, r, gold, bob.Address()))
	require.Equal(t, uint64(999_000), holding(t, r, gold, creator.Address()))

	_, err = r.ExecuteTx(RevokeAssetParam{TxnBase: signedBy(bob), AssetID: gold, RevokeFrom: creator.Address(), To: bob.Address(), Amount: 1})
	requireRejected(t, err, ledgercore.CodeClawbackError, ProgramsEvaluated, 0)
}

func TestAssetLifecycle(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
	creator, bob := accts[0], accts[1]
	gold := deployGold(t, r, creator, false)

	_, err := r.ExecuteTx(AssetTransferParam{TxnBase: signedBy(creator), AssetID: gold, To: bob.Address(), Amount: 10})
	requireRejected(t, err, ledgercore.CodeAssetNotOptedIn, ProgramsEvaluated, 0)

	_, err = r.OptInToASA(gold, bob, TxParams{})
	require.NoError(t, err)
	_, err = r.ExecuteTx(AssetTransferParam{TxnBase: signedBy(creator), AssetID: gold, To: bob.Address(), Amount: 10})
	require.NoError(t, err)
	require.Equal(t, []basics.AssetIndex{gold}, assetIDs(r.GetAccount(bob.Address())))

	_, err = r.ExecuteTx(FreezeAssetParam{TxnBase: signedBy(creator), AssetID: gold, Target: bob.Address(), Freeze: true})
	require.NoError(t, err)
	_, err = r.ExecuteTx(AssetTransferParam{TxnBase: signedBy(bob), AssetID: gold, To: creator.Address(), Amount: 1})
	requireRejected(t, err, ledgercore.CodeAssetFrozen, ProgramsEvaluated, 0)
	_, err = r.ExecuteTx(FreezeAssetParam{TxnBase: signedBy(bob), AssetID: gold, Target: bob.Address()})
	requireRejected(t, err, ledgercore.CodeFreezeError, ProgramsEvaluated, 0)
	_, err = r.ExecuteTx(FreezeAssetParam{TxnBase: signedBy(creator), AssetID: gold, Target: bob.Address(), Freeze: false})
	require.NoError(t, err)

	// roles: nil keeps, "" clears
	manager := bob.Address().String()
	_, err = r.ExecuteTx(ModifyAssetParam{TxnBase: signedBy(creator), AssetID: gold, Fields: AssetModFields{Manager: &manager}})
	require.NoError(t, err)
	def, err := r.GetAssetDef(gold)
	require.NoError(t, err)
	require.Equal(t, bob.Address(), def.Manager)
	require.Equal(t, creator.Address(), def.Reserve)
	require.Equal(t, creator.Address(), def.Clawback)

	empty := ""
	_, err = r.ExecuteTx(ModifyAssetParam{TxnBase: signedBy(bob), AssetID: gold, Fields: AssetModFields{Reserve: &empty}})
	require.NoError(t, err)
	def, err = r.GetAssetDef(gold)
	require.NoError(t, err)
	require.True(t, def.Reserve.IsZero())
	require.Equal(t, bob.Address(), def.Manager)

	_, err = r.ExecuteTx(ModifyAssetParam{TxnBase: signedBy(creator), AssetID: gold, Fields: AssetModFields{Reserve: &manager}})
	requireRejected(t, err, ledgercore.CodeManagerError, ProgramsEvaluated, 0)

	bogus := "not an address"
	_, err = r.ExecuteTx(ModifyAssetParam{TxnBase: signedBy(bob), AssetID: gold, Fields: AssetModFields{Freeze: &bogus}})
	requireRejected(t, err, ledgercore.CodeInvalidTransactionParams, Received, 0)

	// the creator cannot close out, and the asset cannot go while bob holds some
	_, err = r.ExecuteTx(DestroyAssetParam{TxnBase: signedBy(bob), AssetID: gold})
	requireRejected(t, err, ledgercore.CodeCannotDestroyAsset, ProgramsEvaluated, 0)
	_, err = r.ExecuteTx(AssetTransferParam{
		TxnBase: TxnBase{Sign: SignSecretKey{bob}, Params: TxParams{CloseRemainderTo: creator.Address()}},
		AssetID: gold,
		To:      creator.Address(),
	})
	require.NoError(t, err)
	_, err = r.ExecuteTx(DestroyAssetParam{TxnBase: signedBy(bob), AssetID: gold})
	require.NoError(t, err)
	_, err = r.GetAssetDef(gold)
	require.Equal(t, ledgercore.CodeAssetNotFound, CodeOf(err))
	require.Empty(t, r.GetAccount(creator.Address()).Assets)

	// a destroyed asset cannot be reconfigured
	before := r.Snapshot().Digest()
	_, err = r.ExecuteTx(
		AlgoTransferParam{TxnBase: signedBy(bob), To: creator.Address(), Amount: 1},
		ModifyAssetParam{TxnBase: signedBy(bob), AssetID: gold, Fields: AssetModFields{Manager: &manager}},
	)
	requireRejected(t, err, ledgercore.CodeAssetNotFound, Received, 1)
	require.Equal(t, before, r.Snapshot().Digest())
}

func TestDestroyAssetDropsEmptyHoldings(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
	creator, bob := accts[0], accts[1]
	gold := deployGold(t, r, creator, false)
	_, err := r.OptInToASA(gold, bob, TxParams{})
	require.NoError(t, err)
	require.Equal(t, uint64(0), holding(t, r, gold, bob.Address()))
	optedMin := r.GetAccount(bob.Address()).MinBalance

	_, err = r.ExecuteTx(DestroyAssetParam{TxnBase: signedBy(creator), AssetID: gold})
	require.NoError(t, err)
	require.Empty(t, r.GetAccount(bob.Address()).Assets)
	require.Less(t, r.GetAccount(bob.Address()).MinBalance, optedMin)
	require.Empty(t, r.GetAccount(creator.Address()).Assets)
	_, err = r.GetAssetHolding(gold, bob.Address())
	require.Equal(t, ledgercore.CodeAssetNotOptedIn, CodeOf(err))
}

func assetIDs(a AccountStore) []basics.AssetIndex {
	var out []basics.AssetIndex
	for aidx := range a.Assets {
		out = append(out, aidx)
	}
	return out
}

const levelApproval = `#pragma version 8
txn ApplicationID
bz ok
txn OnCompletion
int OptIn
==
bnz ok
txn OnCompletion
int CloseOut
==
bnz ok
txna ApplicationArgs 0
byte "inc"
==
bnz inc
txna ApplicationArgs 0
byte "check-level"
==
assert
txn Sender
byte "level"
app_local_get
int 2
>=
return
inc:
txn Sender
byte "level"
txn Sender
byte "level"
app_local_get
int 1
+
app_local_put
ok:
int 1`

func deployLevel(t *testing.T, r *Runtime, creator *Account, clear string) basics.AppIndex {
	rc, err := r.DeployApp(DeployAppParam{
		TxnBase:         signedBy(creator),
		Name:            "level",
		ApprovalProgram: levelApproval,
		ClearProgram:    clear,
		LocalInts:       1,
	})
	require.NoError(t, err)
	require.NotZero(t, rc.CreatedAppID)
	require.Positive(t, rc.Cost)
	return rc.CreatedAppID
}

func callLevel(who *Account, app basics.AppIndex, arg string, params TxParams) CallAppParam {
	return CallAppParam{
		TxnBase:       TxnBase{Sign: SignSecretKey{who}, Params: params},
		AppID:         app,
		AppCallFields: AppCallFields{AppArgs: [][]byte{[]byte(arg)}},
	}
}

func TestAppOptInCreatesEmptyLocalState(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
	creator, bob := accts[0], accts[1]
	app := deployLevel(t, r, creator, "#pragma version 8\nint 1")

	id, err := r.GetAppByName("level")
	require.NoError(t, err)
	require.Equal(t, app, id)
	_, err = r.GetAppByName("nope")
	require.ErrorIs(t, err, ErrUnknownApp)

	before := r.GetAccount(bob.Address())
	require.NotContains(t, before.AppsLocalState, app)

	_, err = r.OptInToApp(app, bob, TxParams{})
	require.NoError(t, err)
	acct := r.GetAccount(bob.Address())
	ls, ok := acct.AppsLocalState[app]
	require.True(t, ok)
	require.Empty(t, ls.KeyValue)
	require.Equal(t, basics.StateSchema{NumUint: 1}, acct.TotalAppSchema)
	require.Greater(t, acct.MinBalance, before.MinBalance)

	_, err = r.OptInToApp(app, bob, TxParams{})
	requireRejected(t, err, ledgercore.CodeAlreadyOptedIn, ProgramsEvaluated, 0)

	receipts, err := r.ExecuteTx(callLevel(bob, app, "inc", TxParams{}))
	require.NoError(t, err)
	require.Equal(t, basics.ValueDelta{Action: basics.SetUintAction, Uint: 1}, receipts[0].LocalDeltas[0]["level"])
	tv, ok := r.GetLocalState(app, bob.Address(), "level")
	require.True(t, ok)
	require.Equal(t, uint64(1), tv.Uint)

	_, err = r.ExecuteTx(CloseAppParam{TxnBase: signedBy(bob), AppID: app})
	require.NoError(t, err)
	_, ok = r.GetLocalState(app, bob.Address(), "level")
	require.False(t, ok)
	require.NotContains(t, r.GetAccount(bob.Address()).AppsLocalState, app)
}

func TestClearStateAlwaysRemovesLocalState(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	clears := map[string]string{
		"approves": "#pragma version 8\nint 1",
		"rejects":  "#pragma version 8\nint 0",
		"errors":   "#pragma version 8\nerr",
	}
	for name, prog := range clears {
		prog := prog
		t.Run(name, func(t *testing.T) {
			partitiontest.PartitionTest(t)
			t.Parallel()

			r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
			creator, bob := accts[0], accts[1]
			app := deployLevel(t, r, creator, prog)
			_, err := r.OptInToApp(app, bob, TxParams{})
			require.NoError(t, err)
			_, err = r.ExecuteTx(callLevel(bob, app, "inc", TxParams{}))
			require.NoError(t, err)

			receipts, err := r.ExecuteTx(ClearAppParam{TxnBase: signedBy(bob), AppID: app})
			require.NoError(t, err)
			require.Equal(t, name != "approves", receipts[0].ClearStateRejected)
			acct := r.GetAccount(bob.Address())
			require.NotContains(t, acct.AppsLocalState, app)
			require.Zero(t, acct.TotalAppSchema)

			_, err = r.ExecuteTx(ClearAppParam{TxnBase: signedBy(bob), AppID: app})
			requireRejected(t, err, ledgercore.CodeAppNotOptedIn, ProgramsEvaluated, 0)
		})
	}
}

func TestGroupRollback(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
	creator, bob := accts[0], accts[1]
	gold := deployGold(t, r, creator, false)
	app := deployLevel(t, r, creator, "#pragma version 8\nint 1")
	_, err := r.OptInToASA(gold, bob, TxParams{})
	require.NoError(t, err)
	_, err = r.OptInToApp(app, bob, TxParams{})
	require.NoError(t, err)
	_, err = r.ExecuteTx(callLevel(bob, app, "inc", TxParams{}))
	require.NoError(t, err)

	free := TxParams{FlatFee: true}
	group := func() []ExecParams {
		return []ExecParams{
			callLevel(bob, app, "check-level", free),
			RevokeAssetParam{
				TxnBase:    TxnBase{Sign: SignSecretKey{creator}, Params: free},
				AssetID:    gold,
				RevokeFrom: creator.Address(),
				To:         bob.Address(),
				Amount:     100,
			},
			AlgoTransferParam{
				TxnBase: TxnBase{Sign: SignSecretKey{bob}, Params: TxParams{TotalFee: 3000}},
				To:      creator.Address(),
				Amount:  1,
			},
		}
	}

	before := r.Snapshot().Digest()
	_, err = r.ExecuteTx(group()...)
	requireRejected(t, err, ledgercore.CodeRejectedByLogic, ProgramsEvaluated, 0)
	require.Equal(t, before, r.Snapshot().Digest())
	require.Zero(t, holding(t, r, gold, bob.Address()))
	require.Equal(t, uint64(1_000_000), holding(t, r, gold, creator.Address()))

	_, err = r.ExecuteTx(callLevel(bob, app, "inc", TxParams{}))
	require.NoError(t, err)
	receipts, err := r.ExecuteTx(group()...)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	require.Equal(t, uint64(3000), receipts[2].Fee)
	require.Equal(t, uint64(100), holding(t, r, gold, bob.Address()))
	require.Equal(t, uint64(999_900), holding(t, r, gold, creator.Address()))
}

const minterApproval = `#pragma version 8
txn ApplicationID
bz ok
itxn_begin
int acfg
itxn_field TypeEnum
int 1000
itxn_field ConfigAssetTotal
byte "GLD"
itxn_field ConfigAssetUnitName
itxn_submit
itxn CreatedAssetID
itob
log
ok:
int 1`

func TestInnerAssetCreation(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000)
	creator := accts[0]
	rc, err := r.DeployApp(DeployAppParam{
		TxnBase:         signedBy(creator),
		Name:            "minter",
		ApprovalProgram: minterApproval,
		ClearProgram:    "#pragma version 8\nint 1",
	})
	require.NoError(t, err)
	app := rc.CreatedAppID

	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: signedBy(creator), To: app.Address(), Amount: 1_000_000})
	require.NoError(t, err)

	receipts, err := r.ExecuteTx(CallAppParam{TxnBase: signedBy(creator), AppID: app})
	require.NoError(t, err)
	rc = receipts[0]
	require.Len(t, rc.Inner, 1)
	inner := rc.Inner[0]
	require.Equal(t, protocol.AssetConfigTx, inner.Type)
	require.Equal(t, app.Address(), inner.Sender)
	created := inner.CreatedAssetID
	require.NotZero(t, created)
	require.NotEqual(t, rc.TxID, inner.TxID)
	require.Zero(t, rc.CreatedAssetID)

	logged := make([]byte, 8)
	binary.BigEndian.PutUint64(logged, uint64(created))
	require.Equal(t, [][]byte{logged}, rc.Logs)
	require.Positive(t, rc.Cost)

	def, err := r.GetAssetDef(created)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), def.Total)
	require.Equal(t, "GLD", def.UnitName)
	require.Equal(t, uint64(1000), holding(t, r, created, app.Address()))
	require.Contains(t, r.GetAccount(app.Address()).CreatedAssets, created)
}

const boxApproval = `#pragma version 8
txn ApplicationID
bz ok
byte "b"
byte "hello"
box_put
ok:
int 1`

func TestBoxes(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000)
	creator := accts[0]
	rc, err := r.DeployApp(DeployAppParam{
		TxnBase:         signedBy(creator),
		ApprovalProgram: boxApproval,
		ClearProgram:    "#pragma version 8\nint 1",
	})
	require.NoError(t, err)
	app := rc.CreatedAppID
	call := CallAppParam{
		TxnBase:       signedBy(creator),
		AppID:         app,
		AppCallFields: AppCallFields{Boxes: []transactions.BoxRef{{Name: []byte("b")}}},
	}

	// the app account cannot pay for the box yet
	_, err = r.ExecuteTx(call)
	requireRejected(t, err, ledgercore.CodeInsufficientBalance, ProgramsEvaluated, 0)

	require.NoError(t, r.Fund(app.Address(), 200_000))
	_, err = r.ExecuteTx(call)
	require.NoError(t, err)
	box, ok := r.GetBox(app, "b")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), box)
	acct := r.GetAccount(app.Address())
	require.Equal(t, uint64(1), acct.TotalBoxes)
	require.Equal(t, uint64(6), acct.TotalBoxBytes)
}

func TestAppUpdateDelete(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
	creator, bob := accts[0], accts[1]
	rc, err := r.DeployApp(DeployAppParam{
		TxnBase:         signedBy(creator),
		ApprovalProgram: "#pragma version 8\ntxn Sender\nglobal CreatorAddress\n==",
		ClearProgram:    "#pragma version 8\nint 1",
		GlobalInts:      1,
	})
	require.NoError(t, err)
	app := rc.CreatedAppID

	update := UpdateAppParam{
		TxnBase:         signedBy(bob),
		AppID:           app,
		ApprovalProgram: "#pragma version 8\nbyte \"v\"\nint 2\napp_global_put\ntxn Sender\nglobal CreatorAddress\n==",
		ClearProgram:    "#pragma version 8\nint 1",
	}
	_, err = r.ExecuteTx(update)
	requireRejected(t, err, ledgercore.CodeRejectedByLogic, ProgramsEvaluated, 0)

	update.TxnBase = signedBy(creator)
	_, err = r.ExecuteTx(update)
	require.NoError(t, err)
	params, err := r.GetApp(app)
	require.NoError(t, err)
	require.Equal(t, update.ApprovalProgram, string(params.ApprovalProgram))

	// the new program runs from now on
	_, err = r.ExecuteTx(CallAppParam{TxnBase: signedBy(creator), AppID: app})
	require.NoError(t, err)
	tv, ok := r.GetGlobalState(app, "v")
	require.True(t, ok)
	require.Equal(t, uint64(2), tv.Uint)

	_, err = r.ExecuteTx(DeleteAppParam{TxnBase: signedBy(creator), AppID: app})
	require.NoError(t, err)
	_, err = r.GetApp(app)
	require.Equal(t, ledgercore.CodeAppNotFound, CodeOf(err))
	_, ok = r.GetGlobalState(app, "v")
	require.False(t, ok)
}

func TestProgramErrorsCarryCodes(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000)
	creator := accts[0]
	deploy := func(approval string) error {
		_, err := r.DeployApp(DeployAppParam{
			TxnBase:         signedBy(creator),
			ApprovalProgram: approval,
			ClearProgram:    "#pragma version 8\nint 1",
		})
		return err
	}

	err := deploy("#pragma version 8\nint 18446744073709551615\nint 1\n+")
	requireRejected(t, err, ledgercore.CodeUint64Overflow, ProgramsEvaluated, 0)
	require.Contains(t, err.Error(), "TEAL_ERR1004")

	err = deploy("#pragma version 8\nint 0\nint 1\n-")
	requireRejected(t, err, ledgercore.CodeUint64Underflow, ProgramsEvaluated, 0)

	err = deploy("#pragma version 8\nint 1\nint 0\n/")
	requireRejected(t, err, ledgercore.CodeZeroDiv, ProgramsEvaluated, 0)

	err = deploy("#pragma version 8\nerr")
	requireRejected(t, err, ledgercore.CodeTealEncounteredErr, ProgramsEvaluated, 0)

	err = deploy("#pragma version 8\nint 0")
	requireRejected(t, err, ledgercore.CodeRejectedByLogic, ProgramsEvaluated, 0)

	// nothing was created
	require.Empty(t, r.GetAccount(creator.Address()).CreatedApps)
	require.Equal(t, uint64(10_000_000), r.GetAccount(creator.Address()).Balance)
}

func TestProgramSizeLimits(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000)
	creator := accts[0]
	padded := func(n int) string {
		return fmt.Sprintf("#pragma version 8\nbyte \"%s\"\npop\nint 1", strings.Repeat("a", n))
	}

	_, err := r.DeployApp(DeployAppParam{
		TxnBase:         signedBy(creator),
		ApprovalProgram: padded(3000),
		ClearProgram:    "#pragma version 8\nint 1",
	})
	requireRejected(t, err, ledgercore.CodeMaxLenExceeded, ProgramsEvaluated, 0)
	require.Empty(t, r.GetAccount(creator.Address()).CreatedApps)

	// the source is short but the constant does not fit in the program limit
	_, err = r.DeployApp(DeployAppParam{
		TxnBase:         signedBy(creator),
		ApprovalProgram: padded(1020),
		ClearProgram:    "#pragma version 8\nint 1",
	})
	requireRejected(t, err, ledgercore.CodeMaxLenExceeded, ProgramsEvaluated, 0)

	_, err = r.DeployApp(DeployAppParam{
		TxnBase:         signedBy(creator),
		ApprovalProgram: padded(900),
		ClearProgram:    "#pragma version 8\nint 1",
	})
	require.NoError(t, err)

	_, err = r.CreateLsig(padded(3000))
	require.Equal(t, ledgercore.CodeLogicSignatureValidationFailed, CodeOf(err))
	_, err = r.CreateLsig(padded(1000))
	require.Equal(t, ledgercore.CodeLogicSignatureValidationFailed, CodeOf(err))
	_, err = r.CreateLsig(padded(900))
	require.NoError(t, err)
	// args count against the same limit
	_, err = r.CreateLsig(padded(900), make([]byte, 100))
	require.Equal(t, ledgercore.CodeLogicSignatureValidationFailed, CodeOf(err))
}

func TestGroupConstraints(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000, 1_000_000)
	alice, bob := accts[0], accts[1]
	pay := AlgoTransferParam{TxnBase: signedBy(alice), To: bob.Address(), Amount: 1}

	big := make([]ExecParams, r.ConsensusParams().MaxTxGroupSize+1)
	for i := range big {
		big[i] = pay
	}
	_, err := r.ExecuteTx(big...)
	requireRejected(t, err, ledgercore.CodeGroupTooLarge, Received, -1)

	_, err = r.ExecuteTx()
	requireRejected(t, err, ledgercore.CodeInvalidGroup, Received, -1)

	late := pay
	late.Amount = 2
	late.Params.FirstValid = r.Round() + 5
	_, err = r.ExecuteTx(pay, late)
	requireRejected(t, err, ledgercore.CodeInvalidRound, GroupConstraintsChecked, 1)

	r.SetRound(r.Round() + 5)
	_, err = r.ExecuteTx(pay, late)
	require.NoError(t, err)

	cheap := pay
	cheap.Params = TxParams{FlatFee: true, Fee: 500}
	_, err = r.ExecuteTx(cheap)
	requireRejected(t, err, ledgercore.CodeFeesNotEnough, GroupConstraintsChecked, 0)
	_, err = r.ExecuteTx(cheap, AlgoTransferParam{TxnBase: TxnBase{Sign: SignSecretKey{bob}, Params: TxParams{TotalFee: 1500}}, To: alice.Address()})
	require.NoError(t, err)

	self := pay
	self.Params = TxParams{CloseRemainderTo: alice.Address()}
	_, err = r.ExecuteTx(self)
	requireRejected(t, err, ledgercore.CodeInvalidCloseRemainderTo, GroupConstraintsChecked, 0)
}

func TestBuildErrors(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 10_000_000)
	alice := accts[0]

	_, err := r.DeployASA("silver", nil, alice, TxParams{})
	requireRejected(t, err, ledgercore.CodeASADefinitionMissing, Received, 0)
	require.ErrorIs(t, err, ErrASADefinitionMissing)

	type customParam struct{ TxnBase }
	_, err = r.ExecuteTx(customParam{signedBy(alice)})
	requireRejected(t, err, ledgercore.CodeUnsupportedTransactionType, Received, 0)
	require.ErrorIs(t, err, ErrUnsupportedTransactionType)

	_, err = r.ExecuteTx(AlgoTransferParam{To: alice.Address()})
	require.ErrorIs(t, err, ErrMissingSigner)

	keyless := NewAddressAccount(alice.Address(), 0)
	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: signedBy(keyless), To: alice.Address()})
	require.ErrorIs(t, err, ErrSecretKeyMissing)
	require.Equal(t, ledgercore.CodeInvalidSignature, CodeOf(err))

	_, err = r.GetAssetByName("silver")
	require.ErrorIs(t, err, ErrUnknownAsset)
}

func TestRekey(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 5_000_000, 5_000_000)
	alice, bob := accts[0], accts[1]

	// signing for someone else is caught once the ledger knows the authorizer
	_, err := r.ExecuteTx(AlgoTransferParam{TxnBase: TxnBase{From: alice.Address(), Sign: SignSecretKey{bob}}, To: bob.Address(), Amount: 1})
	requireRejected(t, err, ledgercore.CodeInvalidSignature, ProgramsEvaluated, 0)

	_, err = r.ExecuteTx(AlgoTransferParam{
		TxnBase: TxnBase{Sign: SignSecretKey{alice}, Params: TxParams{RekeyTo: bob.Address()}},
		To:      alice.Address(),
	})
	require.NoError(t, err)
	require.Equal(t, bob.Address(), r.GetAccount(alice.Address()).AuthAddr)

	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: signedBy(alice), To: bob.Address(), Amount: 1})
	requireRejected(t, err, ledgercore.CodeInvalidSignature, ProgramsEvaluated, 0)

	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: TxnBase{From: alice.Address(), Sign: SignSecretKey{bob}}, To: bob.Address(), Amount: 1})
	require.NoError(t, err)

	// rekeying back to the sender clears the authorizer
	_, err = r.ExecuteTx(AlgoTransferParam{
		TxnBase: TxnBase{From: alice.Address(), Sign: SignSecretKey{bob}, Params: TxParams{RekeyTo: alice.Address()}},
		To:      alice.Address(),
	})
	require.NoError(t, err)
	require.True(t, r.GetAccount(alice.Address()).AuthAddr.IsZero())
}

const passwordLsig = `#pragma version 8
arg 0
byte "open sesame"
==`

func TestContractAccount(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 1_000_000)
	bob := accts[0]

	lsig, err := r.CreateLsig(passwordLsig, []byte("open sesame"))
	require.NoError(t, err)
	contract := lsig.Address()
	require.NoError(t, r.Fund(contract, 2_000_000))

	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: TxnBase{Sign: SignLogicSignature{Lsig: lsig}}, To: bob.Address(), Amount: 500_000})
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000-500_000-1000), r.GetAccount(contract).Balance)

	wrong, err := r.CreateLsig(passwordLsig, []byte("guess"))
	require.NoError(t, err)
	before := r.Snapshot().Digest()
	_, err = r.ExecuteTx(
		AlgoTransferParam{TxnBase: signedBy(bob), To: contract, Amount: 1},
		AlgoTransferParam{TxnBase: TxnBase{Sign: SignLogicSignature{Lsig: wrong}}, To: bob.Address(), Amount: 500_000},
	)
	requireRejected(t, err, ledgercore.CodeRejectedByLogic, SignatureVerified, 1)
	require.Equal(t, before, r.Snapshot().Digest())

	_, err = r.CreateLsig("#pragma version 9\nint 1")
	require.Equal(t, ledgercore.CodeAssemble, CodeOf(err))
	_, err = r.LoadLogic("#pragma version 8\nnot_an_op")
	require.Equal(t, ledgercore.CodeAssemble, CodeOf(err))
}

func TestDelegatedLsig(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 5_000_000, 1_000_000)
	alice, bob := accts[0], accts[1]

	lsig, err := r.CreateLsig("#pragma version 8\ntxn Amount\nint 5000\n<=")
	require.NoError(t, err)
	require.NoError(t, alice.SignLsig(lsig))
	signer := SignLogicSignature{Lsig: lsig, FromAddr: alice.Address()}

	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: TxnBase{Sign: signer}, To: bob.Address(), Amount: 5000})
	require.NoError(t, err)
	require.Equal(t, uint64(5_000_000-5000-1000), r.GetAccount(alice.Address()).Balance)

	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: TxnBase{Sign: signer}, To: bob.Address(), Amount: 5001})
	requireRejected(t, err, ledgercore.CodeRejectedByLogic, SignatureVerified, 0)

	// bob's delegation does not authorize alice's account
	other, err := r.CreateLsig("#pragma version 8\nint 1")
	require.NoError(t, err)
	require.NoError(t, bob.SignLsig(other))
	_, err = r.ExecuteTx(AlgoTransferParam{TxnBase: TxnBase{Sign: SignLogicSignature{Lsig: other, FromAddr: alice.Address()}}, To: bob.Address(), Amount: 1})
	requireRejected(t, err, ledgercore.CodeLogicSignatureValidationFailed, SignatureVerified, 0)
}

func TestMultisig(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	r, accts := newTestRuntime(t, 0, 0, 0, 1_000_000)
	a, b, c, dest := accts[0], accts[1], accts[2], accts[3]
	signer := SignMultisig{
		Version:   1,
		Threshold: 2,
		PKs:       []crypto.PublicKey{a.PublicKey(), b.PublicKey(), c.PublicKey()},
		Signers:   []*Account{a},
	}
	msigAddr := signer.Address()
	require.False(t, msigAddr.IsZero())
	require.NoError(t, r.Fund(msigAddr, 1_000_000))

	pay := AlgoTransferParam{TxnBase: TxnBase{Sign: signer}, To: dest.Address(), Amount: 10}
	_, err := r.ExecuteTx(pay)
	requireRejected(t, err, ledgercore.CodeInvalidSignature, Received, 0)
	require.ErrorIs(t, err, crypto.ErrThresholdNotMet)

	signer.Signers = []*Account{a, c}
	pay.Sign = signer
	_, err = r.ExecuteTx(pay)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000-10-1000), r.GetAccount(msigAddr).Balance)
	require.Equal(t, uint64(1_000_010), r.GetAccount(dest.Address()).Balance)

	outsider := NewAccount(0)
	signer.Signers = []*Account{a, outsider}
	pay.Sign = signer
	_, err = r.ExecuteTx(pay)
	requireRejected(t, err, ledgercore.CodeInvalidSignature, Received, 0)
}

func TestRejectedGroupsLeaveLedgerUntouched(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		balances := rapid.SliceOfN(rapid.Uint64Range(0, 2_000_000), 3, 3).Draw(t, "balances")
		accts := make([]*Account, len(balances))
		var total uint64
		for i, b := range balances {
			accts[i] = NewAccount(b)
			total += b
		}
		r := New(config.GetDefaultLocal(), accts...)

		n := rapid.IntRange(1, 4).Draw(t, "n")
		group := make([]ExecParams, n)
		var fees uint64
		for i := range group {
			from := accts[rapid.IntRange(0, 2).Draw(t, "from")]
			to := accts[rapid.IntRange(0, 2).Draw(t, "to")]
			amount := rapid.Uint64Range(0, 1_500_000).Draw(t, "amount")
			group[i] = AlgoTransferParam{TxnBase: signedBy(from), To: to.Address(), Amount: amount}
			fees += r.ConsensusParams().MinTxnFee
		}

		before := r.Snapshot().Digest()
		_, err := r.ExecuteTx(group...)
		var after uint64
		for _, a := range accts {
			after += r.GetAccount(a.Address()).Balance
		}
		if err != nil {
			var rerr *Error
			require.True(t, errors.As(err, &rerr))
			require.Equal(t, before, r.Snapshot().Digest())
			require.Equal(t, total, after)
			return
		}
		require.Equal(t, total-fees, after)
	})
}
