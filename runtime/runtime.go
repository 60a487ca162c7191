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

// Package runtime executes transaction groups against an in-memory ledger.
//
// A Runtime owns a ledger.Store. ExecuteTx builds, signs and validates a
// group, runs its programs on a scratch layer and commits the layer only if
// every transaction succeeded:
//
//	Received -> SignatureVerified -> GroupConstraintsChecked -> ProgramsEvaluated -> StateCommitted
//
// A rejected group leaves the store untouched and returns an *Error naming
// the reject code, the failing transaction and the stage it did not reach.
package runtime

import (
	"strings"
	"time"

	"github.com/algorand/go-deadlock"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/data/transactions/logic"
	"github.com/scale-it/algo-builder-sub005/data/transactions/verify"
	"github.com/scale-it/algo-builder-sub005/ledger"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/logging"
)

// Runtime is an in-memory Algorand ledger with a TEAL evaluator. It is safe
// for concurrent use; groups are applied one at a time.
type Runtime struct {
	mu deadlock.Mutex

	store *ledger.Store
	proto config.ConsensusParams
	cfg   config.Local
	log   logging.Logger

	assetNames map[string]basics.AssetIndex
	appNames   map[string]basics.AppIndex
}

// New creates a Runtime whose ledger holds accounts, each funded with the
// balance it was created with.
func New(cfg config.Local, accounts ...*Account) *Runtime {
	proto := config.Simulator()
	r := &Runtime{
		store:      ledger.NewStore(proto, basics.Round(cfg.InitialRound), cfg.InitialTimestamp),
		proto:      proto,
		cfg:        cfg,
		log:        logging.NewLogger(),
		assetNames: make(map[string]basics.AssetIndex),
		appNames:   make(map[string]basics.AppIndex),
	}
	r.log.SetLevel(logging.Level(cfg.BaseLoggerDebugLevel))
	if cfg.EnableMetrics {
		registerMetrics()
	}
	for _, acct := range accounts {
		r.store.PutBalance(acct.Address(), basics.MicroAlgos{Raw: acct.balance})
	}
	return r
}

// SetLogger replaces the runtime's logger.
func (r *Runtime) SetLogger(l logging.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = l
}

// ConsensusParams returns the protocol constants the runtime enforces.
func (r *Runtime) ConsensusParams() config.ConsensusParams {
	return r.proto
}

// ExecuteTx submits params as one atomic group and returns a receipt per
// transaction. On error nothing was written to the ledger.
func (r *Runtime) ExecuteTx(params ...ExecParams) ([]Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	receipts, err := r.executeTx(params)
	groupSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		groupsExecuted.WithLabelValues(err.Stage.String()).Inc()
		groupsRejected.WithLabelValues(err.Code.String()).Inc()
		r.log.With("stage", err.Stage).With("code", err.Code).Debugf("group rejected: %v", err.Err)
		return nil, err
	}
	groupsExecuted.WithLabelValues(StateCommitted.String()).Inc()
	return receipts, nil
}

func (r *Runtime) executeTx(params []ExecParams) ([]Receipt, *Error) {
	group, rerr := r.buildGroup(params)
	if rerr != nil {
		return nil, rerr
	}
	log := r.log.With("group", group[0].Txn.Group.String())
	log.Debugf("received %d transactions", len(group))

	if _, err := verify.TxnGroup(group, r.proto); err != nil {
		return nil, reject(SignatureVerified, err)
	}
	log.Debug("signatures verified")

	if err := ledger.CheckGroup(group, r.proto, r.store.Round()); err != nil {
		return nil, reject(GroupConstraintsChecked, err)
	}
	log.Debug("group constraints checked")

	ep := logic.NewEvalParams(transactions.WrapSignedTxnsWithAD(group), &r.proto)
	if r.cfg.EnableProgramTrace {
		ep.Trace = &strings.Builder{}
	}
	vg, err := r.store.Evaluate(ep)
	if ep.Trace != nil && ep.Trace.Len() > 0 {
		log.Debugf("program trace:\n%s", ep.Trace.String())
	}
	if err != nil {
		return nil, reject(ProgramsEvaluated, err)
	}
	log.Debug("programs evaluated")

	if err := r.store.AddValidatedGroup(vg); err != nil {
		return nil, reject(StateCommitted, err)
	}

	rnd := r.store.Round()
	txns := vg.Txns()
	receipts := make([]Receipt, len(txns))
	for gi := range txns {
		receipts[gi] = makeReceipt(&txns[gi], txns[gi].ID(), rnd, vg.Cost(gi))
		if receipts[gi].Cost > 0 {
			programCost.Observe(float64(receipts[gi].Cost))
		}
		if receipts[gi].ClearStateRejected {
			log.Warnf("clear program of app %d failed for %v, local state removed", txns[gi].Txn.ApplicationID, txns[gi].Txn.Sender)
		}
	}
	r.recordNames(params, receipts)
	log.Debug("state committed")
	return receipts, nil
}

// buildGroup makes, groups and signs the transactions of params.
func (r *Runtime) buildGroup(params []ExecParams) ([]transactions.SignedTxn, *Error) {
	if len(params) == 0 {
		return nil, reject(Received, ledgercore.Reject(ledgercore.CodeInvalidGroup, "empty transaction group"))
	}
	if len(params) > r.proto.MaxTxGroupSize {
		return nil, reject(Received, ledgercore.Reject(ledgercore.CodeGroupTooLarge, "transaction group too large",
			"size", len(params), "max", r.proto.MaxTxGroupSize))
	}

	sp := r.suggestedParams()
	txns := make([]transactions.Transaction, len(params))
	for gi, p := range params {
		if m, ok := p.(ModifyAssetParam); ok {
			current, _, err := r.store.AssetParams(m.AssetID)
			if err != nil {
				e := reject(Received, err)
				e.GroupIndex = gi
				return nil, e
			}
			m.current = current
			p = m
		}
		tx, err := MakeTransaction(p, sp)
		if err != nil {
			e := reject(Received, err)
			e.GroupIndex = gi
			return nil, e
		}
		txns[gi] = tx
	}
	transactions.AssignGroupID(txns)

	group := make([]transactions.SignedTxn, len(txns))
	for gi := range txns {
		stxn, err := params[gi].base().Sign.signTxn(txns[gi])
		if err != nil {
			e := reject(Received, err)
			e.GroupIndex = gi
			return nil, e
		}
		group[gi] = stxn
	}
	return group, nil
}

func (r *Runtime) recordNames(params []ExecParams, receipts []Receipt) {
	for gi, p := range params {
		switch p := p.(type) {
		case DeployASAParam:
			r.log.Infof("asset %q created with id %d", p.Name, receipts[gi].CreatedAssetID)
			if p.Name != "" {
				r.assetNames[p.Name] = receipts[gi].CreatedAssetID
			}
		case DeployAppParam:
			r.log.Infof("app %q created with id %d", p.Name, receipts[gi].CreatedAppID)
			if p.Name != "" {
				r.appNames[p.Name] = receipts[gi].CreatedAppID
			}
		}
	}
}

func (r *Runtime) suggestedParams() SuggestedParams {
	rnd := r.store.Round()
	return SuggestedParams{
		MinFee:     r.proto.MinTxnFee,
		FirstRound: rnd,
		LastRound:  rnd + basics.Round(r.proto.MaxTxnLife),
		GenesisID:  "tealsim-v1",
	}
}

// SuggestedParams returns the defaults ExecuteTx builds transactions with:
// minimum fee and a validity window starting at the current round.
func (r *Runtime) SuggestedParams() SuggestedParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suggestedParams()
}

// Round returns the current round.
func (r *Runtime) Round() basics.Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Round()
}

// SetRound moves the ledger to rnd. The round never advances on its own.
func (r *Runtime) SetRound(rnd basics.Round) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetRound(rnd)
}

// Timestamp returns the LatestTimestamp programs observe.
func (r *Runtime) Timestamp() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Timestamp()
}

// SetTimestamp sets the LatestTimestamp programs observe.
func (r *Runtime) SetTimestamp(ts int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetTimestamp(ts)
}

// SetRoundAndTimestamp sets both clocks at once.
func (r *Runtime) SetRoundAndTimestamp(rnd basics.Round, ts int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetRound(rnd)
	r.store.SetTimestamp(ts)
}

// Fund credits addr with amount microalgos outside of any transaction, as a
// faucet would.
func (r *Runtime) Fund(addr basics.Address, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bal, overflowed := basics.OAdd(r.store.Balance(addr).Raw, amount)
	if overflowed {
		return ledgercore.Reject(ledgercore.CodeLedgerOverflow, "balance overflow", "addr", addr)
	}
	r.store.PutBalance(addr, basics.MicroAlgos{Raw: bal})
	return nil
}

// Snapshot returns a deep copy of the ledger.
func (r *Runtime) Snapshot() *ledger.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Snapshot()
}

// LoadLogic assembles TEAL source and checks that its version is supported.
func (r *Runtime) LoadLogic(src string) (*logic.Program, error) {
	program, err := logic.AssembleString(src)
	if err != nil {
		return nil, err
	}
	if program.Version > r.proto.LogicSigVersion {
		return nil, ledgercore.Reject(ledgercore.CodeVersionMismatch, "program version not supported",
			"version", program.Version, "max", r.proto.LogicSigVersion)
	}
	return program, nil
}

// CreateLsig returns an undelegated logic signature of src with args. Its
// Address is the contract account of the program; Account.SignLsig
// delegates it instead.
func (r *Runtime) CreateLsig(src string, args ...[]byte) (*transactions.LogicSig, error) {
	program, err := r.LoadLogic(src)
	if err != nil {
		return nil, err
	}
	lsig := &transactions.LogicSig{Logic: []byte(src), Args: args}
	if size := program.Size() + lsig.Len() - len(lsig.Logic); uint64(size) > r.proto.LogicSigMaxSize {
		return nil, ledgercore.Reject(ledgercore.CodeLogicSignatureValidationFailed, "logic sig too long",
			"size", size, "max", r.proto.LogicSigMaxSize)
	}
	return lsig, nil
}

// DeployASA creates an asset named name from def and returns its receipt.
func (r *Runtime) DeployASA(name string, def *ASADef, creator *Account, params TxParams) (Receipt, error) {
	receipts, err := r.ExecuteTx(DeployASAParam{
		TxnBase: TxnBase{Sign: SignSecretKey{creator}, Params: params},
		Name:    name,
		ASADef:  def,
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipts[0], nil
}

// DeployApp creates an app and returns its receipt.
func (r *Runtime) DeployApp(p DeployAppParam) (Receipt, error) {
	receipts, err := r.ExecuteTx(p)
	if err != nil {
		return Receipt{}, err
	}
	return receipts[0], nil
}

// OptInToASA opts acct in to an asset.
func (r *Runtime) OptInToASA(aidx basics.AssetIndex, acct *Account, params TxParams) (Receipt, error) {
	receipts, err := r.ExecuteTx(OptInASAParam{
		TxnBase: TxnBase{Sign: SignSecretKey{acct}, Params: params},
		AssetID: aidx,
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipts[0], nil
}

// OptInToApp opts acct in to an app.
func (r *Runtime) OptInToApp(aidx basics.AppIndex, acct *Account, params TxParams) (Receipt, error) {
	receipts, err := r.ExecuteTx(OptInToAppParam{
		TxnBase: TxnBase{Sign: SignSecretKey{acct}, Params: params},
		AppID:   aidx,
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipts[0], nil
}

// GetAccount returns a snapshot of addr. Accounts that were never funded
// come back empty.
func (r *Runtime) GetAccount(addr basics.Address) AccountStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	return makeAccountStore(addr, r.store.Account(addr), r.store.MinBalance(addr))
}

// GetGlobalState reads key from the global state of app.
func (r *Runtime) GetGlobalState(app basics.AppIndex, key string) (basics.TealValue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tv, ok, err := r.store.GlobalState(app, key)
	if err != nil {
		return basics.TealValue{}, false
	}
	return tv, ok
}

// GetLocalState reads key from addr's local state in app.
func (r *Runtime) GetLocalState(app basics.AppIndex, addr basics.Address, key string) (basics.TealValue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tv, ok, err := r.store.LocalState(addr, app, key)
	if err != nil {
		return basics.TealValue{}, false
	}
	return tv, ok
}

// GetAssetDef returns the parameters of an asset.
func (r *Runtime) GetAssetDef(aidx basics.AssetIndex) (basics.AssetParams, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	params, _, err := r.store.AssetParams(aidx)
	return params, err
}

// GetAssetHolding returns addr's holding of an asset.
func (r *Runtime) GetAssetHolding(aidx basics.AssetIndex, addr basics.Address) (basics.AssetHolding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.store.AssetHolding(addr, aidx)
	if !ok {
		return basics.AssetHolding{}, ledgercore.Reject(ledgercore.CodeAssetNotOptedIn, "account not opted in to asset",
			"addr", addr, "asset", uint64(aidx))
	}
	return h, nil
}

// GetApp returns the parameters of an app.
func (r *Runtime) GetApp(app basics.AppIndex) (basics.AppParams, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	params, _, err := r.store.AppParams(app)
	return params, err
}

// GetAssetByName returns the id of the asset deployed under name.
func (r *Runtime) GetAssetByName(name string) (basics.AssetIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aidx, ok := r.assetNames[name]
	if !ok {
		return 0, buildErr(ledgercore.CodeAssetNotFound, ErrUnknownAsset)
	}
	return aidx, nil
}

// GetAppByName returns the id of the app deployed under name.
func (r *Runtime) GetAppByName(name string) (basics.AppIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aidx, ok := r.appNames[name]
	if !ok {
		return 0, buildErr(ledgercore.CodeAppNotFound, ErrUnknownApp)
	}
	return aidx, nil
}

// GetBox returns the contents of an app's box.
func (r *Runtime) GetBox(app basics.AppIndex, name string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Box(app, name)
}
