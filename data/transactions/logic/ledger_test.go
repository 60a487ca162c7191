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

package logic

import (
	"errors"
	"fmt"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

type balanceRecord struct {
	addr     basics.Address
	auth     basics.Address
	balance  uint64
	locals   map[basics.AppIndex]basics.TealKeyValue
	holdings map[basics.AssetIndex]basics.AssetHolding
}

func newBalanceRecord(addr basics.Address, balance uint64) *balanceRecord {
	return &balanceRecord{
		addr:     addr,
		balance:  balance,
		locals:   make(map[basics.AppIndex]basics.TealKeyValue),
		holdings: make(map[basics.AssetIndex]basics.AssetHolding),
	}
}

// In our test ledger, we don't store the creatables with their
// creators, so we need to carry the creator around with them.
type appParams struct {
	basics.AppParams
	Creator basics.Address

	boxes map[string][]byte
}

type asaParams struct {
	basics.AssetParams
	Creator basics.Address
}

// Ledger is a fake ledger that is "good enough" to reasonably test AVM
// programs. Writes go straight into the maps; there is no rollback.
type Ledger struct {
	balances     map[basics.Address]*balanceRecord
	applications map[basics.AppIndex]*appParams
	assets       map[basics.AssetIndex]*asaParams
	rnd          basics.Round
	ts           int64
}

// NewLedger constructs a Ledger with the given balances.
func NewLedger(balances map[basics.Address]uint64) *Ledger {
	l := &Ledger{
		balances:     make(map[basics.Address]*balanceRecord),
		applications: make(map[basics.AppIndex]*appParams),
		assets:       make(map[basics.AssetIndex]*asaParams),
		rnd:          basics.Round(1000),
		ts:           1700000000,
	}
	for addr, balance := range balances {
		l.NewAccount(addr, balance)
	}
	return l
}

func (l *Ledger) record(addr basics.Address) *balanceRecord {
	br, ok := l.balances[addr]
	if !ok {
		br = newBalanceRecord(addr, 0)
		l.balances[addr] = br
	}
	return br
}

// NewAccount adds a new account with a given balance to the Ledger.
func (l *Ledger) NewAccount(addr basics.Address, balance uint64) {
	l.balances[addr] = newBalanceRecord(addr, balance)
}

// NewApp adds a new app to the Ledger. Most tests only set up the id and
// schema, since they run many different programs against it.
func (l *Ledger) NewApp(creator basics.Address, appID basics.AppIndex, params basics.AppParams) {
	params = params.Clone()
	if params.GlobalState == nil {
		params.GlobalState = make(basics.TealKeyValue)
	}
	l.applications[appID] = &appParams{Creator: creator, AppParams: params}
}

// NewAsset adds an asset with the given id and params to the ledger.
func (l *Ledger) NewAsset(creator basics.Address, assetID basics.AssetIndex, params basics.AssetParams) {
	l.assets[assetID] = &asaParams{Creator: creator, AssetParams: params}
	l.record(creator).holdings[assetID] = basics.AssetHolding{Amount: params.Total, Frozen: params.DefaultFrozen}
}

const firstTestID = 5000

func (l *Ledger) nextID() uint64 {
	for try := uint64(firstTestID); ; try++ {
		if _, ok := l.assets[basics.AssetIndex(try)]; ok {
			continue
		}
		if _, ok := l.applications[basics.AppIndex(try)]; ok {
			continue
		}
		return try
	}
}

// NewHolding sets the ASA balance of a given account.
func (l *Ledger) NewHolding(addr basics.Address, assetID uint64, amount uint64, frozen bool) {
	l.record(addr).holdings[basics.AssetIndex(assetID)] = basics.AssetHolding{Amount: amount, Frozen: frozen}
}

// NewLocals essentially "opts in" an address to an app id.
func (l *Ledger) NewLocals(addr basics.Address, appID uint64) {
	l.record(addr).locals[basics.AppIndex(appID)] = basics.TealKeyValue{}
}

// NewLocal sets a local value of an app on an address
func (l *Ledger) NewLocal(addr basics.Address, appID uint64, key string, value basics.TealValue) {
	l.balances[addr].locals[basics.AppIndex(appID)][key] = value
}

// NewGlobal sets a global value for an app
func (l *Ledger) NewGlobal(appID uint64, key string, value basics.TealValue) {
	l.applications[basics.AppIndex(appID)].GlobalState[key] = value
}

// Rekey sets the authAddr for an address.
func (l *Ledger) Rekey(addr basics.Address, auth basics.Address) {
	if br, ok := l.balances[addr]; ok {
		br.auth = auth
	}
}

// Round returns a fixed round.
func (l *Ledger) Round() basics.Round {
	return l.rnd
}

// LatestTimestamp returns a fixed timestamp.
func (l *Ledger) LatestTimestamp() int64 {
	return l.ts
}

// AccountData returns a version of the account that is good enough for
// satisfying AVM needs. (balance, calc minbalance, and authaddr)
func (l *Ledger) AccountData(addr basics.Address) (basics.AccountData, error) {
	ad := basics.AccountData{
		AssetParams:    make(map[basics.AssetIndex]basics.AssetParams),
		Assets:         make(map[basics.AssetIndex]basics.AssetHolding),
		AppLocalStates: make(map[basics.AppIndex]basics.AppLocalState),
		AppParams:      make(map[basics.AppIndex]basics.AppParams),
	}
	// br may be missing if addr doesn't exist.  That's fine for our needs.
	br, ok := l.balances[addr]
	if ok {
		ad.MicroAlgos = basics.MicroAlgos{Raw: br.balance}
		ad.AuthAddr = br.auth
		for a, h := range br.holdings {
			ad.Assets[a] = h
		}
		for a, kv := range br.locals {
			schema := basics.StateSchema{}
			if app, ok := l.applications[a]; ok {
				schema = app.LocalStateSchema
			}
			ad.AppLocalStates[a] = basics.AppLocalState{Schema: schema, KeyValue: kv}
			ad.TotalAppSchema = ad.TotalAppSchema.AddSchema(schema)
		}
	}
	for a, p := range l.assets {
		if p.Creator == addr {
			ad.AssetParams[a] = p.AssetParams
		}
	}
	for a, p := range l.applications {
		if p.Creator == addr {
			ad.AppParams[a] = p.AppParams
			ad.TotalAppSchema = ad.TotalAppSchema.AddSchema(p.GlobalStateSchema)
			ad.TotalExtraAppPages += p.ExtraProgramPages
		}
	}
	return ad, nil
}

// Authorizer returns the address that must authorize txns from a
// given address.  It's either the address itself, or the value it has
// been rekeyed to.
func (l *Ledger) Authorizer(addr basics.Address) (basics.Address, error) {
	br, ok := l.balances[addr]
	if !ok || br.auth.IsZero() {
		return addr, nil
	}
	return br.auth, nil
}

// MinBalance computes the minimum balance from AccountData.
func (l *Ledger) MinBalance(addr basics.Address, proto *config.ConsensusParams) (basics.MicroAlgos, error) {
	ad, err := l.AccountData(addr)
	if err != nil {
		return basics.MicroAlgos{}, err
	}
	return proto.MinBalanceReq(ad), nil
}

// GetGlobal returns the current value of a global in an app.
func (l *Ledger) GetGlobal(appIdx basics.AppIndex, key string) (basics.TealValue, bool, error) {
	params, ok := l.applications[appIdx]
	if !ok {
		return basics.TealValue{}, false, fmt.Errorf("no such app %d", appIdx)
	}
	val, ok := params.GlobalState[key]
	return val, ok, nil
}

// SetGlobal sets a global.
func (l *Ledger) SetGlobal(appIdx basics.AppIndex, key string, value basics.TealValue) error {
	params, ok := l.applications[appIdx]
	if !ok {
		return fmt.Errorf("no such app %d", appIdx)
	}
	params.GlobalState[key] = value
	return nil
}

// DelGlobal deletes a global.
func (l *Ledger) DelGlobal(appIdx basics.AppIndex, key string) error {
	params, ok := l.applications[appIdx]
	if !ok {
		return fmt.Errorf("no such app %d", appIdx)
	}
	delete(params.GlobalState, key)
	return nil
}

// NewBox creates a box holding value.
func (l *Ledger) NewBox(appIdx basics.AppIndex, key string, value []byte, appAddr basics.Address) error {
	params, ok := l.applications[appIdx]
	if !ok {
		return fmt.Errorf("no such app %d", appIdx)
	}
	if params.boxes == nil {
		params.boxes = make(map[string][]byte)
	}
	if _, ok = params.boxes[key]; ok {
		return fmt.Errorf("box already exists %#v", key)
	}
	params.boxes[key] = append([]byte(nil), value...)
	return nil
}

// GetBox returns a box, and whether it exists.
func (l *Ledger) GetBox(appIdx basics.AppIndex, key string) ([]byte, bool, error) {
	params, ok := l.applications[appIdx]
	if !ok {
		return nil, false, fmt.Errorf("no such app %d", appIdx)
	}
	box, ok := params.boxes[key]
	return box, ok, nil
}

// SetBox replaces the contents of an existing box.
func (l *Ledger) SetBox(appIdx basics.AppIndex, key string, value []byte) error {
	params, ok := l.applications[appIdx]
	if !ok {
		return fmt.Errorf("no such app %d", appIdx)
	}
	box, ok := params.boxes[key]
	if !ok {
		return fmt.Errorf("no such box %#v", key)
	}
	if len(box) != len(value) {
		return fmt.Errorf("wrong box size %#v %d != %d", key, len(box), len(value))
	}
	params.boxes[key] = append([]byte(nil), value...)
	return nil
}

// DelBox deletes a box, reporting whether it existed.
func (l *Ledger) DelBox(appIdx basics.AppIndex, key string, appAddr basics.Address) (bool, error) {
	params, ok := l.applications[appIdx]
	if !ok {
		return false, fmt.Errorf("no such app %d", appIdx)
	}
	if _, ok := params.boxes[key]; !ok {
		return false, nil
	}
	delete(params.boxes, key)
	return true, nil
}

// GetLocal returns the current value bound to a local key.
func (l *Ledger) GetLocal(addr basics.Address, appIdx basics.AppIndex, key string) (basics.TealValue, bool, error) {
	br, ok := l.balances[addr]
	if !ok {
		return basics.TealValue{}, false, fmt.Errorf("no such address")
	}
	tkv, ok := br.locals[appIdx]
	if !ok {
		return basics.TealValue{}, false, fmt.Errorf("account %s is not opted into %d", addr, appIdx)
	}
	val, ok := tkv[key]
	return val, ok, nil
}

// SetLocal sets the value bound to a local key.
func (l *Ledger) SetLocal(addr basics.Address, appIdx basics.AppIndex, key string, value basics.TealValue) error {
	br, ok := l.balances[addr]
	if !ok {
		return fmt.Errorf("no such address")
	}
	tkv, ok := br.locals[appIdx]
	if !ok {
		return fmt.Errorf("account %s is not opted into %d", addr, appIdx)
	}
	tkv[key] = value
	return nil
}

// DelLocal deletes a local key.
func (l *Ledger) DelLocal(addr basics.Address, appIdx basics.AppIndex, key string) error {
	br, ok := l.balances[addr]
	if !ok {
		return fmt.Errorf("no such address")
	}
	tkv, ok := br.locals[appIdx]
	if !ok {
		return fmt.Errorf("account %s is not opted into %d", addr, appIdx)
	}
	delete(tkv, key)
	return nil
}

// OptedIn returns whether an Address has opted into the app (usually
// from NewLocals, but potentially from executing AVM inner
// transactions.
func (l *Ledger) OptedIn(addr basics.Address, appIdx basics.AppIndex) (bool, error) {
	br, ok := l.balances[addr]
	if !ok {
		return false, nil
	}
	_, ok = br.locals[appIdx]
	return ok, nil
}

// AssetHolding gives the amount of an ASA held by an account, or
// error if the account is not opted into the asset.
func (l *Ledger) AssetHolding(addr basics.Address, assetID basics.AssetIndex) (basics.AssetHolding, error) {
	if br, ok := l.balances[addr]; ok {
		if asset, ok := br.holdings[assetID]; ok {
			return asset, nil
		}
		return basics.AssetHolding{}, fmt.Errorf("no asset for account")
	}
	return basics.AssetHolding{}, fmt.Errorf("no such address")
}

// AssetParams gives the parameters of an ASA if it exists
func (l *Ledger) AssetParams(assetID basics.AssetIndex) (basics.AssetParams, basics.Address, error) {
	if asset, ok := l.assets[assetID]; ok {
		return asset.AssetParams, asset.Creator, nil
	}
	return basics.AssetParams{}, basics.Address{}, fmt.Errorf("no such asset")
}

// AppParams gives the parameters of an App if it exists
func (l *Ledger) AppParams(appID basics.AppIndex) (basics.AppParams, basics.Address, error) {
	if app, ok := l.applications[appID]; ok {
		return app.AppParams, app.Creator, nil
	}
	return basics.AppParams{}, basics.Address{}, fmt.Errorf("no such app %d", appID)
}

func (l *Ledger) move(from basics.Address, to basics.Address, amount uint64) error {
	fbr := l.record(from)
	tbr := l.record(to)
	if fbr.balance < amount {
		return fmt.Errorf("insufficient balance")
	}
	fbr.balance -= amount
	tbr.balance += amount
	return nil
}

func (l *Ledger) rekey(tx *transactions.Transaction) {
	if tx.RekeyTo.IsZero() {
		return
	}
	br := l.record(tx.Sender)
	if tx.RekeyTo == tx.Sender {
		br.auth = basics.Address{}
	} else {
		br.auth = tx.RekeyTo
	}
}

func (l *Ledger) pay(from basics.Address, pay transactions.PaymentTxnFields) error {
	err := l.move(from, pay.Receiver, pay.Amount.Raw)
	if err != nil {
		return err
	}
	if !pay.CloseRemainderTo.IsZero() {
		sbr := l.balances[from]
		if len(sbr.holdings) > 0 {
			return fmt.Errorf("unable to close, Sender (%s) has holdings", from)
		}
		if len(sbr.locals) > 0 {
			return fmt.Errorf("unable to close, Sender (%s) is opted in to apps", from)
		}
		if remainder := sbr.balance; remainder > 0 {
			return l.move(from, pay.CloseRemainderTo, remainder)
		}
	}
	return nil
}

func (l *Ledger) axfer(from basics.Address, xfer transactions.AssetTransferTxnFields) error {
	to := xfer.AssetReceiver
	aid := xfer.XferAsset
	amount := xfer.AssetAmount

	fbr := l.record(from)
	fholding, ok := fbr.holdings[aid]
	if !ok {
		if from == to && amount == 0 {
			// opt in
			if params, exists := l.assets[aid]; exists {
				fbr.holdings[aid] = basics.AssetHolding{Frozen: params.DefaultFrozen}
				return nil
			}
			return fmt.Errorf("asset (%d) does not exist", aid)
		}
		return fmt.Errorf("sender (%s) not opted in to %d", from, aid)
	}
	if fholding.Frozen {
		return fmt.Errorf("sender (%s) is frozen for %d", from, aid)
	}
	tbr := l.record(to)
	tholding, ok := tbr.holdings[aid]
	if !ok && amount > 0 {
		return fmt.Errorf("receiver (%s) not opted in to %d", to, aid)
	}
	if fholding.Amount < amount {
		return fmt.Errorf("insufficient balance")
	}
	if amount > 0 && from != to {
		fholding.Amount -= amount
		fbr.holdings[aid] = fholding
		tholding.Amount += amount
		tbr.holdings[aid] = tholding
	}
	if closeTo := xfer.AssetCloseTo; !closeTo.IsZero() {
		cbr := l.record(closeTo)
		cholding, ok := cbr.holdings[aid]
		if !ok {
			return fmt.Errorf("close-to (%s) not opted in to %d", closeTo, aid)
		}
		delete(fbr.holdings, aid)
		cholding.Amount += fholding.Amount
		cbr.holdings[aid] = cholding
	}
	return nil
}

func (l *Ledger) acfg(from basics.Address, cfg transactions.AssetConfigTxnFields, ad *transactions.ApplyData) error {
	if cfg.ConfigAsset == 0 {
		aid := basics.AssetIndex(l.nextID())
		l.NewAsset(from, aid, cfg.AssetParams)
		ad.ConfigAsset = aid
		return nil
	}
	// This is just a mock.  We don't check all the rules about
	// not setting fields that have been zeroed.
	asa, ok := l.assets[cfg.ConfigAsset]
	if !ok {
		return fmt.Errorf("asset (%d) does not exist", cfg.ConfigAsset)
	}
	asa.AssetParams = cfg.AssetParams
	return nil
}

func (l *Ledger) afrz(from basics.Address, frz transactions.AssetFreezeTxnFields) error {
	aid := frz.FreezeAsset
	params, ok := l.assets[aid]
	if !ok {
		return fmt.Errorf("asset (%d) does not exist", aid)
	}
	if params.Freeze != from {
		return fmt.Errorf("asset (%d) can not be frozen by %s", aid, from)
	}
	br, ok := l.balances[frz.FreezeAccount]
	if !ok {
		return fmt.Errorf("%s does not hold asset (%d)", frz.FreezeAccount, aid)
	}
	holding, ok := br.holdings[aid]
	if !ok {
		return fmt.Errorf("%s does not hold asset (%d)", frz.FreezeAccount, aid)
	}
	holding.Frozen = frz.AssetFrozen
	br.holdings[aid] = holding
	return nil
}

func (l *Ledger) appl(from basics.Address, appl transactions.ApplicationCallTxnFields, ad *transactions.ApplyData, gi int, ep *EvalParams) error {
	aid := appl.ApplicationID
	if aid == 0 {
		aid = basics.AppIndex(l.nextID())
		l.NewApp(from, aid, basics.AppParams{
			ApprovalProgram:   appl.ApprovalProgram,
			ClearStateProgram: appl.ClearStateProgram,
			StateSchemas: basics.StateSchemas{
				LocalStateSchema:  appl.LocalStateSchema,
				GlobalStateSchema: appl.GlobalStateSchema,
			},
			ExtraProgramPages: appl.ExtraProgramPages,
		})
		ad.ApplicationID = aid
	}

	if appl.OnCompletion == transactions.ClearStateOC {
		return errors.New("not implemented in test ledger")
	}

	if appl.OnCompletion == transactions.OptInOC {
		l.record(from).locals[aid] = basics.TealKeyValue{}
	}

	params, ok := l.applications[aid]
	if !ok {
		return errors.New("no application")
	}
	pass, cx, err := EvalContract(params.ApprovalProgram, gi, aid, ep)
	if err != nil {
		return err
	}
	if !pass {
		return errors.New("approval program failed")
	}
	ad.EvalDelta = cx.txn.EvalDelta

	switch appl.OnCompletion {
	case transactions.CloseOutOC:
		br := l.record(from)
		if _, ok := br.locals[aid]; !ok {
			return errors.New("not opted in")
		}
		delete(br.locals, aid)
	case transactions.DeleteApplicationOC:
		delete(l.applications, aid)
	case transactions.UpdateApplicationOC:
		params.ApprovalProgram = appl.ApprovalProgram
		params.ClearStateProgram = appl.ClearStateProgram
	}
	return nil
}

// Perform causes txn to "occur" against the ledger. Fees are burned.
func (l *Ledger) Perform(gi int, ep *EvalParams) error {
	txn := &ep.TxnGroup[gi]
	br := l.record(txn.Txn.Sender)
	if br.balance < txn.Txn.Fee.Raw {
		return fmt.Errorf("insufficient balance for fee")
	}
	br.balance -= txn.Txn.Fee.Raw

	l.rekey(&txn.Txn)

	switch txn.Txn.Type {
	case protocol.PaymentTx:
		return l.pay(txn.Txn.Sender, txn.Txn.PaymentTxnFields)
	case protocol.AssetTransferTx:
		return l.axfer(txn.Txn.Sender, txn.Txn.AssetTransferTxnFields)
	case protocol.AssetConfigTx:
		return l.acfg(txn.Txn.Sender, txn.Txn.AssetConfigTxnFields, &txn.ApplyData)
	case protocol.AssetFreezeTx:
		return l.afrz(txn.Txn.Sender, txn.Txn.AssetFreezeTxnFields)
	case protocol.ApplicationCallTx:
		return l.appl(txn.Txn.Sender, txn.Txn.ApplicationCallTxnFields, &txn.ApplyData, gi, ep)
	case protocol.KeyRegistrationTx:
		return nil // For now, presume success in test ledger
	default:
		return fmt.Errorf("%s txn in AVM", txn.Txn.Type)
	}
}

var _ LedgerForLogic = (*Ledger)(nil)
