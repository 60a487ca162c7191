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
	"maps"
	"slices"

	"github.com/algorand/avm-abi/apps"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// Store is the committed state of the simulated chain: every account with
// its assets and apps, the creator of each live creatable, app boxes, the
// creatable counter and the clock. Changes reach it only through commit of a
// fully evaluated group; everything else reads from it.
//
// Store is not safe for concurrent use; the runtime serializes access.
type Store struct {
	proto config.ConsensusParams

	accounts   map[basics.Address]basics.AccountData
	creatables map[basics.CreatableIndex]basics.CreatableLocator
	boxes      map[string][]byte

	// lastIdx is the most recently allocated asset or app index. Assets and
	// apps share one index space.
	lastIdx basics.CreatableIndex

	rnd basics.Round
	ts  int64

	// version counts commits, so that a stale ValidatedGroup is refused.
	version uint64

	metrics *metricsTracker
}

// NewStore returns an empty Store at round rnd with timestamp ts.
func NewStore(proto config.ConsensusParams, rnd basics.Round, ts int64) *Store {
	return &Store{
		proto:      proto,
		accounts:   make(map[basics.Address]basics.AccountData),
		creatables: make(map[basics.CreatableIndex]basics.CreatableLocator),
		boxes:      make(map[string][]byte),
		rnd:        rnd,
		ts:         ts,
		metrics:    defaultMetrics,
	}
}

// ConsensusParams returns the protocol the store is checked against.
func (s *Store) ConsensusParams() config.ConsensusParams {
	return s.proto
}

// Round returns the current round.
func (s *Store) Round() basics.Round {
	return s.rnd
}

// SetRound moves the clock to rnd. Rounds never advance on their own.
func (s *Store) SetRound(rnd basics.Round) {
	s.rnd = rnd
	s.version++
	s.metrics.round.Set(float64(rnd))
}

// Timestamp returns the latest block timestamp.
func (s *Store) Timestamp() int64 {
	return s.ts
}

// SetTimestamp sets the latest block timestamp.
func (s *Store) SetTimestamp(ts int64) {
	s.ts = ts
	s.version++
}

// Account returns a copy of the account; unknown accounts are empty.
func (s *Store) Account(addr basics.Address) basics.AccountData {
	return s.accounts[addr].Clone()
}

// PutAccount replaces an account wholesale. An empty record deletes it.
// Creatables the account holds params for are registered as created by it.
func (s *Store) PutAccount(addr basics.Address, data basics.AccountData) {
	if old, ok := s.accounts[addr]; ok {
		for aidx := range old.AssetParams {
			delete(s.creatables, basics.CreatableIndex(aidx))
		}
		for aidx := range old.AppParams {
			delete(s.creatables, basics.CreatableIndex(aidx))
		}
	}
	s.version++
	if data.IsZero() {
		delete(s.accounts, addr)
		return
	}
	data = data.Clone()
	s.accounts[addr] = data
	for aidx := range data.AssetParams {
		s.registerCreatable(basics.CreatableIndex(aidx), basics.AssetCreatable, addr)
	}
	for aidx := range data.AppParams {
		s.registerCreatable(basics.CreatableIndex(aidx), basics.AppCreatable, addr)
	}
}

func (s *Store) registerCreatable(cidx basics.CreatableIndex, ctype basics.CreatableType, creator basics.Address) {
	s.creatables[cidx] = basics.CreatableLocator{Type: ctype, Creator: creator, Index: cidx}
	if cidx > s.lastIdx {
		s.lastIdx = cidx
	}
}

// Accounts lists every account with state, in address order.
func (s *Store) Accounts() []basics.Address {
	addrs := slices.Collect(maps.Keys(s.accounts))
	slices.SortFunc(addrs, compareAddr)
	return addrs
}

func compareAddr(a, b basics.Address) int {
	return slices.Compare(a[:], b[:])
}

// Balance returns the MicroAlgos held by addr.
func (s *Store) Balance(addr basics.Address) basics.MicroAlgos {
	return s.accounts[addr].MicroAlgos
}

// PutBalance sets the MicroAlgos held by addr, creating the account.
func (s *Store) PutBalance(addr basics.Address, amount basics.MicroAlgos) {
	data := s.accounts[addr].Clone()
	data.MicroAlgos = amount
	s.PutAccount(addr, data)
}

// MinBalance returns the minimum balance addr must keep.
func (s *Store) MinBalance(addr basics.Address) basics.MicroAlgos {
	return s.proto.MinBalanceReq(s.accounts[addr])
}

// Creator returns the account that created cidx, if it still exists.
func (s *Store) Creator(cidx basics.CreatableIndex, ctype basics.CreatableType) (basics.Address, bool) {
	loc, ok := s.creatables[cidx]
	if !ok || loc.Type != ctype {
		return basics.Address{}, false
	}
	return loc.Creator, true
}

// AssetParams returns the definition and creator of an asset.
func (s *Store) AssetParams(aidx basics.AssetIndex) (basics.AssetParams, basics.Address, error) {
	creator, ok := s.Creator(basics.CreatableIndex(aidx), basics.AssetCreatable)
	if !ok {
		return basics.AssetParams{}, basics.Address{}, ledgercore.Reject(ledgercore.CodeAssetNotFound, "asset not found", "asset", uint64(aidx))
	}
	return s.accounts[creator].AssetParams[aidx], creator, nil
}

// PutAssetParams stores the definition of an asset owned by creator,
// registering it if it is new.
func (s *Store) PutAssetParams(creator basics.Address, aidx basics.AssetIndex, params basics.AssetParams) error {
	if owner, ok := s.Creator(basics.CreatableIndex(aidx), basics.AssetCreatable); ok && owner != creator {
		return ledgercore.Reject(ledgercore.CodeInvalidTransactionParams, "asset belongs to another account", "asset", uint64(aidx))
	}
	data := s.accounts[creator].Clone()
	if data.AssetParams == nil {
		data.AssetParams = make(map[basics.AssetIndex]basics.AssetParams)
	}
	data.AssetParams[aidx] = params
	s.PutAccount(creator, data)
	return nil
}

// DeleteAssetParams removes an asset definition.
func (s *Store) DeleteAssetParams(aidx basics.AssetIndex) error {
	_, creator, err := s.AssetParams(aidx)
	if err != nil {
		return err
	}
	data := s.accounts[creator].Clone()
	delete(data.AssetParams, aidx)
	s.PutAccount(creator, data)
	return nil
}

// AssetHolding returns the holding of aidx by addr, if addr opted in.
func (s *Store) AssetHolding(addr basics.Address, aidx basics.AssetIndex) (basics.AssetHolding, bool) {
	h, ok := s.accounts[addr].Assets[aidx]
	return h, ok
}

// PutAssetHolding writes the holding of an existing asset.
func (s *Store) PutAssetHolding(addr basics.Address, aidx basics.AssetIndex, holding basics.AssetHolding) error {
	if _, ok := s.Creator(basics.CreatableIndex(aidx), basics.AssetCreatable); !ok {
		return ledgercore.Reject(ledgercore.CodeAssetNotFound, "asset not found", "asset", uint64(aidx))
	}
	data := s.accounts[addr].Clone()
	if data.Assets == nil {
		data.Assets = make(map[basics.AssetIndex]basics.AssetHolding)
	}
	data.Assets[aidx] = holding
	s.PutAccount(addr, data)
	return nil
}

// DeleteAssetHolding removes addr's slot for aidx.
func (s *Store) DeleteAssetHolding(addr basics.Address, aidx basics.AssetIndex) error {
	if _, ok := s.AssetHolding(addr, aidx); !ok {
		return ledgercore.Reject(ledgercore.CodeAssetNotOptedIn, "account is not opted in to asset", "addr", addr, "asset", uint64(aidx))
	}
	data := s.accounts[addr].Clone()
	delete(data.Assets, aidx)
	s.PutAccount(addr, data)
	return nil
}

// AppParams returns the params, including global state, and the creator of an app.
func (s *Store) AppParams(aidx basics.AppIndex) (basics.AppParams, basics.Address, error) {
	creator, ok := s.Creator(basics.CreatableIndex(aidx), basics.AppCreatable)
	if !ok {
		return basics.AppParams{}, basics.Address{}, ledgercore.Reject(ledgercore.CodeAppNotFound, "app not found", "app", uint64(aidx))
	}
	params := s.accounts[creator].AppParams[aidx]
	return params.Clone(), creator, nil
}

// PutAppParams stores the params of an app owned by creator, registering it
// if it is new.
func (s *Store) PutAppParams(creator basics.Address, aidx basics.AppIndex, params basics.AppParams) error {
	if owner, ok := s.Creator(basics.CreatableIndex(aidx), basics.AppCreatable); ok && owner != creator {
		return ledgercore.Reject(ledgercore.CodeInvalidTransactionParams, "app belongs to another account", "app", uint64(aidx))
	}
	data := s.accounts[creator].Clone()
	if data.AppParams == nil {
		data.AppParams = make(map[basics.AppIndex]basics.AppParams)
	}
	old, existed := data.AppParams[aidx]
	if existed {
		data.TotalAppSchema = data.TotalAppSchema.SubSchema(old.GlobalStateSchema)
		data.TotalExtraAppPages -= old.ExtraProgramPages
	}
	data.TotalAppSchema = data.TotalAppSchema.AddSchema(params.GlobalStateSchema)
	data.TotalExtraAppPages += params.ExtraProgramPages
	data.AppParams[aidx] = params.Clone()
	s.PutAccount(creator, data)
	return nil
}

// DeleteAppParams removes an app; local states opted in to it remain.
func (s *Store) DeleteAppParams(aidx basics.AppIndex) error {
	params, creator, err := s.AppParams(aidx)
	if err != nil {
		return err
	}
	data := s.accounts[creator].Clone()
	data.TotalAppSchema = data.TotalAppSchema.SubSchema(params.GlobalStateSchema)
	data.TotalExtraAppPages -= params.ExtraProgramPages
	delete(data.AppParams, aidx)
	s.PutAccount(creator, data)
	return nil
}

// GlobalState returns a global key of an app.
func (s *Store) GlobalState(aidx basics.AppIndex, key string) (basics.TealValue, bool, error) {
	params, _, err := s.AppParams(aidx)
	if err != nil {
		return basics.TealValue{}, false, err
	}
	tv, ok := params.GlobalState[key]
	return tv, ok, nil
}

// AppLocalState returns addr's local state for aidx, if addr opted in.
func (s *Store) AppLocalState(addr basics.Address, aidx basics.AppIndex) (basics.AppLocalState, bool) {
	ls, ok := s.accounts[addr].AppLocalStates[aidx]
	if !ok {
		return basics.AppLocalState{}, false
	}
	return ls.Clone(), true
}

// PutAppLocalState writes addr's local state for aidx.
func (s *Store) PutAppLocalState(addr basics.Address, aidx basics.AppIndex, state basics.AppLocalState) {
	data := s.accounts[addr].Clone()
	if data.AppLocalStates == nil {
		data.AppLocalStates = make(map[basics.AppIndex]basics.AppLocalState)
	}
	if old, ok := data.AppLocalStates[aidx]; ok {
		data.TotalAppSchema = data.TotalAppSchema.SubSchema(old.Schema)
	}
	data.TotalAppSchema = data.TotalAppSchema.AddSchema(state.Schema)
	data.AppLocalStates[aidx] = state.Clone()
	s.PutAccount(addr, data)
}

// DeleteAppLocalState removes addr's local state for aidx.
func (s *Store) DeleteAppLocalState(addr basics.Address, aidx basics.AppIndex) error {
	old, ok := s.AppLocalState(addr, aidx)
	if !ok {
		return ledgercore.Reject(ledgercore.CodeAppNotOptedIn, "account is not opted in to app", "addr", addr, "app", uint64(aidx))
	}
	data := s.accounts[addr].Clone()
	data.TotalAppSchema = data.TotalAppSchema.SubSchema(old.Schema)
	delete(data.AppLocalStates, aidx)
	s.PutAccount(addr, data)
	return nil
}

// LocalState returns a local key of addr for aidx.
func (s *Store) LocalState(addr basics.Address, aidx basics.AppIndex, key string) (basics.TealValue, bool, error) {
	ls, ok := s.AppLocalState(addr, aidx)
	if !ok {
		return basics.TealValue{}, false, ledgercore.Reject(ledgercore.CodeAppNotOptedIn, "account is not opted in to app", "addr", addr, "app", uint64(aidx))
	}
	tv, ok := ls.KeyValue[key]
	return tv, ok, nil
}

// OptedInAssets lists the assets addr holds a slot for, in index order.
func (s *Store) OptedInAssets(addr basics.Address) []basics.AssetIndex {
	return sortedKeys(s.accounts[addr].Assets)
}

// OptedInApps lists the apps addr has local state for, in index order.
func (s *Store) OptedInApps(addr basics.Address) []basics.AppIndex {
	return sortedKeys(s.accounts[addr].AppLocalStates)
}

func sortedKeys[K ~uint64, V any](m map[K]V) []K {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}

// Box returns the contents of an app's box.
func (s *Store) Box(aidx basics.AppIndex, name string) ([]byte, bool) {
	v, ok := s.boxes[apps.MakeBoxKey(uint64(aidx), name)]
	return slices.Clone(v), ok
}

// BoxNames lists the boxes of an app, sorted.
func (s *Store) BoxNames(aidx basics.AppIndex) []string {
	var names []string
	for key := range s.boxes {
		app, name, err := apps.SplitBoxKey(key)
		if err == nil && app == uint64(aidx) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Snapshot returns a deep copy of the store. Mutating either copy does not
// affect the other.
func (s *Store) Snapshot() *Store {
	cp := *s
	cp.accounts = make(map[basics.Address]basics.AccountData, len(s.accounts))
	for addr, data := range s.accounts {
		cp.accounts[addr] = data.Clone()
	}
	cp.creatables = maps.Clone(s.creatables)
	cp.boxes = make(map[string][]byte, len(s.boxes))
	for k, v := range s.boxes {
		cp.boxes[k] = slices.Clone(v)
	}
	return &cp
}

func (s *Store) lookup(addr basics.Address) (basics.AccountData, error) {
	return s.accounts[addr], nil
}

func (s *Store) getCreator(cidx basics.CreatableIndex, ctype basics.CreatableType) (basics.Address, bool, error) {
	creator, ok := s.Creator(cidx, ctype)
	return creator, ok, nil
}

func (s *Store) getBox(key string) ([]byte, bool, error) {
	v, ok := s.boxes[key]
	return v, ok, nil
}

func (s *Store) lastCreatable() basics.CreatableIndex {
	return s.lastIdx
}

func (s *Store) addresses() []basics.Address {
	return slices.Collect(maps.Keys(s.accounts))
}

func (s *Store) round() basics.Round {
	return s.rnd
}

func (s *Store) timestamp() int64 {
	return s.ts
}

// commit merges a top-level layer into the store.
func (s *Store) commit(cb *roundCowState) {
	for addr, data := range cb.mods.accts {
		if data.IsZero() {
			delete(s.accounts, addr)
			continue
		}
		s.accounts[addr] = data
	}
	for cidx, mc := range cb.mods.creatables {
		if mc.created {
			s.creatables[cidx] = basics.CreatableLocator{Type: mc.ctype, Creator: mc.creator, Index: cidx}
		} else {
			delete(s.creatables, cidx)
		}
	}
	for key, value := range cb.mods.kvs {
		if value == nil {
			delete(s.boxes, key)
			continue
		}
		s.boxes[key] = value
	}
	if cb.mods.lastIdx > s.lastIdx {
		s.lastIdx = cb.mods.lastIdx
	}
	s.version++
}

// storeImage is the canonical encoding of a Store.
type storeImage struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Accounts map[basics.Address]basics.AccountData `codec:"accts"`
	Boxes    map[string][]byte                     `codec:"boxes"`
	LastIdx  basics.CreatableIndex                 `codec:"idx"`
	Round    basics.Round                          `codec:"rnd"`
	Ts       int64                                 `codec:"ts"`
}

// ToBeHashed implements crypto.Hashable
func (si storeImage) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.LedgerSnapshot, protocol.Encode(&si)
}

// Digest hashes the canonical encoding of the whole store. Two stores have
// the same digest iff they hold the same state.
func (s *Store) Digest() crypto.Digest {
	return crypto.HashObj(storeImage{
		Accounts: s.accounts,
		Boxes:    s.boxes,
		LastIdx:  s.lastIdx,
		Round:    s.rnd,
		Ts:       s.ts,
	})
}
