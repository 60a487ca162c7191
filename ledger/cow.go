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

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

//   ___________________
// < cow = Copy On Write >
//   -------------------
//          \   ^__^
//           \  (oo)\_______
//              (__)\       )\/\
//                  ||----w |
//                  ||     ||

type roundCowParent interface {
	lookup(basics.Address) (basics.AccountData, error)
	getCreator(cidx basics.CreatableIndex, ctype basics.CreatableType) (basics.Address, bool, error)
	getBox(key string) ([]byte, bool, error)
	lastCreatable() basics.CreatableIndex
	// addresses lists every account that may hold state, in no particular order.
	addresses() []basics.Address
	round() basics.Round
	timestamp() int64
}

type modifiedCreatable struct {
	ctype   basics.CreatableType
	creator basics.Address
	created bool
}

// stateDelta is everything a layer changed relative to its parent.
type stateDelta struct {
	accts      map[basics.Address]basics.AccountData
	creatables map[basics.CreatableIndex]modifiedCreatable
	// kvs maps box keys to their new contents; nil means deleted.
	kvs     map[string][]byte
	lastIdx basics.CreatableIndex
}

func makeStateDelta() stateDelta {
	return stateDelta{
		accts:      make(map[basics.Address]basics.AccountData),
		creatables: make(map[basics.CreatableIndex]modifiedCreatable),
		kvs:        make(map[string][]byte),
	}
}

// storagePtr names one key/value store: an app's globals, or one account's
// locals for an app.
type storagePtr struct {
	aidx   basics.AppIndex
	global bool
}

type roundCowState struct {
	lookupParent roundCowParent
	commitParent *roundCowState
	proto        config.ConsensusParams
	mods         stateDelta

	// sdeltas records the key/value writes made by programs, per account and
	// store, so that StatefulEval can report them in the EvalDelta.
	sdeltas map[basics.Address]map[storagePtr]basics.StateDelta

	// cost accumulates the opcode cost of app programs run in this layer and
	// its children.
	cost *int
}

func makeRoundCowState(b roundCowParent, proto config.ConsensusParams) *roundCowState {
	return &roundCowState{
		lookupParent: b,
		proto:        proto,
		mods:         makeStateDelta(),
		sdeltas:      make(map[basics.Address]map[storagePtr]basics.StateDelta),
	}
}

func (cb *roundCowState) lookup(addr basics.Address) (data basics.AccountData, err error) {
	d, ok := cb.mods.accts[addr]
	if ok {
		return d, nil
	}
	return cb.lookupParent.lookup(addr)
}

func (cb *roundCowState) getCreator(cidx basics.CreatableIndex, ctype basics.CreatableType) (creator basics.Address, ok bool, err error) {
	delta, ok := cb.mods.creatables[cidx]
	if ok {
		if delta.created && delta.ctype == ctype {
			return delta.creator, true, nil
		}
		return basics.Address{}, false, nil
	}
	return cb.lookupParent.getCreator(cidx, ctype)
}

func (cb *roundCowState) getBox(key string) ([]byte, bool, error) {
	v, ok := cb.mods.kvs[key]
	if ok {
		return v, v != nil, nil
	}
	return cb.lookupParent.getBox(key)
}

func (cb *roundCowState) lastCreatable() basics.CreatableIndex {
	if cb.mods.lastIdx != 0 {
		return cb.mods.lastIdx
	}
	return cb.lookupParent.lastCreatable()
}

func (cb *roundCowState) addresses() []basics.Address {
	addrs := cb.lookupParent.addresses()
	for addr := range cb.mods.accts {
		addrs = append(addrs, addr)
	}
	return addrs
}

func (cb *roundCowState) round() basics.Round {
	return cb.lookupParent.round()
}

func (cb *roundCowState) timestamp() int64 {
	return cb.lookupParent.timestamp()
}

func (cb *roundCowState) put(addr basics.Address, new basics.AccountData) {
	cb.mods.accts[addr] = new
}

func (cb *roundCowState) child() *roundCowState {
	return &roundCowState{
		lookupParent: cb,
		commitParent: cb,
		proto:        cb.proto,
		mods:         makeStateDelta(),
		sdeltas:      make(map[basics.Address]map[storagePtr]basics.StateDelta),
		cost:         cb.cost,
	}
}

func (cb *roundCowState) commitToParent() {
	for addr, delta := range cb.mods.accts {
		cb.commitParent.mods.accts[addr] = delta
	}
	for cidx, delta := range cb.mods.creatables {
		cb.commitParent.mods.creatables[cidx] = delta
	}
	for key, value := range cb.mods.kvs {
		cb.commitParent.mods.kvs[key] = value
	}
	if cb.mods.lastIdx != 0 {
		cb.commitParent.mods.lastIdx = cb.mods.lastIdx
	}
	for addr, smod := range cb.sdeltas {
		for aapp, nsd := range smod {
			maps.Copy(cb.commitParent.storageDelta(addr, aapp), nsd)
		}
	}
}

func (cb *roundCowState) modifiedAccounts() []basics.Address {
	res := slices.Collect(maps.Keys(cb.mods.accts))
	slices.SortFunc(res, compareAddr)
	return res
}

// storageDelta returns the delta recording writes to one store, creating it.
func (cb *roundCowState) storageDelta(addr basics.Address, aapp storagePtr) basics.StateDelta {
	smap, ok := cb.sdeltas[addr]
	if !ok {
		smap = make(map[storagePtr]basics.StateDelta)
		cb.sdeltas[addr] = smap
	}
	sd, ok := smap[aapp]
	if !ok {
		sd = make(basics.StateDelta)
		smap[aapp] = sd
	}
	return sd
}

// Get implements apply.Balances
func (cb *roundCowState) Get(addr basics.Address) (basics.AccountData, error) {
	return cb.lookup(addr)
}

// Put implements apply.Balances
func (cb *roundCowState) Put(addr basics.Address, data basics.AccountData) error {
	cb.put(addr, data)
	return nil
}

// CloseAccount empties an account. Empty accounts are dropped on commit.
func (cb *roundCowState) CloseAccount(addr basics.Address) error {
	cb.put(addr, basics.AccountData{})
	return nil
}

// GetCreator implements apply.Balances
func (cb *roundCowState) GetCreator(cidx basics.CreatableIndex, ctype basics.CreatableType) (basics.Address, bool, error) {
	return cb.getCreator(cidx, ctype)
}

// AllocateCreatable hands out the next index, shared by assets and apps.
func (cb *roundCowState) AllocateCreatable(creator basics.Address, ctype basics.CreatableType) (basics.CreatableIndex, error) {
	last := cb.lastCreatable()
	next, overflowed := basics.OAdd(last, 1)
	if overflowed {
		return 0, ledgercore.Reject(ledgercore.CodeLedgerOverflow, "creatable index space exhausted")
	}
	cb.mods.lastIdx = next
	cb.mods.creatables[next] = modifiedCreatable{ctype: ctype, creator: creator, created: true}
	return next, nil
}

// DeallocateCreatable forgets the creator of a deleted asset or app.
func (cb *roundCowState) DeallocateCreatable(cidx basics.CreatableIndex, ctype basics.CreatableType) error {
	creator, ok, err := cb.getCreator(cidx, ctype)
	if err != nil {
		return err
	}
	if !ok {
		if ctype == basics.AssetCreatable {
			return ledgercore.Reject(ledgercore.CodeAssetNotFound, "asset not found", "asset", uint64(cidx))
		}
		return ledgercore.Reject(ledgercore.CodeAppNotFound, "app not found", "app", uint64(cidx))
	}
	cb.mods.creatables[cidx] = modifiedCreatable{ctype: ctype, creator: creator, created: false}
	return nil
}

// AssetHolders lists the accounts holding a slot for aidx, in address order.
func (cb *roundCowState) AssetHolders(aidx basics.AssetIndex) ([]basics.Address, error) {
	var holders []basics.Address
	seen := make(map[basics.Address]bool)
	for _, addr := range cb.addresses() {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		data, err := cb.lookup(addr)
		if err != nil {
			return nil, err
		}
		if _, ok := data.Assets[aidx]; ok {
			holders = append(holders, addr)
		}
	}
	slices.SortFunc(holders, compareAddr)
	return holders, nil
}

// Move transfers amount MicroAlgos from src to dst.
func (cb *roundCowState) Move(src, dst basics.Address, amount basics.MicroAlgos) error {
	if amount.IsZero() {
		return nil
	}
	srcData, err := cb.lookup(src)
	if err != nil {
		return err
	}
	newSrc, overflowed := basics.OSubA(srcData.MicroAlgos, amount)
	if overflowed {
		return ledgercore.Reject(ledgercore.CodeInsufficientBalance, "overspend",
			"addr", src, "balance", srcData.MicroAlgos.Raw, "amount", amount.Raw)
	}
	srcData.MicroAlgos = newSrc
	cb.put(src, srcData)

	dstData, err := cb.lookup(dst)
	if err != nil {
		return err
	}
	newDst, overflowed := basics.OAddA(dstData.MicroAlgos, amount)
	if overflowed {
		return ledgercore.Reject(ledgercore.CodeLedgerOverflow, "balance overflow",
			"addr", dst, "balance", dstData.MicroAlgos.Raw, "amount", amount.Raw)
	}
	dstData.MicroAlgos = newDst
	cb.put(dst, dstData)
	return nil
}

// ConsensusParams implements apply.Balances
func (cb *roundCowState) ConsensusParams() config.ConsensusParams {
	return cb.proto
}
