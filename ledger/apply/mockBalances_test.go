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
	"slices"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/data/transactions/logic"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

type mockCreatable struct {
	creator basics.Address
	ctype   basics.CreatableType
}

// mockBalances writes straight into its maps. StatefulEval does not run
// programs; it reports whatever the test configured.
type mockBalances struct {
	b          map[basics.Address]basics.AccountData
	creatables map[basics.CreatableIndex]mockCreatable
	nextIdx    basics.CreatableIndex
	proto      config.ConsensusParams

	// StatefulEval outcome
	pass  bool
	delta transactions.EvalDelta
	err   error
	evals []basics.AppIndex
}

func makeMockBalances() *mockBalances {
	return &mockBalances{
		b:          make(map[basics.Address]basics.AccountData),
		creatables: make(map[basics.CreatableIndex]mockCreatable),
		nextIdx:    1000,
		proto:      config.Simulator(),
		pass:       true,
	}
}

func makeMockBalancesWithAccounts(b map[basics.Address]basics.AccountData) *mockBalances {
	ret := makeMockBalances()
	ret.b = b
	return ret
}

func (balances *mockBalances) Get(addr basics.Address) (basics.AccountData, error) {
	return balances.b[addr], nil
}

func (balances *mockBalances) Put(addr basics.Address, ad basics.AccountData) error {
	balances.b[addr] = ad
	return nil
}

func (balances *mockBalances) CloseAccount(addr basics.Address) error {
	delete(balances.b, addr)
	return nil
}

func (balances *mockBalances) GetCreator(cidx basics.CreatableIndex, ctype basics.CreatableType) (basics.Address, bool, error) {
	c, ok := balances.creatables[cidx]
	if !ok || c.ctype != ctype {
		return basics.Address{}, false, nil
	}
	return c.creator, true, nil
}

func (balances *mockBalances) AllocateCreatable(creator basics.Address, ctype basics.CreatableType) (basics.CreatableIndex, error) {
	balances.nextIdx++
	balances.creatables[balances.nextIdx] = mockCreatable{creator: creator, ctype: ctype}
	return balances.nextIdx, nil
}

func (balances *mockBalances) DeallocateCreatable(cidx basics.CreatableIndex, ctype basics.CreatableType) error {
	delete(balances.creatables, cidx)
	return nil
}

func (balances *mockBalances) AssetHolders(aidx basics.AssetIndex) ([]basics.Address, error) {
	var res []basics.Address
	for addr, ad := range balances.b {
		if _, ok := ad.Assets[aidx]; ok {
			res = append(res, addr)
		}
	}
	slices.SortFunc(res, func(a, b basics.Address) int { return slices.Compare(a[:], b[:]) })
	return res, nil
}

func (balances *mockBalances) StatefulEval(gi int, ep *logic.EvalParams, aidx basics.AppIndex, program []byte) (bool, transactions.EvalDelta, error) {
	balances.evals = append(balances.evals, aidx)
	if balances.err != nil {
		return false, transactions.EvalDelta{}, ledgercore.LogicEvalError{Err: balances.err}
	}
	return balances.pass, balances.delta, nil
}

func (balances *mockBalances) Move(src, dst basics.Address, amount basics.MicroAlgos) error {
	srcData := balances.b[src]
	var overflowed bool
	srcData.MicroAlgos.Raw, overflowed = basics.OSub(srcData.MicroAlgos.Raw, amount.Raw)
	if overflowed {
		return ledgercore.Rejectf(ledgercore.CodeInsufficientBalance, "overspend %v", src)
	}
	balances.b[src] = srcData

	dstData := balances.b[dst]
	dstData.MicroAlgos.Raw, overflowed = basics.OAdd(dstData.MicroAlgos.Raw, amount.Raw)
	if overflowed {
		return ledgercore.Rejectf(ledgercore.CodeLedgerOverflow, "balance overflow %v", dst)
	}
	balances.b[dst] = dstData
	return nil
}

func (balances *mockBalances) ConsensusParams() config.ConsensusParams {
	return balances.proto
}

// newAsset installs an asset as if an acfg had created it.
func (balances *mockBalances) newAsset(creator basics.Address, params basics.AssetParams) basics.AssetIndex {
	cidx, _ := balances.AllocateCreatable(creator, basics.AssetCreatable)
	aidx := basics.AssetIndex(cidx)
	record := balances.b[creator]
	record.AssetParams = cloneAssetParams(record.AssetParams)
	record.AssetParams[aidx] = params
	record.Assets = cloneAssetHoldings(record.Assets)
	record.Assets[aidx] = basics.AssetHolding{Amount: params.Total}
	balances.b[creator] = record
	return aidx
}

func (balances *mockBalances) holding(addr basics.Address, aidx basics.AssetIndex) (basics.AssetHolding, bool) {
	h, ok := balances.b[addr].Assets[aidx]
	return h, ok
}

func randomAddress() basics.Address {
	var addr basics.Address
	crypto.RandBytes(addr[:])
	return addr
}
