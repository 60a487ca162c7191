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
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

// Account is a key holder that can be funded when a Runtime is created.
// Accounts made by NewAddressAccount have no key and can only send through
// logic signatures or after being rekeyed.
type Account struct {
	addr    basics.Address
	secrets *crypto.SignatureSecrets
	balance uint64
}

// NewAccount generates a fresh ed25519 key pair.
func NewAccount(balance uint64) *Account {
	var seed crypto.Seed
	crypto.RandBytes(seed[:])
	secrets := crypto.GenerateSignatureSecrets(seed)
	return &Account{addr: basics.Address(secrets.SignatureVerifier), secrets: secrets, balance: balance}
}

// NewAccountFromSecret uses a caller supplied 64-byte private key.
func NewAccountFromSecret(sk crypto.PrivateKey, balance uint64) (*Account, error) {
	secrets, err := crypto.SecretKeyToSignatureSecrets(sk)
	if err != nil {
		return nil, buildErr(ledgercore.CodeInvalidSignature, err)
	}
	return &Account{addr: basics.Address(secrets.SignatureVerifier), secrets: secrets, balance: balance}, nil
}

// NewAddressAccount makes a keyless account, for instance a contract account.
func NewAddressAccount(addr basics.Address, balance uint64) *Account {
	return &Account{addr: addr, balance: balance}
}

// Address returns the account's address.
func (a *Account) Address() basics.Address {
	return a.addr
}

// PublicKey returns the account's public key, the zero key for keyless accounts.
func (a *Account) PublicKey() crypto.PublicKey {
	if a.secrets == nil {
		return crypto.PublicKey{}
	}
	return a.secrets.SignatureVerifier
}

// SecretKey returns the signing secrets, nil for keyless accounts.
func (a *Account) SecretKey() *crypto.SecretKey {
	return a.secrets
}

// SignTxn signs tx with the account's key. When the account is not the
// sender, the result names it as the authorizer.
func (a *Account) SignTxn(tx transactions.Transaction) (transactions.SignedTxn, error) {
	if a.secrets == nil {
		return transactions.SignedTxn{}, buildErr(ledgercore.CodeInvalidSignature, ErrSecretKeyMissing)
	}
	return tx.Sign(a.secrets), nil
}

// SignLsig delegates lsig to the account.
func (a *Account) SignLsig(lsig *transactions.LogicSig) error {
	if a.secrets == nil {
		return buildErr(ledgercore.CodeInvalidSignature, ErrSecretKeyMissing)
	}
	lsig.Sign(a.secrets)
	return nil
}

// AccountStore is a point-in-time view of an account. It does not follow
// later changes to the ledger; call Runtime.GetAccount again for that.
type AccountStore struct {
	Address        basics.Address
	Balance        uint64
	MinBalance     uint64
	AuthAddr       basics.Address
	Assets         map[basics.AssetIndex]basics.AssetHolding
	AppsLocalState map[basics.AppIndex]basics.AppLocalState
	CreatedAssets  map[basics.AssetIndex]basics.AssetParams
	CreatedApps    map[basics.AppIndex]basics.AppParams
	TotalAppSchema basics.StateSchema
	TotalBoxes     uint64
	TotalBoxBytes  uint64
}

func makeAccountStore(addr basics.Address, data basics.AccountData, minBalance basics.MicroAlgos) AccountStore {
	return AccountStore{
		Address:        addr,
		Balance:        data.MicroAlgos.Raw,
		MinBalance:     minBalance.Raw,
		AuthAddr:       data.AuthAddr,
		Assets:         data.Assets,
		AppsLocalState: data.AppLocalStates,
		CreatedAssets:  data.AssetParams,
		CreatedApps:    data.AppParams,
		TotalAppSchema: data.TotalAppSchema,
		TotalBoxes:     data.TotalBoxes,
		TotalBoxBytes:  data.TotalBoxBytes,
	}
}

// GetAssetHolding returns the account's holding of an asset.
func (a *AccountStore) GetAssetHolding(aidx basics.AssetIndex) (basics.AssetHolding, bool) {
	h, ok := a.Assets[aidx]
	return h, ok
}

// GetLocalState reads one key of the account's local state in app.
func (a *AccountStore) GetLocalState(app basics.AppIndex, key string) (basics.TealValue, bool) {
	ls, ok := a.AppsLocalState[app]
	if !ok {
		return basics.TealValue{}, false
	}
	tv, ok := ls.KeyValue[key]
	return tv, ok
}

// GetAppFromID returns an app created by this account.
func (a *AccountStore) GetAppFromID(app basics.AppIndex) (basics.AppParams, bool) {
	params, ok := a.CreatedApps[app]
	return params, ok
}

// GetGlobalState reads one key of the global state of an app created by
// this account.
func (a *AccountStore) GetGlobalState(app basics.AppIndex, key string) (basics.TealValue, bool) {
	params, ok := a.CreatedApps[app]
	if !ok {
		return basics.TealValue{}, false
	}
	tv, ok := params.GlobalState[key]
	return tv, ok
}
