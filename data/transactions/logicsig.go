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

package transactions

import (
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// Program is TEAL source, hashed with the "Program" prefix to derive a
// contract account address and signed with the same prefix for delegation.
type Program []byte

// ToBeHashed implements the crypto.Hashable interface
func (lsl Program) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.Program, []byte(lsl)
}

// Address returns the contract account address of the program.
func (lsl Program) Address() basics.Address {
	return basics.Address(crypto.HashObj(lsl))
}

// LogicSig contains logic for validating a transaction.
// LogicSig is signed by an account, allowing delegation of operations.
// OR
// LogicSig defines a contract account.
type LogicSig struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	// Logic signed by Sig or Msig, OR hashed to be the Address of a contract account.
	Logic []byte `codec:"l"`

	Sig  crypto.Signature   `codec:"sig"`
	Msig crypto.MultisigSig `codec:"msig"`

	// Args are not signed, but checked by Logic
	Args [][]byte `codec:"arg"`
}

// Blank returns true if there is no content in this LogicSig
func (lsig *LogicSig) Blank() bool {
	return len(lsig.Logic) == 0
}

// Len returns the length of Logic plus the length of the Args
// This is limited by config.ConsensusParams.LogicSigMaxSize
func (lsig *LogicSig) Len() int {
	lsiglen := len(lsig.Logic)
	for _, arg := range lsig.Args {
		lsiglen += len(arg)
	}
	return lsiglen
}

// Address returns the contract account address of the program. For a
// delegated signature this is not the sender.
func (lsig *LogicSig) Address() basics.Address {
	return Program(lsig.Logic).Address()
}

// Delegated reports whether lsig carries a signature or multisig.
func (lsig *LogicSig) Delegated() bool {
	return !lsig.Sig.Blank() || !lsig.Msig.Blank()
}

// Sign delegates the program to the holder of sk.
func (lsig *LogicSig) Sign(sk *crypto.SecretKey) {
	lsig.Sig = sk.Sign(Program(lsig.Logic))
}

// SetMultisig attaches the multisig collected by b. It fails if b has not
// reached its threshold.
func (lsig *LogicSig) SetMultisig(b *crypto.MultisigBuilder) error {
	msig, err := b.Finalize()
	if err != nil {
		return err
	}
	lsig.Msig = msig
	return nil
}
