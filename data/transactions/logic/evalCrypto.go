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
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/sha3"

	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

func opSHA256(cx *EvalContext) error {
	last := len(cx.stack) - 1
	hash := sha256.Sum256(cx.stack[last].Bytes)
	cx.stack[last].Bytes = hash[:]
	return nil
}

// The NIST SHA3-256 is implemented for compatibility with ICON
func opSHA3_256(cx *EvalContext) error {
	last := len(cx.stack) - 1
	hash := sha3.Sum256(cx.stack[last].Bytes)
	cx.stack[last].Bytes = hash[:]
	return nil
}

// The Keccak256 variant of SHA-3 is implemented for compatibility with Ethereum
func opKeccak256(cx *EvalContext) error {
	last := len(cx.stack) - 1
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(cx.stack[last].Bytes)
	hv := make([]byte, 0, hasher.Size())
	hv = hasher.Sum(hv)
	cx.stack[last].Bytes = hv
	return nil
}

// This is the hash commonly used in Algorand in crypto/util.go Hash()
//
// It is explicitly implemented here in terms of the specific hash for
// stability and portability in case the rest of Algorand ever moves
// to a different default hash. For stability of this language, at
// that time a new opcode should be made with the new hash.
func opSHA512_256(cx *EvalContext) error {
	last := len(cx.stack) - 1
	hash := sha512.Sum512_256(cx.stack[last].Bytes)
	cx.stack[last].Bytes = hash[:]
	return nil
}

// Msg is data meant to be signed and then verified with the
// ed25519verify opcode.
type Msg struct {
	_struct     struct{}      `codec:",omitempty,omitemptyarray"`
	ProgramHash crypto.Digest `codec:"p"`
	Data        []byte        `codec:"d"`
}

// ToBeHashed implements crypto.Hashable
func (msg Msg) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.ProgramData, append(msg.ProgramHash[:], msg.Data...)
}

// ed25519args pops the data, signature and key arguments shared by the
// ed25519verify variants.
func (cx *EvalContext) ed25519args() (data []byte, sig crypto.Signature, pk crypto.SignatureVerifier, err error) {
	last := len(cx.stack) - 1 // index of PK
	prev := last - 1          // index of signature
	pprev := prev - 1         // index of data

	if len(cx.stack[last].Bytes) != len(pk) {
		return nil, sig, pk, ledgercore.Reject(ledgercore.CodeInvalidOpArg, "invalid public key")
	}
	copy(pk[:], cx.stack[last].Bytes)

	if len(cx.stack[prev].Bytes) != len(sig) {
		return nil, sig, pk, ledgercore.Reject(ledgercore.CodeInvalidOpArg, "invalid signature")
	}
	copy(sig[:], cx.stack[prev].Bytes)
	return cx.stack[pprev].Bytes, sig, pk, nil
}

func opEd25519Verify(cx *EvalContext) error {
	data, sig, pk, err := cx.ed25519args()
	if err != nil {
		return err
	}
	msg := Msg{ProgramHash: cx.programHash, Data: data}
	last := len(cx.stack) - 1
	pprev := last - 2
	cx.stack[pprev] = boolToSV(pk.Verify(msg, sig))
	cx.stack = cx.stack[:last-1]
	return nil
}

func opEd25519VerifyBare(cx *EvalContext) error {
	data, sig, pk, err := cx.ed25519args()
	if err != nil {
		return err
	}
	last := len(cx.stack) - 1
	pprev := last - 2
	cx.stack[pprev] = boolToSV(pk.VerifyBytes(data, sig))
	cx.stack = cx.stack[:last-1]
	return nil
}
