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

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/hdevalence/ed25519consensus"
)

// Seed holds the entropy needed to generate cryptographic keys.
type Seed [32]byte

// PublicKey is an exported ed25519 public key
type PublicKey [ed25519.PublicKeySize]byte

// PrivateKey is an exported ed25519 private key (seed || public key)
type PrivateKey [ed25519.PrivateKeySize]byte

// Signature is an ed25519 signature
type Signature [ed25519.SignatureSize]byte

// BlankSignature is an empty signature structure, containing nothing but zeroes
var BlankSignature = Signature{}

// Blank tests to see if the given signature contains only zeros
func (s *Signature) Blank() bool {
	return (*s) == BlankSignature
}

// A SignatureVerifier is used to identify the holder of SignatureSecrets
// and verify the authenticity of Signatures.
type SignatureVerifier = PublicKey

// SignatureSecrets are used by an entity to produce unforgeable signatures over
// a message.
type SignatureSecrets struct {
	_struct struct{} `codec:""`

	SignatureVerifier
	SK PrivateKey
}

// SecretKey is casted from SignatureSecrets
type SecretKey = SignatureSecrets

// RandBytes fills the provided structure with a set of random bytes
func RandBytes(buf []byte) {
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
}

// GenerateSignatureSecrets creates SignatureSecrets from a source of entropy.
func GenerateSignatureSecrets(seed Seed) *SignatureSecrets {
	sk := ed25519.NewKeyFromSeed(seed[:])
	s := new(SignatureSecrets)
	copy(s.SK[:], sk)
	copy(s.SignatureVerifier[:], sk.Public().(ed25519.PublicKey))
	return s
}

// SecretKeyToSignatureSecrets converts a 64-byte private key (seed || pk)
// into SignatureSecrets, as accepted from callers that bring their own key.
func SecretKeyToSignatureSecrets(sk PrivateKey) (*SignatureSecrets, error) {
	var seed Seed
	copy(seed[:], sk[:32])
	s := GenerateSignatureSecrets(seed)
	if s.SK != sk {
		return nil, errInvalidSecretKey
	}
	return s, nil
}

// Sign produces a cryptographic Signature of a Hashable message, given
// cryptographic secrets.
func (s *SignatureSecrets) Sign(message Hashable) Signature {
	return s.SignBytes(HashRep(message))
}

// SignBytes signs a message directly, without first hashing.
// Caller is responsible for domain separation.
func (s *SignatureSecrets) SignBytes(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(ed25519.PrivateKey(s.SK[:]), message))
	return sig
}

// Verify verifies that some holder of a cryptographic secret authentically
// signed a Hashable message.
func (v SignatureVerifier) Verify(message Hashable, sig Signature) bool {
	return v.VerifyBytes(HashRep(message), sig)
}

// VerifyBytes verifies a signature, where the message is not hashed first.
// Caller is responsible for domain separation.
func (v SignatureVerifier) VerifyBytes(message []byte, sig Signature) bool {
	return ed25519consensus.Verify(v[:], message, sig[:])
}
