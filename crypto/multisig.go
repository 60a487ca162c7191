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
	"fmt"

	"github.com/scale-it/algo-builder-sub005/protocol"
)

// MultisigSubsig is a struct that holds a pair of public key and signatures
// signatures may be empty
type MultisigSubsig struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Key PublicKey `codec:"pk"` // all public keys that are possible signers for this address
	Sig Signature `codec:"s"`  // may be either empty or a signature
}

// MultisigSig is the structure that holds multiple Subsigs
type MultisigSig struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Version   uint8            `codec:"v"`
	Threshold uint8            `codec:"thr"`
	Subsigs   []MultisigSubsig `codec:"subsig,allocbound=maxMultisig"`
}

// MultisigPreimageFromPKs makes an empty MultisigSig for a given preimage.
func MultisigPreimageFromPKs(version, threshold uint8, pks []PublicKey) MultisigSig {
	out := MultisigSig{Version: version, Threshold: threshold, Subsigs: make([]MultisigSubsig, len(pks))}
	for i := range pks {
		out.Subsigs[i].Key = pks[i]
	}
	return out
}

// Blank returns true iff the msig is empty. We need this instead of just
// comparing with == MultisigSig{}, because Subsigs is a slice.
func (msig MultisigSig) Blank() bool {
	return msig.Version == 0 && msig.Threshold == 0 && msig.Subsigs == nil
}

// Preimage returns the version, threshold, and list of all public keys in a (partial) multisig address
func (msig MultisigSig) Preimage() (version, threshold uint8, pks []PublicKey) {
	pks = make([]PublicKey, len(msig.Subsigs))
	for i, subsig := range msig.Subsigs {
		pks[i] = subsig.Key
	}
	return msig.Version, msig.Threshold, pks
}

// Signatures returns the actual number of signatures included in the
// multisig. That is, the number of subsigs that are not blank.
func (msig MultisigSig) Signatures() int {
	sigs := 0
	for i := range msig.Subsigs {
		if !msig.Subsigs[i].Sig.Blank() {
			sigs++
		}
	}
	return sigs
}

const maxMultisig = 255

// MultisigAddrGen identifes the exact group, version,
// and devices (Public keys) that it requires to sign
// Hash("MultisigAddr" || version uint8 || threshold uint8 || PK1 || PK2 || ...)
func MultisigAddrGen(version, threshold uint8, pk []PublicKey) (addr Digest, err error) {
	if version != 1 {
		err = errUnknownVersion
		return
	}

	if threshold == 0 || len(pk) == 0 || int(threshold) > len(pk) {
		err = errInvalidThreshold
		return
	}

	buffer := append([]byte(protocol.MultisigAddr), byte(version), byte(threshold))
	for _, pki := range pk {
		buffer = append(buffer, pki[:]...)
	}
	return Hash(buffer), nil
}

// MultisigSign is for each device individually signs the digest
func MultisigSign(msg Hashable, addr Digest, version, threshold uint8, pk []PublicKey, sk SecretKey) (sig MultisigSig, err error) {
	return multisigSignBytes(HashRep(msg), addr, version, threshold, pk, sk)
}

// MultisigSignProgram signs a logic program on behalf of a multisig
// account (delegated logic signature).
func MultisigSignProgram(program []byte, addr Digest, version, threshold uint8, pk []PublicKey, sk SecretKey) (sig MultisigSig, err error) {
	return multisigSignBytes(append([]byte(protocol.Program), program...), addr, version, threshold, pk, sk)
}

func multisigSignBytes(msg []byte, addr Digest, version, threshold uint8, pk []PublicKey, sk SecretKey) (sig MultisigSig, err error) {
	addrnew, err := MultisigAddrGen(version, threshold, pk)
	if err != nil {
		return
	}
	if addr != addrnew {
		err = errInvalidAddress
		return
	}

	sig = MultisigPreimageFromPKs(version, threshold, pk)
	found := false
	for i := range pk {
		if sk.SignatureVerifier == pk[i] {
			sig.Subsigs[i].Sig = sk.SignBytes(msg)
			found = true
		}
	}
	if !found {
		err = errKeyNotExist
	}
	return
}

// MultisigAssemble assembles multiple MultisigSig
func MultisigAssemble(unisig []MultisigSig) (msig MultisigSig, err error) {
	if len(unisig) < 1 {
		err = errInvalidNumberOfSignature
		return
	}
	msig = MultisigPreimageFromPKs(unisig[0].Preimage())
	err = MultisigAdd(unisig, &msig)
	return
}

// MultisigAdd adds unisig to an existing msig
func MultisigAdd(unisig []MultisigSig, msig *MultisigSig) (err error) {
	if len(unisig) < 1 || msig == nil {
		return errInvalidNumberOfSignature
	}

	for i := range unisig {
		if msig.Threshold != unisig[i].Threshold {
			return errInvalidThreshold
		}
		if msig.Version != unisig[i].Version {
			return errInvalidVersion
		}
		if len(msig.Subsigs) != len(unisig[i].Subsigs) {
			return errKeysNotMatch
		}
		for j := range msig.Subsigs {
			if msig.Subsigs[j].Key != unisig[i].Subsigs[j].Key {
				return errKeysNotMatch
			}
		}
	}

	for i := range unisig {
		for j := range msig.Subsigs {
			if unisig[i].Subsigs[j].Sig.Blank() {
				continue
			}
			if msig.Subsigs[j].Sig.Blank() {
				msig.Subsigs[j].Sig = unisig[i].Subsigs[j].Sig
			} else if msig.Subsigs[j].Sig != unisig[i].Subsigs[j].Sig {
				return errInvalidDuplicates
			}
		}
	}
	return nil
}

// MultisigVerify verifies an assembled MultisigSig over a Hashable message
func MultisigVerify(msg Hashable, addr Digest, sig MultisigSig) error {
	return MultisigVerifyBytes(HashRep(msg), addr, sig)
}

// MultisigVerifyBytes verifies an assembled MultisigSig over raw bytes.
// Caller is responsible for domain separation.
func MultisigVerifyBytes(msg []byte, addr Digest, sig MultisigSig) error {
	if len(sig.Subsigs) == 0 {
		return errInvalidNumberOfSignature
	}
	if len(sig.Subsigs) > maxMultisig {
		return errInvalidNumberOfSignature
	}

	_, _, pks := sig.Preimage()
	addrnew, err := MultisigAddrGen(sig.Version, sig.Threshold, pks)
	if err != nil {
		return err
	}
	if addr != addrnew {
		return errInvalidAddress
	}

	if sig.Signatures() < int(sig.Threshold) {
		return errInvalidNumberOfSignature
	}

	for _, subsig := range sig.Subsigs {
		if subsig.Sig.Blank() {
			continue
		}
		if !subsig.Key.VerifyBytes(msg, subsig.Sig) {
			return errSubsigVerification
		}
	}
	return nil
}

// MultisigBuilder accumulates the partial signatures of a multisig account,
// one signer at a time, and produces the final MultisigSig only once the
// threshold has been reached.
type MultisigBuilder struct {
	msig MultisigSig
	addr Digest
}

// MakeMultisigBuilder returns a builder for the multisig account described by
// version, threshold and the ordered list of public keys.
func MakeMultisigBuilder(version, threshold uint8, pks []PublicKey) (*MultisigBuilder, error) {
	addr, err := MultisigAddrGen(version, threshold, pks)
	if err != nil {
		return nil, err
	}
	return &MultisigBuilder{
		msig: MultisigPreimageFromPKs(version, threshold, pks),
		addr: addr,
	}, nil
}

// Address returns the multisig account address.
func (b *MultisigBuilder) Address() Digest {
	return b.addr
}

// Add merges a partial signature into the builder.
func (b *MultisigBuilder) Add(partial MultisigSig) error {
	return MultisigAdd([]MultisigSig{partial}, &b.msig)
}

// SignProgram adds sk's signature over a logic program.
func (b *MultisigBuilder) SignProgram(program []byte, sk *SecretKey) error {
	v, thr, pks := b.msig.Preimage()
	partial, err := MultisigSignProgram(program, b.addr, v, thr, pks, *sk)
	if err != nil {
		return err
	}
	return b.Add(partial)
}

// Sign adds sk's signature over msg.
func (b *MultisigBuilder) Sign(msg Hashable, sk *SecretKey) error {
	v, thr, pks := b.msig.Preimage()
	partial, err := MultisigSign(msg, b.addr, v, thr, pks, *sk)
	if err != nil {
		return err
	}
	return b.Add(partial)
}

// Signatures returns how many subsigs have been collected so far.
func (b *MultisigBuilder) Signatures() int {
	return b.msig.Signatures()
}

// Finalize returns a copy of the assembled MultisigSig, or ErrThresholdNotMet
// if fewer than threshold signatures were collected.
func (b *MultisigBuilder) Finalize() (MultisigSig, error) {
	if b.msig.Signatures() < int(b.msig.Threshold) {
		return MultisigSig{}, fmt.Errorf("%w: have %d of %d", ErrThresholdNotMet, b.msig.Signatures(), b.msig.Threshold)
	}
	out := b.msig
	out.Subsigs = append([]MultisigSubsig(nil), b.msig.Subsigs...)
	return out, nil
}
