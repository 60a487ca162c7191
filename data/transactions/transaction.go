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
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// Txid is a hash used to uniquely identify individual transactions
type Txid crypto.Digest

// String converts txid to a pretty-printable string
func (txid Txid) String() string {
	return crypto.Digest(txid).String()
}

// Header captures the fields common to every transaction type.
type Header struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Sender      basics.Address    `codec:"snd"`
	Fee         basics.MicroAlgos `codec:"fee"`
	FirstValid  basics.Round      `codec:"fv"`
	LastValid   basics.Round      `codec:"lv"`
	Note        []byte            `codec:"note"` // Uniqueness or app-level data about txn
	GenesisID   string            `codec:"gen"`
	GenesisHash crypto.Digest     `codec:"gh"`

	// Group specifies that this transaction is part of a
	// transaction group (and, if so, specifies the hash
	// of a TxGroup).
	Group crypto.Digest `codec:"grp"`

	// Lease is carried and hashed but not enforced by the simulator.
	Lease [32]byte `codec:"lx"`

	// RekeyTo, if nonzero, sets the sender's AuthAddr to the given address
	// If the RekeyTo address is the sender's actual address, the AuthAddr is set to zero
	RekeyTo basics.Address `codec:"rekey"`
}

// Transaction describes a transaction the runtime can execute.
type Transaction struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	// Type of transaction
	Type protocol.TxType `codec:"type"`

	// Common fields for all types of transactions
	Header

	// Fields for different types of transactions
	KeyregTxnFields
	PaymentTxnFields
	AssetConfigTxnFields
	AssetTransferTxnFields
	AssetFreezeTxnFields
	ApplicationCallTxnFields
}

// TxGroup describes a group of transactions that must be executed
// together, in order, or not at all.
type TxGroup struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	// TxGroupHashes specifies a list of hashes of transactions that must appear
	// together. Each hash in the list is a hash of a transaction with
	// the `Group` field omitted.
	TxGroupHashes []crypto.Digest `codec:"txlist"`
}

// ToBeHashed implements the crypto.Hashable interface.
func (tg TxGroup) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.TxGroup, protocol.Encode(&tg)
}

// ToBeHashed implements the crypto.Hashable interface.
func (tx Transaction) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.Transaction, protocol.Encode(&tx)
}

// ID returns the Txid (i.e., hash) of the transaction.
func (tx Transaction) ID() Txid {
	return Txid(crypto.HashObj(tx))
}

// InnerID returns something akin to Txid, but folds in the parent Txid and the
// index of the inner call.
func (tx Transaction) InnerID(parent Txid, index int) Txid {
	input := append([]byte(protocol.Transaction), parent[:]...)
	var indexBuf [8]byte
	binary.BigEndian.PutUint64(indexBuf[:], uint64(index))
	input = append(input, indexBuf[:]...)
	input = append(input, protocol.Encode(&tx)...)
	return Txid(crypto.Hash(input))
}

// Sign signs a transaction using a given Account's secrets.
func (tx Transaction) Sign(secrets *crypto.SignatureSecrets) SignedTxn {
	sig := secrets.Sign(tx)

	s := SignedTxn{
		Txn: tx,
		Sig: sig,
	}
	// Set the AuthAddr if the signing key doesn't match the transaction sender
	if basics.Address(secrets.SignatureVerifier) != tx.Sender {
		s.AuthAddr = basics.Address(secrets.SignatureVerifier)
	}
	return s
}

// ComputeGroup returns the group id of txns: the hash of their ids, each
// computed with Group cleared.
func ComputeGroup(txns []Transaction) crypto.Digest {
	var group TxGroup
	for _, tx := range txns {
		tx.Group = crypto.Digest{}
		group.TxGroupHashes = append(group.TxGroupHashes, crypto.Digest(tx.ID()))
	}
	return crypto.HashObj(group)
}

// AssignGroupID sets Group on every transaction of a multi-transaction group.
// A single transaction keeps a zero Group.
func AssignGroupID(txns []Transaction) {
	if len(txns) < 2 {
		return
	}
	gid := ComputeGroup(txns)
	for i := range txns {
		txns[i].Group = gid
	}
}

// Src returns the address that posted the transaction.
// This is the account that pays the associated Fee.
func (tx Header) Src() basics.Address {
	return tx.Sender
}

// TxFee returns the fee associated with this transaction.
func (tx Header) TxFee() basics.MicroAlgos {
	return tx.Fee
}

// Alive checks that the round is within [FirstValid, LastValid].
func (tx Header) Alive(rnd basics.Round) error {
	if rnd < tx.FirstValid || rnd > tx.LastValid {
		return &TxnDeadError{Round: rnd, FirstValid: tx.FirstValid, LastValid: tx.LastValid}
	}
	return nil
}

// MatchAddress checks if the transaction touches a given address.
func (tx Transaction) MatchAddress(addr basics.Address) bool {
	if addr == tx.Sender {
		return true
	}

	switch tx.Type {
	case protocol.PaymentTx:
		if addr == tx.PaymentTxnFields.Receiver {
			return true
		}
		if !tx.PaymentTxnFields.CloseRemainderTo.IsZero() &&
			addr == tx.PaymentTxnFields.CloseRemainderTo {
			return true
		}
	case protocol.AssetTransferTx:
		if addr == tx.AssetTransferTxnFields.AssetReceiver {
			return true
		}
		if !tx.AssetTransferTxnFields.AssetCloseTo.IsZero() &&
			addr == tx.AssetTransferTxnFields.AssetCloseTo {
			return true
		}
		if !tx.AssetTransferTxnFields.AssetSender.IsZero() &&
			addr == tx.AssetTransferTxnFields.AssetSender {
			return true
		}
	}
	return false
}

// WellFormed checks that the transaction looks reasonable on its own (but not
// necessarily valid against the actual ledger). It does not check signatures
// or the fee, which is checked for the whole group.
func (tx Transaction) WellFormed(proto config.ConsensusParams) error {
	var err error
	switch tx.Type {
	case protocol.PaymentTx:
		err = tx.PaymentTxnFields.wellFormed(tx.Header)
	case protocol.KeyRegistrationTx:
		err = tx.KeyregTxnFields.wellFormed()
	case protocol.AssetConfigTx:
		err = tx.AssetConfigTxnFields.wellFormed(proto)
	case protocol.AssetTransferTx:
		err = tx.AssetTransferTxnFields.wellFormed()
	case protocol.AssetFreezeTx:
		err = tx.AssetFreezeTxnFields.wellFormed()
	case protocol.ApplicationCallTx:
		err = tx.ApplicationCallTxnFields.wellFormed(proto)
	default:
		return fmt.Errorf("unknown tx type %v", tx.Type)
	}
	if err != nil {
		return err
	}

	nonZeroFields := make(map[protocol.TxType]bool)
	if tx.PaymentTxnFields != (PaymentTxnFields{}) {
		nonZeroFields[protocol.PaymentTx] = true
	}
	if tx.KeyregTxnFields != (KeyregTxnFields{}) {
		nonZeroFields[protocol.KeyRegistrationTx] = true
	}
	if tx.AssetConfigTxnFields != (AssetConfigTxnFields{}) {
		nonZeroFields[protocol.AssetConfigTx] = true
	}
	if tx.AssetTransferTxnFields != (AssetTransferTxnFields{}) {
		nonZeroFields[protocol.AssetTransferTx] = true
	}
	if tx.AssetFreezeTxnFields != (AssetFreezeTxnFields{}) {
		nonZeroFields[protocol.AssetFreezeTx] = true
	}
	if !tx.ApplicationCallTxnFields.Empty() {
		nonZeroFields[protocol.ApplicationCallTx] = true
	}
	for t, nonZero := range nonZeroFields {
		if nonZero && t != tx.Type {
			return fmt.Errorf("transaction of type %v has non-zero fields for type %v", tx.Type, t)
		}
	}

	if tx.LastValid < tx.FirstValid {
		return fmt.Errorf("transaction invalid range (%v--%v)", tx.FirstValid, tx.LastValid)
	}
	if tx.LastValid-tx.FirstValid > basics.Round(proto.MaxTxnLife) {
		return fmt.Errorf("transaction window size excessive (%v--%v)", tx.FirstValid, tx.LastValid)
	}
	if len(tx.Note) > proto.MaxTxnNoteBytes {
		return fmt.Errorf("transaction note too big: %d > %d", len(tx.Note), proto.MaxTxnNoteBytes)
	}
	if tx.Sender.IsZero() {
		return fmt.Errorf("transaction cannot have zero sender")
	}
	return nil
}

// TxAmount returns the amount paid to the recipient in this payment
func (tx Transaction) TxAmount() basics.MicroAlgos {
	switch tx.Type {
	case protocol.PaymentTx:
		return tx.PaymentTxnFields.Amount
	default:
		return basics.MicroAlgos{Raw: 0}
	}
}

// GetReceiverAddress returns the address of the receiver. If the transaction has no receiver, it returns the empty address.
func (tx Transaction) GetReceiverAddress() basics.Address {
	switch tx.Type {
	case protocol.PaymentTx:
		return tx.PaymentTxnFields.Receiver
	case protocol.AssetTransferTx:
		return tx.AssetTransferTxnFields.AssetReceiver
	default:
		return basics.Address{}
	}
}

// ProgramVersion reads the "#pragma version N" line of TEAL source. Programs
// without a pragma are version 1.
func ProgramVersion(src []byte) (uint64, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return 0, fmt.Errorf("invalid program (empty)")
	}
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] != "#pragma" {
			return 1, nil
		}
		if len(fields) != 3 || fields[1] != "version" {
			return 0, fmt.Errorf("invalid pragma: %q", line)
		}
		v, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil || v == 0 {
			return 0, fmt.Errorf("invalid pragma version: %q", fields[2])
		}
		return v, nil
	}
	return 1, sc.Err()
}

// syncProgramsVersion is version of AVM programs that are required to have
// matching versions between approval and clearstate.
const syncProgramsVersion = 6

// CheckContractVersions ensures that for syncProgramsVersion and higher, two programs are version
// matched, and that they are not a downgrade of previous ones.
func CheckContractVersions(approval []byte, clear []byte, previous basics.AppParams) error {
	av, err := ProgramVersion(approval)
	if err != nil {
		return fmt.Errorf("bad ApprovalProgram: %v", err)
	}
	cv, err := ProgramVersion(clear)
	if err != nil {
		return fmt.Errorf("bad ClearStateProgram: %v", err)
	}
	if av >= syncProgramsVersion || cv >= syncProgramsVersion {
		if av != cv {
			return fmt.Errorf("program version mismatch: %d != %d", av, cv)
		}
	}
	if len(previous.ApprovalProgram) != 0 {
		pav, err := ProgramVersion(previous.ApprovalProgram)
		if err != nil {
			return err
		}
		if pav >= syncProgramsVersion && av < pav {
			return fmt.Errorf("approval program version downgrade: %d < %d", av, pav)
		}
	}
	if len(previous.ClearStateProgram) != 0 {
		pcv, err := ProgramVersion(previous.ClearStateProgram)
		if err != nil {
			return err
		}
		if pcv >= syncProgramsVersion && cv < pcv {
			return fmt.Errorf("clearstate program version downgrade: %d < %d", cv, pcv)
		}
	}
	return nil
}
