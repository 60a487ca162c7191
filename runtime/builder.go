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
	"fmt"

	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// Signer authorizes the transactions built from an ExecParams.
type Signer interface {
	// Address is the account the signer speaks for. It is the sender when
	// TxnBase.From is left empty.
	Address() basics.Address

	signTxn(tx transactions.Transaction) (transactions.SignedTxn, error)
}

// SignSecretKey signs with an account's ed25519 key.
type SignSecretKey struct {
	Account *Account
}

// Address implements Signer.
func (s SignSecretKey) Address() basics.Address {
	if s.Account == nil {
		return basics.Address{}
	}
	return s.Account.Address()
}

func (s SignSecretKey) signTxn(tx transactions.Transaction) (transactions.SignedTxn, error) {
	if s.Account == nil {
		return transactions.SignedTxn{}, buildErr(ledgercore.CodeInvalidSignature, ErrMissingSigner)
	}
	return s.Account.SignTxn(tx)
}

// SignLogicSignature authorizes with a logic signature. Without a delegating
// signature the program's own address must be the sender's authorizer
// (a contract account); with one, FromAddr is the delegating account.
type SignLogicSignature struct {
	Lsig     *transactions.LogicSig
	FromAddr basics.Address
}

// Address implements Signer.
func (s SignLogicSignature) Address() basics.Address {
	if !s.FromAddr.IsZero() || s.Lsig == nil {
		return s.FromAddr
	}
	return s.Lsig.Address()
}

func (s SignLogicSignature) signTxn(tx transactions.Transaction) (transactions.SignedTxn, error) {
	if s.Lsig == nil {
		return transactions.SignedTxn{}, buildErr(ledgercore.CodeLogicSignatureValidationFailed, ErrMissingSigner)
	}
	stxn := transactions.SignedTxn{Txn: tx, Lsig: *s.Lsig}
	if !s.Lsig.Delegated() && s.Lsig.Address() != tx.Sender {
		stxn.AuthAddr = s.Lsig.Address()
	}
	return stxn, nil
}

// SignMultisig collects signatures of Signers for the multisig account
// (Version, Threshold, PKs).
type SignMultisig struct {
	Version   uint8
	Threshold uint8
	PKs       []crypto.PublicKey
	Signers   []*Account
}

// Address implements Signer.
func (s SignMultisig) Address() basics.Address {
	addr, err := crypto.MultisigAddrGen(s.Version, s.Threshold, s.PKs)
	if err != nil {
		return basics.Address{}
	}
	return basics.Address(addr)
}

func (s SignMultisig) signTxn(tx transactions.Transaction) (transactions.SignedTxn, error) {
	b, err := crypto.MakeMultisigBuilder(s.Version, s.Threshold, s.PKs)
	if err != nil {
		return transactions.SignedTxn{}, buildErr(ledgercore.CodeInvalidSignature, err)
	}
	for _, acct := range s.Signers {
		if acct.SecretKey() == nil {
			return transactions.SignedTxn{}, buildErr(ledgercore.CodeInvalidSignature, ErrSecretKeyMissing)
		}
		if err := b.Sign(tx, acct.SecretKey()); err != nil {
			return transactions.SignedTxn{}, buildErr(ledgercore.CodeInvalidSignature, err)
		}
	}
	msig, err := b.Finalize()
	if err != nil {
		return transactions.SignedTxn{}, buildErr(ledgercore.CodeInvalidSignature, err)
	}
	stxn := transactions.SignedTxn{Txn: tx, Msig: msig}
	if addr := basics.Address(b.Address()); addr != tx.Sender {
		stxn.AuthAddr = addr
	}
	return stxn, nil
}

// TxParams are the header fields every ExecParams shares. Zero values fall
// back to the SuggestedParams.
type TxParams struct {
	// Fee is per byte unless FlatFee is set, in which case it is the fee.
	Fee     uint64
	FlatFee bool
	// TotalFee, when non-zero, is the fee and overrides Fee.
	TotalFee uint64

	FirstValid basics.Round
	LastValid  basics.Round
	Note       []byte
	Lease      [32]byte
	RekeyTo    basics.Address

	// CloseRemainderTo closes the sender's algos (payments) or holding
	// (asset transfers) to this account.
	CloseRemainderTo basics.Address
}

// SuggestedParams are the defaults a Runtime hands to MakeTransaction.
type SuggestedParams struct {
	Fee         uint64
	FlatFee     bool
	MinFee      uint64
	FirstRound  basics.Round
	LastRound   basics.Round
	GenesisID   string
	GenesisHash crypto.Digest
}

// estimated bytes a signature adds to an encoded transaction
const sigSizeEstimate = 75

func (tp TxParams) fee(tx *transactions.Transaction, sp SuggestedParams) basics.MicroAlgos {
	if tp.TotalFee != 0 {
		return basics.MicroAlgos{Raw: tp.TotalFee}
	}
	fee, flat := sp.Fee, sp.FlatFee
	if tp.Fee != 0 || tp.FlatFee {
		fee, flat = tp.Fee, tp.FlatFee
	}
	if !flat {
		size := uint64(len(protocol.Encode(tx)) + sigSizeEstimate)
		fee = basics.MulSaturate(fee, size)
		if fee < sp.MinFee {
			fee = sp.MinFee
		}
	}
	return basics.MicroAlgos{Raw: fee}
}

// TxnBase is embedded in every ExecParams.
type TxnBase struct {
	// From is the sender. When zero the signer's address is used.
	From   basics.Address
	Sign   Signer
	Params TxParams
}

func (b TxnBase) base() TxnBase {
	return b
}

func (b TxnBase) sender() basics.Address {
	if b.From.IsZero() && b.Sign != nil {
		return b.Sign.Address()
	}
	return b.From
}

// ExecParams describes one transaction to build, sign and submit. It is
// implemented by the *Param types of this package.
type ExecParams interface {
	base() TxnBase
}

// AlgoTransferParam pays Amount microalgos to To.
type AlgoTransferParam struct {
	TxnBase
	To     basics.Address
	Amount uint64
}

// AssetTransferParam moves Amount units of AssetID to To.
type AssetTransferParam struct {
	TxnBase
	AssetID basics.AssetIndex
	To      basics.Address
	Amount  uint64
}

// AssetModFields lists the roles a ModifyAssetParam changes. A nil field
// keeps the current role; a pointer to "" clears it.
type AssetModFields struct {
	Manager  *string
	Reserve  *string
	Freeze   *string
	Clawback *string
}

// ModifyAssetParam reconfigures the roles of an asset.
type ModifyAssetParam struct {
	TxnBase
	AssetID basics.AssetIndex
	Fields  AssetModFields

	// roles before the change, filled in by the Runtime
	current basics.AssetParams
}

// FreezeAssetParam sets the frozen flag of Target's holding.
type FreezeAssetParam struct {
	TxnBase
	AssetID basics.AssetIndex
	Target  basics.Address
	Freeze  bool
}

// RevokeAssetParam claws back Amount units from RevokeFrom into To. The
// sender must be the clawback address.
type RevokeAssetParam struct {
	TxnBase
	AssetID    basics.AssetIndex
	RevokeFrom basics.Address
	To         basics.Address
	Amount     uint64
}

// DestroyAssetParam destroys an asset; the creator must hold all of it.
type DestroyAssetParam struct {
	TxnBase
	AssetID basics.AssetIndex
}

// ASADef is the definition of an asset to create.
type ASADef struct {
	Total         uint64
	Decimals      uint32
	DefaultFrozen bool
	UnitName      string
	// AssetName defaults to the deployment name.
	AssetName    string
	URL          string
	MetadataHash [32]byte
	Manager      basics.Address
	Reserve      basics.Address
	Freeze       basics.Address
	Clawback     basics.Address
}

// DeployASAParam creates an asset, recorded under Name.
type DeployASAParam struct {
	TxnBase
	Name   string
	ASADef *ASADef
}

// OptInASAParam opts the sender in to AssetID.
type OptInASAParam struct {
	TxnBase
	AssetID basics.AssetIndex
}

// AppCallFields are the optional arrays of an application call.
type AppCallFields struct {
	AppArgs       [][]byte
	Accounts      []basics.Address
	ForeignApps   []basics.AppIndex
	ForeignAssets []basics.AssetIndex
	Boxes         []transactions.BoxRef
}

// DeployAppParam creates an app, recorded under Name. Programs are TEAL
// source.
type DeployAppParam struct {
	TxnBase
	AppCallFields
	Name            string
	ApprovalProgram string
	ClearProgram    string
	LocalInts       uint64
	LocalBytes      uint64
	GlobalInts      uint64
	GlobalBytes     uint64
	ExtraPages      uint32
}

// OptInToAppParam opts the sender in to AppID.
type OptInToAppParam struct {
	TxnBase
	AppCallFields
	AppID basics.AppIndex
}

// CallAppParam is a NoOp call of AppID.
type CallAppParam struct {
	TxnBase
	AppCallFields
	AppID basics.AppIndex
}

// UpdateAppParam replaces the programs of AppID.
type UpdateAppParam struct {
	TxnBase
	AppCallFields
	AppID           basics.AppIndex
	ApprovalProgram string
	ClearProgram    string
}

// DeleteAppParam deletes AppID.
type DeleteAppParam struct {
	TxnBase
	AppCallFields
	AppID basics.AppIndex
}

// CloseAppParam closes the sender out of AppID; the approval program must
// agree.
type CloseAppParam struct {
	TxnBase
	AppCallFields
	AppID basics.AppIndex
}

// ClearAppParam clears the sender's local state of AppID whatever the
// clear program decides.
type ClearAppParam struct {
	TxnBase
	AppCallFields
	AppID basics.AppIndex
}

// KeyRegParam registers (or deregisters) participation keys.
type KeyRegParam struct {
	TxnBase
	VotePK           [32]byte
	SelectionPK      [32]byte
	VoteFirst        basics.Round
	VoteLast         basics.Round
	VoteKeyDilution  uint64
	NonParticipation bool
}

func parseRole(cur basics.Address, field *string) (basics.Address, error) {
	if field == nil {
		return cur, nil
	}
	if *field == "" {
		return basics.Address{}, nil
	}
	return basics.UnmarshalChecksumAddress(*field)
}

func (p ModifyAssetParam) roles() (params basics.AssetParams, err error) {
	if params.Manager, err = parseRole(p.current.Manager, p.Fields.Manager); err != nil {
		return
	}
	if params.Reserve, err = parseRole(p.current.Reserve, p.Fields.Reserve); err != nil {
		return
	}
	if params.Freeze, err = parseRole(p.current.Freeze, p.Fields.Freeze); err != nil {
		return
	}
	params.Clawback, err = parseRole(p.current.Clawback, p.Fields.Clawback)
	return
}

func (f AppCallFields) fill(tx *transactions.Transaction, aidx basics.AppIndex, oc transactions.OnCompletion) {
	tx.Type = protocol.ApplicationCallTx
	tx.ApplicationID = aidx
	tx.OnCompletion = oc
	tx.ApplicationArgs = f.AppArgs
	tx.Accounts = f.Accounts
	tx.ForeignApps = f.ForeignApps
	tx.ForeignAssets = f.ForeignAssets
	tx.Boxes = f.Boxes
}

func programBytes(src string) []byte {
	if src == "" {
		return nil
	}
	return []byte(src)
}

// MakeTransaction turns p into an unsigned transaction. It does not read the
// ledger; a ModifyAssetParam built outside a Runtime treats nil roles as
// empty.
func MakeTransaction(p ExecParams, sp SuggestedParams) (transactions.Transaction, error) {
	if p == nil {
		return transactions.Transaction{}, buildErr(ledgercore.CodeUnsupportedTransactionType, ErrUnsupportedTransactionType)
	}
	b := p.base()
	if b.Sign == nil {
		return transactions.Transaction{}, buildErr(ledgercore.CodeInvalidTransactionParams, ErrMissingSigner)
	}
	sender := b.sender()
	if sender.IsZero() {
		return transactions.Transaction{}, buildErr(ledgercore.CodeInvalidTransactionParams, ErrMissingSender)
	}

	tx := transactions.Transaction{
		Header: transactions.Header{
			Sender:      sender,
			FirstValid:  b.Params.FirstValid,
			LastValid:   b.Params.LastValid,
			Note:        b.Params.Note,
			GenesisID:   sp.GenesisID,
			GenesisHash: sp.GenesisHash,
			Lease:       b.Params.Lease,
			RekeyTo:     b.Params.RekeyTo,
		},
	}
	if tx.FirstValid == 0 {
		tx.FirstValid = sp.FirstRound
	}
	if tx.LastValid == 0 {
		tx.LastValid = sp.LastRound
	}

	switch p := p.(type) {
	case AlgoTransferParam:
		tx.Type = protocol.PaymentTx
		tx.Receiver = p.To
		tx.Amount = basics.MicroAlgos{Raw: p.Amount}
		tx.CloseRemainderTo = b.Params.CloseRemainderTo

	case AssetTransferParam:
		tx.Type = protocol.AssetTransferTx
		tx.XferAsset = p.AssetID
		tx.AssetReceiver = p.To
		tx.AssetAmount = p.Amount
		tx.AssetCloseTo = b.Params.CloseRemainderTo

	case OptInASAParam:
		tx.Type = protocol.AssetTransferTx
		tx.XferAsset = p.AssetID
		tx.AssetReceiver = sender

	case RevokeAssetParam:
		tx.Type = protocol.AssetTransferTx
		tx.XferAsset = p.AssetID
		tx.AssetSender = p.RevokeFrom
		tx.AssetReceiver = p.To
		tx.AssetAmount = p.Amount

	case ModifyAssetParam:
		roles, err := p.roles()
		if err != nil {
			return transactions.Transaction{}, buildErr(ledgercore.CodeInvalidTransactionParams, err)
		}
		tx.Type = protocol.AssetConfigTx
		tx.ConfigAsset = p.AssetID
		tx.AssetParams = roles

	case DestroyAssetParam:
		tx.Type = protocol.AssetConfigTx
		tx.ConfigAsset = p.AssetID

	case DeployASAParam:
		if p.ASADef == nil {
			return transactions.Transaction{}, buildErr(ledgercore.CodeASADefinitionMissing,
				fmt.Errorf("%w: %q", ErrASADefinitionMissing, p.Name))
		}
		def := p.ASADef
		name := def.AssetName
		if name == "" {
			name = p.Name
		}
		tx.Type = protocol.AssetConfigTx
		tx.AssetParams = basics.AssetParams{
			Total:         def.Total,
			Decimals:      def.Decimals,
			DefaultFrozen: def.DefaultFrozen,
			UnitName:      def.UnitName,
			AssetName:     name,
			URL:           def.URL,
			MetadataHash:  def.MetadataHash,
			Manager:       def.Manager,
			Reserve:       def.Reserve,
			Freeze:        def.Freeze,
			Clawback:      def.Clawback,
		}

	case FreezeAssetParam:
		tx.Type = protocol.AssetFreezeTx
		tx.FreezeAsset = p.AssetID
		tx.FreezeAccount = p.Target
		tx.AssetFrozen = p.Freeze

	case DeployAppParam:
		p.fill(&tx, 0, transactions.NoOpOC)
		tx.ApprovalProgram = programBytes(p.ApprovalProgram)
		tx.ClearStateProgram = programBytes(p.ClearProgram)
		tx.LocalStateSchema = basics.StateSchema{NumUint: p.LocalInts, NumByteSlice: p.LocalBytes}
		tx.GlobalStateSchema = basics.StateSchema{NumUint: p.GlobalInts, NumByteSlice: p.GlobalBytes}
		tx.ExtraProgramPages = p.ExtraPages

	case OptInToAppParam:
		p.fill(&tx, p.AppID, transactions.OptInOC)

	case CallAppParam:
		p.fill(&tx, p.AppID, transactions.NoOpOC)

	case UpdateAppParam:
		p.fill(&tx, p.AppID, transactions.UpdateApplicationOC)
		tx.ApprovalProgram = programBytes(p.ApprovalProgram)
		tx.ClearStateProgram = programBytes(p.ClearProgram)

	case DeleteAppParam:
		p.fill(&tx, p.AppID, transactions.DeleteApplicationOC)

	case CloseAppParam:
		p.fill(&tx, p.AppID, transactions.CloseOutOC)

	case ClearAppParam:
		p.fill(&tx, p.AppID, transactions.ClearStateOC)

	case KeyRegParam:
		tx.Type = protocol.KeyRegistrationTx
		tx.VotePK = p.VotePK
		tx.SelectionPK = p.SelectionPK
		tx.VoteFirst = p.VoteFirst
		tx.VoteLast = p.VoteLast
		tx.VoteKeyDilution = p.VoteKeyDilution
		tx.Nonparticipation = p.NonParticipation

	default:
		return transactions.Transaction{}, buildErr(ledgercore.CodeUnsupportedTransactionType,
			fmt.Errorf("%w: %T", ErrUnsupportedTransactionType, p))
	}

	tx.Fee = b.Params.fee(&tx, sp)
	return tx, nil
}
