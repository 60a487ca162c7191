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
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/data/transactions"
	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
	"github.com/scale-it/algo-builder-sub005/protocol"
)

// MaxStringSize is the limit of byte string length in an AVM value
const MaxStringSize = 4096

// MaxStackDepth should not change unless controlled by an AVM version change
const MaxStackDepth = 1000

// maxScratchSlots is the number of scratch slots of every program
const maxScratchSlots = 256

// evalMaxArgs is the maximum number of arguments to a LogicSig
const evalMaxArgs = 255

// stackValue is the type for the operand stack.
// Each stackValue is either a valid []byte value or a uint64 value.
// If (.Bytes != nil) the stackValue is a []byte value, otherwise uint64 value.
type stackValue struct {
	Uint  uint64
	Bytes []byte
}

func (sv stackValue) argType() StackType {
	if sv.Bytes != nil {
		return StackBytes
	}
	return StackUint64
}

func (sv stackValue) typeName() string {
	if sv.Bytes != nil {
		return "[]byte"
	}
	return "uint64"
}

func (sv stackValue) clone() stackValue {
	if sv.Bytes != nil {
		// clone stack value if Bytes
		bytesClone := make([]byte, len(sv.Bytes))
		copy(bytesClone, sv.Bytes)
		return stackValue{Bytes: bytesClone}
	}
	// otherwise no cloning is needed if Uint
	return stackValue{Uint: sv.Uint}
}

func (sv stackValue) String() string {
	if sv.Bytes != nil {
		return "0x" + hex.EncodeToString(sv.Bytes)
	}
	return fmt.Sprintf("%d 0x%x", sv.Uint, sv.Uint)
}

func (sv stackValue) address() (addr basics.Address, err error) {
	if len(sv.Bytes) != len(addr) {
		return basics.Address{}, ledgercore.Reject(ledgercore.CodeInvalidType, "not an address", "len", len(sv.Bytes))
	}
	copy(addr[:], sv.Bytes)
	return
}

func (sv stackValue) uint() (uint64, error) {
	if sv.Bytes != nil {
		return 0, ledgercore.Reject(ledgercore.CodeInvalidType, "not a uint64")
	}
	return sv.Uint, nil
}

func (sv stackValue) uintMaxed(max uint64) (uint64, error) {
	if sv.Bytes != nil {
		return 0, ledgercore.Rejectf(ledgercore.CodeInvalidType, "%#v is not a uint64", sv.Bytes)
	}
	if sv.Uint > max {
		return 0, ledgercore.Rejectf(ledgercore.CodeInvalidOpArg, "%d is larger than max=%d", sv.Uint, max)
	}
	return sv.Uint, nil
}

func (sv stackValue) bool() (bool, error) {
	u64, err := sv.uint()
	if err != nil {
		return false, err
	}
	switch u64 {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ledgercore.Rejectf(ledgercore.CodeInvalidOpArg, "%d is not 0 or 1", u64)
	}
}

func (sv stackValue) string(limit int) (string, error) {
	if sv.Bytes == nil {
		return "", ledgercore.Reject(ledgercore.CodeInvalidType, "not a byte array")
	}
	if len(sv.Bytes) > limit {
		return "", ledgercore.Reject(ledgercore.CodeLongInput, "value is too long", "len", len(sv.Bytes), "limit", limit)
	}
	return string(sv.Bytes), nil
}

func (sv stackValue) toTealValue() basics.TealValue {
	if sv.Bytes != nil {
		return basics.TealValue{Type: basics.TealBytesType, Bytes: string(sv.Bytes)}
	}
	return basics.TealValue{Type: basics.TealUintType, Uint: sv.Uint}
}

func stackValueFromTealValue(tv basics.TealValue) (sv stackValue, err error) {
	switch tv.Type {
	case basics.TealBytesType:
		sv.Bytes = []byte(tv.Bytes)
	case basics.TealUintType:
		sv.Uint = tv.Uint
	default:
		err = fmt.Errorf("invalid TealValue type: %d", tv.Type)
	}
	return
}

// LedgerForLogic represents ledger API for Stateful TEAL program
type LedgerForLogic interface {
	AccountData(addr basics.Address) (basics.AccountData, error)
	Authorizer(addr basics.Address) (basics.Address, error)
	MinBalance(addr basics.Address, proto *config.ConsensusParams) (basics.MicroAlgos, error)
	Round() basics.Round
	LatestTimestamp() int64

	AssetHolding(addr basics.Address, assetIdx basics.AssetIndex) (basics.AssetHolding, error)
	AssetParams(aidx basics.AssetIndex) (basics.AssetParams, basics.Address, error)
	AppParams(aidx basics.AppIndex) (basics.AppParams, basics.Address, error)
	OptedIn(addr basics.Address, appIdx basics.AppIndex) (bool, error)

	GetLocal(addr basics.Address, appIdx basics.AppIndex, key string) (value basics.TealValue, exists bool, err error)
	SetLocal(addr basics.Address, appIdx basics.AppIndex, key string, value basics.TealValue) error
	DelLocal(addr basics.Address, appIdx basics.AppIndex, key string) error

	GetGlobal(appIdx basics.AppIndex, key string) (value basics.TealValue, exists bool, err error)
	SetGlobal(appIdx basics.AppIndex, key string, value basics.TealValue) error
	DelGlobal(appIdx basics.AppIndex, key string) error

	NewBox(appIdx basics.AppIndex, key string, value []byte, appAddr basics.Address) error
	GetBox(appIdx basics.AppIndex, key string) ([]byte, bool, error)
	SetBox(appIdx basics.AppIndex, key string, value []byte) error
	DelBox(appIdx basics.AppIndex, key string, appAddr basics.Address) (bool, error)

	Perform(gi int, ep *EvalParams) error
}

// RunMode is a bitset of logic evaluation modes.
// There are currently two such modes: Signature and Application.
type RunMode uint64

const (
	// ModeSig is LogicSig execution
	ModeSig RunMode = 1 << iota

	// ModeApp is application/contract execution
	ModeApp

	// local constant, run in any mode
	ModeAny = ModeSig | ModeApp
)

// Any checks if this mode bitset represents any evaluation mode
func (r RunMode) Any() bool {
	return r == ModeAny
}

func (r RunMode) String() string {
	switch r {
	case ModeSig:
		return "Signature"
	case ModeApp:
		return "Application"
	case ModeAny:
		return "Any"
	default:
	}
	return "Unknown"
}

type scratchSpace [maxScratchSlots]stackValue

// EvalParams contains data that comes into condition evaluation.
type EvalParams struct {
	Proto *config.ConsensusParams

	Trace *strings.Builder

	TxnGroup []transactions.SignedTxnWithAD

	pastScratch []*scratchSpace

	Ledger LedgerForLogic

	// optional debugger
	Debugger DebuggerHook

	// Amount "overpaid" by the transactions of the group.  Often 0.  When
	// positive, it can be spent by inner transactions.  Shared across a group's
	// txns, so that it can be updated (including upward, by overpaying inner
	// transactions). nil is treated as 0 (used before fee pooling is enabled).
	FeeCredit *uint64

	// Total pool of app call budget in a group transaction
	PooledApplicationBudget *int

	// Total allowable inner txns in a group transaction
	pooledAllowedInners *int

	// available contains resources that may be used even though they are not
	// necessarily directly in the txn's "static arrays". Apps and ASAs go in if
	// the app or asa was created earlier in the txgroup. Boxes go in when the
	// ep is created, to share availability across all txns in the group.
	available *resources

	// caller is the EvalContext of the app call that spawned this group, if
	// it is an inner group.
	caller *EvalContext

	// programs caches assembled programs by source text.
	programs map[string]*Program
}

// DebuggerHook receives the state of the evaluator after every step.
type DebuggerHook interface {
	AfterStep(cx *EvalContext)
}

// feeCredit returns the extra fee supplied in this top-level txgroup compared
// to required minfee.  It can make assumptions about overflow because the group
// is known OK according to txnGroupBatchPrep. (The group is "WellFormed")
func feeCredit(txgroup []transactions.SignedTxnWithAD, minFee uint64) uint64 {
	minFeeCount := uint64(0)
	feesPaid := uint64(0)
	for _, stxn := range txgroup {
		minFeeCount++
		feesPaid = basics.AddSaturate(feesPaid, stxn.Txn.Fee.Raw)
	}
	feeNeeded := basics.MulSaturate(minFee, minFeeCount)
	return basics.SubSaturate(feesPaid, feeNeeded)
}

// NewEvalParams creates an EvalParams to use while evaluating a top-level txgroup
func NewEvalParams(txgroup []transactions.SignedTxnWithAD, proto *config.ConsensusParams) *EvalParams {
	apps := 0
	for _, tx := range txgroup {
		if tx.Txn.Type == protocol.ApplicationCallTx {
			apps++
		}
	}

	credit := feeCredit(txgroup, proto.MinTxnFee)
	var pooledApplicationBudget *int
	var pooledAllowedInners *int
	if apps > 0 {
		pooledApplicationBudget = new(int)
		*pooledApplicationBudget = apps * proto.MaxAppProgramCost
		pooledAllowedInners = new(int)
		*pooledAllowedInners = proto.MaxInnerTransactions
	}

	return &EvalParams{
		TxnGroup:                txgroup,
		Proto:                   proto,
		pastScratch:             make([]*scratchSpace, len(txgroup)),
		FeeCredit:               &credit,
		PooledApplicationBudget: pooledApplicationBudget,
		pooledAllowedInners:     pooledAllowedInners,
		available:               newResources(txgroup),
		programs:                make(map[string]*Program),
	}
}

// NewInnerEvalParams creates an EvalParams to be used while evaluating an inner group txgroup
func NewInnerEvalParams(txg []transactions.SignedTxnWithAD, caller *EvalContext) *EvalParams {
	apps := 0
	for _, tx := range txg {
		if tx.Txn.Type == protocol.ApplicationCallTx {
			apps++
		}
	}
	// Inner app calls add their budget to the pool they share with the caller.
	if caller.PooledApplicationBudget != nil {
		*caller.PooledApplicationBudget += apps * caller.Proto.MaxAppProgramCost
	}

	return &EvalParams{
		Proto:                   caller.Proto,
		Trace:                   caller.Trace,
		TxnGroup:                txg,
		pastScratch:             make([]*scratchSpace, len(txg)),
		Ledger:                  caller.Ledger,
		Debugger:                caller.Debugger,
		FeeCredit:               caller.FeeCredit,
		PooledApplicationBudget: caller.PooledApplicationBudget,
		pooledAllowedInners:     caller.pooledAllowedInners,
		available:               caller.available,
		caller:                  caller,
		programs:                caller.programs,
	}
}

// RecordAD notes ApplyData information that was derived outside of the logic
// package. For example, after a acfg transaction is processed, the AD created
// by the acfg is added to the EvalParams this way.
func (ep *EvalParams) RecordAD(gi int, ad transactions.ApplyData) {
	if ep.available == nil {
		// This is a simplified ep. It won't be used for app evaluation, and
		// shares the TxnGroup memory with the caller.  Don't touch anything!
		return
	}
	ep.TxnGroup[gi].ApplyData = ad
	if aid := ad.ConfigAsset; aid != 0 {
		ep.available.createdAsas = append(ep.available.createdAsas, aid)
	}
	if aid := ad.ApplicationID; aid != 0 {
		ep.available.createdApps = append(ep.available.createdApps, aid)
	}
}

// Caller returns the EvalContext of the app call that created this group,
// nil for a top-level group.
func (ep *EvalParams) Caller() *EvalContext {
	return ep.caller
}

// Assemble returns the assembled form of program source, reusing earlier
// results for the same text.
func (ep *EvalParams) Assemble(src []byte) (*Program, error) {
	if ep.programs == nil {
		ep.programs = make(map[string]*Program)
	}
	if prog, ok := ep.programs[string(src)]; ok {
		return prog, nil
	}
	prog, err := AssembleString(string(src))
	if err != nil {
		return nil, err
	}
	ep.programs[string(src)] = prog
	return prog, nil
}

// EvalContext is the execution context of AVM bytecode.  It contains the full
// state of the running program, and tracks some of the things that the program
// has done, like log messages and inner transactions.
type EvalContext struct {
	*EvalParams

	// determines eval mode: runModeSignature or runModeApplication
	runMode RunMode

	// the index of the transaction being evaluated
	groupIndex int
	// the transaction being evaluated (initialized from groupIndex + ep.TxnGroup)
	txn *transactions.SignedTxnWithAD

	// the app being evaluated. 0 in LogicSig mode
	appID basics.AppIndex

	// keeping the running changes to the app's local and global state
	program     *Program
	programHash crypto.Digest
	version     uint64
	scratch     scratchSpace

	stack     []stackValue
	callstack []frame

	pc     int
	nextpc int
	jumped bool

	intc  []uint64
	bytec [][]byte

	subtxns []transactions.SignedTxnWithAD // place to build for itxn_submit
	cost    int                            // cost incurred so far
	logSize int                            // total log size so far
}

// GroupIndex returns the group index of the transaction being evaluated
func (cx *EvalContext) GroupIndex() int {
	return cx.groupIndex
}

// RunMode returns the evaluation context's mode (signature or application)
func (cx *EvalContext) RunMode() RunMode {
	return cx.runMode
}

// AppID returns the ID of the currently executing app. For LogicSigs it returns 0.
func (cx *EvalContext) AppID() basics.AppIndex {
	return cx.appID
}

// Cost returns the cost incurred by the program so far.
func (cx *EvalContext) Cost() int {
	return cx.cost
}

// Stack returns a printable copy of the operand stack, bottom first.
func (cx *EvalContext) Stack() []string {
	out := make([]string, len(cx.stack))
	for i, sv := range cx.stack {
		out[i] = sv.String()
	}
	return out
}

// PC returns the index of the next instruction.
func (cx *EvalContext) PC() int {
	return cx.pc
}

// PanicError wraps a recover() catching a panic()
type PanicError struct {
	PanicValue interface{}
	StackTrace string
}

func (pe PanicError) Error() string {
	return fmt.Sprintf("panic in TEAL Eval: %v\n%s", pe.PanicValue, pe.StackTrace)
}

var errLogicSigNotSupported = errors.New("LogicSig not supported")
var errTooManyArgs = errors.New("LogicSig has too many arguments")

// EvalError indicates AVM evaluation failure
type EvalError struct {
	Err        error
	details    string
	groupIndex int
	logicsig   bool
}

// Error satisfies builtin interface `error`
func (err EvalError) Error() string {
	var msg string
	if err.logicsig {
		msg = fmt.Sprintf("rejected by logic err=%v", err.Err)
	} else {
		msg = fmt.Sprintf("logic eval error: %v", err.Err)
	}
	if err.details == "" {
		return msg
	}
	return msg + ". Details: " + err.details
}

// GroupIndex is the index of the transaction that failed.
func (err EvalError) GroupIndex() int {
	return err.groupIndex
}

func (err EvalError) Unwrap() error {
	return err.Err
}

// EvalContract executes stateful program as the gi'th transaction in params
func EvalContract(program []byte, gi int, aid basics.AppIndex, params *EvalParams) (bool, *EvalContext, error) {
	if params.Ledger == nil {
		return false, nil, errors.New("no ledger in contract eval")
	}
	if aid == 0 {
		return false, nil, errors.New("0 appId in contract eval")
	}
	cx := EvalContext{
		EvalParams: params,
		runMode:    ModeApp,
		groupIndex: gi,
		txn:        &params.TxnGroup[gi],
		appID:      aid,
	}
	if params.available != nil {
		params.available.addCreatedAppBoxes(cx.txn, aid)
	}

	pass, err := eval(program, &cx)

	// update pastScratch so that gload can see what this program stored
	if cx.pastScratch != nil {
		saved := cx.scratch
		cx.pastScratch[cx.groupIndex] = &saved
	}
	return pass, &cx, err
}

// EvalApp is a lighter weight interface that doesn't return the EvalContext
func EvalApp(program []byte, gi int, aid basics.AppIndex, params *EvalParams) (bool, error) {
	pass, _, err := EvalContract(program, gi, aid, params)
	return pass, err
}

// EvalSignatureFull evaluates the logicsig of the ith transaction in params.
// A program passes successfully if it finishes with one int element on the stack that is non-zero.
// It returns EvalContext suitable for obtaining additional info about the execution.
func EvalSignatureFull(gi int, params *EvalParams) (bool, *EvalContext, error) {
	if params.TxnGroup[gi].Lsig.Blank() {
		return false, nil, errLogicSigNotSupported
	}
	if len(params.TxnGroup[gi].Lsig.Args) > evalMaxArgs {
		return false, nil, errTooManyArgs
	}
	cx := EvalContext{
		EvalParams: params,
		runMode:    ModeSig,
		groupIndex: gi,
		txn:        &params.TxnGroup[gi],
	}
	pass, err := eval(cx.txn.Lsig.Logic, &cx)
	return pass, &cx, err
}

// EvalSignature evaluates the logicsig of the ith transaction in params.
// A program passes successfully if it finishes with one int element on the stack that is non-zero.
func EvalSignature(gi int, params *EvalParams) (bool, error) {
	pass, _, err := EvalSignatureFull(gi, params)
	return pass, err
}

func (cx *EvalContext) budget() int {
	if cx.runMode == ModeSig {
		return int(cx.Proto.LogicSigMaxCost)
	}
	return cx.Proto.MaxAppProgramCost
}

func (cx *EvalContext) remainingBudget() int {
	if cx.runMode == ModeSig {
		return int(cx.Proto.LogicSigMaxCost) - cx.cost
	}

	// restrict clear state programs from using more than standard unpooled budget
	// cx.txn is not set during check()
	if cx.txn != nil && cx.txn.Txn.OnCompletion == transactions.ClearStateOC {
		// Need not confirm that *cx.PooledApplicationBudget is also >0, as
		// ClearState programs are only run if *cx.PooledApplicationBudget >
		// MaxAppProgramCost at the start.
		return cx.Proto.MaxAppProgramCost - cx.cost
	}

	if cx.PooledApplicationBudget != nil {
		return *cx.PooledApplicationBudget
	}
	return cx.Proto.MaxAppProgramCost - cx.cost
}

// eval implementation
// A program passes successfully if it finishes with one int element on the stack that is non-zero.
func eval(src []byte, cx *EvalContext) (pass bool, err error) {
	defer func() {
		if x := recover(); x != nil {
			buf := make([]byte, 16*1024)
			stlen := runtime.Stack(buf, false)
			pass = false
			errstr := string(buf[:stlen])
			if cx.Trace != nil {
				if serr, ok := x.(error); ok {
					errstr = serr.Error()
				}
				fmt.Fprintf(cx.Trace, "panic at pc=%d: %s", cx.pc, errstr)
			}
			err = PanicError{x, errstr}
		}
	}()

	program, err := cx.Assemble(src)
	if err != nil {
		return false, cx.wrap(err)
	}
	cx.programHash = crypto.HashObj(transactions.Program(src))
	if err := cx.begin(program); err != nil {
		return false, cx.wrap(err)
	}

	for cx.pc < len(cx.program.Instructions) {
		if err := cx.step(); err != nil {
			return false, cx.wrap(err)
		}
	}

	if len(cx.stack) != 1 {
		if cx.Trace != nil {
			fmt.Fprintf(cx.Trace, "end stack:\n")
			for i, sv := range cx.stack {
				fmt.Fprintf(cx.Trace, "[%d] %s\n", i, sv)
			}
		}
		return false, nil
	}
	if cx.stack[0].Bytes != nil {
		return false, nil
	}
	return cx.stack[0].Uint != 0, nil
}

// begin validates the program for this context and resets the evaluator.
func (cx *EvalContext) begin(program *Program) error {
	version := program.Version
	if version > cx.Proto.LogicSigVersion {
		return ledgercore.Rejectf(ledgercore.CodeVersionMismatch, "program version %d greater than max supported version %d", version, cx.Proto.LogicSigVersion)
	}
	if cx.runMode == ModeApp && version < appsEnabledVersion {
		return ledgercore.Rejectf(ledgercore.CodeVersionMismatch, "program version must be >= %d for this transaction group, but have version %d", appsEnabledVersion, version)
	}
	if cx.runMode == ModeApp && cx.caller != nil && version < innerAppsEnabledVersion && cx.txn.Txn.Type == protocol.ApplicationCallTx {
		return ledgercore.Rejectf(ledgercore.CodeVersionMismatch, "inner app call with version v%d < v%d", version, innerAppsEnabledVersion)
	}

	cx.program = program
	cx.version = version
	cx.pc = 0
	cx.stack = make([]stackValue, 0, 10)
	cx.callstack = nil

	if version < backBranchEnabledVersion {
		// without back branches the cost is bounded by the sum of all ops
		static := 0
		for i := range program.Instructions {
			static += program.Instructions[i].Spec.FullCost.baseCost
		}
		if static > cx.budget() {
			return ledgercore.Rejectf(ledgercore.CodeMaxCostExceeded, "program cost %d exceeds budget %d", static, cx.budget())
		}
	}
	return nil
}

func (cx *EvalContext) wrap(err error) error {
	details := ""
	if cx.program != nil && cx.pc < len(cx.program.Instructions) {
		details = fmt.Sprintf("pc=%d line=%d op=%s", cx.pc, cx.program.Instructions[cx.pc].Line, cx.program.Instructions[cx.pc].Spec.Name)
	}
	if cx.runMode == ModeApp {
		details = fmt.Sprintf("app=%d, %s", cx.appID, details)
	}
	if ledgercore.CodeOf(err) == 0 {
		err = ledgercore.WithCode(ledgercore.CodeInvalidOpArg, err)
	}
	return EvalError{Err: err, details: details, groupIndex: cx.groupIndex, logicsig: cx.runMode == ModeSig}
}

func (cx *EvalContext) instr() *Instruction {
	return &cx.program.Instructions[cx.pc]
}

func (cx *EvalContext) step() error {
	ins := cx.instr()
	spec := ins.Spec

	if (cx.runMode & spec.Modes) == 0 {
		return ledgercore.Rejectf(ledgercore.CodeInvalidOpArg, "%s not allowed in current mode", spec.Name)
	}

	// check args for stack underflow and types
	if len(cx.stack) < len(spec.Args) {
		return ledgercore.Reject(ledgercore.CodeStackUnderflow, "stack underflow in "+spec.Name)
	}
	first := len(cx.stack) - len(spec.Args)
	for i, argType := range spec.Args {
		if !opCompat(argType, cx.stack[first+i].argType()) {
			return ledgercore.Rejectf(ledgercore.CodeInvalidType, "%s arg %d wanted %s but got %s", spec.Name, i, argType.String(), cx.stack[first+i].typeName())
		}
	}

	cost := spec.FullCost.compute(cx.stack)
	cx.cost += cost
	if cx.runMode == ModeApp && cx.PooledApplicationBudget != nil {
		*cx.PooledApplicationBudget -= cost
	}
	if cx.remainingBudget() < 0 {
		// We're not going to execute the instruction, so give the cost back.
		cx.cost -= cost
		if cx.runMode == ModeApp && cx.PooledApplicationBudget != nil {
			*cx.PooledApplicationBudget += cost
		}
		return ledgercore.Rejectf(ledgercore.CodeMaxCostExceeded, "pc=%3d dynamic cost budget exceeded, executing %s: local program cost was %d", cx.pc, spec.Name, cx.cost)
	}

	preheight := len(cx.stack)
	err := spec.op(cx)

	if err == nil && !spec.varStack && !spec.exits {
		postheight := len(cx.stack)
		if postheight-preheight != len(spec.Returns)-len(spec.Args) {
			return fmt.Errorf("%s changed stack height improperly %d != %d",
				spec.Name, postheight-preheight, len(spec.Returns)-len(spec.Args))
		}
		first = postheight - len(spec.Returns)
		for i, argType := range spec.Returns {
			stackType := cx.stack[first+i].argType()
			if !opCompat(argType, stackType) {
				return fmt.Errorf("%s produced %s but intended %s", spec.Name, cx.stack[first+i].typeName(), argType.String())
			}
		}
	}
	if err == nil && len(cx.stack) > 0 && len(cx.stack[len(cx.stack)-1].Bytes) > MaxStringSize {
		err = ledgercore.Rejectf(ledgercore.CodeMaxLenExceeded, "%s produced a too big (%d) byte-array", spec.Name, len(cx.stack[len(cx.stack)-1].Bytes))
	}

	if cx.Trace != nil {
		var stackString string
		if len(cx.stack) == 0 {
			stackString = "<empty stack>"
		} else {
			num := 1
			if len(spec.Returns) > 1 {
				num = len(spec.Returns)
			}
			if num > len(cx.stack) {
				num = len(cx.stack)
			}
			for i := 1; i <= num; i++ {
				stackString += fmt.Sprintf("(%s) ", cx.stack[len(cx.stack)-i].String())
			}
		}
		fmt.Fprintf(cx.Trace, "%3d %s => %s\n", ins.Line, ins.Text, stackString)
	}
	if err != nil {
		return err
	}

	if len(cx.stack) > MaxStackDepth {
		return ledgercore.Reject(ledgercore.CodeStackOverflow, "stack overflow")
	}
	if cx.Debugger != nil {
		cx.Debugger.AfterStep(cx)
	}
	if cx.jumped {
		cx.pc = cx.nextpc
		cx.jumped = false
	} else {
		cx.pc++
	}
	return nil
}

func (cx *EvalContext) jump(target int) {
	cx.nextpc = target
	cx.jumped = true
}

func opErr(cx *EvalContext) error {
	return ledgercore.Reject(ledgercore.CodeTealEncounteredErr, "err opcode executed")
}

func opReturn(cx *EvalContext) error {
	// Achieve the end condition:
	// Take the last element on the stack and make it the return value (only element on the stack)
	// Move the pc to the end of the program
	last := len(cx.stack) - 1
	cx.stack[0] = cx.stack[last]
	cx.stack = cx.stack[:1]
	cx.jump(len(cx.program.Instructions))
	return nil
}

func opAssert(cx *EvalContext) error {
	last := len(cx.stack) - 1
	if cx.stack[last].Uint != 0 {
		cx.stack = cx.stack[:last]
		return nil
	}
	return ledgercore.Reject(ledgercore.CodeTealEncounteredErr, "assert failed")
}

func opBnz(cx *EvalContext) error {
	last := len(cx.stack) - 1
	isNonZero := cx.stack[last].Uint != 0
	cx.stack = cx.stack[:last] // pop
	if isNonZero {
		cx.jump(cx.instr().Targets[0])
	}
	return nil
}

func opBz(cx *EvalContext) error {
	last := len(cx.stack) - 1
	isZero := cx.stack[last].Uint == 0
	cx.stack = cx.stack[:last] // pop
	if isZero {
		cx.jump(cx.instr().Targets[0])
	}
	return nil
}

func opB(cx *EvalContext) error {
	cx.jump(cx.instr().Targets[0])
	return nil
}

func opSwitch(cx *EvalContext) error {
	last := len(cx.stack) - 1
	branchIdx := cx.stack[last].Uint
	cx.stack = cx.stack[:last]

	targets := cx.instr().Targets
	if branchIdx < uint64(len(targets)) {
		cx.jump(targets[branchIdx])
	}
	return nil
}

func opMatch(cx *EvalContext) error {
	targets := cx.instr().Targets
	n := len(targets)
	if len(cx.stack) < n+1 {
		return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "match expects %d stack args while stack only contains %d", n+1, len(cx.stack))
	}

	last := len(cx.stack) - 1
	matchVal := cx.stack[last]
	cx.stack = cx.stack[:last]

	argBase := len(cx.stack) - n
	matchList := cx.stack[argBase:]
	cx.stack = cx.stack[:argBase]

	for i, stackArg := range matchList {
		if stackArg.argType() != matchVal.argType() {
			continue
		}
		if matchVal.argType() == StackBytes && string(matchVal.Bytes) == string(stackArg.Bytes) {
			cx.jump(targets[i])
			return nil
		}
		if matchVal.argType() == StackUint64 && matchVal.Uint == stackArg.Uint {
			cx.jump(targets[i])
			return nil
		}
	}
	return nil
}

func opPop(cx *EvalContext) error {
	last := len(cx.stack) - 1
	cx.stack = cx.stack[:last]
	return nil
}

func opPopN(cx *EvalContext) error {
	n := int(cx.instr().Uints[0])
	top := len(cx.stack) - n
	if top < 0 {
		return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "popn %d while stack contains %d", n, len(cx.stack))
	}
	cx.stack = cx.stack[:top] // pop n
	return nil
}

func opDup(cx *EvalContext) error {
	last := len(cx.stack) - 1
	sv := cx.stack[last]
	cx.stack = append(cx.stack, sv)
	return nil
}

func opDupN(cx *EvalContext) error {
	last := len(cx.stack) - 1
	n := int(cx.instr().Uints[0])
	for i := 0; i < n; i++ {
		cx.stack = append(cx.stack, cx.stack[last])
	}
	return nil
}

func opDup2(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cx.stack = append(cx.stack, cx.stack[prev:]...)
	return nil
}

func opDig(cx *EvalContext) error {
	depth := int(cx.instr().Uints[0])
	idx := len(cx.stack) - 1 - depth
	// Need to check stack size explicitly here because checkArgs() doesn't understand dig
	// so we can't expect our stack to be prechecked.
	if idx < 0 {
		return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "dig %d with stack size = %d", depth, len(cx.stack))
	}
	sv := cx.stack[idx]
	cx.stack = append(cx.stack, sv)
	return nil
}

func opCover(cx *EvalContext) error {
	depth := int(cx.instr().Uints[0])
	topIdx := len(cx.stack) - 1
	idx := topIdx - depth
	// Need to check stack size explicitly here because checkArgs() doesn't understand cover
	// so we can't expect our stack to be prechecked.
	if idx < 0 {
		return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "cover %d with stack size = %d", depth, len(cx.stack))
	}
	sv := cx.stack[topIdx]
	copy(cx.stack[idx+1:], cx.stack[idx:])
	cx.stack[idx] = sv
	return nil
}

func opUncover(cx *EvalContext) error {
	depth := int(cx.instr().Uints[0])
	topIdx := len(cx.stack) - 1
	idx := topIdx - depth
	// Need to check stack size explicitly here because checkArgs() doesn't understand uncover
	// so we can't expect our stack to be prechecked.
	if idx < 0 {
		return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "uncover %d with stack size = %d", depth, len(cx.stack))
	}

	sv := cx.stack[idx]
	copy(cx.stack[idx:], cx.stack[idx+1:])
	cx.stack[topIdx] = sv
	return nil
}

func opBury(cx *EvalContext) error {
	last := len(cx.stack) - 1 // index of the last stack element
	depth := int(cx.instr().Uints[0])
	if depth == 0 {
		return ledgercore.Reject(ledgercore.CodeInvalidOpArg, "bury 0 always fails")
	}
	idx := last - depth
	// Need to check stack size explicitly here because checkArgs() doesn't understand bury
	// so we can't expect our stack to be prechecked.
	if idx < 0 {
		return ledgercore.Rejectf(ledgercore.CodeStackUnderflow, "bury %d with stack size = %d", depth, len(cx.stack))
	}
	cx.stack[idx] = cx.stack[last]
	cx.stack = cx.stack[:last]
	return nil
}

func opSwap(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	cx.stack[last], cx.stack[prev] = cx.stack[prev], cx.stack[last]
	return nil
}

func opSelect(cx *EvalContext) error {
	last := len(cx.stack) - 1 // condition on top
	prev := last - 1          // true is one down
	pprev := prev - 1         // false below that

	if cx.stack[last].Uint != 0 {
		cx.stack[pprev] = cx.stack[prev]
	}
	cx.stack = cx.stack[:prev]
	return nil
}

func opIntConstBlock(cx *EvalContext) error {
	cx.intc = cx.instr().Uints
	return nil
}

func opIntConstN(cx *EvalContext, n uint64) error {
	if n >= uint64(len(cx.intc)) {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "intc %d beyond %d constants", n, len(cx.intc))
	}
	cx.stack = append(cx.stack, stackValue{Uint: cx.intc[n]})
	return nil
}
func opIntConstLoad(cx *EvalContext) error {
	return opIntConstN(cx, cx.instr().Uints[0])
}
func opIntConst0(cx *EvalContext) error {
	return opIntConstN(cx, 0)
}
func opIntConst1(cx *EvalContext) error {
	return opIntConstN(cx, 1)
}
func opIntConst2(cx *EvalContext) error {
	return opIntConstN(cx, 2)
}
func opIntConst3(cx *EvalContext) error {
	return opIntConstN(cx, 3)
}

func opPushInt(cx *EvalContext) error {
	cx.stack = append(cx.stack, stackValue{Uint: cx.instr().Uints[0]})
	return nil
}

func opPushInts(cx *EvalContext) error {
	for _, v := range cx.instr().Uints {
		cx.stack = append(cx.stack, stackValue{Uint: v})
	}
	return nil
}

func opByteConstBlock(cx *EvalContext) error {
	cx.bytec = cx.instr().Bytes
	return nil
}

func opByteConstN(cx *EvalContext, n uint64) error {
	if n >= uint64(len(cx.bytec)) {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "bytec %d beyond %d constants", n, len(cx.bytec))
	}
	cx.stack = append(cx.stack, stackValue{Bytes: nonNil(cx.bytec[n])})
	return nil
}
func opByteConstLoad(cx *EvalContext) error {
	return opByteConstN(cx, cx.instr().Uints[0])
}
func opByteConst0(cx *EvalContext) error {
	return opByteConstN(cx, 0)
}
func opByteConst1(cx *EvalContext) error {
	return opByteConstN(cx, 1)
}
func opByteConst2(cx *EvalContext) error {
	return opByteConstN(cx, 2)
}
func opByteConst3(cx *EvalContext) error {
	return opByteConstN(cx, 3)
}

func opPushBytes(cx *EvalContext) error {
	cx.stack = append(cx.stack, stackValue{Bytes: nonNil(cx.instr().Bytes[0])})
	return nil
}

func opPushBytess(cx *EvalContext) error {
	for _, b := range cx.instr().Bytes {
		cx.stack = append(cx.stack, stackValue{Bytes: nonNil(b)})
	}
	return nil
}

// nonNil keeps empty byte constants typed as bytes on the stack.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func opArgN(cx *EvalContext, n uint64) error {
	if n >= uint64(len(cx.txn.Lsig.Args)) {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "cannot load arg[%d] of %d", n, len(cx.txn.Lsig.Args))
	}
	val := nonNil(cx.txn.Lsig.Args[n])
	cx.stack = append(cx.stack, stackValue{Bytes: val})
	return nil
}

func opArg(cx *EvalContext) error {
	return opArgN(cx, cx.instr().Uints[0])
}
func opArg0(cx *EvalContext) error {
	return opArgN(cx, 0)
}
func opArg1(cx *EvalContext) error {
	return opArgN(cx, 1)
}
func opArg2(cx *EvalContext) error {
	return opArgN(cx, 2)
}
func opArg3(cx *EvalContext) error {
	return opArgN(cx, 3)
}
func opArgs(cx *EvalContext) error {
	last := len(cx.stack) - 1
	n := cx.stack[last].Uint
	// Pop the index and push the result back on the stack.
	cx.stack = cx.stack[:last]
	return opArgN(cx, n)
}

func opLoad(cx *EvalContext) error {
	n := cx.instr().Uints[0]
	cx.stack = append(cx.stack, cx.scratch[n])
	return nil
}

func opStore(cx *EvalContext) error {
	n := cx.instr().Uints[0]
	last := len(cx.stack) - 1
	cx.scratch[n] = cx.stack[last]
	cx.stack = cx.stack[:last]
	return nil
}

func opLoads(cx *EvalContext) error {
	last := len(cx.stack) - 1
	n := cx.stack[last].Uint
	if n >= uint64(len(cx.scratch)) {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid Scratch index %d", n)
	}
	cx.stack[last] = cx.scratch[n]
	return nil
}

func opStores(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1
	n := cx.stack[prev].Uint
	if n >= uint64(len(cx.scratch)) {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid Scratch index %d", n)
	}
	cx.scratch[n] = cx.stack[last]
	cx.stack = cx.stack[:prev]
	return nil
}

func (cx *EvalContext) getTxID(txn *transactions.Transaction, groupIndex int, inner bool) transactions.Txid {
	if inner && cx.caller != nil {
		// inner transactions are identified relative to the outer txn
		return txn.InnerID(cx.caller.txn.ID(), groupIndex)
	}
	return txn.ID()
}

func (cx *EvalContext) txnFieldToStack(stxn *transactions.SignedTxnWithAD, fs *txnFieldSpec, arrayFieldIdx uint64, groupIndex int, inner bool) (sv stackValue, err error) {
	if fs.effects {
		if cx.runMode == ModeSig {
			return sv, fmt.Errorf("txn[%s] not allowed in current mode", fs.field)
		}
		if cx.version < txnEffectsVersion && !inner {
			return sv, errors.New("unable to obtain effects from top-level transactions")
		}
	}
	if inner {
		// Before we had inner apps, we did not allow these, since we had no inner groups.
		if cx.version < innerAppsEnabledVersion && (fs.field == GroupIndex || fs.field == TxID) {
			return sv, fmt.Errorf("illegal field for inner transaction %s", fs.field)
		}
	}
	err = nil
	txn := &stxn.SignedTxn.Txn
	switch fs.field {
	case Sender:
		sv.Bytes = txn.Sender[:]
	case Fee:
		sv.Uint = txn.Fee.Raw
	case FirstValid:
		sv.Uint = uint64(txn.FirstValid)
	case FirstValidTime:
		return sv, errors.New("FirstValidTime is not available")
	case LastValid:
		sv.Uint = uint64(txn.LastValid)
	case Note:
		sv.Bytes = nonNil(txn.Note)
	case Lease:
		sv.Bytes = txn.Lease[:]
	case Receiver:
		sv.Bytes = txn.Receiver[:]
	case Amount:
		sv.Uint = txn.Amount.Raw
	case CloseRemainderTo:
		sv.Bytes = txn.CloseRemainderTo[:]
	case VotePK:
		sv.Bytes = txn.VotePK[:]
	case SelectionPK:
		sv.Bytes = txn.SelectionPK[:]
	case VoteFirst:
		sv.Uint = uint64(txn.VoteFirst)
	case VoteLast:
		sv.Uint = uint64(txn.VoteLast)
	case VoteKeyDilution:
		sv.Uint = txn.VoteKeyDilution
	case Nonparticipation:
		sv.Uint = boolToUint(txn.Nonparticipation)
	case Type:
		sv.Bytes = []byte(txn.Type)
	case TypeEnum:
		sv.Uint = txnTypeMap[string(txn.Type)]
	case XferAsset:
		sv.Uint = uint64(txn.XferAsset)
	case AssetAmount:
		sv.Uint = txn.AssetAmount
	case AssetSender:
		sv.Bytes = txn.AssetSender[:]
	case AssetReceiver:
		sv.Bytes = txn.AssetReceiver[:]
	case AssetCloseTo:
		sv.Bytes = txn.AssetCloseTo[:]
	case GroupIndex:
		sv.Uint = uint64(groupIndex)
	case TxID:
		txid := cx.getTxID(txn, groupIndex, inner)
		sv.Bytes = txid[:]
	case ApplicationID:
		sv.Uint = uint64(txn.ApplicationID)
	case OnCompletion:
		sv.Uint = uint64(txn.OnCompletion)

	case ApplicationArgs:
		if arrayFieldIdx >= uint64(len(txn.ApplicationArgs)) {
			return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid ApplicationArgs index %d", arrayFieldIdx)
		}
		sv.Bytes = nonNil(txn.ApplicationArgs[arrayFieldIdx])
	case NumAppArgs:
		sv.Uint = uint64(len(txn.ApplicationArgs))

	case Accounts:
		if arrayFieldIdx == 0 {
			// special case: sender
			sv.Bytes = txn.Sender[:]
		} else {
			if arrayFieldIdx > uint64(len(txn.Accounts)) {
				return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid Accounts index %d", arrayFieldIdx)
			}
			sv.Bytes = txn.Accounts[arrayFieldIdx-1][:]
		}
	case NumAccounts:
		sv.Uint = uint64(len(txn.Accounts))

	case Assets:
		if arrayFieldIdx >= uint64(len(txn.ForeignAssets)) {
			return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid Assets index %d", arrayFieldIdx)
		}
		sv.Uint = uint64(txn.ForeignAssets[arrayFieldIdx])
	case NumAssets:
		sv.Uint = uint64(len(txn.ForeignAssets))

	case Applications:
		if arrayFieldIdx == 0 {
			// special case: current app id
			sv.Uint = uint64(txn.ApplicationID)
		} else {
			if arrayFieldIdx > uint64(len(txn.ForeignApps)) {
				return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid Applications index %d", arrayFieldIdx)
			}
			sv.Uint = uint64(txn.ForeignApps[arrayFieldIdx-1])
		}
	case NumApplications:
		sv.Uint = uint64(len(txn.ForeignApps))

	case GlobalNumUint:
		sv.Uint = txn.GlobalStateSchema.NumUint
	case GlobalNumByteSlice:
		sv.Uint = txn.GlobalStateSchema.NumByteSlice

	case LocalNumUint:
		sv.Uint = txn.LocalStateSchema.NumUint
	case LocalNumByteSlice:
		sv.Uint = txn.LocalStateSchema.NumByteSlice

	case ApprovalProgram:
		sv.Bytes = nonNil(txn.ApprovalProgram)
	case ClearStateProgram:
		sv.Bytes = nonNil(txn.ClearStateProgram)
	case NumApprovalProgramPages:
		sv.Uint = uint64(divCeil(len(txn.ApprovalProgram), MaxStringSize))
	case ApprovalProgramPages:
		pageCount := divCeil(len(txn.ApprovalProgram), MaxStringSize)
		if arrayFieldIdx >= uint64(pageCount) {
			return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid ApprovalProgramPages index %d", arrayFieldIdx)
		}
		first := arrayFieldIdx * MaxStringSize
		last := min(first+MaxStringSize, uint64(len(txn.ApprovalProgram)))
		sv.Bytes = txn.ApprovalProgram[first:last]
	case NumClearStateProgramPages:
		sv.Uint = uint64(divCeil(len(txn.ClearStateProgram), MaxStringSize))
	case ClearStateProgramPages:
		pageCount := divCeil(len(txn.ClearStateProgram), MaxStringSize)
		if arrayFieldIdx >= uint64(pageCount) {
			return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid ClearStateProgramPages index %d", arrayFieldIdx)
		}
		first := arrayFieldIdx * MaxStringSize
		last := min(first+MaxStringSize, uint64(len(txn.ClearStateProgram)))
		sv.Bytes = txn.ClearStateProgram[first:last]
	case RekeyTo:
		sv.Bytes = txn.RekeyTo[:]
	case ConfigAsset:
		sv.Uint = uint64(txn.ConfigAsset)
	case ConfigAssetTotal:
		sv.Uint = txn.AssetParams.Total
	case ConfigAssetDecimals:
		sv.Uint = uint64(txn.AssetParams.Decimals)
	case ConfigAssetDefaultFrozen:
		sv.Uint = boolToUint(txn.AssetParams.DefaultFrozen)
	case ConfigAssetUnitName:
		sv.Bytes = []byte(txn.AssetParams.UnitName)
	case ConfigAssetName:
		sv.Bytes = []byte(txn.AssetParams.AssetName)
	case ConfigAssetURL:
		sv.Bytes = []byte(txn.AssetParams.URL)
	case ConfigAssetMetadataHash:
		sv.Bytes = txn.AssetParams.MetadataHash[:]
	case ConfigAssetManager:
		sv.Bytes = txn.AssetParams.Manager[:]
	case ConfigAssetReserve:
		sv.Bytes = txn.AssetParams.Reserve[:]
	case ConfigAssetFreeze:
		sv.Bytes = txn.AssetParams.Freeze[:]
	case ConfigAssetClawback:
		sv.Bytes = txn.AssetParams.Clawback[:]
	case FreezeAsset:
		sv.Uint = uint64(txn.FreezeAsset)
	case FreezeAssetAccount:
		sv.Bytes = txn.FreezeAccount[:]
	case FreezeAssetFrozen:
		sv.Uint = boolToUint(txn.AssetFrozen)
	case ExtraProgramPages:
		sv.Uint = uint64(txn.ExtraProgramPages)

	case Logs:
		if arrayFieldIdx >= uint64(len(stxn.EvalDelta.Logs)) {
			return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid Logs index %d", arrayFieldIdx)
		}
		sv.Bytes = nonNil([]byte(stxn.EvalDelta.Logs[arrayFieldIdx]))
	case NumLogs:
		sv.Uint = uint64(len(stxn.EvalDelta.Logs))
	case LastLog:
		if logs := len(stxn.EvalDelta.Logs); logs > 0 {
			sv.Bytes = []byte(stxn.EvalDelta.Logs[logs-1])
		} else {
			sv.Bytes = []byte{}
		}
	case CreatedAssetID:
		sv.Uint = uint64(stxn.ApplyData.ConfigAsset)
	case CreatedApplicationID:
		sv.Uint = uint64(stxn.ApplyData.ApplicationID)

	default:
		return sv, fmt.Errorf("invalid txn field %s", fs.field)
	}

	if fs.ftype != sv.argType() {
		return sv, fmt.Errorf("%s expected field type is %s but got %s", fs.field, fs.ftype, sv.argType())
	}
	return sv, nil
}

var txnTypeMap = map[string]uint64{
	string(protocol.UnknownTx):         0,
	string(protocol.PaymentTx):         1,
	string(protocol.KeyRegistrationTx): 2,
	string(protocol.AssetConfigTx):     3,
	string(protocol.AssetTransferTx):   4,
	string(protocol.AssetFreezeTx):     5,
	string(protocol.ApplicationCallTx): 6,
}

var txnTypeNames = func() map[uint64]protocol.TxType {
	out := make(map[uint64]protocol.TxType, len(txnTypeMap))
	for name, v := range txnTypeMap {
		out[v] = protocol.TxType(name)
	}
	return out
}()

func boolToUint(x bool) uint64 {
	if x {
		return 1
	}
	return 0
}

func divCeil(numerator, denominator int) int {
	return (numerator + denominator - 1) / denominator
}

func (cx *EvalContext) fetchField(field TxnField, expectArray bool) (*txnFieldSpec, error) {
	fs, ok := txnFieldSpecByField(field)
	if !ok || fs.version > cx.version {
		return nil, fmt.Errorf("invalid txn field %s", field)
	}
	if expectArray != fs.array {
		if expectArray {
			return nil, fmt.Errorf("unsupported array field %s", field)
		}
		return nil, fmt.Errorf("invalid txn field %s", field)
	}
	return &fs, nil
}

type txnSource int

const (
	srcGroup txnSource = iota
	srcInner
	srcInnerGroup
)

// opTxnImpl implements all of the txn variants.  Each form of txn opcode should
// be able to get its work done with one call here, after collecting the args in
// the way the particular opcode does it.
func (cx *EvalContext) opTxnImpl(gi uint64, src txnSource, field TxnField, ai uint64, expectArray bool) (sv stackValue, err error) {
	fs, err := cx.fetchField(field, expectArray)
	if err != nil {
		return sv, err
	}

	var group []transactions.SignedTxnWithAD
	switch src {
	case srcGroup:
		if fs.effects && gi >= uint64(cx.groupIndex) {
			// Test mode so that error is clearer
			return sv, fmt.Errorf("txn effects can only be read from past txns %d %d", gi, cx.groupIndex)
		}
		group = cx.TxnGroup
	case srcInner:
		group = cx.getLastInner()
	case srcInnerGroup:
		group = cx.getLastInnerGroup()
	}

	// We cast the length up, rather than gi down, in case gi overflows `int`.
	if gi >= uint64(len(group)) {
		return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "txn index %d, len(group) is %d", gi, len(group))
	}
	return cx.txnFieldToStack(&group[gi], fs, ai, int(gi), src != srcGroup)
}

func opTxn(cx *EvalContext) error {
	gi := cx.groupIndex
	field := TxnField(cx.instr().Uints[0])
	sv, err := cx.opTxnImpl(uint64(gi), srcGroup, field, 0, false)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opTxna(cx *EvalContext) error {
	gi := cx.groupIndex
	field := TxnField(cx.instr().Uints[0])
	ai := cx.instr().Uints[1]
	sv, err := cx.opTxnImpl(uint64(gi), srcGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opTxnas(cx *EvalContext) error {
	last := len(cx.stack) - 1

	gi := cx.groupIndex
	field := TxnField(cx.instr().Uints[0])
	ai := cx.stack[last].Uint
	sv, err := cx.opTxnImpl(uint64(gi), srcGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack[last] = sv
	return nil
}

func opGtxn(cx *EvalContext) error {
	gi := cx.instr().Uints[0]
	field := TxnField(cx.instr().Uints[1])
	sv, err := cx.opTxnImpl(gi, srcGroup, field, 0, false)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opGtxna(cx *EvalContext) error {
	gi := cx.instr().Uints[0]
	field := TxnField(cx.instr().Uints[1])
	ai := cx.instr().Uints[2]
	sv, err := cx.opTxnImpl(gi, srcGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opGtxnas(cx *EvalContext) error {
	last := len(cx.stack) - 1

	gi := cx.instr().Uints[0]
	field := TxnField(cx.instr().Uints[1])
	ai := cx.stack[last].Uint
	sv, err := cx.opTxnImpl(gi, srcGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack[last] = sv
	return nil
}

func opGtxns(cx *EvalContext) error {
	last := len(cx.stack) - 1

	gi := cx.stack[last].Uint
	field := TxnField(cx.instr().Uints[0])
	sv, err := cx.opTxnImpl(gi, srcGroup, field, 0, false)
	if err != nil {
		return err
	}
	cx.stack[last] = sv
	return nil
}

func opGtxnsa(cx *EvalContext) error {
	last := len(cx.stack) - 1

	gi := cx.stack[last].Uint
	field := TxnField(cx.instr().Uints[0])
	ai := cx.instr().Uints[1]
	sv, err := cx.opTxnImpl(gi, srcGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack[last] = sv
	return nil
}

func opGtxnsas(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1

	gi := cx.stack[prev].Uint
	field := TxnField(cx.instr().Uints[0])
	ai := cx.stack[last].Uint
	sv, err := cx.opTxnImpl(gi, srcGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack[prev] = sv
	cx.stack = cx.stack[:last]
	return nil
}

func opItxn(cx *EvalContext) error {
	field := TxnField(cx.instr().Uints[0])
	sv, err := cx.opTxnImpl(0, srcInner, field, 0, false)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opItxna(cx *EvalContext) error {
	field := TxnField(cx.instr().Uints[0])
	ai := cx.instr().Uints[1]
	sv, err := cx.opTxnImpl(0, srcInner, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opItxnas(cx *EvalContext) error {
	last := len(cx.stack) - 1

	field := TxnField(cx.instr().Uints[0])
	ai := cx.stack[last].Uint
	sv, err := cx.opTxnImpl(0, srcInner, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack[last] = sv
	return nil
}

func (cx *EvalContext) getLastInner() []transactions.SignedTxnWithAD {
	inners := cx.txn.EvalDelta.InnerTxns
	// If there are no inners yet, return empty slice, which will result in error
	if len(inners) == 0 {
		return inners
	}
	return inners[len(inners)-1:]
}

func (cx *EvalContext) getLastInnerGroup() []transactions.SignedTxnWithAD {
	inners := cx.txn.EvalDelta.InnerTxns
	// If there are no inners yet, return empty slice, which will result in error
	if len(inners) == 0 {
		return inners
	}
	gid := inners[len(inners)-1].Txn.Group
	// If last inner was not a part of a group, return it as slice of one
	if gid.IsZero() {
		return inners[len(inners)-1:]
	}

	// Look back for the first non-matching group
	for i := len(inners) - 2; i >= 0; i-- {
		if inners[i].Txn.Group != gid {
			return inners[i+1:]
		}
	}
	// All have the same (non-zero) group. Return all
	return inners
}

func opGitxn(cx *EvalContext) error {
	gi := cx.instr().Uints[0]
	field := TxnField(cx.instr().Uints[1])
	sv, err := cx.opTxnImpl(gi, srcInnerGroup, field, 0, false)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opGitxna(cx *EvalContext) error {
	gi := cx.instr().Uints[0]
	field := TxnField(cx.instr().Uints[1])
	ai := cx.instr().Uints[2]
	sv, err := cx.opTxnImpl(gi, srcInnerGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opGitxnas(cx *EvalContext) error {
	last := len(cx.stack) - 1

	gi := cx.instr().Uints[0]
	field := TxnField(cx.instr().Uints[1])
	ai := cx.stack[last].Uint
	sv, err := cx.opTxnImpl(gi, srcInnerGroup, field, ai, true)
	if err != nil {
		return err
	}
	cx.stack[last] = sv
	return nil
}

func (cx *EvalContext) getLatestTimestamp() (uint64, error) {
	ts := cx.Ledger.LatestTimestamp()
	if ts < 0 {
		return 0, fmt.Errorf("latest timestamp %d < 0", ts)
	}
	return uint64(ts), nil
}

func (cx *EvalContext) getApplicationAddress(app basics.AppIndex) basics.Address {
	return app.Address()
}

func (cx *EvalContext) getCreatorAddress() ([]byte, error) {
	_, creator, err := cx.Ledger.AppParams(cx.appID)
	if err != nil {
		return nil, fmt.Errorf("no params for current app: %w", err)
	}
	return creator[:], nil
}

var zeroAddress basics.Address

func (cx *EvalContext) globalFieldToValue(fs globalFieldSpec) (sv stackValue, err error) {
	switch fs.field {
	case MinTxnFee:
		sv.Uint = cx.Proto.MinTxnFee
	case MinBalance:
		sv.Uint = cx.Proto.MinBalance
	case MaxTxnLife:
		sv.Uint = cx.Proto.MaxTxnLife
	case ZeroAddress:
		sv.Bytes = zeroAddress[:]
	case GroupSize:
		sv.Uint = uint64(len(cx.TxnGroup))
	case LogicSigVersion:
		sv.Uint = cx.Proto.LogicSigVersion
	case Round:
		sv.Uint = uint64(cx.Ledger.Round())
	case LatestTimestamp:
		sv.Uint, err = cx.getLatestTimestamp()
	case CurrentApplicationID:
		sv.Uint = uint64(cx.appID)
	case CurrentApplicationAddress:
		addr := cx.getApplicationAddress(cx.appID)
		sv.Bytes = addr[:]
	case CreatorAddress:
		sv.Bytes, err = cx.getCreatorAddress()
	case GroupID:
		sv.Bytes = cx.txn.Txn.Group[:]
	case OpcodeBudget:
		sv.Uint = uint64(cx.remainingBudget())
	case CallerApplicationID:
		if cx.caller != nil {
			sv.Uint = uint64(cx.caller.appID)
		} else {
			sv.Uint = 0
		}
	case CallerApplicationAddress:
		if cx.caller != nil {
			addr := cx.getApplicationAddress(cx.caller.appID)
			sv.Bytes = addr[:]
		} else {
			sv.Bytes = zeroAddress[:]
		}
	default:
		err = fmt.Errorf("invalid global field %d", fs.field)
	}
	if err != nil {
		return sv, err
	}

	if fs.ftype != sv.argType() {
		return sv, fmt.Errorf("%s expected field type is %s but got %s", fs.field, fs.ftype, sv.argType())
	}
	return sv, nil
}

func opGlobal(cx *EvalContext) error {
	globalField := GlobalField(cx.instr().Uints[0])
	fs, ok := globalFieldSpecByField(globalField)
	if !ok || fs.version > cx.version {
		return fmt.Errorf("invalid global field %s", globalField)
	}
	if (cx.runMode & fs.mode) == 0 {
		return fmt.Errorf("global[%s] not allowed in current mode", globalField)
	}

	sv, err := cx.globalFieldToValue(fs)
	if err != nil {
		return err
	}

	cx.stack = append(cx.stack, sv)
	return nil
}

func opGload(cx *EvalContext) error {
	groupIdx := cx.instr().Uints[0]
	scratchIdx := cx.instr().Uints[1]
	value, err := opGloadImpl(cx, groupIdx, scratchIdx, "gload")
	if err != nil {
		return err
	}

	cx.stack = append(cx.stack, value)
	return nil
}

func opGloads(cx *EvalContext) error {
	last := len(cx.stack) - 1
	gi := cx.stack[last].Uint
	scratchIdx := cx.instr().Uints[0]
	value, err := opGloadImpl(cx, gi, scratchIdx, "gloads")
	if err != nil {
		return err
	}

	cx.stack[last] = value
	return nil
}

func opGloadss(cx *EvalContext) error {
	last := len(cx.stack) - 1
	prev := last - 1

	gi := cx.stack[prev].Uint
	scratchIdx := cx.stack[last].Uint
	if scratchIdx >= maxScratchSlots {
		return ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "invalid Scratch index %d", scratchIdx)
	}
	value, err := opGloadImpl(cx, gi, scratchIdx, "gloadss")
	if err != nil {
		return err
	}

	cx.stack[prev] = value
	cx.stack = cx.stack[:last]
	return nil
}

func opGloadImpl(cx *EvalContext, gi uint64, scratchIdx uint64, opName string) (stackValue, error) {
	var none stackValue
	if gi >= uint64(len(cx.TxnGroup)) {
		return none, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "%s lookup TxnGroup[%d] but it only has %d", opName, gi, len(cx.TxnGroup))
	}
	if int(gi) >= cx.groupIndex {
		return none, fmt.Errorf("%s can't get future scratch space from txn with index %d", opName, gi)
	}
	if cx.TxnGroup[gi].Txn.Type != protocol.ApplicationCallTx {
		return none, fmt.Errorf("can't use %s on non-app call txn with index %d", opName, gi)
	}
	if cx.pastScratch[gi] == nil {
		return none, fmt.Errorf("no scratch space recorded for txn %d", gi)
	}
	return cx.pastScratch[gi][scratchIdx], nil
}

func opGaid(cx *EvalContext) error {
	gi := cx.instr().Uints[0]
	sv, err := opGaidImpl(cx, gi, "gaid")
	if err != nil {
		return err
	}
	cx.stack = append(cx.stack, sv)
	return nil
}

func opGaids(cx *EvalContext) error {
	last := len(cx.stack) - 1
	sv, err := opGaidImpl(cx, cx.stack[last].Uint, "gaids")
	if err != nil {
		return err
	}
	cx.stack[last] = sv
	return nil
}

func opGaidImpl(cx *EvalContext, gi uint64, opName string) (sv stackValue, err error) {
	if gi >= uint64(len(cx.TxnGroup)) {
		return sv, ledgercore.Rejectf(ledgercore.CodeIndexOutOfBound, "%s lookup TxnGroup[%d] but it only has %d", opName, gi, len(cx.TxnGroup))
	}
	if int(gi) >= cx.groupIndex {
		return sv, fmt.Errorf("%s can't get creatable ID of txn ahead of the current one (index %d) in the transaction group", opName, gi)
	}
	txn := cx.TxnGroup[gi].Txn
	switch {
	case txn.Type == protocol.AssetConfigTx && txn.ConfigAsset == 0:
		sv.Uint = uint64(cx.TxnGroup[gi].ApplyData.ConfigAsset)
	case txn.Type == protocol.ApplicationCallTx && txn.ApplicationID == 0:
		sv.Uint = uint64(cx.TxnGroup[gi].ApplyData.ApplicationID)
	default:
		return sv, fmt.Errorf("%s: can't use %s on txn that is not an app or asset creation", opName, opName)
	}
	return sv, nil
}
