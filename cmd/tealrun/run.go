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

package main

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scale-it/algo-builder-sub005/config"
	"github.com/scale-it/algo-builder-sub005/data/basics"
	"github.com/scale-it/algo-builder-sub005/runtime"
)

const (
	modeSignature   = "signature"
	modeApplication = "application"

	// balance of every account the run command creates
	seedBalance = 100_000_000
)

var (
	runMode         = makeCobraStringValue(modeSignature, []string{modeApplication})
	runArgs         []string
	runAmount       uint64
	runTrace        bool
	runGlobalSchema basics.StateSchema
	runLocalSchema  basics.StateSchema
)

func init() {
	runCmd.Flags().Var(runMode, "mode", "Evaluation mode: "+runMode.AllowedString())
	runCmd.Flags().StringArrayVar(&runArgs, "arg", nil, "Program argument, base64 unless prefixed by str:, int: or addr:")
	runCmd.Flags().Uint64Var(&runAmount, "amount", 0, "Microalgos the logic signature pays in signature mode")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "Log the program trace")
	runCmd.Flags().Uint64Var(&runGlobalSchema.NumUint, "global-ints", 4, "Global uint slots of the app")
	runCmd.Flags().Uint64Var(&runGlobalSchema.NumByteSlice, "global-bytes", 4, "Global byte slice slots of the app")
	runCmd.Flags().Uint64Var(&runLocalSchema.NumUint, "local-ints", 0, "Local uint slots of the app")
	runCmd.Flags().Uint64Var(&runLocalSchema.NumByteSlice, "local-bytes", 0, "Local byte slice slots of the app")
}

var runCmd = &cobra.Command{
	Use:   "run program.teal",
	Short: "Evaluate a TEAL program as a logic signature or an application",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src, err := readFile(args[0])
		if err != nil {
			reportErrorf("Cannot read %s: %v", args[0], err)
		}
		progArgs := make([][]byte, len(runArgs))
		for i, a := range runArgs {
			if progArgs[i], err = parseArg(a); err != nil {
				reportErrorf("Bad argument %d: %v", i, err)
			}
		}

		cfg := loadConfig()
		if runTrace {
			cfg.EnableProgramTrace = true
			cfg.BaseLoggerDebugLevel = 5
		}
		rc, err := runProgram(cfg, runMode.value, string(src), progArgs)
		if !printOutcome(os.Stdout, rc, err) {
			os.Exit(1)
		}
	},
}

// parseArg decodes a command line program argument.
func parseArg(arg string) ([]byte, error) {
	prefix, rest, found := strings.Cut(arg, ":")
	if !found {
		return base64.StdEncoding.DecodeString(arg)
	}
	switch prefix {
	case "str":
		return []byte(rest), nil
	case "int":
		v, err := strconv.ParseUint(rest, 0, 64)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.AppendUint64(nil, v), nil
	case "addr":
		addr, err := basics.UnmarshalChecksumAddress(rest)
		if err != nil {
			return nil, err
		}
		return addr[:], nil
	case "b64":
		return base64.StdEncoding.DecodeString(rest)
	default:
		return nil, fmt.Errorf("unknown argument encoding %q", prefix)
	}
}

// runProgram evaluates src on a fresh ledger and returns the receipt of the
// transaction that ran it.
func runProgram(cfg config.Local, mode string, src string, args [][]byte) (runtime.Receipt, error) {
	funder := runtime.NewAccount(seedBalance)
	r := runtime.New(cfg, funder)

	program, err := r.LoadLogic(src)
	if err != nil {
		return runtime.Receipt{}, err
	}

	switch mode {
	case modeSignature:
		lsig, err := r.CreateLsig(src, args...)
		if err != nil {
			return runtime.Receipt{}, err
		}
		if err := r.Fund(lsig.Address(), seedBalance); err != nil {
			return runtime.Receipt{}, err
		}
		receipts, err := r.ExecuteTx(runtime.AlgoTransferParam{
			TxnBase: runtime.TxnBase{Sign: runtime.SignLogicSignature{Lsig: lsig}},
			To:      funder.Address(),
			Amount:  runAmount,
		})
		if err != nil {
			return runtime.Receipt{}, err
		}
		return receipts[0], nil

	case modeApplication:
		created, err := r.DeployApp(runtime.DeployAppParam{
			TxnBase:         runtime.TxnBase{Sign: runtime.SignSecretKey{Account: funder}},
			ApprovalProgram: src,
			ClearProgram:    fmt.Sprintf("#pragma version %d\nint 1", program.Version),
			GlobalInts:      runGlobalSchema.NumUint,
			GlobalBytes:     runGlobalSchema.NumByteSlice,
			LocalInts:       runLocalSchema.NumUint,
			LocalBytes:      runLocalSchema.NumByteSlice,
		})
		if err != nil {
			return runtime.Receipt{}, err
		}
		app := created.CreatedAppID
		if err := r.Fund(app.Address(), seedBalance); err != nil {
			return runtime.Receipt{}, err
		}
		receipts, err := r.ExecuteTx(runtime.CallAppParam{
			TxnBase:       runtime.TxnBase{Sign: runtime.SignSecretKey{Account: funder}},
			AppID:         app,
			AppCallFields: runtime.AppCallFields{AppArgs: args},
		})
		if err != nil {
			return runtime.Receipt{}, err
		}
		return receipts[0], nil

	default:
		return runtime.Receipt{}, fmt.Errorf("unknown mode %q", mode)
	}
}

// printOutcome reports the result of runProgram and returns whether the
// program passed.
func printOutcome(w io.Writer, rc runtime.Receipt, err error) bool {
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", color.RedString("REJECT"), err)
		var rerr *runtime.Error
		if errors.As(err, &rerr) {
			fmt.Fprintf(w, "  code:  %d (%s)\n", int(rerr.Code), rerr.Code)
			fmt.Fprintf(w, "  stage: %s\n", rerr.Stage)
		}
		return false
	}

	fmt.Fprintf(w, "%s txid %s\n", color.GreenString("PASS"), rc.TxID)
	if rc.Cost > 0 {
		fmt.Fprintf(w, "  cost: %d\n", rc.Cost)
	}
	for i, l := range rc.Logs {
		fmt.Fprintf(w, "  log[%d]: %x %q\n", i, l, l)
	}
	for _, k := range slices.Sorted(maps.Keys(rc.GlobalDelta)) {
		vd := rc.GlobalDelta[k]
		if tv, ok := vd.ToTealValue(); ok {
			fmt.Fprintf(w, "  global %q: %s\n", k, color.YellowString("%s", tv.String()))
		} else {
			fmt.Fprintf(w, "  global %q: %s\n", k, color.YellowString("deleted"))
		}
	}
	for _, inner := range rc.Inner {
		fmt.Fprintf(w, "  inner %s %s\n", inner.Type, inner.TxID)
		if inner.CreatedAssetID != 0 {
			fmt.Fprintf(w, "    created asset %d\n", inner.CreatedAssetID)
		}
		if inner.CreatedAppID != 0 {
			fmt.Fprintf(w, "    created app %d\n", inner.CreatedAppID)
		}
	}
	return true
}
