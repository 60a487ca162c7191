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
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scale-it/algo-builder-sub005/runtime"
)

const stdinFileNameValue = "-"

var checkCmd = &cobra.Command{
	Use:   "check program.teal [program.teal ...]",
	Short: "Assemble TEAL programs and report their version and size",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r := runtime.New(loadConfig())
		failed := false
		for _, fname := range args {
			src, err := readFile(fname)
			if err != nil {
				reportErrorf("Cannot read %s: %v", fname, err)
			}
			program, err := r.LoadLogic(string(src))
			if err != nil {
				fmt.Printf("%s: %s\n", fname, color.RedString("%v", err))
				failed = true
				continue
			}
			fmt.Printf("%s: %s version %d, %d bytes\n", fname, color.GreenString("OK"), program.Version, program.Size())
		}
		if failed {
			os.Exit(1)
		}
	},
}

// readFile reads filename, or stdin when it is "-".
func readFile(filename string) ([]byte, error) {
	if filename == stdinFileNameValue {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}
