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
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scale-it/algo-builder-sub005/config"
)

var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tealrun",
	Short: "Run TEAL programs against an in-memory ledger",
	Long: `Assemble TEAL programs and evaluate them as logic signatures or
applications on a throwaway simulated ledger`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// If no arguments passed, we should fallback to help
		cmd.HelpFunc()(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config.json overriding the default local config")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
}

func loadConfig() config.Local {
	if configFile == "" {
		return config.GetDefaultLocal()
	}
	cfg, err := config.LoadConfigFromFile(configFile)
	if err != nil {
		reportErrorf("Cannot load config from %s: %v", configFile, err)
	}
	return cfg
}

func reportErrorf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString(format, args...))
	os.Exit(1)
}

// cobraStringValue is a cobra's string flag with restricted values
type cobraStringValue struct {
	value   string
	allowed []string
}

func makeCobraStringValue(value string, others []string) *cobraStringValue {
	c := new(cobraStringValue)
	c.value = value
	c.allowed = make([]string, 0, len(others)+1)
	c.allowed = append(c.allowed, value)
	c.allowed = append(c.allowed, others...)
	return c
}

func (c *cobraStringValue) String() string { return c.value }
func (c *cobraStringValue) Type() string   { return "string" }

func (c *cobraStringValue) Set(other string) error {
	for _, s := range c.allowed {
		if other == s {
			c.value = other
			return nil
		}
	}
	return fmt.Errorf("value %s not allowed", other)
}

func (c *cobraStringValue) AllowedString() string {
	return strings.Join(c.allowed, ", ")
}
