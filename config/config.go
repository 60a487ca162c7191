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

package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// ConfigFilename is the name of the config.json file where we store per-runtime settings
const ConfigFilename = "config.json"

// Local holds the per-process configuration of a runtime. Unlike
// ConsensusParams it has no effect on which transactions are valid.
type Local struct {
	// Version tracks the current version of the defaults so we can migrate old -> new
	Version uint32

	// BaseLoggerDebugLevel specifies the logging level (0 = Panic ... 5 = Debug).
	BaseLoggerDebugLevel uint32

	// EnableProgramTrace records a per-opcode trace of every program the
	// runtime evaluates and logs it at Debug level.
	EnableProgramTrace bool

	// InitialRound is the round a fresh runtime starts at.
	InitialRound uint64

	// InitialTimestamp is the LatestTimestamp a fresh runtime reports (unix seconds).
	InitialTimestamp int64

	// EnableMetrics registers the runtime's prometheus collectors.
	EnableMetrics bool
}

var defaultLocal = Local{
	Version:              1,
	BaseLoggerDebugLevel: 3,
	EnableProgramTrace:   false,
	InitialRound:         2,
	InitialTimestamp:     1,
	EnableMetrics:        false,
}

// GetDefaultLocal returns a copy of the current defaultLocal config
func GetDefaultLocal() Local {
	return defaultLocal
}

// LoadConfigFromDisk returns a Local config structure based on merging the defaults
// with settings loaded from the config file from the custom dir.  If the custom file
// cannot be loaded, the default config is returned (with the error from loading the
// custom file).
func LoadConfigFromDisk(custom string) (c Local, err error) {
	return LoadConfigFromFile(filepath.Join(custom, ConfigFilename))
}

// LoadConfigFromFile merges the settings of configFile over the defaults.
func LoadConfigFromFile(configFile string) (c Local, err error) {
	c = defaultLocal
	f, err := os.Open(configFile)
	if err != nil {
		return c, err
	}
	defer f.Close()
	err = loadConfig(f, &c)
	return c, err
}

func loadConfig(reader io.Reader, config *Local) error {
	dec := json.NewDecoder(reader)
	return dec.Decode(config)
}
