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

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

func TestFileOutputNewLogger(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	nl.Info("asset 7 created")
	a.Contains(buf.String(), "asset 7 created")
}

func TestSetGetLevel(t *testing.T) {
	partitiontest.PartitionTest(t)

	nl := NewLogger()
	require.Equal(t, Info, nl.GetLevel())
	nl.SetLevel(Error)
	require.Equal(t, Error, nl.GetLevel())
	require.False(t, nl.IsLevelEnabled(Warn))
	require.True(t, nl.IsLevelEnabled(Error))
	require.Equal(t, Warn, Base().GetLevel())
}

func TestWithFieldsJSON(t *testing.T) {
	partitiontest.PartitionTest(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	nl.SetJSONFormatter()
	nl.WithFields(Fields{"group": 3}).With("stage", "Rejected").Warn("group rejected")

	var js map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &js))
	require.Equal(t, "group rejected", js["msg"])
	require.Equal(t, float64(3), js["group"])
	require.Equal(t, "Rejected", js["stage"])
}

func TestHook(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := &captureHook{}
	nl := NewLogger()
	nl.SetOutput(&bytes.Buffer{})
	nl.SetLevel(Debug)
	nl.AddHook(h)
	nl.Debugf("stage %s", "SignatureVerified")
	require.Len(t, h.entries, 1)
	require.Equal(t, "stage SignatureVerified", h.entries[0].Message)
	require.Contains(t, h.entries[0].Data, "file")
}

// captureHook collects entries; used by the package tests.
type captureHook struct {
	entries []*logrus.Entry
}

func (h *captureHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *captureHook) Fire(e *logrus.Entry) error {
	h.entries = append(h.entries, e)
	return nil
}
