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

package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

type canonicalSample struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	B map[string]uint64 `codec:"b"`
	A string            `codec:"a"`
	Z uint64            `codec:"z"`
}

func TestEncodeIsCanonical(t *testing.T) {
	partitiontest.PartitionTest(t)

	m := make(map[string]uint64)
	for _, k := range []string{"q", "w", "e", "r", "t", "y"} {
		m[k] = uint64(len(k))
	}
	first := Encode(canonicalSample{B: m, A: "x"})
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Encode(canonicalSample{B: m, A: "x"}))
	}

	// zero fields are omitted, so an empty struct is an empty map
	require.Equal(t, []byte{0x80}, Encode(canonicalSample{}))

	var back canonicalSample
	require.NoError(t, Decode(first, &back))
	require.Equal(t, m, back.B)
	require.Equal(t, "x", back.A)
}
