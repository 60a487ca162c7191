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

package basics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scale-it/algo-builder-sub005/crypto"
	"github.com/scale-it/algo-builder-sub005/test/partitiontest"
)

func TestAddressChecksumRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)

	var addr Address
	crypto.RandBytes(addr[:])
	s := addr.String()
	require.Len(t, s, 58)

	back, err := UnmarshalChecksumAddress(s)
	require.NoError(t, err)
	require.Equal(t, addr, back)

	// flipping a character breaks the checksum
	bad := []byte(s)
	if bad[10] == 'A' {
		bad[10] = 'B'
	} else {
		bad[10] = 'A'
	}
	_, err = UnmarshalChecksumAddress(string(bad))
	require.Error(t, err)

	_, err = UnmarshalChecksumAddress("not an address")
	require.Error(t, err)
}

func TestZeroAddress(t *testing.T) {
	partitiontest.PartitionTest(t)
	require.Equal(t, "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ", Address{}.String())
	require.True(t, Address{}.IsZero())
}

func TestAppAddressDiffers(t *testing.T) {
	partitiontest.PartitionTest(t)
	require.NotEqual(t, AppIndex(1).Address(), AppIndex(2).Address())
	require.Equal(t, AppIndex(7).Address(), AppIndex(7).Address())
}
