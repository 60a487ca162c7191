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

// Package partitiontest lets CI split the test suite across runners. Every
// test calls PartitionTest(t) first; with PARTITION_TOTAL and PARTITION_ID
// unset all tests run.
package partitiontest

import (
	"hash/fnv"
	"os"
	"runtime"
	"strconv"
	"testing"
)

// PartitionTest checks if the current partition should run this test, and skips it if not.
func PartitionTest(t testing.TB) {
	pt, found := os.LookupEnv("PARTITION_TOTAL")
	if !found {
		return
	}
	partitions, err := strconv.Atoi(pt)
	if err != nil || partitions <= 0 {
		return
	}
	partitionID, err := strconv.Atoi(os.Getenv("PARTITION_ID"))
	if err != nil {
		return
	}
	_, file, _, _ := runtime.Caller(1) // get filename of caller to PartitionTest
	idx := stringToUint64(file+":"+t.Name()) % uint64(partitions)
	if idx != uint64(partitionID) {
		t.Skipf("skipping due to partitioning, assigned to partition %d", idx)
	}
}

func stringToUint64(str string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(str))
	return h.Sum64()
}
