// Copyright 2026 The Weighttp Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the immutable, run-wide benchmark configuration
// shared by reference across every worker once construction is complete.
package config

import "weighttp.dev/weighttp/wnet"

// Config is built once by the coordinator and never mutated afterward, so
// it is safe to share a single pointer across every worker goroutine
// without synchronization.
type Config struct {
	// RequestBytes is the exact octet string sent on every connection.
	RequestBytes []byte
	// Target is the resolved destination socket address.
	Target *wnet.Target
	// KeepAlive controls whether connections are reused for successive
	// requests on the same client slot.
	KeepAlive bool

	ThreadCount int
	ConcurCount int
	ReqCount    uint64
}

// Partition splits total across n shares as evenly as possible, handing the
// remainder to the first (total % n) shares. Used for the per-worker
// request-count split.
func Partition(total uint64, n int) []uint64 {
	shares := make([]uint64, n)
	base := total / uint64(n)
	rest := total % uint64(n)
	for i := range shares {
		shares[i] = base
		if uint64(i) < rest {
			shares[i]++
		}
	}
	return shares
}

// PartitionInt is Partition for int-valued totals (used for ConcurCount,
// which stays well within int range).
func PartitionInt(total, n int) []int {
	shares := make([]int, n)
	base := total / n
	rest := total % n
	for i := range shares {
		shares[i] = base
		if i < rest {
			shares[i]++
		}
	}
	return shares
}
