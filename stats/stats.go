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

// Package stats holds the run's request/byte counters. There is one Stats
// value per worker, written only by the goroutine that owns it; the
// coordinator merges them into a single aggregate after every worker has
// joined, via Transfer.
package stats

// Stats holds the monotonically increasing counters a single worker (or
// the coordinator's aggregate) accumulates over a run. All fields are
// written only by their owner; apart from Transfer clearing its source, no
// field is ever decremented.
type Stats struct {
	ReqTodo    uint64
	ReqStarted uint64
	ReqDone    uint64
	ReqSuccess uint64
	ReqFailed  uint64
	ReqError   uint64

	Req2xx uint64
	Req3xx uint64
	Req4xx uint64
	Req5xx uint64

	BytesTotal uint64
	BytesBody  uint64
}

// Transfer adds src's counters into s and clears src: after Transfer,
// src reads as a fresh zero value and every count it held is reflected
// in s.
func (s *Stats) Transfer(src *Stats) {
	s.ReqTodo += src.ReqTodo
	s.ReqStarted += src.ReqStarted
	s.ReqDone += src.ReqDone
	s.ReqSuccess += src.ReqSuccess
	s.ReqFailed += src.ReqFailed
	s.ReqError += src.ReqError
	s.Req2xx += src.Req2xx
	s.Req3xx += src.Req3xx
	s.Req4xx += src.Req4xx
	s.Req5xx += src.Req5xx
	s.BytesTotal += src.BytesTotal
	s.BytesBody += src.BytesBody
	*src = Stats{}
}
