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

// Package coordinator builds the run configuration from CLI-level options,
// partitions the request and concurrency counts across worker goroutines,
// runs them to completion, and prints the final aggregate report.
package coordinator

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"fortio.org/log"
	"weighttp.dev/weighttp/config"
	"weighttp.dev/weighttp/request"
	"weighttp.dev/weighttp/stats"
	"weighttp.dev/weighttp/wnet"
	"weighttp.dev/weighttp/worker"
)

// Exit codes: 0 normal completion, 1 argument/URL/resolution error,
// 2 worker setup ("thread spawn") failure, 3 worker run ("thread join")
// failure.
const (
	ExitOK            = 0
	ExitArgumentError = 1
	ExitSpawnFailure  = 2
	ExitJoinFailure   = 3
)

// Options mirrors the CLI flag surface exactly (see cmd/weighttp).
type Options struct {
	URL         string
	ReqCount    uint64
	ThreadCount int
	ConcurCount int
	KeepAlive   bool
	UseIPv6     bool
	Headers     []string
}

// Validate checks the argument-sanity rules from the CLI contract: T, C, and
// N must all be positive, T <= C <= N, and N must not be the saturated
// "invalid" sentinel value.
func (o Options) Validate() error {
	if o.ThreadCount <= 0 {
		return fmt.Errorf("thread count has to be > 0")
	}
	if o.ConcurCount <= 0 {
		return fmt.Errorf("number of concurrent clients has to be > 0")
	}
	if o.ReqCount == 0 {
		return fmt.Errorf("number of requests has to be > 0")
	}
	if o.ReqCount == math.MaxUint64 {
		return fmt.Errorf("insane arguments: request count overflowed")
	}
	if uint64(o.ThreadCount) > o.ReqCount || o.ThreadCount > o.ConcurCount || uint64(o.ConcurCount) > o.ReqCount {
		return fmt.Errorf("insane arguments: thread/concurrency/request counts out of order")
	}
	return nil
}

// Run executes one full benchmark according to opts, writing the startup
// lines and the final report to out, and returns the process exit code the
// caller should use. Worker 1's progress lines go to standard output, not
// to out.
func Run(opts Options, out io.Writer) int {
	if err := opts.Validate(); err != nil {
		log.Errf("%v", err)
		return ExitArgumentError
	}

	reqBytes, target, err := request.Forge(opts.URL, opts.KeepAlive, opts.Headers)
	if err != nil {
		log.Errf("%v", err)
		return ExitArgumentError
	}

	addr, err := wnet.Resolve(target.Host, target.Port, opts.UseIPv6)
	if err != nil {
		log.Errf("%v", err)
		return ExitArgumentError
	}

	cfg := &config.Config{
		RequestBytes: reqBytes,
		Target:       addr,
		KeepAlive:    opts.KeepAlive,
		ThreadCount:  opts.ThreadCount,
		ConcurCount:  opts.ConcurCount,
		ReqCount:     opts.ReqCount,
	}

	reqShares := config.Partition(cfg.ReqCount, cfg.ThreadCount)
	concurShares := config.PartitionInt(cfg.ConcurCount, cfg.ThreadCount)

	fmt.Fprintln(out, "starting benchmark...")

	workers := make([]*worker.Worker, cfg.ThreadCount)
	for i := 0; i < cfg.ThreadCount; i++ {
		fmt.Fprintf(out, "spawning thread #%d: %d concurrent requests, %d total requests\n",
			i+1, concurShares[i], reqShares[i])
		w, err := worker.New(i+1, cfg, concurShares[i], reqShares[i])
		if err != nil {
			log.Errf("failed to allocate worker: %v", err)
			return ExitSpawnFailure
		}
		workers[i] = w
	}

	start := time.Now()

	var wg sync.WaitGroup
	runErrs := make([]error, cfg.ThreadCount)
	for i, w := range workers {
		wg.Add(1)
		go func(i int, w *worker.Worker) {
			defer wg.Done()
			runErrs[i] = w.Run()
		}(i, w)
	}
	wg.Wait()

	elapsed := time.Since(start)

	var total stats.Stats
	joinFailed := false
	for i, w := range workers {
		if runErrs[i] != nil {
			log.Errf("worker %d failed: %v", i+1, runErrs[i])
			joinFailed = true
			continue
		}
		total.Transfer(&w.Stats)
	}
	if joinFailed {
		return ExitJoinFailure
	}

	printReport(out, cfg.ReqCount, &total, elapsed)
	return ExitOK
}

// printReport prints the exact final report format: elapsed time broken
// into seconds/milliseconds/microseconds, throughput, and the request and
// byte counter summary.
func printReport(out io.Writer, reqCount uint64, total *stats.Stats, elapsed time.Duration) {
	sec := int(elapsed / time.Second)
	millisec := int((elapsed % time.Second) / time.Millisecond)
	microsec := int((elapsed % time.Millisecond) / time.Microsecond)

	secs := elapsed.Seconds()
	var rps, kbps uint64
	if secs > 0 {
		rps = uint64(float64(total.ReqDone) / secs)
		kbps = uint64(float64(total.BytesTotal) / secs / 1024)
	}

	fmt.Fprintf(out, "\nfinished in %d sec, %d millisec and %d microsec, %d req/s, %d kbyte/s\n",
		sec, millisec, microsec, rps, kbps)
	fmt.Fprintf(out, "requests: %d total, %d started, %d done, %d succeeded, %d failed, %d errored\n",
		reqCount, total.ReqStarted, total.ReqDone, total.ReqSuccess, total.ReqFailed, total.ReqError)
	fmt.Fprintf(out, "status codes: %d 2xx, %d 3xx, %d 4xx, %d 5xx\n",
		total.Req2xx, total.Req3xx, total.Req4xx, total.Req5xx)
	fmt.Fprintf(out, "traffic: %d bytes total, %d bytes http, %d bytes data\n",
		total.BytesTotal, total.BytesTotal-total.BytesBody, total.BytesBody)
}
