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

// Package worker runs one OS-thread's share of a benchmark: a fixed pool
// of connection slots driven by one multiplexer, until every request
// assigned to this worker has been counted as done, either succeeded or
// failed.
package worker

import (
	"fmt"
	"runtime"

	"fortio.org/log"
	"weighttp.dev/weighttp/config"
	"weighttp.dev/weighttp/mux"
	"weighttp.dev/weighttp/stats"
	"weighttp.dev/weighttp/wclient"
)

// Worker owns a pool of connection slots and the event loop that drives
// them. A Worker is run from exactly one goroutine, pinned to its own OS
// thread, for the entirety of its life.
type Worker struct {
	id      int
	cfg     *config.Config
	mx      mux.Multiplexer
	Stats   stats.Stats
	clients []*wclient.Client
}

// New builds a worker with numClients connection slots sharing a single
// Stats instance, targeting numRequests total requests. progress_interval
// is num_requests/10, floored at 1 so workers with very small per-thread
// shares still report completion at the end instead of never crossing a
// zero-width interval.
func New(id int, cfg *config.Config, numClients int, numRequests uint64) (*Worker, error) {
	mx, err := mux.New()
	if err != nil {
		return nil, fmt.Errorf("worker %d: %w", id, err)
	}
	mx.Ref()

	w := &Worker{
		id:  id,
		cfg: cfg,
		mx:  mx,
	}
	w.Stats.ReqTodo = numRequests

	progressInterval := numRequests / 10
	if progressInterval == 0 {
		progressInterval = 1
	}

	w.clients = make([]*wclient.Client, numClients)
	for i := range w.clients {
		w.clients[i] = wclient.New(id, cfg, mx, &w.Stats, progressInterval)
	}
	return w, nil
}

// Run pins the calling goroutine to its own OS thread for the duration
// of the benchmark, primes every connection
// slot that still has budget to start a request, and then drives the
// event loop until every slot has finished.
func (w *Worker) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log.Debugf("worker %d: starting %d client slots, %d requests to do", w.id, len(w.clients), w.Stats.ReqTodo)

	for _, c := range w.clients {
		c.Prime()
	}

	if err := w.mx.Run(); err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}

	for _, c := range w.clients {
		c.Close()
	}
	return w.mx.Close()
}
