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

// Package wclient drives one reusable TCP connection slot through
// connect -> write -> read -> reset/close, entirely with non-blocking
// syscalls. It is the per-connection state machine the event loop invokes
// on every readiness callback.
package wclient

import (
	"fmt"

	"fortio.org/log"
	"golang.org/x/sys/unix"
	"weighttp.dev/weighttp/config"
	"weighttp.dev/weighttp/mux"
	"weighttp.dev/weighttp/response"
	"weighttp.dev/weighttp/stats"
)

// BufferSize is the fixed per-client receive buffer. No byte is reserved
// for a NUL terminator: slices carry their own length, so the full
// capacity is usable and the buffer-full error in the reading state
// triggers on a genuinely oversized header block.
const BufferSize = 32768

// State is the connection's position in the connect/write/read lifecycle.
type State int

const (
	StateStart State = iota
	StateConnecting
	StateWriting
	StateReading
	StateError
	StateEnd
)

// Client is one reusable connection slot, owned by exactly one Worker and
// driven only from that worker's goroutine. Nothing here is safe for
// concurrent use from more than one goroutine.
type Client struct {
	workerID         int
	cfg              *config.Config
	mx               mux.Multiplexer
	stats            *stats.Stats // shared with every other Client of the same Worker
	progressInterval uint64

	state  State
	parser response.Parser

	fd            int
	buffer        [BufferSize]byte
	bufferOffset  int
	parserOffset  int
	requestOffset int
	bytesReceived uint64
	success       bool
}

// New creates a client slot in its initial START state. st and
// progressInterval are shared across every client of the same worker.
func New(workerID int, cfg *config.Config, mx mux.Multiplexer, st *stats.Stats, progressInterval uint64) *Client {
	c := &Client{
		workerID:         workerID,
		cfg:              cfg,
		mx:               mx,
		stats:            st,
		progressInterval: progressInterval,
		fd:               -1,
	}
	c.parser.Reset(cfg.KeepAlive)
	return c
}

// Prime runs the state machine once if the worker still has budget to
// start this client's first request. Called once per client when the
// worker goroutine starts, before entering the event loop.
func (c *Client) Prime() {
	if c.stats.ReqStarted < c.stats.ReqTodo {
		c.run()
	}
}

// Close releases the socket if one is open. Called when the worker tears
// down at the end of a run.
func (c *Client) Close() {
	if c.fd != -1 {
		_ = c.mx.Deregister(c.fd)
		_ = unix.Shutdown(c.fd, unix.SHUT_WR)
		_ = unix.Close(c.fd)
		c.fd = -1
	}
}

// onEvent is the callback registered with the multiplexer. The state
// machine itself decides what to do with readiness; the multiplexer only
// needs to know the fd has become ready in the direction it's watching.
func (c *Client) onEvent(int, mux.Events) { c.run() }

// run drives the state machine until it reaches a point where it must wait
// for the next readiness callback (a genuine suspension point) or has
// finished this client's entire request budget.
func (c *Client) run() {
loop:
	for {
		switch c.state {
		case StateStart:
			if !c.doStart() {
				c.state = StateError
				continue loop
			}
			return

		case StateConnecting:
			if !c.retryConnect() {
				c.state = StateError
				continue loop
			}
			if c.state == StateConnecting {
				// Still in progress; wait for the next writable callback.
				return
			}
			continue loop

		case StateWriting:
			if c.doWrite() {
				continue loop
			}
			return

		case StateReading:
			if c.doRead() {
				continue loop
			}
			return

		case StateError:
			c.stats.ReqError++
			c.parser.Keepalive = false
			c.success = false
			c.state = StateEnd
			continue loop

		case StateEnd:
			c.finishRequest()
			return
		}
	}
}

// doStart creates a non-blocking socket, registers it for write readiness,
// and makes the first connect() attempt. It returns false on any failure
// (socket creation or a connect errno other than the in-progress family).
func (c *Client) doStart() bool {
	c.stats.ReqStarted++

	fd, err := unix.Socket(c.cfg.Target.Family, c.cfg.Target.SockType, 0)
	if err != nil {
		log.Debugf("socket() failed: %v", err)
		return false
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		log.Debugf("setnonblock() failed: %v", err)
		_ = unix.Close(fd)
		return false
	}
	c.fd = fd

	if err := c.mx.Register(fd, mux.Write, c.onEvent); err != nil {
		log.Debugf("register() failed: %v", err)
		return false
	}

	if !c.connect() {
		return false
	}
	// Whatever connect() resolved to (CONNECTING or WRITING), wait for the
	// next writable callback before doing anything else on the fd.
	return true
}

// connect issues one non-blocking connect() attempt, classifying the
// result into CONNECTING (in progress), WRITING (already connected), or a
// hard failure.
func (c *Client) connect() bool {
	for {
		err := unix.Connect(c.fd, c.cfg.Target.Sockaddr)
		switch err {
		case nil, unix.EISCONN:
			c.state = StateWriting
			return true
		case unix.EINPROGRESS, unix.EALREADY:
			c.state = StateConnecting
			return true
		case unix.EINTR:
			continue
		default:
			log.Debugf("connect() failed: %v", err)
			return false
		}
	}
}

// retryConnect is connect() called again from the CONNECTING state on a
// subsequent writable readiness.
func (c *Client) retryConnect() bool {
	return c.connect()
}

// doWrite performs exactly one write() call (retrying only on EINTR, the
// syscall-level retry, not a state transition) and returns true when the
// state machine should immediately re-enter the switch (ERROR or END),
// false when it should return and await the next writable event.
func (c *Client) doWrite() bool {
	for {
		req := c.cfg.RequestBytes
		n, err := unix.Write(c.fd, req[c.requestOffset:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				// Not actually writable yet; wait for the next callback.
				return false
			}
			log.Debugf("write() failed: %v", err)
			c.state = StateError
			return true
		}
		if n == 0 {
			// Peer closed before we could finish sending.
			c.state = StateEnd
			return true
		}
		c.requestOffset += n
		if c.requestOffset == len(req) {
			c.state = StateReading
			if err := c.mx.Modify(c.fd, mux.Read); err != nil {
				log.Debugf("modify(read) failed: %v", err)
				c.state = StateError
				return true
			}
		}
		return false
	}
}

// doRead performs read() calls (retrying on EINTR) until it either needs
// more data (returns false, awaiting the next readable event) or reaches a
// terminal outcome (returns true, state set to ERROR or END).
func (c *Client) doRead() bool {
	for {
		if c.bufferOffset >= BufferSize {
			// Oversized header block; see BufferSize doc comment.
			c.state = StateError
			return true
		}
		n, err := unix.Read(c.fd, c.buffer[c.bufferOffset:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				// Drained; wait for the next readable callback.
				return false
			}
			log.Debugf("read() failed: %v", err)
			c.state = StateError
			return true
		}
		if n == 0 {
			// Peer closed before the parser reached OutcomeComplete: a
			// response without a Content-Length and without chunked
			// encoding is itself a parse error (see parseContentLengthBody),
			// so any EOF seen here is an incomplete response.
			c.state = StateError
			return true
		}

		c.bytesReceived += uint64(n)
		c.bufferOffset += n
		c.stats.BytesTotal += uint64(n)

		outcome, err := c.parser.Parse(c.buffer[:], &c.bufferOffset, &c.parserOffset, c.bytesReceived)
		if err != nil {
			log.Debugf("response parse failed: %v", err)
		}
		switch outcome {
		case response.OutcomeError:
			c.state = StateError
			return true
		case response.OutcomeComplete:
			c.success = c.parser.StatusSuccess
			c.state = StateEnd
			return true
		default: // response.OutcomeContinue
			return false
		}
	}
}

// finishRequest runs the END state's bookkeeping: update worker-wide
// counters, print progress if this is worker #1, and either start the next
// request on this slot or tear the socket down for good.
func (c *Client) finishRequest() {
	c.stats.ReqDone++
	if c.success {
		c.stats.ReqSuccess++
		c.stats.BytesBody += c.bytesReceived - uint64(c.parser.HeaderSize)
	} else {
		c.stats.ReqFailed++
	}
	if c.parser.BucketValid {
		switch c.parser.Bucket {
		case response.Bucket2xx:
			c.stats.Req2xx++
		case response.Bucket3xx:
			c.stats.Req3xx++
		case response.Bucket4xx:
			c.stats.Req4xx++
		case response.Bucket5xx:
			c.stats.Req5xx++
		}
	}

	if c.workerID == 1 && c.progressInterval > 0 && c.stats.ReqDone%c.progressInterval == 0 {
		fmt.Printf("progress: %3d%% done\n", c.stats.ReqDone*100/c.stats.ReqTodo)
	}

	if c.stats.ReqStarted == c.stats.ReqTodo {
		// This slot has started everything it will ever start.
		c.parser.Keepalive = false
		c.reset()
		if c.stats.ReqDone == c.stats.ReqTodo {
			c.mx.Unref()
		}
		return
	}

	c.reset()
	c.run()
}

// reset prepares the client for its next request. If the connection is
// being kept alive it stays open and the state machine goes straight to
// WRITING (counting the next request as started); otherwise the socket is
// closed and the state machine restarts from scratch in START.
func (c *Client) reset() {
	keepAlive := c.parser.Keepalive
	if keepAlive {
		if err := c.mx.Modify(c.fd, mux.Write); err != nil {
			log.Debugf("modify(write) on reset failed: %v", err)
		}
		c.state = StateWriting
		c.stats.ReqStarted++
	} else {
		if c.fd != -1 {
			_ = c.mx.Deregister(c.fd)
			_ = unix.Shutdown(c.fd, unix.SHUT_WR)
			_ = unix.Close(c.fd)
			c.fd = -1
		}
		c.state = StateStart
	}

	c.parser.Reset(c.cfg.KeepAlive)
	c.bufferOffset = 0
	c.parserOffset = 0
	c.requestOffset = 0
	c.bytesReceived = 0
	c.success = false
}
