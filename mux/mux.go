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

// Package mux defines a minimal readiness-notification multiplexer: the
// abstract contract a worker's event loop and each connection's state
// machine are built against, independent of the OS backend. One concrete
// backend is provided (Linux epoll, in epoll_linux.go); the interface
// exists so another readiness backend (kqueue, evport, ...) could be added
// without touching wclient or worker.
package mux

// Events is a bitmask of readiness conditions a registration cares about.
type Events uint8

const (
	Read Events = 1 << iota
	Write
)

// Callback is invoked with the readiness conditions that fired for fd.
// It runs to completion before the next event is dispatched: the loop is
// single-threaded and cooperative, exactly as the per-connection state
// machine assumes.
type Callback func(fd int, events Events)

// Multiplexer is the readiness-notification facility a Worker owns. A
// single Multiplexer instance is used by exactly one goroutine/OS thread
// for its entire lifetime.
type Multiplexer interface {
	// Register starts watching fd for events, invoking cb on readiness.
	Register(fd int, events Events, cb Callback) error
	// Modify changes the watched events for an already-registered fd.
	Modify(fd int, events Events) error
	// Deregister stops watching fd. It does not close fd.
	Deregister(fd int) error
	// Ref increments the liveness reference count.
	Ref()
	// Unref decrements the liveness reference count; Run returns once it
	// reaches zero and no registrations remain pending dispatch.
	Unref()
	// Run dispatches events until the liveness reference count drops to
	// zero, or an unrecoverable error occurs.
	Run() error
	// Close releases OS resources held by the multiplexer (e.g. the epoll
	// fd). It does not close any registered fds.
	Close() error
}
