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

package mux

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// epollMux is the Linux epoll-backed Multiplexer. Level-triggered: a
// registration stays readable/writable-ready until the caller actually
// drains the condition (reads or writes until EAGAIN).
type epollMux struct {
	epfd     int
	refcount int
	regs     map[int]*registration
}

type registration struct {
	events Events
	cb     Callback
}

// New creates an epoll-backed Multiplexer. The caller owns the returned
// value for the lifetime of one worker goroutine.
func New() (Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("mux: epoll_create1: %w", err)
	}
	return &epollMux{epfd: epfd, regs: make(map[int]*registration)}, nil
}

func toEpollEvents(e Events) uint32 {
	var out uint32
	if e&Read != 0 {
		out |= unix.EPOLLIN
	}
	if e&Write != 0 {
		out |= unix.EPOLLOUT
	}
	return out
}

func (m *epollMux) Register(fd int, events Events, cb Callback) error {
	m.regs[fd] = &registration{events: events, cb: cb}
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		delete(m.regs, fd)
		return fmt.Errorf("mux: epoll_ctl(ADD, %d): %w", fd, err)
	}
	return nil
}

func (m *epollMux) Modify(fd int, events Events) error {
	reg, ok := m.regs[fd]
	if !ok {
		return fmt.Errorf("mux: fd %d is not registered", fd)
	}
	if reg.events == events {
		return nil
	}
	reg.events = events
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("mux: epoll_ctl(MOD, %d): %w", fd, err)
	}
	return nil
}

func (m *epollMux) Deregister(fd int) error {
	if _, ok := m.regs[fd]; !ok {
		return nil
	}
	delete(m.regs, fd)
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("mux: epoll_ctl(DEL, %d): %w", fd, err)
	}
	return nil
}

func (m *epollMux) Ref() { m.refcount++ }

func (m *epollMux) Unref() { m.refcount-- }

func (m *epollMux) Run() error {
	events := make([]unix.EpollEvent, 128)
	for m.refcount > 0 {
		n, err := unix.EpollWait(m.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("mux: epoll_wait: %w", err)
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			reg, ok := m.regs[fd]
			if !ok {
				continue
			}
			got := Events(0)
			if events[i].Events&unix.EPOLLIN != 0 {
				got |= Read
			}
			if events[i].Events&unix.EPOLLOUT != 0 {
				got |= Write
			}
			if events[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				// Surface the error/hangup to whichever side is currently
				// registered so the connection's own read()/write() call
				// observes the real errno instead of the loop swallowing it.
				got |= reg.events
			}
			if got != 0 {
				reg.cb(fd, got)
			}
		}
	}
	return nil
}

func (m *epollMux) Close() error {
	return unix.Close(m.epfd)
}
