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

package worker

import (
	"net"
	"testing"
	"time"

	"fortio.org/assert"
	"golang.org/x/sys/unix"
	"weighttp.dev/weighttp/config"
	"weighttp.dev/weighttp/wnet"
)

func startEchoServer(t *testing.T, resp string) (port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	assert.NoError(t, err, "starting test listener")

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 4096)
				for {
					total := 0
					for {
						n, err := conn.Read(buf[total:])
						if err != nil {
							return
						}
						total += n
						if total >= 4 && string(buf[total-4:total]) == "\r\n\r\n" {
							break
						}
					}
					if _, err := conn.Write([]byte(resp)); err != nil {
						return
					}
				}
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, func() { _ = ln.Close() }
}

func TestWorkerRunsToCompletion(t *testing.T) {
	resp := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nConnection: close\r\n\r\nhello"
	port, stop := startEchoServer(t, resp)
	defer stop()

	target := &wnet.Target{
		Family:   unix.AF_INET,
		SockType: unix.SOCK_STREAM,
		Sockaddr: &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}},
		IP:       net.ParseIP("127.0.0.1"),
	}
	cfg := &config.Config{
		RequestBytes: []byte("GET / HTTP/1.1\r\nHost: 127.0.0.1\r\nConnection: close\r\n\r\n"),
		Target:       target,
		KeepAlive:    false,
	}

	w, err := New(1, cfg, 4, 20)
	assert.NoError(t, err, "creating worker")

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	select {
	case err := <-done:
		assert.NoError(t, err, "worker run")
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not finish in time")
	}

	assert.Equal(t, uint64(20), w.Stats.ReqDone, "all requests done")
	assert.Equal(t, uint64(20), w.Stats.ReqSuccess, "all requests succeeded")
}

func TestWorkerProgressIntervalFloorsAtOne(t *testing.T) {
	resp := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"
	port, stop := startEchoServer(t, resp)
	defer stop()

	target := &wnet.Target{
		Family:   unix.AF_INET,
		SockType: unix.SOCK_STREAM,
		Sockaddr: &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}},
	}
	cfg := &config.Config{
		RequestBytes: []byte("GET / HTTP/1.1\r\n\r\n"),
		Target:       target,
		KeepAlive:    false,
	}

	// numRequests < 10 so progress_interval would be 0 without the floor.
	w, err := New(1, cfg, 1, 3)
	assert.NoError(t, err, "creating worker")

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	select {
	case err := <-done:
		assert.NoError(t, err, "worker run")
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not finish in time")
	}

	assert.Equal(t, uint64(3), w.Stats.ReqDone, "all requests done despite tiny total")
}
