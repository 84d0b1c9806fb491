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

// Package wnet resolves a benchmark target host:port into the raw socket
// address needed to open non-blocking connections directly with the unix
// package, bypassing net.Dial (which hides the file descriptor the event
// loop needs to register with epoll).
package wnet

import (
	"fmt"
	"net"

	"fortio.org/log"
	"golang.org/x/sys/unix"
)

// Target is a resolved destination: the socket family/type/protocol to pass
// to unix.Socket and the sockaddr to pass to unix.Connect.
type Target struct {
	Family   int
	SockType int
	Protocol int
	Sockaddr unix.Sockaddr
	IP       net.IP
	Port     int
}

// Resolve picks the first address of the requested family for host, the way
// getaddrinfo()+a family-filtering loop over the result list does: first
// AF_INET match by default, or first AF_INET6 match when useIPv6 is set.
// Unlike a plain "first result wins" resolver, a mismatched family further
// down the list is skipped rather than accepted.
func Resolve(host string, port int, useIPv6 bool) (*Target, error) {
	log.Debugf("resolving %s port %d (ipv6=%v)", host, port, useIPv6)

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("could not resolve hostname %q: %w", host, err)
	}

	var chosen net.IP
	for _, ip := range ips {
		isV4 := ip.To4() != nil
		if useIPv6 && !isV4 {
			chosen = ip
			break
		}
		if !useIPv6 && isV4 {
			chosen = ip
			break
		}
	}
	if chosen == nil {
		family := "AF_INET"
		if useIPv6 {
			family = "AF_INET6"
		}
		return nil, fmt.Errorf("could not resolve hostname %q: no %s address found", host, family)
	}

	t := &Target{
		SockType: unix.SOCK_STREAM,
		IP:       chosen,
		Port:     port,
	}
	if useIPv6 {
		var addr [16]byte
		copy(addr[:], chosen.To16())
		t.Family = unix.AF_INET6
		t.Sockaddr = &unix.SockaddrInet6{Port: port, Addr: addr}
	} else {
		var addr [4]byte
		copy(addr[:], chosen.To4())
		t.Family = unix.AF_INET
		t.Sockaddr = &unix.SockaddrInet4{Port: port, Addr: addr}
	}
	return t, nil
}
