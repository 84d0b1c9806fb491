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

package request

import (
	"strings"
	"testing"

	"fortio.org/assert"
)

func TestParseURLDefaultPort(t *testing.T) {
	tgt, err := ParseURL("http://example.com/index.html")
	assert.NoError(t, err, "parsing plain host+path url")
	assert.Equal(t, "example.com", tgt.Host, "host")
	assert.Equal(t, 80, tgt.Port, "port")
	assert.Equal(t, "/index.html", tgt.Path, "path")
}

func TestParseURLExplicitPort(t *testing.T) {
	tgt, err := ParseURL("http://example.com:8080/")
	assert.NoError(t, err, "parsing host:port url")
	assert.Equal(t, 8080, tgt.Port, "port")
}

func TestParseURLNoPath(t *testing.T) {
	tgt, err := ParseURL("http://example.com")
	assert.NoError(t, err, "parsing bare host url")
	assert.Equal(t, "/", tgt.Path, "default path is /")
}

func TestParseURLRejectsHTTPS(t *testing.T) {
	_, err := ParseURL("https://example.com/")
	assert.Error(t, err, "https must be rejected, no TLS support")
}

func TestForgeDefaultHeaders(t *testing.T) {
	req, tgt, err := Forge("http://example.com/", true, nil)
	assert.NoError(t, err, "forging default request")
	assert.Equal(t, "example.com", tgt.Host, "host")
	s := string(req)
	assert.True(t, strings.HasPrefix(s, "GET / HTTP/1.1\r\n"), "request line")
	assert.True(t, strings.Contains(s, "Host: example.com\r\n"), "default Host line")
	assert.True(t, strings.Contains(s, "User-Agent: weighttp/"), "default User-Agent line")
	assert.True(t, strings.HasSuffix(s, "Connection: keep-alive\r\n\r\n"), "keep-alive terminator")
}

func TestForgeClose(t *testing.T) {
	req, _, err := Forge("http://example.com/", false, nil)
	assert.NoError(t, err, "forging close request")
	assert.True(t, strings.HasSuffix(string(req), "Connection: close\r\n\r\n"), "close terminator")
}

func TestForgeCustomHostAndUserAgent(t *testing.T) {
	// S6: -H "Host: example" -H "User-Agent: ua" must produce exactly one
	// Host line and one User-Agent line, with no synthesized defaults.
	req, _, err := Forge("http://127.0.0.1/", true, []string{"Host: example", "User-Agent: ua"})
	assert.NoError(t, err, "forging request with overriding headers")
	s := string(req)
	assert.Equal(t, 1, strings.Count(s, "Host:"), "exactly one Host header")
	assert.Equal(t, 1, strings.Count(s, "User-Agent:"), "exactly one User-Agent header")
	assert.True(t, strings.Contains(s, "Host: example\r\n"), "Host overridden")
	assert.True(t, strings.Contains(s, "User-Agent: ua\r\n"), "User-Agent overridden")
}

func TestForgeDuplicateHostIsFatal(t *testing.T) {
	_, _, err := Forge("http://example.com/", true, []string{"Host: a", "Host: b"})
	assert.Error(t, err, "duplicate Host header must be rejected")
}

func TestForgeNonDefaultPortIncludedInHost(t *testing.T) {
	req, _, err := Forge("http://example.com:8080/", true, nil)
	assert.NoError(t, err, "forging request on non-default port")
	assert.True(t, strings.Contains(string(req), "Host: example.com:8080\r\n"), "non-80 port included in Host")
}
