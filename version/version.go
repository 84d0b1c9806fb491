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

// Package version holds version and build information for weighttp,
// reusing the shared fortio.org/version machinery for the actual
// version/build-info plumbing.
package version // import "weighttp.dev/weighttp/version"

import (
	"fortio.org/version"
)

var (
	// The following are (re)computed in init().
	shortVersion = "dev"
	longVersion  = "unknown long"
	fullVersion  = "unknown full"
)

// Short returns the short Major.Minor.Patch version string, matching the
// project's git tag (without the leading v), or "dev" when not built from
// a tagged `go install`.
func Short() string {
	return shortVersion
}

// Long returns the long version and build information.
// Format is "X.Y.Z hash go-version processor os".
func Long() string {
	return longVersion
}

// Full returns Long() plus the full dependent module/version/hash list.
func Full() string {
	return fullVersion
}

// This "burns in" the weighttp version, depending on if we're a module or main.
func init() { //nolint:gochecknoinits // we do need an init for this
	shortVersion, longVersion, fullVersion = version.FromBuildInfoPath("weighttp.dev/weighttp")
}
