/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package version holds build-time version information for preflightctl.
package version

import "fmt"

// Populated at build time via ldflags:
//
//	go build -ldflags="-X 'github.com/cpstack/preflight/pkg/version.version=1.0.0'"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version returns the semantic version of the build.
func Version() string {
	return version
}

// Full returns the version with commit and build date.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
