// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

// Version and Commit are set at link time, e.g.
//
//	-ldflags "-X github.com/toeirei/masking/buildvars.Version=v1.2.0 -X github.com/toeirei/masking/buildvars.Commit=abc123"
//
// Both are empty for local or development builds.
var (
	Version string
	Commit  string
)

// VersionOrDefault returns `Version` if set, otherwise returns the provided default.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}

// Describe returns the version followed by the short commit, if known.
func Describe(def string) string {
	v := VersionOrDefault(def)
	if len(Commit) == 0 {
		return v
	}
	c := Commit
	if len(c) > 7 {
		c = c[:7]
	}
	return v + " (" + c + ")"
}
