// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for jiradeck.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//
// [Version] is set manually for releases. When nothing is injected
// (development builds, test runs) [Info] falls back to the module
// build information the Go toolchain embeds.
package version
