// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint error handling for
// jiradeck: the one place that writes to stderr before (or after) the
// structured logger exists, and the one place that calls os.Exit.
package process
