// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is jiradeck's single CBOR configuration. The snapshot
// file and the byte-level equality checks in tests both go through it,
// so a given value always encodes to the same bytes.
package codec
