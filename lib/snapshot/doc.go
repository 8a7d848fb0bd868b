// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists the ticket cache between runs so jiradeck
// starts with a populated view while the first refresh is still in
// flight.
//
// Each project has one file under the cache directory. The file is a
// CBOR envelope (format version, project, save time, compression,
// uncompressed size, BLAKE3 checksum) wrapping the compressed CBOR
// encoding of [ticketcache.Contents]. Writes replace the file
// atomically.
//
// Loading never fails startup. A missing file, an envelope from a
// different format version, a checksum mismatch, or any decode error
// makes [Store.Load] report "no snapshot" and the caller starts cold.
package snapshot
