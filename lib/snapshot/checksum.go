// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"

	"github.com/zeebo/blake3"
)

// payloadKey is the BLAKE3 key for snapshot payload checksums: the
// ASCII domain name, zero-padded to 32 bytes. Changing it invalidates
// every existing snapshot.
var payloadKey = [32]byte{
	'j', 'i', 'r', 'a', 'd', 'e', 'c', 'k', '.', 's', 'n', 'a', 'p', 's', 'h', 'o',
	't', '.', 'p', 'a', 'y', 'l', 'o', 'a', 'd', 0, 0, 0, 0, 0, 0, 0,
}

// checksum returns the keyed BLAKE3 digest of an uncompressed payload.
func checksum(payload []byte) []byte {
	hasher, err := blake3.NewKeyed(payloadKey[:])
	if err != nil {
		// NewKeyed only fails for keys that are not 32 bytes.
		panic("snapshot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	return hasher.Sum(nil)
}

func checksumMatches(payload, expected []byte) bool {
	return bytes.Equal(checksum(payload), expected)
}
