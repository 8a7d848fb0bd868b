// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a snapshot payload is compressed. The
// values are written into snapshot files; do not renumber them.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", compression)
	}
}

// ParseCompression parses a configuration value ("none", "lz4",
// "zstd").
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown snapshot compression %q (want none, lz4, or zstd)", name)
	}
}

// zstd.Encoder and zstd.Decoder are safe for concurrent EncodeAll and
// DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// compress returns the payload compressed with the requested algorithm
// and the algorithm actually applied. Data that does not shrink is
// stored uncompressed.
func compress(data []byte, compression Compression) ([]byte, Compression, error) {
	switch compression {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock reports 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return data, CompressionNone, nil
		}
		return destination[:written], CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("unsupported compression %s", compression)
	}
}

// maxPayloadSize bounds the uncompressed size a snapshot may claim.
// The size is read before the checksum is verified, so it is untrusted.
const maxPayloadSize = 256 << 20

// lz4MaxRatio is the largest expansion an LZ4 block can encode: each
// length byte extends a run by at most 255.
const lz4MaxRatio = 255

// checkSize rejects an envelope size no valid payload could have.
func checkSize(data []byte, compression Compression, size int) error {
	if size < 0 || size > maxPayloadSize {
		return fmt.Errorf("payload size %d outside [0, %d]", size, maxPayloadSize)
	}
	if compression == CompressionLZ4 && size > len(data)*lz4MaxRatio+16 {
		return fmt.Errorf("lz4 payload of %d bytes cannot expand to %d", len(data), size)
	}
	return nil
}

// decompress reverses compress. size is the uncompressed length
// recorded in the envelope and is checked exactly.
func decompress(data []byte, compression Compression, size int) ([]byte, error) {
	if err := checkSize(data, compression, size); err != nil {
		return nil, err
	}
	switch compression {
	case CompressionNone:
		if len(data) != size {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, expected %d", len(data), size)
		}
		return data, nil

	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(data, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}
