// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, shortest integer forms, definite lengths.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// jira.Status has only unexported fields and encodes through
	// MarshalText.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	// Timestamps keep nanoseconds and their zone offset. The default
	// (Unix seconds) would truncate UpdatedAt and break restore
	// equality.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
		// Duplicate keys mean a corrupt or hand-edited snapshot.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Equal reports whether a and b encode to identical bytes. Used to
// assert that a reverted ticket matches its pre-image exactly.
func Equal(a, b any) (bool, error) {
	encodedA, err := Marshal(a)
	if err != nil {
		return false, err
	}
	encodedB, err := Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(encodedA, encodedB), nil
}

// Diagnose returns RFC 8949 diagnostic notation for data. "jiradeck
// cache inspect --raw" prints it.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
