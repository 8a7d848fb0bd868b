// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import "fmt"

// PersistenceError reports a snapshot that could not be written or
// read. It is never fatal: the worst outcome is a cold start.
type PersistenceError struct {
	// Operation is "save" or "load".
	Operation string
	Path      string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot %s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SchemaError reports a snapshot written in a different format
// version. Callers treat it as "no snapshot".
type SchemaError struct {
	Found    int
	Expected int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("snapshot format version %d, expected %d", e.Found, e.Expected)
}
