// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import "errors"

var (
	// ErrBusy is returned when a mutation is already pending for the
	// ticket. The caller retries after the pending one resolves.
	ErrBusy = errors.New("a change to this ticket is already in flight")

	// ErrUnknownTicket is returned for a mutation on a key the cache
	// does not hold.
	ErrUnknownTicket = errors.New("ticket is not cached")

	// ErrClosed is returned by operations started after Close.
	ErrClosed = errors.New("sync engine is closed")

	// ErrNotStarted is returned by operations that need background
	// workers before Start has run.
	ErrNotStarted = errors.New("sync engine is not started")

	// ErrSourcePanic wraps a panic raised inside a Source call. The
	// call is reported as failed like any other error.
	ErrSourcePanic = errors.New("ticket source panicked")
)
