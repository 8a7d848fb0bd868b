// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticketsync keeps a ticketcache.Store warm and applies user
// edits to it optimistically.
//
// An [Engine] owns the store and everything that writes to it. Its
// methods are meant for a single control goroutine: the bubbletea
// Update loop in the TUI, or [Engine.Run] in headless commands. Fetches,
// detail hydration, mutations, and snapshot saves run in the
// background and never touch the store; they report back through
// [Engine.Messages], and the control goroutine hands each message to
// [Engine.Apply] in the order received. The store therefore needs no
// locking and no reader ever sees a half-applied batch.
//
// A refresh cycle runs three independent fetch stages (active work,
// the recently-done window, and epics). A cycle whose stages all
// succeed ends with a snapshot save. Cycles never cancel each other;
// merges are idempotent, so the later result simply wins.
//
// Mutations follow a per-key state machine: Idle, then Pending while
// the command is in flight, then Committed or RolledBack. A second
// command for a pending key is refused with [ErrBusy]. On failure the
// ticket is restored from the pre-image captured before the optimistic
// write.
package ticketsync
