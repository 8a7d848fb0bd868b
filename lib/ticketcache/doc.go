// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticketcache holds jiradeck's in-memory copy of every known
// ticket, epic, and roster member, and derives the views the terminal
// UI renders (status groups, assignee groups, epic progress).
//
// A Store has exactly one writer: the control loop that applies
// background fetch and mutation results. It has no internal locking.
// Anything that must read the cache from another goroutine, or must
// not observe a merge halfway through (a render pass, a snapshot
// write), reads from an immutable copy taken with [Store.Snapshot].
//
// Writes come in three families:
//
//   - Merges from fetch batches ([Store.Merge], [Store.ReplaceDoneWindow],
//     [Store.ApplyDetail]). Additive and idempotent.
//   - Mutation reconciliation ([Store.Capture], [Store.ApplyProvisional],
//     [Store.Revert]), used only by the mutation engine.
//   - Cold-start replacement from a persisted snapshot ([Store.Restore]).
//
// Status partitions, assignee groups, and epic progress are recomputed
// from current ticket state on every read or merge. Nothing derived is
// stored.
package ticketcache
