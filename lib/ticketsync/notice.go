// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"fmt"
	"slices"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// NoticeLevel grades a Notice for display.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

func (level NoticeLevel) String() string {
	switch level {
	case NoticeInfo:
		return "info"
	case NoticeWarn:
		return "warn"
	case NoticeError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(level))
	}
}

// Notice is a user-facing event produced by Apply: a finished refresh,
// a committed or reverted mutation, a failed save.
type Notice struct {
	Level   NoticeLevel
	Message string

	// Key is the ticket the notice is about, if any.
	Key string

	// Select asks the view to move its cursor to Key. Set for newly
	// created tickets.
	Select bool

	// Creation is the provisional id returned by Create, set on the
	// notice that ends that creation.
	Creation string

	// Err is the underlying failure for warn and error notices.
	Err error

	// Bulk is set on the notice that ends a bulk operation.
	Bulk *BulkSummary
}

// BulkSummary reports how each key of a bulk operation ended.
type BulkSummary struct {
	// ID identifies the bulk operation; it matches BulkReceipt.ID.
	ID uint64

	Succeeded []string

	// Failed maps each failed key to the error Jira returned. The
	// optimistic change for those keys was reverted.
	Failed map[string]error

	// Skipped keys needed no change or were not cached.
	Skipped []string

	// Rejected keys had a mutation pending when the bulk operation
	// was submitted.
	Rejected map[string]error
}

// FailedKeys returns the failed keys in key order.
func (summary *BulkSummary) FailedKeys() []string {
	keys := make([]string, 0, len(summary.Failed))
	for key := range summary.Failed {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, jira.CompareKeys)
	return keys
}

// String returns a one-line summary for the status bar.
func (summary *BulkSummary) String() string {
	text := fmt.Sprintf("%d succeeded", len(summary.Succeeded))
	if len(summary.Failed) > 0 {
		text += fmt.Sprintf(", %d failed", len(summary.Failed))
	}
	if len(summary.Skipped) > 0 {
		text += fmt.Sprintf(", %d skipped", len(summary.Skipped))
	}
	if len(summary.Rejected) > 0 {
		text += fmt.Sprintf(", %d busy", len(summary.Rejected))
	}
	return text
}

// BulkReceipt is returned by SubmitBulk: what happened to each key at
// submission time. A Notice with the final BulkSummary follows once
// every accepted key resolves.
type BulkReceipt struct {
	ID       uint64
	Accepted []string
	Skipped  []string
	Rejected map[string]error
}
