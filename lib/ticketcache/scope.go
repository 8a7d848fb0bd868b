// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketcache

import "strings"

// Scope records which kinds of fetch have returned a ticket. A ticket
// accumulates bits across merges; bits are only cleared by eviction or
// by restoring a snapshot.
type Scope uint8

const (
	// ScopeActive: returned by the active-work query (current user
	// and team, active statuses).
	ScopeActive Scope = 1 << iota

	// ScopeDoneWindow: returned by the recently-done query.
	ScopeDoneWindow

	// ScopeEpic: an epic's child, returned by the epic fetch.
	ScopeEpic

	// ScopeFilter: returned by a saved filter.
	ScopeFilter

	// ScopeCreated: created from this process.
	ScopeCreated
)

// windowScopes are the fetches whose results the done window governs.
// pinnedScopes keep a done ticket cached even when it leaves the
// window: epic children count toward progress and filter results are
// listed by name.
const (
	windowScopes = ScopeActive | ScopeDoneWindow
	pinnedScopes = ScopeEpic | ScopeFilter
)

// Has reports whether every bit of other is set.
func (scope Scope) Has(other Scope) bool {
	return scope&other == other
}

func (scope Scope) String() string {
	if scope == 0 {
		return "none"
	}
	var names []string
	for _, bit := range []struct {
		scope Scope
		name  string
	}{
		{ScopeActive, "active"},
		{ScopeDoneWindow, "done_window"},
		{ScopeEpic, "epic"},
		{ScopeFilter, "filter"},
		{ScopeCreated, "created"},
	} {
		if scope&bit.scope != 0 {
			names = append(names, bit.name)
		}
	}
	return strings.Join(names, "|")
}
