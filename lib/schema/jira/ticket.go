// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Ticket is one Jira issue as cached by jiradeck. A ticket first
// arrives in summary form (key, status, assignee, summary) from a list
// query; Description, Activity, and usually Labels arrive later from a
// detail fetch, which sets Hydrated.
type Ticket struct {
	// Key is the Jira issue key ("AMP-142"). Immutable.
	Key string `json:"key"`

	Summary string `json:"summary"`
	Status  Status `json:"status"`

	// Type is the Jira issue type ("Story", "Bug", "Epic").
	Type string `json:"type,omitempty"`

	// Assignee is the zero TeamMember when the ticket is unassigned.
	Assignee TeamMember `json:"assignee,omitzero"`
	Reporter string     `json:"reporter,omitempty"`

	// Labels is kept sorted and free of duplicates. See NormalizeLabels.
	Labels []string `json:"labels,omitempty"`

	// EpicKey is the parent epic's key, empty when the ticket has none.
	EpicKey string `json:"epic_key,omitempty"`

	Description string `json:"description,omitempty"`

	// Activity is ordered newest first.
	Activity []ActivityEntry `json:"activity,omitempty"`

	// Hydrated is true once a detail payload has been applied.
	Hydrated bool `json:"hydrated,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitzero"`
	URL       string    `json:"url,omitempty"`
}

// Clone returns a deep copy. Slices are never shared between the
// cache and its readers.
func (ticket Ticket) Clone() Ticket {
	ticket.Labels = slices.Clone(ticket.Labels)
	ticket.Activity = slices.Clone(ticket.Activity)
	return ticket
}

// IsAssigned reports whether the ticket has an assignee.
func (ticket Ticket) IsAssigned() bool {
	return !ticket.Assignee.IsZero()
}

// ActivityKind classifies an activity log entry.
type ActivityKind string

const (
	ActivityStatusChange   ActivityKind = "status_change"
	ActivityComment        ActivityKind = "comment"
	ActivityAssigneeChange ActivityKind = "assignee_change"
	ActivityFieldChange    ActivityKind = "field_change"
)

// ActivityEntry is one line of a ticket's history: a comment or a
// field transition.
type ActivityEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	Author    string       `json:"author"`
	Kind      ActivityKind `json:"kind"`

	// Field names the changed field for field changes ("labels",
	// "summary"). Empty for other kinds.
	Field string `json:"field,omitempty"`

	// From and To hold the old and new values of a transition.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Body is the comment text for comments.
	Body string `json:"body,omitempty"`
}

// SortActivity orders entries newest first. Entries with equal
// timestamps keep their relative order.
func SortActivity(entries []ActivityEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

// TeamMember is a person on the roster. Email is the identity; Name is
// for display.
type TeamMember struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
}

// IsZero reports whether the member is unset (an unassigned ticket).
func (member TeamMember) IsZero() bool {
	return member.Name == "" && member.Email == ""
}

// Same reports whether two members refer to the same person. Emails
// are compared case-insensitively when both are known; otherwise the
// display names are compared.
func (member TeamMember) Same(other TeamMember) bool {
	if member.Email != "" && other.Email != "" {
		return strings.EqualFold(member.Email, other.Email)
	}
	return member.Name == other.Name
}

// Identity returns the key used to group tickets by assignee: the
// lowercased email, or the display name when Jira did not expose an
// email address.
func (member TeamMember) Identity() string {
	if member.Email != "" {
		return strings.ToLower(member.Email)
	}
	return member.Name
}

// String returns the display name, falling back to the email.
func (member TeamMember) String() string {
	if member.Name != "" {
		return member.Name
	}
	return member.Email
}

// Epic is a grouping ticket. Progress over its children is derived by
// the cache on every read and is never part of this record.
type Epic struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Status Status `json:"status"`

	// ChildKeys is sorted and free of duplicates.
	ChildKeys []string `json:"child_keys,omitempty"`
}

// Clone returns a deep copy.
func (epic Epic) Clone() Epic {
	epic.ChildKeys = slices.Clone(epic.ChildKeys)
	return epic
}

// EpicTree is an epic with the child tickets fetched alongside it.
type EpicTree struct {
	Epic     Epic
	Children []Ticket
}

// SavedFilter is a named JQL query from configuration.
type SavedFilter struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	JQL  string `json:"jql" yaml:"jql" mapstructure:"jql"`
}

// TicketDetail is the payload of a detail fetch: the fields a list
// query does not return.
type TicketDetail struct {
	Key         string          `json:"key"`
	Description string          `json:"description"`
	Labels      []string        `json:"labels,omitempty"`
	Activity    []ActivityEntry `json:"activity,omitempty"`

	// EpicKey is set when the detail response names a parent epic.
	EpicKey string `json:"epic_key,omitempty"`
}

// Query is a JQL search. Limit bounds the number of results; zero
// means the adapter's default.
type Query struct {
	JQL   string
	Limit int
}

// NormalizeLabels returns labels trimmed, deduplicated, and sorted.
// Empty labels are dropped. The result is nil for an empty input so
// that normalized and absent label sets encode identically.
func NormalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label != "" {
			normalized = append(normalized, label)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	sort.Strings(normalized)
	return slices.Compact(normalized)
}

// NormalizeKeys returns ticket keys deduplicated and sorted with
// CompareKeys.
func NormalizeKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	normalized := slices.Clone(keys)
	slices.SortFunc(normalized, CompareKeys)
	return slices.Compact(normalized)
}

// CompareKeys orders issue keys by project, then numerically by issue
// number, so "AMP-9" sorts before "AMP-10". Keys without a numeric
// suffix fall back to string comparison.
func CompareKeys(a, b string) int {
	projectA, numberA, okA := splitKey(a)
	projectB, numberB, okB := splitKey(b)
	if !okA || !okB {
		return strings.Compare(a, b)
	}
	if projectA != projectB {
		return strings.Compare(projectA, projectB)
	}
	switch {
	case numberA < numberB:
		return -1
	case numberA > numberB:
		return 1
	}
	return 0
}

func splitKey(key string) (string, int, bool) {
	dash := strings.LastIndexByte(key, '-')
	if dash <= 0 {
		return "", 0, false
	}
	number, err := strconv.Atoi(key[dash+1:])
	if err != nil {
		return "", 0, false
	}
	return key[:dash], number, true
}
