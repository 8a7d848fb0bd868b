// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"sort"
	"strings"
)

// StatusKind enumerates the workflow states jiradeck knows by name.
// Any status string Jira returns that is not one of these becomes
// KindOther and keeps its original text.
type StatusKind uint8

const (
	kindUnset StatusKind = iota
	KindNeedsTriage
	KindReadyForWork
	KindToDo
	KindInProgress
	KindInReview
	KindBlocked
	KindDone
	KindOther
)

// Status is a closed sum type over the known workflow states plus an
// escape variant for unrecognized names. The zero value is the unset
// status, which String renders as "".
//
// Compare statuses with ==: two Other statuses are equal when their
// names are equal byte for byte.
type Status struct {
	kind StatusKind
	name string
}

// The known statuses, in workflow order.
var (
	StatusNeedsTriage  = Status{kind: KindNeedsTriage}
	StatusReadyForWork = Status{kind: KindReadyForWork}
	StatusToDo         = Status{kind: KindToDo}
	StatusInProgress   = Status{kind: KindInProgress}
	StatusInReview     = Status{kind: KindInReview}
	StatusBlocked      = Status{kind: KindBlocked}
	StatusDone         = Status{kind: KindDone}
)

var statusNames = [...]string{
	KindNeedsTriage:  "Needs Triage",
	KindReadyForWork: "Ready for Work",
	KindToDo:         "To Do",
	KindInProgress:   "In Progress",
	KindInReview:     "In Review",
	KindBlocked:      "Blocked",
	KindDone:         "Done",
}

// statusAliases maps lowercased names to known kinds. Canonical names
// are included so a lookup is one map access.
var statusAliases = map[string]StatusKind{
	"needs triage":   KindNeedsTriage,
	"triage":         KindNeedsTriage,
	"ready for work": KindReadyForWork,
	"ready":          KindReadyForWork,
	"to do":          KindToDo,
	"todo":           KindToDo,
	"open":           KindToDo,
	"new":            KindToDo,
	"in progress":    KindInProgress,
	"in development": KindInProgress,
	"in review":      KindInReview,
	"review":         KindInReview,
	"blocked":        KindBlocked,
	"done":           KindDone,
	"closed":         KindDone,
	"resolved":       KindDone,
}

// ParseStatus maps a status name from Jira or from configuration onto
// a Status. Matching ignores case and surrounding whitespace and
// accepts the common aliases ("open" for To Do, "closed" for Done).
// Unknown names become OtherStatus(name). An empty string yields the
// zero Status.
func ParseStatus(name string) Status {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Status{}
	}
	if kind, ok := statusAliases[strings.ToLower(trimmed)]; ok {
		return Status{kind: kind}
	}
	return Status{kind: KindOther, name: trimmed}
}

// OtherStatus returns the escape variant carrying an arbitrary name.
func OtherStatus(name string) Status {
	return Status{kind: KindOther, name: name}
}

// Kind returns the variant tag. Switch on it for exhaustive handling.
func (status Status) Kind() StatusKind { return status.kind }

// IsZero reports whether the status is unset.
func (status Status) IsZero() bool { return status.kind == kindUnset }

// IsOther reports whether the status is the unrecognized-name variant.
func (status Status) IsOther() bool { return status.kind == KindOther }

// String returns the display name. For known statuses this is the
// canonical Jira name; for Other it is the name Jira returned.
func (status Status) String() string {
	switch status.kind {
	case kindUnset:
		return ""
	case KindOther:
		return status.name
	default:
		return statusNames[status.kind]
	}
}

// Order returns the workflow position used to sort status groups.
// Known statuses come first in workflow order; Other statuses sort
// after them (and among themselves by name, which callers handle).
func (status Status) Order() int {
	return int(status.kind)
}

// MarshalText encodes the display name.
func (status Status) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

// UnmarshalText decodes a display name or alias through ParseStatus.
func (status *Status) UnmarshalText(data []byte) error {
	*status = ParseStatus(string(data))
	return nil
}

// KnownStatuses returns the named statuses in workflow order.
func KnownStatuses() []Status {
	return []Status{
		StatusNeedsTriage,
		StatusReadyForWork,
		StatusToDo,
		StatusInProgress,
		StatusInReview,
		StatusBlocked,
		StatusDone,
	}
}

// SortStatuses orders statuses by workflow position, then Other
// statuses by name.
func SortStatuses(statuses []Status) {
	sort.Slice(statuses, func(i, j int) bool {
		return LessStatus(statuses[i], statuses[j])
	})
}

// LessStatus reports whether a sorts before b in workflow order.
func LessStatus(a, b Status) bool {
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.name < b.name
}

// StatusClass is the partition a status belongs to under the
// configured workflow. Every status belongs to exactly one class.
type StatusClass uint8

const (
	ClassUnrecognized StatusClass = iota
	ClassActive
	ClassDone
)

func (class StatusClass) String() string {
	switch class {
	case ClassActive:
		return "active"
	case ClassDone:
		return "done"
	default:
		return "unrecognized"
	}
}

// DefaultActiveStatuses and DefaultDoneStatuses are the workflow
// columns used when configuration does not name its own.
var (
	DefaultActiveStatuses = []string{"Needs Triage", "Ready for Work", "To Do", "In Progress", "In Review", "Blocked"}
	DefaultDoneStatuses   = []string{"Done", "Closed"}
)

// StatusSet classifies statuses against the configured active and
// done lists. Names go through ParseStatus, so "Closed" in the done
// list and "closed" from Jira land on the same entry. A status named
// in both lists classifies as done.
type StatusSet struct {
	active map[Status]struct{}
	done   map[Status]struct{}

	activeNames []string
	doneNames   []string
}

// NewStatusSet builds a StatusSet from configured names.
func NewStatusSet(active, done []string) StatusSet {
	set := StatusSet{
		active: make(map[Status]struct{}, len(active)),
		done:   make(map[Status]struct{}, len(done)),
	}
	set.activeNames = collectStatuses(active, set.active)
	set.doneNames = collectStatuses(done, set.done)
	return set
}

// collectStatuses adds each parsed name to members and returns the
// trimmed names, deduplicated case-insensitively, in input order.
func collectStatuses(names []string, members map[Status]struct{}) []string {
	var collected []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		status := ParseStatus(name)
		if status.IsZero() {
			continue
		}
		members[status] = struct{}{}
		trimmed := strings.TrimSpace(name)
		folded := strings.ToLower(trimmed)
		if _, duplicate := seen[folded]; duplicate {
			continue
		}
		seen[folded] = struct{}{}
		collected = append(collected, trimmed)
	}
	return collected
}

// DefaultStatusSet classifies with DefaultActiveStatuses and
// DefaultDoneStatuses.
func DefaultStatusSet() StatusSet {
	return NewStatusSet(DefaultActiveStatuses, DefaultDoneStatuses)
}

// Classify returns the class of a status.
func (set StatusSet) Classify(status Status) StatusClass {
	if _, ok := set.done[status]; ok {
		return ClassDone
	}
	if _, ok := set.active[status]; ok {
		return ClassActive
	}
	return ClassUnrecognized
}

// ActiveNames returns the configured active status names as written
// in configuration. Used to build JQL.
func (set StatusSet) ActiveNames() []string {
	return append([]string(nil), set.activeNames...)
}

// DoneNames returns the configured done status names as written in
// configuration. The original spelling matters for JQL: "Closed" and
// "Done" both parse to StatusDone but are distinct Jira statuses.
func (set StatusSet) DoneNames() []string {
	return append([]string(nil), set.doneNames...)
}
