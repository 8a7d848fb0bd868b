// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"time"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// Message is a result produced by a background task, to be passed to
// Engine.Apply on the control goroutine. Messages are immutable once
// sent.
type Message interface {
	message()
}

// Stage names one fetch of a refresh cycle.
type Stage int

const (
	StageActive Stage = iota
	StageDoneWindow
	StageEpics
)

// stages lists every stage a cycle runs.
var stages = []Stage{StageActive, StageDoneWindow, StageEpics}

func (stage Stage) String() string {
	switch stage {
	case StageActive:
		return "active"
	case StageDoneWindow:
		return "done window"
	case StageEpics:
		return "epics"
	default:
		return "unknown"
	}
}

// stageResult carries one stage's fetch.
type stageResult struct {
	cycle     uint64
	stage     Stage
	startedAt time.Time
	tickets   []jira.Ticket
	epics     []jira.EpicTree
	err       error
}

// detailResult carries one hydration fetch. generation is the key's
// generation when the fetch was requested.
type detailResult struct {
	key        string
	generation uint64
	detail     jira.TicketDetail
	err        error
}

// mutationResult carries the outcome of a command on an existing
// ticket. id distinguishes it from results of earlier commands on the
// same key.
type mutationResult struct {
	key     string
	id      uint64
	outcome jira.MutationOutcome
	err     error
}

// creationResult carries the outcome of a CreateCommand.
type creationResult struct {
	id      string
	outcome jira.MutationOutcome
	err     error
}

// filterResult carries a saved filter's tickets.
type filterResult struct {
	filter    jira.SavedFilter
	startedAt time.Time
	tickets   []jira.Ticket
	err       error
}

// identityResult carries the resolved current user.
type identityResult struct {
	member jira.TeamMember
	err    error
}

// snapshotSaved reports a finished snapshot write.
type snapshotSaved struct {
	cycle   uint64
	savedAt time.Time
	err     error
}

// refreshTick asks for a scheduled refresh.
type refreshTick struct{}

func (stageResult) message()    {}
func (detailResult) message()   {}
func (mutationResult) message() {}
func (creationResult) message() {}
func (filterResult) message()   {}
func (identityResult) message() {}
func (snapshotSaved) message()  {}
func (refreshTick) message()    {}
