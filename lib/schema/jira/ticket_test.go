// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"slices"
	"testing"
	"time"
)

func TestCompareKeysNumeric(t *testing.T) {
	keys := []string{"AMP-10", "AMP-9", "BLD-1", "AMP-100", "weird"}
	slices.SortFunc(keys, CompareKeys)
	want := []string{"AMP-9", "AMP-10", "AMP-100", "BLD-1", "weird"}
	if !slices.Equal(keys, want) {
		t.Errorf("sorted = %v, want %v", keys, want)
	}
}

func TestNormalizeLabels(t *testing.T) {
	got := NormalizeLabels([]string{"backend", " api", "backend", "", "api"})
	want := []string{"api", "backend"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeLabels = %v, want %v", got, want)
	}
	if NormalizeLabels([]string{" ", ""}) != nil {
		t.Error("NormalizeLabels of blanks should be nil")
	}
}

func TestTicketCloneDoesNotShareSlices(t *testing.T) {
	original := Ticket{
		Key:      "AMP-1",
		Labels:   []string{"a"},
		Activity: []ActivityEntry{{Kind: ActivityComment, Body: "hi"}},
	}
	clone := original.Clone()
	clone.Labels[0] = "changed"
	clone.Activity[0].Body = "changed"
	if original.Labels[0] != "a" || original.Activity[0].Body != "hi" {
		t.Error("mutating the clone changed the original")
	}
}

func TestTeamMemberSame(t *testing.T) {
	alice := TeamMember{Name: "Alice", Email: "alice@example.com"}
	if !alice.Same(TeamMember{Name: "A. Smith", Email: "ALICE@example.com"}) {
		t.Error("members with equal emails should be the same person")
	}
	if alice.Same(TeamMember{Name: "Alice", Email: "other@example.com"}) {
		t.Error("members with different emails should differ")
	}
	if !alice.Same(TeamMember{Name: "Alice"}) {
		t.Error("without an email the display name decides")
	}
}

func TestSortActivityNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []ActivityEntry{
		{Timestamp: base, Body: "first"},
		{Timestamp: base.Add(2 * time.Hour), Body: "third"},
		{Timestamp: base.Add(time.Hour), Body: "second"},
	}
	SortActivity(entries)
	if entries[0].Body != "third" || entries[2].Body != "first" {
		t.Errorf("order = %q %q %q", entries[0].Body, entries[1].Body, entries[2].Body)
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name    string
		command Command
		wantErr bool
	}{
		{"move ok", MoveCommand{Key: "AMP-1", Status: StatusDone}, false},
		{"move without status", MoveCommand{Key: "AMP-1"}, true},
		{"assign ok", AssignCommand{Key: "AMP-1", Assignee: TeamMember{Name: "Bo", Email: "bo@example.com"}}, false},
		{"unassign", AssignCommand{Key: "AMP-1"}, false},
		{"assign without email", AssignCommand{Key: "AMP-1", Assignee: TeamMember{Name: "Bo"}}, true},
		{"blank comment", CommentCommand{Key: "AMP-1", Body: "  "}, true},
		{"edit label whitespace", EditCommand{Key: "AMP-1", Summary: "x", Labels: []string{"two words"}}, true},
		{"create ok", CreateCommand{Project: "AMP", Type: "Task", Summary: "New"}, false},
		{"create without summary", CreateCommand{Project: "AMP", Type: "Task"}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.command.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}
