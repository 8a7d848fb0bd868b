// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"testing"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

func filterTicket() jira.Ticket {
	return jira.Ticket{
		Key:      "PLAT-42",
		Summary:  "Rotate signing keys",
		Status:   jira.StatusInReview,
		Type:     "Story",
		Assignee: jira.TeamMember{Name: "Alice Moreau", Email: "alice@example.com"},
		Labels:   []string{"security", "q3"},
		EpicKey:  "PLAT-7",
	}
}

func TestFilterEmptyMatchesEverything(t *testing.T) {
	var filter FilterModel
	if _, ok := filter.Match(filterTicket()); !ok {
		t.Error("empty filter should match")
	}
}

func TestFilterMatchesSummaryWithHighlights(t *testing.T) {
	filter := FilterModel{Input: "signing"}
	result, ok := filter.Match(filterTicket())
	if !ok {
		t.Fatal("summary should match")
	}
	if len(result.Positions) != len("signing") {
		t.Errorf("Positions = %v, want %d entries", result.Positions, len("signing"))
	}
}

func TestFilterMatchesOtherFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"key", "plat-42"},
		{"type", "story"},
		{"status", "in review"},
		{"epic", "PLAT-7"},
		{"assignee name", "moreau"},
		{"assignee email", "alice@"},
		{"label", "secur"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			filter := FilterModel{Input: test.input}
			if _, ok := filter.Match(filterTicket()); !ok {
				t.Errorf("%q should match", test.input)
			}
		})
	}
}

func TestFilterRejects(t *testing.T) {
	filter := FilterModel{Input: "kubernetes"}
	if _, ok := filter.Match(filterTicket()); ok {
		t.Error("unrelated query should not match")
	}
}

func TestFilterEditing(t *testing.T) {
	var filter FilterModel
	if filter.HandleBackspace() {
		t.Error("backspace on empty input reported a change")
	}
	for _, character := range "héllo" {
		filter.HandleRune(character)
	}
	if !filter.HandleBackspace() {
		t.Error("backspace reported no change")
	}
	if filter.Input != "héll" {
		t.Errorf("Input = %q, want %q", filter.Input, "héll")
	}

	filter.Active = true
	filter.Clear()
	if filter.Input != "" || filter.Active {
		t.Errorf("after Clear: %+v", filter)
	}
	if view := filter.View(DefaultTheme, 40); view != "" {
		t.Errorf("cleared filter View = %q, want empty", view)
	}
}
