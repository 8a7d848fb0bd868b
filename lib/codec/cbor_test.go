// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

func TestTicketRoundTripKeepsStatusAndTime(t *testing.T) {
	updated := time.Date(2026, 3, 1, 9, 30, 15, 123456789, time.UTC)
	original := jira.Ticket{
		Key:       "AMP-7",
		Status:    jira.OtherStatus("Waiting on Vendor"),
		Assignee:  jira.TeamMember{Name: "Alice", Email: "alice@example.com"},
		Labels:    []string{"api"},
		UpdatedAt: updated,
	}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded jira.Ticket
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Status != original.Status {
		t.Errorf("status = %q, want %q", decoded.Status, original.Status)
	}
	if !decoded.UpdatedAt.Equal(updated) {
		t.Errorf("updated_at = %v, want %v (nanoseconds must survive)", decoded.UpdatedAt, updated)
	}
	if decoded.Assignee != original.Assignee {
		t.Errorf("assignee = %+v, want %+v", decoded.Assignee, original.Assignee)
	}
}

func TestStatusEncodesAsText(t *testing.T) {
	data, err := Marshal(jira.StatusInReview)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `"In Review"`) {
		t.Errorf("diagnostic = %s, want a text string", diagnostic)
	}
}

func TestEqualIsByteLevel(t *testing.T) {
	a := jira.Ticket{Key: "AMP-1", Summary: "one"}
	b := a
	same, err := Equal(a, b)
	if err != nil || !same {
		t.Fatalf("Equal(copy) = %v, %v", same, err)
	}
	b.Summary = "two"
	same, err = Equal(a, b)
	if err != nil || same {
		t.Fatalf("Equal(changed) = %v, %v", same, err)
	}
}
