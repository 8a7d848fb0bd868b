// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package bulkcreate

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

func testContext() Context {
	return Context{
		KnownEpics:        map[string]bool{"AMP-7": true},
		ExistingSummaries: map[string]bool{"rotate signing keys": true},
		IssueTypes:        DefaultIssueTypes,
	}
}

func parse(t *testing.T, content string) *Preview {
	t.Helper()
	preview, err := Parse(strings.NewReader(content), testContext())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return preview
}

func TestParseValidRows(t *testing.T) {
	preview := parse(t, " Type , SUMMARY ,assignee_email,epic_key,labels,description\n"+
		"bug,Login fails on Safari,alice@example.com,amp-7, web | auth |,Steps to reproduce\n"+
		",Write the runbook,,,,\n")

	if preview.Total != 2 || preview.Valid != 2 || preview.Invalid != 0 || !preview.CanSubmit() {
		t.Fatalf("counts = %+v", preview)
	}
	first := preview.Rows[0]
	if first.Number != 2 || first.Type != "Bug" || first.EpicKey != "AMP-7" {
		t.Errorf("first row = %+v", first)
	}
	if !slices.Equal(first.Labels, []string{"web", "auth"}) {
		t.Errorf("labels = %v", first.Labels)
	}
	if second := preview.Rows[1]; second.Number != 3 || second.Type != DefaultType || second.Labels != nil {
		t.Errorf("second row = %+v", second)
	}

	command := first.Command("AMP")
	if command.Project != "AMP" || command.Assignee.Email != "alice@example.com" || command.Description != "Steps to reproduce" {
		t.Errorf("command = %+v", command)
	}
	if err := command.Validate(); err != nil {
		t.Errorf("command does not validate: %v", err)
	}
	if command := preview.Rows[1].Command("AMP"); command.Assignee != (jira.TeamMember{}) {
		t.Errorf("row without an email got assignee %+v", command.Assignee)
	}
}

func TestParseRowErrors(t *testing.T) {
	preview := parse(t, "summary,type,assignee_email,epic_key\n"+
		",Task,,\n"+
		"Typo,Sorty,,\n"+
		"Bad email,,alice@localhost,\n"+
		"Bad key,,,AMP7\n"+
		"Unknown epic,,,AMP-8\n"+
		"Fine,,,\n")

	want := map[int]string{
		2: "summary is required",
		3: `invalid type "Sorty"`,
		4: `invalid assignee_email "alice@localhost"`,
		5: `invalid epic_key "AMP7"`,
		6: `unknown epic_key "AMP-8"`,
	}
	for _, row := range preview.Rows {
		expected, invalid := want[row.Number]
		if !invalid {
			if !row.Valid() {
				t.Errorf("row %d: unexpected errors %v", row.Number, row.Errors)
			}
			continue
		}
		if len(row.Errors) != 1 || !strings.HasPrefix(row.Errors[0], expected) {
			t.Errorf("row %d errors = %v, want %q", row.Number, row.Errors, expected)
		}
	}
	if preview.Invalid != 5 || preview.Valid != 1 || preview.CanSubmit() {
		t.Errorf("counts = total %d valid %d invalid %d", preview.Total, preview.Valid, preview.Invalid)
	}
	if rows := preview.ValidRows(); len(rows) != 1 || rows[0].Summary != "Fine" {
		t.Errorf("ValidRows = %+v", rows)
	}
}

func TestParseDuplicateWarnings(t *testing.T) {
	preview := parse(t, "summary\n"+
		"  Rotate Signing Keys \n"+
		"Add audit log\n"+
		"add AUDIT log\n")

	if got := preview.Rows[0].Warnings; len(got) != 1 || !strings.Contains(got[0], "existing ticket") {
		t.Errorf("row 2 warnings = %v", got)
	}
	if got := preview.Rows[1].Warnings; len(got) != 0 {
		t.Errorf("first occurrence warned: %v", got)
	}
	if got := preview.Rows[2].Warnings; len(got) != 1 || !strings.Contains(got[0], "in this CSV") {
		t.Errorf("row 4 warnings = %v", got)
	}
	if preview.Warnings != 2 || !preview.CanSubmit() {
		t.Errorf("warnings = %d, can submit = %v", preview.Warnings, preview.CanSubmit())
	}
}

func TestParseShortAndLongRecords(t *testing.T) {
	preview := parse(t, "summary,labels,description\nOnly a summary\nToo,many,fields,here\n")
	if preview.Total != 2 || preview.Invalid != 0 {
		t.Fatalf("preview = %+v", preview)
	}
	if row := preview.Rows[1]; !slices.Equal(row.Labels, []string{"many"}) || row.Description != "fields" {
		t.Errorf("long record = %+v", row)
	}
}

func TestParseFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "", ErrEmpty},
		{"no summary column", "title,type\nx,Task\n", ErrNoSummaryColumn},
		{"too many rows", "summary\n" + strings.Repeat("row\n", MaxRows+1), ErrTooManyRows},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(test.content), testContext())
			if !errors.Is(err, test.want) {
				t.Errorf("err = %v, want %v", err, test.want)
			}
		})
	}

	if _, err := Parse(strings.NewReader("summary\n\"unterminated\n"), testContext()); err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Errorf("malformed quoting: err = %v", err)
	}
}

func TestParseAcceptsMaxRows(t *testing.T) {
	var content strings.Builder
	content.WriteString("summary\n")
	for index := range MaxRows {
		content.WriteString("ticket ")
		content.WriteString(strings.Repeat("x", index%7+1))
		content.WriteString("\n")
	}
	preview := parse(t, content.String())
	if preview.Total != MaxRows {
		t.Errorf("total = %d, want %d", preview.Total, MaxRows)
	}
}

func TestParseFileRecordsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.csv")
	if err := os.WriteFile(path, []byte("summary\nOne\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	preview, err := ParseFile(path, testContext())
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if preview.Path != path || preview.Total != 1 {
		t.Errorf("preview = %+v", preview)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.csv"), testContext()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestResultDone(t *testing.T) {
	result := NewResult(&Preview{Path: "a.csv", Total: 3, Valid: 2})
	if result.Done() {
		t.Fatal("empty result reported done")
	}
	result.Created = append(result.Created, "AMP-10")
	result.Failed = append(result.Failed, Failure{Row: 3, Summary: "x", Err: errors.New("denied")})
	if !result.Done() {
		t.Error("result with every row resolved is not done")
	}
	if got := result.String(); got != "bulk upload: 1 created, 1 failed" {
		t.Errorf("String = %q", got)
	}
}
