// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jiracli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// scriptedRunner answers CLI invocations from a table keyed by the
// space-joined argument list.
type scriptedRunner struct {
	mu        sync.Mutex
	responses map[string]scriptedResponse
	calls     [][]string
}

type scriptedResponse struct {
	output string
	err    error
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{responses: make(map[string]scriptedResponse)}
}

func (runner *scriptedRunner) on(output string, args ...string) {
	runner.responses[strings.Join(args, " ")] = scriptedResponse{output: output}
}

func (runner *scriptedRunner) fail(err error, args ...string) {
	runner.responses[strings.Join(args, " ")] = scriptedResponse{err: err}
}

func (runner *scriptedRunner) Run(_ context.Context, args ...string) (string, error) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	runner.calls = append(runner.calls, slices.Clone(args))
	response, ok := runner.responses[strings.Join(args, " ")]
	if !ok {
		return "", fmt.Errorf("unexpected invocation: jira %s", strings.Join(args, " "))
	}
	return response.output, response.err
}

func (runner *scriptedRunner) lastCall() []string {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.calls) == 0 {
		return nil
	}
	return runner.calls[len(runner.calls)-1]
}

func newTestClient(runner Runner) *Client {
	return New(runner, Options{Project: "AMP", Server: "https://jira.example.com/"})
}

func TestParseTicketLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want jira.Ticket
		ok   bool
	}{
		{
			name: "assigned",
			line: "AMP-12\tIn Progress\tAlice Jones\t2026-03-19 14:02:11\tFix the login redirect",
			want: jira.Ticket{
				Key:       "AMP-12",
				Status:    jira.StatusInProgress,
				Assignee:  jira.TeamMember{Name: "Alice Jones"},
				UpdatedAt: time.Date(2026, 3, 19, 14, 2, 11, 0, time.UTC),
				Summary:   "Fix the login redirect",
			},
			ok: true,
		},
		{
			name: "unassigned column collapses",
			line: "AMP-13\tTo Do\t\t\t2026-03-18 08:00:00\t\tWrite docs",
			want: jira.Ticket{
				Key:       "AMP-13",
				Status:    jira.StatusToDo,
				UpdatedAt: time.Date(2026, 3, 18, 8, 0, 0, 0, time.UTC),
				Summary:   "Write docs",
			},
			ok: true,
		},
		{
			name: "tab-padded summary is rejoined",
			line: "AMP-14\tBlocked\tBruno\t2026-03-18 08:00:00\tPart one\t\tpart two",
			want: jira.Ticket{
				Key:       "AMP-14",
				Status:    jira.StatusBlocked,
				Assignee:  jira.TeamMember{Name: "Bruno"},
				UpdatedAt: time.Date(2026, 3, 18, 8, 0, 0, 0, time.UTC),
				Summary:   "Part one part two",
			},
			ok: true,
		},
		{
			name: "custom status",
			line: "AMP-15\tWaiting on Vendor\tChen\t2026-03-18 08:00:00\tShip it",
			want: jira.Ticket{
				Key:       "AMP-15",
				Status:    jira.OtherStatus("Waiting on Vendor"),
				Assignee:  jira.TeamMember{Name: "Chen"},
				UpdatedAt: time.Date(2026, 3, 18, 8, 0, 0, 0, time.UTC),
				Summary:   "Ship it",
			},
			ok: true,
		},
		{name: "blank", line: "   ", ok: false},
		{name: "not a key", line: "No issues found", ok: false},
		{name: "lowercase key", line: "amp-1\tTo Do", ok: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := parseTicketLine(test.line)
			if ok != test.ok {
				t.Fatalf("ok = %v, want %v", ok, test.ok)
			}
			if !ok {
				return
			}
			if got.Key != test.want.Key || got.Status != test.want.Status ||
				got.Assignee != test.want.Assignee || got.Summary != test.want.Summary ||
				!got.UpdatedAt.Equal(test.want.UpdatedAt) {
				t.Errorf("parseTicketLine = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestFetchByQuery(t *testing.T) {
	runner := newScriptedRunner()
	runner.on("AMP-1\tTo Do\tAlice\t2026-03-19 10:00:00\tFirst\nAMP-2\tDone\tBruno\t2026-03-19 11:00:00\tSecond\n",
		"issue", "list", "--jql", "status = Done", "--project", "AMP", "--paginate", "0:50",
		"--plain", "--no-headers", "--columns", listColumns)

	tickets, err := newTestClient(runner).FetchByQuery(context.Background(), jira.Query{JQL: "status = Done", Limit: 50})
	if err != nil {
		t.Fatalf("FetchByQuery: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("got %d tickets, want 2", len(tickets))
	}
	if tickets[1].URL != "https://jira.example.com/browse/AMP-2" {
		t.Errorf("URL = %q", tickets[1].URL)
	}
}

func TestFetchByQueryWrapsFailure(t *testing.T) {
	runner := newScriptedRunner()
	cause := errors.New("exit status 1")
	runner.fail(cause, "issue", "list", "--jql", "bad", "--project", "AMP",
		"--plain", "--no-headers", "--columns", listColumns)

	_, err := newTestClient(runner).FetchByQuery(context.Background(), jira.Query{JQL: "bad"})
	var fetchErr *jira.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Operation != "query" {
		t.Fatalf("error = %v, want a query FetchError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("FetchError does not wrap the runner error")
	}
}

func scriptEpics(runner *scriptedRunner) {
	runner.on("AMP-100\tIn Progress\tSearch revamp\nAMP-200\tTo Do\tBilling\n",
		"issue", "list", "--type", "Epic", "--project", "AMP",
		"--plain", "--no-headers", "--columns", "key,status,summary")
	runner.on("AMP-3\tDone\tAlice\t2026-03-01 10:00:00\tIndex\nAMP-1\tTo Do\t\t2026-03-02 10:00:00\tQuery\n",
		"issue", "list", "--jql", "parent = AMP-100",
		"--plain", "--no-headers", "--columns", listColumns)
}

func TestFetchEpics(t *testing.T) {
	runner := newScriptedRunner()
	scriptEpics(runner)
	runner.on("", "issue", "list", "--jql", "parent = AMP-200",
		"--plain", "--no-headers", "--columns", listColumns)

	trees, err := newTestClient(runner).FetchEpics(context.Background(), "AMP")
	if err != nil {
		t.Fatalf("FetchEpics: %v", err)
	}
	if len(trees) != 2 {
		t.Fatalf("got %d epics, want 2", len(trees))
	}
	search := trees[0]
	if search.Epic.Key != "AMP-100" || search.Epic.Title != "Search revamp" || search.Epic.Status != jira.StatusInProgress {
		t.Errorf("epic = %+v", search.Epic)
	}
	if !slices.Equal(search.Epic.ChildKeys, []string{"AMP-1", "AMP-3"}) {
		t.Errorf("ChildKeys = %v, want [AMP-1 AMP-3]", search.Epic.ChildKeys)
	}
	for _, child := range search.Children {
		if child.EpicKey != "AMP-100" {
			t.Errorf("child %s EpicKey = %q", child.Key, child.EpicKey)
		}
	}
	if len(trees[1].Children) != 0 || len(trees[1].Epic.ChildKeys) != 0 {
		t.Errorf("empty epic has children: %+v", trees[1])
	}
}

func TestFetchEpicsFailsOnChildFailure(t *testing.T) {
	runner := newScriptedRunner()
	scriptEpics(runner)
	runner.fail(errors.New("timeout"), "issue", "list", "--jql", "parent = AMP-200",
		"--plain", "--no-headers", "--columns", listColumns)

	_, err := newTestClient(runner).FetchEpics(context.Background(), "")
	var fetchErr *jira.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Operation != "epics" || fetchErr.Target != "AMP" {
		t.Fatalf("error = %v, want an epics FetchError for AMP", err)
	}
}

func TestCurrentUser(t *testing.T) {
	runner := newScriptedRunner()
	runner.on("alice@example.com\n", "me")
	member, err := newTestClient(runner).CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if member.Email != "alice@example.com" {
		t.Errorf("email = %q", member.Email)
	}

	empty := newScriptedRunner()
	empty.on("\n", "me")
	if _, err := newTestClient(empty).CurrentUser(context.Background()); err == nil {
		t.Error("CurrentUser accepted an empty response")
	}
}
