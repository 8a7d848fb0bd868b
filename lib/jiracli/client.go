// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jiracli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// listColumns is the column set requested from "jira issue list".
// Summary goes last: the CLI pads columns with tabs, and a summary
// containing tabs would otherwise shift every column after it.
const listColumns = "key,status,assignee,updated,summary"

// defaultEpicConcurrency bounds parallel epic child queries.
const defaultEpicConcurrency = 4

// Options configures a Client.
type Options struct {
	// Project is the Jira project key used for epic discovery, ticket
	// creation, and as the context for JQL queries.
	Project string

	// Server is the Jira base URL ("https://jira.example.com"). When
	// set, tickets and mutation outcomes carry browse URLs.
	Server string

	// EpicConcurrency bounds concurrent epic child queries. Zero
	// means 4.
	EpicConcurrency int

	Logger *slog.Logger
}

// Client reads and writes Jira through the jira CLI.
type Client struct {
	runner          Runner
	project         string
	server          string
	epicConcurrency int
	logger          *slog.Logger
}

// New returns a Client that executes the CLI through runner.
func New(runner Runner, options Options) *Client {
	if options.EpicConcurrency <= 0 {
		options.EpicConcurrency = defaultEpicConcurrency
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		runner:          runner,
		project:         options.Project,
		server:          strings.TrimRight(options.Server, "/"),
		epicConcurrency: options.EpicConcurrency,
		logger:          options.Logger,
	}
}

// BrowseURL returns the web URL of a ticket, or "" when no server is
// configured.
func (client *Client) BrowseURL(key string) string {
	if client.server == "" || key == "" {
		return ""
	}
	return client.server + "/browse/" + key
}

// FetchByQuery runs a JQL search and returns the matching tickets in
// summary form.
func (client *Client) FetchByQuery(ctx context.Context, query jira.Query) ([]jira.Ticket, error) {
	args := []string{"issue", "list", "--jql", query.JQL}
	if client.project != "" {
		args = append(args, "--project", client.project)
	}
	if query.Limit > 0 {
		args = append(args, "--paginate", "0:"+strconv.Itoa(query.Limit))
	}
	args = append(args, "--plain", "--no-headers", "--columns", listColumns)

	output, err := client.runner.Run(ctx, args...)
	if err != nil {
		return nil, &jira.FetchError{Operation: "query", Target: query.JQL, Err: err}
	}
	tickets := client.parseTicketList(output)
	client.logger.Debug("query fetched", "jql", query.JQL, "tickets", len(tickets))
	return tickets, nil
}

// FetchEpics lists the project's epics and fetches each epic's
// children, at most EpicConcurrency queries at a time. Any failed
// child query fails the whole fetch, so a partial epic never replaces
// a complete one in the cache.
func (client *Client) FetchEpics(ctx context.Context, project string) ([]jira.EpicTree, error) {
	if project == "" {
		project = client.project
	}
	fail := func(err error) error {
		return &jira.FetchError{Operation: "epics", Target: project, Err: err}
	}

	output, err := client.runner.Run(ctx,
		"issue", "list",
		"--type", "Epic",
		"--project", project,
		"--plain", "--no-headers",
		"--columns", "key,status,summary",
	)
	if err != nil {
		return nil, fail(err)
	}

	var trees []jira.EpicTree
	for _, line := range strings.Split(output, "\n") {
		fields := splitFields(line)
		if len(fields) < 2 || !validKey(fields[0]) {
			continue
		}
		trees = append(trees, jira.EpicTree{Epic: jira.Epic{
			Key:    fields[0],
			Status: jira.ParseStatus(fields[1]),
			Title:  strings.Join(fields[2:], " "),
		}})
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(client.epicConcurrency)
	for index := range trees {
		tree := &trees[index]
		group.Go(func() error {
			output, err := client.runner.Run(groupCtx,
				"issue", "list",
				"--jql", "parent = "+tree.Epic.Key,
				"--plain", "--no-headers",
				"--columns", listColumns,
			)
			if err != nil {
				return fmt.Errorf("children of %s: %w", tree.Epic.Key, err)
			}
			tree.Children = client.parseTicketList(output)
			keys := make([]string, 0, len(tree.Children))
			for childIndex := range tree.Children {
				tree.Children[childIndex].EpicKey = tree.Epic.Key
				keys = append(keys, tree.Children[childIndex].Key)
			}
			tree.Epic.ChildKeys = jira.NormalizeKeys(keys)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fail(err)
	}

	client.logger.Debug("epics fetched", "project", project, "epics", len(trees))
	return trees, nil
}

// CurrentUser resolves the authenticated user through "jira me",
// which prints the account's email address.
func (client *Client) CurrentUser(ctx context.Context) (jira.TeamMember, error) {
	output, err := client.runner.Run(ctx, "me")
	if err != nil {
		return jira.TeamMember{}, &jira.FetchError{Operation: "me", Target: "current user", Err: err}
	}
	email := strings.TrimSpace(output)
	if email == "" {
		return jira.TeamMember{}, &jira.FetchError{Operation: "me", Target: "current user", Err: errors.New("empty response")}
	}
	return jira.TeamMember{Email: email}, nil
}

// parseTicketList parses "--plain --no-headers" output in listColumns
// order. Lines that do not start with a ticket key are skipped.
func (client *Client) parseTicketList(output string) []jira.Ticket {
	var tickets []jira.Ticket
	for _, line := range strings.Split(output, "\n") {
		ticket, ok := parseTicketLine(line)
		if !ok {
			continue
		}
		ticket.URL = client.BrowseURL(ticket.Key)
		tickets = append(tickets, ticket)
	}
	return tickets
}

// parseTicketLine parses one key, status, assignee, updated, summary
// row. Padding makes an empty assignee column vanish when empty
// fields are dropped, so the updated timestamp anchors the layout: it
// sits at index 2 for unassigned tickets and index 3 otherwise.
func parseTicketLine(line string) (jira.Ticket, bool) {
	fields := splitFields(line)
	if len(fields) < 2 || !validKey(fields[0]) {
		return jira.Ticket{}, false
	}
	ticket := jira.Ticket{
		Key:    fields[0],
		Status: jira.ParseStatus(fields[1]),
	}

	rest := fields[2:]
	switch {
	case len(rest) >= 1 && isTimestamp(rest[0]):
		ticket.UpdatedAt, _ = parseTimestamp(rest[0])
		rest = rest[1:]
	case len(rest) >= 2 && isTimestamp(rest[1]):
		ticket.Assignee = jira.TeamMember{Name: rest[0]}
		ticket.UpdatedAt, _ = parseTimestamp(rest[1])
		rest = rest[2:]
	case len(rest) >= 1:
		// No recognizable timestamp: treat the third column as the
		// assignee and the rest as summary.
		ticket.Assignee = jira.TeamMember{Name: rest[0]}
		rest = rest[1:]
	}
	ticket.Summary = strings.Join(rest, " ")
	return ticket, true
}

func splitFields(line string) []string {
	var fields []string
	for _, field := range strings.Split(line, "\t") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

var keyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9_]+-\d+\b`)

func validKey(s string) bool {
	match := keyPattern.FindString(s)
	return match != "" && match == s
}

// timestampLayouts covers the CLI's table format and the REST API's
// JSON format.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func isTimestamp(s string) bool {
	_, err := parseTimestamp(s)
	return err == nil
}
