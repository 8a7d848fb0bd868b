// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// activeQuery selects the active work of the current user and the
// team.
func (engine *Engine) activeQuery() jira.Query {
	clauses := []string{
		"project = " + quoteJQL(engine.config.Project),
		engine.assigneeClause(),
		"status in (" + quoteList(engine.config.Statuses.ActiveNames()) + ")",
	}
	return jira.Query{
		JQL:   strings.Join(clauses, " AND ") + " ORDER BY updated DESC",
		Limit: engine.config.QueryLimit,
	}
}

// doneWindowQuery selects the same people's tickets that reached a
// done status within the window.
func (engine *Engine) doneWindowQuery() jira.Query {
	clauses := []string{
		"project = " + quoteJQL(engine.config.Project),
		engine.assigneeClause(),
		"status in (" + quoteList(engine.config.Statuses.DoneNames()) + ")",
		fmt.Sprintf("updated >= -%dd", windowDays(engine.config.DoneWindow)),
	}
	return jira.Query{
		JQL:   strings.Join(clauses, " AND ") + " ORDER BY updated DESC",
		Limit: engine.config.QueryLimit,
	}
}

// assigneeClause covers currentUser() plus every roster email. Jira
// resolves currentUser() itself, so the query works before the
// current user's identity is known locally.
func (engine *Engine) assigneeClause() string {
	assignees := []string{"currentUser()"}
	for _, member := range engine.rosterMembers() {
		if member.Email != "" {
			assignees = append(assignees, quoteJQL(member.Email))
		}
	}
	return "assignee in (" + strings.Join(assignees, ", ") + ")"
}

// windowDays rounds the window up to whole days, at least one.
func windowDays(window time.Duration) int {
	days := int((window + 24*time.Hour - 1) / (24 * time.Hour))
	return max(days, 1)
}

func quoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, quoteJQL(value))
	}
	return strings.Join(quoted, ", ")
}

// quoteJQL returns value as a double-quoted JQL string literal.
func quoteJQL(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return `"` + escaped + `"`
}
