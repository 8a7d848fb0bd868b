// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// detailState is what the detail pane needs beyond the ticket itself.
type detailState struct {
	Class       jira.StatusClass
	Mutation    ticketsync.MutationState
	Hydrating   bool
	Provisional bool
	Now         time.Time

	// Spinner is the current spinner frame for loading indicators.
	Spinner string
}

// renderDetail renders a ticket's full detail at width.
func renderDetail(ticket jira.Ticket, state detailState, theme Theme, width int) string {
	width = max(width, 20)
	bold := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	label := func(name string) string { return faint.Render(name + " ") }

	var lines []string
	key := ticket.Key
	if state.Provisional {
		key = "(creating)"
	}
	lines = append(lines, ansi.Wrap(bold.Render(key+"  "+ticket.Summary), width, wrapBreakpoints))

	status := lipgloss.NewStyle().Foreground(theme.StatusColor(ticket.Status)).
		Render(statusIcon(state.Class) + " " + ticket.Status.String())
	fields := label("Status") + status
	if ticket.Type != "" {
		fields += "   " + label("Type") + ticket.Type
	}
	lines = append(lines, fields)

	assignee := "unassigned"
	if ticket.IsAssigned() {
		assignee = ticket.Assignee.String()
	}
	people := label("Assignee") + assignee
	if ticket.Reporter != "" {
		people += "   " + label("Reporter") + ticket.Reporter
	}
	lines = append(lines, people)

	if ticket.EpicKey != "" {
		lines = append(lines, label("Epic")+ticket.EpicKey)
	}
	if len(ticket.Labels) > 0 {
		lines = append(lines, label("Labels")+strings.Join(ticket.Labels, ", "))
	}
	if !ticket.UpdatedAt.IsZero() {
		lines = append(lines, label("Updated")+formatAge(state.Now.Sub(ticket.UpdatedAt)))
	}
	if ticket.URL != "" {
		lines = append(lines, faint.Render(ticket.URL))
	}

	switch state.Mutation {
	case ticketsync.MutationPending:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.PendingForeground).
			Render(state.Spinner+" saving change"))
	case ticketsync.MutationRolledBack:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.RolledBackForeground).
			Render("last change failed and was reverted"))
	}

	lines = append(lines, "", sectionRule("Description", width, theme))
	switch {
	case ticket.Description != "":
		lines = append(lines, renderDescription(ticket.Description, theme, width))
	case !ticket.Hydrated && state.Hydrating:
		lines = append(lines, faint.Render(state.Spinner+" loading details"))
	case !ticket.Hydrated:
		lines = append(lines, faint.Render("details not loaded yet"))
	default:
		lines = append(lines, faint.Render("no description"))
	}

	if len(ticket.Activity) > 0 {
		lines = append(lines, "", sectionRule("Activity", width, theme))
		for _, entry := range ticket.Activity {
			lines = append(lines, renderActivity(entry, state.Now, theme, width)...)
		}
	}
	return strings.Join(lines, "\n")
}

func renderActivity(entry jira.ActivityEntry, now time.Time, theme Theme, width int) []string {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	author := entry.Author
	if author == "" {
		author = "someone"
	}

	var action string
	switch entry.Kind {
	case jira.ActivityStatusChange:
		action = fmt.Sprintf("moved %s → %s", orNone(entry.From), orNone(entry.To))
	case jira.ActivityAssigneeChange:
		action = fmt.Sprintf("reassigned %s → %s", orNone(entry.From), orNone(entry.To))
	case jira.ActivityFieldChange:
		action = fmt.Sprintf("changed %s", entry.Field)
	case jira.ActivityComment:
		action = "commented"
	default:
		action = string(entry.Kind)
	}

	header := faint.Render(padRight(formatAge(now.Sub(entry.Timestamp)), 10)) +
		lipgloss.NewStyle().Foreground(theme.NormalText).Bold(true).Render(author) + " " + action
	lines := []string{ansi.Truncate(header, width, "…")}
	if entry.Kind == jira.ActivityComment && entry.Body != "" {
		body := ansi.Wrap(entry.Body, width-4, wrapBreakpoints)
		for _, line := range strings.Split(body, "\n") {
			lines = append(lines, "    "+line)
		}
	}
	return lines
}

func sectionRule(title string, width int, theme Theme) string {
	rule := lipgloss.NewStyle().Foreground(theme.BorderColor)
	heading := lipgloss.NewStyle().Foreground(theme.HeaderForeground).Bold(true).Render(title)
	fill := max(width-ansi.StringWidth(title)-4, 1)
	return rule.Render("── ") + heading + " " + rule.Render(strings.Repeat("─", fill))
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}

// formatAge renders a duration as a short relative age.
func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
