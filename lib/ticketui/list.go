// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketcache"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// Column widths for ticket rows.
const (
	markColumnWidth   = 2
	keyColumnWidth    = 10
	statusColumnWidth = 13
	progressBarWidth  = 10
)

// rowState is the per-row information that lives outside the ticket.
type rowState struct {
	Selected bool
	Marked   bool
	Mutation ticketsync.MutationState
}

// ListRenderer draws list rows at a fixed width.
type ListRenderer struct {
	theme Theme
	width int
}

// NewListRenderer returns a renderer for rows of the given width.
func NewListRenderer(theme Theme, width int) ListRenderer {
	return ListRenderer{theme: theme, width: width}
}

// RenderItem draws one header or ticket row.
func (renderer ListRenderer) RenderItem(item ListItem, state rowState) string {
	var row string
	if item.IsHeader() {
		row = renderer.header(item)
	} else {
		row = renderer.ticket(item, state)
	}
	style := lipgloss.NewStyle().Width(renderer.width).MaxWidth(renderer.width)
	if state.Selected {
		style = style.Background(renderer.theme.SelectedBackground)
	}
	return style.Render(ansi.Truncate(row, renderer.width, "…"))
}

func (renderer ListRenderer) header(item ListItem) string {
	color := renderer.theme.HeaderForeground
	if !item.HeaderStatus.IsZero() && item.Progress == nil {
		color = renderer.theme.StatusColor(item.HeaderStatus)
	}
	name := item.Header
	if item.Collapsed {
		name = "▸ " + name
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(name)
	faint := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)

	if item.Progress != nil {
		return title + " " + progressBar(*item.Progress, progressBarWidth, renderer.theme) +
			faint.Render(fmt.Sprintf(" %d/%d", item.Progress.Done, item.Progress.Total))
	}

	suffix := ""
	if item.Count > 0 {
		suffix = fmt.Sprintf(" (%d)", item.Count)
	}
	if item.DoneCount > 0 {
		suffix += fmt.Sprintf(" · %d done", item.DoneCount)
	}
	if item.Hidden > 0 {
		suffix += fmt.Sprintf(" · %d older hidden", item.Hidden)
	}
	return title + faint.Render(suffix)
}

func (renderer ListRenderer) ticket(item ListItem, state rowState) string {
	theme := renderer.theme
	ticket := item.Ticket

	mark := "  "
	if state.Marked {
		mark = lipgloss.NewStyle().Foreground(theme.MarkedForeground).Render("● ")
	}

	key := ticket.Key
	keyStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
	if item.Provisional {
		key = "new"
		keyStyle = keyStyle.Foreground(theme.PendingForeground).Italic(true)
	}
	switch state.Mutation {
	case ticketsync.MutationPending:
		keyStyle = keyStyle.Foreground(theme.PendingForeground)
		key += "…"
	case ticketsync.MutationRolledBack:
		keyStyle = keyStyle.Foreground(theme.RolledBackForeground)
		key += "!"
	}

	status := lipgloss.NewStyle().
		Foreground(theme.StatusColor(ticket.Status)).
		Render(padRight(ansi.Truncate(ticket.Status.String(), statusColumnWidth-1, "…"), statusColumnWidth))

	summaryWidth := renderer.width - markColumnWidth - keyColumnWidth - statusColumnWidth
	summary := highlightRunes(ansi.Truncate(ticket.Summary, max(summaryWidth, 0), "…"), item.Highlights, theme)

	return mark + keyStyle.Render(padRight(key, keyColumnWidth)) + status + summary
}

// highlightRunes styles the runes at positions with the match color.
func highlightRunes(text string, positions []int, theme Theme) string {
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	if len(positions) == 0 {
		return normal.Render(text)
	}
	match := lipgloss.NewStyle().Foreground(theme.MatchForeground).Bold(true)

	var builder strings.Builder
	for index, character := range []rune(text) {
		if _, found := slices.BinarySearch(positions, index); found {
			builder.WriteString(match.Render(string(character)))
		} else {
			builder.WriteString(normal.Render(string(character)))
		}
	}
	return builder.String()
}

// progressBar renders a fixed-width bar for an epic's done fraction.
func progressBar(progress ticketcache.Progress, width int, theme Theme) string {
	filled := int(progress.Fraction() * float64(width))
	if progress.Total > 0 && progress.Done == progress.Total {
		filled = width
	}
	return lipgloss.NewStyle().Foreground(theme.ProgressFilled).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.ProgressEmpty).Render(strings.Repeat("░", width-filled))
}

// padRight pads text with spaces to a visible width.
func padRight(text string, width int) string {
	if gap := width - ansi.StringWidth(text); gap > 0 {
		return text + strings.Repeat(" ", gap)
	}
	return text
}

// statusIcon returns a one-character marker for a status class.
func statusIcon(class jira.StatusClass) string {
	switch class {
	case jira.ClassDone:
		return "✓"
	case jira.ClassActive:
		return "●"
	default:
		return "?"
	}
}
