// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// FilterModel narrows the current view client-side. The summary is
// fuzzy-matched; key, labels, assignee, type, status, and epic key are
// matched by case-insensitive substring. The view chooses the base set
// and the filter narrows it without refetching.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true while the filter input has keyboard focus.
	Active bool

	slab *util.Slab
}

// Match reports whether ticket passes the filter. When the summary
// matched fuzzily the result carries the matched rune positions for
// highlighting. An empty filter matches everything.
func (filter *FilterModel) Match(ticket jira.Ticket) (FuzzyResult, bool) {
	if filter.Input == "" {
		return FuzzyResult{}, true
	}
	if filter.slab == nil {
		filter.slab = util.MakeSlab(100*1024, 2048)
	}

	if result := fuzzyMatch(ticket.Summary, []rune(filter.Input), filter.slab); result.Score > 0 {
		return result, true
	}

	query := strings.ToLower(filter.Input)
	fields := []string{
		ticket.Key,
		ticket.Type,
		ticket.Status.String(),
		ticket.EpicKey,
		ticket.Assignee.Name,
		ticket.Assignee.Email,
	}
	fields = append(fields, ticket.Labels...)
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return FuzzyResult{}, true
		}
	}
	return FuzzyResult{}, false
}

// HandleRune appends a typed character.
func (filter *FilterModel) HandleRune(character rune) {
	filter.Input += string(character)
}

// HandleBackspace removes the last character. Returns true if the
// input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if filter.Input == "" {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar: the input with a cursor while active,
// a dim indicator while inactive with text, and nothing otherwise.
func (filter *FilterModel) View(theme Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}
	if filter.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return lipgloss.NewStyle().
			Foreground(theme.NormalText).
			Width(width).
			Render(" / " + filter.Input + cursor)
	}
	return lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width).
		Render(" filter: " + filter.Input)
}
