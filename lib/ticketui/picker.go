// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// pickerAction is what a picker selection does.
type pickerAction int

const (
	pickMoveStatus pickerAction = iota
	pickResolution
	pickAssignee
)

// pickerOption is a single selectable item.
type pickerOption struct {
	Label string

	Status     jira.Status
	Member     jira.TeamMember
	Resolution string
}

// picker is a menu shown in the detail pane for choosing a status,
// resolution, or assignee. Typing narrows the options by fuzzy match.
type picker struct {
	Title   string
	Action  pickerAction
	Keys    []string
	Options []pickerOption

	// Status carries the chosen status into the resolution step.
	Status jira.Status

	Query  string
	Cursor int
}

// visible returns the options matching the query, in original order.
func (menu *picker) visible() []pickerOption {
	if menu.Query == "" {
		return menu.Options
	}
	var matched []pickerOption
	for _, option := range menu.Options {
		if fuzzyMatch(option.Label, []rune(menu.Query), nil).Score > 0 {
			matched = append(matched, option)
		}
	}
	return matched
}

// MoveUp moves the cursor up by one, wrapping to the bottom.
func (menu *picker) MoveUp() {
	count := len(menu.visible())
	if count == 0 {
		return
	}
	menu.Cursor = (menu.Cursor - 1 + count) % count
}

// MoveDown moves the cursor down by one, wrapping to the top.
func (menu *picker) MoveDown() {
	count := len(menu.visible())
	if count == 0 {
		return
	}
	menu.Cursor = (menu.Cursor + 1) % count
}

// Type appends a rune to the query and resets the cursor.
func (menu *picker) Type(character rune) {
	menu.Query += string(character)
	menu.Cursor = 0
}

// Backspace removes the last rune of the query.
func (menu *picker) Backspace() {
	if menu.Query == "" {
		return
	}
	runes := []rune(menu.Query)
	menu.Query = string(runes[:len(runes)-1])
	menu.Cursor = 0
}

// Selected returns the highlighted option. False when nothing matches.
func (menu *picker) Selected() (pickerOption, bool) {
	options := menu.visible()
	if menu.Cursor < 0 || menu.Cursor >= len(options) {
		return pickerOption{}, false
	}
	return options[menu.Cursor], true
}

// View renders the picker at the given width.
func (menu *picker) View(theme Theme, width int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	selected := lipgloss.NewStyle().
		Background(theme.SelectedBackground).
		Foreground(theme.SelectedForeground).
		Width(width)

	lines := []string{titleStyle.Render(menu.Title)}
	if len(menu.Keys) > 1 {
		lines = append(lines, faint.Render(ansi.Truncate(strings.Join(menu.Keys, " "), width, "…")))
	}
	if menu.Query != "" {
		lines = append(lines, faint.Render("> "+menu.Query))
	}
	lines = append(lines, "")

	options := menu.visible()
	if len(options) == 0 {
		lines = append(lines, faint.Render("  no match"))
	}
	for index, option := range options {
		label := ansi.Truncate(option.Label, width-2, "…")
		if !option.Status.IsZero() {
			label = lipgloss.NewStyle().Foreground(theme.StatusColor(option.Status)).Render(label)
		}
		if index == menu.Cursor {
			lines = append(lines, selected.Render("> "+ansi.Strip(label)))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	lines = append(lines, "", faint.Render("Enter select  Esc cancel  type to narrow"))
	return strings.Join(lines, "\n")
}

// statusOptions lists every configured status, active then done,
// once each. Aliases such as Closed collapse into their status.
func statusOptions(statuses jira.StatusSet, current jira.Status) []pickerOption {
	var options []pickerOption
	seen := map[jira.Status]bool{current: true}
	for _, name := range slices.Concat(statuses.ActiveNames(), statuses.DoneNames()) {
		status := jira.ParseStatus(name)
		if seen[status] {
			continue
		}
		seen[status] = true
		options = append(options, pickerOption{Label: status.String(), Status: status})
	}
	return options
}

// resolutionOptions offers each configured resolution plus none.
func resolutionOptions(resolutions []string) []pickerOption {
	options := []pickerOption{{Label: "(no resolution)"}}
	for _, resolution := range resolutions {
		options = append(options, pickerOption{Label: resolution, Resolution: resolution})
	}
	return options
}

// assigneeOptions offers the current user first, then the roster in
// the cache's order, then unassign.
func assigneeOptions(me jira.TeamMember, members []jira.TeamMember) []pickerOption {
	var options []pickerOption
	if !me.IsZero() {
		options = append(options, pickerOption{Label: me.String() + " (me)", Member: me})
	}
	for _, member := range members {
		if member.Same(me) {
			continue
		}
		options = append(options, pickerOption{Label: member.String(), Member: member})
	}
	return append(options, pickerOption{Label: "Unassigned"})
}
