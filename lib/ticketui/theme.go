// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// Theme defines the color palette for the viewer. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Rows marked for a bulk operation.
	MarkedForeground lipgloss.Color

	// Status colors.
	StatusTriage     lipgloss.Color
	StatusTodo       lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusReview     lipgloss.Color
	StatusBlocked    lipgloss.Color
	StatusDone       lipgloss.Color

	// Mutation states.
	PendingForeground    lipgloss.Color
	RolledBackForeground lipgloss.Color

	// Notice levels in the status bar.
	InfoForeground  lipgloss.Color
	WarnForeground  lipgloss.Color
	ErrorForeground lipgloss.Color

	// Epic progress bar.
	ProgressFilled lipgloss.Color
	ProgressEmpty  lipgloss.Color

	// Fuzzy filter match highlighting.
	MatchForeground lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

// StatusColor returns the color for a workflow status. Unrecognized
// statuses use FaintText.
func (theme Theme) StatusColor(status jira.Status) lipgloss.Color {
	switch status.Kind() {
	case jira.KindNeedsTriage:
		return theme.StatusTriage
	case jira.KindReadyForWork, jira.KindToDo:
		return theme.StatusTodo
	case jira.KindInProgress:
		return theme.StatusInProgress
	case jira.KindInReview:
		return theme.StatusReview
	case jira.KindBlocked:
		return theme.StatusBlocked
	case jira.KindDone:
		return theme.StatusDone
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	MarkedForeground: lipgloss.Color("213"), // pink

	StatusTriage:     lipgloss.Color("208"), // orange
	StatusTodo:       lipgloss.Color("114"), // green
	StatusInProgress: lipgloss.Color("220"), // yellow/amber
	StatusReview:     lipgloss.Color("141"), // light purple
	StatusBlocked:    lipgloss.Color("196"), // red
	StatusDone:       lipgloss.Color("245"), // gray

	PendingForeground:    lipgloss.Color("75"),  // blue
	RolledBackForeground: lipgloss.Color("196"), // red

	InfoForeground:  lipgloss.Color("252"),
	WarnForeground:  lipgloss.Color("220"),
	ErrorForeground: lipgloss.Color("196"),

	ProgressFilled: lipgloss.Color("114"),
	ProgressEmpty:  lipgloss.Color("238"),

	MatchForeground: lipgloss.Color("214"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}
