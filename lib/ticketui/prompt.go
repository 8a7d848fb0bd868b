// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// promptAction is what a submitted prompt does.
type promptAction int

const (
	promptComment promptAction = iota
	promptEdit
	promptCreate
)

// prompt is a single-line text input shown in the detail pane.
type prompt struct {
	Action promptAction
	Title  string

	// Key is the ticket commented on or edited. EpicKey is the epic a
	// created ticket is filed under.
	Key     string
	EpicKey string

	Input textinput.Model
}

func newPrompt(action promptAction, title, value string, width int) *prompt {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = placeholderFor(action)
	input.SetValue(value)
	input.CursorEnd()
	input.Width = max(width-4, 10)
	input.Focus()
	return &prompt{Action: action, Title: title, Input: input}
}

func placeholderFor(action promptAction) string {
	switch action {
	case promptComment:
		return "comment text"
	case promptEdit:
		return "new summary"
	default:
		return "summary of the new ticket"
	}
}

// Value returns the trimmed input.
func (input *prompt) Value() string {
	return strings.TrimSpace(input.Input.Value())
}

// View renders the prompt at width.
func (input *prompt) View(theme Theme, width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).
		Render(ansi.Truncate(input.Title, width, "…"))
	hint := lipgloss.NewStyle().Foreground(theme.FaintText).Render("Enter submit  Esc cancel")
	return strings.Join([]string{title, "", input.Input.View(), "", hint}, "\n")
}
