// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

const (
	fieldName = iota
	fieldJQL
	fieldCount
)

// filterForm edits the name and JQL of a saved filter in the detail
// pane. Tab moves between the two fields.
type filterForm struct {
	Title string

	// Original is the name of the filter being edited; empty when
	// adding one.
	Original string

	fields  [fieldCount]textinput.Model
	focused int
}

func newFilterForm(title string, filter jira.SavedFilter, original string, width int) *filterForm {
	form := &filterForm{Title: title, Original: original}
	for index, value := range [fieldCount]string{filter.Name, filter.JQL} {
		input := textinput.New()
		input.Prompt = "> "
		input.SetValue(value)
		input.CursorEnd()
		input.Width = max(width-4, 10)
		form.fields[index] = input
	}
	form.fields[fieldName].Placeholder = "filter name"
	form.fields[fieldJQL].Placeholder = "project = AMP AND labels = flaky"
	form.fields[fieldName].Focus()
	return form
}

// Next moves focus to the other field.
func (form *filterForm) Next() {
	form.fields[form.focused].Blur()
	form.focused = (form.focused + 1) % fieldCount
	form.fields[form.focused].Focus()
}

// Update sends a key to the focused field.
func (form *filterForm) Update(message tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	form.fields[form.focused], cmd = form.fields[form.focused].Update(message)
	return cmd
}

// Filter returns the trimmed form contents.
func (form *filterForm) Filter() jira.SavedFilter {
	return jira.SavedFilter{
		Name: strings.TrimSpace(form.fields[fieldName].Value()),
		JQL:  strings.TrimSpace(form.fields[fieldJQL].Value()),
	}
}

// View renders the form at width.
func (form *filterForm) View(theme Theme, width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).
		Render(ansi.Truncate(form.Title, width, "…"))
	label := lipgloss.NewStyle().Foreground(theme.FaintText)
	hint := label.Render("Tab next field  Enter save  Esc cancel")
	return strings.Join([]string{
		title, "",
		label.Render("Name"), form.fields[fieldName].View(), "",
		label.Render("JQL"), form.fields[fieldJQL].View(), "",
		hint,
	}, "\n")
}
