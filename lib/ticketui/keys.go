// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the ticket viewer.
type KeyMap struct {
	// Navigation (list movement or detail scrolling depending on
	// focus).
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Focus switching between the list and the detail pane.
	FocusToggle key.Binding

	// View switching.
	ViewMyWork     key.Binding
	ViewTeam       key.Binding
	ViewEpics      key.Binding
	ViewUnassigned key.Binding
	ViewFilters    key.Binding

	// Refresh starts a refresh cycle. On the Filters view it also
	// reruns the selected filter.
	Refresh key.Binding

	// Mutations.
	Move    key.Binding
	Assign  key.Binding
	Comment key.Binding
	Edit    key.Binding
	Create  key.Binding
	Mark    key.Binding // Toggle the row for a bulk move or assign.

	// BulkUpload files tickets from a CSV.
	BulkUpload key.Binding

	// Saved filters, on the Filters view only. New and edit share
	// keys with Create and Edit.
	FilterNew    key.Binding
	FilterEdit   key.Binding
	FilterDelete key.Binding

	// Group collapsing.
	Collapse    key.Binding
	CollapseAll key.Binding

	// Filter.
	FilterActivate key.Binding
	FilterClear    key.Binding // Also dismisses prompts and pickers.

	Confirm key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (j/k) alongside standard arrow keys and page up/down.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	FocusToggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "switch pane"),
	),
	ViewMyWork: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "my work"),
	),
	ViewTeam: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "team"),
	),
	ViewEpics: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "epics"),
	),
	ViewUnassigned: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "unassigned"),
	),
	ViewFilters: key.NewBinding(
		key.WithKeys("5"),
		key.WithHelp("5", "filters"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Move: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "move"),
	),
	Assign: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "assign"),
	),
	Comment: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "comment"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit title"),
	),
	Create: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Mark: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("Space", "mark"),
	),
	BulkUpload: key.NewBinding(
		key.WithKeys("U"),
		key.WithHelp("U", "bulk upload"),
	),
	FilterNew: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new filter"),
	),
	FilterEdit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit filter"),
	),
	FilterDelete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete filter"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "fold group"),
	),
	CollapseAll: key.NewBinding(
		key.WithKeys("Z"),
		key.WithHelp("Z", "fold all"),
	),
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "confirm"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns the bindings listed in the status bar help line.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		keys.ViewMyWork, keys.ViewTeam, keys.ViewEpics, keys.ViewUnassigned, keys.ViewFilters,
		keys.Move, keys.Assign, keys.Comment, keys.Create, keys.Mark,
		keys.Refresh, keys.FilterActivate, keys.Help, keys.Quit,
	}
}

// FullHelp returns the columns of the ? overlay.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.PageUp, keys.PageDown, keys.Home, keys.End, keys.FocusToggle, keys.Confirm},
		{keys.ViewMyWork, keys.ViewTeam, keys.ViewEpics, keys.ViewUnassigned, keys.ViewFilters, keys.Refresh},
		{keys.Move, keys.Assign, keys.Comment, keys.Edit, keys.Create, keys.Mark, keys.BulkUpload},
		{keys.FilterNew, keys.FilterEdit, keys.FilterDelete},
		{keys.FilterActivate, keys.FilterClear, keys.Collapse, keys.CollapseAll, keys.Help, keys.Quit},
	}
}
