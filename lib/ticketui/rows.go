// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"fmt"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketcache"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// Tab identifies one of the list views.
type Tab int

const (
	TabMyWork Tab = iota
	TabTeam
	TabEpics
	TabUnassigned
	TabFilters
)

// tabs is the tab bar order.
var tabs = []Tab{TabMyWork, TabTeam, TabEpics, TabUnassigned, TabFilters}

func (tab Tab) String() string {
	switch tab {
	case TabMyWork:
		return "My Work"
	case TabTeam:
		return "Team"
	case TabEpics:
		return "Epics"
	case TabUnassigned:
		return "Unassigned"
	case TabFilters:
		return "Filters"
	default:
		return fmt.Sprintf("tab(%d)", int(tab))
	}
}

// doneLimit caps the Done group on My Work to the most recently
// updated tickets.
const doneLimit = 5

// ListItem is one line of the ticket list: a group header or a ticket.
type ListItem struct {
	// Header is the group title for header rows; empty for tickets.
	Header string

	// Count is the group's size shown beside the header. Hidden
	// reports how many tickets the group left out; DoneCount is a
	// team member's cached done tickets.
	Count     int
	Hidden    int
	DoneCount int

	// Progress is set on epic headers.
	Progress *ticketcache.Progress

	// HeaderStatus colors status group headers.
	HeaderStatus jira.Status

	Ticket jira.Ticket

	// Provisional rows are creations Jira has not confirmed. They
	// have no key and cannot be selected for changes.
	Provisional bool

	// Group names what the row belongs to on views where that matters
	// for an action: the epic key on Epics, the filter name on Filters.
	Group string

	// Highlights are the fuzzy-matched rune positions in the summary.
	Highlights []int

	// Collapsed is set on headers whose tickets are folded away.
	Collapsed bool
}

// IsHeader reports whether the item is a group header.
func (item ListItem) IsHeader() bool { return item.Header != "" }

// Selectable reports whether the cursor may rest on the item.
func (item ListItem) Selectable() bool {
	return !item.IsHeader() && !item.Provisional && item.Ticket.Key != ""
}

// groupID names a header's group for collapsing: the epic key or
// filter name where there is one, otherwise the title.
func (item ListItem) groupID() string {
	if item.Group != "" {
		return item.Group
	}
	return item.Header
}

// filterRun is a saved filter with its last result.
type filterRun struct {
	Filter jira.SavedFilter
	Keys   []string
	Ran    bool
}

// buildItems lays out the rows for tab from a cache view.
func buildItems(tab Tab, view ticketcache.View, me jira.TeamMember, filters []filterRun) []ListItem {
	switch tab {
	case TabMyWork:
		return myWorkItems(view, me)
	case TabTeam:
		return teamItems(view)
	case TabEpics:
		return epicItems(view)
	case TabUnassigned:
		return unassignedItems(view)
	case TabFilters:
		return filterItems(view, filters)
	default:
		return nil
	}
}

func myWorkItems(view ticketcache.View, me jira.TeamMember) []ListItem {
	if me.IsZero() {
		return nil
	}
	var items []ListItem
	for _, group := range view.StatusGroups(me) {
		tickets := group.Tickets
		header := ListItem{Header: group.Status.String(), Count: len(tickets), HeaderStatus: group.Status}
		if group.Class == jira.ClassDone && len(tickets) > doneLimit {
			header.Hidden = len(tickets) - doneLimit
			tickets = tickets[:doneLimit]
		}
		items = append(items, header)
		items = appendTickets(items, tickets, "")
	}
	return items
}

func teamItems(view ticketcache.View) []ListItem {
	assignees := view.AssigneeGroups()
	items := make([]ListItem, 0, assignees.Len())
	for index := range assignees.Len() {
		key, isTicket := assignees.KeyAt(index)
		if !isTicket {
			group := assignees.Groups[assignees.GroupAt(index)]
			items = append(items, ListItem{Header: group.Member.String(), Count: len(group.Active), DoneCount: group.DoneCount})
			continue
		}
		if ticket, ok := view.Get(key); ok {
			items = append(items, ListItem{Ticket: ticket})
		}
	}
	return items
}

func epicItems(view ticketcache.View) []ListItem {
	var items []ListItem
	for _, epic := range view.Epics() {
		progress := epic.Progress
		items = append(items, ListItem{
			Header:       epic.Epic.Key + " " + epic.Epic.Title,
			Count:        progress.Total,
			Progress:     &progress,
			HeaderStatus: epic.Epic.Status,
			Group:        epic.Epic.Key,
		})
		items = appendTickets(items, view.EpicChildren(epic.Epic.Key), epic.Epic.Key)
	}
	return items
}

func unassignedItems(view ticketcache.View) []ListItem {
	tickets := view.Unassigned()
	if len(tickets) == 0 {
		return nil
	}
	items := []ListItem{{Header: "Unassigned", Count: len(tickets)}}
	return appendTickets(items, tickets, "")
}

func filterItems(view ticketcache.View, filters []filterRun) []ListItem {
	var items []ListItem
	for _, run := range filters {
		header := ListItem{Header: run.Filter.Name, Group: run.Filter.Name}
		if !run.Ran {
			header.Header += " (press r to run)"
			items = append(items, header)
			continue
		}
		tickets := view.TicketsIn(run.Keys)
		header.Count = len(tickets)
		items = append(items, header)
		items = appendTickets(items, tickets, run.Filter.Name)
	}
	return items
}

// creationItems lists tickets waiting for Jira to assign a key.
func creationItems(provisional []ticketsync.ProvisionalTicket) []ListItem {
	if len(provisional) == 0 {
		return nil
	}
	items := []ListItem{{Header: "Creating", Count: len(provisional)}}
	for _, creation := range provisional {
		items = append(items, ListItem{Ticket: creation.Ticket, Provisional: true})
	}
	return items
}

func appendTickets(items []ListItem, tickets []jira.Ticket, group string) []ListItem {
	for _, ticket := range tickets {
		items = append(items, ListItem{Ticket: ticket, Group: group})
	}
	return items
}

// applyFilter keeps the tickets that match and the headers that still
// have at least one ticket beneath them.
func applyFilter(items []ListItem, filter *FilterModel) []ListItem {
	if filter.Input == "" {
		return items
	}
	var matched []ListItem
	for _, item := range items {
		if item.IsHeader() {
			matched = append(matched, item)
			continue
		}
		if result, ok := filter.Match(item.Ticket); ok {
			item.Highlights = result.Positions
			matched = append(matched, item)
		}
	}

	result := matched[:0]
	for index, item := range matched {
		if item.IsHeader() && (index+1 == len(matched) || matched[index+1].IsHeader()) {
			continue
		}
		result = append(result, item)
	}
	return result
}

// applyCollapse drops the tickets beneath collapsed headers.
func applyCollapse(items []ListItem, collapsed map[string]bool) []ListItem {
	if len(collapsed) == 0 {
		return items
	}
	result := make([]ListItem, 0, len(items))
	folding := false
	for _, item := range items {
		if item.IsHeader() {
			folding = collapsed[item.groupID()]
			item.Collapsed = folding
			result = append(result, item)
			continue
		}
		if !folding {
			result = append(result, item)
		}
	}
	return result
}
