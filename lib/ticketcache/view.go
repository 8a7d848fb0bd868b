// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketcache

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// View answers read queries over a store's state. A Store's View sees
// live state; a Snapshot's View is frozen. Every method returns copies
// the caller may keep and modify.
type View struct {
	state *state
}

// Len returns the number of cached tickets.
func (view View) Len() int {
	return len(view.state.tickets)
}

// Has reports whether key is cached.
func (view View) Has(key string) bool {
	_, exists := view.state.tickets[key]
	return exists
}

// Get returns a copy of one ticket.
func (view View) Get(key string) (jira.Ticket, bool) {
	existing, exists := view.state.tickets[key]
	if !exists {
		return jira.Ticket{}, false
	}
	return existing.ticket.Clone(), true
}

// Scope returns the fetch scopes a ticket has been seen in.
func (view View) Scope(key string) Scope {
	return view.state.tickets[key].scope
}

// Classify returns the status class of a cached ticket.
// ClassUnrecognized for unknown keys.
func (view View) Classify(key string) jira.StatusClass {
	existing, exists := view.state.tickets[key]
	if !exists {
		return jira.ClassUnrecognized
	}
	return view.state.statuses.Classify(existing.ticket.Status)
}

// Statuses returns the classification the store uses.
func (view View) Statuses() jira.StatusSet {
	return view.state.statuses
}

// Tickets returns every cached ticket in key order.
func (view View) Tickets() []jira.Ticket {
	tickets := make([]jira.Ticket, 0, len(view.state.tickets))
	for _, existing := range view.state.tickets {
		tickets = append(tickets, existing.ticket.Clone())
	}
	sortByKey(tickets)
	return tickets
}

// TicketsIn returns the cached tickets among keys, in the order given.
// Keys that are not cached are skipped.
func (view View) TicketsIn(keys []string) []jira.Ticket {
	tickets := make([]jira.Ticket, 0, len(keys))
	for _, key := range keys {
		if existing, exists := view.state.tickets[key]; exists {
			tickets = append(tickets, existing.ticket.Clone())
		}
	}
	return tickets
}

// Members returns the roster sorted by name, then email.
func (view View) Members() []jira.TeamMember {
	members := make([]jira.TeamMember, 0, len(view.state.members))
	for _, member := range view.state.members {
		members = append(members, member)
	}
	slices.SortFunc(members, compareMembers)
	return members
}

// Epic returns one cached epic.
func (view View) Epic(key string) (jira.Epic, bool) {
	epic, exists := view.state.epics[key]
	if !exists {
		return jira.Epic{}, false
	}
	return epic.Clone(), true
}

// Contents returns the store's serializable form. Tickets and epics
// are in key order so equal stores produce equal contents.
func (view View) Contents() Contents {
	contents := Contents{
		Tickets: make([]CachedTicket, 0, len(view.state.tickets)),
		Members: view.Members(),
	}
	for _, existing := range view.state.tickets {
		contents.Tickets = append(contents.Tickets, CachedTicket{
			Ticket: existing.ticket.Clone(),
			Scope:  existing.scope,
		})
	}
	slices.SortFunc(contents.Tickets, func(a, b CachedTicket) int {
		return jira.CompareKeys(a.Ticket.Key, b.Ticket.Key)
	})
	for _, epic := range view.state.epics {
		contents.Epics = append(contents.Epics, epic.Clone())
	}
	slices.SortFunc(contents.Epics, func(a, b jira.Epic) int {
		return jira.CompareKeys(a.Key, b.Key)
	})
	return contents
}

// StatusGroup is the tickets sharing one status.
type StatusGroup struct {
	Status  jira.Status
	Class   jira.StatusClass
	Tickets []jira.Ticket
}

// StatusGroups groups tickets by status in workflow order, with
// unrecognized statuses after the known ones. When assignee is
// non-zero only that person's tickets are included. Done groups list
// the most recently updated first; other groups are in key order.
func (view View) StatusGroups(assignee jira.TeamMember) []StatusGroup {
	var keys map[string]struct{}
	if !assignee.IsZero() {
		keys = view.state.byAssignee[assignee.Identity()]
	}

	byStatus := make(map[jira.Status][]jira.Ticket)
	for key, existing := range view.state.tickets {
		if keys != nil {
			if _, ok := keys[key]; !ok {
				continue
			}
		} else if !assignee.IsZero() {
			continue
		}
		byStatus[existing.ticket.Status] = append(byStatus[existing.ticket.Status], existing.ticket.Clone())
	}

	groups := make([]StatusGroup, 0, len(byStatus))
	for status, tickets := range byStatus {
		class := view.state.statuses.Classify(status)
		if class == jira.ClassDone {
			sortByRecency(tickets)
		} else {
			sortByKey(tickets)
		}
		groups = append(groups, StatusGroup{Status: status, Class: class, Tickets: tickets})
	}
	slices.SortFunc(groups, func(a, b StatusGroup) int {
		switch {
		case jira.LessStatus(a.Status, b.Status):
			return -1
		case jira.LessStatus(b.Status, a.Status):
			return 1
		}
		return 0
	})
	return groups
}

// AssigneeGroup is one person and their active tickets.
type AssigneeGroup struct {
	Member jira.TeamMember

	// Active tickets, in workflow order then key order.
	Active []jira.Ticket

	// DoneCount is the number of cached done tickets assigned to the
	// member.
	DoneCount int
}

// assigneeRow is one line of the team list: a member header (key
// empty) or one of that member's tickets.
type assigneeRow struct {
	group int
	key   string
}

// AssigneeView is the team list: groups sorted by active-ticket count
// descending, ties by name ascending, flattened into rows of a header
// followed by the member's active tickets. KeyAt and GroupAt are the
// only mapping from a row index to what is drawn there; rendering and
// selection both walk them.
type AssigneeView struct {
	Groups []AssigneeGroup
	rows   []assigneeRow
}

// Len returns the number of rows.
func (assignees AssigneeView) Len() int { return len(assignees.rows) }

// KeyAt returns the ticket key drawn at row index. False for header
// rows and out-of-range indexes.
func (assignees AssigneeView) KeyAt(index int) (string, bool) {
	if index < 0 || index >= len(assignees.rows) {
		return "", false
	}
	row := assignees.rows[index]
	return row.key, row.key != ""
}

// GroupAt returns the index into Groups of the member that row index
// belongs to, or -1 when out of range.
func (assignees AssigneeView) GroupAt(index int) int {
	if index < 0 || index >= len(assignees.rows) {
		return -1
	}
	return assignees.rows[index].group
}

// AssigneeGroups builds the team list from the roster plus anyone who
// holds an active ticket without being on the roster.
func (view View) AssigneeGroups() AssigneeView {
	members := make(map[string]jira.TeamMember, len(view.state.members))
	for identity, member := range view.state.members {
		members[identity] = member
	}
	for identity, keys := range view.state.byAssignee {
		if _, known := members[identity]; known {
			continue
		}
		for key := range keys {
			ticket := view.state.tickets[key].ticket
			if view.state.statuses.Classify(ticket.Status) == jira.ClassActive {
				members[identity] = ticket.Assignee
				break
			}
		}
	}

	groups := make([]AssigneeGroup, 0, len(members))
	for identity, member := range members {
		group := AssigneeGroup{Member: member}
		for key := range view.state.byAssignee[identity] {
			ticket := view.state.tickets[key].ticket
			switch view.state.statuses.Classify(ticket.Status) {
			case jira.ClassActive:
				group.Active = append(group.Active, ticket.Clone())
			case jira.ClassDone:
				group.DoneCount++
			}
		}
		sortByStatusThenKey(group.Active)
		groups = append(groups, group)
	}
	slices.SortFunc(groups, func(a, b AssigneeGroup) int {
		if byCount := cmp.Compare(len(b.Active), len(a.Active)); byCount != 0 {
			return byCount
		}
		return compareMembers(a.Member, b.Member)
	})

	assignees := AssigneeView{Groups: groups}
	for index, group := range groups {
		assignees.rows = append(assignees.rows, assigneeRow{group: index})
		for _, ticket := range group.Active {
			assignees.rows = append(assignees.rows, assigneeRow{group: index, key: ticket.Key})
		}
	}
	return assignees
}

// Unassigned returns active tickets with no assignee, in workflow
// order then key order.
func (view View) Unassigned() []jira.Ticket {
	var tickets []jira.Ticket
	for key := range view.state.byClass[jira.ClassActive] {
		ticket := view.state.tickets[key].ticket
		if !ticket.IsAssigned() {
			tickets = append(tickets, ticket.Clone())
		}
	}
	sortByStatusThenKey(tickets)
	return tickets
}

// Progress summarizes an epic's cached children.
type Progress struct {
	Total    int
	Done     int
	ByStatus map[jira.Status]int
}

// Fraction returns Done/Total, or 0 when the epic has no children.
func (progress Progress) Fraction() float64 {
	if progress.Total == 0 {
		return 0
	}
	return float64(progress.Done) / float64(progress.Total)
}

// Percent returns Fraction as a whole percentage, rounded down.
func (progress Progress) Percent() int {
	if progress.Total == 0 {
		return 0
	}
	return progress.Done * 100 / progress.Total
}

// childKeys returns the union of an epic's recorded children and the
// cached tickets naming it as their epic, restricted to cached keys.
func (view View) childKeys(epicKey string) []string {
	seen := make(map[string]struct{})
	var keys []string
	add := func(key string) {
		if _, cached := view.state.tickets[key]; !cached {
			return
		}
		if _, duplicate := seen[key]; duplicate {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if epic, exists := view.state.epics[epicKey]; exists {
		for _, key := range epic.ChildKeys {
			add(key)
		}
	}
	for key := range view.state.children[epicKey] {
		add(key)
	}
	slices.SortFunc(keys, jira.CompareKeys)
	return keys
}

// EpicProgress computes progress from the epic's children as they are
// cached right now.
func (view View) EpicProgress(epicKey string) Progress {
	progress := Progress{ByStatus: make(map[jira.Status]int)}
	for _, key := range view.childKeys(epicKey) {
		ticket := view.state.tickets[key].ticket
		progress.Total++
		progress.ByStatus[ticket.Status]++
		if view.state.statuses.Classify(ticket.Status) == jira.ClassDone {
			progress.Done++
		}
	}
	return progress
}

// EpicChildren returns an epic's cached children in workflow order.
func (view View) EpicChildren(epicKey string) []jira.Ticket {
	children := view.TicketsIn(view.childKeys(epicKey))
	sortByStatusThenKey(children)
	return children
}

// EpicView is an epic with its derived progress.
type EpicView struct {
	Epic     jira.Epic
	Progress Progress
}

// Epics returns every cached epic in key order.
func (view View) Epics() []EpicView {
	epics := make([]EpicView, 0, len(view.state.epics))
	for key, epic := range view.state.epics {
		epics = append(epics, EpicView{Epic: epic.Clone(), Progress: view.EpicProgress(key)})
	}
	slices.SortFunc(epics, func(a, b EpicView) int {
		return jira.CompareKeys(a.Epic.Key, b.Epic.Key)
	})
	return epics
}

// ClassCounts returns how many cached tickets fall in each class.
func (view View) ClassCounts() map[jira.StatusClass]int {
	counts := make(map[jira.StatusClass]int, len(view.state.byClass))
	for class, keys := range view.state.byClass {
		if len(keys) > 0 {
			counts[class] = len(keys)
		}
	}
	return counts
}

func compareMembers(a, b jira.TeamMember) int {
	if byName := strings.Compare(a.String(), b.String()); byName != 0 {
		return byName
	}
	return strings.Compare(a.Identity(), b.Identity())
}

func sortByKey(tickets []jira.Ticket) {
	slices.SortFunc(tickets, func(a, b jira.Ticket) int {
		return jira.CompareKeys(a.Key, b.Key)
	})
}

func sortByRecency(tickets []jira.Ticket) {
	slices.SortFunc(tickets, func(a, b jira.Ticket) int {
		if byTime := b.UpdatedAt.Compare(a.UpdatedAt); byTime != 0 {
			return byTime
		}
		return jira.CompareKeys(a.Key, b.Key)
	})
}

func sortByStatusThenKey(tickets []jira.Ticket) {
	slices.SortFunc(tickets, func(a, b jira.Ticket) int {
		switch {
		case jira.LessStatus(a.Status, b.Status):
			return -1
		case jira.LessStatus(b.Status, a.Status):
			return 1
		}
		return jira.CompareKeys(a.Key, b.Key)
	})
}
