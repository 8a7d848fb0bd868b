// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketcache

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// Batch is the result of one fetch, merged as a unit.
type Batch struct {
	// Scope is the fetch kind. Every ticket in the batch gains it.
	Scope Scope

	// StartedAt is when the fetch was issued. ReplaceDoneWindow never
	// evicts a ticket updated at or after this instant: such a ticket
	// changed (typically through a local mutation) after the query
	// ran, so its absence from the results proves nothing.
	StartedAt time.Time

	Tickets []jira.Ticket
	Epics   []jira.Epic
	Members []jira.TeamMember
}

// Keys returns the ticket keys in the batch, in batch order.
func (batch Batch) Keys() []string {
	keys := make([]string, 0, len(batch.Tickets))
	for _, ticket := range batch.Tickets {
		keys = append(keys, ticket.Key)
	}
	return keys
}

// MergeResult counts what a merge changed.
type MergeResult struct {
	Inserted int
	Updated  int
}

// CachedTicket is a ticket together with its scope bits: the unit of
// the persisted snapshot.
type CachedTicket struct {
	Ticket jira.Ticket `json:"ticket"`
	Scope  Scope       `json:"scope"`
}

// Contents is the serializable form of the whole store.
type Contents struct {
	Tickets []CachedTicket    `json:"tickets"`
	Epics   []jira.Epic       `json:"epics,omitempty"`
	Members []jira.TeamMember `json:"members,omitempty"`
}

// Preimage is a ticket's complete cached state captured before an
// optimistic mutation. Reverting it restores that state exactly.
type Preimage struct {
	ticket jira.Ticket
	scope  Scope
}

// Key returns the captured ticket's key.
func (preimage Preimage) Key() string { return preimage.ticket.Key }

// Ticket returns a copy of the captured ticket.
func (preimage Preimage) Ticket() jira.Ticket { return preimage.ticket.Clone() }

// Store is the single-writer ticket cache. The embedded View exposes
// read queries over live state.
//
// Construct with [New]. Not safe for concurrent use.
type Store struct {
	View
	logger *slog.Logger
}

// New returns an empty store that classifies statuses with statuses.
func New(statuses jira.StatusSet, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		View:   View{state: newState(statuses)},
		logger: logger,
	}
}

// Merge inserts or overwrites every record in the batch. It never
// removes anything, so a partial fetch cannot evict tickets outside
// its query. Merging the same batch twice leaves the store as a single
// merge would.
//
// An incoming ticket without detail (Hydrated false) keeps the cached
// ticket's description, activity, hydrated flag, and labels (when the
// incoming set is empty), along with any epic key, type, reporter, or
// URL the summary fetch did not carry.
func (store *Store) Merge(batch Batch) MergeResult {
	var result MergeResult
	for _, ticket := range batch.Tickets {
		if ticket.Key == "" {
			store.logger.Warn("dropping ticket without key from merge", "scope", batch.Scope.String())
			continue
		}
		if store.state.mergeTicket(ticket, batch.Scope) {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	for _, epic := range batch.Epics {
		if epic.Key == "" {
			continue
		}
		epic = epic.Clone()
		epic.ChildKeys = jira.NormalizeKeys(epic.ChildKeys)
		store.state.epics[epic.Key] = epic
		if batch.Scope.Has(ScopeEpic) {
			store.state.detachStaleChildren(epic, batch.StartedAt)
		}
	}
	for _, member := range batch.Members {
		store.state.addMember(member)
	}
	return result
}

// ReplaceDoneWindow merges the recently-done batch, then evicts every
// cached ticket that fell out of the window: absent from the batch,
// classified as done, acquired through an active or done-window fetch
// and not pinned by an epic or saved filter, last updated before the
// batch's fetch started, and not protected. protected may be nil; the
// mutation engine passes its pending-key check so a ticket with a
// provisional change is never evicted underneath it.
//
// Returns the evicted keys in key order.
func (store *Store) ReplaceDoneWindow(batch Batch, protected func(key string) bool) []string {
	batch.Scope |= ScopeDoneWindow
	store.Merge(batch)

	present := make(map[string]struct{}, len(batch.Tickets))
	for _, ticket := range batch.Tickets {
		present[ticket.Key] = struct{}{}
	}

	var evicted []string
	for key := range store.state.byClass[jira.ClassDone] {
		if _, ok := present[key]; ok {
			continue
		}
		entry := store.state.tickets[key]
		if entry.scope&windowScopes == 0 || entry.scope&pinnedScopes != 0 {
			continue
		}
		if !batch.StartedAt.IsZero() && !entry.ticket.UpdatedAt.Before(batch.StartedAt) {
			continue
		}
		if protected != nil && protected(key) {
			continue
		}
		evicted = append(evicted, key)
	}
	slices.SortFunc(evicted, jira.CompareKeys)
	for _, key := range evicted {
		store.state.remove(key)
	}
	if len(evicted) > 0 {
		store.logger.Debug("evicted tickets outside the done window",
			"count", len(evicted),
			"batch_size", len(batch.Tickets),
		)
	}
	return evicted
}

// ApplyDetail merges a detail payload into an existing ticket and marks
// it hydrated. Returns false, logging at debug level, when the key is
// no longer cached: a later fetch superseded the request.
func (store *Store) ApplyDetail(key string, detail jira.TicketDetail) bool {
	entry, exists := store.state.tickets[key]
	if !exists {
		store.logger.Debug("discarding detail for uncached ticket", "key", key)
		return false
	}
	ticket := entry.ticket.Clone()
	ticket.Description = detail.Description
	ticket.Labels = jira.NormalizeLabels(detail.Labels)
	ticket.Activity = slices.Clone(detail.Activity)
	if detail.EpicKey != "" {
		ticket.EpicKey = detail.EpicKey
	}
	ticket.Hydrated = true
	store.state.put(ticket, entry.scope)
	return true
}

// Capture returns the pre-image of a cached ticket for a later Revert.
func (store *Store) Capture(key string) (Preimage, bool) {
	entry, exists := store.state.tickets[key]
	if !exists {
		return Preimage{}, false
	}
	return Preimage{ticket: entry.ticket.Clone(), scope: entry.scope}, true
}

// ApplyProvisional overwrites a cached ticket with an optimistic
// version, keeping its scope. Returns false when the key is not
// cached; new tickets enter through Merge.
func (store *Store) ApplyProvisional(ticket jira.Ticket) bool {
	entry, exists := store.state.tickets[ticket.Key]
	if !exists {
		return false
	}
	ticket = ticket.Clone()
	ticket.Labels = jira.NormalizeLabels(ticket.Labels)
	store.state.put(ticket, entry.scope)
	return true
}

// Revert restores a ticket to its captured pre-image, reinserting it
// if it was removed in the meantime.
func (store *Store) Revert(preimage Preimage) {
	store.state.put(preimage.ticket.Clone(), preimage.scope)
}

// Restore replaces the entire store with persisted contents. Used once,
// at cold start, before any fetch result is merged.
func (store *Store) Restore(contents Contents) {
	restored := newState(store.state.statuses)
	for _, cached := range contents.Tickets {
		if cached.Ticket.Key == "" {
			continue
		}
		ticket := cached.Ticket.Clone()
		ticket.Labels = jira.NormalizeLabels(ticket.Labels)
		restored.put(ticket, cached.Scope)
	}
	for _, epic := range contents.Epics {
		if epic.Key != "" {
			restored.epics[epic.Key] = epic.Clone()
		}
	}
	for _, member := range contents.Members {
		restored.addMember(member)
	}
	store.state = restored
}

// Snapshot returns an immutable deep copy of the store. It shares no
// memory with the store, so it may be read from any goroutine while
// merges continue.
func (store *Store) Snapshot() *Snapshot {
	return &Snapshot{View: View{state: store.state.clone()}}
}

// Snapshot is a frozen copy of a Store. Only read queries are
// available.
type Snapshot struct {
	View
}

// state is the data behind a Store or Snapshot.
type state struct {
	statuses jira.StatusSet

	tickets map[string]entry
	epics   map[string]jira.Epic

	// members is keyed by TeamMember.Identity.
	members map[string]jira.TeamMember

	// Secondary indexes, maintained by put and remove.
	byClass    map[jira.StatusClass]map[string]struct{}
	byAssignee map[string]map[string]struct{}
	children   map[string]map[string]struct{}
}

type entry struct {
	ticket jira.Ticket
	scope  Scope
}

func newState(statuses jira.StatusSet) *state {
	return &state{
		statuses:   statuses,
		tickets:    make(map[string]entry),
		epics:      make(map[string]jira.Epic),
		members:    make(map[string]jira.TeamMember),
		byClass:    make(map[jira.StatusClass]map[string]struct{}),
		byAssignee: make(map[string]map[string]struct{}),
		children:   make(map[string]map[string]struct{}),
	}
}

// mergeTicket folds an incoming fetch result into the cache. Returns
// true when the key was not cached before.
func (s *state) mergeTicket(incoming jira.Ticket, scope Scope) bool {
	incoming = incoming.Clone()
	incoming.Labels = jira.NormalizeLabels(incoming.Labels)

	existing, exists := s.tickets[incoming.Key]
	if !exists {
		s.put(incoming, scope)
		return true
	}

	cached := existing.ticket
	if !incoming.Hydrated && cached.Hydrated {
		incoming.Description = cached.Description
		incoming.Activity = slices.Clone(cached.Activity)
		incoming.Hydrated = true
		if len(incoming.Labels) == 0 {
			incoming.Labels = slices.Clone(cached.Labels)
		}
	}
	if incoming.EpicKey == "" {
		incoming.EpicKey = cached.EpicKey
	}
	if incoming.Type == "" {
		incoming.Type = cached.Type
	}
	if incoming.Reporter == "" {
		incoming.Reporter = cached.Reporter
	}
	if incoming.URL == "" {
		incoming.URL = cached.URL
	}
	s.put(incoming, existing.scope|scope)
	return false
}

// detachStaleChildren clears the epic key of cached tickets that name
// epic as their parent but are missing from its fetched child list:
// they were moved out of the epic. A ticket updated after the fetch
// started keeps its epic key until the next epic fetch.
func (s *state) detachStaleChildren(epic jira.Epic, startedAt time.Time) {
	var stale []string
	for key := range s.children[epic.Key] {
		if slices.Contains(epic.ChildKeys, key) {
			continue
		}
		ticket := s.tickets[key].ticket
		if !startedAt.IsZero() && !ticket.UpdatedAt.Before(startedAt) {
			continue
		}
		stale = append(stale, key)
	}
	for _, key := range stale {
		existing := s.tickets[key]
		ticket := existing.ticket.Clone()
		ticket.EpicKey = ""
		s.put(ticket, existing.scope)
	}
}

// put stores a ticket and brings every secondary index up to date.
// The caller hands over ownership of the ticket's slices.
func (s *state) put(ticket jira.Ticket, scope Scope) {
	if old, exists := s.tickets[ticket.Key]; exists {
		s.updateIndexes(&old.ticket, false)
	}
	s.tickets[ticket.Key] = entry{ticket: ticket, scope: scope}
	s.updateIndexes(&ticket, true)
}

func (s *state) remove(key string) {
	old, exists := s.tickets[key]
	if !exists {
		return
	}
	s.updateIndexes(&old.ticket, false)
	delete(s.tickets, key)
}

// updateIndexes adds (add true) or removes a ticket's entries in the
// status-class, assignee, and epic-children indexes.
func (s *state) updateIndexes(ticket *jira.Ticket, add bool) {
	operation := removeFromIndex
	if add {
		operation = addToIndex
	}
	class := s.statuses.Classify(ticket.Status)
	if add {
		set, exists := s.byClass[class]
		if !exists {
			set = make(map[string]struct{})
			s.byClass[class] = set
		}
		set[ticket.Key] = struct{}{}
	} else {
		delete(s.byClass[class], ticket.Key)
	}
	if ticket.IsAssigned() {
		operation(s.byAssignee, ticket.Assignee.Identity(), ticket.Key)
	}
	if ticket.EpicKey != "" {
		operation(s.children, ticket.EpicKey, ticket.Key)
	}
}

func (s *state) addMember(member jira.TeamMember) {
	if member.IsZero() {
		return
	}
	s.members[member.Identity()] = member
}

func (s *state) clone() *state {
	cloned := newState(s.statuses)
	for key, existing := range s.tickets {
		cloned.tickets[key] = entry{ticket: existing.ticket.Clone(), scope: existing.scope}
	}
	for key, epic := range s.epics {
		cloned.epics[key] = epic.Clone()
	}
	maps.Copy(cloned.members, s.members)
	for class, keys := range s.byClass {
		cloned.byClass[class] = maps.Clone(keys)
	}
	for identity, keys := range s.byAssignee {
		cloned.byAssignee[identity] = maps.Clone(keys)
	}
	for epicKey, keys := range s.children {
		cloned.children[epicKey] = maps.Clone(keys)
	}
	return cloned
}

func addToIndex(index map[string]map[string]struct{}, key, value string) {
	set, exists := index[key]
	if !exists {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[value] = struct{}{}
}

func removeFromIndex(index map[string]map[string]struct{}, key, value string) {
	set, exists := index[key]
	if !exists {
		return
	}
	delete(set, value)
	if len(set) == 0 {
		delete(index, key)
	}
}
