// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jiradeck/jiradeck/lib/clock"
	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

var (
	epoch = time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	alice = jira.TeamMember{Name: "Alice", Email: "alice@example.com"}
	bruno = jira.TeamMember{Name: "Bruno", Email: "bruno@example.com"}
)

// fakeSource is a scripted Source. Its responses may be changed
// between cycles; every method is safe for concurrent use.
type fakeSource struct {
	mu sync.Mutex

	active    []jira.Ticket
	done      []jira.Ticket
	epics     []jira.EpicTree
	filters   map[string][]jira.Ticket
	activeErr error
	doneErr   error
	epicsErr  error

	details   map[string]jira.TicketDetail
	detailErr map[string]error

	mutateErr map[string]error
	createKey string

	// mutateGate, when set, holds every Mutate call until closed.
	// detailGate does the same for FetchDetail.
	mutateGate chan struct{}
	detailGate chan struct{}

	// panicKey makes FetchDetail and Mutate panic for that key.
	panicKey string

	queries     []jira.Query
	detailCalls []string
	mutations   []jira.Command
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		filters:   make(map[string][]jira.Ticket),
		details:   make(map[string]jira.TicketDetail),
		detailErr: make(map[string]error),
		mutateErr: make(map[string]error),
		createKey: "X-100",
	}
}

func (source *fakeSource) FetchByQuery(_ context.Context, query jira.Query) ([]jira.Ticket, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.queries = append(source.queries, query)
	if tickets, ok := source.filters[query.JQL]; ok {
		return cloneTickets(tickets), nil
	}
	if strings.Contains(query.JQL, "updated >= ") {
		return cloneTickets(source.done), source.doneErr
	}
	return cloneTickets(source.active), source.activeErr
}

func (source *fakeSource) FetchEpics(_ context.Context, _ string) ([]jira.EpicTree, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	trees := make([]jira.EpicTree, 0, len(source.epics))
	for _, tree := range source.epics {
		trees = append(trees, jira.EpicTree{Epic: tree.Epic.Clone(), Children: cloneTickets(tree.Children)})
	}
	return trees, source.epicsErr
}

func (source *fakeSource) FetchDetail(ctx context.Context, key string) (jira.TicketDetail, error) {
	source.mu.Lock()
	gate := source.detailGate
	source.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return jira.TicketDetail{}, ctx.Err()
		}
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	source.detailCalls = append(source.detailCalls, key)
	if key == source.panicKey {
		panic("detail parser blew up on " + key)
	}
	if err := source.detailErr[key]; err != nil {
		return jira.TicketDetail{}, &jira.FetchError{Operation: "detail", Target: key, Err: err}
	}
	if detail, ok := source.details[key]; ok {
		return detail, nil
	}
	return jira.TicketDetail{Key: key, Description: "Details of " + key}, nil
}

func (source *fakeSource) Mutate(ctx context.Context, command jira.Command) (jira.MutationOutcome, error) {
	source.mu.Lock()
	gate := source.mutateGate
	source.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return jira.MutationOutcome{}, ctx.Err()
		}
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	source.mutations = append(source.mutations, command)
	key := command.TicketKey()
	if key != "" && key == source.panicKey {
		panic("mutate blew up on " + key)
	}
	if _, isCreate := command.(jira.CreateCommand); isCreate {
		key = source.createKey
	}
	if err := source.mutateErr[key]; err != nil {
		return jira.MutationOutcome{}, &jira.MutateError{Command: command, Err: err}
	}
	return jira.MutationOutcome{Key: key}, nil
}

func (source *fakeSource) set(update func(*fakeSource)) {
	source.mu.Lock()
	defer source.mu.Unlock()
	update(source)
}

func (source *fakeSource) fetchedDetail(key string) bool {
	source.mu.Lock()
	defer source.mu.Unlock()
	return slices.Contains(source.detailCalls, key)
}

// identifyingSource adds Identifier to a fakeSource.
type identifyingSource struct {
	*fakeSource
	email string
}

func (source identifyingSource) CurrentUser(context.Context) (jira.TeamMember, error) {
	if source.email == "" {
		return jira.TeamMember{}, errors.New("not logged in")
	}
	return jira.TeamMember{Email: source.email}, nil
}

func cloneTickets(tickets []jira.Ticket) []jira.Ticket {
	cloned := make([]jira.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		cloned = append(cloned, ticket.Clone())
	}
	return cloned
}

func ticket(key string, status jira.Status, assignee jira.TeamMember, updated time.Time) jira.Ticket {
	return jira.Ticket{
		Key:       key,
		Summary:   "Summary of " + key,
		Status:    status,
		Assignee:  assignee,
		UpdatedAt: updated,
	}
}

// newTestEngine starts an engine over source with a fake clock at
// epoch. configure, when non-nil, adjusts the config before start.
func newTestEngine(t *testing.T, source Source, configure func(*Config)) (*Engine, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	config := Config{
		Project: "X",
		Me:      alice,
		Team:    []jira.TeamMember{alice, bruno},
		Workers: 2,
		Clock:   fake,
	}
	if configure != nil {
		configure(&config)
	}
	engine, err := NewEngine(source, config)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, fake
}

// settle applies messages until the engine is idle and returns the
// notices produced.
func settle(t *testing.T, engine *Engine) []Notice {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var notices []Notice
	if err := engine.Run(ctx, func(notice Notice) { notices = append(notices, notice) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return notices
}

func requireTicket(t *testing.T, engine *Engine, key string) jira.Ticket {
	t.Helper()
	ticket, ok := engine.View().Get(key)
	if !ok {
		t.Fatalf("%s is not cached", key)
	}
	return ticket
}

func noticeFor(notices []Notice, key string) (Notice, bool) {
	for _, notice := range notices {
		if notice.Key == key {
			return notice, true
		}
	}
	return Notice{}, false
}
