// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jiradeck/jiradeck/lib/clock"
	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// stubSource answers every active query with the same tickets and
// records the commands it is asked to apply.
type stubSource struct {
	mu        sync.Mutex
	active    []jira.Ticket
	mutations []jira.Command

	// created numbers new tickets from X-101. Creations whose summary
	// is rejectSummary fail.
	created       int
	rejectSummary string
}

func (source *stubSource) FetchByQuery(_ context.Context, query jira.Query) ([]jira.Ticket, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	if strings.Contains(query.JQL, "updated >= ") {
		return nil, nil
	}
	tickets := make([]jira.Ticket, len(source.active))
	for index, ticket := range source.active {
		tickets[index] = ticket.Clone()
	}
	return tickets, nil
}

func (source *stubSource) FetchEpics(context.Context, string) ([]jira.EpicTree, error) {
	return nil, nil
}

func (source *stubSource) FetchDetail(_ context.Context, key string) (jira.TicketDetail, error) {
	return jira.TicketDetail{Key: key, Description: "Details of " + key}, nil
}

func (source *stubSource) Mutate(_ context.Context, command jira.Command) (jira.MutationOutcome, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.mutations = append(source.mutations, command)
	if create, ok := command.(jira.CreateCommand); ok {
		if create.Summary == source.rejectSummary {
			return jira.MutationOutcome{}, &jira.MutateError{Command: command, Err: errors.New("summary rejected")}
		}
		source.created++
		return jira.MutationOutcome{Key: fmt.Sprintf("X-%d", 100+source.created)}, nil
	}
	return jira.MutationOutcome{Key: command.TicketKey()}, nil
}

func (source *stubSource) recorded() []jira.Command {
	source.mu.Lock()
	defer source.mu.Unlock()
	return slices.Clone(source.mutations)
}

// newTestModel starts an engine over three of Alice's tickets, waits
// for the first refresh, and returns a sized model showing My Work.
func newTestModel(t *testing.T) (Model, *ticketsync.Engine, *stubSource) {
	t.Helper()
	source := &stubSource{active: []jira.Ticket{
		ticketFor("X-1", jira.StatusToDo, alice),
		ticketFor("X-2", jira.StatusToDo, alice),
		ticketFor("X-3", jira.StatusInReview, alice),
		ticketFor("X-4", jira.StatusToDo, bruno),
	}}
	fake := clock.Fake(epoch)
	engine, err := ticketsync.NewEngine(source, ticketsync.Config{
		Project: "X",
		Me:      alice,
		Team:    []jira.TeamMember{alice, bruno},
		Workers: 2,
		Clock:   fake,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(engine.Close)
	settle(t, engine)

	model := NewModel(engine, Options{
		Filters:     []jira.SavedFilter{{Name: "Bugs", JQL: "type = Bug"}},
		Resolutions: []string{"Fixed"},
		Clock:       fake,
	})
	model = update(t, model, tea.WindowSizeMsg{Width: 120, Height: 30})
	return model, engine, source
}

func settle(t *testing.T, engine *ticketsync.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := engine.Run(ctx, nil); err != nil {
		t.Fatalf("engine did not settle: %v", err)
	}
}

func update(t *testing.T, model Model, message tea.Msg) Model {
	t.Helper()
	next, _ := model.Update(message)
	updated, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return updated
}

func press(t *testing.T, model Model, keys ...string) Model {
	t.Helper()
	for _, name := range keys {
		var message tea.KeyMsg
		switch name {
		case "enter":
			message = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			message = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			message = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "tab":
			message = tea.KeyMsg{Type: tea.KeyTab}
		default:
			message = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
		}
		model = update(t, model, message)
	}
	return model
}

func TestModelShowsMyWork(t *testing.T) {
	model, _, _ := newTestModel(t)
	want := []string{"#To Do", "X-1", "X-2", "#In Review", "X-3"}
	if got := itemKeys(model.items); !slices.Equal(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}

	model = press(t, model, "j")
	if model.selectedKey != "X-1" {
		t.Errorf("selectedKey = %q, want X-1", model.selectedKey)
	}
	view := model.View()
	if !strings.Contains(view, "Details of X-1") {
		t.Errorf("detail pane does not show the hydrated description:\n%s", view)
	}
}

func TestModelSwitchesTabs(t *testing.T) {
	model, _, _ := newTestModel(t)

	model = press(t, model, "2")
	if model.activeTab != TabTeam {
		t.Fatalf("activeTab = %v, want Team", model.activeTab)
	}
	if len(model.items) == 0 || model.items[0].Header != alice.String() {
		t.Errorf("team items = %v", itemKeys(model.items))
	}

	model = press(t, model, "5")
	if got := itemKeys(model.items); !slices.Equal(got, []string{"#Bugs (press r to run)"}) {
		t.Errorf("filter items = %v", got)
	}
}

func TestModelFilterNarrowsAndClears(t *testing.T) {
	model, _, _ := newTestModel(t)

	model = press(t, model, "/", "X", "-", "3")
	if model.focus != FocusFilter {
		t.Fatalf("focus = %v, want filter", model.focus)
	}
	if got := itemKeys(model.items); !slices.Equal(got, []string{"#In Review", "X-3"}) {
		t.Errorf("filtered items = %v", got)
	}

	model = press(t, model, "esc")
	if model.focus != FocusList || model.filter.Input != "" {
		t.Errorf("after esc: focus=%v input=%q", model.focus, model.filter.Input)
	}
	if len(model.items) != 5 {
		t.Errorf("items after clearing = %v", itemKeys(model.items))
	}
}

func TestModelBulkMove(t *testing.T) {
	model, engine, source := newTestModel(t)

	model = press(t, model, "j", "space", "space")
	if len(model.marked) != 2 {
		t.Fatalf("marked = %v, want X-1 and X-2", model.marked)
	}

	model = press(t, model, "m")
	if model.focus != FocusPicker || model.picker == nil {
		t.Fatalf("focus = %v, picker open = %v", model.focus, model.picker != nil)
	}
	if !slices.Equal(model.picker.Keys, []string{"X-1", "X-2"}) {
		t.Errorf("picker keys = %v", model.picker.Keys)
	}

	model = press(t, model, "progress", "enter")
	if model.picker != nil || model.focus != FocusList {
		t.Fatalf("picker still open after selection (focus %v)", model.focus)
	}
	if len(model.marked) != 0 {
		t.Errorf("marks not cleared: %v", model.marked)
	}
	for _, key := range []string{"X-1", "X-2"} {
		if state := engine.MutationState(key); state != ticketsync.MutationPending {
			t.Errorf("%s mutation state = %v, want pending", key, state)
		}
		if ticket, _ := engine.View().Get(key); ticket.Status != jira.StatusInProgress {
			t.Errorf("%s status = %v, want the optimistic In Progress", key, ticket.Status)
		}
	}

	settle(t, engine)
	mutations := source.recorded()
	if len(mutations) != 2 {
		t.Fatalf("mutations = %v, want two moves", mutations)
	}
	for _, command := range mutations {
		move, ok := command.(jira.MoveCommand)
		if !ok || move.Status != jira.StatusInProgress {
			t.Errorf("command = %#v, want a move to In Progress", command)
		}
	}
}

func TestModelMoveToDoneAsksForResolution(t *testing.T) {
	model, engine, source := newTestModel(t)

	model = press(t, model, "j", "m", "done", "enter")
	if model.picker == nil || model.picker.Action != pickResolution {
		t.Fatalf("expected the resolution picker, got %+v", model.picker)
	}
	model = press(t, model, "fixed", "enter")
	if model.picker != nil {
		t.Fatal("resolution picker still open")
	}

	settle(t, engine)
	mutations := source.recorded()
	if len(mutations) != 1 {
		t.Fatalf("mutations = %v", mutations)
	}
	move, ok := mutations[0].(jira.MoveCommand)
	if !ok || move.Key != "X-1" || move.Status != jira.StatusDone || move.Resolution != "Fixed" {
		t.Errorf("command = %#v", mutations[0])
	}
}

func TestModelCommentPrompt(t *testing.T) {
	model, engine, source := newTestModel(t)

	model = press(t, model, "j", "c")
	if model.focus != FocusPrompt || model.prompt == nil {
		t.Fatalf("focus = %v, want prompt", model.focus)
	}
	model = press(t, model, "looks good", "enter")
	if model.prompt != nil {
		t.Fatal("prompt still open after submit")
	}

	settle(t, engine)
	mutations := source.recorded()
	if len(mutations) != 1 {
		t.Fatalf("mutations = %v", mutations)
	}
	comment, ok := mutations[0].(jira.CommentCommand)
	if !ok || comment.Key != "X-1" || comment.Body != "looks good" {
		t.Errorf("command = %#v", mutations[0])
	}
}

func TestModelEscapeClosesPicker(t *testing.T) {
	model, _, source := newTestModel(t)

	model = press(t, model, "j", "a")
	if model.picker == nil || model.picker.Action != pickAssignee {
		t.Fatalf("expected the assignee picker, got %+v", model.picker)
	}
	model = press(t, model, "esc")
	if model.picker != nil || model.focus != FocusList {
		t.Errorf("after esc: picker open = %v, focus = %v", model.picker != nil, model.focus)
	}
	if mutations := source.recorded(); len(mutations) != 0 {
		t.Errorf("esc submitted %v", mutations)
	}
}

func TestModelCollapsesGroups(t *testing.T) {
	model, _, _ := newTestModel(t)

	model = press(t, model, "j", "z")
	if got := itemKeys(model.items); !slices.Equal(got, []string{"#To Do", "#In Review", "X-3"}) {
		t.Fatalf("after z: items = %v", got)
	}
	if model.cursor != 0 || !model.items[0].Collapsed {
		t.Errorf("cursor = %d, header collapsed = %v", model.cursor, model.items[0].Collapsed)
	}
	if !strings.Contains(model.View(), "▸ To Do") {
		t.Error("collapsed header not marked")
	}

	model = press(t, model, "enter")
	if len(model.items) != 5 {
		t.Fatalf("enter on a collapsed header left %v", itemKeys(model.items))
	}

	model = press(t, model, "Z")
	if got := itemKeys(model.items); !slices.Equal(got, []string{"#To Do", "#In Review"}) {
		t.Fatalf("after Z: items = %v", got)
	}
	model = press(t, model, "2")
	if !slices.Contains(itemKeys(model.items), "X-1") {
		t.Errorf("folding My Work folded Team: %v", itemKeys(model.items))
	}
	model = press(t, model, "1", "/", "X", "-", "3")
	if got := itemKeys(model.items); !slices.Equal(got, []string{"#In Review", "X-3"}) {
		t.Errorf("filtered items under folded groups = %v", got)
	}
	model = press(t, model, "esc", "Z")
	if len(model.items) != 5 {
		t.Errorf("second Z left %v", itemKeys(model.items))
	}
}

func TestModelHelpOverlay(t *testing.T) {
	model, _, source := newTestModel(t)

	model = press(t, model, "?")
	if !model.showHelp {
		t.Fatal("? did not open help")
	}
	view := model.View()
	for _, want := range []string{"Keybindings", "bulk upload", "new filter", "fold group"} {
		if !strings.Contains(view, want) {
			t.Errorf("help overlay lacks %q", want)
		}
	}

	model = press(t, model, "j", "m")
	if model.picker != nil || len(source.recorded()) != 0 {
		t.Error("keys behind the help overlay were handled")
	}
	model = press(t, model, "esc")
	if model.showHelp || strings.Contains(model.View(), "Keybindings") {
		t.Error("esc did not close help")
	}
}
