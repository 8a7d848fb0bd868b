// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// recordSaves makes the model persist filters into the returned slice
// pointer.
func recordSaves(model *Model) *[][]jira.SavedFilter {
	var saves [][]jira.SavedFilter
	model.options.SaveFilters = func(filters []jira.SavedFilter) error {
		saves = append(saves, slices.Clone(filters))
		return nil
	}
	return &saves
}

func TestFilterFormAddsEditsAndDeletes(t *testing.T) {
	model, _, _ := newTestModel(t)
	saves := recordSaves(&model)
	model = press(t, model, "5")

	model = press(t, model, "n")
	if model.focus != FocusForm || model.form == nil || model.form.Original != "" {
		t.Fatalf("focus = %v, want an empty filter form", model.focus)
	}
	model = press(t, model, "Mine", "tab", "assignee = currentUser()", "enter")
	if model.form != nil || model.focus != FocusList {
		t.Fatalf("form still open after save (focus %v, notice %q)", model.focus, model.notice.text)
	}
	want := []jira.SavedFilter{{Name: "Bugs", JQL: "type = Bug"}, {Name: "Mine", JQL: "assignee = currentUser()"}}
	if len(*saves) != 1 || !slices.Equal((*saves)[0], want) {
		t.Fatalf("saves = %v, want %v", *saves, want)
	}
	if got := itemKeys(model.items); !slices.Equal(got, []string{"#Bugs (press r to run)", "#Mine (press r to run)"}) {
		t.Errorf("filter items = %v", got)
	}
	if model.cursor != 1 {
		t.Errorf("cursor = %d, want the new filter's header", model.cursor)
	}

	model = press(t, model, "e")
	if model.form == nil || model.form.Original != "Mine" {
		t.Fatalf("edit form = %+v", model.form)
	}
	if filter := model.form.Filter(); filter != want[1] {
		t.Errorf("edit form holds %+v, want %+v", filter, want[1])
	}
	model = press(t, model, "tab", " AND type = Bug", "enter")
	if got := model.options.Filters[1].JQL; got != "assignee = currentUser() AND type = Bug" {
		t.Errorf("edited JQL = %q", got)
	}
	if len(model.options.Filters) != 2 {
		t.Errorf("edit changed the filter count: %v", model.options.Filters)
	}

	model = press(t, model, "x")
	if len(*saves) != 3 || !slices.Equal((*saves)[2], want[:1]) {
		t.Errorf("after delete saves = %v", *saves)
	}
	if !strings.Contains(model.notice.text, "deleted filter Mine") {
		t.Errorf("notice = %q", model.notice.text)
	}
}

func TestFilterFormRejectsIncompleteAndDuplicate(t *testing.T) {
	model, _, _ := newTestModel(t)
	saves := recordSaves(&model)
	model = press(t, model, "5", "n", "Only a name", "enter")
	if model.form == nil || !strings.Contains(model.notice.text, "required") {
		t.Fatalf("incomplete filter: form open %v, notice %q", model.form != nil, model.notice.text)
	}

	model = press(t, model, "esc", "n", "Bugs", "tab", "status = Open", "enter")
	if model.form == nil || !strings.Contains(model.notice.text, "already exists") {
		t.Errorf("duplicate name: form open %v, notice %q", model.form != nil, model.notice.text)
	}
	if len(*saves) != 0 {
		t.Errorf("rejected filters were saved: %v", *saves)
	}
}

func TestFilterFormSaveFailureKeepsFilters(t *testing.T) {
	model, _, _ := newTestModel(t)
	model.options.SaveFilters = func([]jira.SavedFilter) error { return errors.New("read-only file system") }
	model = press(t, model, "5", "x")

	if len(model.options.Filters) != 1 {
		t.Errorf("filters = %v, want the unsaved delete undone", model.options.Filters)
	}
	if model.notice.level != ticketsync.NoticeError || !strings.Contains(model.notice.text, "read-only") {
		t.Errorf("notice = %+v", model.notice)
	}
}

func TestFilterKeysKeepTheirMeaningElsewhere(t *testing.T) {
	model, _, source := newTestModel(t)
	saves := recordSaves(&model)

	model = press(t, model, "j", "e")
	if model.prompt == nil || model.prompt.Action != promptEdit || model.form != nil {
		t.Fatalf("e on My Work opened %+v / form %v", model.prompt, model.form != nil)
	}
	model = press(t, model, "esc", "x")
	if len(*saves) != 0 || len(source.recorded()) != 0 {
		t.Error("x outside the Filters view changed something")
	}
}
