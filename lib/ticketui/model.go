// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jiradeck/jiradeck/lib/clock"
	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// FocusRegion identifies which part of the screen receives keys.
type FocusRegion int

const (
	// FocusList means navigation keys move the list cursor.
	FocusList FocusRegion = iota
	// FocusDetail means navigation keys scroll the detail pane.
	FocusDetail
	// FocusFilter means keystrokes go to the filter input.
	FocusFilter
	// FocusPicker means a status, resolution, or assignee picker is
	// open in the detail pane.
	FocusPicker
	// FocusPrompt means a text prompt is open in the detail pane.
	FocusPrompt
	// FocusForm means the saved filter form is open.
	FocusForm
	// FocusUpload means the bulk upload overlay is open.
	FocusUpload
)

func (focus FocusRegion) String() string {
	switch focus {
	case FocusDetail:
		return "DETAIL"
	case FocusFilter:
		return "FILTER"
	case FocusPicker:
		return "SELECT"
	case FocusPrompt:
		return "INPUT"
	case FocusForm:
		return "FORM"
	case FocusUpload:
		return "UPLOAD"
	default:
		return "LIST"
	}
}

// engineMsg wraps a background result read from the engine.
type engineMsg struct {
	message ticketsync.Message
}

// noticeFadeMsg clears the status bar notice it was scheduled for.
// Later notices bump the sequence so an older fade does not clear them.
type noticeFadeMsg struct {
	sequence int
}

// statusTickMsg repaints the status bar so relative ages advance.
type statusTickMsg struct{}

const (
	noticeFadeDelay    = 5 * time.Second
	statusTickInterval = 15 * time.Second

	// splitRatio is the fraction of the width given to the list.
	splitRatio = 0.55

	defaultIssueType = "Task"
)

// Options configures a Model.
type Options struct {
	// Filters are the saved filters listed on the Filters view.
	Filters []jira.SavedFilter

	// Resolutions are offered when moving tickets to a done status.
	Resolutions []string

	// IssueType is the type of tickets created with n. Defaults to
	// Task.
	IssueType string

	// IssueTypes are the types a bulk upload row may name. Defaults to
	// bulkcreate.DefaultIssueTypes.
	IssueTypes []string

	// SaveFilters persists the saved filters after an edit on the
	// Filters view. When nil, edits last for the session only.
	SaveFilters func([]jira.SavedFilter) error

	Clock clock.Clock
}

// notice is the message currently shown in the status bar.
type notice struct {
	text  string
	level ticketsync.NoticeLevel
}

// Model is the bubbletea model for the ticket viewer. The engine must
// be started before the program runs; the model then owns it and is
// the only caller of its methods.
type Model struct {
	engine  *ticketsync.Engine
	options Options
	clock   clock.Clock
	theme   Theme
	keys    KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	activeTab  Tab
	focus      FocusRegion
	priorFocus FocusRegion
	filter     FilterModel

	// items is the displayed list for the active tab after filtering.
	// selectedKey tracks the cursor by ticket so rebuilds keep focus.
	items        []ListItem
	cursor       int
	scrollOffset int
	selectedKey  string
	marked       map[string]bool

	detail    viewport.Model
	detailKey string
	picker    *picker
	prompt    *prompt
	form      *filterForm
	upload    *upload
	spinner   spinner.Model

	help     help.Model
	showHelp bool

	// collapsed holds the folded group ids of each tab.
	collapsed map[Tab]map[string]bool

	notice         notice
	noticeSequence int
}

// NewModel creates a Model over a started engine, showing My Work.
func NewModel(engine *ticketsync.Engine, options Options) Model {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.IssueType == "" {
		options.IssueType = defaultIssueType
	}

	model := Model{
		engine:    engine,
		options:   options,
		clock:     options.Clock,
		theme:     DefaultTheme,
		keys:      DefaultKeyMap,
		activeTab: TabMyWork,
		marked:    make(map[string]bool),
		detail:    viewport.New(0, 0),
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		help:      help.New(),
		collapsed: make(map[Tab]map[string]bool),
	}
	model.spinner.Style = lipgloss.NewStyle().Foreground(model.theme.StatusInProgress)
	model.help.ShowAll = true
	model.help.Styles.FullKey = lipgloss.NewStyle().Foreground(model.theme.HeaderForeground)
	model.help.Styles.FullDesc = lipgloss.NewStyle().Foreground(model.theme.NormalText)
	model.help.Styles.FullSeparator = lipgloss.NewStyle().Foreground(model.theme.BorderColor)
	model.rebuildItems()
	return model
}

// Init implements tea.Model. Starts listening for engine messages.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		listenForMessages(model.engine.Messages()),
		model.spinner.Tick,
		statusTick(),
	)
}

// listenForMessages returns a tea.Cmd that blocks until the engine
// reports a result, then delivers it as an engineMsg. Update
// re-arms it after each message.
func listenForMessages(channel <-chan ticketsync.Message) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-channel
		if !ok {
			return nil
		}
		return engineMsg{message: message}
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusTickInterval, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case engineMsg:
		notices := model.engine.Apply(message.message)
		fade := model.showNotices(notices)
		uploaded := model.trackUpload(notices)
		model.rebuildItems()
		return model, tea.Batch(listenForMessages(model.engine.Messages()), fade, uploaded)

	case uploadLoadedMsg:
		model.uploadLoaded(message)

	case logRecordMsg:
		level := ticketsync.NoticeWarn
		if message.Level >= slog.LevelError {
			level = ticketsync.NoticeError
		}
		return model, model.setNotice(notice{text: message.Summary, level: level})

	case noticeFadeMsg:
		if message.sequence == model.noticeSequence {
			model.notice = notice{}
		}

	case statusTickMsg:
		return model, statusTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(message)
		if model.busyDetail() {
			model.syncDetail()
		}
		return model, cmd

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updatePaneSizes()
		model.ensureCursorVisible()

	case tea.KeyMsg:
		return model.handleKey(message)
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.showHelp {
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.Help), message.Type == tea.KeyEsc:
			model.showHelp = false
		}
		return model, nil
	}

	switch model.focus {
	case FocusFilter:
		return model.handleFilterKeys(message)
	case FocusPicker:
		return model.handlePickerKeys(message)
	case FocusPrompt:
		return model.handlePromptKeys(message)
	case FocusForm:
		return model.handleFormKeys(message)
	case FocusUpload:
		return model.handleUploadKeys(message)
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.FocusToggle):
		if model.focus == FocusList {
			model.focus = FocusDetail
		} else {
			model.focus = FocusList
		}

	case key.Matches(message, model.keys.ViewMyWork):
		model.switchTab(TabMyWork)
	case key.Matches(message, model.keys.ViewTeam):
		model.switchTab(TabTeam)
	case key.Matches(message, model.keys.ViewEpics):
		model.switchTab(TabEpics)
	case key.Matches(message, model.keys.ViewUnassigned):
		model.switchTab(TabUnassigned)
	case key.Matches(message, model.keys.ViewFilters):
		model.switchTab(TabFilters)

	case key.Matches(message, model.keys.FilterActivate):
		model.priorFocus = model.focus
		model.focus = FocusFilter
		model.filter.Active = true
		model.cursor = 0
		model.scrollOffset = 0

	case key.Matches(message, model.keys.FilterClear):
		switch {
		case model.filter.Input != "":
			model.filter.Clear()
			model.rebuildItems()
		case len(model.marked) > 0:
			clear(model.marked)
		}

	case key.Matches(message, model.keys.Help):
		model.showHelp = true

	case model.activeTab == TabFilters && key.Matches(message, model.keys.FilterNew):
		cmd = model.openFilterForm(false)
	case model.activeTab == TabFilters && key.Matches(message, model.keys.FilterEdit):
		cmd = model.openFilterForm(true)
	case model.activeTab == TabFilters && key.Matches(message, model.keys.FilterDelete):
		cmd = model.deleteFilter()

	case key.Matches(message, model.keys.Collapse):
		model.toggleGroup()
	case key.Matches(message, model.keys.CollapseAll):
		model.toggleAllGroups()
	case key.Matches(message, model.keys.BulkUpload):
		cmd = model.openUpload()

	case key.Matches(message, model.keys.Refresh):
		cmd = model.refresh()
	case key.Matches(message, model.keys.Move):
		cmd = model.openMovePicker()
	case key.Matches(message, model.keys.Assign):
		cmd = model.openAssignPicker()
	case key.Matches(message, model.keys.Comment):
		cmd = model.openCommentPrompt()
	case key.Matches(message, model.keys.Edit):
		cmd = model.openEditPrompt()
	case key.Matches(message, model.keys.Create):
		cmd = model.openCreatePrompt()
	case key.Matches(message, model.keys.Mark):
		model.toggleMark()

	default:
		if model.focus == FocusList {
			model.handleListKeys(message)
		} else {
			model.handleDetailKeys(message)
		}
	}
	return model, cmd
}

// handleFilterKeys routes input to the filter. Esc clears it, Enter
// confirms and returns focus to where it was.
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.filter.Clear()
		model.focus = model.priorFocus
	case tea.KeyEnter:
		model.filter.Active = false
		model.focus = model.priorFocus
		return model, nil
	case tea.KeyBackspace:
		if !model.filter.HandleBackspace() {
			return model, nil
		}
	case tea.KeySpace:
		model.filter.HandleRune(' ')
	case tea.KeyRunes:
		for _, character := range message.Runes {
			model.filter.HandleRune(character)
		}
	case tea.KeyUp:
		model.moveCursor(-1)
		return model, nil
	case tea.KeyDown:
		model.moveCursor(1)
		return model, nil
	default:
		return model, nil
	}
	model.cursor = 0
	model.scrollOffset = 0
	model.selectedKey = ""
	model.rebuildItems()
	return model, nil
}

func (model *Model) handleListKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveCursor(-model.visibleHeight())
	case key.Matches(message, model.keys.PageDown):
		model.moveCursor(model.visibleHeight())
	case key.Matches(message, model.keys.Home):
		model.moveCursor(-len(model.items))
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.items))
	case key.Matches(message, model.keys.Confirm):
		if model.selectedTicket() != nil {
			model.focus = FocusDetail
		} else if model.cursor < len(model.items) && model.items[model.cursor].Collapsed {
			model.toggleGroup()
		}
	}
}

func (model *Model) handleDetailKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.detail.SetYOffset(model.detail.YOffset - 1)
	case key.Matches(message, model.keys.Down):
		model.detail.SetYOffset(model.detail.YOffset + 1)
	case key.Matches(message, model.keys.PageUp):
		model.detail.SetYOffset(model.detail.YOffset - model.detail.Height/2)
	case key.Matches(message, model.keys.PageDown):
		model.detail.SetYOffset(model.detail.YOffset + model.detail.Height/2)
	case key.Matches(message, model.keys.Home):
		model.detail.GotoTop()
	case key.Matches(message, model.keys.End):
		model.detail.GotoBottom()
	}
}

func (model Model) handlePickerKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.closeOverlay()
	case tea.KeyUp, tea.KeyCtrlP:
		model.picker.MoveUp()
	case tea.KeyDown, tea.KeyCtrlN:
		model.picker.MoveDown()
	case tea.KeyBackspace:
		model.picker.Backspace()
	case tea.KeySpace:
		model.picker.Type(' ')
	case tea.KeyRunes:
		for _, character := range message.Runes {
			model.picker.Type(character)
		}
	case tea.KeyEnter:
		option, ok := model.picker.Selected()
		if !ok {
			return model, nil
		}
		return model, model.choose(option)
	}
	return model, nil
}

func (model Model) handleFormKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.closeOverlay()
		return model, nil
	case tea.KeyTab, tea.KeyShiftTab:
		model.form.Next()
		return model, nil
	case tea.KeyEnter:
		return model, model.submitFilterForm()
	}
	return model, model.form.Update(message)
}

func (model Model) handlePromptKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.closeOverlay()
		return model, nil
	case tea.KeyEnter:
		return model, model.submitPrompt()
	}
	var cmd tea.Cmd
	model.prompt.Input, cmd = model.prompt.Input.Update(message)
	return model, cmd
}

// switchTab changes the active view, keeping the filter text.
func (model *Model) switchTab(tab Tab) {
	if model.activeTab == tab {
		return
	}
	model.activeTab = tab
	model.cursor = 0
	model.scrollOffset = 0
	model.rebuildItems()
}

// rebuildItems recomputes the list from the cache and restores the
// cursor to the selected ticket when it is still listed.
func (model *Model) rebuildItems() {
	view := model.engine.View()
	var items []ListItem
	if model.activeTab == TabMyWork {
		items = creationItems(model.engine.PendingCreations())
	}
	items = append(items, buildItems(model.activeTab, view, model.engine.Me(), model.filterRuns())...)
	model.items = applyFilter(items, &model.filter)
	if model.filter.Input == "" {
		model.items = applyCollapse(model.items, model.collapsed[model.activeTab])
	}

	for marked := range model.marked {
		if !view.Has(marked) {
			delete(model.marked, marked)
		}
	}

	model.restoreSelection()
	model.ensureCursorVisible()
	model.syncDetail()
}

func (model *Model) filterRuns() []filterRun {
	runs := make([]filterRun, 0, len(model.options.Filters))
	for _, filter := range model.options.Filters {
		keys, ran := model.engine.FilterKeys(filter.Name)
		runs = append(runs, filterRun{Filter: filter, Keys: keys, Ran: ran})
	}
	return runs
}

func (model *Model) restoreSelection() {
	if model.selectedKey != "" {
		for index, item := range model.items {
			if item.Selectable() && item.Ticket.Key == model.selectedKey {
				model.cursor = index
				return
			}
		}
	}
	model.cursor = model.clampedIndex(model.cursor)
	if model.selectedKey == "" {
		model.selectedKey = model.keyAt(model.cursor)
	}
}

func (model *Model) clampedIndex(position int) int {
	if len(model.items) == 0 || position < 0 {
		return 0
	}
	return min(position, len(model.items)-1)
}

func (model *Model) keyAt(index int) string {
	if index < 0 || index >= len(model.items) || !model.items[index].Selectable() {
		return ""
	}
	return model.items[index].Ticket.Key
}

func (model *Model) moveCursor(delta int) {
	model.cursor = model.clampedIndex(model.cursor + delta)
	model.selectedKey = model.keyAt(model.cursor)
	model.ensureCursorVisible()
	model.syncDetail()
}

// selectedTicket returns the ticket under the cursor, or nil on a
// header or provisional row.
func (model *Model) selectedTicket() *jira.Ticket {
	if model.cursor < 0 || model.cursor >= len(model.items) || !model.items[model.cursor].Selectable() {
		return nil
	}
	return &model.items[model.cursor].Ticket
}

// targets returns the keys an action applies to: the marked tickets
// when any are marked, otherwise the selected one.
func (model *Model) targets() []string {
	if len(model.marked) > 0 {
		keys := make([]string, 0, len(model.marked))
		for marked := range model.marked {
			keys = append(keys, marked)
		}
		slices.SortFunc(keys, jira.CompareKeys)
		return keys
	}
	if ticket := model.selectedTicket(); ticket != nil {
		return []string{ticket.Key}
	}
	return nil
}

func (model *Model) toggleMark() {
	ticket := model.selectedTicket()
	if ticket == nil {
		return
	}
	if model.marked[ticket.Key] {
		delete(model.marked, ticket.Key)
	} else {
		model.marked[ticket.Key] = true
	}
	model.moveCursor(1)
}

// refresh starts a refresh cycle. On the Filters view it runs the
// selected filter instead.
func (model *Model) refresh() tea.Cmd {
	if model.activeTab == TabFilters && model.cursor < len(model.items) {
		name := model.items[model.cursor].Group
		for _, filter := range model.options.Filters {
			if filter.Name != name {
				continue
			}
			if err := model.engine.RunFilter(filter); err != nil {
				return model.setNotice(notice{text: "filter " + name + ": " + err.Error(), level: ticketsync.NoticeWarn})
			}
			return model.setNotice(notice{text: "running filter " + name})
		}
	}
	if model.engine.Refresh() == 0 {
		return model.setNotice(notice{text: "refresh is not available", level: ticketsync.NoticeWarn})
	}
	return model.setNotice(notice{text: "refreshing"})
}

// toggleGroup folds or unfolds the group under the cursor and parks
// the cursor on its header.
func (model *Model) toggleGroup() {
	header := model.headerAt(model.cursor)
	if header < 0 {
		return
	}
	id := model.items[header].groupID()
	folded := model.collapsedGroups()
	if folded[id] {
		delete(folded, id)
	} else {
		folded[id] = true
	}
	model.parkOn(header)
}

// toggleAllGroups folds every group of the tab, or unfolds them all
// when every one is already folded.
func (model *Model) toggleAllGroups() {
	folded := model.collapsedGroups()
	var ids []string
	allFolded := true
	for _, item := range model.items {
		if item.IsHeader() {
			ids = append(ids, item.groupID())
			allFolded = allFolded && folded[item.groupID()]
		}
	}
	if len(ids) == 0 {
		return
	}
	var current string
	if header := model.headerAt(model.cursor); header >= 0 {
		current = model.items[header].groupID()
	}
	for _, id := range ids {
		if allFolded {
			delete(folded, id)
		} else {
			folded[id] = true
		}
	}
	model.selectedKey = ""
	model.selectGroup(current)
}

func (model *Model) collapsedGroups() map[string]bool {
	folded := model.collapsed[model.activeTab]
	if folded == nil {
		folded = make(map[string]bool)
		model.collapsed[model.activeTab] = folded
	}
	return folded
}

// headerAt returns the index of the header at or above index, or -1.
func (model *Model) headerAt(index int) int {
	for index = min(index, len(model.items)-1); index >= 0; index-- {
		if model.items[index].IsHeader() {
			return index
		}
	}
	return -1
}

// parkOn rebuilds the list with the cursor on the row at index, which
// folding never moves.
func (model *Model) parkOn(index int) {
	model.cursor = index
	model.selectedKey = ""
	model.rebuildItems()
}

// selectedFilter returns the index of the saved filter whose group
// the cursor is in on the Filters view.
func (model *Model) selectedFilter() (int, bool) {
	if model.activeTab != TabFilters || model.cursor >= len(model.items) {
		return 0, false
	}
	name := model.items[model.cursor].Group
	index := slices.IndexFunc(model.options.Filters, func(filter jira.SavedFilter) bool {
		return filter.Name == name
	})
	return index, index >= 0
}

// openFilterForm opens the saved filter form, filled with the
// selected filter when editing.
func (model *Model) openFilterForm(editing bool) tea.Cmd {
	var form *filterForm
	if editing {
		index, ok := model.selectedFilter()
		if !ok {
			return nil
		}
		filter := model.options.Filters[index]
		form = newFilterForm("Edit filter "+filter.Name, filter, filter.Name, model.detailWidth())
	} else {
		form = newFilterForm("New saved filter", jira.SavedFilter{}, "", model.detailWidth())
	}
	if !model.overlayOpen() {
		model.priorFocus = model.focus
	}
	model.picker = nil
	model.prompt = nil
	model.form = form
	model.focus = FocusForm
	return textinput.Blink
}

// submitFilterForm saves the form's filter, replacing the one being
// edited or appending a new one. The form stays open on a rejected
// filter.
func (model *Model) submitFilterForm() tea.Cmd {
	form := model.form
	filter := form.Filter()
	if filter.Name == "" || filter.JQL == "" {
		return model.setNotice(notice{text: "both name and JQL are required", level: ticketsync.NoticeWarn})
	}
	filters := slices.Clone(model.options.Filters)
	index := slices.IndexFunc(filters, func(existing jira.SavedFilter) bool {
		return existing.Name == filter.Name
	})
	if index >= 0 && filter.Name != form.Original {
		return model.setNotice(notice{text: "a filter named " + filter.Name + " already exists", level: ticketsync.NoticeWarn})
	}

	if original := slices.IndexFunc(filters, func(existing jira.SavedFilter) bool {
		return form.Original != "" && existing.Name == form.Original
	}); original >= 0 {
		filters[original] = filter
	} else {
		filters = append(filters, filter)
	}
	if err := model.saveFilters(filters); err != nil {
		return model.noticeFor(err, "save filter "+filter.Name)
	}
	model.closeOverlay()
	model.selectGroup(filter.Name)
	return model.setNotice(notice{text: "saved filter " + filter.Name})
}

// deleteFilter removes the selected saved filter.
func (model *Model) deleteFilter() tea.Cmd {
	index, ok := model.selectedFilter()
	if !ok {
		return nil
	}
	name := model.options.Filters[index].Name
	filters := slices.Delete(slices.Clone(model.options.Filters), index, index+1)
	if err := model.saveFilters(filters); err != nil {
		return model.noticeFor(err, "delete filter "+name)
	}
	delete(model.collapsedGroups(), name)
	model.parkOn(model.cursor)
	return model.setNotice(notice{text: "deleted filter " + name})
}

// saveFilters persists filters and adopts them once they are saved.
func (model *Model) saveFilters(filters []jira.SavedFilter) error {
	if model.options.SaveFilters != nil {
		if err := model.options.SaveFilters(filters); err != nil {
			return err
		}
	}
	model.options.Filters = filters
	return nil
}

// selectGroup rebuilds the list with the cursor on the header of the
// named group, when it is listed.
func (model *Model) selectGroup(id string) {
	model.rebuildItems()
	for index, item := range model.items {
		if item.IsHeader() && item.groupID() == id {
			model.parkOn(index)
			return
		}
	}
}

// overlayOpen reports whether a picker, prompt, or form has focus.
func (model *Model) overlayOpen() bool {
	return model.focus == FocusPicker || model.focus == FocusPrompt || model.focus == FocusForm
}

func (model *Model) openPicker(menu *picker) {
	if !model.overlayOpen() {
		model.priorFocus = model.focus
	}
	model.picker = menu
	model.prompt = nil
	model.form = nil
	model.focus = FocusPicker
}

func (model *Model) openPrompt(input *prompt) tea.Cmd {
	if !model.overlayOpen() {
		model.priorFocus = model.focus
	}
	model.prompt = input
	model.picker = nil
	model.form = nil
	model.focus = FocusPrompt
	return textinput.Blink
}

func (model *Model) closeOverlay() {
	model.picker = nil
	model.prompt = nil
	model.form = nil
	model.focus = model.priorFocus
	if model.focus == FocusFilter {
		model.focus = FocusList
	}
	model.syncDetail()
}

func (model *Model) openMovePicker() tea.Cmd {
	keys := model.targets()
	if len(keys) == 0 {
		return nil
	}
	var current jira.Status
	if len(keys) == 1 {
		if ticket, ok := model.engine.View().Get(keys[0]); ok {
			current = ticket.Status
		}
	}
	model.openPicker(&picker{
		Title:   "Move " + describeKeys(keys) + " to",
		Action:  pickMoveStatus,
		Keys:    keys,
		Options: statusOptions(model.engine.Statuses(), current),
	})
	return nil
}

func (model *Model) openAssignPicker() tea.Cmd {
	keys := model.targets()
	if len(keys) == 0 {
		return nil
	}
	model.openPicker(&picker{
		Title:   "Assign " + describeKeys(keys) + " to",
		Action:  pickAssignee,
		Keys:    keys,
		Options: assigneeOptions(model.engine.Me(), model.engine.View().Members()),
	})
	return nil
}

func (model *Model) openCommentPrompt() tea.Cmd {
	ticket := model.selectedTicket()
	if ticket == nil {
		return nil
	}
	input := newPrompt(promptComment, "Comment on "+ticket.Key, "", model.detailWidth())
	input.Key = ticket.Key
	return model.openPrompt(input)
}

func (model *Model) openEditPrompt() tea.Cmd {
	ticket := model.selectedTicket()
	if ticket == nil {
		return nil
	}
	input := newPrompt(promptEdit, "Edit summary of "+ticket.Key, ticket.Summary, model.detailWidth())
	input.Key = ticket.Key
	return model.openPrompt(input)
}

// openCreatePrompt files the new ticket under the epic of the current
// group on the Epics view.
func (model *Model) openCreatePrompt() tea.Cmd {
	title := "New " + model.options.IssueType + " in " + model.engine.Project()
	var epicKey string
	if model.activeTab == TabEpics && model.cursor < len(model.items) {
		epicKey = model.items[model.cursor].Group
		if epicKey != "" {
			title += " under " + epicKey
		}
	}
	input := newPrompt(promptCreate, title, "", model.detailWidth())
	input.EpicKey = epicKey
	return model.openPrompt(input)
}

// choose acts on a picker selection.
func (model *Model) choose(option pickerOption) tea.Cmd {
	menu := model.picker
	switch menu.Action {
	case pickMoveStatus:
		if model.engine.Statuses().Classify(option.Status) == jira.ClassDone && len(model.options.Resolutions) > 0 {
			model.openPicker(&picker{
				Title:   "Resolve " + describeKeys(menu.Keys) + " as",
				Action:  pickResolution,
				Keys:    menu.Keys,
				Status:  option.Status,
				Options: resolutionOptions(model.options.Resolutions),
			})
			return nil
		}
		return model.submitAll(menu.Keys, func(key string) jira.Command {
			return jira.MoveCommand{Key: key, Status: option.Status}
		})

	case pickResolution:
		return model.submitAll(menu.Keys, func(key string) jira.Command {
			return jira.MoveCommand{Key: key, Status: menu.Status, Resolution: option.Resolution}
		})

	case pickAssignee:
		return model.submitAll(menu.Keys, func(key string) jira.Command {
			return jira.AssignCommand{Key: key, Assignee: option.Member}
		})
	}
	return nil
}

func (model *Model) submitPrompt() tea.Cmd {
	input := model.prompt
	value := input.Value()
	if value == "" {
		model.closeOverlay()
		return nil
	}

	switch input.Action {
	case promptComment:
		return model.submitAll([]string{input.Key}, func(key string) jira.Command {
			return jira.CommentCommand{Key: key, Body: value}
		})

	case promptEdit:
		ticket, ok := model.engine.View().Get(input.Key)
		if !ok {
			model.closeOverlay()
			return model.noticeFor(ticketsync.ErrUnknownTicket, "edit "+input.Key)
		}
		return model.submitAll([]string{input.Key}, func(key string) jira.Command {
			return jira.EditCommand{Key: key, Summary: value, Labels: ticket.Labels, PreviousLabels: ticket.Labels}
		})

	case promptCreate:
		model.closeOverlay()
		command := jira.CreateCommand{
			Project:  model.engine.Project(),
			Type:     model.options.IssueType,
			Summary:  value,
			Assignee: model.engine.Me(),
			EpicKey:  input.EpicKey,
		}
		if _, err := model.engine.Create(command); err != nil {
			return model.noticeFor(err, command.Describe())
		}
		model.rebuildItems()
		return model.setNotice(notice{text: command.Describe()})
	}
	return nil
}

// submitAll sends one command per key: a single Submit for one key, a
// bulk submission for several. Marks are cleared either way.
func (model *Model) submitAll(keys []string, build func(key string) jira.Command) tea.Cmd {
	model.closeOverlay()
	clear(model.marked)
	defer model.rebuildItems()

	if len(keys) == 1 {
		command := build(keys[0])
		if err := model.engine.Submit(command); err != nil {
			return model.noticeFor(err, command.Describe())
		}
		return model.setNotice(notice{text: command.Describe()})
	}

	commands := make([]jira.Command, 0, len(keys))
	for _, key := range keys {
		commands = append(commands, build(key))
	}
	receipt, err := model.engine.SubmitBulk(commands)
	if err != nil {
		return model.noticeFor(err, "bulk change")
	}
	text := fmt.Sprintf("submitted %d", len(receipt.Accepted))
	if len(receipt.Skipped) > 0 {
		text += fmt.Sprintf(", %d unchanged", len(receipt.Skipped))
	}
	if len(receipt.Rejected) > 0 {
		text += fmt.Sprintf(", %d busy", len(receipt.Rejected))
	}
	return model.setNotice(notice{text: text})
}

func (model *Model) noticeFor(err error, action string) tea.Cmd {
	level := ticketsync.NoticeError
	if errors.Is(err, ticketsync.ErrBusy) || errors.Is(err, ticketsync.ErrUnknownTicket) {
		level = ticketsync.NoticeWarn
	}
	return model.setNotice(notice{text: action + ": " + err.Error(), level: level})
}

// showNotices displays the last of a batch of engine notices and
// follows Select notices to the new ticket.
func (model *Model) showNotices(notices []ticketsync.Notice) tea.Cmd {
	if len(notices) == 0 {
		return nil
	}
	for _, engineNotice := range notices {
		if engineNotice.Select && engineNotice.Key != "" {
			model.selectedKey = engineNotice.Key
		}
	}
	last := notices[len(notices)-1]
	text := last.Message
	if last.Err != nil && last.Bulk == nil {
		text += ": " + last.Err.Error()
	}
	return model.setNotice(notice{text: text, level: last.Level})
}

func (model *Model) setNotice(next notice) tea.Cmd {
	model.noticeSequence++
	model.notice = next
	sequence := model.noticeSequence
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{sequence: sequence}
	})
}

// syncDetail re-renders the detail pane for the selected ticket,
// scrolling to the top when the selection changed.
func (model *Model) syncDetail() {
	if !model.ready {
		return
	}
	ticket := model.selectedTicket()
	if ticket == nil {
		model.detail.SetContent("")
		model.detailKey = ""
		return
	}
	view := model.engine.View()
	content := renderDetail(*ticket, detailState{
		Class:     view.Classify(ticket.Key),
		Mutation:  model.engine.MutationState(ticket.Key),
		Hydrating: model.engine.Hydrating(ticket.Key),
		Now:       model.clock.Now(),
		Spinner:   model.spinner.View(),
	}, model.theme, model.detailWidth())
	model.detail.SetContent(content)
	if model.detailKey != ticket.Key {
		model.detail.GotoTop()
		model.detailKey = ticket.Key
	}
}

// busyDetail reports whether the detail pane shows a spinner.
func (model *Model) busyDetail() bool {
	ticket := model.selectedTicket()
	if ticket == nil {
		return false
	}
	return model.engine.MutationState(ticket.Key) == ticketsync.MutationPending ||
		(!ticket.Hydrated && model.engine.Hydrating(ticket.Key))
}

func (model *Model) updatePaneSizes() {
	model.detail.Width = model.detailWidth()
	model.detail.Height = model.visibleHeight()
	model.syncDetail()
}

// listWidth returns the width of the list pane in columns.
func (model Model) listWidth() int {
	return int(float64(model.width) * splitRatio)
}

// detailWidth is what remains after the list and the divider.
func (model Model) detailWidth() int {
	return max(model.width-model.listWidth()-1, 10)
}

// visibleHeight returns the number of list rows between the top line
// and the separator plus status bar.
func (model Model) visibleHeight() int {
	return max(model.height-3, 0)
}

// ensureCursorVisible adjusts scrollOffset so the cursor is within
// the visible window.
func (model *Model) ensureCursorVisible() {
	visible := model.visibleHeight()
	if visible <= 0 {
		return
	}
	model.scrollOffset = min(model.scrollOffset, max(len(model.items)-visible, 0))
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
}

func describeKeys(keys []string) string {
	if len(keys) == 1 {
		return keys[0]
	}
	return fmt.Sprintf("%d tickets", len(keys))
}
