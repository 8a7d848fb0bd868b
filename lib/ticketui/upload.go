// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jiradeck/jiradeck/lib/bulkcreate"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// uploadPhase is where a bulk upload stands.
type uploadPhase int

const (
	uploadPath uploadPhase = iota
	uploadPreview
	uploadRunning
	uploadResult
)

// upload is a CSV bulk upload: a path prompt, a checked preview, then
// one creation at a time until every valid row has an outcome.
type upload struct {
	phase   uploadPhase
	path    textinput.Model
	loading bool
	err     string

	preview *bulkcreate.Preview
	offset  int

	// queue holds the rows not yet sent. pending is the provisional
	// id of the row Jira is creating, current that row.
	queue   []bulkcreate.Row
	pending string
	current bulkcreate.Row
	result  bulkcreate.Result
}

// uploadLoadedMsg carries a parsed CSV back to Update.
type uploadLoadedMsg struct {
	path    string
	preview *bulkcreate.Preview
	err     error
}

func newUpload(width int) *upload {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "path to a CSV file"
	input.Width = max(width-4, 10)
	input.Focus()
	return &upload{phase: uploadPath, path: input}
}

// openUpload shows the upload overlay, returning to a running upload
// when there is one.
func (model *Model) openUpload() tea.Cmd {
	if model.focus != FocusUpload {
		model.priorFocus = model.focus
	}
	model.picker = nil
	model.prompt = nil
	model.form = nil
	model.focus = FocusUpload
	if model.upload != nil && model.upload.phase == uploadRunning {
		return nil
	}
	model.upload = newUpload(model.detailWidth())
	return textinput.Blink
}

// closeUpload hides the overlay. A running upload keeps going and
// reports its result in the status bar.
func (model *Model) closeUpload() {
	if model.upload != nil && model.upload.phase != uploadRunning {
		model.upload = nil
	}
	model.focus = model.priorFocus
	if model.focus == FocusFilter || model.focus == FocusUpload {
		model.focus = FocusList
	}
	model.syncDetail()
}

// loadUpload parses path off the update loop. The cache is read here,
// on the loop, so the command only touches the file.
func (model *Model) loadUpload(path string) tea.Cmd {
	context := bulkcreate.NewContext(model.engine.View(), model.options.IssueTypes)
	model.upload.loading = true
	model.upload.err = ""
	return func() tea.Msg {
		preview, err := bulkcreate.ParseFile(path, context)
		return uploadLoadedMsg{path: path, preview: preview, err: err}
	}
}

func (model *Model) uploadLoaded(message uploadLoadedMsg) {
	current := model.upload
	if current == nil || current.phase == uploadRunning {
		return
	}
	current.loading = false
	if message.err != nil {
		current.phase = uploadPath
		current.path.SetValue(message.path)
		current.path.CursorEnd()
		current.err = message.err.Error()
		return
	}
	current.phase = uploadPreview
	current.preview = message.preview
	current.offset = 0
}

func (model Model) handleUploadKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	current := model.upload
	if current.loading {
		if message.Type == tea.KeyEsc {
			model.closeUpload()
		}
		return model, nil
	}

	switch current.phase {
	case uploadPath:
		switch message.Type {
		case tea.KeyEsc:
			model.closeUpload()
			return model, nil
		case tea.KeyEnter:
			path := strings.TrimSpace(current.path.Value())
			if path == "" {
				return model, nil
			}
			return model, model.loadUpload(path)
		}
		var cmd tea.Cmd
		current.path, cmd = current.path.Update(message)
		return model, cmd

	case uploadPreview:
		switch {
		case message.Type == tea.KeyEsc:
			model.closeUpload()
		case key.Matches(message, model.keys.Up):
			current.offset = max(current.offset-1, 0)
		case key.Matches(message, model.keys.Down):
			current.offset = min(current.offset+1, max(len(current.preview.Rows)-1, 0))
		case key.Matches(message, model.keys.Refresh):
			return model, model.loadUpload(current.preview.Path)
		case message.Type == tea.KeyEnter || message.String() == "y":
			return model, model.startUpload()
		}

	case uploadRunning:
		if message.Type == tea.KeyEsc {
			model.closeUpload()
		}

	case uploadResult:
		switch {
		case message.Type == tea.KeyEsc || message.Type == tea.KeyEnter || message.String() == "q":
			model.closeUpload()
		case key.Matches(message, model.keys.Refresh):
			return model, model.loadUpload(current.result.Path)
		}
	}
	return model, nil
}

// startUpload files the preview's rows, one creation at a time.
func (model *Model) startUpload() tea.Cmd {
	current := model.upload
	if !current.preview.CanSubmit() {
		return model.setNotice(notice{
			text:  "upload blocked: fix invalid rows in the CSV and reload the preview",
			level: ticketsync.NoticeWarn,
		})
	}
	current.phase = uploadRunning
	current.queue = current.preview.ValidRows()
	current.result = bulkcreate.NewResult(current.preview)
	return model.advanceUpload()
}

// advanceUpload sends the next queued row, recording rows the engine
// refuses outright, and finishes the upload when the queue is empty.
func (model *Model) advanceUpload() tea.Cmd {
	current := model.upload
	for len(current.queue) > 0 {
		row := current.queue[0]
		current.queue = current.queue[1:]
		id, err := model.engine.Create(row.Command(model.engine.Project()))
		if err != nil {
			current.result.Failed = append(current.result.Failed, bulkcreate.Failure{Row: row.Number, Summary: row.Summary, Err: err})
			continue
		}
		current.pending = id
		current.current = row
		return nil
	}

	current.phase = uploadResult
	current.pending = ""
	level := ticketsync.NoticeInfo
	if len(current.result.Failed) > 0 {
		level = ticketsync.NoticeWarn
	}
	return model.setNotice(notice{text: current.result.String(), level: level})
}

// trackUpload records the outcome of the row in flight when the
// notices end its creation.
func (model *Model) trackUpload(notices []ticketsync.Notice) tea.Cmd {
	current := model.upload
	if current == nil || current.phase != uploadRunning || current.pending == "" {
		return nil
	}
	for _, engineNotice := range notices {
		if engineNotice.Creation != current.pending {
			continue
		}
		if engineNotice.Err != nil {
			current.result.Failed = append(current.result.Failed, bulkcreate.Failure{
				Row:     current.current.Number,
				Summary: current.current.Summary,
				Err:     engineNotice.Err,
			})
		} else {
			current.result.Created = append(current.result.Created, engineNotice.Key)
		}
		current.pending = ""
		return model.advanceUpload()
	}
	return nil
}

// View renders the current phase at width.
func (current *upload) View(theme Theme, width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	errorStyle := lipgloss.NewStyle().Foreground(theme.ErrorForeground)
	warnStyle := lipgloss.NewStyle().Foreground(theme.WarnForeground)
	truncate := func(text string) string { return ansi.Truncate(text, width, "…") }

	var lines []string
	switch current.phase {
	case uploadPath:
		lines = append(lines, title.Render("Bulk upload from CSV"), "", current.path.View(), "")
		if current.err != "" {
			lines = append(lines, errorStyle.Render(truncate(current.err)), "")
		}
		lines = append(lines, faint.Render("columns: summary (required), type, assignee_email, epic_key, labels, description"))

	case uploadPreview:
		preview := current.preview
		lines = append(lines,
			title.Render(truncate("Preview of "+preview.Path)),
			faint.Render(fmt.Sprintf("%d rows · %d valid · %d invalid · %d warnings",
				preview.Total, preview.Valid, preview.Invalid, preview.Warnings)),
			"")
		for _, row := range preview.Rows[min(current.offset, len(preview.Rows)):] {
			lines = append(lines, truncate(fmt.Sprintf("%3d  %-6s %s", row.Number, row.Type, row.Summary)))
			for _, problem := range row.Errors {
				lines = append(lines, errorStyle.Render(truncate("     ✗ "+problem)))
			}
			for _, warning := range row.Warnings {
				lines = append(lines, warnStyle.Render(truncate("     ! "+warning)))
			}
		}

	case uploadRunning:
		result := current.result
		done := len(result.Created) + len(result.Failed)
		lines = append(lines,
			title.Render(fmt.Sprintf("Creating %d of %d", min(done+1, result.Attempted), result.Attempted)),
			truncate(current.current.Summary),
			"",
			faint.Render(fmt.Sprintf("%d created · %d failed", len(result.Created), len(result.Failed))))

	case uploadResult:
		result := current.result
		lines = append(lines, title.Render(truncate(result.String())), "")
		if len(result.Created) > 0 {
			lines = append(lines, truncate("created "+strings.Join(result.Created, ", ")), "")
		}
		for _, failure := range result.Failed {
			lines = append(lines, errorStyle.Render(truncate(fmt.Sprintf("row %d %q: %v", failure.Row, failure.Summary, failure.Err))))
		}
	}
	return strings.Join(lines, "\n")
}

// hint is the key help line for the current phase.
func (current *upload) hint() string {
	if current.loading {
		return "loading…  Esc close"
	}
	switch current.phase {
	case uploadPath:
		return "Enter preview  Esc cancel"
	case uploadPreview:
		if !current.preview.CanSubmit() {
			return "fix invalid rows, then r reload  j/k scroll  Esc cancel"
		}
		return "Enter submit  r reload  j/k scroll  Esc cancel"
	case uploadRunning:
		return "Esc hide (the upload continues)"
	default:
		return "Enter close  r reload"
	}
}
