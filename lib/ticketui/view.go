// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// View implements tea.Model. Renders the tab bar, the two panes, and
// the status bar.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	top := model.filter.View(model.theme, model.width)
	if top == "" {
		top = model.renderHeader()
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		model.renderListPane(),
		model.renderDivider(),
		model.renderRightPane(),
	)
	if model.showHelp {
		content = model.renderHelp()
	}

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))

	return strings.Join([]string{top, content, separator, model.renderStatusBar()}, "\n")
}

// renderHeader renders the tab labels embedded in a horizontal rule
// with the cache size on the right.
//
// Example: ─── 1:My Work ─── 2:Team ─── ... ───── 42 cached ─
func (model Model) renderHeader() string {
	separatorStyle := lipgloss.NewStyle().Foreground(model.theme.BorderColor)
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	inactiveStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var left strings.Builder
	left.WriteString(separatorStyle.Render("───"))
	used := 3
	for index, tab := range tabs {
		label := fmt.Sprintf("%d:%s", index+1, tab)
		style := inactiveStyle
		if tab == model.activeTab {
			style = activeStyle
		}
		left.WriteString(" " + style.Render(label) + " ")
		used += ansi.StringWidth(label) + 2
		if index < len(tabs)-1 {
			left.WriteString(separatorStyle.Render("───"))
			used += 3
		}
	}

	stats := fmt.Sprintf("%d cached", model.engine.View().Len())
	if len(model.marked) > 0 {
		stats = fmt.Sprintf("%d marked  %s", len(model.marked), stats)
	}
	fill := max(model.width-used-ansi.StringWidth(stats)-3, 1)
	return left.String() +
		separatorStyle.Render(strings.Repeat("─", fill)) +
		" " + inactiveStyle.Render(stats) + " " + separatorStyle.Render("─")
}

func (model Model) renderListPane() string {
	width := model.listWidth()
	visible := model.visibleHeight()
	style := lipgloss.NewStyle().Width(width).Height(visible)

	if len(model.items) == 0 {
		message := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(model.emptyText())
		return style.Render(lipgloss.Place(width, visible, lipgloss.Center, lipgloss.Center, message))
	}

	renderer := NewListRenderer(model.theme, width)
	rows := make([]string, 0, visible)
	for index := model.scrollOffset; index < len(model.items) && len(rows) < visible; index++ {
		item := model.items[index]
		state := rowState{Selected: index == model.cursor}
		if item.Selectable() {
			state.Marked = model.marked[item.Ticket.Key]
			state.Mutation = model.engine.MutationState(item.Ticket.Key)
		}
		rows = append(rows, renderer.RenderItem(item, state))
	}
	return style.Render(strings.Join(rows, "\n"))
}

// emptyText explains an empty list: still loading, nothing matched,
// or nothing to show.
func (model Model) emptyText() string {
	status := model.engine.Status()
	switch {
	case status.State == ticketsync.StateCold:
		return model.spinner.View() + " loading tickets"
	case model.filter.Input != "":
		return "No tickets match " + fmt.Sprintf("%q", model.filter.Input)
	case model.activeTab == TabMyWork && model.engine.Me().IsZero():
		return "Waiting to learn who you are"
	case model.activeTab == TabFilters:
		return "No saved filters; press n to add one"
	default:
		return "No tickets"
	}
}

func (model Model) renderDivider() string {
	visible := model.visibleHeight()
	lines := make([]string, visible)
	for index := range lines {
		lines[index] = "│"
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Width(1).
		Height(visible).
		Render(strings.Join(lines, "\n"))
}

func (model Model) renderRightPane() string {
	width := model.detailWidth()
	style := lipgloss.NewStyle().Width(width).Height(model.visibleHeight()).MaxHeight(model.visibleHeight())
	switch {
	case model.picker != nil:
		return style.Render(model.picker.View(model.theme, width))
	case model.prompt != nil:
		return style.Render(model.prompt.View(model.theme, width))
	case model.form != nil:
		return style.Render(model.form.View(model.theme, width))
	case model.focus == FocusUpload && model.upload != nil:
		return style.Render(model.renderUpload(width))
	default:
		return style.Render(model.detail.View())
	}
}

// renderUpload keeps the key hint visible below however many preview
// rows fit.
func (model Model) renderUpload(width int) string {
	lines := strings.Split(model.upload.View(model.theme, width), "\n")
	if limit := max(model.visibleHeight()-2, 1); len(lines) > limit {
		lines = lines[:limit]
	}
	hint := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(model.upload.hint())
	return strings.Join(append(lines, "", hint), "\n")
}

// renderHelp draws the key reference centered over both panes.
func (model Model) renderHelp() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).Render("Keybindings")
	hint := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("Press ? or Esc to close")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.BorderColor).
		Padding(0, 1).
		Render(strings.Join([]string{title, "", model.help.View(model.keys), "", hint}, "\n"))
	return lipgloss.Place(model.width, model.visibleHeight(), lipgloss.Center, lipgloss.Center, box)
}

// renderStatusBar shows the current notice, or key help when there is
// none, with the loading state on the right.
func (model Model) renderStatusBar() string {
	left := model.renderNotice()
	if left == "" {
		left = lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(model.helpLine())
	}
	right := model.renderLoadState()

	gap := model.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		left = ansi.Truncate(left, max(model.width-ansi.StringWidth(right)-1, 0), "…")
		gap = max(model.width-ansi.StringWidth(left)-ansi.StringWidth(right), 0)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (model Model) renderNotice() string {
	if model.notice.text == "" {
		return ""
	}
	color := model.theme.InfoForeground
	switch model.notice.level {
	case ticketsync.NoticeWarn:
		color = model.theme.WarnForeground
	case ticketsync.NoticeError:
		color = model.theme.ErrorForeground
	}
	return lipgloss.NewStyle().Foreground(color).Render(" " + model.notice.text)
}

func (model Model) helpLine() string {
	parts := []string{"[" + model.focus.String() + "]"}
	for _, binding := range model.keys.ShortHelp() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return " " + strings.Join(parts, "  ")
}

// renderLoadState summarizes background activity: the cache state,
// the snapshot age while showing cached data, and in-flight work.
func (model Model) renderLoadState() string {
	status := model.engine.Status()
	now := model.clock.Now()
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var segments []string
	switch status.State {
	case ticketsync.StateCold:
		segments = append(segments, model.spinner.View()+" loading")
	case ticketsync.StateCached:
		segments = append(segments, model.spinner.View()+" cached "+formatAge(status.SnapshotAge(now)))
	case ticketsync.StateRefreshing:
		segments = append(segments, model.spinner.View()+" refreshing")
	case ticketsync.StateReady:
		segments = append(segments, "updated "+formatAge(now.Sub(status.LastRefresh)))
	}
	if status.Hydrating > 0 {
		segments = append(segments, fmt.Sprintf("%d loading", status.Hydrating))
	}
	if status.Pending+status.Creating > 0 {
		segments = append(segments, fmt.Sprintf("%d saving", status.Pending+status.Creating))
	}
	return faint.Render(strings.Join(segments, " · ") + " ")
}
