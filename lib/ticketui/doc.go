// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticketui implements the terminal interface for browsing and
// changing Jira tickets. Built on bubbletea (Elm architecture), it
// shows a grouped ticket list beside a detail pane and drives a
// [ticketsync.Engine] from the bubbletea event loop.
//
// The engine's background tasks report on [ticketsync.Engine.Messages].
// The model receives those messages as tea.Msg values and passes each
// to [ticketsync.Engine.Apply] inside Update, so the cache is only ever
// touched from the bubbletea goroutine. Notices returned by Apply are
// shown in the status bar.
//
// Data flow:
//
//	[jira CLI] <- Source <- [Engine] -> Messages()
//	                           ^              |
//	                         Apply  <-  [Model] <- bubbletea event loop
//	                                          |
//	                                  [terminal output]
//
// Views (switched with 1-5):
//
//   - My Work: the current user's tickets grouped by status, with the
//     Done group capped to the most recent few.
//   - Team: one group per roster member with their active tickets.
//   - Epics: each epic with a progress bar and its children.
//   - Unassigned: active tickets nobody owns.
//   - Filters: the saved JQL filters from configuration, run on demand.
package ticketui
