// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package jiracli talks to Jira through the jira command-line client
// (github.com/ankitpokhrel/jira-cli). It implements the ticket source
// the sync engine reads from and writes to.
//
// Ticket lists come from "jira issue list --plain" in tab-separated
// form; ticket detail comes from "jira issue view --raw" as JSON.
// Mutations map one-to-one onto jira issue subcommands, always with
// --no-input so the CLI never prompts.
//
// All subprocess execution goes through [Runner], so tests script the
// CLI's output without a jira binary on PATH.
package jiracli
