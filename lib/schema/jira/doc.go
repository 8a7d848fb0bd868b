// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package jira defines the record types shared by the ticket cache,
// the refresh and mutation engine, and the jira CLI adapter: tickets,
// epics, team members, statuses, saved filters, detail payloads, and
// the mutation commands sent back to Jira.
//
// These are passive values. Ownership rules (who may change a ticket,
// and when) live in lib/ticketcache and lib/ticketsync. Struct tags
// use json names; the CBOR codec in lib/codec falls back to them, so a
// single set of tags serves both the snapshot file and the JSON output
// of "jiradeck cache inspect".
package jira
