// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import "fmt"

// FetchError reports a failed read from Jira. Fetch failures are
// transient: callers log them and try again on the next refresh.
type FetchError struct {
	// Operation is the fetch kind ("query", "epics", "detail", "me").
	Operation string

	// Target is the query text, project, or ticket key.
	Target string

	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Operation, e.Target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutateError reports a command Jira rejected or that could not be
// sent. The optimistic change for the command is reverted.
type MutateError struct {
	Command Command
	Err     error
}

func (e *MutateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command.Describe(), e.Err)
}

func (e *MutateError) Unwrap() error { return e.Err }
