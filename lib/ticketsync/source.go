// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// Source is the external ticket system. Implementations must be safe
// for concurrent use: the engine calls them from many goroutines.
//
// Fetch methods return *jira.FetchError on failure and Mutate returns
// *jira.MutateError.
type Source interface {
	FetchByQuery(ctx context.Context, query jira.Query) ([]jira.Ticket, error)
	FetchEpics(ctx context.Context, project string) ([]jira.EpicTree, error)
	FetchDetail(ctx context.Context, key string) (jira.TicketDetail, error)
	Mutate(ctx context.Context, command jira.Command) (jira.MutationOutcome, error)
}

// Identifier is implemented by sources that can name the
// authenticated user. The engine asks once at start when no user is
// configured.
type Identifier interface {
	CurrentUser(ctx context.Context) (jira.TeamMember, error)
}

// guard runs one Source call and turns a panic into an ErrSourcePanic
// error, so the call's result message is still sent and the key it
// concerns does not stay in flight for the rest of the session.
func (engine *Engine) guard(operation string, call func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			engine.logger.Error("ticket source panicked",
				"operation", operation,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%s: %w: %v", operation, ErrSourcePanic, recovered)
		}
	}()
	return call()
}
