// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketcache"
	"github.com/jiradeck/jiradeck/lib/workpool"
)

// MutationState is a ticket's position in the mutation state machine.
type MutationState int

const (
	// MutationIdle: no command has been submitted for the key by this
	// engine.
	MutationIdle MutationState = iota

	// MutationPending: a command is in flight and its optimistic
	// change is in the cache.
	MutationPending

	// MutationCommitted: the last command succeeded.
	MutationCommitted

	// MutationRolledBack: the last command failed and the ticket was
	// restored to its pre-image.
	MutationRolledBack
)

func (state MutationState) String() string {
	switch state {
	case MutationIdle:
		return "idle"
	case MutationPending:
		return "pending"
	case MutationCommitted:
		return "committed"
	case MutationRolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("mutation_state(%d)", int(state))
	}
}

type pendingMutation struct {
	id       uint64
	command  jira.Command
	preimage ticketcache.Preimage

	// bulk is the id of the bulk operation the command belongs to,
	// zero for single commands.
	bulk uint64
}

type pendingCreation struct {
	id          string
	command     jira.CreateCommand
	ticket      jira.Ticket
	submittedAt time.Time
}

type bulkRun struct {
	summary   BulkSummary
	remaining int
}

// ProvisionalTicket is a ticket whose creation has not been confirmed
// by Jira. It has no key yet.
type ProvisionalTicket struct {
	ID          string
	Ticket      jira.Ticket
	SubmittedAt time.Time
}

// MutationState returns the state of key's most recent mutation.
func (engine *Engine) MutationState(key string) MutationState {
	if engine.isPending(key) {
		return MutationPending
	}
	return engine.resolved[key]
}

func (engine *Engine) isPending(key string) bool {
	_, ok := engine.pending[key]
	return ok
}

// Submit applies command to the cache immediately and sends it to Jira
// in the background. The outcome arrives later as a Notice from Apply:
// the optimistic change stays on success and is reverted exactly on
// failure.
//
// Returns ErrBusy when a command for the same key is pending and
// ErrUnknownTicket when the key is not cached. Use Create for
// jira.CreateCommand.
func (engine *Engine) Submit(command jira.Command) error {
	return engine.submit(command, 0)
}

func (engine *Engine) submit(command jira.Command, bulk uint64) error {
	if err := engine.checkRunning(); err != nil {
		return err
	}
	if command == nil {
		return errors.New("ticketsync: nil command")
	}
	if _, isCreate := command.(jira.CreateCommand); isCreate {
		return errors.New("ticketsync: use Create for new tickets")
	}
	if err := command.Validate(); err != nil {
		return err
	}

	key := command.TicketKey()
	if engine.isPending(key) {
		return fmt.Errorf("%s: %w", key, ErrBusy)
	}
	preimage, ok := engine.store.Capture(key)
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrUnknownTicket)
	}

	engine.store.ApplyProvisional(engine.provisional(preimage.Ticket(), command))
	engine.nextMutation++
	pending := &pendingMutation{
		id:       engine.nextMutation,
		command:  command,
		preimage: preimage,
		bulk:     bulk,
	}
	engine.pending[key] = pending
	delete(engine.resolved, key)

	accepted := engine.pool.Submit(workpool.High, func(ctx context.Context) {
		var outcome jira.MutationOutcome
		err := engine.guard("mutate "+key, func() (err error) {
			outcome, err = engine.source.Mutate(ctx, command)
			return err
		})
		engine.send(mutationResult{key: key, id: pending.id, outcome: outcome, err: err})
	})
	if !accepted {
		engine.store.Revert(preimage)
		delete(engine.pending, key)
		return ErrClosed
	}

	engine.logger.Debug("mutation dispatched", "key", key, "command", command.Describe())
	return nil
}

// provisional returns ticket with command applied and an activity
// entry recording the change prepended.
func (engine *Engine) provisional(ticket jira.Ticket, command jira.Command) jira.Ticket {
	now := engine.clock.Now()
	author := engine.me.String()
	entry := func(kind jira.ActivityKind) jira.ActivityEntry {
		return jira.ActivityEntry{Timestamp: now, Author: author, Kind: kind}
	}

	var entries []jira.ActivityEntry
	switch command := command.(type) {
	case jira.MoveCommand:
		change := entry(jira.ActivityStatusChange)
		change.Field = "status"
		change.From = ticket.Status.String()
		change.To = command.Status.String()
		entries = append(entries, change)
		ticket.Status = command.Status

	case jira.AssignCommand:
		assignee := engine.resolveMember(command.Assignee)
		change := entry(jira.ActivityAssigneeChange)
		change.Field = "assignee"
		change.From = ticket.Assignee.String()
		change.To = assignee.String()
		entries = append(entries, change)
		ticket.Assignee = assignee

	case jira.CommentCommand:
		comment := entry(jira.ActivityComment)
		comment.Body = command.Body
		entries = append(entries, comment)

	case jira.EditCommand:
		if command.Summary != ticket.Summary {
			change := entry(jira.ActivityFieldChange)
			change.Field = "summary"
			change.From = ticket.Summary
			change.To = command.Summary
			entries = append(entries, change)
			ticket.Summary = command.Summary
		}
		labels := jira.NormalizeLabels(command.Labels)
		if !slices.Equal(labels, ticket.Labels) {
			change := entry(jira.ActivityFieldChange)
			change.Field = "labels"
			change.From = strings.Join(ticket.Labels, ", ")
			change.To = strings.Join(labels, ", ")
			entries = append(entries, change)
			ticket.Labels = labels
		}
	}

	ticket.Activity = append(entries, ticket.Activity...)
	ticket.UpdatedAt = now
	return ticket
}

func (engine *Engine) applyMutation(msg mutationResult) []Notice {
	pending, ok := engine.pending[msg.key]
	if !ok || pending.id != msg.id {
		engine.logger.Debug("ignoring result of superseded mutation", "key", msg.key)
		return nil
	}
	delete(engine.pending, msg.key)

	var notices []Notice
	if msg.err != nil {
		engine.store.Revert(pending.preimage)
		engine.resolved[msg.key] = MutationRolledBack
		engine.logger.Warn("mutation failed, change reverted",
			"key", msg.key,
			"command", pending.command.Describe(),
			"error", msg.err,
		)
		if pending.bulk == 0 {
			notices = append(notices, Notice{
				Level:   NoticeError,
				Message: "could not " + pending.command.Describe() + ", change reverted",
				Key:     msg.key,
				Err:     msg.err,
			})
		}
	} else {
		engine.resolved[msg.key] = MutationCommitted
		engine.logger.Info("mutation committed", "key", msg.key, "command", pending.command.Describe())
		if pending.bulk == 0 {
			notices = append(notices, Notice{
				Level:   NoticeInfo,
				Message: pending.command.Describe(),
				Key:     msg.key,
			})
		}
	}

	if pending.bulk != 0 {
		notices = append(notices, engine.bulkResolved(pending.bulk, msg.key, msg.err)...)
	}
	engine.rehydrate(msg.key)
	return notices
}

// Create queues a new ticket. The provisional ticket is held outside
// the cache, listed by PendingCreations, until Jira assigns it a key;
// it is then merged and a Notice with Select set names the new key.
// An empty command.Project defaults to the engine's project. Returns
// the provisional id.
func (engine *Engine) Create(command jira.CreateCommand) (string, error) {
	if err := engine.checkRunning(); err != nil {
		return "", err
	}
	if command.Project == "" {
		command.Project = engine.config.Project
	}
	if err := command.Validate(); err != nil {
		return "", err
	}

	now := engine.clock.Now()
	creation := &pendingCreation{
		id:      uuid.NewString(),
		command: command,
		ticket: jira.Ticket{
			Summary:     command.Summary,
			Type:        command.Type,
			Status:      jira.StatusToDo,
			Assignee:    engine.resolveMember(command.Assignee),
			Reporter:    engine.me.String(),
			Labels:      jira.NormalizeLabels(command.Labels),
			EpicKey:     command.EpicKey,
			Description: command.Description,
			UpdatedAt:   now,
		},
		submittedAt: now,
	}
	engine.creations[creation.id] = creation

	accepted := engine.pool.Submit(workpool.High, func(ctx context.Context) {
		var outcome jira.MutationOutcome
		err := engine.guard("create", func() (err error) {
			outcome, err = engine.source.Mutate(ctx, command)
			return err
		})
		engine.send(creationResult{id: creation.id, outcome: outcome, err: err})
	})
	if !accepted {
		delete(engine.creations, creation.id)
		return "", ErrClosed
	}

	engine.logger.Debug("creation dispatched", "id", creation.id, "command", command.Describe())
	return creation.id, nil
}

func (engine *Engine) applyCreation(msg creationResult) []Notice {
	creation, ok := engine.creations[msg.id]
	if !ok {
		return nil
	}
	delete(engine.creations, msg.id)

	if msg.err != nil {
		engine.logger.Warn("ticket creation failed", "id", msg.id, "summary", creation.command.Summary, "error", msg.err)
		return []Notice{{
			Level:    NoticeError,
			Message:  "could not " + creation.command.Describe(),
			Err:      msg.err,
			Creation: msg.id,
		}}
	}

	ticket := creation.ticket
	ticket.Key = msg.outcome.Key
	ticket.URL = msg.outcome.URL
	engine.store.Merge(ticketcache.Batch{
		Scope:     ticketcache.ScopeCreated,
		StartedAt: creation.submittedAt,
		Tickets:   []jira.Ticket{ticket},
	})
	engine.resolved[ticket.Key] = MutationCommitted
	engine.logger.Info("ticket created", "key", ticket.Key, "id", msg.id)
	return []Notice{{
		Level:    NoticeInfo,
		Message:  "created " + ticket.Key,
		Key:      ticket.Key,
		Select:   true,
		Creation: msg.id,
	}}
}

// PendingCreations lists tickets awaiting a key, oldest first.
func (engine *Engine) PendingCreations() []ProvisionalTicket {
	provisional := make([]ProvisionalTicket, 0, len(engine.creations))
	for _, creation := range engine.creations {
		provisional = append(provisional, ProvisionalTicket{
			ID:          creation.id,
			Ticket:      creation.ticket.Clone(),
			SubmittedAt: creation.submittedAt,
		})
	}
	slices.SortFunc(provisional, func(a, b ProvisionalTicket) int {
		if order := a.SubmittedAt.Compare(b.SubmittedAt); order != 0 {
			return order
		}
		return strings.Compare(a.ID, b.ID)
	})
	return provisional
}

// SubmitBulk submits each command through the single-command protocol.
// Unknown keys and commands that would change nothing are skipped;
// keys with a pending mutation, or commands that fail validation, are
// rejected. The accepted commands run concurrently on the worker pool,
// and when the last one resolves Apply returns a Notice carrying the
// BulkSummary.
func (engine *Engine) SubmitBulk(commands []jira.Command) (BulkReceipt, error) {
	if err := engine.checkRunning(); err != nil {
		return BulkReceipt{}, err
	}
	engine.nextBulk++
	receipt := BulkReceipt{ID: engine.nextBulk, Rejected: make(map[string]error)}

	for _, command := range commands {
		if command == nil {
			continue
		}
		key := command.TicketKey()
		ticket, cached := engine.store.Get(key)
		switch {
		case !cached:
			receipt.Skipped = append(receipt.Skipped, key)
			continue
		case unchangedBy(ticket, command):
			receipt.Skipped = append(receipt.Skipped, key)
			continue
		}
		if err := engine.submit(command, receipt.ID); err != nil {
			receipt.Rejected[key] = err
			continue
		}
		receipt.Accepted = append(receipt.Accepted, key)
	}

	if len(receipt.Accepted) > 0 {
		engine.bulks[receipt.ID] = &bulkRun{
			remaining: len(receipt.Accepted),
			summary: BulkSummary{
				ID:       receipt.ID,
				Failed:   make(map[string]error),
				Skipped:  slices.Clone(receipt.Skipped),
				Rejected: maps.Clone(receipt.Rejected),
			},
		}
	}
	engine.logger.Debug("bulk mutation submitted",
		"bulk", receipt.ID,
		"accepted", len(receipt.Accepted),
		"skipped", len(receipt.Skipped),
		"rejected", len(receipt.Rejected),
	)
	return receipt, nil
}

func (engine *Engine) bulkResolved(id uint64, key string, err error) []Notice {
	run, ok := engine.bulks[id]
	if !ok {
		return nil
	}
	if err != nil {
		run.summary.Failed[key] = err
	} else {
		run.summary.Succeeded = append(run.summary.Succeeded, key)
	}
	run.remaining--
	if run.remaining > 0 {
		return nil
	}

	delete(engine.bulks, id)
	summary := run.summary
	slices.SortFunc(summary.Succeeded, jira.CompareKeys)
	level := NoticeInfo
	if len(summary.Failed) > 0 {
		level = NoticeWarn
	}
	if len(summary.Succeeded) == 0 {
		level = NoticeError
	}
	return []Notice{{
		Level:   level,
		Message: "bulk update: " + summary.String(),
		Bulk:    &summary,
	}}
}

// unchangedBy reports whether applying command to ticket would change
// nothing: a move to the current status or an assignment to the
// current assignee.
func unchangedBy(ticket jira.Ticket, command jira.Command) bool {
	switch command := command.(type) {
	case jira.MoveCommand:
		return ticket.Status == command.Status
	case jira.AssignCommand:
		if command.Assignee.IsZero() || !ticket.IsAssigned() {
			return command.Assignee.IsZero() && !ticket.IsAssigned()
		}
		return ticket.Assignee.Same(command.Assignee)
	default:
		return false
	}
}

func (engine *Engine) checkRunning() error {
	if engine.closed {
		return ErrClosed
	}
	if engine.ctx == nil {
		return ErrNotStarted
	}
	return nil
}
