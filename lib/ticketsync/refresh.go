// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketcache"
)

// cycle tracks the stages of one refresh that have not reported yet.
type cycle struct {
	id        uint64
	startedAt time.Time
	remaining int
	failed    []Stage
}

// saveRequest is a snapshot waiting for the save goroutine.
type saveRequest struct {
	cycle    uint64
	snapshot *ticketcache.Snapshot
}

// Refresh starts a new refresh cycle. It does not flush the cache and
// does not cancel cycles already running. Returns the cycle id, or
// zero when the engine is not running.
func (engine *Engine) Refresh() uint64 {
	if engine.closed || engine.ctx == nil {
		return 0
	}
	return engine.startCycle()
}

func (engine *Engine) startCycle() uint64 {
	engine.nextCycle++
	current := &cycle{
		id:        engine.nextCycle,
		startedAt: engine.clock.Now(),
		remaining: len(stages),
	}
	engine.cycles[current.id] = current
	engine.logger.Debug("refresh cycle started", "cycle", current.id, "project", engine.config.Project)

	activeQuery := engine.activeQuery()
	doneQuery := engine.doneWindowQuery()
	for _, stage := range stages {
		go engine.runStage(current.id, stage, activeQuery, doneQuery)
	}
	return current.id
}

// runStage performs one stage's fetch on its own goroutine. Stage
// fetches bypass the worker pool: there are only three per cycle and
// they must not queue behind hydration.
func (engine *Engine) runStage(cycleID uint64, stage Stage, activeQuery, doneQuery jira.Query) {
	result := stageResult{cycle: cycleID, stage: stage, startedAt: engine.clock.Now()}
	result.err = engine.guard(stage.String()+" stage", func() (err error) {
		switch stage {
		case StageActive:
			result.tickets, err = engine.source.FetchByQuery(engine.ctx, activeQuery)
		case StageDoneWindow:
			result.tickets, err = engine.source.FetchByQuery(engine.ctx, doneQuery)
		case StageEpics:
			result.epics, err = engine.source.FetchEpics(engine.ctx, engine.config.Project)
		}
		return err
	})
	engine.send(result)
}

func (engine *Engine) applyStage(msg stageResult) []Notice {
	current, ok := engine.cycles[msg.cycle]
	if !ok {
		engine.logger.Warn("stage result for unknown refresh cycle", "cycle", msg.cycle, "stage", msg.stage.String())
		return nil
	}
	current.remaining--

	var notices []Notice
	if msg.err != nil {
		current.failed = append(current.failed, msg.stage)
		engine.logger.Warn("refresh stage failed",
			"cycle", msg.cycle,
			"stage", msg.stage.String(),
			"error", msg.err,
		)
		notices = append(notices, Notice{
			Level:   NoticeWarn,
			Message: "could not fetch " + msg.stage.String() + " tickets",
			Err:     msg.err,
		})
	} else {
		engine.mergeStage(msg)
	}

	if current.remaining == 0 {
		notices = append(notices, engine.finishCycle(current)...)
	}
	return notices
}

func (engine *Engine) mergeStage(msg stageResult) {
	switch msg.stage {
	case StageActive:
		batch := ticketcache.Batch{
			Scope:     ticketcache.ScopeActive,
			StartedAt: msg.startedAt,
			Tickets:   engine.admissible(msg.tickets),
		}
		result := engine.store.Merge(batch)
		engine.logger.Debug("active tickets merged",
			"cycle", msg.cycle,
			"inserted", result.Inserted,
			"updated", result.Updated,
		)
		engine.requestHydration(msg.cycle, batch.Keys())

	case StageDoneWindow:
		batch := ticketcache.Batch{
			Scope:     ticketcache.ScopeDoneWindow,
			StartedAt: msg.startedAt,
			Tickets:   engine.admissible(msg.tickets),
		}
		evicted := engine.store.ReplaceDoneWindow(batch, engine.isPending)
		for _, key := range evicted {
			engine.forget(key)
		}
		engine.logger.Debug("done window replaced",
			"cycle", msg.cycle,
			"tickets", len(batch.Tickets),
			"evicted", len(evicted),
		)

	case StageEpics:
		var tickets []jira.Ticket
		epics := make([]jira.Epic, 0, len(msg.epics))
		for _, tree := range msg.epics {
			epics = append(epics, tree.Epic)
			tickets = append(tickets, tree.Children...)
		}
		batch := ticketcache.Batch{
			Scope:     ticketcache.ScopeEpic,
			StartedAt: msg.startedAt,
			Tickets:   engine.admissible(tickets),
			Epics:     epics,
		}
		engine.store.Merge(batch)
		engine.logger.Debug("epics merged", "cycle", msg.cycle, "epics", len(epics), "children", len(batch.Tickets))
		engine.requestHydration(msg.cycle, batch.Keys())
	}
}

// admissible prepares fetched tickets for a merge: assignees are
// matched against the roster to recover their email, and tickets with
// a pending mutation are dropped so the fetch cannot overwrite the
// provisional state or the pre-image it will be reverted to.
func (engine *Engine) admissible(tickets []jira.Ticket) []jira.Ticket {
	admitted := make([]jira.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if engine.isPending(ticket.Key) {
			engine.logger.Debug("skipping merge of ticket with pending mutation", "key", ticket.Key)
			continue
		}
		if ticket.IsAssigned() {
			ticket.Assignee = engine.resolveMember(ticket.Assignee)
		}
		admitted = append(admitted, ticket)
	}
	return admitted
}

func (engine *Engine) finishCycle(current *cycle) []Notice {
	delete(engine.cycles, current.id)
	engine.lastRefresh = engine.clock.Now()

	engine.saveable = len(current.failed) == 0
	if len(current.failed) > 0 {
		names := make([]string, 0, len(current.failed))
		for _, stage := range current.failed {
			names = append(names, stage.String())
		}
		engine.logger.Info("refresh cycle finished with failures, snapshot not saved",
			"cycle", current.id,
			"failed_stages", strings.Join(names, ","),
		)
		return nil
	}

	engine.logger.Info("refresh cycle finished",
		"cycle", current.id,
		"tickets", engine.store.Len(),
		"duration", engine.lastRefresh.Sub(current.startedAt).String(),
	)
	engine.queueSave(current.id)
	return []Notice{{Level: NoticeInfo, Message: "refreshed"}}
}

// queueSave hands the current cache to the save goroutine. Only the
// newest unsaved snapshot is kept: a queued one that has not started
// is replaced.
func (engine *Engine) queueSave(cycleID uint64) {
	engine.detailsUnsaved = 0
	if engine.config.Snapshots == nil || engine.closed {
		return
	}
	request := saveRequest{cycle: cycleID, snapshot: engine.store.Snapshot()}
	select {
	case engine.saveQueue <- request:
		engine.savesQueued++
	default:
		select {
		case <-engine.saveQueue:
			// Replaced before it started; it will never report.
		default:
			engine.savesQueued++
		}
		engine.saveQueue <- request
	}
}

// flushDetails saves the cache again once the hydrations started by
// completed cycles have drained, so details fetched after a cycle's
// own save still reach disk. Nothing is saved while a cycle is running
// or when the newest finished cycle failed a stage.
func (engine *Engine) flushDetails() {
	if engine.detailsUnsaved == 0 || !engine.saveable {
		return
	}
	if len(engine.inflight) > 0 || len(engine.cycles) > 0 {
		return
	}
	engine.logger.Debug("saving hydrated details", "details", engine.detailsUnsaved)
	engine.queueSave(engine.nextCycle)
}

func (engine *Engine) saveLoop() {
	for {
		select {
		case <-engine.ctx.Done():
			return
		case request := <-engine.saveQueue:
			err := engine.config.Snapshots.Save(engine.ctx, engine.config.Project, request.snapshot)
			engine.send(snapshotSaved{cycle: request.cycle, savedAt: engine.clock.Now(), err: err})
		}
	}
}

func (engine *Engine) applySaved(msg snapshotSaved) []Notice {
	if engine.savesQueued > 0 {
		engine.savesQueued--
	}
	if msg.err != nil {
		engine.logger.Warn("snapshot save failed", "cycle", msg.cycle, "error", msg.err)
		return []Notice{{Level: NoticeWarn, Message: "could not save the ticket cache", Err: msg.err}}
	}
	engine.savedAt = msg.savedAt
	return nil
}

// RunFilter fetches a saved filter's tickets in the background. The
// result is merged with filter scope and its keys are available from
// FilterKeys once applied.
func (engine *Engine) RunFilter(filter jira.SavedFilter) error {
	if engine.closed {
		return ErrClosed
	}
	if engine.ctx == nil {
		return ErrNotStarted
	}
	query := jira.Query{JQL: filter.JQL, Limit: engine.config.QueryLimit}
	go func() {
		startedAt := engine.clock.Now()
		tickets, err := engine.source.FetchByQuery(engine.ctx, query)
		engine.send(filterResult{filter: filter, startedAt: startedAt, tickets: tickets, err: err})
	}()
	return nil
}

func (engine *Engine) applyFilter(msg filterResult) []Notice {
	if msg.err != nil {
		engine.logger.Warn("saved filter failed", "filter", msg.filter.Name, "error", msg.err)
		return []Notice{{Level: NoticeWarn, Message: "filter " + msg.filter.Name + " failed", Err: msg.err}}
	}
	batch := ticketcache.Batch{
		Scope:     ticketcache.ScopeFilter,
		StartedAt: msg.startedAt,
		Tickets:   engine.admissible(msg.tickets),
	}
	engine.store.Merge(batch)

	// Pending keys were left out of the merge but still match.
	keys := make([]string, 0, len(msg.tickets))
	for _, ticket := range msg.tickets {
		if engine.store.Has(ticket.Key) {
			keys = append(keys, ticket.Key)
		}
	}
	engine.filterKeys[msg.filter.Name] = keys
	return []Notice{{Level: NoticeInfo, Message: "filter " + msg.filter.Name + ": " + pluralTickets(len(keys))}}
}

// FilterKeys returns the keys the named filter matched on its last
// run, in result order. The second result is false before the first
// run completes.
func (engine *Engine) FilterKeys(name string) ([]string, bool) {
	keys, ok := engine.filterKeys[name]
	return slices.Clone(keys), ok
}

// rosterMembers returns the configured team plus the current user,
// deduplicated by identity.
func (engine *Engine) rosterMembers() []jira.TeamMember {
	seen := make(map[string]struct{})
	var members []jira.TeamMember
	for _, member := range append([]jira.TeamMember{engine.me}, engine.config.Team...) {
		if member.IsZero() {
			continue
		}
		if _, duplicate := seen[member.Identity()]; duplicate {
			continue
		}
		seen[member.Identity()] = struct{}{}
		members = append(members, member)
	}
	return members
}

// resolveMember fills in a roster entry for a member known only by
// name (list output carries display names) or only by email ("jira
// me" returns just the email).
func (engine *Engine) resolveMember(member jira.TeamMember) jira.TeamMember {
	if member.Name != "" && member.Email != "" {
		return member
	}
	for _, known := range engine.store.Members() {
		if member.Email != "" && strings.EqualFold(known.Email, member.Email) {
			return known
		}
		if member.Email == "" && member.Name != "" && strings.EqualFold(known.Name, member.Name) {
			return known
		}
	}
	return member
}

func pluralTickets(count int) string {
	if count == 1 {
		return "1 ticket"
	}
	return fmt.Sprintf("%d tickets", count)
}
