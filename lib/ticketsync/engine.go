// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jiradeck/jiradeck/lib/clock"
	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/snapshot"
	"github.com/jiradeck/jiradeck/lib/ticketcache"
	"github.com/jiradeck/jiradeck/lib/workpool"
)

// DefaultWorkers is the worker pool size when Config.Workers is zero.
const DefaultWorkers = 6

// messageBuffer is the capacity of the results channel. Tasks block
// on a full channel, never the control goroutine.
const messageBuffer = 64

// Config configures an Engine.
type Config struct {
	// Project is the Jira project key. Required.
	Project string

	// Me is the current user. When zero and the Source implements
	// Identifier, the engine resolves it at start.
	Me jira.TeamMember

	// Team is the configured roster. Active and done-window queries
	// cover the current user and every member.
	Team []jira.TeamMember

	// Statuses classifies statuses and supplies the status lists for
	// queries. The zero value means jira.DefaultStatusSet().
	Statuses jira.StatusSet

	// DoneWindow is how far back the recently-done query reaches.
	// Zero means 14 days.
	DoneWindow time.Duration

	// Workers bounds concurrent hydration and mutation calls. Zero
	// means DefaultWorkers.
	Workers int

	// QueryLimit caps the results of each list query. Zero leaves the
	// source's default.
	QueryLimit int

	// RefreshInterval starts a refresh cycle periodically. Zero
	// disables automatic refresh.
	RefreshInterval time.Duration

	// Snapshots persists the cache between runs. Nil disables
	// persistence.
	Snapshots *snapshot.Store

	Clock  clock.Clock
	Logger *slog.Logger
}

// Engine owns the ticket cache, the refresh cycles that fill it, and
// the mutations that change it. Apart from Messages, its methods must
// be called from one goroutine.
type Engine struct {
	source   Source
	config   Config
	clock    clock.Clock
	logger   *slog.Logger
	store    *ticketcache.Store
	messages chan Message

	ctx    context.Context
	cancel context.CancelFunc
	pool   *workpool.Pool
	closed bool

	me jira.TeamMember

	// Refresh state.
	nextCycle   uint64
	cycles      map[uint64]*cycle
	lastRefresh time.Time
	restored    bool
	savedAt     time.Time
	saveQueue   chan saveRequest
	savesQueued int

	// saveable is set when the newest finished cycle had no failed
	// stage. detailsUnsaved counts details applied since the last
	// queued save; they are saved once hydration drains.
	saveable       bool
	detailsUnsaved int

	// Hydration state. See hydrate.go.
	requested       map[string]struct{}
	inflight        map[string]uint64
	generations     map[string]uint64
	hydrationFailed map[string]uint64

	// Mutation state. See mutation.go.
	nextMutation uint64
	pending      map[string]*pendingMutation
	resolved     map[string]MutationState
	creations    map[string]*pendingCreation
	nextBulk     uint64
	bulks        map[uint64]*bulkRun

	filterKeys map[string][]string
}

// NewEngine returns an engine reading from and writing to source.
// Nothing runs until Start.
func NewEngine(source Source, config Config) (*Engine, error) {
	if source == nil {
		return nil, errors.New("ticketsync: source is required")
	}
	if config.Project == "" {
		return nil, errors.New("ticketsync: project is required")
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("ticketsync: workers must not be negative, got %d", config.Workers)
	}
	if config.Workers == 0 {
		config.Workers = DefaultWorkers
	}
	if config.DoneWindow <= 0 {
		config.DoneWindow = 14 * 24 * time.Hour
	}
	if len(config.Statuses.ActiveNames()) == 0 && len(config.Statuses.DoneNames()) == 0 {
		config.Statuses = jira.DefaultStatusSet()
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		source:          source,
		config:          config,
		clock:           config.Clock,
		logger:          config.Logger,
		store:           ticketcache.New(config.Statuses, config.Logger),
		messages:        make(chan Message, messageBuffer),
		me:              config.Me,
		cycles:          make(map[uint64]*cycle),
		saveQueue:       make(chan saveRequest, 1),
		requested:       make(map[string]struct{}),
		inflight:        make(map[string]uint64),
		generations:     make(map[string]uint64),
		hydrationFailed: make(map[string]uint64),
		pending:         make(map[string]*pendingMutation),
		resolved:        make(map[string]MutationState),
		creations:       make(map[string]*pendingCreation),
		bulks:           make(map[uint64]*bulkRun),
		filterKeys:      make(map[string][]string),
	}, nil
}

// Start restores the persisted snapshot, if any, then launches the
// first refresh cycle and returns without waiting for it. The
// snapshot load is the only synchronous step. Background tasks stop
// when ctx is cancelled or Close is called.
func (engine *Engine) Start(ctx context.Context) error {
	if engine.closed {
		return ErrClosed
	}
	if engine.ctx != nil {
		return errors.New("ticketsync: engine already started")
	}
	engine.ctx, engine.cancel = context.WithCancel(ctx)
	engine.pool = workpool.New(engine.ctx, engine.config.Workers, engine.logger)

	if engine.config.Snapshots != nil {
		if loaded, ok := engine.config.Snapshots.Load(engine.config.Project); ok {
			engine.store.Restore(loaded.Contents)
			engine.restored = true
			engine.savedAt = loaded.SavedAt
			engine.logger.Info("cache restored from snapshot",
				"project", engine.config.Project,
				"tickets", engine.store.Len(),
				"age", loaded.Age(engine.clock.Now()).Round(time.Second).String(),
			)
		}
		go engine.saveLoop()
	}

	roster := engine.rosterMembers()
	if len(roster) > 0 {
		engine.store.Merge(ticketcache.Batch{Members: roster})
	}

	if engine.me.IsZero() {
		if identifier, ok := engine.source.(Identifier); ok {
			go engine.resolveIdentity(identifier)
		}
	}
	if engine.config.RefreshInterval > 0 {
		go engine.tickLoop(engine.config.RefreshInterval)
	}

	engine.startCycle()
	return nil
}

// Messages returns the channel background tasks report on. The
// control goroutine receives from it and passes each value to Apply.
func (engine *Engine) Messages() <-chan Message {
	return engine.messages
}

// Apply folds one background result into the cache and returns the
// notices it produced.
func (engine *Engine) Apply(msg Message) []Notice {
	switch msg := msg.(type) {
	case stageResult:
		return engine.applyStage(msg)
	case detailResult:
		engine.applyDetail(msg)
		return nil
	case mutationResult:
		return engine.applyMutation(msg)
	case creationResult:
		return engine.applyCreation(msg)
	case filterResult:
		return engine.applyFilter(msg)
	case identityResult:
		engine.applyIdentity(msg)
		return nil
	case snapshotSaved:
		return engine.applySaved(msg)
	case refreshTick:
		if !engine.closed {
			engine.Refresh()
		}
		return nil
	default:
		engine.logger.Warn("ignoring unknown sync message", "type", fmt.Sprintf("%T", msg))
		return nil
	}
}

// Run applies messages until the engine is idle (no refresh cycle,
// hydration, mutation, or save outstanding) or ctx is done. Each
// notice is passed to onNotice, which may be nil. Headless commands
// use Run in place of a UI loop.
func (engine *Engine) Run(ctx context.Context, onNotice func(Notice)) error {
	if engine.ctx == nil {
		return ErrNotStarted
	}
	for !engine.idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-engine.ctx.Done():
			return ErrClosed
		case msg := <-engine.messages:
			for _, notice := range engine.Apply(msg) {
				if onNotice != nil {
					onNotice(notice)
				}
			}
		}
	}
	return nil
}

func (engine *Engine) idle() bool {
	return len(engine.cycles) == 0 &&
		len(engine.inflight) == 0 &&
		len(engine.pending) == 0 &&
		len(engine.creations) == 0 &&
		engine.savesQueued == 0
}

// Close cancels every background task and waits for the worker pool
// to drain. Results still in flight are abandoned and no snapshot
// write starts afterwards. Close is idempotent.
func (engine *Engine) Close() {
	if engine.closed {
		return
	}
	engine.closed = true
	if engine.cancel != nil {
		engine.cancel()
	}
	if engine.pool != nil {
		engine.pool.Close()
	}
}

// View returns a read-only view of the live cache. Valid only on the
// control goroutine, between calls to Apply.
func (engine *Engine) View() ticketcache.View {
	return engine.store.View
}

// Snapshot returns an immutable copy of the cache, readable from any
// goroutine.
func (engine *Engine) Snapshot() *ticketcache.Snapshot {
	return engine.store.Snapshot()
}

// Me returns the current user, or the zero member while unresolved.
func (engine *Engine) Me() jira.TeamMember {
	return engine.me
}

// Project returns the configured project key.
func (engine *Engine) Project() string {
	return engine.config.Project
}

// Statuses returns the status classification in use.
func (engine *Engine) Statuses() jira.StatusSet {
	return engine.config.Statuses
}

// LoadState describes how fresh the cache is.
type LoadState int

const (
	// StateCold: nothing cached yet and the first refresh is running.
	StateCold LoadState = iota

	// StateCached: showing a restored snapshot; no refresh has
	// finished yet.
	StateCached

	// StateRefreshing: a refresh cycle is in flight over a cache that
	// has completed one before.
	StateRefreshing

	// StateReady: the last refresh finished and none is running.
	StateReady
)

func (state LoadState) String() string {
	switch state {
	case StateCold:
		return "cold"
	case StateCached:
		return "cached"
	case StateRefreshing:
		return "refreshing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

// Status is a summary of background activity for the status bar.
type Status struct {
	State LoadState

	// SnapshotSavedAt is when the snapshot now on disk was written:
	// the restored one at first, then each later save.
	SnapshotSavedAt time.Time

	// LastRefresh is when the last refresh cycle finished.
	LastRefresh time.Time

	Cycles    int
	Hydrating int
	Pending   int
	Creating  int
}

// SnapshotAge returns the snapshot's age at now, or zero when there
// is none.
func (status Status) SnapshotAge(now time.Time) time.Duration {
	if status.SnapshotSavedAt.IsZero() {
		return 0
	}
	return now.Sub(status.SnapshotSavedAt)
}

// Status reports the current loading state and in-flight counts.
func (engine *Engine) Status() Status {
	status := Status{
		SnapshotSavedAt: engine.savedAt,
		LastRefresh:     engine.lastRefresh,
		Cycles:          len(engine.cycles),
		Hydrating:       len(engine.inflight),
		Pending:         len(engine.pending),
		Creating:        len(engine.creations),
	}
	switch {
	case engine.lastRefresh.IsZero() && engine.restored:
		status.State = StateCached
	case engine.lastRefresh.IsZero():
		status.State = StateCold
	case len(engine.cycles) > 0:
		status.State = StateRefreshing
	default:
		status.State = StateReady
	}
	return status
}

// send delivers a background result unless the engine is shutting
// down. Called from task goroutines only.
func (engine *Engine) send(msg Message) {
	select {
	case engine.messages <- msg:
	case <-engine.ctx.Done():
	}
}

func (engine *Engine) resolveIdentity(identifier Identifier) {
	member, err := identifier.CurrentUser(engine.ctx)
	engine.send(identityResult{member: member, err: err})
}

func (engine *Engine) applyIdentity(msg identityResult) {
	if msg.err != nil {
		engine.logger.Warn("could not resolve current user", "error", msg.err)
		return
	}
	engine.me = engine.resolveMember(msg.member)
	engine.store.Merge(ticketcache.Batch{Members: []jira.TeamMember{engine.me}})
	engine.logger.Info("current user resolved", "name", engine.me.Name, "email", engine.me.Email)
}

func (engine *Engine) tickLoop(interval time.Duration) {
	ticker := engine.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-engine.ctx.Done():
			return
		case <-ticker.C:
			engine.send(refreshTick{})
		}
	}
}
