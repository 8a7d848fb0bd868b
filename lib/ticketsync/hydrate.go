// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketsync

import (
	"context"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/workpool"
)

// Hydration bookkeeping, all owned by the control goroutine:
//
//   - requested: keys that have appeared in an active or epic merge.
//     Only these are ever hydrated.
//   - inflight: key -> generation of the outstanding detail fetch.
//   - generations: bumped whenever a key leaves the cache, so a fetch
//     issued before the eviction cannot land on a later re-admission.
//   - hydrationFailed: key -> cycle whose fetch failed. The key is not
//     retried until a later cycle requests it.

// requestHydration schedules a detail fetch for every key of a merged
// batch that still lacks detail.
func (engine *Engine) requestHydration(cycleID uint64, keys []string) {
	for _, key := range keys {
		engine.requested[key] = struct{}{}
		if engine.closed {
			continue
		}
		ticket, ok := engine.store.Get(key)
		if !ok || ticket.Hydrated {
			continue
		}
		if _, busy := engine.inflight[key]; busy {
			continue
		}
		if failedIn, failed := engine.hydrationFailed[key]; failed && failedIn >= cycleID {
			continue
		}
		if engine.isPending(key) {
			continue
		}
		engine.hydrate(key)
	}
}

func (engine *Engine) hydrate(key string) {
	generation := engine.generations[key]
	engine.inflight[key] = generation
	accepted := engine.pool.Submit(workpool.Low, func(ctx context.Context) {
		var detail jira.TicketDetail
		err := engine.guard("detail "+key, func() (err error) {
			detail, err = engine.source.FetchDetail(ctx, key)
			return err
		})
		engine.send(detailResult{key: key, generation: generation, detail: detail, err: err})
	})
	if !accepted {
		delete(engine.inflight, key)
	}
}

func (engine *Engine) applyDetail(msg detailResult) {
	if generation, ok := engine.inflight[msg.key]; ok && generation == msg.generation {
		delete(engine.inflight, msg.key)
	}

	switch {
	case msg.generation != engine.generations[msg.key]:
		engine.logger.Debug("discarding detail for evicted ticket", "key", msg.key)
	case msg.err != nil:
		engine.hydrationFailed[msg.key] = engine.nextCycle
		engine.logger.Warn("ticket detail fetch failed", "key", msg.key, "error", msg.err)
	case engine.isPending(msg.key):
		engine.logger.Debug("discarding detail for ticket with pending mutation", "key", msg.key)
	default:
		if engine.store.ApplyDetail(msg.key, msg.detail) {
			delete(engine.hydrationFailed, msg.key)
			engine.detailsUnsaved++
		}
	}
	engine.flushDetails()
}

// rehydrate schedules a detail fetch for a requested key whose earlier
// result was discarded, typically because a mutation was pending when
// it arrived.
func (engine *Engine) rehydrate(key string) {
	if _, ok := engine.requested[key]; !ok || engine.closed {
		return
	}
	if _, busy := engine.inflight[key]; busy {
		return
	}
	if _, failed := engine.hydrationFailed[key]; failed {
		return
	}
	if ticket, ok := engine.store.Get(key); ok && !ticket.Hydrated {
		engine.hydrate(key)
	}
}

// forget drops hydration state for a key that left the cache.
func (engine *Engine) forget(key string) {
	engine.generations[key]++
	delete(engine.requested, key)
	delete(engine.inflight, key)
	delete(engine.hydrationFailed, key)
}

// Hydrating reports whether a detail fetch for key is outstanding.
func (engine *Engine) Hydrating(key string) bool {
	_, ok := engine.inflight[key]
	return ok
}
