// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock set to initial. Time moves only through
// Advance and Set. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{current: initial}
	fake.tickersChanged = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	tickers        []*fakeTicker
	tickersChanged *sync.Cond
}

type fakeTicker struct {
	channel  chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

// Now returns the fake time.
func (fake *FakeClock) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.current
}

// NewTicker registers a ticker that fires as Advance crosses each
// multiple of d.
func (fake *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()

	ticker := &fakeTicker{
		channel:  make(chan time.Time, 1),
		interval: d,
		next:     fake.current.Add(d),
	}
	fake.tickers = append(fake.tickers, ticker)
	fake.tickersChanged.Broadcast()

	return &Ticker{
		C: ticker.channel,
		stop: func() {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			ticker.stopped = true
		},
	}
}

// Set moves the clock to an absolute time without firing tickers.
// Use it to age records (a ticket last updated "20 days ago").
func (fake *FakeClock) Set(now time.Time) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.current = now
	for _, ticker := range fake.tickers {
		ticker.next = now.Add(ticker.interval)
	}
}

// Advance moves the clock forward by d and delivers one tick to every
// ticker whose next deadline was crossed. A ticker crossed several
// times still holds a single tick, matching time.Ticker's drop
// behavior for slow receivers.
func (fake *FakeClock) Advance(d time.Duration) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	fake.current = fake.current.Add(d)
	for _, ticker := range fake.tickers {
		if ticker.stopped || ticker.next.After(fake.current) {
			continue
		}
		for !ticker.next.After(fake.current) {
			ticker.next = ticker.next.Add(ticker.interval)
		}
		select {
		case ticker.channel <- fake.current:
		default:
		}
	}
}

// WaitForTickers blocks until at least n live tickers are registered.
// Call it before Advance when the ticker is created on another
// goroutine.
func (fake *FakeClock) WaitForTickers(n int) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for fake.liveTickersLocked() < n {
		fake.tickersChanged.Wait()
	}
}

func (fake *FakeClock) liveTickersLocked() int {
	count := 0
	for _, ticker := range fake.tickers {
		if !ticker.stopped {
			count++
		}
	}
	return count
}
