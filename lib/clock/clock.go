// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for code that stamps records or schedules
// periodic work.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a Ticker delivering ticks every d on C.
	// Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C, which has capacity 1: ticks
// the receiver has not consumed are dropped, never queued.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. It does not close C.
func (ticker *Ticker) Stop() { ticker.stop() }
