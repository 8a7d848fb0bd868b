// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the wall clock and periodic tickers so the
// refresh engine and snapshot store can be tested without sleeping.
//
// Production code holds a Clock field set to Real(). Tests use Fake(),
// which stands still until Advance or Set moves it:
//
//	fake := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
//	engine := ticketsync.NewEngine(source, nil, store, ticketsync.Config{Clock: fake})
//	fake.WaitForTickers(1)
//	fake.Advance(5 * time.Minute) // the auto-refresh ticker fires
package clock
