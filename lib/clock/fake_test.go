// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	fake := Fake(epoch)
	if !fake.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", fake.Now(), epoch)
	}
	fake.Advance(90 * time.Second)
	if want := epoch.Add(90 * time.Second); !fake.Now().Equal(want) {
		t.Fatalf("after Advance, Now() = %v, want %v", fake.Now(), want)
	}
}

func TestFakeTickerFiresOnAdvance(t *testing.T) {
	fake := Fake(epoch)
	ticker := fake.NewTicker(time.Minute)
	defer ticker.Stop()

	fake.Advance(30 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	fake.Advance(30 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after a full interval")
	}
}

func TestFakeTickerDropsUnreadTicks(t *testing.T) {
	fake := Fake(epoch)
	ticker := fake.NewTicker(time.Minute)
	fake.Advance(5 * time.Minute)
	fake.Advance(time.Minute)

	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("a second tick was queued for a slow receiver")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	fake := Fake(epoch)
	ticker := fake.NewTicker(time.Minute)
	ticker.Stop()
	fake.Advance(time.Hour)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeSetDoesNotFire(t *testing.T) {
	fake := Fake(epoch)
	ticker := fake.NewTicker(time.Minute)
	fake.Set(epoch.Add(24 * time.Hour))
	select {
	case <-ticker.C:
		t.Fatal("Set fired a ticker")
	default:
	}
	fake.Advance(time.Minute)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not resume from the new time")
	}
}

func TestWaitForTickers(t *testing.T) {
	fake := Fake(epoch)
	done := make(chan struct{})
	go func() {
		fake.WaitForTickers(1)
		close(done)
	}()
	fake.NewTicker(time.Second)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForTickers did not return after a ticker was registered")
	}
}
