// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package workpool runs blocking tasks on a fixed set of goroutines
// with two priority levels.
//
// The queue is unbounded: Submit never blocks and never drops a task.
// Workers always drain the high-priority queue before taking anything
// from the low-priority queue, so a burst of background work cannot
// delay a user-initiated task by more than the tasks already running.
//
// Closing a pool cancels the context handed to running tasks and
// discards tasks that have not started.
package workpool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Priority selects the queue a task joins.
type Priority int

const (
	// High is for tasks a user is waiting on.
	High Priority = iota

	// Low is for background work that may wait behind High tasks.
	Low
)

func (priority Priority) String() string {
	switch priority {
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(priority))
	}
}

// Task is a unit of work. The context is cancelled when the pool
// closes.
type Task func(ctx context.Context)

// Pool is a fixed-size worker pool. All methods are safe for
// concurrent use.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	high    []Task
	low     []Task
	running int
	closed  bool

	// notify (capacity 1) wakes one idle worker. A worker that takes
	// a task while more are queued passes the signal on.
	notify chan struct{}

	workers sync.WaitGroup
	done    chan struct{}
}

// New starts a pool of size workers. Tasks receive a context derived
// from ctx. Size must be positive.
func New(ctx context.Context, size int, logger *slog.Logger) *Pool {
	if size <= 0 {
		panic(fmt.Sprintf("workpool: size must be positive, got %d", size))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(ctx)
	pool := &Pool{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	pool.workers.Add(size)
	for range size {
		go pool.work()
	}
	go func() {
		pool.workers.Wait()
		close(pool.done)
	}()
	return pool
}

// Submit queues task. It returns false, without queueing, once the
// pool is closed.
func (pool *Pool) Submit(priority Priority, task Task) bool {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()
		return false
	}
	if priority == High {
		pool.high = append(pool.high, task)
	} else {
		pool.low = append(pool.low, task)
	}
	pool.mu.Unlock()

	pool.signal()
	return true
}

// Pending returns the number of queued tasks that have not started.
func (pool *Pool) Pending() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return len(pool.high) + len(pool.low)
}

// Running returns the number of tasks currently executing.
func (pool *Pool) Running() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return pool.running
}

// Close cancels running tasks, discards queued ones, and waits for
// every worker to return. Calling Close more than once is harmless.
func (pool *Pool) Close() {
	pool.mu.Lock()
	if !pool.closed {
		pool.closed = true
		discarded := len(pool.high) + len(pool.low)
		pool.high = nil
		pool.low = nil
		if discarded > 0 {
			pool.logger.Debug("work pool closing with queued tasks", "discarded", discarded)
		}
	}
	pool.mu.Unlock()

	pool.cancel()
	<-pool.done
}

// Done is closed after Close once every worker has returned.
func (pool *Pool) Done() <-chan struct{} {
	return pool.done
}

func (pool *Pool) signal() {
	select {
	case pool.notify <- struct{}{}:
	default:
	}
}

func (pool *Pool) work() {
	defer pool.workers.Done()
	for {
		task, more := pool.take()
		if task == nil {
			select {
			case <-pool.ctx.Done():
				return
			case <-pool.notify:
			}
			continue
		}
		if more {
			pool.signal()
		}
		pool.run(task)
	}
}

// take pops the next task, high priority first. The second result
// reports whether tasks remain queued.
func (pool *Pool) take() (Task, bool) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if pool.closed {
		return nil, false
	}
	var task Task
	switch {
	case len(pool.high) > 0:
		task = pool.high[0]
		pool.high[0] = nil
		pool.high = pool.high[1:]
	case len(pool.low) > 0:
		task = pool.low[0]
		pool.low[0] = nil
		pool.low = pool.low[1:]
	default:
		return nil, false
	}
	pool.running++
	return task, len(pool.high)+len(pool.low) > 0
}

func (pool *Pool) run(task Task) {
	defer func() {
		if recovered := recover(); recovered != nil {
			pool.logger.Error("work pool task panicked",
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
		}
		pool.mu.Lock()
		pool.running--
		pool.mu.Unlock()
	}()
	task(pool.ctx)
}
