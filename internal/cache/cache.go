// Package cache implements a request-coalescing cache that guarantees at
// most one in-flight computation per key, while letting every caller for
// that key observe either the finished result or a snapshot of in-progress
// work within a bounded wait Δ.
//
// A single mutex guards both the in-progress and finished maps, and the
// goroutine that performs the work is launched before the lock is released,
// closing the race window between "decide to start work" and "work is
// observably running". golang.org/x/sync/singleflight is deliberately not
// used here: its Do() blocks the caller until the whole computation
// finishes, with no way to return a bounded-wait partial view while the
// work keeps running in the background.
package cache

import (
	"context"
	"sync"
	"time"

	"feedhistd/internal/usecase/history/progress"
)

// Status is the three-way outcome a history lookup can report.
type Status int

const (
	// Finished: the computation for this key has completed; Result holds
	// its value (or Err its failure).
	Finished Status = iota
	// InProgress: the computation is still running; Log holds a snapshot
	// of progress so far.
	InProgress
)

// Result is returned by Get.
type Result struct {
	Status Status
	Value  any
	Err    error
	Log    []string
}

// Work is a unit of cacheable computation: it runs to completion, appending
// progress lines to the supplied log as it goes.
type Work func(ctx context.Context, log *progress.Log) (any, error)

type entry struct {
	done  chan struct{}
	log   *progress.Log
	value any
	err   error
}

// Cache coalesces concurrent requests for the same key into a single
// execution of Work, started by whichever caller arrives first.
type Cache struct {
	mu      sync.Mutex
	pending map[string]*entry
	wait    time.Duration // Δ, the bounded wait before reporting InProgress
}

// New creates a Cache whose Get calls wait up to delta before returning an
// InProgress outcome for still-running work.
func New(delta time.Duration) *Cache {
	return &Cache{
		pending: make(map[string]*entry),
		wait:    delta,
	}
}

// Get starts work for key if no computation for key is running or already
// finished-and-evicted, coalescing concurrent callers onto the same
// execution. It returns within Δ even if the work is not done, reporting
// InProgress with the current progress log in that case.
func (c *Cache) Get(ctx context.Context, key string, work Work) Result {
	c.mu.Lock()
	e, ok := c.pending[key]
	if !ok {
		e = &entry{done: make(chan struct{}), log: progress.New()}
		c.pending[key] = e
		// Detached from ctx's cancellation (the first caller may disconnect
		// long before the coalesced work finishes) but still carries its
		// values, e.g. a request-scoped logger, for whichever caller
		// happened to start the work.
		runCtx := context.WithoutCancel(ctx)
		// Launched while still holding the lock: by the time Unlock
		// returns, the goroutine has already been scheduled to run, so no
		// second caller can observe a key with neither a goroutine running
		// nor a finished result.
		go c.run(e, runCtx, work)
	}
	c.mu.Unlock()

	return c.await(ctx, e)
}

func (c *Cache) run(e *entry, ctx context.Context, work Work) {
	defer close(e.done)
	value, err := work(ctx, e.log)
	e.value, e.err = value, err
}

func (c *Cache) await(ctx context.Context, e *entry) Result {
	timer := time.NewTimer(c.wait)
	defer timer.Stop()

	select {
	case <-e.done:
		return Result{Status: Finished, Value: e.value, Err: e.err}
	case <-timer.C:
		return Result{Status: InProgress, Log: e.log.Snapshot()}
	case <-ctx.Done():
		return Result{Status: InProgress, Log: e.log.Snapshot(), Err: ctx.Err()}
	}
}

// Evict removes a finished entry for key, if present, so a later Get for
// the same key starts fresh work instead of replaying a stale result.
// Evicting an entry whose work is still running is a no-op — the running
// goroutine keeps its own reference to the entry and completes normally.
func (c *Cache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.pending[key]; ok {
		select {
		case <-e.done:
			delete(c.pending, key)
		default:
		}
	}
}
