package collection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Status reports what EnsureScheduled decided for a source in a window.
type Status string

const (
	StatusStarted          Status = "started"
	StatusAlreadyRunning   Status = "already_running"
	StatusAlreadyScheduled Status = "already_scheduled"
)

// Runner guarantees at most one collection per source per window and caps
// how many sources collect concurrently. A source still running when its
// window comes around again is marked as having seen the window, so the
// same window is never retried after the run finishes.
type Runner struct {
	manager ManagerInterface
	sem     chan struct{}
	timeout time.Duration

	mu         sync.Mutex
	running    map[string]bool
	lastWindow map[string]int64

	wg sync.WaitGroup
}

func NewRunner(manager ManagerInterface, maxConcurrency int, timeout time.Duration) *Runner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return &Runner{
		manager:    manager,
		sem:        make(chan struct{}, maxConcurrency),
		timeout:    timeout,
		running:    make(map[string]bool),
		lastWindow: make(map[string]int64),
	}
}

// EnsureScheduled starts a collection for the source unless one is already
// running or this window was already handled.
func (r *Runner) EnsureScheduled(ctx context.Context, source string, windowID int64) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running[source] {
		r.lastWindow[source] = windowID
		return StatusAlreadyRunning
	}

	if last, ok := r.lastWindow[source]; ok && last == windowID {
		return StatusAlreadyScheduled
	}

	r.lastWindow[source] = windowID
	r.running[source] = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.clearRunning(source)
		r.guardedCollect(ctx, source)
	}()

	return StatusStarted
}

// RunAll collects from the given sources concurrently, bypassing window
// bookkeeping but still honoring the semaphore and per-source timeout.
// It blocks until every source finishes and returns per-source results.
func (r *Runner) RunAll(ctx context.Context, sources []string) map[string]*Result {
	results := make(map[string]*Result, len(sources))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func(source string) {
			defer wg.Done()

			result := r.guardedCollect(ctx, source)
			mu.Lock()
			results[source] = result
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	return results
}

// Wait blocks until all in-flight collections have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) clearRunning(source string) {
	r.mu.Lock()
	delete(r.running, source)
	r.mu.Unlock()
}

func (r *Runner) guardedCollect(ctx context.Context, source string) *Result {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		slog.Warn("Collection cancelled while waiting for slot", "source", source)
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := r.manager.CollectFrom(runCtx, source)
	duration := time.Since(start)

	switch {
	case err == nil:
		slog.Info("Collector finished",
			"source", source,
			"new", result.New,
			"duration", duration.Round(time.Millisecond).String())
		return result
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		slog.Warn("Collector timed out",
			"source", source,
			"timeout", r.timeout.String(),
			"duration", duration.Round(time.Millisecond).String())
	case ctx.Err() != nil:
		slog.Warn("Collector cancelled",
			"source", source,
			"duration", duration.Round(time.Millisecond).String())
	default:
		slog.Error("Collector failed",
			"source", source,
			"duration", duration.Round(time.Millisecond).String(),
			"error", err)
	}

	return nil
}
