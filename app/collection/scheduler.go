package collection

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler ticks at the collection interval and asks the runner to
// schedule every registered source for the current window.
type Scheduler struct {
	runner   *Runner
	sources  []string
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	now func() time.Time
}

func NewScheduler(runner *Runner, sources []string, interval time.Duration) *Scheduler {
	if interval < time.Second {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:   runner,
		sources:  sources,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop cancels scheduling and waits for in-flight collections to drain.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.runner.Wait()
}

func (s *Scheduler) tick() {
	windowID := s.now().Unix() / int64(s.interval.Seconds())

	started, running, deduped := 0, 0, 0
	for _, source := range s.sources {
		switch s.runner.EnsureScheduled(s.ctx, source, windowID) {
		case StatusStarted:
			started++
		case StatusAlreadyRunning:
			running++
		case StatusAlreadyScheduled:
			deduped++
		}
	}

	slog.Debug("Collection window scheduled",
		"window", windowID,
		"started", started,
		"running", running,
		"deduped", deduped)
}
