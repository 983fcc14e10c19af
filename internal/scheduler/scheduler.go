package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"delivery-service/internal/logger"
)

type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
	running  atomic.Bool
}

// Scheduler runs named jobs on fixed intervals until its context ends.
// A run that is still in progress when the next tick fires is skipped.
type Scheduler struct {
	jobs []*job
	log  *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{log: log.WithComponent("scheduler")}
}

// Every registers fn to run each interval. A non-positive interval is
// logged and the job is not registered.
func (s *Scheduler) Every(name string, interval time.Duration, fn JobFunc) {
	if interval <= 0 {
		s.log.Error("job not scheduled: interval must be positive", "job", name, "interval", interval)
		return
	}
	s.jobs = append(s.jobs, &job{name: name, interval: interval, fn: fn})
}

// Run blocks until ctx is cancelled and every job loop has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	s.log.Info("scheduler started", "jobs", len(s.jobs))
	wg.Wait()
	s.log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !j.running.CompareAndSwap(false, true) {
				s.log.Warn("previous run still in progress, skipping", "job", j.name)
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				defer j.running.Store(false)
				s.runOnce(ctx, j)
			}()
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j *job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", "job", j.name, "panic", r)
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		s.log.Error("job failed", "job", j.name, "error", err, "duration", time.Since(start))
		return
	}
	s.log.Debug("job finished", "job", j.name, "duration", time.Since(start))
}
