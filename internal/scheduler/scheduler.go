// Package scheduler drives the engine's recurring evaluations. Each job is
// a fixed-interval loop on its own goroutine; the engine exposes tick
// functions and never owns its own timing.
package scheduler

import (
	"context"
	"sync"
	"time"

	"solhelm/internal/logger"
)

// Job is one recurring evaluation.
type Job struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool
	Task           func(ctx context.Context)
}

// Runner owns the job goroutines and stops them all when its context is
// canceled.
type Runner struct {
	ctx   context.Context
	wg    sync.WaitGroup
	nowFn func() time.Time
}

func NewRunner(ctx context.Context) *Runner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Runner{ctx: ctx, nowFn: time.Now}
}

// Add starts job's loop. Invalid jobs are logged and skipped rather than
// failing startup; one misconfigured interval must not take the rest down.
func (r *Runner) Add(job Job) {
	if job.Task == nil {
		logger.Warnf("scheduler[%s]: task is nil, skipped", job.Name)
		return
	}
	if job.Interval <= 0 {
		logger.Warnf("scheduler[%s]: invalid interval=%s, skipped", job.Name, job.Interval)
		return
	}
	r.wg.Add(1)
	go r.run(job)
}

// Wait blocks until every job loop has observed cancellation and returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(job Job) {
	defer r.wg.Done()

	startAt := r.nowFn().UTC()
	logger.Infof("scheduler[%s]: started interval=%s run_immediately=%v at=%s",
		job.Name, job.Interval, job.RunImmediately, startAt.Format(time.RFC3339))

	if job.RunImmediately {
		job.Task(r.ctx)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			logger.Infof("scheduler[%s]: ctx done, exit after %s",
				job.Name, r.nowFn().UTC().Sub(startAt).Truncate(time.Second))
			return
		case <-ticker.C:
			job.Task(r.ctx)
		}
	}
}
