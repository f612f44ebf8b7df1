// File: internal/batch/runner.go
// Description: Runs many evaluation sessions with bounded concurrency and
// paced launches, funneling outcomes into a sink.
package batch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/config"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
)

// RunFunc executes one task to a terminal outcome. The batch layer stays
// ignorant of how sessions are assembled.
type RunFunc func(ctx context.Context, task schemas.Task) *schemas.Outcome

// Summary aggregates terminal statuses across a batch.
type Summary struct {
	Total    int                   `json:"total"`
	ByStatus map[schemas.Status]int `json:"by_status"`
}

// Succeeded returns the count of sessions that reached SUCCEEDED.
func (s Summary) Succeeded() int { return s.ByStatus[schemas.StatusSucceeded] }

// Runner fans tasks out over a bounded worker pool.
type Runner struct {
	concurrency int64
	limiter     *rate.Limiter
	run         RunFunc
	sink        OutcomeSink
	logger      *zap.Logger
}

// OutcomeSink receives each terminal outcome exactly once.
type OutcomeSink interface {
	Write(out *schemas.Outcome) error
}

// NewRunner builds a runner. A zero StartsPerSecond disables pacing.
func NewRunner(cfg config.BatchConfig, run RunFunc, sink OutcomeSink) *Runner {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.StartsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.StartsPerSecond), 1)
	}
	concurrency := int64(cfg.Concurrency)
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		concurrency: concurrency,
		limiter:     limiter,
		run:         run,
		sink:        sink,
		logger:      observability.GetLogger().Named("batch"),
	}
}

// Run executes all tasks and blocks until every launched session has
// finished. Cancellation stops launching new sessions; sessions already
// running observe ctx themselves.
func (r *Runner) Run(ctx context.Context, tasks []schemas.Task) (Summary, error) {
	sem := semaphore.NewWeighted(r.concurrency)
	summary := Summary{ByStatus: make(map[schemas.Status]int)}

	results := make(chan *schemas.Outcome, len(tasks))
	launched := 0

	for _, task := range tasks {
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		launched++

		go func(task schemas.Task) {
			defer sem.Release(1)
			out := r.run(ctx, task)
			if err := r.sink.Write(out); err != nil {
				r.logger.Error("Failed to persist outcome.",
					zap.String("task_id", task.ID), zap.Error(err))
			}
			results <- out
		}(task)
	}

	for i := 0; i < launched; i++ {
		out := <-results
		summary.Total++
		summary.ByStatus[out.Status]++
	}

	r.logger.Info("Batch finished.",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded()),
		zap.Int("skipped", len(tasks)-launched))

	if err := ctx.Err(); err != nil && launched < len(tasks) {
		return summary, err
	}
	return summary, nil
}
