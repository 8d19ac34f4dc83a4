package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/observe"
)

// ProbeJob probes one keyword on one engine
type ProbeJob struct {
	Target    observe.Target
	Task      observe.Task
	Timestamp time.Time
	Prober    observe.Prober
	Limiter   *Limiter
}

// Execute waits for the engine's rate limit, then probes
func (j *ProbeJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Task.Engine.String()); err != nil {
			return &ProbeResult{Task: j.Task, Error: fmt.Errorf("rate limit %s: %w", j.Task.Engine, err)}
		}
	}

	check, err := j.Prober.Probe(ctx, j.Target, j.Task, j.Timestamp)
	if err != nil {
		return &ProbeResult{Task: j.Task, Error: err}
	}
	return &ProbeResult{Task: j.Task, Check: check}
}

// ProbeResult represents the result of a probe job
type ProbeResult struct {
	Task  observe.Task
	Check model.Check
	Error error
}

// GetError returns the error from the probe result
func (r *ProbeResult) GetError() error {
	return r.Error
}

// BatchProcessor fans probe tasks out over a worker pool
type BatchProcessor struct {
	prober      observe.Prober
	limiter     *Limiter
	concurrency int
}

// NewBatchProcessor creates a new batch processor. limiter may be nil.
func NewBatchProcessor(prober observe.Prober, limiter *Limiter, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		prober:      prober,
		limiter:     limiter,
		concurrency: concurrency,
	}
}

// ProcessTasks probes every task with the same timestamp and returns the
// checks in task order. The first failure cancels the rest and is returned.
func (b *BatchProcessor) ProcessTasks(ctx context.Context, target observe.Target, tasks []observe.Task, ts time.Time) ([]model.Check, error) {
	if len(tasks) == 0 {
		return []model.Check{}, nil
	}

	pool := NewPool(ctx, b.concurrency)
	pool.FailFast = true
	pool.Start()

	for _, task := range tasks {
		job := &ProbeJob{
			Target:    target,
			Task:      task,
			Timestamp: ts,
			Prober:    b.prober,
			Limiter:   b.limiter,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	checks := make([]model.Check, 0, len(tasks))
	var firstErr error
	for i, r := range results {
		if r == nil {
			continue
		}
		pr := r.(*ProbeResult)
		if pr.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("task %d (%s, %q): %w", i, pr.Task.Engine, pr.Task.Keyword, pr.Error)
			}
			continue
		}
		checks = append(checks, pr.Check)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if len(checks) != len(tasks) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("probed %d of %d tasks", len(checks), len(tasks))
	}
	return checks, nil
}
