// Package runner executes batch runs: one observation per keyword and engine,
// persisted with a single bulk insert.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/aivis/internal/cache"
	"github.com/ppiankov/aivis/internal/metrics"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/observe"
	"github.com/ppiankov/aivis/internal/store"
	"github.com/ppiankov/aivis/internal/worker"
)

// DefaultKeywords are used when a run names no keywords and the project has none stored
var DefaultKeywords = []string{"ai marketing", "ai search", "example keyword"}

// RunRequest asks for one on-demand run
type RunRequest struct {
	ProjectID string   `json:"project_id"`
	Keywords  []string `json:"keywords,omitempty"`
}

// RunResult reports how many checks were written
type RunResult struct {
	Inserted int `json:"inserted"`
}

// Options configures a Runner. Zero values fall back to simulated probing.
type Options struct {
	// Prober answers on-demand runs; defaults to a simulated prober with OnDemandParams
	Prober observe.Prober
	// SeedGenerator draws historical checks; defaults to SeedParams
	SeedGenerator *observe.Generator
	Workers       int
	Limiter       *worker.Limiter
	Cache         cache.Cache
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Now           func() time.Time
}

// Runner resolves keywords, probes every engine and stores the batch
type Runner struct {
	store   store.Store
	batch   *worker.BatchProcessor
	seedGen *observe.Generator
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a runner over st
func New(st store.Store, opts Options) *Runner {
	prober := opts.Prober
	if prober == nil {
		prober = observe.NewSimulatedProber(observe.NewGenerator(observe.NewRandom(), observe.OnDemandParams))
	}

	workers := opts.Workers
	limiter := opts.Limiter
	if _, simulated := prober.(*observe.SimulatedProber); simulated {
		// One worker keeps draws in task order, so a seeded source is reproducible.
		// Simulated checks make no requests, so they are never throttled.
		workers = 1
		limiter = nil
	}

	seedGen := opts.SeedGenerator
	if seedGen == nil {
		seedGen = observe.NewGenerator(observe.NewRandom(), observe.SeedParams)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	timed := &timedProber{next: prober, metrics: opts.Metrics}

	return &Runner{
		store:   st,
		batch:   worker.NewBatchProcessor(timed, limiter, workers),
		seedGen: seedGen,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  logger,
		now:     now,
	}
}

// Expand returns one task per keyword and engine, keywords outermost,
// engines in model.Engines order
func Expand(keywords []string) []observe.Task {
	tasks := make([]observe.Task, 0, len(keywords)*len(model.Engines))
	for _, k := range keywords {
		for _, e := range model.Engines {
			tasks = append(tasks, observe.Task{Keyword: k, Engine: e})
		}
	}
	return tasks
}

// Run performs one on-demand run. Every check carries the same timestamp.
// Errors are *model.InputError, *model.StoreError or a probe failure;
// nothing is written unless the whole batch is.
func (r *Runner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	return r.RunAs(ctx, metrics.SourceRun, req)
}

// RunAs is Run with the metrics source label set by the caller, e.g. the scheduler
func (r *Runner) RunAs(ctx context.Context, source string, req RunRequest) (RunResult, error) {
	start := time.Now()
	checks, err := r.run(ctx, req)
	r.metrics.ObserveRun(source, checks, time.Since(start), err)
	if err != nil {
		r.logger.Warn("run failed", "project_id", req.ProjectID, "error", err)
		return RunResult{}, err
	}

	r.logger.Info("run completed", "source", source, "project_id", req.ProjectID, "inserted", len(checks), "duration", time.Since(start))
	return RunResult{Inserted: len(checks)}, nil
}

func (r *Runner) run(ctx context.Context, req RunRequest) ([]model.Check, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, &model.InputError{Field: "project_id", Reason: "required"}
	}

	target, keywords, err := r.resolve(ctx, projectID, req.Keywords)
	if err != nil {
		return nil, err
	}

	checks, err := r.batch.ProcessTasks(ctx, target, Expand(keywords), r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	if err := r.insert(ctx, projectID, checks); err != nil {
		return nil, err
	}
	return checks, nil
}

// resolve picks the keywords (explicit, stored, default) and the target URL.
// A project that does not exist is not an error: the run falls back to the
// default keywords and a URL derived from the project ID.
func (r *Runner) resolve(ctx context.Context, projectID string, explicit []string) (observe.Target, []string, error) {
	target := observe.Target{ProjectID: projectID, CanonicalURL: "https://" + projectID}

	keywords := cleanKeywords(explicit)
	if len(keywords) > 0 {
		// Explicit keywords skip the keyword read but the URL still needs the domain.
		if p, err := r.store.GetProject(ctx, projectID); err == nil {
			target = observe.TargetFor(p)
		} else if !errors.Is(err, store.ErrNotFound) {
			return target, nil, &model.StoreError{Op: "get project", Err: err}
		}
		return target, keywords, nil
	}

	p, err := r.store.GetProject(ctx, projectID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.logger.Debug("project not found, using default keywords", "project_id", projectID)
		return target, DefaultKeywords, nil
	case err != nil:
		return target, nil, &model.StoreError{Op: "get project", Err: err}
	}

	target = observe.TargetFor(p)
	if stored := cleanKeywords(p.Keywords); len(stored) > 0 {
		return target, stored, nil
	}
	return target, DefaultKeywords, nil
}

func (r *Runner) insert(ctx context.Context, projectID string, checks []model.Check) error {
	for i, c := range checks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("check %d: %w", i, err)
		}
	}

	if err := r.store.InsertChecks(ctx, checks); err != nil {
		return &model.StoreError{Op: "insert checks", Err: err}
	}

	if err := cache.InvalidateProject(ctx, r.cache, projectID); err != nil {
		r.logger.Warn("cache invalidation failed", "project_id", projectID, "error", err)
	}
	return nil
}

func cleanKeywords(keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// timedProber records probe latency
type timedProber struct {
	next    observe.Prober
	metrics *metrics.Metrics
}

func (t *timedProber) Probe(ctx context.Context, target observe.Target, task observe.Task, ts time.Time) (model.Check, error) {
	start := time.Now()
	c, err := t.next.Probe(ctx, target, task, ts)
	t.metrics.ObserveProbe(task.Engine, time.Since(start))
	return c, err
}
