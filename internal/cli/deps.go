package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/aivis/internal/audit"
	"github.com/ppiankov/aivis/internal/cache"
	"github.com/ppiankov/aivis/internal/llm"
	"github.com/ppiankov/aivis/internal/metrics"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/observe"
	"github.com/ppiankov/aivis/internal/pipeline"
	"github.com/ppiankov/aivis/internal/runner"
	"github.com/ppiankov/aivis/internal/store"
	"github.com/ppiankov/aivis/internal/worker"
)

// app bundles everything a command needs; built once per invocation
type app struct {
	cfg       *model.Config
	logger    *slog.Logger
	providers map[model.Engine]llm.Provider
	store     store.Store
	cache     cache.Cache
	rdb       *redis.Client
	metrics   *metrics.Metrics
	runner    *runner.Runner
	pipeline  *pipeline.Pipeline
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, os.Stderr)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	c, rdb, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	prober, providers, err := newProber(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	m := metrics.New()
	r := runner.New(st, runner.Options{
		Prober:        prober,
		SeedGenerator: observe.NewGenerator(newSource(cfg.Generator), seedParams(cfg.Generator)),
		Workers:       cfg.Probe.Workers,
		Limiter:       newLimiter(cfg.Probe),
		Cache:         c,
		Metrics:       m,
		Logger:        logger,
	})
	p := pipeline.NewPipeline(st, pipeline.Options{
		Cache:    c,
		CacheTTL: cfg.Cache.TTL,
		Auditor:  audit.NewAuditor(cfg.HTTP),
		Metrics:  m,
		Logger:   logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		providers: providers,
		store:     st,
		cache:     c,
		rdb:       rdb,
		metrics:   m,
		runner:    r,
		pipeline:  p,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", "error", err)
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

// newProber returns the live prober in live mode and a simulated one otherwise.
// The engine providers are returned too so live runs can be preflighted.
func newProber(cfg *model.Config) (observe.Prober, map[model.Engine]llm.Provider, error) {
	if cfg.Probe.Mode == model.ProbeModeLive {
		providers, err := llm.NewEngineProviders(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("live probing: %w", err)
		}
		return observe.NewLiveProber(providers), providers, nil
	}
	return observe.NewSimulatedProber(observe.NewGenerator(newSource(cfg.Generator), onDemandParams(cfg.Generator))), nil, nil
}

// newLimiter applies probe.requests_per_second to every engine, then the
// per-engine overrides from probe.engines.<engine>.requests_per_second
func newLimiter(cfg model.ProbeConfig) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	for key, engineCfg := range cfg.Engines {
		if engineCfg.RequestsPerSecond > 0 {
			limiter.SetRate(key, engineCfg.RequestsPerSecond, engineCfg.Burst)
		}
	}
	return limiter
}

// preflight asks every live provider whether it is reachable and returns the
// engines that are not, in roster order. Simulated apps have nothing to check.
func (a *app) preflight(ctx context.Context) []model.Engine {
	return unavailableEngines(ctx, a.providers, a.logger)
}

func unavailableEngines(ctx context.Context, providers map[model.Engine]llm.Provider, logger *slog.Logger) []model.Engine {
	var down []model.Engine
	for _, engine := range model.Engines {
		p, ok := providers[engine]
		if !ok {
			continue
		}
		if !p.IsAvailable(ctx) {
			logger.Warn("engine unavailable", "engine", engine, "provider", p.Name())
			down = append(down, engine)
		}
	}
	return down
}

// newSource is seeded when generator.random_seed is set, so runs can be replayed
func newSource(g model.GeneratorConfig) observe.Source {
	if g.RandomSeed != 0 {
		return observe.NewSeeded(g.RandomSeed)
	}
	return observe.NewRandom()
}

func onDemandParams(g model.GeneratorConfig) observe.Params {
	p := observe.OnDemandParams
	p.PresenceProbability = g.PresenceProbability
	p.MaxCitations = g.OnDemandMaxCitations
	return p
}

func seedParams(g model.GeneratorConfig) observe.Params {
	p := observe.SeedParams
	p.PresenceProbability = g.PresenceProbability
	p.MaxCitations = g.SeedMaxCitations
	return p
}
