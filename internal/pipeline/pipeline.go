// Package pipeline assembles project and keyword reports from stored checks.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/aivis/internal/analytics"
	"github.com/ppiankov/aivis/internal/audit"
	"github.com/ppiankov/aivis/internal/cache"
	"github.com/ppiankov/aivis/internal/metrics"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/score"
	"github.com/ppiankov/aivis/internal/store"
)

const (
	// KeywordRows is how many keywords a project report lists
	KeywordRows = 10
	// RecentRows is how many recent checks a project report lists
	RecentRows = 20
)

// Options configures a Pipeline. Every field is optional.
type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Auditor  *audit.Auditor
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// Pipeline orchestrates store reads, aggregation, recommendations and the optional site audit
type Pipeline struct {
	store       store.Store
	cache       cache.Cache
	cacheTTL    time.Duration
	auditor     *audit.Auditor
	recommender *score.Recommender
	renderer    *Renderer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline creates a new pipeline over st
func NewPipeline(st store.Store, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		store:       st,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		auditor:     opts.Auditor,
		recommender: score.NewRecommender(),
		renderer:    NewRenderer(),
		metrics:     opts.Metrics,
		logger:      logger,
		now:         now,
	}
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// ProjectReport builds the dashboard of a project. withAudit adds the site
// audit; an audit failure is logged and leaves Audit nil.
func (p *Pipeline) ProjectReport(ctx context.Context, projectID string, withAudit bool) (*model.ProjectReport, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, &model.InputError{Field: "project_id", Reason: "required"}
	}
	withAudit = withAudit && p.auditor != nil

	key := p.reportKey(ctx, projectID, "", withAudit)
	var cached model.ProjectReport
	if p.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	project, checks, err := p.load(ctx, projectID, "")
	if err != nil {
		return nil, err
	}

	summary := analytics.Aggregate(checks, analytics.Options{})
	keywords := summary.Keywords
	if len(keywords) > KeywordRows {
		keywords = keywords[:KeywordRows]
	}

	report := &model.ProjectReport{
		Project:         project,
		GeneratedAt:     p.now().UTC(),
		Score:           summary.Score,
		Checks:          summary.Total,
		Trend:           summary.Trend,
		Engines:         summary.Engines,
		Keywords:        keywords,
		Recommendations: p.recommender.Recommend(summary.Engines, summary.Keywords),
		Recent:          summary.Recent(RecentRows),
	}

	if withAudit {
		auditReport, err := p.auditor.Audit(ctx, auditDomain(project))
		if err != nil {
			p.logger.Warn("site audit failed", "project_id", projectID, "error", err)
		} else {
			report.Audit = auditReport
		}
	}

	p.cacheSet(ctx, key, report)
	return report, nil
}

// KeywordReport builds the detail view of one keyword. A keyword without
// checks is store.ErrNotFound.
func (p *Pipeline) KeywordReport(ctx context.Context, projectID, keyword string) (*model.KeywordReport, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, &model.InputError{Field: "project_id", Reason: "required"}
	}
	if strings.TrimSpace(keyword) == "" {
		return nil, &model.InputError{Field: "keyword", Reason: "required"}
	}

	key := p.reportKey(ctx, projectID, keyword, false)
	var cached model.KeywordReport
	if p.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	project, checks, err := p.load(ctx, projectID, keyword)
	if err != nil {
		return nil, err
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("keyword %q: %w", keyword, store.ErrNotFound)
	}

	summary := analytics.Aggregate(checks, analytics.Options{Keyword: keyword})
	report := &model.KeywordReport{
		Project:     project,
		Keyword:     keyword,
		GeneratedAt: p.now().UTC(),
		Score:       summary.Score,
		Checks:      summary.Total,
		Trend:       summary.Trend,
		Engines:     summary.Latest,
	}

	p.cacheSet(ctx, key, report)
	return report, nil
}

// Audit runs the site audit for a stored project
func (p *Pipeline) Audit(ctx context.Context, projectID string) (*model.AuditReport, error) {
	if p.auditor == nil {
		return nil, fmt.Errorf("site audit is not configured")
	}

	project, err := p.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("project %s: %w", projectID, err)
		}
		return nil, &model.StoreError{Op: "get project", Err: err}
	}
	return p.auditor.Audit(ctx, auditDomain(project))
}

// load reads the project and its checks. Checks recorded for a project that
// was never created still report, under a placeholder project.
func (p *Pipeline) load(ctx context.Context, projectID, keyword string) (model.Project, []model.Check, error) {
	project, err := p.store.GetProject(ctx, projectID)
	missing := errors.Is(err, store.ErrNotFound)
	if err != nil && !missing {
		return model.Project{}, nil, &model.StoreError{Op: "get project", Err: err}
	}

	checks, err := p.store.ListChecks(ctx, projectID, keyword)
	if err != nil {
		return model.Project{}, nil, &model.StoreError{Op: "list checks", Err: err}
	}

	if missing {
		if len(checks) == 0 {
			return model.Project{}, nil, fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
		}
		project = model.Project{ID: projectID, Competitors: []string{}, Keywords: []string{}}
	}
	return project, checks, nil
}

func auditDomain(p model.Project) string {
	if p.Domain != "" {
		return p.Domain
	}
	return p.ID
}

// reportKey is read before the store, so a report built from a snapshot that
// an invalidation has since superseded lands under a generation nobody reads.
func (p *Pipeline) reportKey(ctx context.Context, projectID, keyword string, withAudit bool) string {
	key := cache.ReportKey(projectID, keyword, withAudit)
	if p.cache == nil {
		return key
	}
	return cache.VersionedKey(key, cache.Generation(ctx, p.cache, projectID))
}

func (p *Pipeline) cacheGet(ctx context.Context, key string, v interface{}) bool {
	if p.cache == nil {
		return false
	}

	data, ok := p.cache.Get(ctx, key)
	if ok {
		if err := json.Unmarshal(data, v); err != nil {
			p.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
			ok = false
		}
	}
	p.metrics.ObserveCache(ok)
	return ok
}

func (p *Pipeline) cacheSet(ctx context.Context, key string, v interface{}) {
	if p.cache == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := p.cache.Set(ctx, key, data, p.cacheTTL); err != nil {
		p.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
