package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/aivis/internal/metrics"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/observe"
	"github.com/ppiankov/aivis/internal/store"
)

const (
	DefaultSeedKeywords = 12
	DefaultSeedDays     = 14
)

// SeedRequest asks for synthetic history for one project
type SeedRequest struct {
	// Project is created when no project with its ID exists
	Project      model.Project
	KeywordCount int
	Days         int
}

// DemoProjects are the projects created by SeedDemo
var DemoProjects = []model.Project{
	{Domain: "techstartup.io", Brand: "TechStartup", Competitors: []string{"competitor1.com", "rival-tech.io"}},
	{Domain: "aimarketing.com", Brand: "AI Marketing Pro", Competitors: []string{"marketingai.com", "smartmarket.io"}},
	{Domain: "ecommerce-solutions.net", Brand: "eCommerce Solutions", Competitors: []string{"shopify.com", "bigcommerce.com"}},
	{Domain: "healthtech.ai", Brand: "HealthTech AI", Competitors: []string{"medtech.com", "healthai.io"}},
	{Domain: "fintech-platform.com", Brand: "FinTech Platform", Competitors: []string{"stripe.com", "square.com"}},
}

// SeedKeywords returns "keyword 1" .. "keyword n"
func SeedKeywords(n int) []string {
	keywords := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		keywords = append(keywords, fmt.Sprintf("keyword %d", i))
	}
	return keywords
}

// Seed replaces the project's keywords with generated ones and writes
// Days x keywords x engines simulated checks, one day apart, ending today.
func (r *Runner) Seed(ctx context.Context, req SeedRequest) (int, error) {
	start := time.Now()
	checks, err := r.seed(ctx, req)
	r.metrics.ObserveRun(metrics.SourceSeed, checks, time.Since(start), err)
	if err != nil {
		return 0, err
	}

	r.logger.Info("seed completed", "project_id", req.Project.ID, "inserted", len(checks), "duration", time.Since(start))
	return len(checks), nil
}

func (r *Runner) seed(ctx context.Context, req SeedRequest) ([]model.Check, error) {
	if req.KeywordCount <= 0 {
		return nil, &model.InputError{Field: "keywords", Reason: "must be positive"}
	}
	if req.Days <= 0 {
		return nil, &model.InputError{Field: "days", Reason: "must be positive"}
	}

	project, err := r.ensureProject(ctx, req.Project)
	if err != nil {
		return nil, err
	}

	keywords := SeedKeywords(req.KeywordCount)
	if err := r.store.UpdateProjectKeywords(ctx, project.ID, keywords); err != nil {
		return nil, &model.StoreError{Op: "update keywords", Err: err}
	}
	project.Keywords = keywords

	target := observe.TargetFor(project)
	now := r.now().UTC()

	checks := make([]model.Check, 0, req.Days*len(keywords)*len(model.Engines))
	for d := 0; d < req.Days; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts := now.AddDate(0, 0, -(req.Days - d - 1))
		for _, k := range keywords {
			for _, e := range model.Engines {
				checks = append(checks, r.seedGen.Generate(target, k, e, ts))
			}
		}
	}

	if err := r.insert(ctx, project.ID, checks); err != nil {
		return nil, err
	}
	return checks, nil
}

func (r *Runner) ensureProject(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID != "" {
		existing, err := r.store.GetProject(ctx, p.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return model.Project{}, &model.StoreError{Op: "get project", Err: err}
		}
	}

	created, err := r.store.CreateProject(ctx, p)
	if err != nil {
		return model.Project{}, &model.StoreError{Op: "create project", Err: err}
	}
	r.logger.Info("project created", "project_id", created.ID, "domain", created.Domain)
	return created, nil
}

// SeedDemo creates the demo projects and seeds each one.
// It returns the created projects and the total number of checks written.
func (r *Runner) SeedDemo(ctx context.Context, keywordCount, days int) ([]model.Project, int, error) {
	var projects []model.Project
	total := 0
	for _, demo := range DemoProjects {
		demo.Competitors = append([]string(nil), demo.Competitors...)
		p, err := r.ensureProject(ctx, demo)
		if err != nil {
			return projects, total, err
		}

		n, err := r.Seed(ctx, SeedRequest{Project: p, KeywordCount: keywordCount, Days: days})
		if err != nil {
			return projects, total, fmt.Errorf("seed %s: %w", p.Domain, err)
		}
		p.Keywords = SeedKeywords(keywordCount)
		projects = append(projects, p)
		total += n
	}
	return projects, total, nil
}
