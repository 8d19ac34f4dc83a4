package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/aivis/internal/model"
)

// Memory is an in-process store for tests and local runs
type Memory struct {
	mu       sync.RWMutex
	projects map[string]model.Project
	order    []string
	checks   []model.Check
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{projects: make(map[string]model.Project)}
}

func (m *Memory) GetProject(ctx context.Context, id string) (model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return cloneProject(p), nil
}

func (m *Memory) ListProjects(ctx context.Context) ([]model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Project, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneProject(m.projects[id]))
	}
	return out, nil
}

func (m *Memory) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := m.projects[p.ID]; exists {
		return model.Project{}, fmt.Errorf("project %s already exists", p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Competitors = orEmpty(p.Competitors)
	p.Keywords = orEmpty(p.Keywords)

	m.projects[p.ID] = cloneProject(p)
	m.order = append(m.order, p.ID)
	return p, nil
}

func (m *Memory) UpdateProjectKeywords(ctx context.Context, id string, keywords []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	p.Keywords = slices.Clone(orEmpty(keywords))
	m.projects[id] = p
	return nil
}

func (m *Memory) ListChecks(ctx context.Context, projectID, keyword string) ([]model.Check, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Check
	for _, c := range m.checks {
		if c.ProjectID != projectID {
			continue
		}
		if keyword != "" && c.Keyword != keyword {
			continue
		}
		out = append(out, cloneCheck(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *Memory) LatestCheckAt(ctx context.Context, projectID string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *time.Time
	for _, c := range m.checks {
		if c.ProjectID != projectID {
			continue
		}
		if latest == nil || c.Timestamp.After(*latest) {
			ts := c.Timestamp
			latest = &ts
		}
	}
	return latest, nil
}

func (m *Memory) InsertChecks(ctx context.Context, checks []model.Check) error {
	if err := validateBatch(checks); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range checks {
		c = cloneCheck(c)
		c.ID = checkID(c)
		m.checks = append(m.checks, c)
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func cloneProject(p model.Project) model.Project {
	p.Competitors = slices.Clone(p.Competitors)
	p.Keywords = slices.Clone(p.Keywords)
	return p
}

func cloneCheck(c model.Check) model.Check {
	if c.Position != nil {
		v := *c.Position
		c.Position = &v
	}
	if c.AnswerSnippet != nil {
		v := *c.AnswerSnippet
		c.AnswerSnippet = &v
	}
	c.ObservedURLs = orEmpty(slices.Clone(c.ObservedURLs))
	return c
}
