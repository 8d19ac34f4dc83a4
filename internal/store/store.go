// Package store persists projects and checks.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/aivis/internal/model"
)

// ErrNotFound is returned when a project does not exist
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator. Checks are append-only.
type Store interface {
	GetProject(ctx context.Context, id string) (model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, p model.Project) (model.Project, error)
	UpdateProjectKeywords(ctx context.Context, id string, keywords []string) error

	// ListChecks returns a project's checks in ascending timestamp order.
	// An empty keyword returns every keyword.
	ListChecks(ctx context.Context, projectID, keyword string) ([]model.Check, error)

	// LatestCheckAt returns the newest check timestamp of a project, nil when it has none
	LatestCheckAt(ctx context.Context, projectID string) (*time.Time, error)

	// InsertChecks writes the whole batch or nothing
	InsertChecks(ctx context.Context, checks []model.Check) error

	Ping(ctx context.Context) error
	Close() error
}

func validateBatch(checks []model.Check) error {
	for i, c := range checks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("check %d: %w", i, err)
		}
	}
	return nil
}

func checkID(c model.Check) string {
	if c.ID == "" {
		return uuid.NewString()
	}
	return c.ID
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
