package model

import (
	"fmt"
	"time"
)

// Check is one presence-or-absence observation for a
// (project, keyword, engine, time) tuple. Checks are append-only.
type Check struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	Engine         Engine    `json:"engine"`
	Keyword        string    `json:"keyword"`
	Presence       bool      `json:"presence"`
	Position       *int      `json:"position"`       // 1..10 when present, nil otherwise
	CitationsCount int       `json:"citations_count"`
	AnswerSnippet  *string   `json:"answer_snippet"` // nil when absent
	ObservedURLs   []string  `json:"observed_urls"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	MinPosition = 1
	MaxPosition = 10
)

// Validate enforces the presence invariant:
// absent checks carry no position, citations, snippet or URLs,
// present checks carry a position in [1,10].
func (c Check) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("check: project_id is empty")
	}
	if !c.Engine.Valid() {
		return fmt.Errorf("check: unknown engine %q", c.Engine)
	}
	if c.CitationsCount < 0 {
		return fmt.Errorf("check: citations_count %d is negative", c.CitationsCount)
	}

	if !c.Presence {
		switch {
		case c.Position != nil:
			return fmt.Errorf("check: absent observation has position %d", *c.Position)
		case c.CitationsCount != 0:
			return fmt.Errorf("check: absent observation has %d citations", c.CitationsCount)
		case c.AnswerSnippet != nil:
			return fmt.Errorf("check: absent observation has a snippet")
		case len(c.ObservedURLs) != 0:
			return fmt.Errorf("check: absent observation has %d observed urls", len(c.ObservedURLs))
		}
		return nil
	}

	if c.Position == nil {
		return fmt.Errorf("check: present observation has no position")
	}
	if *c.Position < MinPosition || *c.Position > MaxPosition {
		return fmt.Errorf("check: position %d outside [%d,%d]", *c.Position, MinPosition, MaxPosition)
	}
	return nil
}

// Day returns the UTC calendar date of the check as YYYY-MM-DD
func (c Check) Day() string {
	return c.Timestamp.UTC().Format("2006-01-02")
}
