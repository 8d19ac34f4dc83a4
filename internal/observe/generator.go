package observe

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/aivis/internal/extract"
	"github.com/ppiankov/aivis/internal/model"
)

// Params shapes the simulated observations
type Params struct {
	PresenceProbability float64
	MaxCitations        int
	// SnippetTemplate is formatted with the keyword and the engine name
	SnippetTemplate string
}

// OnDemandParams are used by on-demand runs
var OnDemandParams = Params{
	PresenceProbability: 0.6,
	MaxCitations:        8,
	SnippetTemplate:     "Sample answer snippet for %s on %s",
}

// SeedParams are used by historical seeding
var SeedParams = Params{
	PresenceProbability: 0.6,
	MaxCitations:        4,
	SnippetTemplate:     "Sample snippet for %s on %s",
}

// Target is the project an observation is made for
type Target struct {
	ProjectID    string
	CanonicalURL string
	Brand        string
	Domain       string
}

// TargetFor builds a Target from a stored project
func TargetFor(p model.Project) Target {
	return Target{
		ProjectID:    p.ID,
		CanonicalURL: p.CanonicalURL(),
		Brand:        p.Brand,
		Domain:       p.Domain,
	}
}

// Generator produces simulated checks from an injected random source
type Generator struct {
	params Params
	src    Source
}

// NewGenerator creates a generator; src is made safe for concurrent use
func NewGenerator(src Source, params Params) *Generator {
	return &Generator{params: params, src: Locked(src)}
}

// Params returns the generator's parameters
func (g *Generator) Params() Params {
	return g.params
}

// Generate draws one observation. Draw order is presence, position, citations,
// so a seeded source reproduces the same check sequence.
func (g *Generator) Generate(target Target, keyword string, engine model.Engine, ts time.Time) model.Check {
	check := model.Check{
		ID:        uuid.NewString(),
		ProjectID: target.ProjectID,
		Engine:    engine,
		Keyword:   keyword,
		Timestamp: ts,

		ObservedURLs: []string{},
	}

	if g.src.Float64() >= g.params.PresenceProbability {
		return check
	}

	position := g.src.IntN(model.MaxPosition) + model.MinPosition
	citations := 0
	if g.params.MaxCitations > 0 {
		citations = g.src.IntN(g.params.MaxCitations + 1)
	}
	snippet := fmt.Sprintf(g.params.SnippetTemplate, keyword, engine)

	check.Presence = true
	check.Position = &position
	check.CitationsCount = citations
	check.AnswerSnippet = &snippet
	check.ObservedURLs = []string{
		target.CanonicalURL,
		"https://example.com/" + extract.Slug(keyword),
	}
	return check
}
