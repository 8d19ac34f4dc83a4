package observe

import (
	"context"
	"time"

	"github.com/ppiankov/aivis/internal/model"
)

// Task is one keyword asked of one engine
type Task struct {
	Keyword string
	Engine  model.Engine
}

// Prober produces one check for a keyword on an engine
type Prober interface {
	Probe(ctx context.Context, target Target, task Task, ts time.Time) (model.Check, error)
}

// SimulatedProber wraps a Generator; it never fails
type SimulatedProber struct {
	gen *Generator
}

// NewSimulatedProber creates a prober backed by gen
func NewSimulatedProber(gen *Generator) *SimulatedProber {
	return &SimulatedProber{gen: gen}
}

// Probe draws a simulated check
func (p *SimulatedProber) Probe(ctx context.Context, target Target, task Task, ts time.Time) (model.Check, error) {
	if err := ctx.Err(); err != nil {
		return model.Check{}, err
	}
	return p.gen.Generate(target, task.Keyword, task.Engine, ts), nil
}
