// Package llm is the real-text generation variant of the generator
// collaborator. It exists so callers can select it explicitly; until a model
// integration lands, every call fails with a not-implemented error. The
// pipeline never falls back to synthetic content on its own — that choice
// belongs to the caller.
package llm

import (
	"context"
	"fmt"

	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/ports"
)

// Generator is the unconfigured real-text variant
type Generator struct {
	model string
}

// NewGenerator creates the real-text generator for a named model
func NewGenerator(model string) *Generator {
	return &Generator{model: model}
}

// Name identifies the variant
func (g *Generator) Name() string { return "llm" }

func (g *Generator) notImplemented(stage string) error {
	return fmt.Errorf("%w: llm %s generation (model %q) requires a configured model integration", core.ErrNotImplemented, stage, g.model)
}

// Hypothesis always fails with a not-implemented error
func (g *Generator) Hypothesis(ctx context.Context, req ports.GenerateRequest) (*hypothesis.Hypothesis, error) {
	return nil, g.notImplemented("hypothesis")
}

// Critique always fails with a not-implemented error
func (g *Generator) Critique(ctx context.Context, h hypothesis.Hypothesis) (*hypothesis.Critique, error) {
	return nil, g.notImplemented("critique")
}

// Experiment always fails with a not-implemented error
func (g *Generator) Experiment(ctx context.Context, h hypothesis.Hypothesis, req ports.GenerateRequest) (*experiment.Experiment, error) {
	return nil, g.notImplemented("experiment")
}
