package ports

import (
	"context"

	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/domain/pack"
)

// GenerateRequest specifies one hypothesis-generation call. Index and domain
// are the only inputs a deterministic generator may condition content on; the
// seed is passed through so reproducibility blocks can pin it.
type GenerateRequest struct {
	Domain string          `json:"domain"`
	Index  int             `json:"index"`
	Seed   int64           `json:"seed"`
	Pack   pack.DomainPack `json:"pack"`
}

// Generator is the pluggable text-production collaborator. The pipeline
// requires determinism: identical requests must yield identical content, or
// the implementation must fail with a not-implemented error. Silently
// returning non-reproducible text is never acceptable.
type Generator interface {
	// Name identifies the generator variant ("synthetic", "llm", ...)
	Name() string

	// Hypothesis produces the structured claim content for one index.
	// Identifier, status and timestamps are assigned by the pipeline.
	Hypothesis(ctx context.Context, req GenerateRequest) (*hypothesis.Hypothesis, error)

	// Critique produces the critique attached after the propose stage
	Critique(ctx context.Context, h hypothesis.Hypothesis) (*hypothesis.Critique, error)

	// Experiment produces the designed falsification test for a hypothesis
	Experiment(ctx context.Context, h hypothesis.Hypothesis, req GenerateRequest) (*experiment.Experiment, error)
}
