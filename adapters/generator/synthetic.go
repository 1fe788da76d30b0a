// Package generator holds the deterministic synthetic text generator: the
// default, always-available variant of the generation collaborator. Content
// is a pure function of domain and index, so two runs with identical inputs
// produce byte-identical claims, critiques and experiment designs.
package generator

import (
	"context"
	"fmt"

	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/ports"
)

// CreatorTag marks records produced by the synthetic generator
const CreatorTag = "synthetic"

var interventions = []string{
	"staged cache warmup",
	"adaptive request batching",
	"input deduplication",
	"priority-aware scheduling",
	"incremental checkpointing",
	"bounded retry budgets",
	"lazy index rebuilds",
	"shard-local aggregation",
}

var outcomes = []struct {
	metric    string
	direction string
	inverse   string
}{
	{"latency_ms", "decreases", "does not decrease"},
	{"error_rate", "decreases", "does not decrease"},
	{"accuracy", "increases", "does not increase"},
}

// Synthetic implements ports.Generator with fixed template content
type Synthetic struct{}

// NewSynthetic creates the deterministic generator
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// Name identifies the variant
func (g *Synthetic) Name() string { return CreatorTag }

// Hypothesis produces fixed content for one index. The seed never influences
// the text; it only flows into the experiment's reproducibility block.
func (g *Synthetic) Hypothesis(ctx context.Context, req ports.GenerateRequest) (*hypothesis.Hypothesis, error) {
	intervention := interventions[req.Index%len(interventions)]
	outcome := outcomes[req.Index%len(outcomes)]
	margin := 5 + req.Index%10

	return &hypothesis.Hypothesis{
		Domain: req.Domain,
		Title:  fmt.Sprintf("%s vs %s", intervention, outcome.metric),
		Claim: fmt.Sprintf("In %s workloads, %s %s %s relative to an unmodified baseline",
			req.Domain, intervention, outcome.direction, outcome.metric),
		Mechanism: fmt.Sprintf("%s reduces redundant work on the hot path, because fewer wasted operations directly drive the observed %s shift",
			intervention, outcome.metric),
		Predictions: []string{
			fmt.Sprintf("%s %s by at least %d%% relative to baseline", outcome.metric, outcome.direction, margin),
			fmt.Sprintf("the effect persists across repeated replays of the %s dataset", req.Domain),
		},
		Assumptions: []string{
			"workload replay is representative of live traffic",
			"baseline and treatment share identical input data",
		},
		Confounders: []string{
			"warmup order between replays",
			"background load on the host machine",
		},
		RequiredData: []string{
			fmt.Sprintf("./data/%s_synthetic.csv", req.Domain),
		},
		TestOutline: fmt.Sprintf("replay the synthetic %s dataset with and without %s; reject the claim if the %s shift is absent",
			req.Domain, intervention, outcome.metric),
		FailureCriteria: []string{
			fmt.Sprintf("%s %s by at least %d%% over baseline", outcome.metric, outcome.inverse, margin),
		},
		CreatedBy: CreatorTag,
	}, nil
}

// Critique produces a fixed critique for the hypothesis
func (g *Synthetic) Critique(ctx context.Context, h hypothesis.Hypothesis) (*hypothesis.Critique, error) {
	return &hypothesis.Critique{
		Summary: fmt.Sprintf("The claim %q is testable locally but the stated mechanism is coarse", h.Title),
		Concerns: []string{
			"the mechanism does not distinguish hot-path savings from measurement noise",
			"a single synthetic dataset limits generalization",
		},
		SuggestedControls: []string{
			"interleave baseline and treatment replays",
			"repeat with a second replay ordering",
		},
	}, nil
}

// Experiment designs the fixed falsification test for a hypothesis
func (g *Synthetic) Experiment(ctx context.Context, h hypothesis.Hypothesis, req ports.GenerateRequest) (*experiment.Experiment, error) {
	outcome := outcomes[req.Index%len(outcomes)]
	intervention := interventions[req.Index%len(interventions)]
	margin := 5 + req.Index%10

	method := "simulation"
	if len(req.Pack.AllowedMethods) > 0 {
		method = req.Pack.AllowedMethods[0]
	}
	seed := req.Seed

	return &experiment.Experiment{
		Domain: req.Domain,
		Goal:   fmt.Sprintf("Falsify or support: %s", h.Claim),
		Protocol: experiment.Protocol{
			DatasetRef:     fmt.Sprintf("./data/%s_synthetic.csv", req.Domain),
			IndependentVar: intervention,
			DependentVar:   outcome.metric,
			ControlVars:    []string{"input_order", "replay_count"},
			Method:         method,
			Steps: []string{
				"load the synthetic dataset",
				"replay the workload with the intervention enabled",
				"replay the workload with the intervention disabled",
				"compare treatment and baseline metrics",
			},
			StoppingRule:    "stop after 200 replayed batches per arm",
			SuccessCriteria: fmt.Sprintf("%s %s by at least %d%%", outcome.metric, outcome.direction, margin),
			FailureCriteria: fmt.Sprintf("%s %s by at least %d%%", outcome.metric, outcome.inverse, margin),
		},
		Reproducibility: experiment.Reproducibility{
			Seed:              &seed,
			Environment:       "local-sim",
			Dependencies:      []string{"hypolab"},
			RunCommand:        fmt.Sprintf("hypolab run --domain %s --seed %d --count 1", req.Domain, req.Seed),
			ExpectedArtifacts: []string{"results.json", "summary.md"},
		},
		Status: experiment.StatusDesigned,
	}, nil
}
