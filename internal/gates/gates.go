// Package gates implements the five hard admissibility checks a hypothesis
// must clear before its scores mean anything. Each gate is a structural or
// surface-content check; none of them understand the claim semantically.
package gates

import (
	"fmt"
	"regexp"
	"strings"

	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
)

// Gate names, in fixed evaluation order
const (
	GateFalsifiable     = "G0_falsifiable"
	GateSpecific        = "G1_specific"
	GateTestableLocally = "G2_testable_locally"
	GateNonTrivial      = "G3_nontrivial"
	GateNovelty         = "G4_novelty"
)

// Result is the outcome of one gate evaluation
type Result struct {
	GateName string `json:"gate_name"`
	Passed   bool   `json:"passed"`
	Reason   string `json:"reason"`
}

// Input carries everything a gate may inspect
type Input struct {
	Hypothesis       hypothesis.Hypothesis
	Experiment       *experiment.Experiment
	SimilarityScore  float64
	NoveltyThreshold float64
}

// Gate is the contract every admissibility check satisfies
type Gate interface {
	Name() string
	Evaluate(in Input) Result
}

// All returns the five gates in their fixed evaluation order
func All() []Gate {
	return []Gate{
		&FalsifiableGate{},
		&SpecificGate{},
		&TestableLocallyGate{},
		&NonTrivialGate{},
		&NoveltyGate{},
	}
}

// Outcome aggregates all five gate results
type Outcome struct {
	AllPassed   bool     `json:"all_passed"`
	PassedNames []string `json:"passed_names"`
	Failures    []string `json:"failures"`
	Results     []Result `json:"results"`
}

// Apply runs every gate in order. A panic inside a gate is converted into a
// failure for that gate; it never escapes to the caller.
func Apply(in Input) Outcome {
	outcome := Outcome{AllPassed: true}
	for _, g := range All() {
		result := evaluateSafe(g, in)
		outcome.Results = append(outcome.Results, result)
		if result.Passed {
			outcome.PassedNames = append(outcome.PassedNames, result.GateName)
		} else {
			outcome.AllPassed = false
			outcome.Failures = append(outcome.Failures, fmt.Sprintf("%s: %s", result.GateName, result.Reason))
		}
	}
	return outcome
}

func evaluateSafe(g Gate, in Input) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				GateName: g.Name(),
				Passed:   false,
				Reason:   fmt.Sprintf("exception during evaluation: %v", r),
			}
		}
	}()
	return g.Evaluate(in)
}

// FalsifiableGate (G0) requires an explicit failure criterion or
// disconfirming language in the test outline / predictions.
type FalsifiableGate struct{}

var disconfirmKeywords = []string{"fail", "reject", "disprove", "falsif", "contrary", "against", "not "}

func (g *FalsifiableGate) Name() string { return GateFalsifiable }

func (g *FalsifiableGate) Evaluate(in Input) Result {
	h := in.Hypothesis
	for _, fc := range h.FailureCriteria {
		if strings.TrimSpace(fc) != "" {
			return Result{GateName: g.Name(), Passed: true, Reason: "explicit failure criteria present"}
		}
	}

	text := strings.ToLower(h.TestOutline + " " + strings.Join(h.Predictions, " "))
	for _, kw := range disconfirmKeywords {
		if strings.Contains(text, kw) {
			return Result{GateName: g.Name(), Passed: true, Reason: fmt.Sprintf("disconfirmation language present (%q)", strings.TrimSpace(kw))}
		}
	}
	return Result{GateName: g.Name(), Passed: false, Reason: "no failure criteria and no disconfirming language in outline or predictions"}
}

// SpecificGate (G1) requires at least one prediction with a direction
// indicator and at least one with a metric-like token.
type SpecificGate struct{}

var directionIndicators = []string{
	"increase", "decrease", "higher", "lower", "improve", "reduce",
	"rise", "drop", "faster", "slower", "more", "fewer", "+", "-",
}

var (
	snakeCasePattern   = regexp.MustCompile(`[a-z0-9]+_[a-z0-9]+`)
	capitalizedPattern = regexp.MustCompile(`\b[A-Z][a-z]+`)
)

var metricNames = []string{
	"accuracy", "precision", "recall", "latency", "throughput",
	"error rate", "f1", "auc", "rmse", "loss", "variance",
}

func (g *SpecificGate) Name() string { return GateSpecific }

func (g *SpecificGate) Evaluate(in Input) Result {
	predictions := in.Hypothesis.Predictions
	if len(predictions) == 0 {
		return Result{GateName: g.Name(), Passed: false, Reason: "no predictions"}
	}

	hasDirection := false
	hasMetric := false
	for _, p := range predictions {
		lower := strings.ToLower(p)
		for _, d := range directionIndicators {
			if strings.Contains(lower, d) {
				hasDirection = true
				break
			}
		}
		if snakeCasePattern.MatchString(lower) || capitalizedPattern.MatchString(p) {
			hasMetric = true
		} else {
			for _, m := range metricNames {
				if strings.Contains(lower, m) {
					hasMetric = true
					break
				}
			}
		}
	}

	if !hasDirection {
		return Result{GateName: g.Name(), Passed: false, Reason: "predictions lack a direction indicator"}
	}
	if !hasMetric {
		return Result{GateName: g.Name(), Passed: false, Reason: "predictions lack a metric-like token"}
	}
	return Result{GateName: g.Name(), Passed: true, Reason: "predictions carry direction and metric"}
}

// TestableLocallyGate (G2) requires the experiment protocol to reference
// local data or synthetic/simulated data.
type TestableLocallyGate struct{}

var localDataIndicators = []string{
	"./", "/data", "data/", ".csv", ".jsonl", ".json", ".parquet", ".tsv", ".txt", "local",
}

var syntheticIndicators = []string{"synthetic", "simulat", "generated"}

func (g *TestableLocallyGate) Name() string { return GateTestableLocally }

func (g *TestableLocallyGate) Evaluate(in Input) Result {
	if in.Experiment == nil {
		return Result{GateName: g.Name(), Passed: false, Reason: "no experiment protocol attached"}
	}
	if matched, indicator := localIndicator(in.Experiment); matched {
		return Result{GateName: g.Name(), Passed: true, Reason: fmt.Sprintf("protocol references local or synthetic data (%q)", indicator)}
	}
	return Result{GateName: g.Name(), Passed: false, Reason: "protocol references neither local nor synthetic data"}
}

// IsLocallyTestable reports whether the experiment protocol references local
// or synthetic data. Shared with the scorer's test-cost factor.
func IsLocallyTestable(exp *experiment.Experiment) bool {
	if exp == nil {
		return false
	}
	matched, _ := localIndicator(exp)
	return matched
}

func localIndicator(exp *experiment.Experiment) (bool, string) {
	serialized, err := core.CanonicalJSON(exp.Protocol)
	if err != nil {
		return false, ""
	}
	text := strings.ToLower(string(serialized))

	for _, ind := range localDataIndicators {
		if strings.Contains(text, ind) {
			return true, ind
		}
	}
	for _, ind := range syntheticIndicators {
		if strings.Contains(text, ind) {
			return true, ind
		}
	}
	return false, ""
}

// NonTrivialGate (G3) rejects claims that match tautology patterns.
type NonTrivialGate struct{}

var tautologyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bmore data\b`),
	regexp.MustCompile(`\bdepends on\b`),
	regexp.MustCompile(`\bin general\b`),
	regexp.MustCompile(`\bcould be\b`),
	regexp.MustCompile(`\bmay be\b`),
	regexp.MustCompile(`\bby definition\b`),
	regexp.MustCompile(`\bis a\b`),
	regexp.MustCompile(`\btends to\b`),
	regexp.MustCompile(`\bsometimes\b`),
}

func (g *NonTrivialGate) Name() string { return GateNonTrivial }

func (g *NonTrivialGate) Evaluate(in Input) Result {
	claim := strings.ToLower(in.Hypothesis.Claim)
	for _, pattern := range tautologyPatterns {
		if pattern.MatchString(claim) {
			return Result{GateName: g.Name(), Passed: false, Reason: fmt.Sprintf("claim matches tautology pattern %q", pattern.String())}
		}
	}
	return Result{GateName: g.Name(), Passed: true, Reason: "claim is not a recognized tautology"}
}

// NoveltyGate (G4) requires a populated novelty anchor and a similarity
// score strictly below the threshold.
type NoveltyGate struct{}

func (g *NoveltyGate) Name() string { return GateNovelty }

func (g *NoveltyGate) Evaluate(in Input) Result {
	anchor := in.Hypothesis.NoveltyAnchor
	if anchor.ClosestKnown == "" {
		return Result{GateName: g.Name(), Passed: false, Reason: "novelty anchor missing closest-known claim"}
	}
	if anchor.Difference == "" {
		return Result{GateName: g.Name(), Passed: false, Reason: "novelty anchor missing stated difference"}
	}

	threshold := in.NoveltyThreshold
	if threshold == 0 {
		threshold = 0.82
	}
	if in.SimilarityScore >= threshold {
		return Result{GateName: g.Name(), Passed: false, Reason: fmt.Sprintf("similarity %.3f at or above threshold %.2f", in.SimilarityScore, threshold)}
	}
	return Result{GateName: g.Name(), Passed: true, Reason: fmt.Sprintf("similarity %.3f below threshold %.2f (margin %.3f)", in.SimilarityScore, threshold, threshold-in.SimilarityScore)}
}
