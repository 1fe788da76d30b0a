// Package scorer computes the six bounded sub-scores for a hypothesis and
// applies the fixed acceptance rule. Sub-scores are surface heuristics over
// hypothesis and experiment content; only the decision rule combines them.
package scorer

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/domain/verdict"
	"hypolab/internal/gates"
)

// Acceptance thresholds. Both boundaries are inclusive: a hypothesis at
// exactly the risk threshold or exactly the score threshold is accepted.
const (
	AcceptScoreThreshold = 0.65
	RiskThreshold        = 0.2
)

var measurabilityKeywords = []string{"metric", "value", "threshold", "significant", "statistical"}

var causalKeywords = []string{
	"because", "causes", "cause", "leads to", "results in", "drives",
	"induces", "via", "through", "therefore", "which",
}

var riskyKeywords = []string{
	"private", "personal", "sensitive", "secret", "invasive", "tracking",
	"monitoring", "network call", "api request", "external", "database",
	"production", "delete", "modify", "write",
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// Novelty is the inverse of the best similarity score
func Novelty(similarityScore float64) float64 {
	return clamp01(1.0 - similarityScore)
}

// Falsifiability rewards explicit failure criteria, then measurable
// predictions, then any predictions at all.
func Falsifiability(h hypothesis.Hypothesis) float64 {
	for _, fc := range h.FailureCriteria {
		if strings.TrimSpace(fc) != "" {
			return 1.0
		}
	}
	predictions := strings.ToLower(strings.Join(h.Predictions, " "))
	for _, kw := range measurabilityKeywords {
		if strings.Contains(predictions, kw) {
			return 0.7
		}
	}
	if len(h.Predictions) > 0 {
		return 0.5
	}
	return 0.0
}

// MechanisticCoherence scores up to 0.5 for causal-link language in the
// mechanism and up to 0.5 for word overlap between mechanism and predictions.
func MechanisticCoherence(h hypothesis.Hypothesis) float64 {
	mechanism := strings.ToLower(strings.TrimSpace(h.Mechanism))
	if mechanism == "" {
		return 0.0
	}

	causal := 0.0
	for _, kw := range causalKeywords {
		if strings.Contains(mechanism, kw) {
			causal += 0.1
		}
	}
	if causal > 0.5 {
		causal = 0.5
	}

	mechWords := make(map[string]struct{})
	for _, w := range strings.Fields(mechanism) {
		if len(w) > 3 {
			mechWords[w] = struct{}{}
		}
	}
	overlap := 0.0
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(strings.Join(h.Predictions, " "))) {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := mechWords[w]; ok {
			overlap += 0.1
		}
	}
	if overlap > 0.5 {
		overlap = 0.5
	}

	return clamp01(causal + overlap)
}

// TestCost scores higher for cheaper experiments. Anything that is not
// local/synthetic is expensive by default; otherwise fewer steps is cheaper.
func TestCost(exp *experiment.Experiment) float64 {
	if exp == nil || !gates.IsLocallyTestable(exp) {
		return 0.3
	}
	steps := len(exp.Protocol.Steps)
	switch {
	case steps <= 5:
		return 1.0
	case steps <= 10:
		return 0.8
	case steps <= 20:
		return 0.6
	default:
		return 0.4
	}
}

// Reproducibility gives equal weight to a pinned seed, a run command, and a
// declared artifact list.
func Reproducibility(exp *experiment.Experiment) float64 {
	if exp == nil {
		return 0.0
	}
	score := 0.0
	if exp.Reproducibility.Seed != nil {
		score += 0.33
	}
	if strings.TrimSpace(exp.Reproducibility.RunCommand) != "" {
		score += 0.33
	}
	if len(exp.Reproducibility.ExpectedArtifacts) > 0 {
		score += 0.33
	}
	return clamp01(score)
}

// Risk counts risky-keyword occurrences in the serialized protocol. Lower is
// safer; 0.0 means nothing flagged.
func Risk(exp *experiment.Experiment) float64 {
	if exp == nil {
		return 0.0
	}
	serialized, err := core.CanonicalJSON(exp.Protocol)
	if err != nil {
		// Unserializable protocols cannot be reviewed; treat as maximally risky.
		return 1.0
	}
	text := strings.ToLower(string(serialized))

	risk := 0.0
	for _, kw := range riskyKeywords {
		risk += 0.05 * float64(strings.Count(text, kw))
	}
	return clamp01(risk)
}

// Compute evaluates all six sub-scores. A panic inside any sub-score is
// converted into a zero score plus a note; it never escapes to the caller.
func Compute(h hypothesis.Hypothesis, exp *experiment.Experiment, similarityScore float64) (verdict.SubScores, []string) {
	var notes []string
	score := func(name string, fn func() float64) float64 {
		value, err := computeSafe(fn)
		if err != nil {
			notes = append(notes, fmt.Sprintf("%s: %v", name, err))
			return 0.0
		}
		return clamp01(value)
	}

	scores := verdict.SubScores{
		Novelty:              score("novelty", func() float64 { return Novelty(similarityScore) }),
		Falsifiability:       score("falsifiability", func() float64 { return Falsifiability(h) }),
		MechanisticCoherence: score("mechanistic_coherence", func() float64 { return MechanisticCoherence(h) }),
		TestCost:             score("test_cost", func() float64 { return TestCost(exp) }),
		Reproducibility:      score("reproducibility", func() float64 { return Reproducibility(exp) }),
		Risk:                 score("risk", func() float64 { return Risk(exp) }),
	}
	return scores, notes
}

func computeSafe(fn func() float64) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exception during evaluation: %v", r)
		}
	}()
	return fn(), nil
}

// ShouldAccept applies the fixed decision rule. Gate failures dominate, then
// risk, then the mean of novelty, falsifiability and reproducibility.
func ShouldAccept(scores verdict.SubScores, gateFailures []string) (bool, string) {
	if len(gateFailures) > 0 {
		return false, "gate failures: " + strings.Join(gateFailures, "; ")
	}
	if scores.Risk > RiskThreshold {
		return false, fmt.Sprintf("risk %.2f exceeds threshold %.2f", scores.Risk, RiskThreshold)
	}

	avg, err := stats.Mean([]float64{scores.Novelty, scores.Falsifiability, scores.Reproducibility})
	if err != nil {
		return false, fmt.Sprintf("score aggregation failed: %v", err)
	}
	if avg < AcceptScoreThreshold {
		return false, fmt.Sprintf("core score average %.4f below threshold %.2f", avg, AcceptScoreThreshold)
	}
	return true, fmt.Sprintf("core score average %.4f at or above threshold %.2f, risk %.2f within bounds", avg, AcceptScoreThreshold, scores.Risk)
}
