package verdict

import (
	"hypolab/domain/core"
)

// Decision is the terminal accept/reject outcome for a hypothesis
type Decision string

const (
	DecisionAccepted Decision = "ACCEPTED"
	DecisionRejected Decision = "REJECTED"
)

// SubScores are the six bounded [0,1] factors the scorer produces.
// Risk is the only one where lower is better.
type SubScores struct {
	Novelty              float64 `json:"novelty"`
	Falsifiability       float64 `json:"falsifiability"`
	MechanisticCoherence float64 `json:"mechanistic_coherence"`
	TestCost             float64 `json:"test_cost"`
	Reproducibility      float64 `json:"reproducibility"`
	Risk                 float64 `json:"risk"`
}

// ScoreRecord is the immutable judgment written once per hypothesis per run
type ScoreRecord struct {
	HypothesisID    core.HypothesisID `json:"hypothesis_id"`
	Scores          SubScores         `json:"scores"`
	GatesPassed     []string          `json:"gates_passed"`
	GateFailures    []string          `json:"gate_failures"`
	Decision        Decision          `json:"decision"`
	Reason          string            `json:"reason"`
	SimilarityScore float64           `json:"similarity_score"`
	CreatedAt       core.Timestamp    `json:"created_at"`
}

// Accepted reports whether the record carries an accepting decision
func (r ScoreRecord) Accepted() bool {
	return r.Decision == DecisionAccepted
}

// ContentView strips identifiers and timestamps for determinism comparison
func (r ScoreRecord) ContentView() map[string]interface{} {
	return map[string]interface{}{
		"scores":           r.Scores,
		"gates_passed":     r.GatesPassed,
		"gate_failures":    r.GateFailures,
		"decision":         r.Decision,
		"reason":           r.Reason,
		"similarity_score": r.SimilarityScore,
	}
}
