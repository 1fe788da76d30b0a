package hypothesis

import (
	"hypolab/domain/core"
)

// Status represents the lifecycle state of a hypothesis
type Status string

const (
	StatusProposed Status = "PROPOSED"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// NoveltyAnchor names the closest known prior claim and how this one differs
type NoveltyAnchor struct {
	ClosestKnown string `json:"closest_known"`
	Difference   string `json:"difference"`
}

// IsPopulated reports whether both anchor fields are present
func (a NoveltyAnchor) IsPopulated() bool {
	return a.ClosestKnown != "" && a.Difference != ""
}

// Critique is attached after the critique stage
type Critique struct {
	Summary           string   `json:"summary"`
	Concerns          []string `json:"concerns"`
	SuggestedControls []string `json:"suggested_controls"`
}

// Hypothesis is a structured claim with predictions and a falsification plan
type Hypothesis struct {
	ID              core.HypothesisID `json:"id"`
	Domain          string            `json:"domain"`
	Title           string            `json:"title"`
	Claim           string            `json:"claim"`
	Mechanism       string            `json:"mechanism"`
	Predictions     []string          `json:"predictions"`
	NoveltyAnchor   NoveltyAnchor     `json:"novelty_anchor"`
	Assumptions     []string          `json:"assumptions"`
	Confounders     []string          `json:"confounders"`
	RequiredData    []string          `json:"required_data"`
	TestOutline     string            `json:"test_outline"`
	FailureCriteria []string          `json:"failure_criteria"`
	Status          Status            `json:"status"`
	CreatedBy       string            `json:"created_by"`
	Critique        *Critique         `json:"critique,omitempty"`
	ExperimentID    core.ExperimentID `json:"experiment_id,omitempty"`
	CreatedAt       core.Timestamp    `json:"created_at"`
}

// Validate checks required fields before persistence
func (h *Hypothesis) Validate() error {
	if core.ID(h.ID).IsEmpty() {
		return core.NewValidationError("hypothesis", "id cannot be empty")
	}
	if h.Domain == "" {
		return core.NewValidationError("hypothesis", "domain cannot be empty")
	}
	if h.Claim == "" {
		return core.NewValidationError("hypothesis", "claim cannot be empty")
	}
	switch h.Status {
	case StatusProposed, StatusAccepted, StatusRejected:
	default:
		return core.NewValidationError("hypothesis", "unknown status "+string(h.Status))
	}
	return nil
}

// ContentView strips identifiers and timestamps, leaving only the fields that
// must be byte-identical across two runs with the same domain/seed/count.
// Identifiers embed wall-clock time and are excluded from the determinism
// contract.
func (h Hypothesis) ContentView() map[string]interface{} {
	view := map[string]interface{}{
		"domain":           h.Domain,
		"title":            h.Title,
		"claim":            h.Claim,
		"mechanism":        h.Mechanism,
		"predictions":      h.Predictions,
		"novelty_anchor":   h.NoveltyAnchor,
		"assumptions":      h.Assumptions,
		"confounders":      h.Confounders,
		"required_data":    h.RequiredData,
		"test_outline":     h.TestOutline,
		"failure_criteria": h.FailureCriteria,
		"status":           h.Status,
		"created_by":       h.CreatedBy,
	}
	if h.Critique != nil {
		view["critique"] = *h.Critique
	}
	return view
}
