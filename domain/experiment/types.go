package experiment

import (
	"hypolab/domain/core"
)

// Status represents the lifecycle state of an experiment. The pipeline only
// designs experiments; execution states belong to a later, out-of-scope stage.
type Status string

const (
	StatusDesigned Status = "DESIGNED"
)

// Protocol describes how the experiment would be carried out
type Protocol struct {
	DatasetRef      string   `json:"dataset_ref"`
	IndependentVar  string   `json:"independent_var"`
	DependentVar    string   `json:"dependent_var"`
	ControlVars     []string `json:"control_vars"`
	Method          string   `json:"method"`
	Steps           []string `json:"steps"`
	StoppingRule    string   `json:"stopping_rule"`
	SuccessCriteria string   `json:"success_criteria"`
	FailureCriteria string   `json:"failure_criteria"`
}

// Reproducibility pins everything needed to rerun the experiment byte-for-byte.
// Seed is a pointer so an unset seed is distinguishable from a pinned seed of
// zero, which is a valid value.
type Reproducibility struct {
	Seed              *int64   `json:"seed,omitempty"`
	Environment       string   `json:"environment"`
	Dependencies      []string `json:"dependencies"`
	RunCommand        string   `json:"run_command"`
	ExpectedArtifacts []string `json:"expected_artifacts"`
}

// Experiment is the designed falsification test for one hypothesis
type Experiment struct {
	ID              core.ExperimentID `json:"id"`
	HypothesisID    core.HypothesisID `json:"hypothesis_id"`
	Domain          string            `json:"domain"`
	Goal            string            `json:"goal"`
	Protocol        Protocol          `json:"protocol"`
	Reproducibility Reproducibility   `json:"reproducibility"`
	Status          Status            `json:"status"`
	CreatedAt       core.Timestamp    `json:"created_at"`
}

// Validate checks required fields before persistence
func (e *Experiment) Validate() error {
	if core.ID(e.ID).IsEmpty() {
		return core.NewValidationError("experiment", "id cannot be empty")
	}
	if core.ID(e.HypothesisID).IsEmpty() {
		return core.NewValidationError("experiment", "hypothesis_id cannot be empty")
	}
	if e.Status != StatusDesigned {
		return core.NewValidationError("experiment", "unknown status "+string(e.Status))
	}
	return nil
}

// ContentView strips identifiers and timestamps for determinism comparison
func (e Experiment) ContentView() map[string]interface{} {
	return map[string]interface{}{
		"domain":          e.Domain,
		"goal":            e.Goal,
		"protocol":        e.Protocol,
		"reproducibility": e.Reproducibility,
		"status":          e.Status,
	}
}
