package run

import (
	"hypolab/domain/core"
)

// BundlePaths lists the relative paths of the output bundle files
type BundlePaths struct {
	Manifest        string `json:"manifest"`
	Hypotheses      string `json:"hypotheses"`
	Experiments     string `json:"experiments"`
	Scores          string `json:"scores"`
	RunInstructions string `json:"run_instructions"`
	StorageDir      string `json:"storage_dir"`
}

// Manifest is the truth source for one run's output bundle. It is written
// last, so its presence means the run fully completed.
type Manifest struct {
	RunID           core.RunID          `json:"run_id"`
	CreatedAt       core.Timestamp      `json:"created_at"`
	Domain          string              `json:"domain"`
	Seed            int64               `json:"seed"`
	AcceptedIDs     []core.HypothesisID `json:"accepted_ids"`
	TotalHypotheses int                 `json:"total_hypotheses"`
	TotalAccepted   int                 `json:"total_accepted"`
	Paths           BundlePaths         `json:"paths"`
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.Domain == "" {
		return core.NewValidationError("run_manifest", "domain cannot be empty")
	}
	if m.TotalHypotheses < 0 || m.TotalAccepted > m.TotalHypotheses {
		return core.NewValidationError("run_manifest", "inconsistent hypothesis totals")
	}
	return nil
}
