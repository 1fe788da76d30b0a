package run

import (
	"hypolab/domain/core"
)

// Record is the immutable summary of one pipeline invocation
type Record struct {
	ID            core.RunID          `json:"id"`
	CreatedAt     core.Timestamp      `json:"created_at"`
	Domain        string              `json:"domain"`
	Seed          int64               `json:"seed"`
	InputsDigest  core.Hash           `json:"inputs_digest"`
	HypothesisIDs []core.HypothesisID `json:"hypothesis_ids"`
	AcceptedIDs   []core.HypothesisID `json:"accepted_ids"`
	Notes         string              `json:"notes"`
}

// Validate checks required fields before persistence
func (r *Record) Validate() error {
	if core.ID(r.ID).IsEmpty() {
		return core.NewValidationError("run", "id cannot be empty")
	}
	if r.Domain == "" {
		return core.NewValidationError("run", "domain cannot be empty")
	}
	if r.InputsDigest.IsEmpty() {
		return core.NewValidationError("run", "inputs_digest cannot be empty")
	}
	return nil
}
