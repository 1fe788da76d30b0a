package core

import (
	"fmt"
	"strings"
	"time"
)

// ID represents a domain identifier
type ID string

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID        ID
	HypothesisID ID
	ExperimentID ID
)

// String conversions for domain IDs
func (id RunID) String() string        { return ID(id).String() }
func (id HypothesisID) String() string { return ID(id).String() }
func (id ExperimentID) String() string { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseHypothesisID parses a string into HypothesisID
func ParseHypothesisID(s string) (HypothesisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("hypothesis ID cannot be empty")
	}
	return HypothesisID(s), nil
}

// IDSet is the full identifier family for one run. Hypothesis and experiment
// identifiers are pure functions of the run identifier and position, so a
// replay that reuses the same run identifier reproduces them exactly.
type IDSet struct {
	RunID         RunID
	HypothesisIDs []HypothesisID
	ExperimentIDs map[HypothesisID]ExperimentID
}

// GenerateIDs derives the identifier family for a run. The run identifier
// embeds the supplied clock for human sorting plus an input-digest suffix so
// two runs issued in the same second with different inputs never collide.
// The clock is an explicit argument; callers that need replayable identifiers
// pass a fixed time.
func GenerateIDs(inputsDigest Hash, count int, now time.Time) IDSet {
	date := now.Format("20060102")
	clock := now.Format("150405")

	runID := RunID(fmt.Sprintf("G-%s-%s-%s", date, clock, inputsDigest.Short8()))

	hypothesisIDs := make([]HypothesisID, 0, count)
	experimentIDs := make(map[HypothesisID]ExperimentID, count)
	for i := 0; i < count; i++ {
		hidDigest := NewTextHash(fmt.Sprintf("%s_%d", runID, i))
		hid := HypothesisID(fmt.Sprintf("H-%s-%s", date, hidDigest.Short8()))
		hypothesisIDs = append(hypothesisIDs, hid)

		eidDigest := NewTextHash(string(hid))
		experimentIDs[hid] = ExperimentID(fmt.Sprintf("E-%s-%s", date, eidDigest.Short8()))
	}

	return IDSet{
		RunID:         runID,
		HypothesisIDs: hypothesisIDs,
		ExperimentIDs: experimentIDs,
	}
}
