package excel

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hypolab/domain/core"
	"hypolab/domain/hypothesis"
	"hypolab/domain/run"
	"hypolab/domain/verdict"
)

func TestReportWriteAndReadBack(t *testing.T) {
	created := core.NewTimestamp(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	report := &Report{
		Run: run.Record{
			ID:           core.RunID("G-20250601-120000-abcd1234"),
			CreatedAt:    created,
			Domain:       "generic_local",
			Seed:         42,
			InputsDigest: core.NewTextHash("inputs"),
		},
		Hypotheses: []hypothesis.Hypothesis{
			{
				ID:     core.HypothesisID("H-20250601-11111111"),
				Domain: "generic_local",
				Title:  "cache warmup vs latency_ms",
				Claim:  "warmup decreases latency_ms",
				Status: hypothesis.StatusAccepted,
				NoveltyAnchor: hypothesis.NoveltyAnchor{
					ClosestKnown: "none",
					Difference:   "no overlap",
				},
			},
		},
		Scores: []verdict.ScoreRecord{
			{
				HypothesisID:    core.HypothesisID("H-20250601-11111111"),
				Scores:          verdict.SubScores{Novelty: 1.0, Falsifiability: 1.0, Reproducibility: 0.99},
				GatesPassed:     []string{"G0_falsifiable", "G1_specific", "G2_testable_locally", "G3_nontrivial", "G4_novelty"},
				Decision:        verdict.DecisionAccepted,
				Reason:          "core score average above threshold",
				SimilarityScore: 0.0,
				CreatedAt:       created,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, report.Write(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{DecisionsSheet, ScoresSheet}, f.GetSheetList())

	title, err := f.GetCellValue(DecisionsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "cache warmup vs latency_ms", title)

	decision, err := f.GetCellValue(ScoresSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", decision)

	failures, err := f.GetCellValue(ScoresSheet, "J2")
	require.NoError(t, err)
	assert.Equal(t, "-", failures)
}
