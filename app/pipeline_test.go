package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypolab/adapters/generator"
	"hypolab/adapters/llm"
	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/domain/run"
	"hypolab/internal/ledger"
	"hypolab/ports"
)

func fixedClock(t time.Time) core.Clock {
	return func() time.Time { return t }
}

var testTime = time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

func newTestPipeline(t *testing.T) (*Pipeline, *ledger.Ledger) {
	t.Helper()
	led, err := ledger.New(t.TempDir(), nil)
	require.NoError(t, err)
	p, err := NewPipeline(Config{
		Ledger:    led,
		Generator: generator.NewSynthetic(),
		Clock:     fixedClock(testTime),
	})
	require.NoError(t, err)
	return p, led
}

func TestNewPipelineRequiresCollaborators(t *testing.T) {
	led, err := ledger.New(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = NewPipeline(Config{Generator: generator.NewSynthetic()})
	assert.Error(t, err, "missing ledger must be rejected")

	_, err = NewPipeline(Config{Ledger: led})
	assert.Error(t, err, "missing generator must be rejected")
}

func TestRunRequestValidation(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RunRequest
	}{
		{"empty domain", RunRequest{Domain: "  ", Seed: 1, Count: 1}},
		{"negative seed", RunRequest{Domain: "d", Seed: -1, Count: 1}},
		{"zero count", RunRequest{Domain: "d", Seed: 1, Count: 0}},
		{"count too large", RunRequest{Domain: "d", Seed: 1, Count: 51}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Run(ctx, tc.req)
			assert.Error(t, err)
		})
	}
}

func TestRunEndToEnd(t *testing.T) {
	p, led := newTestPipeline(t)

	result, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalHypotheses)
	assert.Equal(t, 3, result.TotalAccepted, "well-formed synthetic content should clear every gate")
	assert.Len(t, result.AcceptedIDs, 3)
	assert.Len(t, result.ExperimentIDs, 3)
	assert.True(t, strings.HasPrefix(result.RunID.String(), "G-20250601-123045-"))

	hypotheses, _, err := led.Hypotheses()
	require.NoError(t, err)
	require.Len(t, hypotheses, 3)
	for _, h := range hypotheses {
		assert.Equal(t, hypothesis.StatusAccepted, h.Status)
		assert.True(t, h.NoveltyAnchor.IsPopulated(), "anchor must be set before gating")
		assert.NotNil(t, h.Critique)
		assert.False(t, core.ID(h.ExperimentID).IsEmpty())
	}

	experiments, _, err := led.Experiments()
	require.NoError(t, err)
	require.Len(t, experiments, 3)
	for _, e := range experiments {
		assert.Equal(t, experiment.StatusDesigned, e.Status)
		require.NotNil(t, e.Reproducibility.Seed)
		assert.Equal(t, int64(42), *e.Reproducibility.Seed)
	}

	scores, _, err := led.Scores()
	require.NoError(t, err)
	require.Len(t, scores, 3)
	for _, s := range scores {
		assert.True(t, s.Accepted())
		assert.Len(t, s.GatesPassed, 5)
		assert.Empty(t, s.GateFailures)
	}

	record, err := led.FindRun(result.RunID)
	require.NoError(t, err)
	assert.Len(t, record.HypothesisIDs, 3)
	assert.Contains(t, record.Notes, "similarity mean=")
	assert.Contains(t, record.Notes, "core score mean=")

	// Manifest is present, so the bundle completed.
	for _, name := range []string{ledger.ManifestFile, ledger.HypothesesFile, ledger.ExperimentsFile, ledger.ScoresFile, ledger.InstructionsFile} {
		data, err := led.ReadBundleFile(result.RunID, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}

	instructions, err := p.Instructions(result.RunID)
	require.NoError(t, err)
	assert.Contains(t, string(instructions), "# Run instructions")
	assert.Contains(t, string(instructions), result.AcceptedIDs[0].String())
}

func TestSecondRunRejectsDuplicateClaims(t *testing.T) {
	led, err := ledger.New(t.TempDir(), nil)
	require.NoError(t, err)
	first, err := NewPipeline(Config{Ledger: led, Generator: generator.NewSynthetic(), Clock: fixedClock(testTime)})
	require.NoError(t, err)

	_, err = first.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 3})
	require.NoError(t, err)

	second, err := NewPipeline(Config{Ledger: led, Generator: generator.NewSynthetic(), Clock: fixedClock(testTime.Add(time.Hour))})
	require.NoError(t, err)
	result, err := second.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 3})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalAccepted, "identical claims already in the ledger must fail the novelty gate")

	scores, _, err := led.Scores()
	require.NoError(t, err)
	require.Len(t, scores, 6)
	last := scores[len(scores)-1]
	assert.False(t, last.Accepted())
	assert.Contains(t, strings.Join(last.GateFailures, "; "), "G4_novelty")

	// The bundle lists accepted hypotheses only, while experiments and
	// scores stay complete.
	var bundled []hypothesis.Hypothesis
	data, err := led.ReadBundleFile(result.RunID, ledger.HypothesesFile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &bundled))
	assert.Empty(t, bundled, "rejected hypotheses must not appear in the bundle")

	var bundledScores []json.RawMessage
	data, err = led.ReadBundleFile(result.RunID, ledger.ScoresFile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &bundledScores))
	assert.Len(t, bundledScores, 3)
}

func TestRunSurfacesNotImplementedGenerator(t *testing.T) {
	led, err := ledger.New(t.TempDir(), nil)
	require.NoError(t, err)
	p, err := NewPipeline(Config{Ledger: led, Generator: llm.NewGenerator("local-7b"), Clock: fixedClock(testTime)})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 1, Count: 2})
	assert.True(t, core.IsNotImplementedError(err), "got %v", err)

	hypotheses, _, err := led.Hypotheses()
	require.NoError(t, err)
	assert.Empty(t, hypotheses, "an aborted run must not persist partial state")
}

// flakyGenerator fails hypothesis generation for one index and delegates the
// rest to the synthetic generator.
type flakyGenerator struct {
	inner     *generator.Synthetic
	failIndex int
}

func (g *flakyGenerator) Name() string { return "flaky" }

func (g *flakyGenerator) Hypothesis(ctx context.Context, req ports.GenerateRequest) (*hypothesis.Hypothesis, error) {
	if req.Index == g.failIndex {
		return nil, errors.New("transient template failure")
	}
	return g.inner.Hypothesis(ctx, req)
}

func (g *flakyGenerator) Critique(ctx context.Context, h hypothesis.Hypothesis) (*hypothesis.Critique, error) {
	return g.inner.Critique(ctx, h)
}

func (g *flakyGenerator) Experiment(ctx context.Context, h hypothesis.Hypothesis, req ports.GenerateRequest) (*experiment.Experiment, error) {
	return g.inner.Experiment(ctx, h, req)
}

func TestGenerationFailureIsIsolatedPerHypothesis(t *testing.T) {
	led, err := ledger.New(t.TempDir(), nil)
	require.NoError(t, err)
	p, err := NewPipeline(Config{
		Ledger:    led,
		Generator: &flakyGenerator{inner: generator.NewSynthetic(), failIndex: 1},
		Clock:     fixedClock(testTime),
	})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 3})
	require.NoError(t, err, "one failing hypothesis must not abort the run")

	assert.Equal(t, 3, result.TotalHypotheses)
	assert.Equal(t, 2, result.TotalAccepted)
	assert.Len(t, result.ExperimentIDs, 2, "no experiment is designed for the failed index")

	scores, _, err := led.Scores()
	require.NoError(t, err)
	require.Len(t, scores, 3)
	rejected := scores[1]
	assert.False(t, rejected.Accepted())
	assert.Contains(t, rejected.Reason, "hypothesis generation failed")
}

func TestRunIsDeterministicAcrossDataRoots(t *testing.T) {
	runOnce := func(t *testing.T) *RunResult {
		led, err := ledger.New(t.TempDir(), nil)
		require.NoError(t, err)
		p, err := NewPipeline(Config{Ledger: led, Generator: generator.NewSynthetic(), Clock: fixedClock(testTime)})
		require.NoError(t, err)
		result, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 3})
		require.NoError(t, err)
		return result
	}

	first := runOnce(t)
	second := runOnce(t)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.AcceptedIDs, second.AcceptedIDs)
	assert.Equal(t, first.ExperimentIDs, second.ExperimentIDs)
}

func TestListFilters(t *testing.T) {
	p, _ := newTestPipeline(t)
	_, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 2})
	require.NoError(t, err)

	accepted, err := p.ListHypotheses("generic_local", hypothesis.StatusAccepted)
	require.NoError(t, err)
	assert.Len(t, accepted, 2)

	none, err := p.ListHypotheses("other_domain", "")
	require.NoError(t, err)
	assert.Empty(t, none)

	designed, err := p.ListExperiments(experiment.StatusDesigned)
	require.NoError(t, err)
	assert.Len(t, designed, 2)
}

func TestGetRun(t *testing.T) {
	p, _ := newTestPipeline(t)
	result, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 1})
	require.NoError(t, err)

	detail, err := p.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, detail.Run.ID)
	require.NotNil(t, detail.Manifest)
	assert.Equal(t, 1, detail.Manifest.TotalHypotheses)

	_, err = p.GetRun(core.RunID("G-unknown"))
	assert.True(t, core.IsNotFoundError(err))
}

func TestBundlePathsAreRelativeToStorageDir(t *testing.T) {
	p, led := newTestPipeline(t)
	result, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 1})
	require.NoError(t, err)

	paths := result.Paths
	assert.Equal(t, led.Root(), paths.StorageDir)
	assert.True(t, filepath.IsAbs(paths.StorageDir), "storage dir is the one absolute anchor")

	relative := map[string]string{
		"manifest":     paths.Manifest,
		"hypotheses":   paths.Hypotheses,
		"experiments":  paths.Experiments,
		"scores":       paths.Scores,
		"instructions": paths.RunInstructions,
	}
	for name, path := range relative {
		assert.False(t, filepath.IsAbs(path), "%s path must be relative", name)
	}
	assert.Equal(t, filepath.Join("runs", result.RunID.String(), ledger.ManifestFile), paths.Manifest)

	// The manifest on disk records the same relative paths.
	data, err := led.ReadBundleFile(result.RunID, ledger.ManifestFile)
	require.NoError(t, err)
	var manifest run.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, paths, manifest.Paths)
}

func TestGetRunWithoutBundle(t *testing.T) {
	p, led := newTestPipeline(t)
	result, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 1})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(led.BundleDir(result.RunID)))

	detail, err := p.GetRun(result.RunID)
	require.NoError(t, err, "a missing bundle must not hide the run record")
	assert.Nil(t, detail.Manifest)
}

func TestExecuteExperimentStub(t *testing.T) {
	p, _ := newTestPipeline(t)
	result, err := p.Run(context.Background(), RunRequest{Domain: "generic_local", Seed: 42, Count: 1})
	require.NoError(t, err)
	require.Len(t, result.ExperimentIDs, 1)

	execution, err := p.ExecuteExperiment(result.ExperimentIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "SIMULATED", execution.Status)
	assert.Contains(t, execution.Summary, "no commands were run")

	_, err = p.ExecuteExperiment(core.ExperimentID("E-unknown"))
	assert.True(t, core.IsNotFoundError(err))
}

func TestSelfCheck(t *testing.T) {
	p, _ := newTestPipeline(t)

	result, err := p.SelfCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Deterministic)
	assert.True(t, result.IDsMatch)
	assert.True(t, result.TotalsMatch)
	assert.True(t, result.JSONMatch)
	assert.Equal(t, result.Run1ID, result.Run2ID)
}
