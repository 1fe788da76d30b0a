package app

import (
	"bytes"
	"context"
	"os"
	"time"

	"hypolab/adapters/generator"
	"hypolab/domain/core"
	"hypolab/domain/hypothesis"
	"hypolab/domain/verdict"
	"hypolab/internal/ledger"
)

// Fixed self-check inputs. The check always uses the synthetic generator so
// it verifies pipeline determinism, not the configured generator.
const (
	selfCheckDomain = "test_domain"
	selfCheckSeed   = int64(42)
	selfCheckCount  = 3
)

// SelfCheckResult reports whether two identical runs produced identical
// identifiers, totals and content.
type SelfCheckResult struct {
	Deterministic bool       `json:"deterministic"`
	IDsMatch      bool       `json:"ids_match"`
	TotalsMatch   bool       `json:"totals_match"`
	JSONMatch     bool       `json:"json_match"`
	Run1ID        core.RunID `json:"run1_id"`
	Run2ID        core.RunID `json:"run2_id"`
}

type selfCheckRun struct {
	result     *RunResult
	hypotheses []hypothesis.Hypothesis
	scores     []verdict.ScoreRecord
}

// SelfCheck executes the same fixed run twice in two isolated throwaway data
// roots under a pinned clock, then compares identifiers, totals and the
// canonical content serialization. Any divergence means a non-deterministic
// code path crept in.
func (p *Pipeline) SelfCheck(ctx context.Context) (*SelfCheckResult, error) {
	pinned := p.clock()
	clock := func() time.Time { return pinned }

	first, err := p.isolatedRun(ctx, clock)
	if err != nil {
		return nil, err
	}
	second, err := p.isolatedRun(ctx, clock)
	if err != nil {
		return nil, err
	}

	firstContent, err := contentJSON(first)
	if err != nil {
		return nil, err
	}
	secondContent, err := contentJSON(second)
	if err != nil {
		return nil, err
	}

	result := &SelfCheckResult{
		Run1ID: first.result.RunID,
		Run2ID: second.result.RunID,
	}
	result.IDsMatch = first.result.RunID == second.result.RunID &&
		equalIDs(first.result.AcceptedIDs, second.result.AcceptedIDs)
	result.TotalsMatch = first.result.TotalHypotheses == second.result.TotalHypotheses &&
		first.result.TotalAccepted == second.result.TotalAccepted
	result.JSONMatch = bytes.Equal(firstContent, secondContent)
	result.Deterministic = result.IDsMatch && result.TotalsMatch && result.JSONMatch

	if !result.Deterministic {
		p.logger.Error("self-check failed: ids=%v totals=%v json=%v",
			result.IDsMatch, result.TotalsMatch, result.JSONMatch)
		return result, core.ErrNonDeterministic
	}
	p.logger.Info("self-check passed: run %s reproduced exactly", result.Run1ID)
	return result, nil
}

// isolatedRun executes the fixed self-check run in a fresh temp data root
// that is removed before returning.
func (p *Pipeline) isolatedRun(ctx context.Context, clock core.Clock) (*selfCheckRun, error) {
	root, err := os.MkdirTemp("", "hypolab-selfcheck-*")
	if err != nil {
		return nil, core.NewStorageError("selfcheck temp root", err)
	}
	defer os.RemoveAll(root)

	led, err := ledger.New(root, p.logger)
	if err != nil {
		return nil, err
	}
	isolated, err := NewPipeline(Config{
		Ledger:           led,
		Generator:        generator.NewSynthetic(),
		Logger:           p.logger,
		Clock:            clock,
		NoveltyThreshold: p.threshold,
	})
	if err != nil {
		return nil, err
	}

	result, err := isolated.Run(ctx, RunRequest{Domain: selfCheckDomain, Seed: selfCheckSeed, Count: selfCheckCount})
	if err != nil {
		return nil, err
	}
	hypotheses, _, err := led.Hypotheses()
	if err != nil {
		return nil, err
	}
	scores, _, err := led.Scores()
	if err != nil {
		return nil, err
	}
	return &selfCheckRun{result: result, hypotheses: hypotheses, scores: scores}, nil
}

// contentJSON serializes the identifier-free view of everything a run
// produced, in stable order, for byte comparison.
func contentJSON(r *selfCheckRun) ([]byte, error) {
	hypothesisViews := make([]map[string]interface{}, 0, len(r.hypotheses))
	for _, h := range r.hypotheses {
		hypothesisViews = append(hypothesisViews, h.ContentView())
	}
	scoreViews := make([]map[string]interface{}, 0, len(r.scores))
	for _, s := range r.scores {
		scoreViews = append(scoreViews, s.ContentView())
	}
	return core.CanonicalJSON(map[string]interface{}{
		"hypotheses": hypothesisViews,
		"scores":     scoreViews,
	})
}

func equalIDs(a, b []core.HypothesisID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
