// Package app wires the full pipeline: propose, critique, design, gate,
// score, decide, persist. Everything the pipeline needs arrives through an
// explicit Config; there are no package-level singletons, so two pipelines
// with separate data roots can coexist in one process.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"hypolab/domain/core"
	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
	"hypolab/domain/pack"
	"hypolab/domain/run"
	"hypolab/domain/verdict"
	hl "hypolab/internal"
	"hypolab/internal/gates"
	"hypolab/internal/ledger"
	"hypolab/internal/scorer"
	"hypolab/internal/similarity"
	"hypolab/ports"
)

// Hypothesis count bounds for one run
const (
	MinHypothesisCount = 1
	MaxHypothesisCount = 50
)

// Config carries every collaborator the pipeline uses. Ledger and Generator
// are required; the rest default sensibly.
type Config struct {
	Ledger           *ledger.Ledger
	Generator        ports.Generator
	Logger           *hl.Logger
	Clock            core.Clock
	NoveltyThreshold float64
}

// Pipeline orchestrates runs against one data root
type Pipeline struct {
	ledger    *ledger.Ledger
	generator ports.Generator
	logger    *hl.Logger
	clock     core.Clock
	threshold float64
}

// NewPipeline validates the config and builds a pipeline
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Ledger == nil {
		return nil, core.NewValidationError("pipeline", "ledger is required")
	}
	if cfg.Generator == nil {
		return nil, core.NewValidationError("pipeline", "generator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hl.NewDefaultLogger()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	threshold := cfg.NoveltyThreshold
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	return &Pipeline{
		ledger:    cfg.Ledger,
		generator: cfg.Generator,
		logger:    logger,
		clock:     clock,
		threshold: threshold,
	}, nil
}

// RunRequest specifies one pipeline invocation
type RunRequest struct {
	Domain string `json:"domain"`
	Seed   int64  `json:"seed"`
	Count  int    `json:"count"`
}

// Validate rejects malformed requests before any work happens
func (r RunRequest) Validate() error {
	if strings.TrimSpace(r.Domain) == "" {
		return core.NewValidationError("run_request", "domain cannot be empty")
	}
	if r.Seed < 0 {
		return core.NewValidationError("run_request", "seed must be non-negative")
	}
	if r.Count < MinHypothesisCount || r.Count > MaxHypothesisCount {
		return core.NewValidationError("run_request",
			fmt.Sprintf("count must be between %d and %d", MinHypothesisCount, MaxHypothesisCount))
	}
	return nil
}

// RunResult summarizes one completed run
type RunResult struct {
	RunID           core.RunID          `json:"run_id"`
	AcceptedIDs     []core.HypothesisID `json:"accepted_hypothesis_ids"`
	ExperimentIDs   []core.ExperimentID `json:"experiment_ids"`
	TotalHypotheses int                 `json:"total_hypotheses"`
	TotalAccepted   int                 `json:"total_accepted"`
	Paths           run.BundlePaths     `json:"paths"`
}

// Run executes the full pipeline once. A failure in one hypothesis never
// aborts the others; storage failures and a not-implemented generator do
// abort the whole run.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	domainPack, err := p.ledger.DomainPack(req.Domain)
	if err != nil {
		return nil, err
	}
	packDigest, err := domainPack.Digest()
	if err != nil {
		return nil, err
	}

	allPriors, _, err := p.ledger.Priors()
	if err != nil {
		return nil, err
	}
	priors := ledger.FilterPriorsByDomain(allPriors, req.Domain)
	priorsVersion, err := pack.PriorsVersion(priors)
	if err != nil {
		return nil, err
	}

	allHypotheses, _, err := p.ledger.Hypotheses()
	if err != nil {
		return nil, err
	}
	existing := ledger.FilterHypothesesByDomain(allHypotheses, req.Domain)

	digest, err := core.InputsDigest(req.Domain, req.Seed, req.Count, packDigest, priorsVersion)
	if err != nil {
		return nil, err
	}

	now := p.clock()
	ids := core.GenerateIDs(digest, req.Count, now)
	createdAt := core.NewTimestamp(now)

	p.logger.Info("run %s: domain=%s seed=%d count=%d priors=%d existing=%d",
		ids.RunID, req.Domain, req.Seed, req.Count, len(priors), len(existing))

	hypotheses := make([]hypothesis.Hypothesis, 0, req.Count)
	experiments := make([]experiment.Experiment, 0, req.Count)
	records := make([]verdict.ScoreRecord, 0, req.Count)
	experimentIDs := make([]core.ExperimentID, 0, req.Count)
	acceptedIDs := make([]core.HypothesisID, 0, req.Count)
	simScores := make([]float64, 0, req.Count)
	coreScores := make([]float64, 0, req.Count)

	for i := 0; i < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hid := ids.HypothesisIDs[i]
		genReq := ports.GenerateRequest{Domain: req.Domain, Index: i, Seed: req.Seed, Pack: domainPack}

		h, exp, genNote, err := p.generate(ctx, genReq, hid, ids.ExperimentIDs[hid], createdAt)
		if err != nil {
			return nil, err
		}

		// New hypotheses from this run are deliberately absent from the
		// novelty corpus; only prior state counts.
		match := similarity.Check(h.Claim, priors, existing, p.threshold)
		h.NoveltyAnchor = hypothesis.NoveltyAnchor{ClosestKnown: match.Label, Difference: match.Difference}

		outcome := gates.Apply(gates.Input{
			Hypothesis:       h,
			Experiment:       exp,
			SimilarityScore:  match.Score,
			NoveltyThreshold: p.threshold,
		})
		scores, notes := scorer.Compute(h, exp, match.Score)
		accepted, reason := scorer.ShouldAccept(scores, outcome.Failures)
		if genNote != "" {
			notes = append([]string{genNote}, notes...)
		}
		if len(notes) > 0 {
			reason = reason + " (notes: " + strings.Join(notes, "; ") + ")"
		}

		decision := verdict.DecisionRejected
		h.Status = hypothesis.StatusRejected
		if accepted {
			decision = verdict.DecisionAccepted
			h.Status = hypothesis.StatusAccepted
			acceptedIDs = append(acceptedIDs, h.ID)
		}
		p.logger.Debug("hypothesis %s: decision=%s similarity=%.3f", h.ID, decision, match.Score)

		hypotheses = append(hypotheses, h)
		if exp != nil {
			experiments = append(experiments, *exp)
			experimentIDs = append(experimentIDs, exp.ID)
		}
		records = append(records, verdict.ScoreRecord{
			HypothesisID:    h.ID,
			Scores:          scores,
			GatesPassed:     outcome.PassedNames,
			GateFailures:    outcome.Failures,
			Decision:        decision,
			Reason:          reason,
			SimilarityScore: match.Score,
			CreatedAt:       createdAt,
		})
		simScores = append(simScores, match.Score)
		coreScores = append(coreScores, (scores.Novelty+scores.Falsifiability+scores.Reproducibility)/3.0)
	}

	for i := range hypotheses {
		if err := p.ledger.AppendHypothesis(hypotheses[i]); err != nil {
			return nil, err
		}
	}
	for i := range experiments {
		if err := p.ledger.AppendExperiment(experiments[i]); err != nil {
			return nil, err
		}
	}
	for i := range records {
		if err := p.ledger.AppendScore(records[i]); err != nil {
			return nil, err
		}
	}

	record := run.Record{
		ID:            ids.RunID,
		CreatedAt:     createdAt,
		Domain:        req.Domain,
		Seed:          req.Seed,
		InputsDigest:  digest,
		HypothesisIDs: ids.HypothesisIDs,
		AcceptedIDs:   acceptedIDs,
		Notes:         runNotes(simScores, coreScores),
	}
	if err := p.ledger.AppendRun(record); err != nil {
		return nil, err
	}

	paths := p.bundlePaths(ids.RunID)
	manifest := run.Manifest{
		RunID:           ids.RunID,
		CreatedAt:       createdAt,
		Domain:          req.Domain,
		Seed:            req.Seed,
		AcceptedIDs:     acceptedIDs,
		TotalHypotheses: len(hypotheses),
		TotalAccepted:   len(acceptedIDs),
		Paths:           paths,
	}
	// The bundle carries accepted hypotheses only; experiments and scores
	// stay complete so rejections remain auditable.
	acceptedHypotheses := make([]hypothesis.Hypothesis, 0, len(acceptedIDs))
	for _, h := range hypotheses {
		if h.Status == hypothesis.StatusAccepted {
			acceptedHypotheses = append(acceptedHypotheses, h)
		}
	}
	bundle := ledger.Bundle{
		Manifest:     manifest,
		Hypotheses:   acceptedHypotheses,
		Experiments:  experiments,
		Scores:       records,
		Instructions: renderInstructions(record, hypotheses, experiments),
	}
	if err := p.ledger.WriteBundle(bundle); err != nil {
		return nil, err
	}

	p.logger.Info("run %s complete: %d/%d accepted", ids.RunID, len(acceptedIDs), len(hypotheses))
	return &RunResult{
		RunID:           ids.RunID,
		AcceptedIDs:     acceptedIDs,
		ExperimentIDs:   experimentIDs,
		TotalHypotheses: len(hypotheses),
		TotalAccepted:   len(acceptedIDs),
		Paths:           paths,
	}, nil
}

// generate runs propose, critique and design for one index. A not-implemented
// generator surfaces as a run-level error; any other generation failure is
// absorbed into placeholder content that the gates will reject.
func (p *Pipeline) generate(ctx context.Context, req ports.GenerateRequest, hid core.HypothesisID, eid core.ExperimentID, createdAt core.Timestamp) (hypothesis.Hypothesis, *experiment.Experiment, string, error) {
	var note string
	proposeFailed := false

	proposed, err := p.generator.Hypothesis(ctx, req)
	if err != nil {
		if core.IsNotImplementedError(err) {
			return hypothesis.Hypothesis{}, nil, "", err
		}
		p.logger.Warn("hypothesis %s: generation failed: %v", hid, err)
		proposed = &hypothesis.Hypothesis{
			Domain: req.Domain,
			Title:  "generation failed",
			Claim:  fmt.Sprintf("generation failed at index %d: %v", req.Index, err),
		}
		note = fmt.Sprintf("hypothesis generation failed: %v", err)
		proposeFailed = true
	}

	h := *proposed
	h.ID = hid
	h.Domain = req.Domain
	h.Status = hypothesis.StatusProposed
	h.CreatedAt = createdAt
	if h.CreatedBy == "" {
		h.CreatedBy = p.generator.Name()
	}

	if !proposeFailed {
		critique, err := p.generator.Critique(ctx, h)
		if err != nil {
			if core.IsNotImplementedError(err) {
				return hypothesis.Hypothesis{}, nil, "", err
			}
			p.logger.Warn("hypothesis %s: critique failed: %v", hid, err)
			note = fmt.Sprintf("critique failed: %v", err)
		} else {
			h.Critique = critique
		}
	}

	var exp *experiment.Experiment
	if !proposeFailed {
		designed, err := p.generator.Experiment(ctx, h, req)
		if err != nil {
			if core.IsNotImplementedError(err) {
				return hypothesis.Hypothesis{}, nil, "", err
			}
			p.logger.Warn("hypothesis %s: experiment design failed: %v", hid, err)
			if note == "" {
				note = fmt.Sprintf("experiment design failed: %v", err)
			}
		} else {
			exp = designed
			exp.ID = eid
			exp.HypothesisID = hid
			exp.Domain = req.Domain
			exp.CreatedAt = createdAt
			if exp.Status == "" {
				exp.Status = experiment.StatusDesigned
			}
			h.ExperimentID = eid
		}
	}

	return h, exp, note, nil
}

// bundlePaths records bundle locations relative to the data root, with
// StorageDir as the single absolute anchor.
func (p *Pipeline) bundlePaths(id core.RunID) run.BundlePaths {
	dir := ledger.BundleRelDir(id)
	return run.BundlePaths{
		Manifest:        filepath.Join(dir, ledger.ManifestFile),
		Hypotheses:      filepath.Join(dir, ledger.HypothesesFile),
		Experiments:     filepath.Join(dir, ledger.ExperimentsFile),
		Scores:          filepath.Join(dir, ledger.ScoresFile),
		RunInstructions: filepath.Join(dir, ledger.InstructionsFile),
		StorageDir:      p.ledger.Root(),
	}
}

// runNotes summarizes run-level score statistics for the run record
func runNotes(simScores, coreScores []float64) string {
	return fmt.Sprintf("similarity mean=%.4f stddev=%.4f; core score mean=%.4f stddev=%.4f",
		stat.Mean(simScores, nil), safeStdDev(simScores),
		stat.Mean(coreScores, nil), safeStdDev(coreScores))
}

func safeStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0.0
	}
	return stat.StdDev(xs, nil)
}

// ListHypotheses returns the current hypothesis view, optionally filtered
func (p *Pipeline) ListHypotheses(domain string, status hypothesis.Status) ([]hypothesis.Hypothesis, error) {
	all, _, err := p.ledger.Hypotheses()
	if err != nil {
		return nil, err
	}
	return ledger.FilterHypothesesByStatus(ledger.FilterHypothesesByDomain(all, domain), status), nil
}

// ListExperiments returns all designed experiments, optionally filtered
func (p *Pipeline) ListExperiments(status experiment.Status) ([]experiment.Experiment, error) {
	all, _, err := p.ledger.Experiments()
	if err != nil {
		return nil, err
	}
	return ledger.FilterExperimentsByStatus(all, status), nil
}

// RunDetail is one run record plus its bundle artifacts
type RunDetail struct {
	Run       run.Record    `json:"run"`
	Manifest  *run.Manifest `json:"manifest,omitempty"`
	BundleDir string        `json:"bundle_dir"`
}

// GetRun fetches a run and its manifest. The manifest may be absent when the
// bundle was removed out of band; the run record alone still resolves.
func (p *Pipeline) GetRun(id core.RunID) (*RunDetail, error) {
	record, err := p.ledger.FindRun(id)
	if err != nil {
		return nil, err
	}
	detail := &RunDetail{Run: record, BundleDir: p.ledger.BundleDir(id)}
	if data, err := p.ledger.ReadBundleFile(id, ledger.ManifestFile); err == nil {
		var m run.Manifest
		if json.Unmarshal(data, &m) == nil {
			detail.Manifest = &m
		}
	}
	return detail, nil
}

// Instructions returns the rendered markdown instructions for a run
func (p *Pipeline) Instructions(id core.RunID) ([]byte, error) {
	if _, err := p.ledger.FindRun(id); err != nil {
		return nil, err
	}
	return p.ledger.ReadBundleFile(id, ledger.InstructionsFile)
}

// StubExecution is the canned result of the experiment execution stub
type StubExecution struct {
	ExperimentID core.ExperimentID `json:"experiment_id"`
	Status       string            `json:"status"`
	Summary      string            `json:"summary"`
}

// ExecuteExperiment is a fixed stub. It verifies the experiment exists and
// returns a canned synthetic result; no command is ever run.
func (p *Pipeline) ExecuteExperiment(id core.ExperimentID) (*StubExecution, error) {
	all, _, err := p.ledger.Experiments()
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if e.ID == id {
			return &StubExecution{
				ExperimentID: id,
				Status:       "SIMULATED",
				Summary:      "execution stub: no commands were run; follow the run instructions to execute locally",
			}, nil
		}
	}
	return nil, core.NewNotFoundError("experiment", id.String())
}

// renderInstructions emits the human-facing markdown for a run bundle
func renderInstructions(record run.Record, hypotheses []hypothesis.Hypothesis, experiments []experiment.Experiment) string {
	byHypothesis := make(map[core.HypothesisID]experiment.Experiment, len(experiments))
	for _, e := range experiments {
		byHypothesis[e.HypothesisID] = e
	}
	acceptedSet := make(map[core.HypothesisID]struct{}, len(record.AcceptedIDs))
	for _, id := range record.AcceptedIDs {
		acceptedSet[id] = struct{}{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Run instructions for %s\n\n", record.ID)
	fmt.Fprintf(&b, "- Domain: `%s`\n- Seed: `%d`\n- Hypotheses: %d proposed, %d accepted\n\n",
		record.Domain, record.Seed, len(hypotheses), len(record.AcceptedIDs))
	b.WriteString("All experiments are designed for local execution only. Review every step before running anything; nothing below has been executed.\n\n")

	if len(record.AcceptedIDs) == 0 {
		b.WriteString("No hypotheses were accepted in this run. Nothing to execute.\n")
		return b.String()
	}

	b.WriteString("## Accepted hypotheses\n\n")
	for _, h := range hypotheses {
		if _, ok := acceptedSet[h.ID]; !ok {
			continue
		}
		fmt.Fprintf(&b, "### %s (%s)\n\n", h.Title, h.ID)
		fmt.Fprintf(&b, "Claim: %s\n\n", h.Claim)
		e, ok := byHypothesis[h.ID]
		if !ok {
			b.WriteString("No experiment was designed for this hypothesis.\n\n")
			continue
		}
		fmt.Fprintf(&b, "Experiment `%s` (method: %s):\n\n", e.ID, e.Protocol.Method)
		for i, step := range e.Protocol.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		fmt.Fprintf(&b, "\nSuccess: %s\n\nFailure: %s\n\n", e.Protocol.SuccessCriteria, e.Protocol.FailureCriteria)
		if e.Reproducibility.RunCommand != "" {
			fmt.Fprintf(&b, "Replay command:\n\n```\n%s\n```\n\n", e.Reproducibility.RunCommand)
		}
	}
	return b.String()
}
