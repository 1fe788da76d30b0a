// Package excel exports a run's decisions as an xlsx workbook for offline
// review. The workbook is a convenience artifact; the JSONL ledger stays the
// source of truth.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"hypolab/domain/hypothesis"
	"hypolab/domain/run"
	"hypolab/domain/verdict"
)

// Sheet names in the exported workbook
const (
	DecisionsSheet = "Decisions"
	ScoresSheet    = "Scores"
)

// Report holds everything one run export needs
type Report struct {
	Run        run.Record
	Hypotheses []hypothesis.Hypothesis
	Scores     []verdict.ScoreRecord
}

// Write saves the report as an xlsx workbook at path
func (r *Report) Write(path string) error {
	f := excelize.NewFile()

	idx, err := f.NewSheet(DecisionsSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(ScoresSheet); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := r.writeDecisions(f); err != nil {
		return err
	}
	if err := r.writeScores(f); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report to %s: %w", path, err)
	}
	return nil
}

func (r *Report) writeDecisions(f *excelize.File) error {
	byHypothesis := make(map[string]verdict.ScoreRecord, len(r.Scores))
	for _, s := range r.Scores {
		byHypothesis[s.HypothesisID.String()] = s
	}

	headers := []string{"Hypothesis ID", "Title", "Claim", "Status", "Decision Reason", "Similarity", "Closest Known"}
	if err := writeRow(f, DecisionsSheet, 1, toCells(headers)); err != nil {
		return err
	}

	for i, h := range r.Hypotheses {
		score := byHypothesis[h.ID.String()]
		cells := []interface{}{
			h.ID.String(),
			h.Title,
			h.Claim,
			string(h.Status),
			score.Reason,
			score.SimilarityScore,
			h.NoveltyAnchor.ClosestKnown,
		}
		if err := writeRow(f, DecisionsSheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) writeScores(f *excelize.File) error {
	headers := []string{"Hypothesis ID", "Decision", "Novelty", "Falsifiability", "Mechanistic Coherence", "Test Cost", "Reproducibility", "Risk", "Gates Passed", "Gate Failures"}
	if err := writeRow(f, ScoresSheet, 1, toCells(headers)); err != nil {
		return err
	}

	for i, s := range r.Scores {
		cells := []interface{}{
			s.HypothesisID.String(),
			string(s.Decision),
			s.Scores.Novelty,
			s.Scores.Falsifiability,
			s.Scores.MechanisticCoherence,
			s.Scores.TestCost,
			s.Scores.Reproducibility,
			s.Scores.Risk,
			len(s.GatesPassed),
			joinOrDash(s.GateFailures),
		}
		if err := writeRow(f, ScoresSheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	for col, value := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func toCells(headers []string) []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

func joinOrDash(failures []string) string {
	if len(failures) == 0 {
		return "-"
	}
	out := failures[0]
	for _, f := range failures[1:] {
		out += "; " + f
	}
	return out
}
