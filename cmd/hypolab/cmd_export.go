package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"hypolab/adapters/excel"
	"hypolab/domain/core"
	"hypolab/domain/hypothesis"
	"hypolab/domain/verdict"
	"hypolab/internal/errors"
	"hypolab/internal/ledger"
)

var (
	exportRunID string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run's decisions and scores as an xlsx workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run identifier to export (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "report.xlsx", "output file path")
	_ = exportCmd.MarkFlagRequired("run")
}

func runExport(cmd *cobra.Command, _ []string) error {
	_, led, _, err := buildPipeline()
	if err != nil {
		return err
	}

	id := core.RunID(exportRunID)
	record, err := led.FindRun(id)
	if err != nil {
		return err
	}

	var hypotheses []hypothesis.Hypothesis
	if err := readBundleJSON(led, id, ledger.HypothesesFile, &hypotheses); err != nil {
		return err
	}
	var scores []verdict.ScoreRecord
	if err := readBundleJSON(led, id, ledger.ScoresFile, &scores); err != nil {
		return err
	}

	report := &excel.Report{Run: record, Hypotheses: hypotheses, Scores: scores}
	if err := report.Write(exportOut); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", id, exportOut)
	return nil
}

func readBundleJSON(led *ledger.Ledger, id core.RunID, name string, v interface{}) error {
	data, err := led.ReadBundleFile(id, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parsing %s", name)
	}
	return nil
}
