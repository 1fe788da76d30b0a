package main

import (
	"github.com/spf13/cobra"

	"hypolab/domain/experiment"
	"hypolab/domain/hypothesis"
)

var (
	listDomain string
	listStatus string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored hypotheses or experiments",
}

var listHypothesesCmd = &cobra.Command{
	Use:   "hypotheses",
	Short: "List hypotheses, optionally filtered by domain and status",
	RunE:  runListHypotheses,
}

var listExperimentsCmd = &cobra.Command{
	Use:   "experiments",
	Short: "List designed experiments, optionally filtered by status",
	RunE:  runListExperiments,
}

func init() {
	listCmd.PersistentFlags().StringVar(&listDomain, "domain", "", "filter by domain")
	listCmd.PersistentFlags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.AddCommand(listHypothesesCmd)
	listCmd.AddCommand(listExperimentsCmd)
}

func runListHypotheses(cmd *cobra.Command, _ []string) error {
	pipeline, _, _, err := buildPipeline()
	if err != nil {
		return err
	}
	hypotheses, err := pipeline.ListHypotheses(listDomain, hypothesis.Status(listStatus))
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"hypotheses": hypotheses,
		"total":      len(hypotheses),
	})
}

func runListExperiments(cmd *cobra.Command, _ []string) error {
	pipeline, _, _, err := buildPipeline()
	if err != nil {
		return err
	}
	experiments, err := pipeline.ListExperiments(experiment.Status(listStatus))
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"experiments": experiments,
		"total":       len(experiments),
	})
}
