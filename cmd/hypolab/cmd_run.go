package main

import (
	"github.com/spf13/cobra"

	"hypolab/app"
)

var (
	runDomain string
	runSeed   int64
	runCount  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one propose-critique-design-score pipeline run",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDomain, "domain", "", "domain to generate hypotheses for (required)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "deterministic seed")
	runCmd.Flags().IntVar(&runCount, "count", 5, "number of hypotheses to propose")
	_ = runCmd.MarkFlagRequired("domain")
}

func runRun(cmd *cobra.Command, _ []string) error {
	pipeline, _, _, err := buildPipeline()
	if err != nil {
		return err
	}
	result, err := pipeline.Run(cmd.Context(), app.RunRequest{
		Domain: runDomain,
		Seed:   runSeed,
		Count:  runCount,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}
