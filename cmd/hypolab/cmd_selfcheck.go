package main

import (
	"github.com/spf13/cobra"
)

var selfCheckCmd = &cobra.Command{
	Use:   "selfcheck",
	Short: "Verify the pipeline reproduces identical output from identical inputs",
	Long: "Runs the same fixed pipeline invocation twice in isolated throwaway data\n" +
		"roots and compares identifiers, totals and content byte for byte.\n" +
		"Exits non-zero when the two runs diverge.",
	RunE: runSelfCheck,
}

func runSelfCheck(cmd *cobra.Command, _ []string) error {
	pipeline, _, _, err := buildPipeline()
	if err != nil {
		return err
	}
	result, checkErr := pipeline.SelfCheck(cmd.Context())
	if result != nil {
		if err := printJSON(result); err != nil {
			return err
		}
	}
	return checkErr
}
