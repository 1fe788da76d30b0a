package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hypolab",
	Short: "Deterministic local hypothesis pipeline",
	Long: "Hypolab proposes structured hypotheses, critiques them, designs local\n" +
		"falsification experiments and scores them, all without network access.\n" +
		"Identical inputs always reproduce identical content.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	// A missing .env file is fine; real environment variables win either way.
	_ = godotenv.Load()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(selfCheckCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
