package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hypolab/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local JSON API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	pipeline, _, cfg, err := buildPipeline()
	if err != nil {
		return err
	}

	apiApp, err := ui.NewApp(ui.Config{Port: cfg.Server.Port}, pipeline, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return apiApp.Serve(ctx)
}
