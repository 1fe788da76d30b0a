package main

import (
	"encoding/json"
	"fmt"
	"os"

	"hypolab/adapters/generator"
	"hypolab/adapters/llm"
	"hypolab/app"
	hl "hypolab/internal"
	"hypolab/internal/config"
	"hypolab/internal/ledger"
	"hypolab/ports"
)

// buildPipeline assembles the pipeline from environment configuration
func buildPipeline() (*app.Pipeline, *ledger.Ledger, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	logger := hl.NewDefaultLogger()
	led, err := ledger.New(cfg.Storage.DataRoot, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	var gen ports.Generator
	switch cfg.Generator.Variant {
	case config.GeneratorLLM:
		gen = llm.NewGenerator(cfg.Generator.Model)
	default:
		gen = generator.NewSynthetic()
	}

	pipeline, err := app.NewPipeline(app.Config{
		Ledger:           led,
		Generator:        gen,
		Logger:           logger,
		NoveltyThreshold: cfg.Pipeline.NoveltyThreshold,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return pipeline, led, cfg, nil
}

// printJSON writes an indented JSON rendering of v to stdout
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
