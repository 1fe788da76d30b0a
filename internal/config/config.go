// Package config reads application configuration from environment variables.
// Every knob has a safe local default; nothing here reaches the network.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"hypolab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Storage   StorageConfig
	Server    ServerConfig
	Pipeline  PipelineConfig
	Generator GeneratorConfig
}

// StorageConfig holds the local data root settings
type StorageConfig struct {
	DataRoot string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PipelineConfig holds run-level knobs
type PipelineConfig struct {
	NoveltyThreshold float64
}

// GeneratorConfig selects and parameterizes the generation variant
type GeneratorConfig struct {
	Variant string
	Model   string
}

// Generator variants accepted by GENERATOR
const (
	GeneratorSynthetic = "synthetic"
	GeneratorLLM       = "llm"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Storage: StorageConfig{
			DataRoot: getEnvOrDefault("DATA_ROOT", filepath.Join(".", "data")),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Pipeline: PipelineConfig{
			NoveltyThreshold: getEnvFloatOrDefault("NOVELTY_THRESHOLD", 0.82),
		},
		Generator: GeneratorConfig{
			Variant: getEnvOrDefault("GENERATOR", GeneratorSynthetic),
			Model:   getEnvOrDefault("LLM_MODEL", "local-7b"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Storage.DataRoot == "" {
		return errors.InvalidInput("data root cannot be empty")
	}
	if config.Pipeline.NoveltyThreshold <= 0.0 || config.Pipeline.NoveltyThreshold > 1.0 {
		return errors.InvalidInput("novelty threshold must be in (0, 1]")
	}
	switch config.Generator.Variant {
	case GeneratorSynthetic, GeneratorLLM:
	default:
		return errors.InvalidInput("unknown generator variant " + config.Generator.Variant)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
