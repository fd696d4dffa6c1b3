// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package config provides layered configuration for the Medallion pipeline.
//
// Configuration is loaded via Koanf v2 with the following precedence
// (highest wins):
//
//  1. Environment variables (MEDALLION_ prefix)
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Built-in defaults
package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for a pipeline run.
type Config struct {
	Sources   SourcesConfig   `koanf:"sources"`
	Lakehouse LakehouseConfig `koanf:"lakehouse"`
	Database  DatabaseConfig  `koanf:"database"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SourcesConfig locates the three raw inputs.
type SourcesConfig struct {
	// EventsPath is the newline-delimited JSON events export.
	EventsPath string `koanf:"events_path" validate:"required"`

	// SubscriptionsPath is the JSON-array subscriptions export.
	SubscriptionsPath string `koanf:"subscriptions_path" validate:"required"`

	// MarketingPath is the marketing spend CSV.
	MarketingPath string `koanf:"marketing_path" validate:"required"`
}

// LakehouseConfig locates the output artifact tree. Each layer writes
// under its own subdirectory (bronze/, silver/, gold/, quarantine/).
type LakehouseConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// DatabaseConfig configures the DuckDB sink.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// PipelineConfig configures run behavior.
type PipelineConfig struct {
	// Name labels the run; it feeds the pipeline identifier in logs.
	Name string `koanf:"name" validate:"required"`

	// ParallelGold runs the independent gold engines concurrently.
	// Output is identical either way.
	ParallelGold bool `koanf:"parallel_gold"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment.
func defaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			EventsPath:        filepath.Join("data", "events.ndjson"),
			SubscriptionsPath: filepath.Join("data", "subscriptions.json"),
			MarketingPath:     filepath.Join("data", "marketing_spend.csv"),
		},
		Lakehouse: LakehouseConfig{
			Dir: "lakehouse",
		},
		Database: DatabaseConfig{
			Path:      filepath.Join("lakehouse", "gold.duckdb"),
			MaxMemory: "2GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Pipeline: PipelineConfig{
			Name:         "medallion",
			ParallelGold: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
