// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Command pipeline runs one full batch of the Medallion pipeline:
// bronze ingestion of the raw exports, silver cleaning and quarantine,
// gold metric computation, lakehouse artifact snapshots, and the DuckDB
// analytics load.
//
// Configuration comes from a YAML file (CONFIG_PATH or the default
// search paths) layered under MEDALLION_-prefixed environment variables.
// The process exits non-zero if any stage fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medallion-analytics/medallion/internal/config"
	"github.com/medallion-analytics/medallion/internal/logging"
	"github.com/medallion-analytics/medallion/internal/pipeline"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("medallion " + version)
		return
	}

	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Pipeline run failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logging.Init(logCfg)

	window := time.Now().UTC().Format("2006-01-02")
	run := logging.NewRun(cfg.Pipeline.Name, window)
	ctx := logging.ContextWithRun(context.Background(), run)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Ctx(ctx).Info().
		Str("version", version).
		Str("events", cfg.Sources.EventsPath).
		Str("subscriptions", cfg.Sources.SubscriptionsPath).
		Str("marketing", cfg.Sources.MarketingPath).
		Str("database", cfg.Database.Path).
		Bool("parallel_gold", cfg.Pipeline.ParallelGold).
		Msg("Starting pipeline run")

	runner, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Closing sink failed")
		}
	}()

	if _, err := runner.Run(ctx); err != nil {
		return err
	}
	return nil
}
