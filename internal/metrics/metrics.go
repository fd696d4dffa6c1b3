// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package metrics provides Prometheus instrumentation for the pipeline:
// per-entity row counters for the clean/quarantine split, per-stage
// duration histograms, and sink load counters. Collectors are registered
// on the default registry so a scrape endpoint or textfile exporter can
// pick them up without further wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsRead counts raw rows read per entity (events, subscriptions,
	// marketing_spend).
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medallion_rows_read_total",
			Help: "Total raw rows read per entity",
		},
		[]string{"entity"},
	)

	// RowsAccepted counts rows that survived validation, deduplication
	// and overlap resolution per entity.
	RowsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medallion_rows_accepted_total",
			Help: "Total rows accepted into the clean tables per entity",
		},
		[]string{"entity"},
	)

	// RowsQuarantined counts quarantined rows per entity and reason tag.
	RowsQuarantined = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medallion_rows_quarantined_total",
			Help: "Total rows routed to quarantine per entity and reason",
		},
		[]string{"entity", "reason"},
	)

	// StageDuration observes wall-clock duration of each pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medallion_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// StageFailures counts stage aborts.
	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medallion_stage_failures_total",
			Help: "Total pipeline stage failures",
		},
		[]string{"stage"},
	)

	// TablesLoaded counts result tables loaded into the DuckDB sink.
	TablesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medallion_tables_loaded_total",
			Help: "Total result tables loaded into the analytics schema",
		},
		[]string{"table"},
	)
)

// ObserveStage records a completed stage's duration.
func ObserveStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
