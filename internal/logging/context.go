// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package logging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// contextKey is the private type for context keys in this package.
type contextKey string

const runKey contextKey = "run"

// Run identifies a single pipeline execution. Every log line emitted
// through Ctx carries these fields, so interleaved runs stay separable.
type Run struct {
	// RunID is a short unique identifier for this execution.
	RunID string

	// PipelineID is a stable identifier derived from the pipeline name
	// and start instant.
	PipelineID string

	// StartedAt is the UTC instant the run began.
	StartedAt time.Time

	// Window labels the data window this run covers (typically the run date).
	Window string
}

// NewRun creates a run identity for the given pipeline name and window.
// RunID is the first 8 characters of a UUID for readability; PipelineID
// is the first 10 hex characters of sha256(name|started_at).
func NewRun(pipelineName, window string) Run {
	started := time.Now().UTC().Truncate(time.Second)
	sum := sha256.Sum256([]byte(pipelineName + "|" + started.Format(time.RFC3339)))
	return Run{
		RunID:      uuid.New().String()[:8],
		PipelineID: hex.EncodeToString(sum[:])[:10],
		StartedAt:  started,
		Window:     window,
	}
}

// ContextWithRun returns a new context carrying the run identity.
func ContextWithRun(ctx context.Context, run Run) context.Context {
	return context.WithValue(ctx, runKey, run)
}

// RunFromContext retrieves the run identity from context.
// The second return is false if no run is attached.
func RunFromContext(ctx context.Context) (Run, bool) {
	run, ok := ctx.Value(runKey).(Run)
	return run, ok
}

// Ctx returns a logger with the run identity fields automatically added.
// This is the recommended way to log inside pipeline stages.
//
//	logging.Ctx(ctx).Info().Int("rows", n).Msg("Silver events saved")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()
	if run, ok := RunFromContext(ctx); ok {
		logger = logger.With().
			Str("pipeline_id", run.PipelineID).
			Str("run_id", run.RunID).
			Str("started_at", run.StartedAt.Format(time.RFC3339)).
			Str("window", run.Window).
			Logger()
	}
	return &logger
}
