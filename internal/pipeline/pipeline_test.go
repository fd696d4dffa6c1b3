// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/medallion-analytics/medallion/internal/config"
	"github.com/medallion-analytics/medallion/internal/logging"
	"github.com/medallion-analytics/medallion/internal/models"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	events := writeSource(t, dir, "events.ndjson", `{"event_id":"e1","user_id":"u1","event_type":"signup","timestamp":"2024-01-01T09:00:00Z","acquisition_channel":"google_ads"}
{"event_id":"e2","user_id":"u1","event_type":"purchase","timestamp":"2024-01-02T10:00:00Z","amount":100,"currency":"USD"}
{"event_id":"e3","user_id":"u1","event_type":"refund","timestamp":"2024-01-03T11:00:00Z","amount":30,"currency":"USD"}
{"event_id":"e4","user_id":"u2","event_type":"login","timestamp":"2024-01-02T08:00:00Z"}
not json at all
{"event_id":"e5","user_id":"u3","event_type":"page_view"}
`)
	subs := writeSource(t, dir, "subscriptions.json", `[
  {"subscription_id":"s1","user_id":"u1","plan_id":"pro","price":49,"currency":"USD","status":"Active","start_date":"2024-01-01","end_date":"2024-01-31","created_at":"2024-01-01T00:00:00Z"},
  {"subscription_id":"s2","user_id":"u1","plan_id":"pro","price":49,"currency":"USD","status":"active","start_date":"2024-01-15","end_date":"2024-02-15","created_at":"2024-01-15T00:00:00Z"},
  {"subscription_id":"s3","user_id":"u2","plan_id":"basic","price":9,"currency":"USD","status":"active","start_date":"2024-01-02","created_at":"2024-01-02T00:00:00Z"}
]`)
	marketing := writeSource(t, dir, "marketing_spend.csv", `date,channel,spend
2024-01-01,google_ads,200
2024-01-03,google_ads,100
2024-01-02,meta,50
`)

	cfg := &config.Config{
		Sources: config.SourcesConfig{
			EventsPath:        events,
			SubscriptionsPath: subs,
			MarketingPath:     marketing,
		},
		Lakehouse: config.LakehouseConfig{Dir: filepath.Join(dir, "lakehouse")},
		Database:  config.DatabaseConfig{Path: ":memory:", Threads: 1},
		Pipeline:  config.PipelineConfig{Name: "test"},
		Logging:   config.LoggingConfig{Level: "error", Format: "json"},
	}
	return cfg
}

func runPipeline(t *testing.T, cfg *config.Config) *Results {
	t.Helper()
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	ctx := logging.ContextWithRun(context.Background(), logging.NewRun(cfg.Pipeline.Name, "2024-01"))
	res, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRunEndToEnd(t *testing.T) {
	cfg := fixtureConfig(t)
	res := runPipeline(t, cfg)

	// e5 has no timestamp, so 4 events survive; the junk line is a
	// bronze bad line, not a silver rejection.
	if len(res.Events) != 4 {
		t.Fatalf("clean events: got %d, want 4", len(res.Events))
	}
	if len(res.EventsRejected) != 1 {
		t.Fatalf("rejected events: got %d, want 1", len(res.EventsRejected))
	}
	if got := res.EventsRejected[0].Reason; got != "MissingRequiredField:timestamp" {
		t.Errorf("rejection reason: got %q", got)
	}

	// s2 overlaps s1 for u1 and lands in quarantine with the overlap tag.
	if len(res.Subscriptions) != 2 {
		t.Fatalf("clean subscriptions: got %d, want 2", len(res.Subscriptions))
	}
	var overlapRows int
	for _, rec := range res.SubscriptionsRejected {
		if rec.Reason == models.ReasonOverlap {
			overlapRows++
			if rec.Fields["subscription_id"] != "s2" {
				t.Errorf("overlap row: got %q, want s2", rec.Fields["subscription_id"])
			}
		}
	}
	if overlapRows != 1 {
		t.Errorf("overlap quarantine rows: got %d, want 1", overlapRows)
	}

	// Spend grid is dense: 3 days x 2 channels.
	if len(res.SpendGrid) != 6 {
		t.Errorf("spend grid: got %d rows, want 6", len(res.SpendGrid))
	}

	// Net revenue over the window: 100 purchase - 30 refund.
	var net float64
	for _, row := range res.Gold.RevenueNet {
		net += row.Amount
	}
	if net != 70 {
		t.Errorf("net revenue total: got %v, want 70", net)
	}

	// MRR on Jan 2 covers s1 (49) and s3 (9).
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	found := false
	for _, row := range res.Gold.MRR {
		if row.Date.Equal(jan2) {
			found = true
			if row.MRR != 58 {
				t.Errorf("MRR on Jan 2: got %v, want 58", row.MRR)
			}
		}
	}
	if !found {
		t.Error("MRR series has no row for Jan 2")
	}

	// Artifact snapshots exist for every layer.
	for _, rel := range []string{
		"bronze/events_raw.jsonl",
		"silver/events_clean.jsonl",
		"quarantine/subscriptions_rejected.jsonl",
		"gold/ltv_cac_ratio.jsonl",
	} {
		if _, err := os.Stat(filepath.Join(cfg.Lakehouse.Dir, rel)); err != nil {
			t.Errorf("missing artifact %s: %v", rel, err)
		}
	}
}

func TestParallelGoldMatchesSequential(t *testing.T) {
	cfg := fixtureConfig(t)
	res := runPipeline(t, cfg)
	ctx := context.Background()

	seq, err := BuildGold(ctx, res.Events, res.Subscriptions, res.SpendGrid, false)
	if err != nil {
		t.Fatalf("sequential BuildGold: %v", err)
	}
	par, err := BuildGold(ctx, res.Events, res.Subscriptions, res.SpendGrid, true)
	if err != nil {
		t.Fatalf("parallel BuildGold: %v", err)
	}
	if !reflect.DeepEqual(seq, par) {
		t.Error("parallel gold output differs from sequential")
	}
}

func TestRunFailsOnMissingSource(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Sources.EventsPath = filepath.Join(t.TempDir(), "absent.ndjson")

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded with a missing events source")
	}
}

func TestOverlapsAsRejectedCarriesFields(t *testing.T) {
	end := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	in := []models.OverlapRecord{{
		CleanSubscription: models.CleanSubscription{
			SubscriptionID: "s9",
			UserID:         "u9",
			Price:          19.5,
			StartDate:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        &end,
			CreatedAt:      time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			SourceLine:     3,
		},
		Reason: models.ReasonOverlap,
	}}

	out := overlapsAsRejected(in)
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	rec := out[0]
	if rec.Reason != models.ReasonOverlap || rec.SourceLine != 3 {
		t.Errorf("reason/line: got %q/%d", rec.Reason, rec.SourceLine)
	}
	if rec.Fields["price"] != "19.5" || rec.Fields["end_date"] != "2024-02-15" {
		t.Errorf("fields: got %v", rec.Fields)
	}
}
