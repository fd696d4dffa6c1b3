// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

func TestWriteTable(t *testing.T) {

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	rows := []models.SpendRow{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Channel: "ads", Spend: 50},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Channel: "ads", Spend: 0},
	}

	if err := store.WriteTable(LayerSilver, "marketing_spend_clean", rows); err != nil {
		t.Fatalf("WriteTable error: %v", err)
	}

	data, err := os.ReadFile(store.Path(LayerSilver, "marketing_spend_clean"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"channel":"ads"`) {
		t.Errorf("unexpected first line: %s", lines[0])
	}
}

func TestWriteTableOverwrites(t *testing.T) {

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.WriteTable(LayerGold, "ltv_per_user", []models.LTVRow{{UserID: "u1", LTV: 10}}); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteTable(LayerGold, "ltv_per_user", []models.LTVRow{{UserID: "u2", LTV: 5}}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(store.Path(LayerGold, "ltv_per_user"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "u1") {
		t.Error("rerun should fully replace the previous artifact")
	}
}

func TestWriteTableEmpty(t *testing.T) {

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.WriteTable(LayerQuarantine, "events_rejected", []models.RejectedRecord(nil)); err != nil {
		t.Fatalf("empty table write should succeed: %v", err)
	}

	info, err := os.Stat(store.Path(LayerQuarantine, "events_rejected"))
	if err != nil {
		t.Fatalf("empty table file should exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("empty table should be a zero-length file, got %d bytes", info.Size())
	}
}

func TestWriteTableLeavesNoTempFiles(t *testing.T) {

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.WriteTable(LayerGold, "mrr_daily", []models.MRRRow{{MRR: 1}}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, LayerGold))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("stray temp file: %s", e.Name())
		}
	}
}
