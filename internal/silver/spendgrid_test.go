// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package silver

import (
	"testing"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

func TestBuildSpendGridFillsMissingDays(t *testing.T) {

	rows := []models.SpendRow{
		{Date: day(2024, 1, 1), Channel: "ads", Spend: 50},
		{Date: day(2024, 1, 3), Channel: "ads", Spend: 10},
	}

	grid := BuildSpendGrid(rows)

	if len(grid) != 3 {
		t.Fatalf("expected 3 rows (3 days x 1 channel), got %d", len(grid))
	}

	middle := grid[1]
	if !middle.Date.Equal(day(2024, 1, 2)) || middle.Channel != "ads" {
		t.Fatalf("unexpected middle row: %+v", middle)
	}
	if middle.Spend != 0 {
		t.Errorf("missing day should get spend 0, got %v", middle.Spend)
	}
}

func TestBuildSpendGridDensity(t *testing.T) {

	rows := []models.SpendRow{
		{Date: day(2024, 1, 1), Channel: "ads", Spend: 50},
		{Date: day(2024, 1, 1), Channel: "ads", Spend: 25}, // same cell, summed
		{Date: day(2024, 1, 5), Channel: "social", Spend: 10},
		{Date: day(2024, 1, 3), Channel: "email", Spend: 5},
	}

	grid := BuildSpendGrid(rows)

	days, channels := 5, 3
	if len(grid) != days*channels {
		t.Fatalf("grid rows = %d, want %d", len(grid), days*channels)
	}

	seen := make(map[string]int)
	for _, r := range grid {
		if r.Spend < 0 {
			t.Errorf("negative spend in grid: %+v", r)
		}
		seen[r.Date.Format("2006-01-02")+"|"+r.Channel]++
	}
	for cell, n := range seen {
		if n != 1 {
			t.Errorf("cell %s appears %d times", cell, n)
		}
	}

	if grid[0].Spend != 75 {
		t.Errorf("duplicate cells should be summed, got %v", grid[0].Spend)
	}
}

func TestBuildSpendGridEmpty(t *testing.T) {

	if grid := BuildSpendGrid(nil); len(grid) != 0 {
		t.Errorf("empty input should yield empty grid, got %d rows", len(grid))
	}
}

func TestCleanMarketingSpendRejectsNegative(t *testing.T) {

	batch := []models.RawRecord{
		{SourceLine: 1, Fields: map[string]string{"date": "2024-01-01", "channel": "ads", "spend": "50"}},
		{SourceLine: 2, Fields: map[string]string{"date": "2024-01-01", "channel": "ads", "spend": "-10"}},
		{SourceLine: 3, Fields: map[string]string{"date": "2024-01-01", "channel": "ads", "spend": "lots"}},
		{SourceLine: 4, Fields: map[string]string{"date": "bad", "channel": "ads", "spend": "10"}},
	}

	grid, rejected := CleanMarketingSpend(batch)

	if len(grid) != 1 || grid[0].Spend != 50 {
		t.Fatalf("expected single 50-spend row, got %+v", grid)
	}
	if len(rejected) != 3 {
		t.Fatalf("expected 3 rejects, got %d", len(rejected))
	}

	wantReasons := []string{
		models.ReasonInvalidNumeric + ":spend",
		models.ReasonInvalidNumeric + ":spend",
		models.ReasonUnparseableDate + ":date",
	}
	for i, want := range wantReasons {
		if rejected[i].Reason != want {
			t.Errorf("reject %d reason = %q, want %q", i, rejected[i].Reason, want)
		}
	}
}

// The grid's time keys must be comparable map keys: all date-normalized UTC.
func TestGridDatesNormalized(t *testing.T) {

	rows := []models.SpendRow{
		{Date: day(2024, 2, 28), Channel: "ads", Spend: 1},
		{Date: day(2024, 3, 1), Channel: "ads", Spend: 1},
	}

	grid := BuildSpendGrid(rows)
	// 2024 is a leap year: Feb 28, Feb 29, Mar 1.
	if len(grid) != 3 {
		t.Fatalf("expected 3 days across leap boundary, got %d", len(grid))
	}
	for _, r := range grid {
		h, m, s := r.Date.Clock()
		if h+m+s != 0 || r.Date.Location() != time.UTC {
			t.Errorf("grid date not normalized: %v", r.Date)
		}
	}
}
