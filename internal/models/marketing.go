// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package models

import "time"

// SpendRow is one row of the marketing_spend_clean table. The clean table
// is a dense grid: every (date, channel) pair between the earliest and
// latest observed date appears exactly once, with Spend zero where the
// source had no row.
type SpendRow struct {
	Date    time.Time `json:"date"` // date-normalized UTC
	Channel string    `json:"channel"`
	Spend   float64   `json:"spend"` // non-negative
}
