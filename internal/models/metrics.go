// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// This file contains the gold-layer metric row types. Each type maps 1:1
// onto one of the result tables handed to the storage sink.
package models

import "time"

// DAURow is one row of daily_active_users: the count of distinct users
// with at least one qualifying activity event on that date.
type DAURow struct {
	Date        time.Time `json:"event_date"`
	ActiveUsers int       `json:"daily_active_users"`
}

// RevenueRow is one row of daily_revenue_gross or daily_revenue_net.
type RevenueRow struct {
	Date   time.Time `json:"event_date"`
	Amount float64   `json:"amount"`
}

// MRRRow is one row of mrr_daily: the sum of prices of all subscriptions
// active on that day.
type MRRRow struct {
	Date time.Time `json:"date"`
	MRR  float64   `json:"mrr"`
}

// CohortRetentionRow is one row of weekly_cohort_retention.
type CohortRetentionRow struct {
	// CohortWeek is the Monday-aligned week of the cohort's signup.
	CohortWeek time.Time `json:"cohort_week"`

	// WeekIndex counts whole weeks since the cohort week (>= 0).
	WeekIndex int `json:"week_index"`

	CohortSize  int `json:"cohort_size"`
	ActiveUsers int `json:"active_users"`

	// RetentionRate is ActiveUsers / CohortSize, always in [0, 1].
	RetentionRate float64 `json:"retention_rate"`
}

// CACRow is one row of cac_by_channel. CAC is nil when the channel has
// zero paid conversions.
type CACRow struct {
	Channel         string   `json:"channel"`
	PaidConversions int      `json:"paid_conversions"`
	TotalSpend      float64  `json:"total_spend"`
	CAC             *float64 `json:"cac"`
}

// LTVRow is one row of ltv_per_user: the user's signed lifetime total of
// purchases minus refunds.
type LTVRow struct {
	UserID string  `json:"user_id"`
	LTV    float64 `json:"ltv"`
}

// RatioRow is the singleton ltv_cac_ratio table. CACOverall and
// LTVCACRatio are nil whenever their denominator is zero or undefined.
type RatioRow struct {
	TotalLTV        float64  `json:"total_ltv"`
	TotalSpend      float64  `json:"total_spend"`
	PaidConversions int      `json:"paid_conversions"`
	CACOverall      *float64 `json:"cac_overall"`
	LTVCACRatio     *float64 `json:"ltv_cac_ratio"`
}
