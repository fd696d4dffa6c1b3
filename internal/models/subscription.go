// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package models

import "time"

// OpenEndedSentinel stands in for the effective end of a subscription
// with no end_date during the overlap sweep. Any real start date compares
// below it.
var OpenEndedSentinel = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

// CleanSubscription is one validated, deduplicated, overlap-free row of
// the subscriptions_clean table. For a fixed UserID, intervals
// [StartDate, EffectiveEnd()] are pairwise non-overlapping, with end
// dates treated as inclusive.
type CleanSubscription struct {
	SubscriptionID string  `json:"subscription_id"`
	UserID         string  `json:"user_id"`
	PlanID         string  `json:"plan_id"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"` // trimmed, lowercased

	StartDate time.Time `json:"start_date"` // date-normalized UTC

	// EndDate is nil for an open-ended subscription.
	EndDate *time.Time `json:"end_date"`

	CreatedAt time.Time `json:"created_at_ts"`

	// GapDays is the whole-day gap to the previous accepted interval of
	// the same user: (start - prev effective end) - 1. Zero for the
	// user's first interval.
	GapDays int `json:"gap_days"`

	// Reactivated reports GapDays > 0.
	Reactivated bool `json:"reactivated"`

	SourceLine int `json:"_source_line_no"`
}

// EffectiveEnd returns the inclusive end of the interval, with
// open-ended subscriptions mapped to OpenEndedSentinel.
func (s CleanSubscription) EffectiveEnd() time.Time {
	if s.EndDate == nil {
		return OpenEndedSentinel
	}
	return *s.EndDate
}

// OverlapRecord is a subscription removed from the clean set because it
// overlaps an earlier-starting interval of the same user.
type OverlapRecord struct {
	CleanSubscription
	Reason string `json:"reason"` // always ReasonOverlap
}
