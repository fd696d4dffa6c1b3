// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package models

import "time"

// CleanEvent is one validated, deduplicated row of the events_clean table.
// EventID is unique across the table and EventTS is always set (UTC,
// timezone-naive instant).
type CleanEvent struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	EventType string    `json:"event_type"` // trimmed, lowercased
	EventTS   time.Time `json:"event_ts_utc"`

	// Amount is nil when the source value was absent or non-numeric.
	Amount   *float64 `json:"amount_num"`
	Currency string   `json:"currency"`

	// AcquisitionChannel is only meaningful on signup events; it feeds
	// the CAC attribution.
	AcquisitionChannel string `json:"acquisition_channel"`

	SchemaVersion string `json:"schema_version"`
	SourceLine    int    `json:"_source_line_no"`
}

// Date returns the UTC date component of the event timestamp.
func (e CleanEvent) Date() time.Time {
	return time.Date(e.EventTS.Year(), e.EventTS.Month(), e.EventTS.Day(), 0, 0, 0, 0, time.UTC)
}
