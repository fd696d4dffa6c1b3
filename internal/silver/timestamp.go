// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package silver implements the cleaning-and-resolution layer: record
// validation with type coercion, natural-key deduplication, subscription
// interval overlap resolution, and marketing spend grid densification.
//
// Every function in this package is a pure transformation over in-memory
// batches. Per-record defects never produce errors; defective records are
// routed to quarantine rows carrying a reason tag.
package silver

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts is the superset of textual representations accepted by
// ParseTimestamp, tried in order. Layouts without a zone are interpreted
// as already UTC.
var timestampLayouts = []struct {
	layout  string
	hasZone bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02 15:04:05 -0700", true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006/01/02 15:04:05", false},
	{"01/02/2006 15:04:05", false},
	{"2006-01-02", false},
	{"2006/01/02", false},
	{"01/02/2006", false},
}

// isNullText reports whether the trimmed value spells an absent value.
// Upstream exports serialize missing cells as "nan" or "None".
func isNullText(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// ParseTimestamp parses a free-text timestamp into a timezone-naive UTC
// instant. Zone-aware values are converted to UTC; values without a zone
// are taken as already UTC. Unparseable or blank input yields ok=false,
// never an error.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if isNullText(s) {
		return time.Time{}, false
	}
	for _, l := range timestampLayouts {
		var t time.Time
		var err error
		if l.hasZone {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, time.UTC)
		}
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a free-text date (or timestamp) and normalizes it to
// midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	t, ok := ParseTimestamp(s)
	if !ok {
		return time.Time{}, false
	}
	return DateOf(t), true
}

// DateOf truncates an instant to its UTC date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseNumeric coerces free text to a number. Non-numeric text yields nil
// rather than a rejection; required-field policy is the validator's job.
func ParseNumeric(s string) *float64 {
	s = strings.TrimSpace(s)
	if isNullText(s) {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
