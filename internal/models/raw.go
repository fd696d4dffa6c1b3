// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package models provides the row structures for every table the pipeline
// produces: bronze raw records, silver cleaned/quarantined tables, and
// gold metric tables.
package models

import "strings"

// RawRecord is one schema-less bronze row. All values are kept as text;
// typing happens in the silver layer. Fields absent from the source line
// are simply absent from the map.
type RawRecord struct {
	Fields     map[string]string `json:"fields"`
	SourceLine int               `json:"_source_line_no"`
}

// Get returns the named field, trimmed. Missing fields yield "".
func (r RawRecord) Get(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// BadRow is a bronze-level quarantine row for a source line that could
// not be decoded at all.
type BadRow struct {
	SourceLine int    `json:"_source_line_no"`
	Raw        string `json:"_raw_line"`
	Error      string `json:"_error"`
}

// RejectedRecord is a silver-level quarantine row. It carries the original
// fields plus the reason the record was excluded from the clean table.
type RejectedRecord struct {
	Fields     map[string]string `json:"fields"`
	SourceLine int               `json:"_source_line_no"`
	Reason     string            `json:"reason"`
}

// Quarantine reason tags. Per-record defects never abort the run; they
// produce a RejectedRecord labeled with one of these.
const (
	ReasonMissingRequiredField = "MissingRequiredField"
	ReasonUnparseableTimestamp = "UnparseableTimestamp"
	ReasonUnparseableDate      = "UnparseableDate"
	ReasonInvalidNumeric       = "InvalidNumeric"
	ReasonOverlap              = "overlap"
)
