// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package silver

import (
	"sort"

	"github.com/medallion-analytics/medallion/internal/models"
)

// eventSchema is the validation contract for raw events. user_id is not
// required here; the gold engines filter blank users per metric.
var eventSchema = Schema{
	Entity: "events",
	Rules: []Rule{
		{Field: "event_id", Kind: KindText, Required: true},
		{Field: "user_id", Kind: KindText},
		{Field: "event_type", Kind: KindCategory},
		{Field: "timestamp", Kind: KindTimestamp, Required: true},
		{Field: "amount", Kind: KindNumeric},
		{Field: "currency", Kind: KindText},
		{Field: "acquisition_channel", Kind: KindText},
		{Field: "schema_version", Kind: KindText},
	},
}

// CleanEvents validates, coerces and deduplicates a raw event batch.
// The returned clean slice has a unique event_id per row and a non-null
// UTC timestamp on every row.
func CleanEvents(batch []models.RawRecord) ([]models.CleanEvent, []models.RejectedRecord) {
	accepted, rejected := eventSchema.Validate(batch)

	events := make([]models.CleanEvent, 0, len(accepted))
	for _, c := range accepted {
		ts, _ := c.Time("timestamp")
		events = append(events, models.CleanEvent{
			EventID:            c.Text["event_id"],
			UserID:             c.Text["user_id"],
			EventType:          c.Text["event_type"],
			EventTS:            ts,
			Amount:             c.Num("amount"),
			Currency:           c.Text["currency"],
			AcquisitionChannel: c.Text["acquisition_channel"],
			SchemaVersion:      c.Text["schema_version"],
			SourceLine:         c.Rec.SourceLine,
		})
	}

	return DedupeEvents(events), rejected
}

// DedupeEvents resolves duplicate event_ids: the record with the latest
// timestamp wins, and for same-instant duplicates the highest source line
// number wins (last write wins). The result is deterministic under any
// input ordering and sorted by event_id.
func DedupeEvents(events []models.CleanEvent) []models.CleanEvent {
	sorted := make([]models.CleanEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if !a.EventTS.Equal(b.EventTS) {
			return a.EventTS.After(b.EventTS)
		}
		return a.SourceLine > b.SourceLine
	})

	out := sorted[:0]
	prevID := ""
	for _, e := range sorted {
		if e.EventID == prevID {
			continue
		}
		out = append(out, e)
		prevID = e.EventID
	}
	return out
}
