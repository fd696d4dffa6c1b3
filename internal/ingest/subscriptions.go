// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package ingest

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/medallion-analytics/medallion/internal/models"
)

// ReadSubscriptions reads a JSON-array subscriptions export. The array
// index (1-based) stands in for the source line number in dedup
// tie-breaks and quarantine rows.
func ReadSubscriptions(path string) ([]models.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subscriptions source: %w", err)
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode subscriptions source: %w", err)
	}

	records := make([]models.RawRecord, 0, len(items))
	for i, item := range items {
		fields := make(map[string]string, len(item))
		for k, raw := range item {
			if s, ok := stringifyValue(raw); ok {
				fields[k] = s
			}
		}
		records = append(records, models.RawRecord{Fields: fields, SourceLine: i + 1})
	}
	return records, nil
}
