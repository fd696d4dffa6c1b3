// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/medallion-analytics/medallion/internal/models"
)

// ReadMarketingSpend reads the marketing spend CSV. The first row is the
// header; every following row becomes one RawRecord keyed by header
// name, with its 1-based data line number (header excluded). Rows with a
// wrong field count are quarantined rather than failing the read.
func ReadMarketingSpend(path string) ([]models.RawRecord, []models.BadRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open marketing source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // length checked per row below
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read marketing header: %w", err)
	}

	var records []models.RawRecord
	var bad []models.BadRow

	lineNo := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNo++
		if err != nil {
			bad = append(bad, models.BadRow{SourceLine: lineNo, Error: err.Error()})
			continue
		}
		if len(row) != len(header) {
			bad = append(bad, models.BadRow{
				SourceLine: lineNo,
				Error:      fmt.Sprintf("expected %d fields, got %d", len(header), len(row)),
			})
			continue
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			fields[name] = row[i]
		}
		records = append(records, models.RawRecord{Fields: fields, SourceLine: lineNo})
	}
	return records, bad, nil
}
