// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package ingest implements the bronze layer: reading the raw source
// exports into untyped, string-valued record batches. No validation
// happens here beyond "the line decodes at all"; undecodable lines are
// quarantined with their line number and decode error, never dropped
// silently and never fatal.
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/medallion-analytics/medallion/internal/models"
)

// maxQuarantinedLineBytes truncates raw lines stored in the quarantine
// so one corrupt megabyte line cannot bloat the artifact.
const maxQuarantinedLineBytes = 3000

// maxScanTokenSize allows lines up to 10 MiB before the scanner fails.
const maxScanTokenSize = 10 << 20

// ReadEvents reads a newline-delimited JSON events export. Each line
// becomes one RawRecord with its 1-based source line number; blank lines
// are skipped but still counted. Lines that fail to decode go to the
// bad-row quarantine.
func ReadEvents(path string) ([]models.RawRecord, []models.BadRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open events source: %w", err)
	}
	defer f.Close()

	var records []models.RawRecord
	var bad []models.BadRow

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields, err := decodeObject([]byte(line))
		if err != nil {
			raw := line
			if len(raw) > maxQuarantinedLineBytes {
				raw = raw[:maxQuarantinedLineBytes]
			}
			bad = append(bad, models.BadRow{
				SourceLine: lineNo,
				Raw:        raw,
				Error:      err.Error(),
			})
			continue
		}
		records = append(records, models.RawRecord{Fields: fields, SourceLine: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan events source: %w", err)
	}
	return records, bad, nil
}

// decodeObject decodes one JSON object into string-valued fields. All
// scalars are carried as text; typing is the silver layer's job. Nested
// values are re-encoded as compact JSON. Null values are treated as
// absent.
func decodeObject(data []byte) (map[string]string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(obj))
	for k, raw := range obj {
		s, ok := stringifyValue(raw)
		if !ok {
			continue
		}
		fields[k] = s
	}
	return fields, nil
}

// stringifyValue renders one JSON value as text. Returns ok=false for
// null.
func stringifyValue(raw json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return "", false
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	// Numbers, booleans, nested objects and arrays keep their literal form.
	return trimmed, true
}
