// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadEvents(t *testing.T) {

	src := `{"event_id":"e1","user_id":"u1","amount":42.5,"active":true}

{"event_id":"e2","refers_to_event_id":null}
{broken json
{"event_id":"e4"}
`
	path := writeFile(t, "events.ndjson", src)

	records, bad, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if len(bad) != 1 {
		t.Fatalf("expected 1 bad row, got %d", len(bad))
	}

	// Line numbering counts blank and bad lines.
	if records[0].SourceLine != 1 || records[1].SourceLine != 3 || records[2].SourceLine != 5 {
		t.Errorf("source lines = %d/%d/%d, want 1/3/5",
			records[0].SourceLine, records[1].SourceLine, records[2].SourceLine)
	}
	if bad[0].SourceLine != 4 {
		t.Errorf("bad row line = %d, want 4", bad[0].SourceLine)
	}
	if bad[0].Error == "" || bad[0].Raw != "{broken json" {
		t.Errorf("bad row should carry raw text and error: %+v", bad[0])
	}

	// Scalars arrive as text; nulls are absent.
	if got := records[0].Get("amount"); got != "42.5" {
		t.Errorf("amount = %q, want 42.5", got)
	}
	if got := records[0].Get("active"); got != "true" {
		t.Errorf("active = %q, want true", got)
	}
	if _, present := records[1].Fields["refers_to_event_id"]; present {
		t.Error("null field should be absent from the record")
	}
}

func TestReadEventsMissingFile(t *testing.T) {

	if _, _, err := ReadEvents(filepath.Join(t.TempDir(), "nope.ndjson")); err == nil {
		t.Error("missing source file must be a structural failure")
	}
}

func TestReadSubscriptions(t *testing.T) {

	src := `[
		{"subscription_id":"s1","price":9.99,"end_date":null},
		{"subscription_id":"s2","price":"14.99"}
	]`
	path := writeFile(t, "subscriptions.json", src)

	records, err := ReadSubscriptions(path)
	if err != nil {
		t.Fatalf("ReadSubscriptions error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].SourceLine != 1 || records[1].SourceLine != 2 {
		t.Error("records should carry 1-based array positions")
	}
	if got := records[0].Get("price"); got != "9.99" {
		t.Errorf("price = %q, want 9.99", got)
	}
	if _, present := records[0].Fields["end_date"]; present {
		t.Error("null end_date should be absent")
	}
}

func TestReadMarketingSpend(t *testing.T) {

	src := "date,channel,spend\n" +
		"2024-01-01,ads,50\n" +
		"2024-01-02,ads\n" + // short row quarantined
		"2024-01-03,email,10\n"
	path := writeFile(t, "marketing_spend.csv", src)

	records, bad, err := ReadMarketingSpend(path)
	if err != nil {
		t.Fatalf("ReadMarketingSpend error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if len(bad) != 1 || bad[0].SourceLine != 2 {
		t.Fatalf("expected short row quarantined at line 2, got %+v", bad)
	}
	if records[0].Get("channel") != "ads" || records[0].Get("spend") != "50" {
		t.Errorf("unexpected first record: %+v", records[0].Fields)
	}
}
