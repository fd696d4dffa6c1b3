// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package gold

import (
	"testing"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

func ts(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amt(f float64) *float64 { return &f }

func ev(id, user, typ string, t time.Time, amount *float64) models.CleanEvent {
	return models.CleanEvent{EventID: id, UserID: user, EventType: typ, EventTS: t, Amount: amount}
}

func TestSignedAmount(t *testing.T) {

	tests := []struct {
		name      string
		eventType string
		amount    float64
		want      float64
	}{
		{"purchase positive", "purchase", 100, 100},
		{"refund positive source", "refund", 30, -30},
		{"refund negative source", "refund", -30, -30},
		{"purchase zero", "purchase", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignedAmount(tt.eventType, tt.amount); got != tt.want {
				t.Errorf("SignedAmount(%q, %v) = %v, want %v", tt.eventType, tt.amount, got, tt.want)
			}
		})
	}
}

func TestDailyActiveUsers(t *testing.T) {

	events := []models.CleanEvent{
		ev("e1", "u1", "login", ts(2024, 1, 5, 9), nil),
		ev("e2", "u1", "page_view", ts(2024, 1, 5, 10), nil), // same user, same day
		ev("e3", "u2", "purchase", ts(2024, 1, 5, 11), amt(10)),
		ev("e4", "u3", "signup", ts(2024, 1, 5, 12), nil), // signup is not "active"
		ev("e5", "", "login", ts(2024, 1, 5, 13), nil),    // blank user excluded
		ev("e6", "None", "login", ts(2024, 1, 5, 14), nil),
		ev("e7", "u1", "login", ts(2024, 1, 7, 9), nil),
	}

	rows := DailyActiveUsers(events)

	if len(rows) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(rows))
	}
	if rows[0].ActiveUsers != 2 {
		t.Errorf("2024-01-05 DAU = %d, want 2", rows[0].ActiveUsers)
	}
	if rows[1].ActiveUsers != 1 {
		t.Errorf("2024-01-07 DAU = %d, want 1", rows[1].ActiveUsers)
	}
	if !rows[0].Date.Before(rows[1].Date) {
		t.Error("rows should be sorted by date ascending")
	}
}

func TestRevenueNetAndLTVScenario(t *testing.T) {

	// Purchase 100 on Jan 5, refund 30 on Jan 6, same user.
	events := []models.CleanEvent{
		ev("e1", "U1", "purchase", ts(2024, 1, 5, 10), amt(100)),
		ev("e2", "U1", "refund", ts(2024, 1, 6, 10), amt(30)),
	}

	net := DailyRevenueNet(events)
	if len(net) != 2 {
		t.Fatalf("expected 2 net rows, got %d", len(net))
	}
	if !net[0].Date.Equal(day(2024, 1, 5)) || net[0].Amount != 100 {
		t.Errorf("net[0] = %+v, want 2024-01-05 / 100", net[0])
	}
	if !net[1].Date.Equal(day(2024, 1, 6)) || net[1].Amount != -30 {
		t.Errorf("net[1] = %+v, want 2024-01-06 / -30", net[1])
	}

	ltv := LTVPerUser(events)
	if len(ltv) != 1 || ltv[0].UserID != "U1" || ltv[0].LTV != 70 {
		t.Errorf("ltv = %+v, want U1 / 70", ltv)
	}
}

func TestRevenueNetRefundRecordedNegative(t *testing.T) {

	// Refund amounts recorded negative in source still subtract once.
	events := []models.CleanEvent{
		ev("e1", "U1", "purchase", ts(2024, 1, 5, 10), amt(100)),
		ev("e2", "U1", "refund", ts(2024, 1, 5, 11), amt(-30)),
	}

	net := DailyRevenueNet(events)
	if len(net) != 1 || net[0].Amount != 70 {
		t.Errorf("net = %+v, want single row 70", net)
	}
}

func TestDailyRevenueGross(t *testing.T) {

	events := []models.CleanEvent{
		ev("e1", "u1", "purchase", ts(2024, 1, 5, 10), amt(100)),
		ev("e2", "u2", "purchase", ts(2024, 1, 5, 11), amt(50)),
		ev("e3", "u3", "purchase", ts(2024, 1, 5, 12), nil), // null amount counts 0
		ev("e4", "u1", "refund", ts(2024, 1, 5, 13), amt(30)),
	}

	gross := DailyRevenueGross(events)
	if len(gross) != 1 || gross[0].Amount != 150 {
		t.Errorf("gross = %+v, want single row 150", gross)
	}
}
