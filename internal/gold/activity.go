// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package gold implements the metrics derivation layer: daily activity
// and revenue aggregates, the recurring-revenue series, weekly cohort
// retention, and the acquisition-cost / lifetime-value / ratio engines.
//
// Every engine is a read-only consumer of the silver clean tables and a
// pure function of its inputs; engines with no data dependency on each
// other may run concurrently.
package gold

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

// dauEventTypes is the enumerated "active" set for daily active users.
// Deliberately narrower than the retention activity set.
var dauEventTypes = map[string]bool{
	"login":     true,
	"page_view": true,
	"purchase":  true,
}

// ValidUserID reports whether a user id identifies a real user after
// trimming. Upstream exports leak "none"/"nan" literals for missing ids.
func ValidUserID(id string) bool {
	return !isNullLiteral(strings.TrimSpace(id))
}

func isNullLiteral(s string) bool {
	switch strings.ToLower(s) {
	case "", "none", "nan":
		return true
	}
	return false
}

// SignedAmount is the purchase/refund netting rule: a purchase
// contributes +amount, a refund contributes -|amount| regardless of the
// sign the source recorded. It is the single place this policy lives;
// both RevenueNet and LTV apply it per record.
func SignedAmount(eventType string, amount float64) float64 {
	if eventType == "refund" {
		return -math.Abs(amount)
	}
	return amount
}

// DailyActiveUsers counts distinct users per date over the DAU activity
// set. The series is sparse: only dates with qualifying events appear.
func DailyActiveUsers(events []models.CleanEvent) []models.DAURow {
	byDate := make(map[time.Time]map[string]struct{})
	for _, e := range events {
		if !dauEventTypes[e.EventType] || !ValidUserID(e.UserID) {
			continue
		}
		d := e.Date()
		if byDate[d] == nil {
			byDate[d] = make(map[string]struct{})
		}
		byDate[d][strings.TrimSpace(e.UserID)] = struct{}{}
	}

	rows := make([]models.DAURow, 0, len(byDate))
	for d, users := range byDate {
		rows = append(rows, models.DAURow{Date: d, ActiveUsers: len(users)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// DailyRevenueGross sums purchase amounts per date. Null amounts count
// as zero.
func DailyRevenueGross(events []models.CleanEvent) []models.RevenueRow {
	sums := make(map[time.Time]float64)
	for _, e := range events {
		if e.EventType != "purchase" {
			continue
		}
		sums[e.Date()] += amountOrZero(e.Amount)
	}
	return sortedRevenue(sums)
}

// DailyRevenueNet sums signed purchase/refund amounts per date.
func DailyRevenueNet(events []models.CleanEvent) []models.RevenueRow {
	sums := make(map[time.Time]float64)
	for _, e := range events {
		if e.EventType != "purchase" && e.EventType != "refund" {
			continue
		}
		sums[e.Date()] += SignedAmount(e.EventType, amountOrZero(e.Amount))
	}
	return sortedRevenue(sums)
}

func amountOrZero(a *float64) float64 {
	if a == nil {
		return 0
	}
	return *a
}

func sortedRevenue(sums map[time.Time]float64) []models.RevenueRow {
	rows := make([]models.RevenueRow, 0, len(sums))
	for d, v := range sums {
		rows = append(rows, models.RevenueRow{Date: d, Amount: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}
