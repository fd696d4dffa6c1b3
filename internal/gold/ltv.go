// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package gold

import (
	"sort"
	"strings"

	"github.com/medallion-analytics/medallion/internal/models"
)

// LTVPerUser nets each user's purchases against their refunds over the
// full history: the same signed-amount rule as DailyRevenueNet,
// aggregated per user instead of per day. Rows are sorted by ltv
// descending.
func LTVPerUser(events []models.CleanEvent) []models.LTVRow {
	sums := make(map[string]float64)
	for _, e := range events {
		if e.EventType != "purchase" && e.EventType != "refund" {
			continue
		}
		if !ValidUserID(e.UserID) {
			continue
		}
		user := strings.TrimSpace(e.UserID)
		sums[user] += SignedAmount(e.EventType, amountOrZero(e.Amount))
	}

	rows := make([]models.LTVRow, 0, len(sums))
	for user, ltv := range sums {
		rows = append(rows, models.LTVRow{UserID: user, LTV: ltv})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LTV != rows[j].LTV {
			return rows[i].LTV > rows[j].LTV
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}
