// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package gold

import (
	"github.com/medallion-analytics/medallion/internal/models"
)

// LTVCACRatio combines the per-user LTV rows, the clean spend grid and
// the event stream into the singleton ratio row. The global conversion
// count is channel-independent: a user converting via one channel is
// counted exactly once. CACOverall and LTVCACRatio degrade to nil
// instead of dividing by zero.
func LTVCACRatio(ltv []models.LTVRow, spend []models.SpendRow, events []models.CleanEvent) models.RatioRow {
	row := models.RatioRow{}

	for _, r := range ltv {
		row.TotalLTV += r.LTV
	}
	for _, r := range spend {
		row.TotalSpend += r.Spend
	}
	row.PaidConversions = len(PaidConverters(events))

	if row.PaidConversions > 0 {
		cac := row.TotalSpend / float64(row.PaidConversions)
		row.CACOverall = &cac
		if cac != 0 {
			ratio := row.TotalLTV / cac
			row.LTVCACRatio = &ratio
		}
	}
	return row
}

// ConversionsConsistent cross-checks the per-channel CAC attribution
// against the channel-independent total: the channel counts partition
// the converter set, so their sum must equal the global count. The
// false return means the attribution double counted or dropped a
// converter.
func ConversionsConsistent(cac []models.CACRow, ratio models.RatioRow) bool {
	sum := 0
	for _, r := range cac {
		sum += r.PaidConversions
	}
	return sum == ratio.PaidConversions
}
