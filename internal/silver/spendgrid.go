// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package silver

import (
	"sort"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

// spendSchema is the validation contract for raw marketing spend rows.
// Negative or unparseable spend is rejected; channel is carried verbatim
// (trimmed) so "Ads" and "ads" stay distinct channels, matching the
// upstream export.
var spendSchema = Schema{
	Entity: "marketing_spend",
	Rules: []Rule{
		{Field: "date", Kind: KindDate, Required: true},
		{Field: "channel", Kind: KindText},
		{Field: "spend", Kind: KindNonNegativeNumeric, Required: true},
	},
}

// CleanMarketingSpend validates raw spend rows and densifies the result
// onto a complete date x channel grid: every day between the earliest and
// latest observed date appears once per observed channel, with spend 0
// where the source had no row. Downstream per-channel summations must not
// silently skip zero-spend days.
func CleanMarketingSpend(batch []models.RawRecord) ([]models.SpendRow, []models.RejectedRecord) {
	accepted, rejected := spendSchema.Validate(batch)

	rows := make([]models.SpendRow, 0, len(accepted))
	for _, c := range accepted {
		date, _ := c.Time("date")
		rows = append(rows, models.SpendRow{
			Date:    date,
			Channel: c.Rec.Get("channel"),
			Spend:   *c.Num("spend"),
		})
	}

	return BuildSpendGrid(rows), rejected
}

// BuildSpendGrid aggregates spend per (date, channel) and left-joins the
// aggregate onto the Cartesian product of the full observed date range
// and channel set. An empty input yields an empty grid.
func BuildSpendGrid(rows []models.SpendRow) []models.SpendRow {
	if len(rows) == 0 {
		return nil
	}

	type key struct {
		date    time.Time
		channel string
	}

	sums := make(map[key]float64)
	channelSet := make(map[string]struct{})
	minDate, maxDate := rows[0].Date, rows[0].Date

	for _, r := range rows {
		sums[key{r.Date, r.Channel}] += r.Spend
		channelSet[r.Channel] = struct{}{}
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}

	channels := make([]string, 0, len(channelSet))
	for ch := range channelSet {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	var grid []models.SpendRow
	for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, 1) {
		for _, ch := range channels {
			grid = append(grid, models.SpendRow{
				Date:    d,
				Channel: ch,
				Spend:   sums[key{d, ch}],
			})
		}
	}
	return grid
}
