// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package gold

import (
	"sort"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

// MRRSeries computes the daily recurring-revenue series: for every
// calendar day between the earliest start_date and the latest of
// (max end_date, max start_date) inclusive, the sum of prices of
// subscriptions active that day (start_date <= day <= effective end,
// open-ended always active from start onward).
//
// The implementation is the delta/sweep form: +price on start_date,
// -price on end_date + 1 day, then a running prefix sum over the day
// range. It produces output identical to the per-day scan in
// MRRSeriesNaive, which is kept as the correctness baseline.
func MRRSeries(subs []models.CleanSubscription) []models.MRRRow {
	minDay, maxDay, ok := mrrRange(subs)
	if !ok {
		return nil
	}

	deltas := make(map[time.Time]float64)
	for _, s := range subs {
		deltas[s.StartDate] += s.Price
		if s.EndDate != nil {
			deltas[s.EndDate.AddDate(0, 0, 1)] -= s.Price
		}
	}

	var rows []models.MRRRow
	running := 0.0
	for d := minDay; !d.After(maxDay); d = d.AddDate(0, 0, 1) {
		running += deltas[d]
		rows = append(rows, models.MRRRow{Date: d, MRR: running})
	}
	return rows
}

// MRRSeriesNaive re-scans every subscription per day. It is the
// O(days x subscriptions) baseline the sweep must agree with to the
// cent on every date.
func MRRSeriesNaive(subs []models.CleanSubscription) []models.MRRRow {
	minDay, maxDay, ok := mrrRange(subs)
	if !ok {
		return nil
	}

	var rows []models.MRRRow
	for d := minDay; !d.After(maxDay); d = d.AddDate(0, 0, 1) {
		sum := 0.0
		for _, s := range subs {
			if s.StartDate.After(d) {
				continue
			}
			if s.EndDate != nil && s.EndDate.Before(d) {
				continue
			}
			sum += s.Price
		}
		rows = append(rows, models.MRRRow{Date: d, MRR: sum})
	}
	return rows
}

// mrrRange determines the [min start, max(end, start)] day range.
func mrrRange(subs []models.CleanSubscription) (minDay, maxDay time.Time, ok bool) {
	if len(subs) == 0 {
		return time.Time{}, time.Time{}, false
	}

	starts := make([]time.Time, 0, len(subs))
	for _, s := range subs {
		starts = append(starts, s.StartDate)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	minDay = starts[0]
	maxDay = starts[len(starts)-1]
	for _, s := range subs {
		if s.EndDate != nil && s.EndDate.After(maxDay) {
			maxDay = *s.EndDate
		}
	}
	return minDay, maxDay, true
}
