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

// subscriptionSchema is the validation contract for raw subscriptions.
var subscriptionSchema = Schema{
	Entity: "subscriptions",
	Rules: []Rule{
		{Field: "subscription_id", Kind: KindText, Required: true},
		{Field: "user_id", Kind: KindText, Required: true},
		{Field: "plan_id", Kind: KindText},
		{Field: "price", Kind: KindNumeric, Required: true},
		{Field: "currency", Kind: KindText},
		{Field: "status", Kind: KindCategory},
		{Field: "start_date", Kind: KindDate, Required: true},
		{Field: "end_date", Kind: KindDate},
		{Field: "created_at", Kind: KindTimestamp, Required: true},
	},
}

// CleanSubscriptions validates, coerces, deduplicates and
// overlap-resolves a raw subscription batch. The clean slice has a
// unique subscription_id per row and, for each user, pairwise
// non-overlapping intervals; intervals removed by the overlap sweep come
// back in the second return as quarantine rows.
func CleanSubscriptions(batch []models.RawRecord) ([]models.CleanSubscription, []models.OverlapRecord, []models.RejectedRecord) {
	accepted, rejected := subscriptionSchema.Validate(batch)

	subs := make([]models.CleanSubscription, 0, len(accepted))
	for _, c := range accepted {
		start, _ := c.Time("start_date")
		created, _ := c.Time("created_at")

		var end *time.Time
		if d, ok := c.Time("end_date"); ok {
			e := d
			end = &e
		}

		subs = append(subs, models.CleanSubscription{
			SubscriptionID: c.Text["subscription_id"],
			UserID:         c.Text["user_id"],
			PlanID:         c.Text["plan_id"],
			Price:          *c.Num("price"),
			Currency:       c.Text["currency"],
			Status:         c.Text["status"],
			StartDate:      start,
			EndDate:        end,
			CreatedAt:      created,
			SourceLine:     c.Rec.SourceLine,
		})
	}

	clean, overlaps := ResolveOverlaps(DedupeSubscriptions(subs))
	return clean, overlaps, rejected
}

// DedupeSubscriptions resolves duplicate subscription_ids: the most
// recently issued record (latest created_at) wins, with the highest
// source line as the deterministic tie-break for identical instants.
func DedupeSubscriptions(subs []models.CleanSubscription) []models.CleanSubscription {
	sorted := make([]models.CleanSubscription, len(subs))
	copy(sorted, subs)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.SubscriptionID != b.SubscriptionID {
			return a.SubscriptionID < b.SubscriptionID
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.SourceLine > b.SourceLine
	})

	out := sorted[:0]
	prevID := ""
	for _, s := range sorted {
		if s.SubscriptionID == prevID {
			continue
		}
		out = append(out, s)
		prevID = s.SubscriptionID
	}
	return out
}

// ResolveOverlaps walks each user's intervals in (start_date asc,
// created_at desc) order. An interval whose start is on or before the
// previous accepted interval's effective end (inclusive; open-ended
// mapped to the far-future sentinel) is quarantined. Remaining intervals
// get gap_days = (start - prev effective end) - 1 and the reactivated
// flag; a user's first interval has gap_days 0 and reactivated false.
func ResolveOverlaps(subs []models.CleanSubscription) ([]models.CleanSubscription, []models.OverlapRecord) {
	sorted := make([]models.CleanSubscription, len(subs))
	copy(sorted, subs)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.SubscriptionID < b.SubscriptionID
	})

	clean := make([]models.CleanSubscription, 0, len(sorted))
	var overlaps []models.OverlapRecord

	prevUser := ""
	var prevEnd time.Time
	havePrev := false

	for _, s := range sorted {
		if s.UserID != prevUser {
			prevUser = s.UserID
			havePrev = false
		}

		if havePrev && !s.StartDate.After(prevEnd) {
			s.GapDays = 0
			s.Reactivated = false
			overlaps = append(overlaps, models.OverlapRecord{
				CleanSubscription: s,
				Reason:            models.ReasonOverlap,
			})
			continue
		}

		if havePrev {
			s.GapDays = daysBetween(prevEnd, s.StartDate) - 1
			s.Reactivated = s.GapDays > 0
		} else {
			s.GapDays = 0
			s.Reactivated = false
		}

		clean = append(clean, s)
		prevEnd = s.EffectiveEnd()
		havePrev = true
	}

	return clean, overlaps
}

// daysBetween counts whole days from a to b; both are date-normalized UTC.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
