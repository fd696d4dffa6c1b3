// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package gold

import (
	"sort"
	"strings"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

// retentionEventTypes is the enumerated activity set for cohort
// retention. Intentionally broader than the DAU set: trial activity
// counts as retained even though it is not "daily active".
var retentionEventTypes = map[string]bool{
	"login":         true,
	"page_view":     true,
	"purchase":      true,
	"trial_start":   true,
	"trial_convert": true,
}

// WeekStartMonday returns the Monday-aligned, date-normalized UTC week
// containing t.
func WeekStartMonday(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday puts Sunday at 0; shift so Monday is the week start.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// CohortRetention assigns each user to the Monday-aligned week of their
// earliest signup event, then counts distinct active users per
// (cohort_week, week_index). Users without a detected signup are
// excluded entirely; activity predating the cohort week (week_index < 0,
// clock skew or noise) is discarded.
func CohortRetention(events []models.CleanEvent) []models.CohortRetentionRow {
	// Earliest signup per user -> cohort week.
	signupTS := make(map[string]time.Time)
	for _, e := range events {
		if e.EventType != "signup" || !ValidUserID(e.UserID) {
			continue
		}
		user := strings.TrimSpace(e.UserID)
		if ts, ok := signupTS[user]; !ok || e.EventTS.Before(ts) {
			signupTS[user] = e.EventTS
		}
	}

	cohortWeek := make(map[string]time.Time, len(signupTS))
	cohortSize := make(map[time.Time]int)
	for user, ts := range signupTS {
		week := WeekStartMonday(ts)
		cohortWeek[user] = week
		cohortSize[week]++
	}

	// Distinct active users per (cohort_week, week_index).
	type cell struct {
		week  time.Time
		index int
	}
	active := make(map[cell]map[string]struct{})
	for _, e := range events {
		if !retentionEventTypes[e.EventType] || !ValidUserID(e.UserID) {
			continue
		}
		user := strings.TrimSpace(e.UserID)
		week, ok := cohortWeek[user]
		if !ok {
			continue // no detected signup
		}
		idx := int(WeekStartMonday(e.EventTS).Sub(week)/(24*time.Hour)) / 7
		if idx < 0 {
			continue
		}
		c := cell{week, idx}
		if active[c] == nil {
			active[c] = make(map[string]struct{})
		}
		active[c][user] = struct{}{}
	}

	rows := make([]models.CohortRetentionRow, 0, len(active))
	for c, users := range active {
		size := cohortSize[c.week]
		rows = append(rows, models.CohortRetentionRow{
			CohortWeek:    c.week,
			WeekIndex:     c.index,
			CohortSize:    size,
			ActiveUsers:   len(users),
			RetentionRate: float64(len(users)) / float64(size),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CohortWeek.Equal(rows[j].CohortWeek) {
			return rows[i].CohortWeek.Before(rows[j].CohortWeek)
		}
		return rows[i].WeekIndex < rows[j].WeekIndex
	})
	return rows
}
