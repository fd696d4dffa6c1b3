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

// UnknownChannel is the attribution bucket for purchasers with no
// detected signup or a blank acquisition channel.
const UnknownChannel = "Unknown"

// AcquisitionChannels maps each user to the channel recorded on their
// earliest signup event, with blank/absent channels mapped to Unknown.
func AcquisitionChannels(events []models.CleanEvent) map[string]string {
	type first struct {
		ts      time.Time
		channel string
	}
	firsts := make(map[string]first)
	for _, e := range events {
		if e.EventType != "signup" || !ValidUserID(e.UserID) {
			continue
		}
		user := strings.TrimSpace(e.UserID)
		if f, ok := firsts[user]; !ok || e.EventTS.Before(f.ts) {
			firsts[user] = first{ts: e.EventTS, channel: strings.TrimSpace(e.AcquisitionChannel)}
		}
	}

	channels := make(map[string]string, len(firsts))
	for user, f := range firsts {
		if isNullLiteral(f.channel) {
			channels[user] = UnknownChannel
		} else {
			channels[user] = f.channel
		}
	}
	return channels
}

// PaidConverters returns the set of distinct users with at least one
// purchase event.
func PaidConverters(events []models.CleanEvent) map[string]struct{} {
	converters := make(map[string]struct{})
	for _, e := range events {
		if e.EventType != "purchase" || !ValidUserID(e.UserID) {
			continue
		}
		converters[strings.TrimSpace(e.UserID)] = struct{}{}
	}
	return converters
}

// CACByChannel attributes each paid converter to their acquisition
// channel (Unknown when no signup was detected) and divides the
// channel's total spend from the clean grid by its conversion count.
// CAC is nil for channels with zero conversions; division by zero never
// occurs. Rows are sorted by total spend descending.
func CACByChannel(events []models.CleanEvent, spend []models.SpendRow) []models.CACRow {
	channels := AcquisitionChannels(events)

	conversions := make(map[string]int)
	for user := range PaidConverters(events) {
		ch, ok := channels[user]
		if !ok {
			ch = UnknownChannel
		}
		conversions[ch]++
	}

	spendByChannel := make(map[string]float64)
	for _, r := range spend {
		spendByChannel[r.Channel] += r.Spend
	}

	// Every channel present in either side gets a row.
	rowSet := make(map[string]struct{})
	for ch := range spendByChannel {
		rowSet[ch] = struct{}{}
	}
	for ch := range conversions {
		rowSet[ch] = struct{}{}
	}

	rows := make([]models.CACRow, 0, len(rowSet))
	for ch := range rowSet {
		row := models.CACRow{
			Channel:         ch,
			PaidConversions: conversions[ch],
			TotalSpend:      spendByChannel[ch],
		}
		if row.PaidConversions > 0 {
			cac := row.TotalSpend / float64(row.PaidConversions)
			row.CAC = &cac
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalSpend != rows[j].TotalSpend {
			return rows[i].TotalSpend > rows[j].TotalSpend
		}
		return rows[i].Channel < rows[j].Channel
	})
	return rows
}
