// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package storage

import (
	"context"
	"fmt"
)

// dimensionDDL defines the dimension tables, derived entirely in SQL from
// the already-loaded clean tables. Order matters: dim_date reads every
// clean table, so the clean tables must be loaded first.
var dimensionDDL = []struct {
	table string
	sql   string
}{
	{
		table: "analytics.dim_date",
		// One row per calendar date observed anywhere in the clean data,
		// including subscription end dates. dayofweek is 0=Sunday in
		// DuckDB; week_start_monday aligns to ISO weeks.
		sql: `CREATE TABLE analytics.dim_date AS
			WITH all_dates AS (
				SELECT CAST(event_ts_utc AS DATE) AS d FROM analytics.events_clean
				UNION
				SELECT date FROM analytics.marketing_spend_clean
				UNION
				SELECT start_date FROM analytics.subscriptions_clean
				UNION
				SELECT end_date FROM analytics.subscriptions_clean WHERE end_date IS NOT NULL
			)
			SELECT
				d AS date,
				EXTRACT(year FROM d) AS year,
				EXTRACT(month FROM d) AS month,
				EXTRACT(day FROM d) AS day,
				dayofweek(d) AS weekday,
				CAST(d - INTERVAL ((dayofweek(d) + 6) % 7) DAY AS DATE) AS week_start_monday
			FROM all_dates
			ORDER BY d`,
	},
	{
		table: "analytics.dim_channel",
		// Channels seen in marketing spend or claimed on signup events.
		// Blank signup channels collapse to 'Unknown', matching the CAC
		// attribution fallback.
		sql: `CREATE TABLE analytics.dim_channel AS
			SELECT DISTINCT channel FROM (
				SELECT channel FROM analytics.marketing_spend_clean
				UNION
				SELECT COALESCE(NULLIF(TRIM(acquisition_channel), ''), 'Unknown') AS channel
				FROM analytics.events_clean
				WHERE event_type = 'signup'
			)
			ORDER BY channel`,
	},
	{
		table: "analytics.dim_plan",
		sql: `CREATE TABLE analytics.dim_plan AS
			SELECT
				plan_id,
				MIN(price) AS min_price,
				MAX(price) AS max_price,
				MIN(currency) AS currency,
				COUNT(*) AS subscriptions
			FROM analytics.subscriptions_clean
			WHERE plan_id IS NOT NULL
			GROUP BY plan_id
			ORDER BY plan_id`,
	},
	{
		table: "analytics.dim_user",
		// One row per user with a usable identifier. The acquisition
		// channel comes from the user's earliest signup event.
		sql: `CREATE TABLE analytics.dim_user AS
			WITH signups AS (
				SELECT
					user_id,
					CAST(event_ts_utc AS DATE) AS signup_date,
					COALESCE(NULLIF(TRIM(acquisition_channel), ''), 'Unknown') AS acquisition_channel,
					ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY event_ts_utc, event_id) AS rn
				FROM analytics.events_clean
				WHERE event_type = 'signup' AND user_id IS NOT NULL
			)
			SELECT
				e.user_id,
				MIN(CAST(e.event_ts_utc AS DATE)) AS first_seen,
				MAX(CAST(e.event_ts_utc AS DATE)) AS last_seen,
				COUNT(*) AS events,
				ANY_VALUE(s.signup_date) AS signup_date,
				COALESCE(ANY_VALUE(s.acquisition_channel), 'Unknown') AS acquisition_channel
			FROM analytics.events_clean e
			LEFT JOIN signups s ON s.user_id = e.user_id AND s.rn = 1
			WHERE e.user_id IS NOT NULL
				AND TRIM(e.user_id) <> ''
				AND LOWER(TRIM(e.user_id)) NOT IN ('none', 'nan', 'null')
			GROUP BY e.user_id
			ORDER BY e.user_id`,
	},
}

// BuildDimensions derives the dimension tables from the clean tables.
// Must run after the clean tables are loaded.
func (db *DB) BuildDimensions(ctx context.Context) error {
	for _, dim := range dimensionDDL {
		if err := db.recreate(ctx, dim.table, dim.sql, "", nil); err != nil {
			return fmt.Errorf("build dimension: %w", err)
		}
		n, err := db.rowCount(ctx, dim.table)
		if err != nil {
			return fmt.Errorf("count %s: %w", dim.table, err)
		}
		db.logLoaded(ctx, dim.table, int(n))
	}
	return nil
}
