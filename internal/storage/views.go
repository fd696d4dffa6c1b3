// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package storage

import (
	"context"
	"fmt"

	"github.com/medallion-analytics/medallion/internal/logging"
)

// reportingViews are the query surfaces dashboards read from. Views are
// recreated on every run so schema changes in the fact tables propagate.
var reportingViews = []struct {
	name string
	sql  string
}{
	{
		name: "analytics.vw_daily_kpis",
		// One row per date with activity and revenue side by side. Full
		// outer join: a day can have revenue without qualifying activity
		// and vice versa.
		sql: `CREATE OR REPLACE VIEW analytics.vw_daily_kpis AS
			SELECT
				COALESCE(d.event_date, g.event_date, n.event_date) AS event_date,
				COALESCE(d.daily_active_users, 0) AS daily_active_users,
				COALESCE(g.revenue_gross, 0) AS revenue_gross,
				COALESCE(n.revenue_net, 0) AS revenue_net
			FROM analytics.fact_daily_active_users d
			FULL OUTER JOIN analytics.fact_daily_revenue_gross g USING (event_date)
			FULL OUTER JOIN analytics.fact_daily_revenue_net n USING (event_date)
			ORDER BY event_date`,
	},
	{
		name: "analytics.vw_mrr_daily",
		sql: `CREATE OR REPLACE VIEW analytics.vw_mrr_daily AS
			SELECT date, mrr,
				mrr - LAG(mrr) OVER (ORDER BY date) AS mrr_change
			FROM analytics.fact_mrr_daily
			ORDER BY date`,
	},
	{
		name: "analytics.vw_weekly_retention",
		sql: `CREATE OR REPLACE VIEW analytics.vw_weekly_retention AS
			SELECT cohort_week, week_index, cohort_size, active_users,
				ROUND(retention_rate * 100, 2) AS retention_pct
			FROM analytics.fact_weekly_cohort_retention
			ORDER BY cohort_week, week_index`,
	},
	{
		name: "analytics.vw_cac_by_channel",
		sql: `CREATE OR REPLACE VIEW analytics.vw_cac_by_channel AS
			SELECT channel, paid_conversions, total_spend, cac
			FROM analytics.fact_cac_by_channel
			ORDER BY total_spend DESC, channel`,
	},
	{
		name: "analytics.vw_user_ltv",
		sql: `CREATE OR REPLACE VIEW analytics.vw_user_ltv AS
			SELECT l.user_id, l.ltv, u.acquisition_channel, u.signup_date
			FROM analytics.fact_ltv_per_user l
			LEFT JOIN analytics.dim_user u USING (user_id)
			ORDER BY l.ltv DESC, l.user_id`,
	},
	{
		name: "analytics.vw_ltv_cac_ratio",
		sql: `CREATE OR REPLACE VIEW analytics.vw_ltv_cac_ratio AS
			SELECT total_ltv, total_spend, paid_conversions, cac_overall, ltv_cac_ratio
			FROM analytics.fact_ltv_cac_ratio`,
	},
}

// BuildViews recreates the reporting views. Must run after the fact and
// dimension tables exist.
func (db *DB) BuildViews(ctx context.Context) error {
	for _, v := range reportingViews {
		if _, err := db.conn.ExecContext(ctx, v.sql); err != nil {
			return fmt.Errorf("create view %s: %w", v.name, err)
		}
	}
	logging.Ctx(ctx).Info().
		Int("views", len(reportingViews)).
		Msg("Reporting views recreated")
	return nil
}
