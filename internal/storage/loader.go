// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/medallion-analytics/medallion/internal/logging"
	"github.com/medallion-analytics/medallion/internal/metrics"
	"github.com/medallion-analytics/medallion/internal/models"
)

// GoldTables bundles the finished gold result tables for a single load.
type GoldTables struct {
	DAU          []models.DAURow
	RevenueGross []models.RevenueRow
	RevenueNet   []models.RevenueRow
	MRR          []models.MRRRow
	Retention    []models.CohortRetentionRow
	CAC          []models.CACRow
	LTV          []models.LTVRow
	Ratio        models.RatioRow
}

// LoadEventsClean replaces analytics.events_clean.
func (db *DB) LoadEventsClean(ctx context.Context, events []models.CleanEvent) error {
	const table = "analytics.events_clean"
	createSQL := `CREATE TABLE ` + table + ` (
		event_id VARCHAR NOT NULL,
		user_id VARCHAR,
		event_type VARCHAR NOT NULL,
		event_ts_utc TIMESTAMP NOT NULL,
		amount_num DOUBLE,
		currency VARCHAR,
		acquisition_channel VARCHAR,
		schema_version VARCHAR,
		source_line INTEGER NOT NULL
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, e := range events {
			_, err := stmt.ExecContext(ctx,
				e.EventID, nullIfEmpty(e.UserID), e.EventType, e.EventTS,
				nullFloat(e.Amount), nullIfEmpty(e.Currency),
				nullIfEmpty(e.AcquisitionChannel), nullIfEmpty(e.SchemaVersion),
				e.SourceLine)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(events))
	return nil
}

// LoadSubscriptionsClean replaces analytics.subscriptions_clean.
func (db *DB) LoadSubscriptionsClean(ctx context.Context, subs []models.CleanSubscription) error {
	const table = "analytics.subscriptions_clean"
	createSQL := `CREATE TABLE ` + table + ` (
		subscription_id VARCHAR NOT NULL,
		user_id VARCHAR NOT NULL,
		plan_id VARCHAR,
		price DOUBLE NOT NULL,
		currency VARCHAR,
		status VARCHAR,
		start_date DATE NOT NULL,
		end_date DATE,
		created_at_ts TIMESTAMP NOT NULL,
		gap_days INTEGER NOT NULL,
		reactivated BOOLEAN NOT NULL,
		source_line INTEGER NOT NULL
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, s := range subs {
			_, err := stmt.ExecContext(ctx,
				s.SubscriptionID, s.UserID, nullIfEmpty(s.PlanID), s.Price,
				nullIfEmpty(s.Currency), nullIfEmpty(s.Status),
				s.StartDate, nullTime(s.EndDate), s.CreatedAt,
				s.GapDays, s.Reactivated, s.SourceLine)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(subs))
	return nil
}

// LoadMarketingSpendClean replaces analytics.marketing_spend_clean with
// the dense spend grid.
func (db *DB) LoadMarketingSpendClean(ctx context.Context, grid []models.SpendRow) error {
	const table = "analytics.marketing_spend_clean"
	createSQL := `CREATE TABLE ` + table + ` (
		date DATE NOT NULL,
		channel VARCHAR NOT NULL,
		spend DOUBLE NOT NULL
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range grid {
			if _, err := stmt.ExecContext(ctx, r.Date, r.Channel, r.Spend); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(grid))
	return nil
}

// LoadRejected replaces one quarantine table. The original fields survive
// as a JSON document alongside the reason tag.
func (db *DB) LoadRejected(ctx context.Context, entity string, rows []models.RejectedRecord) error {
	table := "analytics." + entity + "_rejected"
	createSQL := `CREATE TABLE ` + table + ` (
		source_line INTEGER NOT NULL,
		reason VARCHAR NOT NULL,
		record JSON
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range rows {
			doc, err := json.Marshal(r.Fields)
			if err != nil {
				return fmt.Errorf("encode rejected record at line %d: %w", r.SourceLine, err)
			}
			if _, err := stmt.ExecContext(ctx, r.SourceLine, r.Reason, string(doc)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(rows))
	return nil
}

// LoadGold replaces all fact tables of the analytics schema.
func (db *DB) LoadGold(ctx context.Context, gold GoldTables) error {
	if err := db.loadDAU(ctx, gold.DAU); err != nil {
		return err
	}
	if err := db.loadRevenue(ctx, "analytics.fact_daily_revenue_gross", "revenue_gross", gold.RevenueGross); err != nil {
		return err
	}
	if err := db.loadRevenue(ctx, "analytics.fact_daily_revenue_net", "revenue_net", gold.RevenueNet); err != nil {
		return err
	}
	if err := db.loadMRR(ctx, gold.MRR); err != nil {
		return err
	}
	if err := db.loadRetention(ctx, gold.Retention); err != nil {
		return err
	}
	if err := db.loadCAC(ctx, gold.CAC); err != nil {
		return err
	}
	if err := db.loadLTV(ctx, gold.LTV); err != nil {
		return err
	}
	return db.loadRatio(ctx, gold.Ratio)
}

func (db *DB) loadDAU(ctx context.Context, rows []models.DAURow) error {
	const table = "analytics.fact_daily_active_users"
	createSQL := `CREATE TABLE ` + table + ` (
		event_date DATE NOT NULL,
		daily_active_users INTEGER NOT NULL
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.Date, r.ActiveUsers); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(rows))
	return nil
}

func (db *DB) loadRevenue(ctx context.Context, table, column string, rows []models.RevenueRow) error {
	createSQL := fmt.Sprintf(`CREATE TABLE %s (
		event_date DATE NOT NULL,
		%s DOUBLE NOT NULL
	)`, table, column)
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.Date, r.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(rows))
	return nil
}

func (db *DB) loadMRR(ctx context.Context, rows []models.MRRRow) error {
	const table = "analytics.fact_mrr_daily"
	createSQL := `CREATE TABLE ` + table + ` (
		date DATE NOT NULL,
		mrr DOUBLE NOT NULL
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.Date, r.MRR); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(rows))
	return nil
}

func (db *DB) loadRetention(ctx context.Context, rows []models.CohortRetentionRow) error {
	const table = "analytics.fact_weekly_cohort_retention"
	createSQL := `CREATE TABLE ` + table + ` (
		cohort_week DATE NOT NULL,
		week_index INTEGER NOT NULL,
		cohort_size INTEGER NOT NULL,
		active_users INTEGER NOT NULL,
		retention_rate DOUBLE NOT NULL
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?, ?, ?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range rows {
			_, err := stmt.ExecContext(ctx,
				r.CohortWeek, r.WeekIndex, r.CohortSize, r.ActiveUsers, r.RetentionRate)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(rows))
	return nil
}

func (db *DB) loadCAC(ctx context.Context, rows []models.CACRow) error {
	const table = "analytics.fact_cac_by_channel"
	createSQL := `CREATE TABLE ` + table + ` (
		channel VARCHAR NOT NULL,
		paid_conversions INTEGER NOT NULL,
		total_spend DOUBLE NOT NULL,
		cac DOUBLE
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?, ?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range rows {
			_, err := stmt.ExecContext(ctx,
				r.Channel, r.PaidConversions, r.TotalSpend, nullFloat(r.CAC))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(rows))
	return nil
}

func (db *DB) loadLTV(ctx context.Context, rows []models.LTVRow) error {
	const table = "analytics.fact_ltv_per_user"
	createSQL := `CREATE TABLE ` + table + ` (
		user_id VARCHAR NOT NULL,
		ltv DOUBLE NOT NULL
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.UserID, r.LTV); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, len(rows))
	return nil
}

func (db *DB) loadRatio(ctx context.Context, row models.RatioRow) error {
	const table = "analytics.fact_ltv_cac_ratio"
	createSQL := `CREATE TABLE ` + table + ` (
		total_ltv DOUBLE NOT NULL,
		total_spend DOUBLE NOT NULL,
		paid_conversions INTEGER NOT NULL,
		cac_overall DOUBLE,
		ltv_cac_ratio DOUBLE
	)`
	insertSQL := "INSERT INTO " + table + " VALUES (?, ?, ?, ?, ?)"

	err := db.recreate(ctx, table, createSQL, insertSQL, func(stmt *sql.Stmt) error {
		_, err := stmt.ExecContext(ctx,
			row.TotalLTV, row.TotalSpend, row.PaidConversions,
			nullFloat(row.CACOverall), nullFloat(row.LTVCACRatio))
		return err
	})
	if err != nil {
		return err
	}
	db.logLoaded(ctx, table, 1)
	return nil
}

func (db *DB) logLoaded(ctx context.Context, table string, rows int) {
	metrics.TablesLoaded.WithLabelValues(table).Inc()
	logging.Ctx(ctx).Info().
		Str("table", table).
		Int("rows", rows).
		Msg("Table loaded")
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
