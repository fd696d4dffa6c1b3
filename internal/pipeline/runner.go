// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package pipeline sequences a full batch run: bronze ingestion, silver
// cleaning, gold metric computation, artifact snapshots, and the DuckDB
// load. A stage failure aborts the run; per-record defects never do,
// they flow to quarantine instead.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medallion-analytics/medallion/internal/artifact"
	"github.com/medallion-analytics/medallion/internal/config"
	"github.com/medallion-analytics/medallion/internal/gold"
	"github.com/medallion-analytics/medallion/internal/ingest"
	"github.com/medallion-analytics/medallion/internal/logging"
	"github.com/medallion-analytics/medallion/internal/metrics"
	"github.com/medallion-analytics/medallion/internal/models"
	"github.com/medallion-analytics/medallion/internal/silver"
	"github.com/medallion-analytics/medallion/internal/storage"
)

// Runner owns the resources of one pipeline run. It is single-use: the
// raw batches it holds between bronze and silver belong to one run.
type Runner struct {
	cfg   *config.Config
	store *artifact.Store
	db    *storage.DB

	raw struct {
		events        []models.RawRecord
		subscriptions []models.RawRecord
		marketing     []models.RawRecord
	}
}

// Results carries the clean tables and gold outputs of a completed run,
// plus quarantine counts for the run report.
type Results struct {
	Events        []models.CleanEvent
	Subscriptions []models.CleanSubscription
	SpendGrid     []models.SpendRow

	EventsRejected        []models.RejectedRecord
	SubscriptionsRejected []models.RejectedRecord
	SpendRejected         []models.RejectedRecord

	Gold storage.GoldTables
}

// New prepares a runner: the lakehouse directory tree and the DuckDB
// sink are created up front so a misconfigured output path fails before
// any data is read.
func New(cfg *config.Config) (*Runner, error) {
	store, err := artifact.NewStore(cfg.Lakehouse.Dir)
	if err != nil {
		return nil, fmt.Errorf("prepare lakehouse: %w", err)
	}
	db, err := storage.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	return &Runner{cfg: cfg, store: store, db: db}, nil
}

// Close releases the DuckDB connection.
func (r *Runner) Close() error {
	return r.db.Close()
}

// Run executes the full pipeline. The context should carry a logging.Run
// so every stage log line is tagged with the run identifiers.
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	res := &Results{}

	steps := []struct {
		name string
		fn   func(context.Context, *Results) error
	}{
		{"bronze", r.runBronze},
		{"silver", r.runSilver},
		{"gold", r.runGold},
		{"load", r.runLoad},
	}
	for _, s := range steps {
		if err := r.step(ctx, s.name, res, s.fn); err != nil {
			return nil, err
		}
	}

	logging.Ctx(ctx).Info().
		Int("events_clean", len(res.Events)).
		Int("subscriptions_clean", len(res.Subscriptions)).
		Int("spend_grid", len(res.SpendGrid)).
		Int("events_rejected", len(res.EventsRejected)).
		Int("subscriptions_rejected", len(res.SubscriptionsRejected)).
		Int("marketing_rejected", len(res.SpendRejected)).
		Msg("Pipeline run complete")
	return res, nil
}

// step wraps one stage with START/END/FAILED logging and stage metrics.
func (r *Runner) step(ctx context.Context, name string, res *Results, fn func(context.Context, *Results) error) error {
	log := logging.Ctx(ctx)
	log.Info().Str("step", name).Msg("START")

	started := time.Now()
	if err := fn(ctx, res); err != nil {
		metrics.StageFailures.WithLabelValues(name).Inc()
		log.Error().Str("step", name).
			Dur("duration", time.Since(started)).
			Err(err).
			Msg("FAILED")
		return fmt.Errorf("step %s: %w", name, err)
	}

	elapsed := time.Since(started)
	metrics.ObserveStage(name, elapsed)
	log.Info().Str("step", name).Dur("duration", elapsed).Msg("END")
	return nil
}

func (r *Runner) runBronze(ctx context.Context, _ *Results) error {
	events, eventsBad, err := ingest.ReadEvents(r.cfg.Sources.EventsPath)
	if err != nil {
		return err
	}
	subs, err := ingest.ReadSubscriptions(r.cfg.Sources.SubscriptionsPath)
	if err != nil {
		return err
	}
	marketing, marketingBad, err := ingest.ReadMarketingSpend(r.cfg.Sources.MarketingPath)
	if err != nil {
		return err
	}

	metrics.RowsRead.WithLabelValues("events").Add(float64(len(events) + len(eventsBad)))
	metrics.RowsRead.WithLabelValues("subscriptions").Add(float64(len(subs)))
	metrics.RowsRead.WithLabelValues("marketing_spend").Add(float64(len(marketing) + len(marketingBad)))

	for table, rows := range map[string]any{
		"events_raw":          events,
		"subscriptions_raw":   subs,
		"marketing_spend_raw": marketing,
	} {
		if err := r.store.WriteTable(artifact.LayerBronze, table, rows); err != nil {
			return err
		}
	}
	if err := r.store.WriteTable(artifact.LayerQuarantine, "events_bad_rows", eventsBad); err != nil {
		return err
	}
	if err := r.store.WriteTable(artifact.LayerQuarantine, "marketing_spend_bad_rows", marketingBad); err != nil {
		return err
	}

	r.raw.events = events
	r.raw.subscriptions = subs
	r.raw.marketing = marketing

	logging.Ctx(ctx).Info().
		Int("events", len(events)).
		Int("subscriptions", len(subs)).
		Int("marketing_spend", len(marketing)).
		Int("undecodable_lines", len(eventsBad)+len(marketingBad)).
		Msg("Raw sources ingested")
	return nil
}

func (r *Runner) runSilver(ctx context.Context, res *Results) error {
	res.Events, res.EventsRejected = silver.CleanEvents(r.raw.events)

	cleanSubs, overlaps, rejectedSubs := silver.CleanSubscriptions(r.raw.subscriptions)
	res.Subscriptions = cleanSubs
	res.SubscriptionsRejected = append(rejectedSubs, overlapsAsRejected(overlaps)...)

	spendRows, spendRejected := silver.CleanMarketingSpend(r.raw.marketing)
	res.SpendGrid = silver.BuildSpendGrid(spendRows)
	res.SpendRejected = spendRejected

	countSilver("events", len(res.Events), res.EventsRejected)
	countSilver("subscriptions", len(res.Subscriptions), res.SubscriptionsRejected)
	countSilver("marketing_spend", len(spendRows), res.SpendRejected)

	for table, rows := range map[string]any{
		"events_clean":          res.Events,
		"subscriptions_clean":   res.Subscriptions,
		"marketing_spend_clean": res.SpendGrid,
	} {
		if err := r.store.WriteTable(artifact.LayerSilver, table, rows); err != nil {
			return err
		}
	}
	for table, rows := range map[string][]models.RejectedRecord{
		"events_rejected":          res.EventsRejected,
		"subscriptions_rejected":   res.SubscriptionsRejected,
		"marketing_spend_rejected": res.SpendRejected,
	} {
		if err := r.store.WriteTable(artifact.LayerQuarantine, table, rows); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runGold(ctx context.Context, res *Results) error {
	g, err := BuildGold(ctx, res.Events, res.Subscriptions, res.SpendGrid, r.cfg.Pipeline.ParallelGold)
	if err != nil {
		return err
	}
	res.Gold = g

	if !gold.ConversionsConsistent(g.CAC, g.Ratio) {
		logging.Ctx(ctx).Warn().Msg("Per-channel conversions do not sum to the overall ratio conversions")
	}

	for table, rows := range map[string]any{
		"daily_active_users":      g.DAU,
		"daily_revenue_gross":     g.RevenueGross,
		"daily_revenue_net":       g.RevenueNet,
		"mrr_daily":               g.MRR,
		"weekly_cohort_retention": g.Retention,
		"cac_by_channel":          g.CAC,
		"ltv_per_user":            g.LTV,
		"ltv_cac_ratio":           []models.RatioRow{g.Ratio},
	} {
		if err := r.store.WriteTable(artifact.LayerGold, table, rows); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runLoad(ctx context.Context, res *Results) error {
	if err := r.db.LoadEventsClean(ctx, res.Events); err != nil {
		return err
	}
	if err := r.db.LoadSubscriptionsClean(ctx, res.Subscriptions); err != nil {
		return err
	}
	if err := r.db.LoadMarketingSpendClean(ctx, res.SpendGrid); err != nil {
		return err
	}
	for entity, rows := range map[string][]models.RejectedRecord{
		"events":          res.EventsRejected,
		"subscriptions":   res.SubscriptionsRejected,
		"marketing_spend": res.SpendRejected,
	} {
		if err := r.db.LoadRejected(ctx, entity, rows); err != nil {
			return err
		}
	}
	if err := r.db.LoadGold(ctx, res.Gold); err != nil {
		return err
	}
	if err := r.db.BuildDimensions(ctx); err != nil {
		return err
	}
	return r.db.BuildViews(ctx)
}

// BuildGold computes every gold table from the clean tables. The engines
// are independent pure functions; with parallel set they run concurrently
// under an errgroup, producing byte-identical output either way.
func BuildGold(ctx context.Context, events []models.CleanEvent, subs []models.CleanSubscription, grid []models.SpendRow, parallel bool) (storage.GoldTables, error) {
	var g storage.GoldTables

	engines := []func(){
		func() { g.DAU = gold.DailyActiveUsers(events) },
		func() { g.RevenueGross = gold.DailyRevenueGross(events) },
		func() { g.RevenueNet = gold.DailyRevenueNet(events) },
		func() { g.MRR = gold.MRRSeries(subs) },
		func() { g.Retention = gold.CohortRetention(events) },
		func() { g.CAC = gold.CACByChannel(events, grid) },
		func() { g.LTV = gold.LTVPerUser(events) },
	}

	if parallel {
		eg, _ := errgroup.WithContext(ctx)
		for _, engine := range engines {
			eg.Go(func() error {
				engine()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return g, err
		}
	} else {
		for _, engine := range engines {
			engine()
		}
	}

	// The ratio reads the finished LTV table, so it stays sequential.
	g.Ratio = gold.LTVCACRatio(g.LTV, grid, events)
	return g, nil
}

// overlapsAsRejected folds the overlap-quarantined subscriptions into
// the rejected table so one quarantine artifact covers both defect
// classes.
func overlapsAsRejected(overlaps []models.OverlapRecord) []models.RejectedRecord {
	out := make([]models.RejectedRecord, 0, len(overlaps))
	for _, o := range overlaps {
		fields := map[string]string{
			"subscription_id": o.SubscriptionID,
			"user_id":         o.UserID,
			"plan_id":         o.PlanID,
			"price":           strconv.FormatFloat(o.Price, 'f', -1, 64),
			"currency":        o.Currency,
			"status":          o.Status,
			"start_date":      o.StartDate.Format("2006-01-02"),
			"created_at":      o.CreatedAt.Format(time.RFC3339),
		}
		if o.EndDate != nil {
			fields["end_date"] = o.EndDate.Format("2006-01-02")
		}
		out = append(out, models.RejectedRecord{
			Fields:     fields,
			SourceLine: o.SourceLine,
			Reason:     o.Reason,
		})
	}
	return out
}

func countSilver(entity string, accepted int, rejected []models.RejectedRecord) {
	metrics.RowsAccepted.WithLabelValues(entity).Add(float64(accepted))
	for _, rec := range rejected {
		tag, _, _ := strings.Cut(rec.Reason, ":")
		metrics.RowsQuarantined.WithLabelValues(entity, tag).Inc()
	}
}
