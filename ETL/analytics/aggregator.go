// Package analytics turns the grouped store queries into the four ranked reports.
package analytics

import (
	"context"
	"fmt"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/store"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"go.uber.org/zap"
)

// Options are the report constants of one run.
type Options struct {
	RecentWindowDays int
	RecentTopN       int
	LoyaltyMinOrders int
	OrphanPolicy     models.OrphanPolicy
}

// DefaultOptions mirror the configuration defaults.
var DefaultOptions = Options{
	RecentWindowDays: 30,
	LoyaltyMinOrders: 1,
	OrphanPolicy:     models.OrphanInclude,
}

// Aggregator computes reports over a loaded store. It never writes to the store.
type Aggregator struct {
	store  store.Store
	opts   Options
	logger *utils.ETLLogger
}

// NewAggregator creates an Aggregator. Zero-valued options fall back to DefaultOptions.
func NewAggregator(s store.Store, opts Options, logger *utils.ETLLogger) *Aggregator {
	if opts.RecentWindowDays < 1 {
		opts.RecentWindowDays = DefaultOptions.RecentWindowDays
	}
	if opts.LoyaltyMinOrders < 1 {
		opts.LoyaltyMinOrders = DefaultOptions.LoyaltyMinOrders
	}
	if !opts.OrphanPolicy.Valid() {
		opts.OrphanPolicy = DefaultOptions.OrphanPolicy
	}
	return &Aggregator{store: s, opts: opts, logger: logger}
}

// Build computes all four reports. warnings are attached as they are.
func (a *Aggregator) Build(ctx context.Context, warnings []models.OrphanReferenceWarning) (*models.Reports, error) {
	started := a.logger.LogPhaseStart("aggregate")

	loyalty, err := a.Loyalty(ctx)
	if err != nil {
		return nil, fmt.Errorf("loyalty report: %w", err)
	}
	monthly, err := a.Monthly(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	regional, err := a.Regional(ctx)
	if err != nil {
		return nil, fmt.Errorf("regional report: %w", err)
	}
	recent, err := a.Recent(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent customer report: %w", err)
	}

	if warnings == nil {
		warnings = []models.OrphanReferenceWarning{}
	}

	a.logger.LogPhaseComplete("aggregate", started,
		zap.Int("loyalty_rows", len(loyalty)),
		zap.Int("months", len(monthly)),
		zap.Int("regions", len(regional)),
		zap.Int("recent_rows", len(recent.Rows)))

	return &models.Reports{
		Loyalty:      loyalty,
		Monthly:      monthly,
		Regional:     regional,
		Recent:       recent,
		OrphanPolicy: a.opts.OrphanPolicy,
		Warnings:     warnings,
	}, nil
}

// Loyalty ranks customers by order count, then most recent order, then id.
func (a *Aggregator) Loyalty(ctx context.Context) ([]models.LoyaltyRow, error) {
	customers, err := a.store.QueryByCustomer(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.LoyaltyRow, 0, len(customers))
	for _, c := range customers {
		if c.OrderCount < a.opts.LoyaltyMinOrders {
			continue
		}
		rows = append(rows, models.LoyaltyRow{
			Rank:          len(rows) + 1,
			CustomerID:    c.CustomerID,
			Name:          c.Name,
			OrderCount:    c.OrderCount,
			LastOrderDate: c.LastOrderDate,
			TotalSpend:    c.Total,
		})
	}
	return rows, nil
}

// Monthly lists every calendar month between the first and last order, with month over
// month changes. Months without orders have zero revenue.
func (a *Aggregator) Monthly(ctx context.Context) ([]models.MonthlyRow, error) {
	months, err := a.store.QueryByMonth(ctx, a.opts.OrphanPolicy)
	if err != nil {
		return nil, err
	}
	if len(months) == 0 {
		return []models.MonthlyRow{}, nil
	}

	observed := make(map[string]models.MonthAggregate, len(months))
	for _, m := range months {
		observed[m.Month] = m
	}
	calendar, err := models.MonthRange(months[0].Month, months[len(months)-1].Month)
	if err != nil {
		return nil, fmt.Errorf("month range: %w", err)
	}

	rows := make([]models.MonthlyRow, 0, len(calendar))
	for i, month := range calendar {
		m := observed[month]
		row := models.MonthlyRow{
			Month:         month,
			OrderCount:    m.OrderCount,
			CustomerCount: m.CustomerCount,
			Revenue:       m.Total,
		}
		if i > 0 {
			prev := rows[i-1].Revenue
			change := row.Revenue - prev
			row.Change = &change
			row.ChangePct = models.PercentChange(prev, row.Revenue)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Regional ranks regions by revenue.
func (a *Aggregator) Regional(ctx context.Context) ([]models.RegionRow, error) {
	regions, err := a.store.QueryByRegion(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RegionRow, 0, len(regions))
	for i, r := range regions {
		rows = append(rows, models.RegionRow{
			Rank:          i + 1,
			Region:        r.Region,
			OrderCount:    r.OrderCount,
			CustomerCount: r.CustomerCount,
			Revenue:       r.Total,
			AvgOrderValue: r.Total.Average(r.OrderCount),
		})
	}
	return rows, nil
}

// Recent ranks customers by spend inside the lookback window.
func (a *Aggregator) Recent(ctx context.Context) (models.RecentReport, error) {
	recent, err := a.store.QueryRecent(ctx, a.opts.RecentWindowDays)
	if err != nil {
		return models.RecentReport{}, err
	}

	customers := recent.Customers
	if a.opts.RecentTopN > 0 && len(customers) > a.opts.RecentTopN {
		customers = customers[:a.opts.RecentTopN]
	}

	rows := make([]models.RecentRow, 0, len(customers))
	for i, c := range customers {
		rows = append(rows, models.RecentRow{
			Rank:       i + 1,
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Region:     c.Region,
			OrderCount: c.OrderCount,
			TotalSpend: c.Total,
		})
	}
	return models.RecentReport{
		WindowDays: a.opts.RecentWindowDays,
		From:       recent.From,
		To:         recent.To,
		Rows:       rows,
	}, nil
}
