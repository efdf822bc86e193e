// Package store holds the Store Adapter: one load/query surface implemented by a
// persistent SQL backend and by an in-memory backend. Both apply the same grouping,
// ordering and tie-break rules, so the analytics built on top are identical.
package store

import (
	"context"
	"errors"

	"github.com/LilVoxy/order_analytics/ETL/models"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("store is closed")

// Store loads a snapshot of customers and orders and answers the grouped queries.
//
// Ordering contract:
//   - QueryByCustomer: order count desc, last order date desc, customer id asc
//   - QueryByMonth: month asc
//   - QueryByRegion: total desc, region asc
//   - QueryRecent: total desc, customer id asc
//
// Per-customer and per-region queries only see orders whose customer is known.
type Store interface {
	// Load replaces the held snapshot.
	Load(ctx context.Context, customers map[string]models.Customer, orders []models.Order) error

	QueryByCustomer(ctx context.Context) ([]models.CustomerAggregate, error)

	// QueryByMonth includes orphan orders unless policy is OrphanExclude.
	QueryByMonth(ctx context.Context, policy models.OrphanPolicy) ([]models.MonthAggregate, error)

	QueryByRegion(ctx context.Context) ([]models.RegionAggregate, error)

	// QueryRecent groups matched orders dated within windowDays calendar days ending at
	// the latest order date of the whole snapshot.
	QueryRecent(ctx context.Context, windowDays int) (models.RecentAggregate, error)

	Close() error
}

// windowStart returns the first date of a window of days ending at latest.
func windowStart(latest string, days int) (string, error) {
	if days < 1 {
		days = 1
	}
	return models.AddDays(latest, -(days - 1))
}
