package store

import (
	"context"
	"sort"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/transform"
	"github.com/LilVoxy/order_analytics/ETL/utils"
)

// MemoryStore keeps the snapshot in process and groups it on demand.
type MemoryStore struct {
	logger *utils.ETLLogger
	orders []models.Order
	joined *transform.Joined
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(logger *utils.ETLLogger) *MemoryStore {
	return &MemoryStore{
		logger: logger,
		joined: transform.Join(map[string]models.Customer{}, nil),
	}
}

// Load copies the inputs and joins them.
func (s *MemoryStore) Load(ctx context.Context, customers map[string]models.Customer, orders []models.Order) error {
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	held := make(map[string]models.Customer, len(customers))
	for id, c := range customers {
		held[id] = c
	}
	copied := make([]models.Order, len(orders))
	for i, o := range orders {
		o.Items = append([]models.LineItem(nil), o.Items...)
		copied[i] = o
	}

	s.orders = copied
	s.joined = transform.Join(held, copied)
	s.logger.Debug("memory store holds %d customers, %d orders (%d orphans)",
		len(held), len(copied), len(s.joined.Orphans))
	return nil
}

// QueryByCustomer groups matched orders per customer.
func (s *MemoryStore) QueryByCustomer(ctx context.Context) ([]models.CustomerAggregate, error) {
	if s.closed {
		return nil, ErrClosed
	}
	out := s.groupByCustomer(func(models.Order) bool { return true })
	sort.SliceStable(out, func(i, k int) bool {
		a, b := out[i], out[k]
		if a.OrderCount != b.OrderCount {
			return a.OrderCount > b.OrderCount
		}
		if a.LastOrderDate != b.LastOrderDate {
			return a.LastOrderDate > b.LastOrderDate
		}
		return a.CustomerID < b.CustomerID
	})
	return out, nil
}

// QueryByMonth groups orders by YYYY-MM.
func (s *MemoryStore) QueryByMonth(ctx context.Context, policy models.OrphanPolicy) ([]models.MonthAggregate, error) {
	if s.closed {
		return nil, ErrClosed
	}
	byMonth := make(map[string]*models.MonthAggregate)
	customersSeen := make(map[string]map[string]struct{})
	for _, o := range s.orders {
		if policy == models.OrphanExclude && s.joined.IsOrphan(o.CustomerID) {
			continue
		}
		m := o.Month()
		agg, ok := byMonth[m]
		if !ok {
			agg = &models.MonthAggregate{Month: m}
			byMonth[m] = agg
			customersSeen[m] = make(map[string]struct{})
		}
		agg.OrderCount++
		agg.Total += o.Amount
		if o.CustomerID != "" {
			customersSeen[m][o.CustomerID] = struct{}{}
		}
	}

	out := make([]models.MonthAggregate, 0, len(byMonth))
	for m, agg := range byMonth {
		agg.CustomerCount = len(customersSeen[m])
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Month < out[k].Month })
	return out, nil
}

// QueryByRegion groups matched orders by the region of their customer.
func (s *MemoryStore) QueryByRegion(ctx context.Context) ([]models.RegionAggregate, error) {
	if s.closed {
		return nil, ErrClosed
	}
	byRegion := make(map[string]*models.RegionAggregate)
	customersSeen := make(map[string]map[string]struct{})
	for _, o := range s.joined.Matched {
		region := s.joined.Customers[o.CustomerID].Region
		agg, ok := byRegion[region]
		if !ok {
			agg = &models.RegionAggregate{Region: region}
			byRegion[region] = agg
			customersSeen[region] = make(map[string]struct{})
		}
		agg.OrderCount++
		agg.Total += o.Amount
		customersSeen[region][o.CustomerID] = struct{}{}
	}

	out := make([]models.RegionAggregate, 0, len(byRegion))
	for region, agg := range byRegion {
		agg.CustomerCount = len(customersSeen[region])
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, k int) bool {
		if out[i].Total != out[k].Total {
			return out[i].Total > out[k].Total
		}
		return out[i].Region < out[k].Region
	})
	return out, nil
}

// QueryRecent groups matched orders inside the lookback window.
func (s *MemoryStore) QueryRecent(ctx context.Context, windowDays int) (models.RecentAggregate, error) {
	if s.closed {
		return models.RecentAggregate{}, ErrClosed
	}
	var latest string
	for _, o := range s.orders {
		if o.OrderDate > latest {
			latest = o.OrderDate
		}
	}
	if latest == "" {
		return models.RecentAggregate{Customers: []models.CustomerAggregate{}}, nil
	}
	from, err := windowStart(latest, windowDays)
	if err != nil {
		return models.RecentAggregate{}, err
	}

	out := s.groupByCustomer(func(o models.Order) bool { return o.OrderDate >= from })
	sort.SliceStable(out, func(i, k int) bool {
		if out[i].Total != out[k].Total {
			return out[i].Total > out[k].Total
		}
		return out[i].CustomerID < out[k].CustomerID
	})
	return models.RecentAggregate{From: from, To: latest, Customers: out}, nil
}

// Close drops the snapshot.
func (s *MemoryStore) Close() error {
	s.closed = true
	s.orders = nil
	s.joined = nil
	return nil
}

// groupByCustomer totals the orders accepted by keep for every customer, skipping
// customers left with none. Output is in customer id order.
func (s *MemoryStore) groupByCustomer(keep func(models.Order) bool) []models.CustomerAggregate {
	out := make([]models.CustomerAggregate, 0)
	for _, rec := range s.joined.Records() {
		agg := models.CustomerAggregate{CustomerID: rec.Customer.ID, Name: rec.Customer.Name, Region: rec.Customer.Region}
		for _, o := range rec.Orders {
			if !keep(o) {
				continue
			}
			agg.OrderCount++
			agg.Total += o.Amount
			if o.OrderDate > agg.LastOrderDate {
				agg.LastOrderDate = o.OrderDate
			}
		}
		if agg.OrderCount > 0 {
			out = append(out, agg)
		}
	}
	return out
}
