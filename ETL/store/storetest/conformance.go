package storetest

import (
	"context"
	"testing"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per case and should register cleanup.
type Factory func(t *testing.T) store.Store

// Run executes the conformance cases against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"EmptyStore", testEmptyStore},
		{"QueryByCustomer", testQueryByCustomer},
		{"QueryByMonthIncludesOrphans", testQueryByMonthInclude},
		{"QueryByMonthExcludesOrphans", testQueryByMonthExclude},
		{"QueryByMonthDistinctCustomers", testQueryByMonthDistinctCustomers},
		{"QueryByRegion", testQueryByRegion},
		{"QueryByRegionTieBreak", testQueryByRegionTieBreak},
		{"QueryRecentWindow", testQueryRecentWindow},
		{"QueryRecentWindowBoundary", testQueryRecentBoundary},
		{"LoadReplacesSnapshot", testLoadReplaces},
		{"ClosedStore", testClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func load(t *testing.T, s store.Store) {
	t.Helper()
	require.NoError(t, s.Load(context.Background(), Customers(), Orders()))
}

func testEmptyStore(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, map[string]models.Customer{}, nil))

	customers, err := s.QueryByCustomer(ctx)
	require.NoError(t, err)
	assert.NotNil(t, customers)
	assert.Empty(t, customers)

	months, err := s.QueryByMonth(ctx, models.OrphanInclude)
	require.NoError(t, err)
	assert.Empty(t, months)

	regions, err := s.QueryByRegion(ctx)
	require.NoError(t, err)
	assert.Empty(t, regions)

	recent, err := s.QueryRecent(ctx, 30)
	require.NoError(t, err)
	assert.Empty(t, recent.From)
	assert.Empty(t, recent.Customers)
}

func testQueryByCustomer(t *testing.T, s store.Store) {
	load(t, s)

	got, err := s.QueryByCustomer(context.Background())
	require.NoError(t, err)

	want := []models.CustomerAggregate{
		{CustomerID: "1", Name: "Rohan Gupta", Region: "North", OrderCount: 4, Total: 18550, LastOrderDate: "2024-03-15"},
		{CustomerID: "2", Name: "Asha Rao", Region: "South", OrderCount: 2, Total: 22000, LastOrderDate: "2024-03-15"},
		{CustomerID: "5", Name: "Kabir Shah", Region: "West", OrderCount: 2, Total: 10000, LastOrderDate: "2024-02-01"},
		{CustomerID: "3", Name: "Vikram Singh", Region: "North", OrderCount: 1, Total: 3000, LastOrderDate: "2024-03-15"},
		{CustomerID: "6", Name: "Nisha Das", Region: "South", OrderCount: 1, Total: 3000, LastOrderDate: "2024-03-15"},
	}
	assert.Equal(t, want, got)

	for _, agg := range got {
		assert.NotEqual(t, "999", agg.CustomerID)
		assert.NotEmpty(t, agg.CustomerID)
	}
}

func testQueryByMonthInclude(t *testing.T, s store.Store) {
	load(t, s)

	got, err := s.QueryByMonth(context.Background(), models.OrphanInclude)
	require.NoError(t, err)

	assert.Equal(t, []models.MonthAggregate{
		{Month: "2024-01", OrderCount: 4, CustomerCount: 3, Total: 21000},
		{Month: "2024-02", OrderCount: 2, CustomerCount: 2, Total: 13000},
		{Month: "2024-03", OrderCount: 6, CustomerCount: 4, Total: 30050},
	}, got)

	var sum, all models.Money
	for _, m := range got {
		sum += m.Total
	}
	for _, o := range Orders() {
		all += o.Amount
	}
	assert.Equal(t, all, sum)
}

func testQueryByMonthExclude(t *testing.T, s store.Store) {
	load(t, s)

	got, err := s.QueryByMonth(context.Background(), models.OrphanExclude)
	require.NoError(t, err)

	assert.Equal(t, []models.MonthAggregate{
		{Month: "2024-01", OrderCount: 4, CustomerCount: 3, Total: 21000},
		{Month: "2024-02", OrderCount: 1, CustomerCount: 1, Total: 6000},
		{Month: "2024-03", OrderCount: 5, CustomerCount: 4, Total: 29550},
	}, got)
}

func testQueryByMonthDistinctCustomers(t *testing.T, s store.Store) {
	ctx := context.Background()
	customers := map[string]models.Customer{
		"1": {ID: "1", Name: "Rohan Gupta", Region: "North"},
		"2": {ID: "2", Name: "Asha Rao", Region: "South"},
	}
	orders := []models.Order{
		Order("a1", "1", "2024-05-01", 100),
		Order("a2", "1", "2024-05-20", 200),
		Order("a3", "2", "2024-05-03", 300),
		Order("a4", "77", "2024-05-04", 400),
		Order("a5", "77", "2024-05-05", 500),
		Order("a6", "", "2024-05-06", 600),
		Order("a7", "", "2024-06-01", 700),
	}
	require.NoError(t, s.Load(ctx, customers, orders))

	all, err := s.QueryByMonth(ctx, models.OrphanInclude)
	require.NoError(t, err)
	assert.Equal(t, []models.MonthAggregate{
		{Month: "2024-05", OrderCount: 6, CustomerCount: 3, Total: 2100},
		{Month: "2024-06", OrderCount: 1, CustomerCount: 0, Total: 700},
	}, all)

	matched, err := s.QueryByMonth(ctx, models.OrphanExclude)
	require.NoError(t, err)
	assert.Equal(t, []models.MonthAggregate{
		{Month: "2024-05", OrderCount: 3, CustomerCount: 2, Total: 600},
	}, matched)
}

func testQueryByRegion(t *testing.T, s store.Store) {
	load(t, s)

	got, err := s.QueryByRegion(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.RegionAggregate{
		{Region: "South", OrderCount: 3, CustomerCount: 2, Total: 25000},
		{Region: "North", OrderCount: 5, CustomerCount: 2, Total: 21550},
		{Region: "West", OrderCount: 2, CustomerCount: 1, Total: 10000},
	}, got)
}

func testQueryByRegionTieBreak(t *testing.T, s store.Store) {
	customers := map[string]models.Customer{
		"a": {ID: "a", Name: "A", Region: "West"},
		"b": {ID: "b", Name: "B", Region: "East"},
		"c": {ID: "c", Name: "C", Region: "Central"},
	}
	orders := []models.Order{
		Order("1", "a", "2024-05-01", 1000),
		Order("2", "b", "2024-05-02", 1000),
		Order("3", "c", "2024-05-03", 400),
	}
	require.NoError(t, s.Load(context.Background(), customers, orders))

	got, err := s.QueryByRegion(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "East", got[0].Region)
	assert.Equal(t, "West", got[1].Region)
	assert.Equal(t, "Central", got[2].Region)
}

func testQueryRecentWindow(t *testing.T, s store.Store) {
	load(t, s)

	got, err := s.QueryRecent(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-16", got.From)
	assert.Equal(t, "2024-03-16", got.To)
	assert.Equal(t, []models.CustomerAggregate{
		{CustomerID: "2", Name: "Asha Rao", Region: "South", OrderCount: 1, Total: 20000, LastOrderDate: "2024-03-15"},
		{CustomerID: "1", Name: "Rohan Gupta", Region: "North", OrderCount: 2, Total: 3550, LastOrderDate: "2024-03-15"},
		{CustomerID: "3", Name: "Vikram Singh", Region: "North", OrderCount: 1, Total: 3000, LastOrderDate: "2024-03-15"},
		{CustomerID: "6", Name: "Nisha Das", Region: "South", OrderCount: 1, Total: 3000, LastOrderDate: "2024-03-15"},
	}, got.Customers)
}

func testQueryRecentBoundary(t *testing.T, s store.Store) {
	load(t, s)
	ctx := context.Background()

	// o3 is dated 2024-03-02, the first day of a 15 day window ending 2024-03-16
	inclusive, err := s.QueryRecent(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", inclusive.From)
	require.NotEmpty(t, inclusive.Customers)
	assert.Equal(t, models.Money(3550), totalOf(inclusive.Customers, "1"))

	exclusive, err := s.QueryRecent(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", exclusive.From)
	assert.Equal(t, models.Money(1000), totalOf(exclusive.Customers, "1"))
	assert.Equal(t, "1", exclusive.Customers[len(exclusive.Customers)-1].CustomerID)

	single, err := s.QueryRecent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-16", single.From)
	assert.Empty(t, single.Customers, "the only order on the latest day is an orphan")
}

func testLoadReplaces(t *testing.T, s store.Store) {
	load(t, s)
	ctx := context.Background()

	customers := map[string]models.Customer{"7": {ID: "7", Name: "Zara Khan", Region: "East"}}
	orders := []models.Order{Order("z1", "7", "2025-07-01", 999)}
	require.NoError(t, s.Load(ctx, customers, orders))

	got, err := s.QueryByCustomer(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "7", got[0].CustomerID)

	months, err := s.QueryByMonth(ctx, models.OrphanInclude)
	require.NoError(t, err)
	assert.Equal(t, []models.MonthAggregate{{Month: "2025-07", OrderCount: 1, CustomerCount: 1, Total: 999}}, months)
}

func testClosed(t *testing.T, s store.Store) {
	load(t, s)
	require.NoError(t, s.Close())

	_, err := s.QueryByCustomer(context.Background())
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, s.Load(context.Background(), Customers(), Orders()), store.ErrClosed)
}

func totalOf(aggs []models.CustomerAggregate, id string) models.Money {
	for _, a := range aggs {
		if a.CustomerID == id {
			return a.Total
		}
	}
	return 0
}
