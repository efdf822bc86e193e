package models

// CustomerAggregate is one per-customer group of matched orders.
type CustomerAggregate struct {
	CustomerID    string
	Name          string
	Region        string
	OrderCount    int
	Total         Money
	LastOrderDate string
}

// MonthAggregate is one YYYY-MM group of orders. CustomerCount is the number of distinct
// non-empty customer ids among the grouped orders.
type MonthAggregate struct {
	Month         string
	OrderCount    int
	CustomerCount int
	Total         Money
}

// RegionAggregate is one region group of matched orders.
type RegionAggregate struct {
	Region        string
	OrderCount    int
	CustomerCount int
	Total         Money
}

// RecentAggregate holds per-customer totals inside the lookback window [From, To].
// From and To are empty when there are no orders at all.
type RecentAggregate struct {
	From      string
	To        string
	Customers []CustomerAggregate
}
