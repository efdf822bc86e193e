package models

// LoyaltyRow ranks customers by how often they order.
type LoyaltyRow struct {
	Rank          int    `json:"rank"`
	CustomerID    string `json:"customer_id"`
	Name          string `json:"name"`
	OrderCount    int    `json:"order_count"`
	LastOrderDate string `json:"last_order_date"`
	TotalSpend    Money  `json:"total_spend"`
}

// MonthlyRow is one calendar month of revenue. Change and ChangePct are nil for the first
// month; ChangePct is also nil when the previous month had no revenue.
type MonthlyRow struct {
	Month         string   `json:"month"`
	OrderCount    int      `json:"order_count"`
	CustomerCount int      `json:"customer_count"`
	Revenue       Money    `json:"revenue"`
	Change        *Money   `json:"change"`
	ChangePct     *Percent `json:"change_pct"`
}

// RegionRow is the revenue of one region.
type RegionRow struct {
	Rank          int    `json:"rank"`
	Region        string `json:"region"`
	OrderCount    int    `json:"order_count"`
	CustomerCount int    `json:"customer_count"`
	Revenue       Money  `json:"revenue"`
	AvgOrderValue Money  `json:"avg_order_value"`
}

// RecentRow is one customer's spend inside the lookback window.
type RecentRow struct {
	Rank       int    `json:"rank"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Region     string `json:"region"`
	OrderCount int    `json:"order_count"`
	TotalSpend Money  `json:"total_spend"`
}

// RecentReport is the recent customer value report with its window bounds.
type RecentReport struct {
	WindowDays int         `json:"window_days"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Rows       []RecentRow `json:"rows"`
}

// Reports bundles the four analytic reports of one run.
type Reports struct {
	Loyalty      []LoyaltyRow             `json:"loyalty"`
	Monthly      []MonthlyRow             `json:"monthly"`
	Regional     []RegionRow              `json:"regional"`
	Recent       RecentReport             `json:"recent"`
	OrphanPolicy OrphanPolicy             `json:"orphan_policy"`
	Warnings     []OrphanReferenceWarning `json:"warnings"`
}
