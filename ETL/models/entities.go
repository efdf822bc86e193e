package models

// Customer is one normalized row of the customer table.
type Customer struct {
	ID         string `json:"customer_id"`
	Name       string `json:"name"`
	Region     string `json:"region"`
	SignupDate string `json:"signup_date,omitempty"` // YYYY-MM-DD, empty when the source has none
}

// LineItem is a single SKU line of an order.
type LineItem struct {
	SKU      string `json:"sku_id"`
	Quantity int    `json:"quantity"`
	Amount   Money  `json:"amount"`
}

// Order is a flattened order document. Amount is the sum of the item amounts.
type Order struct {
	ID         string     `json:"order_id"`
	CustomerID string     `json:"customer_id"`
	OrderDate  string     `json:"order_date"` // YYYY-MM-DD in the reporting time zone
	Amount     Money      `json:"amount"`
	Items      []LineItem `json:"items"`
}

// Month returns the YYYY-MM bucket of the order.
func (o Order) Month() string {
	return MonthOf(o.OrderDate)
}

// JoinedRecord pairs a customer with the orders that reference it.
type JoinedRecord struct {
	Customer Customer
	Orders   []Order
}

// OrphanPolicy decides whether orders without a known customer count toward month totals.
type OrphanPolicy string

const (
	OrphanInclude OrphanPolicy = "include"
	OrphanExclude OrphanPolicy = "exclude"
)

// Valid reports whether p is a known policy.
func (p OrphanPolicy) Valid() bool {
	return p == OrphanInclude || p == OrphanExclude
}
