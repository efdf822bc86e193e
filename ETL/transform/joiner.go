package transform

import (
	"sort"

	"github.com/LilVoxy/order_analytics/ETL/models"
)

// Joined is the derived association between customers and orders. It references the
// input entities and never modifies them.
type Joined struct {
	Customers  map[string]models.Customer
	ByCustomer map[string][]models.Order
	Matched    []models.Order
	Orphans    []models.Order
	Warnings   []models.OrphanReferenceWarning
}

// Join attaches every order to its customer. Orders whose customer id is empty or unknown
// become orphans, each with one warning, in input order.
func Join(customers map[string]models.Customer, orders []models.Order) *Joined {
	j := &Joined{
		Customers:  customers,
		ByCustomer: make(map[string][]models.Order),
		Matched:    make([]models.Order, 0, len(orders)),
		Orphans:    make([]models.Order, 0),
		Warnings:   make([]models.OrphanReferenceWarning, 0),
	}

	for _, o := range orders {
		if _, ok := customers[o.CustomerID]; ok && o.CustomerID != "" {
			j.ByCustomer[o.CustomerID] = append(j.ByCustomer[o.CustomerID], o)
			j.Matched = append(j.Matched, o)
			continue
		}
		j.Orphans = append(j.Orphans, o)
		j.Warnings = append(j.Warnings, models.OrphanReferenceWarning{OrderID: o.ID, CustomerID: o.CustomerID})
	}

	return j
}

// IsOrphan reports whether the order with the given customer id has no customer.
func (j *Joined) IsOrphan(customerID string) bool {
	_, ok := j.Customers[customerID]
	return customerID == "" || !ok
}

// Records returns one JoinedRecord per customer, including customers without orders,
// sorted by customer id.
func (j *Joined) Records() []models.JoinedRecord {
	ids := make([]string, 0, len(j.Customers))
	for id := range j.Customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]models.JoinedRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, models.JoinedRecord{
			Customer: j.Customers[id],
			Orders:   j.ByCustomer[id],
		})
	}
	return records
}
