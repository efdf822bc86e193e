// Package storetest holds the conformance cases every store.Store must pass.
package storetest

import "github.com/LilVoxy/order_analytics/ETL/models"

// Customers is the shared customer table. Customer 4 has no orders.
func Customers() map[string]models.Customer {
	return map[string]models.Customer{
		"1": {ID: "1", Name: "Rohan Gupta", Region: "North", SignupDate: "2023-06-01"},
		"2": {ID: "2", Name: "Asha Rao", Region: "South"},
		"3": {ID: "3", Name: "Vikram Singh", Region: "North"},
		"4": {ID: "4", Name: "Meera Iyer", Region: "East"},
		"5": {ID: "5", Name: "Kabir Shah", Region: "West"},
		"6": {ID: "6", Name: "Nisha Das", Region: "South"},
	}
}

// Orders is the shared order document. o11 and o12 are orphans; o12 is the latest order.
func Orders() []models.Order {
	return []models.Order{
		Order("o1", "1", "2024-01-05", 6000, 4000),
		Order("o2", "1", "2024-01-20", 5000),
		Order("o3", "1", "2024-03-02", 2550),
		Order("o4", "1", "2024-03-15", 1000),
		Order("o5", "2", "2024-03-15", 15000, 5000),
		Order("o6", "2", "2024-01-10", 2000),
		Order("o7", "3", "2024-03-15", 3000),
		Order("o8", "5", "2024-01-15", 4000),
		Order("o9", "5", "2024-02-01", 6000),
		Order("o10", "6", "2024-03-15", 3000),
		Order("o11", "999", "2024-02-11", 7000),
		Order("o12", "", "2024-03-16", 500),
	}
}

// Order builds an order with one line item per amount.
func Order(id, customerID, date string, itemCents ...int64) models.Order {
	o := models.Order{ID: id, CustomerID: customerID, OrderDate: date}
	for i, cents := range itemCents {
		o.Items = append(o.Items, models.LineItem{
			SKU:      id + "-sku" + string(rune('a'+i)),
			Quantity: i + 1,
			Amount:   models.Money(cents),
		})
		o.Amount += models.Money(cents)
	}
	return o
}
