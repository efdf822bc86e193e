package extractors

import (
	"fmt"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"go.uber.org/zap"
)

// ExtractedData holds the normalized entities of one run.
type ExtractedData struct {
	Customers map[string]models.Customer
	Orders    []models.Order
}

// Extractor coordinates reading both source datasets.
type Extractor struct {
	logger            *utils.ETLLogger
	customerExtractor *CustomerExtractor
	orderExtractor    *OrderExtractor
}

// NewExtractor creates an Extractor normalizing dates in loc.
func NewExtractor(logger *utils.ETLLogger, loc *time.Location) *Extractor {
	return &Extractor{
		logger:            logger,
		customerExtractor: NewCustomerExtractor(logger, loc),
		orderExtractor:    NewOrderExtractor(logger, loc),
	}
}

// Extract loads the customer table and the order document.
func (e *Extractor) Extract(customersPath, ordersPath string) (*ExtractedData, error) {
	started := e.logger.LogPhaseStart("extract")

	customers, err := e.customerExtractor.ExtractCustomers(customersPath)
	if err != nil {
		e.logger.Error("customer extraction failed: %v", err)
		return nil, fmt.Errorf("extract customers: %w", err)
	}

	orders, err := e.orderExtractor.ExtractOrders(ordersPath)
	if err != nil {
		e.logger.Error("order extraction failed: %v", err)
		return nil, fmt.Errorf("extract orders: %w", err)
	}

	e.logger.LogPhaseComplete("extract", started,
		zap.Int("customers", len(customers)),
		zap.Int("orders", len(orders)))

	return &ExtractedData{Customers: customers, Orders: orders}, nil
}
