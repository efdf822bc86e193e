package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/config"
	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"gorm.io/gorm"
)

const (
	queryByCustomer = `
		SELECT c.customer_id, c.customer_name, c.region,
			COUNT(o.order_id) AS order_count,
			SUM(o.amount_cents) AS total_cents,
			MAX(o.order_date) AS last_order_date
		FROM customers c
		JOIN orders o ON o.customer_id = c.customer_id
		GROUP BY c.customer_id, c.customer_name, c.region
		ORDER BY order_count DESC, last_order_date DESC, c.customer_id ASC`

	queryByMonthAll = `
		SELECT o.order_month,
			COUNT(o.order_id) AS order_count,
			COUNT(DISTINCT NULLIF(o.customer_id, '')) AS customer_count,
			SUM(o.amount_cents) AS total_cents
		FROM orders o
		GROUP BY o.order_month
		ORDER BY o.order_month ASC`

	queryByMonthMatched = `
		SELECT o.order_month,
			COUNT(o.order_id) AS order_count,
			COUNT(DISTINCT NULLIF(o.customer_id, '')) AS customer_count,
			SUM(o.amount_cents) AS total_cents
		FROM orders o
		JOIN customers c ON c.customer_id = o.customer_id
		GROUP BY o.order_month
		ORDER BY o.order_month ASC`

	queryByRegion = `
		SELECT c.region,
			COUNT(o.order_id) AS order_count,
			COUNT(DISTINCT c.customer_id) AS customer_count,
			SUM(o.amount_cents) AS total_cents
		FROM customers c
		JOIN orders o ON o.customer_id = c.customer_id
		GROUP BY c.region
		ORDER BY total_cents DESC, c.region ASC`

	queryLatestOrderDate = `SELECT MAX(order_date) FROM orders`

	queryRecent = `
		SELECT c.customer_id, c.customer_name, c.region,
			COUNT(o.order_id) AS order_count,
			SUM(o.amount_cents) AS total_cents,
			MAX(o.order_date) AS last_order_date
		FROM customers c
		JOIN orders o ON o.customer_id = c.customer_id
		WHERE o.order_date >= ?
		GROUP BY c.customer_id, c.customer_name, c.region
		ORDER BY total_cents DESC, c.customer_id ASC`
)

// SQLStore persists the snapshot in MySQL or SQLite and answers the queries with
// grouped SQL.
type SQLStore struct {
	db        *gorm.DB
	driver    string
	logger    *utils.ETLLogger
	batchSize int
}

// NewSQLStore connects with cfg and creates the snapshot tables if needed. The returned
// store owns the connection and releases it in Close.
func NewSQLStore(ctx context.Context, cfg config.DatabaseConfig, logger *utils.ETLLogger) (*SQLStore, error) {
	db, err := config.ConnectDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultDatabaseConfig.BatchSize
	}

	s := &SQLStore{
		db:        db,
		driver:    cfg.Driver,
		logger:    logger,
		batchSize: batchSize,
	}
	if err := s.createTables(ctx); err != nil {
		config.CloseDatabase(db)
		return nil, err
	}

	logger.Info("connected to %s store at %s", cfg.Driver, cfg.Target())
	return s, nil
}

// DB exposes the connection for repositories sharing it, such as the run log.
func (s *SQLStore) DB() *gorm.DB { return s.db }

func (s *SQLStore) createTables(ctx context.Context) error {
	for _, ddl := range schemaFor(s.driver) {
		if err := s.db.WithContext(ctx).Exec(ddl).Error; err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Load replaces the stored snapshot inside one transaction. On any error nothing changes.
func (s *SQLStore) Load(ctx context.Context, customers map[string]models.Customer, orders []models.Order) error {
	if s.db == nil {
		return ErrClosed
	}
	started := time.Now()

	customerRows := make([]customerRow, 0, len(customers))
	for _, c := range customers {
		customerRows = append(customerRows, customerRow{
			CustomerID:   c.ID,
			CustomerName: c.Name,
			Region:       c.Region,
			SignupDate:   c.SignupDate,
		})
	}
	sort.Slice(customerRows, func(i, k int) bool { return customerRows[i].CustomerID < customerRows[k].CustomerID })

	orderRows := make([]orderRow, 0, len(orders))
	itemRows := make([]orderItemRow, 0, len(orders))
	for _, o := range orders {
		orderRows = append(orderRows, orderRow{
			OrderID:     o.ID,
			CustomerID:  o.CustomerID,
			OrderDate:   o.OrderDate,
			OrderMonth:  o.Month(),
			AmountCents: int64(o.Amount),
		})
		for i, item := range o.Items {
			itemRows = append(itemRows, orderItemRow{
				OrderID:     o.ID,
				LineNo:      i + 1,
				SKU:         item.SKU,
				Quantity:    item.Quantity,
				AmountCents: int64(item.Amount),
			})
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range snapshotTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if len(customerRows) > 0 {
			if err := tx.CreateInBatches(&customerRows, s.batchSize).Error; err != nil {
				return fmt.Errorf("insert customers: %w", err)
			}
		}
		if len(orderRows) > 0 {
			if err := tx.CreateInBatches(&orderRows, s.batchSize).Error; err != nil {
				return fmt.Errorf("insert orders: %w", err)
			}
		}
		if len(itemRows) > 0 {
			if err := tx.CreateInBatches(&itemRows, s.batchSize).Error; err != nil {
				return fmt.Errorf("insert order items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("snapshot load rolled back: %v", err)
		return err
	}

	s.logger.Info("stored %d customers, %d orders, %d order items in %v",
		len(customerRows), len(orderRows), len(itemRows), time.Since(started))
	return nil
}

// QueryByCustomer groups matched orders per customer.
func (s *SQLStore) QueryByCustomer(ctx context.Context) ([]models.CustomerAggregate, error) {
	return s.queryCustomers(ctx, queryByCustomer)
}

// QueryByMonth groups orders by YYYY-MM.
func (s *SQLStore) QueryByMonth(ctx context.Context, policy models.OrphanPolicy) ([]models.MonthAggregate, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	query := queryByMonthAll
	if policy == models.OrphanExclude {
		query = queryByMonthMatched
	}

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("query by month: %w", err)
	}
	defer rows.Close()

	out := make([]models.MonthAggregate, 0)
	for rows.Next() {
		var agg models.MonthAggregate
		if err := rows.Scan(&agg.Month, &agg.OrderCount, &agg.CustomerCount, &agg.Total); err != nil {
			return nil, fmt.Errorf("scan month row: %w", err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month rows: %w", err)
	}
	return out, nil
}

// QueryByRegion groups matched orders by customer region.
func (s *SQLStore) QueryByRegion(ctx context.Context) ([]models.RegionAggregate, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.WithContext(ctx).Raw(queryByRegion).Rows()
	if err != nil {
		return nil, fmt.Errorf("query by region: %w", err)
	}
	defer rows.Close()

	out := make([]models.RegionAggregate, 0)
	for rows.Next() {
		var agg models.RegionAggregate
		if err := rows.Scan(&agg.Region, &agg.OrderCount, &agg.CustomerCount, &agg.Total); err != nil {
			return nil, fmt.Errorf("scan region row: %w", err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate region rows: %w", err)
	}
	return out, nil
}

// QueryRecent groups matched orders inside the lookback window.
func (s *SQLStore) QueryRecent(ctx context.Context, windowDays int) (models.RecentAggregate, error) {
	if s.db == nil {
		return models.RecentAggregate{}, ErrClosed
	}
	var latest sql.NullString
	if err := s.db.WithContext(ctx).Raw(queryLatestOrderDate).Row().Scan(&latest); err != nil {
		return models.RecentAggregate{}, fmt.Errorf("latest order date: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return models.RecentAggregate{Customers: []models.CustomerAggregate{}}, nil
	}

	from, err := windowStart(latest.String, windowDays)
	if err != nil {
		return models.RecentAggregate{}, err
	}
	customers, err := s.queryCustomers(ctx, queryRecent, from)
	if err != nil {
		return models.RecentAggregate{}, err
	}
	return models.RecentAggregate{From: from, To: latest.String, Customers: customers}, nil
}

// Close releases the connection. Further calls fail with ErrClosed.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := config.CloseDatabase(s.db)
	s.db = nil
	return err
}

func (s *SQLStore) queryCustomers(ctx context.Context, query string, args ...interface{}) ([]models.CustomerAggregate, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("query by customer: %w", err)
	}
	defer rows.Close()

	out := make([]models.CustomerAggregate, 0)
	for rows.Next() {
		var agg models.CustomerAggregate
		if err := rows.Scan(&agg.CustomerID, &agg.Name, &agg.Region, &agg.OrderCount, &agg.Total, &agg.LastOrderDate); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}
	return out, nil
}
