package store

import "github.com/LilVoxy/order_analytics/ETL/config"

// Keys and regions use a binary collation on MySQL so that ORDER BY compares bytes,
// the same way Go compares strings. SQLite compares with BINARY by default.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id VARCHAR(64) COLLATE utf8mb4_bin NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		region VARCHAR(64) COLLATE utf8mb4_bin NOT NULL,
		signup_date CHAR(10) NOT NULL DEFAULT '',
		PRIMARY KEY (customer_id)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id VARCHAR(64) COLLATE utf8mb4_bin NOT NULL,
		customer_id VARCHAR(64) COLLATE utf8mb4_bin NOT NULL DEFAULT '',
		order_date CHAR(10) NOT NULL,
		order_month CHAR(7) NOT NULL,
		amount_cents BIGINT NOT NULL,
		PRIMARY KEY (order_id),
		INDEX idx_orders_customer (customer_id),
		INDEX idx_orders_date (order_date)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id VARCHAR(64) COLLATE utf8mb4_bin NOT NULL,
		line_no INT NOT NULL,
		sku_id VARCHAR(64) NOT NULL DEFAULT '',
		quantity INT NOT NULL,
		amount_cents BIGINT NOT NULL,
		PRIMARY KEY (order_id, line_no)
	) DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id TEXT NOT NULL PRIMARY KEY,
		customer_name TEXT NOT NULL,
		region TEXT NOT NULL,
		signup_date TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT NOT NULL PRIMARY KEY,
		customer_id TEXT NOT NULL DEFAULT '',
		order_date TEXT NOT NULL,
		order_month TEXT NOT NULL,
		amount_cents INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_date ON orders (order_date)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL,
		line_no INTEGER NOT NULL,
		sku_id TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		amount_cents INTEGER NOT NULL,
		PRIMARY KEY (order_id, line_no)
	)`,
}

func schemaFor(driver string) []string {
	if driver == config.DriverSQLite {
		return sqliteSchema
	}
	return mysqlSchema
}

// snapshotTables are cleared by Load, children first.
var snapshotTables = []string{"order_items", "orders", "customers"}

type customerRow struct {
	CustomerID   string `gorm:"column:customer_id;primaryKey"`
	CustomerName string `gorm:"column:customer_name"`
	Region       string `gorm:"column:region"`
	SignupDate   string `gorm:"column:signup_date"`
}

func (customerRow) TableName() string { return "customers" }

type orderRow struct {
	OrderID     string `gorm:"column:order_id;primaryKey"`
	CustomerID  string `gorm:"column:customer_id"`
	OrderDate   string `gorm:"column:order_date"`
	OrderMonth  string `gorm:"column:order_month"`
	AmountCents int64  `gorm:"column:amount_cents"`
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	OrderID     string `gorm:"column:order_id;primaryKey"`
	LineNo      int    `gorm:"column:line_no;primaryKey;autoIncrement:false"`
	SKU         string `gorm:"column:sku_id"`
	Quantity    int    `gorm:"column:quantity"`
	AmountCents int64  `gorm:"column:amount_cents"`
}

func (orderItemRow) TableName() string { return "order_items" }
