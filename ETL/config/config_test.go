package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "Asia/Kolkata", cfg.Report.Timezone)
	assert.Equal(t, 30, cfg.Report.RecentWindowDays)
	assert.Equal(t, models.OrphanInclude, cfg.Report.OrphanPolicy)
	assert.Equal(t, FormatText, cfg.Report.Format)
	assert.Equal(t, "task_DE_new_customers.csv", cfg.Input.CustomersPath)
	assert.NoError(t, cfg.Report.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/analytics.db")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("INPUT_CUSTOMERS", "c.csv")
	t.Setenv("INPUT_ORDERS", "o.xml")
	t.Setenv("REPORT_RECENT_WINDOW_DAYS", "7")
	t.Setenv("REPORT_ORPHAN_POLICY", "exclude")
	t.Setenv("REPORT_FORMAT", "json")
	t.Setenv("LOG_VERBOSE", "true")
	t.Setenv("METRICS_PUSHGATEWAY_URL", "http://gateway:9091")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/analytics.db", cfg.Database.Path)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "c.csv", cfg.Input.CustomersPath)
	assert.Equal(t, "o.xml", cfg.Input.OrdersPath)
	assert.Equal(t, 7, cfg.Report.RecentWindowDays)
	assert.Equal(t, models.OrphanExclude, cfg.Report.OrphanPolicy)
	assert.Equal(t, FormatJSON, cfg.Report.Format)
	assert.True(t, cfg.Log.Verbose)
	assert.Equal(t, "http://gateway:9091", cfg.Metrics.PushgatewayURL)
}

func TestLoadFromYAMLAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analytics.yml"), []byte(
		"report:\n  recent_window_days: 14\n  recent_top_n: 5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REPORT_LOYALTY_MIN_ORDERS=2\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("REPORT_LOYALTY_MIN_ORDERS") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Report.RecentWindowDays)
	assert.Equal(t, 5, cfg.Report.RecentTopN)
	assert.Equal(t, 2, cfg.Report.LoyaltyMinOrders)
}

func TestReportValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ReportConfig)
		field  string
	}{
		{"window", func(c *ReportConfig) { c.RecentWindowDays = 0 }, "report.recent_window_days"},
		{"top n", func(c *ReportConfig) { c.RecentTopN = -1 }, "report.recent_top_n"},
		{"min orders", func(c *ReportConfig) { c.LoyaltyMinOrders = 0 }, "report.loyalty_min_orders"},
		{"policy", func(c *ReportConfig) { c.OrphanPolicy = "drop" }, "report.orphan_policy"},
		{"format", func(c *ReportConfig) { c.Format = "csv" }, "report.format"},
		{"timezone", func(c *ReportConfig) { c.Timezone = "Mars/Olympus" }, "report.timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultETLConfig.Report
			tt.mutate(&c)

			var ve *models.ValidationError
			require.True(t, errors.As(c.Validate(), &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestDatabaseValidate(t *testing.T) {
	valid := DefaultDatabaseConfig
	valid.User = "analytics"
	valid.DBName = "orders"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *DatabaseConfig)
	}{
		{"no host", func(c *DatabaseConfig) { c.Host = "" }},
		{"no user", func(c *DatabaseConfig) { c.User = "" }},
		{"no name", func(c *DatabaseConfig) { c.DBName = "" }},
		{"bad port", func(c *DatabaseConfig) { c.Port = "port" }},
		{"port out of range", func(c *DatabaseConfig) { c.Port = "70000" }},
		{"unknown driver", func(c *DatabaseConfig) { c.Driver = "oracle" }},
		{"sqlite without path", func(c *DatabaseConfig) { c.Driver = DriverSQLite; c.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)

			var ce *models.ConnectionError
			assert.True(t, errors.As(c.Validate(), &ce))
		})
	}
}

func TestDSN(t *testing.T) {
	c := DefaultDatabaseConfig
	c.User = "analytics"
	c.Password = "secret"
	c.DBName = "orders"

	dsn := c.DSN()
	assert.Contains(t, dsn, "analytics:secret@tcp(localhost:3306)/orders")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Equal(t, "localhost:3306/orders", c.Target())
}

func TestConnectDatabaseSQLite(t *testing.T) {
	c := DefaultDatabaseConfig
	c.Driver = DriverSQLite
	c.Path = filepath.Join(t.TempDir(), "analytics.db")

	db, err := ConnectDatabase(context.Background(), c)
	require.NoError(t, err)
	require.NoError(t, db.Exec("SELECT 1").Error)
	assert.NoError(t, CloseDatabase(db))
}

func TestConnectDatabaseUnreachable(t *testing.T) {
	c := DefaultDatabaseConfig
	c.Host = "127.0.0.1"
	c.Port = "1"
	c.User = "analytics"
	c.DBName = "orders"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ConnectDatabase(ctx, c)
	var ce *models.ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "127.0.0.1:1/orders", ce.Target)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
