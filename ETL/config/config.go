package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	FormatText = "text"
	FormatJSON = "json"
)

// ETLConfig is the configuration of one analytics run. It is built once by Load and
// passed by value to the components that need it.
type ETLConfig struct {
	Database DatabaseConfig
	Input    InputConfig
	Report   ReportConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// InputConfig names the two source datasets.
type InputConfig struct {
	CustomersPath string
	OrdersPath    string
}

// ReportConfig holds the report constants.
type ReportConfig struct {
	Timezone         string
	RecentWindowDays int
	RecentTopN       int
	LoyaltyMinOrders int
	OrphanPolicy     models.OrphanPolicy
	Format           string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level   string
	Verbose bool
}

// MetricsConfig controls the optional Pushgateway push.
type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

// Default values
var DefaultETLConfig = ETLConfig{
	Database: DefaultDatabaseConfig,
	Input: InputConfig{
		CustomersPath: "task_DE_new_customers.csv",
		OrdersPath:    "task_DE_new_orders.xml",
	},
	Report: ReportConfig{
		Timezone:         "Asia/Kolkata",
		RecentWindowDays: 30,
		RecentTopN:       0,
		LoyaltyMinOrders: 1,
		OrphanPolicy:     models.OrphanInclude,
		Format:           FormatText,
	},
	Log: LogConfig{
		Level: "info",
	},
	Metrics: MetricsConfig{
		Job: "order_analytics",
	},
}

// Load reads .env (if present), analytics.yml (if present) and the environment.
// Keys map to environment variables by upper-casing and replacing dots, e.g. db.host -> DB_HOST.
func Load() (ETLConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("analytics")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return ETLConfig{}, fmt.Errorf("read analytics.yml: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	d := DefaultETLConfig
	v.SetDefault("db.driver", d.Database.Driver)
	v.SetDefault("db.host", d.Database.Host)
	v.SetDefault("db.port", d.Database.Port)
	v.SetDefault("db.user", d.Database.User)
	v.SetDefault("db.password", d.Database.Password)
	v.SetDefault("db.name", d.Database.DBName)
	v.SetDefault("db.path", d.Database.Path)
	v.SetDefault("db.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("db.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("db.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("db.batch_size", d.Database.BatchSize)

	v.SetDefault("input.customers", d.Input.CustomersPath)
	v.SetDefault("input.orders", d.Input.OrdersPath)

	v.SetDefault("report.timezone", d.Report.Timezone)
	v.SetDefault("report.recent_window_days", d.Report.RecentWindowDays)
	v.SetDefault("report.recent_top_n", d.Report.RecentTopN)
	v.SetDefault("report.loyalty_min_orders", d.Report.LoyaltyMinOrders)
	v.SetDefault("report.orphan_policy", string(d.Report.OrphanPolicy))
	v.SetDefault("report.format", d.Report.Format)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.verbose", d.Log.Verbose)

	v.SetDefault("metrics.pushgateway_url", d.Metrics.PushgatewayURL)
	v.SetDefault("metrics.job", d.Metrics.Job)
}

func fromViper(v *viper.Viper) (ETLConfig, error) {
	cfg := ETLConfig{
		Database: DatabaseConfig{
			Driver:          strings.ToLower(strings.TrimSpace(v.GetString("db.driver"))),
			Host:            strings.TrimSpace(v.GetString("db.host")),
			Port:            strings.TrimSpace(v.GetString("db.port")),
			User:            strings.TrimSpace(v.GetString("db.user")),
			Password:        v.GetString("db.password"),
			DBName:          strings.TrimSpace(v.GetString("db.name")),
			Path:            strings.TrimSpace(v.GetString("db.path")),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
			BatchSize:       v.GetInt("db.batch_size"),
		},
		Input: InputConfig{
			CustomersPath: v.GetString("input.customers"),
			OrdersPath:    v.GetString("input.orders"),
		},
		Report: ReportConfig{
			Timezone:         strings.TrimSpace(v.GetString("report.timezone")),
			RecentWindowDays: v.GetInt("report.recent_window_days"),
			RecentTopN:       v.GetInt("report.recent_top_n"),
			LoyaltyMinOrders: v.GetInt("report.loyalty_min_orders"),
			OrphanPolicy:     models.OrphanPolicy(strings.ToLower(strings.TrimSpace(v.GetString("report.orphan_policy")))),
			Format:           strings.ToLower(strings.TrimSpace(v.GetString("report.format"))),
		},
		Log: LogConfig{
			Level:   v.GetString("log.level"),
			Verbose: v.GetBool("log.verbose"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: strings.TrimSpace(v.GetString("metrics.pushgateway_url")),
			Job:            v.GetString("metrics.job"),
		},
	}

	return cfg, nil
}

// Validate checks the report settings. Database settings are checked separately by
// DatabaseConfig.Validate, and only by the persistent mode.
func (c ReportConfig) Validate() error {
	invalid := func(field, msg string) error {
		return &models.ValidationError{Source: "config", Field: field, Msg: msg}
	}
	if c.RecentWindowDays < 1 {
		return invalid("report.recent_window_days", "must be at least 1")
	}
	if c.RecentTopN < 0 {
		return invalid("report.recent_top_n", "must not be negative")
	}
	if c.LoyaltyMinOrders < 1 {
		return invalid("report.loyalty_min_orders", "must be at least 1")
	}
	if !c.OrphanPolicy.Valid() {
		return invalid("report.orphan_policy", fmt.Sprintf("unknown policy %q", c.OrphanPolicy))
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return invalid("report.format", fmt.Sprintf("unknown format %q", c.Format))
	}
	if _, err := c.Location(); err != nil {
		return invalid("report.timezone", err.Error())
	}
	return nil
}

// Location resolves the reporting time zone.
func (c ReportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
