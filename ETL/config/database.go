package config

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/glebarez/sqlite"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DatabaseConfig holds the connection settings of the persistent store.
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	Path            string // sqlite only
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BatchSize       int
}

var DefaultDatabaseConfig = DatabaseConfig{
	Driver:          DriverMySQL,
	Host:            "localhost",
	Port:            "3306",
	Path:            "analytics.db",
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
	BatchSize:       500,
}

// Validate fails fast with a ConnectionError on absent or malformed settings.
func (c DatabaseConfig) Validate() error {
	fail := func(msg string) error {
		return &models.ConnectionError{Driver: c.Driver, Target: c.Target(), Msg: msg}
	}

	switch c.Driver {
	case DriverMySQL:
		if c.Host == "" {
			return fail("DB_HOST is not set")
		}
		if c.User == "" {
			return fail("DB_USER is not set")
		}
		if c.DBName == "" {
			return fail("DB_NAME is not set")
		}
		port, err := strconv.Atoi(c.Port)
		if err != nil || port < 1 || port > 65535 {
			return fail(fmt.Sprintf("DB_PORT %q is not a valid port", c.Port))
		}
	case DriverSQLite:
		if c.Path == "" {
			return fail("DB_PATH is not set")
		}
	default:
		return fail(fmt.Sprintf("unsupported driver %q", c.Driver))
	}
	return nil
}

// Target describes the database for messages, without credentials.
func (c DatabaseConfig) Target() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s/%s", net.JoinHostPort(c.Host, c.Port), c.DBName)
}

// DSN builds the MySQL data source name.
func (c DatabaseConfig) DSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Host, c.Port)
	dsn.DBName = c.DBName
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// Dialector picks the gorm dialect for the configured driver.
func (c DatabaseConfig) Dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverMySQL:
		return gormmysql.New(gormmysql.Config{DSN: c.DSN()}), nil
	case DriverSQLite:
		return sqlite.Open(c.Path), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", c.Driver)
	}
}

// ConnectDatabase validates the settings, opens the pool and pings it.
// Every failure is a ConnectionError; a pool that was opened is closed again.
func ConnectDatabase(ctx context.Context, c DatabaseConfig) (*gorm.DB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dialector, err := c.Dialector()
	if err != nil {
		return nil, &models.ConnectionError{Driver: c.Driver, Target: c.Target(), Msg: "dialect", Err: err}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, &models.ConnectionError{Driver: c.Driver, Target: c.Target(), Msg: "open", Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &models.ConnectionError{Driver: c.Driver, Target: c.Target(), Msg: "pool", Err: err}
	}

	if c.Driver == DriverSQLite {
		// one writer; also keeps shared in-memory databases alive for the pool's lifetime
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, &models.ConnectionError{Driver: c.Driver, Target: c.Target(), Msg: "ping", Err: err}
	}

	return db, nil
}

// CloseDatabase releases the pool behind db.
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
