package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/LilVoxy/order_analytics/ETL/config"
	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/store"
	"github.com/LilVoxy/order_analytics/ETL/store/storetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(path string) config.DatabaseConfig {
	cfg := config.DefaultDatabaseConfig
	cfg.Driver = config.DriverSQLite
	cfg.Path = path
	cfg.BatchSize = 4
	return cfg
}

func memoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

func newSQLiteStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.NewSQLStore(context.Background(), sqliteConfig(memoryDSN()), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newSQLiteStore(t)
	})
}

func TestSQLStorePersistsLineItems(t *testing.T) {
	s := newSQLiteStore(t)
	require.NoError(t, s.Load(context.Background(), storetest.Customers(), storetest.Orders()))

	var items, orders, customers int64
	require.NoError(t, s.DB().Table("order_items").Count(&items).Error)
	require.NoError(t, s.DB().Table("orders").Count(&orders).Error)
	require.NoError(t, s.DB().Table("customers").Count(&customers).Error)

	assert.EqualValues(t, 14, items)
	assert.EqualValues(t, 12, orders)
	assert.EqualValues(t, 6, customers)
}

func TestSQLStoreLoadRollsBack(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, storetest.Customers(), storetest.Orders()))

	// duplicate primary key fails the insert after the old snapshot was cleared
	broken := []models.Order{
		storetest.Order("dup", "1", "2024-04-01", 100),
		storetest.Order("dup", "1", "2024-04-02", 100),
	}
	require.Error(t, s.Load(ctx, storetest.Customers(), broken))

	got, err := s.QueryByCustomer(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 4, got[0].OrderCount, "previous snapshot must survive a failed load")
}

func TestSQLStoreFileSurvivesReopen(t *testing.T) {
	cfg := sqliteConfig(filepath.Join(t.TempDir(), "analytics.db"))
	ctx := context.Background()

	first, err := store.NewSQLStore(ctx, cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, first.Load(ctx, storetest.Customers(), storetest.Orders()))
	require.NoError(t, first.Close())

	second, err := store.NewSQLStore(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer second.Close()

	regions, err := second.QueryByRegion(ctx)
	require.NoError(t, err)
	assert.Len(t, regions, 3)
}

func TestNewSQLStoreRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultDatabaseConfig
	cfg.Host = ""

	_, err := store.NewSQLStore(context.Background(), cfg, testLogger())
	require.Error(t, err)

	var connErr *models.ConnectionError
	assert.True(t, errors.As(err, &connErr))
}
