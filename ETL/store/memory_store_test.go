package store_test

import (
	"context"
	"testing"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/store"
	"github.com/LilVoxy/order_analytics/ETL/store/storetest"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *utils.ETLLogger {
	return utils.WrapLogger(zap.NewNop(), false)
}

func TestMemoryStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s := store.NewMemoryStore(testLogger())
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestMemoryStoreDoesNotAliasInputs(t *testing.T) {
	s := store.NewMemoryStore(testLogger())
	defer s.Close()

	customers := storetest.Customers()
	orders := storetest.Orders()
	require.NoError(t, s.Load(context.Background(), customers, orders))

	customers["1"] = models.Customer{ID: "1", Name: "Changed", Region: "Nowhere"}
	orders[0].Amount = 1
	orders[0].Items[0].Amount = 1

	got, err := s.QueryByCustomer(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Rohan Gupta", got[0].Name)
	assert.Equal(t, models.Money(18550), got[0].Total)
}
