package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()
	r.RecordLoad(6, 12, 2)
	r.RecordLoad(1, 1, 0)
	r.RecordRun("persistent", "success")
	r.RecordRun("persistent", "success")
	r.RecordRun("inmemory", "failed")
	r.ObservePhase("load", time.Now().Add(-time.Second))

	assert.Equal(t, 7.0, testutil.ToFloat64(r.CustomersLoaded))
	assert.Equal(t, 13.0, testutil.ToFloat64(r.OrdersLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.OrphanOrders))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Runs.WithLabelValues("persistent", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("inmemory", "failed")))

	expected := `
# HELP analytics_orphan_orders_total Orders whose customer id matched no customer.
# TYPE analytics_orphan_orders_total counter
analytics_orphan_orders_total 2
`
	require.NoError(t, testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "analytics_orphan_orders_total"))

	count, err := testutil.GatherAndCount(r.Gatherer(), "analytics_phase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRegistry()
	r.RecordRun("inmemory", "success")
	require.NoError(t, r.Push(context.Background(), srv.URL, "order_analytics"))
	assert.Equal(t, "/metrics/job/order_analytics", gotPath)
}

func TestPushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, NewRegistry().Push(context.Background(), srv.URL, "order_analytics"))
}
