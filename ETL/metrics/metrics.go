package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds the run metrics on a private registry.
type Registry struct {
	reg             *prometheus.Registry
	CustomersLoaded prometheus.Counter
	OrdersLoaded    prometheus.Counter
	OrphanOrders    prometheus.Counter
	Runs            *prometheus.CounterVec
	PhaseDuration   *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	customers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_customers_loaded_total",
		Help: "Customers loaded into the store.",
	})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_orders_loaded_total",
		Help: "Orders loaded into the store.",
	})
	orphans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_orphan_orders_total",
		Help: "Orders whose customer id matched no customer.",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_runs_total",
		Help: "Finished analytics runs.",
	}, []string{"mode", "status"})
	phases := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_phase_duration_seconds",
		Help:    "Duration of pipeline phases.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	r.MustRegister(customers, orders, orphans, runs, phases)
	return &Registry{
		reg:             r,
		CustomersLoaded: customers,
		OrdersLoaded:    orders,
		OrphanOrders:    orphans,
		Runs:            runs,
		PhaseDuration:   phases,
	}
}

// Gatherer exposes the private registry, e.g. for testutil.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObservePhase records how long a phase took since started.
func (r *Registry) ObservePhase(phase string, started time.Time) {
	r.PhaseDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
}

// RecordLoad adds the counters of one snapshot.
func (r *Registry) RecordLoad(customers, orders, orphans int) {
	r.CustomersLoaded.Add(float64(customers))
	r.OrdersLoaded.Add(float64(orders))
	r.OrphanOrders.Add(float64(orphans))
}

// RecordRun counts a finished run.
func (r *Registry) RecordRun(mode, status string) {
	r.Runs.WithLabelValues(mode, status).Inc()
}

// Push sends the registry to a Pushgateway once.
func (r *Registry) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(r.reg).PushContext(ctx)
}
