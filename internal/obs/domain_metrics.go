package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ImportRowsTotal counts imported CSV rows by kind and outcome (success|failed).
	ImportRowsTotal *prometheus.CounterVec
	// ImportDuration records whole-file import latency in milliseconds.
	ImportDuration *prometheus.HistogramVec
	// CheckoutTotal counts checkout attempts by payment method and outcome.
	CheckoutTotal *prometheus.CounterVec
	// CartOperationsTotal counts cart mutations by operation.
	CartOperationsTotal *prometheus.CounterVec
)

func init() {
	newDomainCollectors("pos")
}

func newDomainCollectors(namespace string) {
	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Count of CSV import rows by kind and result.",
	}, []string{"kind", "result"})
	ImportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_duration_ms",
		Help:      "Duration of CSV import runs in milliseconds.",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 15000, 60000},
	}, []string{"kind"})
	CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Count of checkout attempts by payment method and result.",
	}, []string{"method", "result"})
	CartOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Count of cart mutations by operation.",
	}, []string{"op"})
}

// MustRegisterDomainMetrics registers the domain collectors on reg, or the default
// registerer when reg is nil. Until it is called the collectors exist unregistered
// under the "pos" namespace, so packages and tests may record into them freely.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		if namespace != "" && namespace != "pos" {
			newDomainCollectors(namespace)
		}
		ImportRowsTotal = register(reg, ImportRowsTotal)
		ImportDuration = register(reg, ImportDuration)
		CheckoutTotal = register(reg, CheckoutTotal)
		CartOperationsTotal = register(reg, CartOperationsTotal)
	})
}
