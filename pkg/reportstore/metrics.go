package reportstore

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label.
const (
	reasonIO      = "io"
	reasonParse   = "parse"
	reasonInvalid = "invalid"
)

type metrics struct {
	loadedTotal   prometheus.Counter
	rejectedTotal *prometheus.CounterVec
	cacheTotal    *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	records       *prometheus.GaugeVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		loadedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "txreports",
			Name:      "reports_loaded_total",
			Help:      "Total number of report files normalized into run records.",
		}),
		rejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txreports",
			Name:      "reports_rejected_total",
			Help:      "Total number of report files skipped during a load.",
		}, []string{"reason"}),
		cacheTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txreports",
			Name:      "store_cache_requests_total",
			Help:      "Report store lookups by result (hit/miss).",
		}, []string{"result"}),
		loadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "txreports",
			Name:      "store_load_duration_seconds",
			Help:      "Time taken to load and normalize a report directory.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		records: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "txreports",
			Name:      "store_records",
			Help:      "Number of cached run records per directory.",
		}, []string{"dir"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
