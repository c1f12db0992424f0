package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exports engine events as Prometheus series.
type PrometheusRecorder struct {
	recommendations *prometheus.CounterVec
	latency         prometheus.Histogram
	staleRefs       prometheus.Counter
	rebuilds        *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	catalogSize     prometheus.Gauge
	indexSize       prometheus.Gauge
}

// NewPrometheusRecorder registers its series with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	f := promauto.With(reg)
	return &PrometheusRecorder{
		recommendations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmatch_recommendations_total",
			Help: "Recommendation requests by outcome",
		}, []string{"outcome"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookmatch_recommendation_duration_seconds",
			Help:    "Recommendation latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		staleRefs: f.NewCounter(prometheus.CounterOpts{
			Name: "bookmatch_stale_references_total",
			Help: "Index neighbors missing from the catalog store",
		}),
		rebuilds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmatch_rebuilds_total",
			Help: "Catalog rebuilds by result",
		}, []string{"result"}),
		rebuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookmatch_rebuild_duration_seconds",
			Help:    "Catalog rebuild duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		catalogSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "bookmatch_catalog_records",
			Help: "Records in the catalog store",
		}),
		indexSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "bookmatch_index_entries",
			Help: "Entries in the live similarity index",
		}),
	}
}

func (r *PrometheusRecorder) Recommendation(outcome string, elapsed time.Duration) {
	r.recommendations.WithLabelValues(outcome).Inc()
	r.latency.Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) StaleReference() {
	r.staleRefs.Inc()
}

func (r *PrometheusRecorder) Rebuild(success bool, elapsed time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	r.rebuilds.WithLabelValues(result).Inc()
	r.rebuildDuration.Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) CatalogSize(records int) {
	r.catalogSize.Set(float64(records))
}

func (r *PrometheusRecorder) IndexSize(entries int) {
	r.indexSize.Set(float64(entries))
}
