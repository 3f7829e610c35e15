// internal/metrics/metrics.go

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveViews = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "propmap_active_views",
		Help: "Number of open map views",
	})
	ViewsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propmap_views_created_total",
		Help: "Total number of map views created",
	})
	DegradedViewsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propmap_degraded_views_total",
		Help: "Total number of views created without symbols because the dataset failed to load",
	})
	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propmap_transitions_total",
		Help: "Sequence control transitions by action and result",
	}, []string{"action", "result"})
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propmap_dataset_loads_total",
		Help: "Dataset fetches by result",
	}, []string{"result"})
	DatasetLoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propmap_dataset_load_duration_ms",
		Help:    "Dataset fetch and preparation duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	MismatchedFeaturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propmap_mismatched_features_total",
		Help: "Features whose series keys differ from the dataset attributes",
	}, []string{"dataset"})
)

func init() {
	prometheus.MustRegister(ActiveViews)
	prometheus.MustRegister(ViewsCreatedTotal)
	prometheus.MustRegister(DegradedViewsTotal)
	prometheus.MustRegister(TransitionsTotal)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(DatasetLoadDurationMs)
	prometheus.MustRegister(MismatchedFeaturesTotal)
}

// Handler exposes the registered collectors
func Handler() http.Handler {
	return promhttp.Handler()
}
