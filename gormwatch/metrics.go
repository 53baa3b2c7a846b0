package gormwatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	// CacheHits counts watch triggers answered from the cache.
	CacheHits prometheus.Counter
	// CacheMisses counts cache reads that found nothing.
	CacheMisses prometheus.Counter
	// NetworkFetches counts database round trips (shared runs count once).
	NetworkFetches prometheus.Counter
	// FetchErrors counts failed database round trips.
	FetchErrors prometheus.Counter
	// CacheEchoes counts cache updates delivered to other watches.
	CacheEchoes prometheus.Counter
	// LiveWatches is the number of watches not cancelled yet.
	LiveWatches prometheus.Gauge
}

// newMetrics builds the client metrics. With a nil registerer they are
// still updated but not exported.
func newMetrics(reg prometheus.Registerer, client string) *metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"client": client}

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "watchpager",
			Subsystem:   "gormwatch",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &metrics{
		CacheHits:      counter("cache_hits_total", "Total number of watch triggers answered from the cache"),
		CacheMisses:    counter("cache_misses_total", "Total number of cache misses"),
		NetworkFetches: counter("network_fetches_total", "Total number of database round trips"),
		FetchErrors:    counter("fetch_errors_total", "Total number of failed database round trips"),
		CacheEchoes:    counter("cache_echoes_total", "Total number of cache updates delivered to watches"),
		LiveWatches: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "watchpager",
			Subsystem:   "gormwatch",
			Name:        "live_watches",
			Help:        "Current number of live watches",
			ConstLabels: labels,
		}),
	}
}
