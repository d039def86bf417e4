package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoworld_cache_hits_total",
		Help: "Total number of tile cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoworld_cache_misses_total",
		Help: "Total number of tile cache misses",
	})

	CacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoworld_cache_stores_total",
		Help: "Total number of tile cache store operations",
	})

	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoworld_cache_evictions_total",
		Help: "Total number of tile cache evictions",
	}, []string{"tier"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoworld_provider_requests_total",
		Help: "Total number of upstream provider requests",
	}, []string{"provider", "status"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoworld_provider_request_duration_seconds",
		Help:    "Duration of upstream provider requests in seconds",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider"})

	ProviderBytesDownloaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoworld_provider_bytes_downloaded_total",
		Help: "Total bytes downloaded from upstream providers",
	}, []string{"provider"})

	StreamerLoadedTiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geoworld_streamer_loaded_tiles",
		Help: "Number of world tiles currently loaded by the streamer",
	})

	StreamerPendingLoads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geoworld_streamer_pending_loads",
		Help: "Number of tile loads currently in flight",
	})

	StreamerUnloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoworld_streamer_unloads_total",
		Help: "Total number of tiles unloaded by the streamer",
	})
)
