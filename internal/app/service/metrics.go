package service

import "github.com/prometheus/client_golang/prometheus"

var (
	exportCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_cache_lookups_total",
			Help: "Export cache lookups by export kind and result (hit, miss).",
		},
		[]string{"kind", "result"},
	)

	exportBuildSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "export_build_duration_seconds",
			Help:    "Time spent fetching and shaping an export on a cache miss.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	cdnMirrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_cdn_mirror_total",
			Help: "CDN mirror uploads by export kind and outcome (ok, error).",
		},
		[]string{"kind", "outcome"},
	)

	cacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_cache_invalidations_total",
			Help: "Cache invalidations by written entity and outcome (ok, error).",
		},
		[]string{"entity", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(exportCacheLookups, exportBuildSeconds, cdnMirrors, cacheInvalidations)
}
