package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for catalog building, source ingestion, stream probing
// and the streaming proxy. Registered once at package init via promauto.
var (
	// CatalogBuilds counts catalog assemblies by variant (restricted,
	// unified, catalogue).
	CatalogBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportscast_catalog_builds_total",
		Help: "Total number of catalog builds by variant",
	}, []string{"variant"})

	// CatalogBuildDuration tracks how long catalog assembly takes.
	CatalogBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sportscast_catalog_build_duration_seconds",
		Help:    "Catalog build duration by variant",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant"})

	// SourceFetchFailures counts remote playlist fetches that were skipped
	// after an error, labeled by source name.
	SourceFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportscast_source_fetch_failures_total",
		Help: "Total number of failed playlist source fetches",
	}, []string{"source"})

	// ProbeResults counts stream liveness probes by outcome (online, offline).
	ProbeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportscast_probe_results_total",
		Help: "Total number of stream liveness probes by outcome",
	}, []string{"outcome"})

	// ProbeCacheHits counts probes answered from the short-lived result cache.
	ProbeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sportscast_probe_cache_hits_total",
		Help: "Total number of probe results served from cache",
	})

	// ProxyRequests counts proxied fetches by response kind
	// (master, media, segment, error).
	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportscast_proxy_requests_total",
		Help: "Total number of proxied upstream fetches by response kind",
	}, []string{"kind"})

	// ProxyBytes counts bytes relayed downstream by the streaming proxy.
	ProxyBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sportscast_proxy_bytes_total",
		Help: "Total bytes relayed to clients by the streaming proxy",
	})

	// LogoRequests counts logo relay requests by cache outcome (hit, miss,
	// error).
	LogoRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportscast_logo_requests_total",
		Help: "Total number of logo relay requests by cache outcome",
	}, []string{"outcome"})
)
