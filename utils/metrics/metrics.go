package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProxyMetrics holds the prometheus collectors for the image proxy
// pipeline. Cache-tier counters are labelled by tier so hit rates can be
// compared between the memory and disk tiers.
type ProxyMetrics struct {
	CacheHits         *prometheus.CounterVec
	CacheMisses       *prometheus.CounterVec
	CacheEvictions    prometheus.Counter
	OriginFetches     prometheus.Counter
	OriginFailures    *prometheus.CounterVec
	TranscodeFailures prometheus.Counter
	RequestDuration   prometheus.Histogram
}

// NewProxyMetrics creates and registers the proxy collectors on the given
// registerer.
func NewProxyMetrics(reg prometheus.Registerer) *ProxyMetrics {
	m := &ProxyMetrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_proxy_cache_hits_total",
			Help: "Cache hits by tier.",
		}, []string{"tier"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_proxy_cache_misses_total",
			Help: "Cache misses by tier.",
		}, []string{"tier"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "media_proxy_cache_evictions_total",
			Help: "Memory cache LRU evictions.",
		}),
		OriginFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "media_proxy_origin_fetches_total",
			Help: "Origin image fetch attempts.",
		}),
		OriginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_proxy_origin_failures_total",
			Help: "Origin fetch failures by error code.",
		}, []string{"code"}),
		TranscodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "media_proxy_transcode_failures_total",
			Help: "Transcode failures that triggered pass-through fallback.",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "media_proxy_request_duration_seconds",
			Help:    "End-to-end proxy request duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.CacheEvictions,
		m.OriginFetches,
		m.OriginFailures,
		m.TranscodeFailures,
		m.RequestDuration,
	)

	return m
}
