// Package observability records the service's Prometheus metrics. Collectors
// are package-level so any layer can observe without plumbing; Init attaches
// them to a registry.
package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	engineOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "x5_engine_ops_total",
			Help: "Engine operations by op and outcome.",
		},
		[]string{"op", "outcome"},
	)

	nameMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "x5_name_lookup_misses_total",
			Help: "Well-formed names that used unknown words.",
		},
	)

	cellCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "x5_cell_cache_results_total",
			Help: "Cell geometry lookups by the tier that served them.",
		},
		[]string{"tier"},
	)

	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and outcome.",
		},
		[]string{"op", "outcome"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Duration of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	ingestEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "x5_ingest_events_total",
			Help: "Ingested point events by outcome.",
		},
		[]string{"outcome"},
	)

	hotTokens = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "x5_hot_tokens",
			Help: "Tokens currently tracked by the hotness scorer.",
		},
	)

	all = []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds, engineOpsTotal,
		nameMissesTotal, cellCacheResults, cacheOpsTotal,
		redisOpDurationSeconds, ingestEventsTotal, hotTokens,
	}
)

// Init registers the collectors with reg, or the default registerer when reg
// is nil. Registering with the same registry twice is harmless.
func Init(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range all {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveEngineOp(op string, err error) {
	engineOpsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func IncNameMiss() { nameMissesTotal.Inc() }

// IncCellCache counts a lookup served by tier: lru, redis or compute.
func IncCellCache(tier string) { cellCacheResults.WithLabelValues(tier).Inc() }

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	cacheOpsTotal.WithLabelValues(op, outcome(err)).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

// IncIngest counts an ingest event by outcome: stored, duplicate, invalid,
// decode or store_error.
func IncIngest(outcome string) { ingestEventsTotal.WithLabelValues(outcome).Inc() }

func SetHotTokens(n int) { hotTokens.Set(float64(n)) }
