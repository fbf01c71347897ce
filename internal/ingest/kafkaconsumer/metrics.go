package kafkaconsumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricSet struct {
	proc     *prometheus.HistogramVec
	lagGauge prometheus.Gauge
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		proc: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "x5_ingest_processing_seconds",
				Help:    "Processing time for one point message by outcome.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"outcome"},
		),
		lagGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "x5_ingest_lag_seconds",
				Help: "Approximate lag: now - message.timestamp.",
			},
		),
	}
	if r != nil {
		r.MustRegister(m.proc, m.lagGauge)
	}
	return m
}
