package verification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vaxtrack",
			Subsystem: "verification",
			Name:      "lookups_total",
			Help:      "Verification lookups by outcome.",
		},
		[]string{"outcome"},
	)

	lookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vaxtrack",
			Subsystem: "verification",
			Name:      "lookup_duration_seconds",
			Help:      "Time spent in verification lookups.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	cacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vaxtrack",
			Subsystem: "verification",
			Name:      "cache_requests_total",
			Help:      "Verification cache reads by result.",
		},
		[]string{"result"},
	)
)
