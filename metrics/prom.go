package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastelite_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastelite_paste_retrieved_total",
		Help: "no. of successful paste reads",
	})
	PasteNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastelite_paste_not_found_total",
		Help: "no. of reads that found nothing to serve",
	})
	// trigger is read, sweep or capacity; it never says why a read evicted.
	PasteEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastelite_paste_evicted_total",
			Help: "no. of pastes removed from the store",
		},
		[]string{"trigger"},
	)
	StoreEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pastelite_store_entries",
		Help: "no. of pastes currently held in memory",
	})
	SweepCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastelite_sweep_cycles_total",
		Help: "no. of sweeper cycles",
	})
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pastelite_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
