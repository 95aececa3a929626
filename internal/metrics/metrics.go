package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_readings_generated_total",
			Help: "Total current readings produced for a city",
		},
		[]string{"city"},
	)

	ReadingCategory = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_reading_category_total",
			Help: "Published readings by AQI category",
		},
		[]string{"category"},
	)

	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airwatch_fetch_latency_seconds",
			Help:    "Time from city selection to a resolved reading",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"city"},
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_fetch_failures_total",
			Help: "Fetches that failed after retries and were shown as data unavailable",
		},
		[]string{"city"},
	)

	StaleFetchesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airwatch_stale_fetches_discarded_total",
			Help: "Fetch results dropped because the selection changed while they were pending",
		},
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_alerts_raised_total",
			Help: "Alerts raised on a clear to alerting transition",
		},
		[]string{"city"},
	)

	ActiveAlert = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "airwatch_alert_active",
			Help: "1 while a city is in the alerting state",
		},
		[]string{"city"},
	)
)
