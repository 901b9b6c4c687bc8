// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for lookup, provider and
// outbound HTTP activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Lookup metrics
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hekate_lookups_total",
		Help: "Total version lookups by outcome",
	}, []string{"outcome"}) // outcome=found|not_found|cached|error

	lookupDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hekate_lookup_duration_seconds",
		Help:    "Time spent resolving a version lookup across all providers",
		Buckets: prometheus.DefBuckets,
	})

	updatesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hekate_updates_found_total",
		Help: "Total lookups that reported a newer version than the installed one",
	})

	// Provider metrics
	providerLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hekate_provider_lookups_total",
		Help: "Provider lookup attempts by provider and outcome",
	}, []string{"provider", "outcome"}) // outcome=success|empty|error

	providerDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hekate_provider_duration_seconds",
		Help:    "Per-provider lookup latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// Outbound HTTP metrics
	outboundRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hekate_outbound_requests_total",
		Help: "Outbound HTTP requests by host and outcome",
	}, []string{"host", "outcome"}) // outcome=success|retry|error

	outboundRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hekate_outbound_retries_total",
		Help: "Total outbound HTTP retry attempts",
	})

	// Cache metrics
	cacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hekate_cache_operations_total",
		Help: "Cache operations by result",
	}, []string{"result"}) // result=hit|miss|set

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hekate_circuit_breaker_state",
		Help: "Circuit breaker state per host (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hekate_circuit_breaker_trips_total",
		Help: "Circuit breaker trips by host and reason",
	}, []string{"name", "reason"})
)

func RecordLookup(outcome string, seconds float64) {
	lookupsTotal.WithLabelValues(outcome).Inc()
	lookupDurationSeconds.Observe(seconds)
}

func IncUpdateFound() { updatesFound.Inc() }

func RecordProviderLookup(provider, outcome string, seconds float64) {
	providerLookupsTotal.WithLabelValues(provider, outcome).Inc()
	providerDurationSeconds.WithLabelValues(provider).Observe(seconds)
}

func IncOutboundRequest(host, outcome string) {
	outboundRequestsTotal.WithLabelValues(host, outcome).Inc()
}

func IncOutboundRetry() { outboundRetriesTotal.Inc() }

func IncCacheOp(result string) { cacheOpsTotal.WithLabelValues(result).Inc() }

// SetCircuitBreakerState maps a textual breaker state onto the gauge.
func SetCircuitBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	circuitBreakerState.WithLabelValues(name).Set(v)
}

func RecordCircuitBreakerTrip(name, reason string) {
	circuitBreakerTrips.WithLabelValues(name, reason).Inc()
}
