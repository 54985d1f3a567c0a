// Package metrics exposes the Prometheus collectors used across the service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, path and status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request latency by path
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// DatabaseConnectionsGauge tracks pool state by connection state
	DatabaseConnectionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "database_connections",
		Help: "Database connection pool state",
	}, []string{"state"})

	// ReconciliationRunsTotal counts wallet reconciliations by trigger and outcome
	ReconciliationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_reconciliation_runs_total",
		Help: "Wallet reconciliations by trigger and outcome",
	}, []string{"trigger", "outcome"})

	// ReconciliationDriftTotal counts sweep runs that found wallet drift
	ReconciliationDriftTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_reconciliation_drift_total",
		Help: "Sweep runs that detected a wallet out of sync with the ledger",
	})

	// SessionStartsTotal counts earning session starts by outcome
	SessionStartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "earning_session_starts_total",
		Help: "Earning session start attempts by outcome",
	}, []string{"outcome"})

	// DepositDecisionsTotal counts deposit review outcomes
	DepositDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deposit_decisions_total",
		Help: "Deposit review decisions by kind",
	}, []string{"decision"})

	// NetworkLookupDuration tracks explorer lookup latency per network
	NetworkLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_lookup_duration_seconds",
		Help:    "Blockchain explorer lookup latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"network", "result"})

	// ReferralCreditsTotal counts referral bonus credits by level and outcome
	ReferralCreditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_credits_total",
		Help: "Referral bonus credits by level and outcome",
	}, []string{"level", "outcome"})
)
