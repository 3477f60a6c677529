package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Registration pipeline
	// ============================================
	CommitmentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "did_backend_commitments_recorded_total",
		Help: "Total number of commit-reveal commitments accepted",
	})

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "did_backend_registrations_total",
			Help: "Total number of completed name registrations",
		},
		[]string{"path"}, // register, register_with_config, whitelist
	)

	RenewalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "did_backend_renewals_total",
		Help: "Total number of completed name renewals",
	})

	RegistrationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "did_backend_registration_failures_total",
			Help: "Total number of rejected registration operations",
		},
		[]string{"operation", "reason"},
	)

	// ============================================
	// Referral ledger
	// ============================================
	ReferralsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "did_backend_referrals_credited_total",
		Help: "Total number of referral commissions credited",
	})

	// ============================================
	// Exchange-rate feed
	// ============================================
	RateFeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "did_backend_rate_feed_requests_total",
			Help: "Total number of exchange-rate feed lookups",
		},
		[]string{"result"}, // ok, stale, error
	)

	RateFeedLastRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "did_backend_rate_feed_last_rate",
		Help: "Last native/USD rate observed from the feed (8 decimals)",
	})

	// ============================================
	// Event publishing
	// ============================================
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "did_backend_events_published_total",
			Help: "Total number of registry events published",
		},
		[]string{"event_type"},
	)

	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "did_backend_events_publish_failed_total",
			Help: "Total number of registry events that failed to reach NATS",
		},
		[]string{"event_type"},
	)

	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "did_backend_nats_connection_status",
		Help: "NATS connection status (1 = connected, 0 = disconnected)",
	})

	// ============================================
	// WebSocket push
	// ============================================
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "did_backend_websocket_clients",
		Help: "Number of connected websocket event subscribers",
	})
)
