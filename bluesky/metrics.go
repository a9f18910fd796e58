package bluesky

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionCreations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketsky_session_creations_total",
		Help: "The total number of successful session creations against the PDS",
	})

	sessionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketsky_session_failures_total",
		Help: "The total number of failed session creation attempts",
	})

	feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketsky_feed_requests_total",
		Help: "The total number of getAuthorFeed requests by outcome",
	}, []string{"outcome"})

	rateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketsky_rate_limit_hits_total",
		Help: "The total number of 429 responses received from the provider",
	})
)
