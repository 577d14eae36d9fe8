package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine-level counters. HTTP-level metrics live in the middleware; these
// track delivery outcomes regardless of which surface triggered them.
var (
	sendsDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "email_sends_dispatched_total",
		Help: "Total dispatch attempts by outcome (sent, failed, skipped)",
	}, []string{"outcome"})

	webhookEventsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_ingested_total",
		Help: "Total webhook events processed by type and result (ingested, skipped)",
	}, []string{"type", "result"})
)
