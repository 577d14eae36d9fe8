package utils

import (
	"time"
)

// Delivery engine constants
const (
	// EventLookbackWindow is how far back the event ingestor searches for a
	// send matching the recipient email when no stronger identifier resolves.
	// Two campaigns to the same recipient inside this window can be
	// misattributed; the window is kept as-is deliberately.
	EventLookbackWindow = 48 * time.Hour

	// DispatchLockTTL is the TTL of the per-send distributed dispatch lock
	DispatchLockTTL = 30 * time.Second

	// DefaultProviderTimeout bounds a single provider API call
	DefaultProviderTimeout = 30 * time.Second

	// DefaultDispatchBatchSize is how many due sends one worker tick claims
	DefaultDispatchBatchSize = 200

	// DefaultWorkerInterval is how often the dispatch worker wakes up
	DefaultWorkerInterval = 30 * time.Second

	// DefaultStuckSendingTimeout is how long a send may stay in 'sending'
	// before the sweep reconciles it to 'failed'
	DefaultStuckSendingTimeout = 15 * time.Minute
)

// Token and session time constants
const (
	// ServiceTokenTTL is the time-to-live for machine-to-machine API tokens
	ServiceTokenTTL = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
