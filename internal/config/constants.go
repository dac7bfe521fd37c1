package config

import "time"

const (
	// Default vision model
	DefaultModel = "moonshotai/kimi-vl-a3b-thinking:free"

	// Default capture cadence (seconds)
	DefaultIntervalSeconds = 30

	// Completion ceiling on every inference request
	MaxTokens = 1000

	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Backoff ceiling after consecutive rate limits
	MaxBackoff = 300 * time.Second

	// Helper-process crop timeout
	CropTimeout = 5 * time.Second

	// Per-write timeout for best-effort persistence
	PersistTimeout = 5 * time.Second

	// Wait before retrying a capture that fired while a previous session's
	// cycle was still draining
	CycleRetryDelay = 250 * time.Millisecond

	// JPEG quality for captured frames
	JPEGQuality = 95

	// Persisted history caps
	MaxStoredResponses = 1000
	MaxStoredDebugLogs = 100

	// Broadcaster retention per topic
	EventRetention     = 5 * time.Minute
	EventCachePurge    = 1 * time.Minute
	SubscriberBufferSz = 256

	// History page sizes
	ResponsesPerPage = 50
	SessionsPerPage  = 20
)
