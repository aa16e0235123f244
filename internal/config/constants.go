package config

import "time"

const (
	// Guide request timeout, covers the whole buffered body
	RequestTimeout = 90 * time.Second

	// Tile request timeout
	TileRequestTimeout = 15 * time.Second

	// Telegram Stars conversion rate
	XTRToDollarRate = 0.013

	// Premium pricing (USD)
	PremiumPrice1Month  = "2.00"
	PremiumPrice6Month  = "10.00"
	PremiumPrice12Month = "15.00"

	// Premium durations
	PremiumDuration1Month  = 30 * 24 * time.Hour
	PremiumDuration6Month  = 180 * 24 * time.Hour
	PremiumDuration12Month = 360 * 24 * time.Hour

	// Idle conversation eviction interval
	EvictionInterval = 10 * time.Minute

	// Shutdown grace for the status API
	ShutdownTimeout = 5 * time.Second

	// Rate limiter buckets not touched for this long are dropped
	RateLimiterIdle = 30 * time.Minute

	// History kept in the status API turn listing
	MaxListedTurns = 200
)
