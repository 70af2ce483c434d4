package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Short-lived data (changes frequently)
	TTLExchangeRate = time.Hour        // Spot rates move all day
	TTLCurrentPrice = 10 * time.Minute // Current close cache for summary renders

	// Daily data
	TTLPriceHistory = 24 * time.Hour // Daily close history grows once per trading day

	// Stable data (a rate on a past date never changes)
	TTLHistoricalRate = 365 * 24 * time.Hour
)
