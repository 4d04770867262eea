package constants

import "time"

// Redis keys follow ticketing:{module}:{purpose}:{identifier}

const (
	CACHE_PREFIX = "ticketing"
)

// Show metadata is immutable once created, so a long TTL is safe.
// Seat availability is never cached; it is always read from the ledger.
const (
	TTL_SHOW_DETAIL = 10 * time.Minute
)

const (
	CACHE_KEY_SHOW_DETAIL = CACHE_PREFIX + ":shows:detail:uuid:" // + show-id
)

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:"    // + ip:class
	LOCK_KEY_EXPIRY   = CACHE_PREFIX + ":locks:expiry" // held by the instance running a sweep
)

func BuildShowDetailKey(showID string) string {
	return CACHE_KEY_SHOW_DETAIL + showID
}

func BuildRateLimitKey(clientIP, class string) string {
	return RATE_LIMIT_PREFIX + clientIP + ":" + class
}
