package catalog

import "time"

// FreshnessWindow is how long a stored record stays fresh after a
// write. A forced refresh inside the window skips the source fetch,
// which guards the upstreams against repeated forced refreshes.
const FreshnessWindow = 7 * 24 * time.Hour

// IsFresh reports whether a record written at updatedAt still counts
// as fresh at now. The boundary is exclusive: a record aged exactly
// one window is stale.
func IsFresh(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) < FreshnessWindow
}
