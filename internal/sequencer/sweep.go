package sequencer

import "time"

// RetentionWindow is how long an untouched sequence entry survives.
// Entries whose last use is older than this are purged at the start of
// every cycle call, regardless of which sequence triggered the call.
const RetentionWindow = 10 * 24 * time.Hour

// Sweep removes every entry whose LastUsed timestamp is older than the
// retention window relative to now. It mutates the store in place and
// returns the number of entries removed.
//
// The sweep is global: one busy sequence keeps the whole store tidy on
// behalf of sequences that are never invoked again.
func Sweep(store Store, now time.Time) int {
	cutoff := unixSeconds(now) - RetentionWindow.Seconds()

	removed := 0
	for key, entry := range store {
		if entry.LastUsed < cutoff {
			delete(store, key)
			removed++
		}
	}
	return removed
}
