package redlock

import "time"

// Lock is the immutable descriptor returned to a caller on a successful
// acquisition.
//
// Validity is an upper bound, in milliseconds, on how long from the moment
// of return the holder may safely assume exclusivity:
// Validity <= requestedTTL - drift(requestedTTL) always. A caller
// observing Validity == 0 must treat the lock as already expired.
type Lock struct {
	// Resource is the name that was locked.
	Resource string
	// Value is the token minted for this acquisition. It is the sole
	// proof of ownership: every server-side state transition (release,
	// conditional extend, TTL readback) gates on byte-equality of this
	// token.
	Value string
	// Validity is the remaining safe-exclusivity window, in
	// milliseconds, measured from the moment Lock/Extend returned.
	Validity int64
}

// Deadline returns the wall-clock instant at which Validity expires,
// computed relative to "now". Callers that want an absolute deadline
// instead of a relative budget can use this once, right after acquiring
// the lock.
func (l *Lock) Deadline(now time.Time) time.Time {
	return now.Add(time.Duration(l.Validity) * time.Millisecond)
}

// driftMillis implements spec's drift(ttl) = floor(ttl * driftFactor) + 2.
// The +2 absorbs Redis's 1ms expiry granularity plus a 1ms floor for very
// small TTLs.
func driftMillis(ttlMillis int64, driftFactor float64) int64 {
	return int64(float64(ttlMillis)*driftFactor) + 2
}
