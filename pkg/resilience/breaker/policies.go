package breaker

import "github.com/sony/gobreaker/v2"

// Counts is a type alias re-exporting gobreaker's statistics window, so
// callers implementing TripPolicy never import gobreaker directly.
type Counts = gobreaker.Counts

// ConsecutiveFailures trips after N consecutive failures since the last
// success (or since the window opened).
type ConsecutiveFailures struct {
	Threshold uint32
}

// NewConsecutiveFailures builds a ConsecutiveFailures policy.
func NewConsecutiveFailures(threshold uint32) ConsecutiveFailures {
	return ConsecutiveFailures{Threshold: threshold}
}

// ReadyToTrip implements TripPolicy.
func (p ConsecutiveFailures) ReadyToTrip(counts Counts) bool {
	return counts.ConsecutiveFailures >= p.Threshold
}

// FailureRatio trips once at least MinRequests calls have been observed
// in the window and the failure ratio meets or exceeds Threshold.
type FailureRatio struct {
	Threshold   float64
	MinRequests uint32
}

// NewFailureRatio builds a FailureRatio policy.
func NewFailureRatio(threshold float64, minRequests uint32) FailureRatio {
	return FailureRatio{Threshold: threshold, MinRequests: minRequests}
}

// ReadyToTrip implements TripPolicy.
func (p FailureRatio) ReadyToTrip(counts Counts) bool {
	if counts.Requests < p.MinRequests {
		return false
	}
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return ratio >= p.Threshold
}
