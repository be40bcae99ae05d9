package redlock

import "sort"

// ttlReading is one instance's answer to readTtl: the value currently
// stored at the resource's key and its remaining PTTL in milliseconds.
type ttlReading struct {
	value string
	pttl  int64
}

// introspectTTL implements the quorum TTL introspection protocol (fan out
// readTtl, group by reported value, require the largest group to meet
// quorum, then take the order statistic that gives the largest m such
// that at least quorum servers report a TTL of at least m).
//
// Returns ("", 0, false) if no value is authoritative under quorum.
func introspectTTL(readings []ttlReading, quorum int, elapsedMillis int64, driftFactor float64) (value string, validity int64, ok bool) {
	groups := make(map[string][]int64, len(readings))
	for _, r := range readings {
		if r.pttl < 0 && r.pttl != -1 {
			// -2 (key absent) is not a live reading; anything else
			// negative is malformed and ignored the same way.
			continue
		}
		groups[r.value] = append(groups[r.value], r.pttl)
	}

	var authoritative string
	var ttls []int64
	for v, g := range groups {
		if len(g) > len(ttls) {
			authoritative = v
			ttls = g
		}
	}
	if len(ttls) < quorum {
		return "", 0, false
	}

	sort.Slice(ttls, func(i, j int) bool { return ttls[i] < ttls[j] })
	// The (|T|-quorum+1)-th order statistic, 1-indexed ascending: the
	// smallest value among the top `quorum` entries.
	m := ttls[len(ttls)-quorum]

	drift := driftMillis(m, driftFactor)
	return authoritative, m - elapsedMillis - drift, true
}
