package poller

import "strings"

// tracker remembers which item fingerprints were present in the last
// completed cycle for each feed URL. It lives only in memory; a restart
// reseeds it via first-cycle suppression. Only the single active cycle
// touches it, so no locking is needed.
type tracker struct {
	seen map[string]map[uint64]struct{}
}

func newTracker() *tracker {
	return &tracker{seen: make(map[string]map[uint64]struct{})}
}

// beginCycle reports whether url has never completed a cycle and returns
// the previously committed set. The returned set must not be mutated.
func (t *tracker) beginCycle(url string) (first bool, prev map[uint64]struct{}) {
	key := canonicalURL(url)
	prev, ok := t.seen[key]
	if !ok {
		return true, nil
	}
	return false, prev
}

// commitCycle replaces the stored set for url with the fingerprints
// processed this cycle. Replacement, not union: items that dropped off the
// upstream feed drop out of the tracker, bounding it to current feed size.
func (t *tracker) commitCycle(url string, processed map[uint64]struct{}) {
	t.seen[canonicalURL(url)] = processed
}

// canonicalURL is the tracker and grouping key. Keying by the canonical
// string instead of a numeric hash avoids cross-talk between unrelated
// feeds on hash collisions.
func canonicalURL(url string) string {
	return strings.ToLower(strings.TrimSpace(url))
}
