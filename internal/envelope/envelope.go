// Package envelope computes and caches Lemire running-min/max envelopes
// used by the Keogh lower bound, and a tiny per-view cache keyed by warping
// band width so repeated bound checks against the same sequence avoid
// recomputing the envelope.
package envelope

// Compute returns the lower and upper envelope of values under a sliding
// window of half-width r: lower[i] = min(values[i-r:i+r+1]), upper[i] =
// max(values[i-r:i+r+1]), both clipped to the slice bounds. It uses
// Lemire's monotonic-deque algorithm, O(n) regardless of r.
func Compute(values []float64, r int) (lower, upper []float64) {
	n := len(values)
	lower = make([]float64, n)
	upper = make([]float64, n)
	if n == 0 {
		return lower, upper
	}
	if r < 0 {
		r = 0
	}

	maxDeque := make([]int, 0, n)
	minDeque := make([]int, 0, n)

	finalize := func(c int) {
		lo := c - r
		if lo < 0 {
			lo = 0
		}
		for maxDeque[0] < lo {
			maxDeque = maxDeque[1:]
		}
		for minDeque[0] < lo {
			minDeque = minDeque[1:]
		}
		upper[c] = values[maxDeque[0]]
		lower[c] = values[minDeque[0]]
	}

	for i := 0; i < n; i++ {
		for len(maxDeque) > 0 && values[maxDeque[len(maxDeque)-1]] <= values[i] {
			maxDeque = maxDeque[:len(maxDeque)-1]
		}
		maxDeque = append(maxDeque, i)

		for len(minDeque) > 0 && values[minDeque[len(minDeque)-1]] >= values[i] {
			minDeque = minDeque[:len(minDeque)-1]
		}
		minDeque = append(minDeque, i)

		// A center c = i-r now has its full window [c-r, c+r] = [i-2r, i]
		// seen, so it can be finalized.
		if c := i - r; c >= 0 {
			finalize(c)
		}
	}

	// Centers near the tail never reach i-r == c within the loop above
	// since i stops at n-1; finalize the remainder directly.
	for c := n - r; c < n; c++ {
		if c < 0 {
			continue
		}
		finalize(c)
	}

	return lower, upper
}

// Pair is a single view's cached envelope at one band width.
type Pair struct {
	R     int
	Lower []float64
	Upper []float64
}

// Cache holds at most one envelope per view, recomputed whenever R changes
// or the view's underlying samples are invalidated. This matches how the
// engine actually uses envelopes: one live query or one build thread holds
// at most one envelope per view at a time, never a population large enough
// to need LRU eviction.
type Cache struct {
	entries map[int]Pair // keyed by an opaque view identity supplied by the caller
	hits    int64
	misses  int64
}

// NewCache returns an empty envelope cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[int]Pair)}
}

// Get returns the cached envelope for viewKey at band width r, computing
// and storing it via computeEnvelope on a cache miss or band-width change.
// compute is not called.
func (c *Cache) Get(viewKey, r int, compute func() []float64, computeEnvelope func() (lower, upper []float64)) Pair {
	if p, ok := c.entries[viewKey]; ok && p.R == r {
		c.hits++
		return p
	}
	c.misses++
	lower, upper := computeEnvelope()
	p := Pair{R: r, Lower: lower, Upper: upper}
	c.entries[viewKey] = p
	return p
}

// Invalidate drops the cached envelope for viewKey, used when the
// underlying samples mutate (build-time centroid accumulation).
func (c *Cache) Invalidate(viewKey int) {
	delete(c.entries, viewKey)
}

// Stats reports hit/miss counters for observability.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits, c.misses
}
