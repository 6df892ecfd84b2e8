package types

import "container/heap"

// BoundedMatchHeap keeps the K smallest-distance Matches seen so far. It is
// a max-heap on Dist: the root is always the current worst of the K kept,
// so a new candidate only needs one comparison against the root to know
// whether it displaces anything.
type BoundedMatchHeap struct {
	k     int
	items matchSlice
}

// NewBoundedMatchHeap returns a heap that retains at most k matches.
func NewBoundedMatchHeap(k int) *BoundedMatchHeap {
	h := &BoundedMatchHeap{k: k, items: make(matchSlice, 0, k)}
	heap.Init(&h.items)
	return h
}

// Offer considers m for inclusion in the kept set. It returns true if m was
// kept (either because the heap had room, or because m beat the current
// worst kept match, which was then evicted).
func (h *BoundedMatchHeap) Offer(m Match) bool {
	if h.k <= 0 {
		return false
	}
	if len(h.items) < h.k {
		heap.Push(&h.items, m)
		return true
	}
	if m.Dist >= h.items[0].Dist {
		return false
	}
	h.items[0] = m
	heap.Fix(&h.items, 0)
	return true
}

// Worst returns the current worst (largest-distance) kept match and
// whether the heap is at capacity, usable as a tightened dropout bound.
func (h *BoundedMatchHeap) Worst() (Match, bool) {
	if len(h.items) < h.k {
		return Match{}, false
	}
	return h.items[0], true
}

// Len reports how many matches are currently kept.
func (h *BoundedMatchHeap) Len() int {
	return len(h.items)
}

// Drain empties the heap and returns its contents sorted ascending by Dist.
func (h *BoundedMatchHeap) Drain() []Match {
	out := make([]Match, len(h.items))
	copy(out, h.items)
	h.items = h.items[:0]
	SortMatches(out)
	return out
}

type matchSlice []Match

func (s matchSlice) Len() int            { return len(s) }
func (s matchSlice) Less(i, j int) bool  { return s[i].Dist > s[j].Dist } // max-heap
func (s matchSlice) Swap(i, j int)       { s[i], s[j] = s[j], s[i] }
func (s *matchSlice) Push(x interface{}) { *s = append(*s, x.(Match)) }
func (s *matchSlice) Pop() interface{} {
	old := *s
	n := len(old)
	item := old[n-1]
	*s = old[:n-1]
	return item
}
