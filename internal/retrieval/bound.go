package retrieval

import (
	"math"
	"sort"

	"github.com/genexlabs/genex/internal/group"
)

// groupHit is one surviving cluster from the inter-cluster phase: its
// length space, the cluster itself, and its centroid distance to the
// query.
type groupHit struct {
	ls   *group.LengthSpace
	cl   *group.Cluster
	dist float64
}

// groupWindow keeps the minimal, ascending-by-dist set of group hits whose
// cumulative member count covers at least target members, pruning any
// worse hit as soon as the groups already kept are enough on their own.
// This plays the role of the source's inter_level_k_sim heap without its
// heapify-once/push_heap hazard: offer keeps the set sorted and trimmed
// after every insertion, so bound() is always exact, not just eventually
// consistent.
type groupWindow struct {
	target int
	hits   []groupHit
}

func newGroupWindow(target int) *groupWindow {
	return &groupWindow{target: target}
}

// bound returns the distance of the current borderline group - the
// closest-sorted group at which cumulative membership first reaches
// target - or +Inf if the groups kept so far don't yet cover target
// members. Any not-yet-seen candidate whose distance is no better than
// this bound cannot change the final selection and may be pruned.
func (w *groupWindow) bound() float64 {
	total := 0
	for _, h := range w.hits {
		total += h.cl.Count()
		if total >= w.target {
			return h.dist
		}
	}
	return math.Inf(1)
}

// offer inserts h in sorted position and trims the tail once the kept
// prefix already covers target members, discarding any farther hit that
// can no longer be part of the minimal covering set.
func (w *groupWindow) offer(h groupHit) {
	i := sort.Search(len(w.hits), func(i int) bool { return w.hits[i].dist >= h.dist })
	w.hits = append(w.hits, groupHit{})
	copy(w.hits[i+1:], w.hits[i:])
	w.hits[i] = h

	total := 0
	cut := len(w.hits)
	for idx, hh := range w.hits {
		total += hh.cl.Count()
		if total >= w.target {
			cut = idx + 1
			break
		}
	}
	w.hits = w.hits[:cut]
}

// split partitions the kept hits into the groups that are strictly better
// than the borderline group (full: every member is a candidate) and the
// single borderline group at which cumulative membership first reaches
// target, along with k', the exact number of its members still needed to
// reach target once the full groups' members are counted. If even every
// kept hit together falls short of target, there is no borderline group:
// every hit is full and the caller will simply return fewer than target
// candidates.
func (w *groupWindow) split() (full []groupHit, borderline *groupHit, kPrime int) {
	total := 0
	for idx, h := range w.hits {
		needed := w.target - total
		total += h.cl.Count()
		if total >= w.target {
			return w.hits[:idx], &w.hits[idx], needed
		}
	}
	return w.hits, nil, 0
}
