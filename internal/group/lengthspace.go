package group

import (
	"fmt"
	"math"

	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/types"
)

// LengthSpace holds every cluster formed over subsequences of one fixed
// length, built once by the sequential leader/covering algorithm and then
// queried read-only until the next rebuild.
type LengthSpace struct {
	Length int
	// Threshold is the raw covering threshold tau passed to Build; the
	// actual covering radius enforced during assignment is Threshold/2.
	Threshold float64
	BandRatio float64
	IsDTW     bool
	Metric    distance.Metric

	block    *types.SampleBlock
	arena    *arena
	Clusters []*Cluster
}

// Build runs the sequential leader/covering algorithm over every
// subsequence of the given length in block: each subsequence, visited in
// row-major order, joins the nearest existing cluster whose centroid is
// within the covering radius threshold/2, or else seeds a new cluster.
// Clusters are never split or merged once formed, and no subsequence is
// ever revisited, so the result is deterministic for a fixed visitation
// order.
func Build(block *types.SampleBlock, length int, m distance.Metric, isDTW bool, threshold, bandRatio float64) (*LengthSpace, error) {
	if length <= 0 || length > block.MaxLength() {
		return nil, fmt.Errorf("group: build length %d: %w", length, generrors.ErrInvalidArgument)
	}

	coveringRadius := threshold / 2

	ls := &LengthSpace{
		Length:    length,
		Threshold: threshold,
		BandRatio: bandRatio,
		IsDTW:     isDTW,
		Metric:    m,
		block:     block,
		arena:     newArena(block.ItemCount()),
	}

	for row := 0; row < block.ItemCount(); row++ {
		subCount := block.SubSeqCount(row, length)
		for start := 0; start < subCount; start++ {
			view, err := types.NewView(block, row, start, length)
			if err != nil {
				return nil, err
			}

			best := -1
			bestDist := math.Inf(1)
			for idx, cl := range ls.Clusters {
				d, err := cl.DistanceFromCentroid(m, view, isDTW, bandRatio, coveringRadius)
				if err != nil {
					return nil, err
				}
				if d <= coveringRadius && d < bestDist {
					best, bestDist = idx, d
				}
			}

			if best == -1 {
				cl := newCluster(len(ls.Clusters), length, view)
				memberIdx := ls.arena.push(row, start, -1)
				cl.Head = memberIdx
				ls.Clusters = append(ls.Clusters, cl)
				continue
			}

			cl := ls.Clusters[best]
			memberIdx := ls.arena.push(row, start, cl.Head)
			cl.Head = memberIdx
			cl.absorb(view)
		}
	}

	return ls, nil
}

// ClusterMembers returns cluster's (row, start) member pairs in the order
// they were originally added: the arena's linked list is newest-first
// (Build prepends), so this walks it and reverses, for persistence.
func (ls *LengthSpace) ClusterMembers(cluster *Cluster) [][2]int {
	var members [][2]int
	for idx := cluster.Head; idx != -1; idx = ls.arena.next[idx] {
		members = append(members, [2]int{ls.arena.rows[idx], ls.arena.starts[idx]})
	}
	for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
		members[i], members[j] = members[j], members[i]
	}
	return members
}

// RestoreCluster is one cluster's id and its member (row, start) pairs in
// insertion order, as read back from a persisted dump.
type RestoreCluster struct {
	ID      int
	Members [][2]int
}

// Restore reconstructs a LengthSpace directly from persisted cluster
// membership rather than re-running the leader/covering algorithm: each
// cluster's centroid is rebuilt by replaying absorb over its members in
// their original insertion order, exactly reproducing the centroid Build
// would have computed.
func Restore(block *types.SampleBlock, length int, m distance.Metric, isDTW bool, threshold, bandRatio float64, clusters []RestoreCluster) (*LengthSpace, error) {
	if length <= 0 || length > block.MaxLength() {
		return nil, fmt.Errorf("group: restore length %d: %w", length, generrors.ErrInvalidArgument)
	}

	ls := &LengthSpace{
		Length:    length,
		Threshold: threshold,
		BandRatio: bandRatio,
		IsDTW:     isDTW,
		Metric:    m,
		block:     block,
		arena:     newArena(block.ItemCount()),
	}

	for _, rc := range clusters {
		if len(rc.Members) == 0 {
			continue
		}
		var cl *Cluster
		for _, rs := range rc.Members {
			row, start := rs[0], rs[1]
			view, err := types.NewView(block, row, start, length)
			if err != nil {
				return nil, fmt.Errorf("group: restore cluster %d member (%d,%d): %w", rc.ID, row, start, err)
			}
			if cl == nil {
				cl = newCluster(rc.ID, length, view)
				cl.Head = ls.arena.push(row, start, -1)
			} else {
				cl.Head = ls.arena.push(row, start, cl.Head)
				cl.absorb(view)
			}
		}
		ls.Clusters = append(ls.Clusters, cl)
	}

	return ls, nil
}

// memberView reconstructs the view for an arena member index.
func (ls *LengthSpace) memberView(memberIdx int) (types.SequenceView, error) {
	return types.NewView(ls.block, ls.arena.rows[memberIdx], ls.arena.starts[memberIdx], ls.Length)
}

// MemberCount reports the total number of subsequences absorbed across all
// clusters in this length space.
func (ls *LengthSpace) MemberCount() int {
	return ls.arena.len()
}

func (ls *LengthSpace) distanceTo(query, candidate []float64, dropout float64) float64 {
	if ls.IsDTW {
		return distance.Warped(ls.Metric, query, candidate, dropout, ls.BandRatio, nil)
	}
	d, err := distance.Pairwise(ls.Metric, query, candidate, dropout)
	if err != nil {
		return math.Inf(1)
	}
	return d
}

// BestMatchInGroup scans every member of cluster and returns the one
// closest to query, refining the cluster-level estimate down to an exact
// per-member distance.
func (ls *LengthSpace) BestMatchInGroup(cluster *Cluster, query types.SequenceView, dropout float64) (types.Match, bool, error) {
	best := types.Match{Dist: math.Inf(1)}
	found := false

	for idx := cluster.Head; idx != -1; idx = ls.arena.next[idx] {
		mv, err := ls.memberView(idx)
		if err != nil {
			return types.Match{}, false, err
		}
		d := ls.distanceTo(query.Values(), mv.Values(), dropout)
		if d < best.Dist {
			best = types.Match{View: mv, Dist: d}
			found = true
		}
	}

	return best, found, nil
}

// IntraKSim returns the k closest members of cluster to query, exact and
// sorted ascending by distance, using a bounded max-heap so the scan never
// materializes more than k candidates at once.
func (ls *LengthSpace) IntraKSim(cluster *Cluster, query types.SequenceView, k int, dropout float64) ([]types.Match, error) {
	h := types.NewBoundedMatchHeap(k)

	for idx := cluster.Head; idx != -1; idx = ls.arena.next[idx] {
		mv, err := ls.memberView(idx)
		if err != nil {
			return nil, err
		}
		bound := dropout
		if worst, full := h.Worst(); full {
			bound = worst.Dist
		}
		d := ls.distanceTo(query.Values(), mv.Values(), bound)
		if math.IsInf(d, 1) {
			continue
		}
		h.Offer(types.Match{View: mv, Dist: d})
	}

	return h.Drain(), nil
}
