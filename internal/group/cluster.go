package group

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/types"
)

// Cluster is one sequential-covering group: a running-sum centroid plus a
// linked list of member subsequences, all of the same length, all within
// half the owning LengthSpace's threshold of the centroid at assignment
// time.
type Cluster struct {
	ID           int
	MemberLength int

	sum   types.SequenceView // owned accumulator: running sum of member values
	count int

	Head int // arena index of the most recently added member, -1 if empty
}

func newCluster(id, length int, seed types.SequenceView) *Cluster {
	sum := types.NewOwnedView(seed.Index, seed.Start, length)
	c := &Cluster{ID: id, MemberLength: length, sum: sum, count: 0, Head: -1}
	c.absorb(seed)
	return c
}

// absorb folds view into the running-sum centroid and bumps the count.
func (c *Cluster) absorb(view types.SequenceView) {
	if err := c.sum.AddInPlace(view); err != nil {
		panic(fmt.Sprintf("group: centroid length mismatch: %v", err))
	}
	c.count++
}

// Count reports how many members the cluster has absorbed.
func (c *Cluster) Count() int {
	return c.count
}

// Centroid returns the cluster's mean member, a fresh owned view so callers
// may read it without racing future absorb calls.
func (c *Cluster) Centroid() types.SequenceView {
	mean := c.sum.Clone()
	if c.count > 0 {
		floats.Scale(1.0/float64(c.count), mean.Values())
	}
	return mean
}

// DistanceFromCentroid measures how far view is from the cluster's current
// mean, using the banded DTW recurrence when isDTW is set and a plain
// pairwise scan otherwise.
func (c *Cluster) DistanceFromCentroid(m distance.Metric, view types.SequenceView, isDTW bool, bandRatio, dropout float64) (float64, error) {
	centroid := c.Centroid()
	if isDTW {
		return distance.Warped(m, centroid.Values(), view.Values(), dropout, bandRatio, nil), nil
	}
	return distance.Pairwise(m, centroid.Values(), view.Values(), dropout)
}
