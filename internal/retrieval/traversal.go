// Package retrieval implements best-match and k-best nearest-neighbor
// queries over a built index.Index: which length spaces to visit, in what
// order, and how to prune and refine candidates within them.
package retrieval

import "github.com/genexlabs/genex/internal/distance"

// Order returns the length spaces a query of length qLen should visit, in
// visitation order, for an index whose longest indexed length is maxLen.
//
// Without warping (bandRatio <= 0) only the query's own length can match,
// since unwarped comparison requires equal-length sequences. With warping,
// the traversal starts at qLen and expands outward on each side
// independently and asymmetrically: the low side stops once the query's
// own band, band(qLen), can no longer reach it, while the high side keeps
// extending as long as the *candidate's* band, band(high) - which grows
// with length - can still reach back to qLen. A warping path can only
// absorb a length difference up to the relevant band before the DTW
// recurrence has no feasible cells left to fill.
func Order(qLen, maxLen int, bandRatio float64) []int {
	if qLen < 1 {
		return nil
	}
	if bandRatio <= 0 {
		if qLen > maxLen {
			return nil
		}
		return []int{qLen}
	}

	order := make([]int, 0, 4)
	if qLen <= maxLen {
		order = append(order, qLen)
	}

	lowBand := distance.Band(qLen, bandRatio)
	for low := qLen - 1; low >= 1; low-- {
		if low+lowBand < qLen {
			break
		}
		order = append(order, low)
	}

	for high := qLen + 1; high <= maxLen; high++ {
		if qLen+distance.Band(high, bandRatio) < high {
			break
		}
		order = append(order, high)
	}

	return order
}
