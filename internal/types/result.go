package types

import "sort"

// Match is a single retrieval result: a view paired with its distance to
// the query.
type Match struct {
	View SequenceView
	Dist float64
}

// Less orders matches ascending by (Dist, Index, Start, Length), the order
// required of k-best results.
func (m Match) Less(other Match) bool {
	if m.Dist != other.Dist {
		return m.Dist < other.Dist
	}
	return m.View.Less(other.View)
}

// SortMatches sorts matches ascending per Match.Less, in place.
func SortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Less(matches[j])
	})
}

// LengthSpaceStats summarizes one length space after a build.
type LengthSpaceStats struct {
	Length       int
	ClusterCount int
	MemberCount  int
	BuildMs      int64
}

// BuildStats summarizes a completed Index.Build call.
type BuildStats struct {
	TotalGroups int
	PerLength   []LengthSpaceStats
	DurationMs  int64
}
