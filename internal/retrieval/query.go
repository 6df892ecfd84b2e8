package retrieval

import (
	"context"
	"fmt"
	"math"

	"github.com/genexlabs/genex/internal/config"
	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/index"
	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/telemetry"
	"github.com/genexlabs/genex/internal/types"
)

// BestMatch finds the single closest indexed subsequence to query across
// every length space Order visits, refining the cluster-level estimate to
// an exact per-member distance before moving to the next length space.
// Returns ErrNotIndexed if ix has never been built successfully.
func BestMatch(ctx context.Context, ix *index.Index, query []float64, cfg config.EngineConfig, m *metrics.Registry) (types.Match, error) {
	maxLen := ix.MaxLength()
	if maxLen == 0 {
		return types.Match{}, generrors.ErrNotIndexed
	}

	_, span := telemetry.StartQuery(ctx, len(query))
	defer span.End()

	qv := types.NewQueryView(query)
	order := Order(len(query), maxLen, cfg.WarpingBandRatio)

	best := types.Match{Dist: math.Inf(1)}
	found := false
	visited := 0

	for _, length := range order {
		ls, ok := ix.LengthSpace(length)
		if !ok {
			continue
		}
		visited++

		bestClusterIdx := -1
		bestClusterDist := math.Inf(1)
		for idx, cl := range ls.Clusters {
			d, err := cl.DistanceFromCentroid(ls.Metric, qv, ls.IsDTW, ls.BandRatio, best.Dist)
			if err != nil {
				return types.Match{}, err
			}
			if d < bestClusterDist {
				bestClusterIdx, bestClusterDist = idx, d
			}
		}
		if bestClusterIdx == -1 {
			if m != nil {
				m.ClusterPrunes.WithLabelValues("best_match").Add(float64(len(ls.Clusters)))
			}
			continue
		}

		match, ok, err := ls.BestMatchInGroup(ls.Clusters[bestClusterIdx], qv, best.Dist)
		if err != nil {
			return types.Match{}, err
		}
		if ok && match.Dist < best.Dist {
			best, found = match, true
		}
	}

	if m != nil {
		m.LengthsVisited.WithLabelValues("best_match").Observe(float64(visited))
	}
	if !found {
		return types.Match{}, generrors.ErrNotIndexed
	}
	return best, nil
}

// KBest finds the k closest indexed subsequences to query, exact and
// sorted ascending by distance. h bounds how many candidates are examined
// in total before truncating to k (h >= k). It runs in two phases: an
// inter-cluster phase that keeps, in a groupWindow, the minimal set of
// clusters by centroid distance whose cumulative membership covers h
// candidates, pruning farther clusters with the current borderline
// distance as a tightening dropout bound; then an intra-cluster phase
// that takes every member of each strictly-better group in full, and
// exactly k' = h-so-far-short members from the single borderline group,
// each initially bounded by its group's centroid distance plus the
// length space's threshold (twice the covering radius), recomputes their
// exact distance, and truncates the merged, sorted result to k.
func KBest(ctx context.Context, ix *index.Index, query []float64, k int, cfg config.EngineConfig, m *metrics.Registry) ([]types.Match, error) {
	maxLen := ix.MaxLength()
	if maxLen == 0 {
		return nil, generrors.ErrNotIndexed
	}
	if k <= 0 {
		k = cfg.K
	}
	h := cfg.H
	if h <= 0 {
		h = k
	} else if h < k {
		return nil, fmt.Errorf("kbest: h (%d) must be >= k (%d): %w", h, k, generrors.ErrInvalidArgument)
	}

	_, span := telemetry.StartKBestQuery(ctx, len(query), k)
	defer span.End()

	qv := types.NewQueryView(query)
	order := Order(len(query), maxLen, cfg.WarpingBandRatio)

	window := newGroupWindow(h)
	visited := 0

	for _, length := range order {
		ls, ok := ix.LengthSpace(length)
		if !ok {
			continue
		}
		visited++
		for _, cl := range ls.Clusters {
			d, err := cl.DistanceFromCentroid(ls.Metric, qv, ls.IsDTW, ls.BandRatio, window.bound())
			if err != nil {
				return nil, err
			}
			if math.IsInf(d, 1) {
				if m != nil {
					m.ClusterPrunes.WithLabelValues("k_best").Add(1)
				}
				continue
			}
			window.offer(groupHit{ls: ls, cl: cl, dist: d})
		}
	}

	full, borderline, kPrime := window.split()

	var candidates []types.Match
	for _, g := range full {
		members, err := g.ls.IntraKSim(g.cl, qv, g.cl.Count(), g.dist+g.ls.Threshold)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, members...)
	}
	if borderline != nil && kPrime > 0 {
		members, err := borderline.ls.IntraKSim(borderline.cl, qv, kPrime, borderline.dist+borderline.ls.Threshold)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, members...)
	}

	types.SortMatches(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	if m != nil {
		m.LengthsVisited.WithLabelValues("k_best").Observe(float64(visited))
	}

	return candidates, nil
}
