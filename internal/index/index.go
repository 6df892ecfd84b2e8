// Package index holds the GlobalIndex: one LengthSpace per subsequence
// length, built concurrently across a bounded worker pool and swapped in
// atomically once every length space has finished.
package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/genexlabs/genex/internal/config"
	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/group"
	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/telemetry"
	"github.com/genexlabs/genex/internal/types"
)

// ProgressFunc is invoked once per length space as it finishes building,
// in completion order (not length order, since spaces build concurrently).
// It is called from the worker pool's goroutines, so calls may overlap.
type ProgressFunc func(length, clusterCount, memberCount int)

// Index is the engine's global index: every length space currently built,
// plus the settings it was built with. A nil spaces map (the zero value)
// answers every query with ErrNotIndexed.
type Index struct {
	mu       sync.RWMutex
	spaces   map[int]*group.LengthSpace
	cfg      config.EngineConfig
	metric   distance.Metric
	isDTW    bool
	registry *distance.Registry
	metrics  *metrics.Registry
}

// New returns an unbuilt index using registry to resolve cfg.Distance.
func New(registry *distance.Registry, metricsReg *metrics.Registry) *Index {
	return &Index{registry: registry, metrics: metricsReg}
}

// Build discards any previously built length spaces and builds fresh ones
// for every length in [2, block.MaxLength()], one task per length
// submitted to a worker pool bounded by cfg.NumThreads. Each length space
// builds independently; a failure in one aborts the whole Build and
// returns that length space's error.
func (ix *Index) Build(ctx context.Context, block *types.SampleBlock, cfg config.EngineConfig, progress ProgressFunc) (types.BuildStats, error) {
	if err := cfg.Validate(); err != nil {
		return types.BuildStats{}, fmt.Errorf("index build: %w", err)
	}

	m, isDTW, err := ix.registry.Lookup(cfg.Distance)
	if err != nil {
		return types.BuildStats{}, err
	}

	ctx, span := telemetry.StartBuild(ctx, cfg.Distance, cfg.Threshold)
	defer span.End()

	start := time.Now()

	maxLen := block.MaxLength()
	p := pool.NewWithResults[lengthResult]()
	if cfg.NumThreads > 0 {
		p = p.WithMaxGoroutines(cfg.NumThreads)
	}

	for length := 2; length <= maxLen; length++ {
		length := length
		p.Go(func() lengthResult {
			_, lspan := telemetry.StartLengthSpaceBuild(ctx, length)
			defer lspan.End()

			lsStart := time.Now()
			ls, err := group.Build(block, length, m, isDTW, cfg.Threshold, cfg.WarpingBandRatio)
			elapsed := time.Since(lsStart)
			if err == nil && progress != nil {
				progress(length, len(ls.Clusters), ls.MemberCount())
			}

			return lengthResult{length: length, ls: ls, err: err, elapsed: elapsed}
		})
	}

	results := p.Wait()

	spaces := make(map[int]*group.LengthSpace, len(results))
	stats := types.BuildStats{PerLength: make([]types.LengthSpaceStats, 0, len(results))}

	for _, r := range results {
		if r.err != nil {
			return types.BuildStats{}, fmt.Errorf("build length space %d: %w", r.length, r.err)
		}
		spaces[r.length] = r.ls
		stats.TotalGroups += len(r.ls.Clusters)
		lsStats := types.LengthSpaceStats{
			Length:       r.length,
			ClusterCount: len(r.ls.Clusters),
			MemberCount:  r.ls.MemberCount(),
			BuildMs:      r.elapsed.Milliseconds(),
		}
		stats.PerLength = append(stats.PerLength, lsStats)

		if ix.metrics != nil {
			lenLabel := fmt.Sprintf("%d", r.length)
			ix.metrics.GroupsFormed.WithLabelValues(lenLabel).Add(float64(len(r.ls.Clusters)))
			ix.metrics.BuildDuration.WithLabelValues(lenLabel).Observe(r.elapsed.Seconds())
		}
	}

	stats.DurationMs = time.Since(start).Milliseconds()

	ix.mu.Lock()
	ix.spaces = spaces
	ix.cfg = cfg
	ix.metric = m
	ix.isDTW = isDTW
	ix.mu.Unlock()

	if ix.metrics != nil {
		total := 0
		for _, ls := range spaces {
			total += ls.MemberCount()
		}
		ix.metrics.IndexedSequences.Set(float64(total))
	}

	return stats, nil
}

// Restore installs pre-built length spaces - typically reconstructed by
// persist.RestoreBinary from a dump - as the index's current state, the
// same atomic swap Build performs once every length space is ready.
func (ix *Index) Restore(spaces map[int]*group.LengthSpace, cfg config.EngineConfig, m distance.Metric, isDTW bool) {
	ix.mu.Lock()
	ix.spaces = spaces
	ix.cfg = cfg
	ix.metric = m
	ix.isDTW = isDTW
	ix.mu.Unlock()

	if ix.metrics != nil {
		total := 0
		for _, ls := range spaces {
			total += ls.MemberCount()
		}
		ix.metrics.IndexedSequences.Set(float64(total))
	}
}

type lengthResult struct {
	length  int
	ls      *group.LengthSpace
	err     error
	elapsed time.Duration
}

// snapshot returns the built state needed to serve queries, or
// ErrNotIndexed if Build has never succeeded.
func (ix *Index) snapshot() (map[int]*group.LengthSpace, config.EngineConfig, distance.Metric, bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.spaces == nil {
		return nil, config.EngineConfig{}, nil, false, generrors.ErrNotIndexed
	}
	return ix.spaces, ix.cfg, ix.metric, ix.isDTW, nil
}

// MaxLength returns the longest indexed subsequence length, or 0 if
// nothing has been built.
func (ix *Index) MaxLength() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	max := 0
	for l := range ix.spaces {
		if l > max {
			max = l
		}
	}
	return max
}

// LengthSpace returns the built length space for length, if any.
func (ix *Index) LengthSpace(length int) (*group.LengthSpace, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ls, ok := ix.spaces[length]
	return ls, ok
}
