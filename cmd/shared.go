package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/genexlabs/genex/internal/config"
	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/group"
	"github.com/genexlabs/genex/internal/index"
	"github.com/genexlabs/genex/internal/loader"
	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/types"
)

func prometheusDefaultRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// buildIndexFromDataset loads a dataset and builds a fresh index over it
// under engineCfg. Query-facing commands default to rebuilding per
// invocation rather than restoring from a dump, since exact member-level
// refinement always needs the underlying sample data in memory regardless
// of which path produced the clusters; `genex persist restore` exercises
// the persist.RestoreBinary path directly when a dump is available.
func buildIndexFromDataset(datasetPath string, engineCfg config.EngineConfig, metricsReg *metrics.Registry) (*index.Index, *types.SampleBlock, error) {
	f, err := os.Open(datasetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	block, err := loader.Load(f)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}

	registry := distance.NewRegistry()
	ix := index.New(registry, metricsReg)
	if _, err := ix.Build(context.Background(), block, engineCfg, nil); err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}
	return ix, block, nil
}

// collectSpaces gathers every length space an Index has built, for the
// persist package's map-keyed dump writers.
func collectSpaces(ix *index.Index, maxLength int) map[int]*group.LengthSpace {
	out := make(map[int]*group.LengthSpace)
	for length := 2; length <= maxLength; length++ {
		if ls, ok := ix.LengthSpace(length); ok {
			out[length] = ls
		}
	}
	return out
}
