package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/index"
	"github.com/genexlabs/genex/internal/loader"
	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/persist"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an index over a flat dataset and write an index dump",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&cfg.DatasetPath, "dataset", "", "path to the flat dataset file (required)")
	buildCmd.Flags().StringVar(&cfg.IndexPath, "out", "genex.index", "path to write the index dump")
	buildCmd.Flags().Float64Var(&cfg.Engine.Threshold, "threshold", 1.0, "cluster threshold; the covering radius for assignment is threshold/2")
	buildCmd.Flags().StringVar(&cfg.Engine.Distance, "distance", "euclidean", "distance metric, optionally suffixed _dtw")
	buildCmd.Flags().Float64Var(&cfg.Engine.WarpingBandRatio, "band-ratio", 0.1, "Sakoe-Chiba band as a fraction of sequence length")
	buildCmd.Flags().IntVar(&cfg.Engine.NumThreads, "threads", 0, "worker pool size, 0 lets the pool choose")
	buildCmd.Flags().BoolVar(&cfg.LegacyText, "legacy-text", false, "write the legacy plain-text dump instead of binary")
	_ = buildCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(c *cobra.Command, args []string) error {
	f, err := os.Open(cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("build: open dataset: %w", err)
	}
	defer f.Close()

	block, err := loader.Load(f)
	if err != nil {
		return fmt.Errorf("build: load dataset: %w", err)
	}
	logf("loaded %d rows, max length %d", block.ItemCount(), block.MaxLength())

	registry := distance.NewRegistry()
	metricsReg := metrics.NewRegistry(prometheusDefaultRegisterer())
	ix := index.New(registry, metricsReg)

	bar := progressbar.Default(int64(block.MaxLength()-1), "building length spaces")
	stats, err := ix.Build(context.Background(), block, cfg.Engine, func(length, clusterCount, memberCount int) {
		bar.Add(1)
		logf("length %d: %d clusters over %d members", length, clusterCount, memberCount)
	})
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	fmt.Printf("built %d groups across %d length spaces in %dms\n", stats.TotalGroups, len(stats.PerLength), stats.DurationMs)

	out, err := os.Create(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("build: create dump file: %w", err)
	}
	defer out.Close()

	dumpSpaces := collectSpaces(ix, block.MaxLength())
	if cfg.LegacyText {
		err = persist.WriteLegacyText(out, block.ItemCount(), block.MaxLength(), cfg.Engine.Threshold, dumpSpaces, true)
	} else {
		err = persist.WriteBinary(out, block.ItemCount(), block.MaxLength(), cfg.Engine.Distance, cfg.Engine.Threshold, cfg.Engine.WarpingBandRatio, dumpSpaces)
	}
	if err != nil {
		return fmt.Errorf("build: write dump: %w", err)
	}

	fmt.Printf("wrote index dump to %s\n", cfg.IndexPath)
	return nil
}
