package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/retrieval"
)

var (
	kbestValuesFlag string
	kbestK          int
)

var kbestCmd = &cobra.Command{
	Use:   "kbest",
	Short: "Find the k closest indexed subsequences to a query vector",
	RunE:  runKBest,
}

func init() {
	kbestCmd.Flags().StringVar(&cfg.DatasetPath, "dataset", "", "path to the flat dataset file (required)")
	kbestCmd.Flags().StringVar(&kbestValuesFlag, "values", "", "comma-separated query values (required)")
	kbestCmd.Flags().IntVar(&kbestK, "k", 10, "number of results to return")
	kbestCmd.Flags().IntVar(&cfg.Engine.H, "h", 20, "total candidate examine budget during refinement (must be >= k)")
	kbestCmd.Flags().Float64Var(&cfg.Engine.Threshold, "threshold", 1.0, "cluster threshold; the covering radius for assignment is threshold/2")
	kbestCmd.Flags().StringVar(&cfg.Engine.Distance, "distance", "euclidean", "distance metric, optionally suffixed _dtw")
	kbestCmd.Flags().Float64Var(&cfg.Engine.WarpingBandRatio, "band-ratio", 0.1, "Sakoe-Chiba band as a fraction of sequence length")
	_ = kbestCmd.MarkFlagRequired("dataset")
	_ = kbestCmd.MarkFlagRequired("values")
	rootCmd.AddCommand(kbestCmd)
}

func runKBest(c *cobra.Command, args []string) error {
	query, err := parseValues(kbestValuesFlag)
	if err != nil {
		return err
	}

	metricsReg := metrics.NewRegistry(prometheusDefaultRegisterer())
	ix, _, err := buildIndexFromDataset(cfg.DatasetPath, cfg.Engine, metricsReg)
	if err != nil {
		return err
	}

	matches, err := retrieval.KBest(context.Background(), ix, query, kbestK, cfg.Engine, metricsReg)
	if err != nil {
		return fmt.Errorf("kbest: %w", err)
	}

	for i, m := range matches {
		fmt.Printf("%d: %s dist=%g\n", i+1, m.View.ID(), m.Dist)
	}
	return nil
}
