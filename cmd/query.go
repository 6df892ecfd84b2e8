package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/retrieval"
)

var queryValuesFlag string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find the single closest indexed subsequence to a query vector",
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&cfg.DatasetPath, "dataset", "", "path to the flat dataset file (required)")
	queryCmd.Flags().StringVar(&queryValuesFlag, "values", "", "comma-separated query values (required)")
	queryCmd.Flags().Float64Var(&cfg.Engine.Threshold, "threshold", 1.0, "cluster threshold; the covering radius for assignment is threshold/2")
	queryCmd.Flags().StringVar(&cfg.Engine.Distance, "distance", "euclidean", "distance metric, optionally suffixed _dtw")
	queryCmd.Flags().Float64Var(&cfg.Engine.WarpingBandRatio, "band-ratio", 0.1, "Sakoe-Chiba band as a fraction of sequence length")
	_ = queryCmd.MarkFlagRequired("dataset")
	_ = queryCmd.MarkFlagRequired("values")
	rootCmd.AddCommand(queryCmd)
}

func parseValues(raw string) ([]float64, error) {
	fields := strings.Split(raw, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("bad query value %q: %w", f, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func runQuery(c *cobra.Command, args []string) error {
	query, err := parseValues(queryValuesFlag)
	if err != nil {
		return err
	}

	metricsReg := metrics.NewRegistry(prometheusDefaultRegisterer())
	ix, _, err := buildIndexFromDataset(cfg.DatasetPath, cfg.Engine, metricsReg)
	if err != nil {
		return err
	}

	match, err := retrieval.BestMatch(context.Background(), ix, query, cfg.Engine, metricsReg)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	fmt.Printf("best match: %s dist=%g\n", match.View.ID(), match.Dist)
	return nil
}
