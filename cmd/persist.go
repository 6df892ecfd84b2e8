package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/loader"
	"github.com/genexlabs/genex/internal/metrics"
	"github.com/genexlabs/genex/internal/persist"
	"github.com/genexlabs/genex/internal/retrieval"
)

var persistInspectLegacy bool
var persistRestoreDataset string
var persistRestoreValues string
var persistRestoreK int

var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Inspect and restore index dump files",
}

var persistInspectCmd = &cobra.Command{
	Use:   "inspect [dump file]",
	Short: "Print a summary of a binary or legacy-text index dump",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersistInspect,
}

var persistRestoreCmd = &cobra.Command{
	Use:   "restore [dump file]",
	Short: "Restore a binary dump into a queryable index and run a k-best query against it",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersistRestore,
}

func init() {
	persistInspectCmd.Flags().BoolVar(&persistInspectLegacy, "legacy-text", false, "parse the dump as the legacy plain-text format")
	persistCmd.AddCommand(persistInspectCmd)

	persistRestoreCmd.Flags().StringVar(&persistRestoreDataset, "dataset", "", "path to the flat dataset file the dump was built from (required)")
	persistRestoreCmd.Flags().StringVar(&persistRestoreValues, "values", "", "comma-separated query values (required)")
	persistRestoreCmd.Flags().IntVar(&persistRestoreK, "k", 10, "number of results to return")
	_ = persistRestoreCmd.MarkFlagRequired("dataset")
	_ = persistRestoreCmd.MarkFlagRequired("values")
	persistCmd.AddCommand(persistRestoreCmd)

	rootCmd.AddCommand(persistCmd)
}

func runPersistInspect(c *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("persist inspect: %w", err)
	}
	defer f.Close()

	if persistInspectLegacy {
		header, spaces, err := persist.ReadLegacyText(f)
		if err != nil {
			return err
		}
		fmt.Printf("legacy dump %s: threshold=%g lengths=[%d,%d)\n", header.Version, header.Threshold, header.LengthLow, header.LengthHigh)
		for length, clusters := range spaces {
			fmt.Printf("  length %d: %d clusters\n", length, len(clusters))
		}
		return nil
	}

	header, spaces, err := persist.ReadBinary(f)
	if err != nil {
		return err
	}
	fmt.Printf("binary dump: items=%d maxLength=%d distance=%s threshold=%g bandRatio=%g spaces=%d\n",
		header.ItemCount, header.MaxLength, header.DistanceName, header.Threshold, header.BandRatio, header.SpaceCount)
	for length, clusters := range spaces {
		total := 0
		for _, c := range clusters {
			total += len(c.Members)
		}
		fmt.Printf("  length %d: %d clusters, %d members\n", length, len(clusters), total)
	}
	return nil
}

func runPersistRestore(c *cobra.Command, args []string) error {
	query, err := parseValues(persistRestoreValues)
	if err != nil {
		return err
	}

	df, err := os.Open(persistRestoreDataset)
	if err != nil {
		return fmt.Errorf("persist restore: open dataset: %w", err)
	}
	defer df.Close()
	block, err := loader.Load(df)
	if err != nil {
		return fmt.Errorf("persist restore: load dataset: %w", err)
	}

	df2, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("persist restore: open dump: %w", err)
	}
	defer df2.Close()

	registry := distance.NewRegistry()
	metricsReg := metrics.NewRegistry(prometheusDefaultRegisterer())
	ix, err := persist.RestoreBinary(df2, block, registry, metricsReg, cfg.Engine)
	if err != nil {
		return fmt.Errorf("persist restore: %w", err)
	}

	matches, err := retrieval.KBest(context.Background(), ix, query, persistRestoreK, cfg.Engine, metricsReg)
	if err != nil {
		return fmt.Errorf("persist restore: kbest: %w", err)
	}
	for i, m := range matches {
		fmt.Printf("%d: %s dist=%g\n", i+1, m.View.ID(), m.Dist)
	}
	return nil
}
