// Package cmd implements the genex command-line interface: build an
// index from a flat dataset, query it for best or k-best matches, persist
// it to disk, and serve it over HTTP.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/genexlabs/genex/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "genex",
	Short: "Approximate similarity search over time-series subsequences",
	Long: `genex builds a length-partitioned, cluster-covered index over every
subsequence of a flat time-series dataset, then answers best-match and
k-best nearest-neighbor queries against it under a choice of distance
metrics, with or without dynamic time warping.`,
	SilenceUsage: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, c.Flags())
		if err != nil {
			return err
		}
		if verbose {
			loaded.Verbose = true
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command, printing any error to stderr.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "genex:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func logf(format string, args ...interface{}) {
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
