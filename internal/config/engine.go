// Package config holds the engine's tunable parameters and the CLI-facing
// viper-backed configuration that populates them.
package config

import (
	"fmt"

	"github.com/genexlabs/genex/internal/generrors"
)

// EngineConfig holds every parameter that shapes a build or a query:
// threaded explicitly through Index.Build, retrieval.BestMatch and
// retrieval.KBest rather than stashed in package globals, so a process can
// hold more than one engine at different settings.
type EngineConfig struct {
	// WarpingBandRatio bounds the Sakoe-Chiba band as a fraction of the
	// longer sequence's length; 0 disables warping entirely.
	WarpingBandRatio float64 `mapstructure:"band-ratio"`

	// Distance names a registered metric, optionally suffixed "_dtw" to
	// select the banded DTW recurrence over plain pairwise comparison.
	Distance string `mapstructure:"distance"`

	// Threshold is the covering threshold tau: during Build a subsequence
	// joins an existing cluster only if its centroid distance is at most
	// Threshold/2.
	Threshold float64 `mapstructure:"threshold"`

	// NumThreads bounds how many length spaces build concurrently. <= 0
	// means "let the worker pool pick a default".
	NumThreads int `mapstructure:"threads"`

	// K is the default result count for KBest when a caller does not
	// override it per call.
	K int `mapstructure:"k"`

	// H is the default total examine budget for KBest's inter-cluster
	// phase when a caller does not override it per call. Must be >= K.
	H int `mapstructure:"h"`
}

// DefaultEngineConfig returns the defaults the CLI starts from: a 0.1
// warping band ratio, Euclidean distance, threshold 1.0, a pool-chosen
// thread count, and K=10, H=20.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WarpingBandRatio: 0.1,
		Distance:         "euclidean",
		Threshold:        1.0,
		NumThreads:       0,
		K:                10,
		H:                20,
	}
}

// Validate rejects settings the engine cannot act on.
func (c EngineConfig) Validate() error {
	if c.WarpingBandRatio < 0 || c.WarpingBandRatio > 1 {
		return fmt.Errorf("warping band ratio %v out of [0,1]", c.WarpingBandRatio)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold %v must be non-negative", c.Threshold)
	}
	if c.K <= 0 {
		return fmt.Errorf("k must be positive, got %d: %w", c.K, generrors.ErrInvalidArgument)
	}
	if c.H <= 0 {
		return fmt.Errorf("h must be positive, got %d: %w", c.H, generrors.ErrInvalidArgument)
	}
	if c.H < c.K {
		return fmt.Errorf("h (%d) must be >= k (%d): %w", c.H, c.K, generrors.ErrInvalidArgument)
	}
	return nil
}
