package distance

import (
	"fmt"
	"math"

	"github.com/genexlabs/genex/internal/generrors"
)

// Pairwise computes the distance between two equal-length sequences under
// metric, honoring a dropout upper bound: if the distance is provably going
// to exceed dropout, Pairwise returns +Inf without finishing the scan.
// Returns ErrLengthMismatch if len(a) != len(b).
func Pairwise(m Metric, a, b []float64, dropout float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("pairwise distance %d vs %d: %w", len(a), len(b), generrors.ErrLengthMismatch)
	}
	n := len(a)
	acc := m.Init()

	useInverse := m.SupportsInverseNorm()
	var invThreshold float64
	if useInverse {
		invThreshold = m.InverseNorm(dropout, n, n)
	}

	for i := 0; i < n; i++ {
		acc = m.Reduce(acc, a[i], b[i])
		if useInverse {
			if acc.S0 > invThreshold {
				return math.Inf(1), nil
			}
		} else if m.Norm(acc, n, n) > dropout {
			return math.Inf(1), nil
		}
	}

	return m.Norm(acc, n, n), nil
}
