package distance

import (
	"math"

	"github.com/genexlabs/genex/internal/envelope"
)

// KimLowerBound is a cheap, constant-work lower bound on the banded DTW
// distance between a and b: the square root of the squared endpoint
// distances plus the smallest squared distance found in a 3x3 neighborhood
// at each end. The result is not divided by a length, unlike Warped's. It
// degenerates to 0 when either sequence is empty and to a single squared
// point distance when the shorter sequence has length 1.
func KimLowerBound(a, b []float64, dropout float64) float64 {
	m, n := len(a), len(b)
	minLen := m
	if n < minLen {
		minLen = n
	}
	if minLen == 0 {
		return 0
	}
	if minLen == 1 {
		d := a[0] - b[len(b)-1]
		if m > 1 {
			d = a[0] - b[0]
		}
		return d * d
	}

	sqDiff := func(x, y float64) float64 { d := x - y; return d * d }
	dropoutSq := dropout * dropout

	sum := sqDiff(a[0], b[0])
	if sum > dropoutSq {
		return math.Inf(1)
	}
	sum += sqDiff(a[m-1], b[n-1])
	if sum > dropoutSq {
		return math.Inf(1)
	}

	startMin := math.Inf(1)
	for k := 0; k < 3 && k < m; k++ {
		for l := 0; l < 3 && l < n; l++ {
			if k == 0 && l == 0 {
				continue
			}
			if d := sqDiff(a[k], b[l]); d < startMin {
				startMin = d
			}
		}
	}
	if !math.IsInf(startMin, 1) {
		sum += startMin
		if sum > dropoutSq {
			return math.Inf(1)
		}
	}

	endMin := math.Inf(1)
	for k := 0; k < 3 && k < m; k++ {
		for l := 0; l < 3 && l < n; l++ {
			if k == 0 && l == 0 {
				continue
			}
			if d := sqDiff(a[m-1-k], b[n-1-l]); d < endMin {
				endMin = d
			}
		}
	}
	if !math.IsInf(endMin, 1) {
		sum += endMin
		if sum > dropoutSq {
			return math.Inf(1)
		}
	}

	return math.Sqrt(sum)
}

// KeoghLowerBound bounds the Euclidean banded DTW distance between a and b
// using a's running-min/max envelope at band width Band(max(len(a),len(b)),
// bandRatio): any point of b that falls outside a's envelope at the same
// position contributes its squared excursion, finalized exactly as a
// single Euclidean NormDTW step so the result is directly comparable to
// Warped's output.
func KeoghLowerBound(a, b []float64, dropout, bandRatio float64) float64 {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return 0
	}
	maxLen := m
	if n > maxLen {
		maxLen = n
	}
	r := Band(maxLen, bandRatio)
	lower, upper := envelope.Compute(a, r)

	limit := m
	if n < limit {
		limit = n
	}

	euclid := Euclidean{}
	acc := euclid.Init()
	for i := 0; i < limit; i++ {
		switch {
		case b[i] > upper[i]:
			acc = euclid.Reduce(acc, b[i], upper[i])
		case b[i] < lower[i]:
			acc = euclid.Reduce(acc, b[i], lower[i])
		}
		if euclid.NormDTW(acc, m, n) > dropout {
			return math.Inf(1)
		}
	}

	return euclid.NormDTW(acc, m, n)
}

// CrossKeoghLowerBound is max(KeoghLowerBound(a, b), KeoghLowerBound(b, a)),
// short-circuiting to +Inf as soon as either side exceeds dropout.
func CrossKeoghLowerBound(a, b []float64, dropout, bandRatio float64) float64 {
	d1 := KeoghLowerBound(a, b, dropout, bandRatio)
	if math.IsInf(d1, 1) {
		return math.Inf(1)
	}
	d2 := KeoghLowerBound(b, a, dropout, bandRatio)
	if math.IsInf(d2, 1) {
		return math.Inf(1)
	}
	if d2 > d1 {
		return d2
	}
	return d1
}

// CascadedEuclideanDTW is the Euclidean/DTW fast path: a cross-Keogh bound
// check first, falling through to the full banded DTW recurrence only if
// the bound does not already exceed dropout.
func CascadedEuclideanDTW(a, b []float64, dropout, bandRatio float64, matching *[]Step) float64 {
	if math.IsInf(CrossKeoghLowerBound(a, b, dropout, bandRatio), 1) {
		return math.Inf(1)
	}
	return Warped(Euclidean{}, a, b, dropout, bandRatio, matching)
}
