package distance

import "math"

// Step is one (i, j) cell of a warping path.
type Step struct{ I, J int }

// Warped computes the banded dynamic time warping distance between a and b
// under metric, honoring dropout as an early-exit upper bound: once a row's
// best reachable cost exceeds dropout the whole scan aborts and returns
// +Inf. If matching is non-nil, it is set to the optimal alignment path
// from (0,0) to (len(a)-1, len(b)-1), recovered by backtrace, tie-broken
// diagonal-then-up-then-left.
func Warped(m Metric, a, b []float64, dropout, bandRatio float64, matching *[]Step) float64 {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	if la == 1 && lb == 1 {
		acc := m.Reduce(m.Init(), a[0], b[0])
		if matching != nil {
			*matching = []Step{{0, 0}}
		}
		return m.NormDTW(acc, 1, 1)
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	r := Band(maxLen, bandRatio)

	acc := make([][]Accumulator, la)
	ncost := make([][]float64, la)
	for i := range acc {
		acc[i] = make([]Accumulator, lb)
		ncost[i] = make([]float64, lb)
		for j := range ncost[i] {
			ncost[i][j] = math.Inf(1)
		}
	}

	acc[0][0] = m.Reduce(m.Init(), a[0], b[0])
	ncost[0][0] = m.NormDTW(acc[0][0], 1, 1)

	limit := 2 * r
	for j := 1; j < lb && j <= limit; j++ {
		acc[0][j] = m.Reduce(acc[0][j-1], a[0], b[j])
		ncost[0][j] = m.NormDTW(acc[0][j], 1, j+1)
	}
	for i := 1; i < la && i <= limit; i++ {
		acc[i][0] = m.Reduce(acc[i-1][0], a[i], b[0])
		ncost[i][0] = m.NormDTW(acc[i][0], i+1, 1)
	}

	for i := 1; i < la; i++ {
		bestSoFar := math.Inf(1)
		lo := i - r
		if lo < 1 {
			lo = 1
		}
		hi := i + r
		if hi > lb-1 {
			hi = lb - 1
		}
		for j := lo; j <= hi; j++ {
			diagCost, upCost, leftCost := math.Inf(1), math.Inf(1), math.Inf(1)
			var diagAcc, upAcc, leftAcc Accumulator
			if i-1 >= 0 && j-1 >= 0 {
				diagCost, diagAcc = ncost[i-1][j-1], acc[i-1][j-1]
			}
			if i-1 >= 0 {
				upCost, upAcc = ncost[i-1][j], acc[i-1][j]
			}
			if j-1 >= 0 {
				leftCost, leftAcc = ncost[i][j-1], acc[i][j-1]
			}

			bestCost, bestAcc := diagCost, diagAcc
			if upCost < bestCost {
				bestCost, bestAcc = upCost, upAcc
			}
			if leftCost < bestCost {
				bestCost, bestAcc = leftCost, leftAcc
			}
			if math.IsInf(bestCost, 1) {
				continue
			}

			acc[i][j] = m.Reduce(bestAcc, a[i], b[j])
			ncost[i][j] = m.NormDTW(acc[i][j], i+1, j+1)
			if ncost[i][j] < bestSoFar {
				bestSoFar = ncost[i][j]
			}
		}
		if bestSoFar > dropout {
			return math.Inf(1)
		}
	}

	final := ncost[la-1][lb-1]
	if math.IsInf(final, 1) || final > dropout {
		return math.Inf(1)
	}

	if matching != nil {
		*matching = backtrace(ncost, la, lb)
	}

	return final
}

func backtrace(ncost [][]float64, la, lb int) []Step {
	path := make([]Step, 0, la+lb)
	i, j := la-1, lb-1
	path = append(path, Step{i, j})

	for i > 0 || j > 0 {
		diagCost, upCost, leftCost := math.Inf(1), math.Inf(1), math.Inf(1)
		if i > 0 && j > 0 {
			diagCost = ncost[i-1][j-1]
		}
		if i > 0 {
			upCost = ncost[i-1][j]
		}
		if j > 0 {
			leftCost = ncost[i][j-1]
		}

		switch {
		case i > 0 && j > 0 && diagCost <= upCost && diagCost <= leftCost:
			i, j = i-1, j-1
		case i > 0 && upCost <= leftCost:
			i--
		case j > 0:
			j--
		default:
			i, j = 0, 0
		}
		path = append(path, Step{i, j})
	}

	for l, rr := 0, len(path)-1; l < rr; l, rr = l+1, rr-1 {
		path[l], path[rr] = path[rr], path[l]
	}
	return path
}
