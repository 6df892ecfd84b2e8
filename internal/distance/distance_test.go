package distance

import (
	"math"
	"testing"
)

func TestBand(t *testing.T) {
	tests := []struct {
		length int
		ratio  float64
		want   int
	}{
		{10, 0.1, 1},
		{10, 1.0, 9},
		{7, 0.4, 2},
		{1, 0.5, 0},
	}
	for _, tt := range tests {
		if got := Band(tt.length, tt.ratio); got != tt.want {
			t.Errorf("Band(%d, %v) = %d, want %d", tt.length, tt.ratio, got, tt.want)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	m, isDTW, err := r.Lookup("euclidean")
	if err != nil || isDTW || m.Name() != "euclidean" {
		t.Fatalf("Lookup(euclidean) = %v, %v, %v", m, isDTW, err)
	}

	m, isDTW, err = r.Lookup("euclidean_dtw")
	if err != nil || !isDTW || m.Name() != "euclidean" {
		t.Fatalf("Lookup(euclidean_dtw) = %v, %v, %v", m, isDTW, err)
	}

	if _, _, err := r.Lookup("nope"); err == nil {
		t.Fatal("expected error for unknown distance")
	}
}

func TestPairwiseIdentity(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	for _, m := range []Metric{Euclidean{}, Manhattan{}, Chebyshev{}, Cosine{}, Sorensen{}} {
		d, err := Pairwise(m, a, a, math.Inf(1))
		if err != nil {
			t.Fatalf("%s: %v", m.Name(), err)
		}
		if d > 1e-9 {
			t.Errorf("%s: self distance = %v, want ~0", m.Name(), d)
		}
	}
}

func TestPairwiseLengthMismatch(t *testing.T) {
	_, err := Pairwise(Euclidean{}, []float64{1, 2}, []float64{1, 2, 3}, math.Inf(1))
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestPairwiseDropout(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{10, 10, 10}
	d, err := Pairwise(Euclidean{}, a, b, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(d, 1) {
		t.Errorf("expected +Inf under tight dropout, got %v", d)
	}
}

func TestWarpedSingletonFastPath(t *testing.T) {
	d := Warped(Euclidean{}, []float64{3}, []float64{7}, math.Inf(1), 1.0, nil)
	want := 4.0 / 2.0 // sqrt(16)/(2*1)
	if math.Abs(d-want) > 1e-9 {
		t.Errorf("Warped singleton = %v, want %v", d, want)
	}
}

func TestWarpedIdentity(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	var path []Step
	d := Warped(Euclidean{}, a, a, math.Inf(1), 1.0, &path)
	if d > 1e-9 {
		t.Errorf("identical sequences should warp to ~0, got %v", d)
	}
	if len(path) == 0 || path[0] != (Step{0, 0}) || path[len(path)-1] != (Step{4, 4}) {
		t.Errorf("unexpected backtrace path: %v", path)
	}
}

func TestKeoghLowerBoundScenario(t *testing.T) {
	a := []float64{0, 2, 3, 5, 8, 6, 3, 2, 3, 5}
	b := []float64{8, 4, 6, 1, 5, 10, 9}
	got := KeoghLowerBound(a, b, 10, 0.2)
	want := math.Sqrt(31) / 20
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("KeoghLowerBound = %v, want %v", got, want)
	}
}

func TestKeoghLowerBoundBoundsWarped(t *testing.T) {
	a := []float64{0, 2, 3, 5, 8, 6, 3, 2, 3, 5}
	b := []float64{8, 4, 6, 1, 5, 10, 9}
	keogh := KeoghLowerBound(a, b, math.Inf(1), 0.2)
	warped := Warped(Euclidean{}, a, b, math.Inf(1), 0.2, nil)
	if keogh > warped+1e-9 {
		t.Errorf("Keogh lower bound %v exceeds warped distance %v", keogh, warped)
	}
}

func TestCascadedEuclideanDTWMatchesWarpedWhenNotPruned(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{1, 2, 3, 4, 6}
	cascaded := CascadedEuclideanDTW(a, b, math.Inf(1), 1.0, nil)
	direct := Warped(Euclidean{}, a, b, math.Inf(1), 1.0, nil)
	if math.Abs(cascaded-direct) > 1e-9 {
		t.Errorf("cascaded = %v, direct = %v", cascaded, direct)
	}
}

func TestKimLowerBoundDegenerate(t *testing.T) {
	if d := KimLowerBound(nil, []float64{1}, math.Inf(1)); d != 0 {
		t.Errorf("empty sequence should give 0, got %v", d)
	}
	if d := KimLowerBound([]float64{3}, []float64{1, 2, 7}, math.Inf(1)); d != 16 {
		t.Errorf("single-point bound = %v, want 16", d)
	}
}
