package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/genexlabs/genex/internal/config"
	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/generrors"
	"github.com/genexlabs/genex/internal/index"
	"github.com/genexlabs/genex/internal/types"
)

func TestOrderWithoutWarpingOnlyVisitsQueryLength(t *testing.T) {
	order := Order(5, 10, 0)
	if len(order) != 1 || order[0] != 5 {
		t.Fatalf("Order without warping = %v, want [5]", order)
	}
}

func TestOrderWithWarpingExpandsOutwardFromQueryLength(t *testing.T) {
	order := Order(5, 10, 1.0)
	if len(order) == 0 || order[0] != 5 {
		t.Fatalf("Order should start at query length, got %v", order)
	}
	seen := map[int]bool{}
	for _, l := range order {
		if l < 1 || l > 10 {
			t.Fatalf("Order produced out-of-range length %d", l)
		}
		seen[l] = true
	}
}

// TestOrderLiteralWorkedExample reproduces the spec's own worked example:
// band ratio 0.4, maxLen 7, order(3) == [3, 2, 4, 5]. The high side keeps
// extending past where a symmetric radius centered on qLen would stop,
// since band(5) = 2 is wider than band(3) = 1.
func TestOrderLiteralWorkedExample(t *testing.T) {
	got := Order(3, 7, 0.4)
	want := []int{3, 2, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Order(3, 7, 0.4) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Order(3, 7, 0.4) = %v, want %v", got, want)
		}
	}
}

func buildTestIndex(t *testing.T) *index.Index {
	t.Helper()
	rows := [][]float64{
		{0, 1, 2, 3, 4},
		{0, 1, 2, 3, 4.02},
		{20, 21, 22, 23, 24},
	}
	block := types.NewSampleBlock(len(rows), 5)
	for i, r := range rows {
		block.Lengths[i] = len(r)
		copy(block.Row(i), r)
	}

	ix := index.New(distance.NewRegistry(), nil)
	cfg := config.DefaultEngineConfig()
	cfg.Threshold = 0.5
	cfg.WarpingBandRatio = 0
	if _, err := ix.Build(context.Background(), block, cfg, nil); err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestBestMatchFindsIdenticalRow(t *testing.T) {
	ix := buildTestIndex(t)
	cfg := config.DefaultEngineConfig()
	cfg.Threshold = 0.5
	cfg.WarpingBandRatio = 0

	match, err := BestMatch(context.Background(), ix, []float64{0, 1, 2, 3, 4}, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if match.Dist > 0.1 {
		t.Errorf("expected a near-identical match, got dist=%v", match.Dist)
	}
}

func TestKBestReturnsSortedResultsWithinK(t *testing.T) {
	ix := buildTestIndex(t)
	cfg := config.DefaultEngineConfig()
	cfg.Threshold = 100
	cfg.WarpingBandRatio = 0
	cfg.H = 5

	matches, err := KBest(context.Background(), ix, []float64{0, 1, 2, 3, 4}, 3, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) > 3 {
		t.Fatalf("got %d matches, want at most 3", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Dist < matches[i-1].Dist {
			t.Fatalf("matches not sorted ascending: %v", matches)
		}
	}
}

// TestKBestRejectsHLessThanK checks that an explicit h below k (here k=5,
// h=2) errors rather than silently examining fewer candidates than
// requested.
func TestKBestRejectsHLessThanK(t *testing.T) {
	ix := buildTestIndex(t)
	cfg := config.DefaultEngineConfig()
	cfg.H = 2

	_, err := KBest(context.Background(), ix, []float64{0, 1, 2, 3, 4}, 5, cfg, nil)
	if !errors.Is(err, generrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for h < k, got %v", err)
	}
}

// TestKBestMatchesBruteForceTopK builds an index with a tight threshold so
// the dataset splits across several clusters, then checks that KBest's
// output set equals the brute-force top-k computed directly against every
// row - the full/borderline split must never drop a candidate a flat
// per-cluster h cap would have kept only by accident.
func TestKBestMatchesBruteForceTopK(t *testing.T) {
	rows := [][]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1},
		{0, 0, 0, 1, 1},
		{0, 0, 1, 1, 1},
		{0, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{5, 5, 5, 5, 5},
		{9, 9, 9, 9, 9},
	}
	block := types.NewSampleBlock(len(rows), 5)
	for i, r := range rows {
		block.Lengths[i] = len(r)
		copy(block.Row(i), r)
	}

	ix := index.New(distance.NewRegistry(), nil)
	cfg := config.DefaultEngineConfig()
	cfg.Threshold = 0.5
	cfg.WarpingBandRatio = 0
	cfg.K = 4
	cfg.H = 6
	if _, err := ix.Build(context.Background(), block, cfg, nil); err != nil {
		t.Fatal(err)
	}

	query := []float64{0, 0, 0, 0, 0}
	got, err := KBest(context.Background(), ix, query, cfg.K, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != cfg.K {
		t.Fatalf("got %d matches, want %d", len(got), cfg.K)
	}

	var brute []types.Match
	for i, row := range rows {
		view, err := types.NewView(block, i, 0, len(row))
		if err != nil {
			t.Fatal(err)
		}
		d, err := distance.Pairwise(distance.Euclidean{}, query, view.Values(), math.Inf(1))
		if err != nil {
			t.Fatal(err)
		}
		brute = append(brute, types.Match{View: view, Dist: d})
	}
	types.SortMatches(brute)
	bruteTop := brute[:cfg.K]

	gotRows := map[int]bool{}
	for _, m := range got {
		gotRows[m.View.Index] = true
	}
	for _, m := range bruteTop {
		if !gotRows[m.View.Index] {
			t.Errorf("brute-force top-%d row %d (dist=%v) missing from KBest result %v", cfg.K, m.View.Index, m.Dist, got)
		}
	}
}

func TestBestMatchOnUnbuiltIndexIsNotIndexed(t *testing.T) {
	ix := index.New(distance.NewRegistry(), nil)
	cfg := config.DefaultEngineConfig()
	if _, err := BestMatch(context.Background(), ix, []float64{1, 2, 3}, cfg, nil); err == nil {
		t.Fatal("expected ErrNotIndexed")
	}
}
