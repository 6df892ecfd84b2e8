package group

import (
	"math"
	"testing"

	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/types"
)

func blockFromRows(rows [][]float64) *types.SampleBlock {
	maxLen := 0
	for _, r := range rows {
		if len(r) > maxLen {
			maxLen = len(r)
		}
	}
	b := types.NewSampleBlock(len(rows), maxLen)
	for i, r := range rows {
		b.Lengths[i] = len(r)
		copy(b.Row(i), r)
	}
	return b
}

func TestBuildSeparatesDistantSequences(t *testing.T) {
	block := blockFromRows([][]float64{
		{0, 0, 0, 0},
		{0.01, -0.01, 0, 0.01},
		{100, 100, 100, 100},
	})

	ls, err := Build(block, 4, distance.Euclidean{}, false, 0.5, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ls.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(ls.Clusters))
	}

	total := 0
	for _, c := range ls.Clusters {
		total += c.Count()
	}
	if total != ls.MemberCount() {
		t.Errorf("cluster member counts sum to %d, arena has %d", total, ls.MemberCount())
	}
}

func TestBuildRejectsOversizedLength(t *testing.T) {
	block := blockFromRows([][]float64{{1, 2, 3}})
	if _, err := Build(block, 10, distance.Euclidean{}, false, 1.0, 0.1); err == nil {
		t.Fatal("expected error for length exceeding block max")
	}
}

func TestBestMatchInGroupFindsExactMember(t *testing.T) {
	block := blockFromRows([][]float64{
		{1, 2, 3},
		{1, 2, 3.05},
		{1, 2, 3.1},
	})
	ls, err := Build(block, 3, distance.Euclidean{}, false, 1.0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ls.Clusters) != 1 {
		t.Fatalf("expected all rows to join one cluster, got %d", len(ls.Clusters))
	}

	query, _ := types.NewView(block, 1, 0, 3)
	match, found, err := ls.BestMatchInGroup(ls.Clusters[0], query, math.Inf(1))
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if match.Dist > 1e-9 {
		t.Errorf("exact member should have distance ~0, got %v", match.Dist)
	}
}

// TestBuildCoveringRadiusIsHalfThreshold reproduces the scenario where a
// length-10 space built with threshold 0.5 over two well-separated clouds
// of subsequences forms exactly 2 clusters, each seed within 0.25 (= tau/2)
// of every member it covers.
func TestBuildCoveringRadiusIsHalfThreshold(t *testing.T) {
	rows := [][]float64{
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0.05, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
		{100.05, 100, 100, 100, 100, 100, 100, 100, 100, 100},
	}
	block := blockFromRows(rows)

	ls, err := Build(block, 10, distance.Euclidean{}, false, 0.5, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ls.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(ls.Clusters))
	}

	for _, cl := range ls.Clusters {
		// The seed is the last node on the cluster's linked list: members
		// are prepended, so the seed is the only one with no successor.
		seedIdx := cl.Head
		for ls.arena.next[seedIdx] != -1 {
			seedIdx = ls.arena.next[seedIdx]
		}
		seed, err := ls.memberView(seedIdx)
		if err != nil {
			t.Fatal(err)
		}

		for idx := cl.Head; idx != -1; idx = ls.arena.next[idx] {
			member, err := ls.memberView(idx)
			if err != nil {
				t.Fatal(err)
			}
			d, err := distance.Pairwise(distance.Euclidean{}, seed.Values(), member.Values(), math.Inf(1))
			if err != nil {
				t.Fatal(err)
			}
			if d > 0.25 {
				t.Errorf("member %s distance to seed %s = %v, want <= 0.25", member.ID(), seed.ID(), d)
			}
		}
	}
}

func TestIntraKSimReturnsSortedBoundedResults(t *testing.T) {
	block := blockFromRows([][]float64{
		{0, 0},
		{0, 1},
		{0, 2},
		{0, 3},
	})
	ls, err := Build(block, 2, distance.Euclidean{}, false, 10, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	query, _ := types.NewView(block, 0, 0, 2)
	matches, err := ls.IntraKSim(ls.Clusters[0], query, 2, math.Inf(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Dist > matches[1].Dist {
		t.Errorf("matches not sorted ascending: %v", matches)
	}
}
