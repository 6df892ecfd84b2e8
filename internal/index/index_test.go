package index

import (
	"context"
	"testing"

	"github.com/genexlabs/genex/internal/config"
	"github.com/genexlabs/genex/internal/distance"
	"github.com/genexlabs/genex/internal/types"
)

func testBlock() *types.SampleBlock {
	rows := [][]float64{
		{0, 1, 2, 3, 4},
		{0, 1, 2, 3, 4.02},
		{10, 11, 12, 13, 14},
	}
	b := types.NewSampleBlock(len(rows), 5)
	for i, r := range rows {
		b.Lengths[i] = len(r)
		copy(b.Row(i), r)
	}
	return b
}

func TestBuildPopulatesEveryLength(t *testing.T) {
	ix := New(distance.NewRegistry(), nil)
	block := testBlock()
	cfg := config.DefaultEngineConfig()
	cfg.Threshold = 0.5

	stats, err := ix.Build(context.Background(), block, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.PerLength) != block.MaxLength()-1 {
		t.Fatalf("expected %d length spaces, got %d", block.MaxLength()-1, len(stats.PerLength))
	}
	for length := 2; length <= block.MaxLength(); length++ {
		if _, ok := ix.LengthSpace(length); !ok {
			t.Errorf("missing length space %d", length)
		}
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	ix := New(distance.NewRegistry(), nil)
	cfg := config.DefaultEngineConfig()
	cfg.K = -1
	if _, err := ix.Build(context.Background(), testBlock(), cfg, nil); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildRejectsUnknownDistance(t *testing.T) {
	ix := New(distance.NewRegistry(), nil)
	cfg := config.DefaultEngineConfig()
	cfg.Distance = "not-a-metric"
	if _, err := ix.Build(context.Background(), testBlock(), cfg, nil); err == nil {
		t.Fatal("expected unknown distance error")
	}
}

func TestUnbuiltIndexIsNotIndexed(t *testing.T) {
	ix := New(distance.NewRegistry(), nil)
	if _, ok := ix.LengthSpace(2); ok {
		t.Fatal("expected no length spaces before Build")
	}
	if ix.MaxLength() != 0 {
		t.Fatal("expected MaxLength 0 before Build")
	}
}
